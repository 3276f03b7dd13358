package facade

import (
	"fmt"
	"time"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
)

// Conversions between catalog-level values and collaborator wire values.
// Outbound failures are catalog lookups; inbound failures mean the response
// carried identifiers or units outside the catalog.

func dataTypeIDs(cat *catalog.Catalog, dts []catalog.DataType) ([]string, error) {
	out := make([]string, 0, len(dts))
	for _, dt := range dts {
		id, err := cat.DataTypeID(dt)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func dataTypesOf(cat *catalog.Catalog, ids []string) ([]catalog.DataType, error) {
	out := make([]catalog.DataType, 0, len(ids))
	for _, id := range ids {
		dt, err := cat.DataTypeOf(id)
		if err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	return out, nil
}

func collectorToWire(cat *catalog.Catalog, c Collector) (collaborator.DataCollector, error) {
	id, err := cat.DataTypeID(c.DataType)
	if err != nil {
		return collaborator.DataCollector{}, err
	}
	return collaborator.DataCollector{
		DataType:         id,
		DataStreamName:   c.StreamName,
		DataGenerateType: c.GenerateType,
		DeviceID:         c.DeviceID,
	}, nil
}

func collectorFromWire(cat *catalog.Catalog, w collaborator.DataCollector) (Collector, error) {
	dt, err := cat.DataTypeOf(w.DataType)
	if err != nil {
		return Collector{}, err
	}
	return Collector{
		DataType:     dt,
		StreamName:   w.DataStreamName,
		GenerateType: w.DataGenerateType,
		DeviceID:     w.DeviceID,
	}, nil
}

func samplesToWire(cat *catalog.Catalog, unit catalog.TimeUnit, samples []Sample) ([]collaborator.SamplePoint, error) {
	d, err := cat.Unit(unit)
	if err != nil {
		return nil, err
	}
	out := make([]collaborator.SamplePoint, 0, len(samples))
	for _, s := range samples {
		field, err := cat.FieldID(s.Field)
		if err != nil {
			return nil, err
		}
		out = append(out, collaborator.SamplePoint{
			StartTime:  catalog.ToTicks(s.Start, d),
			EndTime:    catalog.ToTicks(s.End, d),
			Field:      field,
			IntValue:   s.Int,
			FloatValue: s.Float,
		})
	}
	return out, nil
}

func samplesFromWire(cat *catalog.Catalog, unit string, points []collaborator.SamplePoint) ([]Sample, error) {
	d, err := cat.Unit(catalog.TimeUnit(unit))
	if err != nil {
		return nil, err
	}
	out := make([]Sample, 0, len(points))
	for _, p := range points {
		field, err := cat.FieldOf(p.Field)
		if err != nil {
			return nil, err
		}
		out = append(out, Sample{
			Field: field,
			Start: catalog.FromTicks(p.StartTime, d),
			End:   catalog.FromTicks(p.EndTime, d),
			Int:   p.IntValue,
			Float: p.FloatValue,
		})
	}
	return out, nil
}

func rangeToWire(cat *catalog.Catalog, r TimeRange) (collaborator.TimeRange, error) {
	d, err := cat.Unit(r.Unit)
	if err != nil {
		return collaborator.TimeRange{}, err
	}
	return collaborator.TimeRange{
		StartTime: catalog.ToTicks(r.Start, d),
		EndTime:   catalog.ToTicks(r.End, d),
		TimeUnit:  string(r.Unit),
	}, nil
}

func statusFromWire(_ *catalog.Catalog, w collaborator.StatusResponse) (Status, error) {
	return Status{Applied: w.Success, Message: w.Message, Affected: w.Affected}, nil
}

func summaryFromWire(cat *catalog.Catalog, w collaborator.SummaryResponse) (Summary, error) {
	dt, err := cat.DataTypeOf(w.DataType)
	if err != nil {
		return Summary{}, err
	}
	fields := make(map[catalog.Field]float64, len(w.Fields))
	for id, v := range w.Fields {
		f, err := cat.FieldOf(id)
		if err != nil {
			return Summary{}, err
		}
		fields[f] = v
	}
	return Summary{
		DataType: dt,
		Start:    catalog.FromTicks(w.StartTime, time.Millisecond),
		End:      catalog.FromTicks(w.EndTime, time.Millisecond),
		Count:    w.Count,
		Fields:   fields,
	}, nil
}

func deviceToWire(cat *catalog.Catalog, d Device) (collaborator.Device, error) {
	ids, err := dataTypeIDs(cat, d.DataTypes)
	if err != nil {
		return collaborator.Device{}, err
	}
	return collaborator.Device{Identifier: d.Identifier, Name: d.Name, Address: d.Address, DataTypes: ids}, nil
}

func deviceFromWire(cat *catalog.Catalog, w collaborator.Device) (Device, error) {
	dts, err := dataTypesOf(cat, w.DataTypes)
	if err != nil {
		return Device{}, err
	}
	return Device{Identifier: w.Identifier, Name: w.Name, Address: w.Address, DataTypes: dts}, nil
}

func recordFromWire(cat *catalog.Catalog, w collaborator.Record) (Record, error) {
	dt, err := cat.DataTypeOf(w.DataType)
	if err != nil {
		return Record{}, err
	}
	rec := Record{ID: w.ID, DataType: dt, StartedAt: catalog.FromTicks(w.StartedAt, time.Millisecond)}
	if w.Collector != nil {
		c, err := collectorFromWire(cat, *w.Collector)
		if err != nil {
			return Record{}, err
		}
		rec.Collector = &c
	}
	return rec, nil
}

func recordsFromWire(cat *catalog.Catalog, w collaborator.RecordsResponse) ([]Record, error) {
	out := make([]Record, 0, len(w.Records))
	for _, r := range w.Records {
		rec, err := recordFromWire(cat, r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return catalog.ToTicks(t, time.Millisecond)
}

func fromMillis(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return catalog.FromTicks(v, time.Millisecond)
}

func activityToWire(cat *catalog.Catalog, a ActivityRecord) (collaborator.ActivityRecord, error) {
	ids, err := dataTypeIDs(cat, a.DataTypes)
	if err != nil {
		return collaborator.ActivityRecord{}, err
	}
	return collaborator.ActivityRecord{
		ID:           a.ID,
		Name:         a.Name,
		Description:  a.Description,
		ActivityType: a.ActivityType,
		StartTime:    millis(a.Start),
		EndTime:      millis(a.End),
		DataTypes:    ids,
	}, nil
}

func activityFromWire(cat *catalog.Catalog, w collaborator.ActivityRecord) (ActivityRecord, error) {
	dts, err := dataTypesOf(cat, w.DataTypes)
	if err != nil {
		return ActivityRecord{}, err
	}
	return ActivityRecord{
		ID:           w.ID,
		Name:         w.Name,
		Description:  w.Description,
		ActivityType: w.ActivityType,
		Start:        fromMillis(w.StartTime),
		End:          fromMillis(w.EndTime),
		DataTypes:    dts,
	}, nil
}

func scopesOf(cat *catalog.Catalog, ids []string) ([]catalog.Scope, error) {
	out := make([]catalog.Scope, 0, len(ids))
	for _, id := range ids {
		s, err := cat.ScopeOf(id)
		if err != nil {
			return nil, fmt.Errorf("granted scope: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}
