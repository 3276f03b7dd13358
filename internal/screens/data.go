package screens

import (
	"context"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
	"healthkit-bridge/internal/facade"
)

// Data drives the data controller: sample CRUD, daily summaries, the modify
// monitor and device/cloud sync.
type Data struct {
	*base
}

func NewData(d Deps) *Data {
	return &Data{base: newBase("data", "Data Controller", d)}
}

func (s *Data) Mount(context.Context) error {
	s.listen(collaborator.EventModifyDataMonitor, nil)
	return nil
}

func (s *Data) Actions() []Action {
	return []Action{
		{Name: "init", Description: "Request read/write permissions for steps and height", Run: s.init},
		{Name: "insert", Description: "Insert 1000 steps on 2020-07-29 08:00-08:12", Run: s.insert},
		{Name: "delete", Description: "Delete steps on 2020-07-22 09:00-09:05", Run: s.deleteSamples},
		{Name: "update", Description: "Replace steps on 2020-07-22 09:00-09:05 with 1200", Run: s.update},
		{Name: "read", Description: "Read steps between 2020-09-24 11:00 and 2020-09-29 09:00", Run: s.read},
		{Name: "readToday", Description: "Today's step summary from device and cloud", Run: s.readToday},
		{Name: "readTodayFromDevice", Description: "Today's step summary from the device", Run: s.readTodayFromDevice},
		{Name: "registerModifyDataMonitor", Description: "Watch height changes", Run: s.registerMonitor},
		{Name: "unregisterModifyDataMonitor", Description: "Stop watching data changes", Run: s.unregisterMonitor},
		{Name: "insertTestData", Description: "Insert a height sample to trigger the monitor", Run: s.insertTestData},
		{Name: "syncAll", Description: "Sync device data to the cloud", Run: s.syncAll},
		{Name: "clearAll", Description: "Clear device and cloud data", Run: s.clearAll},
	}
}

func (s *Data) init(ctx context.Context) error {
	return s.deps.Facade.InitDataController(ctx, []facade.Permission{
		{DataType: catalog.StepsDelta},
		{DataType: catalog.StepsDelta, Write: true},
		{DataType: catalog.Height},
		{DataType: catalog.Height, Write: true},
	}).Err()
}

func (s *Data) insert(ctx context.Context) error {
	start := at(2020, 7, 29, 8, 0)
	return s.deps.Facade.Insert(ctx, facade.InsertRequest{
		Collector: stepsDeltaCollector,
		Unit:      catalog.Milliseconds,
		Samples:   []facade.Sample{steps(start, at(2020, 7, 29, 8, 12), 1000)},
	}).Err()
}

func (s *Data) deleteSamples(ctx context.Context) error {
	return s.deps.Facade.Delete(ctx, facade.DeleteRequest{
		Collector: stepsDeltaCollector,
		Range:     msRange(at(2020, 7, 22, 9, 0), at(2020, 7, 22, 9, 5)),
	}).Err()
}

func (s *Data) update(ctx context.Context) error {
	from, to := at(2020, 7, 22, 9, 0), at(2020, 7, 22, 9, 5)
	return s.deps.Facade.Update(ctx, facade.UpdateRequest{
		Collector: stepsDeltaCollector,
		Unit:      catalog.Milliseconds,
		Samples:   []facade.Sample{steps(from, to, 1200)},
		Range:     msRange(from, to),
	}).Err()
}

func (s *Data) read(ctx context.Context) error {
	out := s.deps.Facade.Read(ctx, facade.ReadRequest{
		Collector: stepsDeltaCollector,
		Range:     msRange(at(2020, 9, 24, 11, 0), at(2020, 9, 29, 9, 0)),
	})
	if set, ok := out.Value(); ok {
		s.log.Info("daily steps", map[string]interface{}{"samples": len(set.Samples)})
	}
	return out.Err()
}

func (s *Data) readToday(ctx context.Context) error {
	return s.logSummary(s.deps.Facade.ReadTodaySummation(ctx, catalog.StepsDelta))
}

func (s *Data) readTodayFromDevice(ctx context.Context) error {
	return s.logSummary(s.deps.Facade.ReadTodaySummationFromDevice(ctx, catalog.StepsDelta))
}

func (s *Data) logSummary(out facade.Outcome[facade.Summary]) error {
	out.Match(func(sum facade.Summary) {
		s.log.Info("daily steps", map[string]interface{}{
			"steps": sum.Fields[catalog.FieldStepsDelta],
			"start": sum.Start,
			"end":   sum.End,
		})
	}, nil)
	return out.Err()
}

func (s *Data) registerMonitor(ctx context.Context) error {
	return s.deps.Facade.RegisterModifyDataMonitor(ctx, facade.Collector{
		DataType:   catalog.Height,
		StreamName: "STEPS_DELTA",
	}).Err()
}

func (s *Data) unregisterMonitor(ctx context.Context) error {
	return s.deps.Facade.UnregisterModifyDataMonitor(ctx).Err()
}

func (s *Data) insertTestData(ctx context.Context) error {
	when := at(2020, 9, 28, 12, 0)
	return s.deps.Facade.Insert(ctx, facade.InsertRequest{
		Collector: facade.Collector{DataType: catalog.Height},
		Unit:      catalog.Milliseconds,
		Samples:   []facade.Sample{{Field: catalog.FieldHeight, Start: when, End: when, Float: 1.75}},
	}).Err()
}

func (s *Data) syncAll(ctx context.Context) error {
	return s.deps.Facade.SyncAll(ctx).Err()
}

func (s *Data) clearAll(ctx context.Context) error {
	return s.deps.Facade.ClearAll(ctx).Err()
}
