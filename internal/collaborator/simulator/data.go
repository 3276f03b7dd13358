package simulator

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
	"healthkit-bridge/internal/store"
)

func (s *Simulator) initDataController(_ context.Context, req collaborator.InitDataControllerRequest) (interface{}, error) {
	perms := make(map[string]map[int]bool)
	for _, p := range req.Permissions {
		if _, err := s.catalog.DataTypeOf(p.DataType); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDataType, p.DataType)
		}
		if p.Options != optionRead && p.Options != optionWrite {
			return nil, fmt.Errorf("%w: permission option %d", ErrInvalidArgument, p.Options)
		}
		if perms[p.DataType] == nil {
			perms[p.DataType] = make(map[int]bool)
		}
		perms[p.DataType][p.Options] = true
	}

	s.mu.Lock()
	s.dataInit = true
	s.permissions = perms
	s.mu.Unlock()
	return status("data controller initialized", len(req.Permissions)), nil
}

// checkData verifies the data controller is ready and holds the permission
// option for dataType. Custom data types need no declared permission.
func (s *Simulator) checkData(dataType string, option int) error {
	_, custom, err := s.fieldsOf(dataType)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dataInit {
		return fmt.Errorf("%w: data controller", ErrNotInitialized)
	}
	if custom {
		return nil
	}
	if !s.permissions[dataType][option] {
		verb := "read"
		if option == optionWrite {
			verb = "write"
		}
		return fmt.Errorf("%w: %s %s", ErrPermission, verb, dataType)
	}
	return nil
}

func (s *Simulator) toSamples(dataType, unitName string, points []collaborator.SamplePoint) ([]store.Sample, error) {
	unit, err := s.unit(unitName)
	if err != nil {
		return nil, err
	}
	fields, _, err := s.fieldsOf(dataType)
	if err != nil {
		return nil, err
	}
	out := make([]store.Sample, 0, len(points))
	for _, p := range points {
		if !slices.Contains(fields, p.Field) {
			return nil, fmt.Errorf("%w: %s on %s", ErrUnknownField, p.Field, dataType)
		}
		if p.EndTime < p.StartTime {
			return nil, fmt.Errorf("%w: sample ends before it starts", ErrInvalidArgument)
		}
		out = append(out, store.Sample{
			DataType:   dataType,
			Field:      p.Field,
			Start:      p.StartTime * int64(unit),
			End:        p.EndTime * int64(unit),
			IntValue:   p.IntValue,
			FloatValue: p.FloatValue,
		})
	}
	return out, nil
}

func toPoints(samples []store.Sample, unit time.Duration) []collaborator.SamplePoint {
	out := make([]collaborator.SamplePoint, 0, len(samples))
	for _, s := range samples {
		out = append(out, collaborator.SamplePoint{
			StartTime:  s.Start / int64(unit),
			EndTime:    s.End / int64(unit),
			Field:      s.Field,
			IntValue:   s.IntValue,
			FloatValue: s.FloatValue,
		})
	}
	return out
}

func (s *Simulator) rangeNanos(r collaborator.TimeRange) (int64, int64, error) {
	unit, err := s.unit(r.TimeUnit)
	if err != nil {
		return 0, 0, err
	}
	return r.StartTime * int64(unit), r.EndTime * int64(unit), nil
}

func (s *Simulator) notifyModified(dataType, unitName string, points []collaborator.SamplePoint) {
	s.mu.Lock()
	watched := s.monitored[dataType]
	s.mu.Unlock()
	if !watched {
		return
	}
	s.emit(collaborator.EventModifyDataMonitor, collaborator.DataModifiedEvent{
		DataType: dataType,
		TimeUnit: unitName,
		Samples:  points,
	})
}

func (s *Simulator) insert(ctx context.Context, req collaborator.InsertRequest) (interface{}, error) {
	dt := req.Collector.DataType
	if err := s.checkData(dt, optionWrite); err != nil {
		return nil, err
	}
	samples, err := s.toSamples(dt, req.TimeUnit, req.Samples)
	if err != nil {
		return nil, err
	}
	if err := s.device.Insert(ctx, samples); err != nil {
		return nil, err
	}
	s.notifyModified(dt, req.TimeUnit, req.Samples)
	return status("insert success", len(samples)), nil
}

func (s *Simulator) deleteData(ctx context.Context, req collaborator.DeleteRequest) (interface{}, error) {
	dt := req.Collector.DataType
	if err := s.checkData(dt, optionWrite); err != nil {
		return nil, err
	}
	from, to, err := s.rangeNanos(req.Range)
	if err != nil {
		return nil, err
	}
	removed, err := s.union(ctx, dt, from, to, true)
	if err != nil {
		return nil, err
	}
	if _, err := s.device.Delete(ctx, dt, from, to); err != nil {
		return nil, err
	}
	if _, err := s.cloud.Delete(ctx, dt, from, to); err != nil {
		return nil, err
	}
	unit, _ := s.unit(req.Range.TimeUnit)
	s.notifyModified(dt, req.Range.TimeUnit, toPoints(removed, unit))
	return status("delete success", len(removed)), nil
}

// update replaces the samples inside the range with the supplied ones, which
// must themselves lie inside the range.
func (s *Simulator) update(ctx context.Context, req collaborator.UpdateRequest) (interface{}, error) {
	dt := req.Collector.DataType
	if err := s.checkData(dt, optionWrite); err != nil {
		return nil, err
	}
	from, to, err := s.rangeNanos(req.Range)
	if err != nil {
		return nil, err
	}
	samples, err := s.toSamples(dt, req.TimeUnit, req.Samples)
	if err != nil {
		return nil, err
	}
	for _, smp := range samples {
		if !smp.Within(from, to) {
			return nil, fmt.Errorf("%w: sample outside update range", ErrInvalidArgument)
		}
	}
	if _, err := s.device.Delete(ctx, dt, from, to); err != nil {
		return nil, err
	}
	if err := s.device.Insert(ctx, samples); err != nil {
		return nil, err
	}
	s.notifyModified(dt, req.TimeUnit, req.Samples)
	return status("update success", len(samples)), nil
}

func (s *Simulator) read(ctx context.Context, req collaborator.ReadRequest) (interface{}, error) {
	dt := req.Collector.DataType
	if err := s.checkData(dt, optionRead); err != nil {
		return nil, err
	}
	from, to, err := s.rangeNanos(req.Range)
	if err != nil {
		return nil, err
	}
	samples, err := s.union(ctx, dt, from, to, true)
	if err != nil {
		return nil, err
	}
	unit, _ := s.unit(req.Range.TimeUnit)
	return collaborator.SampleSetResponse{
		DataType: dt,
		TimeUnit: req.Range.TimeUnit,
		Samples:  toPoints(samples, unit),
	}, nil
}

// union merges device samples with cloud ones when withCloud is set; the
// device copy wins on equal keys.
func (s *Simulator) union(ctx context.Context, dataType string, from, to int64, withCloud bool) ([]store.Sample, error) {
	local, err := s.device.Query(ctx, dataType, from, to)
	if err != nil {
		return nil, err
	}
	if !withCloud {
		return local, nil
	}
	remote, err := s.cloud.Query(ctx, dataType, from, to)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(local))
	for _, smp := range local {
		seen[smp.Key()] = true
	}
	for _, smp := range remote {
		if !seen[smp.Key()] {
			local = append(local, smp)
		}
	}
	sortByStart(local)
	return local, nil
}

func (s *Simulator) readTodaySummation(ctx context.Context, req collaborator.DataTypeRequest) (interface{}, error) {
	return s.summarize(ctx, req.DataType, true)
}

func (s *Simulator) readTodaySummationFromDevice(ctx context.Context, req collaborator.DataTypeRequest) (interface{}, error) {
	return s.summarize(ctx, req.DataType, false)
}

// summarize aggregates today's samples: continuous types are summed,
// instantaneous ones averaged.
func (s *Simulator) summarize(ctx context.Context, dataType string, withCloud bool) (interface{}, error) {
	if err := s.checkData(dataType, optionRead); err != nil {
		return nil, err
	}
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	samples, err := s.union(ctx, dataType, midnight.UnixNano(), now.UnixNano(), withCloud)
	if err != nil {
		return nil, err
	}

	average := false
	if name, err := s.catalog.DataTypeOf(dataType); err == nil {
		average = !strings.HasPrefix(string(name), "DT_CONTINUOUS")
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, smp := range samples {
		sums[smp.Field] += smp.Value()
		counts[smp.Field]++
	}
	if average {
		for f, total := range sums {
			sums[f] = total / float64(counts[f])
		}
	}
	return collaborator.SummaryResponse{
		DataType:  dataType,
		StartTime: catalog.ToTicks(midnight, time.Millisecond),
		EndTime:   catalog.ToTicks(now, time.Millisecond),
		Count:     len(samples),
		Fields:    sums,
	}, nil
}

func (s *Simulator) registerModifyDataMonitor(_ context.Context, req collaborator.CollectorRequest) (interface{}, error) {
	dt := req.Collector.DataType
	name, err := s.catalog.DataTypeOf(dt)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataType, dt)
	}
	spec, _ := s.catalog.Spec(name)
	if !spec.Monitorable {
		return nil, fmt.Errorf("%w: %s cannot be monitored", ErrInvalidArgument, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dataInit {
		return nil, fmt.Errorf("%w: data controller", ErrNotInitialized)
	}
	s.monitored[dt] = true
	return status("monitor registered", 1), nil
}

func (s *Simulator) unregisterModifyDataMonitor(_ context.Context, _ struct{}) (interface{}, error) {
	s.mu.Lock()
	n := len(s.monitored)
	s.monitored = make(map[string]bool)
	s.mu.Unlock()
	return status("monitor unregistered", n), nil
}

func (s *Simulator) syncAll(ctx context.Context, _ struct{}) (interface{}, error) {
	if err := s.requireDataInit(); err != nil {
		return nil, err
	}
	all, err := s.device.All(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cloud.Insert(ctx, all); err != nil {
		return nil, err
	}
	return status("sync success", len(all)), nil
}

func (s *Simulator) clearAll(ctx context.Context, _ struct{}) (interface{}, error) {
	if err := s.requireDataInit(); err != nil {
		return nil, err
	}
	if err := s.device.Clear(ctx); err != nil {
		return nil, err
	}
	if err := s.cloud.Clear(ctx); err != nil {
		return nil, err
	}
	return status("clear success", 0), nil
}

func (s *Simulator) requireDataInit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dataInit {
		return fmt.Errorf("%w: data controller", ErrNotInitialized)
	}
	return nil
}

func sortByStart(samples []store.Sample) {
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Start < samples[j].Start })
}
