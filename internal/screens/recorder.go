package screens

import (
	"context"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
	"healthkit-bridge/internal/facade"
)

// Recorder drives the auto recorder. The record returned by the last
// start-by-type is kept for stop-by-record.
type Recorder struct {
	*base
	record string
}

func NewRecorder(d Deps) *Recorder {
	return &Recorder{base: newBase("recorder", "Auto Recorder Controller", d)}
}

func (s *Recorder) Mount(context.Context) error {
	for _, ev := range []string{
		collaborator.EventStartRecordByTypeDone,
		collaborator.EventStartRecordByCollectorDone,
		collaborator.EventStopRecordByTypeDone,
		collaborator.EventStopRecordByCollectorDone,
	} {
		s.listen(ev, nil)
	}
	return nil
}

var stepsDeltaRecorder = facade.Collector{DataType: catalog.StepsDelta}

func (s *Recorder) Actions() []Action {
	return []Action{
		{Name: "startRecordByType", Description: "Record total steps", Run: s.startByType},
		{Name: "startRecordByCollector", Description: "Record step deltas from the phone", Run: s.startByCollector},
		{Name: "stopRecordByType", Description: "Stop recording total steps", Run: s.stopByType},
		{Name: "stopRecordByCollector", Description: "Stop recording step deltas", Run: s.stopByCollector},
		{Name: "stopRecordByRecord", Description: "Stop the last started record", Run: s.stopByRecord},
		{Name: "getAllRecords", Description: "List every running record", Run: s.allRecords},
		{Name: "getAllRecordsByType", Description: "List running total-steps records", Run: s.recordsByType},
	}
}

func (s *Recorder) startByType(ctx context.Context) error {
	out := s.deps.Facade.StartRecordByType(ctx, catalog.StepsTotal)
	if rec, ok := out.Value(); ok {
		s.mu.Lock()
		s.record = rec.ID
		s.mu.Unlock()
	}
	return out.Err()
}

func (s *Recorder) startByCollector(ctx context.Context) error {
	return s.deps.Facade.StartRecordByCollector(ctx, stepsDeltaRecorder).Err()
}

func (s *Recorder) stopByType(ctx context.Context) error {
	return s.deps.Facade.StopRecordByType(ctx, catalog.StepsTotal).Err()
}

func (s *Recorder) stopByCollector(ctx context.Context) error {
	return s.deps.Facade.StopRecordByCollector(ctx, stepsDeltaRecorder).Err()
}

func (s *Recorder) stopByRecord(ctx context.Context) error {
	s.mu.Lock()
	id := s.record
	s.mu.Unlock()
	return s.deps.Facade.StopRecordByRecord(ctx, id).Err()
}

func (s *Recorder) allRecords(ctx context.Context) error {
	return s.logRecords(s.deps.Facade.GetAllRecords(ctx))
}

func (s *Recorder) recordsByType(ctx context.Context) error {
	return s.logRecords(s.deps.Facade.GetRecords(ctx, catalog.StepsTotal))
}

func (s *Recorder) logRecords(out facade.Outcome[[]facade.Record]) error {
	if recs, ok := out.Value(); ok {
		s.log.Info("records", map[string]interface{}{"count": len(recs)})
	}
	return out.Err()
}
