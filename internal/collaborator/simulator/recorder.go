package simulator

import (
	"context"
	"fmt"
	"sort"

	"healthkit-bridge/internal/collaborator"

	"github.com/google/uuid"
)

// startRecordByType returns the running record for the data type, starting one
// if none exists.
func (s *Simulator) startRecordByType(_ context.Context, req collaborator.DataTypeRequest) (interface{}, error) {
	if _, _, err := s.fieldsOf(req.DataType); err != nil {
		return nil, err
	}
	rec := s.startRecord(req.DataType, nil)
	s.emit(collaborator.EventStartRecordByTypeDone, rec)
	return rec, nil
}

func (s *Simulator) startRecordByCollector(_ context.Context, req collaborator.CollectorRequest) (interface{}, error) {
	if _, _, err := s.fieldsOf(req.Collector.DataType); err != nil {
		return nil, err
	}
	c := req.Collector
	rec := s.startRecord(c.DataType, &c)
	s.emit(collaborator.EventStartRecordByCollectorDone, rec)
	return rec, nil
}

func (s *Simulator) startRecord(dataType string, c *collaborator.DataCollector) collaborator.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if sameSource(r, dataType, c) {
			return r
		}
	}
	rec := collaborator.Record{
		ID:        uuid.NewString(),
		DataType:  dataType,
		Collector: c,
		StartedAt: s.nowMillis(),
	}
	s.records[rec.ID] = rec
	return rec
}

func sameSource(r collaborator.Record, dataType string, c *collaborator.DataCollector) bool {
	if r.DataType != dataType {
		return false
	}
	if c == nil || r.Collector == nil {
		return c == nil && r.Collector == nil
	}
	return r.Collector.DeviceID == c.DeviceID && r.Collector.DataStreamName == c.DataStreamName
}

func (s *Simulator) stopRecordByType(_ context.Context, req collaborator.DataTypeRequest) (interface{}, error) {
	n := s.stopWhere(func(r collaborator.Record) bool { return r.DataType == req.DataType })
	resp := status("record stopped", n)
	s.emit(collaborator.EventStopRecordByTypeDone, resp)
	return resp, nil
}

func (s *Simulator) stopRecordByCollector(_ context.Context, req collaborator.CollectorRequest) (interface{}, error) {
	c := req.Collector
	n := s.stopWhere(func(r collaborator.Record) bool { return sameSource(r, c.DataType, &c) })
	resp := status("record stopped", n)
	s.emit(collaborator.EventStopRecordByCollectorDone, resp)
	return resp, nil
}

func (s *Simulator) stopRecordByRecord(_ context.Context, req collaborator.RecordIDRequest) (interface{}, error) {
	n := s.stopWhere(func(r collaborator.Record) bool { return r.ID == req.RecordID })
	if n == 0 {
		return nil, fmt.Errorf("%w: record %s", ErrNotFound, req.RecordID)
	}
	return status("record stopped", n), nil
}

func (s *Simulator) stopWhere(match func(collaborator.Record) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, r := range s.records {
		if match(r) {
			delete(s.records, id)
			n++
		}
	}
	return n
}

func (s *Simulator) getAllRecords(_ context.Context, _ struct{}) (interface{}, error) {
	return collaborator.RecordsResponse{Records: s.recordsWhere(func(collaborator.Record) bool { return true })}, nil
}

func (s *Simulator) getRecords(_ context.Context, req collaborator.DataTypeRequest) (interface{}, error) {
	return collaborator.RecordsResponse{Records: s.recordsWhere(func(r collaborator.Record) bool {
		return r.DataType == req.DataType
	})}, nil
}

func (s *Simulator) recordsWhere(match func(collaborator.Record) bool) []collaborator.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]collaborator.Record, 0, len(s.records))
	for _, r := range s.records {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt != out[j].StartedAt {
			return out[i].StartedAt < out[j].StartedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}
