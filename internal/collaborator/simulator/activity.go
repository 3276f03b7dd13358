package simulator

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"healthkit-bridge/internal/collaborator"

	"github.com/google/uuid"
)

func (s *Simulator) beginActivityRecord(_ context.Context, req collaborator.BeginActivityRecordRequest) (interface{}, error) {
	rec := req.Record
	if rec.Name == "" {
		return nil, fmt.Errorf("%w: activity record needs a name", ErrInvalidArgument)
	}
	for _, dt := range rec.DataTypes {
		if _, _, err := s.fieldsOf(dt); err != nil {
			return nil, err
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartTime == 0 {
		rec.StartTime = s.nowMillis()
	}
	rec.EndTime = 0

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.activities[rec.ID]; ok && prev.EndTime == 0 {
		return nil, fmt.Errorf("%w: activity record %s is running", ErrAlreadyExists, rec.ID)
	}
	s.activities[rec.ID] = rec
	return rec, nil
}

func (s *Simulator) endActivityRecord(_ context.Context, req collaborator.EndActivityRecordRequest) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.activities[req.ID]
	if !ok {
		return nil, fmt.Errorf("%w: activity record %s", ErrNotFound, req.ID)
	}
	if rec.EndTime != 0 {
		return nil, fmt.Errorf("%w: activity record %s already ended", ErrInvalidArgument, req.ID)
	}
	rec.EndTime = s.nowMillis()
	if rec.EndTime < rec.StartTime {
		rec.EndTime = rec.StartTime
	}
	s.activities[req.ID] = rec
	return rec, nil
}

// getActivityRecord filters by id and name when given, by data type when
// given, and keeps records lying within the range. Running records end now.
func (s *Simulator) getActivityRecord(_ context.Context, req collaborator.GetActivityRecordRequest) (interface{}, error) {
	unit, err := s.unit(req.Range.TimeUnit)
	if err != nil {
		return nil, err
	}
	from := req.Range.StartTime * int64(unit) / int64(time.Millisecond)
	to := req.Range.EndTime * int64(unit) / int64(time.Millisecond)
	now := s.nowMillis()

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]collaborator.ActivityRecord, 0)
	for _, rec := range s.activities {
		if req.ID != "" && rec.ID != req.ID {
			continue
		}
		if req.Name != "" && rec.Name != req.Name {
			continue
		}
		if req.DataType != "" && !slices.Contains(rec.DataTypes, req.DataType) {
			continue
		}
		end := rec.EndTime
		if end == 0 {
			end = now
		}
		if rec.StartTime >= from && end <= to {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return collaborator.ActivityRecordsResponse{Records: out}, nil
}
