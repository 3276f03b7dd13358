package screens

import (
	"context"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/facade"
)

// Activity begins and ends one activity record at a time.
type Activity struct {
	*base
	running string
}

func NewActivity(d Deps) *Activity {
	return &Activity{base: newBase("activity", "Activity Records Controller", d)}
}

func (s *Activity) Mount(context.Context) error {
	s.open()
	return nil
}

func (s *Activity) Actions() []Action {
	return []Action{
		{Name: "beginActivityRecord", Description: "Start a running activity", Run: s.begin},
		{Name: "endActivityRecord", Description: "End the running activity", Run: s.end},
		{Name: "getActivityRecord", Description: "List step activities", Run: s.list},
	}
}

func (s *Activity) begin(ctx context.Context) error {
	out := s.deps.Facade.BeginActivityRecord(ctx, facade.ActivityRecord{
		Name:         "RunningActivity",
		Description:  "Running activity record",
		ActivityType: "running",
		DataTypes:    []catalog.DataType{catalog.StepsDelta},
	})
	if rec, ok := out.Value(); ok {
		s.mu.Lock()
		s.running = rec.ID
		s.mu.Unlock()
	}
	return out.Err()
}

func (s *Activity) end(ctx context.Context) error {
	s.mu.Lock()
	id := s.running
	s.mu.Unlock()
	out := s.deps.Facade.EndActivityRecord(ctx, id)
	if out.Succeeded() {
		s.mu.Lock()
		if s.running == id {
			s.running = ""
		}
		s.mu.Unlock()
	}
	return out.Err()
}

func (s *Activity) list(ctx context.Context) error {
	out := s.deps.Facade.GetActivityRecord(ctx, facade.ActivityQuery{DataType: catalog.StepsDelta})
	if recs, ok := out.Value(); ok {
		s.log.Info("activity records", map[string]interface{}{"count": len(recs)})
	}
	return out.Err()
}
