package screens

import (
	"context"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/facade"
)

const customTypeSuffix = ".DT_CONTINUOUS_STEPS_TOTAL"

// Settings manages custom data types and authorization, with a few data
// and activity shortcuts.
type Settings struct {
	*base
}

func NewSettings(d Deps) *Settings {
	return &Settings{base: newBase("settings", "Setting Controller", d)}
}

func (s *Settings) Mount(context.Context) error {
	s.open()
	return nil
}

func (s *Settings) Actions() []Action {
	return []Action{
		{Name: "addNewDataType", Description: "Add the custom steps data type", Run: s.addDataType},
		{Name: "readDataType", Description: "Read the custom steps data type", Run: s.readDataType},
		{Name: "disableHiHealth", Description: "Revoke authorization", Run: s.disable},
		{Name: "insertSelfData", Description: "Insert 1000 steps on 2020-09-28 12:00-16:45", Run: s.insertSelfData},
		{Name: "readSelfData", Description: "Read steps between 2020-07-22 09:00 and 2020-09-28 16:45", Run: s.readSelfData},
		{Name: "getActivityRecord", Description: "List step activities between 2020-07-23 and 2020-09-29", Run: s.activities},
	}
}

// CustomTypeName is the custom data type managed by this screen.
func (s *Settings) CustomTypeName() string {
	return s.deps.PackageName + customTypeSuffix
}

func (s *Settings) addDataType(ctx context.Context) error {
	field, err := s.deps.Facade.Catalog().FieldID(catalog.FieldStepsDelta)
	if err != nil {
		return err
	}
	return s.deps.Facade.AddNewDataType(ctx, s.CustomTypeName(), []string{field}).Err()
}

func (s *Settings) readDataType(ctx context.Context) error {
	return s.deps.Facade.ReadDataType(ctx, s.CustomTypeName()).Err()
}

func (s *Settings) disable(ctx context.Context) error {
	return s.deps.Facade.DisableHiHealth(ctx).Err()
}

func (s *Settings) insertSelfData(ctx context.Context) error {
	return s.deps.Facade.Insert(ctx, facade.InsertRequest{
		Collector: stepsDeltaCollector,
		Unit:      catalog.Milliseconds,
		Samples:   []facade.Sample{steps(at(2020, 9, 28, 12, 0), at(2020, 9, 28, 16, 45), 1000)},
	}).Err()
}

func (s *Settings) readSelfData(ctx context.Context) error {
	out := s.deps.Facade.Read(ctx, facade.ReadRequest{
		Collector: stepsDeltaCollector,
		Range:     msRange(at(2020, 7, 22, 9, 0), at(2020, 9, 28, 16, 45)),
	})
	if set, ok := out.Value(); ok {
		s.log.Info("self data", map[string]interface{}{"samples": len(set.Samples)})
	}
	return out.Err()
}

func (s *Settings) activities(ctx context.Context) error {
	return s.deps.Facade.GetActivityRecord(ctx, facade.ActivityQuery{
		DataType: catalog.StepsDelta,
		Range:    msRange(at(2020, 7, 23, 9, 0), at(2020, 9, 29, 10, 46)),
	}).Err()
}
