package facade_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"healthkit-bridge/internal/bridge"
	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
	"healthkit-bridge/internal/collaborator/simulator"
	"healthkit-bridge/internal/common/errors"
	"healthkit-bridge/internal/common/logger"
	"healthkit-bridge/internal/facade"
	"healthkit-bridge/internal/store"
	"healthkit-bridge/internal/surface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var now = time.Date(2020, 7, 29, 12, 0, 0, 0, time.UTC)

type harness struct {
	facade *facade.Facade
	bridge *bridge.Bridge
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewZapAdapter(zap.New(core))

	b := bridge.New(log)
	t.Cleanup(b.Close)

	sim := simulator.New(simulator.Options{
		Catalog:        catalog.Default(),
		Device:         store.NewMemory(),
		Cloud:          store.NewMemory(),
		SensorInterval: 10 * time.Millisecond,
		ScanTimeScale:  0.3,
		Logger:         logger.NewTestLogger(t),
		Clock:          func() time.Time { return now },
	})
	sim.SetEmitter(b)
	t.Cleanup(sim.Close)

	f := facade.New(sim, catalog.Default(),
		facade.WithLogger(log),
		facade.WithSurfacer(surface.New(log)),
	)
	return &harness{facade: f, bridge: b, logs: logs}
}

func value[T any](t *testing.T, out facade.Outcome[T]) T {
	t.Helper()
	require.NoError(t, out.Err())
	v, ok := out.Value()
	require.True(t, ok)
	return v
}

var steps = facade.Collector{DataType: catalog.StepsDelta, StreamName: "STEPS_DELTA"}

func TestSimulator_DataLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	value(t, h.facade.InitDataController(ctx, []facade.Permission{
		{DataType: catalog.StepsDelta, Write: true},
		{DataType: catalog.StepsDelta},
	}))

	start := time.Date(2020, 7, 29, 8, 0, 0, 0, time.UTC)
	st := value(t, h.facade.Insert(ctx, facade.InsertRequest{
		Collector: steps,
		Unit:      catalog.Milliseconds,
		Samples: []facade.Sample{{
			Field: catalog.FieldStepsDelta, Start: start, End: start.Add(12 * time.Minute), Int: 1000,
		}},
	}))
	assert.True(t, st.Applied)

	day := facade.TimeRange{Start: start.Add(-time.Hour), End: start.Add(time.Hour), Unit: catalog.Milliseconds}
	set := value(t, h.facade.Read(ctx, facade.ReadRequest{Collector: steps, Range: day}))
	assert.Equal(t, catalog.StepsDelta, set.DataType)
	require.Len(t, set.Samples, 1)
	assert.Equal(t, int64(1000), set.Samples[0].Int)
	assert.True(t, start.Equal(set.Samples[0].Start))

	sum := value(t, h.facade.ReadTodaySummationFromDevice(ctx, catalog.StepsDelta))
	assert.Equal(t, 1, sum.Count)
	assert.Equal(t, 1000.0, sum.Fields[catalog.FieldStepsDelta])

	value(t, h.facade.SyncAll(ctx))
	value(t, h.facade.ClearAll(ctx))
	set = value(t, h.facade.Read(ctx, facade.ReadRequest{Collector: steps, Range: day}))
	assert.Empty(t, set.Samples)

	entries := h.logs.FilterMessage("operation succeeded").All()
	assert.Len(t, entries, 7)
}

func TestSimulator_FailureCarriesOperationAndCause(t *testing.T) {
	h := newHarness(t)

	out := h.facade.Insert(context.Background(), facade.InsertRequest{Collector: steps, Unit: catalog.Milliseconds})

	require.NotNil(t, out.Failure())
	assert.Equal(t, errors.ErrCodeInvocationFailed, out.Failure().Code)
	assert.Equal(t, collaborator.OpInsert, out.Failure().Operation)
	assert.ErrorIs(t, out.Err(), simulator.ErrNotInitialized)

	failed := h.logs.FilterMessage("operation failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, collaborator.OpInsert, failed[0].ContextMap()["operation"])
}

func TestSimulator_MonitorEventsReachBridge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	got := make(chan collaborator.DataModifiedEvent, 4)
	handle := h.bridge.Subscribe(collaborator.EventModifyDataMonitor, func(p json.RawMessage) {
		var ev collaborator.DataModifiedEvent
		if json.Unmarshal(p, &ev) == nil {
			got <- ev
		}
	})
	require.False(t, handle.IsZero())

	weight := facade.Collector{DataType: catalog.BodyWeight}
	value(t, h.facade.InitDataController(ctx, []facade.Permission{{DataType: catalog.BodyWeight, Write: true}}))
	value(t, h.facade.RegisterModifyDataMonitor(ctx, weight))

	at := now.Add(-time.Hour)
	value(t, h.facade.Insert(ctx, facade.InsertRequest{
		Collector: weight,
		Unit:      catalog.Milliseconds,
		Samples:   []facade.Sample{{Field: catalog.FieldBodyWeight, Start: at, End: at, Float: 80.5}},
	}))

	select {
	case ev := <-got:
		assert.Equal(t, "com.huawei.instantaneous.body_weight", ev.DataType)
		require.Len(t, ev.Samples, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no data-modified event delivered")
	}
	assert.True(t, h.bridge.Unsubscribe(handle))
}

func TestSimulator_RecorderAndActivity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rec := value(t, h.facade.StartRecordByType(ctx, catalog.StepsTotal))
	again := value(t, h.facade.StartRecordByType(ctx, catalog.StepsTotal))
	assert.Equal(t, rec.ID, again.ID)

	all := value(t, h.facade.GetAllRecords(ctx))
	require.Len(t, all, 1)
	assert.Equal(t, catalog.StepsTotal, all[0].DataType)

	value(t, h.facade.StopRecordByRecord(ctx, rec.ID))
	assert.Empty(t, value(t, h.facade.GetRecords(ctx, catalog.StepsTotal)))

	missing := h.facade.StopRecordByRecord(ctx, rec.ID)
	assert.ErrorIs(t, missing.Err(), simulator.ErrNotFound)

	act := value(t, h.facade.BeginActivityRecord(ctx, facade.ActivityRecord{
		Name:         "morning run",
		ActivityType: "RUNNING",
		Start:        now.Add(-30 * time.Minute),
		DataTypes:    []catalog.DataType{catalog.StepsDelta},
	}))
	assert.NotEmpty(t, act.ID)
	assert.True(t, act.End.IsZero())

	ended := value(t, h.facade.EndActivityRecord(ctx, act.ID))
	assert.False(t, ended.End.IsZero())

	found := value(t, h.facade.GetActivityRecord(ctx, facade.ActivityQuery{DataType: catalog.StepsDelta}))
	require.Len(t, found, 1)
	assert.Equal(t, "morning run", found[0].Name)
}

func TestSimulator_SettingsAndAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	info := value(t, h.facade.AddNewDataType(ctx, simulator.DefaultPackageName+".water", []string{"ml"}))
	assert.Equal(t, []string{"ml"}, info.Fields)
	read := value(t, h.facade.ReadDataType(ctx, info.Name))
	assert.Equal(t, info, read)

	value(t, h.facade.DisableHiHealth(ctx))
	blocked := h.facade.GetAllRecords(ctx)
	assert.ErrorIs(t, blocked.Err(), simulator.ErrNotAuthorized)

	acct := value(t, h.facade.SignIn(ctx, []catalog.Scope{catalog.ScopeStepRead, catalog.ScopeHeartRateBoth}))
	assert.NotEmpty(t, acct.OpenID)
	assert.ElementsMatch(t, []catalog.Scope{catalog.ScopeStepRead, catalog.ScopeHeartRateBoth}, acct.Scopes)
	value(t, h.facade.GetAllRecords(ctx))
}

func TestSimulator_ScanEvents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	const id = "bleHeartRateIdentifier"

	discovered := make(chan collaborator.Device, 8)
	ended := make(chan struct{}, 1)
	h.bridge.Subscribe(collaborator.DeviceDiscoverEvent(id), func(p json.RawMessage) {
		var d collaborator.Device
		if json.Unmarshal(p, &d) == nil {
			discovered <- d
		}
	})
	h.bridge.Subscribe(collaborator.ScanEndEvent(id), func(json.RawMessage) { ended <- struct{}{} })

	value(t, h.facade.InitBleController(ctx))
	value(t, h.facade.BeginScan(ctx, facade.ScanRequest{
		DataTypes:  []catalog.DataType{catalog.HeartRate},
		Duration:   time.Second,
		Identifier: id,
	}))

	select {
	case <-ended:
	case <-time.After(3 * time.Second):
		t.Fatal("scan never ended")
	}
	var d collaborator.Device
	select {
	case d = <-discovered:
	case <-time.After(2 * time.Second):
		t.Fatal("no device discovered")
	}

	value(t, h.facade.SaveDevice(ctx, facade.Device{
		Identifier: d.Identifier, Name: d.Name, Address: d.Address, DataTypes: []catalog.DataType{catalog.HeartRate},
	}))
	devices := value(t, h.facade.GetSavedDevices(ctx))
	require.Len(t, devices, 1)
	assert.Equal(t, d.Identifier, devices[0].Identifier)

	value(t, h.facade.InitSensorsController(ctx))
	collectors := value(t, h.facade.GetDataCollectors(ctx, catalog.HeartRate))
	assert.Len(t, collectors, 2)

	// The finished scan releases its identifier, so ending it is declined.
	require.Eventually(t, func() bool {
		st, ok := h.facade.EndScan(ctx, id).Value()
		return ok && !st.Applied
	}, 2*time.Second, 20*time.Millisecond)
}
