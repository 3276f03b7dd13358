// Package simulator is an in-process health SDK. It serves every collaborator
// operation from two sample stores (device and cloud) and pushes the events
// the real SDK would: sensor readings, scan discoveries, monitor and recorder
// callbacks.
package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
	"healthkit-bridge/internal/common/logger"
	"healthkit-bridge/internal/store"

	"github.com/google/uuid"
)

var (
	ErrNotInitialized  = errors.New("CONTROLLER_NOT_INITIALIZED")
	ErrNotAuthorized   = errors.New("NOT_AUTHORIZED")
	ErrPermission      = errors.New("PERMISSION_DENIED")
	ErrUnknownDataType = errors.New("UNKNOWN_DATA_TYPE")
	ErrUnknownField    = errors.New("UNKNOWN_FIELD")
	ErrInvalidArgument = errors.New("INVALID_ARGUMENT")
	ErrNotFound        = errors.New("NOT_FOUND")
	ErrAlreadyExists   = errors.New("ALREADY_EXISTS")
)

const (
	DefaultPackageName    = "com.huawei.healthkit.demo"
	DefaultSensorInterval = time.Second

	optionRead  = 0
	optionWrite = 1
)

type Options struct {
	Catalog        *catalog.Catalog
	Device         store.SampleStore
	Cloud          store.SampleStore
	PackageName    string
	SensorInterval time.Duration
	// ScanTimeScale stretches (>1) or compresses (<1) BLE scan durations.
	ScanTimeScale float64
	Logger        logger.Logger
	Clock         func() time.Time
}

type handlerFunc func(ctx context.Context, req json.RawMessage) (interface{}, error)

type Simulator struct {
	catalog     *catalog.Catalog
	device      store.SampleStore
	cloud       store.SampleStore
	packageName string
	interval    time.Duration
	scanScale   float64
	logger      logger.Logger
	now         func() time.Time
	handlers    map[string]handlerFunc
	openID      string
	bleDevices  []collaborator.Device

	emitMu  sync.RWMutex
	emitter collaborator.Emitter

	mu          sync.Mutex
	authorized  bool
	dataInit    bool
	sensorsInit bool
	bleInit     bool
	permissions map[string]map[int]bool
	monitored   map[string]bool
	sensors     map[string]context.CancelFunc
	scans       map[string]*scanRun
	saved       map[string]collaborator.Device
	records     map[string]collaborator.Record
	activities  map[string]collaborator.ActivityRecord
	customTypes map[string][]string

	wg sync.WaitGroup
}

func New(opts Options) *Simulator {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Device == nil {
		opts.Device = store.NewMemory()
	}
	if opts.Cloud == nil {
		opts.Cloud = store.NewMemory()
	}
	if opts.PackageName == "" {
		opts.PackageName = DefaultPackageName
	}
	if opts.SensorInterval <= 0 {
		opts.SensorInterval = DefaultSensorInterval
	}
	if opts.ScanTimeScale <= 0 {
		opts.ScanTimeScale = 1
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &Simulator{
		catalog:     opts.Catalog,
		device:      opts.Device,
		cloud:       opts.Cloud,
		packageName: opts.PackageName,
		interval:    opts.SensorInterval,
		scanScale:   opts.ScanTimeScale,
		logger:      opts.Logger.WithFields(map[string]interface{}{"component": "simulator"}),
		now:         opts.Clock,
		openID:      uuid.NewString(),
		authorized:  true,
		permissions: make(map[string]map[int]bool),
		monitored:   make(map[string]bool),
		sensors:     make(map[string]context.CancelFunc),
		scans:       make(map[string]*scanRun),
		saved:       make(map[string]collaborator.Device),
		records:     make(map[string]collaborator.Record),
		activities:  make(map[string]collaborator.ActivityRecord),
		customTypes: make(map[string][]string),
	}
	s.bleDevices = s.nearbyDevices()
	s.handlers = s.routes()
	return s
}

func (s *Simulator) routes() map[string]handlerFunc {
	return map[string]handlerFunc{
		collaborator.OpInitDataController:           bind(s.initDataController),
		collaborator.OpInsert:                       bind(s.insert),
		collaborator.OpDelete:                       bind(s.deleteData),
		collaborator.OpUpdate:                       bind(s.update),
		collaborator.OpRead:                         bind(s.read),
		collaborator.OpReadTodaySummation:           bind(s.readTodaySummation),
		collaborator.OpReadTodaySummationFromDevice: bind(s.readTodaySummationFromDevice),
		collaborator.OpRegisterModifyDataMonitor:    bind(s.registerModifyDataMonitor),
		collaborator.OpUnregisterModifyDataMonitor:  bind(s.unregisterModifyDataMonitor),
		collaborator.OpSyncAll:                      bind(s.syncAll),
		collaborator.OpClearAll:                     bind(s.clearAll),

		collaborator.OpInitSensorsController: bind(s.initSensorsController),
		collaborator.OpInitBleController:     bind(s.initBleController),
		collaborator.OpRegisterSensor:        bind(s.registerSensor),
		collaborator.OpUnregisterSensor:      bind(s.unregisterSensor),
		collaborator.OpBeginScan:             bind(s.beginScan),
		collaborator.OpEndScan:               bind(s.endScan),
		collaborator.OpSaveDevice:            bind(s.saveDevice),
		collaborator.OpDeleteDevice:          bind(s.deleteDevice),
		collaborator.OpGetSavedDevices:       bind(s.getSavedDevices),
		collaborator.OpGetDataCollectors:     bind(s.getDataCollectors),

		collaborator.OpStartRecordByType:      bind(s.startRecordByType),
		collaborator.OpStartRecordByCollector: bind(s.startRecordByCollector),
		collaborator.OpStopRecordByType:       bind(s.stopRecordByType),
		collaborator.OpStopRecordByCollector:  bind(s.stopRecordByCollector),
		collaborator.OpStopRecordByRecord:     bind(s.stopRecordByRecord),
		collaborator.OpGetAllRecords:          bind(s.getAllRecords),
		collaborator.OpGetRecords:             bind(s.getRecords),

		collaborator.OpBeginActivityRecord: bind(s.beginActivityRecord),
		collaborator.OpEndActivityRecord:   bind(s.endActivityRecord),
		collaborator.OpGetActivityRecord:   bind(s.getActivityRecord),

		collaborator.OpAddNewDataType:  bind(s.addNewDataType),
		collaborator.OpReadDataType:    bind(s.readDataType),
		collaborator.OpDisableHiHealth: bind(s.disableHiHealth),

		collaborator.OpSignIn: bind(s.signIn),
	}
}

// bind decodes the raw request into Req before calling fn. An empty or null
// request decodes to the zero value.
func bind[Req any](fn func(context.Context, Req) (interface{}, error)) handlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var req Req
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &req); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
			}
		}
		return fn(ctx, req)
	}
}

// Invoke implements collaborator.Collaborator.
func (s *Simulator) Invoke(ctx context.Context, op string, req json.RawMessage) (json.RawMessage, error) {
	h, ok := s.handlers[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", collaborator.ErrUnsupportedOperation, op)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if op != collaborator.OpSignIn {
		s.mu.Lock()
		authorized := s.authorized
		s.mu.Unlock()
		if !authorized {
			return nil, fmt.Errorf("%w: sign in again after disableHiHealth", ErrNotAuthorized)
		}
	}

	resp, err := h(ctx, req)
	if err != nil {
		s.logger.Debug("operation rejected", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
		return nil, err
	}
	out, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode %s response: %w", op, err)
	}
	return out, nil
}

// SetEmitter implements collaborator.EventSource.
func (s *Simulator) SetEmitter(e collaborator.Emitter) {
	s.emitMu.Lock()
	s.emitter = e
	s.emitMu.Unlock()
}

func (s *Simulator) emit(name string, payload interface{}) {
	s.emitMu.RLock()
	e := s.emitter
	s.emitMu.RUnlock()
	if e == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode event", map[string]interface{}{
			"event": name,
			"error": err.Error(),
		})
		return
	}
	e.Emit(name, data)
}

// Close stops sensor streams and scans and waits for their goroutines.
func (s *Simulator) Close() {
	s.mu.Lock()
	s.stopStreamsLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Simulator) stopStreamsLocked() {
	for id, cancel := range s.sensors {
		cancel()
		delete(s.sensors, id)
	}
	for id, run := range s.scans {
		run.cancel()
		delete(s.scans, id)
	}
}

func (s *Simulator) nowMillis() int64 {
	return catalog.ToTicks(s.now(), time.Millisecond)
}

func (s *Simulator) unit(name string) (time.Duration, error) {
	d, err := s.catalog.Unit(catalog.TimeUnit(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return d, nil
}

// fieldsOf lists the field ids a data type id accepts.
func (s *Simulator) fieldsOf(dataType string) ([]string, bool, error) {
	if name, err := s.catalog.DataTypeOf(dataType); err == nil {
		spec, _ := s.catalog.Spec(name)
		ids := make([]string, 0, len(spec.Fields))
		for _, f := range spec.Fields {
			id, err := s.catalog.FieldID(f)
			if err != nil {
				return nil, false, err
			}
			ids = append(ids, id)
		}
		return ids, false, nil
	}

	s.mu.Lock()
	fields, ok := s.customTypes[dataType]
	s.mu.Unlock()
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownDataType, dataType)
	}
	return fields, true, nil
}

func status(msg string, affected int) collaborator.StatusResponse {
	return collaborator.StatusResponse{Success: true, Message: msg, Affected: affected}
}

func declined(msg string) collaborator.StatusResponse {
	return collaborator.StatusResponse{Success: false, Message: msg}
}
