package simulator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
)

// LocalDeviceID identifies the phone's built-in sensors in data collectors.
const LocalDeviceID = "local"

func (s *Simulator) nearbyDevices() []collaborator.Device {
	id := func(dt catalog.DataType) string {
		v, _ := s.catalog.DataTypeID(dt)
		return v
	}
	return []collaborator.Device{
		{Identifier: "HW-HR-01", Name: "HUAWEI Band 4 Pro", Address: "A4:C1:38:10:22:01", DataTypes: []string{id(catalog.HeartRate)}},
		{Identifier: "HW-SCALE-01", Name: "HUAWEI Body Fat Scale", Address: "A4:C1:38:10:22:02", DataTypes: []string{id(catalog.BodyWeight), id(catalog.BodyFatRate)}},
		{Identifier: "HW-STEP-01", Name: "HUAWEI Watch GT", Address: "A4:C1:38:10:22:03", DataTypes: []string{id(catalog.StepsDelta), id(catalog.HeartRate)}},
	}
}

func (s *Simulator) initSensorsController(_ context.Context, _ struct{}) (interface{}, error) {
	s.mu.Lock()
	s.sensorsInit = true
	s.mu.Unlock()
	return status("sensors controller initialized", 0), nil
}

func (s *Simulator) initBleController(_ context.Context, _ struct{}) (interface{}, error) {
	s.mu.Lock()
	s.bleInit = true
	s.mu.Unlock()
	return status("ble controller initialized", 0), nil
}

// registerSensor starts a reading stream emitted under the identifier as event
// name. Registering an identifier again restarts its stream.
func (s *Simulator) registerSensor(_ context.Context, req collaborator.SensorRegisterRequest) (interface{}, error) {
	if req.Identifier == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidArgument)
	}
	fields, _, err := s.fieldsOf(req.DataType)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s has no fields", ErrInvalidArgument, req.DataType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sensorsInit {
		return nil, fmt.Errorf("%w: sensors controller", ErrNotInitialized)
	}
	if cancel, ok := s.sensors[req.Identifier]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.sensors[req.Identifier] = cancel

	s.wg.Add(1)
	go s.stream(ctx, req.Identifier, req.DataType, fields[0])
	return status("sensor registered", 1), nil
}

func (s *Simulator) stream(ctx context.Context, identifier, dataType, field string) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.emit(identifier, collaborator.SensorReading{
				Identifier: identifier,
				DataType:   dataType,
				Field:      field,
				Value:      s.reading(dataType),
				Timestamp:  s.nowMillis(),
			})
		}
	}
}

func (s *Simulator) reading(dataType string) float64 {
	name, _ := s.catalog.DataTypeOf(dataType)
	switch name {
	case catalog.StepsDelta, catalog.StepsTotal:
		return float64(rand.IntN(20))
	case catalog.HeartRate:
		return float64(60 + rand.IntN(40))
	default:
		return rand.Float64() * 100
	}
}

func (s *Simulator) unregisterSensor(_ context.Context, req collaborator.IdentifierRequest) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.sensors[req.Identifier]
	if !ok {
		return declined("no sensor registered under " + req.Identifier), nil
	}
	cancel()
	delete(s.sensors, req.Identifier)
	return status("sensor unregistered", 1), nil
}

// beginScan discovers the nearby devices supporting any requested data type,
// spread over the scan window, then emits the scan end event. A scan with the
// same identifier is replaced.
func (s *Simulator) beginScan(_ context.Context, req collaborator.ScanRequest) (interface{}, error) {
	if req.Identifier == "" || req.Seconds <= 0 {
		return nil, fmt.Errorf("%w: scan needs an identifier and a positive duration", ErrInvalidArgument)
	}
	var found []collaborator.Device
	for _, d := range s.bleDevices {
		if overlaps(d.DataTypes, req.DataTypes) {
			found = append(found, d)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bleInit {
		return nil, fmt.Errorf("%w: ble controller", ErrNotInitialized)
	}
	if prev, ok := s.scans[req.Identifier]; ok {
		prev.cancel()
	}
	window := time.Duration(float64(req.Seconds) * float64(time.Second) * s.scanScale)
	ctx, cancel := context.WithTimeout(context.Background(), window)
	run := &scanRun{cancel: cancel}
	s.scans[req.Identifier] = run

	s.wg.Add(1)
	go s.scan(ctx, run, req.Identifier, window, found)
	return status("scan started", len(found)), nil
}

type scanRun struct {
	cancel context.CancelFunc
}

func (s *Simulator) scan(ctx context.Context, run *scanRun, identifier string, window time.Duration, found []collaborator.Device) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		if s.scans[identifier] == run {
			delete(s.scans, identifier)
		}
		s.mu.Unlock()
		run.cancel()
	}()
	discovered := 0
	step := window / time.Duration(len(found)+1)

	for _, d := range found {
		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.finishScan(identifier, discovered)
			return
		case <-timer.C:
			s.emit(collaborator.DeviceDiscoverEvent(identifier), d)
			discovered++
		}
	}
	<-ctx.Done()
	s.finishScan(identifier, discovered)
}

func (s *Simulator) finishScan(identifier string, discovered int) {
	s.emit(collaborator.ScanEndEvent(identifier), collaborator.ScanEnded{
		Identifier: identifier,
		Discovered: discovered,
	})
}

func (s *Simulator) endScan(_ context.Context, req collaborator.IdentifierRequest) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.scans[req.Identifier]
	if !ok {
		return declined("no scan running under " + req.Identifier), nil
	}
	run.cancel()
	delete(s.scans, req.Identifier)
	return status("scan stopped", 1), nil
}

func (s *Simulator) saveDevice(_ context.Context, req collaborator.DeviceRequest) (interface{}, error) {
	if req.Device.Identifier == "" {
		return nil, fmt.Errorf("%w: device without identifier", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bleInit {
		return nil, fmt.Errorf("%w: ble controller", ErrNotInitialized)
	}
	s.saved[req.Device.Identifier] = req.Device
	return status("device saved", 1), nil
}

func (s *Simulator) deleteDevice(_ context.Context, req collaborator.DeviceRequest) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bleInit {
		return nil, fmt.Errorf("%w: ble controller", ErrNotInitialized)
	}
	if _, ok := s.saved[req.Device.Identifier]; !ok {
		return declined("device not saved"), nil
	}
	delete(s.saved, req.Device.Identifier)
	return status("device deleted", 1), nil
}

func (s *Simulator) getSavedDevices(_ context.Context, _ struct{}) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bleInit {
		return nil, fmt.Errorf("%w: ble controller", ErrNotInitialized)
	}
	devices := make([]collaborator.Device, 0, len(s.saved))
	for _, d := range s.saved {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Identifier < devices[j].Identifier })
	return collaborator.DevicesResponse{Devices: devices}, nil
}

// getDataCollectors lists the phone collector plus every saved device that
// supports the data type.
func (s *Simulator) getDataCollectors(_ context.Context, req collaborator.DataTypeRequest) (interface{}, error) {
	if _, _, err := s.fieldsOf(req.DataType); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sensorsInit {
		return nil, fmt.Errorf("%w: sensors controller", ErrNotInitialized)
	}
	collectors := []collaborator.DataCollector{{
		DataType:       req.DataType,
		DataStreamName: "phone",
		DeviceID:       LocalDeviceID,
	}}
	ids := make([]string, 0, len(s.saved))
	for id := range s.saved {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		d := s.saved[id]
		if overlaps(d.DataTypes, []string{req.DataType}) {
			collectors = append(collectors, collaborator.DataCollector{
				DataType:       req.DataType,
				DataStreamName: d.Name,
				DeviceID:       d.Identifier,
			})
		}
	}
	return collaborator.CollectorsResponse{Collectors: collectors}, nil
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
