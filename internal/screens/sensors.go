package screens

import (
	"context"
	"encoding/json"
	"time"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
	"healthkit-bridge/internal/facade"
)

const (
	StepsIdentifier     = "registerSteps"
	HeartRateIdentifier = "registerHeartRate"
	BleScanIdentifier   = "bleHeartRateIdentifier"

	scanDuration = 15 * time.Second
)

// Sensors drives the sensors and BLE controllers. The last device reported by
// a scan is kept for the save and remove actions.
type Sensors struct {
	*base
	discovered facade.Device
}

func NewSensors(d Deps) *Sensors {
	return &Sensors{base: newBase("sensors", "Sensors Controller", d)}
}

// Mount initializes both controllers and listens for readings and scan events.
func (s *Sensors) Mount(ctx context.Context) error {
	s.listen(StepsIdentifier, nil)
	s.listen(HeartRateIdentifier, nil)
	s.listen(collaborator.DeviceDiscoverEvent(BleScanIdentifier), s.remember)
	s.listen(collaborator.ScanEndEvent(BleScanIdentifier), nil)

	if err := s.deps.Facade.InitSensorsController(ctx).Err(); err != nil {
		return err
	}
	return s.deps.Facade.InitBleController(ctx).Err()
}

func (s *Sensors) remember(payload json.RawMessage) {
	var d collaborator.Device
	if err := json.Unmarshal(payload, &d); err != nil {
		s.log.Warn("undecodable device", map[string]interface{}{"error": err.Error()})
		return
	}
	cat := s.deps.Facade.Catalog()
	dev := facade.Device{Identifier: d.Identifier, Name: d.Name, Address: d.Address}
	for _, id := range d.DataTypes {
		if dt, err := cat.DataTypeOf(id); err == nil {
			dev.DataTypes = append(dev.DataTypes, dt)
		}
	}
	s.mu.Lock()
	s.discovered = dev
	s.mu.Unlock()
}

// Discovered returns the last device found by a scan.
func (s *Sensors) Discovered() facade.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discovered
}

func (s *Sensors) Actions() []Action {
	return []Action{
		{Name: "initSensorsController", Description: "Create the sensors controller", Run: s.initSensors},
		{Name: "initBleController", Description: "Create the BLE controller", Run: s.initBle},
		{Name: "registerSteps", Description: "Stream total steps", Run: s.registerSteps},
		{Name: "unregisterSteps", Description: "Stop the steps stream", Run: s.unregisterSteps},
		{Name: "registerHeartRate", Description: "Stream heart rate", Run: s.registerHeartRate},
		{Name: "unregisterHeartRate", Description: "Stop the heart rate stream", Run: s.unregisterHeartRate},
		{Name: "scanHeartRateDevices", Description: "Scan 15s for heart rate devices", Run: s.scan},
		{Name: "stopScanning", Description: "Stop the heart rate scan", Run: s.stopScan},
		{Name: "saveHeartRateDevice", Description: "Save the last discovered device", Run: s.saveDevice},
		{Name: "removeHeartRateDevice", Description: "Delete the last discovered device", Run: s.removeDevice},
		{Name: "listMatchedDevices", Description: "List saved devices", Run: s.listDevices},
		{Name: "findDataCollectors", Description: "List heart rate data collectors", Run: s.findCollectors},
	}
}

func (s *Sensors) initSensors(ctx context.Context) error {
	return s.deps.Facade.InitSensorsController(ctx).Err()
}

func (s *Sensors) initBle(ctx context.Context) error {
	return s.deps.Facade.InitBleController(ctx).Err()
}

func (s *Sensors) registerSteps(ctx context.Context) error {
	return s.deps.Facade.RegisterSensor(ctx, catalog.StepsTotal, StepsIdentifier).Err()
}

func (s *Sensors) unregisterSteps(ctx context.Context) error {
	return s.deps.Facade.UnregisterSensor(ctx, StepsIdentifier).Err()
}

func (s *Sensors) registerHeartRate(ctx context.Context) error {
	return s.deps.Facade.RegisterSensor(ctx, catalog.HeartRate, HeartRateIdentifier).Err()
}

func (s *Sensors) unregisterHeartRate(ctx context.Context) error {
	return s.deps.Facade.UnregisterSensor(ctx, HeartRateIdentifier).Err()
}

func (s *Sensors) scan(ctx context.Context) error {
	return s.deps.Facade.BeginScan(ctx, facade.ScanRequest{
		DataTypes:  []catalog.DataType{catalog.HeartRate},
		Duration:   scanDuration,
		Identifier: BleScanIdentifier,
	}).Err()
}

func (s *Sensors) stopScan(ctx context.Context) error {
	return s.deps.Facade.EndScan(ctx, BleScanIdentifier).Err()
}

// saveDevice passes whatever was discovered, possibly nothing; the SDK
// rejects an empty device.
func (s *Sensors) saveDevice(ctx context.Context) error {
	return s.deps.Facade.SaveDevice(ctx, s.Discovered()).Err()
}

func (s *Sensors) removeDevice(ctx context.Context) error {
	return s.deps.Facade.DeleteDevice(ctx, s.Discovered()).Err()
}

func (s *Sensors) listDevices(ctx context.Context) error {
	out := s.deps.Facade.GetSavedDevices(ctx)
	if devices, ok := out.Value(); ok {
		s.log.Info("saved devices", map[string]interface{}{"count": len(devices)})
	}
	return out.Err()
}

func (s *Sensors) findCollectors(ctx context.Context) error {
	out := s.deps.Facade.GetDataCollectors(ctx, catalog.HeartRate)
	if collectors, ok := out.Value(); ok {
		s.log.Info("data collectors", map[string]interface{}{"count": len(collectors)})
	}
	return out.Err()
}
