package facade

import (
	"context"
	"fmt"
	"time"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
)

func (f *Facade) InitSensorsController(ctx context.Context) Outcome[Status] {
	return call(ctx, f, collaborator.OpInitSensorsController, noRequest, statusFromWire)
}

func (f *Facade) InitBleController(ctx context.Context) Outcome[Status] {
	return call(ctx, f, collaborator.OpInitBleController, noRequest, statusFromWire)
}

// RegisterSensor starts a reading stream for dt. Readings arrive as bridge
// events named by identifier.
func (f *Facade) RegisterSensor(ctx context.Context, dt catalog.DataType, identifier string) Outcome[Status] {
	return call(ctx, f, collaborator.OpRegisterSensor,
		func(cat *catalog.Catalog) (interface{}, error) {
			id, err := cat.DataTypeID(dt)
			if err != nil {
				return nil, err
			}
			return collaborator.SensorRegisterRequest{DataType: id, Identifier: identifier}, nil
		},
		statusFromWire,
	)
}

func (f *Facade) UnregisterSensor(ctx context.Context, identifier string) Outcome[Status] {
	return call(ctx, f, collaborator.OpUnregisterSensor, identifierRequest(identifier), statusFromWire)
}

// BeginScan starts a BLE scan. Each discovered device is pushed as
// collaborator.DeviceDiscoverEvent(identifier) and the end of the scan as
// collaborator.ScanEndEvent(identifier). The duration is rounded up to whole
// seconds.
func (f *Facade) BeginScan(ctx context.Context, r ScanRequest) Outcome[Status] {
	return call(ctx, f, collaborator.OpBeginScan,
		func(cat *catalog.Catalog) (interface{}, error) {
			ids, err := dataTypeIDs(cat, r.DataTypes)
			if err != nil {
				return nil, err
			}
			return collaborator.ScanRequest{
				DataTypes:  ids,
				Seconds:    int((r.Duration + time.Second - 1) / time.Second),
				Identifier: r.Identifier,
			}, nil
		},
		statusFromWire,
	)
}

func (f *Facade) EndScan(ctx context.Context, identifier string) Outcome[Status] {
	return call(ctx, f, collaborator.OpEndScan, identifierRequest(identifier), statusFromWire)
}

func (f *Facade) SaveDevice(ctx context.Context, d Device) Outcome[Status] {
	return call(ctx, f, collaborator.OpSaveDevice, deviceRequest(d), statusFromWire)
}

func (f *Facade) DeleteDevice(ctx context.Context, d Device) Outcome[Status] {
	return call(ctx, f, collaborator.OpDeleteDevice, deviceRequest(d), statusFromWire)
}

func (f *Facade) GetSavedDevices(ctx context.Context) Outcome[[]Device] {
	return call(ctx, f, collaborator.OpGetSavedDevices, noRequest,
		func(cat *catalog.Catalog, w collaborator.DevicesResponse) ([]Device, error) {
			out := make([]Device, 0, len(w.Devices))
			for _, d := range w.Devices {
				dev, err := deviceFromWire(cat, d)
				if err != nil {
					return nil, fmt.Errorf("device %s: %w", d.Identifier, err)
				}
				out = append(out, dev)
			}
			return out, nil
		},
	)
}

func (f *Facade) GetDataCollectors(ctx context.Context, dt catalog.DataType) Outcome[[]Collector] {
	return call(ctx, f, collaborator.OpGetDataCollectors, dataTypeRequest(dt),
		func(cat *catalog.Catalog, w collaborator.CollectorsResponse) ([]Collector, error) {
			out := make([]Collector, 0, len(w.Collectors))
			for _, c := range w.Collectors {
				col, err := collectorFromWire(cat, c)
				if err != nil {
					return nil, err
				}
				out = append(out, col)
			}
			return out, nil
		},
	)
}

func identifierRequest(identifier string) func(*catalog.Catalog) (interface{}, error) {
	return func(*catalog.Catalog) (interface{}, error) {
		return collaborator.IdentifierRequest{Identifier: identifier}, nil
	}
}

func deviceRequest(d Device) func(*catalog.Catalog) (interface{}, error) {
	return func(cat *catalog.Catalog) (interface{}, error) {
		w, err := deviceToWire(cat, d)
		if err != nil {
			return nil, err
		}
		return collaborator.DeviceRequest{Device: w}, nil
	}
}
