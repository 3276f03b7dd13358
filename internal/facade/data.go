package facade

import (
	"context"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
)

const (
	optionRead  = 0
	optionWrite = 1
)

// InitDataController declares the data types the app reads or writes. It must
// succeed before any other data controller operation.
func (f *Facade) InitDataController(ctx context.Context, permissions []Permission) Outcome[Status] {
	return call(ctx, f, collaborator.OpInitDataController,
		func(cat *catalog.Catalog) (interface{}, error) {
			req := collaborator.InitDataControllerRequest{Permissions: make([]collaborator.Permission, 0, len(permissions))}
			for _, p := range permissions {
				id, err := cat.DataTypeID(p.DataType)
				if err != nil {
					return nil, err
				}
				opt := optionRead
				if p.Write {
					opt = optionWrite
				}
				req.Permissions = append(req.Permissions, collaborator.Permission{DataType: id, Options: opt})
			}
			return req, nil
		},
		statusFromWire,
	)
}

func (f *Facade) Insert(ctx context.Context, r InsertRequest) Outcome[Status] {
	return call(ctx, f, collaborator.OpInsert,
		func(cat *catalog.Catalog) (interface{}, error) {
			c, err := collectorToWire(cat, r.Collector)
			if err != nil {
				return nil, err
			}
			points, err := samplesToWire(cat, r.Unit, r.Samples)
			if err != nil {
				return nil, err
			}
			return collaborator.InsertRequest{Collector: c, TimeUnit: string(r.Unit), Samples: points}, nil
		},
		statusFromWire,
	)
}

func (f *Facade) Delete(ctx context.Context, r DeleteRequest) Outcome[Status] {
	return call(ctx, f, collaborator.OpDelete,
		func(cat *catalog.Catalog) (interface{}, error) {
			c, err := collectorToWire(cat, r.Collector)
			if err != nil {
				return nil, err
			}
			rng, err := rangeToWire(cat, r.Range)
			if err != nil {
				return nil, err
			}
			return collaborator.DeleteRequest{Collector: c, Range: rng}, nil
		},
		statusFromWire,
	)
}

// Update replaces the samples lying in r.Range with r.Samples.
func (f *Facade) Update(ctx context.Context, r UpdateRequest) Outcome[Status] {
	return call(ctx, f, collaborator.OpUpdate,
		func(cat *catalog.Catalog) (interface{}, error) {
			c, err := collectorToWire(cat, r.Collector)
			if err != nil {
				return nil, err
			}
			points, err := samplesToWire(cat, r.Unit, r.Samples)
			if err != nil {
				return nil, err
			}
			rng, err := rangeToWire(cat, r.Range)
			if err != nil {
				return nil, err
			}
			return collaborator.UpdateRequest{Collector: c, TimeUnit: string(r.Unit), Samples: points, Range: rng}, nil
		},
		statusFromWire,
	)
}

func (f *Facade) Read(ctx context.Context, r ReadRequest) Outcome[SampleSet] {
	return call(ctx, f, collaborator.OpRead,
		func(cat *catalog.Catalog) (interface{}, error) {
			c, err := collectorToWire(cat, r.Collector)
			if err != nil {
				return nil, err
			}
			rng, err := rangeToWire(cat, r.Range)
			if err != nil {
				return nil, err
			}
			return collaborator.ReadRequest{Collector: c, Range: rng}, nil
		},
		func(cat *catalog.Catalog, w collaborator.SampleSetResponse) (SampleSet, error) {
			dt, err := cat.DataTypeOf(w.DataType)
			if err != nil {
				return SampleSet{}, err
			}
			samples, err := samplesFromWire(cat, w.TimeUnit, w.Samples)
			if err != nil {
				return SampleSet{}, err
			}
			return SampleSet{DataType: dt, Samples: samples}, nil
		},
	)
}

// ReadTodaySummation aggregates today's samples from the device and the cloud.
func (f *Facade) ReadTodaySummation(ctx context.Context, dt catalog.DataType) Outcome[Summary] {
	return call(ctx, f, collaborator.OpReadTodaySummation, dataTypeRequest(dt), summaryFromWire)
}

// ReadTodaySummationFromDevice aggregates today's device-local samples only.
func (f *Facade) ReadTodaySummationFromDevice(ctx context.Context, dt catalog.DataType) Outcome[Summary] {
	return call(ctx, f, collaborator.OpReadTodaySummationFromDevice, dataTypeRequest(dt), summaryFromWire)
}

// RegisterModifyDataMonitor asks the SDK to push a data-modified event
// whenever samples of the collector's data type change.
func (f *Facade) RegisterModifyDataMonitor(ctx context.Context, c Collector) Outcome[Status] {
	return call(ctx, f, collaborator.OpRegisterModifyDataMonitor, collectorRequest(c), statusFromWire)
}

func (f *Facade) UnregisterModifyDataMonitor(ctx context.Context) Outcome[Status] {
	return call(ctx, f, collaborator.OpUnregisterModifyDataMonitor, noRequest, statusFromWire)
}

// SyncAll copies device samples to the cloud.
func (f *Facade) SyncAll(ctx context.Context) Outcome[Status] {
	return call(ctx, f, collaborator.OpSyncAll, noRequest, statusFromWire)
}

func (f *Facade) ClearAll(ctx context.Context) Outcome[Status] {
	return call(ctx, f, collaborator.OpClearAll, noRequest, statusFromWire)
}

func dataTypeRequest(dt catalog.DataType) func(*catalog.Catalog) (interface{}, error) {
	return func(cat *catalog.Catalog) (interface{}, error) {
		id, err := cat.DataTypeID(dt)
		if err != nil {
			return nil, err
		}
		return collaborator.DataTypeRequest{DataType: id}, nil
	}
}

func collectorRequest(c Collector) func(*catalog.Catalog) (interface{}, error) {
	return func(cat *catalog.Catalog) (interface{}, error) {
		w, err := collectorToWire(cat, c)
		if err != nil {
			return nil, err
		}
		return collaborator.CollectorRequest{Collector: w}, nil
	}
}
