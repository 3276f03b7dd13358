package facade

import (
	"context"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
)

// StartRecordByType returns the running record for dt, starting one when none
// exists.
func (f *Facade) StartRecordByType(ctx context.Context, dt catalog.DataType) Outcome[Record] {
	return call(ctx, f, collaborator.OpStartRecordByType, dataTypeRequest(dt), recordFromWire)
}

func (f *Facade) StartRecordByCollector(ctx context.Context, c Collector) Outcome[Record] {
	return call(ctx, f, collaborator.OpStartRecordByCollector, collectorRequest(c), recordFromWire)
}

func (f *Facade) StopRecordByType(ctx context.Context, dt catalog.DataType) Outcome[Status] {
	return call(ctx, f, collaborator.OpStopRecordByType, dataTypeRequest(dt), statusFromWire)
}

func (f *Facade) StopRecordByCollector(ctx context.Context, c Collector) Outcome[Status] {
	return call(ctx, f, collaborator.OpStopRecordByCollector, collectorRequest(c), statusFromWire)
}

func (f *Facade) StopRecordByRecord(ctx context.Context, recordID string) Outcome[Status] {
	return call(ctx, f, collaborator.OpStopRecordByRecord,
		func(*catalog.Catalog) (interface{}, error) {
			return collaborator.RecordIDRequest{RecordID: recordID}, nil
		},
		statusFromWire,
	)
}

func (f *Facade) GetAllRecords(ctx context.Context) Outcome[[]Record] {
	return call(ctx, f, collaborator.OpGetAllRecords, noRequest, recordsFromWire)
}

func (f *Facade) GetRecords(ctx context.Context, dt catalog.DataType) Outcome[[]Record] {
	return call(ctx, f, collaborator.OpGetRecords, dataTypeRequest(dt), recordsFromWire)
}
