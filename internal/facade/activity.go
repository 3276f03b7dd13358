package facade

import (
	"context"
	"math"
	"time"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
)

func (f *Facade) BeginActivityRecord(ctx context.Context, r ActivityRecord) Outcome[ActivityRecord] {
	return call(ctx, f, collaborator.OpBeginActivityRecord,
		func(cat *catalog.Catalog) (interface{}, error) {
			w, err := activityToWire(cat, r)
			if err != nil {
				return nil, err
			}
			return collaborator.BeginActivityRecordRequest{Record: w}, nil
		},
		activityFromWire,
	)
}

func (f *Facade) EndActivityRecord(ctx context.Context, id string) Outcome[ActivityRecord] {
	return call(ctx, f, collaborator.OpEndActivityRecord,
		func(*catalog.Catalog) (interface{}, error) {
			return collaborator.EndActivityRecordRequest{ID: id}, nil
		},
		activityFromWire,
	)
}

// GetActivityRecord lists activity records matching q. A zero range matches
// all time.
func (f *Facade) GetActivityRecord(ctx context.Context, q ActivityQuery) Outcome[[]ActivityRecord] {
	return call(ctx, f, collaborator.OpGetActivityRecord,
		func(cat *catalog.Catalog) (interface{}, error) {
			req := collaborator.GetActivityRecordRequest{ID: q.ID, Name: q.Name}
			if q.DataType != "" {
				id, err := cat.DataTypeID(q.DataType)
				if err != nil {
					return nil, err
				}
				req.DataType = id
			}
			if q.Range == (TimeRange{}) {
				req.Range = collaborator.TimeRange{
					EndTime:  math.MaxInt64 / int64(time.Millisecond),
					TimeUnit: string(catalog.Milliseconds),
				}
				return req, nil
			}
			rng, err := rangeToWire(cat, q.Range)
			if err != nil {
				return nil, err
			}
			req.Range = rng
			return req, nil
		},
		func(cat *catalog.Catalog, w collaborator.ActivityRecordsResponse) ([]ActivityRecord, error) {
			out := make([]ActivityRecord, 0, len(w.Records))
			for _, r := range w.Records {
				rec, err := activityFromWire(cat, r)
				if err != nil {
					return nil, err
				}
				out = append(out, rec)
			}
			return out, nil
		},
	)
}
