// Package store keeps health samples for the SDK simulator. The simulator owns
// two stores: the device-local one and the cloud one SyncAll copies into.
package store

import (
	"context"
	"fmt"
	"sort"

	"healthkit-bridge/internal/common/database"
)

// Sample is one stored data point. Times are Unix nanoseconds; ids are
// collaborator-side identifiers.
type Sample struct {
	DataType   string  `json:"dataType"`
	Field      string  `json:"field"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	IntValue   int64   `json:"intValue,omitempty"`
	FloatValue float64 `json:"floatValue,omitempty"`
}

// Key identifies a sample; inserting a sample with an existing key replaces it.
func (s Sample) Key() string {
	return fmt.Sprintf("%s|%s|%d|%d", s.DataType, s.Field, s.Start, s.End)
}

// Value returns the numeric value regardless of representation.
func (s Sample) Value() float64 {
	if s.IntValue != 0 {
		return float64(s.IntValue)
	}
	return s.FloatValue
}

// Within reports whether the sample lies entirely inside [from, to].
func (s Sample) Within(from, to int64) bool {
	return s.Start >= from && s.End <= to
}

// SampleStore is implemented by every backend.
type SampleStore interface {
	Insert(ctx context.Context, samples []Sample) error
	// Delete removes the samples of dataType lying within [from, to] and
	// returns how many were removed.
	Delete(ctx context.Context, dataType string, from, to int64) (int, error)
	// Query returns the samples of dataType lying within [from, to], ordered by start.
	Query(ctx context.Context, dataType string, from, to int64) ([]Sample, error)
	All(ctx context.Context) ([]Sample, error)
	Clear(ctx context.Context) error
}

// Backends accepted by Open.
const (
	KindMemory   = "memory"
	KindRedis    = "redis"
	KindPostgres = "postgres"
)

// Open builds the store named by kind. The redis and postgres backends need
// their client; the other may be nil.
func Open(ctx context.Context, kind string, rdb *database.RedisClient, pg *database.PostgresClient) (SampleStore, error) {
	switch kind {
	case "", KindMemory:
		return NewMemory(), nil
	case KindRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis store requires a redis client")
		}
		return NewRedis(rdb), nil
	case KindPostgres:
		if pg == nil {
			return nil, fmt.Errorf("postgres store requires a postgres client")
		}
		s := NewPostgres(pg.DB)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sample store %q", kind)
	}
}

func sortSamples(samples []Sample) {
	sort.Slice(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.DataType != b.DataType {
			return a.DataType < b.DataType
		}
		return a.Field < b.Field
	})
}
