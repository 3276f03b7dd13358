package store

import (
	"context"
	"testing"

	"healthkit-bridge/internal/common/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *database.RedisClient {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
}

func steps(start, end, value int64) Sample {
	return Sample{DataType: "steps", Field: "steps_delta", Start: start, End: end, IntValue: value}
}

func TestSampleStores(t *testing.T) {
	backends := map[string]func(t *testing.T) SampleStore{
		"memory": func(t *testing.T) SampleStore { return NewMemory() },
		"redis":  func(t *testing.T) SampleStore { return NewRedis(setupRedis(t)) },
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("query honours containment", func(t *testing.T) {
				s := open(t)
				require.NoError(t, s.Insert(ctx, []Sample{steps(10, 20, 1), steps(15, 30, 2), steps(40, 50, 3)}))

				got, err := s.Query(ctx, "steps", 10, 30)
				require.NoError(t, err)
				require.Len(t, got, 2)
				assert.Equal(t, int64(1), got[0].IntValue)
				assert.Equal(t, int64(2), got[1].IntValue)

				got, err = s.Query(ctx, "heart", 0, 100)
				require.NoError(t, err)
				assert.Empty(t, got)
			})

			t.Run("insert replaces same key", func(t *testing.T) {
				s := open(t)
				require.NoError(t, s.Insert(ctx, []Sample{steps(10, 20, 1)}))
				require.NoError(t, s.Insert(ctx, []Sample{steps(10, 20, 7)}))

				got, err := s.All(ctx)
				require.NoError(t, err)
				require.Len(t, got, 1)
				assert.Equal(t, int64(7), got[0].IntValue)
			})

			t.Run("delete removes only the range", func(t *testing.T) {
				s := open(t)
				require.NoError(t, s.Insert(ctx, []Sample{steps(10, 20, 1), steps(40, 50, 3)}))

				n, err := s.Delete(ctx, "steps", 0, 25)
				require.NoError(t, err)
				assert.Equal(t, 1, n)

				got, err := s.All(ctx)
				require.NoError(t, err)
				require.Len(t, got, 1)
				assert.Equal(t, int64(40), got[0].Start)

				n, err = s.Delete(ctx, "steps", 0, 25)
				require.NoError(t, err)
				assert.Zero(t, n)
			})

			t.Run("clear empties the store", func(t *testing.T) {
				s := open(t)
				require.NoError(t, s.Insert(ctx, []Sample{
					steps(10, 20, 1),
					{DataType: "heart", Field: "bpm", Start: 5, End: 5, FloatValue: 72.5},
				}))
				require.NoError(t, s.Clear(ctx))

				got, err := s.All(ctx)
				require.NoError(t, err)
				assert.Empty(t, got)
			})
		})
	}
}

func TestSample_Value(t *testing.T) {
	assert.Equal(t, 12.0, steps(0, 1, 12).Value())
	assert.Equal(t, 72.5, Sample{FloatValue: 72.5}.Value())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, KindRedis, setupRedis(t), nil)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)

	_, err = Open(ctx, KindRedis, nil, nil)
	assert.Error(t, err)
	_, err = Open(ctx, KindPostgres, nil, nil)
	assert.Error(t, err)
	_, err = Open(ctx, "cassandra", nil, nil)
	assert.Error(t, err)
}
