package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"healthkit-bridge/internal/common/database"
	"healthkit-bridge/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *database.RedisClient {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return database.NewRedisFromClient(client, "test:")
}

func TestRedisFeed_RelaysIntoBridge(t *testing.T) {
	b := newTestBridge(t)
	c := newCollector()
	b.Subscribe("registerSteps", c.handle)

	feed := NewRedisFeed(setupRedis(t), "healthkit:events:", b, logger.NewTestLogger(t))
	assert.Equal(t, "healthkit:events:registerSteps", feed.Channel("registerSteps"))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- feed.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errCh
	})

	select {
	case <-feed.Ready():
	case <-time.After(wait):
		t.Fatal("feed never subscribed")
	}

	require.NoError(t, feed.Publish(ctx, "registerSteps", json.RawMessage(`not json`)))
	require.NoError(t, feed.Publish(ctx, "registerSteps", json.RawMessage(`{"value":7}`)))
	assert.JSONEq(t, `{"value":7}`, string(c.next(t)))
	c.none(t)
}

func TestRedisFeed_StopsWithContext(t *testing.T) {
	feed := NewRedisFeed(setupRedis(t), "hk:", New(nil), nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- feed.Run(ctx) }()
	<-feed.Ready()
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(wait):
		t.Fatal("feed did not stop")
	}
}
