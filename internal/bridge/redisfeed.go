package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"healthkit-bridge/internal/collaborator"
	"healthkit-bridge/internal/common/database"
	"healthkit-bridge/internal/common/logger"
)

// RedisFeed relays Redis pub/sub messages published on <prefix><event> into an
// emitter, letting another process push SDK events into the bridge.
type RedisFeed struct {
	client  *database.RedisClient
	prefix  string
	emitter collaborator.Emitter
	logger  logger.Logger
	ready   chan struct{}
}

func NewRedisFeed(client *database.RedisClient, prefix string, emitter collaborator.Emitter, log logger.Logger) *RedisFeed {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RedisFeed{
		client:  client,
		prefix:  prefix,
		emitter: emitter,
		logger:  log.WithFields(map[string]interface{}{"component": "redis-feed"}),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the pattern subscription is confirmed.
func (f *RedisFeed) Ready() <-chan struct{} { return f.ready }

// Channel returns the Redis channel carrying eventName.
func (f *RedisFeed) Channel(eventName string) string { return f.prefix + eventName }

// Publish sends one event through Redis.
func (f *RedisFeed) Publish(ctx context.Context, eventName string, payload json.RawMessage) error {
	return f.client.Publish(ctx, f.Channel(eventName), []byte(payload))
}

// Run relays messages until ctx is done. Payloads that are not JSON are
// dropped.
func (f *RedisFeed) Run(ctx context.Context) error {
	ps := f.client.Client.PSubscribe(ctx, f.prefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("redis feed subscribe: %w", err)
	}
	close(f.ready)
	f.logger.Info("redis feed started", map[string]interface{}{"pattern": f.prefix + "*"})

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			name := strings.TrimPrefix(msg.Channel, f.prefix)
			payload := json.RawMessage(msg.Payload)
			if !json.Valid(payload) {
				f.logger.Warn("dropping non-JSON event", map[string]interface{}{
					"event":   name,
					"channel": msg.Channel,
				})
				continue
			}
			f.emitter.Emit(name, payload)
		}
	}
}
