// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"healthkit-bridge/internal/cli"
	"healthkit-bridge/internal/collaborator"
	"healthkit-bridge/internal/common/config"
	"healthkit-bridge/internal/common/database"
	"healthkit-bridge/internal/screens"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedPrefix = "e2e:events:"

func loadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	return cfg
}

func newApp(t *testing.T, cfg *config.Config) *cli.App {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	app, err := cli.NewApp(ctx, cfg, io.Discard)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func runAction(t *testing.T, s screens.Screen, name string) error {
	t.Helper()
	for _, a := range s.Actions() {
		if a.Name == name {
			return a.Run(context.Background())
		}
	}
	t.Fatalf("no action %s on %s", name, s.Name())
	return nil
}

// TestFullE2E runs the demo against Redis: the cloud store lives in Redis and
// SDK events published on Redis reach mounted screens.
func TestFullE2E(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := loadConfig(t, fmt.Sprintf(`
app:
  name: healthkit-e2e
collaborator:
  cloud_store: redis
  sensor_interval_ms: 10
  scan_time_scale: 0.01
database:
  redis:
    address: %s
    key_prefix: "e2e:"
bridge:
  redis_feed:
    enabled: true
    channel_prefix: %q
logging:
  level: error
`, mr.Addr(), feedPrefix))
	app := newApp(t, cfg)

	t.Run("data syncs to the redis cloud store", func(t *testing.T) {
		data, err := app.Screens.Get("data")
		require.NoError(t, err)
		require.NoError(t, data.Mount(context.Background()))
		defer data.Unmount()

		for _, action := range []string{"init", "insert", "syncAll", "readToday"} {
			require.NoError(t, runAction(t, data, action), action)
		}
		assert.True(t, mr.Exists("e2e:samples:types"))
		members, err := mr.SMembers("e2e:samples:types")
		require.NoError(t, err)
		assert.Contains(t, members, "com.huawei.continuous.steps.delta")

		require.NoError(t, runAction(t, data, "clearAll"))
		assert.False(t, mr.Exists("e2e:samples:types"))
	})

	t.Run("events published on redis reach the sensors screen", func(t *testing.T) {
		s, err := app.Screens.Get("sensors")
		require.NoError(t, err)
		require.NoError(t, s.Mount(context.Background()))
		defer s.Unmount()
		sensors := s.(*screens.Sensors)

		device, err := json.Marshal(collaborator.Device{
			Identifier: "EXT-HR-9",
			Name:       "External strap",
			Address:    "AA:BB:CC:DD:EE:FF",
			DataTypes:  []string{"com.huawei.instantaneous.heart_rate"},
		})
		require.NoError(t, err)

		rdb := database.NewRedis(cfg.Database.Redis)
		defer rdb.Close()
		channel := feedPrefix + collaborator.DeviceDiscoverEvent(screens.BleScanIdentifier)
		require.NoError(t, rdb.Publish(context.Background(), channel, device))

		require.Eventually(t, func() bool {
			return sensors.Discovered().Identifier == "EXT-HR-9"
		}, 3*time.Second, 20*time.Millisecond)

		require.NoError(t, runAction(t, s, "saveHeartRateDevice"))
		require.NoError(t, runAction(t, s, "listMatchedDevices"))
		require.NoError(t, runAction(t, s, "removeHeartRateDevice"))
	})
}

// TestPostgresCloudStore needs a reachable PostgreSQL; it is skipped unless
// DB_HOST is set.
func TestPostgresCloudStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		t.Skip("DB_HOST not set")
	}
	cfg := loadConfig(t, fmt.Sprintf(`
collaborator:
  cloud_store: postgres
database:
  postgres:
    host: %s
    database: %s
logging:
  level: error
`, host, envOr("DB_NAME", "healthkit")))
	app := newApp(t, cfg)

	data, err := app.Screens.Get("data")
	require.NoError(t, err)
	require.NoError(t, data.Mount(context.Background()))
	defer data.Unmount()

	for _, action := range []string{"init", "clearAll", "insert", "syncAll", "readToday", "clearAll"} {
		require.NoError(t, runAction(t, data, action), action)
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
