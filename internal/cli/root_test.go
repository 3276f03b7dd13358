package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"healthkit-bridge/internal/screens"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
app:
  name: healthkit-test
  package_name: com.huawei.healthkit.demo
collaborator:
  sensor_interval_ms: 10
  scan_time_scale: 0.01
notifications:
  console: true
  notify_failures: true
bridge:
  settle_ms: 10
logging:
  level: error
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := New("1.2.3")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestScreensAndOperations(t *testing.T) {
	out, err := execute(t, "screens")
	require.NoError(t, err)
	assert.Contains(t, out, "sensors")
	assert.Contains(t, out, "scanHeartRateDevices")

	out, err = execute(t, "operations")
	require.NoError(t, err)
	assert.Contains(t, out, "readTodaySummation")
	assert.Contains(t, out, "OnDeviceDiscover")
}

func TestRegistryValidate(t *testing.T) {
	out, err := execute(t, "registry", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "35 operations valid")

	bad := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"operations":[{"id":""}]}`), 0o600))
	_, err = execute(t, "registry", "validate", "--path", bad)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	cfg := writeConfig(t)

	t.Run("actions in order", func(t *testing.T) {
		out, err := execute(t, "--config", cfg, "run", "data", "init", "insert", "readToday")
		require.NoError(t, err)
		assert.Contains(t, out, "[ok] initDataController")
		assert.Contains(t, out, "[ok] insert")
		assert.Contains(t, out, "[ok] readTodaySummation")
	})

	t.Run("failures are surfaced and counted", func(t *testing.T) {
		out, err := execute(t, "--config", cfg, "run", "data", "insert")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 1 actions on data failed")
		assert.Contains(t, out, "[!!] insert failed")
	})

	t.Run("every action when none named", func(t *testing.T) {
		out, err := execute(t, "--config", cfg, "run", "main")
		require.NoError(t, err)
		assert.Contains(t, out, "[ok] signIn")
	})

	t.Run("unknown screen", func(t *testing.T) {
		_, err := execute(t, "--config", cfg, "run", "nope")
		assert.ErrorIs(t, err, screens.ErrUnknownScreen)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := execute(t, "--config", cfg, "run", "data", "bogus")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no action "bogus"`)
	})
}

func TestEventsPublish_RejectsInvalidJSON(t *testing.T) {
	_, err := execute(t, "events", "publish", "registerSteps", "{not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}
