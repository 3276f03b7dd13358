package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthkit-bridge/internal/common/config"
)

func TestDefault_RoundTripsIdentifiers(t *testing.T) {
	c := Default()

	for _, spec := range c.DataTypes() {
		id, err := c.DataTypeID(spec.Name)
		require.NoError(t, err)
		back, err := c.DataTypeOf(id)
		require.NoError(t, err)
		assert.Equal(t, spec.Name, back)

		for _, f := range spec.Fields {
			fid, err := c.FieldID(f)
			require.NoError(t, err)
			fback, err := c.FieldOf(fid)
			require.NoError(t, err)
			assert.Equal(t, f, fback)
		}
	}
}

func TestDefault_Scopes(t *testing.T) {
	c := Default()

	id, err := c.ScopeID(ScopeStepRead)
	require.NoError(t, err)
	back, err := c.ScopeOf(id)
	require.NoError(t, err)
	assert.Equal(t, ScopeStepRead, back)

	_, err = c.ScopeOf("https://example.com/nope")
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
}

func TestDefault_UnknownIdentifiers(t *testing.T) {
	c := Default()

	_, err := c.DataTypeID("DT_NOPE")
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
	_, err = c.DataTypeOf("com.example.nope")
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
	_, err = c.FieldID("FIELD_NOPE")
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
	_, err = c.ScopeID("HEALTHKIT_NOPE")
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
	_, err = c.Unit("FORTNIGHTS")
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
}

func TestDefault_MonitorableTypes(t *testing.T) {
	c := Default()

	var monitorable []DataType
	for _, s := range c.DataTypes() {
		if s.Monitorable {
			monitorable = append(monitorable, s.Name)
		}
	}
	assert.ElementsMatch(t, []DataType{CaloriesBMR, BodyFatRate, Height, Hydrate, NutritionFacts, BodyWeight}, monitorable)
}

func TestFromConfig(t *testing.T) {
	t.Run("overrides ids case-insensitively", func(t *testing.T) {
		c, err := FromConfig(config.CatalogConfig{
			DataTypes: map[string]string{"dt_continuous_steps_delta": "vendor.steps"},
			Fields:    map[string]string{"field_steps_delta": "vendor_steps"},
		})
		require.NoError(t, err)

		id, err := c.DataTypeID(StepsDelta)
		require.NoError(t, err)
		assert.Equal(t, "vendor.steps", id)

		f, err := c.FieldOf("vendor_steps")
		require.NoError(t, err)
		assert.Equal(t, FieldStepsDelta, f)
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		_, err := FromConfig(config.CatalogConfig{DataTypes: map[string]string{"dt_unknown": "x"}})
		assert.ErrorIs(t, err, ErrUnknownIdentifier)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		_, err := FromConfig(config.CatalogConfig{
			DataTypes: map[string]string{"dt_continuous_steps_delta": "com.huawei.continuous.steps.total"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "share id")
	})
}

func TestTicks(t *testing.T) {
	ts := time.Date(2020, 7, 29, 8, 0, 0, 0, time.UTC)

	ms := ToTicks(ts, time.Millisecond)
	assert.Equal(t, int64(1596009600000), ms)
	assert.True(t, ts.Equal(FromTicks(ms, time.Millisecond)))
	assert.Equal(t, int64(1596009600), ToTicks(ts, time.Second))
}
