package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_ResubscribeReplacesHandler(t *testing.T) {
	b := newTestBridge(t)
	s := b.NewScope("sensors")
	old, replacement := newCollector(), newCollector()

	s.Subscribe("registerSteps", old.handle)
	s.Subscribe("registerSteps", replacement.handle)
	assert.Equal(t, 1, b.SubscriberCount("registerSteps"))

	b.Emit("registerSteps", json.RawMessage(`1`))
	assert.Equal(t, `1`, string(replacement.next(t)))
	old.none(t)
}

func TestScope_SeparateScopesBothReceive(t *testing.T) {
	b := newTestBridge(t)
	data, recorder := b.NewScope("data"), b.NewScope("recorder")
	c1, c2 := newCollector(), newCollector()

	data.Subscribe("registerModifyDataMonitor", c1.handle)
	recorder.Subscribe("registerModifyDataMonitor", c2.handle)

	b.Emit("registerModifyDataMonitor", json.RawMessage(`{}`))
	c1.next(t)
	c2.next(t)
}

func TestScope_CloseReleasesEverything(t *testing.T) {
	b := newTestBridge(t)
	s := b.NewScope("ble")
	c := newCollector()

	s.Subscribe("OnDeviceDiscover - ble", c.handle)
	s.Subscribe("OnScanEnd - ble", c.handle)
	assert.Equal(t, []string{"OnDeviceDiscover - ble", "OnScanEnd - ble"}, s.Events())
	assert.Equal(t, "ble", s.Name())

	s.Close()
	s.Close()

	assert.Zero(t, b.SubscriberCount("OnDeviceDiscover - ble"))
	assert.Zero(t, b.SubscriberCount("OnScanEnd - ble"))
	assert.Empty(t, s.Events())

	assert.True(t, s.Subscribe("OnScanEnd - ble", c.handle).IsZero())
	b.Emit("OnScanEnd - ble", json.RawMessage(`{}`))
	c.none(t)
}

func TestScope_Unsubscribe(t *testing.T) {
	b := newTestBridge(t)
	s := b.NewScope("sensors")
	c := newCollector()

	s.Subscribe("registerSteps", c.handle)
	assert.True(t, s.Unsubscribe("registerSteps"))
	assert.False(t, s.Unsubscribe("registerSteps"))
	assert.Zero(t, b.SubscriberCount("registerSteps"))
}
