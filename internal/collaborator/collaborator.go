// Package collaborator defines the boundary to the external health-data SDK:
// named capability functions exchanging JSON, and a push-event source.
package collaborator

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUnsupportedOperation is returned by Invoke for operation names the SDK
// does not expose.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Collaborator invokes one SDK capability by operation name.
type Collaborator interface {
	Invoke(ctx context.Context, op string, req json.RawMessage) (json.RawMessage, error)
}

// Emitter receives push events produced outside any request/response cycle.
type Emitter interface {
	Emit(name string, payload json.RawMessage)
}

// EventSource is implemented by collaborators that push events.
type EventSource interface {
	SetEmitter(e Emitter)
}

// Data controller operations.
const (
	OpInitDataController           = "initDataController"
	OpInsert                       = "insert"
	OpDelete                       = "delete"
	OpUpdate                       = "update"
	OpRead                         = "read"
	OpReadTodaySummation           = "readTodaySummation"
	OpReadTodaySummationFromDevice = "readTodaySummationFromDevice"
	OpRegisterModifyDataMonitor    = "registerModifyDataMonitor"
	OpUnregisterModifyDataMonitor  = "unregisterModifyDataMonitor"
	OpSyncAll                      = "syncAll"
	OpClearAll                     = "clearAll"
)

// Sensors controller operations.
const (
	OpInitSensorsController = "initSensorsController"
	OpInitBleController     = "initBleController"
	OpRegisterSensor        = "register"
	OpUnregisterSensor      = "unregister"
	OpBeginScan             = "beginScan"
	OpEndScan               = "endScan"
	OpSaveDevice            = "saveDevice"
	OpDeleteDevice          = "deleteDevice"
	OpGetSavedDevices       = "getSavedDevices"
	OpGetDataCollectors     = "getDataCollectors"
)

// Auto recorder operations.
const (
	OpStartRecordByType      = "startRecordByType"
	OpStartRecordByCollector = "startRecordByCollector"
	OpStopRecordByType       = "stopRecordByType"
	OpStopRecordByCollector  = "stopRecordByCollector"
	OpStopRecordByRecord     = "stopRecordByRecord"
	OpGetAllRecords          = "getAllRecords"
	OpGetRecords             = "getRecords"
)

// Activity record, settings and account operations.
const (
	OpBeginActivityRecord = "beginActivityRecord"
	OpEndActivityRecord   = "endActivityRecord"
	OpGetActivityRecord   = "getActivityRecord"

	OpAddNewDataType  = "addNewDataType"
	OpReadDataType    = "readDataType"
	OpDisableHiHealth = "disableHiHealth"

	OpSignIn = "signIn"
)

// Event names pushed by the SDK.
const (
	EventModifyDataMonitor          = "registerModifyDataMonitor"
	EventStartRecordByTypeDone      = "onCompleteStartRecordByType"
	EventStartRecordByCollectorDone = "onCompleteStartRecordByCollector"
	EventStopRecordByTypeDone       = "onCompleteStopRecordByType"
	EventStopRecordByCollectorDone  = "onCompleteStopRecordByCollector"
	deviceDiscoverPrefix            = "OnDeviceDiscover - "
	scanEndPrefix                   = "OnScanEnd - "
)

// DeviceDiscoverEvent names the event fired for each device a scan finds.
func DeviceDiscoverEvent(identifier string) string {
	return deviceDiscoverPrefix + identifier
}

// ScanEndEvent names the event fired when a scan stops.
func ScanEndEvent(identifier string) string {
	return scanEndPrefix + identifier
}
