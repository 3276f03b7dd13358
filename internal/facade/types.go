package facade

import (
	"time"

	"healthkit-bridge/internal/catalog"
)

// Status acknowledges a command. Applied is false when the SDK declined it
// without error, e.g. unregistering a sensor that was never registered.
type Status struct {
	Applied  bool
	Message  string
	Affected int
}

// Permission asks for read or write access to a data type.
type Permission struct {
	DataType catalog.DataType
	Write    bool
}

// Collector names a data source. An empty DeviceID means any source.
type Collector struct {
	DataType     catalog.DataType
	StreamName   string
	GenerateType int
	DeviceID     string
}

type Sample struct {
	Field catalog.Field
	Start time.Time
	End   time.Time
	Int   int64
	Float float64
}

// TimeRange is inclusive on both ends; a sample matches when it lies entirely
// inside. Start <= End is the caller's responsibility.
type TimeRange struct {
	Start time.Time
	End   time.Time
	Unit  catalog.TimeUnit
}

type InsertRequest struct {
	Collector Collector
	Unit      catalog.TimeUnit
	Samples   []Sample
}

type DeleteRequest struct {
	Collector Collector
	Range     TimeRange
}

type UpdateRequest struct {
	Collector Collector
	Unit      catalog.TimeUnit
	Samples   []Sample
	Range     TimeRange
}

type ReadRequest struct {
	Collector Collector
	Range     TimeRange
}

type SampleSet struct {
	DataType catalog.DataType
	Samples  []Sample
}

type Summary struct {
	DataType catalog.DataType
	Start    time.Time
	End      time.Time
	Count    int
	Fields   map[catalog.Field]float64
}

type ScanRequest struct {
	DataTypes  []catalog.DataType
	Duration   time.Duration
	Identifier string
}

type Device struct {
	Identifier string
	Name       string
	Address    string
	DataTypes  []catalog.DataType
}

type Record struct {
	ID        string
	DataType  catalog.DataType
	Collector *Collector
	StartedAt time.Time
}

// ActivityRecord is running while End is zero. A zero Start lets the SDK
// stamp the current time.
type ActivityRecord struct {
	ID           string
	Name         string
	Description  string
	ActivityType string
	Start        time.Time
	End          time.Time
	DataTypes    []catalog.DataType
}

// ActivityQuery filters activity records. Empty fields do not filter.
type ActivityQuery struct {
	DataType catalog.DataType
	Range    TimeRange
	ID       string
	Name     string
}

// DataTypeInfo describes a data type by its collaborator-side name and field ids;
// custom data types live outside the catalog.
type DataTypeInfo struct {
	Name   string
	Fields []string
}

type Account struct {
	OpenID      string
	DisplayName string
	Scopes      []catalog.Scope
}
