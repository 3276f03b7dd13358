package screens

import (
	"time"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/facade"
)

// Fixed demo payloads. Wall-clock times are UTC.

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

var stepsDeltaCollector = facade.Collector{
	DataType:   catalog.StepsDelta,
	StreamName: "STEPS_DELTA",
}

func msRange(from, to time.Time) facade.TimeRange {
	return facade.TimeRange{Start: from, End: to, Unit: catalog.Milliseconds}
}

func steps(from, to time.Time, n int64) facade.Sample {
	return facade.Sample{Field: catalog.FieldStepsDelta, Start: from, End: to, Int: n}
}
