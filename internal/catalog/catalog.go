// Package catalog holds the closed set of data-type, field, time-unit and scope
// identifiers shared by the facade and the collaborator.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"healthkit-bridge/internal/common/config"
)

// ErrUnknownIdentifier is returned for names or ids outside the catalog.
var ErrUnknownIdentifier = errors.New("unknown catalog identifier")

type (
	DataType string
	Field    string
	TimeUnit string
	Scope    string
)

const (
	StepsDelta     DataType = "DT_CONTINUOUS_STEPS_DELTA"
	StepsTotal     DataType = "DT_CONTINUOUS_STEPS_TOTAL"
	HeartRate      DataType = "DT_INSTANTANEOUS_HEART_RATE"
	Height         DataType = "DT_INSTANTANEOUS_HEIGHT"
	BodyWeight     DataType = "DT_INSTANTANEOUS_BODY_WEIGHT"
	BodyFatRate    DataType = "DT_INSTANTANEOUS_BODY_FAT_RATE"
	CaloriesBMR    DataType = "DT_INSTANTANEOUS_CALORIES_BMR"
	Hydrate        DataType = "DT_INSTANTANEOUS_HYDRATE"
	NutritionFacts DataType = "DT_INSTANTANEOUS_NUTRITION_FACTS"
)

const (
	FieldStepsDelta  Field = "FIELD_STEPS_DELTA"
	FieldSteps       Field = "FIELD_STEPS"
	FieldBPM         Field = "FIELD_BPM"
	FieldHeight      Field = "FIELD_HEIGHT"
	FieldBodyWeight  Field = "FIELD_BODY_WEIGHT"
	FieldBodyFatRate Field = "FIELD_BODY_FAT_RATE"
	FieldCalories    Field = "FIELD_CALORIES"
	FieldHydrate     Field = "FIELD_HYDRATE"
	FieldNutrients   Field = "FIELD_NUTRIENTS"
)

const (
	Nanoseconds  TimeUnit = "NANOSECONDS"
	Milliseconds TimeUnit = "MILLISECONDS"
	Seconds      TimeUnit = "SECONDS"
)

const (
	ScopeStepBoth         Scope = "HEALTHKIT_STEP_BOTH"
	ScopeHeightWeightBoth Scope = "HEALTHKIT_HEIGHTWEIGHT_BOTH"
	ScopeHeartRateBoth    Scope = "HEALTHKIT_HEARTRATE_BOTH"
	ScopeStepRead         Scope = "HEALTHKIT_STEP_READ"
)

// DataTypeSpec describes one data type. Monitorable types can be watched with
// the data controller's modify monitor.
type DataTypeSpec struct {
	Name        DataType
	ID          string
	Fields      []Field
	Monitorable bool
}

// Catalog is immutable after construction.
type Catalog struct {
	dataTypes  map[DataType]DataTypeSpec
	dataTypeBy map[string]DataType
	fields     map[Field]string
	fieldBy    map[string]Field
	units      map[TimeUnit]time.Duration
	scopes     map[Scope]string
}

func defaultDataTypes() []DataTypeSpec {
	return []DataTypeSpec{
		{Name: StepsDelta, ID: "com.huawei.continuous.steps.delta", Fields: []Field{FieldStepsDelta}},
		{Name: StepsTotal, ID: "com.huawei.continuous.steps.total", Fields: []Field{FieldSteps}},
		{Name: HeartRate, ID: "com.huawei.instantaneous.heart_rate", Fields: []Field{FieldBPM}},
		{Name: Height, ID: "com.huawei.instantaneous.height", Fields: []Field{FieldHeight}, Monitorable: true},
		{Name: BodyWeight, ID: "com.huawei.instantaneous.body_weight", Fields: []Field{FieldBodyWeight}, Monitorable: true},
		{Name: BodyFatRate, ID: "com.huawei.instantaneous.body_fat_rate", Fields: []Field{FieldBodyFatRate}, Monitorable: true},
		{Name: CaloriesBMR, ID: "com.huawei.instantaneous.calories.bmr", Fields: []Field{FieldCalories}, Monitorable: true},
		{Name: Hydrate, ID: "com.huawei.instantaneous.hydrate", Fields: []Field{FieldHydrate}, Monitorable: true},
		{Name: NutritionFacts, ID: "com.huawei.instantaneous.nutrition_facts", Fields: []Field{FieldNutrients}, Monitorable: true},
	}
}

func defaultFields() map[Field]string {
	return map[Field]string{
		FieldStepsDelta:  "steps_delta",
		FieldSteps:       "steps",
		FieldBPM:         "bpm",
		FieldHeight:      "height",
		FieldBodyWeight:  "body_weight",
		FieldBodyFatRate: "body_fat_rate",
		FieldCalories:    "calories",
		FieldHydrate:     "hydrate",
		FieldNutrients:   "nutrients",
	}
}

// Default returns the stock catalog.
func Default() *Catalog {
	c, _ := build(defaultDataTypes(), defaultFields())
	return c
}

// FromConfig returns the stock catalog with collaborator ids replaced by the
// configured overrides. Keys are symbolic names, matched case-insensitively.
func FromConfig(cfg config.CatalogConfig) (*Catalog, error) {
	specs := defaultDataTypes()
	known := make(map[DataType]int, len(specs))
	for i, s := range specs {
		known[s.Name] = i
	}
	for name, id := range cfg.DataTypes {
		i, ok := known[DataType(strings.ToUpper(name))]
		if !ok {
			return nil, fmt.Errorf("data type %s: %w", name, ErrUnknownIdentifier)
		}
		specs[i].ID = id
	}

	fields := defaultFields()
	for name, id := range cfg.Fields {
		f := Field(strings.ToUpper(name))
		if _, ok := fields[f]; !ok {
			return nil, fmt.Errorf("field %s: %w", name, ErrUnknownIdentifier)
		}
		fields[f] = id
	}
	return build(specs, fields)
}

func build(specs []DataTypeSpec, fields map[Field]string) (*Catalog, error) {
	c := &Catalog{
		dataTypes:  make(map[DataType]DataTypeSpec, len(specs)),
		dataTypeBy: make(map[string]DataType, len(specs)),
		fields:     fields,
		fieldBy:    make(map[string]Field, len(fields)),
		units: map[TimeUnit]time.Duration{
			Nanoseconds:  time.Nanosecond,
			Milliseconds: time.Millisecond,
			Seconds:      time.Second,
		},
		scopes: map[Scope]string{
			ScopeStepBoth:         "https://www.huawei.com/healthkit/step.both",
			ScopeHeightWeightBoth: "https://www.huawei.com/healthkit/heightweight.both",
			ScopeHeartRateBoth:    "https://www.huawei.com/healthkit/heartrate.both",
			ScopeStepRead:         "https://www.huawei.com/healthkit/step.read",
		},
	}
	for _, s := range specs {
		if prev, dup := c.dataTypeBy[s.ID]; dup {
			return nil, fmt.Errorf("data types %s and %s share id %q", prev, s.Name, s.ID)
		}
		c.dataTypes[s.Name] = s
		c.dataTypeBy[s.ID] = s.Name
	}
	for f, id := range fields {
		if prev, dup := c.fieldBy[id]; dup {
			return nil, fmt.Errorf("fields %s and %s share id %q", prev, f, id)
		}
		c.fieldBy[id] = f
	}
	return c, nil
}

func (c *Catalog) Spec(dt DataType) (DataTypeSpec, error) {
	s, ok := c.dataTypes[dt]
	if !ok {
		return DataTypeSpec{}, fmt.Errorf("data type %q: %w", dt, ErrUnknownIdentifier)
	}
	return s, nil
}

// DataTypeID maps a symbolic data type to the collaborator's id.
func (c *Catalog) DataTypeID(dt DataType) (string, error) {
	s, err := c.Spec(dt)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

// DataTypeOf is the inverse of DataTypeID.
func (c *Catalog) DataTypeOf(id string) (DataType, error) {
	dt, ok := c.dataTypeBy[id]
	if !ok {
		return "", fmt.Errorf("data type id %q: %w", id, ErrUnknownIdentifier)
	}
	return dt, nil
}

func (c *Catalog) FieldID(f Field) (string, error) {
	id, ok := c.fields[f]
	if !ok {
		return "", fmt.Errorf("field %q: %w", f, ErrUnknownIdentifier)
	}
	return id, nil
}

func (c *Catalog) FieldOf(id string) (Field, error) {
	f, ok := c.fieldBy[id]
	if !ok {
		return "", fmt.Errorf("field id %q: %w", id, ErrUnknownIdentifier)
	}
	return f, nil
}

func (c *Catalog) ScopeID(s Scope) (string, error) {
	id, ok := c.scopes[s]
	if !ok {
		return "", fmt.Errorf("scope %q: %w", s, ErrUnknownIdentifier)
	}
	return id, nil
}

// ScopeOf is the inverse of ScopeID.
func (c *Catalog) ScopeOf(id string) (Scope, error) {
	for s, sid := range c.scopes {
		if sid == id {
			return s, nil
		}
	}
	return "", fmt.Errorf("scope id %q: %w", id, ErrUnknownIdentifier)
}

// Unit returns the duration of one tick of u.
func (c *Catalog) Unit(u TimeUnit) (time.Duration, error) {
	d, ok := c.units[u]
	if !ok {
		return 0, fmt.Errorf("time unit %q: %w", u, ErrUnknownIdentifier)
	}
	return d, nil
}

// DataTypes lists every data type in name order.
func (c *Catalog) DataTypes() []DataTypeSpec {
	out := make([]DataTypeSpec, 0, len(c.dataTypes))
	for _, s := range c.dataTypes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ToTicks expresses t as a count of unit since the Unix epoch.
func ToTicks(t time.Time, unit time.Duration) int64 {
	return t.UnixNano() / int64(unit)
}

// FromTicks is the inverse of ToTicks, in UTC.
func FromTicks(v int64, unit time.Duration) time.Time {
	return time.Unix(0, v*int64(unit)).UTC()
}
