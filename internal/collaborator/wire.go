package collaborator

// Wire types exchanged with the SDK. Identifiers are collaborator ids (never
// catalog names); times are integer ticks in the accompanying time unit, or
// epoch milliseconds where no unit travels with them.

type DataCollector struct {
	DataType         string `json:"dataType"`
	DataStreamName   string `json:"dataStreamName,omitempty"`
	DataGenerateType int    `json:"dataGenerateType"`
	DeviceID         string `json:"deviceId,omitempty"`
}

type SamplePoint struct {
	StartTime  int64   `json:"startTime"`
	EndTime    int64   `json:"endTime"`
	Field      string  `json:"field"`
	IntValue   int64   `json:"intValue,omitempty"`
	FloatValue float64 `json:"floatValue,omitempty"`
}

type TimeRange struct {
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
	TimeUnit  string `json:"timeUnit"`
}

type Permission struct {
	DataType string `json:"dataType"`
	Options  int    `json:"hiHealthOptions"`
}

type InitDataControllerRequest struct {
	Permissions []Permission `json:"permissions"`
}

type InsertRequest struct {
	Collector DataCollector `json:"dataCollector"`
	TimeUnit  string        `json:"timeUnit"`
	Samples   []SamplePoint `json:"sampleSets"`
}

type DeleteRequest struct {
	Collector DataCollector `json:"dataCollector"`
	Range     TimeRange     `json:"dateMap"`
}

type UpdateRequest struct {
	Collector DataCollector `json:"dataCollector"`
	TimeUnit  string        `json:"timeUnit"`
	Samples   []SamplePoint `json:"sampleSets"`
	Range     TimeRange     `json:"updateOptions"`
}

type ReadRequest struct {
	Collector DataCollector `json:"dataCollector"`
	Range     TimeRange     `json:"dateMap"`
}

type DataTypeRequest struct {
	DataType string `json:"dataType"`
}

type CollectorRequest struct {
	Collector DataCollector `json:"dataCollector"`
}

type StatusResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Affected int    `json:"affected,omitempty"`
}

type SampleSetResponse struct {
	DataType string        `json:"dataType"`
	TimeUnit string        `json:"timeUnit"`
	Samples  []SamplePoint `json:"samples"`
}

type SummaryResponse struct {
	DataType  string             `json:"dataType"`
	StartTime int64              `json:"startTime"`
	EndTime   int64              `json:"endTime"`
	Count     int                `json:"count"`
	Fields    map[string]float64 `json:"fields"`
}

type SensorRegisterRequest struct {
	DataType   string `json:"dataType"`
	Identifier string `json:"identifier"`
}

type IdentifierRequest struct {
	Identifier string `json:"identifier"`
}

type ScanRequest struct {
	DataTypes  []string `json:"dataTypes"`
	Seconds    int      `json:"seconds"`
	Identifier string   `json:"identifier"`
}

type Device struct {
	Identifier string   `json:"identifier"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	DataTypes  []string `json:"dataTypes"`
}

type DeviceRequest struct {
	Device Device `json:"device"`
}

type DevicesResponse struct {
	Devices []Device `json:"devices"`
}

type CollectorsResponse struct {
	Collectors []DataCollector `json:"collectors"`
}

type Record struct {
	ID        string         `json:"id"`
	DataType  string         `json:"dataType"`
	Collector *DataCollector `json:"dataCollector,omitempty"`
	StartedAt int64          `json:"startedAt"`
}

type RecordIDRequest struct {
	RecordID string `json:"recordId"`
}

type RecordsResponse struct {
	Records []Record `json:"records"`
}

type ActivityRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	ActivityType string   `json:"activityType"`
	StartTime    int64    `json:"startTime"`
	EndTime      int64    `json:"endTime,omitempty"`
	DataTypes    []string `json:"dataTypes,omitempty"`
}

type BeginActivityRecordRequest struct {
	Record ActivityRecord `json:"activityRecord"`
}

type EndActivityRecordRequest struct {
	ID string `json:"activityRecordId"`
}

type GetActivityRecordRequest struct {
	DataType string    `json:"dataType"`
	Range    TimeRange `json:"dateMap"`
	ID       string    `json:"activityRecordId,omitempty"`
	Name     string    `json:"activityRecordName,omitempty"`
}

type ActivityRecordsResponse struct {
	Records []ActivityRecord `json:"activityRecords"`
}

type AddNewDataTypeRequest struct {
	Name   string   `json:"dataTypeName"`
	Fields []string `json:"fields"`
}

type ReadDataTypeRequest struct {
	Name string `json:"dataTypeName"`
}

type DataTypeInfo struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

type SignInRequest struct {
	Scopes []string `json:"scopes"`
}

type AccountResponse struct {
	OpenID        string   `json:"openId"`
	DisplayName   string   `json:"displayName"`
	GrantedScopes []string `json:"grantedScopes"`
}

// Event payloads.

type DataModifiedEvent struct {
	DataType string        `json:"dataType"`
	TimeUnit string        `json:"timeUnit"`
	Samples  []SamplePoint `json:"samples"`
}

type SensorReading struct {
	Identifier string  `json:"identifier"`
	DataType   string  `json:"dataType"`
	Field      string  `json:"field"`
	Value      float64 `json:"value"`
	Timestamp  int64   `json:"timestamp"`
}

type ScanEnded struct {
	Identifier string `json:"identifier"`
	Discovered int    `json:"discovered"`
}
