// pkg/registry/schema.go
package registry

type OperationRegistry struct {
	Version     string      `json:"version"`
	LastUpdated string      `json:"lastUpdated"`
	Operations  []Operation `json:"operations"`
}

type Operation struct {
	ID             string                 `json:"id"`
	DisplayName    string                 `json:"displayName"`
	Description    string                 `json:"description"`
	Controller     string                 `json:"controller"`
	ResponseSchema map[string]interface{} `json:"responseSchema"`
	Events         []string               `json:"events"`
}
