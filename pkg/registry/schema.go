// pkg/registry/schema.go
package registry

import "time"

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity is the published contract of one task type: what a BPMN model may
// send, what comes back, and which error codes it can throw.
type Activity struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"displayName"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Version     string         `json:"version"`
	TaskType    string         `json:"taskType"`
	Status      string         `json:"implementationStatus"`
	Input       VariableSchema `json:"inputSchema"`
	Output      VariableSchema `json:"outputSchema"`
	ErrorCodes  []string       `json:"errorCodes"`
	Timeout     string         `json:"timeout"`
	Retries     int            `json:"retries"`
	Triggers    []string       `json:"triggers"`
	Tags        []string       `json:"tags"`
}

// VariableSchema is the subset of JSON schema used to describe job variables.
type VariableSchema struct {
	Type       string                  `json:"type"`
	Required   []string                `json:"required,omitempty"`
	Properties map[string]VariableType `json:"properties,omitempty"`
}

type VariableType struct {
	Type string `json:"type"`
}

// TimeoutDuration parses Timeout; an empty value yields zero.
func (a *Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(a.Timeout)
}

func (a *Activity) HasTrigger(name string) bool {
	for _, t := range a.Triggers {
		if t == name {
			return true
		}
	}
	return false
}
