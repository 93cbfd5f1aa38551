package agentapi

import "encoding/json"

// APIKeyHeader carries the API key on every request.
const APIKeyHeader = "X-API-KEY"

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.promptlayer.com"

// RunRequest is the body sent to POST /workflows/{name}/run.
type RunRequest struct {
	// InputVariables are passed to the agent as its inputs.
	InputVariables map[string]any `json:"input_variables"`
	// WorkflowVersionNumber pins an explicit version.
	WorkflowVersionNumber *int `json:"workflow_version_number,omitempty"`
	// WorkflowLabelName pins a named label.
	WorkflowLabelName string `json:"workflow_label_name,omitempty"`
	// Metadata is attached to the execution.
	Metadata map[string]any `json:"metadata,omitempty"`
	// ReturnAllOutputs asks for every node output instead of the final one.
	ReturnAllOutputs bool `json:"return_all_outputs"`
}

// RunResponse is the response of a run submission.
type RunResponse struct {
	// ExecutionID identifies the started execution.
	ExecutionID *int64 `json:"workflow_version_execution_id"`
}

// ListResponse is a single page of the agent listing.
type ListResponse struct {
	Items   []ListItem `json:"items"`
	HasNext bool       `json:"has_next"`
	NextNum *int       `json:"next_num"`
}

// ListItem is one agent in the listing.
type ListItem struct {
	Name string `json:"name"`
}

// PollState is the state derived from a results response.
type PollState int

const (
	// PollPending means the execution is still running (HTTP 202).
	PollPending PollState = iota
	// PollCompleted means the execution finished (HTTP 200).
	PollCompleted
	// PollFailed means any other status code.
	PollFailed
)

func (s PollState) String() string {
	switch s {
	case PollPending:
		return "pending"
	case PollCompleted:
		return "completed"
	case PollFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PollOutcome is the result of one poll of the results endpoint.
type PollOutcome struct {
	// State is derived from the HTTP status code only.
	State PollState
	// StatusCode is the raw HTTP status code.
	StatusCode int
	// Body is the raw response body.
	Body json.RawMessage
}
