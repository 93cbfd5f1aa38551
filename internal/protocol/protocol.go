package protocol

import "github.com/codex-k8s/agent-runner/internal/execution"

// Statuses of a tool call and of a single item.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RunAgentInput is the run_agent tool input.
type RunAgentInput struct {
	// Items are processed in order, one agent execution per item.
	Items []execution.Params `json:"items" jsonschema:"input items, one agent execution each"`
	// ContinueOnFail records item failures in the results instead of aborting the run.
	ContinueOnFail bool `json:"continue_on_fail,omitempty" jsonschema:"record item failures in results instead of aborting"`
	// CorrelationID links the call to caller-side logs; generated when empty.
	CorrelationID string `json:"correlation_id,omitempty" jsonschema:"optional caller correlation id"`
}

// RunAgentOutput is the fixed JSON response of run_agent.
type RunAgentOutput struct {
	// Status is success when results were produced.
	Status string `json:"status"`
	// Reason explains an aborted run.
	Reason string `json:"reason,omitempty"`
	// CorrelationID links related log and audit entries.
	CorrelationID string `json:"correlation_id"`
	// Results holds one entry per input item, in input order.
	Results []ItemResult `json:"results"`
}

// ItemResult is one entry of RunAgentOutput.Results.
type ItemResult struct {
	// Index is the input item position.
	Index int `json:"index"`
	// Status is success or error.
	Status string `json:"status"`
	// Body is the decoded results payload of a successful item.
	Body any `json:"body,omitempty"`
	// Error is the failure message.
	Error string `json:"error,omitempty"`
	// Kind classifies the failure.
	Kind string `json:"kind,omitempty"`
}

// ListAgentsInput is the list_agents tool input.
type ListAgentsInput struct {
	// Refresh bypasses the listing cache.
	Refresh bool `json:"refresh,omitempty" jsonschema:"bypass the cached listing"`
}

// ListAgentsOutput is the list_agents tool response.
type ListAgentsOutput struct {
	Status string   `json:"status"`
	Reason string   `json:"reason,omitempty"`
	Agents []string `json:"agents"`
}
