package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codex-k8s/agent-runner/internal/audit"
	"github.com/codex-k8s/agent-runner/internal/execution"
	"github.com/codex-k8s/agent-runner/internal/security"
)

// Host is the platform invoking the node.
type Host interface {
	// Items returns the raw parameters of every input item, in order.
	Items() []execution.Params
	// APIKey returns the credential for the remote API.
	APIKey(ctx context.Context) (string, error)
	// ContinueOnFail reports whether item failures are captured instead of aborting the run.
	ContinueOnFail() bool
	// Emit receives the final ordered results.
	Emit(results []ItemResult) error
}

// ItemResult is the outcome of one input item.
type ItemResult struct {
	// Index is the input item position.
	Index int
	// Body is the results payload of a successful item.
	Body json.RawMessage
	// Err is set for a failed item.
	Err error
}

// OK reports whether the item succeeded.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// Message returns the failure message without the item prefix.
func (r ItemResult) Message() string {
	if r.Err == nil {
		return ""
	}
	var itemErr *ItemError
	if errors.As(r.Err, &itemErr) && itemErr.Err != nil {
		return itemErr.Err.Error()
	}
	return r.Err.Error()
}

// ItemError attaches the originating item index to a failure.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Connector creates an API client for the given key.
type Connector func(apiKey string) execution.API

// Runner processes the items of a host invocation one at a time.
type Runner struct {
	// Connect builds the API client once per run.
	Connect Connector
	// Clock drives the poll loop; the system clock when nil.
	Clock execution.Clock
	// Interval is the poll interval.
	Interval time.Duration
	// Logger is used for structured logging.
	Logger *slog.Logger
	// Audit records execution events.
	Audit audit.Logger
}

// Execute runs every item sequentially and emits the results to the host.
// Unless the host continues on failure, the first item error aborts the run
// and is returned as an *ItemError without emitting anything.
func (r Runner) Execute(ctx context.Context, correlationID string, host Host) error {
	if r.Connect == nil {
		return errors.New("node connector is not configured")
	}
	apiKey, err := host.APIKey(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	exec := execution.Executor{
		API:      r.Connect(apiKey),
		Clock:    r.Clock,
		Interval: r.Interval,
		Logger:   r.Logger,
	}

	items := host.Items()
	r.record(ctx, audit.Event{Type: audit.TypeRunStart, CorrelationID: correlationID, Item: -1, Reason: fmt.Sprintf("%d items", len(items))})

	results := make([]ItemResult, 0, len(items))
	for idx, params := range items {
		body, err := r.runItem(ctx, exec, correlationID, idx, params)
		if err == nil {
			results = append(results, ItemResult{Index: idx, Body: body})
			continue
		}

		itemErr := &ItemError{Index: idx, Err: err}
		if !host.ContinueOnFail() {
			r.record(ctx, audit.Event{Type: audit.TypeRunAborted, CorrelationID: correlationID, Agent: params.AgentName, Item: idx, Reason: err.Error()})
			return itemErr
		}
		results = append(results, ItemResult{Index: idx, Err: itemErr})
	}

	r.record(ctx, audit.Event{Type: audit.TypeRunDone, CorrelationID: correlationID, Item: -1, Reason: fmt.Sprintf("%d items", len(results))})
	return host.Emit(results)
}

func (r Runner) runItem(ctx context.Context, exec execution.Executor, correlationID string, idx int, params execution.Params) (json.RawMessage, error) {
	req, err := execution.Build(params)
	if err != nil {
		r.fail(ctx, correlationID, params.AgentName, idx, 0, err)
		return nil, err
	}
	if r.Logger != nil {
		r.Logger.Debug("item request",
			"correlation_id", correlationID,
			"item", idx,
			"agent", req.AgentName,
			"version", req.Version.String(),
			"input_variables", security.Redact(req.InputVariables),
			"metadata", security.Redact(req.Metadata),
			"timeout", req.Timeout.String(),
		)
	}

	handle, err := exec.Submit(ctx, req)
	if err != nil {
		r.fail(ctx, correlationID, req.AgentName, idx, 0, err)
		return nil, err
	}
	r.record(ctx, audit.Event{Type: audit.TypeAgentSubmitted, CorrelationID: correlationID, Agent: req.AgentName, Item: idx, ExecutionID: handle.ExecutionID})

	body, err := exec.Await(ctx, handle, req)
	if err != nil {
		r.fail(ctx, correlationID, req.AgentName, idx, handle.ExecutionID, err)
		return nil, err
	}
	r.record(ctx, audit.Event{Type: audit.TypeAgentCompleted, CorrelationID: correlationID, Agent: req.AgentName, Item: idx, ExecutionID: handle.ExecutionID})
	return body, nil
}

func (r Runner) fail(ctx context.Context, correlationID, agent string, idx int, executionID int64, err error) {
	if r.Logger != nil {
		r.Logger.Warn("item failed", "correlation_id", correlationID, "item", idx, "agent", agent, "error", err)
	}
	r.record(ctx, audit.Event{
		Type:          audit.TypeAgentFailed,
		CorrelationID: correlationID,
		Agent:         agent,
		Item:          idx,
		ExecutionID:   executionID,
		Kind:          string(execution.KindOf(err)),
		Reason:        err.Error(),
	})
}

func (r Runner) record(ctx context.Context, event audit.Event) {
	if r.Audit != nil {
		r.Audit.Record(ctx, event)
	}
}
