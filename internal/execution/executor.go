package execution

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/codex-k8s/agent-runner/internal/agentapi"
)

// API is the subset of the remote API used to run an agent.
type API interface {
	// Run submits an execution and returns its id.
	Run(ctx context.Context, agentName string, req agentapi.RunRequest) (int64, error)
	// Results polls the results endpoint once.
	Results(ctx context.Context, executionID int64, returnAllOutputs bool) (agentapi.PollOutcome, error)
}

// Handle identifies one in-flight execution.
type Handle struct {
	ExecutionID int64
	IssuedAt    time.Time
}

// Executor submits a request and waits for its result. Callers hold the
// Handle between Submit and Await.
type Executor struct {
	// API is the remote agent API.
	API API
	// Clock provides time and suspension; SystemClock when nil.
	Clock Clock
	// Interval is the poll interval; DefaultPollInterval when zero.
	Interval time.Duration
	// Logger is used for structured logging.
	Logger *slog.Logger
}

// Submit sends the request once. Submission is never retried.
func (e Executor) Submit(ctx context.Context, req Request) (Handle, error) {
	id, err := e.API.Run(ctx, req.AgentName, req.Body())
	if err != nil {
		if errors.Is(err, agentapi.ErrMissingExecutionID) {
			return Handle{}, &Error{Kind: KindMissingExecutionID, Err: err}
		}
		return Handle{}, &Error{Kind: KindTransport, Err: err}
	}
	h := Handle{ExecutionID: id, IssuedAt: e.poller().clock().Now()}
	if e.Logger != nil {
		e.Logger.Info("agent submitted", "agent", req.AgentName, "version", req.Version.String(), "execution_id", id)
	}
	return h, nil
}

// Await polls the execution behind h until a terminal state.
func (e Executor) Await(ctx context.Context, h Handle, req Request) (json.RawMessage, error) {
	body, err := e.poller().Await(ctx, h, req.ReturnAllOutputs, req.Timeout)
	if err != nil {
		return nil, err
	}
	if e.Logger != nil {
		e.Logger.Info("agent completed", "agent", req.AgentName, "execution_id", h.ExecutionID)
	}
	return body, nil
}

func (e Executor) poller() Poller {
	return Poller{API: e.API, Clock: e.Clock, Interval: e.Interval, Logger: e.Logger}
}
