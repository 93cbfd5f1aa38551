package node

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/agent-runner/internal/agentapi"
	"github.com/codex-k8s/agent-runner/internal/audit"
	"github.com/codex-k8s/agent-runner/internal/execution"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) Sleep(_ context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return nil
}

// scriptedAPI answers results polls by agent name; execution ids are assigned
// in submission order.
type scriptedAPI struct {
	codes  map[string]int
	byID   map[int64]string
	nextID int64
	order  []string
}

func (s *scriptedAPI) Run(_ context.Context, name string, _ agentapi.RunRequest) (int64, error) {
	s.order = append(s.order, name)
	if name == "unreachable" {
		return 0, errors.New("connection refused")
	}
	s.nextID++
	if s.byID == nil {
		s.byID = map[int64]string{}
	}
	s.byID[s.nextID] = name
	return s.nextID, nil
}

func (s *scriptedAPI) Results(_ context.Context, id int64, _ bool) (agentapi.PollOutcome, error) {
	code, ok := s.codes[s.byID[id]]
	if !ok {
		code = http.StatusOK
	}
	out := agentapi.PollOutcome{StatusCode: code, Body: []byte(`{"agent":"` + s.byID[id] + `"}`)}
	switch code {
	case http.StatusOK:
		out.State = agentapi.PollCompleted
	case http.StatusAccepted:
		out.State = agentapi.PollPending
	default:
		out.State = agentapi.PollFailed
	}
	return out, nil
}

type fakeHost struct {
	items          []execution.Params
	key            string
	keyErr         error
	continueOnFail bool
	emitted        []ItemResult
	emitCalls      int
}

func (h *fakeHost) Items() []execution.Params { return h.items }

func (h *fakeHost) APIKey(context.Context) (string, error) { return h.key, h.keyErr }

func (h *fakeHost) ContinueOnFail() bool { return h.continueOnFail }

func (h *fakeHost) Emit(results []ItemResult) error {
	h.emitCalls++
	h.emitted = results
	return nil
}

type memAudit struct {
	events []audit.Event
}

func (m *memAudit) Record(_ context.Context, event audit.Event) {
	m.events = append(m.events, event)
}

func newRunner(api *scriptedAPI, rec audit.Logger) (Runner, *[]string) {
	var keys []string
	return Runner{
		Connect: func(apiKey string) execution.API {
			keys = append(keys, apiKey)
			return api
		},
		Clock: &stubClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		Audit: rec,
	}, &keys
}

func TestExecuteContinueOnFailKeepsOrderAndLength(t *testing.T) {
	api := &scriptedAPI{codes: map[string]int{"broken": http.StatusNotFound}}
	rec := &memAudit{}
	runner, keys := newRunner(api, rec)
	host := &fakeHost{
		key:            "k1",
		continueOnFail: true,
		items: []execution.Params{
			{AgentName: "first"},
			{AgentName: "broken"},
			{AgentName: "third", InputVariables: `{"bad"`},
			{AgentName: "fourth"},
		},
	}

	require.NoError(t, runner.Execute(context.Background(), "corr-1", host))
	assert.Equal(t, []string{"k1"}, *keys)
	require.Len(t, host.emitted, 4)
	for i, res := range host.emitted {
		assert.Equal(t, i, res.Index)
	}
	assert.True(t, host.emitted[0].OK())
	assert.JSONEq(t, `{"agent":"first"}`, string(host.emitted[0].Body))

	assert.False(t, host.emitted[1].OK())
	assert.Equal(t, execution.KindUnexpectedStatus, execution.KindOf(host.emitted[1].Err))
	assert.Equal(t, "unexpected status code 404 while polling results", host.emitted[1].Message())
	var itemErr *ItemError
	require.ErrorAs(t, host.emitted[1].Err, &itemErr)
	assert.Equal(t, 1, itemErr.Index)

	assert.Equal(t, execution.KindMalformedInput, execution.KindOf(host.emitted[2].Err))
	assert.True(t, host.emitted[3].OK())

	// malformed item never reaches the API
	assert.Equal(t, []string{"first", "broken", "fourth"}, api.order)

	var types []string
	for _, ev := range rec.events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{
		audit.TypeRunStart,
		audit.TypeAgentSubmitted, audit.TypeAgentCompleted,
		audit.TypeAgentSubmitted, audit.TypeAgentFailed,
		audit.TypeAgentFailed,
		audit.TypeAgentSubmitted, audit.TypeAgentCompleted,
		audit.TypeRunDone,
	}, types)
}

func TestExecuteAbortsOnFirstFailure(t *testing.T) {
	api := &scriptedAPI{}
	runner, _ := newRunner(api, nil)
	host := &fakeHost{
		key: "k",
		items: []execution.Params{
			{AgentName: "ok"},
			{AgentName: "unreachable"},
			{AgentName: "never"},
		},
	}

	err := runner.Execute(context.Background(), "corr-2", host)
	require.Error(t, err)
	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, 1, itemErr.Index)
	assert.Equal(t, execution.KindTransport, execution.KindOf(err))
	assert.EqualError(t, err, "item 1: request failed: connection refused")
	assert.Zero(t, host.emitCalls)
	assert.Equal(t, []string{"ok", "unreachable"}, api.order)
}

func TestExecuteTimeoutPerItem(t *testing.T) {
	api := &scriptedAPI{codes: map[string]int{"slow": http.StatusAccepted}}
	runner, _ := newRunner(api, nil)
	host := &fakeHost{
		key:            "k",
		continueOnFail: true,
		items: []execution.Params{
			{AgentName: "slow", TimeoutMinutes: 1},
			{AgentName: "fast"},
		},
	}

	require.NoError(t, runner.Execute(context.Background(), "corr-3", host))
	require.Len(t, host.emitted, 2)
	assert.Equal(t, execution.KindTimedOut, execution.KindOf(host.emitted[0].Err))
	assert.True(t, host.emitted[1].OK())
}

func TestExecuteCredentialError(t *testing.T) {
	runner, _ := newRunner(&scriptedAPI{}, nil)
	host := &fakeHost{keyErr: errors.New("not configured"), items: []execution.Params{{AgentName: "a"}}}

	err := runner.Execute(context.Background(), "corr-4", host)
	assert.EqualError(t, err, "load credentials: not configured")
	assert.Zero(t, host.emitCalls)
}

func TestExecuteEmptyItems(t *testing.T) {
	runner, _ := newRunner(&scriptedAPI{}, nil)
	host := &fakeHost{key: "k"}

	require.NoError(t, runner.Execute(context.Background(), "corr-5", host))
	assert.Equal(t, 1, host.emitCalls)
	assert.Empty(t, host.emitted)
}
