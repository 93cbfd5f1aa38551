package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/agent-runner/internal/agentapi"
	"github.com/codex-k8s/agent-runner/internal/audit"
	"github.com/codex-k8s/agent-runner/internal/cache"
	"github.com/codex-k8s/agent-runner/internal/constants"
	"github.com/codex-k8s/agent-runner/internal/dsl"
	"github.com/codex-k8s/agent-runner/internal/execution"
	"github.com/codex-k8s/agent-runner/internal/node"
	"github.com/codex-k8s/agent-runner/internal/protocol"
)

// ErrNoAPIKey is reported when no API key is configured.
var ErrNoAPIKey = errors.New("api key is not configured")

// Builder constructs an MCP server exposing the agent node.
type Builder struct {
	// Logger is used for structured logging.
	Logger *slog.Logger
	// Audit records execution events.
	Audit audit.Logger
	// Client is the API client template; its APIKey is the credential store.
	Client agentapi.Client
	// Clock drives polling; the system clock when nil.
	Clock execution.Clock
	// PollInterval is the delay between result polls.
	PollInterval time.Duration
	// DefaultTimeoutMinutes applies to items without timeout_minutes.
	DefaultTimeoutMinutes int
	// Listing caches list_agents results when set.
	Listing *cache.Cache[[]string]
}

// Build creates an MCP server with the run_agent and list_agents tools.
func (b Builder) Build(cfg *dsl.Config) (*mcp.Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)

	openWorld := true
	notDestructive := false
	mcp.AddTool(server, &mcp.Tool{
		Name:  constants.ToolRunAgent,
		Title: "Run agent",
		Description: "Runs remote agents, one per input item, and waits for each to finish. " +
			"Items are processed in order; results are returned in input order.",
		Annotations: &mcp.ToolAnnotations{
			DestructiveHint: &notDestructive,
			OpenWorldHint:   &openWorld,
		},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input protocol.RunAgentInput) (*mcp.CallToolResult, protocol.RunAgentOutput, error) {
		return nil, b.RunAgent(ctx, input), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        constants.ToolListAgents,
		Title:       "List agents",
		Description: "Lists the names of all available remote agents.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:   true,
			IdempotentHint: true,
			OpenWorldHint:  &openWorld,
		},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input protocol.ListAgentsInput) (*mcp.CallToolResult, protocol.ListAgentsOutput, error) {
		return nil, b.ListAgents(ctx, input), nil
	})

	return server, nil
}

// Ready reports whether the node can reach the API.
func (b Builder) Ready() error {
	if strings.TrimSpace(b.Client.APIKey) == "" {
		return ErrNoAPIKey
	}
	return nil
}

// RunAgent executes the run_agent tool.
func (b Builder) RunAgent(ctx context.Context, input protocol.RunAgentInput) protocol.RunAgentOutput {
	correlationID := strings.TrimSpace(input.CorrelationID)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	if b.Logger != nil {
		b.Logger.Info("tool call", "tool", constants.ToolRunAgent, "correlation_id", correlationID, "items", len(input.Items), "continue_on_fail", input.ContinueOnFail)
	}

	host := &toolHost{
		items:          b.withDefaults(input.Items),
		apiKey:         b.Client.APIKey,
		continueOnFail: input.ContinueOnFail,
	}
	out := protocol.RunAgentOutput{
		Status:        protocol.StatusSuccess,
		CorrelationID: correlationID,
		Results:       []protocol.ItemResult{},
	}
	if err := b.runner().Execute(ctx, correlationID, host); err != nil {
		if b.Logger != nil {
			b.Logger.Warn("run aborted", "correlation_id", correlationID, "error", err)
		}
		out.Status = protocol.StatusError
		out.Reason = err.Error()
		return out
	}

	for _, res := range host.results {
		out.Results = append(out.Results, toItemResult(res))
	}
	return out
}

// ListAgents executes the list_agents tool.
func (b Builder) ListAgents(ctx context.Context, input protocol.ListAgentsInput) protocol.ListAgentsOutput {
	out := protocol.ListAgentsOutput{Status: protocol.StatusSuccess, Agents: []string{}}
	if err := b.Ready(); err != nil {
		out.Status = protocol.StatusError
		out.Reason = err.Error()
		return out
	}

	key := b.Client.BaseURL + "|" + strconv.Itoa(b.Client.PageSize)
	if input.Refresh {
		b.Listing.Delete(key)
	} else if names, ok := b.Listing.Get(key); ok {
		if b.Logger != nil {
			b.Logger.Debug("agent listing cache hit", "agents", len(names))
		}
		out.Agents = append(out.Agents, names...)
		return out
	}

	names, err := b.Client.ListAgents(ctx)
	if err != nil {
		if b.Logger != nil {
			b.Logger.Warn("agent listing failed", "error", err)
		}
		out.Status = protocol.StatusError
		out.Reason = err.Error()
		return out
	}
	b.Listing.Set(key, names)
	if b.Logger != nil {
		b.Logger.Debug("agent listing fetched", "agents", len(names), "cached_listings", b.Listing.Len())
	}
	out.Agents = append(out.Agents, names...)
	return out
}

func (b Builder) runner() node.Runner {
	client := b.Client
	return node.Runner{
		Connect: func(apiKey string) execution.API {
			c := client
			c.APIKey = apiKey
			return c
		},
		Clock:    b.Clock,
		Interval: b.PollInterval,
		Logger:   b.Logger,
		Audit:    b.Audit,
	}
}

func (b Builder) withDefaults(items []execution.Params) []execution.Params {
	out := make([]execution.Params, len(items))
	copy(out, items)
	if b.DefaultTimeoutMinutes <= 0 {
		return out
	}
	for i := range out {
		if out[i].TimeoutMinutes == 0 {
			out[i].TimeoutMinutes = b.DefaultTimeoutMinutes
		}
	}
	return out
}

func toItemResult(res node.ItemResult) protocol.ItemResult {
	if !res.OK() {
		return protocol.ItemResult{
			Index:  res.Index,
			Status: protocol.StatusError,
			Error:  res.Message(),
			Kind:   string(execution.KindOf(res.Err)),
		}
	}
	item := protocol.ItemResult{Index: res.Index, Status: protocol.StatusSuccess}
	var decoded any
	if err := json.Unmarshal(res.Body, &decoded); err == nil {
		item.Body = decoded
	} else {
		item.Body = string(res.Body)
	}
	return item
}

// toolHost adapts one run_agent call to the node host contract.
type toolHost struct {
	items          []execution.Params
	apiKey         string
	continueOnFail bool
	results        []node.ItemResult
}

func (h *toolHost) Items() []execution.Params {
	return h.items
}

func (h *toolHost) APIKey(context.Context) (string, error) {
	if strings.TrimSpace(h.apiKey) == "" {
		return "", ErrNoAPIKey
	}
	return h.apiKey, nil
}

func (h *toolHost) ContinueOnFail() bool {
	return h.continueOnFail
}

func (h *toolHost) Emit(results []node.ItemResult) error {
	h.results = results
	return nil
}
