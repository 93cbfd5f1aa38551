package constants

// Server transports.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// MCP tool names.
const (
	ToolRunAgent   = "run_agent"
	ToolListAgents = "list_agents"
)
