package dsl

// Config is the top-level YAML configuration.
type Config struct {
	// Server describes the MCP server settings.
	Server ServerConfig `yaml:"server"`
	// Node configures agent execution.
	Node NodeConfig `yaml:"node"`
}

// ServerConfig defines MCP server settings.
type ServerConfig struct {
	// Name is the MCP server name.
	Name string `yaml:"name"`
	// Version is the MCP server version.
	Version string `yaml:"version"`
	// Transport selects the server transport ("http" or "stdio").
	Transport string `yaml:"transport"`
	// ShutdownTimeout overrides graceful shutdown duration.
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	// HTTP configures HTTP transport.
	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// Path is the MCP HTTP endpoint path.
	Path string `yaml:"path"`
	// ReadTimeout limits request read time.
	ReadTimeout string `yaml:"read_timeout"`
	// WriteTimeout limits response write time. Agent runs hold the response
	// open while polling, so keep it above the longest item timeout.
	WriteTimeout string `yaml:"write_timeout"`
	// IdleTimeout controls idle connections.
	IdleTimeout string `yaml:"idle_timeout"`
	// Stateless disables session tracking.
	Stateless bool `yaml:"stateless"`
}

// NodeConfig tunes how agents are executed and listed.
type NodeConfig struct {
	// PollInterval is the delay between result polls.
	PollInterval string `yaml:"poll_interval"`
	// DefaultTimeoutMinutes applies to items without timeout_minutes.
	DefaultTimeoutMinutes int `yaml:"default_timeout_minutes"`
	// RequestTimeout bounds a single HTTP call to the agent API.
	RequestTimeout string `yaml:"request_timeout"`
	// MaxResponseBytes caps an API response body; larger responses fail the call.
	MaxResponseBytes int64 `yaml:"max_response_bytes"`
	// PageSize is the per_page value of the agent listing.
	PageSize int `yaml:"page_size"`
	// RatePerMinute limits outgoing API calls; 0 disables the limit.
	RatePerMinute int `yaml:"rate_per_minute"`
	// ListingCache caches list_agents results.
	ListingCache ListingCacheConfig `yaml:"listing_cache"`
}

// ListingCacheConfig configures the agent listing cache.
type ListingCacheConfig struct {
	// Enabled toggles caching.
	Enabled bool `yaml:"enabled"`
	// TTL controls how long a listing is reused.
	TTL string `yaml:"ttl"`
	// MaxEntries limits the cache size.
	MaxEntries int `yaml:"max_entries"`
}
