package dsl

import (
	"fmt"
	"strings"
	"time"

	"github.com/codex-k8s/agent-runner/internal/constants"
)

// Validate applies defaults and verifies required fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Server.Name == "" {
		return fmt.Errorf("server.name is required")
	}
	if cfg.Server.Version == "" {
		return fmt.Errorf("server.version is required")
	}
	cfg.Server.Transport = strings.ToLower(strings.TrimSpace(cfg.Server.Transport))
	switch cfg.Server.Transport {
	case "":
		cfg.Server.Transport = constants.TransportHTTP
	case constants.TransportHTTP, constants.TransportStdio:
	default:
		return fmt.Errorf("server.transport must be http or stdio")
	}
	if strings.TrimSpace(cfg.Server.HTTP.Listen) == "" {
		cfg.Server.HTTP.Listen = ":8080"
	}
	if cfg.Server.HTTP.Path == "" {
		cfg.Server.HTTP.Path = "/mcp"
	}
	if !strings.HasPrefix(cfg.Server.HTTP.Path, "/") {
		return fmt.Errorf("server.http.path must start with /")
	}
	for name, value := range map[string]string{
		"server.shutdown_timeout":   cfg.Server.ShutdownTimeout,
		"server.http.read_timeout":  cfg.Server.HTTP.ReadTimeout,
		"server.http.write_timeout": cfg.Server.HTTP.WriteTimeout,
		"server.http.idle_timeout":  cfg.Server.HTTP.IdleTimeout,
	} {
		if err := checkDuration(name, value); err != nil {
			return err
		}
	}

	return validateNode(&cfg.Node)
}

func validateNode(node *NodeConfig) error {
	if node.PollInterval == "" {
		node.PollInterval = "5s"
	}
	if err := checkPositiveDuration("node.poll_interval", node.PollInterval); err != nil {
		return err
	}
	if node.RequestTimeout == "" {
		node.RequestTimeout = "30s"
	}
	if err := checkPositiveDuration("node.request_timeout", node.RequestTimeout); err != nil {
		return err
	}
	if node.DefaultTimeoutMinutes == 0 {
		node.DefaultTimeoutMinutes = 10
	}
	if node.DefaultTimeoutMinutes < 1 {
		return fmt.Errorf("node.default_timeout_minutes must be >= 1")
	}
	if node.MaxResponseBytes == 0 {
		node.MaxResponseBytes = 4 << 20
	}
	if node.MaxResponseBytes < 0 {
		return fmt.Errorf("node.max_response_bytes must be >= 0")
	}
	if node.PageSize == 0 {
		node.PageSize = 100
	}
	if node.PageSize < 1 {
		return fmt.Errorf("node.page_size must be >= 1")
	}
	if node.RatePerMinute < 0 {
		return fmt.Errorf("node.rate_per_minute must be >= 0")
	}
	if node.ListingCache.Enabled {
		if node.ListingCache.TTL == "" {
			node.ListingCache.TTL = "5m"
		}
		if err := checkPositiveDuration("node.listing_cache.ttl", node.ListingCache.TTL); err != nil {
			return err
		}
		if node.ListingCache.MaxEntries == 0 {
			node.ListingCache.MaxEntries = 16
		}
		if node.ListingCache.MaxEntries < 0 {
			return fmt.Errorf("node.listing_cache.max_entries must be >= 0")
		}
	}
	return nil
}

func checkDuration(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("%s is invalid: %w", name, err)
	}
	return nil
}

func checkPositiveDuration(name, value string) error {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", name, err)
	}
	if parsed <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}
