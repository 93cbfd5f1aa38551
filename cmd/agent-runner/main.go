package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"

	"github.com/codex-k8s/agent-runner/configs"
	"github.com/codex-k8s/agent-runner/internal/agentapi"
	"github.com/codex-k8s/agent-runner/internal/app"
	"github.com/codex-k8s/agent-runner/internal/audit"
	"github.com/codex-k8s/agent-runner/internal/cache"
	"github.com/codex-k8s/agent-runner/internal/config"
	"github.com/codex-k8s/agent-runner/internal/constants"
	"github.com/codex-k8s/agent-runner/internal/dsl"
	"github.com/codex-k8s/agent-runner/internal/execution"
	"github.com/codex-k8s/agent-runner/internal/log"
	"github.com/codex-k8s/agent-runner/internal/render"
	"github.com/codex-k8s/agent-runner/internal/runtime"
	"github.com/codex-k8s/agent-runner/internal/timeutil"
)

func main() {
	embeddedConfig := flag.String("embedded-config", "", "Use embedded config from configs/ (filename)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(cfg.LogLevel)

	rendered, err := renderConfig(cfg.ConfigPath, *embeddedConfig, logger)
	if err != nil {
		logger.Error("render config failed", "error", err)
		os.Exit(1)
	}

	dslCfg, err := dsl.Load(rendered)
	if err != nil {
		logger.Error("parse config failed", "error", err)
		os.Exit(1)
	}

	builder := newBuilder(cfg, dslCfg, logger)
	if err := builder.Ready(); err != nil {
		logger.Warn("agent api is not usable until AGENT_RUNNER_API_KEY is set", "error", err)
	}

	server, err := builder.Build(dslCfg)
	if err != nil {
		logger.Error("build server failed", "error", err)
		os.Exit(1)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		logger.Warn("shutdown requested", "signal", sig.String())
		cancel()
	}()

	switch dslCfg.Server.Transport {
	case constants.TransportStdio:
		if err := server.Run(baseCtx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("runtime error", "error", err)
			os.Exit(1)
		}
	default:
		if err := runHTTP(baseCtx, cfg, dslCfg, server, builder.Ready, logger); err != nil {
			logger.Error("runtime error", "error", err)
			os.Exit(1)
		}
	}
}

// renderConfig picks the embedded config when requested or when the config
// file does not exist.
func renderConfig(path, embedded string, logger *slog.Logger) ([]byte, error) {
	if embedded == "" {
		if _, err := os.Stat(path); err == nil {
			return render.RenderFile(path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logger.Info("config file not found, using embedded default", "path", path)
		embedded = configs.DefaultName
	}
	raw, err := configs.Load(embedded)
	if err != nil {
		return nil, err
	}
	return render.RenderBytes(embedded, raw)
}

func newBuilder(cfg config.Config, dslCfg *dsl.Config, logger *slog.Logger) runtime.Builder {
	client := agentapi.Client{
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Timeout:  timeutil.ParseDurationOrDefault(dslCfg.Node.RequestTimeout, 30*time.Second),
		PageSize: dslCfg.Node.PageSize,
		MaxBody:  dslCfg.Node.MaxResponseBytes,
	}
	if n := dslCfg.Node.RatePerMinute; n > 0 {
		client.Limiter = rate.NewLimiter(rate.Every(timeutil.PerMinute(n)), n)
	}

	var listing *cache.Cache[[]string]
	if dslCfg.Node.ListingCache.Enabled {
		ttl := timeutil.ParseDurationOrDefault(dslCfg.Node.ListingCache.TTL, 5*time.Minute)
		listing = cache.New[[]string](ttl, dslCfg.Node.ListingCache.MaxEntries)
	}

	return runtime.Builder{
		Logger:                logger,
		Audit:                 audit.New(logger),
		Client:                client,
		Clock:                 execution.SystemClock{},
		PollInterval:          timeutil.ParseDurationOrDefault(dslCfg.Node.PollInterval, execution.DefaultPollInterval),
		DefaultTimeoutMinutes: dslCfg.Node.DefaultTimeoutMinutes,
		Listing:               listing,
	}
}

func runHTTP(ctx context.Context, envCfg config.Config, dslCfg *dsl.Config, server *mcp.Server, ready func() error, logger *slog.Logger) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{
		Stateless: dslCfg.Server.HTTP.Stateless,
	})

	application, err := app.New(ctx, dslCfg.Server, handler, ready, logger, envCfg.ShutdownTimeout)
	if err != nil {
		return err
	}

	return application.Run(ctx)
}
