package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config stores environment-driven settings for the server.
type Config struct {
	// ConfigPath is the path to the YAML configuration file.
	ConfigPath string `env:"AGENT_RUNNER_CONFIG" envDefault:"config.yaml"`
	// LogLevel sets the logger level.
	LogLevel string `env:"AGENT_RUNNER_LOG_LEVEL" envDefault:"info"`
	// ShutdownTimeout controls graceful shutdown duration.
	ShutdownTimeout time.Duration `env:"AGENT_RUNNER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// APIKey authenticates calls to the agent API.
	APIKey string `env:"AGENT_RUNNER_API_KEY"`
	// BaseURL is the agent API root.
	BaseURL string `env:"AGENT_RUNNER_BASE_URL" envDefault:"https://api.promptlayer.com"`
}

// Load reads an optional .env file and parses environment variables into Config.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	return env.ParseAs[Config]()
}
