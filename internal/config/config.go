package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Scrimzay/seagulltown/internal/world"
)

type Config struct {
	Port          string        `yaml:"port"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	SendBuffer    int           `yaml:"send_buffer"` // frames queued per player before it is dropped
	MaxFrameBytes int64         `yaml:"max_frame_bytes"`
	NPCTick       time.Duration `yaml:"npc_tick"`

	// chat lines per second per connection; 0 means unlimited
	ChatRate  float64 `yaml:"chat_rate"`
	ChatBurst int     `yaml:"chat_burst"`

	// empty disables the session journal
	JournalDir string `yaml:"journal_dir"`

	Logging Logging     `yaml:"logging"`
	World   WorldConfig `yaml:"world"`
}

type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

type WorldConfig struct {
	world.GenParams `yaml:",inline"`

	// 0 picks a time-based seed
	Seed int64 `yaml:"seed"`
}

func Default() Config {
	return Config{
		Port:          "8080",
		WriteTimeout:  5 * time.Second,
		SendBuffer:    world.DefaultSendBuffer,
		MaxFrameBytes: 64 * 1024,
		NPCTick:       100 * time.Millisecond,
		ChatRate:      2,
		ChatBurst:     5,
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		World: WorldConfig{GenParams: world.DefaultGenParams()},
	}
}

// Load layers defaults, the YAML file at path (a missing file is fine),
// a .env file in the working directory, and the PORT variable.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("%s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	// hosting platforms hand us the port this way
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("write_timeout must be positive, got %v", c.WriteTimeout))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer))
	}
	if c.MaxFrameBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_frame_bytes must be positive, got %d", c.MaxFrameBytes))
	}
	if c.NPCTick < 0 {
		errs = append(errs, fmt.Errorf("npc_tick must not be negative, got %v", c.NPCTick))
	}
	if c.ChatRate < 0 || (c.ChatRate > 0 && c.ChatBurst <= 0) {
		errs = append(errs, errors.New("chat_rate must be >= 0 and needs a positive chat_burst"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	if err := c.World.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("world: %w", err))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
