// Package config loads the dispatcher's settings.
// 설정 우선순위: 기본값 < YAML 파일 < .env 파일 < 프로세스 환경 변수.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-elevator-dispatcher/pkg/elevator"
)

// AppConfig holds process-wide settings.
type AppConfig struct {
	Port          string          `yaml:"port"`
	LogLevel      string          `yaml:"log_level"`
	LogFormat     string          `yaml:"log_format"` // text | json
	TickInterval  time.Duration   `yaml:"tick_interval"`
	PollInterval  time.Duration   `yaml:"poll_interval"`
	ArrivalDelay  time.Duration   `yaml:"arrival_delay"`
	ArrivalScope  string          `yaml:"arrival_scope"` // fleet | assigned
	EventBuffer   int             `yaml:"event_buffer"`
	AllowedOrigin string          `yaml:"allowed_origin"`
	Demo          bool            `yaml:"demo"`
	Elevators     []elevator.Spec `yaml:"elevators"`
}

// Default returns the settings of the modeled system.
func Default() *AppConfig {
	return &AppConfig{
		Port:          "8000",
		LogLevel:      "info",
		LogFormat:     "text",
		TickInterval:  elevator.DefaultTickInterval,
		PollInterval:  elevator.DefaultPollInterval,
		ArrivalDelay:  elevator.DefaultArrivalDelay,
		ArrivalScope:  string(elevator.ScopeFleet),
		EventBuffer:   256,
		AllowedOrigin: "http://localhost:3000",
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, the optional dotenv file at envPath, and the process environment.
// Empty paths are skipped; a missing envPath file is not an error.
func Load(path, envPath string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	env := map[string]string{}
	if envPath != "" {
		fileEnv, err := godotenv.Read(envPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read env file %s: %w", envPath, err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Port = v
	}
	if v, ok := lookup("ELEVATOR_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup("ELEVATOR_LOG_FORMAT"); ok {
		c.LogFormat = v
	}
	if v, ok := lookup("ELEVATOR_ARRIVAL_SCOPE"); ok {
		c.ArrivalScope = v
	}
	if v, ok := lookup("ELEVATOR_ALLOWED_ORIGIN"); ok {
		c.AllowedOrigin = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ELEVATOR_TICK_INTERVAL", &c.TickInterval},
		{"ELEVATOR_POLL_INTERVAL", &c.PollInterval},
		{"ELEVATOR_ARRIVAL_DELAY", &c.ArrivalDelay},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v, ok := lookup("ELEVATOR_EVENT_BUFFER"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ELEVATOR_EVENT_BUFFER: %w", err)
		}
		c.EventBuffer = n
	}
	if v, ok := lookup("ELEVATOR_DEMO"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ELEVATOR_DEMO: %w", err)
		}
		c.Demo = b
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *AppConfig) Validate() error {
	if c.TickInterval <= 0 || c.PollInterval <= 0 || c.ArrivalDelay <= 0 {
		return fmt.Errorf("invalid config: intervals must be positive (tick %s, poll %s, arrival %s)",
			c.TickInterval, c.PollInterval, c.ArrivalDelay)
	}
	if c.EventBuffer <= 0 {
		return fmt.Errorf("invalid config: event_buffer must be positive, got %d", c.EventBuffer)
	}
	if _, err := elevator.ParseArrivalScope(c.ArrivalScope); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid config: unknown log_format %q", c.LogFormat)
	}
	return nil
}

// SlogLevel parses LogLevel (debug, info, warn, error).
func (c *AppConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// NewLogger builds the process logger described by LogLevel and LogFormat.
func (c *AppConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := c.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(c.LogFormat) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// EngineOptions maps the timing settings onto the controller.
func (c *AppConfig) EngineOptions() elevator.Options {
	scope, _ := elevator.ParseArrivalScope(c.ArrivalScope)
	return elevator.Options{
		TickInterval: c.TickInterval,
		PollInterval: c.PollInterval,
		ArrivalDelay: c.ArrivalDelay,
		ArrivalScope: scope,
	}
}

// BootstrapFleet returns the fleet to configure at startup: the configured
// elevators, else the demo fleet when Demo is set, else none.
func (c *AppConfig) BootstrapFleet() []elevator.Spec {
	if len(c.Elevators) > 0 {
		return c.Elevators
	}
	if !c.Demo {
		return nil
	}
	// Three cars parked at floor 0 serving floors 0-2.
	fleet := make([]elevator.Spec, 3)
	for i := range fleet {
		fleet[i] = elevator.Spec{ID: strconv.Itoa(i), CurrentFloor: 0, FloorsServiced: []int{0, 1, 2}}
	}
	return fleet
}
