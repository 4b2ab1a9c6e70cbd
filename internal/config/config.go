package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultPollInterval = 60 * time.Second
	DefaultDrainTimeout = 10 * time.Second
	DefaultHighBound    = 90
	DefaultLowBound     = 32
	DefaultHysteresis   = 2
	DefaultMaxAttempts  = 5
	DefaultDebounce     = 15 * time.Minute
	DefaultStateTTL     = 24 * time.Hour
	DefaultListenAddr   = ":8080"
)

// Default probe coordinates (Ridgewood, NY — the original deployment site).
const (
	DefaultLatitude  = 40.7036
	DefaultLongitude = -73.8961
)

// Config is the top-level tempwatch configuration.
// Secrets are never stored here; fields ending in Env name the environment
// variable that holds the actual value, injected at container run time.
type Config struct {
	Monitor    MonitorConfig   `yaml:"monitor"`
	Probe      ProbeConfig     `yaml:"probe"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Notify     NotifyConfig    `yaml:"notify"`
	State      StateConfig     `yaml:"state"`
	Stream     StreamConfig    `yaml:"stream"`
	Status     StatusConfig    `yaml:"status"`
}

// MonitorConfig holds poll loop settings.
type MonitorConfig struct {
	// PollInterval controls how often the probe is read.
	PollInterval time.Duration `yaml:"poll_interval"`

	// DrainTimeout bounds how long an in-flight notification may take to
	// finish once shutdown has been requested.
	DrainTimeout time.Duration `yaml:"drain_timeout"`
}

// ProbeConfig describes the temperature source.
type ProbeConfig struct {
	// Type is the probe implementation: openweather | promexp | synthetic.
	Type string `yaml:"type"`

	// Endpoint is the base URL (openweather) or metrics URL (promexp).
	Endpoint string `yaml:"endpoint"`

	// KeyEnv names the environment variable holding the API key (openweather).
	KeyEnv string `yaml:"key_env"`

	// Zip optionally geocodes the probe location at startup (openweather).
	Zip string `yaml:"zip"`

	// Units is the measurement system requested from openweather:
	// imperial | metric.
	Units string `yaml:"units"`

	// Metric is the gauge name extracted from the exposition (promexp).
	Metric string `yaml:"metric"`

	// Auth configures how the probe authenticates to its endpoint.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// Key returns the probe API key resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (p ProbeConfig) Key() string {
	if p.KeyEnv == "" {
		return ""
	}
	return os.Getenv(p.KeyEnv)
}

// AuthConfig specifies the authentication mode for the probe endpoint.
type AuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mTLS fields — used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// API key fields — used when Mode == "apikey".
	// Header is the HTTP header name to send the key in.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// Bearer token fields — used when Mode == "bearer".
	TokenEnv string `yaml:"token_env"`

	// Basic auth fields — used when Mode == "basic".
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// TLSConfig holds probe TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// ThresholdConfig holds the alert bounds, in the probe's unit.
type ThresholdConfig struct {
	// Low is the lower bound; readings at or below it raise an alert.
	Low float64 `yaml:"low"`

	// High is the upper bound; readings at or above it raise an alert.
	High float64 `yaml:"high"`

	// Hysteresis is the dead-band width an alert must recross before clearing.
	Hysteresis float64 `yaml:"hysteresis"`
}

// NotifyConfig holds notification delivery settings.
type NotifyConfig struct {
	// MaxAttempts bounds delivery retries per webhook target.
	MaxAttempts int `yaml:"max_attempts"`

	// Debounce suppresses a transition identical to one delivered within
	// this window. The -f flag bypasses it.
	Debounce time.Duration `yaml:"debounce"`

	// Webhooks is the list of delivery targets.
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// StateConfig configures where delivered-transition state is kept for
// debounce bookkeeping.
type StateConfig struct {
	// Backend selects the implementation: memory | redis.
	Backend string `yaml:"backend"`

	// Redis fields — used when Backend == "redis".
	RedisAddr        string `yaml:"redis_addr"`
	RedisDB          int    `yaml:"redis_db"`
	RedisPasswordEnv string `yaml:"redis_password_env"`

	// TTL is how long delivery records are kept.
	TTL time.Duration `yaml:"ttl"`
}

// RedisPassword returns the Redis password resolved from the environment.
func (s StateConfig) RedisPassword() string {
	if s.RedisPasswordEnv == "" {
		return ""
	}
	return os.Getenv(s.RedisPasswordEnv)
}

// StreamConfig configures the optional Kafka reading stream.
// The stream is disabled when Brokers is empty.
type StreamConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// StatusConfig configures the status HTTP server.
// Set Listen to "" to disable it.
type StatusConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults, then environment
// overrides are applied and the result validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Monitor: MonitorConfig{
			PollInterval: DefaultPollInterval,
			DrainTimeout: DefaultDrainTimeout,
		},
		Probe: ProbeConfig{
			Type:   "openweather",
			KeyEnv: "OPENWEATHERMAP_KEY",
			Units:  "imperial",
			Metric: "node_hwmon_temp_celsius",
		},
		Thresholds: ThresholdConfig{
			Low:        DefaultLowBound,
			High:       DefaultHighBound,
			Hysteresis: DefaultHysteresis,
		},
		Notify: NotifyConfig{
			MaxAttempts: DefaultMaxAttempts,
			Debounce:    DefaultDebounce,
		},
		State: StateConfig{
			Backend: "memory",
			TTL:     DefaultStateTTL,
		},
		Status: StatusConfig{
			Listen: DefaultListenAddr,
		},
	}
}

// applyEnv overlays environment variables the container contract injects
// directly (legacy variables from the original deployment).
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENWEATHERMAP_URL"); v != "" && cfg.Probe.Endpoint == "" {
		cfg.Probe.Endpoint = v
	}
	if v := os.Getenv("THRESHOLD_TEMP"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Thresholds.High = f
		}
	}
}

// Validate checks required fields and structural constraints.
func Validate(cfg *Config) error {
	if cfg.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	if cfg.Monitor.DrainTimeout <= 0 {
		return fmt.Errorf("monitor.drain_timeout must be positive")
	}

	switch cfg.Probe.Type {
	case "openweather", "promexp", "synthetic":
	default:
		return fmt.Errorf("probe: unknown type %q", cfg.Probe.Type)
	}
	switch cfg.Probe.Auth.Mode {
	case "mtls", "apikey", "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("probe: unknown auth mode %q", cfg.Probe.Auth.Mode)
	}
	if cfg.Probe.Type == "openweather" {
		switch cfg.Probe.Units {
		case "imperial", "metric":
		default:
			return fmt.Errorf("probe: unknown units %q", cfg.Probe.Units)
		}
	}

	if cfg.Thresholds.Hysteresis < 0 {
		return fmt.Errorf("thresholds.hysteresis must be non-negative")
	}
	if cfg.Thresholds.Low >= cfg.Thresholds.High {
		return fmt.Errorf("thresholds.low (%v) must be below thresholds.high (%v)",
			cfg.Thresholds.Low, cfg.Thresholds.High)
	}

	if cfg.Notify.MaxAttempts < 1 {
		return fmt.Errorf("notify.max_attempts must be at least 1")
	}
	if cfg.Notify.Debounce < 0 {
		return fmt.Errorf("notify.debounce must be non-negative")
	}
	for i, wh := range cfg.Notify.Webhooks {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("notify.webhooks[%d]: unknown type %q", i, wh.Type)
		}
		if wh.URLEnv == "" {
			return fmt.Errorf("notify.webhooks[%d]: url_env is required", i)
		}
	}

	switch cfg.State.Backend {
	case "memory":
	case "redis":
		if cfg.State.RedisAddr == "" {
			return fmt.Errorf("state: redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("state: unknown backend %q", cfg.State.Backend)
	}

	if len(cfg.Stream.Brokers) > 0 && cfg.Stream.Topic == "" {
		return fmt.Errorf("stream: topic is required when brokers are set")
	}

	return nil
}
