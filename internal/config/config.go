package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the odishajobs scraper.
type Config struct {
	Schedule     string        // cron spec; "@every <interval>" when only interval is set
	Interval     time.Duration // zero when schedule is given explicitly
	SourcePause  time.Duration // delay between consecutive sources in a run
	Sources      []SourceConfig
	HTTP         HTTPConfig
	Renderer     RendererConfig
	RateLimit    RateLimitConfig
	Store        StoreConfig
	AI           AIConfig
	Resources    ResourcesConfig
	Enrichment   EnrichmentConfig
	Notification NotificationConfig
}

// Source kinds.
const (
	KindRendered = "rendered"
	KindStatic   = "static"
)

// SourceConfig describes a single job portal to scrape.
type SourceConfig struct {
	Name         string         `yaml:"name"`
	URL          string         `yaml:"url"`
	Kind         string         `yaml:"kind"` // "rendered" or "static"
	Organization string         `yaml:"organization"`
	Enabled      bool           `yaml:"enabled"`
	Selectors    SelectorConfig `yaml:"selectors"`
}

// SelectorConfig overrides the adapter's default CSS selectors.
type SelectorConfig struct {
	Listing string `yaml:"listing"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	PDF     string `yaml:"pdf"`
}

// HTTPConfig controls outbound page fetches.
type HTTPConfig struct {
	UserAgent      string
	ContentTimeout time.Duration
	SourceTimeout  time.Duration
}

// RendererConfig controls the headless browser used by rendered sources.
type RendererConfig struct {
	ExecPath          string
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
}

// RateLimitConfig controls per-host politeness for content fetches.
type RateLimitConfig struct {
	MinDelay time.Duration
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	Path   string `yaml:"path"`   // sqlite database file
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// AIConfig controls the generative model used for extraction and resources.
type AIConfig struct {
	Enabled          bool
	Provider         string // "gemini" or "openai"
	BaseURL          string
	Model            string
	APIKey           string // expanded from env var by Load
	Timeout          time.Duration
	MinTextLength    int
	StructuredOutput bool
}

// Resource modes.
const (
	ResourceModeAI     = "ai"
	ResourceModeStrict = "strict"
)

// ResourcesConfig controls exam-preparation resource resolution.
type ResourcesConfig struct {
	Mode    string
	YouTube YouTubeConfig
}

// YouTubeConfig configures the video index used in strict mode.
type YouTubeConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	MaxResults int    `yaml:"max_results"`
	Region     string `yaml:"region"`
}

// EnrichmentConfig sizes the background enrichment queue.
type EnrichmentConfig struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log", "slack" or "redis"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
	RedisURL   string `yaml:"redis_url"`   // required if type is "redis"
	Channel    string `yaml:"channel"`     // redis channel, optional
}

const (
	defaultInterval     = 6 * time.Hour
	defaultGeminiURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultOpenAIURL    = "https://api.openai.com/v1"
	defaultGeminiModel  = "gemini-1.5-flash"
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultSQLitePath   = "odishajobs.db"
	defaultMinTextLen   = 100
	slackWebhookPrefix  = "https://hooks.slack.com/"
	defaultYouTubeLimit = 10
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Schedule     string             `yaml:"schedule"`
	Interval     string             `yaml:"interval"`
	SourcePause  string             `yaml:"source_pause"`
	Sources      []SourceConfig     `yaml:"sources"`
	HTTP         rawHTTPConfig      `yaml:"http"`
	Renderer     rawRendererConfig  `yaml:"renderer"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Store        StoreConfig        `yaml:"store"`
	AI           rawAIConfig        `yaml:"ai"`
	Resources    rawResourcesConfig `yaml:"resources"`
	Enrichment   rawEnrichment      `yaml:"enrichment"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawHTTPConfig struct {
	UserAgent      string `yaml:"user_agent"`
	ContentTimeout string `yaml:"content_timeout"`
	SourceTimeout  string `yaml:"source_timeout"`
}

type rawRendererConfig struct {
	ExecPath          string `yaml:"exec_path"`
	NavigationTimeout string `yaml:"navigation_timeout"`
	SelectorTimeout   string `yaml:"selector_timeout"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

type rawAIConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Provider         string `yaml:"provider"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	APIKey           string `yaml:"api_key"`
	Timeout          string `yaml:"timeout"`
	MinTextLength    int    `yaml:"min_text_length"`
	StructuredOutput bool   `yaml:"structured_output"`
}

type rawResourcesConfig struct {
	Mode    string        `yaml:"mode"`
	YouTube YouTubeConfig `yaml:"youtube"`
}

type rawEnrichment struct {
	Workers    int    `yaml:"workers"`
	QueueSize  int    `yaml:"queue_size"`
	MaxRetries *int   `yaml:"max_retries"`
	RetryDelay string `yaml:"retry_delay"`
	Timeout    string `yaml:"timeout"`
}

// durations collects duration parse errors so Load can report the first one.
type durations struct {
	err error
}

func (d *durations) parse(field, raw string, def time.Duration) time.Duration {
	if d.err != nil || raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		d.err = fmt.Errorf("parse %s %q: %w", field, raw, err)
		return def
	}
	return v
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes. ${VAR} references are expanded from
// the environment before parsing.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var d durations
	cfg := &Config{
		Schedule:    strings.TrimSpace(raw.Schedule),
		SourcePause: d.parse("source_pause", raw.SourcePause, time.Second),
		Sources:     raw.Sources,
		HTTP: HTTPConfig{
			UserAgent:      raw.HTTP.UserAgent,
			ContentTimeout: d.parse("http.content_timeout", raw.HTTP.ContentTimeout, 15*time.Second),
			SourceTimeout:  d.parse("http.source_timeout", raw.HTTP.SourceTimeout, 30*time.Second),
		},
		Renderer: RendererConfig{
			ExecPath:          raw.Renderer.ExecPath,
			NavigationTimeout: d.parse("renderer.navigation_timeout", raw.Renderer.NavigationTimeout, 30*time.Second),
			SelectorTimeout:   d.parse("renderer.selector_timeout", raw.Renderer.SelectorTimeout, 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			MinDelay: d.parse("rate_limit.min_delay", raw.RateLimit.MinDelay, 2*time.Second),
		},
		Store: raw.Store,
		AI: AIConfig{
			Enabled:          raw.AI.Enabled,
			Provider:         strings.ToLower(raw.AI.Provider),
			BaseURL:          raw.AI.BaseURL,
			Model:            raw.AI.Model,
			APIKey:           raw.AI.APIKey,
			Timeout:          d.parse("ai.timeout", raw.AI.Timeout, 60*time.Second),
			MinTextLength:    raw.AI.MinTextLength,
			StructuredOutput: raw.AI.StructuredOutput,
		},
		Resources: ResourcesConfig{
			Mode:    strings.ToLower(raw.Resources.Mode),
			YouTube: raw.Resources.YouTube,
		},
		Enrichment: EnrichmentConfig{
			Workers:    raw.Enrichment.Workers,
			QueueSize:  raw.Enrichment.QueueSize,
			MaxRetries: 2,
			RetryDelay: d.parse("enrichment.retry_delay", raw.Enrichment.RetryDelay, 5*time.Second),
			Timeout:    d.parse("enrichment.timeout", raw.Enrichment.Timeout, 3*time.Minute),
		},
		Notification: raw.Notification,
	}
	if cfg.Schedule == "" {
		cfg.Interval = d.parse("interval", raw.Interval, defaultInterval)
		cfg.Schedule = "@every " + cfg.Interval.String()
	}
	if d.err != nil {
		return nil, d.err
	}
	if raw.Schedule == "" && cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", cfg.Interval)
	}
	if raw.Enrichment.MaxRetries != nil {
		cfg.Enrichment.MaxRetries = *raw.Enrichment.MaxRetries
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		s.Kind = strings.ToLower(s.Kind)
		if s.Kind == "" {
			s.Kind = KindStatic
		}
		if s.Organization == "" {
			s.Organization = strings.ToUpper(s.Name)
		}
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = defaultSQLitePath
	}

	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	switch cfg.AI.Provider {
	case "gemini":
		if cfg.AI.BaseURL == "" {
			cfg.AI.BaseURL = defaultGeminiURL
		}
		if cfg.AI.Model == "" {
			cfg.AI.Model = defaultGeminiModel
		}
	case "openai":
		if cfg.AI.BaseURL == "" {
			cfg.AI.BaseURL = defaultOpenAIURL
		}
		if cfg.AI.Model == "" {
			cfg.AI.Model = defaultOpenAIModel
		}
	}
	if cfg.AI.MinTextLength <= 0 {
		cfg.AI.MinTextLength = defaultMinTextLen
	}

	if cfg.Resources.Mode == "" {
		cfg.Resources.Mode = ResourceModeAI
	}
	if cfg.Resources.YouTube.MaxResults <= 0 {
		cfg.Resources.YouTube.MaxResults = defaultYouTubeLimit
	}
	if cfg.Resources.YouTube.Region == "" {
		cfg.Resources.YouTube.Region = "IN"
	}

	if cfg.Enrichment.Workers <= 0 {
		cfg.Enrichment.Workers = 2
	}
	if cfg.Enrichment.QueueSize <= 0 {
		cfg.Enrichment.QueueSize = 64
	}

	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
}

// EnabledSources returns the sources with enabled set, in file order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func validate(cfg *Config) error {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	seen := make(map[string]bool)
	enabled := 0
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true

		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("source %q: url must be an absolute http(s) URL, got %q", s.Name, s.URL)
		}
		if s.Kind != KindRendered && s.Kind != KindStatic {
			return fmt.Errorf("source %q: kind must be %q or %q, got %q", s.Name, KindRendered, KindStatic, s.Kind)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	switch cfg.Store.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when store.driver is \"postgres\"")
		}
	default:
		return fmt.Errorf("store.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Store.Driver)
	}

	if cfg.AI.Enabled {
		if cfg.AI.Provider != "gemini" && cfg.AI.Provider != "openai" {
			return fmt.Errorf("ai.provider must be \"gemini\" or \"openai\", got %q", cfg.AI.Provider)
		}
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
	}

	switch cfg.Resources.Mode {
	case ResourceModeAI:
	case ResourceModeStrict:
		if cfg.Resources.YouTube.APIKey == "" {
			return fmt.Errorf("resources.youtube.api_key is required when resources.mode is \"strict\"")
		}
	default:
		return fmt.Errorf("resources.mode must be \"ai\" or \"strict\", got %q", cfg.Resources.Mode)
	}

	if cfg.Enrichment.MaxRetries < 0 {
		return fmt.Errorf("enrichment.max_retries must not be negative, got %d", cfg.Enrichment.MaxRetries)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	case "redis":
		if cfg.Notification.RedisURL == "" {
			return fmt.Errorf("notification.redis_url is required when type is \"redis\"")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\", \"slack\" or \"redis\", got %q", cfg.Notification.Type)
	}

	return nil
}
