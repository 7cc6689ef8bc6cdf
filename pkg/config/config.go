package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:newsdraft.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Schedule ScheduleConfig `yaml:"schedule" json:"schedule" jsonschema:"description=Delivery scheduler configuration"`

	Sources SourcesConfig `yaml:"sources" json:"sources" jsonschema:"description=Source fetching configuration"`

	Ranking RankingConfig `yaml:"ranking" json:"ranking" jsonschema:"description=Candidate ranking configuration"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for draft generation"`

	Delivery DeliveryConfig `yaml:"delivery" json:"delivery" jsonschema:"description=Delivery transports configuration"`

	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Content extraction configuration"`
}

// ScheduleConfig holds delivery scheduler settings
type ScheduleConfig struct {
	TickInterval     time.Duration `yaml:"tick_interval" json:"tick_interval" jsonschema:"default=1m,description=Interval between due-schedule evaluations"`
	MaxWorkers       int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=4,minimum=1,description=Maximum concurrent pipeline runs"`
	RunTimeout       time.Duration `yaml:"run_timeout" json:"run_timeout" jsonschema:"default=2m,description=Wall-clock budget of one pipeline run"`
	MaxDailyAttempts int           `yaml:"max_daily_attempts" json:"max_daily_attempts" jsonschema:"default=5,minimum=1,description=Maximum delivery attempts per owner per local day"`
	NotifyOnGiveUp   bool          `yaml:"notify_on_give_up" json:"notify_on_give_up" jsonschema:"default=false,description=Notify the owner when the daily attempt cap is reached"`
}

// SourcesConfig holds source fetching settings
type SourcesConfig struct {
	Timeout           time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=15s,description=Timeout of a single fetch attempt"`
	Retries           int           `yaml:"retries" json:"retries" jsonschema:"default=2,minimum=0,description=Retries after a failed fetch attempt"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay" jsonschema:"default=1s,description=Initial retry delay doubled on every retry"`
	Budget            time.Duration `yaml:"budget" json:"budget" jsonschema:"default=30s,description=Overall time budget per source including retries"`
	Concurrency       int           `yaml:"concurrency" json:"concurrency" jsonschema:"default=5,minimum=1,description=Sources fetched in parallel within one run"`
	MaxItemsPerSource int           `yaml:"max_items_per_source" json:"max_items_per_source" jsonschema:"default=5,minimum=1,description=Maximum items taken from a single source"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Mozilla/5.0 (compatible; Newsdraft/1.0),description=User agent for source requests"`
	SocialHandleURL   string        `yaml:"social_handle_url" json:"social_handle_url" jsonschema:"default=https://nitter.net/{handle}/rss,description=RSS bridge template for social handles"`
	SocialTagURL      string        `yaml:"social_tag_url" json:"social_tag_url" jsonschema:"default=https://nitter.net/search/rss?f=tweets&q=%23{tag},description=RSS bridge template for social tags"`
	ChannelURL        string        `yaml:"channel_url" json:"channel_url" jsonschema:"default=https://www.youtube.com/feeds/videos.xml?channel_id={channel},description=Feed template for channels"`
}

// RankingConfig holds ranking settings
type RankingConfig struct {
	MaxCandidates    int           `yaml:"max_candidates" json:"max_candidates" jsonschema:"default=6,minimum=1,description=Maximum candidates included in a draft"`
	HalfLife         time.Duration `yaml:"half_life" json:"half_life" jsonschema:"default=24h,description=Item age at which the recency score halves"`
	DiversityPenalty float64       `yaml:"diversity_penalty" json:"diversity_penalty" jsonschema:"default=0.5,minimum=0,description=Penalty for every additional item of the same source"`
	MomentumWeight   float64       `yaml:"momentum_weight" json:"momentum_weight" jsonschema:"default=0.5,minimum=0,description=Weight of the external momentum signal"`
	MaxTrends        int           `yaml:"max_trends" json:"max_trends" jsonschema:"default=5,description=Maximum trend keywords extracted per run"`
	Momentum         struct {
		Endpoint  string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=Momentum service endpoint (empty disables the signal)"`
		Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=5s,description=Momentum request timeout"`
		RateLimit float64       `yaml:"rate_limit" json:"rate_limit" jsonschema:"default=1,description=Momentum requests per second"`
	} `yaml:"momentum" json:"momentum" jsonschema:"description=Optional external momentum signal"`
}

// LLMConfig holds LLM configuration for draft generation
type LLMConfig struct {
	Endpoint       string        `yaml:"endpoint" json:"endpoint" jsonschema:"required,description=OpenAI-compatible API endpoint"`
	APIKey         string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model          string        `yaml:"model" json:"model" jsonschema:"required,description=Model name (e.g. gpt-4o-mini or llama3)"`
	Temperature    float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.7,description=Temperature for response generation"`
	MaxTokens      int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=2000,description=Maximum tokens in response"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=60s,description=Request timeout"`
	SystemPrompt   string        `yaml:"system_prompt" json:"system_prompt" jsonschema:"description=System prompt for the LLM (optional)"`
	Retries        int           `yaml:"retries" json:"retries" jsonschema:"default=3,minimum=1,description=Maximum generation attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay" json:"retry_delay" jsonschema:"default=2s,description=Initial delay between generation attempts"`
	MaxContentSize int           `yaml:"max_content_size" json:"max_content_size" jsonschema:"default=65536,description=Maximum accepted draft size in bytes"`
}

// DeliveryConfig holds transport settings
type DeliveryConfig struct {
	Retries    int           `yaml:"retries" json:"retries" jsonschema:"default=2,minimum=0,description=Retries per transport after a failed delivery"`
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay" jsonschema:"default=2s,description=Initial retry delay per transport"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Timeout of a single delivery"`

	SMTP struct {
		Host     string `yaml:"host" json:"host" jsonschema:"description=SMTP relay host (empty disables email delivery)"`
		Port     int    `yaml:"port" json:"port" jsonschema:"default=587,description=SMTP relay port"`
		Username string `yaml:"username" json:"username" jsonschema:"description=SMTP username"`
		Password string `yaml:"password" json:"password" jsonschema:"description=SMTP password (can use environment variable)"`
		From     string `yaml:"from" json:"from" jsonschema:"description=Sender address"`
		TLS      bool   `yaml:"tls" json:"tls" jsonschema:"default=false,description=Use implicit TLS"`
		StartTLS bool   `yaml:"starttls" json:"starttls" jsonschema:"default=true,description=Use STARTTLS"`
	} `yaml:"smtp" json:"smtp" jsonschema:"description=Mail relay"`

	Telegram struct {
		Token   string `yaml:"token" json:"token" jsonschema:"description=Bot token (empty disables chat delivery)"`
		APIURL  string `yaml:"api_url" json:"api_url" jsonschema:"default=https://api.telegram.org,description=Bot API base URL"`
		Verbose bool   `yaml:"verbose" json:"verbose" jsonschema:"default=false,description=Log chat API responses"`
	} `yaml:"telegram" json:"telegram" jsonschema:"description=Chat bot transport"`
}

// ExtractionConfig holds content extraction settings
type ExtractionConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Extract article text for items without summary"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Extraction timeout per article"`
	MinTextLength int           `yaml:"min_text_length" json:"min_text_length" jsonschema:"default=100,description=Minimum text length to consider valid"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds configuration from YAML data, applies defaults and validates it
func Parse(data []byte) (*Config, error) {
	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	// server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// database
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:newsdraft.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	// schedule
	if cfg.Schedule.TickInterval == 0 {
		cfg.Schedule.TickInterval = time.Minute
	}
	if cfg.Schedule.MaxWorkers == 0 {
		cfg.Schedule.MaxWorkers = 4
	}
	if cfg.Schedule.RunTimeout == 0 {
		cfg.Schedule.RunTimeout = 2 * time.Minute
	}
	if cfg.Schedule.MaxDailyAttempts == 0 {
		cfg.Schedule.MaxDailyAttempts = 5
	}

	// sources
	if cfg.Sources.Timeout == 0 {
		cfg.Sources.Timeout = 15 * time.Second
	}
	if cfg.Sources.Retries == 0 {
		cfg.Sources.Retries = 2
	}
	if cfg.Sources.RetryDelay == 0 {
		cfg.Sources.RetryDelay = time.Second
	}
	if cfg.Sources.Budget == 0 {
		cfg.Sources.Budget = 30 * time.Second
	}
	if cfg.Sources.Concurrency == 0 {
		cfg.Sources.Concurrency = 5
	}
	if cfg.Sources.MaxItemsPerSource == 0 {
		cfg.Sources.MaxItemsPerSource = 5
	}
	if cfg.Sources.UserAgent == "" {
		cfg.Sources.UserAgent = "Mozilla/5.0 (compatible; Newsdraft/1.0)"
	}
	if cfg.Sources.SocialHandleURL == "" {
		cfg.Sources.SocialHandleURL = "https://nitter.net/{handle}/rss"
	}
	if cfg.Sources.SocialTagURL == "" {
		cfg.Sources.SocialTagURL = "https://nitter.net/search/rss?f=tweets&q=%23{tag}"
	}
	if cfg.Sources.ChannelURL == "" {
		cfg.Sources.ChannelURL = "https://www.youtube.com/feeds/videos.xml?channel_id={channel}"
	}

	// ranking
	if cfg.Ranking.MaxCandidates == 0 {
		cfg.Ranking.MaxCandidates = 6
	}
	if cfg.Ranking.HalfLife == 0 {
		cfg.Ranking.HalfLife = 24 * time.Hour
	}
	if cfg.Ranking.DiversityPenalty == 0 {
		cfg.Ranking.DiversityPenalty = 0.5
	}
	if cfg.Ranking.MomentumWeight == 0 {
		cfg.Ranking.MomentumWeight = 0.5
	}
	if cfg.Ranking.MaxTrends == 0 {
		cfg.Ranking.MaxTrends = 5
	}
	if cfg.Ranking.Momentum.Timeout == 0 {
		cfg.Ranking.Momentum.Timeout = 5 * time.Second
	}
	if cfg.Ranking.Momentum.RateLimit == 0 {
		cfg.Ranking.Momentum.RateLimit = 1
	}

	// llm
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2000
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.LLM.Retries == 0 {
		cfg.LLM.Retries = 3
	}
	if cfg.LLM.RetryDelay == 0 {
		cfg.LLM.RetryDelay = 2 * time.Second
	}
	if cfg.LLM.MaxContentSize == 0 {
		cfg.LLM.MaxContentSize = 64 * 1024
	}

	// delivery
	if cfg.Delivery.Retries == 0 {
		cfg.Delivery.Retries = 2
	}
	if cfg.Delivery.RetryDelay == 0 {
		cfg.Delivery.RetryDelay = 2 * time.Second
	}
	if cfg.Delivery.Timeout == 0 {
		cfg.Delivery.Timeout = 30 * time.Second
	}
	if cfg.Delivery.SMTP.Port == 0 {
		cfg.Delivery.SMTP.Port = 587
	}
	if cfg.Delivery.Telegram.APIURL == "" {
		cfg.Delivery.Telegram.APIURL = "https://api.telegram.org"
	}

	// extraction
	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = 10 * time.Second
	}
	if cfg.Extraction.MinTextLength == 0 {
		cfg.Extraction.MinTextLength = 100
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	// validate LLM config
	if cfg.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint is required")
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.Retries < 1 {
		return fmt.Errorf("llm.retries must be at least 1")
	}

	// validate schedule config
	if cfg.Schedule.TickInterval < time.Second {
		return fmt.Errorf("schedule.tick_interval must be at least 1 second")
	}
	if cfg.Schedule.MaxWorkers < 1 {
		return fmt.Errorf("schedule.max_workers must be at least 1")
	}
	if cfg.Schedule.MaxDailyAttempts < 1 {
		return fmt.Errorf("schedule.max_daily_attempts must be at least 1")
	}

	// validate sources config
	if cfg.Sources.Retries < 0 {
		return fmt.Errorf("sources.retries must be non-negative")
	}
	if cfg.Sources.Budget < cfg.Sources.Timeout {
		return fmt.Errorf("sources.budget must not be shorter than sources.timeout")
	}
	if !strings.Contains(cfg.Sources.SocialHandleURL, "{handle}") {
		return fmt.Errorf("sources.social_handle_url must contain {handle}")
	}
	if !strings.Contains(cfg.Sources.SocialTagURL, "{tag}") {
		return fmt.Errorf("sources.social_tag_url must contain {tag}")
	}
	if !strings.Contains(cfg.Sources.ChannelURL, "{channel}") {
		return fmt.Errorf("sources.channel_url must contain {channel}")
	}

	// validate delivery config
	if cfg.Delivery.Retries < 0 {
		return fmt.Errorf("delivery.retries must be non-negative")
	}
	if cfg.Delivery.SMTP.Host != "" && cfg.Delivery.SMTP.From == "" {
		return fmt.Errorf("delivery.smtp.from is required when smtp host is set")
	}

	// validate server config
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// Secrets returns credentials which must never show up in logs
func (c *Config) Secrets() []string {
	var res []string
	for _, s := range []string{c.LLM.APIKey, c.Delivery.SMTP.Password, c.Delivery.Telegram.Token} {
		if s != "" {
			res = append(res, s)
		}
	}
	return res
}
