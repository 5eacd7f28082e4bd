package domain

import "time"

// KBClientConfig is the common per-client configuration block shared by all
// six knowledge-base clients (spec §4.2).
type KBClientConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  int           `mapstructure:"rate_limit"` // requests per second
	RetryCount int           `mapstructure:"retry_count"`
	APIKey     string        `mapstructure:"api_key"`
}

// CacheConfig configures both the Redis response cache and the on-disk
// biomarker TSV cache.
type CacheConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`

	BiomarkerCacheDir string        `mapstructure:"biomarker_cache_dir"`
	BiomarkerMaxAge   time.Duration `mapstructure:"biomarker_max_age"`
}

// DatabaseConfig configures the Postgres audit-log connection.
type DatabaseConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Database    string        `mapstructure:"database"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	MaxConns    int32         `mapstructure:"max_conns"`
	MinConns    int32         `mapstructure:"min_conns"`
	MaxConnLife time.Duration `mapstructure:"max_conn_life"`
	MaxConnIdle time.Duration `mapstructure:"max_conn_idle"`
	SSLMode     string        `mapstructure:"ssl_mode"`
}

// LLMConfig configures the adjudicator's chat-completion endpoint.
type LLMConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Temperature   float64       `mapstructure:"temperature"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxTokens     int           `mapstructure:"max_tokens"`
}

// ServerConfig configures the REST/websocket front door.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig configures logrus output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExternalAPIConfig groups the six KB client configs by name.
type ExternalAPIConfig struct {
	VariantAnnotation KBClientConfig `mapstructure:"variant_annotation"`
	DrugLabel         KBClientConfig `mapstructure:"drug_label"`
	CuratedBiomarker  KBClientConfig `mapstructure:"curated_biomarker"`
	HarmonizedKB      KBClientConfig `mapstructure:"harmonized_kb"`
	CuratedAssertion  KBClientConfig `mapstructure:"curated_assertion"`
	TumorOntology     KBClientConfig `mapstructure:"tumor_ontology"`
}

// Config is the root, Viper-populated configuration object.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	ExternalAPI ExternalAPIConfig `mapstructure:"external_api"`
	Cache       CacheConfig       `mapstructure:"cache"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Validator   ValidatorConfig   `mapstructure:"validator"`
}

// ValidatorConfig configures the bounded-concurrency validation harness.
type ValidatorConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}
