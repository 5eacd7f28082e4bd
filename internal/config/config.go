// Package config loads the assessor's configuration via Viper: defaults set
// in code, overridden by ./config.yaml or /etc/variant-actionability/, then
// by VARIANT_ACTIONABILITY_* environment variables. Grounded on the
// teacher's internal/config/config.go.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/variant-actionability/assessor/internal/domain"
)

// Manager loads and validates the application configuration.
type Manager struct {
	config *domain.Config
}

// NewManager builds a Manager, loading configuration immediately.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/variant-actionability/")

	viper.SetEnvPrefix("VARIANT_ACTIONABILITY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &domain.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = cfg
	return nil
}

func (m *Manager) setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "variant_actionability")
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_conns", 10)
	viper.SetDefault("database.min_conns", 2)
	viper.SetDefault("database.max_conn_life", "1h")
	viper.SetDefault("database.max_conn_idle", "30m")

	for _, kb := range []string{
		"variant_annotation", "drug_label", "curated_biomarker",
		"harmonized_kb", "curated_assertion", "tumor_ontology",
	} {
		viper.SetDefault("external_api."+kb+".timeout", "30s")
		viper.SetDefault("external_api."+kb+".rate_limit", 5)
		viper.SetDefault("external_api."+kb+".retry_count", 3)
	}
	viper.SetDefault("external_api.variant_annotation.base_url", "https://myvariant.info/v1")
	viper.SetDefault("external_api.drug_label.base_url", "https://api.fda.gov/drug")
	viper.SetDefault("external_api.curated_biomarker.base_url", "https://www.cancergenomeinterpreter.org/data/biomarkers/cgi_biomarkers_latest.tsv")
	viper.SetDefault("external_api.harmonized_kb.base_url", "https://search.cancervariants.org/api/v1")
	viper.SetDefault("external_api.curated_assertion.base_url", "https://civicdb.org/api/graphql")
	viper.SetDefault("external_api.tumor_ontology.base_url", "https://oncotree.mskcc.org/api")

	viper.SetDefault("cache.redis_url", "redis://localhost:6379")
	viper.SetDefault("cache.default_ttl", "24h")
	viper.SetDefault("cache.max_retries", 3)
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.pool_timeout", "4s")
	viper.SetDefault("cache.biomarker_max_age", "168h") // 7 days

	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("llm.max_tokens", 2000)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("validator.max_concurrent", 3)
}

// GetConfig returns the fully populated configuration.
func (m *Manager) GetConfig() *domain.Config { return m.config }

// Reload re-reads configuration from all sources.
func (m *Manager) Reload() error { return m.loadConfig() }

// Validate performs basic sanity checks on the loaded configuration.
func (m *Manager) Validate() error {
	cfg := m.config
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}
	if cfg.Validator.MaxConcurrent <= 0 {
		return fmt.Errorf("validator.max_concurrent must be positive")
	}
	return nil
}
