package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/advisory-guard/internal/compliance"
	"github.com/sells-group/advisory-guard/internal/cost"
	"github.com/sells-group/advisory-guard/internal/gate"
	"github.com/sells-group/advisory-guard/internal/knowledge"
	"github.com/sells-group/advisory-guard/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Knowledge   knowledge.Config        `yaml:"knowledge" mapstructure:"knowledge"`
	Validation  ValidationConfig        `yaml:"validation" mapstructure:"validation"`
	Compliance  ComplianceConfig        `yaml:"compliance" mapstructure:"compliance"`
	Gate        gate.Policy             `yaml:"gate" mapstructure:"gate"`
	Providers   []model.ProviderProfile `yaml:"providers" mapstructure:"providers"`
	TokenBudget cost.TokenBudget        `yaml:"token_budget" mapstructure:"token_budget"`
	Anthropic   AnthropicConfig         `yaml:"anthropic" mapstructure:"anthropic"`
	Batch       BatchConfig             `yaml:"batch" mapstructure:"batch"`
	Server      ServerConfig            `yaml:"server" mapstructure:"server"`
	Log         LogConfig               `yaml:"log" mapstructure:"log"`
}

// ValidationConfig tunes provenance and citation checks.
type ValidationConfig struct {
	InventedThreshold float64 `yaml:"invented_threshold" mapstructure:"invented_threshold"`
	MaxExamples       int     `yaml:"max_examples" mapstructure:"max_examples"`
	MinSentenceLength int     `yaml:"min_sentence_length" mapstructure:"min_sentence_length"`
	LookupTimeoutMs   int     `yaml:"lookup_timeout_ms" mapstructure:"lookup_timeout_ms"`
	IgnoreYears       bool    `yaml:"ignore_years" mapstructure:"ignore_years"`
	SchemaChecks      bool    `yaml:"schema_checks" mapstructure:"schema_checks"`
}

// ComplianceConfig points at external rule tables.
type ComplianceConfig struct {
	RulesPath         string   `yaml:"rules_path" mapstructure:"rules_path"`
	DisclaimerPhrases []string `yaml:"disclaimer_phrases" mapstructure:"disclaimer_phrases"`
}

// AnthropicConfig holds Anthropic API settings used for token counting.
type AnthropicConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	CountModel string `yaml:"count_model" mapstructure:"count_model"`
}

// BatchConfig configures parallel validation.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ADVISORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("knowledge.driver", knowledge.DriverMemory)
	v.SetDefault("knowledge.path", "")
	v.SetDefault("knowledge.database_url", "")
	v.SetDefault("knowledge.base_url", "")
	v.SetDefault("knowledge.timeout_ms", 2000)
	v.SetDefault("knowledge.rate_per_sec", 20)
	v.SetDefault("knowledge.retries", 3)
	v.SetDefault("knowledge.pool.max_conns", 10)
	v.SetDefault("knowledge.pool.min_conns", 1)
	v.SetDefault("validation.invented_threshold", 1000)
	v.SetDefault("validation.max_examples", 5)
	v.SetDefault("validation.min_sentence_length", 20)
	v.SetDefault("validation.lookup_timeout_ms", 2000)
	v.SetDefault("validation.ignore_years", false)
	v.SetDefault("validation.schema_checks", false)
	v.SetDefault("compliance.rules_path", "")
	v.SetDefault("compliance.disclaimer_phrases", compliance.DefaultDisclaimerPhrases)
	v.SetDefault("gate.block_on_fail", true)
	v.SetDefault("gate.max_warnings", -1)
	v.SetDefault("gate.min_score", 0)
	v.SetDefault("providers", cost.DefaultProviders())
	v.SetDefault("token_budget.input", cost.DefaultTokenBudget().Input)
	v.SetDefault("token_budget.output", cost.DefaultTokenBudget().Output)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.count_model", "claude-haiku-4-5-20251001")
	v.SetDefault("batch.max_concurrent", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable for mode. All problems are
// reported together.
func (c *Config) Validate(mode string) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch mode {
	case "validate", "serve", "kb-import", "providers":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 64 {
		add("batch.max_concurrent must be between 1 and 64")
	}
	if c.Validation.InventedThreshold < 0 {
		add("validation.invented_threshold must be >= 0")
	}
	if c.Validation.MaxExamples < 1 {
		add("validation.max_examples must be >= 1")
	}
	if c.Validation.MinSentenceLength < 0 {
		add("validation.min_sentence_length must be >= 0")
	}
	if c.Validation.LookupTimeoutMs < 0 {
		add("validation.lookup_timeout_ms must be >= 0")
	}
	if c.Knowledge.Retries < 0 || c.Knowledge.Retries > 10 {
		add("knowledge.retries must be between 0 and 10")
	}
	if c.Gate.MinScore < 0 || c.Gate.MinScore > 1 {
		add("gate.min_score must be between 0 and 1")
	}
	if c.Gate.MaxWarnings < -1 {
		add("gate.max_warnings must be >= -1")
	}

	switch c.Knowledge.Driver {
	case knowledge.DriverMemory, "":
	case knowledge.DriverSQLite:
		if c.Knowledge.Path == "" {
			add("knowledge.path is required for the sqlite driver")
		}
	case knowledge.DriverPostgres:
		if c.Knowledge.DatabaseURL == "" {
			add("knowledge.database_url is required for the postgres driver")
		}
	case knowledge.DriverHTTP:
		if c.Knowledge.BaseURL == "" {
			add("knowledge.base_url is required for the http driver")
		}
	default:
		add("knowledge.driver %q is not one of memory, sqlite, postgres, http", c.Knowledge.Driver)
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			add("server.port must be > 0 and <= 65535")
		}
	case "kb-import":
		if c.Knowledge.Driver != knowledge.DriverSQLite && c.Knowledge.Driver != knowledge.DriverPostgres {
			add("kb import requires knowledge.driver sqlite or postgres")
		}
	case "providers":
		if len(c.Providers) == 0 {
			add("providers must not be empty")
		}
		seen := make(map[string]bool)
		for i, p := range c.Providers {
			if p.ID == "" {
				add("providers[%d].provider_id is required", i)
			} else if seen[p.ID] {
				add("providers[%d].provider_id %q is duplicated", i, p.ID)
			}
			seen[p.ID] = true
			if p.CostPer1KInput < 0 || p.CostPer1KOutput < 0 {
				add("providers[%d] costs must be >= 0", i)
			}
		}
		if c.TokenBudget.Input < 0 || c.TokenBudget.Output < 0 {
			add("token_budget values must be >= 0")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
