package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/classifiers"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	"github.com/Chative-core-poc-v1/userdesk/internal/core"
	"github.com/Chative-core-poc-v1/userdesk/internal/index"
	pkgpostgres "github.com/Chative-core-poc-v1/userdesk/pkg/postgres"
	pkgredis "github.com/Chative-core-poc-v1/userdesk/pkg/redis"
)

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Record store
	StoreURL string `envconfig:"STORE_URL" required:"true"`
	Redis    pkgredis.Config
	Postgres pkgpostgres.Config

	// Agent configs
	Oracle   model.OracleConfig
	Index    model.IndexConfig
	Pipeline model.PipelineConfig

	SchemaConfig string `envconfig:"SCHEMA_CONFIG" default:"config.json"`
	MirrorURL    string `envconfig:"MIRROR_URL" default:"data/user.json"`
	MetricsAddr  string `envconfig:"METRICS_ADDR"`
}

// loadConfig reads the dotenv file when present, then the environment.
func loadConfig(path string) (AppConfig, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return AppConfig{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("process environment config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c AppConfig) validate() error {
	switch strings.ToLower(c.Index.Backend) {
	case index.BackendText, index.BackendEmbedding:
	default:
		return fmt.Errorf("INDEX_BACKEND must be %q or %q, got %q", index.BackendText, index.BackendEmbedding, c.Index.Backend)
	}
	switch strings.ToLower(c.Index.Source) {
	case "store", "mirror":
	default:
		return fmt.Errorf("INDEX_SOURCE must be \"store\" or \"mirror\", got %q", c.Index.Source)
	}
	if strings.EqualFold(c.Index.Source, "mirror") && c.MirrorURL == "" {
		return fmt.Errorf("INDEX_SOURCE=mirror needs MIRROR_URL")
	}
	switch strings.ToLower(c.Pipeline.Classifier) {
	case classifiers.StrategyLLM, classifiers.StrategyKeyword:
	default:
		return fmt.Errorf("PIPELINE_CLASSIFIER must be %q or %q, got %q", classifiers.StrategyLLM, classifiers.StrategyKeyword, c.Pipeline.Classifier)
	}
	return nil
}

// needsGenAI reports whether any component talks to Gemini.
func (c AppConfig) needsGenAI(withPipeline bool) bool {
	return withPipeline || strings.EqualFold(c.Index.Backend, index.BackendEmbedding)
}
