package knowledge

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/advisory-guard/internal/model"
	"github.com/sells-group/advisory-guard/internal/resilience"
)

// Config selects and configures a knowledge-base backend.
type Config struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	Path        string     `yaml:"path" mapstructure:"path"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	BaseURL     string     `yaml:"base_url" mapstructure:"base_url"`
	TimeoutMs   int        `yaml:"timeout_ms" mapstructure:"timeout_ms"`
	RatePerSec  float64    `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Retries     int        `yaml:"retries" mapstructure:"retries"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Drivers supported by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverHTTP     = "http"
)

// Open builds the configured store. The memory driver loads Path when set and
// the built-in library otherwise.
func Open(ctx context.Context, cfg Config) (Store, error) {
	log := zap.L().With(zap.String("driver", cfg.Driver))

	switch cfg.Driver {
	case "", DriverMemory:
		docs, err := loadMemoryDocs(cfg.Path)
		if err != nil {
			return nil, err
		}
		log.Info("knowledge: loaded memory store", zap.Int("documents", len(docs)))
		return NewMemoryStore(docs), nil

	case DriverSQLite:
		if cfg.Path == "" {
			return nil, eris.New("knowledge: sqlite driver requires knowledge.path")
		}
		st, err := NewSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil

	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, eris.New("knowledge: postgres driver requires knowledge.database_url")
		}
		st, err := NewPostgres(ctx, cfg.DatabaseURL, &cfg.Pool)
		if err != nil {
			return nil, err
		}
		return st, nil

	case DriverHTTP:
		st, err := NewRemote(RemoteOptions{
			BaseURL:    cfg.BaseURL,
			Timeout:    time.Duration(cfg.TimeoutMs) * time.Millisecond,
			RatePerSec: cfg.RatePerSec,
			Client:     &http.Client{},
			Retry:      resilience.RetryPolicy{MaxAttempts: cfg.Retries},
		})
		if err != nil {
			return nil, err
		}
		return st, nil

	default:
		return nil, eris.Errorf("knowledge: unknown driver %q", cfg.Driver)
	}
}

func loadMemoryDocs(path string) ([]model.KnowledgeBaseDocument, error) {
	if path == "" {
		return DefaultDocuments()
	}
	return LoadFile(path)
}
