package knowledge

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/advisory-guard/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// PostgresStore serves documents from a shared Postgres database.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS kb_documents (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL DEFAULT '',
	tags         JSONB NOT NULL DEFAULT '[]'::jsonb,
	related      JSONB NOT NULL DEFAULT '[]'::jsonb,
	last_updated TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kb_documents_category ON kb_documents(category);
CREATE INDEX IF NOT EXISTS idx_kb_documents_tags ON kb_documents USING GIN (tags);
`

const pgSelectDocument = `SELECT id, title, category, content, tags, related, last_updated FROM kb_documents`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*model.KnowledgeBaseDocument, error) {
	row := s.pool.QueryRow(ctx, pgSelectDocument+` WHERE id = $1`, id)
	doc, err := scanPgDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get document %s", id)
	}
	return doc, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.KnowledgeBaseDocument, error) {
	rows, err := s.pool.Query(ctx, pgSelectDocument+` ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []model.KnowledgeBaseDocument
	for rows.Next() {
		doc, err := scanPgDocument(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		docs = append(docs, *doc)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

// Upsert inserts or replaces docs in one transaction.
func (s *PostgresStore) Upsert(ctx context.Context, docs []model.KnowledgeBaseDocument) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin upsert")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, d := range docs {
		tags, related, err := marshalLists(d)
		if err != nil {
			return 0, err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO kb_documents (id, title, category, content, tags, related, last_updated)
			 VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7)
			 ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				category = EXCLUDED.category,
				content = EXCLUDED.content,
				tags = EXCLUDED.tags,
				related = EXCLUDED.related,
				last_updated = EXCLUDED.last_updated`,
			d.ID, d.Title, d.Category, d.Content, string(tags), string(related), d.LastUpdated.UTC(),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: upsert document %s", d.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit upsert")
	}
	return len(docs), nil
}

func scanPgDocument(row pgx.Row) (*model.KnowledgeBaseDocument, error) {
	var d model.KnowledgeBaseDocument
	var tags, related []byte
	if err := row.Scan(&d.ID, &d.Title, &d.Category, &d.Content, &tags, &related, &d.LastUpdated); err != nil {
		return nil, err
	}
	if err := unmarshalLists(&d, tags, related); err != nil {
		return nil, err
	}
	return &d, nil
}
