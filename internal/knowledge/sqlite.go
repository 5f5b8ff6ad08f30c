package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/advisory-guard/internal/model"
)

// SQLiteStore serves documents from a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS kb_documents (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL DEFAULT '',
	tags         TEXT NOT NULL DEFAULT '[]',
	related      TEXT NOT NULL DEFAULT '[]',
	last_updated DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kb_documents_category ON kb_documents(category);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.KnowledgeBaseDocument, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, category, content, tags, related, last_updated FROM kb_documents WHERE id = ?`,
		id,
	)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get document %s", id)
	}
	return doc, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.KnowledgeBaseDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, category, content, tags, related, last_updated FROM kb_documents ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var docs []model.KnowledgeBaseDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		docs = append(docs, *doc)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

// Upsert inserts or replaces docs in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, docs []model.KnowledgeBaseDocument) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, d := range docs {
		tags, related, err := marshalLists(d)
		if err != nil {
			return 0, err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO kb_documents (id, title, category, content, tags, related, last_updated)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				category = excluded.category,
				content = excluded.content,
				tags = excluded.tags,
				related = excluded.related,
				last_updated = excluded.last_updated`,
			d.ID, d.Title, d.Category, d.Content, string(tags), string(related), d.LastUpdated.UTC(),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert document %s", d.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return len(docs), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*model.KnowledgeBaseDocument, error) {
	var d model.KnowledgeBaseDocument
	var tags, related string
	if err := row.Scan(&d.ID, &d.Title, &d.Category, &d.Content, &tags, &related, &d.LastUpdated); err != nil {
		return nil, err
	}
	if err := unmarshalLists(&d, []byte(tags), []byte(related)); err != nil {
		return nil, err
	}
	return &d, nil
}

func marshalLists(d model.KnowledgeBaseDocument) ([]byte, []byte, error) {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	related := d.Related
	if related == nil {
		related = []model.RelatedRef{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "knowledge: marshal tags %s", d.ID)
	}
	relatedJSON, err := json.Marshal(related)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "knowledge: marshal related %s", d.ID)
	}
	return tagsJSON, relatedJSON, nil
}

func unmarshalLists(d *model.KnowledgeBaseDocument, tags, related []byte) error {
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return eris.Wrapf(err, "knowledge: unmarshal tags %s", d.ID)
		}
	}
	if len(related) > 0 {
		if err := json.Unmarshal(related, &d.Related); err != nil {
			return eris.Wrapf(err, "knowledge: unmarshal related %s", d.ID)
		}
	}
	return nil
}
