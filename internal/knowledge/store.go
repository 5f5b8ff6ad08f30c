// Package knowledge provides the read-only knowledge-base document store that
// citation markers resolve against.
package knowledge

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/advisory-guard/internal/model"
)

// ErrDocumentNotFound is returned by Get when no document has the id.
var ErrDocumentNotFound = eris.New("knowledge: document not found")

// Store is a read-only knowledge-base document store. Implementations must be
// safe for concurrent reads.
type Store interface {
	Get(ctx context.Context, id string) (*model.KnowledgeBaseDocument, error)
	List(ctx context.Context) ([]model.KnowledgeBaseDocument, error)
	Close() error
}

// Writer is implemented by stores that can be seeded with documents.
type Writer interface {
	Migrate(ctx context.Context) error
	Upsert(ctx context.Context, docs []model.KnowledgeBaseDocument) (int, error)
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

func notFound(id string) error {
	return eris.Wrapf(ErrDocumentNotFound, "id %s", id)
}

// Related returns the documents related to id, most similar first. Related
// ids that no longer resolve are skipped. A limit of 0 returns all.
func Related(ctx context.Context, s Store, id string, limit int) ([]model.RankedDocument, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	refs := make([]model.RelatedRef, 0, len(doc.Related))
	for _, r := range doc.Related {
		if r.ID == "" || r.ID == doc.ID {
			continue
		}
		r.Similarity = clamp01(r.Similarity)
		refs = append(refs, r)
	}
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Similarity != refs[j].Similarity {
			return refs[i].Similarity > refs[j].Similarity
		}
		return refs[i].ID < refs[j].ID
	})

	out := make([]model.RankedDocument, 0, len(refs))
	for _, r := range refs {
		if limit > 0 && len(out) >= limit {
			break
		}
		target, err := s.Get(ctx, r.ID)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, eris.Wrapf(err, "knowledge: related %s", r.ID)
		}
		out = append(out, model.RankedDocument{Document: *target, Similarity: r.Similarity})
	}
	return out, nil
}

// FilterByTag returns the documents carrying tag (case-insensitive).
func FilterByTag(docs []model.KnowledgeBaseDocument, tag string) []model.KnowledgeBaseDocument {
	var out []model.KnowledgeBaseDocument
	for _, d := range docs {
		for _, t := range d.Tags {
			if strings.EqualFold(t, tag) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// FilterByCategory returns the documents in category (case-insensitive).
func FilterByCategory(docs []model.KnowledgeBaseDocument, category string) []model.KnowledgeBaseDocument {
	var out []model.KnowledgeBaseDocument
	for _, d := range docs {
		if strings.EqualFold(d.Category, category) {
			out = append(out, d)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func sortByID(docs []model.KnowledgeBaseDocument) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}
