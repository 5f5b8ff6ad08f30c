package knowledge

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/advisory-guard/internal/model"
)

//go:embed seed.yaml
var seedYAML []byte

// MemoryStore serves documents from an in-process map. It is immutable after
// construction.
type MemoryStore struct {
	docs map[string]model.KnowledgeBaseDocument
}

// NewMemoryStore indexes docs by id. Later duplicates replace earlier ones.
func NewMemoryStore(docs []model.KnowledgeBaseDocument) *MemoryStore {
	m := &MemoryStore{docs: make(map[string]model.KnowledgeBaseDocument, len(docs))}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

// DefaultDocuments returns the built-in reference library.
func DefaultDocuments() ([]model.KnowledgeBaseDocument, error) {
	return ParseDocuments(seedYAML)
}

// ParseDocuments decodes a YAML or JSON list of documents.
func ParseDocuments(data []byte) ([]model.KnowledgeBaseDocument, error) {
	var docs []model.KnowledgeBaseDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&docs); err != nil {
		return nil, eris.Wrap(err, "knowledge: decode documents")
	}
	for i, d := range docs {
		if strings.TrimSpace(d.ID) == "" {
			return nil, eris.Errorf("knowledge: document %d has no id", i)
		}
	}
	return docs, nil
}

// LoadFile reads documents from a YAML or JSON file.
func LoadFile(path string) ([]model.KnowledgeBaseDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "knowledge: read %s", path)
	}
	return ParseDocuments(data)
}

func (m *MemoryStore) Get(_ context.Context, id string) (*model.KnowledgeBaseDocument, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, notFound(id)
	}
	return &d, nil
}

func (m *MemoryStore) List(_ context.Context) ([]model.KnowledgeBaseDocument, error) {
	out := make([]model.KnowledgeBaseDocument, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	sortByID(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
