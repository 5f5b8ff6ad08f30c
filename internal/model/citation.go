package model

import "time"

// CitationKind identifies where a cited claim comes from.
type CitationKind string

const (
	CitationPlanEngine    CitationKind = "plan_engine"
	CitationKnowledgeBase CitationKind = "knowledge_base"
)

// Citation is a resolved citation marker. Citations are recomputed from the
// marker text on every resolution and never stored.
type Citation struct {
	ID       string                 `json:"id"`
	Kind     CitationKind           `json:"kind"`
	Offset   int                    `json:"offset"`
	Resolved bool                   `json:"resolved"`
	Document *KnowledgeBaseDocument `json:"document,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// RelatedRef points at another knowledge-base document with a similarity
// score in [0,1].
type RelatedRef struct {
	ID         string  `json:"id" yaml:"id"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// KnowledgeBaseDocument is a static reference document cited by advisory
// content.
type KnowledgeBaseDocument struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Category    string       `json:"category" yaml:"category"`
	Content     string       `json:"content" yaml:"content"`
	Tags        []string     `json:"tags,omitempty" yaml:"tags"`
	LastUpdated time.Time    `json:"last_updated" yaml:"last_updated"`
	Related     []RelatedRef `json:"related,omitempty" yaml:"related"`
}

// RankedDocument is a related document with its similarity to the source.
type RankedDocument struct {
	Document   KnowledgeBaseDocument `json:"document"`
	Similarity float64               `json:"similarity"`
}
