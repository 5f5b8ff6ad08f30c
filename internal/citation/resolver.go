// Package citation parses bracketed citation markers out of advisory text and
// resolves knowledge-base markers against a document store.
package citation

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/advisory-guard/internal/knowledge"
	"github.com/sells-group/advisory-guard/internal/model"
)

// PlanEngineToken is the reserved marker text for claims computed by the plan
// engine.
const PlanEngineToken = "plan engine"

// Marker is one syntactically valid citation marker.
type Marker struct {
	Token  string
	Offset int
}

// PlanEngine reports whether the marker cites the plan engine.
func (m Marker) PlanEngine() bool {
	return strings.EqualFold(strings.Join(strings.Fields(m.Token), " "), PlanEngineToken)
}

// A marker is "[" then letters, digits, spaces or hyphens then "]". The class
// excludes brackets, so "[[AL-001]" only matches the inner marker and an
// unterminated "[" never matches.
var markerRe = regexp.MustCompile(`\[([A-Za-z0-9 \-]+)\]`)

// Markers returns every marker in text, left to right.
func Markers(text string) []Marker {
	locs := markerRe.FindAllStringSubmatchIndex(text, -1)
	out := make([]Marker, 0, len(locs))
	for _, loc := range locs {
		token := strings.TrimSpace(text[loc[2]:loc[3]])
		if token == "" {
			continue
		}
		out = append(out, Marker{Token: token, Offset: loc[0]})
	}
	return out
}

// HasMarker reports whether text contains at least one marker.
func HasMarker(text string) bool {
	return len(Markers(text)) > 0
}

// StripMarkers removes every marker from text.
func StripMarkers(text string) string {
	return markerRe.ReplaceAllStringFunc(text, func(m string) string {
		if strings.TrimSpace(m[1:len(m)-1]) == "" {
			return m
		}
		return ""
	})
}

// Resolver turns marker text into citations.
type Resolver struct {
	store   knowledge.Store
	timeout time.Duration
}

// NewResolver creates a Resolver. A non-positive timeout disables the
// per-lookup bound.
func NewResolver(store knowledge.Store, lookupTimeout time.Duration) *Resolver {
	return &Resolver{store: store, timeout: lookupTimeout}
}

type lookup struct {
	doc *model.KnowledgeBaseDocument
	err string
}

// Resolve returns one citation per marker occurrence in text order. It never
// fails: lookups that error or time out produce an unresolved citation.
func (r *Resolver) Resolve(ctx context.Context, text string) []model.Citation {
	markers := Markers(text)
	out := make([]model.Citation, 0, len(markers))
	seen := make(map[string]lookup)

	for _, m := range markers {
		if m.PlanEngine() {
			out = append(out, model.Citation{
				ID:       PlanEngineToken,
				Kind:     model.CitationPlanEngine,
				Offset:   m.Offset,
				Resolved: true,
			})
			continue
		}

		res, ok := seen[m.Token]
		if !ok {
			res = r.lookup(ctx, m.Token)
			seen[m.Token] = res
		}
		out = append(out, model.Citation{
			ID:       m.Token,
			Kind:     model.CitationKnowledgeBase,
			Offset:   m.Offset,
			Resolved: res.doc != nil,
			Document: res.doc,
			Error:    res.err,
		})
	}
	return out
}

func (r *Resolver) lookup(ctx context.Context, id string) lookup {
	if r.store == nil {
		return lookup{err: "no knowledge base configured"}
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	doc, err := r.store.Get(ctx, id)
	switch {
	case err == nil && doc != nil:
		return lookup{doc: doc}
	case err == nil:
		return lookup{err: "citation target missing"}
	case knowledge.IsNotFound(err):
		return lookup{err: "citation target missing"}
	default:
		zap.L().Warn("citation: lookup failed", zap.String("id", id), zap.Error(err))
		return lookup{err: "lookup failed: " + err.Error()}
	}
}
