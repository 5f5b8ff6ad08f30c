package citation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/advisory-guard/internal/knowledge"
	"github.com/sells-group/advisory-guard/internal/model"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, id string) (*model.KnowledgeBaseDocument, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*model.KnowledgeBaseDocument)
	return doc, args.Error(1)
}

func (m *mockStore) List(ctx context.Context) ([]model.KnowledgeBaseDocument, error) {
	args := m.Called(ctx)
	docs, _ := args.Get(0).([]model.KnowledgeBaseDocument)
	return docs, args.Error(1)
}

func (m *mockStore) Close() error { return nil }

func seedStore(t *testing.T) knowledge.Store {
	t.Helper()
	docs, err := knowledge.DefaultDocuments()
	require.NoError(t, err)
	return knowledge.NewMemoryStore(docs)
}

func TestMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "plain text", nil},
		{"single kb", "Rebalance yearly [AL-002].", []string{"AL-002"}},
		{"plan engine", "Gap is $1 [plan engine].", []string{"plan engine"}},
		{"order", "[RT-001] then [plan engine] then [AL-001]", []string{"RT-001", "plan engine", "AL-001"}},
		{"unterminated", "[incomplete", nil},
		{"unterminated then valid", "[broken and [AL-001]", []string{"AL-001"}},
		{"nested", "[[AL-001]]", []string{"AL-001"}},
		{"other characters", "[see: AL-001] [AL_001] [a.b]", nil},
		{"blank", "[   ] []", nil},
		{"trimmed", "[ AL-001 ]", []string{"AL-001"}},
		{"closing first", "] AL-001 [", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got []string
			for _, m := range Markers(tt.text) {
				got = append(got, m.Token)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want) > 0, HasMarker(tt.text))
		})
	}
}

func TestMarker_PlanEngine(t *testing.T) {
	t.Parallel()
	assert.True(t, Marker{Token: "plan engine"}.PlanEngine())
	assert.True(t, Marker{Token: "Plan  Engine"}.PlanEngine())
	assert.True(t, Marker{Token: "PLAN ENGINE"}.PlanEngine())
	assert.False(t, Marker{Token: "plan-engine"}.PlanEngine())
	assert.False(t, Marker{Token: "planengine"}.PlanEngine())
}

func TestStripMarkers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Gap is $2,014,250 .", StripMarkers("Gap is $2,014,250 [plan engine]."))
	assert.Equal(t, "See  and .", StripMarkers("See [AL-001] and [RT-002]."))
	assert.Equal(t, "keep [incomplete", StripMarkers("keep [incomplete"))
	assert.Equal(t, "keep [ ]", StripMarkers("keep [ ]"))
}

func TestResolve(t *testing.T) {
	t.Parallel()
	r := NewResolver(seedStore(t), time.Second)

	got := r.Resolve(context.Background(), "Your gap [plan engine] follows allocation rules [AL-001] but not [XX-999].")
	require.Len(t, got, 3)

	assert.Equal(t, model.CitationPlanEngine, got[0].Kind)
	assert.True(t, got[0].Resolved)
	assert.Nil(t, got[0].Document)

	assert.Equal(t, model.CitationKnowledgeBase, got[1].Kind)
	assert.True(t, got[1].Resolved)
	require.NotNil(t, got[1].Document)
	assert.Equal(t, "AL-001", got[1].Document.ID)

	assert.Equal(t, "XX-999", got[2].ID)
	assert.Equal(t, model.CitationKnowledgeBase, got[2].Kind)
	assert.False(t, got[2].Resolved)
	assert.Equal(t, "citation target missing", got[2].Error)

	assert.Less(t, got[0].Offset, got[1].Offset)
	assert.Less(t, got[1].Offset, got[2].Offset)
}

func TestResolve_Total(t *testing.T) {
	t.Parallel()
	r := NewResolver(seedStore(t), 0)

	inputs := []string{"", "[incomplete", "[", "]", "[[", "[]]", "[été]", "[AL-001", "no markers at all"}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			got := r.Resolve(context.Background(), in)
			assert.NotNil(t, got)
			assert.Empty(t, got, "input %q", in)
		})
	}
}

func TestResolve_MemoizesPerCall(t *testing.T) {
	t.Parallel()
	st := &mockStore{}
	doc := &model.KnowledgeBaseDocument{ID: "AL-001"}
	st.On("Get", mock.Anything, "AL-001").Return(doc, nil).Twice()

	r := NewResolver(st, time.Second)
	got := r.Resolve(context.Background(), "[AL-001] and again [AL-001]")
	require.Len(t, got, 2)
	assert.True(t, got[0].Resolved)
	assert.True(t, got[1].Resolved)

	// A second call looks the document up again.
	r.Resolve(context.Background(), "[AL-001]")
	st.AssertNumberOfCalls(t, "Get", 2)
}

func TestResolve_LookupErrorDegrades(t *testing.T) {
	t.Parallel()
	st := &mockStore{}
	st.On("Get", mock.Anything, "AL-001").Return(nil, context.DeadlineExceeded)

	r := NewResolver(st, 10*time.Millisecond)
	got := r.Resolve(context.Background(), "[AL-001]")
	require.Len(t, got, 1)
	assert.False(t, got[0].Resolved)
	assert.Contains(t, got[0].Error, "lookup failed")
}

func TestResolve_AppliesLookupTimeout(t *testing.T) {
	t.Parallel()
	st := &mockStore{}
	st.On("Get", mock.Anything, "AL-001").Return(nil, nil).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		_, ok := ctx.Deadline()
		assert.True(t, ok)
	})

	r := NewResolver(st, time.Second)
	got := r.Resolve(context.Background(), "[AL-001]")
	require.Len(t, got, 1)
	assert.False(t, got[0].Resolved)
	assert.Equal(t, "citation target missing", got[0].Error)
}

func TestResolve_NilStore(t *testing.T) {
	t.Parallel()
	r := NewResolver(nil, 0)
	got := r.Resolve(context.Background(), "[plan engine] [AL-001]")
	require.Len(t, got, 2)
	assert.True(t, got[0].Resolved)
	assert.False(t, got[1].Resolved)
}
