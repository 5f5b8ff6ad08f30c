package knowledge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "kb.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.Upsert(ctx, testDocs())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	doc, err := st.Get(ctx, "AL-001")
	require.NoError(t, err)
	assert.Equal(t, "Allocation", doc.Title)
	assert.Equal(t, []string{"allocation", "Risk"}, doc.Tags)
	require.Len(t, doc.Related, 5)
	assert.Equal(t, "RT-001", doc.Related[0].ID)
	assert.Equal(t, 2025, doc.LastUpdated.Year())
}

func TestSQLite_UpsertReplaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	docs := testDocs()
	_, err := st.Upsert(ctx, docs)
	require.NoError(t, err)

	docs[1].Title = "Rebalancing bands"
	_, err = st.Upsert(ctx, docs[1:2])
	require.NoError(t, err)

	doc, err := st.Get(ctx, "AL-002")
	require.NoError(t, err)
	assert.Equal(t, "Rebalancing bands", doc.Title)

	all, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "AL-001", all[0].ID)
}

func TestSQLite_GetNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.Get(context.Background(), "XX-999")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestSQLite_Related(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	_, err := st.Upsert(ctx, testDocs())
	require.NoError(t, err)

	got, err := Related(ctx, st, "AL-001", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "RM-001", got[0].Document.ID)
}
