package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-apply-go/internal/constants"
	"auto-apply-go/internal/types"
)

// TestProofPackStoreLatest 取最近一份材料包,空库返回 nil
func TestProofPackStoreLatest(t *testing.T) {
	store := NewProofPackStore(filepath.Join(t.TempDir(), constants.ProofPackFile))

	pack, err := store.Latest()
	require.NoError(t, err)
	assert.Nil(t, pack)

	first, err := store.Save([]types.ProofPackItem{{Title: "A", URL: "https://a.example"}})
	require.NoError(t, err)
	second, err := store.Save([]types.ProofPackItem{
		{Title: "B", URL: "https://b.example"},
		{Title: "C", URL: "https://c.example"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	latest, err := store.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second, latest.ID)
	assert.Len(t, latest.Items, 2)
}

func testBulletBank(t *testing.T) *BulletBankStore {
	t.Helper()
	store := NewBulletBankStore(filepath.Join(t.TempDir(), constants.BulletBankFile))
	require.NoError(t, store.Save([]types.Bullet{
		{ID: "b1", Text: "Built REST API", SourceType: "experience", SourceName: "Acme Labs", Category: "backend", HasMetrics: true, Grounded: true},
		{ID: "b2", Text: "Led study group", SourceType: "experience", SourceName: "Acme Labs", Category: "leadership", Grounded: true},
		{ID: "b3", Text: "Shipped ChatBoard", SourceType: "project", SourceName: "ChatBoard", Category: "backend", HasMetrics: true},
	}))
	return store
}

// TestBulletBankFilters 按分类与来源检索
func TestBulletBankFilters(t *testing.T) {
	store := testBulletBank(t)

	backend, err := store.ByCategory("Backend")
	require.NoError(t, err)
	assert.Len(t, backend, 2)

	fromAcme, err := store.BySource("acme")
	require.NoError(t, err)
	assert.Len(t, fromAcme, 2)

	got, err := store.GetByID("b2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Led study group", got.Text)

	missing, err := store.GetByID("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// TestBulletBankDeleteAndStats 删除与统计
func TestBulletBankDeleteAndStats(t *testing.T) {
	store := testBulletBank(t)

	deleted, err := store.Delete("b2")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete("b2")
	require.NoError(t, err)
	assert.False(t, deleted)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByCategory["backend"])
	assert.Equal(t, 1, stats.BySourceType["project"])
	assert.Equal(t, 2, stats.WithMetrics)
	assert.Equal(t, 1, stats.Grounded)

	require.NoError(t, store.Clear())
	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}
