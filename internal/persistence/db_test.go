package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/boardgen/internal/mapgen"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "boards.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testBoard(t *testing.T, seed int64) *mapgen.Result {
	t.Helper()
	p := mapgen.DefaultParams()
	p.Seed = seed
	p.TrafficRounds = 100
	res, err := mapgen.Generate(context.Background(), p)
	require.NoError(t, err)
	return res
}

func TestSaveAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	res := testBoard(t, 11)

	id, err := db.Save(ctx, res)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := db.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, res.Seed, rec.Seed)
	assert.Equal(t, res.Template, rec.Template)
	assert.Equal(t, res.Params, rec.Params)
	assert.Equal(t, res.Stats, rec.Stats)
	assert.Equal(t, res.Parcels, rec.Result.Parcels)
	assert.Len(t, rec.Result.Tiles, len(res.Tiles))
	assert.Equal(t, len(res.Parcels), rec.Parcels)

	latest, err := db.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, latest.ID)
}

func TestGet_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = db.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, err := db.Save(ctx, testBoard(t, 1))
	require.NoError(t, err)
	second, err := db.Save(ctx, testBoard(t, 2))
	require.NoError(t, err)

	list, err := db.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID, "newest first")
	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, db.Delete(ctx, second))
	assert.ErrorIs(t, db.Delete(ctx, second), ErrNotFound)

	list, err = db.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first, list[0].ID)
	n, err = db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = db.Latest(ctx)
	assert.ErrorIs(t, err, ErrNotFound, "latest pointer cleared with its map")
}

func TestParcelGroups(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	res := testBoard(t, 5)
	id, err := db.Save(ctx, res)
	require.NoError(t, err)

	groups, err := db.ParcelGroups(ctx, id)
	require.NoError(t, err)
	total := 0
	for _, g := range groups {
		assert.Equal(t, res.Stats.ParcelsByGroup[g.Group], g.Count)
		total += g.Count
	}
	assert.Equal(t, len(res.Parcels), total)

	_, err = db.ParcelGroups(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
