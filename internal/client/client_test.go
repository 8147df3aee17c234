package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/boardgen/internal/api"
	"github.com/talgya/boardgen/internal/mapgen"
	"github.com/talgya/boardgen/internal/persistence"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := httptest.NewServer(api.NewServer(db, 0, "secret").Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL + "/")
}

func smallParams() mapgen.Params {
	p := mapgen.DefaultParams()
	p.Width, p.Height = 24, 24
	p.Seed = 19
	p.TrafficRounds = 100
	return p
}

func TestClient_RoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Storage)

	tpls, err := c.Templates(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, tpls)

	gen, err := c.Generate(ctx, smallParams(), true)
	require.NoError(t, err)
	require.NotEmpty(t, gen.ID)

	local, err := mapgen.Generate(ctx, smallParams())
	require.NoError(t, err)
	assert.Equal(t, local.Stats, gen.Result.Stats, "remote generation matches local for the same params")

	list, err := c.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	rec, err := c.Get(ctx, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, gen.Result.Seed, rec.Seed)

	text, err := c.Preview(ctx, gen.ID, true)
	require.NoError(t, err)
	assert.Contains(t, text, "streets:")

	groups, err := c.Groups(ctx, gen.ID)
	require.NoError(t, err)
	for _, g := range groups {
		assert.Equal(t, gen.Result.Stats.ParcelsByGroup[g.Group], g.Count)
	}

	err = c.Delete(ctx, gen.ID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	c.Token = "secret"
	require.NoError(t, c.Delete(ctx, gen.ID))

	_, err = c.Get(ctx, gen.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_GenerateUnknownTemplate(t *testing.T) {
	c := newTestClient(t)
	p := smallParams()
	p.Template = "Pentagon"
	_, err := c.Generate(context.Background(), p, false)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Pentagon")
}

func TestClient_Stream(t *testing.T) {
	c := newTestClient(t)
	var phases []mapgen.Phase
	sum, err := c.Stream(context.Background(), smallParams(), true, func(ev api.PhaseEvent) {
		phases = append(phases, ev.Phase)
	})
	require.NoError(t, err)
	assert.Equal(t, mapgen.Phases, phases)
	assert.Equal(t, int64(19), sum.Seed)
	assert.NotEmpty(t, sum.ID)

	rec, err := c.Get(context.Background(), sum.ID)
	require.NoError(t, err)
	assert.Equal(t, sum.Stats, rec.Stats)
}

func TestClient_StreamError(t *testing.T) {
	c := newTestClient(t)
	p := smallParams()
	p.Template = "Pentagon"
	_, err := c.Stream(context.Background(), p, false, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Pentagon"))
}
