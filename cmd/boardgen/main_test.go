package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/boardgen/internal/mapgen"
	"github.com/talgya/boardgen/internal/templates"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BOARDGEN_SERVER", "")
	t.Setenv("BOARDGEN_DB", filepath.Join(dir, "db", "boards.db"))
	return dir
}

func TestGenerate_FlagsOverridePreset(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "board.json")

	out := execute(t, generateCmd(), "--preset", "small", "--seed", "5", "--rounds", "100", "--width", "26", "--out", path)
	assert.Contains(t, out, "seed 5")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var res mapgen.Result
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, mapgen.ModeFreeForm, res.Mode, "preset mode kept")
	assert.Equal(t, 26, res.Width, "flag overrides preset")
	assert.Equal(t, 30, res.Height)
	assert.Equal(t, int64(5), res.Seed)
}

func TestGenerate_ConfigFile(t *testing.T) {
	dir := isolate(t)
	cfg := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("mode: classic-template\nwidth: 30\nheight: 30\nseed: 8\ntemplate: SingleRing\ntraffic_rounds: 100\n"), 0644))

	out := execute(t, generateCmd(), "--config", cfg, "--height", "34", "--out", "-")
	var res mapgen.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "SingleRing", res.Template)
	assert.Equal(t, 30, res.Width)
	assert.Equal(t, 34, res.Height)
}

func TestGenerate_ConfigAndPresetExclusive(t *testing.T) {
	isolate(t)
	cmd := generateCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", "x.yaml", "--preset", "small"})
	assert.Error(t, cmd.Execute())
}

func TestSaveListShow(t *testing.T) {
	isolate(t)

	out := execute(t, generateCmd(), "--seed", "12", "--rounds", "100", "--save")
	require.Contains(t, out, "saved as ")
	id := strings.TrimSpace(out[strings.Index(out, "saved as ")+len("saved as "):])

	out = execute(t, listCmd())
	assert.Contains(t, out, id)
	assert.Contains(t, out, "seed 12")

	out = execute(t, showCmd(), id)
	assert.Contains(t, out, "statistics match")
	assert.Contains(t, out, "streets:")

	out = execute(t, showCmd(), "--latest", "--preview=false", "--verify=false")
	assert.True(t, strings.HasPrefix(out, id))
	assert.NotContains(t, out, "streets:")

	out = execute(t, showCmd(), id, "--groups", "--preview=false", "--verify=false")
	assert.Contains(t, out, " parcels\n")
}

func TestTemplatesCommand(t *testing.T) {
	isolate(t)
	out := execute(t, templatesCmd())
	for _, id := range templates.IDs() {
		assert.Contains(t, out, id)
	}
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), len(templates.IDs()))
}

func TestListEmpty(t *testing.T) {
	isolate(t)
	assert.Contains(t, execute(t, listCmd()), "no stored boards")
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("BOARDGEN_TEST_PORT", "9191")
	t.Setenv("BOARDGEN_TEST_BAD", "x")
	assert.Equal(t, 9191, envIntOrDefault("BOARDGEN_TEST_PORT", 1))
	assert.Equal(t, 1, envIntOrDefault("BOARDGEN_TEST_BAD", 1))
	assert.Equal(t, "d", envOrDefault("BOARDGEN_TEST_UNSET", "d"))
}
