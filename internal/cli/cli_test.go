package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"movie-cinema/internal/model"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORAGE_URL", filepath.Join(dir, "catalog.db"))
	t.Setenv("SEED_SOURCE", filepath.Join(dir, "missing-seed.json"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("BACKUP_TIME", "")
	t.Setenv("BACKUP_INTERVAL_HOURS", "")
	t.Setenv("ALLOWED_USER_IDS", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestShowEmptyBoard(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "◀ Left")
	assert.Contains(t, out, "== Adventure ==")
	assert.Equal(t, 42, strings.Count(out, "(empty slot)"))
}

func TestAddEditDeleteAcrossRuns(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "add", "--category", "heist", "--title", " Heat ", "--year", "1995", "--rating", "8.3")
	require.NoError(t, err)
	_, err = run(t, "add", "-c", "Heist", "-t", "Ronin")
	require.NoError(t, err)

	out, err := run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Heat — 1995 • 8.3")
	assert.Contains(t, out, "2. Ronin\n")

	_, err = run(t, "edit", "heist", "2", "--year", "1998")
	require.NoError(t, err)
	out, err = run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "2. Ronin — 1998")

	_, err = run(t, "edit", "heist", "1", "--category", "action")
	require.NoError(t, err)
	out, err = run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "== Action ==\n1. Heat — 1995 • 8.3")
	assert.Contains(t, out, "== Heist ==\n1. Ronin — 1998")

	out, err = run(t, "delete", "heist", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted "Ronin"`)

	out, err = run(t, "delete", "heist", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "already empty")
}

func TestAddRejectsBlankTitleAndUnknownCategory(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "add", "--title", "   ")
	assert.ErrorContains(t, err, "please provide a title")

	_, err = run(t, "add", "--category", "western", "--title", "Unforgiven")
	assert.ErrorContains(t, err, "unknown category")
}

func TestEditEmptySlot(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "edit", "love", "4", "--title", "X")
	assert.ErrorContains(t, err, "slot 4 of Love is empty")

	_, err = run(t, "edit", "love", "zero")
	assert.ErrorContains(t, err, "invalid slot")
}

func TestExportAndImport(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, "add", "-c", "love", "-t", "Casablanca", "-y", "1942")
	require.NoError(t, err)

	jsonPath := filepath.Join(dir, "out.json")
	_, err = run(t, "export", "--out", jsonPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"love\": [\n    {\n      \"title\": \"Casablanca\"")

	var exported model.Collection
	require.NoError(t, json.Unmarshal(raw, &exported))
	assert.Len(t, exported, len(model.Categories))

	out, err := run(t, "export", "--format", "yaml", "--out", "-")
	require.NoError(t, err)
	var fromYAML model.Collection
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, "Casablanca", fromYAML[model.CategoryLove][0].Title)

	_, err = run(t, "reset", "--yes")
	require.NoError(t, err)
	out, err = run(t, "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "Casablanca")

	out, err = run(t, "import", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported")
	out, err = run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Casablanca — 1942")
}

func TestImportInvalidJSONKeepsCatalog(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, "add", "-c", "horror", "-t", "Alien")
	require.NoError(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))

	_, err = run(t, "import", bad)
	assert.ErrorContains(t, err, "invalid JSON")

	out, err := run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Alien")
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "export", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestResetNeedsConfirmation(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "reset")
	assert.ErrorContains(t, err, "--yes")
}

func TestBotRequiresToken(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "bot")
	assert.ErrorContains(t, err, "TELEGRAM_TOKEN")
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := newLogger("loud", "json")
	assert.Error(t, err)

	log, err := newLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestImportHelpMentionsDroppedKeys(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "import", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Keys that are not one of these categories are dropped")
}
