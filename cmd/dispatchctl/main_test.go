package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oficio/internal/odt"
)

// useSQLite points every command at a fresh database file.
func useSQLite(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yaml"))
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "cli.db"))
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestMigrate(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema ready (sqlite)", out)
}

func TestSequenceCommands(t *testing.T) {
	useSQLite(t)

	unitID, err := execute(t, "unit", "add-extraction", "--name", "Núcleo de Extrações", "--acronym", "NUCEX")
	require.NoError(t, err)
	require.NotEmpty(t, unitID)

	first, err := execute(t, "sequence", "next", "--unit", unitID, "--year", "2025")
	require.NoError(t, err)
	assert.Equal(t, "001_2025", first)

	second, err := execute(t, "sequence", "next", "--unit", unitID, "--year", "2025")
	require.NoError(t, err)
	assert.Equal(t, "002_2025", second)

	set, err := execute(t, "sequence", "set", "--unit", unitID, "--year", "2025", "--value", "142")
	require.NoError(t, err)
	assert.Contains(t, set, "next 143_2025")

	show, err := execute(t, "sequence", "show", "--unit", unitID, "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, show, "last 0, next 001_2024")
}

func TestSequence_InvalidUnit(t *testing.T) {
	useSQLite(t)

	_, err := execute(t, "sequence", "show", "--unit", "not-a-uuid", "--year", "2025")
	assert.ErrorContains(t, err, "invalid --unit")
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	data, err := odt.NewBuilder().Paragraph("Ofício {{dispatch_number_formatted}}").Bytes()
	require.NoError(t, err)
	tpl := filepath.Join(dir, "oficio.ott")
	require.NoError(t, os.WriteFile(tpl, data, 0o644))

	dest := filepath.Join(dir, "out.odt")
	out, err := execute(t, "render", "-t", tpl, "--var", "dispatch_number_formatted=001_2025", "-o", dest)
	require.NoError(t, err)
	assert.Equal(t, dest, out)

	rendered, err := os.ReadFile(dest)
	require.NoError(t, err)
	doc, err := odt.Open(rendered)
	require.NoError(t, err)
	content, _ := doc.Part(odt.PartContent)
	assert.Contains(t, string(content), "Ofício 001_2025")

	names, err := execute(t, "render", "-t", tpl, "--list")
	require.NoError(t, err)
	assert.Equal(t, "dispatch_number_formatted", names)
}

func TestGenerate_InvalidCase(t *testing.T) {
	useSQLite(t)

	_, err := execute(t, "generate", "--case", "42")
	assert.ErrorContains(t, err, "invalid --case")
}
