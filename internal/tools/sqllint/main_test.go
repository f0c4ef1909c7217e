package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "q.go")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLintFileAcceptsMarkedConcatenation(t *testing.T) {
	path := writeSource(t, "package q\n\n"+
		"const cols = `id, uid`\n\n"+
		"const QSelect = `--sql 0e09058c-b7a5-404e-bfce-170690bc019e\nselect ` + cols + `\nfrom users;\n`\n")

	violations, err := lintFile(path)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestLintFileFlagsMissingMarker(t *testing.T) {
	path := writeSource(t, "package q\n\n"+
		"const cols = `id, uid`\n\n"+
		"const QBare = `select ` + cols + ` from users`\n\n"+
		"const QPlain = \"delete from users\"\n")

	violations, err := lintFile(path)
	require.NoError(t, err)
	require.Len(t, violations, 2)
	assert.Equal(t, "QBare", violations[0].name)
	assert.Equal(t, "QPlain", violations[1].name)
}

func TestLintFileIgnoresNonSQL(t *testing.T) {
	path := writeSource(t, "package q\n\nconst greeting = \"hello there\"\n")

	violations, err := lintFile(path)
	require.NoError(t, err)
	assert.Empty(t, violations)
}
