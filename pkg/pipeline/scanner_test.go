package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestDiscoverFiles_MatchesSupportedSources(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/main/kotlin/App.kt":   "class App",
		"src/Service.java":         "class Service {}",
		"src/web/index.ts":         "export const x = 1",
		"src/web/legacy.js":        "var y = 2",
		"README.md":                "# readme",
		"src/assets/logo.svg":      "<svg/>",
		"node_modules/dep/ix.ts":   "export {}",
		"build/generated/Gen.java": "class Gen {}",
	})

	files, err := discoverFiles(context.Background(), root, DefaultScanOptions(), slog.Default())
	require.NoError(t, err)

	rels := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{
		"src/main/kotlin/App.kt",
		"src/Service.java",
		"src/web/index.ts",
		"src/web/legacy.js",
	}, rels)
}

func TestDiscoverFiles_ExcludesDeclarationFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/types.d.ts": "declare const x: number",
		"src/app.ts":     "const x = 1",
	})

	files, err := discoverFiles(context.Background(), root, DefaultScanOptions(), slog.Default())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "app.ts")
}

func TestDiscoverFiles_InvalidPattern(t *testing.T) {
	root := t.TempDir()
	opts := DefaultScanOptions()
	opts.Include = []string{"[invalid"}
	_, err := discoverFiles(context.Background(), root, opts, slog.Default())
	assert.Error(t, err)
}

func TestDiscoverFiles_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"src/a.kt": "class A"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := discoverFiles(ctx, root, DefaultScanOptions(), slog.Default())
	assert.ErrorIs(t, err, context.Canceled)
}
