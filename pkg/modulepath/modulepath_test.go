package modulepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfer(t *testing.T) {
	opts := Options{ProjectRoot: "/repo"}

	tests := []struct {
		name     string
		filePath string
		want     string
		ok       bool
	}{
		{"under src", "/repo/src/services/user.ts", "services", true},
		{"nested dirs", "/repo/src/services/impl/user.ts", "services/impl", true},
		{"under lib", "/repo/lib/core/util.js", "core", true},
		{"directly at source root", "/repo/src/index.ts", "", false},
		{"outside project", "/other/src/a.ts", "", false},
		{"no source root", "/repo/tools/gen.ts", "tools", true},
		{"windows separators", "\\repo\\src\\services\\user.ts", "services", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Infer(tt.filePath, opts)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInfer_IncludeFileName(t *testing.T) {
	opts := Options{ProjectRoot: "/repo", IncludeFileName: true}

	got, ok := Infer("/repo/src/services/user.ts", opts)
	require.True(t, ok)
	assert.Equal(t, "services/user.ts", got)

	// multi-dot extensions are retained as part of the stem
	got, ok = Infer("/repo/src/services/user.service.ts", opts)
	require.True(t, ok)
	assert.Equal(t, "services/user.service.ts", got)

	// a file at the source root gains a path once the name is included
	got, ok = Infer("/repo/src/index.ts", opts)
	require.True(t, ok)
	assert.Equal(t, "index.ts", got)
}

func TestInfer_CustomSeparatorAndRoots(t *testing.T) {
	opts := Options{ProjectRoot: "/repo", SourceRoots: []string{"sources"}, Separator: "."}

	got, ok := Infer("/repo/sources/core/net/dial.kt", opts)
	require.True(t, ok)
	assert.Equal(t, "core.net", got)
}

func TestCollectModulePaths_MaterializesParents(t *testing.T) {
	opts := Options{ProjectRoot: "/repo"}
	paths := CollectModulePaths([]string{
		"/repo/src/a/b/c/file.ts",
		"/repo/src/a/d/file.ts",
	}, opts)

	want := map[string]struct{}{
		"a": {}, "a/b": {}, "a/b/c": {}, "a/d": {},
	}
	assert.Equal(t, want, paths)
}

func TestBuildModuleHierarchy(t *testing.T) {
	paths := map[string]struct{}{
		"a": {}, "a/b": {}, "a/b/c": {}, "x": {},
	}
	tree := BuildModuleHierarchy(paths, "/")

	assert.ElementsMatch(t, []string{"a", "x"}, tree[""])
	assert.Equal(t, []string{"a/b"}, tree["a"])
	assert.Equal(t, []string{"a/b/c"}, tree["a/b"])
}

func TestModuleHierarchyLaw(t *testing.T) {
	// collectModulePaths ∪ parents equals the set of paths reachable in the
	// hierarchy from the top level.
	opts := Options{ProjectRoot: "/repo"}
	paths := CollectModulePaths([]string{"/repo/src/a/b/file.ts", "/repo/src/c/file.ts"}, opts)
	tree := BuildModuleHierarchy(paths, "/")

	seen := map[string]struct{}{}
	var walk func(parent string)
	walk = func(parent string) {
		for _, child := range tree[parent] {
			seen[child] = struct{}{}
			walk(child)
		}
	}
	walk("")
	assert.Equal(t, paths, seen)
}
