// Package modulepath derives hierarchical module paths from file paths for
// languages without explicit package declarations (§4.2), by stripping
// configured source-root prefixes and retaining the remaining directory
// segments.
package modulepath

import (
	"path"
	"strings"
)

// Options configures module-path inference. A zero-value Options uses the
// documented defaults.
type Options struct {
	ProjectRoot     string
	SourceRoots     []string // e.g. "src", "lib", "app"
	Separator       string   // defaults to "/"
	IncludeFileName bool
}

func (o Options) separator() string {
	if o.Separator == "" {
		return "/"
	}
	return o.Separator
}

func (o Options) sourceRoots() []string {
	if len(o.SourceRoots) == 0 {
		return []string{"src", "lib", "app"}
	}
	return o.SourceRoots
}

// Infer returns the canonical module path for filePath, or "" (ok=false)
// when the file lies outside the project root, or sits directly at a
// configured source root without IncludeFileName.
func Infer(filePath string, opts Options) (modulePath string, ok bool) {
	rel, inside := relativeToRoot(filePath, opts.ProjectRoot)
	if !inside {
		return "", false
	}

	rel = stripSourceRootPrefix(rel, opts.sourceRoots())

	dir, file := path.Split(rel)
	dir = strings.Trim(dir, "/")

	segments := []string{}
	if dir != "" {
		segments = strings.Split(dir, "/")
	}

	if opts.IncludeFileName {
		if file != "" {
			segments = append(segments, stemWithExtension(file))
		}
	} else if len(segments) == 0 {
		// File sits directly at a source root (or project root): undefined
		// module path per §8's boundary behavior.
		return "", false
	}

	if len(segments) == 0 {
		return "", false
	}
	return strings.Join(segments, opts.separator()), true
}

// stemWithExtension retains multi-dot extensions as part of the stem, per
// §4.2's edge policy ("multi-dot extensions are retained as part of the
// stem when includeFileName is on") — i.e. the filename is used verbatim.
func stemWithExtension(file string) string {
	return file
}

// relativeToRoot returns filePath relative to projectRoot using
// platform-neutral forward-slash normalization, and whether filePath lies
// within projectRoot at all.
func relativeToRoot(filePath, projectRoot string) (string, bool) {
	norm := normalizeSlashes(filePath)
	root := normalizeSlashes(projectRoot)
	root = strings.TrimSuffix(root, "/")

	if root == "" {
		return strings.TrimPrefix(norm, "/"), true
	}
	if norm == root {
		return "", true
	}
	if !strings.HasPrefix(norm, root+"/") {
		return "", false
	}
	return strings.TrimPrefix(norm, root+"/"), true
}

func normalizeSlashes(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// stripSourceRootPrefix removes the first matching configured source-root
// segment (and everything before it) from rel, e.g. "app/src/foo/Bar.kt"
// with roots ["src"] becomes "foo/Bar.kt".
func stripSourceRootPrefix(rel string, roots []string) string {
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		for _, root := range roots {
			if seg == root {
				return strings.Join(segments[i+1:], "/")
			}
		}
	}
	return rel
}

// CollectModulePaths materializes the module path of every file plus every
// parent prefix, so the Graph Writer can build a hierarchical module tree.
func CollectModulePaths(filePaths []string, opts Options) map[string]struct{} {
	out := make(map[string]struct{})
	sep := opts.separator()
	for _, fp := range filePaths {
		mp, ok := Infer(fp, opts)
		if !ok {
			continue
		}
		segments := strings.Split(mp, sep)
		for i := 1; i <= len(segments); i++ {
			out[strings.Join(segments[:i], sep)] = struct{}{}
		}
	}
	return out
}

// BuildModuleHierarchy expresses the module-path set as a tree: parent ->
// children. Top-level modules (no parent) key on "".
func BuildModuleHierarchy(paths map[string]struct{}, separator string) map[string][]string {
	if separator == "" {
		separator = "/"
	}
	tree := make(map[string][]string)
	for p := range paths {
		idx := strings.LastIndex(p, separator)
		parent := ""
		if idx >= 0 {
			parent = p[:idx]
		}
		tree[parent] = append(tree[parent], p)
	}
	return tree
}
