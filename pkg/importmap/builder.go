// Package importmap implements the Import-Resolution-Map Builder (§4.5):
// per file, resolves each import specifier to a canonical symbol FQN so the
// resolver can disambiguate type names appearing in signatures.
package importmap

import (
	"strings"

	"github.com/codegraph/codegraph/pkg/model"
)

// Map is one file's resolved import map.
type Map struct {
	// SimpleNameToFQN covers named and default imports.
	SimpleNameToFQN map[string]string
	// WildcardPrefixes covers namespace/wildcard imports: the FQN prefix to
	// search when a name isn't found anywhere else.
	WildcardPrefixes []string
}

// ModulePathFunc resolves a relative module specifier, from the importing
// file, to a canonical FQN prefix (package-qualified languages skip this:
// their specifier already is the prefix).
type ModulePathFunc func(fromFile, specifier string) (fqnPrefix string, ok bool)

// Build constructs the import map for one file.
func Build(file *model.ParsedFile, resolveModule ModulePathFunc) *Map {
	m := &Map{SimpleNameToFQN: make(map[string]string)}

	for _, imp := range file.Imports {
		if imp.IsWildcard {
			prefix := canonicalPrefix(file, imp, resolveModule)
			if prefix != "" {
				m.WildcardPrefixes = append(m.WildcardPrefixes, prefix)
			}
			continue
		}

		local := imp.Alias
		if local == "" {
			local = imp.ImportedName
		}
		if local == "" {
			continue // side-effect-only import
		}

		prefix := canonicalPrefix(file, imp, resolveModule)
		if prefix == "" {
			continue
		}

		if imp.IsDefault {
			m.SimpleNameToFQN[local] = prefix + ".default"
			continue
		}
		name := imp.ImportedName
		if name == "" {
			name = local
		}
		m.SimpleNameToFQN[local] = prefix + "." + name
	}

	return m
}

// canonicalPrefix rewrites a relative module specifier against the file's
// own module path, or passes a package-qualified specifier through
// unchanged (§4.5: "package specifiers are retained").
func canonicalPrefix(file *model.ParsedFile, imp model.Import, resolveModule ModulePathFunc) string {
	spec := imp.ModuleSpecifier
	if isRelativeSpecifier(spec) {
		if resolveModule == nil {
			return ""
		}
		if fqn, ok := resolveModule(file.FilePath, spec); ok {
			return fqn
		}
		return ""
	}
	return spec
}

func isRelativeSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || strings.HasPrefix(spec, "/")
}
