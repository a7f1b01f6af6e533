package domain

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/codegraph/codegraph/pkg/model"
	"github.com/codegraph/codegraph/pkg/symboltable"
)

// Analyzer assigns packages to configured domains and derives the weighted
// inter-domain dependency graph from resolved calls.
type Analyzer struct {
	logger     *slog.Logger
	modulePath symboltable.ModulePathFunc
}

// NewAnalyzer returns an Analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

// UseModulePaths lets the analyzer derive a package-shaped prefix for files
// without a package declaration — the same fallback the Symbol Table
// Builder applied when populating the package index, so caller-side domain
// lookups agree with it.
func (a *Analyzer) UseModulePaths(fn symboltable.ModulePathFunc) {
	a.modulePath = fn
}

// Analyze matches every known package against each domain's patterns, then
// walks the resolved call graph counting calls that cross domain boundaries.
// When a package matches several domains, the first domain in configuration
// order wins.
func (a *Analyzer) Analyze(cfg *Config, files []model.ResolvedFile, table *model.SymbolTable) ([]model.Domain, []model.DomainDependency) {
	if cfg == nil || len(cfg.Domains) == 0 {
		return nil, nil
	}

	packages := make([]string, 0, len(table.ByPackage))
	for pkg := range table.ByPackage {
		packages = append(packages, pkg)
	}
	sort.Strings(packages)

	domains := make([]model.Domain, 0, len(cfg.Domains))
	packageToDomain := make(map[string]string)
	for _, spec := range cfg.Domains {
		d := model.Domain{Name: spec.Name, Description: spec.Description, Patterns: spec.Patterns}
		for _, pkg := range packages {
			if _, taken := packageToDomain[pkg]; taken {
				continue
			}
			for _, pattern := range spec.Patterns {
				if MatchesPattern(pattern, pkg) {
					d.MatchedPackages = append(d.MatchedPackages, pkg)
					packageToDomain[pkg] = spec.Name
					break
				}
			}
		}
		domains = append(domains, d)
		a.logger.Debug("domain matched", "domain", spec.Name, "packages", len(d.MatchedPackages))
	}

	weights := make(map[[2]string]int)
	for i := range files {
		rf := &files[i]
		fromDomain, ok := packageToDomain[a.filePackage(rf.File)]
		if !ok {
			continue
		}
		for _, call := range rf.Calls {
			calleePkg := a.packageOf(table, call.ToFQN)
			toDomain, ok := packageToDomain[calleePkg]
			if !ok || toDomain == fromDomain {
				continue
			}
			weights[[2]string{fromDomain, toDomain}]++
		}
	}

	deps := make([]model.DomainDependency, 0, len(weights))
	for pair, weight := range weights {
		deps = append(deps, model.DomainDependency{FromDomain: pair[0], ToDomain: pair[1], Weight: weight})
	}
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].FromDomain != deps[j].FromDomain {
			return deps[i].FromDomain < deps[j].FromDomain
		}
		return deps[i].ToDomain < deps[j].ToDomain
	})
	return domains, deps
}

// filePackage returns the package calls in this file originate from: the
// declared package, or the inferred module path for languages without
// package declarations.
func (a *Analyzer) filePackage(f *model.ParsedFile) string {
	if f.Package != "" {
		return f.Package
	}
	if a.modulePath != nil {
		if mp, ok := a.modulePath(f.FilePath); ok {
			return mp
		}
	}
	return ""
}

// packageOf derives the callee's package from its FQN: the symbol table's
// own record when the FQN is known, otherwise the longest dotted prefix that
// names a known package.
func (a *Analyzer) packageOf(table *model.SymbolTable, fqn string) string {
	if sym, ok := table.ByFQN[fqn]; ok {
		return sym.Package
	}
	prefix := fqn
	for {
		idx := strings.LastIndex(prefix, ".")
		if idx < 0 {
			return ""
		}
		prefix = prefix[:idx]
		if _, ok := table.ByPackage[prefix]; ok {
			return prefix
		}
	}
}
