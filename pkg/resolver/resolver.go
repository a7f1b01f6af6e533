// Package resolver implements the Symbol Resolver (§4.6): it walks each
// ParsedFile a second time, against the frozen SymbolTable, turning each
// ParsedCall into at most one ResolvedCall by applying a fixed ten-step
// priority ladder. Pure and stateless once the table is frozen (§5) — safe
// to run concurrently, one file per worker.
package resolver

import (
	"log/slog"
	"sync/atomic"

	"github.com/codegraph/codegraph/pkg/frontend/astutil"
	"github.com/codegraph/codegraph/pkg/importmap"
	"github.com/codegraph/codegraph/pkg/model"
	"github.com/codegraph/codegraph/pkg/stdlib"
	"github.com/codegraph/codegraph/pkg/symboltable"
)

// Stats tallies resolution outcomes across every file a Resolver has
// processed, for reporting coverage the way the writer logs batch counts.
type Stats struct {
	Total      int
	Resolved   int
	Unresolved int
}

// Resolver applies the priority ladder against one frozen SymbolTable. The
// counters are atomic so ResolveFile can run on a worker pool, one file per
// worker, against the shared frozen table.
type Resolver struct {
	table  *model.SymbolTable
	stdlib *stdlib.Registry
	logger *slog.Logger

	total      atomic.Int64
	resolved   atomic.Int64
	unresolved atomic.Int64

	modulePath symboltable.ModulePathFunc
}

// UseModulePaths lets the resolver derive a package-shaped prefix for files
// without a package declaration, matching what the Symbol Table Builder used
// when composing their FQNs. Must be set before resolution starts.
func (r *Resolver) UseModulePaths(fn symboltable.ModulePathFunc) {
	r.modulePath = fn
}

// Stats returns a snapshot of resolution outcomes accumulated so far.
func (r *Resolver) Stats() Stats {
	return Stats{
		Total:      int(r.total.Load()),
		Resolved:   int(r.resolved.Load()),
		Unresolved: int(r.unresolved.Load()),
	}
}

// New returns a Resolver bound to a frozen SymbolTable. table must not be
// mutated after this call, per §5's shared-resource policy.
func New(table *model.SymbolTable, stdlibRegistry *stdlib.Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{table: table, stdlib: stdlibRegistry, logger: logger}
}

// classCtx carries the enclosing-class information the ladder needs: its
// FQN, its property types (for step 2's typed-property lookup), and its
// companion's FQN/name.
type classCtx struct {
	fqn           string
	propertyTypes map[string]string
	companionFQN  string
}

// fileCtx is the per-file ResolutionContext built once before walking a
// file's functions (§3: ResolutionContext).
type fileCtx struct {
	file      *model.ParsedFile
	provider  stdlib.Provider
	imports   map[string]string
	wildcards []string
	pkg       string
}

// ResolveFile walks file's declarations and produces every successfully
// resolved call. Unresolvable calls are dropped silently and counted.
func (r *Resolver) ResolveFile(file *model.ParsedFile, im *importmap.Map) []model.ResolvedCall {
	provider, err := r.stdlib.Get(file.Language)
	if err != nil {
		provider = nil
	}

	pkg := file.Package
	if pkg == "" && r.modulePath != nil {
		if mp, ok := r.modulePath(file.FilePath); ok {
			pkg = mp
		}
	}
	fc := &fileCtx{file: file, provider: provider, pkg: pkg}
	if im != nil {
		fc.imports = im.SimpleNameToFQN
		fc.wildcards = append(fc.wildcards, im.WildcardPrefixes...)
	} else {
		fc.imports = map[string]string{}
	}
	if provider != nil {
		fc.wildcards = append(fc.wildcards, provider.DefaultWildcardImports()...)
	}

	var out []model.ResolvedCall

	for _, fn := range file.Functions {
		out = append(out, r.resolveFunction(fc, fn, "", nil)...)
	}
	for _, cls := range file.Classes {
		out = append(out, r.walkClass(fc, cls, "")...)
	}
	for _, oe := range file.ObjectExpressions {
		out = append(out, r.walkObjectExpression(fc, oe)...)
	}

	return out
}

func (r *Resolver) walkClass(fc *fileCtx, cls model.ParsedClass, parentFQN string) []model.ResolvedCall {
	fqn := composeFQN(fc.pkg, parentFQN, cls.Name)
	cc := &classCtx{fqn: fqn, propertyTypes: propertyTypeMap(cls.Properties)}
	if cls.Companion != nil {
		name := cls.CompanionName
		if name == "" {
			name = "Companion"
		}
		cc.companionFQN = fqn + "." + name
	}

	var out []model.ResolvedCall
	for _, fn := range cls.Functions {
		out = append(out, r.resolveFunction(fc, fn, fqn, cc)...)
	}
	for _, ctor := range cls.SecondaryCtors {
		out = append(out, r.resolveFunction(fc, ctor, fqn, cc)...)
	}
	for _, nested := range cls.NestedClasses {
		out = append(out, r.walkClass(fc, nested, fqn)...)
	}
	if cls.Companion != nil {
		out = append(out, r.walkClass(fc, *cls.Companion, fqn)...)
	}
	return out
}

func (r *Resolver) walkObjectExpression(fc *fileCtx, oe model.ParsedObjectExpression) []model.ResolvedCall {
	fqn := oe.AnonymousFQN(fc.pkg)
	cc := &classCtx{fqn: fqn, propertyTypes: propertyTypeMap(oe.Properties)}
	var out []model.ResolvedCall
	for _, fn := range oe.Functions {
		out = append(out, r.resolveFunction(fc, fn, fqn, cc)...)
	}
	return out
}

func (r *Resolver) resolveFunction(fc *fileCtx, fn model.ParsedFunction, parentFQN string, cc *classCtx) []model.ResolvedCall {
	fromFQN := composeFQN(fc.pkg, parentFQN, fn.Name)

	locals := make(map[string]string, len(fn.Parameters))
	for _, p := range fn.Parameters {
		if p.Type != "" {
			locals[p.Name] = astutil.NormalizeType(p.Type)
		}
	}

	var out []model.ResolvedCall
	for _, call := range fn.Calls {
		r.total.Add(1)
		toFQN, ok := r.resolveCall(fc, cc, locals, call)
		if !ok {
			r.unresolved.Add(1)
			continue
		}
		r.resolved.Add(1)
		out = append(out, model.ResolvedCall{FromFQN: fromFQN, ToFQN: toFQN, Location: call.Location})
	}
	return out
}

// resolveCall applies the ten-step priority ladder; the first step to
// succeed wins.
func (r *Resolver) resolveCall(fc *fileCtx, cc *classCtx, locals map[string]string, call model.ParsedCall) (string, bool) {
	name := call.CalleeName
	if name == "" {
		return "", false
	}

	// Step 1: explicit receiver type recorded on the call site.
	if call.ReceiverType != "" {
		if fqn, ok := r.resolveOnType(fc, call.ReceiverType, name); ok {
			return r.method(fqn, call), true
		}
	}

	// Step 2: typed local receiver (parameter, or enclosing-class property).
	if call.ReceiverText != "" {
		if t, ok := locals[call.ReceiverText]; ok {
			if fqn, ok := r.resolveOnType(fc, t, name); ok {
				return r.method(fqn, call), true
			}
		}
		if cc != nil {
			if t, ok := cc.propertyTypes[call.ReceiverText]; ok {
				if fqn, ok := r.resolveOnType(fc, t, name); ok {
					return r.method(fqn, call), true
				}
			}
		}

		// Step 3: receiver is itself a resolvable class/object symbol.
		if recvFQN, sym, ok := r.resolveTypeName(fc, call.ReceiverText); ok && sym.Kind.IsClassLike() {
			if fqn, ok := r.lookupMethod(recvFQN, name); ok {
				return r.method(fqn, call), true
			}
			if fqn, ok := r.lookupCompanionMethod(sym, name); ok {
				return r.method(fqn, call), true
			}
		}
	}

	// Step 4: same class (+ hierarchy walk).
	if call.ReceiverText == "" && cc != nil {
		if fqn, ok := r.lookupMethod(cc.fqn, name); ok {
			return r.method(fqn, call), true
		}
		if fqn, ok := r.walkHierarchy(cc.fqn, name); ok {
			return r.method(fqn, call), true
		}
	}

	// Step 5: imports.
	if call.ReceiverText == "" {
		if fqn, ok := fc.imports[name]; ok {
			if sym, known := r.table.ByFQN[fqn]; known {
				if out, ok := callableFQN(sym, name); ok {
					return out, true
				}
			}
		}

		// Step 6: same package.
		if fc.pkg != "" {
			if sym, ok := r.table.ByFQN[fc.pkg+"."+name]; ok {
				if out, ok := callableFQN(sym, name); ok {
					return out, true
				}
			}
		}

		// Step 7: wildcard imports / language-default imports.
		for _, prefix := range fc.wildcards {
			if sym, ok := r.table.ByFQN[prefix+"."+name]; ok {
				if out, ok := callableFQN(sym, name); ok {
					return out, true
				}
			}
		}

		// Step 8: stdlib.
		if fc.provider != nil {
			if sym := fc.provider.LookupFunction(name); sym != nil {
				return sym.FQN, true
			}
		}
	} else if fc.provider != nil {
		if sym := fc.provider.LookupStaticMethod(call.ReceiverText + "." + name); sym != nil {
			return sym.FQN, true
		}
	}

	// Step 9: extension functions.
	if call.ReceiverText != "" {
		if fqn, ok := r.resolveExtension(fc, locals, cc, call, name); ok {
			return fqn, true
		}
	}

	// Step 10: unique top-level function.
	if candidates := r.table.FunctionsByName[name]; len(candidates) == 1 {
		return candidates[0].FQN, true
	}

	// Constructor calls: an otherwise-unresolved uppercase-leading name that
	// matches a known class resolves to its synthetic constructor.
	if isUpperFirst(name) {
		if classFQN, sym, ok := r.resolveTypeName(fc, name); ok && sym.Kind.IsClassLike() {
			return classFQN + ".<init>", true
		}
	}

	return "", false
}

// maxAliasDepth bounds type-alias expansion so alias cycles terminate.
const maxAliasDepth = 8

// resolveOnType resolves rawType.method, walking the type hierarchy and
// expanding type aliases when the immediate lookup misses.
func (r *Resolver) resolveOnType(fc *fileCtx, rawType, method string) (string, bool) {
	return r.resolveOnTypeDepth(fc, rawType, method, 0)
}

func (r *Resolver) resolveOnTypeDepth(fc *fileCtx, rawType, method string, depth int) (string, bool) {
	if depth > maxAliasDepth {
		return "", false
	}
	typeFQN, sym, ok := r.resolveTypeName(fc, rawType)
	if !ok {
		return "", false
	}
	if sym.Kind == model.SymbolTypeAlias {
		return r.resolveOnTypeDepth(fc, sym.AliasedType, method, depth+1)
	}
	if fqn, ok := r.lookupMethod(typeFQN, method); ok {
		return fqn, true
	}
	if fqn, ok := r.walkHierarchy(typeFQN, method); ok {
		return fqn, true
	}
	if fc.provider != nil {
		if s := fc.provider.LookupStaticMethod(sym.SimpleName + "." + method); s != nil {
			return s.FQN, true
		}
	}
	return "", false
}

// resolveTypeName resolves a raw type spelling to its FQN and symbol via
// imports, same package, wildcard prefixes, a unique same-name match, or the
// stdlib provider.
func (r *Resolver) resolveTypeName(fc *fileCtx, rawType string) (string, *model.Symbol, bool) {
	name := astutil.NormalizeType(rawType)
	if name == "" {
		return "", nil, false
	}

	if fqn, ok := fc.imports[name]; ok {
		if sym, ok := r.table.ByFQN[fqn]; ok {
			return fqn, sym, true
		}
	}
	if fc.pkg != "" {
		candidate := fc.pkg + "." + name
		if sym, ok := r.table.ByFQN[candidate]; ok {
			return candidate, sym, true
		}
	}
	for _, prefix := range fc.wildcards {
		candidate := prefix + "." + name
		if sym, ok := r.table.ByFQN[candidate]; ok {
			return candidate, sym, true
		}
	}
	if candidates := classLikeOrAlias(r.table.ByName[name]); len(candidates) == 1 {
		return candidates[0].FQN, candidates[0], true
	}
	if fc.provider != nil {
		if sym := fc.provider.LookupClass(name); sym != nil {
			return sym.FQN, sym, true
		}
	}
	return "", nil, false
}

// lookupCompanionMethod resolves Type.method through the type's companion
// object: the default "Companion" name first, then any nested object whose
// user-given name the companion kept in its FQN.
func (r *Resolver) lookupCompanionMethod(classSym *model.Symbol, method string) (string, bool) {
	if fqn, ok := r.lookupMethod(classSym.FQN+".Companion", method); ok {
		return fqn, true
	}
	for _, s := range r.table.ByPackage[classSym.Package] {
		if s.Kind == model.SymbolObject && s.ParentFQN == classSym.FQN {
			if fqn, ok := r.lookupMethod(s.FQN, method); ok {
				return fqn, true
			}
		}
	}
	return "", false
}

// method finalizes a method resolution: overload discrimination happens
// here, after the FQN is chosen, since overloads share the FQN.
func (r *Resolver) method(fqn string, call model.ParsedCall) string {
	r.noteOverload(fqn, call)
	return fqn
}

// lookupMethod resolves typeFQN.method directly against the table.
func (r *Resolver) lookupMethod(typeFQN, method string) (string, bool) {
	fqn := typeFQN + "." + method
	if _, ok := r.table.ByFQN[fqn]; ok {
		return fqn, true
	}
	return "", false
}

// walkHierarchy walks typeFQN's ancestry depth-first, with a visited set to
// tolerate cycles (§9), retrying lookupMethod at each parent.
func (r *Resolver) walkHierarchy(typeFQN, method string) (string, bool) {
	visited := make(map[string]bool)
	var visit func(string) (string, bool)
	visit = func(t string) (string, bool) {
		if visited[t] {
			return "", false
		}
		visited[t] = true
		for _, parent := range r.table.TypeHierarchy[t] {
			if fqn, ok := r.lookupMethod(parent, method); ok {
				return fqn, true
			}
			if fqn, ok := visit(parent); ok {
				return fqn, true
			}
		}
		return "", false
	}
	return visit(typeFQN)
}

// resolveExtension scans functionsByName[name] for an extension-function
// candidate whose receiver type matches (exactly, then loosely). If the
// receiver's type is unknown, falls back to the first candidate — a
// documented best-effort heuristic (§9).
func (r *Resolver) resolveExtension(fc *fileCtx, locals map[string]string, cc *classCtx, call model.ParsedCall, name string) (string, bool) {
	candidates := extensionCandidates(r.table.FunctionsByName[name])
	if len(candidates) == 0 {
		return "", false
	}

	receiverType, known := locals[call.ReceiverText]
	if !known && cc != nil {
		receiverType, known = cc.propertyTypes[call.ReceiverText]
	}
	if !known {
		return candidates[0].FQN, true
	}
	receiverType = astutil.NormalizeType(receiverType)

	for _, c := range candidates {
		if astutil.NormalizeType(c.ReceiverType) == receiverType {
			return c.FQN, true
		}
	}
	// loose match: generics/nullability already stripped by NormalizeType,
	// so an exact pass already covers the "loosely" case too.
	return "", false
}

func composeFQN(pkg, parentFQN, name string) string {
	switch {
	case parentFQN != "":
		return parentFQN + "." + name
	case pkg != "":
		return pkg + "." + name
	default:
		return name
	}
}

func propertyTypeMap(props []model.ParsedProperty) map[string]string {
	out := make(map[string]string, len(props))
	for _, p := range props {
		if p.Type != "" {
			out[p.Name] = astutil.NormalizeType(p.Type)
		}
	}
	return out
}

func classLikeOrAlias(syms []*model.Symbol) []*model.Symbol {
	var out []*model.Symbol
	for _, s := range syms {
		if s.Kind.IsClassLike() || s.Kind == model.SymbolTypeAlias {
			out = append(out, s)
		}
	}
	return out
}

func extensionCandidates(syms []*model.Symbol) []*model.Symbol {
	var out []*model.Symbol
	for _, s := range syms {
		if s.ReceiverType != "" {
			out = append(out, s)
		}
	}
	return out
}

// callableFQN maps a matched symbol to the FQN a call site binds to: the
// symbol itself for functions, the synthetic constructor for class-like
// symbols invoked with a constructor-shaped (upper-case) name.
func callableFQN(sym *model.Symbol, name string) (string, bool) {
	switch {
	case sym.Kind == model.SymbolFunction:
		return sym.FQN, true
	case sym.Kind.IsClassLike() && isUpperFirst(name):
		return sym.FQN + ".<init>", true
	default:
		return "", false
	}
}

func isUpperFirst(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z'
}
