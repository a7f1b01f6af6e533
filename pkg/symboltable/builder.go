// Package symboltable implements the Symbol Table Builder (§4.4): a single
// walk over every ParsedFile that produces the frozen, order-independent
// SymbolTable the resolver runs against.
package symboltable

import (
	"log/slog"
	"strconv"

	"github.com/codegraph/codegraph/pkg/model"
)

// ModulePathFunc derives a module path for a file that declares no package,
// letting the builder fall back to the Module-Path Inferrer's output (§4.2)
// the way the resolver's same-package step needs a package-shaped key even
// for languages without package declarations.
type ModulePathFunc func(filePath string) (string, bool)

// Builder walks ParsedFiles once and produces the global SymbolTable.
type Builder struct {
	logger     *slog.Logger
	modulePath ModulePathFunc
}

// New returns a Builder. modulePath may be nil, in which case files without
// an explicit package contribute no Package-indexed entries.
func New(logger *slog.Logger, modulePath ModulePathFunc) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger, modulePath: modulePath}
}

// hierarchyEntry records one class-like symbol's declared super types,
// pending resolution in the builder's second pass.
type hierarchyEntry struct {
	childFQN string
	pkg      string
	supers   []string
}

// Build indexes every declaration across files into the SymbolTable's five
// maps, then resolves the type hierarchy in a second pass (§4.4).
func (b *Builder) Build(files []*model.ParsedFile) *model.SymbolTable {
	table := model.NewSymbolTable()

	var hierarchy []hierarchyEntry

	for _, file := range files {
		pkg := file.Package
		if pkg == "" && b.modulePath != nil {
			if mp, ok := b.modulePath(file.FilePath); ok {
				pkg = mp
			}
		}

		for _, fn := range file.Functions {
			b.insertFunction(table, fn, pkg, "", file.FilePath)
		}
		for _, prop := range file.Properties {
			b.insertProperty(table, prop, pkg, "", file.FilePath)
		}
		for _, ta := range file.TypeAliases {
			b.insertTypeAlias(table, ta, pkg, file.FilePath)
		}
		for _, dd := range file.Destructurings {
			b.insertDestructuring(table, dd, pkg, "", file.FilePath)
		}
		for _, cls := range file.Classes {
			b.insertClass(table, cls, pkg, "", file.FilePath, &hierarchy)
		}
		for _, oe := range file.ObjectExpressions {
			b.insertObjectExpression(table, oe, pkg, file.FilePath, &hierarchy)
		}
	}

	for _, h := range hierarchy {
		table.TypeHierarchy[h.childFQN] = resolveSuperTypes(table, h.pkg, h.supers)
	}

	return table
}

func (b *Builder) insertClass(table *model.SymbolTable, cls model.ParsedClass, pkg, parentFQN, filePath string, hierarchy *[]hierarchyEntry) {
	fqn := composeFQN(pkg, parentFQN, cls.Name)
	sym := &model.Symbol{
		Kind:       classKind(cls.Kind),
		SimpleName: cls.Name,
		FQN:        fqn,
		FilePath:   filePath,
		Location:   cls.Location,
		ParentFQN:  parentFQN,
		Package:    pkg,
		SuperClass: cls.SuperClass,
		Interfaces: cls.Interfaces,
		IsAbstract: cls.IsAbstract,
		Visibility: cls.Visibility,
	}
	b.insert(table, sym)

	var supers []string
	if cls.SuperClass != "" {
		supers = append(supers, cls.SuperClass)
	}
	supers = append(supers, cls.Interfaces...)
	if len(supers) > 0 {
		*hierarchy = append(*hierarchy, hierarchyEntry{fqn, pkg, supers})
	}

	for _, fn := range cls.Functions {
		b.insertFunction(table, fn, pkg, fqn, filePath)
	}
	for _, ctor := range cls.SecondaryCtors {
		b.insertFunction(table, ctor, pkg, fqn, filePath)
	}
	for _, prop := range cls.Properties {
		b.insertProperty(table, prop, pkg, fqn, filePath)
	}
	for _, nested := range cls.NestedClasses {
		b.insertClass(table, nested, pkg, fqn, filePath, hierarchy)
	}
	if cls.Companion != nil {
		companionName := cls.CompanionName
		if companionName == "" {
			companionName = "Companion"
		}
		companion := *cls.Companion
		companion.Name = companionName
		companion.Kind = model.ClassKindObject
		b.insertClass(table, companion, pkg, fqn, filePath, hierarchy)
	}
}

func (b *Builder) insertObjectExpression(table *model.SymbolTable, oe model.ParsedObjectExpression, pkg, filePath string, hierarchy *[]hierarchyEntry) {
	fqn := oe.AnonymousFQN(pkg)
	sym := &model.Symbol{
		Kind:       model.SymbolObject,
		SimpleName: "<anonymous>@" + strconv.FormatUint(uint64(oe.Location.StartLine), 10),
		FQN:        fqn,
		FilePath:   filePath,
		Location:   oe.Location,
		Package:    pkg,
		Interfaces: oe.SuperTypes,
	}
	b.insert(table, sym)
	if len(oe.SuperTypes) > 0 {
		*hierarchy = append(*hierarchy, hierarchyEntry{fqn, pkg, oe.SuperTypes})
	}
	for _, fn := range oe.Functions {
		b.insertFunction(table, fn, pkg, fqn, filePath)
	}
	for _, prop := range oe.Properties {
		b.insertProperty(table, prop, pkg, fqn, filePath)
	}
}

func (b *Builder) insertFunction(table *model.SymbolTable, fn model.ParsedFunction, pkg, parentFQN, filePath string) {
	fqn := composeFQN(pkg, parentFQN, fn.Name)
	sym := &model.Symbol{
		Kind:             model.SymbolFunction,
		SimpleName:       fn.Name,
		FQN:              fqn,
		FilePath:         filePath,
		Location:         fn.Location,
		ParentFQN:        parentFQN,
		DeclaringTypeFQN: parentFQN,
		Package:          pkg,
		Parameters:       fn.Parameters,
		ReturnType:       fn.ReturnType,
		ReceiverType:     fn.ReceiverType,
		IsConstructor:    fn.IsConstructor,
		Visibility:       fn.Visibility,
	}
	b.insert(table, sym)
	table.FunctionsByName[fn.Name] = append(table.FunctionsByName[fn.Name], sym)
}

func (b *Builder) insertProperty(table *model.SymbolTable, prop model.ParsedProperty, pkg, parentFQN, filePath string) {
	fqn := composeFQN(pkg, parentFQN, prop.Name)
	sym := &model.Symbol{
		Kind:             model.SymbolProperty,
		SimpleName:       prop.Name,
		FQN:              fqn,
		FilePath:         filePath,
		Location:         prop.Location,
		ParentFQN:        parentFQN,
		DeclaringTypeFQN: parentFQN,
		Package:          pkg,
		PropertyType:     prop.Type,
		IsImmutable:      prop.IsImmutable,
		Visibility:       prop.Visibility,
	}
	b.insert(table, sym)
}

func (b *Builder) insertTypeAlias(table *model.SymbolTable, ta model.ParsedTypeAlias, pkg, filePath string) {
	fqn := composeFQN(pkg, "", ta.Name)
	sym := &model.Symbol{
		Kind:        model.SymbolTypeAlias,
		SimpleName:  ta.Name,
		FQN:         fqn,
		FilePath:    filePath,
		Location:    ta.Location,
		Package:     pkg,
		AliasedType: ta.AliasedType,
		Visibility:  ta.Visibility,
	}
	b.insert(table, sym)
}

// insertDestructuring inserts one property symbol per non-underscore
// component (§3, §4.4: underscore components bind no symbol).
func (b *Builder) insertDestructuring(table *model.SymbolTable, dd model.ParsedDestructuringDeclaration, pkg, parentFQN, filePath string) {
	for i, name := range dd.ComponentNames {
		if name == "_" {
			continue
		}
		typ := ""
		if i < len(dd.ComponentTypes) {
			typ = dd.ComponentTypes[i]
		}
		fqn := composeFQN(pkg, parentFQN, name)
		sym := &model.Symbol{
			Kind:             model.SymbolProperty,
			SimpleName:       name,
			FQN:              fqn,
			FilePath:         filePath,
			Location:         dd.Location,
			ParentFQN:        parentFQN,
			DeclaringTypeFQN: parentFQN,
			Package:          pkg,
			PropertyType:     typ,
			IsImmutable:      dd.IsImmutable,
		}
		b.insert(table, sym)
	}
}

// insert applies the byFqn collision policy: last-writer-wins, logged.
func (b *Builder) insert(table *model.SymbolTable, sym *model.Symbol) {
	if existing, ok := table.ByFQN[sym.FQN]; ok && existing != sym {
		b.logger.Warn("symbol table FQN collision, overwriting",
			"fqn", sym.FQN, "previous_file", existing.FilePath, "new_file", sym.FilePath)
	}
	table.ByFQN[sym.FQN] = sym
	table.ByName[sym.SimpleName] = append(table.ByName[sym.SimpleName], sym)
	if sym.Package != "" {
		table.ByPackage[sym.Package] = append(table.ByPackage[sym.Package], sym)
	}
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

func classKind(k model.ClassKind) model.SymbolKind {
	switch k {
	case model.ClassKindInterface:
		return model.SymbolInterface
	case model.ClassKindObject:
		return model.SymbolObject
	case model.ClassKindEnum:
		return model.SymbolEnum
	case model.ClassKindAnnotation:
		return model.SymbolAnnotation
	default:
		return model.SymbolClass
	}
}

// resolveSuperTypes resolves each declared super-type name against the
// table, preferring same-package, then a unique simple-name match.
// Unresolved names are retained as-is to allow later probabilistic
// matches, per §4.4 step 6.
func resolveSuperTypes(table *model.SymbolTable, pkg string, names []string) []string {
	out := make([]string, 0, len(names))
	for _, raw := range names {
		name := stripGenerics(raw)
		if pkg != "" {
			if sym, ok := table.ByFQN[pkg+"."+name]; ok && sym.Kind.IsClassLike() {
				out = append(out, sym.FQN)
				continue
			}
		}
		candidates := classLikeCandidates(table.ByName[name])
		if len(candidates) == 1 {
			out = append(out, candidates[0].FQN)
			continue
		}
		out = append(out, raw)
	}
	return out
}

func classLikeCandidates(syms []*model.Symbol) []*model.Symbol {
	var out []*model.Symbol
	for _, s := range syms {
		if s.Kind.IsClassLike() {
			out = append(out, s)
		}
	}
	return out
}

func stripGenerics(s string) string {
	for i, r := range s {
		if r == '<' {
			return s[:i]
		}
	}
	return s
}
