package model

// SymbolKind tags the variant of a polymorphic Symbol. Modeled as a tagged
// sum per §9: a common header plus per-variant fields, switched on in the
// resolver's hot path rather than dispatched dynamically.
type SymbolKind int

const (
	SymbolClass SymbolKind = iota
	SymbolInterface
	SymbolObject
	SymbolEnum
	SymbolAnnotation
	SymbolFunction
	SymbolProperty
	SymbolTypeAlias
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolClass:
		return "class"
	case SymbolInterface:
		return "interface"
	case SymbolObject:
		return "object"
	case SymbolEnum:
		return "enum"
	case SymbolAnnotation:
		return "annotation"
	case SymbolFunction:
		return "function"
	case SymbolProperty:
		return "property"
	case SymbolTypeAlias:
		return "typealias"
	default:
		return "unknown"
	}
}

// IsClassLike reports whether the symbol occupies the Class/Interface/Object
// namespace used by type-hierarchy resolution.
func (k SymbolKind) IsClassLike() bool {
	switch k {
	case SymbolClass, SymbolInterface, SymbolObject, SymbolEnum, SymbolAnnotation:
		return true
	default:
		return false
	}
}

// Symbol is the common header shared by every variant. Additional
// per-variant fields live alongside it rather than in an embedded struct,
// since the resolver only ever needs a handful of them per lookup.
type Symbol struct {
	Kind SymbolKind

	SimpleName string
	FQN        string
	FilePath   string
	Location   Location

	ParentFQN        string // enclosing class/object FQN, empty at top level
	DeclaringTypeFQN string // for FunctionSymbol/PropertySymbol: the class they belong to
	Package          string

	// Function-only fields.
	Parameters    []ParsedParameter
	ReturnType    string
	ReceiverType  string // non-empty => extension function
	IsConstructor bool

	// Property-only fields.
	PropertyType string
	IsImmutable  bool

	// TypeAlias-only field.
	AliasedType string

	// Class-like-only fields.
	SuperClass string
	Interfaces []string
	IsAbstract bool

	Visibility string
	IsExported bool
}

// SymbolTable is the frozen, order-independent index produced by the Symbol
// Table Builder (§4.4). After construction it is immutable and safe to
// share across resolver workers (§5).
type SymbolTable struct {
	ByFQN           map[string]*Symbol
	ByName          map[string][]*Symbol
	FunctionsByName map[string][]*Symbol // functions only, overload buckets
	ByPackage       map[string][]*Symbol
	// TypeHierarchy maps a class-like FQN to the FQNs (or, for unresolved
	// names, the raw spelling) of its declared super types.
	TypeHierarchy map[string][]string
}

// NewSymbolTable returns an empty, writable table. Callers should stop
// mutating it once the builder pass completes and treat it as frozen.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		ByFQN:           make(map[string]*Symbol),
		ByName:          make(map[string][]*Symbol),
		FunctionsByName: make(map[string][]*Symbol),
		ByPackage:       make(map[string][]*Symbol),
		TypeHierarchy:   make(map[string][]string),
	}
}

// ResolutionContext carries everything the resolver's priority ladder needs
// for one file, built once per file by the Import-Resolution-Map Builder and
// the resolver's own pre-pass.
type ResolutionContext struct {
	File             *ParsedFile
	Language         Language
	Imports          map[string]string // simpleName -> FQN
	WildcardPrefixes []string
	CurrentClassFQN  string            // empty outside a class body
	CurrentFuncName  string            // empty outside a function body
	LocalVariables   map[string]string // localName -> declared type name
}

// ResolvedCall is the resolver's sole output per successfully resolved
// ParsedCall.
type ResolvedCall struct {
	FromFQN  string
	ToFQN    string
	Location Location
}

// ResolvedFile pairs a ParsedFile with the ResolvedCalls collected from it.
type ResolvedFile struct {
	File  *ParsedFile
	Calls []ResolvedCall
}

// Domain is a named bounded context grouping packages (§4.8).
type Domain struct {
	Name            string
	Description     string
	Patterns        []string
	MatchedPackages []string
}

// DomainDependency is one weighted edge in the coarse-grained domain graph.
type DomainDependency struct {
	FromDomain string
	ToDomain   string
	Weight     int
}
