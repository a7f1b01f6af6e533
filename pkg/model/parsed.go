package model

// ParsedFile is the uniform output of every language frontend.
type ParsedFile struct {
	FilePath          string
	Language          Language
	Package           string // empty when the language/file has none
	Imports           []Import
	Reexports         []Reexport
	Classes           []ParsedClass
	Functions         []ParsedFunction
	Properties        []ParsedProperty
	TypeAliases       []ParsedTypeAlias
	Destructurings    []ParsedDestructuringDeclaration
	ObjectExpressions []ParsedObjectExpression
	Location          Location
}

// Import captures a single import specifier verbatim; the module resolver
// normalizes relative paths later, not the frontend.
type Import struct {
	ModuleSpecifier string
	ImportedName    string // local binding name for default imports; empty for namespace imports
	Alias           string // empty when no alias is given
	IsWildcard      bool
	IsTypeOnly      bool
	IsDefault       bool
	Location        Location
}

// Reexport captures an `export { x as y } from "mod"`-shaped statement.
type Reexport struct {
	SourceSpecifier string
	OriginalName    string
	ExportedName    string
	IsNamespace     bool
	IsWildcard      bool
	IsTypeOnly      bool
	Location        Location
}

// ClassKind distinguishes the five class-shaped declaration kinds the model
// supports; enums and annotations are represented with this kind rather than
// separate struct types, matching the writer's "Class label with
// discriminator properties" convention (§4.7).
type ClassKind int

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindObject
	ClassKindEnum
	ClassKindAnnotation
)

func (k ClassKind) String() string {
	switch k {
	case ClassKindInterface:
		return "interface"
	case ClassKindObject:
		return "object"
	case ClassKindEnum:
		return "enum"
	case ClassKindAnnotation:
		return "annotation"
	default:
		return "class"
	}
}

// ParsedClass models class/interface/object/enum/annotation declarations
// uniformly, with language-specific modifiers attached as optional booleans.
type ParsedClass struct {
	Name           string
	Kind           ClassKind
	Visibility     string
	IsAbstract     bool
	IsData         bool
	IsSealed       bool
	SuperClass     string   // empty if none
	Interfaces     []string // declared interface/supertype names
	TypeParameters []string
	Annotations    []string
	Properties     []ParsedProperty
	Functions      []ParsedFunction
	NestedClasses  []ParsedClass
	Companion      *ParsedClass // nil unless a companion object is declared
	CompanionName  string       // user-given companion name, if any
	SecondaryCtors []ParsedFunction
	Location       Location
}

// ParsedFunction models a top-level function, a method, or an extension
// function uniformly.
type ParsedFunction struct {
	Name           string
	Visibility     string
	Parameters     []ParsedParameter
	ReturnType     string // empty when undeclared/inferred
	ReceiverType   string // non-empty only for extension functions
	IsAbstract     bool
	IsSuspend      bool
	IsInline       bool
	IsInfix        bool
	IsOperator     bool
	IsStatic       bool
	IsConstructor  bool
	TypeParameters []string
	Annotations    []string
	Calls          []ParsedCall
	Location       Location
}

// IsExtension reports whether this function declares a receiver type.
func (f ParsedFunction) IsExtension() bool {
	return f.ReceiverType != ""
}

// ParsedProperty models a field/property/variable declaration.
type ParsedProperty struct {
	Name        string
	Visibility  string
	Type        string // empty when undeclared/inferred
	IsImmutable bool   // val/const/final vs var/let
	Initializer string // raw initializer text, empty if none
	Annotations []string
	Location    Location
}

// FunctionTypeDescriptor describes a parameter whose type is itself a
// function type, e.g. `(Int) -> String` or `suspend (T) -> Unit`.
type FunctionTypeDescriptor struct {
	ParameterTypes []string
	ReturnType     string
	IsSuspend      bool
	ReceiverType   string // empty unless the function type has a receiver
}

// ParsedParameter models one function/method/constructor parameter.
type ParsedParameter struct {
	Name           string
	Type           string
	HasDefault     bool
	FunctionType   *FunctionTypeDescriptor // nil unless Type is a function type
	IsInlineLambda bool                    // trailing-lambda / crossinline-style
	Location       Location
}

// ParsedTypeAlias models a type-alias declaration.
type ParsedTypeAlias struct {
	Name           string
	Visibility     string
	AliasedType    string
	TypeParameters []string
	Location       Location
}

// ParsedDestructuringDeclaration models `val (a, b) = pair`-shaped bindings.
// Components named "_" are placeholders and bind no symbol.
type ParsedDestructuringDeclaration struct {
	ComponentNames []string
	ComponentTypes []string // parallel to ComponentNames; "" if undeclared
	IsImmutable    bool
	Initializer    string
	Location       Location
}

// ParsedObjectExpression models an anonymous object/class-expression
// literal. Its identity is derived from (FilePath, StartLine) per §9 — never
// compare these by pointer across pipeline stages.
type ParsedObjectExpression struct {
	SuperTypes []string
	Properties []ParsedProperty
	Functions  []ParsedFunction
	Location   Location
}

// AnonymousFQN derives the stable textual identity of an anonymous object
// relative to its enclosing package, per the invariant in §3:
// "<enclosing-package>.<anonymous>@<startLine>".
func (o ParsedObjectExpression) AnonymousFQN(enclosingPackage string) string {
	if enclosingPackage == "" {
		return anonymousTag(o.Location.StartLine)
	}
	return enclosingPackage + "." + anonymousTag(o.Location.StartLine)
}

func anonymousTag(line uint32) string {
	return "<anonymous>@" + itoa(line)
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// ParsedCall is an unresolved call site collected locally by the frontend
// during a single AST walk; it never performs cross-file lookups.
type ParsedCall struct {
	CalleeName        string
	ReceiverText      string // raw receiver expression text, empty if none
	ReceiverType      string // statically declared type of ReceiverText, if known
	ArgumentCount     int
	ArgumentTypeHints []string // best-effort, parallel to arg positions where known
	Location          Location
}
