package frontend

import (
	"context"
	"log/slog"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph/codegraph/pkg/frontend/astutil"
	"github.com/codegraph/codegraph/pkg/model"
	"github.com/codegraph/codegraph/pkg/parser"
)

// jsFamilyFrontend implements the shared walk used by both the JavaScript
// and TypeScript frontends — the two grammars differ only in a handful of
// TypeScript-only node kinds (interfaces, type aliases, enums, type
// annotations), gated by isTypeScript.
type jsFamilyFrontend struct {
	pm           *parser.ParserManager
	logger       *slog.Logger
	lang         model.Language
	isTypeScript bool
}

// NewTypeScriptFrontend returns the Frontend for TypeScript/TSX sources.
func NewTypeScriptFrontend(pm *parser.ParserManager, logger *slog.Logger) Frontend {
	return &jsFamilyFrontend{pm: pm, logger: logger, lang: model.LangTypeScript, isTypeScript: true}
}

// NewJavaScriptFrontend returns the Frontend for JavaScript/JSX sources.
func NewJavaScriptFrontend(pm *parser.ParserManager, logger *slog.Logger) Frontend {
	return &jsFamilyFrontend{pm: pm, logger: logger, lang: model.LangJavaScript, isTypeScript: false}
}

func (f *jsFamilyFrontend) Language() model.Language { return f.lang }

func (f *jsFamilyFrontend) Parse(ctx context.Context, source []byte, path string) (*model.ParsedFile, error) {
	isTSX := parser.IsTSXFile(path)
	tree, err := f.pm.Parse(source, toParserLanguage(f.lang), isTSX)
	if err != nil {
		return nil, &model.ParseError{Path: path, Reason: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	pf := &model.ParsedFile{
		FilePath: path,
		Language: f.lang,
		Location: astutil.Loc(root, path),
	}

	for _, child := range astutil.Children(root) {
		f.visitTopLevel(pf, child, source, path)
	}
	return pf, nil
}

func (f *jsFamilyFrontend) visitTopLevel(pf *model.ParsedFile, node *ts.Node, source []byte, path string) {
	switch node.Kind() {
	case "import_statement":
		f.extractImport(pf, node, source)
	case "export_statement":
		f.extractExport(pf, node, source, path)
	case "class_declaration", "abstract_class_declaration":
		pf.Classes = append(pf.Classes, f.extractClass(node, source, path))
	case "interface_declaration":
		if f.isTypeScript {
			pf.Classes = append(pf.Classes, f.extractInterface(node, source, path))
		}
	case "enum_declaration":
		if f.isTypeScript {
			pf.Classes = append(pf.Classes, f.extractEnum(node, source, path))
		}
	case "type_alias_declaration":
		if f.isTypeScript {
			pf.TypeAliases = append(pf.TypeAliases, f.extractTypeAlias(node, source, path))
		}
	case "function_declaration", "generator_function_declaration":
		pf.Functions = append(pf.Functions, f.extractFunction(node, source, path))
	case "lexical_declaration", "variable_statement", "variable_declaration":
		f.extractTopLevelVariable(pf, node, source, path)
	case "expression_statement":
		// module.exports = { ... } style re-export, handled best-effort by export extraction.
	}
}

// --- imports / reexports ---

func (f *jsFamilyFrontend) extractImport(pf *model.ParsedFile, node *ts.Node, source []byte) {
	loc := astutil.Loc(node, pf.FilePath)
	spec := unquote(astutil.FieldText(node, "source", source))
	clause := astutil.FindFirstChildByKind(node, "import_clause")
	if clause == nil {
		// side-effect-only import: `import "./styles.css"`
		pf.Imports = append(pf.Imports, model.Import{ModuleSpecifier: spec, Location: loc})
		return
	}
	isTypeOnly := hasLeadingKeyword(node, source, "type")

	for _, c := range astutil.Children(clause) {
		switch c.Kind() {
		case "identifier":
			pf.Imports = append(pf.Imports, model.Import{
				ModuleSpecifier: spec, ImportedName: astutil.Text(c, source), IsDefault: true,
				IsTypeOnly: isTypeOnly, Location: loc,
			})
		case "namespace_import":
			name := lastIdentifier(c, source)
			pf.Imports = append(pf.Imports, model.Import{
				ModuleSpecifier: spec, Alias: name, IsWildcard: true, IsTypeOnly: isTypeOnly, Location: loc,
			})
		case "named_imports":
			for _, spc := range astutil.FindChildrenByKind(c, "import_specifier") {
				name := astutil.FieldText(spc, "name", source)
				alias := astutil.FieldText(spc, "alias", source)
				pf.Imports = append(pf.Imports, model.Import{
					ModuleSpecifier: spec, ImportedName: name, Alias: alias, IsTypeOnly: isTypeOnly, Location: loc,
				})
			}
		}
	}
}

func (f *jsFamilyFrontend) extractExport(pf *model.ParsedFile, node *ts.Node, source []byte, path string) {
	source_ := node.ChildByFieldName("source")
	loc := astutil.Loc(node, pf.FilePath)
	isTypeOnly := hasLeadingKeyword(node, source, "type")

	if source_ != nil {
		// re-export: export { a as b } from "mod" / export * from "mod" / export * as ns from "mod"
		spec := unquote(astutil.Text(source_, source))
		if clause := astutil.FindFirstChildByKind(node, "export_clause"); clause != nil {
			for _, spc := range astutil.FindChildrenByKind(clause, "export_specifier") {
				pf.Reexports = append(pf.Reexports, model.Reexport{
					SourceSpecifier: spec,
					OriginalName:    astutil.FieldText(spc, "name", source),
					ExportedName:    astutil.FieldText(spc, "alias", source),
					IsTypeOnly:      isTypeOnly,
					Location:        loc,
				})
			}
			return
		}
		ns := astutil.FindFirstChildByKind(node, "namespace_export")
		pf.Reexports = append(pf.Reexports, model.Reexport{
			SourceSpecifier: spec,
			IsWildcard:      ns == nil,
			IsNamespace:     ns != nil,
			ExportedName:    lastIdentifier(ns, source),
			IsTypeOnly:      isTypeOnly,
			Location:        loc,
		})
		return
	}

	// local export: `export class X`, `export function f()`, `export const x = ...`, `export default ...`
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		f.visitTopLevel(pf, decl, source, path)
		return
	}
	for _, c := range astutil.Children(node) {
		f.visitTopLevel(pf, c, source, path)
	}
}

// --- classes / interfaces / enums ---

func (f *jsFamilyFrontend) extractClass(node *ts.Node, source []byte, path string) model.ParsedClass {
	pc := model.ParsedClass{
		Name:       astutil.FieldText(node, "name", source),
		Kind:       model.ClassKindClass,
		Visibility: "public",
		IsAbstract: hasLeadingKeyword(node, source, "abstract"),
		Location:   astutil.Loc(node, path),
	}

	if heritage := astutil.FindFirstChildByKind(node, "class_heritage"); heritage != nil {
		if ext := astutil.FindFirstChildByKind(heritage, "extends_clause"); ext != nil {
			if len(astutil.Children(ext)) > 0 {
				pc.SuperClass = astutil.StripGenerics(astutil.Text(astutil.Children(ext)[0], source))
			}
		}
		if impl := astutil.FindFirstChildByKind(heritage, "implements_clause"); impl != nil {
			for _, t := range astutil.Children(impl) {
				pc.Interfaces = append(pc.Interfaces, astutil.StripGenerics(astutil.Text(t, source)))
			}
		}
	}
	if tp := astutil.FindFirstChildByKind(node, "type_parameters"); tp != nil {
		for _, p := range astutil.Children(tp) {
			pc.TypeParameters = append(pc.TypeParameters, astutil.Text(p, source))
		}
	}

	body := node.ChildByFieldName("body")
	for _, member := range astutil.Children(body) {
		switch member.Kind() {
		case "method_definition":
			fn := f.extractMethod(member, source, path)
			if fn.Name == "constructor" {
				fn.IsConstructor = true
			}
			pc.Functions = append(pc.Functions, fn)
		case "public_field_definition", "field_definition", "property_signature":
			pc.Properties = append(pc.Properties, f.extractField(member, source, path))
		case "class_declaration":
			pc.NestedClasses = append(pc.NestedClasses, f.extractClass(member, source, path))
		}
	}
	return pc
}

func (f *jsFamilyFrontend) extractInterface(node *ts.Node, source []byte, path string) model.ParsedClass {
	pc := model.ParsedClass{
		Name:       astutil.FieldText(node, "name", source),
		Kind:       model.ClassKindInterface,
		Visibility: "public",
		Location:   astutil.Loc(node, path),
	}
	if ext := astutil.FindFirstChildByKind(node, "extends_type_clause"); ext != nil {
		for _, t := range astutil.Children(ext) {
			pc.Interfaces = append(pc.Interfaces, astutil.StripGenerics(astutil.Text(t, source)))
		}
	}
	body := node.ChildByFieldName("body")
	for _, member := range astutil.Children(body) {
		switch member.Kind() {
		case "method_signature":
			pc.Functions = append(pc.Functions, model.ParsedFunction{
				Name:       astutil.FieldText(member, "name", source),
				Visibility: "public",
				Parameters: f.extractParameters(member.ChildByFieldName("parameters"), source),
				ReturnType: astutil.NormalizeType(astutil.FieldText(member, "type", source)),
				Location:   astutil.Loc(member, path),
			})
		case "property_signature":
			pc.Properties = append(pc.Properties, model.ParsedProperty{
				Name:       astutil.FieldText(member, "name", source),
				Visibility: "public",
				Type:       astutil.NormalizeType(astutil.FieldText(member, "type", source)),
				Location:   astutil.Loc(member, path),
			})
		}
	}
	return pc
}

func (f *jsFamilyFrontend) extractEnum(node *ts.Node, source []byte, path string) model.ParsedClass {
	pc := model.ParsedClass{
		Name:       astutil.FieldText(node, "name", source),
		Kind:       model.ClassKindEnum,
		Visibility: "public",
		Location:   astutil.Loc(node, path),
	}
	body := node.ChildByFieldName("body")
	for _, member := range astutil.Children(body) {
		name := astutil.Text(member, source)
		if na := member.ChildByFieldName("name"); na != nil {
			name = astutil.Text(na, source)
		}
		pc.Properties = append(pc.Properties, model.ParsedProperty{
			Name: name, Visibility: "public", IsImmutable: true, Location: astutil.Loc(member, path),
		})
	}
	return pc
}

func (f *jsFamilyFrontend) extractTypeAlias(node *ts.Node, source []byte, path string) model.ParsedTypeAlias {
	ta := model.ParsedTypeAlias{
		Name:        astutil.FieldText(node, "name", source),
		Visibility:  "public",
		AliasedType: astutil.NormalizeType(astutil.FieldText(node, "value", source)),
		Location:    astutil.Loc(node, path),
	}
	if tp := astutil.FindFirstChildByKind(node, "type_parameters"); tp != nil {
		for _, p := range astutil.Children(tp) {
			ta.TypeParameters = append(ta.TypeParameters, astutil.Text(p, source))
		}
	}
	return ta
}

// --- functions / methods / fields ---

func (f *jsFamilyFrontend) extractFunction(node *ts.Node, source []byte, path string) model.ParsedFunction {
	fn := model.ParsedFunction{
		Name:       astutil.FieldText(node, "name", source),
		Visibility: "public",
		Parameters: f.extractParameters(node.ChildByFieldName("parameters"), source),
		ReturnType: astutil.NormalizeType(astutil.FieldText(node, "return_type", source)),
		IsSuspend:  hasLeadingKeyword(node, source, "async"),
		Location:   astutil.Loc(node, path),
	}
	f.collectCalls(&fn, node.ChildByFieldName("body"), source)
	return fn
}

func (f *jsFamilyFrontend) extractMethod(node *ts.Node, source []byte, path string) model.ParsedFunction {
	fn := model.ParsedFunction{
		Name:       astutil.FieldText(node, "name", source),
		Visibility: visibilityOf(node, source),
		Parameters: f.extractParameters(node.ChildByFieldName("parameters"), source),
		ReturnType: astutil.NormalizeType(astutil.FieldText(node, "return_type", source)),
		IsSuspend:  hasLeadingKeyword(node, source, "async"),
		IsStatic:   hasLeadingKeyword(node, source, "static"),
		IsAbstract: hasLeadingKeyword(node, source, "abstract"),
		Location:   astutil.Loc(node, path),
	}
	f.collectCalls(&fn, node.ChildByFieldName("body"), source)
	return fn
}

func (f *jsFamilyFrontend) extractField(node *ts.Node, source []byte, path string) model.ParsedProperty {
	// the "type" field is a type_annotation node spelled ": T"
	return model.ParsedProperty{
		Name:        astutil.FieldText(node, "name", source),
		Visibility:  visibilityOf(node, source),
		Type:        astutil.NormalizeType(strings.TrimPrefix(strings.TrimSpace(astutil.FieldText(node, "type", source)), ":")),
		IsImmutable: hasLeadingKeyword(node, source, "readonly"),
		Initializer: astutil.FieldText(node, "value", source),
		Location:    astutil.Loc(node, path),
	}
}

func (f *jsFamilyFrontend) extractParameters(node *ts.Node, source []byte) []model.ParsedParameter {
	if node == nil {
		return nil
	}
	var out []model.ParsedParameter
	for _, p := range astutil.Children(node) {
		kind := p.Kind()
		if kind != "required_parameter" && kind != "optional_parameter" && kind != "identifier" {
			continue
		}
		name := astutil.FieldText(p, "pattern", source)
		if name == "" {
			name = astutil.Text(p, source)
		}
		out = append(out, model.ParsedParameter{
			Name:       name,
			Type:       astutil.NormalizeType(astutil.FieldText(p, "type", source)),
			HasDefault: p.ChildByFieldName("value") != nil || kind == "optional_parameter",
			Location:   astutil.Loc(p, ""),
		})
	}
	return out
}

func (f *jsFamilyFrontend) extractTopLevelVariable(pf *model.ParsedFile, node *ts.Node, source []byte, path string) {
	for _, decl := range astutil.FindChildrenByKind(node, "variable_declarator") {
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		switch nameNode.Kind() {
		case "object_pattern", "array_pattern":
			pf.Destructurings = append(pf.Destructurings, f.extractDestructuring(decl, nameNode, source, path))
		default:
			value := decl.ChildByFieldName("value")
			if value != nil && (value.Kind() == "arrow_function" || value.Kind() == "function_expression") {
				fn := model.ParsedFunction{
					Name:       astutil.Text(nameNode, source),
					Visibility: "public",
					Parameters: f.extractParameters(value.ChildByFieldName("parameters"), source),
					ReturnType: astutil.NormalizeType(astutil.FieldText(value, "return_type", source)),
					IsSuspend:  hasLeadingKeyword(value, source, "async"),
					Location:   astutil.Loc(decl, path),
				}
				f.collectCalls(&fn, value.ChildByFieldName("body"), source)
				pf.Functions = append(pf.Functions, fn)
				continue
			}
			pf.Properties = append(pf.Properties, model.ParsedProperty{
				Name:        astutil.Text(nameNode, source),
				Visibility:  "public",
				Type:        astutil.NormalizeType(astutil.FieldText(decl, "type", source)),
				IsImmutable: hasLeadingKeyword(node, source, "const"),
				Initializer: astutil.FieldText(decl, "value", source),
				Location:    astutil.Loc(decl, path),
			})
		}
	}
}

func (f *jsFamilyFrontend) extractDestructuring(decl, pattern *ts.Node, source []byte, path string) model.ParsedDestructuringDeclaration {
	dd := model.ParsedDestructuringDeclaration{
		Initializer: astutil.FieldText(decl, "value", source),
		Location:    astutil.Loc(decl, path),
	}
	for _, c := range astutil.Children(pattern) {
		name := ""
		switch c.Kind() {
		case "shorthand_property_identifier_pattern", "identifier":
			name = astutil.Text(c, source)
		case "pair_pattern":
			if v := c.ChildByFieldName("value"); v != nil {
				name = astutil.Text(v, source)
			}
		default:
			name = astutil.Text(c, source)
		}
		if name == "" {
			continue
		}
		dd.ComponentNames = append(dd.ComponentNames, name)
		dd.ComponentTypes = append(dd.ComponentTypes, "")
	}
	return dd
}

// collectCalls walks a function body once, locally, collecting call sites.
// Per §4.1 this never performs cross-file lookups — only local syntax.
func (f *jsFamilyFrontend) collectCalls(fn *model.ParsedFunction, body *ts.Node, source []byte) {
	if body == nil {
		return
	}
	astutil.WalkUntil(body, []string{"function_declaration", "method_definition", "class_declaration"}, func(n *ts.Node) {
		switch n.Kind() {
		case "call_expression":
			fn.Calls = append(fn.Calls, f.buildCall(n, source))
		case "new_expression":
			if ctor := n.ChildByFieldName("constructor"); ctor != nil {
				fn.Calls = append(fn.Calls, model.ParsedCall{
					CalleeName:    astutil.Text(ctor, source),
					ArgumentCount: argCount(n.ChildByFieldName("arguments")),
					Location:      astutil.Loc(n, ""),
				})
			}
		}
	})
}

func (f *jsFamilyFrontend) buildCall(n *ts.Node, source []byte) model.ParsedCall {
	callee := n.ChildByFieldName("function")
	call := model.ParsedCall{
		ArgumentCount: argCount(n.ChildByFieldName("arguments")),
		Location:      astutil.Loc(n, ""),
	}
	if callee == nil {
		return call
	}
	switch callee.Kind() {
	case "member_expression":
		call.CalleeName = astutil.FieldText(callee, "property", source)
		if obj := callee.ChildByFieldName("object"); obj != nil {
			call.ReceiverText = astutil.Text(obj, source)
		}
	default:
		call.CalleeName = astutil.Text(callee, source)
	}
	return call
}

func argCount(args *ts.Node) int {
	if args == nil {
		return 0
	}
	count := 0
	for _, c := range astutil.Children(args) {
		if c.Kind() != "comment" {
			count++
		}
	}
	return count
}

func visibilityOf(node *ts.Node, source []byte) string {
	for _, kw := range []string{"private", "protected", "public"} {
		if hasLeadingKeyword(node, source, kw) {
			return kw
		}
	}
	return "public"
}

// hasLeadingKeyword scans node's non-named leading tokens for a keyword
// (modifiers are unnamed tokens in the js/ts grammar, so a text scan of the
// node's own source span before its "body" field is the pragmatic check
// here; a node without a body field is scanned in full).
func hasLeadingKeyword(node *ts.Node, source []byte, keyword string) bool {
	if node == nil {
		return false
	}
	text := astutil.Text(node, source)
	nameEnd := len(text)
	if body := node.ChildByFieldName("body"); body != nil {
		if int(body.StartByte())-int(node.StartByte()) < nameEnd {
			nameEnd = int(body.StartByte()) - int(node.StartByte())
		}
	}
	if nameEnd < 0 || nameEnd > len(text) {
		nameEnd = len(text)
	}
	prefix := text[:nameEnd]
	for _, w := range strings.Fields(prefix) {
		if w == keyword {
			return true
		}
	}
	return false
}

func lastIdentifier(node *ts.Node, source []byte) string {
	if node == nil {
		return ""
	}
	ids := astutil.FindChildrenByKind(node, "identifier")
	if len(ids) == 0 {
		return astutil.Text(node, source)
	}
	return astutil.Text(ids[len(ids)-1], source)
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
