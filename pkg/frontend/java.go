package frontend

import (
	"context"
	"log/slog"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph/codegraph/pkg/frontend/astutil"
	"github.com/codegraph/codegraph/pkg/model"
	"github.com/codegraph/codegraph/pkg/parser"
)

// javaFrontend converts Java source into the shared model via a direct walk
// of the tree-sitter-java concrete syntax tree.
type javaFrontend struct {
	pm     *parser.ParserManager
	logger *slog.Logger
}

// NewJavaFrontend returns the Frontend for Java sources.
func NewJavaFrontend(pm *parser.ParserManager, logger *slog.Logger) Frontend {
	return &javaFrontend{pm: pm, logger: logger}
}

func (f *javaFrontend) Language() model.Language { return model.LangJava }

func (f *javaFrontend) Parse(ctx context.Context, source []byte, path string) (*model.ParsedFile, error) {
	tree, err := f.pm.Parse(source, parser.LanguageJava, false)
	if err != nil {
		return nil, &model.ParseError{Path: path, Reason: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	pf := &model.ParsedFile{
		FilePath: path,
		Language: model.LangJava,
		Location: astutil.Loc(root, path),
	}

	for _, child := range astutil.Children(root) {
		switch child.Kind() {
		case "package_declaration":
			pf.Package = astutil.Text(child.ChildByFieldName("name"), source)
			if pf.Package == "" {
				pf.Package = lastChildText(child, source)
			}
		case "import_declaration":
			pf.Imports = append(pf.Imports, f.extractImport(child, source))
		case "class_declaration":
			pf.Classes = append(pf.Classes, f.extractClass(child, source, path, model.ClassKindClass))
		case "interface_declaration":
			pf.Classes = append(pf.Classes, f.extractClass(child, source, path, model.ClassKindInterface))
		case "enum_declaration":
			pf.Classes = append(pf.Classes, f.extractEnum(child, source, path))
		case "annotation_type_declaration":
			pf.Classes = append(pf.Classes, f.extractClass(child, source, path, model.ClassKindAnnotation))
		}
	}
	return pf, nil
}

func (f *javaFrontend) extractImport(node *ts.Node, source []byte) model.Import {
	loc := astutil.Loc(node, "")
	text := astutil.Text(node, source)
	isWildcard := containsStar(text)
	// import_declaration's only named child is the qualified/scoped name.
	children := astutil.Children(node)
	spec := ""
	if len(children) > 0 {
		spec = astutil.Text(children[0], source)
	}
	name := ""
	if !isWildcard {
		name = lastSegment(spec)
	}
	return model.Import{ModuleSpecifier: spec, ImportedName: name, IsWildcard: isWildcard, Location: loc}
}

func (f *javaFrontend) extractClass(node *ts.Node, source []byte, path string, kind model.ClassKind) model.ParsedClass {
	mods := node.ChildByFieldName("modifiers")
	pc := model.ParsedClass{
		Name:       astutil.FieldText(node, "name", source),
		Kind:       kind,
		Visibility: javaVisibility(mods, source),
		IsAbstract: hasModifier(mods, source, "abstract"),
		Location:   astutil.Loc(node, path),
	}
	pc.Annotations = javaAnnotations(mods, source)

	if sup := node.ChildByFieldName("superclass"); sup != nil {
		pc.SuperClass = astutil.StripGenerics(resolveJavaType(sup, source))
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		astutil.Walk(ifaces, func(n *ts.Node) bool {
			if n.Kind() == "type_identifier" || n.Kind() == "generic_type" || n.Kind() == "scoped_type_identifier" {
				pc.Interfaces = append(pc.Interfaces, astutil.StripGenerics(astutil.Text(n, source)))
				return false
			}
			return true
		})
	}
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		for _, p := range astutil.Children(tp) {
			pc.TypeParameters = append(pc.TypeParameters, astutil.Text(p, source))
		}
	}

	body := node.ChildByFieldName("body")
	for _, member := range astutil.Children(body) {
		switch member.Kind() {
		case "method_declaration":
			pc.Functions = append(pc.Functions, f.extractMethod(member, source, path))
		case "constructor_declaration":
			ctor := f.extractMethod(member, source, path)
			ctor.IsConstructor = true
			pc.SecondaryCtors = append(pc.SecondaryCtors, ctor)
		case "field_declaration":
			pc.Properties = append(pc.Properties, f.extractFields(member, source, path)...)
		case "class_declaration":
			pc.NestedClasses = append(pc.NestedClasses, f.extractClass(member, source, path, model.ClassKindClass))
		case "interface_declaration":
			pc.NestedClasses = append(pc.NestedClasses, f.extractClass(member, source, path, model.ClassKindInterface))
		case "annotation_type_element_declaration":
			pc.Functions = append(pc.Functions, model.ParsedFunction{
				Name:       astutil.FieldText(member, "name", source),
				Visibility: "public",
				ReturnType: astutil.NormalizeType(astutil.FieldText(member, "type", source)),
				Location:   astutil.Loc(member, path),
			})
		}
	}
	return pc
}

func (f *javaFrontend) extractEnum(node *ts.Node, source []byte, path string) model.ParsedClass {
	pc := f.extractClass(node, source, path, model.ClassKindEnum)
	for _, c := range astutil.FindChildrenByKind(node.ChildByFieldName("body"), "enum_constant") {
		pc.Properties = append(pc.Properties, model.ParsedProperty{
			Name: astutil.FieldText(c, "name", source), Visibility: "public", IsImmutable: true,
			Location: astutil.Loc(c, path),
		})
	}
	return pc
}

func (f *javaFrontend) extractMethod(node *ts.Node, source []byte, path string) model.ParsedFunction {
	mods := node.ChildByFieldName("modifiers")
	fn := model.ParsedFunction{
		Name:        astutil.FieldText(node, "name", source),
		Visibility:  javaVisibility(mods, source),
		Parameters:  f.extractParameters(node.ChildByFieldName("parameters"), source),
		ReturnType:  astutil.NormalizeType(astutil.FieldText(node, "type", source)),
		IsStatic:    hasModifier(mods, source, "static"),
		IsAbstract:  hasModifier(mods, source, "abstract"),
		Annotations: javaAnnotations(mods, source),
		Location:    astutil.Loc(node, path),
	}
	body := node.ChildByFieldName("body")
	astutil.WalkUntil(body, []string{"method_declaration", "class_declaration", "lambda_expression"}, func(n *ts.Node) {
		switch n.Kind() {
		case "method_invocation":
			fn.Calls = append(fn.Calls, f.buildCall(n, source))
		case "object_creation_expression":
			if t := n.ChildByFieldName("type"); t != nil {
				fn.Calls = append(fn.Calls, model.ParsedCall{
					CalleeName:    astutil.StripGenerics(astutil.Text(t, source)),
					ArgumentCount: argCount(n.ChildByFieldName("arguments")),
					Location:      astutil.Loc(n, ""),
				})
			}
		}
	})
	return fn
}

func (f *javaFrontend) buildCall(n *ts.Node, source []byte) model.ParsedCall {
	call := model.ParsedCall{
		CalleeName:    astutil.FieldText(n, "name", source),
		ArgumentCount: argCount(n.ChildByFieldName("arguments")),
		Location:      astutil.Loc(n, ""),
	}
	if obj := n.ChildByFieldName("object"); obj != nil {
		call.ReceiverText = astutil.Text(obj, source)
	}
	return call
}

func (f *javaFrontend) extractFields(node *ts.Node, source []byte, path string) []model.ParsedProperty {
	mods := node.ChildByFieldName("modifiers")
	typ := astutil.NormalizeType(astutil.FieldText(node, "type", source))
	vis := javaVisibility(mods, source)
	isFinal := hasModifier(mods, source, "final")
	var out []model.ParsedProperty
	for _, d := range astutil.FindChildrenByKind(node, "variable_declarator") {
		out = append(out, model.ParsedProperty{
			Name:        astutil.FieldText(d, "name", source),
			Visibility:  vis,
			Type:        typ,
			IsImmutable: isFinal,
			Initializer: astutil.FieldText(d, "value", source),
			Annotations: javaAnnotations(mods, source),
			Location:    astutil.Loc(d, path),
		})
	}
	return out
}

func (f *javaFrontend) extractParameters(node *ts.Node, source []byte) []model.ParsedParameter {
	if node == nil {
		return nil
	}
	var out []model.ParsedParameter
	for _, p := range astutil.FindChildrenByKind(node, "formal_parameter", "spread_parameter") {
		out = append(out, model.ParsedParameter{
			Name:     astutil.FieldText(p, "name", source),
			Type:     astutil.NormalizeType(astutil.FieldText(p, "type", source)),
			Location: astutil.Loc(p, ""),
		})
	}
	return out
}

func javaVisibility(mods *ts.Node, source []byte) string {
	if mods == nil {
		return "package-private"
	}
	for _, kw := range []string{"public", "private", "protected"} {
		if hasModifier(mods, source, kw) {
			return kw
		}
	}
	return "package-private"
}

func hasModifier(mods *ts.Node, source []byte, keyword string) bool {
	if mods == nil {
		return false
	}
	for _, c := range astutil.Children(mods) {
		if astutil.Text(c, source) == keyword {
			return true
		}
	}
	return false
}

func javaAnnotations(mods *ts.Node, source []byte) []string {
	if mods == nil {
		return nil
	}
	var out []string
	for _, c := range astutil.FindChildrenByKind(mods, "annotation", "marker_annotation") {
		out = append(out, astutil.FieldText(c, "name", source))
	}
	return out
}

// resolveJavaType unwraps a `superclass` field, which may itself be a
// wrapper node around the actual type, or the type directly depending on
// grammar version.
func resolveJavaType(node *ts.Node, source []byte) string {
	if node.Kind() == "superclass" {
		if len(astutil.Children(node)) > 0 {
			return astutil.Text(astutil.Children(node)[0], source)
		}
	}
	return astutil.Text(node, source)
}

func lastChildText(node *ts.Node, source []byte) string {
	children := astutil.Children(node)
	if len(children) == 0 {
		return ""
	}
	return astutil.Text(children[len(children)-1], source)
}

func containsStar(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] == '*' {
			return true
		}
	}
	return false
}

func lastSegment(dotted string) string {
	for i := len(dotted) - 1; i >= 0; i-- {
		if dotted[i] == '.' {
			return dotted[i+1:]
		}
	}
	return dotted
}
