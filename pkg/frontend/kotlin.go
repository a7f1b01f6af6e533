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

// kotlinFrontend converts Kotlin source into the shared model via a direct
// walk of the tree-sitter-kotlin concrete syntax tree. Kotlin's grammar
// exposes fewer stable field names than the JS/TS and Java grammars, so this
// frontend leans more on kind-based child search than field lookups —
// still "tolerant of partial trees" per §4.1: a shape it doesn't recognize
// just contributes nothing rather than failing the whole file.
type kotlinFrontend struct {
	pm     *parser.ParserManager
	logger *slog.Logger
}

// NewKotlinFrontend returns the Frontend for Kotlin sources.
func NewKotlinFrontend(pm *parser.ParserManager, logger *slog.Logger) Frontend {
	return &kotlinFrontend{pm: pm, logger: logger}
}

func (f *kotlinFrontend) Language() model.Language { return model.LangKotlin }

func (f *kotlinFrontend) Parse(ctx context.Context, source []byte, path string) (*model.ParsedFile, error) {
	tree, err := f.pm.Parse(source, parser.LanguageKotlin, false)
	if err != nil {
		return nil, &model.ParseError{Path: path, Reason: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	pf := &model.ParsedFile{
		FilePath: path,
		Language: model.LangKotlin,
		Location: astutil.Loc(root, path),
	}

	for _, child := range astutil.Children(root) {
		switch child.Kind() {
		case "package_header":
			pf.Package = dottedIdentifier(child, source)
		case "import_list":
			for _, imp := range astutil.FindChildrenByKind(child, "import_header") {
				pf.Imports = append(pf.Imports, f.extractImport(imp, source))
			}
		case "import_header":
			pf.Imports = append(pf.Imports, f.extractImport(child, source))
		case "class_declaration":
			pf.Classes = append(pf.Classes, f.extractClass(child, source, path))
		case "object_declaration":
			pf.Classes = append(pf.Classes, f.extractObject(child, source, path))
		case "function_declaration":
			pf.Functions = append(pf.Functions, f.extractFunction(child, source, path))
		case "property_declaration":
			f.extractTopLevelProperty(pf, child, source, path)
		case "type_alias":
			pf.TypeAliases = append(pf.TypeAliases, f.extractTypeAlias(child, source, path))
		}
	}
	return pf, nil
}

func (f *kotlinFrontend) extractImport(node *ts.Node, source []byte) model.Import {
	text := astutil.Text(node, source)
	text = strings.TrimPrefix(text, "import")
	text = strings.TrimSpace(text)
	isWildcard := strings.HasSuffix(text, ".*")
	alias := ""
	if idx := strings.Index(text, " as "); idx >= 0 {
		alias = strings.TrimSpace(text[idx+4:])
		text = strings.TrimSpace(text[:idx])
	}
	text = strings.TrimSuffix(text, ".*")
	name := lastSegment(text)
	return model.Import{
		ModuleSpecifier: text,
		ImportedName:    name,
		Alias:           alias,
		IsWildcard:      isWildcard,
		Location:        astutil.Loc(node, ""),
	}
}

func (f *kotlinFrontend) extractClass(node *ts.Node, source []byte, path string) model.ParsedClass {
	modifiers := textBeforeBody(node, source)
	kind := model.ClassKindClass
	if strings.Contains(modifiers, "interface") {
		kind = model.ClassKindInterface
	} else if strings.Contains(modifiers, "enum") {
		kind = model.ClassKindEnum
	} else if strings.Contains(modifiers, "annotation") {
		kind = model.ClassKindAnnotation
	}

	pc := model.ParsedClass{
		Name:       simpleIdentifierName(node, source),
		Kind:       kind,
		Visibility: kotlinVisibility(modifiers),
		IsAbstract: containsWord(modifiers, "abstract"),
		IsData:     containsWord(modifiers, "data"),
		IsSealed:   containsWord(modifiers, "sealed"),
		Location:   astutil.Loc(node, path),
	}

	if delegations := astutil.FindFirstChildByKind(node, "delegation_specifiers"); delegations != nil {
		f.extractSuperTypes(delegations, source, &pc.SuperClass, &pc.Interfaces)
	}
	if tp := astutil.FindFirstChildByKind(node, "type_parameters"); tp != nil {
		for _, p := range astutil.Children(tp) {
			pc.TypeParameters = append(pc.TypeParameters, astutil.Text(p, source))
		}
	}
	if pctor := astutil.FindFirstChildByKind(node, "primary_constructor", "class_parameters"); pctor != nil {
		pc.Properties = append(pc.Properties, f.extractClassParameters(pctor, source, path)...)
	}

	body := astutil.FindFirstChildByKind(node, "class_body", "enum_class_body")
	f.walkClassBody(body, source, path, &pc)
	return pc
}

func (f *kotlinFrontend) extractObject(node *ts.Node, source []byte, path string) model.ParsedClass {
	pc := model.ParsedClass{
		Name:       simpleIdentifierName(node, source),
		Kind:       model.ClassKindObject,
		Visibility: kotlinVisibility(textBeforeBody(node, source)),
		Location:   astutil.Loc(node, path),
	}
	if delegations := astutil.FindFirstChildByKind(node, "delegation_specifiers"); delegations != nil {
		f.extractSuperTypes(delegations, source, &pc.SuperClass, &pc.Interfaces)
	}
	body := astutil.FindFirstChildByKind(node, "class_body")
	f.walkClassBody(body, source, path, &pc)
	return pc
}

func (f *kotlinFrontend) walkClassBody(body *ts.Node, source []byte, path string, pc *model.ParsedClass) {
	if body == nil {
		return
	}
	for _, member := range astutil.Children(body) {
		switch member.Kind() {
		case "function_declaration":
			pc.Functions = append(pc.Functions, f.extractFunction(member, source, path))
		case "property_declaration":
			pc.Properties = append(pc.Properties, f.extractPropertySymbols(member, source, path)...)
		case "class_declaration":
			pc.NestedClasses = append(pc.NestedClasses, f.extractClass(member, source, path))
		case "object_declaration":
			nested := f.extractObject(member, source, path)
			modifiers := textBeforeBody(member, source)
			if containsWord(modifiers, "companion") {
				companion := nested
				pc.Companion = &companion
				if nested.Name != "" && nested.Name != "Companion" {
					pc.CompanionName = nested.Name
				}
			} else {
				pc.NestedClasses = append(pc.NestedClasses, nested)
			}
		case "secondary_constructor":
			ctor := f.extractFunction(member, source, path)
			ctor.Name = "<init>"
			ctor.IsConstructor = true
			pc.SecondaryCtors = append(pc.SecondaryCtors, ctor)
		case "type_alias":
			// nested type aliases have no home in ParsedClass; skipped, matching
			// the uniform model's class-scoped fields.
		}
	}
}

func (f *kotlinFrontend) extractClassParameters(node *ts.Node, source []byte, path string) []model.ParsedProperty {
	var out []model.ParsedProperty
	for _, p := range astutil.FindChildrenByKind(node, "class_parameter") {
		text := astutil.Text(p, source)
		out = append(out, model.ParsedProperty{
			Name:        simpleIdentifierName(p, source),
			Visibility:  kotlinVisibility(text),
			Type:        astutil.NormalizeType(lastTypeChildText(p, source)),
			IsImmutable: !strings.HasPrefix(strings.TrimSpace(text), "var") && !strings.Contains(text, " var "),
			Location:    astutil.Loc(p, path),
		})
	}
	return out
}

func (f *kotlinFrontend) extractFunction(node *ts.Node, source []byte, path string) model.ParsedFunction {
	modifiers := textBeforeBody(node, source)
	fn := model.ParsedFunction{
		Name:           simpleIdentifierName(node, source),
		Visibility:     kotlinVisibility(modifiers),
		Parameters:     f.extractParameters(astutil.FindFirstChildByKind(node, "function_value_parameters"), source),
		ReturnType:     astutil.NormalizeType(lastTypeChildText(node, source)),
		ReceiverType:   astutil.NormalizeType(receiverTypeOf(node, source)),
		IsAbstract:     containsWord(modifiers, "abstract"),
		IsSuspend:      containsWord(modifiers, "suspend"),
		IsInline:       containsWord(modifiers, "inline"),
		IsInfix:        containsWord(modifiers, "infix"),
		IsOperator:     containsWord(modifiers, "operator"),
		TypeParameters: nil,
		Location:       astutil.Loc(node, path),
	}
	body := astutil.FindFirstChildByKind(node, "function_body")
	f.collectCalls(&fn, body, source)
	return fn
}

func (f *kotlinFrontend) extractPropertySymbols(node *ts.Node, source []byte, path string) []model.ParsedProperty {
	text := astutil.Text(node, source)
	modifiers := textBeforeBody(node, source)
	isImmutable := !strings.Contains(" "+text, " var ")

	if multi := astutil.FindFirstChildByKind(node, "multi_variable_declaration"); multi != nil {
		// destructuring property declarations live in Destructurings, not here;
		// the top-level caller routes property_declaration nodes shaped this
		// way there, and inside a class body they are not recorded.
		return nil
	}

	var out []model.ParsedProperty
	for _, vd := range astutil.FindChildrenByKind(node, "variable_declaration") {
		out = append(out, model.ParsedProperty{
			Name:        simpleIdentifierName(vd, source),
			Visibility:  kotlinVisibility(modifiers),
			Type:        astutil.NormalizeType(lastTypeChildText(vd, source)),
			IsImmutable: isImmutable,
			Initializer: initializerText(node, source),
			Location:    astutil.Loc(node, path),
		})
	}
	return out
}

func (f *kotlinFrontend) extractTopLevelProperty(pf *model.ParsedFile, node *ts.Node, source []byte, path string) {
	if multi := astutil.FindFirstChildByKind(node, "multi_variable_declaration"); multi != nil {
		pf.Destructurings = append(pf.Destructurings, f.extractDestructuring(node, multi, source, path))
		return
	}
	pf.Properties = append(pf.Properties, f.extractPropertySymbols(node, source, path)...)
}

func (f *kotlinFrontend) extractDestructuring(decl, multi *ts.Node, source []byte, path string) model.ParsedDestructuringDeclaration {
	dd := model.ParsedDestructuringDeclaration{
		IsImmutable: !strings.Contains(" "+astutil.Text(decl, source), " var "),
		Initializer: initializerText(decl, source),
		Location:    astutil.Loc(decl, path),
	}
	for _, vd := range astutil.FindChildrenByKind(multi, "variable_declaration") {
		dd.ComponentNames = append(dd.ComponentNames, simpleIdentifierName(vd, source))
		dd.ComponentTypes = append(dd.ComponentTypes, astutil.NormalizeType(lastTypeChildText(vd, source)))
	}
	return dd
}

func (f *kotlinFrontend) extractTypeAlias(node *ts.Node, source []byte, path string) model.ParsedTypeAlias {
	text := astutil.Text(node, source)
	aliased := ""
	if idx := strings.LastIndex(text, "="); idx >= 0 {
		aliased = strings.TrimSpace(text[idx+1:])
	}
	return model.ParsedTypeAlias{
		Name:        simpleIdentifierName(node, source),
		Visibility:  kotlinVisibility(textBeforeBody(node, source)),
		AliasedType: astutil.NormalizeType(aliased),
		Location:    astutil.Loc(node, path),
	}
}

func (f *kotlinFrontend) extractParameters(node *ts.Node, source []byte) []model.ParsedParameter {
	if node == nil {
		return nil
	}
	var out []model.ParsedParameter
	for _, p := range astutil.FindChildrenByKind(node, "parameter", "function_value_parameter") {
		rawType := lastTypeChildText(p, source)
		out = append(out, model.ParsedParameter{
			Name:         simpleIdentifierName(p, source),
			Type:         astutil.NormalizeType(rawType),
			HasDefault:   astutil.FindFirstChildByKind(p, "default_value") != nil || strings.Contains(astutil.Text(p, source), "="),
			FunctionType: parseFunctionType(rawType),
			Location:     astutil.Loc(p, ""),
		})
	}
	return out
}

// parseFunctionType reads a function-type spelling like
// "suspend (Int, String) -> Unit" or "Receiver.(Int) -> Unit" into its
// descriptor; nil for non-function types.
func parseFunctionType(rawType string) *model.FunctionTypeDescriptor {
	t := strings.TrimSpace(rawType)
	arrow := strings.Index(t, "->")
	if arrow < 0 {
		return nil
	}
	head := strings.TrimSpace(t[:arrow])
	desc := &model.FunctionTypeDescriptor{ReturnType: strings.TrimSpace(t[arrow+2:])}

	if strings.HasPrefix(head, "suspend ") {
		desc.IsSuspend = true
		head = strings.TrimSpace(strings.TrimPrefix(head, "suspend"))
	}
	open := strings.Index(head, "(")
	if open < 0 || !strings.HasSuffix(head, ")") {
		return nil
	}
	if open > 0 {
		desc.ReceiverType = strings.TrimSuffix(strings.TrimSpace(head[:open]), ".")
	}
	params := strings.TrimSpace(head[open+1 : len(head)-1])
	if params != "" {
		for _, part := range strings.Split(params, ",") {
			desc.ParameterTypes = append(desc.ParameterTypes, strings.TrimSpace(part))
		}
	}
	return desc
}

func (f *kotlinFrontend) extractSuperTypes(delegations *ts.Node, source []byte, superClass *string, interfaces *[]string) {
	for i, spec := range astutil.FindChildrenByKind(delegations, "delegation_specifier", "constructor_invocation", "user_type") {
		typeText := astutil.StripGenerics(leadingTypeText(spec, source))
		isConstructorCall := strings.Contains(astutil.Text(spec, source), "(")
		if i == 0 && isConstructorCall {
			*superClass = typeText
			continue
		}
		*interfaces = append(*interfaces, typeText)
	}
}

func (f *kotlinFrontend) collectCalls(fn *model.ParsedFunction, body *ts.Node, source []byte) {
	if body == nil {
		return
	}
	astutil.WalkUntil(body, []string{"function_declaration", "class_declaration", "lambda_literal"}, func(n *ts.Node) {
		switch n.Kind() {
		case "call_expression":
			fn.Calls = append(fn.Calls, f.buildCall(n, source))
		}
	})
}

func (f *kotlinFrontend) buildCall(n *ts.Node, source []byte) model.ParsedCall {
	call := model.ParsedCall{
		ArgumentCount: argCount(astutil.FindFirstChildByKind(n, "value_arguments")),
		Location:      astutil.Loc(n, ""),
	}
	children := astutil.Children(n)
	if len(children) == 0 {
		return call
	}
	target := children[0]
	switch target.Kind() {
	case "navigation_expression":
		nchildren := astutil.Children(target)
		if len(nchildren) >= 2 {
			call.ReceiverText = astutil.Text(nchildren[0], source)
			call.CalleeName = astutil.Text(nchildren[len(nchildren)-1], source)
		} else {
			call.CalleeName = astutil.Text(target, source)
		}
	case "simple_identifier":
		call.CalleeName = astutil.Text(target, source)
	default:
		call.CalleeName = astutil.Text(target, source)
	}
	return call
}

// --- shared Kotlin text-scanning helpers ---
// tree-sitter-kotlin exposes fewer field names than the JS/TS/Java grammars,
// so several attributes (modifiers, visibility, receiver type) are read by
// scanning the node's own source span up to its body, rather than by field.

func simpleIdentifierName(node *ts.Node, source []byte) string {
	for _, c := range astutil.Children(node) {
		if c.Kind() == "simple_identifier" || c.Kind() == "type_identifier" {
			return astutil.Text(c, source)
		}
	}
	return ""
}

func textBeforeBody(node *ts.Node, source []byte) string {
	text := astutil.Text(node, source)
	boundary := astutil.FindFirstChildByKind(node, "class_body", "enum_class_body", "function_body")
	if boundary == nil {
		return text
	}
	cut := int(boundary.StartByte()) - int(node.StartByte())
	if cut < 0 || cut > len(text) {
		return text
	}
	return text[:cut]
}

func kotlinVisibility(modifierText string) string {
	for _, kw := range []string{"private", "protected", "internal", "public"} {
		if containsWord(modifierText, kw) {
			return kw
		}
	}
	return "public"
}

func containsWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if strings.Trim(w, "(),:") == word {
			return true
		}
	}
	return false
}

func receiverTypeOf(fnNode *ts.Node, source []byte) string {
	// Extension-function receiver type is the simple_identifier/user_type
	// immediately preceding the "." before the function name.
	text := textBeforeBody(fnNode, source)
	idx := strings.LastIndex(text, ".")
	if idx < 0 {
		return ""
	}
	before := text[:idx]
	// strip leading "fun" keyword / modifiers / type params
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return ""
	}
	candidate := fields[len(fields)-1]
	if candidate == "fun" {
		return ""
	}
	return candidate
}

func lastTypeChildText(node *ts.Node, source []byte) string {
	if t := node.ChildByFieldName("type"); t != nil {
		return astutil.Text(t, source)
	}
	// fall back: the ": Type" suffix after the last simple_identifier
	text := astutil.Text(node, source)
	if idx := strings.Index(text, ":"); idx >= 0 {
		rest := text[idx+1:]
		if eq := strings.IndexAny(rest, "=({"); eq >= 0 {
			rest = rest[:eq]
		}
		return strings.TrimSpace(rest)
	}
	return ""
}

func initializerText(node *ts.Node, source []byte) string {
	text := astutil.Text(node, source)
	if idx := strings.Index(text, "="); idx >= 0 {
		return strings.TrimSpace(text[idx+1:])
	}
	return ""
}

func leadingTypeText(node *ts.Node, source []byte) string {
	text := astutil.Text(node, source)
	if idx := strings.IndexAny(text, "("); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}

func dottedIdentifier(node *ts.Node, source []byte) string {
	text := astutil.Text(node, source)
	text = strings.TrimPrefix(text, "package")
	return strings.TrimSpace(text)
}
