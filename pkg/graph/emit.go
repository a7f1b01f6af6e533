package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/codegraph/codegraph/pkg/frontend/astutil"
	"github.com/codegraph/codegraph/pkg/model"
)

// fileRows accumulates one file's node and structural-edge rows, grouped the
// way the statements need them: nodes by label, edges by (type, end labels).
// Labels cannot be parameterized in Cypher, so each distinct grouping is its
// own UNWIND statement.
type fileRows struct {
	nodes map[string][]map[string]any // label -> node rows

	contains    map[[2]string][]edgeRow // (containerLabel, childLabel)
	declares    map[[2]string][]edgeRow // (parentLabel, childLabel)
	typeEdges   map[typeEdgeKey][]edgeRow
	hasParam    map[string][]edgeRow // srcLabel
	annotated   map[string][]edgeRow // srcLabel
	reexports   map[string][]edgeRow // containerLabel
	annotations map[string]struct{}
}

type edgeRow struct {
	From     string
	To       string
	Position int
}

// typeEdgeKey groups EXTENDS/IMPLEMENTS rows: relationship type, source
// label, and whether the target binds by fqn or falls back to simple name.
type typeEdgeKey struct {
	rel      string
	srcLabel string
	byFQN    bool
}

func newFileRows() *fileRows {
	return &fileRows{
		nodes:       make(map[string][]map[string]any),
		contains:    make(map[[2]string][]edgeRow),
		declares:    make(map[[2]string][]edgeRow),
		typeEdges:   make(map[typeEdgeKey][]edgeRow),
		hasParam:    make(map[string][]edgeRow),
		annotated:   make(map[string][]edgeRow),
		reexports:   make(map[string][]edgeRow),
		annotations: make(map[string]struct{}),
	}
}

// writeFile projects one resolved file: its declaration nodes, structural
// edges, and bulk-edge contributions. Any error aborts only this file; the
// caller records it and continues with the next file.
func (w *Writer) writeFile(ctx context.Context, rf *model.ResolvedFile) error {
	f := rf.File
	rows := newFileRows()

	w.curPkg = w.packageOf(f)
	containerLabel, containerKey := w.containerOf(f)

	for i := range f.Classes {
		w.collectClass(rows, f, &f.Classes[i], "", containerLabel)
	}
	for i := range f.Functions {
		fn := &f.Functions[i]
		fqn := composeFQN(w.curPkg, "", fn.Name)
		w.collectFunction(rows, f, fn, fqn, "", "")
		if containerLabel != "" {
			rows.addContains(containerLabel, "Function", containerKey, fqn)
		}
	}
	for i := range f.Properties {
		p := &f.Properties[i]
		fqn := composeFQN(w.curPkg, "", p.Name)
		w.collectProperty(rows, f, p, fqn)
		if containerLabel != "" {
			rows.addContains(containerLabel, "Property", containerKey, fqn)
		}
	}
	for i := range f.TypeAliases {
		ta := &f.TypeAliases[i]
		fqn := composeFQN(w.curPkg, "", ta.Name)
		rows.addNode("TypeAlias", map[string]any{
			"fqn": fqn, "name": ta.Name, "aliasedType": ta.AliasedType,
			"visibility": ta.Visibility, "filePath": f.FilePath, "projectPath": w.projectPath,
			"startLine": int(ta.Location.StartLine), "endLine": int(ta.Location.EndLine),
		})
		if containerLabel != "" {
			rows.addContains(containerLabel, "TypeAlias", containerKey, fqn)
		}
	}
	for i := range f.Destructurings {
		dd := &f.Destructurings[i]
		for _, name := range dd.ComponentNames {
			if name == "_" {
				continue
			}
			fqn := composeFQN(w.curPkg, "", name)
			rows.addNode("Property", map[string]any{
				"fqn": fqn, "name": name, "isImmutable": dd.IsImmutable,
				"filePath": f.FilePath, "projectPath": w.projectPath,
				"startLine": int(dd.Location.StartLine), "endLine": int(dd.Location.EndLine),
			})
			if containerLabel != "" {
				rows.addContains(containerLabel, "Property", containerKey, fqn)
			}
		}
	}
	for i := range f.ObjectExpressions {
		w.collectObjectExpression(rows, f, &f.ObjectExpressions[i])
	}
	for i := range f.Reexports {
		w.collectReexport(rows, f, &f.Reexports[i], containerLabel, containerKey)
	}

	if err := w.emitFileRows(ctx, rows); err != nil {
		return err
	}

	for _, call := range rf.Calls {
		w.acc.AddCall(call.FromFQN, call.ToFQN)
	}
	return nil
}

// packageOf returns the dotted prefix declarations in this file compose
// their FQNs with: the declared package, or, for packageless files, the
// inferred module path with its separator replaced by dots — the same rule
// the symbol-table builder applied.
func (w *Writer) packageOf(f *model.ParsedFile) string {
	if f.Package != "" {
		return f.Package
	}
	if mp, ok := w.moduleCache[f.FilePath]; ok {
		return strings.ReplaceAll(mp, w.moduleSep, ".")
	}
	return ""
}

// containerOf returns the label and key of the node that CONTAINS this
// file's top-level declarations: its Package, or, for packageless files, the
// Module inferred from the file path (cached per pass). Files with neither
// float (§8 boundary behavior).
func (w *Writer) containerOf(f *model.ParsedFile) (label, key string) {
	if f.Package != "" {
		return "Package", f.Package
	}
	if mp, ok := w.moduleCache[f.FilePath]; ok {
		return "Module", mp
	}
	return "", ""
}

func (w *Writer) collectClass(rows *fileRows, f *model.ParsedFile, cls *model.ParsedClass, parentFQN, containerLabel string) {
	fqn := composeFQN(w.curPkg, parentFQN, cls.Name)
	label := classLabel(cls.Kind)

	rows.addNode(label, map[string]any{
		"fqn": fqn, "name": cls.Name, "kind": cls.Kind.String(),
		"visibility": cls.Visibility, "isAbstract": cls.IsAbstract,
		"isData": cls.IsData, "isSealed": cls.IsSealed,
		"isEnum": cls.Kind == model.ClassKindEnum, "isAnnotationClass": cls.Kind == model.ClassKindAnnotation,
		"package": w.curPkg, "filePath": f.FilePath, "projectPath": w.projectPath,
		"startLine": int(cls.Location.StartLine), "endLine": int(cls.Location.EndLine),
	})
	if parentFQN == "" && containerLabel != "" {
		containerKey := f.Package
		if containerLabel == "Module" {
			containerKey = w.moduleCache[f.FilePath]
		}
		rows.addContains(containerLabel, label, containerKey, fqn)
	}

	if cls.SuperClass != "" {
		w.addTypeEdge(rows, f, "EXTENDS", label, fqn, cls.SuperClass)
	}
	rel := "IMPLEMENTS"
	if cls.Kind == model.ClassKindInterface {
		rel = "EXTENDS"
	}
	for _, iface := range cls.Interfaces {
		w.addTypeEdge(rows, f, rel, label, fqn, iface)
	}

	for _, ann := range cls.Annotations {
		rows.addAnnotation(label, fqn, ann)
	}

	// Every class carries a synthetic constructor node so constructor calls
	// have a callable target; secondary constructors merge onto the same FQN.
	ctorFQN := fqn + ".<init>"
	rows.addNode("Constructor", map[string]any{
		"fqn": ctorFQN, "name": "<init>", "filePath": f.FilePath, "projectPath": w.projectPath,
		"startLine": int(cls.Location.StartLine), "endLine": int(cls.Location.EndLine),
	})
	rows.addDeclares(label, "Constructor", fqn, ctorFQN)
	for i := range cls.SecondaryCtors {
		ctor := &cls.SecondaryCtors[i]
		w.collectParameters(rows, f, "Constructor", ctorFQN, ctor.Parameters)
	}

	for i := range cls.Functions {
		fn := &cls.Functions[i]
		fnFQN := fqn + "." + fn.Name
		w.collectFunction(rows, f, fn, fnFQN, label, fqn)
	}
	for i := range cls.Properties {
		p := &cls.Properties[i]
		pFQN := fqn + "." + p.Name
		w.collectProperty(rows, f, p, pFQN)
		rows.addDeclares(label, "Property", fqn, pFQN)
	}
	for i := range cls.NestedClasses {
		nested := &cls.NestedClasses[i]
		w.collectClass(rows, f, nested, fqn, "")
		rows.addDeclares(label, classLabel(nested.Kind), fqn, composeFQN(w.curPkg, fqn, nested.Name))
	}
	if cls.Companion != nil {
		companion := *cls.Companion
		companion.Name = cls.CompanionName
		if companion.Name == "" {
			companion.Name = "Companion"
		}
		companion.Kind = model.ClassKindObject
		w.collectClass(rows, f, &companion, fqn, "")
		rows.addDeclares(label, "Object", fqn, fqn+"."+companion.Name)
	}
}

func (w *Writer) collectObjectExpression(rows *fileRows, f *model.ParsedFile, oe *model.ParsedObjectExpression) {
	fqn := oe.AnonymousFQN(w.curPkg)
	rows.addNode("Object", map[string]any{
		"fqn": fqn, "name": fmt.Sprintf("<anonymous>@%d", oe.Location.StartLine),
		"isAnonymous": true, "package": w.curPkg,
		"filePath": f.FilePath, "projectPath": w.projectPath,
		"startLine": int(oe.Location.StartLine), "endLine": int(oe.Location.EndLine),
	})
	for _, super := range oe.SuperTypes {
		w.addTypeEdge(rows, f, "IMPLEMENTS", "Object", fqn, super)
	}
	for i := range oe.Functions {
		fn := &oe.Functions[i]
		w.collectFunction(rows, f, fn, fqn+"."+fn.Name, "Object", fqn)
	}
	for i := range oe.Properties {
		p := &oe.Properties[i]
		pFQN := fqn + "." + p.Name
		w.collectProperty(rows, f, p, pFQN)
		rows.addDeclares("Object", "Property", fqn, pFQN)
	}
}

// collectFunction adds the function node, its parameter nodes, its DECLARES
// edge from the declaring type (when any), and its USES/RETURNS
// contributions to the bulk accumulator.
func (w *Writer) collectFunction(rows *fileRows, f *model.ParsedFile, fn *model.ParsedFunction, fqn, parentLabel, parentFQN string) {
	label := "Function"
	if fn.IsConstructor {
		label = "Constructor"
	}
	rows.addNode(label, map[string]any{
		"fqn": fqn, "name": fn.Name, "visibility": fn.Visibility,
		"returnType": fn.ReturnType, "receiverType": fn.ReceiverType,
		"isAbstract": fn.IsAbstract, "isSuspend": fn.IsSuspend, "isInline": fn.IsInline,
		"isInfix": fn.IsInfix, "isOperator": fn.IsOperator, "isStatic": fn.IsStatic,
		"isExtension": fn.IsExtension(), "parameterCount": len(fn.Parameters),
		"package": w.curPkg, "filePath": f.FilePath, "projectPath": w.projectPath,
		"startLine": int(fn.Location.StartLine), "endLine": int(fn.Location.EndLine),
	})
	if parentLabel != "" && !fn.IsConstructor {
		rows.addDeclares(parentLabel, label, parentFQN, fqn)
	}
	for _, ann := range fn.Annotations {
		rows.addAnnotation(label, fqn, ann)
	}
	w.collectParameters(rows, f, label, fqn, fn.Parameters)

	if fn.ReceiverType != "" {
		w.addUse(f, fqn, fn.ReceiverType, "receiver")
	}
	for _, p := range fn.Parameters {
		if p.Type != "" {
			w.addUse(f, fqn, p.Type, "parameter")
		}
	}
	if fn.ReturnType != "" {
		if name := astutil.NormalizeType(fn.ReturnType); name != "" && !w.primitive(f.Language, name) {
			w.acc.AddReturn(fqn, name)
		}
	}
}

func (w *Writer) collectParameters(rows *fileRows, f *model.ParsedFile, srcLabel, srcFQN string, params []model.ParsedParameter) {
	for i, p := range params {
		pFQN := srcFQN + "." + p.Name
		rows.addNode("Parameter", map[string]any{
			"fqn": pFQN, "name": p.Name, "type": p.Type, "hasDefault": p.HasDefault,
			"filePath": f.FilePath, "projectPath": w.projectPath,
		})
		rows.hasParam[srcLabel] = append(rows.hasParam[srcLabel], edgeRow{From: srcFQN, To: pFQN, Position: i})
	}
}

func (w *Writer) collectProperty(rows *fileRows, f *model.ParsedFile, p *model.ParsedProperty, fqn string) {
	rows.addNode("Property", map[string]any{
		"fqn": fqn, "name": p.Name, "type": p.Type, "visibility": p.Visibility,
		"isImmutable": p.IsImmutable, "package": w.curPkg,
		"filePath": f.FilePath, "projectPath": w.projectPath,
		"startLine": int(p.Location.StartLine), "endLine": int(p.Location.EndLine),
	})
	for _, ann := range p.Annotations {
		rows.addAnnotation("Property", fqn, ann)
	}
}

func (w *Writer) collectReexport(rows *fileRows, f *model.ParsedFile, re *model.Reexport, containerLabel, containerKey string) {
	name := re.ExportedName
	if name == "" {
		name = re.OriginalName
	}
	fqn := fmt.Sprintf("%s#%s#%s", f.FilePath, re.SourceSpecifier, name)
	rows.addNode("Reexport", map[string]any{
		"fqn": fqn, "sourceSpecifier": re.SourceSpecifier,
		"originalName": re.OriginalName, "exportedName": re.ExportedName,
		"isNamespace": re.IsNamespace, "isWildcard": re.IsWildcard, "isTypeOnly": re.IsTypeOnly,
		"filePath": f.FilePath, "projectPath": w.projectPath,
	})
	if containerLabel != "" {
		rows.reexports[containerLabel] = append(rows.reexports[containerLabel], edgeRow{From: containerKey, To: fqn})
	}
}

// addUse records a USES edge for one type spelling, unless it names a
// built-in primitive; binds by FQN when resolvable, by simple name otherwise.
func (w *Writer) addUse(f *model.ParsedFile, fromFQN, rawType, context string) {
	name := astutil.NormalizeType(rawType)
	if name == "" || w.primitive(f.Language, name) {
		return
	}
	fqn := ""
	if w.resolveType != nil {
		if resolved, ok := w.resolveType(f, name); ok {
			fqn = resolved
		}
	}
	w.acc.AddUse(fromFQN, fqn, name, context)
}

// addTypeEdge records an EXTENDS/IMPLEMENTS row, binding by target FQN when
// the import map yields one and by simple name otherwise (§4.7).
func (w *Writer) addTypeEdge(rows *fileRows, f *model.ParsedFile, rel, srcLabel, srcFQN, rawTarget string) {
	name := astutil.NormalizeType(rawTarget)
	if name == "" {
		return
	}
	if w.resolveType != nil {
		if fqn, ok := w.resolveType(f, name); ok {
			key := typeEdgeKey{rel: rel, srcLabel: srcLabel, byFQN: true}
			rows.typeEdges[key] = append(rows.typeEdges[key], edgeRow{From: srcFQN, To: fqn})
			return
		}
	}
	key := typeEdgeKey{rel: rel, srcLabel: srcLabel, byFQN: false}
	rows.typeEdges[key] = append(rows.typeEdges[key], edgeRow{From: srcFQN, To: name})
}

func (w *Writer) primitive(lang model.Language, name string) bool {
	if w.isPrimitive == nil {
		return false
	}
	return w.isPrimitive(lang, name)
}

// --- row helpers ---

func (r *fileRows) addNode(label string, props map[string]any) {
	r.nodes[label] = append(r.nodes[label], props)
}

func (r *fileRows) addContains(containerLabel, childLabel, containerKey, childFQN string) {
	key := [2]string{containerLabel, childLabel}
	r.contains[key] = append(r.contains[key], edgeRow{From: containerKey, To: childFQN})
}

func (r *fileRows) addDeclares(parentLabel, childLabel, parentFQN, childFQN string) {
	key := [2]string{parentLabel, childLabel}
	r.declares[key] = append(r.declares[key], edgeRow{From: parentFQN, To: childFQN})
}

func (r *fileRows) addAnnotation(srcLabel, srcFQN, annotation string) {
	name := astutil.NormalizeType(annotation)
	if name == "" {
		return
	}
	r.annotations[name] = struct{}{}
	r.annotated[srcLabel] = append(r.annotated[srcLabel], edgeRow{From: srcFQN, To: name})
}

// --- statement emission ---

// emitFileRows runs this file's grouped statements: all nodes first, then
// structural edges, honoring the node-before-edge ordering guarantee (§5).
func (w *Writer) emitFileRows(ctx context.Context, rows *fileRows) error {
	for _, label := range sortedKeys(rows.nodes) {
		nodeRows := rows.nodes[label]
		stmt := fmt.Sprintf("UNWIND $rows AS row MERGE (n:%s {fqn: row.fqn}) SET n += row", label)
		if label == "Constructor" {
			// constructors are callable: CALLS edges bind on the Function label.
			stmt = "UNWIND $rows AS row MERGE (n:Constructor {fqn: row.fqn}) SET n += row, n:Function"
		}
		if err := w.run(ctx, stmt, map[string]any{"rows": nodeRows}); err != nil {
			return fmt.Errorf("write %s nodes: %w", label, err)
		}
	}
	if len(rows.annotations) > 0 {
		annRows := make([]map[string]any, 0, len(rows.annotations))
		for name := range rows.annotations {
			annRows = append(annRows, map[string]any{"name": name})
		}
		sortRows(annRows, "name")
		err := w.run(ctx, "UNWIND $rows AS row MERGE (a:Annotation {name: row.name})", map[string]any{"rows": annRows})
		if err != nil {
			return fmt.Errorf("write annotation nodes: %w", err)
		}
	}

	for key, edges := range rows.contains {
		keyProp := "name" // Package keys on name, Module on path
		if key[0] == "Module" {
			keyProp = "path"
		}
		stmt := fmt.Sprintf(`
			UNWIND $rows AS row
			MATCH (c:%s {%s: row.from})
			MATCH (n:%s {fqn: row.to})
			MERGE (c)-[:CONTAINS]->(n)`, key[0], keyProp, key[1])
		if err := w.run(ctx, stmt, map[string]any{"rows": edgeParams(edges)}); err != nil {
			return fmt.Errorf("write CONTAINS %s->%s: %w", key[0], key[1], err)
		}
	}
	for key, edges := range rows.declares {
		stmt := fmt.Sprintf(`
			UNWIND $rows AS row
			MATCH (p:%s {fqn: row.from})
			MATCH (c:%s {fqn: row.to})
			MERGE (p)-[:DECLARES]->(c)`, key[0], key[1])
		if err := w.run(ctx, stmt, map[string]any{"rows": edgeParams(edges)}); err != nil {
			return fmt.Errorf("write DECLARES %s->%s: %w", key[0], key[1], err)
		}
	}
	for key, edges := range rows.typeEdges {
		targetMatch := "MATCH (t) WHERE (t:Class OR t:Interface OR t:Object) AND t.fqn = row.to"
		if !key.byFQN {
			targetMatch = "MATCH (t) WHERE (t:Class OR t:Interface) AND t.name = row.to"
		}
		stmt := fmt.Sprintf(`
			UNWIND $rows AS row
			MATCH (s:%s {fqn: row.from})
			%s
			MERGE (s)-[:%s]->(t)`, key.srcLabel, targetMatch, key.rel)
		if err := w.run(ctx, stmt, map[string]any{"rows": edgeParams(edges)}); err != nil {
			return fmt.Errorf("write %s from %s: %w", key.rel, key.srcLabel, err)
		}
	}
	for srcLabel, edges := range rows.hasParam {
		stmt := fmt.Sprintf(`
			UNWIND $rows AS row
			MATCH (f:%s {fqn: row.from})
			MATCH (p:Parameter {fqn: row.to})
			MERGE (f)-[r:HAS_PARAMETER]->(p)
			SET r.position = row.position`, srcLabel)
		if err := w.run(ctx, stmt, map[string]any{"rows": edgeParams(edges)}); err != nil {
			return fmt.Errorf("write HAS_PARAMETER from %s: %w", srcLabel, err)
		}
	}
	for srcLabel, edges := range rows.annotated {
		stmt := fmt.Sprintf(`
			UNWIND $rows AS row
			MATCH (s:%s {fqn: row.from})
			MATCH (a:Annotation {name: row.to})
			MERGE (s)-[:ANNOTATED_WITH]->(a)`, srcLabel)
		if err := w.run(ctx, stmt, map[string]any{"rows": edgeParams(edges)}); err != nil {
			return fmt.Errorf("write ANNOTATED_WITH from %s: %w", srcLabel, err)
		}
	}
	for containerLbl, edges := range rows.reexports {
		keyProp := "name"
		if containerLbl == "Module" {
			keyProp = "path"
		}
		stmt := fmt.Sprintf(`
			UNWIND $rows AS row
			MATCH (c:%s {%s: row.from})
			MATCH (r:Reexport {fqn: row.to})
			MERGE (c)-[:REEXPORTS]->(r)`, containerLbl, keyProp)
		if err := w.run(ctx, stmt, map[string]any{"rows": edgeParams(edges)}); err != nil {
			return fmt.Errorf("write REEXPORTS from %s: %w", containerLbl, err)
		}
	}
	return nil
}

func edgeParams(edges []edgeRow) []map[string]any {
	out := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		out = append(out, map[string]any{"from": e.From, "to": e.To, "position": e.Position})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func classLabel(k model.ClassKind) string {
	switch k {
	case model.ClassKindInterface:
		return "Interface"
	case model.ClassKindObject:
		return "Object"
	default:
		// enum and annotation classes keep the Class label with
		// isEnum/isAnnotationClass discriminator properties.
		return "Class"
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
