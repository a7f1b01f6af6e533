package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/codegraph/codegraph/pkg/model"
	"github.com/codegraph/codegraph/pkg/modulepath"
)

// DefaultBatchSize is the chunk size for bulk edge statements.
const DefaultBatchSize = 100

// TypeResolver maps a type's simple name, in the context of one file, to its
// FQN. The pipeline closes this over the per-file import maps and the symbol
// table; when it yields nothing the writer falls back to by-name binding.
type TypeResolver func(file *model.ParsedFile, typeName string) (string, bool)

// PrimitiveFilter reports whether typeName is a built-in primitive for the
// file's language; primitives never receive USES/RETURNS edges.
type PrimitiveFilter func(lang model.Language, typeName string) bool

// FileError records one per-file write failure; the pass continues past it.
type FileError struct {
	FilePath string
	Message  string
}

// WriteResult is the user-visible outcome of a pass (§7): counts plus the
// per-file errors collected along the way.
type WriteResult struct {
	NodesCreated         int
	RelationshipsCreated int
	FilesProcessed       int
	Errors               []FileError
}

// Writer projects ResolvedFiles onto the graph. All mutable fields are
// per-pass state, reset at the start of every pass (§9); a Writer instance
// must not be shared across concurrent passes.
type Writer struct {
	client      *Client
	logger      *slog.Logger
	batchSize   int
	resolveType TypeResolver
	isPrimitive PrimitiveFilter

	// per-pass state
	projectPath string
	moduleSep   string
	moduleCache map[string]string // filePath -> module path, valid for one pass
	curPkg      string            // effective package of the file being written
	acc         *Accumulator
	result      WriteResult
}

// WriterOption customizes a Writer.
type WriterOption func(*Writer)

// WithBatchSize overrides the default bulk-edge chunk size.
func WithBatchSize(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// NewWriter returns a Writer bound to client. resolveType and isPrimitive
// may be nil; the writer then binds every type edge by name and filters
// nothing.
func NewWriter(client *Client, resolveType TypeResolver, isPrimitive PrimitiveFilter, logger *slog.Logger, opts ...WriterOption) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		client:      client,
		logger:      logger,
		batchSize:   DefaultBatchSize,
		resolveType: resolveType,
		isPrimitive: isPrimitive,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Pass describes one write pass.
type Pass struct {
	ProjectPath  string
	ProjectName  string
	Files        []model.ResolvedFile
	ModuleOpts   modulepath.Options
	Domains      []model.Domain
	Dependencies []model.DomainDependency
}

// WritePass projects one project's resolved files onto the graph: project,
// packages and modules first, then per-file declarations, then bulk edges,
// then domains. Per-file failures are recorded and skipped; only transport
// or project-level failures abort the pass.
func (w *Writer) WritePass(ctx context.Context, pass Pass) (*WriteResult, error) {
	w.projectPath = pass.ProjectPath
	w.moduleSep = pass.ModuleOpts.Separator
	if w.moduleSep == "" {
		w.moduleSep = "/"
	}
	w.moduleCache = make(map[string]string)
	w.acc = NewAccumulator()
	w.result = WriteResult{}

	if err := w.writeProject(ctx, pass); err != nil {
		return nil, err
	}
	if err := w.writeContainers(ctx, pass); err != nil {
		return nil, err
	}

	for i := range pass.Files {
		rf := &pass.Files[i]
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.writeFile(ctx, rf); err != nil {
			w.result.Errors = append(w.result.Errors, FileError{FilePath: rf.File.FilePath, Message: err.Error()})
			w.logger.Warn("file write failed, continuing", "file", rf.File.FilePath, "error", err)
			continue
		}
		w.result.FilesProcessed++
	}

	if err := w.flushBulkEdges(ctx); err != nil {
		return nil, err
	}
	if err := w.writeDomains(ctx, pass); err != nil {
		return nil, err
	}

	w.logger.Info("write pass complete",
		"project", pass.ProjectPath,
		"files", w.result.FilesProcessed,
		"nodes_created", w.result.NodesCreated,
		"relationships_created", w.result.RelationshipsCreated,
		"file_errors", len(w.result.Errors))
	out := w.result
	return &out, nil
}

// run executes one statement and folds its counters into the pass result.
func (w *Writer) run(ctx context.Context, cypher string, params map[string]any) error {
	summary, err := w.client.write(ctx, cypher, params)
	if err != nil {
		return err
	}
	counters := summary.Counters()
	w.result.NodesCreated += counters.NodesCreated()
	w.result.RelationshipsCreated += counters.RelationshipsCreated()
	return nil
}

func (w *Writer) writeProject(ctx context.Context, pass Pass) error {
	err := w.run(ctx,
		"MERGE (p:Project {path: $path}) SET p.name = $name",
		map[string]any{"path": pass.ProjectPath, "name": pass.ProjectName})
	if err != nil {
		return fmt.Errorf("graph: write project %s: %w", pass.ProjectPath, err)
	}
	return nil
}

// writeContainers creates every Package and Module node before any file is
// written, so per-file CONTAINS edges always find their container (§5
// ordering guarantees).
func (w *Writer) writeContainers(ctx context.Context, pass Pass) error {
	packages := make(map[string]struct{})
	var packageless []string
	for i := range pass.Files {
		f := pass.Files[i].File
		if f.Package != "" {
			packages[f.Package] = struct{}{}
		} else {
			packageless = append(packageless, f.FilePath)
			if mp, ok := modulepath.Infer(f.FilePath, pass.ModuleOpts); ok {
				w.moduleCache[f.FilePath] = mp
			}
		}
	}

	if len(packages) > 0 {
		rows := make([]map[string]any, 0, len(packages))
		for name := range packages {
			rows = append(rows, map[string]any{"name": name})
		}
		sortRows(rows, "name")
		err := w.run(ctx, `
			UNWIND $rows AS row
			MATCH (p:Project {path: $project})
			MERGE (pk:Package {name: row.name})
			SET pk.projectPath = $project
			MERGE (p)-[:CONTAINS]->(pk)`,
			map[string]any{"rows": rows, "project": pass.ProjectPath})
		if err != nil {
			return fmt.Errorf("graph: write packages: %w", err)
		}
	}

	paths := modulepath.CollectModulePaths(packageless, pass.ModuleOpts)
	if len(paths) == 0 {
		return nil
	}
	sep := pass.ModuleOpts.Separator
	if sep == "" {
		sep = "/"
	}
	tree := modulepath.BuildModuleHierarchy(paths, sep)

	var nodeRows []map[string]any
	for p := range paths {
		nodeRows = append(nodeRows, map[string]any{"path": p, "name": lastSegmentAfter(p, sep)})
	}
	sortRows(nodeRows, "path")
	err := w.run(ctx, `
		UNWIND $rows AS row
		MERGE (m:Module {path: row.path})
		SET m.name = row.name, m.projectPath = $project`,
		map[string]any{"rows": nodeRows, "project": pass.ProjectPath})
	if err != nil {
		return fmt.Errorf("graph: write modules: %w", err)
	}

	var topRows, childRows []map[string]any
	for parent, children := range tree {
		for _, child := range children {
			if parent == "" {
				topRows = append(topRows, map[string]any{"path": child})
			} else {
				childRows = append(childRows, map[string]any{"parent": parent, "path": child})
			}
		}
	}
	sortRows(topRows, "path")
	sortRows(childRows, "path")
	if len(topRows) > 0 {
		err = w.run(ctx, `
			UNWIND $rows AS row
			MATCH (p:Project {path: $project})
			MATCH (m:Module {path: row.path})
			MERGE (p)-[:CONTAINS]->(m)`,
			map[string]any{"rows": topRows, "project": pass.ProjectPath})
		if err != nil {
			return fmt.Errorf("graph: write top-level module containment: %w", err)
		}
	}
	if len(childRows) > 0 {
		err = w.run(ctx, `
			UNWIND $rows AS row
			MATCH (parent:Module {path: row.parent})
			MATCH (child:Module {path: row.path})
			MERGE (parent)-[:CONTAINS]->(child)`,
			map[string]any{"rows": childRows})
		if err != nil {
			return fmt.Errorf("graph: write module hierarchy: %w", err)
		}
	}
	return nil
}

// flushBulkEdges submits the accumulated CALLS/USES/RETURNS edges as one
// parameterized statement per chunk. Edges whose endpoints were never
// materialized (stdlib callees, unknown types) simply match nothing and are
// skipped by the database.
func (w *Writer) flushBulkEdges(ctx context.Context) error {
	for _, batch := range chunk(w.acc.Calls, w.batchSize) {
		err := w.run(ctx, `
			UNWIND $rows AS row
			MATCH (a:Function {fqn: row.from})
			MATCH (b:Function {fqn: row.to})
			MERGE (a)-[c:CALLS]->(b)
			ON CREATE SET c.count = row.count
			ON MATCH SET c.count = c.count + row.count`,
			map[string]any{"rows": callParams(batch)})
		if err != nil {
			return fmt.Errorf("graph: write CALLS batch: %w", err)
		}
	}

	var usesByFQN, usesByName []UseEdge
	for _, e := range w.acc.Uses {
		if e.TargetFQN != "" {
			usesByFQN = append(usesByFQN, e)
		} else {
			usesByName = append(usesByName, e)
		}
	}
	for _, batch := range chunk(usesByFQN, w.batchSize) {
		err := w.run(ctx, `
			UNWIND $rows AS row
			MATCH (f:Function {fqn: row.from})
			MATCH (t) WHERE (t:Class OR t:Interface) AND t.fqn = row.fqn
			MERGE (f)-[u:USES]->(t)
			ON CREATE SET u.context = row.context`,
			map[string]any{"rows": useParams(batch)})
		if err != nil {
			return fmt.Errorf("graph: write USES batch: %w", err)
		}
	}
	for _, batch := range chunk(usesByName, w.batchSize) {
		err := w.run(ctx, `
			UNWIND $rows AS row
			MATCH (f:Function {fqn: row.from})
			MATCH (t) WHERE (t:Class OR t:Interface) AND t.name = row.name
			MERGE (f)-[u:USES]->(t)
			ON CREATE SET u.context = row.context`,
			map[string]any{"rows": useParams(batch)})
		if err != nil {
			return fmt.Errorf("graph: write USES batch: %w", err)
		}
	}

	for _, batch := range chunk(w.acc.Returns, w.batchSize) {
		err := w.run(ctx, `
			UNWIND $rows AS row
			MATCH (f:Function {fqn: row.from})
			MATCH (t) WHERE (t:Class OR t:Interface) AND t.name = row.name
			MERGE (f)-[:RETURNS]->(t)`,
			map[string]any{"rows": returnParams(batch)})
		if err != nil {
			return fmt.Errorf("graph: write RETURNS batch: %w", err)
		}
	}
	return nil
}

func (w *Writer) writeDomains(ctx context.Context, pass Pass) error {
	if len(pass.Domains) == 0 {
		return nil
	}
	var domainRows []map[string]any
	var ownsRows []map[string]any
	for _, d := range pass.Domains {
		domainRows = append(domainRows, map[string]any{"name": d.Name, "description": d.Description})
		for _, pkg := range d.MatchedPackages {
			ownsRows = append(ownsRows, map[string]any{"domain": d.Name, "package": pkg})
		}
	}
	err := w.run(ctx, `
		UNWIND $rows AS row
		MATCH (p:Project {path: $project})
		MERGE (d:Domain {name: row.name})
		SET d.description = row.description, d.projectPath = $project
		MERGE (p)-[:HAS_DOMAIN]->(d)`,
		map[string]any{"rows": domainRows, "project": pass.ProjectPath})
	if err != nil {
		return fmt.Errorf("graph: write domains: %w", err)
	}
	if len(ownsRows) > 0 {
		err = w.run(ctx, `
			UNWIND $rows AS row
			MATCH (d:Domain {name: row.domain})
			MATCH (pk:Package {name: row.package})
			MERGE (d)-[:OWNS]->(pk)`,
			map[string]any{"rows": ownsRows})
		if err != nil {
			return fmt.Errorf("graph: write domain ownership: %w", err)
		}
	}
	if len(pass.Dependencies) > 0 {
		depRows := make([]map[string]any, 0, len(pass.Dependencies))
		for _, dep := range pass.Dependencies {
			depRows = append(depRows, map[string]any{"from": dep.FromDomain, "to": dep.ToDomain, "weight": dep.Weight})
		}
		err = w.run(ctx, `
			UNWIND $rows AS row
			MATCH (a:Domain {name: row.from})
			MATCH (b:Domain {name: row.to})
			MERGE (a)-[r:DEPENDS_ON]->(b)
			SET r.weight = row.weight`,
			map[string]any{"rows": depRows})
		if err != nil {
			return fmt.Errorf("graph: write domain dependencies: %w", err)
		}
	}
	return nil
}

// ClearProject deletes every node whose filePath lies under projectPath,
// then the project node itself and its directly attached Package, Module and
// Domain nodes (§4.7 scoped clearing).
func (w *Writer) ClearProject(ctx context.Context, projectPath string) error {
	w.result = WriteResult{}
	err := w.run(ctx,
		"MATCH (n) WHERE n.filePath STARTS WITH $root DETACH DELETE n",
		map[string]any{"root": projectPath})
	if err != nil {
		return fmt.Errorf("graph: clear project files %s: %w", projectPath, err)
	}
	err = w.run(ctx, `
		MATCH (p:Project {path: $root})
		OPTIONAL MATCH (p)-[:CONTAINS|HAS_DOMAIN]->(c)
		WHERE c:Package OR c:Module OR c:Domain
		DETACH DELETE p, c`,
		map[string]any{"root": projectPath})
	if err != nil {
		return fmt.Errorf("graph: clear project node %s: %w", projectPath, err)
	}
	w.logger.Info("cleared project scope", "project", projectPath)
	return nil
}

// ClearAll deletes every node carrying any code-graph label.
func (w *Writer) ClearAll(ctx context.Context) error {
	w.result = WriteResult{}
	for _, label := range codeLabels {
		err := w.run(ctx, fmt.Sprintf("MATCH (n:%s) DETACH DELETE n", label), nil)
		if err != nil {
			return fmt.Errorf("graph: clear label %s: %w", label, err)
		}
	}
	w.logger.Info("cleared all code-graph labels")
	return nil
}

func sortRows(rows []map[string]any, key string) {
	sort.Slice(rows, func(i, j int) bool {
		a, _ := rows[i][key].(string)
		b, _ := rows[j][key].(string)
		return a < b
	})
}

func lastSegmentAfter(p, sep string) string {
	for i := len(p) - len(sep); i >= 0; i-- {
		if p[i:i+len(sep)] == sep {
			return p[i+len(sep):]
		}
	}
	return p
}
