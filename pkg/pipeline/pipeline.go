// Package pipeline orchestrates a whole-project indexing pass (§2): file
// discovery, parallel parsing, symbol-table construction, import-map
// building, parallel resolution, domain analysis, and the sequential graph
// write. The pipeline is single-writer, single-reader per project;
// parallelism lives inside the parse and resolve stages (§5).
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codegraph/codegraph/pkg/config"
	"github.com/codegraph/codegraph/pkg/domain"
	"github.com/codegraph/codegraph/pkg/frontend"
	"github.com/codegraph/codegraph/pkg/graph"
	"github.com/codegraph/codegraph/pkg/importmap"
	"github.com/codegraph/codegraph/pkg/model"
	"github.com/codegraph/codegraph/pkg/modulepath"
	"github.com/codegraph/codegraph/pkg/parser"
	"github.com/codegraph/codegraph/pkg/resolver"
	"github.com/codegraph/codegraph/pkg/stdlib"
	"github.com/codegraph/codegraph/pkg/symboltable"
	"github.com/codegraph/codegraph/pkg/util"
)

// parseCacheSize bounds the cross-pass parse-result cache.
const parseCacheSize = 4096

// FileError records one per-file failure during a pass.
type FileError struct {
	FilePath string
	Message  string
}

// Result is the user-visible outcome of one indexing pass (§7): counts of
// work done, resolution coverage, and every per-file error collected along
// the way.
type Result struct {
	PassID          string
	FilesDiscovered int
	FilesParsed     int
	ParseErrors     []FileError
	Resolution      resolver.ResolutionStats
	Write           *graph.WriteResult
	Domains         []model.Domain
	Dependencies    []model.DomainDependency
	DurationMs      int64
}

// Store is the write-side boundary the pipeline drives; graph.Writer plus
// its client satisfy it in production, and tests substitute an in-memory
// fake.
type Store interface {
	EnsureSchema(ctx context.Context) error
	ClearProject(ctx context.Context, projectPath string) error
	WritePass(ctx context.Context, pass graph.Pass) (*graph.WriteResult, error)
	Close(ctx context.Context) error
}

// StoreFactory builds the Store for one pass. resolveType and isPrimitive
// are constructed after the symbol table is frozen, which is why the store
// cannot be built at pipeline-construction time.
type StoreFactory func(ctx context.Context, opts config.Options, resolveType graph.TypeResolver, isPrimitive graph.PrimitiveFilter, logger *slog.Logger) (Store, error)

type neo4jStore struct {
	client *graph.Client
	writer *graph.Writer
}

func (s *neo4jStore) EnsureSchema(ctx context.Context) error { return s.client.EnsureSchema(ctx) }
func (s *neo4jStore) ClearProject(ctx context.Context, projectPath string) error {
	return s.writer.ClearProject(ctx, projectPath)
}
func (s *neo4jStore) WritePass(ctx context.Context, pass graph.Pass) (*graph.WriteResult, error) {
	return s.writer.WritePass(ctx, pass)
}
func (s *neo4jStore) Close(ctx context.Context) error { return s.client.Close(ctx) }

func newNeo4jStore(ctx context.Context, opts config.Options, resolveType graph.TypeResolver, isPrimitive graph.PrimitiveFilter, logger *slog.Logger) (Store, error) {
	client, err := graph.NewClient(ctx, graph.Config{
		URI:          opts.GraphURI,
		Username:     opts.GraphUser,
		Password:     opts.GraphPassword,
		WriteTimeout: opts.WriteTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	writer := graph.NewWriter(client, resolveType, isPrimitive, logger, graph.WithBatchSize(opts.BatchSize))
	return &neo4jStore{client: client, writer: writer}, nil
}

// parseEntry is one cached parse result, invalidated by content hash.
type parseEntry struct {
	hash string
	file *model.ParsedFile
}

// Pipeline runs whole-project indexing passes. Safe to reuse across passes;
// the parse cache carries over, keyed by content hash.
type Pipeline struct {
	opts      config.Options
	logger    *slog.Logger
	pm        *parser.ParserManager
	frontends *frontend.Registry
	stdlib    *stdlib.Registry

	fileCache  util.FileCache
	parseCache *lru.Cache[string, parseEntry]

	storeFactory StoreFactory
	scanOpts     ScanOptions
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithStoreFactory substitutes the graph-store constructor (used by tests).
func WithStoreFactory(f StoreFactory) Option {
	return func(p *Pipeline) { p.storeFactory = f }
}

// WithScanOptions overrides file-discovery patterns.
func WithScanOptions(so ScanOptions) Option {
	return func(p *Pipeline) { p.scanOpts = so }
}

// New builds a Pipeline for opts. The returned Pipeline must be closed via
// Close to release parser and file-cache resources.
func New(opts config.Options, logger *slog.Logger, popts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts.ApplyDefaults()

	stdlibReg, err := stdlib.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("pipeline: load stdlib providers: %w", err)
	}
	parseCache, err := lru.New[string, parseEntry](parseCacheSize)
	if err != nil {
		return nil, fmt.Errorf("pipeline: create parse cache: %w", err)
	}
	pm := parser.NewParserManager(logger)

	p := &Pipeline{
		opts:         opts,
		logger:       logger,
		pm:           pm,
		frontends:    frontend.NewRegistry(pm, logger),
		stdlib:       stdlibReg,
		fileCache:    util.NewFileCache(util.DefaultFileCacheConfig()),
		parseCache:   parseCache,
		storeFactory: newNeo4jStore,
		scanOpts:     DefaultScanOptions(),
	}
	for _, o := range popts {
		o(p)
	}
	return p, nil
}

// Close releases the parser pools and the memory-mapped file cache.
func (p *Pipeline) Close() error {
	if err := p.fileCache.Close(); err != nil {
		return err
	}
	return p.pm.Close()
}

// Run executes one full indexing pass. Configuration and schema failures
// are fatal; per-file parse and write failures are collected into the
// Result and never abort the pass (§7).
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	if err := p.opts.Validate(); err != nil {
		return nil, err
	}

	passID := uuid.NewString()
	logger := p.logger.With("pass_id", passID, "project", p.opts.ProjectPath)
	logger.Info("indexing pass starting")

	var domainCfg *domain.Config
	if p.opts.AnalyzeDomains && p.opts.DomainsConfigPath != "" {
		cfg, err := domain.LoadConfig(p.opts.DomainsConfigPath)
		if err != nil {
			return nil, err
		}
		domainCfg = cfg
	}

	files, err := discoverFiles(ctx, p.opts.ProjectPath, p.scanOpts, logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: file discovery: %w", err)
	}
	result := &Result{PassID: passID, FilesDiscovered: len(files)}
	logger.Info("file discovery complete", "files", len(files))

	// Stage: parse (worker pool, pure per file).
	parseOutcomes := runPool(ctx, files, p.opts.Workers, logger, p.parseFile)
	byPath := make(map[string]*model.ParsedFile, len(parseOutcomes))
	var parsedPaths []string
	for _, o := range parseOutcomes {
		if o.err != nil {
			result.ParseErrors = append(result.ParseErrors, FileError{FilePath: o.filePath, Message: o.err.Error()})
			continue
		}
		byPath[o.filePath] = o.value
		parsedPaths = append(parsedPaths, o.filePath)
	}
	sort.Strings(parsedPaths)
	result.FilesParsed = len(parsedPaths)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Info("parse stage complete", "parsed", result.FilesParsed, "parse_errors", len(result.ParseErrors))

	parsed := make([]*model.ParsedFile, 0, len(parsedPaths))
	for _, fp := range parsedPaths {
		parsed = append(parsed, byPath[fp])
	}

	// Stage: symbol table (single task over the parsed files).
	pkgOpts := modulepath.Options{
		ProjectRoot: p.opts.ProjectPath,
		SourceRoots: p.opts.SourceRoots,
		Separator:   ".",
	}
	modulePathFunc := func(filePath string) (string, bool) {
		return modulepath.Infer(filePath, pkgOpts)
	}
	table := symboltable.New(logger, modulePathFunc).Build(parsed)
	logger.Info("symbol table built", "symbols", len(table.ByFQN), "packages", len(table.ByPackage))

	// Stage: import maps, one per file.
	importMaps := make(map[string]*importmap.Map, len(parsed))
	for _, f := range parsed {
		importMaps[f.FilePath] = importmap.Build(f, p.resolveModuleSpecifier)
	}

	// Stage: resolve (worker pool against the frozen table).
	res := resolver.New(table, p.stdlib, logger)
	res.UseModulePaths(modulePathFunc)
	resolveOutcomes := runPool(ctx, parsedPaths, p.opts.Workers, logger,
		func(ctx context.Context, fp string) (model.ResolvedFile, error) {
			f := byPath[fp]
			calls := res.ResolveFile(f, importMaps[fp])
			return model.ResolvedFile{File: f, Calls: calls}, nil
		})
	resolvedFiles := make([]model.ResolvedFile, 0, len(resolveOutcomes))
	for _, o := range resolveOutcomes {
		resolvedFiles = append(resolvedFiles, o.value)
	}
	sort.Slice(resolvedFiles, func(i, j int) bool {
		return resolvedFiles[i].File.FilePath < resolvedFiles[j].File.FilePath
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.Resolution = resolver.GetResolutionStats(resolvedFiles)
	logger.Info("resolve stage complete",
		"total_calls", result.Resolution.TotalCalls,
		"resolved", result.Resolution.ResolvedCalls,
		"rate", fmt.Sprintf("%.2f", result.Resolution.ResolutionRate))

	// Stage: domain analysis.
	if domainCfg != nil {
		analyzer := domain.NewAnalyzer(logger)
		analyzer.UseModulePaths(modulePathFunc)
		result.Domains, result.Dependencies = analyzer.Analyze(domainCfg, resolvedFiles, table)
	}

	// Stage: write (sequential, owns the store exclusively).
	store, err := p.storeFactory(ctx, p.opts, p.typeResolver(table, importMaps), p.primitiveFilter(), logger)
	if err != nil {
		return nil, err
	}
	defer store.Close(ctx)

	if p.opts.EnsureSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}
	if p.opts.ClearBefore {
		if err := store.ClearProject(ctx, p.opts.ProjectPath); err != nil {
			return nil, err
		}
	}
	writeResult, err := store.WritePass(ctx, graph.Pass{
		ProjectPath: p.opts.ProjectPath,
		ProjectName: p.opts.ProjectName,
		Files:       resolvedFiles,
		ModuleOpts: modulepath.Options{
			ProjectRoot: p.opts.ProjectPath,
			SourceRoots: p.opts.SourceRoots,
		},
		Domains:      result.Domains,
		Dependencies: result.Dependencies,
	})
	if err != nil {
		return nil, err
	}
	result.Write = writeResult
	result.DurationMs = time.Since(start).Milliseconds()

	logger.Info("indexing pass complete",
		"files", result.FilesParsed,
		"nodes_created", writeResult.NodesCreated,
		"relationships_created", writeResult.RelationshipsCreated,
		"write_errors", len(writeResult.Errors),
		"duration_ms", result.DurationMs)
	return result, nil
}

// parseFile reads one file through the memory-mapped cache and parses it,
// reusing the prior pass's result when the content hash is unchanged.
func (p *Pipeline) parseFile(ctx context.Context, filePath string) (*model.ParsedFile, error) {
	mf, err := p.fileCache.Get(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	source := []byte(mf.Data)

	sum := sha256.Sum256(source)
	hash := hex.EncodeToString(sum[:])
	if entry, ok := p.parseCache.Get(filePath); ok && entry.hash == hash {
		return entry.file, nil
	}

	pf, err := p.frontends.ParseFile(ctx, source, filePath)
	if err != nil {
		return nil, err
	}
	p.parseCache.Add(filePath, parseEntry{hash: hash, file: pf})
	return pf, nil
}

// resolveModuleSpecifier rewrites a relative import specifier against the
// importing file's location, yielding the dotted FQN prefix of the target
// module (§4.5). Package-qualified specifiers never reach this: the import
// map retains them unchanged.
func (p *Pipeline) resolveModuleSpecifier(fromFile, specifier string) (string, bool) {
	dir := path.Dir(filepath.ToSlash(fromFile))
	target := path.Join(dir, specifier)
	return modulepath.Infer(target, modulepath.Options{
		ProjectRoot: p.opts.ProjectPath,
		SourceRoots: p.opts.SourceRoots,
		Separator:   ".",
	})
}

// typeResolver closes the writer's type binding over the frozen table and
// the per-file import maps: imports first, then same package, then a unique
// simple-name match.
func (p *Pipeline) typeResolver(table *model.SymbolTable, importMaps map[string]*importmap.Map) graph.TypeResolver {
	return func(f *model.ParsedFile, typeName string) (string, bool) {
		if im := importMaps[f.FilePath]; im != nil {
			if fqn, ok := im.SimpleNameToFQN[typeName]; ok {
				if _, known := table.ByFQN[fqn]; known {
					return fqn, true
				}
			}
		}
		if f.Package != "" {
			if sym, ok := table.ByFQN[f.Package+"."+typeName]; ok && sym.Kind.IsClassLike() {
				return sym.FQN, true
			}
		}
		var match *model.Symbol
		for _, sym := range table.ByName[typeName] {
			if !sym.Kind.IsClassLike() {
				continue
			}
			if match != nil {
				return "", false // ambiguous: fall back to by-name binding
			}
			match = sym
		}
		if match != nil {
			return match.FQN, true
		}
		return "", false
	}
}

func (p *Pipeline) primitiveFilter() graph.PrimitiveFilter {
	return func(lang model.Language, typeName string) bool {
		provider, err := p.stdlib.Get(lang)
		if err != nil {
			return false
		}
		return provider.IsPrimitive(typeName)
	}
}
