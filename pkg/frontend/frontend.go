// Package frontend implements the per-language frontends of §4.1: each
// converts source text into the shared model.ParsedFile using a concrete
// syntax tree produced by a per-language tree-sitter grammar. Frontends are
// independent of each other but all emit the same uniform model.
package frontend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codegraph/codegraph/pkg/model"
	"github.com/codegraph/codegraph/pkg/parser"
)

// Frontend parses one file's source text into a ParsedFile. It fails with
// *model.ParseError only on unrecoverable errors; partial trees (missing
// subtrees producing empty child lists) are not failures.
type Frontend interface {
	Language() model.Language
	Parse(ctx context.Context, source []byte, path string) (*model.ParsedFile, error)
}

// Registry dispatches to the right Frontend by detected language, the way a
// real indexing run resolves one file at a time.
type Registry struct {
	parserManager *parser.ParserManager
	frontends     map[model.Language]Frontend
	logger        *slog.Logger
}

// NewRegistry builds the registry with all four supported frontends wired
// to a shared ParserManager (so every language reuses the same pooled
// tree-sitter parsers, per §5's worker-pool sizing).
func NewRegistry(pm *parser.ParserManager, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{parserManager: pm, logger: logger, frontends: make(map[model.Language]Frontend)}
	r.frontends[model.LangTypeScript] = NewTypeScriptFrontend(pm, logger)
	r.frontends[model.LangJavaScript] = NewJavaScriptFrontend(pm, logger)
	r.frontends[model.LangJava] = NewJavaFrontend(pm, logger)
	r.frontends[model.LangKotlin] = NewKotlinFrontend(pm, logger)
	return r
}

// ParseFile detects the language from the file path and dispatches to the
// matching Frontend.
func (r *Registry) ParseFile(ctx context.Context, source []byte, path string) (*model.ParsedFile, error) {
	lang := detectModelLanguage(path)
	fe, ok := r.frontends[lang]
	if !ok {
		return nil, &model.ParseError{Path: path, Reason: fmt.Sprintf("unsupported language for file: %s", path)}
	}
	return fe.Parse(ctx, source, path)
}

func detectModelLanguage(path string) model.Language {
	switch parser.DetectLanguage(path) {
	case parser.LanguageTypeScript:
		return model.LangTypeScript
	case parser.LanguageJavaScript:
		return model.LangJavaScript
	case parser.LanguageJava:
		return model.LangJava
	case parser.LanguageKotlin:
		return model.LangKotlin
	default:
		return model.LangUnknown
	}
}

func toParserLanguage(lang model.Language) parser.Language {
	switch lang {
	case model.LangTypeScript:
		return parser.LanguageTypeScript
	case model.LangJavaScript:
		return parser.LanguageJavaScript
	case model.LangJava:
		return parser.LanguageJava
	case model.LangKotlin:
		return parser.LanguageKotlin
	default:
		return parser.LanguageUnknown
	}
}
