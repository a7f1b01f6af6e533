// Package model holds the language-neutral data model produced by the
// language frontends and consumed by every later stage of the pipeline.
package model

import "fmt"

// Language identifies one of the four supported source languages.
type Language int

const (
	LangUnknown Language = iota
	LangKotlin
	LangJava
	LangTypeScript
	LangJavaScript
)

func (l Language) String() string {
	switch l {
	case LangKotlin:
		return "kotlin"
	case LangJava:
		return "java"
	case LangTypeScript:
		return "typescript"
	case LangJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// IsJVM reports whether l shares the JVM standard library surface.
func (l Language) IsJVM() bool {
	return l == LangKotlin || l == LangJava
}

// Location is a source-location record: every entity in the model carries
// one. Line/column are 1-based; byte offsets are 0-based, matching the
// convention tree-sitter nodes already use.
type Location struct {
	FilePath    string
	StartLine   uint32
	StartColumn uint32
	EndLine     uint32
	EndColumn   uint32
	StartByte   uint32
	EndByte     uint32
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.StartLine, l.StartColumn)
}

// ParseError is returned by a Frontend only for unrecoverable reads;
// partial parse trees are not errors.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Reason)
}
