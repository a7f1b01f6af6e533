// Package astutil is the shared AST-visitation utility layer the language
// frontends build on (§4.1): generic child-walking, field-based lookups, and
// source-location extraction factored out of per-language duplication.
package astutil

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph/codegraph/pkg/model"
)

// Text returns the verbatim source text spanned by node.
func Text(node *ts.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(node.Utf8Text(source))
}

// FieldText returns the text of node's field named field, or "" if absent.
func FieldText(node *ts.Node, field string, source []byte) string {
	if node == nil {
		return ""
	}
	child := node.ChildByFieldName(field)
	return Text(child, source)
}

// Loc derives a model.Location from a tree-sitter node.
func Loc(node *ts.Node, filePath string) model.Location {
	if node == nil {
		return model.Location{FilePath: filePath}
	}
	start := node.StartPosition()
	end := node.EndPosition()
	return model.Location{
		FilePath:    filePath,
		StartLine:   uint32(start.Row) + 1,
		StartColumn: uint32(start.Column) + 1,
		EndLine:     uint32(end.Row) + 1,
		EndColumn:   uint32(end.Column) + 1,
		StartByte:   uint32(node.StartByte()),
		EndByte:     uint32(node.EndByte()),
	}
}

// Children returns every direct named child of node.
func Children(node *ts.Node) []*ts.Node {
	if node == nil {
		return nil
	}
	n := node.NamedChildCount()
	out := make([]*ts.Node, 0, n)
	for i := uint(0); i < n; i++ {
		if c := node.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// FindChildrenByKind returns every direct named child whose Kind() is in kinds.
func FindChildrenByKind(node *ts.Node, kinds ...string) []*ts.Node {
	var out []*ts.Node
	for _, c := range Children(node) {
		if containsKind(kinds, c.Kind()) {
			out = append(out, c)
		}
	}
	return out
}

// FindFirstChildByKind returns the first direct named child whose Kind() is
// in kinds, or nil.
func FindFirstChildByKind(node *ts.Node, kinds ...string) *ts.Node {
	for _, c := range Children(node) {
		if containsKind(kinds, c.Kind()) {
			return c
		}
	}
	return nil
}

// Walk visits node and every descendant (named nodes only), calling visit on
// each. Returning false from visit skips that node's children (but not its
// siblings).
func Walk(node *ts.Node, visit func(*ts.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for _, c := range Children(node) {
		Walk(c, visit)
	}
}

// WalkUntil visits node and descendants, stopping the descent at any node
// whose Kind() is in boundary (boundary nodes themselves are still visited,
// used to stop a call-site walk from crossing into a nested function body).
func WalkUntil(node *ts.Node, boundary []string, visit func(*ts.Node)) {
	Walk(node, func(n *ts.Node) bool {
		visit(n)
		return !containsKind(boundary, n.Kind())
	})
}

func containsKind(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// StripGenerics removes a trailing `<...>` type-argument list.
func StripGenerics(typeName string) string {
	depth := 0
	for i, r := range typeName {
		switch r {
		case '<':
			if depth == 0 {
				return typeName[:i]
			}
			depth++
		case '>':
			depth--
		}
	}
	return typeName
}

// StripNullable removes a trailing `?` nullability marker.
func StripNullable(typeName string) string {
	if len(typeName) > 0 && typeName[len(typeName)-1] == '?' {
		return typeName[:len(typeName)-1]
	}
	return typeName
}

// NormalizeType strips generics and nullability and trims whitespace, per
// the resolver's normalization helpers (§4.6).
func NormalizeType(typeName string) string {
	t := StripNullable(trimSpace(StripGenerics(trimSpace(typeName))))
	return t
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
