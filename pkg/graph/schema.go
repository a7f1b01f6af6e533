package graph

import (
	"context"
	"fmt"
)

// codeLabels is every node label the writer emits. Used by schema creation
// and by unscoped clearing.
var codeLabels = []string{
	"Project", "Package", "Module", "Class", "Interface", "Object",
	"Function", "Property", "Parameter", "Annotation", "TypeAlias",
	"Constructor", "Reexport", "Domain",
}

// fqnLabels are the code-level labels whose uniqueness constraint keys on fqn.
var fqnLabels = []string{
	"Class", "Interface", "Object", "Function", "Property", "Parameter",
	"TypeAlias", "Constructor", "Reexport",
}

// indexedLabels get the secondary indexes (§6): projectPath, filePath, name,
// visibility, where applicable.
var indexedLabels = []string{
	"Class", "Interface", "Object", "Function", "Property", "TypeAlias",
}

// EnsureSchema creates the per-label uniqueness constraints and secondary
// indexes if they do not exist. Idempotent; a failure here indicates a
// misconfigured database and is fatal (§7).
func (c *Client) EnsureSchema(ctx context.Context) error {
	statements := []string{
		"CREATE CONSTRAINT project_path_unique IF NOT EXISTS FOR (n:Project) REQUIRE n.path IS UNIQUE",
		"CREATE CONSTRAINT package_name_unique IF NOT EXISTS FOR (n:Package) REQUIRE n.name IS UNIQUE",
		"CREATE CONSTRAINT module_path_unique IF NOT EXISTS FOR (n:Module) REQUIRE n.path IS UNIQUE",
		"CREATE CONSTRAINT annotation_name_unique IF NOT EXISTS FOR (n:Annotation) REQUIRE n.name IS UNIQUE",
		"CREATE CONSTRAINT domain_name_unique IF NOT EXISTS FOR (n:Domain) REQUIRE n.name IS UNIQUE",
	}
	for _, label := range fqnLabels {
		statements = append(statements, fmt.Sprintf(
			"CREATE CONSTRAINT %s_fqn_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.fqn IS UNIQUE",
			lowerFirst(label), label))
	}
	for _, label := range indexedLabels {
		for _, prop := range []string{"projectPath", "filePath", "name", "visibility"} {
			statements = append(statements, fmt.Sprintf(
				"CREATE INDEX %s_%s_idx IF NOT EXISTS FOR (n:%s) ON (n.%s)",
				lowerFirst(label), prop, label, prop))
		}
	}

	for _, stmt := range statements {
		if _, err := c.write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("graph: ensure schema: %w", err)
		}
	}
	c.logger.Info("graph schema ensured", "constraints", 5+len(fqnLabels), "indexes", len(indexedLabels)*4)
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
