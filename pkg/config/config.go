// Package config defines the indexer's option set (§6). Library code takes
// an Options value; only the CLI boundary reads the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultSourceRoots are the source-root prefixes stripped during
// module-path inference when none are configured.
var DefaultSourceRoots = []string{"src", "lib", "app"}

// Options configures one indexing pass. Zero-valued fields take the
// documented defaults via Default / ApplyDefaults.
type Options struct {
	// ProjectPath is the root of the repository to index. Required.
	ProjectPath string
	// ProjectName defaults to the base name of ProjectPath.
	ProjectName string

	// ClearBefore scopes-clears the project from the graph before writing.
	ClearBefore bool
	// EnsureSchema creates uniqueness constraints and indexes before the
	// first write. Idempotent.
	EnsureSchema bool

	// BatchSize is the bulk-edge chunk size. Default 100.
	BatchSize int

	// AnalyzeDomains enables the domain-analysis pass. Default true.
	AnalyzeDomains bool
	// DomainsConfigPath points at the optional domain-configuration
	// document; empty means no configured domains.
	DomainsConfigPath string

	// SourceRoots are stripped during module-path inference. Default
	// ["src", "lib", "app"].
	SourceRoots []string

	// Graph store address and credentials.
	GraphURI      string
	GraphUser     string
	GraphPassword string

	// WriteTimeout bounds each database write transaction.
	WriteTimeout time.Duration

	// Workers overrides the worker-pool size for the parse and resolve
	// stages; zero means the CPU-derived default.
	Workers int
}

// Default returns an Options with every documented default applied, ready
// for the caller to set ProjectPath and credentials.
func Default() Options {
	return Options{
		EnsureSchema:   true,
		BatchSize:      100,
		AnalyzeDomains: true,
		SourceRoots:    append([]string(nil), DefaultSourceRoots...),
		GraphURI:       "bolt://localhost:7687",
		GraphUser:      "neo4j",
	}
}

// ApplyDefaults fills unset fields with the documented defaults.
func (o *Options) ApplyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if len(o.SourceRoots) == 0 {
		o.SourceRoots = append([]string(nil), DefaultSourceRoots...)
	}
	if o.ProjectName == "" && o.ProjectPath != "" {
		o.ProjectName = filepath.Base(o.ProjectPath)
	}
}

// Validate rejects configurations the pipeline cannot start with (§7:
// configuration errors are fatal and raised before any pass begins).
func (o *Options) Validate() error {
	if o.ProjectPath == "" {
		return fmt.Errorf("config: project path is required")
	}
	info, err := os.Stat(o.ProjectPath)
	if err != nil {
		return fmt.Errorf("config: project path %s: %w", o.ProjectPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("config: project path %s is not a directory", o.ProjectPath)
	}
	if o.GraphURI == "" {
		return fmt.Errorf("config: graph URI is required")
	}
	if o.DomainsConfigPath != "" {
		if _, err := os.Stat(o.DomainsConfigPath); err != nil {
			return fmt.Errorf("config: domains config %s: %w", o.DomainsConfigPath, err)
		}
	}
	return nil
}

// FromEnv overlays graph credentials from the process environment
// (NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD). The CLI loads a .env file
// first; library code never calls this.
func (o *Options) FromEnv() {
	if v := os.Getenv("NEO4J_URI"); v != "" {
		o.GraphURI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		o.GraphUser = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		o.GraphPassword = v
	}
}
