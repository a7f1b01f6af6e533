// Package domain implements the Domain Analyzer (§4.8): it assigns packages
// to named bounded contexts from an optional configuration document and
// computes inter-domain dependency weights from the resolved call graph.
package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec is one configured domain record: a name, an optional description, and
// the package patterns that bound it.
type Spec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Patterns    []string `yaml:"patterns"`
}

// Config is the domain-configuration document.
type Config struct {
	Domains []Spec `yaml:"domains"`
}

// LoadConfig reads and validates a domain-configuration document. Any
// failure here is a configuration error (§7): fatal, raised before the pass
// begins.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("domain: read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("domain: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("domain: invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the structural rules every config must satisfy: unique,
// non-empty names and at least one pattern per domain.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Domains))
	for i, d := range c.Domains {
		if d.Name == "" {
			return fmt.Errorf("domain %d has no name", i)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("duplicate domain name %q", d.Name)
		}
		seen[d.Name] = struct{}{}
		if len(d.Patterns) == 0 {
			return fmt.Errorf("domain %q has no patterns", d.Name)
		}
		for _, p := range d.Patterns {
			if p == "" {
				return fmt.Errorf("domain %q has an empty pattern", d.Name)
			}
		}
	}
	return nil
}
