package stdlib

import "github.com/codegraph/codegraph/pkg/model"

// CompositeProvider combines multiple underlying providers in order; the
// first one to resolve a lookup wins (§4.3, §9 — "no inheritance tree;
// providers are data"). This is how a JVM language composes its own stdlib
// with the shared JVM stdlib.
type CompositeProvider struct {
	providers []Provider
}

// NewComposite returns a CompositeProvider trying each provider in order.
func NewComposite(providers ...Provider) *CompositeProvider {
	return &CompositeProvider{providers: providers}
}

func (c *CompositeProvider) Languages() []model.Language {
	seen := make(map[model.Language]struct{})
	var out []model.Language
	for _, p := range c.providers {
		for _, l := range p.Languages() {
			if _, ok := seen[l]; !ok {
				seen[l] = struct{}{}
				out = append(out, l)
			}
		}
	}
	return out
}

func (c *CompositeProvider) DefaultWildcardImports() []string {
	var out []string
	for _, p := range c.providers {
		out = append(out, p.DefaultWildcardImports()...)
	}
	return out
}

func (c *CompositeProvider) LookupFunction(name string) *model.Symbol {
	for _, p := range c.providers {
		if s := p.LookupFunction(name); s != nil {
			return s
		}
	}
	return nil
}

func (c *CompositeProvider) LookupClass(name string) *model.Symbol {
	for _, p := range c.providers {
		if s := p.LookupClass(name); s != nil {
			return s
		}
	}
	return nil
}

func (c *CompositeProvider) LookupStaticMethod(qualified string) *model.Symbol {
	for _, p := range c.providers {
		if s := p.LookupStaticMethod(qualified); s != nil {
			return s
		}
	}
	return nil
}

func (c *CompositeProvider) IsKnownSymbol(name string) bool {
	for _, p := range c.providers {
		if p.IsKnownSymbol(name) {
			return true
		}
	}
	return false
}

func (c *CompositeProvider) IsPrimitive(name string) bool {
	for _, p := range c.providers {
		if p.IsPrimitive(name) {
			return true
		}
	}
	return false
}
