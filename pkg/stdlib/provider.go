// Package stdlib implements the Standard-Library Provider Registry (§4.3):
// synthetic symbols for names referenced in source but never declared
// there — built-in types, global functions, instance/static methods.
// Providers are data, not classes (§9): each one is loaded from an embedded
// YAML fixture rather than hand-written Go per builtin.
package stdlib

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/codegraph/codegraph/pkg/model"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Provider returns synthetic symbols for names that have no definition in
// the indexed sources but are referenced from it.
type Provider interface {
	Languages() []model.Language
	DefaultWildcardImports() []string
	LookupFunction(name string) *model.Symbol
	LookupClass(name string) *model.Symbol
	LookupStaticMethod(qualified string) *model.Symbol
	IsKnownSymbol(name string) bool
	// IsPrimitive reports whether name is a built-in primitive type, filtered
	// out of any relationship that would otherwise create a USES edge.
	IsPrimitive(name string) bool
}

// fixture is the on-disk shape of one provider's YAML data file.
type fixture struct {
	Language        string   `yaml:"language"`
	WildcardImports []string `yaml:"wildcardImports"`
	Primitives      []string `yaml:"primitives"`
	Functions       []string `yaml:"functions"`
	Classes         []string `yaml:"classes"`
	StaticMethods   []string `yaml:"staticMethods"` // "Type.method" spellings
}

// dataProvider is a single-language provider backed by fixture data.
type dataProvider struct {
	lang            model.Language
	wildcardImports []string
	primitives      map[string]struct{}
	functions       map[string]*model.Symbol
	classes         map[string]*model.Symbol
	staticMethods   map[string]*model.Symbol
}

func loadFixture(name string, lang model.Language) (*dataProvider, error) {
	raw, err := dataFS.ReadFile("data/" + name)
	if err != nil {
		return nil, fmt.Errorf("stdlib: read fixture %s: %w", name, err)
	}
	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("stdlib: parse fixture %s: %w", name, err)
	}

	dp := &dataProvider{
		lang:            lang,
		wildcardImports: fx.WildcardImports,
		primitives:      make(map[string]struct{}, len(fx.Primitives)),
		functions:       make(map[string]*model.Symbol, len(fx.Functions)),
		classes:         make(map[string]*model.Symbol, len(fx.Classes)),
		staticMethods:   make(map[string]*model.Symbol, len(fx.StaticMethods)),
	}
	for _, p := range fx.Primitives {
		dp.primitives[p] = struct{}{}
	}
	for _, fn := range fx.Functions {
		dp.functions[fn] = syntheticFunction(fn, "", lang)
	}
	for _, cls := range fx.Classes {
		dp.classes[cls] = syntheticClass(cls, lang)
	}
	for _, sm := range fx.StaticMethods {
		owner, method := splitQualified(sm)
		dp.staticMethods[sm] = syntheticFunction(method, owner, lang)
	}
	return dp, nil
}

func (p *dataProvider) Languages() []model.Language      { return []model.Language{p.lang} }
func (p *dataProvider) DefaultWildcardImports() []string { return p.wildcardImports }

func (p *dataProvider) LookupFunction(name string) *model.Symbol {
	if s, ok := p.functions[name]; ok {
		return s
	}
	return nil
}

func (p *dataProvider) LookupClass(name string) *model.Symbol {
	if s, ok := p.classes[name]; ok {
		return s
	}
	return nil
}

func (p *dataProvider) LookupStaticMethod(qualified string) *model.Symbol {
	if s, ok := p.staticMethods[qualified]; ok {
		return s
	}
	return nil
}

func (p *dataProvider) IsKnownSymbol(name string) bool {
	if _, ok := p.functions[name]; ok {
		return true
	}
	if _, ok := p.classes[name]; ok {
		return true
	}
	return false
}

func (p *dataProvider) IsPrimitive(name string) bool {
	_, ok := p.primitives[name]
	return ok
}

func syntheticFunction(name, declaringType string, lang model.Language) *model.Symbol {
	fqn := name
	if declaringType != "" {
		fqn = declaringType + "." + name
	}
	return &model.Symbol{
		Kind:             model.SymbolFunction,
		SimpleName:       name,
		FQN:              "<stdlib:" + lang.String() + ">." + fqn,
		DeclaringTypeFQN: declaringType,
	}
}

func syntheticClass(name string, lang model.Language) *model.Symbol {
	return &model.Symbol{
		Kind:       model.SymbolClass,
		SimpleName: name,
		FQN:        "<stdlib:" + lang.String() + ">." + name,
	}
}

func splitQualified(s string) (owner, member string) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[:i], s[i+1:]
		}
	}
	return "", s
}
