package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/pkg/model"
	"github.com/codegraph/codegraph/pkg/symboltable"
)

func twoDomainFixture(t *testing.T) (*Config, []model.ResolvedFile, *model.SymbolTable) {
	t.Helper()
	cfg := &Config{Domains: []Spec{
		{Name: "billing", Patterns: []string{"com.shop.billing.**", "com.shop.billing"}},
		{Name: "catalog", Patterns: []string{"com.shop.catalog"}},
	}}
	require.NoError(t, cfg.Validate())

	billing := &model.ParsedFile{
		FilePath: "/repo/src/billing/Invoice.kt",
		Language: model.LangKotlin,
		Package:  "com.shop.billing",
		Classes: []model.ParsedClass{{
			Name:      "InvoiceService",
			Functions: []model.ParsedFunction{{Name: "charge"}},
		}},
	}
	catalog := &model.ParsedFile{
		FilePath: "/repo/src/catalog/Products.kt",
		Language: model.LangKotlin,
		Package:  "com.shop.catalog",
		Classes: []model.ParsedClass{{
			Name:      "ProductRepository",
			Functions: []model.ParsedFunction{{Name: "find"}},
		}},
	}
	table := symboltable.New(nil, nil).Build([]*model.ParsedFile{billing, catalog})

	files := []model.ResolvedFile{
		{
			File: billing,
			Calls: []model.ResolvedCall{
				{FromFQN: "com.shop.billing.InvoiceService.charge", ToFQN: "com.shop.catalog.ProductRepository.find"},
				{FromFQN: "com.shop.billing.InvoiceService.charge", ToFQN: "com.shop.catalog.ProductRepository.find"},
			},
		},
		{File: catalog},
	}
	return cfg, files, table
}

func TestAnalyze_AssignsPackages(t *testing.T) {
	cfg, files, table := twoDomainFixture(t)
	domains, _ := NewAnalyzer(nil).Analyze(cfg, files, table)

	require.Len(t, domains, 2)
	assert.Equal(t, []string{"com.shop.billing"}, domains[0].MatchedPackages)
	assert.Equal(t, []string{"com.shop.catalog"}, domains[1].MatchedPackages)
}

func TestAnalyze_CountsCrossDomainWeights(t *testing.T) {
	cfg, files, table := twoDomainFixture(t)
	_, deps := NewAnalyzer(nil).Analyze(cfg, files, table)

	require.Len(t, deps, 1)
	assert.Equal(t, "billing", deps[0].FromDomain)
	assert.Equal(t, "catalog", deps[0].ToDomain)
	assert.Equal(t, 2, deps[0].Weight)
}

func TestAnalyze_SameDomainCallsIgnored(t *testing.T) {
	cfg := &Config{Domains: []Spec{{Name: "all", Patterns: []string{"com.**", "com"}}}}
	file := &model.ParsedFile{
		FilePath: "/repo/src/a.kt",
		Package:  "com.shop",
		Functions: []model.ParsedFunction{
			{Name: "a"}, {Name: "b"},
		},
	}
	table := symboltable.New(nil, nil).Build([]*model.ParsedFile{file})
	files := []model.ResolvedFile{{
		File:  file,
		Calls: []model.ResolvedCall{{FromFQN: "com.shop.a", ToFQN: "com.shop.b"}},
	}}

	_, deps := NewAnalyzer(nil).Analyze(cfg, files, table)
	assert.Empty(t, deps)
}

func TestAnalyze_FirstDomainWinsOnOverlap(t *testing.T) {
	cfg := &Config{Domains: []Spec{
		{Name: "broad", Patterns: []string{"com.shop.**"}},
		{Name: "narrow", Patterns: []string{"com.shop.billing"}},
	}}
	file := &model.ParsedFile{
		FilePath:  "/repo/src/b.kt",
		Package:   "com.shop.billing",
		Functions: []model.ParsedFunction{{Name: "f"}},
	}
	table := symboltable.New(nil, nil).Build([]*model.ParsedFile{file})

	domains, _ := NewAnalyzer(nil).Analyze(cfg, []model.ResolvedFile{{File: file}}, table)
	require.Len(t, domains, 2)
	assert.Equal(t, []string{"com.shop.billing"}, domains[0].MatchedPackages)
	assert.Empty(t, domains[1].MatchedPackages)
}

func TestAnalyze_PackagelessFilesUseModulePaths(t *testing.T) {
	// TypeScript/JavaScript files declare no package; both the table builder
	// and the analyzer fall back to the inferred module path.
	cfg := &Config{Domains: []Spec{
		{Name: "web", Patterns: []string{"services"}},
		{Name: "core", Patterns: []string{"core"}},
	}}
	modulePath := func(filePath string) (string, bool) {
		switch filePath {
		case "/repo/src/services/user.ts":
			return "services", true
		case "/repo/src/core/format.ts":
			return "core", true
		}
		return "", false
	}

	userFile := &model.ParsedFile{
		FilePath: "/repo/src/services/user.ts",
		Language: model.LangTypeScript,
		Classes: []model.ParsedClass{{
			Name:      "UserService",
			Functions: []model.ParsedFunction{{Name: "save"}},
		}},
	}
	formatFile := &model.ParsedFile{
		FilePath:  "/repo/src/core/format.ts",
		Language:  model.LangTypeScript,
		Functions: []model.ParsedFunction{{Name: "format"}},
	}
	table := symboltable.New(nil, modulePath).Build([]*model.ParsedFile{userFile, formatFile})

	files := []model.ResolvedFile{
		{
			File: userFile,
			Calls: []model.ResolvedCall{
				{FromFQN: "services.UserService.save", ToFQN: "core.format"},
			},
		},
		{File: formatFile},
	}

	analyzer := NewAnalyzer(nil)
	analyzer.UseModulePaths(modulePath)
	domains, deps := analyzer.Analyze(cfg, files, table)

	require.Len(t, domains, 2)
	assert.Equal(t, []string{"services"}, domains[0].MatchedPackages)
	assert.Equal(t, []string{"core"}, domains[1].MatchedPackages)

	require.Len(t, deps, 1)
	assert.Equal(t, "web", deps[0].FromDomain)
	assert.Equal(t, "core", deps[0].ToDomain)
	assert.Equal(t, 1, deps[0].Weight)
}

func TestAnalyze_PackagelessFilesSkippedWithoutModulePaths(t *testing.T) {
	cfg := &Config{Domains: []Spec{{Name: "web", Patterns: []string{"services"}}}}
	file := &model.ParsedFile{
		FilePath: "/repo/src/services/user.ts",
		Language: model.LangTypeScript,
		Classes:  []model.ParsedClass{{Name: "UserService"}},
	}
	table := symboltable.New(nil, nil).Build([]*model.ParsedFile{file})

	_, deps := NewAnalyzer(nil).Analyze(cfg, []model.ResolvedFile{{
		File:  file,
		Calls: []model.ResolvedCall{{FromFQN: "UserService.save", ToFQN: "core.format"}},
	}}, table)
	assert.Empty(t, deps)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "domains.yaml")
	doc := `domains:
  - name: billing
    description: invoicing and charging
    patterns:
      - com.shop.billing.**
  - name: catalog
    patterns:
      - com.shop.catalog
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Domains, 2)
	assert.Equal(t, "billing", cfg.Domains[0].Name)
	assert.Equal(t, "invoicing and charging", cfg.Domains[0].Description)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "domains.yaml")
	require.NoError(t, os.WriteFile(path, []byte("domains:\n  - name: x\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig("/nonexistent/domains.yaml")
	assert.Error(t, err)
}
