package symboltable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/pkg/model"
)

func TestBuild_FQNRoundTrip(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/src/users.kt",
		Package:  "app.users",
		Classes: []model.ParsedClass{{
			Name: "UserService",
			Functions: []model.ParsedFunction{
				{Name: "save", Location: model.Location{StartLine: 10}},
			},
			Properties: []model.ParsedProperty{
				{Name: "repository", Type: "UserRepository"},
			},
			NestedClasses: []model.ParsedClass{{Name: "Config"}},
		}},
		Functions: []model.ParsedFunction{
			{Name: "helper", Location: model.Location{StartLine: 40}},
		},
	}

	table := New(nil, nil).Build([]*model.ParsedFile{file})

	for fqn, wantName := range map[string]string{
		"app.users.UserService":            "UserService",
		"app.users.UserService.save":       "save",
		"app.users.UserService.repository": "repository",
		"app.users.UserService.Config":     "Config",
		"app.users.helper":                 "helper",
	} {
		sym, ok := table.ByFQN[fqn]
		require.True(t, ok, "missing %s", fqn)
		assert.Equal(t, wantName, sym.SimpleName)
	}

	save := table.ByFQN["app.users.UserService.save"]
	assert.Equal(t, uint32(10), save.Location.StartLine)
	assert.Equal(t, "app.users.UserService", save.ParentFQN)
}

func TestBuild_NestedFQNPrefix(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/a.kt",
		Package:  "app",
		Classes: []model.ParsedClass{{
			Name: "Outer",
			NestedClasses: []model.ParsedClass{{
				Name:          "Inner",
				NestedClasses: []model.ParsedClass{{Name: "Innermost"}},
			}},
		}},
	}
	table := New(nil, nil).Build([]*model.ParsedFile{file})

	inner := table.ByFQN["app.Outer.Inner"]
	require.NotNil(t, inner)
	innermost := table.ByFQN["app.Outer.Inner.Innermost"]
	require.NotNil(t, innermost)
	assert.Equal(t, inner.FQN+".Innermost", innermost.FQN)
}

func TestBuild_DestructuringSkipsUnderscore(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/pair.kt",
		Package:  "app",
		Destructurings: []model.ParsedDestructuringDeclaration{{
			ComponentNames: []string{"first", "_", "third"},
			ComponentTypes: []string{"String", "", "Int"},
			IsImmutable:    true,
		}},
	}
	table := New(nil, nil).Build([]*model.ParsedFile{file})

	assert.NotNil(t, table.ByFQN["app.first"])
	assert.NotNil(t, table.ByFQN["app.third"])
	_, underscore := table.ByFQN["app._"]
	assert.False(t, underscore)
	assert.Len(t, table.ByPackage["app"], 2)
}

func TestBuild_AnonymousObjectIdentity(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/handlers.kt",
		Package:  "app",
		ObjectExpressions: []model.ParsedObjectExpression{
			{
				SuperTypes: []string{"Runnable"},
				Functions:  []model.ParsedFunction{{Name: "run"}},
				Location:   model.Location{StartLine: 12},
			},
			{
				Location: model.Location{StartLine: 30},
			},
		},
	}
	table := New(nil, nil).Build([]*model.ParsedFile{file})

	first := table.ByFQN["app.<anonymous>@12"]
	require.NotNil(t, first)
	assert.Equal(t, model.SymbolObject, first.Kind)
	assert.NotNil(t, table.ByFQN["app.<anonymous>@12.run"])
	assert.NotNil(t, table.ByFQN["app.<anonymous>@30"])
}

func TestBuild_HierarchyResolution(t *testing.T) {
	base := &model.ParsedFile{
		FilePath: "repo/base.kt",
		Package:  "app.core",
		Classes:  []model.ParsedClass{{Name: "BaseService"}},
	}
	derived := &model.ParsedFile{
		FilePath: "repo/derived.kt",
		Package:  "app.svc",
		Classes: []model.ParsedClass{{
			Name:       "UserService",
			SuperClass: "BaseService",
			Interfaces: []string{"Unknowable"},
		}},
	}
	table := New(nil, nil).Build([]*model.ParsedFile{base, derived})

	parents := table.TypeHierarchy["app.svc.UserService"]
	require.Len(t, parents, 2)
	assert.Equal(t, "app.core.BaseService", parents[0])
	// unresolved super types are retained as spelled
	assert.Equal(t, "Unknowable", parents[1])
}

func TestBuild_HierarchyPrefersSamePackage(t *testing.T) {
	a := &model.ParsedFile{
		FilePath: "repo/a.kt", Package: "app.a",
		Classes: []model.ParsedClass{{Name: "Base"}},
	}
	b := &model.ParsedFile{
		FilePath: "repo/b.kt", Package: "app.b",
		Classes: []model.ParsedClass{
			{Name: "Base"},
			{Name: "Child", SuperClass: "Base"},
		},
	}
	table := New(nil, nil).Build([]*model.ParsedFile{a, b})

	parents := table.TypeHierarchy["app.b.Child"]
	require.Len(t, parents, 1)
	assert.Equal(t, "app.b.Base", parents[0])
}

func TestBuild_CollisionLastWriterWins(t *testing.T) {
	first := &model.ParsedFile{
		FilePath:  "repo/one.kt",
		Package:   "app",
		Functions: []model.ParsedFunction{{Name: "dup"}},
	}
	second := &model.ParsedFile{
		FilePath:  "repo/two.kt",
		Package:   "app",
		Functions: []model.ParsedFunction{{Name: "dup"}},
	}
	table := New(nil, nil).Build([]*model.ParsedFile{first, second})

	sym := table.ByFQN["app.dup"]
	require.NotNil(t, sym)
	assert.Equal(t, "repo/two.kt", sym.FilePath)
	// both overloads stay visible in the function bucket
	assert.Len(t, table.FunctionsByName["dup"], 2)
}

func TestBuild_ModulePathFallback(t *testing.T) {
	mp := func(filePath string) (string, bool) {
		if filePath == "repo/src/services/user.ts" {
			return "services", true
		}
		return "", false
	}
	file := &model.ParsedFile{
		FilePath: "repo/src/services/user.ts",
		Language: model.LangTypeScript,
		Classes:  []model.ParsedClass{{Name: "UserService"}},
	}
	table := New(nil, mp).Build([]*model.ParsedFile{file})

	sym := table.ByFQN["services.UserService"]
	require.NotNil(t, sym)
	assert.Equal(t, "services", sym.Package)
}

func TestBuild_NamedCompanionKeepsGivenName(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/user.kt",
		Package:  "app",
		Classes: []model.ParsedClass{{
			Name:          "User",
			CompanionName: "Factory",
			Companion: &model.ParsedClass{
				Functions: []model.ParsedFunction{{Name: "create"}},
			},
		}},
	}
	table := New(nil, nil).Build([]*model.ParsedFile{file})

	assert.NotNil(t, table.ByFQN["app.User.Factory"])
	assert.NotNil(t, table.ByFQN["app.User.Factory.create"])
}
