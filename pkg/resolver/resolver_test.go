package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/pkg/importmap"
	"github.com/codegraph/codegraph/pkg/model"
	"github.com/codegraph/codegraph/pkg/stdlib"
	"github.com/codegraph/codegraph/pkg/symboltable"
	"github.com/codegraph/codegraph/pkg/util"
)

func buildTable(t *testing.T, files ...*model.ParsedFile) *model.SymbolTable {
	t.Helper()
	b := symboltable.New(util.NewLogger(util.DefaultLoggerConfig()), nil)
	return b.Build(files)
}

func mustRegistry(t *testing.T) *stdlib.Registry {
	t.Helper()
	reg, err := stdlib.NewRegistry()
	require.NoError(t, err)
	return reg
}

func TestResolveCall_SameClassMethod(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/UserService.kt",
		Language: model.LangKotlin,
		Package:  "app.repo",
		Classes: []model.ParsedClass{{
			Name: "UserService",
			Functions: []model.ParsedFunction{
				{Name: "save", Calls: []model.ParsedCall{{CalleeName: "validate"}}},
				{Name: "validate"},
			},
		}},
	}
	table := buildTable(t, file)
	r := New(table, mustRegistry(t), nil)

	calls := r.ResolveFile(file, importmap.Build(file, nil))
	require.Len(t, calls, 1)
	assert.Equal(t, "app.repo.UserService.save", calls[0].FromFQN)
	assert.Equal(t, "app.repo.UserService.validate", calls[0].ToFQN)
}

func TestResolveCall_SamePackageFunction(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/util.kt",
		Language: model.LangKotlin,
		Package:  "app.repo",
		Functions: []model.ParsedFunction{
			{Name: "entry", Calls: []model.ParsedCall{{CalleeName: "helper"}}},
			{Name: "helper"},
		},
	}
	table := buildTable(t, file)
	r := New(table, mustRegistry(t), nil)

	calls := r.ResolveFile(file, importmap.Build(file, nil))
	require.Len(t, calls, 1)
	assert.Equal(t, "app.repo.helper", calls[0].ToFQN)
}

func TestResolveCall_ExplicitImport(t *testing.T) {
	other := &model.ParsedFile{
		FilePath: "repo/other/Formatter.kt",
		Language: model.LangKotlin,
		Package:  "app.other",
		Functions: []model.ParsedFunction{
			{Name: "format"},
		},
	}
	caller := &model.ParsedFile{
		FilePath: "repo/main.kt",
		Language: model.LangKotlin,
		Package:  "app.repo",
		Imports: []model.Import{
			{ModuleSpecifier: "app.other", ImportedName: "format"},
		},
		Functions: []model.ParsedFunction{
			{Name: "main", Calls: []model.ParsedCall{{CalleeName: "format"}}},
		},
	}
	table := buildTable(t, other, caller)
	r := New(table, mustRegistry(t), nil)

	calls := r.ResolveFile(caller, importmap.Build(caller, nil))
	require.Len(t, calls, 1)
	assert.Equal(t, "app.other.format", calls[0].ToFQN)
}

func TestResolveCall_TypedReceiver(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/Service.kt",
		Language: model.LangKotlin,
		Package:  "app.repo",
		Classes: []model.ParsedClass{
			{
				Name: "Repository",
				Functions: []model.ParsedFunction{
					{Name: "findAll"},
				},
			},
			{
				Name: "Service",
				Functions: []model.ParsedFunction{
					{
						Name: "run",
						Parameters: []model.ParsedParameter{
							{Name: "repo", Type: "Repository"},
						},
						Calls: []model.ParsedCall{
							{CalleeName: "findAll", ReceiverText: "repo", ReceiverType: "Repository"},
						},
					},
				},
			},
		},
	}
	table := buildTable(t, file)
	r := New(table, mustRegistry(t), nil)

	calls := r.ResolveFile(file, importmap.Build(file, nil))
	require.Len(t, calls, 1)
	assert.Equal(t, "app.repo.Repository.findAll", calls[0].ToFQN)
}

func TestResolveCall_HierarchyWalk(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/Animals.kt",
		Language: model.LangKotlin,
		Package:  "app.zoo",
		Classes: []model.ParsedClass{
			{
				Name: "Animal",
				Functions: []model.ParsedFunction{
					{Name: "speak"},
				},
			},
			{
				Name:       "Dog",
				SuperClass: "Animal",
				Functions: []model.ParsedFunction{
					{Name: "bark", Calls: []model.ParsedCall{{CalleeName: "speak"}}},
				},
			},
		},
	}
	table := buildTable(t, file)
	r := New(table, mustRegistry(t), nil)

	calls := r.ResolveFile(file, importmap.Build(file, nil))
	require.Len(t, calls, 1)
	assert.Equal(t, "app.zoo.Animal.speak", calls[0].ToFQN)
}

func TestResolveCall_CompanionObject(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/Factory.kt",
		Language: model.LangKotlin,
		Package:  "app.repo",
		Classes: []model.ParsedClass{{
			Name:          "Factory",
			CompanionName: "Companion",
			Companion: &model.ParsedClass{
				Functions: []model.ParsedFunction{{Name: "create"}},
			},
		}},
		Functions: []model.ParsedFunction{
			{Name: "main", Calls: []model.ParsedCall{{CalleeName: "create", ReceiverText: "Factory"}}},
		},
	}
	table := buildTable(t, file)
	r := New(table, mustRegistry(t), nil)

	calls := r.ResolveFile(file, importmap.Build(file, nil))
	require.Len(t, calls, 1)
	assert.Equal(t, "app.repo.Factory.Companion.create", calls[0].ToFQN)
}

func TestResolveCall_ConstructorCall(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/Widgets.kt",
		Language: model.LangKotlin,
		Package:  "app.widgets",
		Classes:  []model.ParsedClass{{Name: "Widget"}},
		Functions: []model.ParsedFunction{
			{Name: "build", Calls: []model.ParsedCall{{CalleeName: "Widget"}}},
		},
	}
	table := buildTable(t, file)
	r := New(table, mustRegistry(t), nil)

	calls := r.ResolveFile(file, importmap.Build(file, nil))
	require.Len(t, calls, 1)
	assert.Equal(t, "app.widgets.Widget.<init>", calls[0].ToFQN)
}

func TestResolveCall_StdlibFunction(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/main.kt",
		Language: model.LangKotlin,
		Package:  "app.repo",
		Functions: []model.ParsedFunction{
			{Name: "main", Calls: []model.ParsedCall{{CalleeName: "println"}}},
		},
	}
	table := buildTable(t, file)
	r := New(table, mustRegistry(t), nil)

	calls := r.ResolveFile(file, importmap.Build(file, nil))
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].ToFQN, "println")
}

func TestResolveCall_UnresolvedDropped(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/main.kt",
		Language: model.LangKotlin,
		Package:  "app.repo",
		Functions: []model.ParsedFunction{
			{Name: "main", Calls: []model.ParsedCall{{CalleeName: "totallyUnknownThing"}}},
		},
	}
	table := buildTable(t, file)
	r := New(table, mustRegistry(t), nil)

	calls := r.ResolveFile(file, importmap.Build(file, nil))
	assert.Len(t, calls, 0)
	assert.Equal(t, 1, r.Stats().Unresolved)
}

func TestResolveCall_ExtensionFunction(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/Extensions.kt",
		Language: model.LangKotlin,
		Package:  "app.repo",
		Functions: []model.ParsedFunction{
			{Name: "double", ReceiverType: "Int"},
		},
		Classes: []model.ParsedClass{{
			Name: "Caller",
			Functions: []model.ParsedFunction{
				{
					Name: "run",
					Parameters: []model.ParsedParameter{
						{Name: "n", Type: "Int"},
					},
					Calls: []model.ParsedCall{{CalleeName: "double", ReceiverText: "n"}},
				},
			},
		}},
	}
	table := buildTable(t, file)
	r := New(table, mustRegistry(t), nil)

	calls := r.ResolveFile(file, importmap.Build(file, nil))
	require.Len(t, calls, 1)
	assert.Equal(t, "app.repo.double", calls[0].ToFQN)
}
