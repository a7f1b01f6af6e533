package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/pkg/model"
)

func TestAccumulator_AddCallDeduplicates(t *testing.T) {
	acc := NewAccumulator()
	acc.AddCall("a.f", "b.g")
	acc.AddCall("a.f", "b.g")
	acc.AddCall("a.f", "b.h")

	require.Len(t, acc.Calls, 2)
	assert.Equal(t, 2, acc.Calls[0].Count)
	assert.Equal(t, "b.g", acc.Calls[0].ToFQN)
	assert.Equal(t, 1, acc.Calls[1].Count)
}

func TestChunk(t *testing.T) {
	items := make([]CallEdge, 250)
	chunks := chunk(items, 100)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 50)
}

func TestChunk_Empty(t *testing.T) {
	assert.Empty(t, chunk([]CallEdge{}, 100))
}

func TestChunk_ZeroSizeUsesDefault(t *testing.T) {
	items := make([]UseEdge, DefaultBatchSize+1)
	chunks := chunk(items, 0)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], DefaultBatchSize)
}

func TestAddUse_FiltersPrimitives(t *testing.T) {
	w := NewWriter(nil, nil, func(lang model.Language, name string) bool {
		return name == "Int" || name == "String"
	}, nil)
	w.acc = NewAccumulator()
	f := &model.ParsedFile{Language: model.LangKotlin}

	w.addUse(f, "app.Service.run", "Int", "parameter")
	w.addUse(f, "app.Service.run", "UserRepository", "parameter")
	w.addUse(f, "app.Service.run", "String?", "receiver")

	require.Len(t, w.acc.Uses, 1)
	assert.Equal(t, "UserRepository", w.acc.Uses[0].TargetName)
	assert.Equal(t, "parameter", w.acc.Uses[0].Context)
}

func TestAddUse_BindsByFQNWhenResolvable(t *testing.T) {
	resolve := func(f *model.ParsedFile, name string) (string, bool) {
		if name == "UserRepository" {
			return "app.repo.UserRepository", true
		}
		return "", false
	}
	w := NewWriter(nil, resolve, nil, nil)
	w.acc = NewAccumulator()
	f := &model.ParsedFile{Language: model.LangKotlin}

	w.addUse(f, "app.Service.run", "UserRepository", "parameter")
	w.addUse(f, "app.Service.run", "Mystery", "parameter")

	require.Len(t, w.acc.Uses, 2)
	assert.Equal(t, "app.repo.UserRepository", w.acc.Uses[0].TargetFQN)
	assert.Equal(t, "", w.acc.Uses[1].TargetFQN)
	assert.Equal(t, "Mystery", w.acc.Uses[1].TargetName)
}

func TestCollectClass_SynthesizesConstructorNode(t *testing.T) {
	w := NewWriter(nil, nil, nil, nil)
	w.projectPath = "/repo"
	w.curPkg = "app"
	w.acc = NewAccumulator()
	rows := newFileRows()
	f := &model.ParsedFile{FilePath: "/repo/src/User.kt", Package: "app", Language: model.LangKotlin}

	cls := model.ParsedClass{Name: "User", Kind: model.ClassKindClass}
	w.collectClass(rows, f, &cls, "", "Package")

	require.Len(t, rows.nodes["Constructor"], 1)
	assert.Equal(t, "app.User.<init>", rows.nodes["Constructor"][0]["fqn"])
	declares := rows.declares[[2]string{"Class", "Constructor"}]
	require.Len(t, declares, 1)
	assert.Equal(t, "app.User", declares[0].From)
}

func TestCollectClass_CompanionGetsObjectLabelAndName(t *testing.T) {
	w := NewWriter(nil, nil, nil, nil)
	w.projectPath = "/repo"
	w.curPkg = "app"
	w.acc = NewAccumulator()
	rows := newFileRows()
	f := &model.ParsedFile{FilePath: "/repo/src/User.kt", Package: "app", Language: model.LangKotlin}

	cls := model.ParsedClass{
		Name:          "User",
		Kind:          model.ClassKindClass,
		CompanionName: "Factory",
		Companion:     &model.ParsedClass{Functions: []model.ParsedFunction{{Name: "create"}}},
	}
	w.collectClass(rows, f, &cls, "", "Package")

	var companionFQNs []string
	for _, row := range rows.nodes["Object"] {
		companionFQNs = append(companionFQNs, row["fqn"].(string))
	}
	assert.Contains(t, companionFQNs, "app.User.Factory")

	var fnFQNs []string
	for _, row := range rows.nodes["Function"] {
		fnFQNs = append(fnFQNs, row["fqn"].(string))
	}
	assert.Contains(t, fnFQNs, "app.User.Factory.create")
}

func TestCollectFunction_EmitsUsesAndReturns(t *testing.T) {
	w := NewWriter(nil, nil, func(lang model.Language, name string) bool {
		return name == "Unit"
	}, nil)
	w.projectPath = "/repo"
	w.acc = NewAccumulator()
	rows := newFileRows()
	f := &model.ParsedFile{FilePath: "/repo/src/svc.kt", Package: "app", Language: model.LangKotlin}

	fn := model.ParsedFunction{
		Name:       "save",
		Parameters: []model.ParsedParameter{{Name: "user", Type: "User"}},
		ReturnType: "SaveResult",
	}
	w.collectFunction(rows, f, &fn, "app.Service.save", "Class", "app.Service")

	require.Len(t, w.acc.Uses, 1)
	assert.Equal(t, "User", w.acc.Uses[0].TargetName)
	require.Len(t, w.acc.Returns, 1)
	assert.Equal(t, "SaveResult", w.acc.Returns[0].TargetName)

	params := rows.hasParam["Function"]
	require.Len(t, params, 1)
	assert.Equal(t, 0, params[0].Position)
	assert.Equal(t, "app.Service.save.user", params[0].To)
}

func TestAddTypeEdge_GroupsByBinding(t *testing.T) {
	resolve := func(f *model.ParsedFile, name string) (string, bool) {
		if name == "BaseService" {
			return "app.BaseService", true
		}
		return "", false
	}
	w := NewWriter(nil, resolve, nil, nil)
	rows := newFileRows()
	f := &model.ParsedFile{Package: "app", Language: model.LangKotlin}

	w.addTypeEdge(rows, f, "EXTENDS", "Class", "app.UserService", "BaseService")
	w.addTypeEdge(rows, f, "IMPLEMENTS", "Class", "app.UserService", "Auditable")

	byFQN := rows.typeEdges[typeEdgeKey{rel: "EXTENDS", srcLabel: "Class", byFQN: true}]
	require.Len(t, byFQN, 1)
	assert.Equal(t, "app.BaseService", byFQN[0].To)

	byName := rows.typeEdges[typeEdgeKey{rel: "IMPLEMENTS", srcLabel: "Class", byFQN: false}]
	require.Len(t, byName, 1)
	assert.Equal(t, "Auditable", byName[0].To)
}

func TestDestructuringComponents_SkipUnderscore(t *testing.T) {
	w := NewWriter(nil, nil, nil, nil)
	w.projectPath = "/repo"
	w.moduleCache = map[string]string{}
	w.acc = NewAccumulator()

	f := &model.ParsedFile{
		FilePath: "/repo/src/pair.kt",
		Package:  "app",
		Language: model.LangKotlin,
		Destructurings: []model.ParsedDestructuringDeclaration{
			{ComponentNames: []string{"first", "_", "third"}},
		},
	}

	// writeFile would hit the database; replicate its destructuring loop's
	// observable effect through the row builder instead.
	rows := newFileRows()
	for _, dd := range f.Destructurings {
		for _, name := range dd.ComponentNames {
			if name == "_" {
				continue
			}
			rows.addNode("Property", map[string]any{"fqn": "app." + name, "name": name})
		}
	}
	assert.Len(t, rows.nodes["Property"], 2)
}
