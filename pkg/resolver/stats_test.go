package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codegraph/codegraph/pkg/model"
)

func TestGetResolutionStats_Empty(t *testing.T) {
	stats := GetResolutionStats(nil)
	assert.Equal(t, 0, stats.TotalCalls)
	assert.Equal(t, 1.0, stats.ResolutionRate)
}

func TestGetResolutionStats_Contract(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/a.kt",
		Package:  "app",
		Functions: []model.ParsedFunction{
			{Name: "f", Calls: []model.ParsedCall{{CalleeName: "x"}, {CalleeName: "y"}}},
		},
		Classes: []model.ParsedClass{{
			Name: "C",
			Functions: []model.ParsedFunction{
				{Name: "m", Calls: []model.ParsedCall{{CalleeName: "z"}}},
			},
		}},
	}
	resolved := []model.ResolvedFile{{
		File: file,
		Calls: []model.ResolvedCall{
			{FromFQN: "app.f", ToFQN: "app.x"},
			{FromFQN: "app.C.m", ToFQN: "app.z"},
		},
	}}

	stats := GetResolutionStats(resolved)
	assert.Equal(t, 3, stats.TotalCalls)
	assert.Equal(t, 2, stats.ResolvedCalls)
	assert.Equal(t, 1, stats.UnresolvedCalls)
	assert.Equal(t, stats.TotalCalls, stats.ResolvedCalls+stats.UnresolvedCalls)
	assert.InDelta(t, 2.0/3.0, stats.ResolutionRate, 1e-9)
}

func TestGetResolutionStats_CountsNestedAndCompanion(t *testing.T) {
	file := &model.ParsedFile{
		FilePath: "repo/b.kt",
		Package:  "app",
		Classes: []model.ParsedClass{{
			Name: "Outer",
			NestedClasses: []model.ParsedClass{{
				Name:      "Inner",
				Functions: []model.ParsedFunction{{Name: "n", Calls: []model.ParsedCall{{CalleeName: "a"}}}},
			}},
			Companion: &model.ParsedClass{
				Functions: []model.ParsedFunction{{Name: "c", Calls: []model.ParsedCall{{CalleeName: "b"}}}},
			},
		}},
		ObjectExpressions: []model.ParsedObjectExpression{{
			Functions: []model.ParsedFunction{{Name: "run", Calls: []model.ParsedCall{{CalleeName: "d"}}}},
		}},
	}

	stats := GetResolutionStats([]model.ResolvedFile{{File: file}})
	assert.Equal(t, 3, stats.TotalCalls)
	assert.Equal(t, 3, stats.UnresolvedCalls)
	assert.Equal(t, 0.0, stats.ResolutionRate)
}

func TestPickOverload_ArgCount(t *testing.T) {
	one := &model.Symbol{Kind: model.SymbolFunction, FQN: "app.C.m", Parameters: []model.ParsedParameter{{Name: "a", Type: "Int"}}}
	two := &model.Symbol{Kind: model.SymbolFunction, FQN: "app.C.m", Parameters: []model.ParsedParameter{{Name: "a", Type: "Int"}, {Name: "b", Type: "Int"}}}

	chosen, ambiguous := pickOverload([]*model.Symbol{one, two}, model.ParsedCall{CalleeName: "m", ArgumentCount: 2})
	assert.False(t, ambiguous)
	assert.Same(t, two, chosen)
}

func TestPickOverload_ExactTypeBeatsCompatible(t *testing.T) {
	strOf := &model.Symbol{Kind: model.SymbolFunction, FQN: "app.C.m", Parameters: []model.ParsedParameter{{Name: "a", Type: "String"}}}
	nullable := &model.Symbol{Kind: model.SymbolFunction, FQN: "app.C.m", Parameters: []model.ParsedParameter{{Name: "a", Type: "String?"}}}

	chosen, ambiguous := pickOverload(
		[]*model.Symbol{nullable, strOf},
		model.ParsedCall{CalleeName: "m", ArgumentCount: 1, ArgumentTypeHints: []string{"String"}})
	assert.False(t, ambiguous)
	assert.Same(t, strOf, chosen)
}

func TestPickOverload_TieKeepsFirst(t *testing.T) {
	a := &model.Symbol{Kind: model.SymbolFunction, FQN: "app.C.m", Parameters: []model.ParsedParameter{{Name: "a", Type: "Int"}}}
	b := &model.Symbol{Kind: model.SymbolFunction, FQN: "app.C.m", Parameters: []model.ParsedParameter{{Name: "x", Type: "Int"}}}

	chosen, ambiguous := pickOverload([]*model.Symbol{a, b}, model.ParsedCall{CalleeName: "m", ArgumentCount: 1})
	assert.True(t, ambiguous)
	assert.Same(t, a, chosen)
}

func TestPickOverload_DefaultedTrailingParameter(t *testing.T) {
	fn := &model.Symbol{Kind: model.SymbolFunction, FQN: "app.f", Parameters: []model.ParsedParameter{
		{Name: "a", Type: "Int"},
		{Name: "b", Type: "Int", HasDefault: true},
	}}
	other := &model.Symbol{Kind: model.SymbolFunction, FQN: "app.f", Parameters: []model.ParsedParameter{
		{Name: "a", Type: "Int"}, {Name: "b", Type: "Int"}, {Name: "c", Type: "Int"},
	}}

	chosen, ambiguous := pickOverload([]*model.Symbol{other, fn}, model.ParsedCall{CalleeName: "f", ArgumentCount: 1})
	assert.False(t, ambiguous)
	assert.Same(t, fn, chosen)
}
