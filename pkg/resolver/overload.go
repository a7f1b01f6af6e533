package resolver

import (
	"github.com/codegraph/codegraph/pkg/frontend/astutil"
	"github.com/codegraph/codegraph/pkg/model"
)

// Overloads share one FQN; the index holds them apart in their overload
// bucket (§3). Once a method FQN is chosen, pickOverload selects the
// concrete declaration: argument-count match first, then exact
// argument-type match, then compatible match (identical after generics and
// nullability are stripped). Exact beats compatible; remaining ties keep
// the first candidate.
func pickOverload(candidates []*model.Symbol, call model.ParsedCall) (*model.Symbol, bool) {
	switch len(candidates) {
	case 0:
		return nil, false
	case 1:
		return candidates[0], false
	}

	byCount := filterByArgCount(candidates, call.ArgumentCount)
	if len(byCount) == 1 {
		return byCount[0], false
	}
	if len(byCount) == 0 {
		byCount = candidates
	}

	if len(call.ArgumentTypeHints) > 0 {
		if exact := filterByTypes(byCount, call.ArgumentTypeHints, false); len(exact) > 0 {
			return exact[0], len(exact) > 1
		}
		if compatible := filterByTypes(byCount, call.ArgumentTypeHints, true); len(compatible) > 0 {
			return compatible[0], len(compatible) > 1
		}
	}
	return byCount[0], true
}

// overloadsAt returns every function in name's overload bucket that shares
// the chosen FQN.
func (r *Resolver) overloadsAt(fqn, name string) []*model.Symbol {
	var out []*model.Symbol
	for _, s := range r.table.FunctionsByName[name] {
		if s.FQN == fqn {
			out = append(out, s)
		}
	}
	return out
}

// noteOverload runs overload discrimination for a chosen method FQN and
// logs any tie that survives every discriminator — the remaining ambiguity
// is tolerated (first candidate wins) but kept diagnosable.
func (r *Resolver) noteOverload(fqn string, call model.ParsedCall) {
	candidates := r.overloadsAt(fqn, call.CalleeName)
	if len(candidates) < 2 {
		return
	}
	if _, ambiguous := pickOverload(candidates, call); ambiguous {
		r.logger.Debug("ambiguous overload, keeping first candidate",
			"fqn", fqn, "candidates", len(candidates), "args", call.ArgumentCount)
	}
}

func filterByArgCount(candidates []*model.Symbol, argc int) []*model.Symbol {
	var out []*model.Symbol
	for _, c := range candidates {
		if matchesArgCount(c.Parameters, argc) {
			out = append(out, c)
		}
	}
	return out
}

// matchesArgCount accepts calls that omit defaulted trailing parameters.
func matchesArgCount(params []model.ParsedParameter, argc int) bool {
	if argc > len(params) {
		return false
	}
	required := 0
	for _, p := range params {
		if !p.HasDefault {
			required++
		}
	}
	return argc >= required
}

func filterByTypes(candidates []*model.Symbol, hints []string, loose bool) []*model.Symbol {
	var out []*model.Symbol
	for _, c := range candidates {
		if matchesTypes(c.Parameters, hints, loose) {
			out = append(out, c)
		}
	}
	return out
}

func matchesTypes(params []model.ParsedParameter, hints []string, loose bool) bool {
	if len(hints) > len(params) {
		return false
	}
	for i, hint := range hints {
		if hint == "" {
			continue
		}
		declared := params[i].Type
		if declared == "" {
			continue
		}
		if loose {
			hint = astutil.NormalizeType(hint)
			declared = astutil.NormalizeType(declared)
		}
		if hint != declared {
			return false
		}
	}
	return true
}
