package resolver

import "github.com/codegraph/codegraph/pkg/model"

// ResolutionStats is the statistics contract over a set of resolved files:
// ResolvedCalls + UnresolvedCalls == TotalCalls, and ResolutionRate is
// ResolvedCalls / TotalCalls (1.0 when there were no calls at all).
type ResolutionStats struct {
	TotalCalls      int
	ResolvedCalls   int
	UnresolvedCalls int
	ResolutionRate  float64
}

// GetResolutionStats derives resolution coverage from resolved files: total
// call sites come from the parsed model, resolved ones from the resolver's
// output.
func GetResolutionStats(files []model.ResolvedFile) ResolutionStats {
	stats := ResolutionStats{}
	for i := range files {
		stats.TotalCalls += countCalls(files[i].File)
		stats.ResolvedCalls += len(files[i].Calls)
	}
	stats.UnresolvedCalls = stats.TotalCalls - stats.ResolvedCalls
	if stats.TotalCalls == 0 {
		stats.ResolutionRate = 1.0
	} else {
		stats.ResolutionRate = float64(stats.ResolvedCalls) / float64(stats.TotalCalls)
	}
	return stats
}

func countCalls(f *model.ParsedFile) int {
	if f == nil {
		return 0
	}
	total := 0
	for i := range f.Functions {
		total += len(f.Functions[i].Calls)
	}
	for i := range f.Classes {
		total += countClassCalls(&f.Classes[i])
	}
	for i := range f.ObjectExpressions {
		for j := range f.ObjectExpressions[i].Functions {
			total += len(f.ObjectExpressions[i].Functions[j].Calls)
		}
	}
	return total
}

func countClassCalls(c *model.ParsedClass) int {
	total := 0
	for i := range c.Functions {
		total += len(c.Functions[i].Calls)
	}
	for i := range c.SecondaryCtors {
		total += len(c.SecondaryCtors[i].Calls)
	}
	for i := range c.NestedClasses {
		total += countClassCalls(&c.NestedClasses[i])
	}
	if c.Companion != nil {
		total += countClassCalls(c.Companion)
	}
	return total
}
