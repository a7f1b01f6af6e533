package graph

// Bulk edges (CALLS, USES, RETURNS) are accumulated as data during the
// per-file walk and flushed as chunked UNWIND statements afterwards. The
// accumulator is a pure value — (previous accumulator, batch) → next
// accumulator — keeping all I/O in the writer's flush step (§9).

// CallEdge is one deduplicated CALLS edge; Count carries the per-pass
// multiplicity so ON MATCH can increment by it.
type CallEdge struct {
	FromFQN string
	ToFQN   string
	Count   int
}

// UseEdge is one USES edge from a function to a class-or-interface, with the
// context it arose from (parameter or receiver). TargetFQN may be empty when
// the import map did not yield one; TargetName then drives the by-name
// fallback binding (§4.7).
type UseEdge struct {
	FromFQN    string
	TargetFQN  string
	TargetName string
	Context    string
}

// ReturnEdge is one RETURNS edge; it binds by simple name only (§4.7).
type ReturnEdge struct {
	FromFQN    string
	TargetName string
}

// Accumulator collects bulk edges for one pass.
type Accumulator struct {
	Calls   []CallEdge
	Uses    []UseEdge
	Returns []ReturnEdge

	callIndex map[[2]string]int // (from,to) -> index into Calls
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{callIndex: make(map[[2]string]int)}
}

// AddCall records one call edge, merging duplicates by incrementing Count so
// CALLS.count reflects the per-pass multiplicity.
func (a *Accumulator) AddCall(fromFQN, toFQN string) {
	key := [2]string{fromFQN, toFQN}
	if i, ok := a.callIndex[key]; ok {
		a.Calls[i].Count++
		return
	}
	a.callIndex[key] = len(a.Calls)
	a.Calls = append(a.Calls, CallEdge{FromFQN: fromFQN, ToFQN: toFQN, Count: 1})
}

// AddUse records one USES edge.
func (a *Accumulator) AddUse(fromFQN, targetFQN, targetName, context string) {
	a.Uses = append(a.Uses, UseEdge{FromFQN: fromFQN, TargetFQN: targetFQN, TargetName: targetName, Context: context})
}

// AddReturn records one RETURNS edge.
func (a *Accumulator) AddReturn(fromFQN, targetName string) {
	a.Returns = append(a.Returns, ReturnEdge{FromFQN: fromFQN, TargetName: targetName})
}

// chunk splits items into slices of at most size elements, preserving order.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

// callParams converts a chunk of call edges into UNWIND parameter maps.
func callParams(edges []CallEdge) []map[string]any {
	out := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		out = append(out, map[string]any{"from": e.FromFQN, "to": e.ToFQN, "count": e.Count})
	}
	return out
}

func useParams(edges []UseEdge) []map[string]any {
	out := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		out = append(out, map[string]any{
			"from": e.FromFQN, "fqn": e.TargetFQN, "name": e.TargetName, "context": e.Context,
		})
	}
	return out
}

func returnParams(edges []ReturnEdge) []map[string]any {
	out := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		out = append(out, map[string]any{"from": e.FromFQN, "name": e.TargetName})
	}
	return out
}
