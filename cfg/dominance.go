package cfg

import "sort"

// DomInfo holds the dominance facts for every function in a graph:
// dominator sets, immediate dominators, the dominator tree, and the
// dominance frontier. All tables are keyed by block id.
type DomInfo struct {
	// Dom[b] is the set of blocks dominating b (always including b).
	Dom map[int]map[int]bool
	// IDom[b] is b's immediate dominator; -1 for entry blocks.
	IDom map[int]int
	// Children inverts IDom: the dominator tree.
	Children map[int][]int
	// Frontier[a] lists the blocks on a's dominance frontier.
	Frontier map[int][]int
}

// domAnalysis is the iterative dominator-set computation expressed as an
// ordinary forward dataflow: meet is set intersection over predecessors,
// seeded in BFS order from entry.
type domAnalysis struct {
	g     *Graph
	facts map[int]map[int]bool
	entry map[int]bool
}

func newDomAnalysis(g *Graph) *domAnalysis {
	d := &domAnalysis{
		g:     g,
		facts: make(map[int]map[int]bool),
		entry: make(map[int]bool),
	}
	for _, fb := range g.Funcs {
		d.entry[fb.Entry()] = true
		universe := make(map[int]bool, len(fb.Order))
		for _, id := range fb.Order {
			universe[id] = true
		}
		for _, id := range fb.Order {
			if id == fb.Entry() {
				d.facts[id] = map[int]bool{id: true}
				continue
			}
			set := make(map[int]bool, len(universe))
			for u := range universe {
				set[u] = true
			}
			d.facts[id] = set
		}
	}
	return d
}

func (d *domAnalysis) Meet(b *BasicBlock) {}

func (d *domAnalysis) Transfer(b *BasicBlock) TransferResult {
	if d.entry[b.ID] {
		return Unchanged
	}
	var result map[int]bool
	for _, p := range b.Preds {
		pset := d.facts[p]
		if result == nil {
			result = make(map[int]bool, len(pset))
			for id := range pset {
				result[id] = true
			}
			continue
		}
		for id := range result {
			if !pset[id] {
				delete(result, id)
			}
		}
	}
	if result == nil {
		result = make(map[int]bool)
	}
	result[b.ID] = true
	if setsEqual(result, d.facts[b.ID]) {
		return Unchanged
	}
	d.facts[b.ID] = result
	return Changed
}

func (d *domAnalysis) Transform(b *BasicBlock) {}
func (d *domAnalysis) Direction() Direction    { return Forward }
func (d *domAnalysis) Order() Order            { return Order{Kind: BFS} }

func setsEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

// Dominance computes full dominance information for the graph. The
// dominator sets converge through the generic solver; immediate
// dominators, the tree, and the frontier are derived afterwards.
func Dominance(g *Graph) *DomInfo {
	d := newDomAnalysis(g)
	g.Dataflow(d)

	info := &DomInfo{
		Dom:      d.facts,
		IDom:     make(map[int]int),
		Children: make(map[int][]int),
		Frontier: make(map[int][]int),
	}

	for _, fb := range g.Funcs {
		reachable := make(map[int]bool)
		for _, id := range g.BFSFrom(fb.Entry()) {
			reachable[id] = true
		}
		for _, id := range fb.Order {
			if id == fb.Entry() || !reachable[id] {
				if id == fb.Entry() {
					info.IDom[id] = -1
				}
				continue
			}
			info.IDom[id] = immediateDominator(id, d.facts)
		}
		for _, id := range fb.Order {
			if parent, ok := info.IDom[id]; ok && parent >= 0 {
				info.Children[parent] = append(info.Children[parent], id)
			}
		}
		for parent := range info.Children {
			sort.Ints(info.Children[parent])
		}

		// Frontier: only join points (two or more predecessors) can be
		// on anyone's frontier. Walk each predecessor up the dominator
		// tree until the join's immediate dominator.
		for _, id := range fb.Order {
			b := g.Blocks[id]
			if len(b.Preds) < 2 || !reachable[id] {
				continue
			}
			idom := info.IDom[id]
			for _, p := range b.Preds {
				runner := p
				for runner != idom && runner != -1 {
					if !containsInt(info.Frontier[runner], id) {
						info.Frontier[runner] = append(info.Frontier[runner], id)
					}
					next, ok := info.IDom[runner]
					if !ok {
						break
					}
					runner = next
				}
			}
		}
	}
	return info
}

// immediateDominator picks the deepest strict dominator: the unique
// d in dom(b)\{b} dominated by every other strict dominator of b.
func immediateDominator(b int, dom map[int]map[int]bool) int {
	var candidates []int
	for d := range dom[b] {
		if d != b {
			candidates = append(candidates, d)
		}
	}
	sort.Ints(candidates)
	for _, d := range candidates {
		deepest := true
		for _, other := range candidates {
			if other == d {
				continue
			}
			if !dom[d][other] {
				deepest = false
				break
			}
		}
		if deepest {
			return d
		}
	}
	return -1
}

// Dominates reports whether a dominates b.
func (info *DomInfo) Dominates(a, b int) bool {
	return info.Dom[b][a]
}

// StrictlyDominates reports whether a dominates b and a != b.
func (info *DomInfo) StrictlyDominates(a, b int) bool {
	return a != b && info.Dominates(a, b)
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
