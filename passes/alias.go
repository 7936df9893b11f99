package passes

import (
	"sort"

	"brilopt/cfg"
)

// AliasSet is the set of allocation sites — `alloc` instruction
// identities — a pointer may refer to.
type AliasSet map[int]bool

func (s AliasSet) clone() AliasSet {
	out := make(AliasSet, len(s))
	for id := range s {
		out[id] = true
	}
	return out
}

func aliasSetsEqual(a, b AliasSet) bool {
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

// AliasAnalysis is a forward may-point-to analysis. Each block's state
// maps pointer-valued names to the allocation sites they may reference;
// a loaded pointer may alias any allocation in the function, so loads
// widen to the per-function universe. The transform runs an intra-block
// dead-store sweep: a store is redundant when a second store through the
// same pointer name lands before any intervening use.
type AliasAnalysis struct {
	g        *cfg.Graph
	universe map[int]AliasSet
	in       map[int]map[string]AliasSet
	out      map[int]map[string]AliasSet
}

func NewAliasAnalysis(g *cfg.Graph) *AliasAnalysis {
	a := &AliasAnalysis{
		g:        g,
		universe: make(map[int]AliasSet),
		in:       make(map[int]map[string]AliasSet),
		out:      make(map[int]map[string]AliasSet),
	}
	// The universe is every alloc site in the owning function.
	for fi, fb := range g.Funcs {
		u := make(AliasSet)
		for _, id := range fb.Order {
			for _, it := range g.Blocks[id].Items {
				if it.Instr != nil && it.Instr.Op == "alloc" {
					u[it.Instr.ID] = true
				}
			}
		}
		a.universe[fi] = u
	}
	return a
}

// Run converges the points-to facts and eliminates redundant stores.
func (a *AliasAnalysis) Run() { a.g.Dataflow(a) }

// PointsTo returns the allocation identities name may reference at the
// end of the block, sorted for stable output.
func (a *AliasAnalysis) PointsTo(blockID int, name string) []int {
	var ids []int
	for id := range a.out[blockID][name] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (a *AliasAnalysis) Meet(b *cfg.BasicBlock) {
	m := make(map[string]AliasSet)
	for _, p := range b.Preds {
		for name, set := range a.out[p] {
			dst, ok := m[name]
			if !ok {
				dst = make(AliasSet, len(set))
				m[name] = dst
			}
			for id := range set {
				dst[id] = true
			}
		}
	}
	a.in[b.ID] = m
}

func (a *AliasAnalysis) Transfer(b *cfg.BasicBlock) cfg.TransferResult {
	post := make(map[string]AliasSet, len(a.in[b.ID]))
	for name, set := range a.in[b.ID] {
		post[name] = set.clone()
	}
	universe := a.universe[a.g.FuncIndexOf(b.ID)]
	for _, it := range b.Items {
		in := it.Instr
		if in == nil || in.Dest == "" {
			continue
		}
		switch in.Op {
		case "alloc":
			post[in.Dest] = AliasSet{in.ID: true}
		case "id", "ptradd":
			if len(in.Args) > 0 {
				if src, ok := post[in.Args[0]]; ok {
					post[in.Dest] = src.clone()
				}
			}
		case "load":
			post[in.Dest] = universe.clone()
		}
	}
	if aliasStatesEqual(post, a.out[b.ID]) {
		return cfg.Unchanged
	}
	a.out[b.ID] = post
	return cfg.Changed
}

// Transform deletes stores overwritten within the same block before any
// read. Killing is by pointer-name equality only; the points-to sets
// stay strictly may-information.
func (a *AliasAnalysis) Transform(b *cfg.BasicBlock) {
	lastStore := make(map[string]int)
	doomed := make(map[int]bool)
	for _, it := range b.Items {
		in := it.Instr
		if in == nil {
			continue
		}
		switch in.Op {
		case "store":
			if len(in.Args) > 0 {
				p := in.Args[0]
				if prev, ok := lastStore[p]; ok {
					doomed[prev] = true
				}
				lastStore[p] = in.ID
			}
		case "load", "ptradd", "id":
			// Reading through (or re-deriving) a pointer confirms the
			// pending store.
			for _, arg := range in.Args {
				delete(lastStore, arg)
			}
		}
	}
	if len(doomed) == 0 {
		return
	}
	keep := b.Items[:0]
	for _, it := range b.Items {
		if it.Instr != nil && doomed[it.Instr.ID] {
			continue
		}
		keep = append(keep, it)
	}
	b.Items = keep
}

func (a *AliasAnalysis) Direction() cfg.Direction { return cfg.Forward }
func (a *AliasAnalysis) Order() cfg.Order         { return cfg.Order{Kind: cfg.BFS} }

func aliasStatesEqual(a, b map[string]AliasSet) bool {
	if len(a) != len(b) {
		return false
	}
	for name, set := range a {
		if !aliasSetsEqual(set, b[name]) {
			return false
		}
	}
	return true
}
