package passes

import (
	"brilopt/bril"
	"brilopt/cfg"
)

// loopInvariance computes, per block of one loop, the set of names known
// loop-invariant. Meet unions predecessor sets; the transfer marks a
// destination invariant when every argument is defined outside the loop
// or already invariant. The solver runs scoped to the loop body and
// sweeps it until a full pass is quiet.
type loopInvariance struct {
	g    *cfg.Graph
	loop *cfg.Loop
	inv  map[int]map[string]bool
	// sizes records each block's set size after its previous transfer.
	sizes map[int]int
}

func newLoopInvariance(g *cfg.Graph, l *cfg.Loop) *loopInvariance {
	li := &loopInvariance{g: g, loop: l, inv: make(map[int]map[string]bool), sizes: make(map[int]int)}
	for _, id := range l.Body {
		li.inv[id] = make(map[string]bool)
	}
	return li
}

func (li *loopInvariance) Meet(b *cfg.BasicBlock) {
	set := li.inv[b.ID]
	for _, p := range b.Preds {
		for name := range li.inv[p] {
			set[name] = true
		}
	}
}

func (li *loopInvariance) Transfer(b *cfg.BasicBlock) cfg.TransferResult {
	set := li.inv[b.ID]
	for _, it := range b.Items {
		in := it.Instr
		if in == nil || in.Dest == "" {
			continue
		}
		if in.IsConst() {
			set[in.Dest] = true
			continue
		}
		invariant := true
		for _, arg := range in.Args {
			if li.loop.Defs[arg] && !set[arg] {
				invariant = false
				break
			}
		}
		if invariant {
			set[in.Dest] = true
		}
	}
	// Sets only grow, so a size change against the previous visit also
	// catches names that arrived through the meet alone.
	if len(set) == li.sizes[b.ID] {
		return cfg.Unchanged
	}
	li.sizes[b.ID] = len(set)
	return cfg.Changed
}

func (li *loopInvariance) Transform(b *cfg.BasicBlock) {}
func (li *loopInvariance) Direction() cfg.Direction    { return cfg.Forward }
func (li *loopInvariance) Order() cfg.Order {
	return cfg.Order{Kind: cfg.Subset, Blocks: li.loop.Body}
}

// RunLICM finds every natural loop, gives each header a preheader, and
// hoists invariant instructions into it. An instruction moves only when
// it is safe: no side effects, not control flow, its block dominates all
// in-loop uses of its destination, and either its block dominates every
// exiting block or the destination is never used outside the loop.
func RunLICM(g *cfg.Graph) error {
	dom := cfg.Dominance(g)
	loops, err := cfg.FindLoops(g, dom)
	if err != nil {
		return err
	}
	if len(loops) == 0 {
		return nil
	}
	// Preheader insertion grew the graph; dominance must be recomputed
	// before it can back the safety checks.
	dom = cfg.Dominance(g)
	for _, l := range loops {
		li := newLoopInvariance(g, l)
		g.Dataflow(li)
		hoist(g, dom, l, li.inv)
	}
	return nil
}

func hoist(g *cfg.Graph, dom *cfg.DomInfo, l *cfg.Loop, inv map[int]map[string]bool) {
	fb := g.Funcs[g.FuncIndexOf(l.Header)]
	pre := g.Blocks[l.Preheader]
	// Decide first, then move: the safety checks scan the loop's items
	// and must not observe a block mid-compaction.
	moved := make(map[int]map[int]bool)
	for _, id := range l.Body {
		b := g.Blocks[id]
		for i, it := range b.Items {
			if canHoist(g, dom, l, inv, fb, id, it) {
				if moved[id] == nil {
					moved[id] = make(map[int]bool)
				}
				moved[id][i] = true
			}
		}
	}
	for _, id := range l.Body {
		idx := moved[id]
		if len(idx) == 0 {
			continue
		}
		b := g.Blocks[id]
		keep := make([]bril.Item, 0, len(b.Items)-len(idx))
		for i, it := range b.Items {
			if idx[i] {
				pre.Items = append(pre.Items, it)
			} else {
				keep = append(keep, it)
			}
		}
		b.Items = keep
	}
}

func canHoist(g *cfg.Graph, dom *cfg.DomInfo, l *cfg.Loop, inv map[int]map[string]bool, fb *cfg.FuncBlocks, blockID int, it bril.Item) bool {
	in := it.Instr
	if in == nil || in.Dest == "" || in.IsPhi() || in.IsNonlinear() || in.HasSideEffects() {
		return false
	}
	if !inv[blockID][in.Dest] {
		return false
	}
	insideUses, outsideUses := collectUses(g, l, fb, in.Dest)
	for _, use := range insideUses {
		if use != blockID && !dom.Dominates(blockID, use) {
			return false
		}
	}
	if len(outsideUses) > 0 {
		for _, exit := range l.Exiting {
			if !dom.Dominates(blockID, exit) {
				return false
			}
		}
	}
	return true
}

// collectUses splits the blocks using name into in-loop and out-of-loop
// sets. Phi operands count as uses of their argument names.
func collectUses(g *cfg.Graph, l *cfg.Loop, fb *cfg.FuncBlocks, name string) (inside, outside []int) {
	for _, id := range fb.Order {
		for _, it := range g.Blocks[id].Items {
			in := it.Instr
			if in == nil {
				continue
			}
			for _, arg := range in.Args {
				if arg == name {
					if l.Contains(id) {
						inside = append(inside, id)
					} else {
						outside = append(outside, id)
					}
					break
				}
			}
		}
	}
	return inside, outside
}
