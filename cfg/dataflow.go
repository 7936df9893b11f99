package cfg

// The generic fixed-point solver. An analysis owns its own fact tables
// keyed by block id; the solver owns nothing but the worklist discipline.
// Termination is guaranteed by monotone transfer functions over finite
// lattices — the solver itself never counts iterations.

// Direction selects which edges a changed block re-enqueues.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// OrderKind selects how the worklist is seeded per function.
type OrderKind int

const (
	// EntryOnly seeds just the entry block.
	EntryOnly OrderKind = iota
	// BFS seeds every block in breadth-first order from entry.
	BFS
	// PostorderDFS seeds every block in depth-first postorder.
	PostorderDFS
	// Subset seeds a caller-supplied ordered list of blocks and sweeps
	// it to a fixed point. Used to scope dataflow to a loop body.
	Subset
)

// Order is the seeding policy; Blocks is consulted only for Subset.
type Order struct {
	Kind   OrderKind
	Blocks []int
}

// TransferResult tells the solver whether a block's facts moved.
type TransferResult int

const (
	Unchanged TransferResult = iota
	Changed
)

// Analysis is the capability set the solver drives. Meet combines
// neighbor facts into the block's entry state, Transfer recomputes the
// block's exit state, and Transform applies the rewrite once the facts
// have converged.
type Analysis interface {
	Meet(b *BasicBlock)
	Transfer(b *BasicBlock) TransferResult
	Transform(b *BasicBlock)
	Direction() Direction
	Order() Order
}

// Dataflow runs the analysis to a fixed point and then transforms every
// block. Worklist ties break FIFO.
func (g *Graph) Dataflow(a Analysis) {
	ord := a.Order()
	if ord.Kind == Subset {
		g.dataflowSubset(a, ord.Blocks)
		return
	}
	for _, fb := range g.Funcs {
		var queue []int
		switch ord.Kind {
		case EntryOnly:
			queue = []int{fb.Entry()}
		case BFS:
			queue = g.BFSFrom(fb.Entry())
		case PostorderDFS:
			queue = g.PostorderFrom(fb.Entry())
		}
		for len(queue) > 0 {
			b := g.Blocks[queue[0]]
			queue = queue[1:]
			a.Meet(b)
			if a.Transfer(b) == Changed {
				if a.Direction() == Forward {
					queue = append(queue, b.Succs...)
				} else {
					queue = append(queue, b.Preds...)
				}
			}
		}
	}
	for _, b := range g.Blocks {
		a.Transform(b)
	}
}

// dataflowSubset drains the supplied blocks in order, re-seeding the
// whole list until a full sweep reports no change.
func (g *Graph) dataflowSubset(a Analysis, subset []int) {
	for {
		changed := false
		for _, id := range subset {
			b := g.Blocks[id]
			a.Meet(b)
			if a.Transfer(b) == Changed {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	for _, b := range g.Blocks {
		a.Transform(b)
	}
}

// ConditionalTransferResult is the optimistic variant's signal: instead
// of a bare changed bit, the transfer names which successors become
// reachable. Unreached branches stay off the worklist until a taken path
// proves them live.
type ConditionalTransferResult int

const (
	AllPathsTaken ConditionalTransferResult = iota
	FirstPathTaken
	SecondPathTaken
	NoPathTaken
)

// ConditionalAnalysis is the sparse-conditional capability set. Always
// forward; seeding is entry-only by construction.
type ConditionalAnalysis interface {
	Meet(b *BasicBlock)
	Transfer(b *BasicBlock) ConditionalTransferResult
	Transform(b *BasicBlock)
}

// DataflowConditional runs the optimistic forward solver: only
// successors named by the transfer are enqueued, so blocks on
// statically-untaken paths are never visited.
func (g *Graph) DataflowConditional(a ConditionalAnalysis) {
	for _, fb := range g.Funcs {
		queue := []int{fb.Entry()}
		for len(queue) > 0 {
			b := g.Blocks[queue[0]]
			queue = queue[1:]
			a.Meet(b)
			switch a.Transfer(b) {
			case AllPathsTaken:
				queue = append(queue, b.Succs...)
			case FirstPathTaken:
				if len(b.Succs) > 0 {
					queue = append(queue, b.Succs[0])
				}
			case SecondPathTaken:
				if len(b.Succs) > 1 {
					queue = append(queue, b.Succs[1])
				}
			case NoPathTaken:
			}
		}
	}
	for _, b := range g.Blocks {
		a.Transform(b)
	}
}
