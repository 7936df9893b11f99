// Package passes contains the concrete analyses and transforms that run
// over a built CFG: liveness with dead-code elimination, constant
// propagation in pessimistic and sparse-conditional flavors, may-alias
// analysis with dead-store elimination, and loop-invariant code motion.
package passes

import (
	"brilopt/bril"
	"brilopt/cfg"
)

// LiveState is the per-variable liveness lattice. Dead is bottom;
// StrongAlive absorbs everything. A merely Alive variable feeds only
// other definitions, so its chain may still be dead; StrongAlive means
// the value reaches an instruction with observable effects.
type LiveState int

const (
	Dead LiveState = iota
	Alive
	StrongAlive
)

func meetLive(a, b LiveState) LiveState {
	if b > a {
		return b
	}
	return a
}

// Liveness is a backward analysis whose transform drops dead
// definitions. Facts accumulate monotonically: once a name is alive in a
// block it can never fall back to dead, which bounds every block to at
// most two upward moves per name.
type Liveness struct {
	g           *cfg.Graph
	facts       map[int]map[string]LiveState
	exits       map[int]map[string]LiveState
	analyzeOnly bool
}

func NewLiveness(g *cfg.Graph) *Liveness {
	return &Liveness{
		g:     g,
		facts: make(map[int]map[string]LiveState),
		exits: make(map[int]map[string]LiveState),
	}
}

// SetAnalyzeOnly suppresses the transform so a run leaves the program
// intact and only the converged facts are consumed.
func (lv *Liveness) SetAnalyzeOnly(v bool) { lv.analyzeOnly = v }

// Run converges the analysis and removes dead instructions.
func (lv *Liveness) Run() { lv.g.Dataflow(lv) }

// Fact reports the converged state of name in the given block.
func (lv *Liveness) Fact(blockID int, name string) LiveState {
	return lv.facts[blockID][name]
}

func (lv *Liveness) block(id int) map[string]LiveState {
	m, ok := lv.facts[id]
	if !ok {
		m = make(map[string]LiveState)
		lv.facts[id] = m
	}
	return m
}

// Meet folds successor facts into the block. The analysis runs backward,
// so dataflow predecessors are CFG successors.
func (lv *Liveness) Meet(b *cfg.BasicBlock) {
	m := lv.block(b.ID)
	for _, s := range b.Succs {
		for name, v := range lv.facts[s] {
			m[name] = meetLive(m[name], v)
		}
	}
}

// Transfer walks the block's instructions bottom-up. Side-effecting
// instructions pin their arguments strongly live; any other use marks
// its arguments alive; destinations drop toward dead, but only through
// the meet, so an already-live name stays live.
func (lv *Liveness) Transfer(b *cfg.BasicBlock) cfg.TransferResult {
	m := lv.block(b.ID)
	for i := len(b.Items) - 1; i >= 0; i-- {
		in := b.Items[i].Instr
		if in == nil {
			continue
		}
		effectful := in.IsNonlinear() || in.HasSideEffects()
		argState := Alive
		if effectful || (in.Dest != "" && m[in.Dest] == StrongAlive) {
			argState = StrongAlive
		}
		for _, arg := range in.Args {
			m[arg] = meetLive(m[arg], argState)
		}
		if in.Dest != "" {
			destState := Dead
			if effectful {
				destState = StrongAlive
			}
			m[in.Dest] = meetLive(m[in.Dest], destState)
		}
	}
	// Compare against the previous visit's result, so growth that arrived
	// through the meet alone still reaches the predecessors.
	if liveEqual(lv.exits[b.ID], m) {
		return cfg.Unchanged
	}
	lv.exits[b.ID] = snapshotLive(m)
	return cfg.Changed
}

// Transform drops every removable instruction whose destination
// converged to Dead. Labels and side-effecting instructions always
// survive.
func (lv *Liveness) Transform(b *cfg.BasicBlock) {
	if lv.analyzeOnly {
		return
	}
	m := lv.facts[b.ID]
	keep := b.Items[:0]
	for _, it := range b.Items {
		if !lv.isDead(it, m) {
			keep = append(keep, it)
		}
	}
	b.Items = keep
}

func (lv *Liveness) isDead(it bril.Item, m map[string]LiveState) bool {
	in := it.Instr
	if in == nil || in.IsNonlinear() || in.HasSideEffects() || in.Dest == "" {
		return false
	}
	state, seen := m[in.Dest]
	return seen && state == Dead
}

// DeadInstructions reports, without transforming, the identities of
// instructions the converged facts prove removable. Used by the report
// surface.
func (lv *Liveness) DeadInstructions() []int {
	var dead []int
	for _, b := range lv.g.Blocks {
		m := lv.facts[b.ID]
		for _, it := range b.Items {
			if lv.isDead(it, m) {
				dead = append(dead, it.Instr.ID)
			}
		}
	}
	return dead
}

func (lv *Liveness) Direction() cfg.Direction { return cfg.Backward }
func (lv *Liveness) Order() cfg.Order         { return cfg.Order{Kind: cfg.BFS} }

func snapshotLive(m map[string]LiveState) map[string]LiveState {
	out := make(map[string]LiveState, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func liveEqual(a, b map[string]LiveState) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
