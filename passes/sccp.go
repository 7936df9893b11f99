package passes

import (
	"brilopt/cfg"
)

// SCCP is the optimistic variant of constant propagation. It shares the
// lattice and transfer with ConstProp but rides the conditional solver:
// when a block ends in a branch whose condition has folded to a known
// boolean, only the taken successor is enqueued, so blocks on untaken
// paths are never visited and keep no facts at all.
type SCCP struct {
	g           *cfg.Graph
	in          map[int]map[string]ConstValue
	out         map[int]map[string]ConstValue
	analyzeOnly bool
}

// SetAnalyzeOnly suppresses the transform so a run only computes
// reachability and constant facts.
func (s *SCCP) SetAnalyzeOnly(v bool) { s.analyzeOnly = v }

func NewSCCP(g *cfg.Graph) *SCCP {
	return &SCCP{
		g:   g,
		in:  make(map[int]map[string]ConstValue),
		out: make(map[int]map[string]ConstValue),
	}
}

// Run converges the facts sparsely and folds constant definitions in
// reached blocks. Unreached blocks are left untouched — pruning them is
// a separate concern.
func (s *SCCP) Run() { s.g.DataflowConditional(s) }

// Reached reports whether the solver ever visited the block. Blocks on
// statically-untaken paths stay unreached.
func (s *SCCP) Reached(blockID int) bool {
	_, ok := s.out[blockID]
	return ok
}

// Meet merges only predecessors that have facts; an unreached
// predecessor contributes nothing, which is exactly the bottom identity.
func (s *SCCP) Meet(b *cfg.BasicBlock) {
	m := make(map[string]ConstValue)
	for _, p := range b.Preds {
		for name, v := range s.out[p] {
			m[name] = meetConst(m[name], v)
		}
	}
	s.in[b.ID] = m
}

// Transfer recomputes the block's facts; if nothing moved, no successor
// is enqueued. Otherwise the terminator decides: a branch on a known
// boolean enqueues only the matching arm, everything else takes all
// paths.
func (s *SCCP) Transfer(b *cfg.BasicBlock) cfg.ConditionalTransferResult {
	post := cloneConst(s.in[b.ID])
	foldBlock(b, post)
	if prev, visited := s.out[b.ID]; visited && constEqual(post, prev) {
		return cfg.NoPathTaken
	}
	s.out[b.ID] = post

	if term := b.Terminator(); term != nil && term.IsBr() && len(term.Args) > 0 {
		switch cond := post[term.Args[0]]; {
		case cond.Kind == ConstBool && cond.Bool:
			return cfg.FirstPathTaken
		case cond.Kind == ConstBool && !cond.Bool:
			return cfg.SecondPathTaken
		}
	}
	return cfg.AllPathsTaken
}

func (s *SCCP) Transform(b *cfg.BasicBlock) {
	if s.analyzeOnly {
		return
	}
	if _, ok := s.out[b.ID]; ok {
		rewriteConstants(b, s.in[b.ID])
	}
}
