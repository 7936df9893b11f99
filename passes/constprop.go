package passes

import (
	"brilopt/bril"
	"brilopt/cfg"
)

// ConstKind tags a value in the constant lattice. Bottom means not yet
// seen on any path; Top means seen with conflicting values.
type ConstKind int

const (
	Bottom ConstKind = iota
	Top
	ConstInt
	ConstBool
)

// ConstValue is one lattice element. The zero value is Bottom.
type ConstValue struct {
	Kind ConstKind
	Int  int64
	Bool bool
}

var (
	bottom = ConstValue{Kind: Bottom}
	top    = ConstValue{Kind: Top}
)

func constInt(n int64) ConstValue { return ConstValue{Kind: ConstInt, Int: n} }
func constBool(b bool) ConstValue { return ConstValue{Kind: ConstBool, Bool: b} }

// meetConst combines two lattice values: Bottom is the identity, Top
// absorbs, equal constants survive, and differing constants widen to
// Top.
func meetConst(a, b ConstValue) ConstValue {
	switch {
	case a.Kind == Bottom:
		return b
	case b.Kind == Bottom:
		return a
	case a.Kind == Top || b.Kind == Top:
		return top
	case a == b:
		return a
	default:
		return top
	}
}

// evalConst interprets one instruction over the current facts and
// returns the destination's new lattice value. Instructions whose result
// cannot be modelled widen their destination to Top — the destination
// may be a rebinding of a name that held a constant on entry, and a
// stale constant would let the transform rewrite a non-constant
// definition.
func evalConst(in *bril.Instruction, facts map[string]ConstValue) (ConstValue, bool) {
	if in.Dest == "" {
		return bottom, false
	}
	switch {
	case in.IsConst():
		switch in.Type {
		case bril.TypeInt:
			if n, ok := in.IntValue(); ok {
				return constInt(n), true
			}
		case bril.TypeBool:
			if v, ok := in.BoolValue(); ok {
				return constBool(v), true
			}
		}
		return top, true
	case in.IsID():
		if len(in.Args) == 1 {
			return facts[in.Args[0]], true
		}
		return top, true
	case in.IsArith():
		if len(in.Args) != 2 {
			return top, true
		}
		a, b := facts[in.Args[0]], facts[in.Args[1]]
		if a.Kind != ConstInt || b.Kind != ConstInt {
			return top, true
		}
		switch in.Op {
		case "add":
			return constInt(a.Int + b.Int), true
		case "sub":
			return constInt(a.Int - b.Int), true
		case "mul":
			return constInt(a.Int * b.Int), true
		case "div":
			// A zero divisor is never folded; the instruction stays put.
			if b.Int == 0 {
				return top, true
			}
			return constInt(a.Int / b.Int), true
		}
	case in.IsCompare():
		if len(in.Args) != 2 {
			return top, true
		}
		a, b := facts[in.Args[0]], facts[in.Args[1]]
		if a.Kind != ConstInt || b.Kind != ConstInt {
			return top, true
		}
		switch in.Op {
		case "eq":
			return constBool(a.Int == b.Int), true
		case "lt":
			return constBool(a.Int < b.Int), true
		case "le":
			return constBool(a.Int <= b.Int), true
		case "gt":
			return constBool(a.Int > b.Int), true
		case "ge":
			return constBool(a.Int >= b.Int), true
		}
	}
	return top, true
}

// foldBlock runs the transfer over a block's instructions, mutating the
// fact map in place.
func foldBlock(b *cfg.BasicBlock, facts map[string]ConstValue) {
	for _, it := range b.Items {
		in := it.Instr
		if in == nil {
			continue
		}
		if v, ok := evalConst(in, facts); ok {
			facts[in.Dest] = v
		}
	}
}

// rewriteConstants replays the transfer from the block's converged
// entry state and replaces each instruction whose own result is a known
// constant with the literal `const`. Replaying per instruction keeps a
// later, unfoldable rebinding of the same name from smearing a stale
// constant over it.
func rewriteConstants(b *cfg.BasicBlock, entry map[string]ConstValue) {
	facts := cloneConst(entry)
	for _, it := range b.Items {
		in := it.Instr
		if in == nil {
			continue
		}
		v, ok := evalConst(in, facts)
		if !ok {
			continue
		}
		facts[in.Dest] = v
		if in.IsNonlinear() || in.IsConst() || in.IsPhi() {
			continue
		}
		switch v.Kind {
		case ConstInt:
			in.SetConstInt(v.Int)
		case ConstBool:
			in.SetConstBool(v.Bool)
		}
	}
}

func cloneConst(m map[string]ConstValue) map[string]ConstValue {
	out := make(map[string]ConstValue, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func constEqual(a, b map[string]ConstValue) bool {
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

// ConstProp is the pessimistic variant: a plain forward fixed point that
// meets over every predecessor, reachable or not.
type ConstProp struct {
	g   *cfg.Graph
	in  map[int]map[string]ConstValue
	out map[int]map[string]ConstValue
}

func NewConstProp(g *cfg.Graph) *ConstProp {
	return &ConstProp{
		g:   g,
		in:  make(map[int]map[string]ConstValue),
		out: make(map[int]map[string]ConstValue),
	}
}

// Run converges the facts and folds constant definitions.
func (cp *ConstProp) Run() { cp.g.Dataflow(cp) }

func (cp *ConstProp) Meet(b *cfg.BasicBlock) {
	m := make(map[string]ConstValue)
	for _, p := range b.Preds {
		for name, v := range cp.out[p] {
			m[name] = meetConst(m[name], v)
		}
	}
	cp.in[b.ID] = m
}

func (cp *ConstProp) Transfer(b *cfg.BasicBlock) cfg.TransferResult {
	post := cloneConst(cp.in[b.ID])
	foldBlock(b, post)
	if constEqual(post, cp.out[b.ID]) {
		return cfg.Unchanged
	}
	cp.out[b.ID] = post
	return cfg.Changed
}

func (cp *ConstProp) Transform(b *cfg.BasicBlock) {
	rewriteConstants(b, cp.in[b.ID])
}

func (cp *ConstProp) Direction() cfg.Direction { return cfg.Forward }
func (cp *ConstProp) Order() cfg.Order         { return cfg.Order{Kind: cfg.BFS} }
