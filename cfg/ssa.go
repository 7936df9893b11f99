package cfg

import (
	"sort"
	"strconv"

	"brilopt/bril"
)

// Undefined is the reserved argument name a phi receives for an incoming
// edge along which its variable was never defined.
const Undefined = "undefined"

// ToSSA converts every function into static single assignment form:
// phis are placed on the dominance frontier of each global variable's
// definition blocks, then a dominator-tree walk renames definitions and
// uses so every name has exactly one definition site.
func (g *Graph) ToSSA() {
	dom := Dominance(g)
	g.PlacePhis(dom)
	g.RenameSSA(dom)
}

// PlacePhis inserts empty phi definitions for every global name — a name
// read in some block before (or without) a local definition. Purely
// local names never need a phi; renaming handles them in place.
func (g *Graph) PlacePhis(dom *DomInfo) {
	for _, fb := range g.Funcs {
		globals, defs := g.globalNames(fb)
		names := make([]string, 0, len(globals))
		for v := range globals {
			names = append(names, v)
		}
		sort.Strings(names)
		for _, v := range names {
			worklist := append([]int(nil), defs[v]...)
			for len(worklist) > 0 {
				d := worklist[0]
				worklist = worklist[1:]
				for _, f := range dom.Frontier[d] {
					fblock := g.Blocks[f]
					if hasPhiFor(fblock, v) {
						continue
					}
					// Insert right after the block label.
					phi := bril.NewPhi(v, g.prog.NewID())
					fblock.Items = append(fblock.Items, bril.Item{})
					copy(fblock.Items[2:], fblock.Items[1:])
					fblock.Items[1] = phi
					worklist = append(worklist, f)
				}
			}
		}
	}
}

// globalNames scans a function's blocks for names read before being
// defined in the same block, and records which blocks define each name.
func (g *Graph) globalNames(fb *FuncBlocks) (map[string]bool, map[string][]int) {
	globals := make(map[string]bool)
	defs := make(map[string][]int)
	for _, id := range fb.Order {
		defined := make(map[string]bool)
		for _, it := range g.Blocks[id].Items {
			in := it.Instr
			if in == nil {
				continue
			}
			for _, arg := range in.Args {
				if !defined[arg] {
					globals[arg] = true
				}
			}
			if in.Dest != "" {
				if !defined[in.Dest] {
					defs[in.Dest] = append(defs[in.Dest], id)
				}
				defined[in.Dest] = true
			}
		}
	}
	return globals, defs
}

func hasPhiFor(b *BasicBlock, dest string) bool {
	for _, it := range b.Items {
		if it.Instr != nil && it.Instr.IsPhi() && it.Instr.Dest == dest {
			return true
		}
	}
	return false
}

// renamer carries the per-function renaming state: a stack of live fresh
// names per original name, a counter per original name, and the map from
// fresh names back to their originals (needed to route phi operands).
type renamer struct {
	g           *Graph
	dom         *DomInfo
	stacks      map[string][]string
	counters    map[string]int
	freshToOrig map[string]string
}

// RenameSSA performs the renaming phase: a pre-order dominator-tree walk
// rooted at each function's entry. Stacks are balanced per block visit —
// whatever a block pushes it pops on the way out.
func (g *Graph) RenameSSA(dom *DomInfo) {
	for _, fb := range g.Funcs {
		r := &renamer{
			g:           g,
			dom:         dom,
			stacks:      make(map[string][]string),
			counters:    make(map[string]int),
			freshToOrig: make(map[string]string),
		}
		r.rename(fb.Entry())
	}
}

func (r *renamer) fresh(orig string) string {
	n := r.counters[orig]
	r.counters[orig]++
	name := orig + strconv.Itoa(n)
	r.stacks[orig] = append(r.stacks[orig], name)
	r.freshToOrig[name] = orig
	return name
}

func (r *renamer) top(orig string) (string, bool) {
	s := r.stacks[orig]
	if len(s) == 0 {
		return "", false
	}
	return s[len(s)-1], true
}

func (r *renamer) rename(blockID int) {
	b := r.g.Blocks[blockID]
	var pushed []string

	for _, it := range b.Items {
		in := it.Instr
		if in == nil {
			continue
		}
		if in.IsPhi() {
			orig := in.Dest
			in.Dest = r.fresh(orig)
			pushed = append(pushed, orig)
			continue
		}
		for i, arg := range in.Args {
			// A name with no active definition is a live-in (or a use
			// the program never defines); it keeps its original name.
			if top, ok := r.top(arg); ok {
				in.Args[i] = top
			}
		}
		if in.Dest != "" {
			orig := in.Dest
			in.Dest = r.fresh(orig)
			pushed = append(pushed, orig)
		}
	}

	// Contribute this block's current values to successor phis. A
	// predecessor label may only appear once per phi, so re-converging
	// edges do not double up operands.
	label := b.Label()
	for _, s := range b.Succs {
		for _, it := range r.g.Blocks[s].Items {
			in := it.Instr
			if in == nil || !in.IsPhi() {
				continue
			}
			orig, ok := r.freshToOrig[in.Dest]
			if !ok {
				orig = in.Dest
			}
			if containsString(in.Labels, label) {
				continue
			}
			arg := Undefined
			if top, ok := r.top(orig); ok {
				arg = top
			}
			in.Args = append(in.Args, arg)
			in.Labels = append(in.Labels, label)
		}
	}

	for _, child := range r.dom.Children[blockID] {
		r.rename(child)
	}

	for i := len(pushed) - 1; i >= 0; i-- {
		orig := pushed[i]
		s := r.stacks[orig]
		r.stacks[orig] = s[:len(s)-1]
	}
}

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
