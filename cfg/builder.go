package cfg

import (
	"fmt"
	"strconv"

	"brilopt/bril"
)

// Build partitions every function of the program into basic blocks and
// wires predecessor/successor edges. The program is consumed: items move
// into blocks, and formal parameters are renamed so their definitions
// become ordinary copy instructions in the entry block.
func Build(p *bril.Program) (*Graph, error) {
	g := &Graph{prog: p}
	for fi := range p.Functions {
		if err := g.buildFunction(fi, &p.Functions[fi]); err != nil {
			return nil, fmt.Errorf("function %s: %w", p.Functions[fi].Name, err)
		}
	}
	return g, nil
}

// buildFunction splits one function into blocks and resolves its edges.
// Labels are function-scoped, so edge resolution happens here too.
func (g *Graph) buildFunction(fi int, f *bril.Function) error {
	// Synthetic entry block. Each formal parameter is renamed to
	// <Fn>_<Param> and redefined under its original name with a copy, so
	// dataflow sees parameter definitions as ordinary instructions.
	meta := &bril.Function{Name: f.Name, Type: f.Type, Other: f.Other}
	entry := g.newBlock(fi)
	entry.Fn = meta
	entry.Items = append(entry.Items, bril.NewLabelItem("entry"+f.Name))
	for _, arg := range f.Args {
		renamed := f.Name + "_" + arg.Name
		meta.Args = append(meta.Args, bril.FuncArg{Name: renamed, Type: arg.Type})
		entry.Items = append(entry.Items, bril.Item{Instr: &bril.Instruction{
			Op:   "id",
			Dest: arg.Name,
			Type: arg.Type,
			Args: []string{renamed},
			ID:   g.prog.NewID(),
		}})
	}

	fb := &FuncBlocks{Fn: meta, Order: []int{entry.ID}}
	g.Funcs = append(g.Funcs, fb)

	// Block splitting: a label starts a block, and so does the first
	// instruction after a terminator (which gets a synthesized label).
	cur := entry
	needNew := true
	byLabel := map[string]int{entry.Label(): entry.ID}
	for i := range f.Instrs {
		it := f.Instrs[i]
		if it.Label != nil {
			b := g.newBlock(fi)
			b.Items = append(b.Items, it)
			if prev, dup := byLabel[it.Label.Label]; dup {
				return fmt.Errorf("label %s already used by block %d", it.Label.Label, prev)
			}
			byLabel[it.Label.Label] = b.ID
			fb.Order = append(fb.Order, b.ID)
			cur = b
			needNew = false
			continue
		}
		in := it.Instr
		if in.ID == 0 {
			return fmt.Errorf("instruction %q has no identity", in.Op)
		}
		if needNew {
			b := g.newBlock(fi)
			lbl := f.Name + strconv.Itoa(b.ID)
			b.Items = append(b.Items, bril.NewLabelItem(lbl))
			byLabel[lbl] = b.ID
			fb.Order = append(fb.Order, b.ID)
			cur = b
			needNew = false
		}
		cur.Items = append(cur.Items, it)
		if in.IsTerminator() {
			needNew = true
		}
	}
	f.Instrs = nil

	// Edges. Branch targets come in (condition, true-label, false-label)
	// order; the true edge is always added first. A block that does not
	// end control flow falls through to its textual successor.
	for oi, id := range fb.Order {
		b := g.Blocks[id]
		term := b.Terminator()
		if term == nil {
			if oi+1 < len(fb.Order) {
				g.addEdge(id, fb.Order[oi+1])
			}
			continue
		}
		switch term.Op {
		case "jmp":
			if len(term.Labels) < 1 {
				return fmt.Errorf("jmp in block %d has no target", id)
			}
			to, ok := byLabel[term.Labels[0]]
			if !ok {
				return fmt.Errorf("jmp target %s does not exist", term.Labels[0])
			}
			g.addEdge(id, to)
		case "br":
			if len(term.Labels) < 2 {
				return fmt.Errorf("br in block %d needs two targets", id)
			}
			for _, lbl := range term.Labels[:2] {
				to, ok := byLabel[lbl]
				if !ok {
					return fmt.Errorf("br target %s does not exist", lbl)
				}
				g.addEdge(id, to)
			}
		case "ret":
			// No successors.
		}
	}
	return nil
}

// ToProgram reassembles the blocks into a program, each function's items
// concatenated in the function's current textual block order.
func (g *Graph) ToProgram() *bril.Program {
	out := &bril.Program{}
	for _, fb := range g.Funcs {
		fn := *fb.Fn
		var items []bril.Item
		for _, id := range fb.Order {
			items = append(items, g.Blocks[id].Items...)
		}
		fn.Instrs = items
		out.Functions = append(out.Functions, fn)
	}
	return out
}
