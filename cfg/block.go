// Package cfg builds and transforms per-function control-flow graphs over
// the bril IR. Blocks live in a program-wide arena indexed by dense block
// id; every cross-block reference is an id, never a pointer, so analysis
// state can be kept in side tables without touching the blocks.
package cfg

import (
	"brilopt/bril"
)

// BasicBlock is a maximal straight-line run of items. The first item is
// always a label. Fn is set only on a function's entry block and carries
// the function metadata (name, signature, preserved unknown fields).
type BasicBlock struct {
	ID    int
	Fn    *bril.Function
	Items []bril.Item
	Preds []int
	Succs []int
}

// Label returns the block's label name.
func (b *BasicBlock) Label() string {
	if len(b.Items) == 0 || b.Items[0].Label == nil {
		return ""
	}
	return b.Items[0].Label.Label
}

// Terminator returns the block's final instruction if it ends control
// flow, nil for fall-through blocks.
func (b *BasicBlock) Terminator() *bril.Instruction {
	if len(b.Items) == 0 {
		return nil
	}
	last := b.Items[len(b.Items)-1].Instr
	if last != nil && last.IsTerminator() {
		return last
	}
	return nil
}

// FuncBlocks tracks one function's slice of the arena: its metadata and
// the textual order of its block ids. Order[0] is the entry block.
type FuncBlocks struct {
	Fn    *bril.Function
	Order []int
}

// Entry returns the function's entry block id.
func (fb *FuncBlocks) Entry() int { return fb.Order[0] }

// Graph is the program-wide block arena plus per-function ordering.
type Graph struct {
	Blocks []*BasicBlock
	Funcs  []*FuncBlocks

	prog   *bril.Program
	funcOf []int
}

// Block resolves a block id.
func (g *Graph) Block(id int) *BasicBlock { return g.Blocks[id] }

// FuncIndexOf returns the index into Funcs of the function owning the
// block.
func (g *Graph) FuncIndexOf(id int) int { return g.funcOf[id] }

// NewID hands out a fresh instruction identity from the program counter.
func (g *Graph) NewID() int { return g.prog.NewID() }

// newBlock appends an empty block for function fi to the arena.
func (g *Graph) newBlock(fi int) *BasicBlock {
	b := &BasicBlock{ID: len(g.Blocks)}
	g.Blocks = append(g.Blocks, b)
	g.funcOf = append(g.funcOf, fi)
	return b
}

func (g *Graph) addEdge(from, to int) {
	g.Blocks[from].Succs = append(g.Blocks[from].Succs, to)
	g.Blocks[to].Preds = append(g.Blocks[to].Preds, from)
}

// BFSFrom returns block ids in breadth-first order from start, following
// successor edges. Successors enqueue in edge order, ties FIFO.
func (g *Graph) BFSFrom(start int) []int {
	visited := map[int]bool{start: true}
	order := []int{start}
	queue := []int{start}
	for len(queue) > 0 {
		b := g.Blocks[queue[0]]
		queue = queue[1:]
		for _, s := range b.Succs {
			if !visited[s] {
				visited[s] = true
				order = append(order, s)
				queue = append(queue, s)
			}
		}
	}
	return order
}

// PostorderFrom returns block ids in depth-first postorder from start.
func (g *Graph) PostorderFrom(start int) []int {
	visited := make(map[int]bool)
	var order []int
	var walk func(id int)
	walk = func(id int) {
		visited[id] = true
		for _, s := range g.Blocks[id].Succs {
			if !visited[s] {
				walk(s)
			}
		}
		order = append(order, id)
	}
	walk(start)
	return order
}
