package cfg

import (
	"fmt"
	"sort"

	"brilopt/bril"
)

// Loop is a natural loop: a back-edge latch → header where the header
// dominates the latch, plus every block that can reach the latch without
// passing through the header.
type Loop struct {
	Header    int
	Latch     int
	Preheader int
	// Body holds the loop's blocks, header first, the rest in the
	// function's textual order.
	Body []int
	// Exiting lists body blocks with a successor outside the loop.
	Exiting []int
	// Exit is one block targeted by an exiting edge, -1 if the loop
	// never exits.
	Exit int
	// Defs is the set of names defined anywhere inside the loop.
	Defs map[string]bool
}

// Contains reports whether the block is part of the loop body.
func (l *Loop) Contains(id int) bool {
	for _, b := range l.Body {
		if b == id {
			return true
		}
	}
	return false
}

// FindLoops identifies every natural loop and inserts a preheader per
// distinct header. Preheaders are synthesized blocks labelled
// <HeaderLabel>_preheader, placed textually immediately before the
// header; every edge into the header from outside the loop is redirected
// through them.
func FindLoops(g *Graph, dom *DomInfo) ([]*Loop, error) {
	var loops []*Loop
	preheaders := make(map[int]int)
	for _, fb := range g.Funcs {
		// Back-edges, in textual order for determinism.
		type backEdge struct{ latch, header int }
		var edges []backEdge
		for _, id := range fb.Order {
			for _, s := range g.Blocks[id].Succs {
				if dom.Dominates(s, id) {
					edges = append(edges, backEdge{latch: id, header: s})
				}
			}
		}
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].header != edges[j].header {
				return edges[i].header < edges[j].header
			}
			return edges[i].latch < edges[j].latch
		})
		for _, e := range edges {
			body := loopBody(g, fb, e.header, e.latch)
			l := &Loop{
				Header: e.header,
				Latch:  e.latch,
				Body:   body,
				Exit:   -1,
				Defs:   make(map[string]bool),
			}
			inBody := make(map[int]bool, len(body))
			for _, id := range body {
				inBody[id] = true
			}
			for _, id := range body {
				for _, s := range g.Blocks[id].Succs {
					if !inBody[s] {
						l.Exiting = append(l.Exiting, id)
						if l.Exit == -1 {
							l.Exit = s
						}
						break
					}
				}
				for _, it := range g.Blocks[id].Items {
					if it.Instr != nil && it.Instr.Dest != "" {
						l.Defs[it.Instr.Dest] = true
					}
				}
			}
			if ph, ok := preheaders[e.header]; ok {
				l.Preheader = ph
			} else {
				ph, err := createPreheader(g, fb, e.header, inBody)
				if err != nil {
					return nil, err
				}
				preheaders[e.header] = ph
				l.Preheader = ph
			}
			loops = append(loops, l)
		}
	}
	return loops, nil
}

// loopBody walks the reverse CFG from the latch, stopping at the header,
// and returns the header followed by the discovered blocks in textual
// order.
func loopBody(g *Graph, fb *FuncBlocks, header, latch int) []int {
	in := map[int]bool{header: true, latch: true}
	queue := []int{latch}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == header {
			continue
		}
		for _, p := range g.Blocks[id].Preds {
			if !in[p] {
				in[p] = true
				queue = append(queue, p)
			}
		}
	}
	body := []int{header}
	for _, id := range fb.Order {
		if id != header && in[id] {
			body = append(body, id)
		}
	}
	return body
}

// createPreheader synthesizes the preheader block and reroutes every
// non-loop edge into the header through it. Jump and branch targets
// naming the header are rewritten to the preheader label so the textual
// program stays consistent with the edges.
func createPreheader(g *Graph, fb *FuncBlocks, header int, inBody map[int]bool) (int, error) {
	hb := g.Blocks[header]
	if header == fb.Entry() {
		for _, p := range hb.Preds {
			if p == header {
				return 0, fmt.Errorf("entry block %s loops onto itself", hb.Label())
			}
		}
	}
	headerLabel := hb.Label()
	phLabel := headerLabel + "_preheader"
	ph := g.newBlock(g.funcOf[header])
	ph.Items = append(ph.Items, bril.NewLabelItem(phLabel))

	var keep []int
	for _, p := range hb.Preds {
		if inBody[p] {
			keep = append(keep, p)
			continue
		}
		pb := g.Blocks[p]
		for i, s := range pb.Succs {
			if s == header {
				pb.Succs[i] = ph.ID
			}
		}
		if term := pb.Terminator(); term != nil {
			for i, lbl := range term.Labels {
				if lbl == headerLabel {
					term.Labels[i] = phLabel
				}
			}
		}
		ph.Preds = append(ph.Preds, p)
	}
	hb.Preds = append([]int{ph.ID}, keep...)
	ph.Succs = []int{header}

	for i, id := range fb.Order {
		if id == header {
			fb.Order = append(fb.Order, 0)
			copy(fb.Order[i+1:], fb.Order[i:])
			fb.Order[i] = ph.ID
			break
		}
	}
	return ph.ID, nil
}
