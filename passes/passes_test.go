package passes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"brilopt/bril"
	"brilopt/cfg"
)

// Shared helpers for the pass tests.

type instrT = bril.Instruction

func parse(t *testing.T, src string) *bril.Program {
	t.Helper()
	p, err := bril.Load(strings.NewReader(src))
	require.NoError(t, err)
	return p
}

func build(t *testing.T, src string) *cfg.Graph {
	t.Helper()
	g, err := cfg.Build(parse(t, src))
	require.NoError(t, err)
	return g
}

func blockByLabel(t *testing.T, g *cfg.Graph, label string) *cfg.BasicBlock {
	t.Helper()
	for _, b := range g.Blocks {
		if b.Label() == label {
			return b
		}
	}
	t.Fatalf("no block labelled %s", label)
	return nil
}

// opsOf flattens a block to its instruction opcodes.
func opsOf(b *cfg.BasicBlock) []string {
	var ops []string
	for _, it := range b.Items {
		if it.Instr != nil {
			ops = append(ops, it.Instr.Op)
		}
	}
	return ops
}

// findInstr returns the first instruction in the graph matching the
// predicate.
func findInstr(g *cfg.Graph, match func(*bril.Instruction) bool) *bril.Instruction {
	for _, b := range g.Blocks {
		for _, it := range b.Items {
			if it.Instr != nil && match(it.Instr) {
				return it.Instr
			}
		}
	}
	return nil
}

func countInstrs(g *cfg.Graph, op string) int {
	n := 0
	for _, b := range g.Blocks {
		for _, it := range b.Items {
			if it.Instr != nil && it.Instr.Op == op {
				n++
			}
		}
	}
	return n
}
