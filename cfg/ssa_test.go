package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brilopt/bril"
)

// defCount tallies definitions per name across a whole graph, phis
// included.
func defCount(g *Graph) map[string]int {
	counts := make(map[string]int)
	for _, b := range g.Blocks {
		for _, it := range b.Items {
			if it.Instr != nil && it.Instr.Dest != "" {
				counts[it.Instr.Dest]++
			}
		}
	}
	return counts
}

func findPhi(t *testing.T, b *BasicBlock) *bril.Instruction {
	t.Helper()
	for _, it := range b.Items {
		if it.Instr != nil && it.Instr.IsPhi() {
			return it.Instr
		}
	}
	t.Fatalf("block %s has no phi", b.Label())
	return nil
}

const reassignSrc = `{"functions":[{"name":"main","instrs":[
  {"op":"const","dest":"a","type":"int","value":1},
  {"op":"const","dest":"c","type":"bool","value":true},
  {"op":"br","args":["c"],"labels":["left","right"]},
  {"label":"left"},
  {"op":"const","dest":"a","type":"int","value":2},
  {"op":"jmp","labels":["join"]},
  {"label":"right"},
  {"op":"const","dest":"a","type":"int","value":3},
  {"op":"jmp","labels":["join"]},
  {"label":"join"},
  {"op":"print","args":["a"]}]}]}`

func TestToSSA_SingleDefinitionProperty(t *testing.T) {
	g := build(t, reassignSrc)
	g.ToSSA()

	for name, n := range defCount(g) {
		assert.Equal(t, 1, n, "name %s defined %d times", name, n)
	}
}

func TestToSSA_PhiAtJoinCollectsBothArms(t *testing.T) {
	g := build(t, reassignSrc)
	g.ToSSA()

	join := blockByLabel(t, g, "join")
	phi := findPhi(t, join)

	// One operand per incoming edge, labelled by the predecessor, no
	// duplicates.
	require.Len(t, phi.Args, 2)
	require.Len(t, phi.Labels, 2)
	var predLabels []string
	for _, p := range join.Preds {
		predLabels = append(predLabels, g.Blocks[p].Label())
	}
	assert.ElementsMatch(t, predLabels, phi.Labels)

	// The print reads the phi's destination.
	last := join.Items[len(join.Items)-1].Instr
	assert.Equal(t, []string{phi.Dest}, last.Args)
	// Every phi operand is one of the renamed definitions of a.
	for _, arg := range phi.Args {
		assert.Regexp(t, `^a\d+$`, arg)
	}
}

func TestToSSA_LocalNamesGetNoPhi(t *testing.T) {
	// A name defined before every use within each block is local; it is
	// renamed but never merged.
	g := build(t, `{"functions":[{"name":"main","instrs":[
	  {"op":"const","dest":"c","type":"bool","value":true},
	  {"op":"br","args":["c"],"labels":["left","right"]},
	  {"label":"left"},
	  {"op":"const","dest":"tmp","type":"int","value":2},
	  {"op":"print","args":["tmp"]},
	  {"op":"jmp","labels":["join"]},
	  {"label":"right"},
	  {"op":"const","dest":"tmp","type":"int","value":3},
	  {"op":"print","args":["tmp"]},
	  {"op":"jmp","labels":["join"]},
	  {"label":"join"}]}]}`)
	g.ToSSA()

	for _, b := range g.Blocks {
		for _, it := range b.Items {
			if it.Instr != nil {
				assert.False(t, it.Instr.IsPhi(), "unexpected phi in %s", b.Label())
			}
		}
	}
	for name, n := range defCount(g) {
		assert.Equal(t, 1, n, "name %s defined %d times", name, n)
	}
}

func TestToSSA_MissingDefinitionBecomesUndefined(t *testing.T) {
	// x is only defined on one arm; the other arm's phi operand is the
	// reserved sentinel.
	g := build(t, `{"functions":[{"name":"main","instrs":[
	  {"op":"const","dest":"c","type":"bool","value":true},
	  {"op":"br","args":["c"],"labels":["left","right"]},
	  {"label":"left"},
	  {"op":"const","dest":"x","type":"int","value":1},
	  {"op":"jmp","labels":["join"]},
	  {"label":"right"},
	  {"op":"jmp","labels":["join"]},
	  {"label":"join"},
	  {"op":"print","args":["x"]}]}]}`)
	g.ToSSA()

	phi := findPhi(t, blockByLabel(t, g, "join"))
	assert.Contains(t, phi.Args, Undefined)
}

func TestToSSA_ParameterCopiesAnchorRenaming(t *testing.T) {
	// The injected parameter copy is the unique definition the renamer
	// threads through the body.
	g := build(t, `{"functions":[{"name":"main",
	  "args":[{"name":"n","type":"int"}],
	  "instrs":[
	    {"op":"const","dest":"one","type":"int","value":1},
	    {"op":"add","dest":"n","type":"int","args":["n","one"]},
	    {"op":"print","args":["n"]}]}]}`)
	g.ToSSA()

	for name, n := range defCount(g) {
		assert.Equal(t, 1, n, "name %s defined %d times", name, n)
	}
	entry := g.Blocks[g.Funcs[0].Entry()]
	cp := entry.Items[1].Instr
	assert.Equal(t, "n0", cp.Dest)
	assert.Equal(t, []string{"main_n"}, cp.Args)
}

func TestToSSA_FreshNameCounterIsPerOriginal(t *testing.T) {
	g := build(t, `{"functions":[{"name":"main","instrs":[
	  {"op":"const","dest":"a","type":"int","value":1},
	  {"op":"const","dest":"a","type":"int","value":2},
	  {"op":"const","dest":"b","type":"int","value":3},
	  {"op":"print","args":["a","b"]}]}]}`)
	g.ToSSA()

	body := g.Blocks[g.Funcs[0].Order[1]]
	var dests []string
	for _, it := range body.Items {
		if it.Instr != nil && it.Instr.Dest != "" {
			dests = append(dests, it.Instr.Dest)
		}
	}
	assert.Equal(t, []string{"a0", "a1", "b0"}, dests)
	print := body.Items[len(body.Items)-1].Instr
	assert.Equal(t, []string{"a1", "b0"}, print.Args)
}
