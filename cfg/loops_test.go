package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countingLoopSrc = `{"functions":[{"name":"main","instrs":[
  {"op":"const","dest":"i","type":"int","value":0},
  {"op":"const","dest":"n","type":"int","value":10},
  {"label":"head"},
  {"op":"lt","dest":"cond","type":"bool","args":["i","n"]},
  {"op":"br","args":["cond"],"labels":["body","done"]},
  {"label":"body"},
  {"op":"const","dest":"one","type":"int","value":1},
  {"op":"add","dest":"i","type":"int","args":["i","one"]},
  {"op":"jmp","labels":["head"]},
  {"label":"done"},
  {"op":"print","args":["i"]}]}]}`

func TestFindLoops_BackEdgeAndBody(t *testing.T) {
	g := build(t, countingLoopSrc)
	loops, err := FindLoops(g, Dominance(g))
	require.NoError(t, err)
	require.Len(t, loops, 1)

	l := loops[0]
	head := blockByLabel(t, g, "head")
	body := blockByLabel(t, g, "body")
	done := blockByLabel(t, g, "done")

	assert.Equal(t, head.ID, l.Header)
	assert.Equal(t, body.ID, l.Latch)
	assert.ElementsMatch(t, []int{head.ID, body.ID}, l.Body)
	assert.Equal(t, head.ID, l.Body[0], "header leads the body")
	assert.Equal(t, []int{head.ID}, l.Exiting)
	assert.Equal(t, done.ID, l.Exit)
	assert.True(t, l.Defs["i"])
	assert.True(t, l.Defs["cond"])
	assert.False(t, l.Defs["n"])
}

func TestFindLoops_PreheaderReroutesOutsideEdges(t *testing.T) {
	g := build(t, countingLoopSrc)
	loops, err := FindLoops(g, Dominance(g))
	require.NoError(t, err)
	l := loops[0]

	head := blockByLabel(t, g, "head")
	body := blockByLabel(t, g, "body")
	pre := g.Blocks[l.Preheader]

	assert.Equal(t, "head_preheader", pre.Label())
	// The header keeps exactly the preheader and the latch as
	// predecessors; the outside edge now enters the preheader.
	assert.ElementsMatch(t, []int{pre.ID, body.ID}, head.Preds)
	assert.Equal(t, []int{head.ID}, pre.Succs)
	require.Len(t, pre.Preds, 1)
	outside := g.Blocks[pre.Preds[0]]
	assert.NotContains(t, l.Body, outside.ID)

	// Textual order places the preheader immediately before the header.
	fb := g.Funcs[0]
	for i, id := range fb.Order {
		if id == pre.ID {
			require.Less(t, i+1, len(fb.Order))
			assert.Equal(t, head.ID, fb.Order[i+1])
		}
	}
}

func TestFindLoops_LatchJumpTargetsStayOnHeader(t *testing.T) {
	// The latch's back-edge jmp still names the header; only outside
	// edges are rewritten to the preheader label.
	g := build(t, countingLoopSrc)
	_, err := FindLoops(g, Dominance(g))
	require.NoError(t, err)

	body := blockByLabel(t, g, "body")
	term := body.Terminator()
	require.NotNil(t, term)
	assert.Equal(t, []string{"head"}, term.Labels)
}

func TestFindLoops_JumpIntoHeaderRewritten(t *testing.T) {
	// An outside edge that reaches the header via an explicit jmp must
	// have its target label rewritten, or the emitted program would skip
	// the preheader.
	g := build(t, `{"functions":[{"name":"main","instrs":[
	  {"op":"const","dest":"c","type":"bool","value":true},
	  {"op":"jmp","labels":["head"]},
	  {"label":"head"},
	  {"op":"br","args":["c"],"labels":["head","done"]},
	  {"label":"done"}]}]}`)
	loops, err := FindLoops(g, Dominance(g))
	require.NoError(t, err)
	require.Len(t, loops, 1)

	jumper := g.Blocks[g.Funcs[0].Order[1]]
	assert.Equal(t, []string{"head_preheader"}, jumper.Terminator().Labels)
	// The header's own back-edge branch is untouched.
	head := blockByLabel(t, g, "head")
	assert.Equal(t, []string{"head", "done"}, head.Terminator().Labels)
}

func TestFindLoops_NoLoopsNoPreheaders(t *testing.T) {
	g := build(t, diamondSrc)
	before := len(g.Blocks)
	loops, err := FindLoops(g, Dominance(g))
	require.NoError(t, err)
	assert.Empty(t, loops)
	assert.Equal(t, before, len(g.Blocks))
}
