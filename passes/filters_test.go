package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveNops(t *testing.T) {
	p := parse(t, `{"functions":[{"name":"main","instrs":[
	  {"op":"nop"},
	  {"op":"const","dest":"a","type":"int","value":1},
	  {"op":"nop"},
	  {"label":"tail"},
	  {"op":"print","args":["a"]}]}]}`)
	RemoveNops(p)

	require.Len(t, p.Functions[0].Instrs, 3)
	assert.Equal(t, "const", p.Functions[0].Instrs[0].Instr.Op)
	assert.NotNil(t, p.Functions[0].Instrs[1].Label)
}

func TestPhiToCopies_RewritesSingleArgPhis(t *testing.T) {
	p := parse(t, `{"functions":[{"name":"main","instrs":[
	  {"op":"phi","dest":"a","type":"int","args":["a0"],"labels":["entry"]},
	  {"op":"phi","dest":"b","type":"int","args":["b0","b1"],"labels":["l","r"]},
	  {"op":"print","args":["a","b"]}]}]}`)
	PhiToCopies(p)

	single := p.Functions[0].Instrs[0].Instr
	assert.Equal(t, "id", single.Op)
	assert.Equal(t, []string{"a0"}, single.Args)
	assert.Nil(t, single.Labels)

	double := p.Functions[0].Instrs[1].Instr
	assert.Equal(t, "phi", double.Op)
	assert.Len(t, double.Labels, 2)
}
