package bril

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AssignsDenseIdentities(t *testing.T) {
	// Identities are program-wide, injective, and start at 1 so the zero
	// value can flag an instruction that never went through Load.
	src := `{"functions":[
	  {"name":"main","instrs":[
	    {"op":"const","dest":"a","type":"int","value":2},
	    {"label":"next"},
	    {"op":"print","args":["a"]}]},
	  {"name":"aux","instrs":[
	    {"op":"ret"}]}]}`
	p, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	var ids []int
	for _, f := range p.Functions {
		for _, it := range f.Instrs {
			if it.Instr != nil {
				ids = append(ids, it.Instr.ID)
			}
		}
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
	assert.Equal(t, 4, p.NewID())
}

func TestLoad_RejectsMalformedJSON(t *testing.T) {
	_, err := Load(strings.NewReader(`{"functions": [`))
	require.Error(t, err)
}

func TestRoundTrip_PreservesUnknownFields(t *testing.T) {
	// Tools must pass through fields they do not interpret, on
	// instructions, labels, and functions alike.
	src := `{"functions":[
	  {"name":"main","pos":{"file":"t.bril"},"instrs":[
	    {"op":"const","dest":"a","type":"int","value":2,"srcline":12},
	    {"label":"done","marker":true}]}]}`
	p, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Dump(&buf))
	out := buf.String()
	assert.Contains(t, out, `"srcline"`)
	assert.Contains(t, out, `"marker"`)
	assert.Contains(t, out, `"pos"`)

	// A second pass over the emitted program must decode cleanly.
	p2, err := Load(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, p2.Functions, 1)
	assert.Equal(t, "main", p2.Functions[0].Name)
	require.Len(t, p2.Functions[0].Instrs, 2)
	assert.NotNil(t, p2.Functions[0].Instrs[1].Label)
}

func TestValueHelpers(t *testing.T) {
	src := `{"functions":[{"name":"main","instrs":[
	  {"op":"const","dest":"a","type":"int","value":42},
	  {"op":"const","dest":"b","type":"bool","value":true}]}]}`
	p, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	a := p.Functions[0].Instrs[0].Instr
	n, ok := a.IntValue()
	require.True(t, ok)
	assert.Equal(t, int64(42), n)
	_, ok = a.BoolValue()
	assert.False(t, ok)

	b := p.Functions[0].Instrs[1].Instr
	v, ok := b.BoolValue()
	require.True(t, ok)
	assert.True(t, v)
}

func TestSetConstInt_ClearsOperands(t *testing.T) {
	in := &Instruction{Op: "add", Dest: "c", Type: TypeInt, Args: []string{"a", "b"}, ID: 7}
	in.SetConstInt(5)
	assert.Equal(t, "const", in.Op)
	assert.Nil(t, in.Args)
	assert.Equal(t, 7, in.ID)
	n, ok := in.IntValue()
	require.True(t, ok)
	assert.Equal(t, int64(5), n)
}

func TestOpcodeClasses(t *testing.T) {
	assert.True(t, (&Instruction{Op: "store"}).HasSideEffects())
	assert.False(t, (&Instruction{Op: "store"}).IsNonlinear())
	assert.True(t, (&Instruction{Op: "print"}).IsNonlinear())
	assert.True(t, (&Instruction{Op: "br"}).IsTerminator())
	assert.False(t, (&Instruction{Op: "call"}).IsTerminator())
	assert.True(t, (&Instruction{Op: "div"}).IsArith())
	assert.True(t, (&Instruction{Op: "ge"}).IsCompare())
}
