// Package bril models a JSON-serialized three-address intermediate
// representation. A program is a list of functions; a function body is an
// ordered sequence of items, where an item is either a label or an
// instruction. The package owns the codec (stdin/stdout JSON) and the
// program-wide instruction identities that every analysis relies on.
package bril

import (
	"encoding/json"
	"fmt"
	"io"
)

// Type is the primitive type tag carried by typed instructions and
// function signatures.
type Type string

const (
	TypeInt   Type = "int"
	TypeBool  Type = "bool"
	TypeFloat Type = "float"
)

// Instruction is a single three-address operation. Fields mirror the wire
// format; Other holds fields we do not interpret so they survive a
// round trip. ID is the dense, program-wide identity assigned on load —
// it is never serialized.
type Instruction struct {
	Op     string
	Dest   string
	Type   Type
	Args   []string
	Funcs  []string
	Labels []string
	Value  json.RawMessage
	Other  map[string]json.RawMessage

	ID int
}

// Label marks a jump target inside a function body.
type Label struct {
	Label string
	Other map[string]json.RawMessage
}

// Item is the tagged union of Label and Instruction that makes up a
// function body. Exactly one of the two fields is non-nil.
type Item struct {
	Label *Label
	Instr *Instruction
}

// FuncArg is a named, typed formal parameter.
type FuncArg struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Function is a named body of items plus an optional signature.
type Function struct {
	Name   string
	Args   []FuncArg
	Type   Type
	Instrs []Item
	Other  map[string]json.RawMessage
}

// Program is an ordered sequence of functions.
type Program struct {
	Functions []Function `json:"functions"`

	nextID int
}

// Load reads a JSON program and assigns every instruction a fresh,
// dense identity. Instruction identities are injective across the whole
// program and stay stable through every pass.
func Load(r io.Reader) (*Program, error) {
	var p Program
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing program: %w", err)
	}
	p.AssignIDs()
	return &p, nil
}

// AssignIDs walks every function in order and stamps each instruction
// with the next identity. Identities start at 1 so the zero value means
// "never assigned".
func (p *Program) AssignIDs() {
	p.nextID = 1
	for fi := range p.Functions {
		f := &p.Functions[fi]
		for ii := range f.Instrs {
			if in := f.Instrs[ii].Instr; in != nil {
				in.ID = p.nextID
				p.nextID++
			}
		}
	}
}

// NewID hands out the next instruction identity. Synthesized
// instructions (parameter copies, phis) draw from the same counter as
// loaded ones, so identities stay injective.
func (p *Program) NewID() int {
	id := p.nextID
	p.nextID++
	return id
}

// Dump writes the program as indented JSON.
func (p *Program) Dump(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("writing program: %w", err)
	}
	return nil
}

// NewLabelItem wraps a label name as a body item.
func NewLabelItem(name string) Item {
	return Item{Label: &Label{Label: name}}
}

// NewPhi builds an empty phi for dest. Arguments and labels are filled
// in per incoming edge during renaming.
func NewPhi(dest string, id int) Item {
	return Item{Instr: &Instruction{Op: "phi", Dest: dest, ID: id}}
}

// IntValue decodes the literal as an integer.
func (in *Instruction) IntValue() (int64, bool) {
	if len(in.Value) == 0 {
		return 0, false
	}
	var v int64
	if err := json.Unmarshal(in.Value, &v); err != nil {
		return 0, false
	}
	return v, true
}

// BoolValue decodes the literal as a boolean.
func (in *Instruction) BoolValue() (bool, bool) {
	if len(in.Value) == 0 {
		return false, false
	}
	var v bool
	if err := json.Unmarshal(in.Value, &v); err != nil {
		return false, false
	}
	return v, true
}

// SetConstInt rewrites the instruction in place into `const n`,
// clearing arguments and callees. The identity is preserved.
func (in *Instruction) SetConstInt(n int64) {
	in.Op = "const"
	in.Value, _ = json.Marshal(n)
	in.Args = nil
	in.Funcs = nil
	in.Labels = nil
}

// SetConstBool rewrites the instruction in place into `const b`.
func (in *Instruction) SetConstBool(b bool) {
	in.Op = "const"
	in.Value, _ = json.Marshal(b)
	in.Args = nil
	in.Funcs = nil
	in.Labels = nil
}
