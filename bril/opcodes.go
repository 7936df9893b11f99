package bril

// Opcode classes. Side-effecting instructions can never be removed by
// dead-code elimination; nonlinear instructions pin their arguments as
// strongly live; terminators end a basic block.

var sideEffectOps = map[string]bool{
	"print": true, "call": true, "alloc": true,
	"free": true, "store": true, "ret": true,
}

var nonlinearOps = map[string]bool{
	"jmp": true, "br": true, "ret": true, "print": true, "call": true,
}

// HasSideEffects reports whether the instruction observably interacts
// with the world beyond its destination.
func (in *Instruction) HasSideEffects() bool {
	return sideEffectOps[in.Op]
}

// IsNonlinear reports whether the instruction transfers or ends control
// flow (or performs I/O that must stay in order).
func (in *Instruction) IsNonlinear() bool {
	return nonlinearOps[in.Op]
}

// IsTerminator reports whether the instruction ends a basic block.
func (in *Instruction) IsTerminator() bool {
	return in.Op == "jmp" || in.Op == "br" || in.Op == "ret"
}

func (in *Instruction) IsConst() bool { return in.Op == "const" }
func (in *Instruction) IsID() bool    { return in.Op == "id" }
func (in *Instruction) IsJmp() bool   { return in.Op == "jmp" }
func (in *Instruction) IsBr() bool    { return in.Op == "br" }
func (in *Instruction) IsRet() bool   { return in.Op == "ret" }
func (in *Instruction) IsNop() bool   { return in.Op == "nop" }
func (in *Instruction) IsPhi() bool   { return in.Op == "phi" }

// IsArith reports the four integer arithmetic opcodes.
func (in *Instruction) IsArith() bool {
	switch in.Op {
	case "add", "sub", "mul", "div":
		return true
	}
	return false
}

// IsCompare reports the integer comparison opcodes.
func (in *Instruction) IsCompare() bool {
	switch in.Op {
	case "eq", "lt", "le", "gt", "ge":
		return true
	}
	return false
}
