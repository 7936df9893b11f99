package passes

import "brilopt/bril"

// RemoveNops drops every `nop` from each function body. No CFG needed.
func RemoveNops(p *bril.Program) {
	for fi := range p.Functions {
		f := &p.Functions[fi]
		keep := f.Instrs[:0]
		for _, it := range f.Instrs {
			if it.Instr != nil && it.Instr.IsNop() {
				continue
			}
			keep = append(keep, it)
		}
		f.Instrs = keep
	}
}

// PhiToCopies rewrites every single-argument phi into a plain copy. A
// phi with one incoming value is just that value; the label list goes
// away with the phi.
func PhiToCopies(p *bril.Program) {
	for fi := range p.Functions {
		for ii := range p.Functions[fi].Instrs {
			in := p.Functions[fi].Instrs[ii].Instr
			if in == nil || !in.IsPhi() || len(in.Args) != 1 {
				continue
			}
			in.Op = "id"
			in.Labels = nil
		}
	}
}
