package ir

import "github.com/external-mirrors/mesa-sub002/internal/isa"

// IsMov reports whether instr is a plain register-to-register move,
// eligible for copy-propagation elimination (spec.md §4.3 "output-mov
// elimination").
func (i *Instruction) IsMov() bool {
	return i.Opcode.IsMove() && len(i.Sources) == 1 && len(i.Destinations) == 1
}

// IsSelfMov reports whether instr copies a value into itself: a dest and
// sole source referring to the same already-assigned physical register
// (spec.md §5.5 "self-mov ... cleanup").
func (i *Instruction) IsSelfMov() bool {
	if !i.IsMov() {
		return false
	}
	d, s := i.Destinations[0], i.Sources[0]
	return d.Num != InvalidNum && d.Num == s.Num && d.Class == s.Class && d.Wrmask == s.Wrmask
}

// IsCollect reports whether instr is a meta "collect" (vector-assembly)
// marker.
func (i *Instruction) IsCollect() bool { return i.Opcode.IsMeta() && len(i.Destinations) == 1 && len(i.Sources) > 1 }

// IsSplit reports whether instr is a meta "split" (vector-decompose)
// marker.
func (i *Instruction) IsSplit() bool { return i.Opcode.IsMeta() && len(i.Sources) == 1 && len(i.Destinations) == 1 && i.Sources[0].Wrmask != i.Destinations[0].Wrmask }

// IsPhi reports whether instr is a meta phi node. Keyed on opcode, not on
// a non-empty PhiSources, so a malformed zero-predecessor phi still
// reports true and reaches validatePhi's invariant-8 check instead of
// silently skipping it.
func (i *Instruction) IsPhi() bool { return i.Opcode == isa.OpMetaPhi }

// IsTexPrefetch reports whether instr is the meta tex-prefetch marker
// preceding the real texture fetch it shadows.
func (i *Instruction) IsTexPrefetch() bool { return i.Opcode == isa.OpMetaTexPrefetch }
