package copyprop

import (
	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/isa"
)

// Options tunes the optional behaviors spec.md §4.3/§9 leave switchable.
type Options struct {
	// LowerImmToConst enables the immediate-to-constant-pool demotion
	// fold when a consumer refuses an inline immediate.
	LowerImmToConst bool

	// QuirkedTarget gates the cat3-position-2-relative-offset-0 ISA bug
	// check; only meaningful on hardware generations known to have it.
	QuirkedTarget bool

	// MovHalfSharedQuirk preserves the extra mov some GPU generations
	// need when a half-precision shared-register value feeds a
	// full-register destination (spec.md §9 open question 4, kept behind
	// a flag and defaulting to off).
	MovHalfSharedQuirk bool
}

// Run drives copy propagation to a local fixpoint over one shader: each
// instruction's sources are folded against their producing mov chains
// until no instruction in the block reports progress, matching spec.md
// §4.3 "Termination" (the outer CSE/DCE re-run loop lives in the
// compile-entry-point driver, not here). Run requires Shader.RebuildUses
// to have been called since the last structural edit.
func Run(s *ir.Shader, opt Options) (progress bool) {
	for {
		roundProgress := false
		s.ForEachInstrSafe(func(_ *ir.Block, instr *ir.Instruction) {
			if foldSources(s, instr, opt) {
				roundProgress = true
			}
			if trySwapTernary(instr) {
				roundProgress = true
			}
		})
		if eliminateOutputMovs(s) {
			roundProgress = true
		}
		if removeDeadMovs(s) {
			roundProgress = true
		}
		if !roundProgress {
			break
		}
		progress = true
	}
	return progress
}

// foldSources attempts, for every source of instr, to fold away a
// producing eligible mov by absorbing its modifiers and rewriting instr's
// source to read the mov's own source directly.
func foldSources(s *ir.Shader, instr *ir.Instruction, opt Options) bool {
	progress := false
	for idx, src := range instr.Sources {
		if !src.IsSSA() || src.Def == nil {
			continue
		}
		producer := src.Def
		if !eligibleMov(producer) {
			continue
		}
		movSrc := producer.Sources[0]
		if opt.MovHalfSharedQuirk && movSrc.Class == ir.ClassShared && src.Class == ir.ClassFull {
			continue // preserve the workaround mov (spec.md §9 open question 4).
		}
		combined := combineFlags(src.Alg&^roleMask, movSrc.Alg, producerIsBool(movSrc))
		combined |= src.Alg & roleMask

		if movSrc.IsArrayRelative() || src.Alg&isa.Relativ != 0 {
			if !rewriteRelative(instr, idx, producer, movSrc, opt) {
				continue
			}
		}

		candidate := cloneOperand(movSrc)
		candidate.Alg = combined

		if !isa.ValidFlags(instr.Opcode, idx, candidate.Alg) {
			if !opt.LowerImmToConst || !candidate.IsImmediate() {
				continue // fold rejected; leave instr unchanged (no progress for this source).
			}
			half := candidate.Class == ir.ClassHalf && isFloatConsumer(instr.Opcode)
			demoteImmediate(s.Consts, candidate, half)
			if !isa.ValidFlags(instr.Opcode, idx, candidate.Alg) {
				continue
			}
		}

		rewriteSource(instr, src, candidate, candidate.Alg)
		progress = true
	}
	return progress
}

const roleMask = isa.Const | isa.Immed | isa.Relativ | isa.Array

// eligibleMov implements spec.md §4.3 "Eligibility for elimination".
func eligibleMov(instr *ir.Instruction) bool {
	if len(instr.Sources) != 1 || len(instr.Destinations) != 1 {
		return false
	}
	sameTypeMov := instr.Opcode == isa.OpMov
	absNeg := (instr.Opcode == isa.OpAbsNegF || instr.Opcode == isa.OpAbsNegS) && instr.Flags&ir.FlagSaturate == 0
	if !sameTypeMov && !absNeg {
		return false
	}
	dst := instr.Destinations[0]
	if dst.IsPredicate() || dst.IsAddress() {
		return false
	}
	src := instr.Sources[0]
	if src.IsArrayRelative() {
		return false
	}
	if !src.IsSSA() && !src.IsImmediate() && !src.IsConst() {
		return false
	}
	if src.Alg&isa.Relativ != 0 || dst.Alg&isa.Relativ != 0 {
		return false
	}
	return true
}

// producerIsBool reports whether src's ultimate SSA producer is a
// comparison (a known-boolean value), licensing the SABS drop spec.md
// §4.3 describes.
func producerIsBool(src *ir.RegisterOperand) bool {
	return src.IsSSA() && src.Def != nil && src.Def.Opcode == isa.OpCmp
}

// rewriteSource replaces src in place with movSrc's value payload and the
// already-combined flag set, preserving src's role-relevant housekeeping
// (Extra bits are left alone; only the value/flags change).
func rewriteSource(user *ir.Instruction, src, movSrc *ir.RegisterOperand, combined isa.RegFlag) {
	oldDef := src.Def
	src.Alg = combined
	src.Def = movSrc.Def
	src.DefIndex = movSrc.DefIndex
	src.ImmBits = movSrc.ImmBits
	src.Array = movSrc.Array
	src.ArrOff = movSrc.ArrOff
	src.ArrBase = movSrc.ArrBase
	if movSrc.IsConst() {
		src.Num = movSrc.Num // a const operand's value is its slot number.
	}
	if movSrc.IsSSA() {
		src.Extra |= ir.FlagSSA
	}
	ir.TransferUse(oldDef, src.Def, user)
}

// removeDeadMovs deletes eligible movs CP's own folding has made
// unreferenced. This is not general dead-code elimination (that pass is
// a collaborator, out of scope here); it only reclaims the specific
// artifact folding sources away leaves behind, which scenario S1 depends
// on.
func removeDeadMovs(s *ir.Shader) bool {
	progress := false
	s.ForEachInstrSafe(func(_ *ir.Block, instr *ir.Instruction) {
		if !eligibleMov(instr) || instr.Pinned() || instr.UseCount() != 0 {
			return
		}
		ir.RemoveInstruction(instr)
		progress = true
	})
	return progress
}

func cloneOperand(r *ir.RegisterOperand) *ir.RegisterOperand {
	cp := *r
	return &cp
}

func isFloatConsumer(op isa.Opcode) bool {
	switch op {
	case isa.OpAddF, isa.OpMulF, isa.OpMad, isa.OpAbsNegF:
		return true
	default:
		return false
	}
}

// rewriteRelative applies spec.md §4.3 "Relative/constant-file source
// rewriting" when folding a move whose source is a relative/array access
// or otherwise carries RELATIV, returning false if the fold must be
// refused.
func rewriteRelative(instr *ir.Instruction, srcIndex int, producer *ir.Instruction, movSrc *ir.RegisterOperand, opt Options) bool {
	consumerSrc := instr.Sources[srcIndex]

	producerUsesAddr := producer.AddressRegUsers()
	consumerUsesAddr := instr.AddressRegUsers()
	if producerUsesAddr > 0 && consumerUsesAddr > 0 {
		return false // conflicting address-register references; refuse the fold.
	}

	if opt.QuirkedTarget && instr.Opcode.IsTernary() && srcIndex == 2 && movSrc.ArrOff == 0 {
		return false // cat3_rel_offset_0_quirk: kept conservative per spec.md §9.
	}

	// Narrowing/widening legality: refuse 16<->32 changes except the
	// explicitly-permitted float-narrowing case. Signedness is not
	// compared, so a fold is not refused for changing it.
	if consumerSrc.Class == ir.ClassHalf && movSrc.Class == ir.ClassFull && !isFloatConsumer(instr.Opcode) {
		return false
	}
	if consumerSrc.Class == ir.ClassFull && movSrc.Class == ir.ClassHalf {
		return false
	}

	return true
}

// eliminateOutputMovs implements spec.md §4.3 "Output-mov elimination":
// a mov whose only consumer is a pinned keeps entry is removed when its
// source is an unflagged SSA value, rewriting the keep to point directly
// at the producer.
func eliminateOutputMovs(s *ir.Shader) bool {
	progress := false
	s.ForEachInstrSafe(func(b *ir.Block, instr *ir.Instruction) {
		if !eligibleMov(instr) || !instr.Pinned() {
			return
		}
		src := instr.Sources[0]
		if src.Alg != 0 || !src.IsSSA() || src.Def == nil {
			return
		}
		for i, k := range b.Keeps() {
			if k == instr {
				b.ReplaceKeep(i, src.Def)
			}
		}
		if instr.UseCount() == 0 {
			ir.RemoveInstruction(instr)
			progress = true
		}
	})
	return progress
}
