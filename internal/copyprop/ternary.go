package copyprop

import (
	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/isa"
)

// trySwapTernary attempts the operand swaps spec.md §4.3 "Ternary operand
// swap" describes for MAD/SAD instructions that cannot carry an
// immediate/const in source position 1. It returns true if a swap was
// applied (and marks cat3.swapped so the driver loop does not re-attempt
// it forever).
func trySwapTernary(instr *ir.Instruction) bool {
	if instr.Flags&ir.FlagCat3Swapped != 0 {
		return false // self-inverse helper already ran once; don't loop (spec.md §8).
	}
	if !instr.Opcode.IsTernary() || len(instr.Sources) != 3 {
		return false
	}
	if ternaryFlagsValid(instr) {
		return false // already valid in its current arrangement; nothing to swap.
	}
	if instr.Opcode == isa.OpMad {
		if trySwap(instr, 0, 1) {
			instr.Flags |= ir.FlagCat3Swapped
			return true
		}
		return false
	}
	if instr.Opcode == isa.OpSad {
		// SAD is fully commutative: any pairwise swap is semantically safe,
		// so try position (1,2) before falling back to (0,1).
		if trySwap(instr, 1, 2) {
			instr.Flags |= ir.FlagCat3Swapped
			return true
		}
		if trySwap(instr, 0, 1) {
			instr.Flags |= ir.FlagCat3Swapped
			return true
		}
		return false
	}
	return false
}

// ternaryFlagsValid reports whether every source of instr already
// satisfies isa.ValidFlags at its current position.
func ternaryFlagsValid(instr *ir.Instruction) bool {
	for idx, src := range instr.Sources {
		if !isa.ValidFlags(instr.Opcode, idx, src.Alg) {
			return false
		}
	}
	return true
}

// trySwap exchanges sources i and j if the result is valid at both
// positions; it leaves the instruction untouched and returns false
// otherwise.
func trySwap(instr *ir.Instruction, i, j int) bool {
	a, b := instr.Sources[i], instr.Sources[j]
	if !isa.ValidFlags(instr.Opcode, j, a.Alg) || !isa.ValidFlags(instr.Opcode, i, b.Alg) {
		return false
	}
	instr.Sources[i], instr.Sources[j] = b, a
	return true
}
