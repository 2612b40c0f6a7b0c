// Package copyprop implements copy propagation: folding move-with-modifier
// chains into their consumers, narrowing/demoting immediates, and
// swapping ternary operands to satisfy ISA source-position restrictions.
package copyprop

import "github.com/external-mirrors/mesa-sub002/internal/isa"

// combineFlags folds a producer's (the mov being eliminated) algebraic
// modifiers into a consumer's existing flags on the operand it is
// replacing, per spec.md §4.3 "Flag combination". producerIsBool reports
// whether the producer's ultimate source is known non-negative (e.g. a
// comparison result), in which case a redundant SABS can be dropped.
func combineFlags(consumerExisting, producerFlags isa.RegFlag, producerIsBool bool) isa.RegFlag {
	out := consumerExisting

	// FABS absorbs FNEG: abs wins regardless of how many negations preceded it.
	if out&isa.FAbs != 0 {
		producerFlags &^= isa.FNeg
	} else if producerFlags&isa.FNeg != 0 {
		out ^= isa.FNeg // double negation cancels; single negation toggles.
	}
	producerFlags &^= isa.FNeg

	if out&isa.SAbs != 0 {
		producerFlags &^= isa.SNeg
	} else if producerFlags&isa.SNeg != 0 {
		out ^= isa.SNeg
	}
	producerFlags &^= isa.SNeg

	if producerFlags&isa.BNot != 0 {
		out ^= isa.BNot
	}
	producerFlags &^= isa.BNot

	// FABS/SABS are idempotent: OR them in directly.
	out |= producerFlags & (isa.FAbs | isa.SAbs)
	producerFlags &^= isa.FAbs | isa.SAbs

	// Role modifiers (const/immediate/relative/array) carry through as-is.
	out |= producerFlags & (isa.Const | isa.Immed | isa.Relativ | isa.Array)

	if producerIsBool {
		out &^= isa.SAbs // a known-boolean value is already non-negative.
	}
	return out
}
