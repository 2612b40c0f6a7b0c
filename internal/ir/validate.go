package ir

import (
	"fmt"

	"github.com/external-mirrors/mesa-sub002/internal/isa"
)

// Validate checks invariants 1, 2, 3, 4, 5, 6, 7, 8, and 9 of spec.md
// §3.2 over the whole shader and panics on the first violation found, in
// every build. When postRA is true the SSA-form check of invariant 1 is
// skipped, since registers have been assigned by then. Invariant 2 (definition uniqueness / use-set agreement)
// is only checked while s.UsesValid() — it is a statement about the
// cached uses/use_count produced by RebuildUses, not something derivable
// from an instruction in isolation.
func (s *Shader) Validate(postRA bool) {
	usesValid := s.UsesValid()
	for _, b := range s.blocks {
		b.ForEachInstr(func(instr *Instruction) {
			validateAddressUsers(instr)
			validateFlags(instr)
			validateRepeatGroup(instr)
			validateKeeps(b, instr)
			validatePhi(b, instr)
			validateTied(instr)
			validateMovTypes(instr)
			if usesValid {
				validateUses(instr)
			}
			if !postRA {
				validateSSA(instr)
			}
		})
	}
}

// validateSSA enforces invariant 1: every non-constant, non-immediate,
// non-array operand is either SSA-flagged with a def, or itself an
// array/relative access.
func validateSSA(instr *Instruction) {
	for idx, src := range instr.Sources {
		if src.IsImmediate() || src.IsConst() || src.IsArrayRelative() {
			continue
		}
		if !src.IsSSA() || src.Def == nil {
			if src.Num == InvalidNum && instr.IsPhi() {
				continue // undefined phi input: invariant 8 allows this explicitly.
			}
			panic(fmt.Sprintf("BUG: %s source %d is neither SSA, immediate, const, nor array-relative", instr.Opcode, idx))
		}
	}
}

// validateFlags enforces invariant 4: a source's algebraic modifiers must
// be accepted by the consuming opcode.
func validateFlags(instr *Instruction) {
	for idx, src := range instr.Sources {
		if !isa.ValidFlags(instr.Opcode, idx, src.Alg) {
			panic(fmt.Sprintf("BUG: %s source %d carries flags %v rejected by valid_flags", instr.Opcode, idx, src.Alg))
		}
	}
}

// validateAddressUsers enforces invariant 5: at most one address-register
// reference per instruction.
func validateAddressUsers(instr *Instruction) {
	if n := instr.addressRegUsers(); n > 1 {
		panic(fmt.Sprintf("BUG: %s references the address register %d times, want <=1", instr.Opcode, n))
	}
}

// validateRepeatGroup enforces invariant 6: repeat-group contiguity and
// strictly increasing serial numbers within the group.
func validateRepeatGroup(instr *Instruction) {
	if instr.Flags&FlagRepeatHead == 0 {
		return
	}
	cur := instr
	for n := uint8(0); n < instr.Repeat; n++ {
		next := cur.next
		if next == nil {
			panic(fmt.Sprintf("BUG: %s repeat group truncated at member %d of %d", instr.Opcode, n, instr.Repeat+1))
		}
		if next.Serial <= cur.Serial {
			panic(fmt.Sprintf("BUG: %s repeat group member %d has non-increasing serial", instr.Opcode, n+1))
		}
		cur = next
	}
}

// validateKeeps enforces invariant 7: an instruction reachable from its
// block's keeps list must report Pinned.
func validateKeeps(b *Block, instr *Instruction) {
	if !instr.pinned {
		return
	}
	for _, k := range b.keeps {
		if k == instr {
			return
		}
	}
	panic(fmt.Sprintf("BUG: %s marked pinned but absent from its block's keeps list", instr.Opcode))
}

// validatePhi enforces invariant 8: exactly one source per predecessor,
// in a defined order, with undefined inputs represented by an
// INVALID/non-SSA source rather than omitted.
func validatePhi(b *Block, instr *Instruction) {
	if !instr.IsPhi() {
		return
	}
	if len(instr.PhiSources) != len(b.preds) {
		panic(fmt.Sprintf("BUG: phi has %d sources for %d predecessors", len(instr.PhiSources), len(b.preds)))
	}
	seen := make(map[*Block]bool, len(instr.PhiSources))
	for _, ps := range instr.PhiSources {
		if seen[ps.Pred] {
			panic("BUG: phi has duplicate predecessor source")
		}
		seen[ps.Pred] = true
	}
	for _, pred := range b.preds {
		if !seen[pred] {
			panic("BUG: phi missing source for a predecessor")
		}
	}
}

// validateUses enforces invariant 2: every SSA source's recorded def
// actually lists this instruction as a user, i.e. the cached use-set
// agrees with the def/use edges the operands themselves encode.
func validateUses(instr *Instruction) {
	check := func(src *RegisterOperand) {
		if src == nil || !src.IsSSA() || src.Def == nil {
			return
		}
		def := src.Def
		if def.uses == nil {
			panic(fmt.Sprintf("BUG: %s reads a def with no recorded uses", instr.Opcode))
		}
		if _, ok := def.uses[instr]; !ok {
			panic(fmt.Sprintf("BUG: %s reads %s but is absent from its def's use-set", instr.Opcode, def.Opcode))
		}
	}
	for _, src := range instr.Sources {
		check(src)
	}
	for _, ps := range instr.PhiSources {
		check(ps.Src)
	}
}

// validateMovTypes enforces invariant 3: a same-type mov (OpMov) must not
// change an operand's register class. OpMovConv is the explicit
// type-changing variant and is exempt; immediate/const/array-relative
// sources carry no class of their own worth comparing.
func validateMovTypes(instr *Instruction) {
	if instr.Opcode != isa.OpMov {
		return
	}
	if len(instr.Sources) != 1 || len(instr.Destinations) != 1 {
		return
	}
	src := instr.Sources[0]
	if src.IsImmediate() || src.IsConst() || src.IsArrayRelative() {
		return
	}
	if src.Class != instr.Destinations[0].Class {
		panic(fmt.Sprintf("BUG: mov changes register class %v -> %v; use mov.cvt for type-changing moves", src.Class, instr.Destinations[0].Class))
	}
}

// validateTied enforces invariant 9: tied links are symmetric.
func validateTied(instr *Instruction) {
	check := func(r *RegisterOperand) {
		if r == nil || r.Tied == nil {
			return
		}
		if r.Tied.Tied != r {
			panic("BUG: tied operand link is not symmetric")
		}
	}
	for _, s := range instr.Sources {
		check(s)
	}
	for _, d := range instr.Destinations {
		check(d)
	}
}
