package ir

import "github.com/external-mirrors/mesa-sub002/internal/isa"

// InstrFlag is the instruction-level modifier bitset of spec.md §3.1.
type InstrFlag uint32

const (
	FlagSyncSS InstrFlag = 1 << iota // `ss` sync bit: wait on outstanding SFU/shared result.
	FlagSyncSY                       // `sy` sync bit: wait on outstanding texture/memory result.
	FlagJumpTarget                   // this instruction is the target of some jump (layout hint).
	FlagSaturate
	FlagBindless
	FlagNonUniform
	FlagUsesHelpers
	FlagNeedsHelpers
	FlagMark        // transient, pass-local scratch bit.
	FlagCat3Swapped // cat3 (MAD/SAD) operand-swap has been applied; see spec.md §4.3.
	FlagRepeatHead  // first instruction of a repeat group.
)

// BarrierResource is one of the memory-ordering domains spec.md §3.1
// names for barrier_class/barrier_conflict.
type BarrierResource uint8

const (
	ResShared BarrierResource = iota
	ResImage
	ResBuffer
	ResArray
	ResPrivate
	ResConst
	ResActiveFibers
)

// BarrierSet is a bitset over BarrierResource x {Read, Write}, packed as
// (resource*2 + rw) bits, used by barrier_class/barrier_conflict.
type BarrierSet uint16

func barrierBit(r BarrierResource, write bool) BarrierSet {
	idx := uint(r) * 2
	if write {
		idx++
	}
	return 1 << idx
}

func (s BarrierSet) With(r BarrierResource, write bool) BarrierSet {
	return s | barrierBit(r, write)
}

func (s BarrierSet) Conflicts(other BarrierSet) bool { return s&other != 0 }

// PhiSource is one entry of a phi's per-predecessor source list
// (spec.md §3.2 invariant 8).
type PhiSource struct {
	Pred *Block
	Src  *RegisterOperand
}

// Instruction is the atomic IR node (spec.md §3.1).
type Instruction struct {
	Opcode isa.Opcode
	Flags  InstrFlag

	Sources      []*RegisterOperand
	Destinations []*RegisterOperand

	Repeat uint8 // 0..3: instruction repeats Repeat+1 times with stride-1 operand bumping.
	Nop    uint8 // 0..5: embedded nop count before issue, set by the scheduler.

	// Opcode-category-specific payload. Only the fields relevant to
	// Opcode.Category() are meaningful; this flattened-struct approach
	// mirrors the teacher's arm64.instruction (kind + scratch fields)
	// while using named fields for readability, per the "avoid
	// inheritance; favor exhaustive matches" design note.
	RoundMode   uint8
	CompareCond uint8
	AtomicType  uint8
	TexSampler  uint16
	TexIndex    uint16
	TexBindless bool
	BranchTrue  *Block
	BranchFalse *Block
	PhiSources  []PhiSource

	Block      *Block
	prev, next *Instruction

	IPtr   uint32 // instruction-pointer field, assigned at layout time.
	Serial uint64 // monotonic serial number: tie-breaking and repeat-group ordering.

	FalseDeps []*Instruction // ordering-only deps (barrier/kill), separate from SSA sources.

	BarrierClass    BarrierSet
	BarrierConflict BarrierSet

	useCount int
	uses     map[*Instruction]struct{} // populated on demand by RebuildUses.

	pinned bool // true if this instruction is in its block's keeps list.
}

// Prev returns the previous instruction in program order, or nil.
func (i *Instruction) Prev() *Instruction { return i.prev }

// Next returns the next instruction in program order, or nil.
func (i *Instruction) Next() *Instruction { return i.next }

// UseCount returns the number of distinct instructions that read any of
// this instruction's destinations via an SSA source.
func (i *Instruction) UseCount() int { return i.useCount }

// Uses returns the set of instructions that consume one of this
// instruction's destinations via an SSA source. Populated on demand by
// RebuildUses (spec.md §4.1 "SSA-uses rebuild").
func (i *Instruction) Uses() map[*Instruction]struct{} { return i.uses }

// Pinned reports whether this instruction is exempt from DCE because it
// is a member of its block's keeps list (spec.md §3.2 invariant 7).
func (i *Instruction) Pinned() bool { return i.pinned }

// IsTerminator, IsALU, IsSFU, IsTex, IsMemory, IsMeta forward to the
// opcode-category predicates (spec.md §4.1 "test queries").
func (i *Instruction) IsTerminator() bool { return i.Opcode.IsTerminator() }
func (i *Instruction) IsALU() bool        { return i.Opcode.IsALU() }
func (i *Instruction) IsSFU() bool        { return i.Opcode.IsSFU() }
func (i *Instruction) IsTex() bool        { return i.Opcode.IsTex() }
func (i *Instruction) IsMemory() bool     { return i.Opcode.IsMemory() }
func (i *Instruction) IsBarrier() bool    { return i.Opcode.IsBarrier() }
func (i *Instruction) IsMeta() bool       { return i.Opcode.IsMeta() }
func (i *Instruction) IsInput() bool      { return i.Opcode.IsInput() }
func (i *Instruction) IsKillOrDemote() bool {
	return i.Opcode.IsKillOrDemote()
}

// Dest returns the first (and usually only) destination operand, or nil.
func (i *Instruction) Dest() *RegisterOperand {
	if len(i.Destinations) == 0 {
		return nil
	}
	return i.Destinations[0]
}

// AddressRegUsers counts how many operands of i reference the address
// register file, to check spec.md §3.2 invariant 5.
func (i *Instruction) AddressRegUsers() int { return i.addressRegUsers() }

// addressRegUsers counts how many operands of i reference the address
// register file, to check spec.md §3.2 invariant 5.
func (i *Instruction) addressRegUsers() int {
	n := 0
	for _, s := range i.Sources {
		if s.IsAddress() {
			n++
		}
	}
	for _, d := range i.Destinations {
		if d.IsAddress() {
			n++
		}
	}
	return n
}
