package ir

import "github.com/external-mirrors/mesa-sub002/internal/isa"

// RegClass is the operand's register file, including the two non-GPR-like
// classes spec.md §3.1 calls out specifically (predicate and address).
type RegClass uint8

const (
	ClassFull RegClass = iota
	ClassHalf
	ClassShared
	ClassPredicate
	ClassAddress
)

// ExtraFlag carries the structural/role bits of a register operand that
// are not algebraic modifiers (those live in isa.RegFlag so that
// isa.ValidFlags stays dependency-free). Named ExtraFlag, not Flag, to
// keep straight which bitset a given constant belongs to at call sites.
type ExtraFlag uint16

const (
	FlagSSA ExtraFlag = 1 << iota
	FlagEarlyClobber
	FlagKilledHere
	FlagLastUse
	FlagDummy
	FlagAliasStart
	FlagAliasMember
)

// InvalidNum marks a RegisterOperand that has not yet been assigned a
// physical index by register allocation.
const InvalidNum uint32 = 0xffffffff

// RegisterOperand is a reference to a register, not a stored register
// itself — spec.md §3.1. Before RA it is either an SSA reference (Def
// points at the producing instruction's destination), an immediate, a
// constant-pool reference, or an array-relative access. After RA, Num is
// authoritative and Def is kept only for cross-checking (spec.md §3.3).
type RegisterOperand struct {
	Class RegClass
	Alg   isa.RegFlag // algebraic + role modifiers: FNeg, FAbs, Immed, Const, Relativ, Array, ...
	Extra ExtraFlag

	Num    uint32 // physical index (post-RA) or InvalidNum.
	Wrmask uint16 // vector-lane write/use mask.
	Size   uint32 // element count, for array-relative registers.

	// Value payload: exactly one of the following is meaningful, selected
	// by Alg (Immed => ImmBits; Const => Num is the const-pool slot;
	// Array != nil => array-relative; otherwise Def is the SSA producer).
	ImmBits uint32 // raw i32/u32/f32 bit pattern of an immediate.
	Array   *ArrayVariable
	ArrOff  int32
	ArrBase uint32

	Def      *Instruction // SSA producer, when Alg has neither Immed, Const, nor Array set.
	DefIndex int          // which of Def's destinations this operand refers to.

	Tied *RegisterOperand // symmetric link: operand sharing a physical register (invariant 9).
}

// IsSSA reports whether this operand is a live SSA reference.
func (r *RegisterOperand) IsSSA() bool {
	return r.Extra&FlagSSA != 0 && r.Alg&(isa.Immed|isa.Const|isa.Array) == 0
}

// IsImmediate reports whether this operand carries an inline immediate.
func (r *RegisterOperand) IsImmediate() bool { return r.Alg&isa.Immed != 0 }

// IsConst reports whether this operand references the constant pool.
func (r *RegisterOperand) IsConst() bool { return r.Alg&isa.Const != 0 }

// IsArrayRelative reports whether this operand is a relative-addressed
// array element access.
func (r *RegisterOperand) IsArrayRelative() bool { return r.Alg&isa.Array != 0 }

// IsPredicate reports whether this operand lives in the predicate file.
func (r *RegisterOperand) IsPredicate() bool { return r.Class == ClassPredicate }

// IsAddress reports whether this operand lives in the address-register
// file (a0/a1).
func (r *RegisterOperand) IsAddress() bool { return r.Class == ClassAddress }
