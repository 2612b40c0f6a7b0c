package ir

import "github.com/external-mirrors/mesa-sub002/internal/isa"

// Builder issues new instructions into a shader at a movable Cursor,
// mirroring the teacher's ssa.builder.InsertInstruction / AllocateInstruction
// pair (ssa/builder.go), generalized with the handful of constructors
// spec.md §3.1's "Builder / Cursor" module calls out by name: create_instr,
// create_collect, split_dest, and the repeat-group constructors.
type Builder struct {
	shader *Shader
	cursor Cursor
}

// NewBuilder returns a Builder with no cursor set; call SetCursor before
// issuing instructions.
func NewBuilder(s *Shader) *Builder { return &Builder{shader: s} }

// SetCursor repositions the builder's insertion point.
func (bd *Builder) SetCursor(c Cursor) { bd.cursor = c }

// Cursor returns the builder's current insertion point.
func (bd *Builder) Cursor() Cursor { return bd.cursor }

// CreateInstr allocates a new instruction of the given opcode, wires the
// given sources (as live SSA reads), inserts it at the cursor, and
// advances the cursor past it. Destinations are attached with NewDest.
func (bd *Builder) CreateInstr(op isa.Opcode, srcs ...*RegisterOperand) *Instruction {
	instr := bd.shader.allocInstr(op)
	instr.Sources = append(instr.Sources, srcs...)
	bd.cursor = bd.cursor.insert(instr)
	return instr
}

// NewDest attaches a fresh SSA destination operand of the given class and
// lane mask to instr, returning it.
func (bd *Builder) NewDest(instr *Instruction, class RegClass, wrmask uint16) *RegisterOperand {
	r := bd.shader.allocReg()
	r.Class = class
	r.Wrmask = wrmask
	r.Extra |= FlagSSA
	r.Def = instr
	r.DefIndex = len(instr.Destinations)
	instr.Destinations = append(instr.Destinations, r)
	return r
}

// NewUse returns a fresh source operand reading def (a prior NewDest
// result) with the given algebraic modifier flags, letting one SSA value
// feed multiple consumers each with independent modifiers.
func (bd *Builder) NewUse(def *RegisterOperand, alg isa.RegFlag) *RegisterOperand {
	r := bd.shader.allocReg()
	r.Class = def.Class
	r.Wrmask = def.Wrmask
	r.Extra |= FlagSSA
	r.Alg = alg
	r.Def = def.Def
	r.DefIndex = def.DefIndex
	return r
}

// NewImmediate returns an operand carrying an inline immediate, not tied
// to any instruction's destination list.
func (bd *Builder) NewImmediate(class RegClass, bits uint32) *RegisterOperand {
	r := bd.shader.allocReg()
	r.Class = class
	r.Alg |= isa.Immed
	r.ImmBits = bits
	return r
}

// NewConstRef returns an operand referencing a constant-pool slot
// previously reserved with Shader.Consts.Intern.
func (bd *Builder) NewConstRef(class RegClass, offsetVec4 uint32, component uint8) *RegisterOperand {
	r := bd.shader.allocReg()
	r.Class = class
	r.Alg |= isa.Const
	r.Num = offsetVec4
	r.Wrmask = uint16(1) << component
	return r
}

// CreateCollect builds a meta "collect" instruction that assembles srcs
// (each a scalar/sub-vector SSA value) into a single vector-register
// destination, per spec.md §3.1's meta-category "collect" marker.
func (bd *Builder) CreateCollect(class RegClass, srcs ...*RegisterOperand) (*Instruction, *RegisterOperand) {
	instr := bd.CreateInstr(isa.OpMetaCollect, srcs...)
	var wrmask uint16
	for _, s := range srcs {
		wrmask |= s.Wrmask
	}
	return instr, bd.NewDest(instr, class, wrmask)
}

// SplitDest builds a meta "split" instruction that extracts the lanes
// named by wrmask out of src's vector destination into a standalone
// register, per spec.md §3.1's meta-category "split" marker.
func (bd *Builder) SplitDest(src *RegisterOperand, wrmask uint16) (*Instruction, *RegisterOperand) {
	instr := bd.CreateInstr(isa.OpMetaSplit, src)
	return instr, bd.NewDest(instr, src.Class, wrmask)
}

// CreateRepeatGroup builds a single instruction flagged to repeat count
// times (count in 1..4), each repetition implicitly operating on the next
// register in sequence from the base operands given, per spec.md §3.1
// "repeat-group constructors".
func (bd *Builder) CreateRepeatGroup(op isa.Opcode, count uint8, srcs ...*RegisterOperand) *Instruction {
	if count == 0 || count > 4 {
		panic("BUG: repeat-group count out of range 1..4")
	}
	instr := bd.CreateInstr(op, srcs...)
	instr.Repeat = count - 1
	instr.Flags |= FlagRepeatHead
	return instr
}

// CreateJump builds an unconditional jump terminator at the cursor,
// wiring both the per-thread and physical successor/predecessor links
// from the cursor's block to target (spec.md §3.1 Block's "at most two
// successor links" / "separately tracked physical predecessors/
// successors").
func (bd *Builder) CreateJump(target *Block) *Instruction {
	from := bd.cursor.Block()
	instr := bd.CreateInstr(isa.OpJump)
	instr.BranchTrue = target
	from.addSucc(target)
	from.addPhysSucc(target)
	return instr
}

// CreateBranch builds a conditional branch terminator at the cursor,
// reading pred and jumping to trueTarget/falseTarget. It wires both
// successor views for both targets, identically. Flagging an if/else
// merge block with MarkReconvergence does not change these links.
func (bd *Builder) CreateBranch(pred *RegisterOperand, trueTarget, falseTarget *Block) *Instruction {
	from := bd.cursor.Block()
	instr := bd.CreateInstr(isa.OpBranch, pred)
	instr.BranchTrue = trueTarget
	instr.BranchFalse = falseTarget
	from.addSucc(trueTarget)
	from.addSucc(falseTarget)
	from.addPhysSucc(trueTarget)
	from.addPhysSucc(falseTarget)
	return instr
}

// MarkReconvergence flags block as the physical reconvergence point of a
// divergent branch whose per-thread view keeps two disjoint successors
// live longer than the physical layout does (spec.md §3.1 Block's
// "physical CFG merges control flow the per-thread view keeps
// divergent"). It does not itself rewire any edges; physical successor
// links are still whatever CreateBranch/CreateJump established.
func (b *Block) MarkReconvergence() { b.reconvergencePoint = true }

// CreatePhi builds a meta phi node in block with no sources yet; callers
// append PhiSource entries as predecessors are wired (spec.md §3.2
// invariant 8 requires one source per predecessor before validation).
func (bd *Builder) CreatePhi(block *Block, class RegClass, wrmask uint16) (*Instruction, *RegisterOperand) {
	saved := bd.cursor
	bd.cursor = AtBlockStart(block)
	instr := bd.CreateInstr(isa.OpMetaPhi)
	dest := bd.NewDest(instr, class, wrmask)
	bd.cursor = saved
	return instr, dest
}
