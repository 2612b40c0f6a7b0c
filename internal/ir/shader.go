package ir

import "github.com/external-mirrors/mesa-sub002/internal/isa"

// Stage identifies the shader pipeline stage being compiled, which gates a
// handful of opcode/ABI legality checks (spec.md §3.1 "Shader").
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
	StageGeometry
	StageTessCtrl
	StageTessEval
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	case StageGeometry:
		return "geometry"
	case StageTessCtrl:
		return "tess_ctrl"
	case StageTessEval:
		return "tess_eval"
	default:
		return "stage?"
	}
}

// Input describes one shader input slot consumed by a meta-input marker
// instruction.
type Input struct {
	Slot      uint32
	Component uint8
	Half      bool
	Sysval    bool
}

// Shader is the top-level compilation unit: a flat block list plus the
// entity pools every Instruction/RegisterOperand/ArrayVariable is carved
// from, per spec.md §3.3's ownership model. A Shader owns everything
// reachable from its blocks; discarding it discards the pools in one step.
type Shader struct {
	Stage Stage

	blocks []*Block
	Inputs []Input
	Arrays []*ArrayVariable
	Consts *ConstPool

	instrPool pool[Instruction]
	regPool   pool[RegisterOperand]
	arrPool   pool[ArrayVariable]
	blockPool pool[Block]

	nextBlockID uint32
	nextSerial  uint64

	domValid  bool
	usesValid bool

	// per-pass collectible lists, reset at the start of each pass that
	// needs them (e.g. copy-propagation's worklist, the scheduler's ready
	// set). Kept on Shader rather than threaded through every function
	// signature, matching the teacher's ssa.Builder scratch-slice pattern.
	scratchInstrs []*Instruction
}

// NewShader allocates an empty shader for the given stage.
func NewShader(stage Stage) *Shader {
	return &Shader{
		Stage:     stage,
		Consts:    newConstPool(),
		instrPool: newPool[Instruction](),
		regPool:   newPool[RegisterOperand](),
		arrPool:   newPool[ArrayVariable](),
		blockPool: newPool[Block](),
	}
}

// Blocks returns the shader's blocks in creation order. This is NOT
// necessarily layout (program) order until a layout pass has run.
func (s *Shader) Blocks() []*Block { return s.blocks }

// NewBlock allocates a fresh, unattached block and appends it to the
// shader's block list.
func (s *Shader) NewBlock() *Block {
	b := s.blockPool.allocate()
	*b = Block{ID: s.nextBlockID, shader: s}
	s.nextBlockID++
	s.blocks = append(s.blocks, b)
	s.domValid = false
	return b
}

// NewArray allocates a fresh array variable of the given element length.
func (s *Shader) NewArray(length uint32, half bool) *ArrayVariable {
	a := s.arrPool.allocate()
	*a = ArrayVariable{ID: uint32(len(s.Arrays)), Length: length, Half: half}
	s.Arrays = append(s.Arrays, a)
	return a
}

// allocInstr carves a fresh, unlinked Instruction out of the shader's pool
// and stamps it with the next monotonic serial number.
func (s *Shader) allocInstr(op isa.Opcode) *Instruction {
	i := s.instrPool.allocate()
	*i = Instruction{Opcode: op, Serial: s.nextSerial}
	s.nextSerial++
	s.domValid = false
	s.usesValid = false
	return i
}

// allocReg carves a fresh RegisterOperand out of the shader's pool.
func (s *Shader) allocReg() *RegisterOperand {
	r := s.regPool.allocate()
	*r = RegisterOperand{Num: InvalidNum}
	return r
}

// DomValid reports whether the cached dominator tree is still current.
func (s *Shader) DomValid() bool { return s.domValid }

// UsesValid reports whether cached SSA use-sets are still current.
func (s *Shader) UsesValid() bool { return s.usesValid }

// InvalidateDom marks the dominator tree stale; ComputeDominance must be
// re-run before any query that depends on it.
func (s *Shader) InvalidateDom() { s.domValid = false }

// InvalidateUses marks the cached use-sets stale; RebuildUses must be
// re-run before UseCount/Uses are trustworthy again.
func (s *Shader) InvalidateUses() { s.usesValid = false }
