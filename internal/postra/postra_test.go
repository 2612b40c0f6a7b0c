package postra

import (
	"testing"

	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/isa"
	"github.com/external-mirrors/mesa-sub002/internal/regfile"
)

func phys(class ir.RegClass, num uint32, wrmask uint16) *ir.RegisterOperand {
	return &ir.RegisterOperand{Class: class, Num: num, Wrmask: wrmask, Size: 1}
}

// TestDAG_RAWHiddenBehindSync checks that a RAW edge out of a texture
// producer carries zero weight (the dependency is hidden behind the sy
// sync flag, not nop slots), per spec.md §4.4 step 4.
func TestDAG_RAWHiddenBehindSync(t *testing.T) {
	sam := &ir.Instruction{Opcode: isa.OpSam, Destinations: []*ir.RegisterOperand{phys(ir.ClassFull, 0, 0x1)}}
	add := &ir.Instruction{Opcode: isa.OpAddF, Sources: []*ir.RegisterOperand{phys(ir.ClassFull, 0, 0x1)}}

	d := BuildDAG([]*ir.Instruction{sam, add}, false)
	addNode := d.byInstr[add]
	if addNode.nParents != 1 {
		t.Fatalf("expected add to have one RAW parent, got %d", addNode.nParents)
	}
	samNode := d.byInstr[sam]
	if len(samNode.children) != 1 || samNode.children[0].weight != 0 {
		t.Fatalf("expected a zero-weight edge from the tex producer, got %+v", samNode.children)
	}
	if !addNode.hasSYSrc {
		t.Fatalf("expected add to be marked as consuming a sy-class result")
	}
}

// TestDAG_WAREdge checks that overwriting a register already read orders
// the overwrite after the read, per spec.md §4.4 step 5.
func TestDAG_WAREdge(t *testing.T) {
	read := &ir.Instruction{Opcode: isa.OpAddF, Sources: []*ir.RegisterOperand{phys(ir.ClassFull, 0, 0x1)}, Destinations: []*ir.RegisterOperand{phys(ir.ClassFull, 1, 0x1)}}
	overwrite := &ir.Instruction{Opcode: isa.OpMov, Sources: []*ir.RegisterOperand{phys(ir.ClassFull, 2, 0x1)}, Destinations: []*ir.RegisterOperand{phys(ir.ClassFull, 0, 0x1)}}

	d := BuildDAG([]*ir.Instruction{read, overwrite}, false)
	if d.byInstr[overwrite].nParents != 1 {
		t.Fatalf("expected the overwrite to wait on the prior read (WAR hazard)")
	}
}

// TestDAG_KillAfterInputsTexAfterKill implements scenario S5: a kill must
// follow every preceding varying-fetch input, and a following tex/mem op
// must follow every preceding kill, regardless of any register overlap.
func TestDAG_KillAfterInputsTexAfterKill(t *testing.T) {
	input := &ir.Instruction{Opcode: isa.OpMetaInput, Destinations: []*ir.RegisterOperand{phys(ir.ClassFull, 0, 0x1)}}
	kill := &ir.Instruction{Opcode: isa.OpKill}
	sam := &ir.Instruction{Opcode: isa.OpSam, Destinations: []*ir.RegisterOperand{phys(ir.ClassFull, 1, 0x1)}}

	d := BuildDAG([]*ir.Instruction{input, kill, sam}, false)

	heads := d.Heads()
	if len(heads) != 1 || heads[0].instr != input {
		t.Fatalf("expected only the input to be a head initially, got %d heads", len(heads))
	}
	d.Schedule(heads[0])

	heads = d.Heads()
	if len(heads) != 1 || heads[0].instr != kill {
		t.Fatalf("expected kill to become the sole head after the input is scheduled")
	}
	d.Schedule(heads[0])

	heads = d.Heads()
	if len(heads) != 1 || heads[0].instr != sam {
		t.Fatalf("expected sam to become the sole head after kill is scheduled")
	}
}

// TestPriority_MetaAndInputFirst checks tier 1/2 of the priority function:
// a meta/input head is chosen over an unrelated ready ALU head.
func TestPriority_MetaAndInputFirst(t *testing.T) {
	input := &ir.Instruction{Opcode: isa.OpMetaInput, Serial: 5}
	add := &ir.Instruction{Opcode: isa.OpAddF, Serial: 1}

	heads := []*node{{instr: add}, {instr: input}}
	s := NewState(false, isa.StagePixel)

	got := choose(heads, s)
	if got.instr != input {
		t.Fatalf("expected the meta/input head to win tier 1/2, got opcode %v", got.instr.Opcode)
	}
}

// TestSchedule_InsertsSYFlagOnTexConsumer implements scenario S4: a sam
// result consumed by an immediately-following ALU instruction must have
// the sy sync flag set on the consumer (the source never inserts a raw
// nop wait for a tex/mem producer).
func TestSchedule_InsertsSYFlagOnTexConsumer(t *testing.T) {
	s := ir.NewShader(ir.StageFragment)
	b := s.NewBlock()
	bd := ir.NewBuilder(s)
	bd.SetCursor(ir.AtBlockEnd(b))

	samInstr := bd.CreateInstr(isa.OpSam, bd.NewImmediate(ir.ClassFull, 0))
	samDst := bd.NewDest(samInstr, ir.ClassFull, 0x1)
	samDst.Num = 0

	addInstr := bd.CreateInstr(isa.OpAddF, bd.NewUse(samDst, 0))
	addInstr.Sources[0].Num = 0
	addDst := bd.NewDest(addInstr, ir.ClassFull, 0x1)
	addDst.Num = 1
	b.Pin(addInstr)

	endInstr := bd.CreateInstr(isa.OpEndBlk)
	_ = endInstr

	Schedule(s, Options{MergedRegs: false})

	if addInstr.Flags&ir.FlagSyncSY == 0 {
		t.Fatalf("expected the sy sync flag on the instruction consuming the tex result")
	}
	if samInstr.Flags&ir.FlagSyncSY != 0 {
		t.Fatalf("the tex producer itself should not need a sync flag")
	}
}

// TestNeedsSyncFlags_OverlapOnly checks that NeedsSyncFlags only fires for
// the register unit actually marked pending, not an unrelated one.
func TestNeedsSyncFlags_OverlapOnly(t *testing.T) {
	st := NewState(false, isa.StagePixel)
	st.syPending.Mark(regfile.FileFull, 0, 1)

	hit := &node{instr: &ir.Instruction{Opcode: isa.OpAddF, Sources: []*ir.RegisterOperand{phys(ir.ClassFull, 0, 0x1)}}}
	miss := &node{instr: &ir.Instruction{Opcode: isa.OpAddF, Sources: []*ir.RegisterOperand{phys(ir.ClassFull, 5, 0x1)}}}

	if _, sy := st.NeedsSyncFlags(hit); !sy {
		t.Fatalf("expected the overlapping register to need a sy sync flag")
	}
	if _, sy := st.NeedsSyncFlags(miss); sy {
		t.Fatalf("expected the non-overlapping register to not need a sy sync flag")
	}
}

// TestCleanup_RemoveSelfMov implements scenario S6: a mov whose source and
// destination already denote the identical physical slot is dead and is
// removed before scheduling.
func TestCleanup_RemoveSelfMov(t *testing.T) {
	s := ir.NewShader(ir.StageFragment)
	b := s.NewBlock()
	bd := ir.NewBuilder(s)
	bd.SetCursor(ir.AtBlockEnd(b))

	selfMov := bd.CreateInstr(isa.OpMov, phys(ir.ClassFull, 1, 0x2))
	dst := bd.NewDest(selfMov, ir.ClassFull, 0x2)
	dst.Num = 1

	realMov := bd.CreateInstr(isa.OpMov, phys(ir.ClassFull, 3, 0x1))
	dst2 := bd.NewDest(realMov, ir.ClassFull, 0x1)
	dst2.Num = 4

	removeSelfMovs(b)

	if blockHas(b, selfMov) {
		t.Fatalf("expected the self-mov to be removed")
	}
	if !blockHas(b, realMov) {
		t.Fatalf("expected the non-trivial mov to survive")
	}
}

// TestCleanup_RemoveNoopSubRegisterMov checks that a half-to-full mov whose
// merged-register addressing maps both operands to the same physical slot
// is removed once the merged mapping is known.
func TestCleanup_RemoveNoopSubRegisterMov(t *testing.T) {
	s := ir.NewShader(ir.StageFragment)
	b := s.NewBlock()
	bd := ir.NewBuilder(s)
	bd.SetCursor(ir.AtBlockEnd(b))

	noop := bd.CreateInstr(isa.OpMovConv, phys(ir.ClassHalf, 1, 0x1))
	dst := bd.NewDest(noop, ir.ClassFull, 0x1)
	dst.Num = 2 // half reg 1 maps to full offset 2 under merged addressing.

	removeNoopSubRegisterMovs(b, true)

	if blockHas(b, noop) {
		t.Fatalf("expected the noop sub-register mov to be removed under merged regs")
	}
}

func blockHas(b *ir.Block, instr *ir.Instruction) bool {
	found := false
	b.ForEachInstr(func(i *ir.Instruction) {
		if i == instr {
			found = true
		}
	})
	return found
}
