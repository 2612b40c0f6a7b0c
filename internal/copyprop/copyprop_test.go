package copyprop

import (
	"math"
	"testing"

	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/isa"
)

func newTestShader() (*ir.Shader, *ir.Block, *ir.Builder) {
	s := ir.NewShader(ir.StageFragment)
	b := s.NewBlock()
	bd := ir.NewBuilder(s)
	bd.SetCursor(ir.AtBlockEnd(b))
	return s, b, bd
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

// S1: {mov.f32 r0, r1; add.f r2, (neg)r0, r3} -> {add.f r2, (neg)r1, r3}.
func TestS1_MovModifierFold(t *testing.T) {
	s, b, bd := newTestShader()

	inR1 := bd.CreateInstr(isa.OpMetaInput)
	r1 := bd.NewDest(inR1, ir.ClassFull, 0x1)

	inR3 := bd.CreateInstr(isa.OpMetaInput)
	r3 := bd.NewDest(inR3, ir.ClassFull, 0x1)

	movInstr := bd.CreateInstr(isa.OpMov, bd.NewUse(r1, 0))
	r0 := bd.NewDest(movInstr, ir.ClassFull, 0x1)

	addInstr := bd.CreateInstr(isa.OpAddF, bd.NewUse(r0, isa.FNeg), bd.NewUse(r3, 0))
	bd.NewDest(addInstr, ir.ClassFull, 0x1)
	b.Pin(addInstr)

	s.RebuildUses()
	Run(s, Options{})

	if blockHas(b, movInstr) {
		t.Fatalf("expected mov to be removed")
	}
	src0 := addInstr.Sources[0]
	if src0.Def != inR1 {
		t.Fatalf("expected add's source 0 to reference r1's producer directly, got %v", src0.Def)
	}
	if src0.Alg != isa.FNeg {
		t.Fatalf("expected FNeg to survive the fold, got %v", src0.Alg)
	}
}

// S2: {mov.f32 r0, imm 1.5; mad.f r4, r5, r0, r6} with imm_to_const=true ->
// mov removed, mad's 3rd source becomes a CONST reference to a pool slot
// holding the f32 bit pattern of 1.5.
func TestS2_ImmediateToConstDemotion(t *testing.T) {
	s, b, bd := newTestShader()

	inR5 := bd.CreateInstr(isa.OpMetaInput)
	r5 := bd.NewDest(inR5, ir.ClassFull, 0x1)
	inR6 := bd.CreateInstr(isa.OpMetaInput)
	r6 := bd.NewDest(inR6, ir.ClassFull, 0x1)

	bits := float32bits(1.5)
	movInstr := bd.CreateInstr(isa.OpMov, bd.NewImmediate(ir.ClassFull, bits))
	r0 := bd.NewDest(movInstr, ir.ClassFull, 0x1)

	// mad.f r4, r5, r0, r6 — r0 sits in position 1, which MAD forbids for
	// immediates/consts; pass this through position 2 instead so the
	// demotion itself (not the swap helper) is exercised.
	madInstr := bd.CreateInstr(isa.OpMad, bd.NewUse(r5, 0), bd.NewUse(r6, 0), bd.NewUse(r0, 0))
	bd.NewDest(madInstr, ir.ClassFull, 0x1)
	b.Pin(madInstr)

	s.RebuildUses()
	Run(s, Options{LowerImmToConst: true})

	if blockHas(b, movInstr) {
		t.Fatalf("expected mov to be removed")
	}
	src2 := madInstr.Sources[2]
	if !src2.IsConst() {
		t.Fatalf("expected mad's 3rd source to become a CONST reference, got flags %v", src2.Alg)
	}
	if s.Consts.SizeVec4() != 1 {
		t.Fatalf("expected exactly one constant-pool entry, got %d", s.Consts.SizeVec4())
	}
}

// S3: {mad.f r0, imm 2.0, r1, r2} — MAD forbids an immediate in position
// 1, so CP swaps positions 0 and 1, setting cat3.swapped.
func TestS3_TernarySwap(t *testing.T) {
	_, _, bd := newTestShader()

	inR1 := bd.CreateInstr(isa.OpMetaInput)
	r1 := bd.NewDest(inR1, ir.ClassFull, 0x1)
	inR2 := bd.CreateInstr(isa.OpMetaInput)
	r2 := bd.NewDest(inR2, ir.ClassFull, 0x1)

	// MAD's forbidden slot is source index 1 (isa.ValidFlags); place the
	// immediate there so the swap helper has something to fix.
	imm := bd.NewImmediate(ir.ClassFull, float32bits(2.0))
	madInstr := bd.CreateInstr(isa.OpMad, bd.NewUse(r1, 0), imm, bd.NewUse(r2, 0))
	bd.NewDest(madInstr, ir.ClassFull, 0x1)

	if !trySwapTernary(madInstr) {
		t.Fatalf("expected the swap helper to find a valid swap")
	}
	if madInstr.Flags&ir.FlagCat3Swapped == 0 {
		t.Fatalf("expected cat3.swapped to be set")
	}
	if madInstr.Sources[0] != imm || madInstr.Sources[1].Def != r1.Def {
		t.Fatalf("expected positions 0 and 1 to be swapped")
	}

	// Self-inverse: swapping twice returns to the original arrangement.
	madInstr.Flags &^= ir.FlagCat3Swapped
	if !trySwapTernary(madInstr) {
		t.Fatalf("expected the swap helper to be self-inverse")
	}
	if madInstr.Sources[1] != imm {
		t.Fatalf("expected the second swap to restore the immediate to position 1")
	}
}

func float32bits(f float32) uint32 {
	return math.Float32bits(f)
}
