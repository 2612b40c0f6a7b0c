package ir

import (
	"testing"

	"github.com/external-mirrors/mesa-sub002/internal/isa"
)

// TestValidateUsesAgreeWithDef checks invariant 2 (definition uniqueness /
// use-set agreement): a normal SSA producer/consumer pair built through
// Builder and RebuildUses passes validateUses cleanly.
func TestValidateUsesAgreeWithDef(t *testing.T) {
	s := NewShader(StageFragment)
	b := s.NewBlock()
	bd := NewBuilder(s)
	bd.SetCursor(AtBlockEnd(b))

	def := bd.CreateInstr(isa.OpMov)
	dest := bd.NewDest(def, ClassFull, 0x1)

	use := bd.NewUse(dest, 0)
	consumer := bd.CreateInstr(isa.OpAddF, use, use)

	s.RebuildUses()
	validateUses(consumer)
}

// TestValidateUsesCatchesStaleUseSet checks that validateUses panics when
// an instruction reads a def whose cached use-set was never updated to
// include it, i.e. the use-set/operand edges have gone stale.
func TestValidateUsesCatchesStaleUseSet(t *testing.T) {
	s := NewShader(StageFragment)
	b := s.NewBlock()
	bd := NewBuilder(s)
	bd.SetCursor(AtBlockEnd(b))

	def := bd.CreateInstr(isa.OpMov)
	dest := bd.NewDest(def, ClassFull, 0x1)
	use := bd.NewUse(dest, 0)
	consumer := bd.CreateInstr(isa.OpAddF, use, use)

	// Deliberately skip RebuildUses so def.uses stays nil/empty, simulating
	// a pass that rewired an operand's Def without maintaining use-counts.
	defer func() {
		if recover() == nil {
			t.Fatalf("expected validateUses to panic on a stale use-set")
		}
	}()
	validateUses(consumer)
}

// TestValidateMovTypesAcceptsSameClass checks that a same-type mov between
// two ClassFull operands passes invariant 3.
func TestValidateMovTypesAcceptsSameClass(t *testing.T) {
	s := NewShader(StageFragment)
	b := s.NewBlock()
	bd := NewBuilder(s)
	bd.SetCursor(AtBlockEnd(b))

	producer := bd.CreateInstr(isa.OpMov)
	src := bd.NewDest(producer, ClassFull, 0x1)

	mov := bd.CreateInstr(isa.OpMov, bd.NewUse(src, 0))
	bd.NewDest(mov, ClassFull, 0x1)

	validateMovTypes(mov)
}

// TestValidateMovTypesRejectsClassChange checks that OpMov (the same-type
// variant) panics when source and destination register classes differ;
// such a conversion must go through OpMovConv instead.
func TestValidateMovTypesRejectsClassChange(t *testing.T) {
	s := NewShader(StageFragment)
	b := s.NewBlock()
	bd := NewBuilder(s)
	bd.SetCursor(AtBlockEnd(b))

	producer := bd.CreateInstr(isa.OpMov)
	src := bd.NewDest(producer, ClassFull, 0x1)

	mov := bd.CreateInstr(isa.OpMov, bd.NewUse(src, 0))
	bd.NewDest(mov, ClassPredicate, 0x1)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected validateMovTypes to panic on a class-changing mov")
		}
	}()
	validateMovTypes(mov)
}

// TestValidateMovTypesExemptsMovConv checks that OpMovConv, the explicit
// type-changing move, is exempt from invariant 3.
func TestValidateMovTypesExemptsMovConv(t *testing.T) {
	s := NewShader(StageFragment)
	b := s.NewBlock()
	bd := NewBuilder(s)
	bd.SetCursor(AtBlockEnd(b))

	producer := bd.CreateInstr(isa.OpMov)
	src := bd.NewDest(producer, ClassFull, 0x1)

	conv := bd.CreateInstr(isa.OpMovConv, bd.NewUse(src, 0))
	bd.NewDest(conv, ClassPredicate, 0x1)

	validateMovTypes(conv)
}
