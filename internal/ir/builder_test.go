package ir

import (
	"testing"

	"github.com/external-mirrors/mesa-sub002/internal/isa"
)

// diamond builds the canonical if/else-then CFG:
//
//	entry -> then, els
//	then   -> merge
//	els    -> merge
//
// and returns the four blocks in that order. Used by several tests below
// to exercise the CFG-wiring and dominance code against a real multi-block
// shape instead of the single-block fixtures the rest of the package's
// tests get by transitively.
func diamond(s *Shader) (entry, then, els, merge *Block) {
	entry, then, els, merge = s.NewBlock(), s.NewBlock(), s.NewBlock(), s.NewBlock()

	bd := NewBuilder(s)
	bd.SetCursor(AtBlockEnd(entry))
	pred := bd.NewImmediate(ClassPredicate, 1)
	bd.CreateBranch(pred, then, els)

	bd.SetCursor(AtBlockEnd(then))
	bd.CreateJump(merge)

	bd.SetCursor(AtBlockEnd(els))
	bd.CreateJump(merge)

	merge.MarkReconvergence()
	return
}

// TestCreateBranchWiresBothViews checks that CreateBranch links both the
// per-thread and physical successor/predecessor views in both directions,
// the gap the block.go addSucc/addPhysSucc helpers sat unused behind
// before anything called them.
func TestCreateBranchWiresBothViews(t *testing.T) {
	s := NewShader(StageFragment)
	entry, then, els, _ := diamond(s)

	succs := entry.Succs()
	if len(succs) != 2 || succs[0] != then || succs[1] != els {
		t.Fatalf("entry.Succs() = %v, want [then, els]", succs)
	}
	physSuccs := entry.PhysSuccs()
	if len(physSuccs) != 2 || physSuccs[0] != then || physSuccs[1] != els {
		t.Fatalf("entry.PhysSuccs() = %v, want [then, els]", physSuccs)
	}
	if len(then.Preds()) != 1 || then.Preds()[0] != entry {
		t.Fatalf("then.Preds() = %v, want [entry]", then.Preds())
	}
	if len(then.PhysPreds()) != 1 || then.PhysPreds()[0] != entry {
		t.Fatalf("then.PhysPreds() = %v, want [entry]", then.PhysPreds())
	}
}

// TestCreateJumpWiresBothViews checks the unconditional-jump constructor
// wires a single successor/predecessor edge into both views.
func TestCreateJumpWiresBothViews(t *testing.T) {
	s := NewShader(StageFragment)
	_, then, _, merge := diamond(s)

	if len(then.Succs()) != 1 || then.Succs()[0] != merge {
		t.Fatalf("then.Succs() = %v, want [merge]", then.Succs())
	}
	if len(then.PhysSuccs()) != 1 || then.PhysSuccs()[0] != merge {
		t.Fatalf("then.PhysSuccs() = %v, want [merge]", then.PhysSuccs())
	}
	if len(merge.Preds()) != 2 {
		t.Fatalf("merge.Preds() = %v, want 2 entries", merge.Preds())
	}
	if len(merge.PhysPreds()) != 2 {
		t.Fatalf("merge.PhysPreds() = %v, want 2 entries", merge.PhysPreds())
	}
}

// TestCreateBranchTerminatorIsBranching checks spec.md §8's quantified
// invariant 2: a block with two successors has a terminator whose opcode
// is branching.
func TestCreateBranchTerminatorIsBranching(t *testing.T) {
	s := NewShader(StageFragment)
	entry, _, _, _ := diamond(s)

	if len(entry.Succs()) != 2 {
		t.Fatalf("expected entry to have two successors")
	}
	term := entry.Tail()
	if term == nil || !term.IsTerminator() || term.Opcode != isa.OpBranch {
		t.Fatalf("expected entry's terminator to be a branch, got %v", term)
	}
}

// TestComputeDominanceOverDiamond checks that ComputeDominance walks the
// physical CFG (dom.go's PhysSuccs/PhysPreds switch) and derives the
// expected immediate-dominator tree and RPO numbering for the diamond
// shape: merge is dominated by entry (not by then or els individually),
// and both branch arms come strictly after entry in RPO.
func TestComputeDominanceOverDiamond(t *testing.T) {
	s := NewShader(StageFragment)
	entry, then, els, merge := diamond(s)

	s.ComputeDominance()

	if !s.DomValid() {
		t.Fatalf("expected DomValid() after ComputeDominance")
	}
	if entry.ImmDom() != nil {
		t.Fatalf("expected entry (the root) to have no immediate dominator")
	}
	if then.ImmDom() != entry || els.ImmDom() != entry {
		t.Fatalf("expected then/els immediately dominated by entry")
	}
	if merge.ImmDom() != entry {
		t.Fatalf("expected merge immediately dominated by entry (the diamond join), got %v", merge.ImmDom())
	}
	if !entry.Dominates(merge) {
		t.Fatalf("expected entry to dominate merge")
	}
	if then.Dominates(merge) || els.Dominates(merge) {
		t.Fatalf("expected neither branch arm to dominate merge on its own")
	}
	if entry.preOrder >= then.preOrder || entry.preOrder >= els.preOrder {
		t.Fatalf("expected entry to precede both arms in RPO")
	}
}

// TestComputeDominanceEmptyShader checks the zero-block fast path doesn't
// panic and still reports DomValid.
func TestComputeDominanceEmptyShader(t *testing.T) {
	s := NewShader(StageFragment)
	s.ComputeDominance()
	if !s.DomValid() {
		t.Fatalf("expected DomValid() even for an empty shader")
	}
}

// TestComputeDominanceLoop checks loop-depth accounting: a block with a
// back edge into a header already dominating it (a back edge found via
// the physical CFG, per dom.go's computeLoopDepth) gets loopDepth > 0.
func TestComputeDominanceLoop(t *testing.T) {
	s := NewShader(StageFragment)
	header, body, exit := s.NewBlock(), s.NewBlock(), s.NewBlock()

	bd := NewBuilder(s)
	bd.SetCursor(AtBlockEnd(header))
	pred := bd.NewImmediate(ClassPredicate, 1)
	bd.CreateBranch(pred, body, exit)

	bd.SetCursor(AtBlockEnd(body))
	backPred := bd.NewImmediate(ClassPredicate, 1)
	bd.CreateBranch(backPred, header, exit)

	s.ComputeDominance()

	if header.LoopDepth() == 0 {
		t.Fatalf("expected header to be inside its own loop body")
	}
	if body.LoopDepth() == 0 {
		t.Fatalf("expected body to be inside the loop")
	}
	if exit.LoopDepth() != 0 {
		t.Fatalf("expected exit to be outside the loop, got depth %d", exit.LoopDepth())
	}
}

// TestCreatePhiOneSourcePerPredecessor checks that a phi built at a
// multi-predecessor block's start can be given exactly one source per
// predecessor, satisfying validatePhi's invariant 8 once wired up.
func TestCreatePhiOneSourcePerPredecessor(t *testing.T) {
	s := NewShader(StageFragment)
	_, then, els, merge := diamond(s)

	bd := NewBuilder(s)
	one := bd.NewImmediate(ClassFull, 1)
	two := bd.NewImmediate(ClassFull, 2)
	_, dest := bd.CreatePhi(merge, ClassFull, 0x1)
	phi := merge.Root()
	phi.PhiSources = []PhiSource{
		{Pred: then, Src: one},
		{Pred: els, Src: two},
	}

	if dest.Class != ClassFull {
		t.Fatalf("expected phi dest class %v, got %v", ClassFull, dest.Class)
	}
	validatePhi(merge, phi)
}
