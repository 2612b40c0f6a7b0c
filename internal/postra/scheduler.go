package postra

import (
	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/isa"
)

// Options configures a Schedule run.
type Options struct {
	MergedRegs bool
}

// Schedule runs the post-RA scheduler over every block of s, in reverse
// postorder over the physical CFG, merging legalize state across block
// boundaries per spec.md §4.4 "Cross-block merge". s.ComputeDominance
// must have been run so physical predecessor/successor links and RPO
// numbering are current; the scheduler operates on the machine-level
// (physical) layout, not the per-thread divergence view.
func Schedule(s *ir.Shader, opt Options) {
	stage := mapStage(s.Stage)
	states := make(map[*ir.Block]*State, len(s.Blocks()))

	s.ForEachBlockRPO(func(b *ir.Block) {
		state := NewState(opt.MergedRegs, stage)
		for _, pred := range b.PhysPreds() {
			if ps, ok := states[pred]; ok {
				state.MergeFrom(ps)
			}
		}
		scheduleBlock(b, opt.MergedRegs, state)
		states[b] = state
	})
}

func mapStage(st ir.Stage) isa.Stage {
	switch st {
	case ir.StageCompute:
		return isa.StageCompute
	case ir.StageVertex, ir.StageGeometry, ir.StageTessCtrl, ir.StageTessEval:
		return isa.StageVertex
	default:
		return isa.StagePixel
	}
}

// scheduleBlock implements spec.md §4.4's per-block algorithm end to end:
// self-mov cleanup, DAG construction, the scheduling loop, terminator
// re-append, and the post-schedule noop-submov cleanup.
func scheduleBlock(b *ir.Block, mergedRegs bool, state *State) {
	removeSelfMovs(b)

	var terminator *ir.Instruction
	if tail := b.Tail(); tail != nil && tail.IsTerminator() {
		terminator = tail
	}

	all := b.TakeAll()
	var body []*ir.Instruction
	for _, instr := range all {
		if instr == terminator {
			continue
		}
		body = append(body, instr)
	}

	dag := BuildDAG(body, mergedRegs)
	for !dag.Done() {
		heads := dag.Heads()
		if len(heads) == 0 {
			panic("BUG: post-RA scheduler DAG has a cycle")
		}
		n := choose(heads, state)
		delay := state.Delay(n)
		state.Advance(n, delay)
		dag.Schedule(n)
		b.AppendScheduled(n.instr)
	}

	if terminator != nil {
		n := &node{instr: terminator}
		delay := state.Delay(n)
		state.Advance(n, delay)
		b.AppendScheduled(terminator)
	}

	removeNoopSubRegisterMovs(b, mergedRegs)
}
