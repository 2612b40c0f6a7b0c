package postra

import (
	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/isa"
	"github.com/external-mirrors/mesa-sub002/internal/regfile"
)

// removeSelfMovs strips type-preserving moves whose destination and
// source occupy the same physical slot with no algebraic flags, no
// saturate, and no round, before DAG construction (spec.md §4.4 "Special
// cleanups", and scenario S6).
func removeSelfMovs(b *ir.Block) {
	b.ForEachInstrSafe(func(instr *ir.Instruction) {
		if instr.Flags&ir.FlagSaturate != 0 || instr.RoundMode != 0 {
			return
		}
		if instr.Opcode == isa.OpMovConv {
			return // type-changing: not a no-op even in place.
		}
		if instr.IsSelfMov() && instr.Sources[0].Alg == 0 {
			ir.RemoveInstruction(instr)
		}
	})
}

// removeNoopSubRegisterMovs strips moves that become redundant once the
// merged-register mapping is known: a low-half or high-half mov whose
// source and destination denote the same physical slot under mergedRegs
// addressing, run after scheduling (spec.md §4.4 "Special cleanups").
func removeNoopSubRegisterMovs(b *ir.Block, mergedRegs bool) {
	if !mergedRegs {
		return
	}
	b.ForEachInstrSafe(func(instr *ir.Instruction) {
		if !instr.IsMov() || instr.Sources[0].Alg != 0 {
			return
		}
		dst, src := instr.Destinations[0], instr.Sources[0]
		dref, ok1 := refOf(dst, mergedRegs)
		sref, ok2 := refOf(src, mergedRegs)
		if !ok1 || !ok2 {
			return
		}
		df, doff := regfile.FileOffset(dref, mergedRegs)
		sf, soff := regfile.FileOffset(sref, mergedRegs)
		if df == sf && doff == soff && dst.Wrmask == src.Wrmask {
			ir.RemoveInstruction(instr)
		}
	})
}
