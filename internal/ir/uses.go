package ir

// RebuildUses recomputes UseCount/Uses for every instruction in the
// shader from scratch, by walking every live operand once (spec.md §4.1
// "SSA-uses rebuild"). Passes that add or remove instructions must call
// this (or maintain counts incrementally) before relying on UseCount.
func (s *Shader) RebuildUses() {
	for i := 0; i < s.instrPool.allocated; i++ {
		instr := s.instrPool.view(i)
		if instr.Block == nil {
			continue // freed / never linked.
		}
		instr.useCount = 0
		instr.uses = nil
	}

	for _, b := range s.blocks {
		b.ForEachInstr(func(instr *Instruction) {
			for _, src := range instr.Sources {
				addUse(src, instr)
			}
			for _, ps := range instr.PhiSources {
				addUse(ps.Src, instr)
			}
		})
	}
	s.usesValid = true
}

// TransferUse moves user's recorded use from oldDef to newDef (either may
// be nil). Passes that rewrite a source operand's def in place, such as
// copy propagation folding away an intervening mov, call this to keep
// use_count/uses current without a full RebuildUses.
func TransferUse(oldDef, newDef *Instruction, user *Instruction) {
	if oldDef == newDef {
		return
	}
	if oldDef != nil && oldDef.uses != nil {
		if _, ok := oldDef.uses[user]; ok {
			delete(oldDef.uses, user)
			oldDef.useCount--
		}
	}
	if newDef != nil {
		if newDef.uses == nil {
			newDef.uses = make(map[*Instruction]struct{}, 2)
		}
		if _, dup := newDef.uses[user]; !dup {
			newDef.uses[user] = struct{}{}
			newDef.useCount++
		}
	}
}

func addUse(src *RegisterOperand, user *Instruction) {
	if src == nil || !src.IsSSA() || src.Def == nil {
		return
	}
	def := src.Def
	if def.uses == nil {
		def.uses = make(map[*Instruction]struct{}, 2)
	}
	if _, dup := def.uses[user]; !dup {
		def.uses[user] = struct{}{}
		def.useCount++
	}
}

// RemoveInstruction unlinks instr from its block and decrements the use
// counts of everything it read. Callers must have valid uses (RebuildUses
// run since the last structural change) for the decrements to be correct.
func RemoveInstruction(instr *Instruction) {
	b := instr.Block
	if b == nil {
		return
	}
	for _, src := range instr.Sources {
		removeUse(src, instr)
	}
	for _, ps := range instr.PhiSources {
		removeUse(ps.Src, instr)
	}
	b.unlink(instr)
	instr.Block = nil
}

func removeUse(src *RegisterOperand, user *Instruction) {
	if src == nil || !src.IsSSA() || src.Def == nil {
		return
	}
	def := src.Def
	if def.uses == nil {
		return
	}
	if _, ok := def.uses[user]; ok {
		delete(def.uses, user)
		def.useCount--
	}
}
