package ir

import "sort"

// ForEachInstr walks every instruction of every block, in block-creation
// order then program order (spec.md §4.1 "walk all blocks/instructions").
func (s *Shader) ForEachInstr(f func(*Block, *Instruction)) {
	for _, b := range s.blocks {
		b.ForEachInstr(func(instr *Instruction) { f(b, instr) })
	}
}

// ForEachInstrSafe is ForEachInstr tolerant of f removing the current
// instruction.
func (s *Shader) ForEachInstrSafe(f func(*Block, *Instruction)) {
	for _, b := range s.blocks {
		b.ForEachInstrSafe(func(instr *Instruction) { f(b, instr) })
	}
}

// ForEachBlockRPO walks blocks in reverse-postorder (requires
// ComputeDominance to have run), entry block first.
func (s *Shader) ForEachBlockRPO(f func(*Block)) {
	// blocks were numbered with preOrder == RPO index by ComputeDominance.
	ordered := append([]*Block(nil), s.blocks...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].preOrder < ordered[j].preOrder })
	for _, b := range ordered {
		f(b)
	}
}
