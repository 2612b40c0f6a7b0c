package ir

// Block is a basic block (spec.md §3.1 "Block"). It tracks two distinct
// views of control flow: the per-thread (divergence-aware) predecessor/
// successor lists, and a separate "physical" predecessor/successor pair
// used by dominance, the post-RA scheduler and layout, which differs at if/else reconvergence points where the
// physical CFG merges control flow the per-thread view keeps divergent.
type Block struct {
	ID uint32

	rootInstr, tailInstr *Instruction

	preds []*Block
	succs [2]*Block // at most two; succs[1] set only for a conditional terminator.

	physPreds []*Block
	physSuccs []*Block

	immDom              *Block
	preOrder, postOrder int
	loopDepth           int
	reconvergencePoint  bool
	divergentCondition  bool

	keeps []*Instruction // pinned instructions exempt from DCE (spec.md §3.2 invariant 7).

	passData any // optional pass-local scratch slot.

	shader *Shader
}

// Root returns the first instruction of the block, or nil if empty.
func (b *Block) Root() *Instruction { return b.rootInstr }

// Tail returns the last instruction of the block, or nil if empty.
func (b *Block) Tail() *Instruction { return b.tailInstr }

// Preds returns the per-thread predecessor list.
func (b *Block) Preds() []*Block { return b.preds }

// Succs returns the (up to two) per-thread successors.
func (b *Block) Succs() []*Block {
	if b.succs[1] != nil {
		return b.succs[:2]
	}
	if b.succs[0] != nil {
		return b.succs[:1]
	}
	return nil
}

func (b *Block) PhysPreds() []*Block { return b.physPreds }
func (b *Block) PhysSuccs() []*Block { return b.physSuccs }

func (b *Block) ImmDom() *Block     { return b.immDom }
func (b *Block) LoopDepth() int     { return b.loopDepth }
func (b *Block) Reconvergence() bool { return b.reconvergencePoint }
func (b *Block) Divergent() bool    { return b.divergentCondition }

func (b *Block) PassData() any         { return b.passData }
func (b *Block) SetPassData(v any)     { b.passData = v }

// Keeps returns the pinned instruction list.
func (b *Block) Keeps() []*Instruction { return b.keeps }

// Pin adds instr to the keeps list, exempting it from DCE.
func (b *Block) Pin(instr *Instruction) {
	instr.pinned = true
	b.keeps = append(b.keeps, instr)
}

// ReplaceKeep retargets keeps entry index to pin replacement instead,
// used when a pinned output mov is eliminated and its producer must
// become the pin target directly (spec.md §4.3 "Output-mov elimination").
func (b *Block) ReplaceKeep(index int, replacement *Instruction) {
	old := b.keeps[index]
	if old != replacement {
		old.pinned = false
	}
	replacement.pinned = true
	b.keeps[index] = replacement
}

// AppendScheduled links instr at the tail of the block's instruction
// list, bypassing Builder/Cursor semantics. Used by the post-RA scheduler
// to re-emit instructions in chosen order after pulling them all off the
// block for DAG construction.
func (b *Block) AppendScheduled(instr *Instruction) { b.append(instr) }

// TakeAll detaches every instruction currently in the block and returns
// them as a slice in program order, leaving the block empty. Used by the
// post-RA scheduler (spec.md §4.4 step 2, "Move all block instructions to
// an unscheduled list").
func (b *Block) TakeAll() []*Instruction {
	var out []*Instruction
	for i := b.rootInstr; i != nil; {
		next := i.next
		i.prev, i.next = nil, nil
		out = append(out, i)
		i = next
	}
	b.rootInstr, b.tailInstr = nil, nil
	return out
}

// append links instr at the tail of the block's intrusive instruction
// list. It does not wire up CFG edges; callers (Builder) do that once the
// instruction's branch targets are known.
func (b *Block) append(instr *Instruction) {
	instr.Block = b
	if b.tailInstr != nil {
		b.tailInstr.next = instr
		instr.prev = b.tailInstr
	} else {
		b.rootInstr = instr
	}
	b.tailInstr = instr
}

// insertBefore links instr immediately before at in the block's list.
func (b *Block) insertBefore(at, instr *Instruction) {
	instr.Block = b
	prev := at.prev
	instr.prev = prev
	instr.next = at
	at.prev = instr
	if prev != nil {
		prev.next = instr
	} else {
		b.rootInstr = instr
	}
}

// insertAfter links instr immediately after at in the block's list.
func (b *Block) insertAfter(at, instr *Instruction) {
	instr.Block = b
	next := at.next
	instr.next = next
	instr.prev = at
	at.next = instr
	if next != nil {
		next.prev = instr
	} else {
		b.tailInstr = instr
	}
}

// unlink removes instr from the block's instruction list. It does not
// touch SSA use-counts; callers (RemoveInstruction) handle that.
func (b *Block) unlink(instr *Instruction) {
	prev, next := instr.prev, instr.next
	if prev != nil {
		prev.next = next
	} else {
		b.rootInstr = next
	}
	if next != nil {
		next.prev = prev
	} else {
		b.tailInstr = prev
	}
	instr.prev, instr.next = nil, nil
}

// addSucc wires a per-thread CFG edge from b to succ.
func (b *Block) addSucc(succ *Block) {
	if b.succs[0] == nil {
		b.succs[0] = succ
	} else {
		b.succs[1] = succ
	}
	succ.preds = append(succ.preds, b)
}

// addPhysSucc wires a physical-CFG edge from b to succ.
func (b *Block) addPhysSucc(succ *Block) {
	b.physSuccs = append(b.physSuccs, succ)
	succ.physPreds = append(succ.physPreds, b)
}

// ForEachInstr walks the block's instructions forward, in program order.
func (b *Block) ForEachInstr(f func(*Instruction)) {
	for i := b.rootInstr; i != nil; i = i.next {
		f(i)
	}
}

// ForEachInstrReverse walks the block's instructions backward.
func (b *Block) ForEachInstrReverse(f func(*Instruction)) {
	for i := b.tailInstr; i != nil; i = i.prev {
		f(i)
	}
}

// ForEachInstrSafe walks the block's instructions forward, tolerating
// removal of the current instruction from within f (spec.md §4.1 "walk
// ... instructions (forward/reverse/safe)").
func (b *Block) ForEachInstrSafe(f func(*Instruction)) {
	i := b.rootInstr
	for i != nil {
		next := i.next
		f(i)
		i = next
	}
}
