package ir

// CursorPos is one of the four positions a Cursor can occupy within a
// block's instruction list (spec.md §3.1 "Cursor").
type CursorPos uint8

const (
	PosBlockStart CursorPos = iota // before the block's first instruction.
	PosBlockEnd                    // after the block's last instruction.
	PosBeforeInstr                 // immediately before a pinned instruction.
	PosAfterInstr                  // immediately after a pinned instruction.
)

// Cursor is a movable insertion point into a block's instruction list.
// Builder.CreateInstr always inserts relative to the cursor and leaves the
// cursor positioned immediately after what it just inserted, so a
// sequence of CreateInstr calls produces instructions in the order issued.
type Cursor struct {
	block *Block
	pos   CursorPos
	at    *Instruction // meaningful only for PosBeforeInstr/PosAfterInstr.
}

// AtBlockStart returns a cursor positioned before block's first
// instruction.
func AtBlockStart(block *Block) Cursor { return Cursor{block: block, pos: PosBlockStart} }

// AtBlockEnd returns a cursor positioned after block's last instruction.
func AtBlockEnd(block *Block) Cursor { return Cursor{block: block, pos: PosBlockEnd} }

// Before returns a cursor positioned immediately before instr.
func Before(instr *Instruction) Cursor {
	return Cursor{block: instr.Block, pos: PosBeforeInstr, at: instr}
}

// After returns a cursor positioned immediately after instr.
func After(instr *Instruction) Cursor {
	return Cursor{block: instr.Block, pos: PosAfterInstr, at: instr}
}

// Block returns the block the cursor is positioned within.
func (c Cursor) Block() *Block { return c.block }

// insert links instr at the cursor's current position and returns a
// cursor advanced to just after it.
func (c Cursor) insert(instr *Instruction) Cursor {
	switch c.pos {
	case PosBlockStart:
		if root := c.block.rootInstr; root != nil {
			c.block.insertBefore(root, instr)
		} else {
			c.block.append(instr)
		}
	case PosBlockEnd:
		c.block.append(instr)
	case PosBeforeInstr:
		c.block.insertBefore(c.at, instr)
	case PosAfterInstr:
		c.block.insertAfter(c.at, instr)
	}
	return After(instr)
}
