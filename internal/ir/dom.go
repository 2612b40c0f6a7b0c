package ir

// ComputeDominance (re)computes reverse-postorder numbering, immediate
// dominators and loop depth for every block, using the Cooper-Harvey-
// Kennedy iterative dominance algorithm over the **physical CFG**
// (spec.md:89 "Standard iterative dominator computation over physical
// CFG"; §3.1 "dominator links"). Grounded on the teacher's
// passCalculateImmediateDominators / calculateDominators / intersect
// (ssa/pass_cfg.go), generalized to walk Block.PhysSuccs/PhysPreds
// rather than a single-successor-slice shape. The per-thread view
// (Block.Succs/Preds) is reserved for SSA-use/divergence reasoning and
// is never consulted here.
func (s *Shader) ComputeDominance() {
	if len(s.blocks) == 0 {
		s.domValid = true
		return
	}
	entry := s.blocks[0]

	visited := make(map[*Block]bool, len(s.blocks))
	var postorder []*Block

	// Iterative postorder walk (avoids recursion depth tied to CFG size).
	type frame struct {
		b    *Block
		next int
	}
	stack := []frame{{entry, 0}}
	visited[entry] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succs := top.b.PhysSuccs()
		if top.next < len(succs) {
			succ := succs[top.next]
			top.next++
			if succ != nil && !visited[succ] {
				visited[succ] = true
				stack = append(stack, frame{succ, 0})
			}
			continue
		}
		postorder = append(postorder, top.b)
		stack = stack[:len(stack)-1]
	}

	reversePostOrder := make([]*Block, len(postorder))
	for i, b := range postorder {
		reversePostOrder[len(postorder)-1-i] = b
	}

	rpoIndex := make(map[*Block]int, len(reversePostOrder))
	for i, b := range reversePostOrder {
		rpoIndex[b] = i
		b.preOrder = i
	}

	doms := make(map[*Block]*Block, len(reversePostOrder))
	doms[entry] = entry
	changed := true
	for changed {
		changed = false
		for _, b := range reversePostOrder[1:] {
			var newIdom *Block
			for _, pred := range b.physPreds {
				if doms[pred] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = pred
					continue
				}
				newIdom = intersectDom(doms, rpoIndex, newIdom, pred)
			}
			if newIdom != nil && doms[b] != newIdom {
				doms[b] = newIdom
				changed = true
			}
		}
	}

	for _, b := range reversePostOrder {
		if b == entry {
			b.immDom = nil
		} else {
			b.immDom = doms[b]
		}
	}

	computeLoopDepth(reversePostOrder, rpoIndex)
	s.domValid = true
}

func intersectDom(doms map[*Block]*Block, rpoIndex map[*Block]int, b1, b2 *Block) *Block {
	finger1, finger2 := b1, b2
	for finger1 != finger2 {
		for rpoIndex[finger1] > rpoIndex[finger2] {
			finger1 = doms[finger1]
		}
		for rpoIndex[finger2] > rpoIndex[finger1] {
			finger2 = doms[finger2]
		}
	}
	return finger1
}

// Dominates reports whether a dominates b in the physical CFG.
func (a *Block) Dominates(b *Block) bool {
	for cur := b; cur != nil; cur = cur.immDom {
		if cur == a {
			return true
		}
		if cur.immDom == cur {
			break
		}
	}
	return false
}

// computeLoopDepth detects back-edges (an edge whose target dominates its
// source) and derives each block's loop nesting depth from how many
// distinct back-edge targets dominate it.
func computeLoopDepth(order []*Block, rpoIndex map[*Block]int) {
	for _, b := range order {
		b.loopDepth = 0
	}
	headers := map[*Block]bool{}
	for _, b := range order {
		for _, succ := range b.PhysSuccs() {
			if succ != nil && succ.Dominates(b) {
				headers[succ] = true
			}
		}
	}
	for header := range headers {
		markLoopBody(header)
	}
}

// markLoopBody increments loopDepth for header and every block found by
// walking physical predecessor edges backwards from header without leaving
// its dominance region, approximating the natural loop body for depth
// accounting.
func markLoopBody(header *Block) {
	visited := map[*Block]bool{header: true}
	stack := []*Block{header}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b.loopDepth++
		for _, pred := range b.physPreds {
			if pred != header && header.Dominates(pred) && !visited[pred] {
				visited[pred] = true
				stack = append(stack, pred)
			}
		}
	}
}
