package postra

// choose implements spec.md §4.4's "Priority function (instruction
// choice)": pick one instruction from the current DAG heads, in the
// spec's six-tier priority order. Ties within a tier break on
// instruction serial number (spec.md §5's "Ordering guarantees").
func choose(heads []*node, s *State) *node {
	if len(heads) == 1 {
		return heads[0]
	}

	// Tier 1/2: meta instructions always go first; among several, an
	// is_input head with the largest max_delay wins (flushing varying
	// fetches unlocks warp slots).
	if best := bestBy(heads, func(n *node) bool { return n.instr.IsMeta() }, func(n *node) bool { return n.instr.IsInput() }); best != nil {
		return best
	}

	// Tier 3: ready kills/demotes (delay == 0), largest max_delay.
	if best := bestBy(heads, func(n *node) bool {
		return n.instr.IsKillOrDemote() && s.Delay(n) == 0
	}, nil); best != nil {
		return best
	}

	// Tier 4: ready expensive producers (ss/sy class) with soft delay <= 0.
	if best := bestBy(heads, func(n *node) bool {
		return (n.instr.IsSFU() || n.instr.Opcode.ProducesSY()) && s.SoftDelay(n) <= 0
	}, nil); best != nil {
		return best
	}

	// Tier 5: smallest soft delay <= 3, tie-break by largest max_delay.
	var tier5 []*node
	for _, n := range heads {
		if s.SoftDelay(n) <= 3 {
			tier5 = append(tier5, n)
		}
	}
	if len(tier5) > 0 {
		return pickSmallestSoftDelay(tier5, s)
	}

	// Tier 6: fallback, largest max_delay over all heads.
	return pickMaxDelay(heads)
}

// bestBy restricts heads to those matching tierPred, and if any of those
// also matches secondaryPred, restricts further to the secondary subset;
// returns the max_delay winner of whichever subset ends up non-empty, or
// nil if tierPred matched nothing.
func bestBy(heads []*node, tierPred func(*node) bool, secondaryPred func(*node) bool) *node {
	var candidates []*node
	for _, n := range heads {
		if tierPred(n) {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	if secondaryPred != nil {
		var narrowed []*node
		for _, n := range candidates {
			if secondaryPred(n) {
				narrowed = append(narrowed, n)
			}
		}
		if len(narrowed) > 0 {
			candidates = narrowed
		}
	}
	return pickMaxDelay(candidates)
}

func pickMaxDelay(candidates []*node) *node {
	best := candidates[0]
	for _, n := range candidates[1:] {
		if n.maxDelay > best.maxDelay || (n.maxDelay == best.maxDelay && n.instr.Serial < best.instr.Serial) {
			best = n
		}
	}
	return best
}

func pickSmallestSoftDelay(candidates []*node, s *State) *node {
	best := candidates[0]
	bestDelay := s.SoftDelay(best)
	for _, n := range candidates[1:] {
		d := s.SoftDelay(n)
		switch {
		case d < bestDelay:
			best, bestDelay = n, d
		case d == bestDelay && n.maxDelay > best.maxDelay:
			best, bestDelay = n, d
		case d == bestDelay && n.maxDelay == best.maxDelay && n.instr.Serial < best.instr.Serial:
			best, bestDelay = n, d
		}
	}
	return best
}
