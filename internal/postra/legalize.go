package postra

import (
	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/isa"
	"github.com/external-mirrors/mesa-sub002/internal/regfile"
)

// State is the per-block legalize-state model of spec.md §4.4
// "Legalize-state model": register-ready cycles, pending ss/sy bitmasks,
// and the block-level soft-delay counters.
type State struct {
	mergedRegs bool
	stage      isa.Stage

	cycle int

	readyALU   map[regUnit]int // earliest cycle an ALU consumer may read this unit.
	readyOther map[regUnit]int // earliest cycle a non-ALU consumer may read this unit.

	ssPending    *regfile.Set // units written by an outstanding ss-class producer.
	syPending    *regfile.Set // units written by an outstanding sy-class producer.
	ssPendingWAR *regfile.Set // units read since the last write, needing ss protection on overwrite.
	syPendingWAR *regfile.Set

	ssDelay int // block-level soft-ss-delay countdown.
	syDelay int // block-level soft-sy-delay countdown.

	forceSS bool
	forceSY bool
}

// NewState returns a fresh legalize state for a block with no inherited
// predecessor state (the preamble-entry case of spec.md §4.4
// "Cross-block merge").
func NewState(mergedRegs bool, stage isa.Stage) *State {
	return &State{
		mergedRegs:   mergedRegs,
		stage:        stage,
		readyALU:     make(map[regUnit]int),
		readyOther:   make(map[regUnit]int),
		ssPending:    regfile.NewSet(),
		syPending:    regfile.NewSet(),
		ssPendingWAR: regfile.NewSet(),
		syPendingWAR: regfile.NewSet(),
	}
}

// MergeFrom folds pred's delay counters and pending masks into s, per
// spec.md §4.4 "Cross-block merge": a block inherits the max of its
// predecessors' ss_delay/sy_delay and ready cycles, and the OR of their
// force-sync bits. The pending ss/sy masks and their WAR variants are not
// merged; s keeps its own.
func (s *State) MergeFrom(pred *State) {
	if pred.ssDelay > s.ssDelay {
		s.ssDelay = pred.ssDelay
	}
	if pred.syDelay > s.syDelay {
		s.syDelay = pred.syDelay
	}
	s.forceSS = s.forceSS || pred.forceSS
	s.forceSY = s.forceSY || pred.forceSY
	mergeReady(s.readyALU, pred.readyALU)
	mergeReady(s.readyOther, pred.readyOther)
}

func mergeReady(into, from map[regUnit]int) {
	for u, c := range from {
		if cur, ok := into[u]; !ok || c > cur {
			into[u] = c
		}
	}
}

// Delay computes delay(n): the cycles of nop that must precede n given
// the current ready-cycle state of its register sources (spec.md §4.4
// "Delays").
func (s *State) Delay(n *node) int {
	table := s.readyOther
	if n.instr.IsALU() {
		table = s.readyALU
	}
	delay := 0
	for _, src := range n.instr.Sources {
		ref, ok := refOf(src, s.mergedRegs)
		if !ok {
			continue
		}
		forEachUnit(ref, s.mergedRegs, func(u regUnit) {
			if ready, ok := table[u]; ok && ready > s.cycle+delay {
				delay = ready - s.cycle
			}
		})
	}
	return delay
}

// SoftDelay computes soft_delay(n): Delay(n) raised to account for
// pending block-level ss/sy countdown if n consumes that class of
// result, per spec.md §4.4 "Delays".
func (s *State) SoftDelay(n *node) int {
	delay := s.Delay(n)
	if n.hasSSSrc && s.ssDelay > delay {
		delay = s.ssDelay
	}
	if n.hasSYSrc && s.syDelay > delay {
		delay = s.syDelay
	}
	return delay
}

// NeedsSyncFlags reports whether n must carry the ss/sy sync bits given
// the current state, per spec.md §4.4's `needs_sync_flags`.
func (s *State) NeedsSyncFlags(n *node) (needSS, needSY bool) {
	needSS = s.forceSS
	needSY = s.forceSY
	for _, src := range n.instr.Sources {
		ref, ok := refOf(src, s.mergedRegs)
		if !ok {
			continue
		}
		f, off := regfile.FileOffset(ref, s.mergedRegs)
		if s.ssPending.Overlaps(f, off, ref.Size) {
			needSS = true
		}
		if s.syPending.Overlaps(f, off, ref.Size) {
			needSY = true
		}
	}
	if n.hasSSSrc {
		needSS = true
	}
	if n.hasSYSrc {
		needSY = true
	}

	// Conservative WAR handling (spec.md §9 open question 2: the source
	// never removes a pending ss/sy mark speculatively on an overwrite of
	// a recently-read register, so neither do we).
	for _, dst := range n.instr.Destinations {
		ref, ok := refOf(dst, s.mergedRegs)
		if !ok {
			continue
		}
		f, off := regfile.FileOffset(ref, s.mergedRegs)
		if s.ssPendingWAR.Overlaps(f, off, ref.Size) {
			needSS = true
		}
		if s.syPendingWAR.Overlaps(f, off, ref.Size) {
			needSY = true
		}
	}
	return needSS, needSY
}

// Advance updates the legalize state after scheduling n with the given
// chosen delay: it consumes n's destinations as producers (setting ready
// cycles keyed on consumer type) and its sources as reads (clearing the
// corresponding WAR masks), and rolls the ss/sy countdown counters.
func (s *State) Advance(n *node, delay int) {
	s.cycle += delay

	ss, sy := s.NeedsSyncFlags(n)
	if ss {
		n.instr.Flags |= ir.FlagSyncSS
		s.ssPending.Reset() // a sync bit drains every outstanding ss producer.
		s.ssPendingWAR.Reset()
		s.ssDelay = 0
	}
	if sy {
		n.instr.Flags |= ir.FlagSyncSY
		s.syPending.Reset()
		s.syPendingWAR.Reset()
		s.syDelay = 0
	}
	n.instr.Nop = clampNop(delay)

	lat := isa.RequiredDelay(n.instr.Opcode, isa.OpNone, 0)
	latencyALU := s.cycle + lat
	latencyOther := s.cycle + lat
	for _, dst := range n.instr.Destinations {
		ref, ok := refOf(dst, s.mergedRegs)
		if !ok {
			continue
		}
		forEachUnit(ref, s.mergedRegs, func(u regUnit) {
			s.readyALU[u] = latencyALU
			s.readyOther[u] = latencyOther
			markPendingWrite(s, ref, n)
		})
	}
	for _, src := range n.instr.Sources {
		ref, ok := refOf(src, s.mergedRegs)
		if !ok {
			continue
		}
		f, off := regfile.FileOffset(ref, s.mergedRegs)
		s.ssPendingWAR.Mark(f, off, ref.Size)
		s.syPendingWAR.Mark(f, off, ref.Size)
	}

	if n.instr.IsSFU() {
		s.ssDelay = isa.SoftSSDelay(n.instr.Opcode)
	}
	if n.instr.Opcode.ProducesSY() {
		components := 1
		if d := n.instr.Dest(); d != nil && d.Wrmask != 0 {
			components = popcount16(d.Wrmask)
		}
		s.syDelay = isa.SoftSYDelay(n.instr.Opcode, s.stage, components)
	}
	if s.ssDelay > 0 {
		s.ssDelay--
	}
	if s.syDelay > 0 {
		s.syDelay--
	}
}

func markPendingWrite(s *State, ref regfile.Ref, n *node) {
	f, off := regfile.FileOffset(ref, s.mergedRegs)
	if n.instr.IsSFU() {
		s.ssPending.Mark(f, off, ref.Size)
	}
	if n.instr.Opcode.ProducesSY() {
		s.syPending.Mark(f, off, ref.Size)
	}
}

func clampNop(delay int) uint8 {
	if delay < 0 {
		return 0
	}
	if delay > 5 {
		return 5
	}
	return uint8(delay)
}

func popcount16(m uint16) int {
	n := 0
	for m != 0 {
		n += int(m & 1)
		m >>= 1
	}
	return n
}
