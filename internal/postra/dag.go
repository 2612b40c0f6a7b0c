// Package postra implements the post-register-allocation instruction
// scheduler: per-block dependency DAG construction, a legalize-state model
// for synchronization-flag insertion, a priority function for instruction
// selection, and the self-mov/noop-submov cleanup passes that bookend
// scheduling.
package postra

import (
	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/isa"
	"github.com/external-mirrors/mesa-sub002/internal/regfile"
)

// edge is a weighted dependency from a producer node to a consumer node.
type edge struct {
	to     *node
	weight int
}

// node is one DAG vertex, wrapping a single post-RA instruction (spec.md
// §4.4 "DAG construction" step 3).
type node struct {
	instr *ir.Instruction

	children []edge
	nParents int // live incoming-edge count; zero means the node is a DAG head.

	maxDelay int // longest-path cost to a leaf, in cycles.

	hasSYSrc bool
	hasSSSrc bool

	scheduled bool
}

// DAG is the dependency graph for one block's unscheduled instructions.
type DAG struct {
	nodes   []*node
	byInstr map[*ir.Instruction]*node
}

// regUnit identifies one physical-register slot for last-writer/reader
// tracking, per spec.md §4.1's (file, offset) addressing.
type regUnit struct {
	file   regfile.File
	offset uint32
}

func refOf(r *ir.RegisterOperand, mergedRegs bool) (regfile.Ref, bool) {
	if r == nil || r.Num == ir.InvalidNum {
		return regfile.Ref{}, false
	}
	var file regfile.File
	switch r.Class {
	case ir.ClassFull:
		file = regfile.FileFull
	case ir.ClassHalf:
		file = regfile.FileHalf
	case ir.ClassShared:
		file = regfile.FileShared
	default:
		file = regfile.FileNonGPR
	}
	size := r.Size
	if size == 0 {
		size = 1
	}
	return regfile.Ref{File: file, Num: r.Num, Size: size}, true
}

func forEachUnit(ref regfile.Ref, mergedRegs bool, f func(regUnit)) {
	file, offset := regfile.FileOffset(ref, mergedRegs)
	size := ref.Size
	if size == 0 {
		size = 1
	}
	for i := uint32(0); i < size; i++ {
		f(regUnit{file, offset + i})
	}
}

// BuildDAG constructs the dependency DAG for instrs (a block's
// instructions with its terminator already removed by the caller, per
// spec.md §4.4 step 1), given the register-allocation merged-register
// mode in effect.
func BuildDAG(instrs []*ir.Instruction, mergedRegs bool) *DAG {
	d := &DAG{byInstr: make(map[*ir.Instruction]*node, len(instrs))}
	for _, instr := range instrs {
		n := &node{instr: instr}
		d.nodes = append(d.nodes, n)
		d.byInstr[instr] = n
	}

	addEdge := func(from, to *node, weight int) {
		if from == to {
			return
		}
		from.children = append(from.children, edge{to: to, weight: weight})
		to.nParents++
		if from.instr.IsSFU() {
			to.hasSSSrc = true
		}
		if from.instr.IsTex() || from.instr.IsMemory() {
			to.hasSYSrc = true
		}
	}

	// Forward dependency sweep: RAW edges from the last writer of each
	// overlapping register unit (spec.md §4.4 step 4).
	lastWriter := make(map[regUnit]*node)
	for _, n := range d.nodes {
		for srcIdx, src := range n.instr.Sources {
			ref, ok := refOf(src, mergedRegs)
			if !ok {
				continue
			}
			seen := map[*node]bool{}
			forEachUnit(ref, mergedRegs, func(u regUnit) {
				if w := lastWriter[u]; w != nil && !seen[w] {
					seen[w] = true
					weight := isa.RequiredDelay(w.instr.Opcode, n.instr.Opcode, srcIdx)
					addEdge(w, n, weight)
				}
			})
		}
		for _, dst := range n.instr.Destinations {
			ref, ok := refOf(dst, mergedRegs)
			if !ok {
				continue
			}
			forEachUnit(ref, mergedRegs, func(u regUnit) { lastWriter[u] = n })
		}
	}

	// WAR sweep: a write must follow every read of the register unit since
	// its previous write (spec.md §4.4 step 5). Walked forward, tracking
	// the readers accumulated since each unit's last write; a new write
	// drains that list into ordering edges and starts a fresh one, so a
	// register's own producer is never spuriously ordered after its own
	// consumer (which the RAW sweep above already orders correctly).
	readersSinceWrite := make(map[regUnit][]*node)
	for _, n := range d.nodes {
		for _, dst := range n.instr.Destinations {
			ref, ok := refOf(dst, mergedRegs)
			if !ok {
				continue
			}
			seen := map[*node]bool{}
			forEachUnit(ref, mergedRegs, func(u regUnit) {
				for _, r := range readersSinceWrite[u] {
					if !seen[r] {
						seen[r] = true
						// A WAR hazard does not hide latency; weight 0 is
						// enough to order the overwrite after the read.
						addEdge(r, n, 0)
					}
				}
				readersSinceWrite[u] = nil
			})
		}
		for _, src := range n.instr.Sources {
			ref, ok := refOf(src, mergedRegs)
			if !ok {
				continue
			}
			forEachUnit(ref, mergedRegs, func(u regUnit) {
				readersSinceWrite[u] = append(readersSinceWrite[u], n)
			})
		}
	}

	addExtraConstraints(d)
	addFalseDeps(d)
	computeMaxDelay(d)
	return d
}

// addExtraConstraints wires the anti-reorder edges spec.md §4.4 step 6
// requires beyond plain register hazards: kills/demotes must follow every
// preceding input, and texture/memory ops must follow every preceding
// kill/demote.
func addExtraConstraints(d *DAG) {
	var priorInputs []*node
	var priorKills []*node
	for _, n := range d.nodes {
		if n.instr.IsKillOrDemote() {
			for _, in := range priorInputs {
				wireOrdering(in, n)
			}
			priorKills = append(priorKills, n)
		}
		if n.instr.IsTex() || n.instr.IsMemory() {
			for _, k := range priorKills {
				wireOrdering(k, n)
			}
		}
		if n.instr.IsInput() {
			priorInputs = append(priorInputs, n)
		}
	}
}

func wireOrdering(from, to *node) {
	if from == to {
		return
	}
	from.children = append(from.children, edge{to: to, weight: 0})
	to.nParents++
}

// addFalseDeps honors the IR core's false-dep array with zero-weight
// edges (spec.md §4.4 step 6, "False-deps ... honored with zero weight").
func addFalseDeps(d *DAG) {
	for _, n := range d.nodes {
		for _, dep := range n.instr.FalseDeps {
			if from, ok := d.byInstr[dep]; ok {
				wireOrdering(from, n)
			}
		}
	}
}

// computeMaxDelay fills in each node's longest-path-to-leaf cost, walking
// nodes in reverse construction order so every child is finalized before
// its parents are visited (the node list is already in program order,
// which is a valid reverse topological order for this purpose since every
// edge in the DAG points from an earlier instruction to a later one or is
// a same-position ordering edge).
func computeMaxDelay(d *DAG) {
	for i := len(d.nodes) - 1; i >= 0; i-- {
		n := d.nodes[i]
		best := 0
		for _, e := range n.children {
			if cost := e.weight + e.to.maxDelay; cost > best {
				best = cost
			}
		}
		n.maxDelay = best
	}
}

// Heads returns the DAG's current zero-parent, not-yet-scheduled nodes.
func (d *DAG) Heads() []*node {
	var heads []*node
	for _, n := range d.nodes {
		if !n.scheduled && n.nParents == 0 {
			heads = append(heads, n)
		}
	}
	return heads
}

// Schedule marks n scheduled and decrements its children's parent counts,
// pruning n from future head sets (spec.md §4.4 "Scheduling step").
func (d *DAG) Schedule(n *node) {
	n.scheduled = true
	for _, e := range n.children {
		e.to.nParents--
	}
}

// Done reports whether every node has been scheduled.
func (d *DAG) Done() bool {
	for _, n := range d.nodes {
		if !n.scheduled {
			return false
		}
	}
	return true
}
