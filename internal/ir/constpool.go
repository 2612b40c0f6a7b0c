package ir

// ConstPurpose distinguishes the driver-managed constant-file regions a
// demoted immediate or uniform value can land in (spec.md §4.3
// "constant-pool demotion").
type ConstPurpose uint8

const (
	PurposeUser    ConstPurpose = iota // driver/API-supplied uniforms.
	PurposeDriver                      // compiler-synthesized driver params.
	PurposeImmed                       // immediates demoted out of instruction encoding.
)

type constEntry struct {
	purpose ConstPurpose
	bits    [4]uint32 // up to a vec4 per entry; scalar entries use [0] only.
	lanes   uint8
}

// ConstPool is the shader's constant-file allocator: every entry occupies
// a vec4-aligned slot, addressed as (offset_vec4, size_vec4) per
// spec.md §3.1 "Constant pool". Interning the same value twice returns the
// same slot.
type ConstPool struct {
	entries []constEntry
	index   map[constEntry]uint32 // entry (without lanes padding) -> offset_vec4
}

func newConstPool() *ConstPool {
	return &ConstPool{index: make(map[constEntry]uint32)}
}

// Intern reserves (or reuses) a constant-pool slot for a scalar value of
// the given purpose, returning its (offset_vec4, component) address.
func (p *ConstPool) Intern(purpose ConstPurpose, bits uint32) (offsetVec4 uint32, component uint8) {
	key := constEntry{purpose: purpose, bits: [4]uint32{bits, 0, 0, 0}, lanes: 1}
	if off, ok := p.index[key]; ok {
		return off, 0
	}
	off := uint32(len(p.entries))
	p.entries = append(p.entries, key)
	p.index[key] = off
	return off, 0
}

// SizeVec4 returns the current size of the pool, in vec4 slots.
func (p *ConstPool) SizeVec4() uint32 { return uint32(len(p.entries)) }
