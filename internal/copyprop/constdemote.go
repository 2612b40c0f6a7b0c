package copyprop

import (
	"math"

	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/isa"
)

// demoteImmediate converts src from an inline immediate to a constant-pool
// reference, per spec.md §4.3 "Immediate-to-const demotion". It returns
// false (no change) when src does not carry IMMED, leaving the caller free
// to call it unconditionally on a candidate operand.
func demoteImmediate(consts *ir.ConstPool, src *ir.RegisterOperand, halfFloatConsumer bool) bool {
	if !src.IsImmediate() {
		return false
	}

	bits := src.ImmBits
	if halfFloatConsumer {
		// The hardware's half-precision constant slots are always stored
		// as 32-bit floats; widen the literal before interning it.
		bits = math.Float32bits(float16ToFloat32(uint16(bits)))
	}

	// Pre-evaluate algebraic modifiers on the literal itself and clear
	// them, since a constant-pool slot carries no per-use sign/abs state.
	if src.Alg&isa.FNeg != 0 {
		bits = math.Float32bits(-math.Float32frombits(bits))
	}
	if src.Alg&isa.FAbs != 0 {
		bits = math.Float32bits(float32AbsBits(bits))
	}
	if src.Alg&isa.SNeg != 0 {
		bits = uint32(-int32(bits))
	}
	if src.Alg&isa.SAbs != 0 {
		if int32(bits) < 0 {
			bits = uint32(-int32(bits))
		}
	}

	off, _ := consts.Intern(ir.PurposeImmed, bits)
	src.Alg &^= isa.Immed | isa.FNeg | isa.FAbs | isa.SNeg | isa.SAbs
	src.Alg |= isa.Const
	src.Num = off
	src.ImmBits = 0
	return true
}

func float32AbsBits(bits uint32) float32 {
	f := math.Float32frombits(bits)
	if f < 0 {
		f = -f
	}
	return f
}

// float16ToFloat32 widens an IEEE-754 binary16 bit pattern to binary32.
func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	var outExp, outFrac uint32
	switch {
	case exp == 0 && frac == 0: // zero.
		outExp, outFrac = 0, 0
	case exp == 0: // subnormal half -> normalized float.
		e := 0
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3ff
		outExp = uint32(127 - 15 + e + 1)
		outFrac = frac << 13
	case exp == 0x1f: // inf/nan.
		outExp = 0xff
		outFrac = frac << 13
	default:
		outExp = exp - 15 + 127
		outFrac = frac << 13
	}
	bits := sign<<31 | outExp<<23 | outFrac
	return math.Float32frombits(bits)
}
