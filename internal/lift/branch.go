package lift

// ARM64 terminator detection from raw 32-bit encodings. These identify
// basic-block boundaries and classify the control transfer each one causes.

// TermClass says what kind of control transfer ends a block.
type TermClass int

const (
	TermNone TermClass = iota
	TermRet
	TermJump     // unconditional B
	TermCondJump // B.cond, CBZ/CBNZ, TBZ/TBNZ
	TermCall     // BL, target known
	TermIndCall  // BLR, target unknown
	TermSyscall  // SVC
	TermTrap     // BRK
)

// Terminator describes a decoded block terminator.
type Terminator struct {
	Class  TermClass
	Target uint64 // absolute target; valid for TermJump, TermCondJump, TermCall
}

// DecodeTerminator classifies the instruction at pc, or returns class
// TermNone if it does not end a block. Calls are included: the block ends
// and a synthesized fall-through edge continues it.
func DecodeTerminator(raw uint32, pc uint64) Terminator {
	// RET Xn: 1101011 0010 11111 0000 00 Rn 00000
	if raw&0xFFFFFC1F == 0xD65F0000 {
		return Terminator{Class: TermRet}
	}

	// BL: 100101 imm26
	if raw&0xFC000000 == 0x94000000 {
		imm26 := raw & 0x03FFFFFF
		return Terminator{Class: TermCall, Target: rel(pc, imm26, 26)}
	}

	// BLR Xn: 1101011 0001 11111 0000 00 Rn 00000
	if raw&0xFFFFFC1F == 0xD63F0000 {
		return Terminator{Class: TermIndCall}
	}

	// B: 000101 imm26
	if raw&0xFC000000 == 0x14000000 {
		imm26 := raw & 0x03FFFFFF
		return Terminator{Class: TermJump, Target: rel(pc, imm26, 26)}
	}

	// B.cond: 01010100 imm19 0 cond
	if raw&0xFF000010 == 0x54000000 {
		imm19 := (raw >> 5) & 0x7FFFF
		return Terminator{Class: TermCondJump, Target: rel(pc, imm19, 19)}
	}

	// CBZ/CBNZ: 0 sf 11010 x imm19 Rt
	if raw&0x7E000000 == 0x34000000 {
		imm19 := (raw >> 5) & 0x7FFFF
		return Terminator{Class: TermCondJump, Target: rel(pc, imm19, 19)}
	}

	// TBZ/TBNZ: b5 0 11011 x b40 imm14 Rt
	if raw&0x7E000000 == 0x36000000 {
		imm14 := (raw >> 5) & 0x3FFF
		return Terminator{Class: TermCondJump, Target: rel(pc, imm14, 14)}
	}

	// SVC #imm16: 11010100 000 imm16 000 01
	if raw&0xFFE0001F == 0xD4000001 {
		return Terminator{Class: TermSyscall}
	}

	// BRK #imm16: 11010100 001 imm16 000 00
	if raw&0xFFE0001F == 0xD4200000 {
		return Terminator{Class: TermTrap}
	}

	return Terminator{}
}

// rel computes pc + signExtend(imm, bits)*4.
func rel(pc uint64, imm uint32, bits int) uint64 {
	sign := uint32(1) << (bits - 1)
	v := int64(imm)
	if imm&sign != 0 {
		v = int64(imm) - int64(sign)<<1
	}
	return uint64(int64(pc) + v*4)
}
