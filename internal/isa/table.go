package isa

import "github.com/dergolc3/lc3/internal/uop"

// Bit-layout constants shared across the Build closures below. Field
// widths follow the conventional LC-3 encoding the original lc3tools
// backend and golc3's machine.Step both implement.
const (
	opWidth  = 4
	regWidth = 3
)

func bits(word uint16, width, offset uint) uint16 {
	mask := uint16(1)<<width - 1
	return (word >> offset) & mask
}

func sext(v uint16, width uint) uint16 {
	if width == 0 || width >= 16 {
		return v
	}
	sign := uint16(1) << (width - 1)
	if v&sign != 0 {
		return v | ^(uint16(1)<<width - 1)
	}
	return v
}

// instructionDefs is the complete static LC-3 instruction set. Name is
// matched case-insensitively by the parser; RET/RTT/JSRR and the TRAP
// aliases exist here as distinct, separately named entries that encode to
// the same opcode family as their canonical form, mirroring how the
// assembler treats them as plain mnemonics rather than macros.
var instructionDefs = []Instruction{
	{
		Name: "ADD",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x1},
			{Kind: Reg, Width: regWidth},
			{Kind: Reg, Width: regWidth},
			{Kind: Fixed, Width: 1, Value: 0},
			{Kind: Fixed, Width: 2, Value: 0},
			{Kind: Reg, Width: regWidth},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			dr := bits(word, regWidth, 9)
			sr1 := bits(word, regWidth, 6)
			var result uint16
			if bits(word, 1, 5) == 1 {
				imm := sext(bits(word, 5, 0), 5)
				result = s.ReadReg(uint8(sr1)) + imm
			} else {
				sr2 := bits(word, regWidth, 0)
				result = s.ReadReg(uint8(sr1)) + s.ReadReg(uint8(sr2))
			}
			return []uop.MicroOp{
				{Kind: uop.WriteReg, Reg: uint8(dr), Val: result},
				{Kind: uop.SetNZP, Val: result},
			}
		},
	},
	{
		// Immediate-operand overload of ADD: same mnemonic, a second
		// schema entry so the encoder's signature match can pick between
		// the register and immediate forms by operand shape.
		Name: "ADD",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x1},
			{Kind: Reg, Width: regWidth},
			{Kind: Reg, Width: regWidth},
			{Kind: Fixed, Width: 1, Value: 1},
			{Kind: Num, Width: 5, Extend: SignExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			dr := bits(word, regWidth, 9)
			sr1 := bits(word, regWidth, 6)
			imm := sext(bits(word, 5, 0), 5)
			result := s.ReadReg(uint8(sr1)) + imm
			return []uop.MicroOp{
				{Kind: uop.WriteReg, Reg: uint8(dr), Val: result},
				{Kind: uop.SetNZP, Val: result},
			}
		},
	},
	{
		Name: "AND",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x5},
			{Kind: Reg, Width: regWidth},
			{Kind: Reg, Width: regWidth},
			{Kind: Fixed, Width: 1, Value: 0},
			{Kind: Fixed, Width: 2, Value: 0},
			{Kind: Reg, Width: regWidth},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			dr := bits(word, regWidth, 9)
			sr1 := bits(word, regWidth, 6)
			var result uint16
			if bits(word, 1, 5) == 1 {
				imm := sext(bits(word, 5, 0), 5)
				result = s.ReadReg(uint8(sr1)) & imm
			} else {
				sr2 := bits(word, regWidth, 0)
				result = s.ReadReg(uint8(sr1)) & s.ReadReg(uint8(sr2))
			}
			return []uop.MicroOp{
				{Kind: uop.WriteReg, Reg: uint8(dr), Val: result},
				{Kind: uop.SetNZP, Val: result},
			}
		},
	},
	{
		// Immediate-operand overload of AND, same reasoning as ADD above.
		Name: "AND",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x5},
			{Kind: Reg, Width: regWidth},
			{Kind: Reg, Width: regWidth},
			{Kind: Fixed, Width: 1, Value: 1},
			{Kind: Num, Width: 5, Extend: SignExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			dr := bits(word, regWidth, 9)
			sr1 := bits(word, regWidth, 6)
			imm := sext(bits(word, 5, 0), 5)
			result := s.ReadReg(uint8(sr1)) & imm
			return []uop.MicroOp{
				{Kind: uop.WriteReg, Reg: uint8(dr), Val: result},
				{Kind: uop.SetNZP, Val: result},
			}
		},
	},
	{
		Name: "NOT",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x9},
			{Kind: Reg, Width: regWidth},
			{Kind: Reg, Width: regWidth},
			{Kind: Fixed, Width: 6, Value: 0x3F},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			dr := bits(word, regWidth, 9)
			sr := bits(word, regWidth, 6)
			result := ^s.ReadReg(uint8(sr))
			return []uop.MicroOp{
				{Kind: uop.WriteReg, Reg: uint8(dr), Val: result},
				{Kind: uop.SetNZP, Val: result},
			}
		},
	},
	brVariant("NOP", 0x0), // opcode 0 with all condition bits clear never branches
	brVariant("BRn", 0x4),
	brVariant("BRz", 0x2),
	brVariant("BRp", 0x1),
	brVariant("BRnz", 0x6),
	brVariant("BRnp", 0x5),
	brVariant("BRzp", 0x3),
	brVariant("BRnzp", 0x7),
	brVariant("BR", 0x7), // bare BR is sugar for unconditional BRnzp
	{
		Name: "JMP",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0xC},
			{Kind: Fixed, Width: 3, Value: 0},
			{Kind: Reg, Width: regWidth},
			{Kind: Fixed, Width: 6, Value: 0},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			base := bits(word, regWidth, 6)
			target := s.ReadReg(uint8(base))
			chain := []uop.MicroOp{}
			if base == 7 {
				chain = append(chain, uop.MicroOp{Kind: uop.PendingCallback, Callback: uop.CallbackSubExit})
			}
			return append(chain, uop.MicroOp{Kind: uop.SetPC, Val: target})
		},
	},
	{
		Name: "RET",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0xC},
			{Kind: Fixed, Width: 3, Value: 0},
			{Kind: Fixed, Width: regWidth, Value: 7},
			{Kind: Fixed, Width: 6, Value: 0},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			return []uop.MicroOp{
				{Kind: uop.PendingCallback, Callback: uop.CallbackSubExit},
				{Kind: uop.SetPC, Val: s.ReadReg(7)},
			}
		},
	},
	{
		Name: "RTT",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0xC},
			{Kind: Fixed, Width: 3, Value: 0},
			{Kind: Fixed, Width: regWidth, Value: 7},
			{Kind: Fixed, Width: 6, Value: 0},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			return []uop.MicroOp{
				{Kind: uop.PendingCallback, Callback: uop.CallbackSubExit},
				{Kind: uop.SetPC, Val: s.ReadReg(7)},
			}
		},
	},
	{
		Name: "JSR",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x4},
			{Kind: Fixed, Width: 1, Value: 1},
			{Kind: Label, Width: 11, Extend: SignExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			offset := sext(bits(word, 11, 0), 11)
			target := s.PC() + offset
			return []uop.MicroOp{
				{Kind: uop.WriteReg, Reg: 7, Val: s.PC()},
				{Kind: uop.SetPC, Val: target},
				{Kind: uop.PendingCallback, Callback: uop.CallbackSubEnter},
			}
		},
	},
	{
		Name: "JSRR",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x4},
			{Kind: Fixed, Width: 1, Value: 0},
			{Kind: Fixed, Width: 2, Value: 0},
			{Kind: Reg, Width: regWidth},
			{Kind: Fixed, Width: 6, Value: 0},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			base := bits(word, regWidth, 6)
			target := s.ReadReg(uint8(base))
			return []uop.MicroOp{
				{Kind: uop.WriteReg, Reg: 7, Val: s.PC()},
				{Kind: uop.SetPC, Val: target},
				{Kind: uop.PendingCallback, Callback: uop.CallbackSubEnter},
			}
		},
	},
	{
		Name: "LD",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x2},
			{Kind: Reg, Width: regWidth},
			{Kind: Label, Width: 9, Extend: SignExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			dr := bits(word, regWidth, 9)
			offset := sext(bits(word, 9, 0), 9)
			addr := s.PC() + offset
			return []uop.MicroOp{
				{Kind: uop.ReadMem, Addr: addr, DestTarget: uop.TargetReg, Dest: uint8(dr)},
				{Kind: uop.SetNZP, FromReg: true, Reg: uint8(dr)},
			}
		},
	},
	{
		Name: "LDI",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0xA},
			{Kind: Reg, Width: regWidth},
			{Kind: Label, Width: 9, Extend: SignExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			dr := bits(word, regWidth, 9)
			offset := sext(bits(word, 9, 0), 9)
			addr1 := s.PC() + offset
			return []uop.MicroOp{
				{Kind: uop.ReadMemIndirect, Addr: addr1, DestTarget: uop.TargetReg, Dest: uint8(dr)},
				{Kind: uop.SetNZP, FromReg: true, Reg: uint8(dr)},
			}
		},
	},
	{
		Name: "LDR",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x6},
			{Kind: Reg, Width: regWidth},
			{Kind: Reg, Width: regWidth},
			{Kind: Num, Width: 6, Extend: SignExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			dr := bits(word, regWidth, 9)
			base := bits(word, regWidth, 6)
			offset := sext(bits(word, 6, 0), 6)
			addr := s.ReadReg(uint8(base)) + offset
			return []uop.MicroOp{
				{Kind: uop.ReadMem, Addr: addr, DestTarget: uop.TargetReg, Dest: uint8(dr)},
				{Kind: uop.SetNZP, FromReg: true, Reg: uint8(dr)},
			}
		},
	},
	{
		Name: "LEA",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0xE},
			{Kind: Reg, Width: regWidth},
			{Kind: Label, Width: 9, Extend: SignExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			dr := bits(word, regWidth, 9)
			offset := sext(bits(word, 9, 0), 9)
			addr := s.PC() + offset
			return []uop.MicroOp{
				{Kind: uop.WriteReg, Reg: uint8(dr), Val: addr},
				{Kind: uop.SetNZP, Val: addr},
			}
		},
	},
	{
		Name: "ST",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x3},
			{Kind: Reg, Width: regWidth},
			{Kind: Label, Width: 9, Extend: SignExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			sr := bits(word, regWidth, 9)
			offset := sext(bits(word, 9, 0), 9)
			addr := s.PC() + offset
			return []uop.MicroOp{{Kind: uop.WriteMem, Addr: addr, Val: s.ReadReg(uint8(sr))}}
		},
	},
	{
		Name: "STI",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0xB},
			{Kind: Reg, Width: regWidth},
			{Kind: Label, Width: 9, Extend: SignExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			sr := bits(word, regWidth, 9)
			offset := sext(bits(word, 9, 0), 9)
			addr1 := s.PC() + offset
			return []uop.MicroOp{{Kind: uop.WriteMemIndirect, Addr: addr1, Val: s.ReadReg(uint8(sr))}}
		},
	},
	{
		Name: "STR",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x7},
			{Kind: Reg, Width: regWidth},
			{Kind: Reg, Width: regWidth},
			{Kind: Num, Width: 6, Extend: SignExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			sr := bits(word, regWidth, 9)
			base := bits(word, regWidth, 6)
			offset := sext(bits(word, 6, 0), 6)
			addr := s.ReadReg(uint8(base)) + offset
			return []uop.MicroOp{{Kind: uop.WriteMem, Addr: addr, Val: s.ReadReg(uint8(sr))}}
		},
	},
	{
		Name: "RTI",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x8},
			{Kind: Fixed, Width: 12, Value: 0},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			if s.PSR()&0x8000 == 0 {
				return []uop.MicroOp{{Kind: uop.Raise, Vector: uop.VectorPrivilege, Prio: 0}}
			}
			return []uop.MicroOp{
				{Kind: uop.SetPriv, Val: 0},
				{Kind: uop.PopSSP, DestTarget: uop.TargetPC},
				{Kind: uop.PopSSP, DestTarget: uop.TargetPSR},
				{Kind: uop.PendingCallback, Callback: uop.CallbackIntExit},
			}
		},
	},
	{
		Name: "TRAP",
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0xF},
			{Kind: Fixed, Width: 4, Value: 0},
			{Kind: Num, Width: 8, Extend: ZeroExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			vector := bits(word, 8, 0)
			return []uop.MicroOp{
				{Kind: uop.WriteReg, Reg: 7, Val: s.PC()},
				{Kind: uop.ReadMem, Addr: vector, DestTarget: uop.TargetPC},
				{Kind: uop.PendingCallback, Callback: uop.CallbackSubEnter},
			}
		},
	},
	trapAlias("GETC", 0x20),
	trapAlias("OUT", 0x21),
	trapAlias("PUTS", 0x22),
	trapAlias("IN", 0x23),
	trapAlias("PUTSP", 0x24),
	trapAlias("HALT", 0x25),
}

// brVariant builds one of the eight BR mnemonics. Each fixes its nzp mask
// in the schema rather than treating it as a decoded field, since the mask
// is selected by which mnemonic the programmer wrote (BRz, BRnp, ...), not
// by an operand.
func brVariant(name string, mask uint16) Instruction {
	return Instruction{
		Name: name,
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0x0},
			{Kind: Fixed, Width: 3, Value: mask},
			{Kind: Label, Width: 9, Extend: SignExtend},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			offset := sext(bits(word, 9, 0), 9)
			cc := s.PSR() & 0x7
			if mask&cc == 0 {
				return nil
			}
			return []uop.MicroOp{{Kind: uop.SetPC, Val: s.PC() + offset}}
		},
	}
}

// trapAlias builds the fixed-vector sugar mnemonics (GETC, OUT, PUTS, IN,
// PUTSP, HALT) that the parser accepts with no operands, encoding to the
// same TRAP instruction with its vector baked into the schema.
func trapAlias(name string, vector uint16) Instruction {
	return Instruction{
		Name: name,
		Operands: []Operand{
			{Kind: Fixed, Width: opWidth, Value: 0xF},
			{Kind: Fixed, Width: 4, Value: 0},
			{Kind: Fixed, Width: 8, Value: vector},
		},
		Build: func(s uop.State, word uint16) []uop.MicroOp {
			return []uop.MicroOp{
				{Kind: uop.WriteReg, Reg: 7, Val: s.PC()},
				{Kind: uop.ReadMem, Addr: vector, DestTarget: uop.TargetPC},
				{Kind: uop.PendingCallback, Callback: uop.CallbackSubEnter},
			}
		},
	}
}
