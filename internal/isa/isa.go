// Package isa is the single static description of the LC-3 instruction
// set: one table shared by the assembler's encoder (schema matching and
// bit-field encoding) and the simulator's decoder (opcode dispatch and
// micro-op generation), mirroring how the original lc3tools backend
// structures isa.h/isa_abstract.h as one ISAHandler both sides derive from.
package isa

import (
	"strings"

	"github.com/dergolc3/lc3/internal/uop"
)

// ExtendKind says how an operand's raw bit pattern is widened to 16 bits.
type ExtendKind uint8

const (
	SignExtend ExtendKind = iota
	ZeroExtend
)

// OperandKind classifies one field of an instruction's bit pattern.
type OperandKind uint8

const (
	Fixed OperandKind = iota // a constant bit pattern (opcode, mode bits)
	Reg                      // a 3-bit register field
	Num                      // an immediate numeric field
	Label                    // a PC-relative offset resolved from a label
)

// SchemaChar is the matching-signature character for an operand kind, used
// by the encoder when comparing a statement's operand types against a
// candidate instruction's operand schema (spec's "n"/"s"/"r" vs "n"/"l"/"r"
// compact type-code comparison).
func (k OperandKind) SchemaChar() byte {
	switch k {
	case Reg:
		return 'r'
	case Label:
		return 'l'
	default:
		return 'n'
	}
}

// Operand is one field of an instruction's bit pattern: a fixed constant,
// a register selector, an immediate value, or a label reference.
type Operand struct {
	Kind   OperandKind
	Width  uint8
	Extend ExtendKind

	// Value holds the constant bit pattern when Kind == Fixed.
	Value uint16
}

// Instruction is a static ISA table entry: a mnemonic, its ordered operand
// schema (the first entry is conventionally the opcode's Fixed bits), and a
// function that expands a fully-decoded instruction into the micro-op chain
// that realizes it at execution time.
type Instruction struct {
	Name     string
	Operands []Operand

	// Build decodes word according to Operands and returns the micro-op
	// chain that implements the instruction. It may read register and PC
	// state through s to precompute purely functional values (register
	// reads have no side effect), but must defer every memory or device
	// access to the returned chain so it executes in program order.
	Build func(s uop.State, word uint16) []uop.MicroOp
}

// Opcode returns the instruction's fixed 4-bit opcode, found in the first
// operand slot by convention.
func (i Instruction) Opcode() uint16 {
	if len(i.Operands) == 0 {
		return 0
	}
	return i.Operands[0].Value
}

// FieldValue extracts operand index idx's bits out of a fetched 16-bit
// instruction word, applying the declared extension rule.
func (i Instruction) FieldValue(word uint16, idx int) uint16 {
	op := i.Operands[idx]

	// Compute the bit offset by summing the widths of all operands after
	// idx (operands are laid out most-significant-first).
	offset := uint(0)
	for j := idx + 1; j < len(i.Operands); j++ {
		offset += uint(i.Operands[j].Width)
	}

	mask := uint16(1)<<op.Width - 1
	raw := (word >> offset) & mask

	if op.Extend == SignExtend && op.Width < 16 && op.Width > 0 {
		signBit := uint16(1) << (op.Width - 1)
		if raw&signBit != 0 {
			raw |= ^mask
		}
	}

	return raw
}

// Table is the full static instruction set, grouped by high opcode nibble
// for the decoder and by lowercase mnemonic for the encoder.
type Table struct {
	ByOpcode map[uint16][]*Instruction
	ByName   map[string][]*Instruction
	All      []*Instruction
}

// Decode finds the instruction definition matching word, trying every
// candidate registered under the word's high 4 bits and returning the
// first whose Fixed-kind operand fields all agree with the word's bits.
// Candidates sharing an opcode (JMP/RET/RTT, the eight BR variants) are
// told apart purely by these fixed-field checks; where several match
// (every RET or RTT word also matches JMP, every BR word also matches
// BRnzp), the one listed first in the table is returned.
func (t *Table) Decode(word uint16) *Instruction {
	opcode := word >> 12
	for _, inst := range t.ByOpcode[opcode] {
		if inst.matches(word) {
			return inst
		}
	}
	return nil
}

func (i *Instruction) matches(word uint16) bool {
	offset := uint(0)
	for idx := len(i.Operands) - 1; idx >= 0; idx-- {
		op := i.Operands[idx]
		if op.Kind == Fixed {
			mask := uint16(1)<<op.Width - 1
			if (word>>offset)&mask != op.Value {
				return false
			}
		}
		offset += uint(op.Width)
	}
	return true
}

// NewTable builds the ISA table once at process startup.
func NewTable() *Table {
	t := &Table{
		ByOpcode: make(map[uint16][]*Instruction),
		ByName:   make(map[string][]*Instruction),
	}
	for i := range instructionDefs {
		inst := &instructionDefs[i]
		t.All = append(t.All, inst)
		t.ByOpcode[inst.Opcode()] = append(t.ByOpcode[inst.Opcode()], inst)
		key := strings.ToLower(inst.Name)
		t.ByName[key] = append(t.ByName[key], inst)
	}
	return t
}
