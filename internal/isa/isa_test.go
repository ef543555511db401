package isa_test

import (
	"testing"

	"github.com/dergolc3/lc3/internal/isa"
)

func TestDecodeFindsUniqueMatch(t *testing.T) {
	table := isa.NewTable()

	// ADD R1, R2, #-1 -> 0001 001 010 1 11111 = 0x12BF (DR=R1 at bits
	// 11-9, SR1=R2 at bits 8-6, per the canonical LC-3 field layout).
	word := uint16(0x12BF)
	inst := table.Decode(word)
	if inst == nil {
		t.Fatalf("decode %#04x: got nil", word)
	}
	if inst.Name != "ADD" {
		t.Fatalf("decode %#04x: got %s, want ADD", word, inst.Name)
	}
}

func TestDecodeNoMatchReturnsNil(t *testing.T) {
	table := isa.NewTable()
	// 1101 is unassigned in the LC-3 ISA (reserved/illegal opcode).
	if inst := table.Decode(0xD000); inst != nil {
		t.Fatalf("decode reserved opcode: got %s, want nil", inst.Name)
	}
}

func TestFieldValueSignExtends(t *testing.T) {
	table := isa.NewTable()

	// imm5 field = 11111 (-1), at bits 0-4.
	word := uint16(0b0001_001_010_1_11111)
	add := table.Decode(word)
	if add == nil || add.Name != "ADD" {
		t.Fatalf("decode %#04x: got %v, want ADD (immediate form)", word, add)
	}
	v := add.FieldValue(word, len(add.Operands)-1)
	if v != 0xFFFF {
		t.Fatalf("sign-extended imm5 = %#04x, want 0xFFFF", v)
	}
}

func TestFieldValueZeroExtends(t *testing.T) {
	table := isa.NewTable()
	trap := table.ByName["trap"][0]

	word := uint16(0xF025) // TRAP x25 (HALT)
	v := trap.FieldValue(word, len(trap.Operands)-1)
	if v != 0x25 {
		t.Fatalf("zero-extended trapvect8 = %#04x, want 0x25", v)
	}
}

func TestAllMnemonicsRegistered(t *testing.T) {
	table := isa.NewTable()
	for _, name := range []string{
		"add", "and", "not", "br", "brn", "brz", "brp", "brnz", "brnp", "brzp", "brnzp",
		"jmp", "ret", "rtt", "jsr", "jsrr", "ld", "ldi", "ldr", "lea", "st", "sti", "str",
		"rti", "trap", "getc", "out", "puts", "in", "putsp", "halt",
	} {
		if len(table.ByName[name]) == 0 {
			t.Errorf("mnemonic %q missing from table", name)
		}
	}
}
