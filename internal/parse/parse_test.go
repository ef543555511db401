package parse_test

import (
	"strings"
	"testing"

	"github.com/dergolc3/lc3/internal/parse"
	"github.com/dergolc3/lc3/internal/token"
)

var mnemonics = parse.Mnemonics{"add": true, "and": true, "jmp": true, "lea": true, "halt": true}

func parseOne(t *testing.T, src string) *parse.Statement {
	t.Helper()
	tk := token.New(strings.NewReader(src), false)
	p := parse.New(tk, mnemonics)
	stmt, ok := p.Next()
	if !ok {
		t.Fatalf("parse %q: got no statement", src)
	}
	return stmt
}

func TestLabelClassifiedWhenUnrecognized(t *testing.T) {
	stmt := parseOne(t, "LOOP ADD R1,R1,#1")
	if !stmt.HasLabel || stmt.Label != "LOOP" {
		t.Fatalf("got label %q (has=%v), want LOOP", stmt.Label, stmt.HasLabel)
	}
	if !stmt.HasBase || !strings.EqualFold(stmt.Base.Str, "ADD") {
		t.Fatalf("got base %+v, want ADD", stmt.Base)
	}
	if len(stmt.Operands) != 3 {
		t.Fatalf("got %d operands, want 3: %+v", len(stmt.Operands), stmt.Operands)
	}
}

func TestNoLabelWhenFirstPieceIsMnemonic(t *testing.T) {
	stmt := parseOne(t, "ADD R1,R1,#1")
	if stmt.HasLabel {
		t.Fatalf("got label %q, want none", stmt.Label)
	}
}

func TestPseudoOpClassification(t *testing.T) {
	stmt := parseOne(t, ".ORIG x3000")
	if !stmt.HasBase || stmt.Base.Tag != parse.Pseudo {
		t.Fatalf("got base %+v, want Pseudo .ORIG", stmt.Base)
	}
	if len(stmt.Operands) != 1 || stmt.Operands[0].Tag != parse.Num || stmt.Operands[0].Num != 0x3000 {
		t.Fatalf("got operands %+v", stmt.Operands)
	}
}

func TestRegisterClassification(t *testing.T) {
	stmt := parseOne(t, "ADD R1,R2,R3")
	for i, want := range []uint8{1, 2, 3} {
		if stmt.Operands[i].Tag != parse.Reg || stmt.Operands[i].Reg != want {
			t.Fatalf("operand %d: got %+v, want Reg %d", i, stmt.Operands[i], want)
		}
	}
}

// TestUnrecognizedPseudoStillClassifiedAsPseudo checks that a dot-prefixed
// piece outside the five known pseudo-ops still becomes the statement's
// Base as a Pseudo, not a label: recognizing it as an attempted (if
// unknown) pseudo-op is what lets pass 2 apply liberal mode's
// error-to-warning downgrade instead of pass 1 rejecting it outright as a
// label with no mnemonic.
func TestUnrecognizedPseudoStillClassifiedAsPseudo(t *testing.T) {
	stmt := parseOne(t, ".FOO 1")
	if !stmt.HasBase || stmt.Base.Tag != parse.Pseudo {
		t.Fatalf("got base %+v, want Pseudo .FOO", stmt.Base)
	}
	if stmt.HasLabel {
		t.Fatalf("got label %q, want none", stmt.Label)
	}
}

func TestLabelWithInstructionOnSameLine(t *testing.T) {
	stmt := parseOne(t, "DONE HALT")
	if !stmt.HasLabel || stmt.Label != "DONE" {
		t.Fatalf("got %+v", stmt)
	}
	if !stmt.HasBase || !strings.EqualFold(stmt.Base.Str, "HALT") {
		t.Fatalf("got base %+v", stmt.Base)
	}
	if len(stmt.Operands) != 0 {
		t.Fatalf("got operands %+v, want none", stmt.Operands)
	}
}

// TestLabelOnlyLine checks a line consisting of nothing but a label —
// the common style of putting a subroutine's entry label on its own
// line before the first instruction. It has no base at all, which is
// exactly the case the encoder and layout pass must treat as legal and
// zero-sized rather than an unknown mnemonic.
func TestLabelOnlyLine(t *testing.T) {
	stmt := parseOne(t, "DONE")
	if !stmt.HasLabel || stmt.Label != "DONE" {
		t.Fatalf("got %+v", stmt)
	}
	if stmt.HasBase {
		t.Fatalf("got base %+v, want none", stmt.Base)
	}
	if len(stmt.Operands) != 0 {
		t.Fatalf("got operands %+v, want none", stmt.Operands)
	}
}
