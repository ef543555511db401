package assemble_test

import (
	"strings"
	"testing"

	"github.com/dergolc3/lc3/internal/assemble"
	"github.com/dergolc3/lc3/internal/isa"
)

func mustAssemble(t *testing.T, src string, opts assemble.Options) assemble.Result {
	t.Helper()
	table := isa.NewTable()
	result := assemble.Assemble(strings.NewReader(src), "test.asm", table, opts)
	if len(result.Errors) != 0 {
		t.Fatalf("assemble %q: unexpected errors: %v", src, result.Errors)
	}
	return result
}

func TestAddImmediateEncoding(t *testing.T) {
	result := mustAssemble(t, ".ORIG x3000\nADD R1,R2,#-1\n.END\n", assemble.Options{})

	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2 (orig + instruction): %+v", len(result.Records), result.Records)
	}
	if !result.Records[0].IsOrig || result.Records[0].Value != 0x3000 {
		t.Fatalf("record 0: got %+v, want orig 0x3000", result.Records[0])
	}
	// DR=R1 (bits 11-9), SR1=R2 (bits 8-6), immediate mode, imm5=-1.
	if result.Records[1].Value != 0x12BF {
		t.Fatalf("got %#04x, want 0x12BF", result.Records[1].Value)
	}
}

func TestStringzLayoutAndTerminator(t *testing.T) {
	result := mustAssemble(t, ""+
		".ORIG x3000\n"+
		"LEA R0, MSG\n"+
		"HALT\n"+
		"MSG .STRINGZ \"Hi\"\n"+
		".END\n", assemble.Options{})

	// orig, LEA, HALT, 'H', 'i', NUL
	if len(result.Records) != 6 {
		t.Fatalf("got %d records, want 6: %+v", len(result.Records), result.Records)
	}
	if result.Records[3].Value != 'H' || result.Records[4].Value != 'i' || result.Records[5].Value != 0 {
		t.Fatalf("string data: got %+v", result.Records[2:])
	}

	addr, ok := result.Symbols.Lookup("MSG")
	if !ok || addr != 0x3002 {
		t.Fatalf("MSG resolved to %#04x (ok=%v), want 0x3002", addr, ok)
	}
}

func TestFillNegativeLiteral(t *testing.T) {
	result := mustAssemble(t, ".ORIG x3000\nLD R0, X\nX .FILL #-2\n.END\n", assemble.Options{})
	if result.Records[2].Value != 0xFFFE {
		t.Fatalf("got %#04x, want 0xFFFE", result.Records[2].Value)
	}
}

func TestPass1SymbolNeverBelowOrigin(t *testing.T) {
	result := mustAssemble(t, ""+
		".ORIG x3000\n"+
		"L1 ADD R0,R0,#0\n"+
		"L2 ADD R0,R0,#0\n"+
		".END\n", assemble.Options{})

	for _, label := range []string{"L1", "L2"} {
		addr, ok := result.Symbols.Lookup(label)
		if !ok || addr < 0x3000 {
			t.Fatalf("%s resolved to %#04x (ok=%v), below origin", label, addr, ok)
		}
	}
}

func TestDuplicateLabelIsError(t *testing.T) {
	table := isa.NewTable()
	src := ".ORIG x3000\nL ADD R0,R0,#0\nL ADD R0,R0,#0\n.END\n"
	result := assemble.Assemble(strings.NewReader(src), "t.asm", table, assemble.Options{})
	if len(result.Errors) == 0 {
		t.Fatal("got no errors, want a redeclared-label error")
	}
}

func TestUnknownLabelInFillIsError(t *testing.T) {
	table := isa.NewTable()
	src := ".ORIG x3000\n.FILL NOPE\n.END\n"
	result := assemble.Assemble(strings.NewReader(src), "t.asm", table, assemble.Options{})
	if len(result.Errors) == 0 {
		t.Fatal("got no errors, want an unknown-label error")
	}
}

func TestBlkwZeroIsError(t *testing.T) {
	table := isa.NewTable()
	src := ".ORIG x3000\n.BLKW 0\n.END\n"
	result := assemble.Assemble(strings.NewReader(src), "t.asm", table, assemble.Options{})
	if len(result.Errors) == 0 {
		t.Fatal("got no errors, want an empty-block error")
	}
}

func TestFillOversizedLiteralIsError(t *testing.T) {
	table := isa.NewTable()
	for _, src := range []string{
		".ORIG x3000\n.FILL #100000\n.END\n",
		".ORIG x3000\n.FILL #-40000\n.END\n",
	} {
		result := assemble.Assemble(strings.NewReader(src), "t.asm", table, assemble.Options{})
		if len(result.Errors) == 0 {
			t.Fatalf("%q: got no errors, want an oversized-literal error", src)
		}
	}
}

func TestOrigOversizedLiteralIsError(t *testing.T) {
	table := isa.NewTable()
	src := ".ORIG #100000\nHALT\n.END\n"
	result := assemble.Assemble(strings.NewReader(src), "t.asm", table, assemble.Options{})
	if len(result.Errors) == 0 {
		t.Fatal("got no errors, want an oversized-literal error")
	}
}

func TestBlkwOversizedLiteralIsError(t *testing.T) {
	table := isa.NewTable()
	src := ".ORIG x3000\n.BLKW 100000\n.END\n"
	result := assemble.Assemble(strings.NewReader(src), "t.asm", table, assemble.Options{})
	if len(result.Errors) == 0 {
		t.Fatal("got no errors, want an oversized-literal error")
	}
}

func TestLabelOnlyLineAssemblesCleanly(t *testing.T) {
	result := mustAssemble(t, ""+
		".ORIG x3000\n"+
		"JSR SUB\n"+
		"HALT\n"+
		"SUB\n"+
		"ST R7,SAVER7\n"+
		"LD R7,SAVER7\n"+
		"RET\n"+
		"SAVER7 .FILL #0\n"+
		".END\n", assemble.Options{})

	addr, ok := result.Symbols.Lookup("SUB")
	if !ok || addr != 0x3002 {
		t.Fatalf("SUB resolved to %#04x (ok=%v), want 0x3002: a label-only line must occupy no memory of its own", addr, ok)
	}
}

func TestUnknownPseudoStrictVsLiberal(t *testing.T) {
	table := isa.NewTable()
	src := ".ORIG x3000\n.WEIRD 1\n.END\n"

	strict := assemble.Assemble(strings.NewReader(src), "t.asm", table, assemble.Options{Liberal: false})
	if len(strict.Errors) == 0 {
		t.Fatal("strict mode: got no errors, want unknown-pseudo-op error")
	}

	liberal := assemble.Assemble(strings.NewReader(src), "t.asm", table, assemble.Options{Liberal: true})
	if len(liberal.Errors) != 0 {
		t.Fatalf("liberal mode: got errors %v, want none", liberal.Errors)
	}
}

func TestMultipleOrigSections(t *testing.T) {
	result := mustAssemble(t, ""+
		".ORIG x3000\nHALT\n.END\n"+
		".ORIG x4000\nHALT\n.END\n", assemble.Options{})

	origs := 0
	for _, r := range result.Records {
		if r.IsOrig {
			origs++
		}
	}
	if origs != 2 {
		t.Fatalf("got %d orig records, want 2", origs)
	}
}
