package token_test

import (
	"strings"
	"testing"

	"github.com/dergolc3/lc3/internal/token"
)

func collect(t *testing.T, src string, liberal bool) []token.Token {
	t.Helper()
	tk := token.New(strings.NewReader(src), liberal)
	var out []token.Token
	for {
		tok, ok := tk.Next()
		if !ok {
			break
		}
		out = append(out, tok)
	}
	return out
}

func TestCommaConsumedWithPrecedingToken(t *testing.T) {
	toks := collect(t, "ADD R1,R2,R3", false)

	want := []string{"ADD", "R1", "R2", "R3"}
	if len(toks) != len(want)+1 { // +1 for trailing Eol
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want)+1, toks)
	}

	for i, w := range want {
		if toks[i].Tag != token.String {
			t.Fatalf("token %d: got tag %v, want String", i, toks[i].Tag)
		}
		if toks[i].Str != w {
			t.Fatalf("token %d: got %q, want %q", i, toks[i].Str, w)
		}
	}

	if toks[len(want)].Tag != token.Eol {
		t.Fatalf("final token: got %v, want Eol", toks[len(want)].Tag)
	}
}

func TestCommentStrippedRespectingStrings(t *testing.T) {
	toks := collect(t, `.STRINGZ "a;b" ; trailing comment`, false)

	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3: %+v", len(toks), toks)
	}
	if toks[0].Str != ".STRINGZ" {
		t.Fatalf("got base %q", toks[0].Str)
	}
	if toks[1].Tag != token.String || toks[1].Str != "a;b" {
		t.Fatalf("got string token %+v", toks[1])
	}
	if toks[2].Tag != token.Eol {
		t.Fatalf("got %+v, want Eol", toks[2])
	}
}

func TestBlankAndCommentOnlyLinesSkipped(t *testing.T) {
	toks := collect(t, "\n; just a comment\n   \nADD R1,R1,#1\n", false)

	if len(toks) != 5 {
		t.Fatalf("got %d tokens, want 5: %+v", len(toks), toks)
	}
}

func TestNumericRecognition(t *testing.T) {
	cases := []struct {
		src     string
		liberal bool
		want    int32
		isNum   bool
	}{
		{"#10", false, 10, true},
		{"10", false, 10, true},
		{"-10", false, -10, true},
		{"xFF", false, 255, true},
		{"b101", false, 5, true},
		{"0x1F", false, 0, false},
		{"0x1F", true, 31, true},
		{"0b11", true, 3, true},
		{"xZZ", false, 0, false},
	}

	for _, c := range cases {
		toks := collect(t, c.src, c.liberal)
		if len(toks) != 2 {
			t.Fatalf("%q: got %d tokens, want 2", c.src, len(toks))
		}
		got := toks[0]
		if c.isNum {
			if got.Tag != token.Num {
				t.Fatalf("%q: got tag %v, want Num", c.src, got.Tag)
			}
			if got.Num != c.want {
				t.Fatalf("%q: got %d, want %d", c.src, got.Num, c.want)
			}
		} else {
			if got.Tag != token.String {
				t.Fatalf("%q: got tag %v, want String", c.src, got.Tag)
			}
		}
	}
}

func TestQuotedStringSpansToUnescapedQuote(t *testing.T) {
	toks := collect(t, `.STRINGZ "hello \"world\""`, false)
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3: %+v", len(toks), toks)
	}
	if toks[1].Str != `hello \"world\"` {
		t.Fatalf("got %q", toks[1].Str)
	}
}
