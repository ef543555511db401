// Package parse groups a Token stream into Statements: an optional label,
// a base piece (mnemonic or pseudo-op), and an ordered operand list. It
// knows nothing about addresses or encoding — that is the assembler's
// job — only how to classify the pieces of one source line.
package parse

import (
	"strings"

	"github.com/dergolc3/lc3/internal/token"
)

// Tag classifies one Piece of a parsed Statement.
type Tag uint8

const (
	Invalid Tag = iota
	Inst
	Pseudo
	Label
	Reg
	String
	Num
)

func (t Tag) String() string {
	switch t {
	case Inst:
		return "Inst"
	case Pseudo:
		return "Pseudo"
	case Label:
		return "Label"
	case Reg:
		return "Reg"
	case String:
		return "String"
	case Num:
		return "Num"
	default:
		return "Invalid"
	}
}

// SchemaChar is the compact type code used by operand-signature matching
// during encoding: 'n' for Num, 's' for String (an unresolved symbol
// reference), 'r' for Reg.
func (t Tag) SchemaChar() byte {
	switch t {
	case Num:
		return 'n'
	case Reg:
		return 'r'
	default:
		return 's'
	}
}

// Piece is one classified fragment of a Statement.
type Piece struct {
	Tag Tag
	Str string // original text (mnemonic/pseudo-op/label/string/register name)
	Num int32  // numeric value when Tag == Num
	Reg uint8  // register index when Tag == Reg

	Cursor token.Cursor
}

// Statement is one logical source line: at most one label, at most one
// base (instruction mnemonic or pseudo-op), and an ordered operand list.
// PC is assigned during the assembler's layout pass; it is zero until then.
type Statement struct {
	Label    string
	HasLabel bool

	Base    Piece
	HasBase bool

	Operands []Piece

	PC uint16

	SourceLine string
	Row        int

	Valid bool
}

// Mnemonics is the set of known instruction names a Parser classifies
// Inst pieces against, keyed lower-case. Built from the isa.Table by the
// caller so the parser never needs to import isa directly.
type Mnemonics map[string]bool

// Parser consumes a token.Tokenizer and groups its tokens into Statements,
// one per logical source line (i.e. up to each Eol token).
type Parser struct {
	tk        *token.Tokenizer
	mnemonics Mnemonics
}

// New creates a Parser reading from tk, classifying Inst pieces against
// mnemonics (case-insensitive).
func New(tk *token.Tokenizer, mnemonics Mnemonics) *Parser {
	return &Parser{tk: tk, mnemonics: mnemonics}
}

// Next parses and returns the next Statement, or ok=false at end of input.
// A line containing only whitespace/comments never reaches the parser
// (the tokenizer already drops it), so every returned Statement has at
// least one piece.
func (p *Parser) Next() (*Statement, bool) {
	var pieces []Piece
	var row int
	var line string
	sawAny := false

	for {
		tok, ok := p.tk.Next()
		if !ok {
			if !sawAny {
				return nil, false
			}
			break
		}
		if tok.Tag == token.Eol {
			if sawAny {
				break
			}
			continue
		}
		sawAny = true
		row = tok.Cursor.Row
		line = tok.Cursor.Line
		pieces = append(pieces, classify(tok, p.mnemonics))
	}

	stmt := &Statement{SourceLine: line, Row: row, Valid: true}

	idx := 0
	if idx < len(pieces) && pieces[idx].Tag == String && !p.mnemonics[strings.ToLower(pieces[idx].Str)] {
		stmt.Label = pieces[idx].Str
		stmt.HasLabel = true
		idx++
	}

	if idx < len(pieces) && (pieces[idx].Tag == Inst || pieces[idx].Tag == Pseudo) {
		stmt.Base = pieces[idx]
		stmt.HasBase = true
		idx++
	}

	stmt.Operands = pieces[idx:]

	return stmt, true
}

func classify(tok token.Token, mnemonics Mnemonics) Piece {
	p := Piece{Cursor: tok.Cursor}

	if tok.Tag == token.Num {
		p.Tag = Num
		p.Num = tok.Num
		return p
	}

	p.Str = tok.Str
	lower := strings.ToLower(tok.Str)

	switch {
	case strings.HasPrefix(lower, "."):
		// Any dot-prefixed piece is a Pseudo, known or not: the encoder
		// (pass 2) is what distinguishes the five recognized pseudo-ops
		// from an unknown one, downgrading the latter to a warning in
		// liberal mode rather than an error.
		p.Tag = Pseudo
	case mnemonics[lower]:
		p.Tag = Inst
	case isRegisterName(lower):
		p.Tag = Reg
		p.Reg = lower[1] - '0'
	default:
		p.Tag = String
	}

	return p
}

func isRegisterName(lower string) bool {
	return len(lower) == 2 && lower[0] == 'r' && lower[1] >= '0' && lower[1] <= '7'
}
