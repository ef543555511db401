package assemble

import (
	"strings"

	"github.com/dergolc3/lc3/internal/isa"
	"github.com/dergolc3/lc3/internal/parse"
)

// section is one .ORIG/.END-delimited run of statements sharing a base
// load address.
type section struct {
	origin uint16
	stmts  []*parse.Statement
}

// Layout is the result of pass 1: every statement has its final PC
// assigned, and every label is resolved in Symbols.
type Layout struct {
	Sections []section
	Symbols  *SymbolTable
}

// RunLayout performs pass 1 over stmts in order: the first statement must
// be a .ORIG; PC accumulates by each statement's encoded size, labels are
// recorded as they're seen, and .END closes the current section so a
// later .ORIG can open a new one. Errors are accumulated; layout continues
// past them so later statements still get a best-effort PC.
func RunLayout(stmts []*parse.Statement, source string) (*Layout, []AssemblerError) {
	layout := &Layout{Symbols: NewSymbolTable(source)}
	var errs []AssemblerError

	var cur *section
	pc := uint16(0)

	for _, stmt := range stmts {
		base := strings.ToLower(stmt.Base.Str)

		if cur == nil {
			if !stmt.HasBase || base != ".orig" {
				errs = append(errs, &MissingOrigError{Position: stmt.Base.Cursor})
				stmt.Valid = false
				continue
			}
			origin, err := originOperand(stmt)
			if err != nil {
				errs = append(errs, err)
				stmt.Valid = false
				continue
			}
			pc = origin
			stmt.PC = pc
			layout.Sections = append(layout.Sections, section{origin: origin, stmts: []*parse.Statement{stmt}})
			cur = &layout.Sections[len(layout.Sections)-1]
			continue
		}

		if stmt.HasBase && base == ".end" {
			stmt.PC = pc
			cur.stmts = append(cur.stmts, stmt)
			cur = nil
			continue
		}

		if stmt.HasLabel {
			if !layout.Symbols.Define(stmt.Label, pc) {
				errs = append(errs, &RedeclaredLabelError{Position: stmt.Base.Cursor, Received: stmt.Label})
				stmt.Valid = false
			}
		}

		stmt.PC = pc
		cur.stmts = append(cur.stmts, stmt)

		size, err := statementSize(stmt)
		if err != nil {
			errs = append(errs, err)
			stmt.Valid = false
			continue
		}
		pc += size
	}

	return layout, errs
}

func originOperand(stmt *parse.Statement) (uint16, AssemblerError) {
	if len(stmt.Operands) != 1 || stmt.Operands[0].Tag != parse.Num {
		return 0, &InvalidOperandCountError{
			Position: stmt.Base.Cursor, Mnemonic: ".ORIG", Required: 1, Received: len(stmt.Operands),
		}
	}
	piece := stmt.Operands[0]
	return getNum(int64(piece.Num), 16, isa.ZeroExtend, piece.Cursor)
}

// statementSize returns how many 16-bit memory words stmt occupies:
// 1 for an instruction or .FILL, N for .BLKW N, and len(decoded)+1 for
// .STRINGZ to include its terminating NUL. A label with nothing else on
// the line has no base at all — it occupies no memory of its own, same
// as the teacher's "no need to assemble label-only statements" handling.
func statementSize(stmt *parse.Statement) (uint16, AssemblerError) {
	if !stmt.HasBase {
		if len(stmt.Operands) == 0 {
			return 0, nil
		}
		leftover := stmt.Operands[0]
		return 0, &UnknownMnemonicError{Position: leftover.Cursor, Received: leftover.Str}
	}

	switch strings.ToLower(stmt.Base.Str) {
	case ".blkw":
		if len(stmt.Operands) != 1 || stmt.Operands[0].Tag != parse.Num {
			return 0, &InvalidOperandCountError{
				Position: stmt.Base.Cursor, Mnemonic: ".BLKW", Required: 1, Received: len(stmt.Operands),
			}
		}
		piece := stmt.Operands[0]
		if _, err := getNum(int64(piece.Num), 16, isa.ZeroExtend, piece.Cursor); err != nil {
			return 0, err
		}
		n := piece.Num
		if n < 1 {
			return 0, &EmptyBlockError{Position: stmt.Base.Cursor}
		}
		return uint16(n), nil
	case ".stringz":
		if len(stmt.Operands) != 1 || stmt.Operands[0].Tag != parse.String {
			return 0, &InvalidOperandCountError{
				Position: stmt.Base.Cursor, Mnemonic: ".STRINGZ", Required: 1, Received: len(stmt.Operands),
			}
		}
		decoded := decodeEscapes(stmt.Operands[0].Str)
		return uint16(len(decoded)) + 1, nil
	case ".fill", ".orig":
		return 1, nil
	case ".end":
		return 0, nil
	default:
		// Instructions, and unknown pseudo-ops (reported properly in
		// pass 2 once liberal mode is known); assume one word so layout
		// of subsequent statements stays plausible.
		return 1, nil
	}
}
