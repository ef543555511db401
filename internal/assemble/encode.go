package assemble

import (
	"strings"

	"github.com/dergolc3/lc3/internal/isa"
	"github.com/dergolc3/lc3/internal/objfile"
	"github.com/dergolc3/lc3/internal/parse"
	"github.com/dergolc3/lc3/internal/token"
)

// RunEncode performs pass 2 over an already-laid-out program, producing
// the object file records in address order. It keeps going after an
// error so later statements can still be checked, returning every
// diagnostic collected; the caller decides whether any error aborts the
// write.
func RunEncode(layout *Layout, table *isa.Table, liberal bool) ([]objfile.Record, []AssemblerError) {
	var records []objfile.Record
	var errs []AssemblerError

	for _, sec := range layout.Sections {
		for _, stmt := range sec.stmts {
			if !stmt.Valid {
				continue
			}
			recs, stmtErrs := encodeStatement(stmt, table, layout.Symbols, liberal)
			records = append(records, recs...)
			errs = append(errs, stmtErrs...)
		}
	}

	return records, errs
}

func encodeStatement(stmt *parse.Statement, table *isa.Table, syms *SymbolTable, liberal bool) ([]objfile.Record, []AssemblerError) {
	if !stmt.HasBase {
		return nil, nil
	}

	base := strings.ToLower(stmt.Base.Str)
	switch base {
	case ".orig":
		return []objfile.Record{{Value: stmt.PC, IsOrig: true, Line: stmt.SourceLine}}, nil
	case ".end":
		return nil, nil
	case ".fill":
		return encodeFill(stmt, syms)
	case ".blkw":
		return encodeBlkw(stmt)
	case ".stringz":
		return encodeStringz(stmt)
	}

	candidates := table.ByName[base]
	if len(candidates) == 0 {
		if liberal {
			return nil, nil
		}
		return nil, []AssemblerError{&UnknownPseudoOpError{Position: stmt.Base.Cursor, Received: stmt.Base.Str}}
	}

	inst, err := pickInstruction(stmt, candidates)
	if err != nil {
		return nil, []AssemblerError{err}
	}

	word, werr := encodeWord(inst, stmt.Operands, syms, stmt.PC, stmt.Base.Cursor)
	if werr != nil {
		return nil, []AssemblerError{werr}
	}

	return []objfile.Record{{Value: word, Line: stmt.SourceLine}}, nil
}

func encodeFill(stmt *parse.Statement, syms *SymbolTable) ([]objfile.Record, []AssemblerError) {
	if len(stmt.Operands) != 1 {
		return nil, []AssemblerError{&InvalidOperandCountError{
			Position: stmt.Base.Cursor, Mnemonic: ".FILL", Required: 1, Received: len(stmt.Operands),
		}}
	}

	piece := stmt.Operands[0]
	var value uint16
	switch piece.Tag {
	case parse.Num:
		// .FILL has implicit sign-extension: a negative literal is
		// checked against the signed 16-bit range, a non-negative one
		// against the unsigned range.
		extend := isa.ZeroExtend
		if piece.Num < 0 {
			extend = isa.SignExtend
		}
		v, err := getNum(int64(piece.Num), 16, extend, piece.Cursor)
		if err != nil {
			return nil, []AssemblerError{err}
		}
		value = v
	case parse.String:
		addr, ok := syms.Lookup(piece.Str)
		if !ok {
			return nil, []AssemblerError{&UnknownLabelError{Position: piece.Cursor, Received: piece.Str}}
		}
		value = addr
	default:
		return nil, []AssemblerError{&InvalidUsageError{Position: piece.Cursor, Mnemonic: ".FILL"}}
	}

	return []objfile.Record{{Value: value, Line: stmt.SourceLine}}, nil
}

func encodeBlkw(stmt *parse.Statement) ([]objfile.Record, []AssemblerError) {
	if len(stmt.Operands) != 1 || stmt.Operands[0].Tag != parse.Num {
		return nil, []AssemblerError{&InvalidOperandCountError{
			Position: stmt.Base.Cursor, Mnemonic: ".BLKW", Required: 1, Received: len(stmt.Operands),
		}}
	}
	piece := stmt.Operands[0]
	if _, err := getNum(int64(piece.Num), 16, isa.ZeroExtend, piece.Cursor); err != nil {
		return nil, []AssemblerError{err}
	}

	n := piece.Num
	if n < 1 {
		return nil, []AssemblerError{&EmptyBlockError{Position: stmt.Base.Cursor}}
	}

	recs := make([]objfile.Record, n)
	for i := range recs {
		recs[i] = objfile.Record{Value: 0, Line: stmt.SourceLine}
	}
	return recs, nil
}

func encodeStringz(stmt *parse.Statement) ([]objfile.Record, []AssemblerError) {
	if len(stmt.Operands) != 1 || stmt.Operands[0].Tag != parse.String {
		return nil, []AssemblerError{&InvalidOperandCountError{
			Position: stmt.Base.Cursor, Mnemonic: ".STRINGZ", Required: 1, Received: len(stmt.Operands),
		}}
	}

	decoded := decodeEscapes(stmt.Operands[0].Str)
	recs := make([]objfile.Record, 0, len(decoded)+1)
	for _, b := range decoded {
		recs = append(recs, objfile.Record{Value: uint16(b), Line: string(rune(b))})
	}
	recs = append(recs, objfile.Record{Value: 0, Line: ""})
	return recs, nil
}

// decodeEscapes expands the five recognized backslash escapes in a
// .STRINGZ literal; any other backslash sequence is kept literally,
// backslash included.
func decodeEscapes(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			out = append(out, s[i])
			continue
		}
		switch s[i+1] {
		case '\\':
			out = append(out, '\\')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case '"':
			out = append(out, '"')
		default:
			out = append(out, '\\', s[i+1])
		}
		i++
	}
	return out
}

// pickInstruction finds the candidate whose operand-type signature
// matches stmt's operands: the statement side encodes as n/s/r (Num,
// unresolved String, Reg), the schema side as n/l/r, where l matches
// either n or s. The first full match wins.
func pickInstruction(stmt *parse.Statement, candidates []*isa.Instruction) (*isa.Instruction, AssemblerError) {
	sig := make([]byte, len(stmt.Operands))
	for i, p := range stmt.Operands {
		sig[i] = p.Tag.SchemaChar()
	}

	for _, inst := range candidates {
		if signatureMatches(inst, sig) {
			return inst, nil
		}
	}

	return nil, &InvalidUsageError{Position: stmt.Base.Cursor, Mnemonic: stmt.Base.Str}
}

func signatureMatches(inst *isa.Instruction, sig []byte) bool {
	var schema []byte
	for _, op := range inst.Operands {
		if op.Kind == isa.Fixed {
			continue
		}
		schema = append(schema, op.Kind.SchemaChar())
	}
	if len(schema) != len(sig) {
		return false
	}
	for i, sc := range schema {
		c := sig[i]
		switch sc {
		case 'l':
			if c != 'n' && c != 's' {
				return false
			}
		default:
			if c != sc {
				return false
			}
		}
	}
	return true
}

func encodeWord(inst *isa.Instruction, operands []parse.Piece, syms *SymbolTable, pc uint16, cursor token.Cursor) (uint16, AssemblerError) {
	var totalWidth uint
	for _, op := range inst.Operands {
		totalWidth += uint(op.Width)
	}

	var word uint16
	offset := totalWidth
	opIdx := 0

	for _, schemaOp := range inst.Operands {
		offset -= uint(schemaOp.Width)

		var fieldVal uint16
		switch schemaOp.Kind {
		case isa.Fixed:
			fieldVal = schemaOp.Value
		case isa.Reg:
			piece := operands[opIdx]
			opIdx++
			fieldVal = uint16(piece.Reg)
		case isa.Num:
			piece := operands[opIdx]
			opIdx++
			v, err := getNum(int64(piece.Num), schemaOp.Width, schemaOp.Extend, piece.Cursor)
			if err != nil {
				return 0, err
			}
			fieldVal = v
		case isa.Label:
			piece := operands[opIdx]
			opIdx++
			v, err := resolveLabelField(piece, syms, schemaOp, pc)
			if err != nil {
				return 0, err
			}
			fieldVal = v
		}

		mask := uint16(1)<<schemaOp.Width - 1
		word |= (fieldVal & mask) << offset
	}

	return word, nil
}

func resolveLabelField(piece parse.Piece, syms *SymbolTable, schemaOp isa.Operand, pc uint16) (uint16, AssemblerError) {
	if piece.Tag == parse.Num {
		return getNum(int64(piece.Num), schemaOp.Width, schemaOp.Extend, piece.Cursor)
	}

	addr, ok := syms.Lookup(piece.Str)
	if !ok {
		return 0, &UnknownLabelError{Position: piece.Cursor, Received: piece.Str}
	}
	rel := int64(addr) - int64(pc) - 1
	return getNum(rel, schemaOp.Width, schemaOp.Extend, piece.Cursor)
}

// getNum validates value fits in width bits under the given extension
// rule and returns its raw bit pattern.
func getNum(value int64, width uint8, extend isa.ExtendKind, cursor token.Cursor) (uint16, AssemblerError) {
	if extend == isa.ZeroExtend {
		if value < 0 || value >= int64(1)<<width {
			return 0, &OversizedLiteralError{Position: cursor, Width: width, Received: value}
		}
		return uint16(value), nil
	}

	lo := -(int64(1) << (width - 1))
	hi := int64(1)<<(width-1) - 1
	if value < lo || value > hi {
		return 0, &OversizedLiteralError{Position: cursor, Width: width, Received: value}
	}
	mask := uint16(1)<<width - 1
	return uint16(value) & mask, nil
}
