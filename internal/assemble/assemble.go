// Package assemble drives the two-pass LC-3 assembler: pass 1 assigns
// addresses and resolves labels, pass 2 validates and encodes every
// statement into object file records. Each pass accumulates diagnostics
// instead of aborting on the first error, since the exception-driven
// control flow of the original assembler has no Go equivalent worth
// keeping; an AssemblerError slice is the result-bearing substitute.
package assemble

import (
	"io"

	"github.com/dergolc3/lc3/internal/isa"
	"github.com/dergolc3/lc3/internal/objfile"
	"github.com/dergolc3/lc3/internal/parse"
	"github.com/dergolc3/lc3/internal/token"
)

// Options controls dialect and diagnostics.
type Options struct {
	Liberal bool
}

// Result is the outcome of assembling one source file.
type Result struct {
	Records []objfile.Record
	Symbols *SymbolTable
	Errors  []AssemblerError
}

// Assemble tokenizes, parses, and runs both passes over r, using table to
// resolve mnemonics and their operand schemas (decoding and micro-op
// chains are the engine's concern; assembly only needs the ISA table's
// encoding schema).
func Assemble(r io.Reader, source string, table *isa.Table, opts Options) Result {
	tk := token.New(r, opts.Liberal)

	mnemonics := make(parse.Mnemonics, len(table.ByName))
	for name := range table.ByName {
		mnemonics[name] = true
	}

	p := parse.New(tk, mnemonics)

	var stmts []*parse.Statement
	for {
		stmt, ok := p.Next()
		if !ok {
			break
		}
		stmts = append(stmts, stmt)
	}

	layout, layoutErrs := RunLayout(stmts, source)
	records, encodeErrs := RunEncode(layout, table, opts.Liberal)

	var errs []AssemblerError
	errs = append(errs, layoutErrs...)
	errs = append(errs, encodeErrs...)

	return Result{Records: records, Symbols: layout.Symbols, Errors: errs}
}
