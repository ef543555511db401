// Command lc3asm assembles LC-3 source into the object file format
// internal/objfile documents, optionally alongside a gob-encoded debug
// symbol table.
package main

import (
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dergolc3/lc3/internal/assemble"
	"github.com/dergolc3/lc3/internal/isa"
	"github.com/dergolc3/lc3/internal/objfile"
)

var (
	helpvar    bool
	liberalvar bool
	debugvar   bool
	outvar     string
)

const usage = "lc3asm [-enable-liberal-asm] [-debug] [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&liberalvar, "enable-liberal-asm", false,
		"Accepts a wider numeric-literal dialect (0x/0b prefixes)",
	)
	flag.BoolVar(
		&debugvar, "debug", false,
		"Generates a debug symbol table alongside the object file, "+
			"using the output filename with extension '.lc3db'",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, overriding "+
			"the default means of determining it",
	)
	flag.Parse()
}

func lc3asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var infile string
	var input io.Reader

	if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m ")

		if outvar == "" {
			outvar = "out.obj"
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 0
		}

		file, err := os.Open(args[0])
		if err != nil {
			log.Println(err)
			return 0
		}
		defer file.Close()

		filename := filepath.Base(file.Name())

		stat, err := file.Stat()
		if err != nil {
			log.Println(err)
			return 0
		}
		if stat.IsDir() {
			log.Printf("%s is not a valid LC-3 assembly file", filename)
			return 0
		}

		input = file
		infile = file.Name()
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m ", filename))

		if outvar == "" {
			outvar = strings.ReplaceAll(filename, filepath.Ext(filename), ".obj")
		}

		if strings.EqualFold(filepath.Ext(filename), ".bin") {
			return lc3convert(input, outvar)
		}
	}

	table := isa.NewTable()
	result := assemble.Assemble(input, infile, table, assemble.Options{Liberal: liberalvar})

	if len(result.Errors) > 0 {
		for _, err := range result.Errors {
			printDiagnostic(err)
		}
		return 0
	}

	outFile, err := os.Create(outvar)
	if err != nil {
		log.Println("error writing output file")
		log.Println(err)
		return 0
	}
	if err := objfile.Write(outFile, result.Records); err != nil {
		log.Println("error writing output file")
		log.Println(err)
		outFile.Close()
		return 0
	}
	outFile.Close()

	if debugvar {
		dbgname := strings.TrimSuffix(outvar, filepath.Ext(outvar)) + ".lc3db"
		dbgFile, err := os.Create(dbgname)
		if err != nil {
			log.Println("error creating symbol table")
			log.Println(err)
			return 0
		}
		defer dbgFile.Close()

		if err := gob.NewEncoder(dbgFile).Encode(result.Symbols); err != nil {
			log.Println("error writing symbol table")
			log.Println(err)
		}
	}

	return 0
}

// lc3convert handles the plain-text binary-listing dialect (a ".bin"
// input file): 16 characters of '0'/'1' per line, no tokenizer or
// assembler passes involved, per the object-converter path spec.md's CLI
// section calls out as distinct from normal assembly.
func lc3convert(input io.Reader, outvar string) int {
	records, errs := objfile.ConvertBinary(input)
	if len(errs) > 0 {
		for _, err := range errs {
			log.Println(err)
		}
		return 0
	}

	outFile, err := os.Create(outvar)
	if err != nil {
		log.Println("error writing output file")
		log.Println(err)
		return 0
	}
	defer outFile.Close()

	if err := objfile.Write(outFile, records); err != nil {
		log.Println("error writing output file")
		log.Println(err)
	}

	return 0
}

// printDiagnostic prints an assembler error with the offending source
// line underlined, matching the teacher's caret-and-tilde formatting; a
// diagnostic whose position carries no source line (one reported against
// a piece the statement does not have, such as a missing base) falls back
// to a plain message.
func printDiagnostic(err assemble.AssemblerError) {
	cursor := err.GetPosition()

	if cursor.Line == "" {
		log.Println(err)
		return
	}

	tildes := cursor.Len - 1
	if tildes < 0 {
		tildes = 0
	}
	underline := strings.Repeat(" ", cursor.Col) + "^" + strings.Repeat("~", tildes)

	log.Printf("%s\n%s\n\033[31m%s\033[0m", err, cursor.Line, underline)
}

func main() {
	os.Exit(lc3asm())
}
