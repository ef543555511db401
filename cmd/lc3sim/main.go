// Command lc3sim loads an assembled LC-3 object file and runs it on the
// discrete-event engine in package sim, optionally under a breakpoint
// debugger driven by an optional gob-encoded symbol table.
package main

import (
	"encoding/gob"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/dergolc3/lc3/internal/assemble"
	"github.com/dergolc3/lc3/internal/console"
	"github.com/dergolc3/lc3/internal/isa"
	"github.com/dergolc3/lc3/internal/objfile"
	"github.com/dergolc3/lc3/internal/sim"
)

var (
	helpvar  bool
	debugvar bool
)

const usage = "lc3sim [-debug] filename"
const resetPC = 0x3000

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine under the breakpoint debugger")
	flag.Parse()
}

func lc3sim() int {
	if helpvar {
		fmt.Println(usage)
		return 0
	}

	args := flag.Args()
	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	file, err := os.Open(args[0])
	if err != nil {
		log.Println(err)
		return 1
	}
	defer file.Close()

	records, err := objfile.Read(file)
	if err != nil {
		log.Println(err)
		return 1
	}

	eng := sim.New(isa.NewTable(), console.NewTerminal(), console.NewKeyboard(), resetPC)
	eng.LoadObjFile(records)

	dbg := &debugger{eng: eng}

	if !debugvar {
		eng.PowerOn()
		return 0
	}

	dbgname := strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".lc3db"
	if dbgfile, err := os.Open(dbgname); err == nil {
		var symtab assemble.SymbolTable
		if err := gob.NewDecoder(dbgfile).Decode(&symtab); err == nil {
			dbg.symbols = &symtab
		} else {
			log.Println("error loading symbol file")
			log.Println(err)
		}
		dbgfile.Close()
	}

	eng.SetCallback(sim.Breakpoint, dbg.onBreak)

	c := make(chan os.Signal, 1)
	defer close(c)
	signal.Notify(c, os.Interrupt)
	go func() {
		for range c {
			fmt.Println()
			eng.RequestSuspend()
		}
	}()

	eng.Start()
	dbg.repl()

	for !dbg.quit && eng.State.Running() {
		eng.Run()
		if dbg.quit || !eng.Suspended() {
			break
		}
	}

	eng.Stop()

	return 0
}

func main() {
	os.Exit(lc3sim())
}
