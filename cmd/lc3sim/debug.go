package main

import (
	"bufio"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dergolc3/lc3/internal/assemble"
	"github.com/dergolc3/lc3/internal/console"
	"github.com/dergolc3/lc3/internal/machine"
	"github.com/dergolc3/lc3/internal/sim"
)

// debugger drives the breakpoint REPL against one Engine, matching the
// teacher's command set (break/register/memory/jump/labels/continue).
type debugger struct {
	eng     *sim.Engine
	symbols *assemble.SymbolTable

	breakpoints []uint16
	lastcmd     []string
	quit        bool
}

func decodeHex(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	return uint16(v), err
}

func (d *debugger) onBreak(_ sim.CallbackType, m *machine.MachineState) {
	fmt.Println()
	fmt.Println("Program stopped")
	d.printMem(m, m.PC(), 1)
	d.repl()
}

// repl reads debugger commands from stdin until one resumes or ends
// execution. Called once upfront (before the machine starts) and again
// from onBreak every time a breakpoint fires.
func (d *debugger) repl() {
	console.Exit()
	defer console.Enter()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !scanner.Scan() {
			fmt.Println()
			d.quit = true
			return
		}

		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			if len(d.lastcmd) == 0 {
				continue
			}
			args = d.lastcmd
		} else {
			d.lastcmd = append([]string{}, args...)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			d.cmdBreak(args)
		case "r", "reg", "register", "registers":
			d.cmdReg(args)
		case "m", "mem", "memory":
			d.cmdMemory(args)
		case "l", "label", "labels":
			d.cmdLabels(args)
		case "j", "jmp", "jump":
			d.cmdJump(args)
		case "c", "continue":
			return
		case "q", "quit", "exit":
			d.quit = true
			return
		case "clear":
			fmt.Print("\033[H\033[2J")
		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func (d *debugger) cmdBreak(args []string) {
	const usage = "break [add|list|remove]"

	if len(args) == 0 {
		args = []string{"l"}
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		if len(args) != 1 {
			log.Println("break add [0x####]")
			return
		}
		addr, err := decodeHex(args[0])
		if err != nil {
			log.Println(err)
			return
		}
		for _, bp := range d.breakpoints {
			if bp == addr {
				return
			}
		}
		d.breakpoints = append(d.breakpoints, addr)
		d.eng.SetBreakpoint(addr)
		fmt.Printf("Breakpoint added [%#04x]\n", addr)

	case "l", "ls", "list":
		digits := int(math.Floor(math.Log10(float64(len(d.breakpoints)+1)))) + 1
		fmtstring := fmt.Sprintf("#%%0%dd: %%#04x\n", digits)
		for i, addr := range d.breakpoints {
			fmt.Printf(fmtstring, i, addr)
		}

	case "r", "rm", "remove":
		if len(args) != 1 {
			log.Println("break remove [#]")
			return
		}
		i, err := strconv.Atoi(args[0])
		if err != nil || i < 0 || i >= len(d.breakpoints) {
			log.Println("invalid breakpoint number")
			return
		}
		d.eng.ClearBreakpoint(d.breakpoints[i])
		d.breakpoints = append(d.breakpoints[:i], d.breakpoints[i+1:]...)
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		for _, addr := range d.breakpoints {
			d.eng.ClearBreakpoint(addr)
		}
		d.breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
	}
}

func (d *debugger) cmdReg(args []string) {
	m := d.eng.State

	if len(args) > 0 {
		if len(args) != 2 {
			log.Println("register [R#|PC|PS] [0x####]")
			return
		}
		value, err := decodeHex(args[1])
		if err != nil {
			log.Println(err)
			return
		}

		name := strings.ToUpper(args[0])
		switch name {
		case "R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7":
			m.Registers[name[1]-'0'] = value
		case "PC":
			m.SetPC(value)
		case "PS":
			m.SetPSR(value)
		default:
			log.Println("invalid register")
			return
		}
		fmt.Printf("\033[1m%s:\033[0m %#04x\n", name, value)
		return
	}

	for i, r := range m.Registers {
		fmt.Printf("\033[1mR%d:\033[0m %#04x\t", i, r)
		if i == (len(m.Registers)-1)/2 {
			fmt.Println()
		}
	}
	fmt.Println()
	fmt.Printf("\033[1mPC:\033[0m %#04x\t\033[1mPS:\033[0m %#04x\n", m.PC(), m.PSR())
}

func (d *debugger) cmdMemory(args []string) {
	m := d.eng.State

	var addr uint16 = m.PC()
	var size uint16 = 1

	if len(args) > 0 {
		if a, err := decodeHex(args[0]); err == nil {
			addr = a
		} else if n, err := strconv.ParseUint(args[0], 10, 16); err == nil {
			size = uint16(n)
		} else {
			log.Println(err)
			return
		}
	}
	if len(args) > 1 {
		n, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			log.Println(err)
			return
		}
		size = uint16(n)
	}

	d.printMem(m, addr, size)
}

func (d *debugger) printMem(m *machine.MachineState, addr, size uint16) {
	for i := uint16(0); i < size; i++ {
		loc := m.Mem[addr+i]
		fmt.Printf("\033[1m[%#04x]\033[0m %#04x", addr+i, loc.Value)
		if loc.Line != "" {
			fmt.Printf("  %s", loc.Line)
		}
		fmt.Println()
	}
}

func (d *debugger) cmdLabels(args []string) {
	if d.symbols == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	keys := make([]string, 0, len(d.symbols.Symbols))
	for name := range d.symbols.Symbols {
		keys = append(keys, name)
	}
	sort.Slice(keys, func(i, j int) bool { return d.symbols.Symbols[keys[i]] < d.symbols.Symbols[keys[j]] })

	for _, name := range keys {
		fmt.Printf("\033[1m[%#04x]\033[0m %s\n", d.symbols.Symbols[name], name)
	}
}

func (d *debugger) cmdJump(args []string) {
	if len(args) != 1 {
		fmt.Println("jump [0x####|label]")
		return
	}

	if addr, err := decodeHex(args[0]); err == nil {
		d.eng.State.SetPC(addr)
		fmt.Printf("\033[1mPC:\033[0m %#04x\n", addr)
		return
	}

	if d.symbols != nil {
		if addr, ok := d.symbols.Lookup(args[0]); ok {
			d.eng.State.SetPC(addr)
			fmt.Printf("\033[1mPC:\033[0m %#04x \033[1;30m(%s)\033[0m\n", addr, args[0])
			return
		}
	}

	fmt.Printf("Unable to find '%s'\n", args[0])
}
