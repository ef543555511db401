// Package device implements the memory-mapped peripherals registered
// into a machine's MMIO address range: the keyboard and display, plus
// the plain read/write status register the PSR and MCR are themselves
// built from.
package device

import (
	"github.com/dergolc3/lc3/internal/iface"
	"github.com/dergolc3/lc3/internal/uop"
)

// Device is a memory-mapped peripheral. Addrs lists every address it
// claims; Read/Write are dispatched per-address by the owning machine.
type Device interface {
	Name() string
	Addrs() []uint16
	Read(addr uint16) (uint16, []uop.MicroOp)
	Write(addr uint16, v uint16) []uop.MicroOp
	Startup()
	Shutdown()
	Tick()
}

// RWReg is a single plain read/write register with no side effects,
// grounding PSR and MCR: both are ordinary 16-bit values the machine
// happens to expose through the MMIO dispatch path rather than the
// register file.
type RWReg struct {
	NameStr string
	Addr    uint16
	Value   uint16
}

func NewRWReg(name string, addr uint16, initial uint16) *RWReg {
	return &RWReg{NameStr: name, Addr: addr, Value: initial}
}

func (r *RWReg) Name() string    { return r.NameStr }
func (r *RWReg) Addrs() []uint16 { return []uint16{r.Addr} }
func (r *RWReg) Startup()        {}
func (r *RWReg) Shutdown()       {}
func (r *RWReg) Tick()           {}

func (r *RWReg) Read(uint16) (uint16, []uop.MicroOp) {
	return r.Value, nil
}

func (r *RWReg) Write(_ uint16, v uint16) []uop.MicroOp {
	r.Value = v
	return nil
}

const (
	kbsrReadyBit = 1 << 15
	kbsrIEBit    = 1 << 14
)

// Keyboard models the KBSR/KBDR pair. On Tick, if the Inputter has a
// character available and the device isn't already holding an unread
// one, it buffers the character and sets the ready bit; if the ready
// bit's interrupt-enable companion is set and this character hasn't
// already triggered an interrupt, it raises one exactly once per
// buffered key.
type Keyboard struct {
	KBSR, KBDR uint16

	inputter    iface.Inputter
	triggered   bool
	onInterrupt func()
}

func NewKeyboard(in iface.Inputter, onInterrupt func()) *Keyboard {
	return &Keyboard{inputter: in, onInterrupt: onInterrupt}
}

func (k *Keyboard) Name() string    { return "keyboard" }
func (k *Keyboard) Addrs() []uint16 { return []uint16{0xFE00, 0xFE02} }
func (k *Keyboard) Startup()        { k.inputter.BeginInput() }
func (k *Keyboard) Shutdown()       { k.inputter.EndInput() }

func (k *Keyboard) Tick() {
	if k.KBSR&kbsrReadyBit != 0 {
		return
	}
	c, ok := k.inputter.GetChar()
	if !ok {
		return
	}
	k.KBDR = uint16(c)
	k.KBSR |= kbsrReadyBit
	k.triggered = false

	if k.KBSR&kbsrIEBit != 0 && !k.triggered {
		k.triggered = true
		if k.onInterrupt != nil {
			k.onInterrupt()
		}
	}
}

func (k *Keyboard) Read(addr uint16) (uint16, []uop.MicroOp) {
	switch addr {
	case 0xFE00:
		return k.KBSR, nil
	case 0xFE02:
		v := k.KBDR
		k.KBSR &^= kbsrReadyBit
		return v, nil
	}
	return 0, nil
}

func (k *Keyboard) Write(addr uint16, v uint16) []uop.MicroOp {
	if addr == 0xFE00 {
		k.KBSR = v
	}
	return nil
}

// Display models the DSR/DDR pair. Status is always ready; a write to
// the data register emits its low byte to the Printer and produces no
// further micro-op.
type Display struct {
	printer iface.Printer
}

func NewDisplay(p iface.Printer) *Display {
	return &Display{printer: p}
}

func (d *Display) Name() string    { return "display" }
func (d *Display) Addrs() []uint16 { return []uint16{0xFE04, 0xFE06} }
func (d *Display) Startup()        {}
func (d *Display) Shutdown()       {}
func (d *Display) Tick()           {}

func (d *Display) Read(addr uint16) (uint16, []uop.MicroOp) {
	if addr == 0xFE04 {
		return 1 << 15, nil
	}
	return 0, nil
}

func (d *Display) Write(addr uint16, v uint16) []uop.MicroOp {
	if addr == 0xFE06 {
		d.printer.Print(string(rune(v & 0xFF)))
	}
	return nil
}
