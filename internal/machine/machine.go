// Package machine holds the simulator's mutable state: the register
// file, memory, PSR/MCR, the supervisor stack swap, and the MMIO device
// registry. It implements uop.State so instruction micro-op chains built
// by package isa can run directly against it.
package machine

import (
	"github.com/dergolc3/lc3/internal/device"
	"github.com/dergolc3/lc3/internal/objfile"
	"github.com/dergolc3/lc3/internal/uop"
)

const (
	psrAddr = 0xFFFC
	mcrAddr = 0xFFFE

	mmioStart = 0xFE00

	ssp0 = 0x3000 // default supervisor stack pointer on reset
)

const (
	psrPrivBit = 1 << 15
)

// MemLocation pairs a stored word with the source line that produced it,
// used for debug and stack-trace printing. A write of an ASCII value
// (<=127) to a location whose current Line is a single character updates
// Line to the new character, so `.STRINGZ` buffers printed during a run
// stay in sync with what a program writes into them.
type MemLocation struct {
	Value  uint16
	Line   string
	IsOrig bool
}

// TraceTag identifies what kind of control transfer pushed a stack-trace
// frame.
type TraceTag uint8

const (
	TraceSubroutine TraceTag = iota
	TraceTrap
	TraceInterrupt
)

// MachineState is the full mutable state of one simulated LC-3.
type MachineState struct {
	Registers [8]uint16
	pc        uint16
	ir        uint16

	Mem [1 << 16]MemLocation

	devices   []device.Device
	addrOwner map[uint16]device.Device

	ssp uint16 // saved supervisor stack when in user mode

	pendingInterrupts []pendingInterrupt
	traceStack        []TraceTag

	IgnorePrivilege bool
	ResetPC         uint16
}

type pendingInterrupt struct {
	Vector   uint8
	Priority uint8
}

// New builds a MachineState with the PSR/MCR registers wired in as
// ordinary RWReg devices, matching how the original backend treats both
// as MMIO-addressed registers rather than dedicated fields.
func New(resetPC uint16) *MachineState {
	m := &MachineState{
		addrOwner: make(map[uint16]device.Device),
		ssp:       ssp0,
		ResetPC:   resetPC,
	}
	m.RegisterDevice(device.NewRWReg("PSR", psrAddr, psrPrivBit))
	m.RegisterDevice(device.NewRWReg("MCR", mcrAddr, 0))
	return m
}

// RegisterDevice adds a device to the MMIO registry, claiming every
// address it reports.
func (m *MachineState) RegisterDevice(d device.Device) {
	m.devices = append(m.devices, d)
	for _, addr := range d.Addrs() {
		m.addrOwner[addr] = d
	}
}

func (m *MachineState) Devices() []device.Device { return m.devices }

// Reset restores registers, PC, PSR and MCR to their power-on values.
// Memory contents are left untouched; a fresh load overwrites whatever
// it addresses.
func (m *MachineState) Reset() {
	m.Registers = [8]uint16{}
	m.pc = m.ResetPC
	m.ir = 0
	m.ssp = ssp0
	m.pendingInterrupts = nil
	m.traceStack = nil
	m.setPSRRaw(psrPrivBit)
	m.setMCRRaw(1 << 15)
}

// --- uop.State ---

func (m *MachineState) ReadReg(r uint8) uint16     { return m.Registers[r] }
func (m *MachineState) WriteReg(r uint8, v uint16) { m.Registers[r] = v }

func (m *MachineState) PC() uint16     { return m.pc }
func (m *MachineState) SetPC(v uint16) { m.pc = v }
func (m *MachineState) SetIR(v uint16) { m.ir = v }

func (m *MachineState) PSR() uint16 {
	v, _ := m.ReadMem(psrAddr)
	return v
}

func (m *MachineState) SetPSR(v uint16) {
	m.setPSRRaw(v)
}

func (m *MachineState) setPSRRaw(v uint16) {
	if d, ok := m.addrOwner[psrAddr]; ok {
		d.Write(psrAddr, v)
	}
}

func (m *MachineState) MCR() uint16 {
	v, _ := m.ReadMem(mcrAddr)
	return v
}

func (m *MachineState) setMCRRaw(v uint16) {
	if d, ok := m.addrOwner[mcrAddr]; ok {
		d.Write(mcrAddr, v)
	}
}

// Running reports whether MCR's run-flag bit is set.
func (m *MachineState) Running() bool {
	return m.MCR()&(1<<15) != 0
}

// Halt clears MCR's run flag.
func (m *MachineState) Halt() {
	m.setMCRRaw(m.MCR() &^ (1 << 15))
}

// SetNZP recomputes the PSR's condition-code bits (bits 2:0) from v,
// exactly one of which is ever set: negative if v's sign bit is set,
// zero if v == 0, else positive.
func (m *MachineState) SetNZP(v uint16) {
	psr := m.PSR() &^ 0x7
	switch {
	case v&0x8000 != 0:
		psr |= 0x4
	case v == 0:
		psr |= 0x2
	default:
		psr |= 0x1
	}
	m.setPSRRaw(psr)
}

// SetPrivilege swaps R6 against the saved supervisor/user stack pointer
// exactly once, on an actual mode transition, before updating the PSR bit.
func (m *MachineState) SetPrivilege(priv bool) {
	psr := m.PSR()
	if priv != (psr&psrPrivBit != 0) {
		m.ssp, m.Registers[6] = m.Registers[6], m.ssp
	}
	if priv {
		psr |= psrPrivBit
	} else {
		psr &^= psrPrivBit
	}
	m.setPSRRaw(psr)
}

func (m *MachineState) SetPriority(p uint8) {
	psr := m.PSR() &^ (0x7 << 8)
	psr |= uint16(p&0x7) << 8
	m.setPSRRaw(psr)
}

// PushSupervisorStack decrements R6 and writes v at the new location. The
// stack-pointer swap on privilege transitions lives in SetPrivilege, not
// here, so a RaiseException's two pushes land on a single stack.
func (m *MachineState) PushSupervisorStack(v uint16) {
	m.Registers[6]--
	m.writeRaw(m.Registers[6], v)
}

// PopSupervisorStack is the inverse of PushSupervisorStack.
func (m *MachineState) PopSupervisorStack() uint16 {
	v := m.Mem[m.Registers[6]].Value
	m.Registers[6]++
	return v
}

// RaiseException pushes PSR then PC onto the current stack, elevates
// privilege (swapping in the supervisor stack pointer), and vectors PC
// through the exception table at 0x0100+vector. priority is recorded for
// interrupts that preempt a lower-priority one; exceptions pass 0. Pushing
// before the privilege swap, and popping after swapping back in RTI,
// means both pushed words live on the stack that was active when the
// exception was raised.
func (m *MachineState) RaiseException(vector uint8, priority uint8) {
	if m.IgnorePrivilege && vector == uop.VectorPrivilege {
		return
	}
	psr := m.PSR()
	m.PushSupervisorStack(psr)
	m.PushSupervisorStack(m.pc)
	m.SetPrivilege(true)
	m.SetPriority(priority)
	target, _ := m.ReadMem(0x0100 + uint16(vector))
	m.pc = target
}

func (m *MachineState) AddPendingCallback(uint8) {
	// Pending-callback bookkeeping is owned by the simulator engine,
	// which reads the chain's PendingCallback ops directly rather than
	// through this hook; MachineState only needs to satisfy uop.State.
}

// --- memory & MMIO ---

func (m *MachineState) ReadMem(addr uint16) (uint16, []uop.MicroOp) {
	if d, ok := m.addrOwner[addr]; ok {
		return d.Read(addr)
	}
	return m.Mem[addr].Value, nil
}

func (m *MachineState) WriteMem(addr uint16, v uint16) []uop.MicroOp {
	if d, ok := m.addrOwner[addr]; ok {
		return d.Write(addr, v)
	}
	m.writeRaw(addr, v)
	return nil
}

func (m *MachineState) writeRaw(addr uint16, v uint16) {
	loc := &m.Mem[addr]
	if v <= 127 && len(loc.Line) == 1 {
		loc.Line = string(rune(v))
	}
	loc.Value = v
}

// Load installs object file records at their addresses, starting from a
// record's value whenever IsOrig is set and advancing sequentially
// otherwise.
func (m *MachineState) Load(records []objfile.Record) {
	addr := uint16(0)
	for _, r := range records {
		if r.IsOrig {
			addr = r.Value
			continue
		}
		m.Mem[addr] = MemLocation{Value: r.Value, Line: r.Line}
		addr++
	}
}

// --- interrupts & stack trace ---

func (m *MachineState) EnqueueInterrupt(vector uint8, priority uint8) {
	m.pendingInterrupts = append(m.pendingInterrupts, pendingInterrupt{Vector: vector, Priority: priority})
}

// peekInterruptIndex locates the slice index of the next pending
// interrupt with priority above the PSR's current priority. PeekInterrupt
// and DequeueInterrupt both go through this so they always agree on
// which entry is "next", rather than DequeueInterrupt assuming FIFO order.
func (m *MachineState) peekInterruptIndex() (int, bool) {
	cur := uint8((m.PSR() >> 8) & 0x7)
	for i, p := range m.pendingInterrupts {
		if p.Priority > cur {
			return i, true
		}
	}
	return 0, false
}

// PeekInterrupt returns the next pending interrupt with priority above
// the PSR's current priority, without removing it.
func (m *MachineState) PeekInterrupt() (uint8, uint8, bool) {
	i, ok := m.peekInterruptIndex()
	if !ok {
		return 0, 0, false
	}
	p := m.pendingInterrupts[i]
	return p.Vector, p.Priority, true
}

// DequeueInterrupt removes the same pending interrupt PeekInterrupt would
// currently report, not necessarily the head of the queue.
func (m *MachineState) DequeueInterrupt() {
	i, ok := m.peekInterruptIndex()
	if !ok {
		return
	}
	m.pendingInterrupts = append(m.pendingInterrupts[:i], m.pendingInterrupts[i+1:]...)
}

func (m *MachineState) PushTrace(tag TraceTag) {
	m.traceStack = append(m.traceStack, tag)
}

func (m *MachineState) PopTrace() (TraceTag, bool) {
	if len(m.traceStack) == 0 {
		return 0, false
	}
	tag := m.traceStack[len(m.traceStack)-1]
	m.traceStack = m.traceStack[:len(m.traceStack)-1]
	return tag, true
}

func (m *MachineState) TraceDepth() int { return len(m.traceStack) }
