// Package sim is the discrete-event simulator: the decoder built from
// the ISA table, the priority-queue-driven event engine, and the
// callback/stack-trace bookkeeping that lets a host observe execution.
package sim

import (
	"fmt"

	"github.com/dergolc3/lc3/internal/device"
	"github.com/dergolc3/lc3/internal/iface"
	"github.com/dergolc3/lc3/internal/isa"
	"github.com/dergolc3/lc3/internal/machine"
	"github.com/dergolc3/lc3/internal/objfile"
	"github.com/dergolc3/lc3/internal/uop"
)

// InstTimestep is the logical duration of one instruction slot; every
// per-step event timestamp is computed relative to it.
const InstTimestep = 20

// CallbackType is the fixed, declaration-ordered set of points a host can
// observe. Its values are shared with package uop's PendingCallback
// ordinals (uop.CallbackPreInst etc.) so an instruction's Build function
// can stage one without importing sim.
type CallbackType uint8

const (
	PreInst CallbackType = iota
	PostInst
	SubEnter
	SubExit
	ExEnter
	ExExit
	IntEnter
	IntExit
	Breakpoint
	InputRequest
	InputPoll
)

func (c CallbackType) String() string {
	names := [...]string{
		"PreInst", "PostInst", "SubEnter", "SubExit",
		"ExEnter", "ExExit", "IntEnter", "IntExit",
		"Breakpoint", "InputRequest", "InputPoll",
	}
	if int(c) < len(names) {
		return names[c]
	}
	return "Unknown"
}

// Callback is the signature a host installs per CallbackType.
type Callback func(CallbackType, *machine.MachineState)

// keyboardInterruptVector and priority are the conventional LC-3 values
// for the keyboard's external interrupt.
const (
	keyboardInterruptVector = 0x80
	keyboardInterruptPrio   = 4
)

// Engine owns one MachineState plus the event queue driving it.
type Engine struct {
	State *machine.MachineState
	Table *isa.Table

	devices  []device.Device
	keyboard *device.Keyboard
	display  *device.Display

	queue eventQueue
	clock uint64

	instCountThisRun int
	breakpoints      map[uint16]bool

	callbacks        [11]Callback
	pendingCallbacks []uint8

	asyncInterrupt bool
	suspended      bool
	skipNextBreak  bool

	log func(string)
}

// New builds an Engine around a fresh MachineState with the keyboard and
// display registered, mirroring how the original simulator's constructor
// wires both devices in before the first setup(0).
func New(table *isa.Table, printer iface.Printer, inputter iface.Inputter, resetPC uint16) *Engine {
	e := &Engine{
		Table:       table,
		breakpoints: make(map[uint16]bool),
		log:         func(string) {},
	}
	e.State = machine.New(resetPC)

	e.keyboard = device.NewKeyboard(inputter, func() {
		e.State.EnqueueInterrupt(keyboardInterruptVector, keyboardInterruptPrio)
	})
	e.display = device.NewDisplay(printer)

	e.State.RegisterDevice(e.keyboard)
	e.State.RegisterDevice(e.display)
	e.devices = append(e.devices, e.keyboard, e.display)

	return e
}

// SetLogger installs a sink for diagnostic lines (stale-event skips,
// illegal-opcode traps); nil restores the default no-op sink.
func (e *Engine) SetLogger(fn func(string)) {
	if fn == nil {
		fn = func(string) {}
	}
	e.log = fn
}

// SetCallback installs the host's handler for one CallbackType.
func (e *Engine) SetCallback(t CallbackType, cb Callback) {
	e.callbacks[t] = cb
}

func (e *Engine) SetBreakpoint(addr uint16)   { e.breakpoints[addr] = true }
func (e *Engine) ClearBreakpoint(addr uint16) { delete(e.breakpoints, addr) }

// RequestSuspend is the single cooperative cancellation flag an embedding
// host may set from another goroutine; Run observes it between events.
func (e *Engine) RequestSuspend() { e.asyncInterrupt = true }

// TraceDepth exposes the current stack-trace depth for testing the
// invariant that it always stays non-negative.
func (e *Engine) TraceDepth() int { return e.State.TraceDepth() }

func (e *Engine) InstCountThisRun() int { return e.instCountThisRun }

// state adapts *machine.MachineState to uop.State, intercepting
// AddPendingCallback so staged callbacks land in the engine rather than
// being silently dropped by MachineState's own no-op implementation.
type state struct {
	*machine.MachineState
	eng *Engine
}

func (s state) AddPendingCallback(cb uint8) {
	s.eng.pendingCallbacks = append(s.eng.pendingCallbacks, cb)
}

func (e *Engine) uopState() uop.State { return state{e.State, e} }

// Start resets machine state and starts every device, without entering
// the run loop. Callers that need to interleave Run with a breakpoint
// debugger use Start/Stop directly; PowerOn is the single-shot
// convenience for a non-interactive run.
func (e *Engine) Start() {
	e.State.Reset()
	e.instCountThisRun = 0
	e.asyncInterrupt = false
	e.suspended = false
	e.skipNextBreak = false

	for _, d := range e.devices {
		d.Startup()
	}
}

// Stop shuts down every device. Call once the run loop has permanently
// ended, not after a breakpoint suspend that the caller intends to
// resume from with another Run.
func (e *Engine) Stop() {
	for _, d := range e.devices {
		d.Shutdown()
	}
}

// PowerOn resets machine state and starts every device, then begins the
// run loop. It returns when MCR's run bit clears, a breakpoint suspends
// execution, or RequestSuspend was called. A caller that wants to resume
// after a breakpoint should use Start/Run/Stop directly instead.
func (e *Engine) PowerOn() {
	e.Start()
	e.Run()
	e.Stop()
}

// Suspended reports whether the last Run returned because a breakpoint
// paused execution (as opposed to the machine halting or an async
// suspend request).
func (e *Engine) Suspended() bool { return e.suspended && e.State.Running() && !e.asyncInterrupt }

// LoadObjFile installs object file records into memory. It can be called
// before PowerOn (initial load) or while suspended at a breakpoint
// (incremental load), matching how the original engine treats a load as
// just another queued event.
func (e *Engine) LoadObjFile(records []objfile.Record) {
	e.State.Load(records)
}

// Run drains the event queue and advances instructions until MCR's run
// flag clears, a breakpoint suspends the run, or the host requests
// suspension. Calling Run again after a breakpoint suspend resumes from
// the current PC without re-triggering the same breakpoint, since the
// step that fired it set skipNextBreak, which lets the next step through.
// Run does not reset instCountThisRun; only Start does.
func (e *Engine) Run() {
	e.suspended = false

	for e.State.Running() && !e.asyncInterrupt && !e.suspended {
		e.step()
	}
}

func (e *Engine) step() {
	fetchOffset := uint64(InstTimestep) - (e.clock % InstTimestep)
	fetchTime := e.clock + fetchOffset

	for i := range e.devices {
		e.queue.push(Event{Time: e.clock + fetchOffset - 10, Kind: KindDeviceUpdate, DeviceIndex: i})
	}
	e.queue.push(Event{Time: e.clock + fetchOffset - 9, Kind: KindCheckForInterrupt})

	e.drain()

	// A breakpoint at the current PC fires once; the step immediately
	// following a resume from that same suspend point is let through so
	// the breakpointed instruction actually executes, matching how a
	// session's very first step (instCountThisRun == 0) is also exempt.
	triggerBP := e.breakpoints[e.State.PC()] && e.instCountThisRun != 0 && !e.skipNextBreak
	e.skipNextBreak = false

	if triggerBP {
		e.suspended = true
		e.skipNextBreak = true
		e.dispatch(Breakpoint)
		return
	}

	e.triggerCallback(PreInst, 0)
	e.drainPendingCallbacks()

	e.queue.push(Event{Time: fetchTime, Kind: KindAtomicInstProcess})
	e.drain()

	e.triggerCallback(PostInst, 0)
	e.drainPendingCallbacks()
	e.drain()
}

// drain executes every event currently queued, in (time, insertion-order)
// order, advancing the clock to each event's timestamp before it fires.
// A stale event (timestamp behind the clock, only possible on the first
// step after a suspend) is skipped with a diagnostic instead of firing.
func (e *Engine) drain() {
	for {
		ev, ok := e.queue.pop()
		if !ok {
			return
		}
		if ev.Time < e.clock {
			e.log(fmt.Sprintf("skipping stale event kind=%d time=%d clock=%d", ev.Kind, ev.Time, e.clock))
			continue
		}
		e.clock = ev.Time
		e.handle(ev)
	}
}

func (e *Engine) handle(ev Event) {
	switch ev.Kind {
	case KindDeviceUpdate:
		if ev.DeviceIndex >= 0 && ev.DeviceIndex < len(e.devices) {
			e.devices[ev.DeviceIndex].Tick()
		}
	case KindCheckForInterrupt:
		e.checkForInterrupt()
	case KindAtomicInstProcess:
		e.atomicInstProcess()
	case KindCallback:
		e.dispatch(CallbackType(ev.Callback))
	case KindShutdown:
		e.State.Halt()
		e.suspended = true
	case KindPowerOn, KindSetup, KindLoadObjFile:
		// No queued representation is produced for these today; Engine
		// drives them directly from PowerOn/LoadObjFile instead.
	}
}

func (e *Engine) checkForInterrupt() {
	vector, priority, ok := e.State.PeekInterrupt()
	if !ok {
		return
	}
	e.State.DequeueInterrupt()
	e.State.RaiseException(vector, priority)
	e.triggerCallback(IntEnter, 0)
}

func (e *Engine) atomicInstProcess() {
	pc := e.State.PC()
	word, post := e.State.ReadMem(pc)
	e.State.SetIR(word)
	e.State.SetPC(pc + 1)
	if len(post) > 0 {
		uop.Run(post, e.uopState())
	}

	inst := e.Table.Decode(word)
	if inst == nil {
		e.State.RaiseException(uop.VectorIllegalOpcode, 0)
		e.triggerCallback(ExEnter, 0)
		return
	}

	// Any PendingCallback ops the chain staged stay in pendingCallbacks;
	// step fires them after PostInst, as the ordering guarantee requires.
	chain := inst.Build(e.uopState(), word)
	uop.Run(chain, e.uopState())
}

// triggerCallback enqueues a Callback event. Its time is the current
// clock plus the CallbackType's ordinal, so callbacks triggered at the
// same logical instant fire in declaration order (PreInst before
// SubEnter before SubExit, and so on) without needing a separate
// priority field.
func (e *Engine) triggerCallback(t CallbackType, delta uint64) {
	e.queue.push(Event{Time: e.clock + delta + uint64(t), Kind: KindCallback, Callback: uint8(t)})
}

func (e *Engine) drainPendingCallbacks() {
	cbs := e.pendingCallbacks
	e.pendingCallbacks = nil
	for _, cb := range cbs {
		e.triggerCallback(CallbackType(cb), 0)
	}
}

// dispatch fires the installed handler for t and maintains the
// stack-trace bookkeeping: *Enter pushes a trace tag for the kind of
// entry (subroutine, exception, interrupt), *Exit pops one. instCountThisRun only ever increments here, on PostInst,
// so it always equals the number of PostInst callbacks actually fired.
func (e *Engine) dispatch(t CallbackType) {
	switch t {
	case PostInst:
		e.instCountThisRun++
	case SubEnter:
		e.State.PushTrace(machine.TraceSubroutine)
	case SubExit:
		e.State.PopTrace()
	case ExEnter:
		e.State.PushTrace(machine.TraceTrap)
		e.log(fmt.Sprintf("exception at pc=%#04x", e.State.PC()))
	case ExExit:
		e.State.PopTrace()
	case IntEnter:
		e.State.PushTrace(machine.TraceInterrupt)
	case IntExit:
		e.State.PopTrace()
	}

	if cb := e.callbacks[t]; cb != nil {
		cb(t, e.State)
	}
}

// Shutdown clears the event queue and enqueues a Shutdown event, the
// engine's half of the original triggerSuspend: any still-pending device
// or callback events from the interrupted run are discarded rather than
// firing against a machine that is about to stop.
func (e *Engine) Shutdown() {
	e.queue.clear()
	e.queue.push(Event{Time: e.clock, Kind: KindShutdown})
	e.drain()
}
