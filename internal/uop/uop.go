// Package uop defines the smallest atomic state mutations the simulator
// composes into instructions and device side effects. A MicroOp chain is
// built as an owned slice at instruction-materialization time rather than
// the original engine's linked list of heap-allocated nodes with a raw
// successor pointer, which removes the cyclic-ownership risk the original
// design notes call out between events and their attached chains.
//
// Instruction.Build (in package isa) is free to precompute purely
// functional values — general-purpose register reads have no observable
// side effect, so "R[a] <- R[b] + sext(imm5)" is correctly represented as
// one WriteReg op carrying the already-computed sum, matching the
// granularity the specification itself uses for such an op. Only memory
// and device accesses are deferred into the op itself, since those alone
// can have side effects (clearing a device's ready bit, emitting a byte to
// the display, raising a pending interrupt) that must happen exactly when
// the op runs, not when the chain is materialized.
package uop

// Kind identifies the mutation a MicroOp performs.
type Kind uint8

const (
	WriteReg Kind = iota
	ReadMem
	WriteMem
	ReadMemIndirect
	WriteMemIndirect
	SetPC
	SetIR
	SetNZP
	SetPriv
	SetPriority
	PushSSP
	PopSSP
	Raise
	PendingCallback
)

// Target names where a loaded or popped value is written.
type Target uint8

const (
	TargetReg Target = iota
	TargetPC
	TargetPSR
)

// MicroOp is a tagged variant: Kind selects which fields below are
// meaningful.
type MicroOp struct {
	Kind Kind

	Reg uint8  // WriteReg destination
	Val uint16 // WriteReg/WriteMem/SetPC/SetIR/SetNZP/SetPriv(0|1)/PushSSP value

	Addr       uint16 // ReadMem/WriteMem/ReadMemIndirect/WriteMemIndirect address (first hop for *Indirect)
	DestTarget Target // ReadMem/ReadMemIndirect/PopSSP: where the loaded value goes
	Dest       uint8  // register number when DestTarget == TargetReg

	Vector uint8 // Raise: exception/interrupt vector index into the vector table
	Prio   uint8 // Raise/SetPriority: priority level

	Callback uint8 // PendingCallback: CallbackType ordinal

	// FromReg, when set on a SetNZP op, means the condition codes are
	// taken from the current content of register Reg rather than from
	// Val. Loaded values are not known until the ReadMem op ahead of this
	// one in the chain actually runs, so the condition-code update for a
	// load has to read the register back instead of precomputing it.
	FromReg bool
}

// Callback ordinals, shared between instruction Build functions (which
// stage a PendingCallback op) and the simulator engine (which dispatches
// on the same ordinals). Order matches the fixed declaration order the
// engine's stack-trace bookkeeping depends on.
const (
	CallbackPreInst uint8 = iota
	CallbackPostInst
	CallbackSubEnter
	CallbackSubExit
	CallbackExEnter
	CallbackExExit
	CallbackIntEnter
	CallbackIntExit
	CallbackBreakpoint
	CallbackInputRequest
	CallbackInputPoll
)

// Exception vector indices into the 0x0100-0x01FF exception vector table.
const (
	VectorPrivilege     uint8 = 0x00
	VectorIllegalOpcode uint8 = 0x01
)

// State is the minimal surface a MicroOp needs to mutate machine state,
// implemented by *machine.MachineState. Defining it here instead of
// importing the machine package keeps uop free of any dependency on
// machine, so chains can be exercised against a fake State in tests.
type State interface {
	WriteReg(r uint8, v uint16)
	ReadReg(r uint8) uint16
	ReadMem(addr uint16) (uint16, []MicroOp)
	WriteMem(addr uint16, v uint16) []MicroOp
	PC() uint16
	SetPC(v uint16)
	SetIR(v uint16)
	SetNZP(v uint16)
	SetPSR(v uint16)
	PSR() uint16
	SetPrivilege(priv bool)
	SetPriority(p uint8)
	PushSupervisorStack(v uint16)
	PopSupervisorStack() uint16
	RaiseException(vector uint8, priority uint8)
	AddPendingCallback(cb uint8)
}

func writeTarget(s State, target Target, reg uint8, v uint16) {
	switch target {
	case TargetPC:
		s.SetPC(v)
	case TargetPSR:
		s.SetPSR(v)
	default:
		s.WriteReg(reg, v)
	}
}

// Run executes a chain of micro-ops in order against s. Ops returned by a
// memory access (its post-access side effect) are spliced in immediately
// after the op that produced them, so they run before the remainder of the
// original chain — "append to the current chain", never insert at head.
func Run(chain []MicroOp, s State) {
	for i := 0; i < len(chain); i++ {
		op := chain[i]
		var extra []MicroOp

		switch op.Kind {
		case WriteReg:
			s.WriteReg(op.Reg, op.Val)
		case ReadMem:
			v, post := s.ReadMem(op.Addr)
			writeTarget(s, op.DestTarget, op.Dest, v)
			extra = post
		case WriteMem:
			extra = s.WriteMem(op.Addr, op.Val)
		case ReadMemIndirect:
			addr2, post1 := s.ReadMem(op.Addr)
			v, post2 := s.ReadMem(addr2)
			writeTarget(s, op.DestTarget, op.Dest, v)
			extra = append(post1, post2...)
		case WriteMemIndirect:
			addr2, post1 := s.ReadMem(op.Addr)
			post2 := s.WriteMem(addr2, op.Val)
			extra = append(post1, post2...)
		case SetPC:
			s.SetPC(op.Val)
		case SetIR:
			s.SetIR(op.Val)
		case SetNZP:
			if op.FromReg {
				s.SetNZP(s.ReadReg(op.Reg))
			} else {
				s.SetNZP(op.Val)
			}
		case SetPriv:
			s.SetPrivilege(op.Val != 0)
		case SetPriority:
			s.SetPriority(op.Prio)
		case PushSSP:
			s.PushSupervisorStack(op.Val)
		case PopSSP:
			writeTarget(s, op.DestTarget, op.Dest, s.PopSupervisorStack())
		case Raise:
			s.RaiseException(op.Vector, op.Prio)
		case PendingCallback:
			s.AddPendingCallback(op.Callback)
		}

		if len(extra) > 0 {
			tail := append([]MicroOp{}, chain[i+1:]...)
			chain = append(chain[:i+1:i+1], extra...)
			chain = append(chain, tail...)
		}
	}
}
