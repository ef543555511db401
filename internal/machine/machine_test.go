package machine_test

import (
	"testing"

	"github.com/dergolc3/lc3/internal/machine"
	"github.com/dergolc3/lc3/internal/objfile"
)

func TestReadWriteMemRoundTrip(t *testing.T) {
	m := machine.New(0x3000)
	m.WriteMem(0x4000, 0xBEEF)
	v, ops := m.ReadMem(0x4000)
	if v != 0xBEEF {
		t.Fatalf("got %#04x, want 0xBEEF", v)
	}
	if ops != nil {
		t.Fatalf("got micro-ops %v for plain memory, want none", ops)
	}
}

func TestLoadRespectsOrigRecords(t *testing.T) {
	m := machine.New(0x3000)
	m.Load([]objfile.Record{
		{Value: 0x3000, IsOrig: true},
		{Value: 0x1234, Line: "ADD ..."},
		{Value: 0x5678, Line: "AND ..."},
	})

	if v, _ := m.ReadMem(0x3000); v != 0x1234 {
		t.Fatalf("mem[0x3000] = %#04x, want 0x1234", v)
	}
	if v, _ := m.ReadMem(0x3001); v != 0x5678 {
		t.Fatalf("mem[0x3001] = %#04x, want 0x5678", v)
	}
}

func TestSetNZP(t *testing.T) {
	m := machine.New(0x3000)

	m.SetNZP(0)
	if m.PSR()&0x7 != 0x2 {
		t.Fatalf("PSR nzp for zero = %#x, want Z", m.PSR()&0x7)
	}

	m.SetNZP(0x8000)
	if m.PSR()&0x7 != 0x4 {
		t.Fatalf("PSR nzp for negative = %#x, want N", m.PSR()&0x7)
	}

	m.SetNZP(1)
	if m.PSR()&0x7 != 0x1 {
		t.Fatalf("PSR nzp for positive = %#x, want P", m.PSR()&0x7)
	}
}

func TestSupervisorStackPushPop(t *testing.T) {
	m := machine.New(0x3000)
	m.Reset()

	m.PushSupervisorStack(0x1111)
	m.PushSupervisorStack(0x2222)

	if v := m.PopSupervisorStack(); v != 0x2222 {
		t.Fatalf("got %#04x, want 0x2222", v)
	}
	if v := m.PopSupervisorStack(); v != 0x1111 {
		t.Fatalf("got %#04x, want 0x1111", v)
	}
}

func TestRaiseExceptionSwitchesPrivilegeAndVectors(t *testing.T) {
	m := machine.New(0x3000)
	m.Reset()
	m.WriteMem(0x0100, 0x5000) // install vector 0 target

	m.SetPrivilege(false)
	m.RaiseException(0, 0)

	if m.PSR()&0x8000 == 0 {
		t.Fatal("privilege bit should be set after RaiseException")
	}
	if m.PC() != 0x5000 {
		t.Fatalf("PC = %#04x, want 0x5000", m.PC())
	}
}

func TestIgnorePrivilegeSuppressesPrivilegeException(t *testing.T) {
	m := machine.New(0x3000)
	m.Reset()
	m.IgnorePrivilege = true
	pcBefore := m.PC()

	m.RaiseException(0, 0) // VectorPrivilege == 0

	if m.PC() != pcBefore {
		t.Fatalf("PC changed to %#04x despite IgnorePrivilege", m.PC())
	}
}

func TestStackTraceDepthNeverNegative(t *testing.T) {
	m := machine.New(0x3000)
	if _, ok := m.PopTrace(); ok {
		t.Fatal("pop on empty trace stack should report ok=false")
	}
	if m.TraceDepth() != 0 {
		t.Fatalf("depth = %d, want 0", m.TraceDepth())
	}

	m.PushTrace(machine.TraceSubroutine)
	if m.TraceDepth() != 1 {
		t.Fatalf("depth = %d, want 1", m.TraceDepth())
	}
	m.PopTrace()
	if m.TraceDepth() != 0 {
		t.Fatalf("depth = %d, want 0", m.TraceDepth())
	}
}

func TestDequeueInterruptRemovesThePeekedEntry(t *testing.T) {
	m := machine.New(0x3000)
	m.Reset()
	m.SetPriority(2)

	// The first-enqueued interrupt sits below the current priority and
	// is never serviceable; the second is above it. PeekInterrupt must
	// skip the first and report the second, and DequeueInterrupt must
	// remove that same (non-head) entry rather than the head of the
	// queue.
	m.EnqueueInterrupt(9, 1)
	m.EnqueueInterrupt(5, 5)

	vector, priority, ok := m.PeekInterrupt()
	if !ok || vector != 5 || priority != 5 {
		t.Fatalf("got vector=%d priority=%d ok=%v, want vector=5 priority=5 ok=true", vector, priority, ok)
	}

	m.DequeueInterrupt()

	// The serviced entry (vector 5) is gone; the unserviceable one
	// (vector 9, priority 1) remains but still doesn't clear the
	// current-priority threshold.
	if _, _, ok := m.PeekInterrupt(); ok {
		t.Fatal("got a pending interrupt above threshold, want none: the wrong entry was dequeued")
	}
}

func TestStringzLineMetadataUpdatedOnWrite(t *testing.T) {
	m := machine.New(0x3000)
	m.Load([]objfile.Record{
		{Value: 0x3000, IsOrig: true},
		{Value: 'H', Line: "H"},
	})
	m.WriteMem(0x3000, 'Z')
	if m.Mem[0x3000].Line != "Z" {
		t.Fatalf("Line = %q, want %q", m.Mem[0x3000].Line, "Z")
	}
}
