package sim

import "container/heap"

// Kind identifies what an Event does when it fires.
type Kind uint8

const (
	KindSetup Kind = iota
	KindPowerOn
	KindShutdown
	KindLoadObjFile
	KindAtomicInstProcess
	KindDeviceUpdate
	KindCheckForInterrupt
	KindCallback
)

// Event is one entry of the engine's priority queue: a logical timestamp,
// a kind, and whatever payload that kind needs. DeviceIndex selects which
// registered device a DeviceUpdate targets; Callback carries the
// CallbackType ordinal for a Callback event.
type Event struct {
	Time        uint64
	Kind        Kind
	DeviceIndex int
	Callback    uint8

	seq uint64 // insertion order, the queue's stable tiebreak
}

// eventQueue is a container/heap min-priority queue ordered by (Time,
// seq), giving the engine a stable secondary order beyond the timestamp
// the design notes call out as necessary once multiple events share a
// timestamp after tie-breaking offsets are applied.
type eventQueue struct {
	items []Event
	next  uint64
}

func (q *eventQueue) Len() int { return len(q.items) }

func (q *eventQueue) Less(i, j int) bool {
	if q.items[i].Time != q.items[j].Time {
		return q.items[i].Time < q.items[j].Time
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *eventQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *eventQueue) Push(x any) {
	e := x.(Event)
	e.seq = q.next
	q.next++
	q.items = append(q.items, e)
}

func (q *eventQueue) Pop() any {
	old := q.items
	n := len(old)
	e := old[n-1]
	q.items = old[:n-1]
	return e
}

func (q *eventQueue) push(e Event) { heap.Push(q, e) }

func (q *eventQueue) pop() (Event, bool) {
	if q.Len() == 0 {
		return Event{}, false
	}
	return heap.Pop(q).(Event), true
}

func (q *eventQueue) peekTime() (uint64, bool) {
	if q.Len() == 0 {
		return 0, false
	}
	return q.items[0].Time, true
}

func (q *eventQueue) clear() {
	q.items = nil
}
