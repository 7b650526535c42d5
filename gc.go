package gcptr

import (
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/vic4key/mark-sweep-smart-pointers/internal/gclog"
)

// reentrantMutex is a channel-based recursive mutex keyed by goroutine
// id. The collector needs one because alloc_begin's opportunistic gc(false)
// call, and a destructor's own allocations running mid-sweep, must be able
// to re-enter a collection already held by the same goroutine without
// deadlocking; sync.Mutex has no such allowance.
type reentrantMutex struct {
	sem   chan struct{}
	owner int64
	count int32
}

func newReentrantMutex() *reentrantMutex {
	return &reentrantMutex{sem: make(chan struct{}, 1)}
}

func (m *reentrantMutex) Lock() {
	id := goroutineID()
	if atomic.LoadInt64(&m.owner) == id {
		m.count++
		return
	}
	m.sem <- struct{}{}
	atomic.StoreInt64(&m.owner, id)
	m.count = 1
}

func (m *reentrantMutex) Unlock() {
	m.count--
	if m.count > 0 {
		return
	}
	atomic.StoreInt64(&m.owner, 0)
	<-m.sem
}

// collMu is the outermost lock in the package's fixed acquisition order:
// collMu, then activeMu, then rootsMu. Re-entrant so gc can be entered
// opportunistically from inside an allocation that is itself running
// inside a destructor invoked by an enclosing sweep. It also covers the
// byte-counter and threshold themselves, matching the original's single
// recursive gc_m covering the gc body plus both writes.
var collMu = newReentrantMutex()

var (
	allocatedBytes int64
	threshold      int64 = 100 * 1024

	activeMu     sync.Mutex
	activeBlocks *blockHeader

	busy bool
)

// gc runs one mark-and-sweep pass. unconditional forces it regardless of
// the byte-threshold heuristic and of whether a collection is already
// judged unnecessary; non-unconditional calls (from allocBegin) are a
// no-op if the threshold hasn't been crossed or a collection is already
// in flight on this goroutine's call stack.
func gc(unconditional bool) int64 {
	collMu.Lock()
	defer collMu.Unlock()

	if busy {
		return 0
	}

	due := allocatedBytes >= threshold
	if !unconditional && !due {
		return 0
	}

	busy = true
	defer func() { busy = false }()

	allocatedBytes = 0

	activeMu.Lock()
	rootsMu.Lock()
	markRoots()
	rootsMu.Unlock()

	var keep, garbage *blockHeader
	for activeBlocks != nil {
		b := popBlock(&activeBlocks)
		if b.marked {
			b.marked = false
			pushBlock(b, &keep)
		} else {
			pushBlock(b, &garbage)
		}
	}
	activeBlocks = keep
	activeMu.Unlock()

	var freed int64
	var n int
	for garbage != nil {
		b := popBlock(&garbage)
		if b.destroy != nil {
			b.destroy(b.payload, b.nelems)
		}
		freed += int64(b.objsize)
		b.keepAlive = nil
		b.payload = nil
		b.active = false
		n++
	}

	if n > 0 {
		gclog.Debugf("gcptr: collected %d block(s), %s freed", n, humanize.Bytes(uint64(freed)))
	}
	return freed
}

// markRoots walks the roots list and marks every block reachable from a
// live root handle. Called with rootsMu and activeMu already held.
func markRoots() {
	for hh := roots; hh != nil; hh = hh.next {
		mark(hh.mem)
	}
}

// mark marks mb and recurses into every handle embedded in its payload,
// transitively marking whatever blocks those member handles own in turn.
// A block already marked is left alone, both to terminate cycles and
// because a cycle is exactly the case a tracing collector exists to
// reclaim that a reference count never could.
func mark(mb *blockHeader) {
	if mb == nil || !mb.active || mb.marked {
		return
	}
	mb.marked = true
	for hh := mb.members; hh != nil; hh = hh.next {
		mark(hh.mem)
	}
}

// Collect forces an immediate mark-and-sweep pass regardless of the
// byte-threshold heuristic, and returns the number of bytes freed.
func Collect() int64 { return gc(true) }

// CollectThreshold sets the byte threshold that triggers an opportunistic
// collection from inside allocation, returning the previous value. Pass
// a negative newValue to only read the current threshold.
func CollectThreshold(newValue int64) int64 {
	collMu.Lock()
	defer collMu.Unlock()
	old := threshold
	if newValue >= 0 {
		threshold = newValue
	}
	return old
}
