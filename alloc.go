package gcptr

import (
	"fmt"
	"unsafe"

	"github.com/vic4key/mark-sweep-smart-pointers/internal/gclog"
)

// InitSpec selects how AllocZero/AllocArrayZero initialize their payload
// when the element type has no Bind method to call.
type InitSpec int

const (
	Undefined InitSpec = iota // leave the backing array as Go zero-values
	Zero                      // explicitly zero-fill (same effect, stated intent)
)

// Bindable is implemented by element types that need to self-classify
// their own embedded Handle fields at construction time. The allocator
// calls Bind once per element, standing in for the implicit base-class
// constructor call the original relies on.
type Bindable interface {
	Bind()
}

// Destroyer is implemented by element types that own a block and need
// cleanup when that block is swept. The allocator calls Destroy once per
// element, standing in for the original's destructor callback.
type Destroyer interface {
	Destroy()
}

func usesDestructor[T any]() bool {
	var z T
	_, ok := any(&z).(Destroyer)
	return ok
}

// destroyFunc is stored on a blockHeader and invoked exactly once, either
// by the collector sweeping a garbage block or by allocEnd discarding a
// partially constructed array. A panicking Destroy is recovered and
// logged rather than propagated: the original silently swallows
// exceptions thrown from destructors during sweep, but this package logs
// them instead of discarding them outright.
func destroyFunc[T any](payload unsafe.Pointer, n int) {
	base := (*T)(payload)
	size := sizeOf[T]()
	for i := 0; i < n; i++ {
		elem := (*T)(unsafe.Add(unsafe.Pointer(base), uintptr(i)*size))
		func() {
			defer func() {
				if r := recover(); r != nil {
					gclog.Warnf("gcptr: destructor panic on element %d: %v", i, r)
				}
			}()
			any(elem).(Destroyer).Destroy()
		}()
	}
}

// allocBegin opens a new block of nelems T, pushes it onto the calling
// goroutine's construction stack, and points h at its first element. It
// mirrors alloc_begin: an opportunistic collection (one that runs only
// once the byte threshold is crossed) is attempted first, on the theory
// that the allocation about to happen is the best moment to reclaim space
// for it. It waits for a collection in progress on another goroutine.
func allocBegin[T any](h *Handle[T], nelems int, zero bool) []T {
	h.Init() // no-op if the caller already linked h explicitly
	gc(false)

	payload := make([]T, nelems)
	if zero {
		var z T
		for i := range payload {
			payload[i] = z
		}
	}

	mb := &blockHeader{
		payload:   unsafe.Pointer(&payload[0]),
		nelems:    nelems,
		objsize:   sizeOf[T]() * uintptr(nelems),
		keepAlive: payload,
	}
	if usesDestructor[T]() {
		mb.destroy = destroyFunc[T]
	}

	st := myState()
	pushBlock(mb, &st.constrStack)

	h.h.mem = mb
	h.h.pval = unsafe.Pointer(&payload[0])
	return payload
}

// truncateAndDestroy runs destructors (if any) for the first k elements
// of a block whose construction was abandoned partway through, then
// drops the block's hold on its payload so the ordinary Go collector can
// reclaim it.
func truncateAndDestroy[T any](mb *blockHeader, k int) {
	if mb.destroy != nil && k > 0 {
		mb.destroy(mb.payload, k)
	}
	mb.keepAlive = nil
	mb.payload = nil
}

// allocEnd pops the construction stack. k is the number of elements that
// finished construction successfully; k < nelems means a constructor (or
// Bind) failed partway through and the block must be torn down instead of
// promoted. Once the construction stack empties, every block finished on
// this goroutine during this outermost allocation is promoted to the
// active list in one step, matching the original's alloc_end semantics
// for nested allocation.
func allocEnd[T any](h *Handle[T], k int) {
	st := myState()
	mb := popBlock(&st.constrStack)

	if k < mb.nelems {
		truncateAndDestroy[T](mb, k)
		h.h.mem = nil
		h.h.pval = nil
		return
	}

	collMu.Lock()
	allocatedBytes += int64(mb.objsize)
	collMu.Unlock()

	pushBlock(mb, &st.newBlocks)

	if st.constrStack != nil {
		return // still nested inside an outer allocation
	}

	activeMu.Lock()
	for st.newBlocks != nil {
		b := popBlock(&st.newBlocks)
		b.active = true
		pushBlock(b, &activeBlocks)
	}
	activeMu.Unlock()
}

// Alloc allocates a single T, runs Bind on it if it implements Bindable,
// then runs ctor. A non-nil ctor error (or a panic from Bind) tears the
// block down and is returned wrapped in AllocationError.
func (h *Handle[T]) Alloc(ctor func(t *T) error) error {
	return h.AllocArray(1, func(t *T, _ int) error { return ctor(t) })
}

// AllocZero allocates a single T with no constructor, honoring init only
// as documentation of intent: a fresh Go slice is already zero-valued.
func (h *Handle[T]) AllocZero(init InitSpec) error {
	return h.AllocArrayZero(1, init)
}

// AllocArray allocates an array of n T, running Bind (if implemented)
// and then ctor on each element in order. If ctor returns an error on
// element i, elements [0,i) are destroyed, the array is discarded, and
// the error is returned wrapped in AllocationError — nothing is re-raised
// silently past this point, matching the original's re-raise semantics
// for a throwing constructor.
func (h *Handle[T]) AllocArray(n int, ctor func(t *T, i int) error) error {
	payload := allocBegin(h, n, false)

	for i := range payload {
		if b, ok := any(&payload[i]).(Bindable); ok {
			if err := safeBind(b); err != nil {
				allocEnd(h, i)
				return &AllocationError{Err: err}
			}
		}
		if err := ctor(&payload[i], i); err != nil {
			allocEnd(h, i)
			return &AllocationError{Err: err}
		}
	}

	allocEnd(h, n)
	return nil
}

// safeBind runs b.Bind(), converting a panic into an error instead of
// letting it escape. A panicking Bind must still leave allocEnd free to
// tear the block down and pop it off the construction stack — an
// unrecovered panic here would skip allocEnd entirely and leave the
// block stuck on this goroutine's constrStack, wedging every later
// allocation on the same goroutine behind it.
func safeBind(b Bindable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bind panicked: %v", r)
		}
	}()
	b.Bind()
	return nil
}

// AllocArrayZero allocates an array of n T with Bind called on each
// element (if implemented) but no further per-element constructor. As with
// AllocZero, init only states intent: the fresh backing slice is already
// zero-valued before Bind runs.
func (h *Handle[T]) AllocArrayZero(n int, init InitSpec) error {
	return h.AllocArray(n, func(t *T, _ int) error { return nil })
}
