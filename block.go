package gcptr

import "unsafe"

// blockHeader is the fixed prologue the collector keeps in front of
// every managed object array. It never needs to know the element type:
// that is the whole point of splitting Handle[T] into a typed wrapper
// around an untyped handleHeader, mirroring how the original gcptr::mblock
// is addressed only through gcptr::basic_ptr and destructor function
// pointers.
//
// Invariant B1 (header laid out so the payload is maximally aligned) is
// moot here: header and payload are two separate Go-allocated values
// (see alloc.go) instead of one hand-laid-out buffer, so each is aligned
// by the Go allocator on its own terms.
type blockHeader struct {
	// destroy runs exactly once, when the block is reclaimed or when a
	// constructor throws partway through an array. nil when the element
	// type needs no cleanup.
	destroy func(payload unsafe.Pointer, nelems int)

	// members is the head of the intrusive list of handles embedded
	// inside this block's payload. Insertion is lock-free: the block is
	// still on its owning goroutine's construction stack and so
	// invisible to the collector and to every other goroutine.
	members *handleHeader

	// next links this block into whichever list currently owns it:
	// the construction stack, the thread-local new-blocks list, the
	// active list, or a sweep's garbage list (invariant B3 — a block is
	// on exactly one of these at any instant).
	next *blockHeader

	payload unsafe.Pointer
	nelems  int
	objsize uintptr

	active bool // false while under construction; collector ignores it
	marked bool // scratch flag owned by the collector, false outside a collection

	// keepAlive holds the real, Go-GC-visible backing array (a []T) for
	// as long as the block might be reachable. Clearing it is this
	// package's equivalent of freeing the buffer: once nothing points at
	// it, ordinary Go garbage collection reclaims the memory on its own
	// schedule. See the design notes for why this package does not hand-
	// roll its own heap the way the teacher's cgo-backed mempool does.
	keepAlive any
}

// contains implements invariant B2: true iff addr falls inside this
// block's payload.
func (b *blockHeader) contains(addr unsafe.Pointer) bool {
	if b == nil || b.payload == nil {
		return false
	}
	start := uintptr(b.payload)
	return uintptr(addr) >= start && uintptr(addr) < start+b.objsize
}

// pushBlock and popBlock are the push/pop helpers every block list in
// this package is built from.
func pushBlock(b *blockHeader, list **blockHeader) {
	b.next = *list
	*list = b
}

func popBlock(list **blockHeader) *blockHeader {
	b := *list
	*list = b.next
	b.next = nil
	return b
}
