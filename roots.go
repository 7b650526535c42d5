package gcptr

import (
	"sync"
	"unsafe"
)

// rootsMu serializes the global roots list: insertion and removal at
// handle construction/destruction, and the mark phase's read of it.
var (
	rootsMu sync.Mutex
	roots   *handleHeader
)

// link performs the classification every handle goes through exactly
// once, at construction: if the calling goroutine has a block under
// construction and that block's payload physically contains hh's own
// address, hh is a member of that block; otherwise it is a root. This is
// the "self-classifying by address containment" hinge the whole package
// depends on — it requires that member handles really are fields inside
// the payload they end up tracking.
func link(hh *handleHeader) {
	hh.linked = true

	if top := tlsTop(); top.contains(unsafe.Pointer(hh)) {
		hh.prev = hh // member sentinel, see unlink
		hh.next = top.members
		top.members = hh
		return
	}

	rootsMu.Lock()
	hh.prev = nil
	hh.next = roots
	if roots != nil {
		roots.prev = hh
	}
	roots = hh
	rootsMu.Unlock()
}

// unlink removes hh from the roots list if it was classified as a root.
// Member handles are left alone: they die en masse when their block is
// freed, and unlinking them individually would need per-block locking
// for no correctness benefit.
func unlink(hh *handleHeader) {
	if hh.prev == hh {
		return
	}

	rootsMu.Lock()
	if hh.next != nil {
		hh.next.prev = hh.prev
	}
	if hh.prev != nil {
		hh.prev.next = hh.next
	} else if roots == hh {
		roots = hh.next
	}
	hh.prev, hh.next = nil, nil
	rootsMu.Unlock()
}
