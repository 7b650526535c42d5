package gcptr

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// goroutineID extracts the numeric id Go prints at the head of a
// goroutine's own stack trace. The runtime gives no supported way to ask
// "which goroutine am I", so parsing the trace is the standard fallback
// goroutine-local-storage shims use; there is no third-party package for
// it anywhere in the retrieved corpus, so this leans on runtime + strconv
// directly rather than the ecosystem.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}

// threadState is the per-goroutine bookkeeping the allocator needs: the
// construction stack (blocks whose element constructors are running right
// now) and the new-blocks list (blocks whose construction finished but
// that are still waiting for the outermost allocation on this goroutine
// to complete before they are promoted to the active list). Both map
// directly to the thread-local constr_stack and new_blocks in the
// original implementation.
type threadState struct {
	constrStack *blockHeader
	newBlocks   *blockHeader
}

var (
	tlsMu sync.Mutex
	tls   = map[int64]*threadState{}
)

// myState returns (creating if necessary) the calling goroutine's
// bookkeeping. Construction stacks are only ever touched by their owning
// goroutine, so once fetched no further locking is needed against it;
// the lock here only protects the lookup map itself.
//
// TODO: entries are never evicted when a goroutine exits; Go gives no
// goroutine-exit hook to reclaim them.
func myState() *threadState {
	id := goroutineID()
	tlsMu.Lock()
	st, ok := tls[id]
	if !ok {
		st = &threadState{}
		tls[id] = st
	}
	tlsMu.Unlock()
	return st
}

// tlsTop returns the block on top of the calling goroutine's construction
// stack, or nil if no allocation is in flight here.
func tlsTop() *blockHeader {
	return myState().constrStack
}
