// Package gcptr implements tracing, mark-and-sweep garbage collected
// smart pointers for code that otherwise has to manage its own heap.
//
// Handle[T] is the smart pointer: a small value applications embed in
// variables and struct fields instead of a *T. Allocating through a
// Handle creates a block (a header plus a payload array of T) and makes
// the handle its owner. Every live Handle is tracked by the package,
// either on the global roots list or on the member list of the block it
// is physically embedded in; Collect (or an allocation crossing the
// byte-threshold heuristic) marks every block reachable from a root and
// frees the rest, including arbitrary reference cycles that a
// reference-counted pointer could never reclaim.
//
// block.go lays out the per-allocation header, handle.go is the smart
// pointer type and its pointer-arithmetic surface, alloc.go is the
// construction-stack protocol that tells a member handle from a root one,
// and gc.go is the collector itself. roots.go and tls.go hold the two
// lists the rest of the package walks.
//
// This package intentionally does not implement generational,
// incremental, or concurrent collection, finalizer ordering, weak
// references, conservative stack scanning, or compaction: see the
// project's design notes for the reasoning.
package gcptr
