package gcptr

import (
	"fmt"

	"github.com/cloudfoundry/gosigar"
	"github.com/dustin/go-humanize"
	"github.com/vic4key/mark-sweep-smart-pointers/internal/arena"
)

// Stats is a point-in-time snapshot of the collector's bookkeeping,
// grounded on the teacher's Mallocer.Info/Utilization reporting pattern
// but reshaped around blocks instead of slab pools.
type Stats struct {
	ActiveBlocks  int
	ActiveBytes   int64
	SinceLastGC   int64
	Threshold     int64
	SizeHistogram map[int64]int // size class -> live block count
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"gcptr: %d active block(s), %s live, %s since last collection (threshold %s)",
		s.ActiveBlocks,
		humanize.Bytes(uint64(s.ActiveBytes)),
		humanize.Bytes(uint64(s.SinceLastGC)),
		humanize.Bytes(uint64(s.Threshold)),
	)
}

// CurrentStats walks the active list and reports the collector's current
// footprint, bucketed into the size classes of arena.SizeClasses(32, 1<<20):
// 32 bytes apart at the small end, roughly 11% apart further up.
func CurrentStats() Stats {
	classes := arena.SizeClasses(32, 1<<20)

	s := Stats{SizeHistogram: make(map[int64]int)}

	activeMu.Lock()
	for b := activeBlocks; b != nil; b = b.next {
		s.ActiveBlocks++
		s.ActiveBytes += int64(b.objsize)
		class := arena.Suitable(classes, int64(b.objsize))
		s.SizeHistogram[class]++
	}
	activeMu.Unlock()

	collMu.Lock()
	s.SinceLastGC = allocatedBytes
	s.Threshold = threshold
	collMu.Unlock()

	return s
}

// SystemMemory reports the host's total, used, and free physical memory,
// for applications that want to weigh the collector's threshold against
// actual memory pressure rather than a fixed byte count alone.
func SystemMemory() (total, used, free uint64, err error) {
	mem := sigar.Mem{}
	if err = mem.Get(); err != nil {
		return 0, 0, 0, err
	}
	return mem.Total, mem.Used, mem.Free, nil
}
