// Package arena provides the size-class bucketing used to report block
// sizes in aggregate. It is adapted from the teacher's malloc.Arena pool
// sizing, minus the pools themselves: this collector gets its payload
// memory from the Go allocator (see the keepAlive notes in DESIGN.md at
// the repository root for why), but grouping block sizes into the same buckets a manual
// arena would have used still makes for a useful utilization report.
package arena

import "fmt"

// Sizeinterval mirrors malloc.Sizeinterval: minblock and maxblock must be
// multiples of it.
const Sizeinterval = int64(32)

// Utilization is the target fill ratio a size class tries to guarantee
// against the next one up, same constant the teacher's arena used to pick
// pool boundaries.
const Utilization = 0.95

// Maxclasses is the capacity SizeClasses preallocates for its result; it
// does not limit how many classes are returned.
const Maxclasses = int64(256)

// SizeClasses builds a sorted list of block sizes between minblock and
// maxblock. Each step is a multiple of Sizeinterval, at least Sizeinterval,
// and widened until a size halfway between two neighbouring classes fills
// no more than Utilization of the larger one. Ported from
// malloc.Blocksizes / storage.Blocksizes.
func SizeClasses(minblock, maxblock int64) []int64 {
	if maxblock < minblock {
		panic("arena: minblock > maxblock")
	} else if minblock%Sizeinterval != 0 {
		panic(fmt.Errorf("arena: minblock %v is not a multiple of %v", minblock, Sizeinterval))
	} else if maxblock%Sizeinterval != 0 {
		panic(fmt.Errorf("arena: maxblock %v is not a multiple of %v", maxblock, Sizeinterval))
	}

	nextsize := func(from int64) int64 {
		addby := int64(float64(from) * (1.0 - Utilization))
		if addby <= 32 {
			addby = 32
		} else if addby&0x1f != 0 {
			addby = (addby >> 5) << 5
		}
		size := from + addby
		for (float64(from+size)/2.0)/float64(size) > Utilization {
			size += addby
		}
		return size
	}

	sizes := make([]int64, 0, Maxclasses)
	for size := minblock; size < maxblock; {
		sizes = append(sizes, size)
		size = nextsize(size)
	}
	return append(sizes, maxblock)
}

// Suitable returns the smallest size class in classes that can hold size,
// via the same binary search malloc.SuitableSize used to route an
// allocation request to its pool. A size larger than every class maps to
// the last class.
func Suitable(classes []int64, size int64) int64 {
	switch len(classes) {
	case 1:
		return classes[0]
	case 2:
		if size <= classes[0] {
			return classes[0]
		}
		return classes[1]
	default:
		pivot := len(classes) / 2
		if classes[pivot] < size {
			return Suitable(classes[pivot+1:], size)
		}
		return Suitable(classes[:pivot+1], size)
	}
}
