package gcptr

import "sync"
import "sync/atomic"
import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

func TestConcurrentMutatorsCycleCollection(t *testing.T) {
	resetCycleCounters()

	const goroutines = 8
	var wg sync.WaitGroup
	var pointerErrors int32

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			root := buildCycleArray(t, 3)

			for i := 0; i < 3; i++ {
				a, err := root.At(i)
				if err != nil {
					atomic.AddInt32(&pointerErrors, 1)
					continue
				}
				_, err = a.toB.Deref()
				if err != nil {
					atomic.AddInt32(&pointerErrors, 1)
				}
			}

			root.Detach()
		}()
	}
	wg.Wait()

	Collect()

	assert.Equal(t, int32(0), atomic.LoadInt32(&pointerErrors))
	assert.Equal(t, int32(goroutines*3), atomic.LoadInt32(&cycleDestroyedA))
	assert.Equal(t, int32(goroutines*3), atomic.LoadInt32(&cycleDestroyedB))
	assert.Equal(t, int32(goroutines*3), atomic.LoadInt32(&cycleDestroyedC))
}

type panickyElem struct{}

func (panickyElem) Destroy() { panic("boom from destructor") }

func TestPanickingDestructorIsRecoveredDuringSweep(t *testing.T) {
	var h Handle[panickyElem]
	require.NoError(t, h.AllocArrayZero(2, Zero))
	h.Detach()

	assert.NotPanics(t, func() { Collect() })
}
