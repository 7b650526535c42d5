package gcptr

import "sync/atomic"
import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

// cycleA/cycleB/cycleC reproduce the original test.cc's A->B->C->A chain:
// each A owns a B, each B owns a C, and each C's own handle closes the
// cycle back to the specific A it came from.
type cycleA struct {
	toB Handle[cycleB]
}

func (a *cycleA) Bind()    { a.toB.Init() }
func (a *cycleA) Destroy() { atomic.AddInt32(&cycleDestroyedA, 1) }

type cycleB struct {
	toC Handle[cycleC]
}

func (b *cycleB) Bind()    { b.toC.Init() }
func (b *cycleB) Destroy() { atomic.AddInt32(&cycleDestroyedB, 1) }

type cycleC struct {
	toA Handle[cycleA]
}

func (c *cycleC) Bind()    { c.toA.Init() }
func (c *cycleC) Destroy() { atomic.AddInt32(&cycleDestroyedC, 1) }

var (
	cycleDestroyedA int32
	cycleDestroyedB int32
	cycleDestroyedC int32
)

func resetCycleCounters() {
	atomic.StoreInt32(&cycleDestroyedA, 0)
	atomic.StoreInt32(&cycleDestroyedB, 0)
	atomic.StoreInt32(&cycleDestroyedC, 0)
}

func buildCycleArray(t *testing.T, n int) *Handle[cycleA] {
	t.Helper()
	var root Handle[cycleA]
	err := root.AllocArray(n, func(a *cycleA, _ int) error {
		return a.toB.AllocArray(1, func(b *cycleB, _ int) error {
			return b.toC.AllocArray(1, func(c *cycleC, _ int) error {
				Attach(&c.toA, &root)
				c.toA.AssignPtr(a)
				return nil
			})
		})
	})
	assert.NoError(t, err) // assert, not require: this helper also runs on worker goroutines in concurrent_test.go
	return &root
}

func TestThreeNodeCycleReclaimedOnlyAfterRootDetached(t *testing.T) {
	resetCycleCounters()

	root := buildCycleArray(t, 3)

	stats := CurrentStats()
	assert.True(t, stats.ActiveBlocks >= 7) // the array block + 3 B blocks + 3 C blocks, plus whatever else is live

	root.Detach()
	freed := Collect()

	assert.True(t, freed > 0)
	assert.Equal(t, int32(3), atomic.LoadInt32(&cycleDestroyedA))
	assert.Equal(t, int32(3), atomic.LoadInt32(&cycleDestroyedB))
	assert.Equal(t, int32(3), atomic.LoadInt32(&cycleDestroyedC))
}

func TestMemberPointerAliasKeepsArrayReachable(t *testing.T) {
	resetCycleCounters()

	root := buildCycleArray(t, 3)

	ppa := make([]*Handle[cycleA], 3)
	for i := 0; i < 3; i++ {
		a, err := root.At(i)
		require.NoError(t, err)
		cHandle := &a.toB.Ptr().toC
		ppa[i] = NewAlias(cHandle, cHandle.Ptr().toA.Ptr())
	}

	root.Detach()

	freed := Collect()
	assert.Equal(t, int64(0), freed, "array still reachable through ppa[i] -> C -> A")

	ppa[0].Detach()
	freed = Collect()
	assert.Equal(t, int64(0), freed)

	ppa[1].Detach()
	freed = Collect()
	assert.Equal(t, int64(0), freed)

	ppa[2].Detach()
	freed = Collect()
	assert.True(t, freed > 0, "last detach should finally make the cycle unreachable")
	assert.Equal(t, int32(3), atomic.LoadInt32(&cycleDestroyedA))
}
