package gcptr

import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

func TestCollectIdempotentWithNoMutatorActivity(t *testing.T) {
	var h Handle[int]
	require.NoError(t, h.AllocArrayZero(4, Zero))
	h.Detach()

	first := Collect()
	assert.True(t, first > 0)

	second := Collect()
	assert.Equal(t, int64(0), second, "nothing new to sweep, second pass must free zero bytes")
}

func TestThresholdTriggersOpportunisticCollection(t *testing.T) {
	old := CollectThreshold(256)
	defer CollectThreshold(old)

	var garbage Handle[[256]byte]
	require.NoError(t, garbage.AllocArrayZero(1, Zero))
	garbage.Detach()

	var h Handle[int]
	require.NoError(t, h.AllocArrayZero(1, Zero))
	defer h.Detach()

	stats := CurrentStats()
	assert.True(t, stats.SinceLastGC < 256, "allocating past the threshold should have swept the prior garbage")
}

func TestCollectThresholdReadOnly(t *testing.T) {
	old := CollectThreshold(-1)
	same := CollectThreshold(-1)
	assert.Equal(t, old, same)
}

func TestMarkSkipsAlreadyMarkedBlock(t *testing.T) {
	var mb blockHeader
	mb.active = true
	mark(&mb)
	assert.True(t, mb.marked)

	mark(&mb) // second call must not infinite-loop or double count
	assert.True(t, mb.marked)
}

func TestMarkIgnoresInactiveBlock(t *testing.T) {
	var mb blockHeader
	mark(&mb)
	assert.False(t, mb.marked, "a block still under construction is never marked")
}
