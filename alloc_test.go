package gcptr

import "errors"
import "sync/atomic"
import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

type throwyElem struct {
	id int
}

var throwyDestroyed int32

func (e *throwyElem) Destroy() { atomic.AddInt32(&throwyDestroyed, 1) }

func TestConstructorThrowMidArrayDestroysPrefixOnly(t *testing.T) {
	atomic.StoreInt32(&throwyDestroyed, 0)

	const n, failAt = 6, 3
	boom := errors.New("boom")

	var h Handle[throwyElem]
	err := h.AllocArray(n, func(e *throwyElem, i int) error {
		e.id = i
		if i == failAt {
			return boom
		}
		return nil
	})

	require.Error(t, err)
	var aerr *AllocationError
	assert.ErrorAs(t, err, &aerr)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, int32(failAt), atomic.LoadInt32(&throwyDestroyed))
	assert.False(t, h.IsAttached())
	assert.Nil(t, h.h.pval)
}

func TestFailedAllocationHandleBecomesRoot(t *testing.T) {
	var h Handle[throwyElem]
	err := h.AllocArray(1, func(e *throwyElem, _ int) error {
		return errors.New("fail immediately")
	})
	require.Error(t, err)
	assert.False(t, h.h.isMember())
}
