package gcptr

import "unsafe"
import "testing"

import "github.com/stretchr/testify/assert"

func TestBlockContains(t *testing.T) {
	buf := make([]byte, 16)
	b := &blockHeader{
		payload: unsafe.Pointer(&buf[0]),
		objsize: uintptr(len(buf)),
	}

	assert.True(t, b.contains(unsafe.Pointer(&buf[0])))
	assert.True(t, b.contains(unsafe.Pointer(&buf[15])))
	assert.False(t, b.contains(unsafe.Add(unsafe.Pointer(&buf[0]), 16)))

	var outside byte
	assert.False(t, b.contains(unsafe.Pointer(&outside)))
}

func TestBlockContainsNilIsFalse(t *testing.T) {
	var b *blockHeader
	assert.False(t, b.contains(nil))

	b = &blockHeader{}
	assert.False(t, b.contains(unsafe.Pointer(b)))
}

func TestPushPopBlock(t *testing.T) {
	var list *blockHeader
	a := &blockHeader{}
	b := &blockHeader{}

	pushBlock(a, &list)
	pushBlock(b, &list)

	assert.Same(t, b, list)

	got := popBlock(&list)
	assert.Same(t, b, got)
	assert.Nil(t, got.next)
	assert.Same(t, a, list)

	got = popBlock(&list)
	assert.Same(t, a, got)
	assert.Nil(t, list)
}
