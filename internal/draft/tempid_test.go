package draft

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateIsUniqueAndTemp(t *testing.T) {
	a := NewAllocator()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := a.Allocate("item")
		assert.True(t, IsTemp(id))
		assert.True(t, strings.HasPrefix(id, "tmp-item-"))
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestIsTemp(t *testing.T) {
	assert.False(t, IsTemp("42"))
	assert.False(t, IsTemp(""))
	assert.False(t, IsTemp(newLocalKey("block")))
	assert.True(t, IsTemp("tmp-topic-x"))
}

func TestAllocatorWithFixedSource(t *testing.T) {
	n := 0
	a := &Allocator{newID: func() string { n++; return strings.Repeat("a", n) }}
	assert.Equal(t, "tmp-topic-a", a.Allocate("topic"))
	assert.Equal(t, "tmp-quiz-aa", a.Allocate("quiz"))
}
