package visited

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New()

	assert.False(t, s.Visited(7))
	assert.True(t, s.Visit(7))
	assert.True(t, s.Visited(7))

	// Revisit signals a cycle.
	assert.False(t, s.Visit(7))

	// Sparse 64-bit inode numbers.
	assert.True(t, s.Visit(math.MaxUint64))
	assert.True(t, s.Visited(math.MaxUint64))
	assert.Equal(t, uint64(2), s.Len())
}

func TestSet_CloneIndependence(t *testing.T) {
	s := New()
	s.Visit(1)

	c := s.Clone()
	c.Visit(2)

	assert.True(t, c.Visited(1))
	assert.True(t, c.Visited(2))
	assert.False(t, s.Visited(2))
}
