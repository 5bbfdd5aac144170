package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPairOrdersLowerFirst(t *testing.T) {
	a, b := CanonicalPair(12, 7)
	assert.Equal(t, 7, a)
	assert.Equal(t, 12, b)

	a, b = CanonicalPair(7, 12)
	assert.Equal(t, 7, a)
	assert.Equal(t, 12, b)
}

func TestCanonicalPairIsSymmetric(t *testing.T) {
	pairs := [][2]int{{1, 2}, {99, 3}, {40, 41}}
	for _, p := range pairs {
		a1, b1 := CanonicalPair(p[0], p[1])
		a2, b2 := CanonicalPair(p[1], p[0])
		assert.Equal(t, a1, a2)
		assert.Equal(t, b1, b2)
	}
}
