package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverseG(t *testing.T) {
	arr := []int32{1, 2, 3, 4}
	rev := ReverseG(arr)

	assert.Equal(t, []int32{4, 3, 2, 1}, rev)
	// input untouched
	assert.Equal(t, []int32{1, 2, 3, 4}, arr)
	assert.Empty(t, ReverseG([]int32{}))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 1.1, RoundFloat(1.0999999, 3))
	assert.Equal(t, 2.0, RoundFloat(1.96, 0))
}

func TestNearlyEqual(t *testing.T) {
	assert.True(t, NearlyEqual(0.1+0.2, 0.3, 1e-9))
	assert.False(t, NearlyEqual(1, 1.1, 1e-9))
	assert.True(t, NearlyEqual(math.Inf(1), math.Inf(1), 1e-9))
	assert.False(t, NearlyEqual(math.Inf(1), 1e300, 1e-9))
}
