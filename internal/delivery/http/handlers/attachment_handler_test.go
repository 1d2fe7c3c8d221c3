package handlers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamSize(t *testing.T) {
	assert.Equal(t, 1, streamSize(1))
	assert.Equal(t, 4096, streamSize(4096))
	assert.Equal(t, -1, streamSize(0))

	// sizes that overflow int switch to chunked transfer
	if math.MaxInt == math.MaxInt32 {
		assert.Equal(t, -1, streamSize(int64(math.MaxInt32)+1))
	}
}
