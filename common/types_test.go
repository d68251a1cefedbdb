package common

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStagingOffset(t *testing.T) {
	s := VoxelTextureStagingData{Width: 3, Height: 2, Depth: 2, BytesPerRow: 256}

	assert.Equal(t, 0, s.Offset(0, 0, 0))
	assert.Equal(t, 2, s.Offset(2, 0, 0))
	assert.Equal(t, 256+1, s.Offset(1, 1, 0))
	assert.Equal(t, 2*256+256+2, s.Offset(2, 1, 1))
}

func TestStagingOffsetPastUint32(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("needs 64-bit int")
	}
	s := VoxelTextureStagingData{Width: 4096, Height: 4096, Depth: 1024, BytesPerRow: 4096}

	assert.Equal(t, 512*4096*4096+7*4096+3, s.Offset(3, 7, 512))
}
