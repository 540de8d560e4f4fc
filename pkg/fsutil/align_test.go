package fsutil

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignUp(t *testing.T) {
	assert.Equal(t, 4096, AlignUp(1, 4096))
	assert.Equal(t, 4096, AlignUp(4096, 4096))
	assert.Equal(t, 8192, AlignUp(4097, 4096))
}

func TestLog2(t *testing.T) {
	assert.Equal(t, 0, Log2(1))
	assert.Equal(t, 2, Log2(4))
	assert.Equal(t, 12, Log2(4096))
}

func TestIsPowerOfTwo(t *testing.T) {
	assert.True(t, IsPowerOfTwo(512))
	assert.True(t, IsPowerOfTwo(65536))
	assert.False(t, IsPowerOfTwo(0))
	assert.False(t, IsPowerOfTwo(1000))
}
