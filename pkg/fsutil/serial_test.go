package fsutil

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolumeSerial32Nonzero(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.NotEqual(t, uint32(0), VolumeSerial32())
	}
}

func TestVolumeSerial64Nonzero(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.NotEqual(t, uint64(0), VolumeSerial64())
	}
}

func TestNewUUIDUnique(t *testing.T) {
	a := NewUUID()
	b := NewUUID()
	assert.NotEqual(t, a, b)
}
