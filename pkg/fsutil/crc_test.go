package fsutil

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32CFinalKnownVector(t *testing.T) {
	// CRC32C("123456789") is a commonly cited test vector for the
	// Castagnoli polynomial with init 0xFFFFFFFF and final XOR.
	got := CRC32CFinal([]byte("123456789"))
	assert.Equal(t, uint32(0xE3069283), got)
}

func TestCRC32IEEEKnownVector(t *testing.T) {
	got := CRC32([]byte("123456789"))
	assert.Equal(t, uint32(0xCBF43926), got)
}

func TestCRC16Deterministic(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	a := CRC16(0xABCD, data)
	b := CRC16(0xABCD, data)
	assert.Equal(t, a, b)
}

func TestRotateRightByteChecksum16Deterministic(t *testing.T) {
	data := []byte("exfat checksum region")
	a := RotateRightByteChecksum16(0, data)
	b := RotateRightByteChecksum16(0, data)
	assert.Equal(t, a, b)
	assert.NotEqual(t, uint16(0), a)
}

func TestRotateRightByteChecksum32Deterministic(t *testing.T) {
	data := []byte("boot region checksum sector")
	a := RotateRightByteChecksum32(0, data)
	b := RotateRightByteChecksum32(0, data)
	assert.Equal(t, a, b)
}
