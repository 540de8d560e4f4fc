package partition

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMBRSignatureAndType(t *testing.T) {
	img := &sliceWriteSeeker{data: make([]byte, SectorSize)}
	require.NoError(t, WriteMBR(context.Background(), img, 262144, 2048, MBRTypeFAT32LBA, 0xCAFEBABE, false))

	assert.Equal(t, byte(0x55), img.data[510])
	assert.Equal(t, byte(0xAA), img.data[511])
	assert.Equal(t, byte(MBRTypeFAT32LBA), img.data[0x1BE+4])
}

func TestCHSClampsForLargeLBA(t *testing.T) {
	c := chs(1024 * 255 * 63)
	assert.Equal(t, [3]byte{0xFE, 0xFF, 0xFF}, c)
}

func TestCHSSmallLBADoesNotClamp(t *testing.T) {
	c := chs(100)
	assert.NotEqual(t, [3]byte{0xFE, 0xFF, 0xFF}, c)
}
