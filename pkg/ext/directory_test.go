package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRootDirBlockContainsDotDotLostFound(t *testing.T) {
	buf := BuildRootDirBlock(4096)
	require.Len(t, buf, 4096)

	assert.EqualValues(t, RootInode, uint32(buf[0])|uint32(buf[1])<<8|uint32(buf[2])<<16|uint32(buf[3])<<24)
	assert.Equal(t, ".", string(buf[8:9]))

	dotDotOffset := int(direntLen("."))
	assert.Equal(t, "..", string(buf[dotDotOffset+8:dotDotOffset+10]))

	lfOffset := dotDotOffset + int(direntLen(".."))
	assert.Equal(t, "lost+found", string(buf[lfOffset+8:lfOffset+18]))
}

func TestBuildLostFoundBlocksPaddedTo16KiB(t *testing.T) {
	buf := BuildLostFoundBlocks(4096, 4)
	assert.Len(t, buf, 4*4096)
	assert.Equal(t, ".", string(buf[8:9]))
}

func TestDirentLenAlignsToFour(t *testing.T) {
	assert.EqualValues(t, 12, direntLen("."))
	assert.EqualValues(t, 12, direntLen(".."))
	assert.EqualValues(t, 20, direntLen("lost+found"))
}
