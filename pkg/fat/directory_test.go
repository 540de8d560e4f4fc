package fat

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRootDirectory16StampsVolumeLabel(t *testing.T) {
	g := Geometry{RootDirSectors: 1, BytesPerSector: 512}
	buf := buildRootDirectory16(g, "DATA")
	assert.Len(t, buf, 512)
	assert.Equal(t, "DATA       ", string(buf[0:11]))
	assert.Equal(t, byte(AttrVolumeID), buf[11])
}

func TestBuildRootDirectory16NoLabelLeavesRegionZeroed(t *testing.T) {
	g := Geometry{RootDirSectors: 1, BytesPerSector: 512}
	buf := buildRootDirectory16(g, "")
	for _, b := range buf {
		assert.Zero(t, b)
	}
}

func TestBuildRootDirectoryCluster32SizedToCluster(t *testing.T) {
	g := Geometry{SectorsPerCluster: 8, BytesPerSector: 512}
	buf := buildRootDirectoryCluster32(g, "BIG")
	assert.Len(t, buf, 8*512)
	assert.Equal(t, "BIG        ", string(buf[0:11]))
}
