package fat

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vorteil/moses/pkg/moerr"
)

func TestClusterSizeFAT16Bands(t *testing.T) {
	assert.Equal(t, uint32(512), clusterSizeFAT16(20<<20))
	assert.Equal(t, uint32(1024), clusterSizeFAT16(50<<20))
	assert.Equal(t, uint32(2048), clusterSizeFAT16(128<<20))
	assert.Equal(t, uint32(4096), clusterSizeFAT16(200<<20))
	assert.Equal(t, uint32(8192), clusterSizeFAT16(400<<20))
	assert.Equal(t, uint32(16384), clusterSizeFAT16(800<<20))
	assert.Equal(t, uint32(32768), clusterSizeFAT16(1500<<20))
	assert.Equal(t, uint32(65536), clusterSizeFAT16(4<<30-1))
}

func TestClusterSizeFAT32Bands(t *testing.T) {
	assert.Equal(t, uint32(512), clusterSizeFAT32(100<<20))
	assert.Equal(t, uint32(4096), clusterSizeFAT32(1<<30))
	assert.Equal(t, uint32(8192), clusterSizeFAT32(10<<30))
	assert.Equal(t, uint32(16384), clusterSizeFAT32(20<<30))
	assert.Equal(t, uint32(32768), clusterSizeFAT32(40<<30))
}

func TestComputeGeometryFAT16GoldenScenario(t *testing.T) {
	g, err := computeGeometry(134217728, FAT16, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 512, g.BytesPerSector)
	assert.EqualValues(t, 4, g.SectorsPerCluster)
	assert.EqualValues(t, 1, g.ReservedSectors)
	assert.EqualValues(t, 2, g.NumFATs)
	assert.EqualValues(t, 512, g.RootEntryCount)
	assert.True(t, g.TotalClusters >= 4085 && g.TotalClusters <= 65524)
}

func TestComputeGeometryRejectsDeviceTooLarge(t *testing.T) {
	_, err := computeGeometry(5<<30, FAT16, 0, 0)
	var cr *moerr.CapabilityRejectedError
	require.ErrorAs(t, err, &cr)
	assert.Equal(t, moerr.AboveMaxSize, cr.Kind)
}

func TestComputeGeometryRejectsDeviceTooSmall(t *testing.T) {
	_, err := computeGeometry(1<<20, FAT16, 0, 0)
	var lf *moerr.LayoutInfeasibleError
	require.ErrorAs(t, err, &lf)
}

func TestComputeGeometryFAT32GoldenScenario(t *testing.T) {
	g, err := computeGeometry(32<<30, FAT32, 0, 2048)
	require.NoError(t, err)
	assert.EqualValues(t, 32, g.ReservedSectors)
	assert.True(t, g.TotalClusters >= 65525)
	assert.EqualValues(t, 2048, g.PartitionFirstLBA)
}

func TestClusterToSector(t *testing.T) {
	g := Geometry{FirstDataSector: 100, SectorsPerCluster: 4}
	assert.EqualValues(t, 100, g.ClusterToSector(2))
	assert.EqualValues(t, 104, g.ClusterToSector(3))
}
