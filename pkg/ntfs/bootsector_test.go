package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBootSectorMatchesGoldenScenario(t *testing.T) {
	l, err := ComputeLayout(100 << 20)
	require.NoError(t, err)

	bs := BuildBootSector(l.TotalSectors, l.BytesPerSector, l.SectorsPerCluster,
		l.MFTLCN, l.MFTMirr.LCN, l.MFTRecordBytes, l.IndexRecordBytes, 0x1122334455667788)

	assert.Equal(t, [8]byte{'N', 'T', 'F', 'S', ' ', ' ', ' ', ' '}, bs.OEMID)
	assert.EqualValues(t, -10, bs.ClustersPerRecord)
	assert.EqualValues(t, 0x55AA, bs.EndSignature)

	raw, err := bs.Encode()
	require.NoError(t, err)
	require.Len(t, raw, SectorSize)
	assert.EqualValues(t, 0x55AA, uint16(raw[0x1FE])|uint16(raw[0x1FF])<<8)
	assert.Equal(t, "NTFS    ", string(raw[0x03:0x0B]))
}

func TestClustersPerRecordFieldPositiveAndNegative(t *testing.T) {
	assert.EqualValues(t, 1, clustersPerRecordField(4096, 4096))
	assert.EqualValues(t, -10, clustersPerRecordField(1024, 4096))
	assert.EqualValues(t, 2, clustersPerRecordField(8192, 4096))
}
