package fat

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBootSector16IsExactly512BytesAndSigned(t *testing.T) {
	g, err := computeGeometry(134217728, FAT16, 0, 0)
	require.NoError(t, err)

	data, err := buildBootSector16(g, "MSWIN4.1", "MOSES_TEST", 0x12345678)
	require.NoError(t, err)
	require.Len(t, data, 512)
	assert.Equal(t, byte(0x55), data[510])
	assert.Equal(t, byte(0xAA), data[511])
	assert.Equal(t, "MOSES_TEST ", string(data[43:54]))
	assert.Equal(t, "FAT16   ", string(data[54:62]))
	assert.EqualValues(t, 0xF8, data[21])
}

func TestBuildBootSector32FieldsMatchGoldenScenario(t *testing.T) {
	g, err := computeGeometry(32<<30, FAT32, 0, 2048)
	require.NoError(t, err)

	data, err := buildBootSector32(g, "MSWIN4.1", "BIG", 0x1)
	require.NoError(t, err)
	require.Len(t, data, 512)
	assert.Equal(t, byte(0x55), data[510])
	assert.Equal(t, byte(0xAA), data[511])
	assert.EqualValues(t, 2, binary.LittleEndian.Uint32(data[44:48]))  // BPB_RootClus
	assert.EqualValues(t, 1, binary.LittleEndian.Uint16(data[48:50])) // BPB_FSInfo
	assert.EqualValues(t, 6, binary.LittleEndian.Uint16(data[50:52])) // BPB_BkBootSec
}

func TestBuildFSInfoSignaturesAndHint(t *testing.T) {
	data, err := buildFSInfo(1000, 3)
	require.NoError(t, err)
	require.Len(t, data, 512)
	assert.Equal(t, uint32(fsiLeadSigValue), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint32(fsiStrucSigValue), binary.LittleEndian.Uint32(data[484:488]))
	assert.Equal(t, uint32(1000), binary.LittleEndian.Uint32(data[488:492]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[492:496]))
	assert.Equal(t, uint32(fsiTrailSigValue), binary.LittleEndian.Uint32(data[508:512]))
}
