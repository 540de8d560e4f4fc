package partition

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vorteil/moses/pkg/fsutil"
)

func TestWriteGPTHeaderAndEntriesChecksums(t *testing.T) {
	const deviceSectors = 2 * 1024 * 1024 / SectorSize // 2 MiB device
	l := NewLayout(deviceSectors, TypeGUIDMicrosoftBasicData, "MOSES")

	img := &sliceWriteSeeker{data: make([]byte, deviceSectors*SectorSize)}
	require.NoError(t, WriteGPT(context.Background(), img, l, 0xDEADBEEF))

	var hdr GPTHeader
	require.NoError(t, binary.Read(bytes.NewReader(img.data[PrimaryGPTHeaderLBA*SectorSize:]), binary.LittleEndian, &hdr))

	headerBytes := make([]byte, GPTHeaderSize)
	copy(headerBytes, img.data[PrimaryGPTHeaderLBA*SectorSize:PrimaryGPTHeaderLBA*SectorSize+GPTHeaderSize])
	// zero the CRC field (offset 16, 4 bytes) before recomputation
	binary.LittleEndian.PutUint32(headerBytes[16:20], 0)
	assert.Equal(t, fsutil.CRC32(headerBytes), hdr.CRC)

	entries := img.data[PrimaryGPTEntriesLBA*SectorSize : PrimaryGPTEntriesLBA*SectorSize+MaximumGPTEntries*GPTEntrySize]
	assert.Equal(t, fsutil.CRC32(entries), hdr.CRCParts)

	assert.Equal(t, uint64(GPTSignature), hdr.Signature)
}

func TestWriteGPTBackupMirrorsPrimary(t *testing.T) {
	const deviceSectors = 2 * 1024 * 1024 / SectorSize
	l := NewLayout(deviceSectors, TypeGUIDLinuxFilesystem, "MOSES")

	img := &sliceWriteSeeker{data: make([]byte, deviceSectors*SectorSize)}
	require.NoError(t, WriteGPT(context.Background(), img, l, 1))

	primaryEntries := img.data[PrimaryGPTEntriesLBA*SectorSize : PrimaryGPTEntriesLBA*SectorSize+MaximumGPTEntries*GPTEntrySize]
	secondaryEntries := img.data[l.SecondaryEntriesLBA*SectorSize : l.SecondaryEntriesLBA*SectorSize+MaximumGPTEntries*GPTEntrySize]
	assert.Equal(t, primaryEntries, secondaryEntries)
}

func TestPartitionEntriesOverlap(t *testing.T) {
	assert.False(t, PartitionEntriesOverlap(0, 10, 10, 20))
	assert.True(t, PartitionEntriesOverlap(0, 11, 10, 20))
}

// sliceWriteSeeker is a minimal io.WriteSeeker over an in-memory slice,
// used so partition-building tests can assert on exact byte offsets
// without touching the real device layer.
type sliceWriteSeeker struct {
	data []byte
	pos  int64
}

func (s *sliceWriteSeeker) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	n := copy(s.data[s.pos:end], p)
	s.pos = end
	return n, nil
}

func (s *sliceWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		s.pos = offset
	case 1:
		s.pos += offset
	case 2:
		s.pos = int64(len(s.data)) + offset
	}
	return s.pos, nil
}
