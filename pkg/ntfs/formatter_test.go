package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vorteil/moses/pkg/registry"
)

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
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(len(s.data)) + offset
	}
	return s.pos, nil
}

func TestNTFSFormatMatchesGoldenScenario(t *testing.T) {
	f := NewNTFS()
	dev := registry.Device{ID: "dev0", SizeBytes: 100 << 20}
	opts := registry.FormatOptions{Label: "NTFS"}
	w := &sliceWriteSeeker{}

	require.NoError(t, f.Format(context.Background(), dev, opts, w, nil))

	assert.Equal(t, "NTFS    ", string(w.data[0x03:0x0B]))
	assert.EqualValues(t, -10, int8(w.data[0x40]))
	assert.EqualValues(t, 0x55AA, uint16(w.data[0x1FE])|uint16(w.data[0x1FF])<<8)

	l, err := ComputeLayout(dev.SizeBytes)
	require.NoError(t, err)

	mftOffset := int64(l.MFTExtent.LCN) * int64(l.ClusterSize)
	record0 := w.data[mftOffset : mftOffset+int64(l.MFTRecordBytes)]
	assert.Equal(t, "FILE", string(record0[0:4]))
	require.NoError(t, VerifyFixup(record0, 0x2A))

	flags0 := uint16(record0[0x16]) | uint16(record0[0x17])<<8
	assert.NotZero(t, flags0&FlagInUse)
	baseRef := uint64(0)
	for i := 0; i < 8; i++ {
		baseRef |= uint64(record0[0x20+i]) << (8 * uint(i))
	}
	assert.Zero(t, baseRef)

	record5Offset := mftOffset + int64(RecordRoot)*int64(l.MFTRecordBytes)
	record5 := w.data[record5Offset : record5Offset+int64(l.MFTRecordBytes)]
	assert.Equal(t, "FILE", string(record5[0:4]))
	flags5 := uint16(record5[0x16]) | uint16(record5[0x17])<<8
	assert.NotZero(t, flags5&FlagIsDirectory)

	require.NoError(t, VerifyFixup(record5, 0x2A))
	indexRootAttr, ok := FindAttribute(record5, AttrIndexRoot)
	require.True(t, ok)
	valueOffset := uint16(indexRootAttr[0x14]) | uint16(indexRootAttr[0x15])<<8
	indexRoot := indexRootAttr[valueOffset:]
	entryFlags := uint16(indexRoot[indexRootHeaderSize+0x0C]) | uint16(indexRoot[indexRootHeaderSize+0x0D])<<8
	assert.NotZero(t, entryFlags&IndexEntryEnd)
}

func TestNTFSCanFormatRejectsTooSmallDevice(t *testing.T) {
	f := NewNTFS()
	assert.False(t, f.CanFormat(registry.Device{SizeBytes: 1 << 10}))
	assert.True(t, f.CanFormat(registry.Device{SizeBytes: 100 << 20}))
}

func TestNTFSDryRunReportsFreeSpace(t *testing.T) {
	f := NewNTFS()
	dev := registry.Device{SizeBytes: 100 << 20}
	report, err := f.DryRun(context.Background(), dev, registry.FormatOptions{})
	require.NoError(t, err)
	assert.True(t, report.WillEraseData)
	assert.True(t, report.PredictedFreeSpaceBytes > 0)
	assert.True(t, report.PredictedFreeSpaceBytes < dev.SizeBytes)
}
