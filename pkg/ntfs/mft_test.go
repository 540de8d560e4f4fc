package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMFTRecordBuilderFinalizeProducesValidFixup(t *testing.T) {
	b := NewMFTRecordBuilder(1024, 5, FlagIsDirectory)
	b.AppendAttribute(BuildResidentAttribute(AttrStandardInformation, "", 0, false,
		BuildStandardInformation(time.Unix(0, 0), time.Unix(0, 0), time.Unix(0, 0), time.Unix(0, 0), FileAttributeDirectory)))
	b.AppendAttribute(BuildResidentAttribute(AttrIndexRoot, "$I30", 0, false, BuildEmptyIndexRoot(4096, 1)))

	record, err := b.Finalize(3)
	require.NoError(t, err)
	require.Len(t, record, 1024)

	assert.Equal(t, "FILE", string(record[0:4]))
	require.NoError(t, VerifyFixup(record, 0x2A))

	flags := uint16(record[0x16]) | uint16(record[0x17])<<8
	assert.NotZero(t, flags&FlagInUse)
	assert.NotZero(t, flags&FlagIsDirectory)

	baseRef := uint64(0)
	for i := 0; i < 8; i++ {
		baseRef |= uint64(record[0x20+i]) << (8 * uint(i))
	}
	assert.Zero(t, baseRef)
}

func TestFindAttributeLocatesIndexRoot(t *testing.T) {
	b := NewMFTRecordBuilder(1024, 5, FlagIsDirectory)
	b.AppendAttribute(BuildResidentAttribute(AttrStandardInformation, "", 0, false,
		BuildStandardInformation(time.Unix(0, 0), time.Unix(0, 0), time.Unix(0, 0), time.Unix(0, 0), FileAttributeDirectory)))
	b.AppendAttribute(BuildResidentAttribute(AttrIndexRoot, "$I30", 0, false, BuildEmptyIndexRoot(4096, 1)))
	record, err := b.Finalize(1)
	require.NoError(t, err)

	attr, ok := FindAttribute(record, AttrIndexRoot)
	require.True(t, ok)
	assert.EqualValues(t, AttrIndexRoot, uint32(attr[0])|uint32(attr[1])<<8|uint32(attr[2])<<16|uint32(attr[3])<<24)

	_, ok = FindAttribute(record, AttrData)
	assert.False(t, ok)
}

func TestEmptySystemRecordIsInUseNotDirectory(t *testing.T) {
	record, err := EmptySystemRecord(1024, 12, 1)
	require.NoError(t, err)
	flags := uint16(record[0x16]) | uint16(record[0x17])<<8
	assert.NotZero(t, flags&FlagInUse)
	assert.Zero(t, flags&FlagIsDirectory)
}
