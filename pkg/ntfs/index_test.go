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

func TestBuildEmptyIndexRootHasSingleEndEntry(t *testing.T) {
	value := BuildEmptyIndexRoot(4096, 1)
	require.True(t, len(value) > indexRootHeaderSize)

	entriesOffset := uint32(value[0x10]) | uint32(value[0x11])<<8 | uint32(value[0x12])<<16 | uint32(value[0x13])<<24
	totalSize := uint32(value[0x14]) | uint32(value[0x15])<<8 | uint32(value[0x16])<<16 | uint32(value[0x17])<<24

	entry := value[indexRootHeaderSize:]
	entryFlags := uint16(entry[0x0C]) | uint16(entry[0x0D])<<8
	assert.NotZero(t, entryFlags&IndexEntryEnd)
	assert.EqualValues(t, entriesOffset+16, totalSize)
}

func TestBuildFileNameIndexEntryEmbedsKey(t *testing.T) {
	key := FileNameKey{
		ParentRef: 5, Created: time.Unix(0, 0), Modified: time.Unix(0, 0),
		MFTChanged: time.Unix(0, 0), Accessed: time.Unix(0, 0),
		Name: "child.txt", Namespace: FileNameNamespaceWin32,
	}
	entry := BuildFileNameIndexEntry(42, key)

	ref := uint64(0)
	for i := 0; i < 8; i++ {
		ref |= uint64(entry[i]) << (8 * uint(i))
	}
	assert.EqualValues(t, 42, ref&0xFFFFFFFFFFFF)

	flags := uint16(entry[0x0C]) | uint16(entry[0x0D])<<8
	assert.Zero(t, flags&IndexEntryEnd)
}
