package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "encoding/binary"

// indexRootHeaderSize is the size of the IndexRoot + IndexHeader fixed
// portion that precedes the first index entry, per spec.md §3/§4.6.
const indexRootHeaderSize = 0x20

// BuildEndIndexEntry returns the minimal 16-byte END entry that
// terminates an index node with no keys, matching spec.md's golden
// scenario ("root... INDEX_ROOT attribute whose single entry is END").
func BuildEndIndexEntry() []byte {
	entry := make([]byte, 0x10)
	binary.LittleEndian.PutUint16(entry[0x08:], 0x10) // entry length
	binary.LittleEndian.PutUint16(entry[0x0A:], 0)    // key length
	binary.LittleEndian.PutUint16(entry[0x0C:], IndexEntryEnd)
	return entry
}

// BuildFileNameIndexEntry wraps a FILE_NAME key as a non-terminal index
// entry carrying the referenced file's MFT reference.
func BuildFileNameIndexEntry(fileRef uint64, key FileNameKey) []byte {
	keyBytes := key.Encode()
	length := align8(0x10 + len(keyBytes))
	entry := make([]byte, length)
	binary.LittleEndian.PutUint64(entry[0x00:], fileRef)
	binary.LittleEndian.PutUint16(entry[0x08:], uint16(length))
	binary.LittleEndian.PutUint16(entry[0x0A:], uint16(len(keyBytes)))
	binary.LittleEndian.PutUint16(entry[0x0C:], 0)
	copy(entry[0x10:], keyBytes)
	return entry
}

// BuildIndexRootValue assembles the INDEX_ROOT attribute value for a
// directory: the IndexRoot+IndexHeader fixed portion followed by the
// supplied already-built index entries (terminated by an END entry).
func BuildIndexRootValue(indexBlockSize uint32, clustersPerIndexBlock uint8, entries ...[]byte) []byte {
	var entriesLen int
	for _, e := range entries {
		entriesLen += len(e)
	}

	value := make([]byte, indexRootHeaderSize+entriesLen)
	binary.LittleEndian.PutUint32(value[0x00:], AttrFileName)
	binary.LittleEndian.PutUint32(value[0x04:], CollationFileName)
	binary.LittleEndian.PutUint32(value[0x08:], indexBlockSize)
	value[0x0C] = clustersPerIndexBlock

	const entriesOffset = 0x10 // relative to the IndexHeader at 0x10
	binary.LittleEndian.PutUint32(value[0x10:], entriesOffset)
	binary.LittleEndian.PutUint32(value[0x14:], uint32(entriesOffset+entriesLen))
	binary.LittleEndian.PutUint32(value[0x18:], uint32(entriesOffset+entriesLen))
	value[0x1C] = 0 // small index, no INDEX_ALLOCATION

	pos := indexRootHeaderSize
	for _, e := range entries {
		copy(value[pos:], e)
		pos += len(e)
	}
	return value
}

// BuildEmptyIndexRoot builds the root directory's seed INDEX_ROOT
// value: no files indexed yet, a single END entry, per spec.md §4.6
// step 8.
func BuildEmptyIndexRoot(indexBlockSize uint32, clustersPerIndexBlock uint8) []byte {
	return BuildIndexRootValue(indexBlockSize, clustersPerIndexBlock, BuildEndIndexEntry())
}
