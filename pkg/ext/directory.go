package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bytes"
	"encoding/binary"
)

// dirent is the classic linked-list directory entry header, grounded on
// the teacher's pkg/ext4.dentry: a 4-byte inode number, 2-byte record
// length, 1-byte name length, and 1-byte file type, followed by the
// name itself and zero padding out to RecLen.
type dirent struct {
	Inode    uint32
	RecLen   uint16
	NameLen  uint8
	FileType uint8
}

func writeDirent(buf *bytes.Buffer, inode uint32, name string, fileType uint8, recLen uint16) {
	d := dirent{Inode: inode, RecLen: recLen, NameLen: uint8(len(name)), FileType: fileType}
	_ = binary.Write(buf, binary.LittleEndian, &d)
	buf.WriteString(name)
	pad := int(recLen) - 8 - len(name)
	buf.Write(make([]byte, pad))
}

func direntLen(name string) uint16 {
	l := 8 + len(name)
	return uint16((l + 3) &^ 3)
}

// BuildRootDirBlock encodes a single block_size-byte block holding ".",
// "..", and "lost+found", the three entries spec.md §4.5 step 5 names
// for the root directory. The final entry's RecLen absorbs the rest of
// the block, the standard ext directory-block termination convention.
func BuildRootDirBlock(blockSize uint32) []byte {
	buf := new(bytes.Buffer)

	writeDirent(buf, RootInode, ".", FTypeDir, direntLen("."))
	writeDirent(buf, RootInode, "..", FTypeDir, direntLen(".."))

	used := buf.Len()
	last := "lost+found"
	remaining := int(blockSize) - used
	writeDirent(buf, LostFoundInode, last, FTypeDir, uint16(remaining))

	out := buf.Bytes()
	if len(out) < int(blockSize) {
		out = append(out, make([]byte, int(blockSize)-len(out))...)
	}
	return out
}

// BuildLostFoundBlocks encodes lost+found's own directory data: "." and
// "..", with the final entry's RecLen absorbing the rest of the first
// block; every subsequent block (lost+found is padded to 16 KiB per
// spec.md §4.5 step 5) is a single empty-record placeholder so that a
// directory walk sees a well-formed (if vacant) entry rather than
// all-zero garbage.
func BuildLostFoundBlocks(blockSize uint32, totalBlocks uint64) []byte {
	out := make([]byte, 0, int(blockSize)*int(totalBlocks))

	first := new(bytes.Buffer)
	writeDirent(first, LostFoundInode, ".", FTypeDir, direntLen("."))
	remaining := int(blockSize) - first.Len()
	writeDirent(first, RootInode, "..", FTypeDir, uint16(remaining))
	out = append(out, first.Bytes()...)

	emptyBlock := make([]byte, blockSize)
	binary.LittleEndian.PutUint16(emptyBlock[4:6], uint16(blockSize))
	for b := uint64(1); b < totalBlocks; b++ {
		out = append(out, emptyBlock...)
	}

	return out
}
