package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/vorteil/moses/pkg/fsutil"
)

// Inode is the classic 128-byte on-disk inode, shared unchanged by every
// version; ext3/ext4's 256-byte inode is this struct immediately
// followed by InodeExtra. Field layout follows the teacher's
// pkg/ext4.Inode convention of one named field per documented offset,
// widened with the osd2 sub-fields (block/acl/uid/gid highs and the
// inline checksum-lo) spec.md's metadata-checksum invariant needs.
type Inode struct {
	Mode             uint16   // 0x00
	UID              uint16   // 0x02
	SizeLo           uint32   // 0x04
	AccessTime       uint32   // 0x08
	ChangeTime       uint32   // 0x0C
	ModificationTime uint32   // 0x10
	DeletionTime     uint32   // 0x14
	GID              uint16   // 0x18
	LinksCount       uint16   // 0x1A
	BlocksLo         uint32   // 0x1C
	Flags            uint32   // 0x20
	OSD1             uint32   // 0x24
	Block            [15]uint32 // 0x28
	Generation       uint32   // 0x64
	FileACLLo        uint32   // 0x68
	SizeHi           uint32   // 0x6C
	ObsoFaddr        uint32   // 0x70
	BlocksHi         uint16   // 0x74
	FileACLHi        uint16   // 0x76
	UIDHi            uint16   // 0x78
	GIDHi            uint16   // 0x7A
	ChecksumLo       uint16   // 0x7C
	_                uint16   // 0x7E reserved
} // 0x80

// InodeExtra is appended after Inode when the configured inode size is
// 256 bytes (ext3/ext4), carrying the extended timestamps and the
// checksum's high half.
type InodeExtra struct {
	ExtraIsize   uint16   // 0x80
	ChecksumHi   uint16   // 0x82
	ChangeExtra  uint32   // 0x84
	ModExtra     uint32   // 0x88
	AccessExtra  uint32   // 0x8C
	CrTime       uint32   // 0x90
	CrTimeExtra  uint32   // 0x94
	VersionHi    uint32   // 0x98
	ProjID       uint32   // 0x9C
	_            [96]byte // 0xA0 reserved
} // 0x100

// ExtentHeader, ExtentIndex, and Extent mirror the teacher's
// pkg/ext4.ExtentHeader/ExtentIndex/Extent exactly: a single-level
// extent tree with one leaf is all a freshly formatted root directory
// or lost+found ever needs.
type ExtentHeader struct {
	Magic      uint16
	Entries    uint16
	Max        uint16
	Depth      uint16
	Generation uint32
}

type Extent struct {
	Block   uint32
	Len     uint16
	StartHi uint16
	StartLo uint32
}

// buildExtentIBlock packs a one-entry leaf extent tree into the 60-byte
// i_block area: header then a single Extent pointing at startBlock for
// lengthBlocks blocks.
func buildExtentIBlock(startBlock, lengthBlocks uint64) [15]uint32 {
	buf := new(bytes.Buffer)
	hdr := ExtentHeader{Magic: ExtentMagic, Entries: 1, Max: 4}
	_ = binary.Write(buf, binary.LittleEndian, &hdr)
	e := Extent{Block: 0, Len: uint16(lengthBlocks), StartLo: uint32(startBlock), StartHi: uint16(startBlock >> 32)}
	_ = binary.Write(buf, binary.LittleEndian, &e)

	var out [15]uint32
	raw := buf.Bytes()
	for i := 0; i*4 < len(raw); i++ {
		out[i] = binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
	}
	return out
}

// buildIndirectIBlock packs classic direct block pointers into i_block
// for the ext2/ext3 (no-extents) case: blocks start..start+count-1 are
// laid out contiguously across direct pointers 0..11 (callers never
// request enough blocks here to need indirect pointers 12-14).
func buildIndirectIBlock(start, count uint64) [15]uint32 {
	var out [15]uint32
	for i := uint64(0); i < count && i < 12; i++ {
		out[i] = uint32(start + i)
	}
	return out
}

// BuildInode fills in the 128-byte (or 256-byte, via InodeExtra)
// on-disk inode for a directory with contentBlocks contiguous data
// blocks starting at startBlock, sizeBytes logical size, and
// linksCount hard links, following spec.md §4.5 step 5's root/
// lost+found seeding rule: extents when cfg.UseExtents, else classic
// direct pointers.
func BuildInode(cfg Config, startBlock, contentBlocks uint64, sizeBytes int64, linksCount uint16, now time.Time) *Inode {
	t := fsutil.UnixTimestamp(now)
	in := &Inode{
		Mode:             InodeDirPermissions,
		SizeLo:           uint32(sizeBytes),
		AccessTime:       t,
		ChangeTime:       t,
		ModificationTime: t,
		LinksCount:       linksCount,
	}

	if cfg.UseExtents {
		in.Flags |= Ext4ExtentsInodeFlag
		in.Block = buildExtentIBlock(startBlock, contentBlocks)
	} else {
		in.Block = buildIndirectIBlock(startBlock, contentBlocks)
	}

	return in
}

// SetBlockCount512 stamps i_blocks_lo with the number of 512-byte
// sectors contentBlocks of blockSize-sized blocks occupy, the unit the
// kernel's i_blocks field always uses regardless of block size.
func SetBlockCount512(in *Inode, contentBlocks, blockSize uint64) {
	in.BlocksLo = uint32(contentBlocks * blockSize / SectorSize)
}

// EncodeInode serializes in (and, when inodeSize is 256, a freshly
// built InodeExtra) to exactly inodeSize bytes, computing the
// CRC32C-over-inode-with-checksum-zeroed seeded with crc32c(uuid,
// inode_num) when cfg.UseMetadataCsum is set, per spec.md §4.5 step 6.
func EncodeInode(cfg Config, in *Inode, inodeNum uint32, uuid [16]byte) ([]byte, error) {
	size := int(cfg.InodeSize)
	if size == 0 {
		size = 128
	}

	base, err := encodeStruct(in)
	if err != nil {
		return nil, err
	}

	out := make([]byte, size)
	copy(out, base)

	if size > 128 {
		extra := &InodeExtra{ExtraIsize: 32}
		extraRaw, err := encodeStruct(extra)
		if err != nil {
			return nil, err
		}
		copy(out[128:], extraRaw)
	}

	if cfg.UseMetadataCsum {
		var numBuf [4]byte
		binary.LittleEndian.PutUint32(numBuf[:], inodeNum)
		seed := fsutil.CRC32C(0xFFFFFFFF, uuid[:])
		seed = fsutil.CRC32C(seed, numBuf[:])

		// zero the checksum fields before hashing.
		binary.LittleEndian.PutUint16(out[0x7C:0x7E], 0)
		if size > 128 {
			binary.LittleEndian.PutUint16(out[0x82:0x84], 0)
		}

		csum := fsutil.CRC32C(seed, out)
		binary.LittleEndian.PutUint16(out[0x7C:0x7E], uint16(csum))
		if size > 128 {
			binary.LittleEndian.PutUint16(out[0x82:0x84], uint16(csum>>16))
		}
	}

	return out, nil
}
