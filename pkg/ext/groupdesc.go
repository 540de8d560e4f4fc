package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bytes"
	"encoding/binary"

	"github.com/vorteil/moses/pkg/fsutil"
)

// groupAddrs is the set of block addresses group g's bitmaps and inode
// table live at. GroupMetadataAddrs computes it for every group, whether
// or not l.IsSparseSuperGroup(g) places a GDT/superblock copy in it.
type groupAddrs struct {
	blockBitmap uint64
	inodeBitmap uint64
	inodeTable  uint64
}

// GroupMetadataAddrs computes the block addresses of group g's block
// bitmap, inode bitmap, and inode table, following spec.md §4.5 step 7's
// write ordering: [superblock+GDT+reserved-GDT when present] then block
// bitmap, inode bitmap, inode table, then data.
func GroupMetadataAddrs(l Layout, g uint64) groupAddrs {
	addr := l.GroupStartBlock(g)
	if l.IsSparseSuperGroup(g) {
		addr += 1 + l.GDTBlocks + l.ReservedGDTBlocks
	}
	a := groupAddrs{blockBitmap: addr}
	a.inodeBitmap = a.blockBitmap + 1
	a.inodeTable = a.inodeBitmap + 1
	return a
}

// BuildGroupDescriptorTable serializes every group's descriptor (32 or
// 64 bytes per cfg.Use64Bit) back-to-back, CRC16-checksummed per
// spec.md §4.5 step 6 (seeded from the first four bytes of the volume
// UUID, computed with the checksum field zeroed).
func BuildGroupDescriptorTable(l Layout, groups []groupAccounting, uuid [16]byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	seed := binary.LittleEndian.Uint16(uuid[0:2]) ^ binary.LittleEndian.Uint16(uuid[2:4])

	for g := uint64(0); g < l.NumGroups; g++ {
		addrs := GroupMetadataAddrs(l, g)

		desc := BlockGroupDescriptor32{
			BlockBitmapLo: uint32(addrs.blockBitmap),
			InodeBitmapLo: uint32(addrs.inodeBitmap),
			InodeTableLo:  uint32(addrs.inodeTable),
			FreeBlocksLo:  uint16(groups[g].freeBlocks),
			FreeInodesLo:  uint16(groups[g].freeInodes),
			DirsCountLo:   groups[g].dirCount,
		}

		var raw []byte
		var err error
		if l.Config.Use64Bit {
			full := BlockGroupDescriptor64{
				BlockGroupDescriptor32: desc,
				BlockBitmapHi:          uint32(addrs.blockBitmap >> 32),
				InodeBitmapHi:          uint32(addrs.inodeBitmap >> 32),
				InodeTableHi:           uint32(addrs.inodeTable >> 32),
				FreeBlocksHi:           uint16(groups[g].freeBlocks >> 16),
				FreeInodesHi:           uint16(groups[g].freeInodes >> 16),
			}
			full.Checksum = checksumGroupDescriptor(seed, uint32(g), &full)
			raw, err = encodeStruct(&full)
		} else {
			desc.Checksum = checksumGroupDescriptor(seed, uint32(g), &desc)
			raw, err = encodeStruct(&desc)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}

	return buf.Bytes(), nil
}

// checksumGroupDescriptor computes the CRC16 of desc (with its Checksum
// field zeroed) prefixed by the little-endian group number, starting
// from seed (BuildGroupDescriptorTable derives it from the UUID's first
// four bytes rather than from a CRC over the whole UUID).
func checksumGroupDescriptor(seed uint16, g uint32, desc interface{}) uint16 {
	raw, err := encodeStruct(desc)
	if err != nil {
		panic(err)
	}
	// zero the checksum field in its known position (offset 0x1E, the
	// last two bytes of the classic 32-byte descriptor) before hashing.
	raw[0x1E] = 0
	raw[0x1F] = 0

	var gbuf [4]byte
	binary.LittleEndian.PutUint32(gbuf[:], g)

	csum := fsutil.CRC16(seed, gbuf[:])
	return fsutil.CRC16(csum, raw)
}
