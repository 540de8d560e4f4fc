package fsutil

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "hash/crc32"

// crc32cTable is the lookup table for the Castagnoli polynomial used by
// ext4 metadata checksums (superblock, inodes, group descriptors).
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes a Castagnoli CRC32 over data starting from the supplied
// seed. Callers are responsible for any final XOR: ext4 superblock/inode
// checksums apply one (seeded 0xFFFFFFFF, XOR 0xFFFFFFFF at the end) while
// the per-inode seed derivation does not.
func CRC32C(seed uint32, data []byte) uint32 {
	return ^crc32.Update(^seed, crc32cTable, data)
}

// CRC32CFinal is CRC32C seeded at 0xFFFFFFFF with the conventional final
// XOR applied, matching the ext4 superblock/group-descriptor checksum
// convention.
func CRC32CFinal(data []byte) uint32 {
	return CRC32C(0xFFFFFFFF, data) ^ 0xFFFFFFFF
}

// CRC32 computes the IEEE-polynomial CRC32 used by GPT headers and
// partition-entry arrays: initial state 0xFFFFFFFF, final bitwise NOT.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// crc16Table is the CCITT-derived table ext2/3/4 uses for the 16-bit
// block-group-descriptor checksum.
var crc16Table = genCRC16Table()

func genCRC16Table() [256]uint16 {
	var table [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}

// CRC16 computes the CRC-16/ANSI checksum ext uses for block group
// descriptors, seeded from the first four bytes of the filesystem UUID.
func CRC16(seed uint16, data []byte) uint16 {
	crc := seed
	for _, b := range data {
		crc = (crc >> 8) ^ crc16Table[byte(crc)^b]
	}
	return crc
}

// RotateRightByteChecksum folds data the way FAT/exFAT boot-region and
// directory-entry-set checksums do: csum = rotate_right(csum, 1) + byte,
// operating on a 16-bit or 32-bit accumulator depending on context.
func RotateRightByteChecksum16(seed uint16, data []byte) uint16 {
	csum := seed
	for _, b := range data {
		csum = ((csum & 1) << 15) | (csum >> 1)
		csum += uint16(b)
	}
	return csum
}

// RotateRightByteChecksum32 is the 32-bit variant used for the exFAT boot
// region checksum sector, which folds every byte of the first 11 sectors.
func RotateRightByteChecksum32(seed uint32, data []byte) uint32 {
	csum := seed
	for _, b := range data {
		csum = ((csum & 1) << 31) | (csum >> 1)
		csum += uint32(b)
	}
	return csum
}
