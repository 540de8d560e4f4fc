package fat

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"
)

// eocFAT16/eocFAT32 are the end-of-chain markers written into FAT
// entry 1 (and entry 2 for FAT32's reserved root cluster), per spec.md
// §4.4: "end-of-chain >=0xFFF8/0x0FFFFFF8".
const (
	eocFAT16 = 0xFFFF
	eocFAT32 = 0x0FFFFFFF
)

// buildFAT16Table returns sectorsPerFAT*bytesPerSector bytes for a
// fresh FAT16 table: entry[0] = media|0xFF00, entry[1] = end-of-chain,
// all following entries free (0), per spec.md §4.4.
func buildFAT16Table(sectorsPerFAT uint32, bytesPerSector uint16, media uint8) []byte {
	buf := make([]byte, uint32(sectorsPerFAT)*uint32(bytesPerSector))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(media)|0xFF00)
	binary.LittleEndian.PutUint16(buf[2:4], eocFAT16)
	return buf
}

// buildFAT32Table returns sectorsPerFAT*bytesPerSector bytes for a
// fresh FAT32 table: entry[0] = media|0x0FFFFF00, entry[1] =
// end-of-chain, entry[2] = end-of-chain (the root directory occupies
// cluster 2 and is a single-cluster chain at format time).
func buildFAT32Table(sectorsPerFAT uint32, bytesPerSector uint16, media uint8) []byte {
	buf := make([]byte, uint32(sectorsPerFAT)*uint32(bytesPerSector))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(media)|0x0FFFFF00)
	binary.LittleEndian.PutUint32(buf[4:8], eocFAT32)
	binary.LittleEndian.PutUint32(buf[8:12], eocFAT32)
	return buf
}
