package fat

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"

	"github.com/vorteil/moses/pkg/fsutil"
)

// DirEntry is a FAT 8.3 short-name directory entry, 32 bytes, grounded
// on soypat-fat's tables.go sizeDirEntry/nsFLAG constants for field
// sizing and the DIR_Attr bit values below.
type DirEntry struct {
	Name       [11]byte
	Attr       uint8
	NTRes      uint8
	CrtTimeTen uint8
	CrtTime    uint16
	CrtDate    uint16
	LstAccDate uint16
	FstClusHI  uint16
	WrtTime    uint16
	WrtDate    uint16
	FstClusLO  uint16
	FileSize   uint32
}

const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
)

// volumeLabelEntry builds the root directory's volume-label entry
// (DIR_Attr=ATTR_VOLUME_ID, cluster/size left zero), the one entry
// written into an otherwise-empty freshly formatted FAT16/FAT32 root
// directory when a label was requested.
func volumeLabelEntry(label string) DirEntry {
	return DirEntry{
		Name: fsutil.FATLabel(label),
		Attr: AttrVolumeID,
	}
}

func encodeDirEntry(e DirEntry) []byte {
	out := make([]byte, 32)
	copy(out[0:11], e.Name[:])
	out[11] = e.Attr
	out[12] = e.NTRes
	out[13] = e.CrtTimeTen
	binary.LittleEndian.PutUint16(out[14:16], e.CrtTime)
	binary.LittleEndian.PutUint16(out[16:18], e.CrtDate)
	binary.LittleEndian.PutUint16(out[18:20], e.LstAccDate)
	binary.LittleEndian.PutUint16(out[20:22], e.FstClusHI)
	binary.LittleEndian.PutUint16(out[22:24], e.WrtTime)
	binary.LittleEndian.PutUint16(out[24:26], e.WrtDate)
	binary.LittleEndian.PutUint16(out[26:28], e.FstClusLO)
	binary.LittleEndian.PutUint32(out[28:32], e.FileSize)
	return out
}

// buildRootDirectory16 zeros the fixed FAT16 root region (RootEntCnt*32
// bytes, rounded up to RootDirSectors*bytesPerSector) and, if a label
// was requested, stamps the volume-label entry at its head, per spec.md
// §4.4 step 6.
func buildRootDirectory16(g Geometry, label string) []byte {
	buf := make([]byte, g.RootDirSectors*uint32(g.BytesPerSector))
	if label != "" {
		copy(buf[0:32], encodeDirEntry(volumeLabelEntry(label)))
	}
	return buf
}

// buildRootDirectoryCluster32 zeros a single cluster (cluster 2, the
// FAT32 root directory's fixed starting cluster) and, if requested,
// stamps the volume-label entry at its head.
func buildRootDirectoryCluster32(g Geometry, label string) []byte {
	buf := make([]byte, uint32(g.SectorsPerCluster)*uint32(g.BytesPerSector))
	if label != "" {
		copy(buf[0:32], encodeDirEntry(volumeLabelEntry(label)))
	}
	return buf
}
