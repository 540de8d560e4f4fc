package fat

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bytes"
	"encoding/binary"

	"github.com/vorteil/moses/pkg/fsutil"
)

// BootSector16 is the on-disk layout of a FAT12/FAT16 boot sector, byte
// offsets grounded on soypat-fat's tables.go (bsJmpBoot..bs55AA). Field
// order and padding match the BPB exactly; an explicit Unwritten tail
// keeps the struct's encoded size at exactly 512 bytes like the
// teacher's own padded Superblock in pkg/ext4/super.go.
type BootSector16 struct {
	JmpBoot        [3]byte
	OEMName        [8]byte
	BytesPerSector uint16 // 0x0B
	SectorsPerClus uint8
	ReservedSecCnt uint16
	NumFATs        uint8
	RootEntCnt     uint16
	TotSec16       uint16
	Media          uint8
	FATSz16        uint16
	SecPerTrk      uint16
	NumHeads       uint16
	HiddSec        uint32
	TotSec32       uint32 // 0x20
	DrvNum         uint8
	_              uint8 // reserved (NTres)
	BootSig        uint8
	VolID          uint32
	VolLab         [11]byte
	FilSysType     [8]byte
	BootCode       [448]byte
	Signature      uint16 // 0x1FE: bytes 0x55 0xAA (little-endian 0xAA55)
}

// BootSector32 is the on-disk layout of a FAT32 boot sector, grounded on
// soypat-fat's tables.go bpbFATSz32..bsBootCode32 offsets.
type BootSector32 struct {
	JmpBoot        [3]byte
	OEMName        [8]byte
	BytesPerSector uint16
	SectorsPerClus uint8
	ReservedSecCnt uint16
	NumFATs        uint8
	RootEntCnt     uint16 // always 0 for FAT32
	TotSec16       uint16 // always 0 for FAT32
	Media          uint8
	FATSz16        uint16 // always 0 for FAT32
	SecPerTrk      uint16
	NumHeads       uint16
	HiddSec        uint32
	TotSec32       uint32 // 0x20
	FATSz32        uint32
	ExtFlags       uint16
	FSVer          uint16
	RootClus       uint32 // 0x2C
	FSInfo         uint16
	BkBootSec      uint16
	_              [12]byte // reserved
	DrvNum         uint8
	_              uint8 // reserved (NTres)
	BootSig        uint8
	VolID          uint32
	VolLab         [11]byte
	FilSysType     [8]byte
	BootCode       [420]byte
	Signature      uint16 // 0x1FE: bytes 0x55 0xAA (little-endian 0xAA55)
}

// FSInfo is the FAT32 filesystem-information sector, offsets grounded on
// soypat-fat's tables.go fsiLeadSig..fsiNxt_Free, laid out to pad to
// exactly 512 bytes with the trailing signature at offset 508.
type FSInfo struct {
	LeadSig   uint32 // 0: "RRaA"
	_         [480]byte
	StrucSig  uint32 // 484: "rrAa"
	FreeCount uint32 // 488
	NextFree  uint32 // 492
	_         [12]byte
	TrailSig  uint32 // 508: 0xAA550000 (bytes 00 00 55 AA)
}

const (
	fsiLeadSigValue  = 0x41615252 // "RRaA"
	fsiStrucSigValue = 0x61417272 // "rrAa"
	fsiTrailSigValue = 0xAA550000
)

// encode marshals s into a 512-byte sector, little-endian, matching the
// teacher's binary.Write(buf, binary.LittleEndian, &s) convention used
// throughout pkg/ext4 for Superblock/GroupDescriptor.
func encodeStruct(s interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildBootSector16 constructs a FAT16 boot sector for g, stamping label
// and OEM per spec.md §8's golden scenario (label right-padded with
// spaces to 11 bytes, FilSysType "FAT16   ").
func buildBootSector16(g Geometry, oem string, label string, volID uint32) ([]byte, error) {
	bs := BootSector16{
		JmpBoot:        [3]byte{0xEB, 0x3C, 0x90},
		BytesPerSector: g.BytesPerSector,
		SectorsPerClus: g.SectorsPerCluster,
		ReservedSecCnt: g.ReservedSectors,
		NumFATs:        g.NumFATs,
		RootEntCnt:     g.RootEntryCount,
		Media:          0xF8,
		FATSz16:        uint16(g.SectorsPerFAT),
		SecPerTrk:      63,
		NumHeads:       255,
		HiddSec:        g.PartitionFirstLBA,
		DrvNum:         0x80,
		BootSig:        0x29,
		VolID:          volID,
		Signature:      0xAA55,
	}
	copy(bs.OEMName[:], fsutil.PadASCII(oem, 8))
	bs.VolLab = fsutil.FATLabel(label)
	copy(bs.FilSysType[:], fsutil.PadASCII("FAT16", 8))

	if g.TotalSectors > 0xFFFF {
		bs.TotSec32 = g.TotalSectors
	} else {
		bs.TotSec16 = uint16(g.TotalSectors)
	}

	return encodeStruct(bs)
}

// buildBootSector32 constructs a FAT32 boot sector for g, per spec.md
// §8's 32 GiB scenario: BPB_RootClus=2, BPB_FSInfo=1, BPB_BkBootSec=6.
func buildBootSector32(g Geometry, oem string, label string, volID uint32) ([]byte, error) {
	bs := BootSector32{
		JmpBoot:        [3]byte{0xEB, 0x58, 0x90},
		BytesPerSector: g.BytesPerSector,
		SectorsPerClus: g.SectorsPerCluster,
		ReservedSecCnt: g.ReservedSectors,
		NumFATs:        g.NumFATs,
		Media:          0xF8,
		SecPerTrk:      63,
		NumHeads:       255,
		HiddSec:        g.PartitionFirstLBA,
		TotSec32:       g.TotalSectors,
		FATSz32:        g.SectorsPerFAT,
		RootClus:       2,
		FSInfo:         1,
		BkBootSec:      6,
		DrvNum:         0x80,
		BootSig:        0x29,
		VolID:          volID,
		Signature:      0xAA55,
	}
	copy(bs.OEMName[:], fsutil.PadASCII(oem, 8))
	bs.VolLab = fsutil.FATLabel(label)
	copy(bs.FilSysType[:], fsutil.PadASCII("FAT32", 8))

	return encodeStruct(bs)
}

// buildFSInfo constructs the FAT32 FSInfo sector with the given free
// cluster count and next-free hint (spec.md §8: next_free=3 immediately
// after formatting, since cluster 2 is consumed by the root directory).
func buildFSInfo(freeCount, nextFree uint32) ([]byte, error) {
	info := FSInfo{
		LeadSig:   fsiLeadSigValue,
		StrucSig:  fsiStrucSigValue,
		FreeCount: freeCount,
		NextFree:  nextFree,
		TrailSig:  fsiTrailSigValue,
	}
	return encodeStruct(info)
}
