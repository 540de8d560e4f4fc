package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bytes"
	"encoding/binary"
)

// BootSector is the 512-byte NTFS VBR, laid out field-for-field per
// spec.md §3/§4.6. Encoded the same way the teacher encodes its fixed
// binary structures (pkg/ext4.Superblock, pkg/vimg.GPTHeader): a plain
// Go struct written with encoding/binary.
type BootSector struct {
	Jump               [3]byte
	OEMID              [8]byte
	BytesPerSector     uint16
	SectorsPerCluster  uint8
	ReservedSectors    uint16
	Unused1            [3]byte
	Unused2            uint16
	MediaDescriptor    uint8
	Unused3            uint16
	SectorsPerTrack    uint16
	NumberOfHeads      uint16
	HiddenSectors      uint32
	Unused4            uint32
	Unused5            uint32
	TotalSectors       uint64
	MFTLCN             uint64
	MFTMirrLCN         uint64
	ClustersPerRecord  int8
	recordPad          [3]byte
	ClustersPerIndex   int8
	indexPad           [3]byte
	VolumeSerialNumber uint64
	Checksum           uint32
	BootCode           [426]byte
	EndSignature       uint16
}

// clustersPerRecordField encodes the "positive = clusters; negative =
// 2^|value| bytes" convention spec.md §3 describes for both the
// clusters-per-MFT-record and clusters-per-index-buffer fields.
func clustersPerRecordField(bytesWanted uint32, clusterSize uint32) int8 {
	if bytesWanted >= clusterSize {
		return int8(bytesWanted / clusterSize)
	}
	shift := int8(0)
	for size := uint32(1); size < bytesWanted; size <<= 1 {
		shift++
	}
	return -shift
}

// BuildBootSector constructs the primary (and, verbatim, the backup)
// NTFS boot sector for a volume of the given geometry.
func BuildBootSector(totalSectors uint64, bytesPerSector uint16, sectorsPerCluster uint8,
	mftLCN, mftMirrLCN uint64, mftRecordBytes, indexRecordBytes uint32, serial uint64) *BootSector {

	clusterSize := uint32(bytesPerSector) * uint32(sectorsPerCluster)
	bs := &BootSector{
		OEMID:              [8]byte{'N', 'T', 'F', 'S', ' ', ' ', ' ', ' '},
		BytesPerSector:     bytesPerSector,
		SectorsPerCluster:  sectorsPerCluster,
		MediaDescriptor:    0xF8,
		SectorsPerTrack:    63,
		NumberOfHeads:      255,
		Unused5:            0x00800080,
		TotalSectors:       totalSectors,
		MFTLCN:             mftLCN,
		MFTMirrLCN:         mftMirrLCN,
		ClustersPerRecord:  clustersPerRecordField(mftRecordBytes, clusterSize),
		ClustersPerIndex:   clustersPerRecordField(indexRecordBytes, clusterSize),
		VolumeSerialNumber: serial,
		EndSignature:       0x55AA,
	}
	bs.Jump = [3]byte{0xEB, 0x52, 0x90}
	return bs
}

// Encode serializes the boot sector to its exact 512-byte wire form.
func (bs *BootSector) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	fields := []interface{}{
		bs.Jump, bs.OEMID, bs.BytesPerSector, bs.SectorsPerCluster,
		bs.ReservedSectors, bs.Unused1, bs.Unused2, bs.MediaDescriptor,
		bs.Unused3, bs.SectorsPerTrack, bs.NumberOfHeads, bs.HiddenSectors,
		bs.Unused4, bs.Unused5, bs.TotalSectors, bs.MFTLCN, bs.MFTMirrLCN,
		bs.ClustersPerRecord, bs.recordPad, bs.ClustersPerIndex, bs.indexPad,
		bs.VolumeSerialNumber, bs.Checksum, bs.BootCode, bs.EndSignature,
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	out := buf.Bytes()
	if len(out) != SectorSize {
		panic("ntfs: boot sector encoded to unexpected length")
	}
	return out, nil
}
