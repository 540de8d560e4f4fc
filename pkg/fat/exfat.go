package fat

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"

	"github.com/vorteil/moses/pkg/fsutil"
	"github.com/vorteil/moses/pkg/moerr"
)

const (
	exFATBootRegionSectors = 12 // boot sector + 8 extended + OEM params + reserved + checksum
	exFATSectorSize        = 512
	exFATMinVolumeLength   = 1 << 20 / exFATSectorSize // 1 MiB floor, per dsoprea-go-exfat's VolumeLength doc
)

// ExFATBootSectorHeader mirrors dsoprea-go-exfat's BootSectorHeader
// field-for-field (structures.go), the exFAT spec's §3.1 Main Boot
// Sector layout, used here as a writer rather than a reader.
type ExFATBootSectorHeader struct {
	JumpBoot                    [3]byte
	FileSystemName              [8]byte
	MustBeZero                  [53]byte
	PartitionOffset             uint64
	VolumeLength                uint64
	FatOffset                   uint32
	FatLength                   uint32
	ClusterHeapOffset           uint32
	ClusterCount                uint32
	FirstClusterOfRootDirectory uint32
	VolumeSerialNumber          uint32
	FileSystemRevision          [2]uint8
	VolumeFlags                 uint16
	BytesPerSectorShift         uint8
	SectorsPerClusterShift      uint8
	NumberOfFats                uint8
	DriveSelect                 uint8
	PercentInUse                uint8
	_                           [7]byte // reserved
	BootCode                    [390]byte
	BootSignature               uint16 // bytes 0x55 0xAA (little-endian 0xAA55)
}

// ExFATGeometry is the resolved layout for a single exFAT volume.
type ExFATGeometry struct {
	BytesPerSectorShift    uint8
	SectorsPerClusterShift uint8
	FatOffset              uint32
	FatLength              uint32
	ClusterHeapOffset      uint32
	ClusterCount           uint32
	VolumeLength           uint64
}

// computeExFATGeometry derives FAT offset/length and cluster heap
// placement from deviceBytes, following dsoprea-go-exfat's documented
// field bounds (FatOffset >= 24, FatLength covers ClusterCount+2
// 32-bit entries, ClusterHeapOffset follows the single FAT directly).
func computeExFATGeometry(deviceBytes uint64) (ExFATGeometry, error) {
	if deviceBytes < minExFATSize {
		return ExFATGeometry{}, &moerr.LayoutInfeasibleError{Kind: moerr.DeviceTooSmall, Wanted: minExFATSize, Got: int64(deviceBytes), Detail: "below exFAT's 1 MiB volume floor"}
	}

	const bytesPerSectorShift = 9 // 512-byte sectors
	sectorSize := uint32(1) << bytesPerSectorShift
	volumeLength := deviceBytes / uint64(sectorSize)

	clusterShift := uint8(3) // 4 KiB clusters (2^3 sectors of 512 B)
	for (volumeLength>>clusterShift) > (1<<25) && clusterShift < 25-bytesPerSectorShift {
		clusterShift++
	}

	fatOffset := uint32(exFATBootRegionSectors * 2) // main + backup boot regions

	// iterative fixed point, same shape as computeGeometry's FAT16/32 loop
	fatLength := uint32(1)
	var clusterCount uint32
	for i := 0; i < 32; i++ {
		heapOffset := fatOffset + fatLength
		heapSectors := int64(volumeLength) - int64(heapOffset)
		if heapSectors < 0 {
			heapSectors = 0
		}
		clusterCount = uint32(heapSectors) >> clusterShift
		needed := uint32((uint64(clusterCount)+2)*4+uint64(sectorSize)-1) / sectorSize
		if needed == 0 {
			needed = 1
		}
		if needed == fatLength {
			break
		}
		fatLength = needed
	}

	heapOffset := fatOffset + fatLength

	return ExFATGeometry{
		BytesPerSectorShift:    bytesPerSectorShift,
		SectorsPerClusterShift: clusterShift,
		FatOffset:              fatOffset,
		FatLength:              fatLength,
		ClusterHeapOffset:      heapOffset,
		ClusterCount:           clusterCount,
		VolumeLength:           volumeLength,
	}, nil
}

// buildExFATBootSector encodes the main boot sector for g.
func buildExFATBootSector(g ExFATGeometry, volID uint32) ([]byte, error) {
	bs := ExFATBootSectorHeader{
		JumpBoot:                    [3]byte{0xEB, 0x76, 0x90},
		VolumeLength:                g.VolumeLength,
		FatOffset:                   g.FatOffset,
		FatLength:                   g.FatLength,
		ClusterHeapOffset:           g.ClusterHeapOffset,
		ClusterCount:                g.ClusterCount,
		FirstClusterOfRootDirectory: 2,
		VolumeSerialNumber:          volID,
		FileSystemRevision:          [2]uint8{0, 1}, // revision 1.00
		BytesPerSectorShift:         g.BytesPerSectorShift,
		SectorsPerClusterShift:      g.SectorsPerClusterShift,
		NumberOfFats:                1,
		DriveSelect:                 0x80,
		BootSignature:               0xAA55,
	}
	copy(bs.FileSystemName[:], fsutil.PadASCII("EXFAT", 8))
	return encodeStruct(bs)
}

// exFATBootRegionChecksum folds every byte of the first 11 sectors of
// the boot region as rotate_right(x,1)+byte, skipping the VolumeFlags
// bytes at offsets 106-107 of sector 0, per spec.md §4.4's exFAT boot
// region checksum rule and dsoprea-go-exfat's VolumeFlags field comment
// ("implementations shall not include this field when computing...
// checksum").
func exFATBootRegionChecksum(sectors [][]byte) uint32 {
	var csum uint32
	for i, sector := range sectors[:11] {
		for off, b := range sector {
			if i == 0 && (off == 106 || off == 107) {
				continue
			}
			csum = fsutil.RotateRightByteChecksum32(csum, []byte{b})
		}
	}
	return csum
}

// buildChecksumSector repeats the 32-bit checksum across an entire
// sector, per the exFAT spec's boot checksum sub-region layout.
func buildChecksumSector(checksum uint32) []byte {
	buf := make([]byte, exFATSectorSize)
	for i := 0; i+4 <= len(buf); i += 4 {
		binary.LittleEndian.PutUint32(buf[i:i+4], checksum)
	}
	return buf
}
