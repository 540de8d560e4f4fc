// Package fat implements the FAT16, FAT32, and exFAT formatters sharing a
// common boot-sector/FAT-table engine. Offsets and field layouts are
// grounded on the pack's soypat-fat (github.com/soypat/fat)
// tables.go/sectors.go for FAT16/FAT32, and dsoprea-go-exfat's
// structures.go BootSectorHeader for exFAT.
package fat

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"github.com/vorteil/moses/pkg/moerr"
)

// Version selects which member of the FAT family to build.
type Version int

const (
	FAT16 Version = iota
	FAT32
	ExFAT
)

func (v Version) String() string {
	switch v {
	case FAT16:
		return "FAT16"
	case FAT32:
		return "FAT32"
	case ExFAT:
		return "exFAT"
	default:
		return "unknown"
	}
}

const (
	minFAT16Size = 16 << 20 // below this, no FAT16 cluster-size band applies
	maxFAT16Size = 4 << 30  // spec.md §4.4: FAT16 DeviceTooLarge above 4 GiB
	minFAT32Size = 32 << 20 // smallest FAT32 this engine will lay out cleanly
	maxFAT32Size = 2 << 40  // spec.md §4.4: FAT32 DeviceTooLarge above 2 TiB (512 B sectors)
	minExFATSize = 1 << 20  // exFAT spec floor: smallest volume no less than 1 MiB
)

// clusterSizeFAT16 implements the FAT16 cluster-size table from spec.md
// §4.4's literal band boundaries: 512 B up to 32 MiB, 1 KiB up to 64 MiB,
// 2 KiB up to 128 MiB, 4 KiB up to 256 MiB, 8 KiB up to 512 MiB, 16 KiB up
// to 1 GiB, 32 KiB up to 2 GiB, 64 KiB up to the 4 GiB maximum.
func clusterSizeFAT16(deviceBytes uint64) uint32 {
	switch {
	case deviceBytes <= 32<<20:
		return 512
	case deviceBytes <= 64<<20:
		return 1024
	case deviceBytes <= 128<<20:
		return 2048
	case deviceBytes <= 256<<20:
		return 4096
	case deviceBytes <= 512<<20:
		return 8192
	case deviceBytes <= 1<<30:
		return 16384
	case deviceBytes <= 2<<30:
		return 32768
	default:
		return 65536
	}
}

// clusterSizeFAT32 implements the FAT32 cluster-size table from spec.md
// §4.4: 512 B up to 260 MiB, then 4 KiB/8 KiB/16 KiB/32 KiB at
// <=8/16/32/>32 GiB respectively.
func clusterSizeFAT32(deviceBytes uint64) uint32 {
	switch {
	case deviceBytes <= 260<<20:
		return 512
	case deviceBytes <= 8<<30:
		return 4096
	case deviceBytes <= 16<<30:
		return 8192
	case deviceBytes <= 32<<30:
		return 16384
	default:
		return 32768
	}
}

// Geometry is the resolved layout parameters for a single FAT16 or FAT32
// format, computed from the device size, requested version, and optional
// cluster-size override.
type Geometry struct {
	Version           Version
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16 // FAT16 only; 0 for FAT32
	TotalSectors      uint32
	SectorsPerFAT     uint32
	RootDirSectors    uint32
	FirstDataSector   uint32
	TotalClusters     uint32
	PartitionFirstLBA uint32 // 0 when no partition table was requested
}

// computeGeometry resolves a full FAT16/FAT32 Geometry for deviceBytes,
// honoring a caller-requested cluster size override (0 means "use the
// size-based table"). partitionFirstLBA is 0 for a superfloppy-style
// format or 2048 when create_partition_table=true offset the filesystem.
func computeGeometry(deviceBytes uint64, version Version, clusterSizeOverride uint32, partitionFirstLBA uint32) (Geometry, error) {
	const bytesPerSector = 512

	if version == FAT16 {
		if deviceBytes > maxFAT16Size {
			return Geometry{}, &moerr.CapabilityRejectedError{Kind: moerr.AboveMaxSize, Formatter: "fat16", Detail: "device exceeds 4 GiB maximum"}
		}
	} else {
		if deviceBytes > maxFAT32Size {
			return Geometry{}, &moerr.CapabilityRejectedError{Kind: moerr.AboveMaxSize, Formatter: "fat32", Detail: "device exceeds 2 TiB maximum"}
		}
	}

	usableBytes := deviceBytes - uint64(partitionFirstLBA)*bytesPerSector

	var clusterSize uint32
	if clusterSizeOverride != 0 {
		clusterSize = clusterSizeOverride
	} else if version == FAT16 {
		clusterSize = clusterSizeFAT16(usableBytes)
	} else {
		clusterSize = clusterSizeFAT32(usableBytes)
	}
	sectorsPerCluster := uint8(clusterSize / bytesPerSector)
	if sectorsPerCluster == 0 {
		sectorsPerCluster = 1
	}

	var reserved uint16
	var numFATs uint8 = 2
	var rootEntries uint16
	if version == FAT16 {
		reserved = 1
		rootEntries = 512
	} else {
		reserved = 32
	}

	rootDirSectors := uint32(rootEntries*32+bytesPerSector-1) / bytesPerSector
	totalSectors := uint32(usableBytes / bytesPerSector)

	if totalSectors <= uint32(reserved)+rootDirSectors {
		return Geometry{}, &moerr.LayoutInfeasibleError{Kind: moerr.DeviceTooSmall, Wanted: int64(reserved) + int64(rootDirSectors), Got: int64(totalSectors), Detail: "device too small to hold reserved and root directory regions"}
	}

	entrySize := 2
	if version == FAT32 {
		entrySize = 4
	}

	// Iterative fixed-point computation of sectors-per-FAT: the FAT size
	// determines the data region size, which determines the cluster
	// count, which in turn determines how many FAT entries (and thus
	// sectors) are needed, per spec.md §4.4's "repeated until fixed
	// point" rule.
	fatSize := uint32(1)
	var clusters uint32
	for i := 0; i < 32; i++ {
		dataSectors := int64(totalSectors) - int64(reserved) - int64(rootDirSectors) - int64(numFATs)*int64(fatSize)
		if dataSectors < 0 {
			dataSectors = 0
		}
		clusters = uint32(dataSectors) / uint32(sectorsPerCluster)
		needed := (uint32(clusters)*uint32(entrySize) + bytesPerSector - 1) / bytesPerSector
		if needed == 0 {
			needed = 1
		}
		if needed == fatSize {
			break
		}
		fatSize = needed
	}

	if version == FAT16 {
		if clusters < 4085 || clusters > 65524 {
			return Geometry{}, &moerr.LayoutInfeasibleError{Kind: moerr.WrongClusterCount, Wanted: 4085, Got: int64(clusters), Detail: "FAT16 cluster count out of band"}
		}
	} else {
		if clusters < 65525 {
			return Geometry{}, &moerr.LayoutInfeasibleError{Kind: moerr.WrongClusterCount, Wanted: 65525, Got: int64(clusters), Detail: "FAT32 cluster count out of band"}
		}
	}

	g := Geometry{
		Version:           version,
		BytesPerSector:    bytesPerSector,
		SectorsPerCluster: sectorsPerCluster,
		ReservedSectors:   reserved,
		NumFATs:           numFATs,
		RootEntryCount:    rootEntries,
		TotalSectors:      totalSectors,
		SectorsPerFAT:     fatSize,
		RootDirSectors:    rootDirSectors,
		TotalClusters:     clusters,
		PartitionFirstLBA: partitionFirstLBA,
	}
	g.FirstDataSector = uint32(reserved) + uint32(numFATs)*fatSize + rootDirSectors
	return g, nil
}

// ClusterToSector converts a cluster number (>=2) to its absolute sector
// offset from the start of the volume (not the whole device).
func (g Geometry) ClusterToSector(cluster uint32) uint32 {
	return g.FirstDataSector + (cluster-2)*uint32(g.SectorsPerCluster)
}
