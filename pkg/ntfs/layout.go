package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"github.com/vorteil/moses/pkg/fsutil"
	"github.com/vorteil/moses/pkg/moerr"
)

const (
	defaultMFTRecordBytes   = 1024
	defaultIndexRecordBytes = 4096
	logFileTargetBytes      = 64 << 20
	upcaseTargetBytes       = UpcaseTableSize
	mftReserveOffsetBytes   = 4 << 20 // "typically 4 MiB in", per spec.md §4.6
)

// Extent is a cluster-addressed contiguous run, the NTFS analogue of
// pkg/ext's block-addressed run.
type Extent struct {
	LCN    uint64
	Length uint64 // in clusters
}

// Layout is the resolved cluster/MFT geometry for one NTFS format.
type Layout struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ClusterSize       uint32
	TotalSectors      uint64
	TotalClusters     uint64
	MFTRecordBytes    uint32
	IndexRecordBytes  uint32

	MFTLCN     uint64
	MFTExtent  Extent // seeded 16-record table
	MFTMirr    Extent
	LogFile    Extent
	BitmapExt  Extent
	UpCaseExt  Extent
}

func clustersFor(bytesNeeded uint64, clusterSize uint32) uint64 {
	return uint64(fsutil.DivideUp64(int64(bytesNeeded), int64(clusterSize)))
}

// ComputeLayout resolves cluster size, the MFT/mirror/system-file
// placement, and validates the device is large enough to hold the
// reserved system extents spec.md §4.6 names.
func ComputeLayout(deviceBytes uint64) (Layout, error) {
	clusterSize := uint32(4096)
	if deviceBytes < 16<<20 {
		clusterSize = 512
	}
	sectorsPerCluster := uint8(clusterSize / SectorSize)

	totalSectors := deviceBytes / SectorSize
	totalClusters := totalSectors / uint64(sectorsPerCluster)

	l := Layout{
		BytesPerSector:    SectorSize,
		SectorsPerCluster: sectorsPerCluster,
		ClusterSize:       clusterSize,
		TotalSectors:      totalSectors,
		TotalClusters:     totalClusters,
		MFTRecordBytes:    defaultMFTRecordBytes,
		IndexRecordBytes:  defaultIndexRecordBytes,
	}

	cursor := uint64(1) // cluster 0 holds the boot sector region

	mftLCN := mftReserveOffsetBytes / uint64(clusterSize)
	if mftLCN < cursor {
		mftLCN = cursor
	}
	mftLen := clustersFor(uint64(SystemRecordCount)*uint64(defaultMFTRecordBytes), clusterSize)
	l.MFTLCN = mftLCN
	l.MFTExtent = Extent{LCN: mftLCN, Length: mftLen}
	cursor = mftLCN + mftLen

	mirrLen := clustersFor(4*uint64(defaultMFTRecordBytes), clusterSize)
	mirrLCN := totalClusters / 2
	if mirrLCN < cursor {
		mirrLCN = cursor
	}
	l.MFTMirr = Extent{LCN: mirrLCN, Length: mirrLen}
	cursor = mirrLCN + mirrLen

	logLen := clustersFor(logFileTargetBytes, clusterSize)
	maxLogClusters := totalClusters / 8
	if logLen > maxLogClusters {
		logLen = maxLogClusters
	}
	if logLen == 0 {
		logLen = 1
	}
	l.LogFile = Extent{LCN: cursor, Length: logLen}
	cursor += logLen

	bitmapBytes := uint64(fsutil.DivideUp64(int64(totalClusters), 8))
	bitmapLen := clustersFor(bitmapBytes, clusterSize)
	if bitmapLen == 0 {
		bitmapLen = 1
	}
	l.BitmapExt = Extent{LCN: cursor, Length: bitmapLen}
	cursor += bitmapLen

	upcaseLen := clustersFor(upcaseTargetBytes, clusterSize)
	l.UpCaseExt = Extent{LCN: cursor, Length: upcaseLen}
	cursor += upcaseLen

	if cursor >= totalClusters {
		return Layout{}, &moerr.LayoutInfeasibleError{
			Kind:   moerr.DeviceTooSmall,
			Wanted: int64(cursor * uint64(clusterSize)),
			Got:    int64(deviceBytes),
			Detail: "device too small to hold NTFS system files ($MFT/$MFTMirr/$LogFile/$Bitmap/$UpCase)",
		}
	}

	return l, nil
}
