package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"github.com/vorteil/moses/pkg/fsutil"
	"github.com/vorteil/moses/pkg/moerr"
)

const (
	SectorSize = 512

	// RootInode and LostFoundInode are the two directory inodes every
	// ext filesystem ships with. Inodes 1..10 are reserved; 11 is the
	// first non-reserved inode and is traditionally handed to
	// lost+found.
	RootInode       = 2
	LostFoundInode  = 11
	FirstNonReserved = 11

	// lostFoundTargetBytes is the padded size of the freshly formatted
	// lost+found directory, matching every mke2fs-compatible formatter.
	lostFoundTargetBytes = 16 * 1024

	minBlockSize = 1024
	maxBlockSize = 65536
)

// Layout is the derived on-disk geometry for one ext filesystem instance,
// generalized from the teacher's pkg/ext4 layout/super split into a
// version-independent record the shared superblock/inode/group-descriptor
// code consumes regardless of {ext2,ext3,ext4}.
type Layout struct {
	Config Config

	BlockSize                uint32
	TotalBlocks              uint64
	BlocksPerGroup           uint64
	InodesPerGroup           uint64
	NumGroups                uint64
	InodeTableBlocksPerGroup uint64
	GDTBlocks                uint64
	ReservedGDTBlocks        uint64
	FirstDataBlock           uint64
	LostFoundBlocks          uint64
	RootDirBlocks            uint64
	SparseSuper              bool
}

// ComputeLayout derives a Layout from a device size, requested block
// size, and version configuration, following spec.md §4.5 step 1
// verbatim: blocks_per_group = 8*block_size, inodes_per_group =
// min(8192, blocks_per_group), num_groups = ceil(total_blocks /
// blocks_per_group), inode_table_blocks = ceil(inodes_per_group *
// inode_size / block_size), reserved_gdt_blocks sized for future resize.
func ComputeLayout(deviceBytes uint64, blockSize uint32, cfg Config) (Layout, error) {
	if blockSize < minBlockSize || blockSize > maxBlockSize || !fsutil.IsPowerOfTwo(int(blockSize)) {
		return Layout{}, &moerr.OptionInvalidError{Kind: moerr.InvalidClusterSize, Field: "block_size"}
	}

	totalBlocks := deviceBytes / uint64(blockSize)

	blocksPerGroup := uint64(8) * uint64(blockSize)
	inodesPerGroup := uint64(8192)
	if blocksPerGroup < inodesPerGroup {
		inodesPerGroup = blocksPerGroup
	}

	numGroups := fsutil.DivideUp64(int64(totalBlocks), int64(blocksPerGroup))
	if numGroups < 1 {
		return Layout{}, &moerr.LayoutInfeasibleError{
			Kind: moerr.DeviceTooSmall, Wanted: int64(blocksPerGroup), Got: int64(totalBlocks),
			Detail: "device too small to hold a single ext block group",
		}
	}

	descSize := int64(cfg.GroupDescriptorSize())
	descriptorsPerBlock := int64(blockSize) / descSize
	inodeTableBlocksPerGroup := fsutil.DivideUp64(int64(inodesPerGroup)*int64(cfg.InodeSize), int64(blockSize))
	gdtBlocks := fsutil.DivideUp64(numGroups*descSize, int64(blockSize))

	growthGroups := numGroups * 1024
	growthGDTBlocks := fsutil.DivideUp64(growthGroups*descSize, int64(blockSize))
	reservedGDTBlocks := growthGDTBlocks - gdtBlocks
	if reservedGDTBlocks < 1 {
		reservedGDTBlocks = 1
	}
	_ = descriptorsPerBlock

	firstDataBlock := uint64(0)
	if blockSize == 1024 {
		firstDataBlock = 1
	}

	lostFoundBlocks := fsutil.DivideUp64(lostFoundTargetBytes, int64(blockSize))

	l := Layout{
		Config:                   cfg,
		BlockSize:                blockSize,
		TotalBlocks:              totalBlocks,
		BlocksPerGroup:           blocksPerGroup,
		InodesPerGroup:           inodesPerGroup,
		NumGroups:                uint64(numGroups),
		InodeTableBlocksPerGroup: uint64(inodeTableBlocksPerGroup),
		GDTBlocks:                uint64(gdtBlocks),
		ReservedGDTBlocks:        uint64(reservedGDTBlocks),
		FirstDataBlock:           firstDataBlock,
		LostFoundBlocks:          uint64(lostFoundBlocks),
		RootDirBlocks:            1,
		SparseSuper:              cfg.FeatureROCompat()&ROCompatSparseSuper != 0,
	}

	if l.BlocksInGroup(0) < 2+l.InodeTableBlocksPerGroup+1+l.GDTBlocks+l.ReservedGDTBlocks+l.RootDirBlocks+l.LostFoundBlocks {
		return Layout{}, &moerr.LayoutInfeasibleError{
			Kind: moerr.DeviceTooSmall, Wanted: int64(l.MetadataBlocksInGroup(0)), Got: int64(l.BlocksInGroup(0)),
			Detail: "device too small to hold group 0's metadata and seed directories",
		}
	}

	return l, nil
}

// IsSparseSuperGroup reports whether group g carries a superblock and
// group-descriptor-table backup. Without SPARSE_SUPER every group does
// (classic ext2 behavior); with it, only groups 0, 1, and powers of
// 3, 5, and 7 do.
func (l Layout) IsSparseSuperGroup(g uint64) bool {
	if !l.SparseSuper {
		return true
	}
	if g == 0 || g == 1 {
		return true
	}
	return isPowerOf(g, 3) || isPowerOf(g, 5) || isPowerOf(g, 7)
}

func isPowerOf(n, base uint64) bool {
	if n < base {
		return false
	}
	for n%base == 0 {
		n /= base
		if n == 1 {
			return true
		}
	}
	return false
}

// MetadataBlocksInGroup returns the block count group g spends on
// metadata (superblock/GDT backup when present, plus bitmaps and the
// inode table), excluding data blocks.
func (l Layout) MetadataBlocksInGroup(g uint64) uint64 {
	m := uint64(2) + l.InodeTableBlocksPerGroup
	if l.IsSparseSuperGroup(g) {
		m += 1 + l.GDTBlocks + l.ReservedGDTBlocks
	}
	return m
}

// BlocksInGroup returns the number of blocks group g spans, accounting
// for a short final group.
func (l Layout) BlocksInGroup(g uint64) uint64 {
	if (g+1)*l.BlocksPerGroup > l.TotalBlocks {
		return l.TotalBlocks - g*l.BlocksPerGroup
	}
	return l.BlocksPerGroup
}

// GroupStartBlock returns the first block address of group g.
func (l Layout) GroupStartBlock(g uint64) uint64 {
	return l.FirstDataBlock + g*l.BlocksPerGroup
}

// LogBlockSize returns the superblock's s_log_block_size field:
// log2(block_size) - 10.
func (l Layout) LogBlockSize() uint32 {
	return uint32(fsutil.Log2(int(l.BlockSize)) - 10)
}
