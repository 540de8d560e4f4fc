// Package ext implements a single superblock/inode/group-descriptor
// engine parametrized across ext2, ext3, and ext4, generalized from the
// teacher's ext4-only, flex-group-only pkg/ext4 writer (no version
// discrimination, no checksums, no 64BIT) into the version matrix Moses
// needs.
package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

// Version names one of the three on-disk ext revisions this package can
// emit.
type Version int

const (
	Ext2 Version = iota
	Ext3
	Ext4
)

func (v Version) String() string {
	switch v {
	case Ext2:
		return "ext2"
	case Ext3:
		return "ext3"
	case Ext4:
		return "ext4"
	default:
		return "ext?"
	}
}

// sixteenGiB is the device-size threshold at or above which ext4 turns on
// 64BIT group descriptors, per spec.md's ext4 rule.
const sixteenGiB = 16 << 30

// Config is the small set of version-varying decisions the shared
// layout/superblock/inode engine delegates to: feature flags, inode
// size, and whether the root inode's i_block holds an extent header or
// classic indirect pointers. Everything else (layout math, bitmap
// seeding, checksum ordering) is version-independent.
type Config struct {
	Version         Version
	UseJournal      bool
	UseExtents      bool
	Use64Bit        bool
	UseMetadataCsum bool
	InodeSize       uint16
	Revision        uint32
}

// NewConfig derives the feature configuration for version against a
// device of deviceBytes, applying spec.md's version table:
//
//	ext2: rev 0, inode_size 128, no journal, no extents, no 64-bit, no csum.
//	ext3: rev 1, inode_size 256, HAS_JOURNAL (inode 8), no extents, no 64-bit, no csum.
//	ext4: rev 1, inode_size 256, EXTENTS, 64BIT if device >= 16 GiB,
//	      METADATA_CSUM + DIR_INDEX + SPARSE_SUPER + LARGE_FILE.
func NewConfig(version Version, deviceBytes uint64) Config {
	switch version {
	case Ext2:
		return Config{Version: Ext2, InodeSize: 128, Revision: 0}
	case Ext3:
		return Config{Version: Ext3, UseJournal: true, InodeSize: 256, Revision: 1}
	default:
		return Config{
			Version:         Ext4,
			UseExtents:      true,
			Use64Bit:        deviceBytes >= sixteenGiB,
			UseMetadataCsum: true,
			InodeSize:       256,
			Revision:        1,
		}
	}
}

// FeatureCompat returns the s_feature_compat bitmask for cfg.
func (cfg Config) FeatureCompat() uint32 {
	var f uint32
	if cfg.UseJournal {
		f |= CompatHasJournal
	}
	if cfg.Version == Ext4 {
		f |= CompatDirIndex
	}
	return f
}

// FeatureIncompat returns the s_feature_incompat bitmask for cfg.
func (cfg Config) FeatureIncompat() uint32 {
	var f uint32
	f |= IncompatFiletype
	if cfg.UseExtents {
		f |= IncompatExtents
	}
	if cfg.Use64Bit {
		f |= Incompat64Bit
	}
	return f
}

// FeatureROCompat returns the s_feature_ro_compat bitmask for cfg.
func (cfg Config) FeatureROCompat() uint32 {
	var f uint32
	if cfg.Version == Ext4 {
		f |= ROCompatSparseSuper | ROCompatLargeFile
	}
	if cfg.UseMetadataCsum {
		f |= ROCompatMetadataCsum
	}
	return f
}

// GroupDescriptorSize returns 64 when 64BIT group descriptors are in
// play, else the classic 32-byte descriptor size.
func (cfg Config) GroupDescriptorSize() uint16 {
	if cfg.Use64Bit {
		return 64
	}
	return 32
}

// JournalInodeNumber returns the reserved inode ext3/4 use for the
// journal when UseJournal is set.
const JournalInodeNumber = 8
