package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

const (
	Signature = 0xEF53

	SuperUID = 0
	SuperGID = 0
)

const (
	CompatDirPrealloc = 0x1  // COMPAT_DIR_PREALLOC
	CompatHasJournal  = 0x4  // COMPAT_HAS_JOURNAL
	CompatResizeInode = 0x10 // COMPAT_RESIZE_INODE
	CompatDirIndex    = 0x20 // COMPAT_DIR_INDEX
)

const (
	IncompatFiletype = 0x2   // INCOMPAT_FILETYPE
	IncompatExtents  = 0x40  // INCOMPAT_EXTENTS
	Incompat64Bit    = 0x80  // INCOMPAT_64BIT
	IncompatFlexBG   = 0x200 // INCOMPAT_FLEX_BG, unused here (layout is classic, not flex-group)
)

const (
	ROCompatSparseSuper  = 0x1   // RO_COMPAT_SPARSE_SUPER
	ROCompatLargeFile    = 0x2   // RO_COMPAT_LARGE_FILE
	ROCompatMetadataCsum = 0x400 // RO_COMPAT_METADATA_CSUM
)

const (
	// DirentHashVersion selects the TEA hash (version 2) for ext's HTree
	// directory index, carried over from the teacher's pkg/ext4.
	DirentHashVersion = 0x2

	FTypeRegularFile = 0x1 // FTYPE_REGULAR_FILE
	FTypeDir         = 0x2 // FTYPE_DIR
)

const (
	InodeTypeDirectory    = 0x4000
	InodeTypeRegularFile  = 0x8000
	InodeDirPermissions   = InodeTypeDirectory | 0755
	ExtentMagic           = 0xF30A
	Ext4ExtentsInodeFlag  = 0x00080000 // EXT4_EXTENTS_FL
)
