package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/vorteil/moses/pkg/fsutil"
)

// Superblock is the 1024-byte structure written at device offset 1024
// (or at block 0's offset 1024 when block_size==1024), laid out in the
// exact field order and width of the kernel ext4 on-disk superblock so
// that every byte spec.md §3 names lands at its documented offset. The
// teacher's pkg/ext4.Superblock covers only the ext4-shaped subset this
// package needs (no s_checksum, no named UUID/label fields); this
// struct widens that convention to carry the fields §4.5's algorithm
// and §8's golden scenarios assert on directly.
type Superblock struct {
	InodesCount        uint32   // 0x00
	BlocksCountLo      uint32   // 0x04
	ReservedBlocksLo   uint32   // 0x08
	FreeBlocksCountLo  uint32   // 0x0C
	FreeInodesCount    uint32   // 0x10
	FirstDataBlock     uint32   // 0x14
	LogBlockSize       uint32   // 0x18
	LogClusterSize     uint32   // 0x1C
	BlocksPerGroup     uint32   // 0x20
	ClustersPerGroup   uint32   // 0x24
	InodesPerGroup     uint32   // 0x28
	MountTime          uint32   // 0x2C
	WriteTime          uint32   // 0x30
	MountCount         uint16   // 0x34
	MaxMountCount      uint16   // 0x36
	Magic              uint16   // 0x38
	State              uint16   // 0x3A
	Errors             uint16   // 0x3C
	MinorRevLevel      uint16   // 0x3E
	LastCheck          uint32   // 0x40
	CheckInterval      uint32   // 0x44
	CreatorOS          uint32   // 0x48
	RevLevel           uint32   // 0x4C
	DefResUID          uint16   // 0x50
	DefResGID          uint16   // 0x52
	FirstIno           uint32   // 0x54
	InodeSize          uint16   // 0x58
	BlockGroupNr       uint16   // 0x5A
	FeatureCompat      uint32   // 0x5C
	FeatureIncompat    uint32   // 0x60
	FeatureROCompat    uint32   // 0x64
	UUID               [16]byte // 0x68
	VolumeName         [16]byte // 0x78
	LastMounted        [64]byte // 0x88
	AlgorithmUsageBmap uint32   // 0xC8
	PreallocBlocks     uint8    // 0xCC
	PreallocDirBlocks  uint8    // 0xCD
	ReservedGDTBlocks  uint16   // 0xCE
	JournalUUID        [16]byte // 0xD0
	JournalInum        uint32   // 0xE0
	JournalDev         uint32   // 0xE4
	LastOrphan         uint32   // 0xE8
	HashSeed           [4]uint32 // 0xEC
	DefHashVersion     uint8    // 0xFC
	JnlBackupType      uint8    // 0xFD
	DescSize           uint16   // 0xFE
	DefaultMountOpts   uint32   // 0x100
	FirstMetaBg        uint32   // 0x104
	MkfsTime           uint32   // 0x108
	JnlBlocks          [17]uint32 // 0x10C
	BlocksCountHi      uint32   // 0x150
	ReservedBlocksHi   uint32   // 0x154
	FreeBlocksCountHi  uint32   // 0x158
	MinExtraIsize      uint16   // 0x15C
	WantExtraIsize     uint16   // 0x15E
	Flags              uint32   // 0x160
	RaidStride         uint16   // 0x164
	MmpInterval        uint16   // 0x166
	MmpBlock           uint64   // 0x168
	RaidStripeWidth    uint32   // 0x170
	LogGroupsPerFlex   uint8    // 0x174
	ChecksumType       uint8    // 0x175
	_                  uint16   // 0x176 reserved pad
	KBytesWritten      uint64   // 0x178
	_                  [128]byte // 0x180..0x200 snapshot and error-log fields, unused by a freshly formatted filesystem
	MountOpts          [64]byte // 0x200
	_                  [8]byte  // 0x240 quota inodes, unused
	OverheadClusters   uint32   // 0x248
	BackupBGs          [2]uint32 // 0x24C
	_                  [4]byte  // 0x254 encrypt algos
	_                  [16]byte // 0x258 encrypt pw salt
	_                  uint32   // 0x268 lpf_ino
	_                  uint32   // 0x26C project quota inum
	ChecksumSeed       uint32   // 0x270
	_                  [6]byte  // 0x274..0x279 high-order time bytes, unused (pre-2038)
	_                  [2]byte  // 0x27A pad
	_                  [96]uint32 // 0x27C reserved
	Checksum           uint32   // 0x3FC
} // 0x400 == 1024 bytes

// BlockGroupDescriptor32 is the classic 32-byte block group descriptor.
type BlockGroupDescriptor32 struct {
	BlockBitmapLo uint32 // 0x0
	InodeBitmapLo uint32 // 0x4
	InodeTableLo  uint32 // 0x8
	FreeBlocksLo  uint16 // 0xC
	FreeInodesLo  uint16 // 0xE
	DirsCountLo   uint16 // 0x10
	Flags         uint16 // 0x12
	_             uint32 // 0x14 exclude bitmap lo, unused
	_             uint16 // 0x18 block bitmap csum lo, unused
	_             uint16 // 0x1A inode bitmap csum lo, unused
	ItableUnused  uint16 // 0x1C
	Checksum      uint16 // 0x1E
} // 0x20

// BlockGroupDescriptor64 extends the classic descriptor with the
// high-order halves 64BIT group descriptors add.
type BlockGroupDescriptor64 struct {
	BlockGroupDescriptor32
	BlockBitmapHi uint32 // 0x20
	InodeBitmapHi uint32 // 0x24
	InodeTableHi  uint32 // 0x28
	FreeBlocksHi  uint16 // 0x2C
	FreeInodesHi  uint16 // 0x2E
	DirsCountHi   uint16 // 0x30
	ItableUnusedHi uint16 // 0x32
	_             uint32 // 0x34 exclude bitmap hi, unused
	_             uint16 // 0x38 block bitmap csum hi, unused
	_             uint16 // 0x3A inode bitmap csum hi, unused
	_             uint32 // 0x3C reserved
} // 0x40

func encodeStruct(s interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// groupAccounting carries the per-group free-space/free-inode/directory
// counts the superblock and group descriptor table both need, mirroring
// the teacher's pkg/ext4 descriptor type.
type groupAccounting struct {
	freeBlocks uint64
	freeInodes uint64
	dirCount   uint16
}

// accountGroups computes per-group free-block and free-inode counts for
// a freshly formatted filesystem whose only consumed blocks/inodes are
// metadata overhead, the root directory, and lost+found, following
// spec.md §4.5 step 4.
func accountGroups(l Layout) []groupAccounting {
	groups := make([]groupAccounting, l.NumGroups)

	// group 0 additionally hosts the root dir and lost+found data
	// blocks, and inodes 1..11 are reserved/allocated.
	for g := uint64(0); g < l.NumGroups; g++ {
		blocksInGroup := l.BlocksInGroup(g)
		used := l.MetadataBlocksInGroup(g)
		if g == 0 {
			used += l.RootDirBlocks + l.LostFoundBlocks
		}
		groups[g].freeBlocks = blocksInGroup - used

		freeInodes := l.InodesPerGroup
		if g == 0 {
			freeInodes -= FirstNonReserved // inodes 1..10 reserved + inode 11 (lost+found)
		}
		groups[g].freeInodes = freeInodes
		if g == 0 {
			groups[g].dirCount = 2 // root + lost+found
		}
	}

	return groups
}

func totalFreeBlocks(groups []groupAccounting) uint64 {
	var x uint64
	for _, g := range groups {
		x += g.freeBlocks
	}
	return x
}

func totalFreeInodes(groups []groupAccounting) uint64 {
	var x uint64
	for _, g := range groups {
		x += g.freeInodes
	}
	return x
}

// BuildSuperblock fills in a Superblock for a freshly formatted
// filesystem described by l, with volume UUID uuid and label label, as
// of timestamp now. The returned struct's Checksum field is left zero;
// callers finalize it with FinalizeSuperblockChecksum after the whole
// 1024-byte image is otherwise complete.
func BuildSuperblock(l Layout, groups []groupAccounting, uuid [16]byte, label string, now time.Time) *Superblock {
	cfg := l.Config
	t := fsutil.UnixTimestamp(now)

	sb := &Superblock{
		InodesCount:       uint32(l.NumGroups * l.InodesPerGroup),
		BlocksCountLo:     uint32(l.TotalBlocks),
		FreeBlocksCountLo: uint32(totalFreeBlocks(groups)),
		FreeInodesCount:   uint32(totalFreeInodes(groups)),
		FirstDataBlock:    uint32(l.FirstDataBlock),
		LogBlockSize:      l.LogBlockSize(),
		LogClusterSize:    l.LogBlockSize(),
		BlocksPerGroup:    uint32(l.BlocksPerGroup),
		ClustersPerGroup:  uint32(l.BlocksPerGroup),
		InodesPerGroup:    uint32(l.InodesPerGroup),
		MountTime:         t,
		WriteTime:         t,
		MaxMountCount:     0xFFFF,
		Magic:             Signature,
		State:             1, // clean
		Errors:            1, // EXT2_ERRORS_CONTINUE
		LastCheck:         t,
		RevLevel:          cfg.Revision,
		FirstIno:          FirstNonReserved,
		InodeSize:         cfg.InodeSize,
		FeatureCompat:     cfg.FeatureCompat(),
		FeatureIncompat:   cfg.FeatureIncompat(),
		FeatureROCompat:   cfg.FeatureROCompat(),
		UUID:              uuid,
		VolumeName:        fsutil.ExtLabel(label),
		PreallocBlocks:    0,
		PreallocDirBlocks: 0,
		ReservedGDTBlocks: uint16(l.ReservedGDTBlocks),
		DefHashVersion:    DirentHashVersion,
		DescSize:          cfg.GroupDescriptorSize(),
		MkfsTime:          t,
		ChecksumType:      1, // crc32c
	}

	if cfg.UseJournal {
		sb.JournalInum = JournalInodeNumber
	}
	if cfg.Revision == 0 {
		// ext2 predates the dynamic revision's extended fields; the
		// kernel clears first_ino/inode_size in that case.
		sb.FirstIno = 0
		sb.InodeSize = 0
	}

	return sb
}

// FinalizeSuperblockChecksum stamps sb.Checksum with the CRC32C of the
// first 1020 bytes of its serialized form, seeded 0xFFFFFFFF and
// finished with the conventional final XOR, per spec.md §4.5 step 6.
// It is a no-op (leaves the checksum zero) when the configuration does
// not set METADATA_CSUM.
func FinalizeSuperblockChecksum(cfg Config, sb *Superblock) error {
	if !cfg.UseMetadataCsum {
		return nil
	}
	raw, err := encodeStruct(sb)
	if err != nil {
		return err
	}
	sb.Checksum = fsutil.CRC32CFinal(raw[:1020])
	return nil
}
