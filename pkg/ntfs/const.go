package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

// SectorSize is the only sector size this formatter emits; NTFS allows
// others but every producer in the wild defaults to 512.
const SectorSize = 512

// Attribute type codes, per the reverse-engineered consensus NTFS
// on-disk format (ntfs-3g's layout.h numbering).
const (
	AttrStandardInformation uint32 = 0x10
	AttrAttributeList       uint32 = 0x20
	AttrFileName            uint32 = 0x30
	AttrObjectID            uint32 = 0x40
	AttrSecurityDescriptor  uint32 = 0x50
	AttrVolumeName          uint32 = 0x60
	AttrVolumeInformation   uint32 = 0x70
	AttrData                uint32 = 0x80
	AttrIndexRoot           uint32 = 0x90
	AttrIndexAllocation     uint32 = 0xA0
	AttrBitmap              uint32 = 0xB0
	AttrEndOfAttributes     uint32 = 0xFFFFFFFF
)

// MFT record (file) flags.
const (
	FlagInUse      uint16 = 0x0001
	FlagIsDirectory uint16 = 0x0002
)

// System MFT record numbers, fixed by the NTFS on-disk convention.
const (
	RecordMFT       = 0
	RecordMFTMirr   = 1
	RecordLogFile   = 2
	RecordVolume    = 3
	RecordAttrDef   = 4
	RecordRoot      = 5
	RecordBitmap    = 6
	RecordBoot      = 7
	RecordBadClus   = 8
	RecordSecure    = 9
	RecordUpCase    = 10
	RecordExtend    = 11
	SystemRecordCount = 16
)

// CollationFileName is the collation rule stamped into INDEX_ROOT when
// the indexed attribute is $FILE_NAME.
const CollationFileName uint32 = 0x01

// Index entry flags.
const (
	IndexEntryHasSubnode uint16 = 0x01
	IndexEntryEnd        uint16 = 0x02
)

// FILE_NAME namespace values.
const (
	FileNameNamespacePOSIX    uint8 = 0
	FileNameNamespaceWin32    uint8 = 1
	FileNameNamespaceDOS      uint8 = 2
	FileNameNamespaceWin32DOS uint8 = 3
)

// File attribute bits carried inside FILE_NAME and STANDARD_INFORMATION.
const (
	FileAttributeReadOnly  uint32 = 0x0001
	FileAttributeHidden    uint32 = 0x0002
	FileAttributeSystem    uint32 = 0x0004
	FileAttributeDirectory uint32 = 0x10000000
	FileAttributeArchive   uint32 = 0x0020
	FileAttributeNormal    uint32 = 0x0080
)
