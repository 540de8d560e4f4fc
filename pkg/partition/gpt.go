package partition

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"

	"github.com/google/uuid"
	"github.com/vorteil/moses/pkg/fsutil"
)

// Various GPT build constants, identical in value to the teacher's
// vimg package but generalized to a single data partition.
const (
	GPTSignature            = 0x5452415020494645 // "EFI PART" (little-endian)
	GPTHeaderSize           = 92
	MaximumGPTEntries       = 128
	GPTEntrySize            = 128
	GPTEntriesSectors       = MaximumGPTEntries * GPTEntrySize / SectorSize
	PrimaryGPTHeaderLBA     = 1
	PrimaryGPTEntriesLBA    = PrimaryGPTHeaderLBA + 1
	PartitionFirstLBA       = PrimaryGPTEntriesLBA + GPTEntriesSectors
)

// GPT type GUIDs keyed by filesystem family.
var (
	TypeGUIDMicrosoftBasicData = mustParseGUID("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7")
	TypeGUIDLinuxFilesystem    = mustParseGUID("0FC63DAF-8483-4772-8E79-3D69D8477DE4")
)

func mustParseGUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// GPTHeader is the structure of a GUID Partition Table Header as it
// appears on disk, identical byte-for-byte to the teacher's
// vimg.GPTHeader.
type GPTHeader struct {
	Signature      uint64
	Revision       [4]byte
	HeaderSize     uint32
	CRC            uint32
	_              uint32
	CurrentLBA     uint64
	BackupLBA      uint64
	FirstUsableLBA uint64
	LastUsableLBA  uint64
	GUID           [16]byte
	StartLBAParts  uint64
	NoOfParts      uint32
	SizePartEntry  uint32
	CRCParts       uint32
	_              [420]byte
}

// GPTEntry is the structure of a GUID Partition Table entry as it
// appears on disk.
type GPTEntry struct {
	TypeGUID      [16]byte
	PartitionGUID [16]byte
	FirstLBA      uint64
	LastLBA       uint64
	Attributes    uint64
	Name          [72]byte
}

// Layout captures the geometry a GPT write needs once the device size
// and partition type are known.
type Layout struct {
	DeviceSectors       uint64
	FirstUsableLBA      uint64
	LastUsableLBA       uint64
	SecondaryHeaderLBA  uint64
	SecondaryEntriesLBA uint64
	PartitionFirstLBA   uint64
	PartitionLastLBA    uint64
	DiskGUID            uuid.UUID
	PartitionGUID       uuid.UUID
	PartitionTypeGUID   uuid.UUID
	PartitionName       string
}

// NewLayout computes the single-partition GPT geometry for a device of
// deviceSectors 512-byte sectors, spanning from PartitionFirstLBA to
// lastUsableLBA.
func NewLayout(deviceSectors uint64, typeGUID uuid.UUID, name string) Layout {
	secondaryEntriesLBA := deviceSectors - 1 - GPTEntriesSectors
	lastUsableLBA := secondaryEntriesLBA - 1

	return Layout{
		DeviceSectors:       deviceSectors,
		FirstUsableLBA:      PartitionFirstLBA,
		LastUsableLBA:       lastUsableLBA,
		SecondaryHeaderLBA:  deviceSectors - 1,
		SecondaryEntriesLBA: secondaryEntriesLBA,
		PartitionFirstLBA:   PartitionFirstLBA,
		PartitionLastLBA:    lastUsableLBA,
		DiskGUID:            uuid.New(),
		PartitionGUID:       uuid.New(),
		PartitionTypeGUID:   typeGUID,
		PartitionName:       name,
	}
}

// buildEntries serializes the single partition entry into a full
// MaximumGPTEntries*GPTEntrySize-byte array (zero-padded) and returns
// both the bytes and their CRC32, matching the teacher's two-step
// "checksum the array, then checksum the header" ordering.
func (l Layout) buildEntries() ([]byte, uint32) {
	entry := GPTEntry{
		FirstLBA: l.PartitionFirstLBA,
		LastLBA:  l.PartitionLastLBA,
	}
	copy(entry.TypeGUID[:], reverseMixedEndianGUID(l.PartitionTypeGUID))
	copy(entry.PartitionGUID[:], reverseMixedEndianGUID(l.PartitionGUID))
	copy(entry.Name[:], fsutil.UTF16LE(l.PartitionName))

	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, entry)

	full := make([]byte, MaximumGPTEntries*GPTEntrySize)
	copy(full, buf.Bytes())

	return full, fsutil.CRC32(full)
}

// reverseMixedEndianGUID converts a textual-order UUID (as parsed by
// google/uuid, which keeps RFC 4122 byte order) into the mixed-endian
// layout the GPT spec requires: the first three fields are little-endian,
// the last two are stored byte-for-byte as in the text representation.
func reverseMixedEndianGUID(id uuid.UUID) []byte {
	b := make([]byte, 16)
	copy(b, id[:])
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	b[4], b[5] = b[5], b[4]
	b[6], b[7] = b[7], b[6]
	return b
}

func writeGPTHeader(ctx context.Context, w io.WriteSeeker, offset int64, currentLBA, backupLBA uint64, l Layout, entriesLBA uint64, entriesCRC uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := w.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	hdr := GPTHeader{
		Signature:      GPTSignature,
		Revision:       [4]byte{0, 0, 1, 0},
		HeaderSize:     GPTHeaderSize,
		CurrentLBA:     currentLBA,
		BackupLBA:      backupLBA,
		FirstUsableLBA: l.FirstUsableLBA,
		LastUsableLBA:  l.LastUsableLBA,
		StartLBAParts:  entriesLBA,
		NoOfParts:      MaximumGPTEntries,
		SizePartEntry:  GPTEntrySize,
		CRCParts:       entriesCRC,
	}
	copy(hdr.GUID[:], reverseMixedEndianGUID(l.DiskGUID))

	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, hdr)
	hdr.CRC = fsutil.CRC32(buf.Bytes()[:GPTHeaderSize])

	return binary.Write(w, binary.LittleEndian, &hdr)
}

// WriteGPT writes the protective MBR, primary GPT header+entries, and
// backup GPT entries+header (in that write order: the backup structures
// at the device tail are written last) for the single-partition layout
// l.
func WriteGPT(ctx context.Context, w io.WriteSeeker, l Layout, signature uint32) error {
	if err := WriteProtectiveMBR(ctx, w, l.DeviceSectors, signature); err != nil {
		return err
	}

	entries, entriesCRC := l.buildEntries()

	if err := writeGPTHeader(ctx, w, PrimaryGPTHeaderLBA*SectorSize, PrimaryGPTHeaderLBA, l.SecondaryHeaderLBA, l, PrimaryGPTEntriesLBA, entriesCRC); err != nil {
		return err
	}
	if err := writeEntriesAt(ctx, w, PrimaryGPTEntriesLBA*SectorSize, entries); err != nil {
		return err
	}

	if err := writeEntriesAt(ctx, w, int64(l.SecondaryEntriesLBA)*SectorSize, entries); err != nil {
		return err
	}
	if err := writeGPTHeader(ctx, w, int64(l.SecondaryHeaderLBA)*SectorSize, l.SecondaryHeaderLBA, PrimaryGPTHeaderLBA, l, l.SecondaryEntriesLBA, entriesCRC); err != nil {
		return err
	}

	return nil
}

func writeEntriesAt(ctx context.Context, w io.WriteSeeker, offset int64, entries []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := w.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	_, err := w.Write(entries)
	return err
}
