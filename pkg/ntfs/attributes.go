package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bytes"
	"encoding/binary"
	"time"
	"unicode/utf16"

	"github.com/vorteil/moses/pkg/fsutil"
)

// align8 rounds n up to the next multiple of 8, the alignment every
// NTFS attribute record and index entry must satisfy.
func align8(n int) int {
	return (n + 7) &^ 7
}

func utf16le(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:], u)
	}
	return buf
}

// residentHeader is the common attribute header plus the resident-form
// trailer (value-length/value-offset/indexed), per spec.md §3.
type residentHeader struct {
	AttrType       uint32
	RecordLength   uint32
	NonResident    uint8
	NameLength     uint8
	NameOffset     uint16
	Flags          uint16
	AttributeID    uint16
	ValueLength    uint32
	ValueOffset    uint16
	IndexedFlag    uint8
	_              uint8
}

// BuildResidentAttribute encodes a resident attribute record: header,
// optional UTF-16LE name, then the value bytes, 8-byte aligned.
func BuildResidentAttribute(attrType uint32, name string, flags uint16, indexed bool, value []byte) []byte {
	const headerSize = 0x18
	nameBytes := utf16le(name)
	nameOffset := headerSize
	valueOffset := align8(nameOffset + len(nameBytes))
	total := align8(valueOffset + len(value))

	buf := make([]byte, total)
	h := residentHeader{
		AttrType:     attrType,
		RecordLength: uint32(total),
		NonResident:  0,
		NameLength:   uint8(len(nameBytes) / 2),
		NameOffset:   uint16(nameOffset),
		Flags:        flags,
		ValueLength:  uint32(len(value)),
		ValueOffset:  uint16(valueOffset),
	}
	if indexed {
		h.IndexedFlag = 1
	}

	binary.LittleEndian.PutUint32(buf[0x00:], h.AttrType)
	binary.LittleEndian.PutUint32(buf[0x04:], h.RecordLength)
	buf[0x08] = h.NonResident
	buf[0x09] = h.NameLength
	binary.LittleEndian.PutUint16(buf[0x0A:], h.NameOffset)
	binary.LittleEndian.PutUint16(buf[0x0C:], h.Flags)
	binary.LittleEndian.PutUint16(buf[0x0E:], h.AttributeID)
	binary.LittleEndian.PutUint32(buf[0x10:], h.ValueLength)
	binary.LittleEndian.PutUint16(buf[0x14:], h.ValueOffset)
	buf[0x16] = h.IndexedFlag

	copy(buf[nameOffset:], nameBytes)
	copy(buf[valueOffset:], value)
	return buf
}

// BuildNonResidentAttribute encodes a non-resident attribute record:
// header, data-run stream, per spec.md §3's starting/ending
// VCN/run-offset/compression-unit/size fields.
func BuildNonResidentAttribute(attrType uint32, name string, flags uint16,
	startVCN, endVCN uint64, runs []DataRun, allocatedSize, dataSize, initializedSize uint64) []byte {

	const headerSize = 0x40
	nameBytes := utf16le(name)
	nameOffset := headerSize
	runOffset := align8(nameOffset + len(nameBytes))
	runBytes := EncodeDataRuns(runs)
	total := align8(runOffset + len(runBytes))

	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0x00:], attrType)
	binary.LittleEndian.PutUint32(buf[0x04:], uint32(total))
	buf[0x08] = 1 // non-resident
	buf[0x09] = uint8(len(nameBytes) / 2)
	binary.LittleEndian.PutUint16(buf[0x0A:], uint16(nameOffset))
	binary.LittleEndian.PutUint16(buf[0x0C:], flags)
	binary.LittleEndian.PutUint64(buf[0x10:], startVCN)
	binary.LittleEndian.PutUint64(buf[0x18:], endVCN)
	binary.LittleEndian.PutUint16(buf[0x20:], uint16(runOffset))
	binary.LittleEndian.PutUint64(buf[0x28:], allocatedSize)
	binary.LittleEndian.PutUint64(buf[0x30:], dataSize)
	binary.LittleEndian.PutUint64(buf[0x38:], initializedSize)

	copy(buf[nameOffset:], nameBytes)
	copy(buf[runOffset:], runBytes)
	return buf
}

// BuildEndMarker returns the 8-byte attribute-list terminator (the
// 0xFFFFFFFF type code followed by four zero bytes) spec.md §3 requires
// after the last attribute.
func BuildEndMarker() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:], AttrEndOfAttributes)
	return b
}

// BuildStandardInformation encodes the resident $STANDARD_INFORMATION
// value: four FILETIME timestamps plus file attribute flags.
func BuildStandardInformation(created, modified, mftChanged, accessed time.Time, fileAttrs uint32) []byte {
	buf := new(bytes.Buffer)
	ft := fsutil.WindowsFILETIME
	binary.Write(buf, binary.LittleEndian, ft(created))
	binary.Write(buf, binary.LittleEndian, ft(modified))
	binary.Write(buf, binary.LittleEndian, ft(mftChanged))
	binary.Write(buf, binary.LittleEndian, ft(accessed))
	binary.Write(buf, binary.LittleEndian, fileAttrs)
	binary.Write(buf, binary.LittleEndian, uint32(0)) // maximum versions
	binary.Write(buf, binary.LittleEndian, uint32(0)) // version number
	binary.Write(buf, binary.LittleEndian, uint32(0)) // class id
	binary.Write(buf, binary.LittleEndian, uint32(0)) // owner id
	binary.Write(buf, binary.LittleEndian, uint32(0)) // security id
	binary.Write(buf, binary.LittleEndian, uint64(0)) // quota charged
	binary.Write(buf, binary.LittleEndian, uint64(0)) // USN
	return buf.Bytes()
}

// FileNameKey is the $FILE_NAME attribute value: parent directory
// reference, the four timestamps, allocated/real size, flags, and the
// Unicode-collated name itself.
type FileNameKey struct {
	ParentRef       uint64
	Created         time.Time
	Modified        time.Time
	MFTChanged      time.Time
	Accessed        time.Time
	AllocatedSize   uint64
	RealSize        uint64
	FileAttributes  uint32
	Name            string
	Namespace       uint8
}

// Encode serializes the FILE_NAME value, per spec.md §3/§4.6.
func (k FileNameKey) Encode() []byte {
	nameBytes := utf16le(k.Name)
	buf := make([]byte, 0x42+len(nameBytes))

	binary.LittleEndian.PutUint64(buf[0x00:], k.ParentRef)
	binary.LittleEndian.PutUint64(buf[0x08:], fsutil.WindowsFILETIME(k.Created))
	binary.LittleEndian.PutUint64(buf[0x10:], fsutil.WindowsFILETIME(k.Modified))
	binary.LittleEndian.PutUint64(buf[0x18:], fsutil.WindowsFILETIME(k.MFTChanged))
	binary.LittleEndian.PutUint64(buf[0x20:], fsutil.WindowsFILETIME(k.Accessed))
	binary.LittleEndian.PutUint64(buf[0x28:], k.AllocatedSize)
	binary.LittleEndian.PutUint64(buf[0x30:], k.RealSize)
	binary.LittleEndian.PutUint32(buf[0x38:], k.FileAttributes)
	binary.LittleEndian.PutUint32(buf[0x3C:], 0) // reparse/EA field
	buf[0x40] = uint8(len(nameBytes) / 2)
	buf[0x41] = k.Namespace
	copy(buf[0x42:], nameBytes)
	return buf
}

// BuildFileNameAttribute wraps a FileNameKey in a resident attribute
// record ready to append to an MFT record. FILE_NAME is always
// resident and always indexed within its parent directory.
func BuildFileNameAttribute(key FileNameKey) []byte {
	return BuildResidentAttribute(AttrFileName, "", 0, true, key.Encode())
}
