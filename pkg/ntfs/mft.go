package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"
	"fmt"
)

// mftHeaderSize is the fixed portion of an MFT record before its USA,
// per the reverse-engineered consensus NTFS 3.1 layout.
const mftHeaderSize = 0x2A

// MFTRecordBuilder assembles one MFT record's attribute stream, then
// finalizes it (header fields, USA, fixup) into its raw wire bytes.
type MFTRecordBuilder struct {
	RecordSize uint32
	RecordNum  uint32
	Flags      uint16
	BaseRef    uint64
	LinkCount  uint16
	attrs      [][]byte
	nextAttrID uint16
}

// NewMFTRecordBuilder starts a record of the given size and number.
func NewMFTRecordBuilder(recordSize uint32, recordNum uint32, flags uint16) *MFTRecordBuilder {
	return &MFTRecordBuilder{
		RecordSize: recordSize,
		RecordNum:  recordNum,
		Flags:      flags | FlagInUse,
		LinkCount:  1,
	}
}

// AppendAttribute adds an already-encoded attribute record (resident or
// non-resident) to the record, stamping its attribute ID.
func (b *MFTRecordBuilder) AppendAttribute(attr []byte) {
	if len(attr) >= 0x0E+2 {
		binary.LittleEndian.PutUint16(attr[0x0E:], b.nextAttrID)
		b.nextAttrID++
	}
	b.attrs = append(b.attrs, attr)
}

// Finalize lays out the header, attribute stream, end marker, and USA,
// then applies the fixup and returns the raw record bytes.
func (b *MFTRecordBuilder) Finalize(usn uint16) ([]byte, error) {
	usaOff := uint16(mftHeaderSize)
	count := usaCount(b.RecordSize)
	attrsOffset := align8(int(usaOff) + int(count)*2)

	var attrLen int
	for _, a := range b.attrs {
		attrLen += len(a)
	}
	end := BuildEndMarker()
	bytesUsed := align8(attrsOffset + attrLen + len(end))
	if uint32(bytesUsed) > b.RecordSize {
		return nil, fmt.Errorf("ntfs: mft record %d overflowed (%d > %d bytes)", b.RecordNum, bytesUsed, b.RecordSize)
	}

	record := make([]byte, b.RecordSize)
	copy(record[0x00:], []byte("FILE"))
	binary.LittleEndian.PutUint16(record[0x04:], usaOff)
	binary.LittleEndian.PutUint16(record[0x06:], count)
	binary.LittleEndian.PutUint16(record[0x10:], 1) // sequence number
	binary.LittleEndian.PutUint16(record[0x12:], b.LinkCount)
	binary.LittleEndian.PutUint16(record[0x14:], uint16(attrsOffset))
	binary.LittleEndian.PutUint16(record[0x16:], b.Flags)
	binary.LittleEndian.PutUint32(record[0x18:], uint32(bytesUsed))
	binary.LittleEndian.PutUint32(record[0x1C:], b.RecordSize)
	binary.LittleEndian.PutUint64(record[0x20:], b.BaseRef)
	binary.LittleEndian.PutUint16(record[0x28:], b.nextAttrID)

	pos := attrsOffset
	for _, a := range b.attrs {
		copy(record[pos:], a)
		pos += len(a)
	}
	copy(record[pos:], end)

	if err := ApplyFixup(record, usaOff, usn); err != nil {
		return nil, err
	}
	return record, nil
}

// EmptySystemRecord builds a bare in-use, non-directory system record
// (used for the reserved slots 12-15 spec.md's MFT seed sets aside).
func EmptySystemRecord(recordSize uint32, recordNum uint32, usn uint16) ([]byte, error) {
	b := NewMFTRecordBuilder(recordSize, recordNum, 0)
	return b.Finalize(usn)
}

// FindAttribute reverses the fixup on a copy of record and returns the
// raw bytes of its first attribute of the given type, if present.
func FindAttribute(record []byte, attrType uint32) ([]byte, bool) {
	usaOff := binary.LittleEndian.Uint16(record[0x04:])
	attrsOffset := int(binary.LittleEndian.Uint16(record[0x14:]))

	clean := make([]byte, len(record))
	copy(clean, record)
	if err := VerifyFixup(clean, usaOff); err != nil {
		return nil, false
	}

	pos := attrsOffset
	for pos+8 <= len(clean) {
		t := binary.LittleEndian.Uint32(clean[pos:])
		if t == AttrEndOfAttributes {
			return nil, false
		}
		length := binary.LittleEndian.Uint32(clean[pos+4:])
		if length == 0 || pos+int(length) > len(clean) {
			return nil, false
		}
		if t == attrType {
			out := make([]byte, length)
			copy(out, clean[pos:pos+int(length)])
			return out, true
		}
		pos += int(length)
	}
	return nil, false
}
