package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"
	"fmt"
)

// usaCount returns the number of Update Sequence Array entries a record
// of recordSize needs: one USN slot plus one entry per 512-byte sector,
// per spec.md §3's USA/fixup description.
func usaCount(recordSize uint32) uint16 {
	return uint16(recordSize/SectorSize) + 1
}

// ApplyFixup stamps a nonzero USN into the USA slot at usaOffset and
// into the last 2 bytes of every 512-byte sector of record, saving the
// original sector-tail bytes into the USA entries that follow the USN.
// record must already have its USA offset/count fields written.
func ApplyFixup(record []byte, usaOffset uint16, usn uint16) error {
	if usn == 0 {
		usn = 1
	}
	count := usaCount(uint32(len(record)))
	needed := int(usaOffset) + int(count)*2
	if needed > len(record) {
		return fmt.Errorf("ntfs: record too small for USA (need %d bytes, have %d)", needed, len(record))
	}

	binary.LittleEndian.PutUint16(record[usaOffset:], usn)
	for i := 0; i < int(count)-1; i++ {
		tailOff := (i+1)*SectorSize - 2
		if tailOff+2 > len(record) {
			break
		}
		entryOff := int(usaOffset) + 2 + i*2
		copy(record[entryOff:entryOff+2], record[tailOff:tailOff+2])
		binary.LittleEndian.PutUint16(record[tailOff:], usn)
	}
	return nil
}

// VerifyFixup checks that every sector tail of record carries the
// stamped USN, then restores the original sector-tail bytes from the
// USA. Returns an error describing the first torn sector found.
func VerifyFixup(record []byte, usaOffset uint16) error {
	count := usaCount(uint32(len(record)))
	usn := binary.LittleEndian.Uint16(record[usaOffset:])

	for i := 0; i < int(count)-1; i++ {
		tailOff := (i+1)*SectorSize - 2
		if tailOff+2 > len(record) {
			break
		}
		got := binary.LittleEndian.Uint16(record[tailOff:])
		if got != usn {
			return fmt.Errorf("ntfs: torn write detected in sector %d (usn mismatch)", i)
		}
		entryOff := int(usaOffset) + 2 + i*2
		copy(record[tailOff:tailOff+2], record[entryOff:entryOff+2])
	}
	return nil
}
