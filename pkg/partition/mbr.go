// Package partition builds MBR and GPT partition tables for a single
// data partition spanning (almost) the whole device, parametrized by the
// target filesystem's MBR type byte / GPT type GUID. It is generalized
// from the teacher's hardcoded two-partition Vorteil layout into a
// single-partition builder any formatter can call before writing its own
// filesystem structures.
package partition

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"encoding/binary"
	"io"
)

// SectorSize is the logical sector size assumed by every on-disk offset
// in this package. Formatters targeting devices with a different
// physical sector size still compute partition geometry in units of 512
// (the universal LBA convention) and let the device layer's alignment
// handle the rest.
const SectorSize = 512

// MBRType enumerates the partition type byte written into a classic MBR
// entry, keyed by filesystem.
type MBRType byte

const (
	MBRTypeFAT16         MBRType = 0x06
	MBRTypeFAT32CHS      MBRType = 0x0B
	MBRTypeFAT32LBA      MBRType = 0x0C
	MBRTypeNTFSOrExFAT   MBRType = 0x07
	MBRTypeLinux         MBRType = 0x83
	MBRTypeGPTProtective MBRType = 0xEE
)

// ProtectiveMBR is the structure of a master boot record as it appears
// on disk, identical byte-for-byte to the teacher's vimg.ProtectiveMBR.
type ProtectiveMBR struct {
	Bootloader    [446]byte
	Status        byte
	FirstCHS      [3]byte
	PartitionType byte
	LastCHS       [3]byte
	FirstLBA      uint32
	TotalSectors  uint32
	_             [48]byte
	MagicNumber   [2]byte
}

// chs encodes an LBA into the packed CHS triple MBR partition entries
// carry, clamping to 0xFE/0xFF/0xFF ("use LBA instead") once the LBA
// exceeds what CHS addressing (1024 cylinders x 255 heads x 63 sectors)
// can represent.
func chs(lba uint32) [3]byte {
	const maxCHSLBA = 1024 * 255 * 63
	if lba >= maxCHSLBA {
		return [3]byte{0xFE, 0xFF, 0xFF}
	}

	sector := lba%63 + 1
	temp := lba / 63
	head := temp % 255
	cylinder := temp / 255

	return [3]byte{
		byte(head),
		byte(sector) | byte((cylinder>>8)<<6),
		byte(cylinder),
	}
}

// WriteMBR writes a single-partition MBR at LBA 0 of w, sized to the
// remainder of deviceSectors after firstLBA. signature is the
// disk-signature field at offset 0x1B8; it must be nonzero for Windows
// to accept the disk. active marks the partition bootable.
func WriteMBR(ctx context.Context, w io.WriteSeeker, deviceSectors uint64, firstLBA uint32, partType MBRType, signature uint32, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return err
	}

	totalSectors := deviceSectors - uint64(firstLBA)
	if totalSectors > 0xFFFFFFFF {
		totalSectors = 0xFFFFFFFF
	}

	lastLBA := firstLBA + uint32(totalSectors) - 1

	status := byte(0x00)
	if active {
		status = 0x80
	}

	mbr := ProtectiveMBR{
		Status:        status,
		FirstCHS:      chs(firstLBA),
		PartitionType: byte(partType),
		LastCHS:       chs(lastLBA),
		FirstLBA:      firstLBA,
		TotalSectors:  uint32(totalSectors),
		MagicNumber:   [2]byte{0x55, 0xAA},
	}

	// The disk signature lives inside the bootloader stub region at
	// 0x1B8, four bytes before the first partition entry.
	binary.LittleEndian.PutUint32(mbr.Bootloader[0x1B8:0x1BC], signature)

	return binary.Write(w, binary.LittleEndian, &mbr)
}

// WriteProtectiveMBR writes the single type-0xEE entry covering the
// whole disk (capped at 0xFFFFFFFF sectors) that precedes every GPT.
func WriteProtectiveMBR(ctx context.Context, w io.WriteSeeker, deviceSectors uint64, signature uint32) error {
	return WriteMBR(ctx, w, deviceSectors, 1, MBRTypeGPTProtective, signature, false)
}

// PartitionEntriesOverlap reports whether two MBR-style [start,end) LBA
// ranges overlap.
func PartitionEntriesOverlap(aStart, aEnd, bStart, bEnd uint32) bool {
	return aStart < bEnd && bStart < aEnd
}
