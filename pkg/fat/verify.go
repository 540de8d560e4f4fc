package fat

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"

	"github.com/vorteil/moses/pkg/moerr"
	"github.com/vorteil/moses/pkg/registry"
)

// Verify implements registry.Verifier: re-reads the boot sector(s) just
// written and checks the signatures/checksums Format itself
// constructed, catching a truncated or otherwise incomplete write.
func (f *Formatter) Verify(ctx context.Context, r io.ReadSeeker, opts registry.FormatOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	partitionOffset := int64(0)
	if createPartitionTableOption(opts) {
		partitionOffset = 2048
	}

	if f.version == ExFAT {
		return verifyExFAT(r, partitionOffset*exFATSectorSize)
	}
	return verifyFAT(f.version, r, partitionOffset*512)
}

func readSectorAt(r io.ReadSeeker, offset int64, n int) ([]byte, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, moerr.WrapIO(offset, err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, moerr.WrapIO(offset, err)
	}
	return buf, nil
}

func verifyFAT(version Version, r io.ReadSeeker, volumeStart int64) error {
	const sectorSize = 512

	boot, err := readSectorAt(r, volumeStart, sectorSize)
	if err != nil {
		return err
	}
	if sig := binary.LittleEndian.Uint16(boot[510:512]); sig != 0xAA55 {
		return &moerr.CorruptionError{Field: "boot sector signature", Expected: uint16(0xAA55), Actual: sig, Severity: moerr.Severe}
	}

	if version != FAT32 {
		return nil
	}

	backup, err := readSectorAt(r, volumeStart+6*sectorSize, sectorSize)
	if err != nil {
		return err
	}
	if !bytes.Equal(boot, backup) {
		return &moerr.CorruptionError{Field: "backup boot sector", Expected: boot, Actual: backup, Severity: moerr.Moderate}
	}

	fsInfo, err := readSectorAt(r, volumeStart+sectorSize, sectorSize)
	if err != nil {
		return err
	}
	if lead := binary.LittleEndian.Uint32(fsInfo[0:4]); lead != 0x41615252 {
		return &moerr.CorruptionError{Field: "FSInfo lead signature", Expected: uint32(0x41615252), Actual: lead, Severity: moerr.Moderate}
	}

	return nil
}

func verifyExFAT(r io.ReadSeeker, volumeStart int64) error {
	boot, err := readSectorAt(r, volumeStart, exFATSectorSize)
	if err != nil {
		return err
	}
	if name := string(boot[3:11]); name != "EXFAT   " {
		return &moerr.CorruptionError{Field: "exFAT FileSystemName", Expected: "EXFAT   ", Actual: name, Severity: moerr.Severe}
	}
	if sig := binary.LittleEndian.Uint16(boot[510:512]); sig != 0xAA55 {
		return &moerr.CorruptionError{Field: "exFAT boot sector signature", Expected: uint16(0xAA55), Actual: sig, Severity: moerr.Severe}
	}

	sectors := make([][]byte, 11)
	sectors[0] = boot
	for i := 1; i < 11; i++ {
		sector, err := readSectorAt(r, volumeStart+int64(i)*exFATSectorSize, exFATSectorSize)
		if err != nil {
			return err
		}
		sectors[i] = sector
	}
	want := exFATBootRegionChecksum(sectors)

	checksumSector, err := readSectorAt(r, volumeStart+11*exFATSectorSize, exFATSectorSize)
	if err != nil {
		return err
	}
	if got := binary.LittleEndian.Uint32(checksumSector[0:4]); got != want {
		return &moerr.CorruptionError{Field: "exFAT boot region checksum", Expected: want, Actual: got, Severity: moerr.Severe}
	}

	return nil
}
