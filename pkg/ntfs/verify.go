package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/vorteil/moses/pkg/moerr"
	"github.com/vorteil/moses/pkg/registry"
)

// Verify implements registry.Verifier: re-reads the primary boot
// sector and the $MFT record (record 0) Format just wrote, checking
// the "NTFS    " OEM ID, the 0x55AA end signature, the "FILE" record
// magic, and the record's fixup array — catching a crash or truncated
// write that left either structure inconsistent.
func (f *Formatter) Verify(ctx context.Context, r io.ReadSeeker, opts registry.FormatOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return moerr.WrapIO(0, err)
	}
	l, err := ComputeLayout(uint64(size))
	if err != nil {
		return err
	}

	boot, err := readBytesAt(r, 0, SectorSize)
	if err != nil {
		return err
	}
	if oem := string(boot[3:11]); oem != "NTFS    " {
		return &moerr.CorruptionError{Field: "NTFS OEM ID", Expected: "NTFS    ", Actual: oem, Severity: moerr.Severe}
	}
	if sig := binary.LittleEndian.Uint16(boot[510:512]); sig != 0x55AA {
		return &moerr.CorruptionError{Field: "NTFS boot sector signature", Expected: uint16(0x55AA), Actual: sig, Severity: moerr.Severe}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	mftOffset := int64(l.MFTExtent.LCN) * int64(l.ClusterSize)
	record, err := readBytesAt(r, mftOffset, int(l.MFTRecordBytes))
	if err != nil {
		return err
	}
	if magic := string(record[0:4]); magic != "FILE" {
		return &moerr.CorruptionError{Field: "$MFT record 0 magic", Expected: "FILE", Actual: magic, Severity: moerr.Severe}
	}
	flags := binary.LittleEndian.Uint16(record[0x16:0x18])
	if flags&FlagInUse == 0 {
		return &moerr.CorruptionError{Field: "$MFT record 0 in-use flag", Expected: FlagInUse, Actual: flags, Severity: moerr.Severe}
	}
	usaOffset := binary.LittleEndian.Uint16(record[0x04:0x06])
	if err := VerifyFixup(record, usaOffset); err != nil {
		return &moerr.CorruptionError{Field: "$MFT record 0 fixup", Expected: "matching USA tail bytes", Actual: err.Error(), Severity: moerr.Severe}
	}

	return nil
}

func readBytesAt(r io.ReadSeeker, offset int64, n int) ([]byte, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, moerr.WrapIO(offset, err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, moerr.WrapIO(offset, err)
	}
	return buf, nil
}
