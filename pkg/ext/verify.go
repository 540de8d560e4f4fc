package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vorteil/moses/pkg/moerr"
	"github.com/vorteil/moses/pkg/registry"
)

const superblockSize = 1024

// Verify implements registry.Verifier: re-reads the primary superblock
// and every sparse-superblock backup Format wrote and checks the
// ext2/3/4 magic number and block-group number, catching a crash or
// truncated write that left a backup superblock stale or zeroed.
func (f *Formatter) Verify(ctx context.Context, r io.ReadSeeker, opts registry.FormatOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return moerr.WrapIO(0, err)
	}

	blockSize, err := blockSizeOption(opts, uint64(size))
	if err != nil {
		return err
	}
	cfg := NewConfig(f.version, uint64(size))
	l, err := ComputeLayout(uint64(size), blockSize, cfg)
	if err != nil {
		return err
	}

	for g := uint64(0); g < l.NumGroups; g++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !l.IsSparseSuperGroup(g) {
			continue
		}

		sbOffset := int64(l.GroupStartBlock(g)) * int64(l.BlockSize)
		if g == 0 {
			sbOffset = 1024
		}
		if _, err := r.Seek(sbOffset, io.SeekStart); err != nil {
			return moerr.WrapIO(sbOffset, err)
		}
		raw := make([]byte, superblockSize)
		if _, err := io.ReadFull(r, raw); err != nil {
			return moerr.WrapIO(sbOffset, err)
		}

		var sb Superblock
		if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &sb); err != nil {
			return moerr.WrapIO(sbOffset, err)
		}

		if sb.Magic != Signature {
			return &moerr.CorruptionError{
				Field:    fmt.Sprintf("group %d superblock magic", g),
				Expected: uint16(Signature),
				Actual:   sb.Magic,
				Severity: moerr.Severe,
			}
		}
		if uint64(sb.BlockGroupNr) != g {
			return &moerr.CorruptionError{
				Field:    fmt.Sprintf("group %d superblock block_group_nr", g),
				Expected: g,
				Actual:   sb.BlockGroupNr,
				Severity: moerr.Moderate,
			}
		}
	}

	return nil
}
