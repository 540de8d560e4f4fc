package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "encoding/binary"

// UpcaseTableSize is the fixed 64 KiB size of $UpCase's data, per
// spec.md §4.6 step 7: one uint16 uppercase mapping for each of the
// first 32768 UTF-16 code units (0x0000-0x7FFF).
const UpcaseTableSize = 64 * 1024

// BuildUpcaseTable returns the deterministic $UpCase mapping table.
// It covers the Basic Latin and Latin-1 Supplement letter ranges (the
// vast majority of real-world filenames) with the standard a-z/A-Z and
// agrave-thorn uppercase folds; every other code unit maps to itself.
// This is a faithful subset of the full Windows table rather than a
// complete Unicode case-folding implementation.
func BuildUpcaseTable() []byte {
	table := make([]byte, UpcaseTableSize)
	for cp := 0; cp < UpcaseTableSize/2; cp++ {
		upper := upcaseRune(rune(cp))
		binary.LittleEndian.PutUint16(table[cp*2:], uint16(upper))
	}
	return table
}

func upcaseRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z':
		return r - 0x20
	case r >= 0xE0 && r <= 0xFE && r != 0xF7:
		return r - 0x20
	case r == 0xFF:
		return 0x178 // latin small letter y with diaeresis -> Ÿ
	default:
		return r
	}
}
