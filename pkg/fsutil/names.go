package fsutil

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"strings"
	"unicode/utf16"
)

// FATLabel encodes a volume label into FAT's 11-byte space-padded
// uppercase ASCII field, truncating anything longer.
func FATLabel(label string) [11]byte {
	var out [11]byte
	for i := range out {
		out[i] = ' '
	}
	upper := strings.ToUpper(label)
	n := copy(out[:], upper)
	_ = n
	return out
}

// PadASCII space-pads or truncates s to exactly n bytes, for fixed-width
// BPB fields like OEMName and FilSysType that carry plain ASCII text.
func PadASCII(s string, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = ' '
	}
	copy(out, s)
	return out
}

// UTF16LE encodes s as a sequence of little-endian UTF-16 code units,
// the representation exFAT filenames/labels and NTFS filenames/labels
// use throughout.
func UTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out
}

// UTF16LEPadded encodes s as UTF-16LE into a fixed-size buffer of
// codeUnits*2 bytes, truncating or zero-padding as needed. Used for
// exFAT's 15-code-unit volume label field.
func UTF16LEPadded(s string, codeUnits int) []byte {
	encoded := UTF16LE(s)
	out := make([]byte, codeUnits*2)
	n := copy(out, encoded)
	_ = n
	return out
}

// ExtLabel encodes a volume label into ext's 16-byte NUL-padded UTF-8
// field, truncating anything longer.
func ExtLabel(label string) [16]byte {
	var out [16]byte
	copy(out[:], label)
	return out
}

// ExFATNameHash computes exFAT's uppercased 16-bit fold over the name's
// UTF-16 code units: each code unit is upcased (via the standard
// exFAT upcase table, approximated here with simple ASCII/Latin-1
// case folding since Moses only emits ASCII-range labels/names) and
// folded into the running hash as csum = rotate_right(csum,1) + lo_byte,
// then csum = rotate_right(csum,1) + hi_byte.
func ExFATNameHash(seed uint16, name string) uint16 {
	csum := seed
	for _, u := range utf16.Encode([]rune(name)) {
		c := exfatUpcase(u)
		csum = RotateRightByteChecksum16(csum, []byte{byte(c)})
		csum = RotateRightByteChecksum16(csum, []byte{byte(c >> 8)})
	}
	return csum
}

// exfatUpcase applies the ASCII-range portion of the exFAT upcase table;
// anything outside 'a'-'z' passes through unchanged, which is correct
// for every label/filename Moses itself generates or validates.
func exfatUpcase(u uint16) uint16 {
	if u >= 'a' && u <= 'z' {
		return u - ('a' - 'A')
	}
	return u
}
