package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

// DataRun describes one contiguous extent of an NTFS non-resident
// attribute: Length clusters, either starting at absolute cluster LCN
// or, if Sparse, representing a hole with no physical backing.
type DataRun struct {
	Length uint64
	LCN    int64
	Sparse bool
}

// minUnsignedBytes returns the fewest bytes needed to hold v as an
// unsigned little-endian value (at least 1 when v is nonzero).
func minUnsignedBytes(v uint64) int {
	n := 0
	for v > 0 {
		n++
		v >>= 8
	}
	if n == 0 {
		n = 1
	}
	return n
}

// minSignedBytes returns the fewest bytes needed to hold v as a
// two's-complement signed little-endian value.
func minSignedBytes(v int64) int {
	n := 1
	for {
		lo := -(int64(1) << (8*uint(n) - 1))
		hi := int64(1)<<(8*uint(n)-1) - 1
		if v >= lo && v <= hi {
			return n
		}
		n++
	}
}

// EncodeDataRuns serializes runs using NTFS's nibble-compressed data
// run format: a header byte (length-byte-count | offset-byte-count<<4)
// followed by a little-endian unsigned length and, for non-sparse runs,
// a little-endian signed LCN delta from the previous run. The stream
// is terminated by a single 0x00 byte, per spec.md §3.
func EncodeDataRuns(runs []DataRun) []byte {
	out := make([]byte, 0, len(runs)*4+1)
	prevLCN := int64(0)

	for _, r := range runs {
		lenBytes := minUnsignedBytes(r.Length)
		var offBytes int
		var delta int64
		if !r.Sparse {
			delta = r.LCN - prevLCN
			offBytes = minSignedBytes(delta)
			prevLCN = r.LCN
		}

		header := byte(lenBytes) | byte(offBytes<<4)
		out = append(out, header)

		lv := r.Length
		for i := 0; i < lenBytes; i++ {
			out = append(out, byte(lv))
			lv >>= 8
		}

		if !r.Sparse {
			dv := uint64(delta)
			for i := 0; i < offBytes; i++ {
				out = append(out, byte(dv))
				dv >>= 8
			}
		}
	}

	out = append(out, 0x00)
	return out
}

// DecodeDataRuns parses a nibble-compressed data run stream back into
// DataRun values. Used by tests to round-trip EncodeDataRuns.
func DecodeDataRuns(b []byte) []DataRun {
	var runs []DataRun
	prevLCN := int64(0)
	pos := 0

	for pos < len(b) {
		header := b[pos]
		if header == 0 {
			break
		}
		lenBytes := int(header & 0x0F)
		offBytes := int(header>>4) & 0x0F
		pos++

		var length uint64
		for i := 0; i < lenBytes; i++ {
			length |= uint64(b[pos+i]) << (8 * uint(i))
		}
		pos += lenBytes

		if offBytes == 0 {
			runs = append(runs, DataRun{Length: length, Sparse: true})
			continue
		}

		var raw uint64
		for i := 0; i < offBytes; i++ {
			raw |= uint64(b[pos+i]) << (8 * uint(i))
		}
		pos += offBytes

		signBit := uint64(1) << (8*uint(offBytes) - 1)
		delta := int64(raw)
		if raw&signBit != 0 {
			delta = int64(raw) - int64(signBit<<1)
		}
		prevLCN += delta
		runs = append(runs, DataRun{Length: length, LCN: prevLCN})
	}
	return runs
}
