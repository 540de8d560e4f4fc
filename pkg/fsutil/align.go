package fsutil

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

// DivideUp performs integer division rounding towards positive infinity,
// the rounding rule used throughout on-disk layout formulas (sectors per
// FAT, blocks per group, inode-table block counts, and so on).
func DivideUp(a, b int) int {
	return (a + b - 1) / b
}

// DivideUp64 is the int64 counterpart of DivideUp.
func DivideUp64(a, b int64) int64 {
	return (a + b - 1) / b
}

// AlignUp rounds size up to the next multiple of align.
func AlignUp(size, align int) int {
	if align <= 0 {
		return size
	}
	return DivideUp(size, align) * align
}

// AlignUp64 is the int64 counterpart of AlignUp.
func AlignUp64(size, align int64) int64 {
	if align <= 0 {
		return size
	}
	return DivideUp64(size, align) * align
}

// Log2 returns floor(log2(n)) for a positive power-of-two n, used for the
// ext `s_log_block_size` field (log2(block_size)-10) and FAT/NTFS
// power-of-two cluster validation.
func Log2(n int) int {
	if n <= 0 {
		panic("fsutil: Log2 of non-positive value")
	}
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

// IsPowerOfTwo reports whether n is a positive power of two, the
// constraint both ext block sizes and NTFS/exFAT cluster sizes must
// satisfy.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
