package fsutil

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "time"

// ntfsEpochOffsetSeconds is the number of seconds between the NTFS/Windows
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const ntfsEpochOffsetSeconds = 11644473600

// UnixTimestamp returns t truncated to whole seconds since the Unix
// epoch, the representation used by every ext inode/superblock time
// field.
func UnixTimestamp(t time.Time) uint32 {
	return uint32(t.Unix())
}

// WindowsFILETIME converts t into the 64-bit, 100-nanosecond-tick FILETIME
// value NTFS stores in every MFT record's standard-information and
// filename attributes.
func WindowsFILETIME(t time.Time) uint64 {
	unix := t.Unix()
	ticks := (unix + ntfsEpochOffsetSeconds) * 10000000
	ticks += int64(t.Nanosecond() / 100)
	return uint64(ticks)
}

// FATDate packs a date into FAT's 16-bit directory-entry date field:
// bits 15-9 year since 1980, bits 8-5 month (1-12), bits 4-0 day (1-31).
func FATDate(t time.Time) uint16 {
	year := t.Year() - 1980
	if year < 0 {
		year = 0
	}
	return uint16(year<<9) | uint16(t.Month())<<5 | uint16(t.Day())
}

// FATTime packs a time into FAT's 16-bit directory-entry time field:
// bits 15-11 hour, bits 10-5 minute, bits 4-0 seconds/2.
func FATTime(t time.Time) uint16 {
	return uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
}

// FATTimeTenth returns the tenths-of-a-second field FAT uses alongside
// FATTime for creation timestamps, giving 10 ms resolution overall.
func FATTimeTenth(t time.Time) uint8 {
	return uint8(t.Nanosecond()/10000000) + uint8(t.Second()%2)*100
}

// ExFATTimestamp packs a time into exFAT's 32-bit DOS-compatible
// timestamp, identical bit layout to the combined FATDate/FATTime pair.
func ExFATTimestamp(t time.Time) uint32 {
	return uint32(FATDate(t))<<16 | uint32(FATTime(t))
}

// ExFATTenMs returns the 10-ms-resolution creation/modified offset field
// exFAT stores alongside ExFATTimestamp, range 0-199: the 10 ms units
// within the 2-second granularity of ExFATTimestamp's seconds field.
func ExFATTenMs(t time.Time) uint8 {
	return uint8(t.Nanosecond()/10000000) + uint8(t.Second()%2)*100
}

// ExFATUTCOffset packs the exFAT UTC-offset byte: bit 7 set means the
// offset field (bits 6-0, signed 15-minute increments) is valid.
func ExFATUTCOffset(t time.Time) uint8 {
	_, offsetSeconds := t.Zone()
	quarterHours := offsetSeconds / (15 * 60)
	if quarterHours < -64 || quarterHours > 63 {
		return 0
	}
	return 0x80 | uint8(int8(quarterHours))&0x7F
}
