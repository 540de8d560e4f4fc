package fsutil

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowsFILETIMEMatchesKnownEpoch(t *testing.T) {
	// The Unix epoch itself should be exactly 11644473600 seconds worth
	// of 100ns ticks into the FILETIME timeline.
	unixEpoch := time.Unix(0, 0).UTC()
	ft := WindowsFILETIME(unixEpoch)
	assert.Equal(t, uint64(11644473600*10000000), ft)
}

func TestFATDateTimeRoundTripBits(t *testing.T) {
	ti := time.Date(2024, time.March, 15, 13, 45, 30, 0, time.UTC)
	d := FATDate(ti)
	assert.Equal(t, uint16(2024-1980)<<9|uint16(3)<<5|uint16(15), d)

	tm := FATTime(ti)
	assert.Equal(t, uint16(13)<<11|uint16(45)<<5|uint16(15), tm)
}

func TestExFATTimestampMatchesFATFields(t *testing.T) {
	ti := time.Date(2024, time.March, 15, 13, 45, 30, 0, time.UTC)
	ts := ExFATTimestamp(ti)
	assert.Equal(t, uint32(FATDate(ti))<<16|uint32(FATTime(ti)), ts)
}

func TestExFATUTCOffsetValidBit(t *testing.T) {
	ti := time.Date(2024, time.March, 15, 13, 45, 30, 0, time.UTC)
	off := ExFATUTCOffset(ti)
	assert.NotEqual(t, uint8(0), off&0x80)
}
