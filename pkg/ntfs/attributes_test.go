package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildResidentAttributeLayout(t *testing.T) {
	value := []byte{1, 2, 3, 4}
	attr := BuildResidentAttribute(AttrData, "", 0, false, value)

	nonResident := attr[0x08]
	assert.Zero(t, nonResident)

	valueLen := uint32(attr[0x10]) | uint32(attr[0x11])<<8 | uint32(attr[0x12])<<16 | uint32(attr[0x13])<<24
	assert.EqualValues(t, len(value), valueLen)

	valueOffset := uint16(attr[0x14]) | uint16(attr[0x15])<<8
	assert.Equal(t, value, attr[valueOffset:int(valueOffset)+len(value)])

	assert.Zero(t, len(attr)%8)
}

func TestBuildNonResidentAttributeEncodesRuns(t *testing.T) {
	attr := BuildNonResidentAttribute(AttrData, "", 0, 0, 9,
		[]DataRun{{Length: 10, LCN: 500}}, 10*4096, 10*4096, 10*4096)
	assert.EqualValues(t, 1, attr[0x08]) // non-resident flag
	assert.Zero(t, len(attr)%8)

	runOffset := uint16(attr[0x20]) | uint16(attr[0x21])<<8
	runs := DecodeDataRuns(attr[runOffset:])
	assert.Equal(t, []DataRun{{Length: 10, LCN: 500}}, runs)
}

func TestFileNameKeyEncodeDecodeRoundTripFields(t *testing.T) {
	now := time.Unix(1000, 0)
	key := FileNameKey{
		ParentRef: 5, Created: now, Modified: now, MFTChanged: now, Accessed: now,
		RealSize: 4096, AllocatedSize: 4096, FileAttributes: FileAttributeArchive,
		Name: "hello.txt", Namespace: FileNameNamespaceWin32,
	}
	encoded := key.Encode()

	nameLen := encoded[0x40]
	assert.EqualValues(t, len("hello.txt"), nameLen)
	assert.Equal(t, FileNameNamespaceWin32, encoded[0x41])
}

func TestBuildStandardInformationEncodesFileAttributes(t *testing.T) {
	now := time.Unix(0, 0)
	si := BuildStandardInformation(now, now, now, now, FileAttributeDirectory)
	attrs := uint32(si[0x20]) | uint32(si[0x21])<<8 | uint32(si[0x22])<<16 | uint32(si[0x23])<<24
	assert.EqualValues(t, FileAttributeDirectory, attrs)
}
