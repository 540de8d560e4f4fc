package fat

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFAT16TableGoldenEntries(t *testing.T) {
	table := buildFAT16Table(1, 512, 0xF8)
	assert.Equal(t, uint16(0xFFF8), binary.LittleEndian.Uint16(table[0:2]))
	assert.Equal(t, uint16(0xFFFF), binary.LittleEndian.Uint16(table[2:4]))
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(table[4:6]))
}

func TestBuildFAT32TableGoldenEntries(t *testing.T) {
	table := buildFAT32Table(1, 512, 0xF8)
	assert.Equal(t, uint32(0x0FFFFFF8), binary.LittleEndian.Uint32(table[0:4]))
	assert.Equal(t, uint32(eocFAT32), binary.LittleEndian.Uint32(table[4:8]))
	assert.Equal(t, uint32(eocFAT32), binary.LittleEndian.Uint32(table[8:12]))
}
