package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupMetadataAddrsOrdersAfterSuperblockAndGDT(t *testing.T) {
	cfg := NewConfig(Ext4, 1<<30)
	l, err := ComputeLayout(1<<30, 4096, cfg)
	require.NoError(t, err)

	addrs := GroupMetadataAddrs(l, 0)
	assert.Equal(t, l.GroupStartBlock(0)+1+l.GDTBlocks+l.ReservedGDTBlocks, addrs.blockBitmap)
	assert.Equal(t, addrs.blockBitmap+1, addrs.inodeBitmap)
	assert.Equal(t, addrs.inodeBitmap+1, addrs.inodeTable)
}

func TestBuildGroupDescriptorTableSizedToDescriptorWidth(t *testing.T) {
	cfg := NewConfig(Ext2, 10<<20)
	l, err := ComputeLayout(10<<20, 1024, cfg)
	require.NoError(t, err)
	groups := accountGroups(l)

	var uuid [16]byte
	gdt, err := BuildGroupDescriptorTable(l, groups, uuid)
	require.NoError(t, err)
	assert.Len(t, gdt, int(l.NumGroups)*32)
}

func TestBuildGroupDescriptorTable64Bit(t *testing.T) {
	cfg := NewConfig(Ext4, 20<<30)
	l, err := ComputeLayout(20<<30, 4096, cfg)
	require.NoError(t, err)
	require.True(t, cfg.Use64Bit)
	groups := accountGroups(l)

	var uuid [16]byte
	gdt, err := BuildGroupDescriptorTable(l, groups, uuid)
	require.NoError(t, err)
	assert.Len(t, gdt, int(l.NumGroups)*64)
}

func TestChecksumGroupDescriptorSensesChange(t *testing.T) {
	d1 := BlockGroupDescriptor32{FreeBlocksLo: 5}
	d2 := BlockGroupDescriptor32{FreeBlocksLo: 6}
	assert.NotEqual(t, checksumGroupDescriptor(0x1234, 0, &d1), checksumGroupDescriptor(0x1234, 0, &d2))
}
