package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigExt2ClearsModernFeatures(t *testing.T) {
	cfg := NewConfig(Ext2, 100<<20)
	assert.Equal(t, uint16(128), cfg.InodeSize)
	assert.False(t, cfg.UseJournal)
	assert.False(t, cfg.UseExtents)
	assert.False(t, cfg.Use64Bit)
	assert.False(t, cfg.UseMetadataCsum)
	assert.Zero(t, cfg.FeatureCompat())
	assert.Zero(t, cfg.FeatureROCompat())
}

func TestNewConfigExt3SetsJournalOnly(t *testing.T) {
	cfg := NewConfig(Ext3, 100<<20)
	assert.Equal(t, uint16(256), cfg.InodeSize)
	assert.True(t, cfg.UseJournal)
	assert.False(t, cfg.UseExtents)
	assert.False(t, cfg.Use64Bit)
	assert.Equal(t, uint32(CompatHasJournal), cfg.FeatureCompat())
	assert.Zero(t, cfg.FeatureIncompat()&IncompatExtents)
}

func TestNewConfigExt4SetsExtentsAndChecksums(t *testing.T) {
	cfg := NewConfig(Ext4, 1<<30)
	assert.True(t, cfg.UseExtents)
	assert.True(t, cfg.UseMetadataCsum)
	assert.False(t, cfg.Use64Bit, "below 16 GiB should not set 64BIT")
	assert.NotZero(t, cfg.FeatureIncompat()&IncompatExtents)
	assert.NotZero(t, cfg.FeatureROCompat()&ROCompatMetadataCsum)
	assert.NotZero(t, cfg.FeatureROCompat()&ROCompatSparseSuper)
}

func TestNewConfigExt4Sets64BitAbove16GiB(t *testing.T) {
	cfg := NewConfig(Ext4, 20<<30)
	assert.True(t, cfg.Use64Bit)
	assert.Equal(t, uint16(64), cfg.GroupDescriptorSize())
}
