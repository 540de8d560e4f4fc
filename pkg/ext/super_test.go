package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSuperblockExt4MatchesGoldenScenario(t *testing.T) {
	cfg := NewConfig(Ext4, 1<<30)
	l, err := ComputeLayout(1<<30, 4096, cfg)
	require.NoError(t, err)
	groups := accountGroups(l)

	var uuid [16]byte
	sb := BuildSuperblock(l, groups, uuid, "EXT4_TEST", time.Unix(0, 0))

	assert.EqualValues(t, Signature, sb.Magic)
	assert.EqualValues(t, 256, sb.InodeSize)
	assert.EqualValues(t, 2, sb.LogBlockSize)
	assert.EqualValues(t, 1, sb.RevLevel)
	assert.EqualValues(t, 32768, sb.BlocksPerGroup)
	assert.EqualValues(t, 8192, sb.InodesPerGroup)
	assert.NotZero(t, sb.FeatureIncompat&IncompatExtents)
	assert.NotZero(t, sb.FeatureROCompat&ROCompatMetadataCsum)
	assert.NotZero(t, sb.FeatureROCompat&ROCompatSparseSuper)
	assert.NotZero(t, sb.FeatureCompat&CompatDirIndex)
	assert.Equal(t, "EXT4_TEST\x00", string(sb.VolumeName[:10]))
}

func TestBuildSuperblockExt3HasJournalNoExtents(t *testing.T) {
	cfg := NewConfig(Ext3, 100<<20)
	l, err := ComputeLayout(100<<20, 4096, cfg)
	require.NoError(t, err)
	groups := accountGroups(l)

	var uuid [16]byte
	sb := BuildSuperblock(l, groups, uuid, "TEST_EXT3", time.Unix(0, 0))

	assert.EqualValues(t, 1, sb.RevLevel)
	assert.EqualValues(t, 256, sb.InodeSize)
	assert.NotZero(t, sb.FeatureCompat&CompatHasJournal)
	assert.Zero(t, sb.FeatureIncompat&IncompatExtents)
	assert.Zero(t, sb.FeatureIncompat&Incompat64Bit)
	assert.Zero(t, sb.FeatureROCompat&ROCompatMetadataCsum)
	assert.EqualValues(t, JournalInodeNumber, sb.JournalInum)
}

func TestFinalizeSuperblockChecksumIsDeterministic(t *testing.T) {
	cfg := NewConfig(Ext4, 1<<30)
	l, err := ComputeLayout(1<<30, 4096, cfg)
	require.NoError(t, err)
	groups := accountGroups(l)

	var uuid [16]byte
	sb := BuildSuperblock(l, groups, uuid, "CSUM", time.Unix(0, 0))
	require.NoError(t, FinalizeSuperblockChecksum(cfg, sb))
	first := sb.Checksum
	require.NotZero(t, first)

	sb.Checksum = 0
	require.NoError(t, FinalizeSuperblockChecksum(cfg, sb))
	assert.Equal(t, first, sb.Checksum)
}

func TestFinalizeSuperblockChecksumNoopWithoutMetadataCsum(t *testing.T) {
	cfg := NewConfig(Ext2, 100<<20)
	l, err := ComputeLayout(100<<20, 4096, cfg)
	require.NoError(t, err)
	groups := accountGroups(l)

	var uuid [16]byte
	sb := BuildSuperblock(l, groups, uuid, "E2", time.Unix(0, 0))
	require.NoError(t, FinalizeSuperblockChecksum(cfg, sb))
	assert.Zero(t, sb.Checksum)
}

func TestFreeBlocksCountNeverExceedsTotalBlocks(t *testing.T) {
	cfg := NewConfig(Ext4, 60<<30)
	l, err := ComputeLayout(60<<30, 4096, cfg)
	require.NoError(t, err)
	groups := accountGroups(l)

	assert.LessOrEqual(t, totalFreeBlocks(groups), l.TotalBlocks)
}
