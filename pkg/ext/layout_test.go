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

func TestComputeLayoutExt4GoldenScenario(t *testing.T) {
	cfg := NewConfig(Ext4, 1<<30)
	l, err := ComputeLayout(1<<30, 4096, cfg)
	require.NoError(t, err)

	assert.EqualValues(t, 32768, l.BlocksPerGroup)
	assert.EqualValues(t, 8192, l.InodesPerGroup)
	assert.EqualValues(t, 2, l.LogBlockSize())
	assert.EqualValues(t, 0, l.FirstDataBlock)
}

func TestComputeLayoutRejectsTinyDevice(t *testing.T) {
	cfg := NewConfig(Ext2, 1<<20)
	_, err := ComputeLayout(4096, 4096, cfg)
	assert.Error(t, err)
}

func TestComputeLayoutRejectsBadBlockSize(t *testing.T) {
	cfg := NewConfig(Ext2, 1<<20)
	_, err := ComputeLayout(100<<20, 3000, cfg)
	assert.Error(t, err)
}

func TestIsSparseSuperGroupMatchesSpecPredicate(t *testing.T) {
	l := Layout{SparseSuper: true}
	assert.True(t, l.IsSparseSuperGroup(0))
	assert.True(t, l.IsSparseSuperGroup(1))
	assert.True(t, l.IsSparseSuperGroup(3))
	assert.True(t, l.IsSparseSuperGroup(9))
	assert.True(t, l.IsSparseSuperGroup(5))
	assert.True(t, l.IsSparseSuperGroup(7))
	assert.False(t, l.IsSparseSuperGroup(2))
	assert.False(t, l.IsSparseSuperGroup(4))
	assert.False(t, l.IsSparseSuperGroup(6))
}

func TestIsSparseSuperGroupWithoutFeatureAlwaysTrue(t *testing.T) {
	l := Layout{SparseSuper: false}
	assert.True(t, l.IsSparseSuperGroup(2))
	assert.True(t, l.IsSparseSuperGroup(100))
}

func TestBlocksInGroupShortensFinalGroup(t *testing.T) {
	l := Layout{BlocksPerGroup: 100, TotalBlocks: 250}
	assert.EqualValues(t, 100, l.BlocksInGroup(0))
	assert.EqualValues(t, 100, l.BlocksInGroup(1))
	assert.EqualValues(t, 50, l.BlocksInGroup(2))
}
