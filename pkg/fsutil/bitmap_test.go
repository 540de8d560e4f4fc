package fsutil

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitmapSetClearIsSet(t *testing.T) {
	b := NewBitmap(16)
	assert.False(t, b.IsSet(3))
	b.Set(3)
	assert.True(t, b.IsSet(3))
	b.Clear(3)
	assert.False(t, b.IsSet(3))
}

func TestBitmapCountFree(t *testing.T) {
	b := NewBitmap(10)
	assert.Equal(t, 10, b.CountFree())
	b.SetRange(0, 4)
	assert.Equal(t, 6, b.CountFree())
}

func TestBitmapFindContiguousClear(t *testing.T) {
	b := NewBitmap(20)
	b.SetRange(0, 5)
	idx := b.FindContiguousClear(0, 3)
	assert.Equal(t, 5, idx)

	b.SetRange(5, 15)
	idx = b.FindContiguousClear(0, 1)
	assert.Equal(t, -1, idx)
}

func TestBitmapBytesPadsWithOnes(t *testing.T) {
	b := NewBitmap(8)
	b.Set(0)
	out := b.Bytes(4)
	assert.Equal(t, 4, len(out))
	assert.Equal(t, byte(0x01), out[0])
	assert.Equal(t, byte(0xFF), out[1])
	assert.Equal(t, byte(0xFF), out[2])
	assert.Equal(t, byte(0xFF), out[3])
}

func TestBitmapOutOfRangePanics(t *testing.T) {
	b := NewBitmap(4)
	assert.Panics(t, func() { b.Set(4) })
}
