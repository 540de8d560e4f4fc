package device

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorteil/moses/pkg/moerr"
)

func makeBackingFile(t *testing.T, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk.img")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

func TestOpenForWriteAndWriteAligned(t *testing.T) {
	path := makeBackingFile(t, 16<<20)
	ctx := context.Background()

	h, err := OpenForWrite(ctx, path, nil)
	require.NoError(t, err)
	defer h.Close()

	assert.Greater(t, h.SectorSize(), int64(0))
	assert.Equal(t, int64(16<<20), h.Size())

	payload := []byte("moses format test payload")
	err = h.WriteAligned(ctx, 0, payload)
	require.NoError(t, err)
	require.NoError(t, h.Flush())

	readBack := make([]byte, len(payload))
	_, err = h.ReadAligned(0, readBack)
	require.NoError(t, err)
	assert.Equal(t, payload, readBack)
}

func TestWriteAlignedRejectsUnalignedOffset(t *testing.T) {
	path := makeBackingFile(t, 1<<20)
	ctx := context.Background()

	h, err := OpenForWrite(ctx, path, nil)
	require.NoError(t, err)
	defer h.Close()

	err = h.WriteAligned(ctx, 1, []byte("x"))
	assert.Error(t, err)
}

func TestWriteAlignedRespectsCancellation(t *testing.T) {
	path := makeBackingFile(t, 1<<20)
	h, err := OpenForWrite(context.Background(), path, nil)
	require.NoError(t, err)
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = h.WriteAligned(ctx, 0, make([]byte, 4096))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenForWriteMissingDeviceIsNotFound(t *testing.T) {
	_, err := OpenForWrite(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)

	var devErr *moerr.DeviceAccessError
	require.True(t, errors.As(err, &devErr))
	assert.Equal(t, moerr.NotFound, devErr.Kind)
}
