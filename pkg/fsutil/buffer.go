package fsutil

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "github.com/vorteil/moses/pkg/vio"

// AlignedBuffer is the sector-aligned scratch buffer formatters build
// their on-disk structures into before handing them to the device layer.
// It is an alias for vio.AlignedBuffer: vio owns the type because the
// device write path also needs it directly, but formatter code reaches
// it through fsutil alongside the rest of the common primitives.
type AlignedBuffer = vio.AlignedBuffer

// NewAlignedBuffer allocates a zeroed buffer of at least size bytes,
// rounded up to the next multiple of align.
func NewAlignedBuffer(size, align int) *AlignedBuffer {
	return vio.NewAlignedBuffer(size, align)
}
