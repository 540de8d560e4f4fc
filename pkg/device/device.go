// Package device implements the sector-aligned, bounded-size block
// device abstraction every formatter writes through. It owns the raw OS
// handle exclusively for the lifetime of a single format operation,
// performs the platform-specific open escalation and dismount dance, and
// exposes write_aligned/read_at primitives so formatter code never has
// to reason about OS alignment requirements directly.
package device

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"io"
	"os"

	"github.com/vorteil/moses/pkg/elog"
	"github.com/vorteil/moses/pkg/fsutil"
	"github.com/vorteil/moses/pkg/moerr"
)

// DefaultSectorSize is used whenever the OS cannot report a logical
// sector size for the target (e.g. a plain file standing in for a
// device in tests).
const DefaultSectorSize = 512

// writeScratchSize is the size of the aligned scratch buffer
// write_aligned stages chunks into before issuing the OS write.
const writeScratchSize = 1 << 20 // 1 MiB

// Handle is the exclusively-owned OS handle for one format operation. It
// records the sector size and device size queried at open time so every
// later layout calculation works from ground truth rather than
// assumption.
type Handle struct {
	f          *os.File
	path       string
	sectorSize int64
	size       int64
	readOnly   bool
	log        elog.Logger
}

// SectorSize reports the logical sector size discovered at open time.
func (h *Handle) SectorSize() int64 { return h.sectorSize }

// Size reports the total addressable size of the device in bytes.
func (h *Handle) Size() int64 { return h.size }

// Path reports the device path this handle was opened from.
func (h *Handle) Path() string { return h.path }

// OpenForWrite opens device for exclusive read-write access, performing
// the escalating open sequence (no-share, then shared, then
// shared+no-buffering) and a disk-cleanup dismount pass before the first
// attempt. log may be nil.
func OpenForWrite(ctx context.Context, path string, log elog.Logger) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := platformDiskCleanup(path); err != nil {
		if log != nil {
			log.Debugf("device cleanup for %s reported: %v", path, err)
		}
	}

	f, err := platformOpenEscalating(path, false)
	if err != nil {
		return nil, classifyOpenError(path, err)
	}

	h, err := newHandle(f, path, false, log)
	if err != nil {
		f.Close()
		return nil, err
	}
	return h, nil
}

// OpenForRead opens device for shared read access with the same
// alignment guarantees as OpenForWrite, but performs no dismount step.
func OpenForRead(ctx context.Context, path string, log elog.Logger) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := platformOpenEscalating(path, true)
	if err != nil {
		return nil, classifyOpenError(path, err)
	}

	h, err := newHandle(f, path, true, log)
	if err != nil {
		f.Close()
		return nil, err
	}
	return h, nil
}

func newHandle(f *os.File, path string, readOnly bool, log elog.Logger) (*Handle, error) {
	sectorSize, err := platformSectorSize(f)
	if err != nil || sectorSize <= 0 {
		sectorSize = DefaultSectorSize
	}

	size, err := platformDeviceSize(f)
	if err != nil || size <= 0 {
		size, err = f.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, &moerr.DeviceAccessError{Kind: moerr.AlignmentUnavailable, Device: path, Err: err}
		}
		if _, err = f.Seek(0, io.SeekStart); err != nil {
			return nil, &moerr.DeviceAccessError{Kind: moerr.AlignmentUnavailable, Device: path, Err: err}
		}
	}

	return &Handle{
		f:          f,
		path:       path,
		sectorSize: sectorSize,
		size:       size,
		readOnly:   readOnly,
		log:        log,
	}, nil
}

func classifyOpenError(path string, err error) error {
	kind := moerr.AccessDenied
	switch {
	case os.IsNotExist(err):
		kind = moerr.NotFound
	case os.IsPermission(err):
		kind = moerr.AccessDenied
	default:
		kind = moerr.InUse
	}
	return &moerr.DeviceAccessError{Kind: kind, Device: path, Err: err}
}

// WriteAligned writes data to the device at byteOffset, which must be a
// multiple of the handle's sector size. Writes are staged through a
// sector-aligned scratch buffer in writeScratchSize chunks, zero-padding
// the final sub-sector tail so every OS write call sees a fully aligned
// region.
func (h *Handle) WriteAligned(ctx context.Context, byteOffset int64, data []byte) error {
	if byteOffset%h.sectorSize != 0 {
		return &moerr.DeviceAccessError{Kind: moerr.AlignmentUnavailable, Device: h.path,
			Err: errAlignment(byteOffset, h.sectorSize)}
	}

	scratch := fsutil.NewAlignedBuffer(writeScratchSize, int(h.sectorSize))
	chunkSize := scratch.Len()

	offset := byteOffset
	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := len(data)
		if n > chunkSize {
			n = chunkSize
		}
		alignedLen := fsutil.AlignUp(n, int(h.sectorSize))

		buf := scratch.Slice(alignedLen)
		copy(buf, data[:n])
		for i := n; i < alignedLen; i++ {
			buf[i] = 0
		}

		written, err := h.f.WriteAt(buf, offset)
		if err != nil {
			return moerr.WrapIO(offset, err)
		}
		if written < alignedLen {
			return moerr.WrapIO(offset, errIncompleteWrite(written, alignedLen))
		}

		data = data[n:]
		offset += int64(alignedLen)
	}

	return nil
}

// ReadAligned reads len(buf) bytes starting at byteOffset directly from
// the device, bypassing the sector cache. Formatters use this only
// during precompile inspection; verification reads should go through an
// AlignedDeviceReader instead.
func (h *Handle) ReadAligned(byteOffset int64, buf []byte) (int, error) {
	n, err := h.f.ReadAt(buf, byteOffset)
	if err != nil {
		return n, moerr.WrapIO(byteOffset, err)
	}
	return n, nil
}

// Flush commits any OS-buffered writes to stable storage.
func (h *Handle) Flush() error {
	if err := h.f.Sync(); err != nil {
		return moerr.WrapIO(0, err)
	}
	return nil
}

// Close releases the OS handle. It is always safe to call, including
// after a failed or cancelled format, matching the spec's "scoped
// acquisition guaranteed regardless of exit path" requirement.
func (h *Handle) Close() error {
	return h.f.Close()
}

func errAlignment(offset, sectorSize int64) error {
	return &alignmentError{offset: offset, sectorSize: sectorSize}
}

type alignmentError struct {
	offset, sectorSize int64
}

func (e *alignmentError) Error() string {
	return "write offset not aligned to sector size"
}

func errIncompleteWrite(got, want int) error {
	return &incompleteWriteError{got: got, want: want}
}

type incompleteWriteError struct {
	got, want int
}

func (e *incompleteWriteError) Error() string {
	return "incomplete write"
}
