package device

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"container/list"
	"io"

	"github.com/vorteil/moses/pkg/moerr"
)

// DefaultCacheSectors is the default capacity of an AlignedDeviceReader's
// per-sector LRU cache.
const DefaultCacheSectors = 1000

// AlignedDeviceReader provides streaming io.ReadSeeker semantics over a
// Handle opened for read, backed by a bounded per-sector LRU cache so
// structure parsers (the post-format verifier, read-side inspection
// tools) can treat the device as an ordinary byte stream without every
// access round-tripping to the OS.
type AlignedDeviceReader struct {
	h      *Handle
	cap    int
	offset int64
	cache  map[int64]*list.Element
	lru    *list.List
}

type sectorEntry struct {
	lba  int64
	data []byte
}

// NewAlignedDeviceReader wraps h with a sector cache of the given
// capacity. A capacity of 0 uses DefaultCacheSectors.
func NewAlignedDeviceReader(h *Handle, capacity int) *AlignedDeviceReader {
	if capacity <= 0 {
		capacity = DefaultCacheSectors
	}
	return &AlignedDeviceReader{
		h:     h,
		cap:   capacity,
		cache: make(map[int64]*list.Element, capacity),
		lru:   list.New(),
	}
}

// ReadAt reads len(p) bytes starting at byteOffset, computing the
// covering sector range, pulling any missing contiguous run from the
// device in a single call, and slicing out the requested subrange. It
// satisfies io.ReaderAt.
func (r *AlignedDeviceReader) ReadAt(p []byte, byteOffset int64) (int, error) {
	sectorSize := r.h.sectorSize
	if len(p) == 0 {
		return 0, nil
	}

	firstLBA := byteOffset / sectorSize
	lastLBA := (byteOffset + int64(len(p)) - 1) / sectorSize

	// Identify missing sectors and read them in contiguous runs to
	// minimize OS calls.
	runStart := int64(-1)
	for lba := firstLBA; lba <= lastLBA+1; lba++ {
		missing := lba <= lastLBA && !r.has(lba)
		if missing && runStart < 0 {
			runStart = lba
		}
		if !missing && runStart >= 0 {
			if err := r.fill(runStart, lba-runStart); err != nil {
				return 0, err
			}
			runStart = -1
		}
	}

	out := make([]byte, 0, len(p))
	for lba := firstLBA; lba <= lastLBA; lba++ {
		sector := r.get(lba)
		begin := int64(0)
		if lba == firstLBA {
			begin = byteOffset - lba*sectorSize
		}
		end := sectorSize
		if lba == lastLBA {
			end = (byteOffset + int64(len(p))) - lba*sectorSize
		}
		out = append(out, sector[begin:end]...)
	}

	n := copy(p, out)
	return n, nil
}

func (r *AlignedDeviceReader) has(lba int64) bool {
	_, ok := r.cache[lba]
	return ok
}

func (r *AlignedDeviceReader) get(lba int64) []byte {
	el := r.cache[lba]
	r.lru.MoveToFront(el)
	return el.Value.(*sectorEntry).data
}

func (r *AlignedDeviceReader) fill(startLBA, count int64) error {
	sectorSize := r.h.sectorSize
	buf := make([]byte, count*sectorSize)
	_, err := r.h.ReadAligned(startLBA*sectorSize, buf)
	if err != nil {
		return moerr.WrapIO(startLBA*sectorSize, err)
	}
	for i := int64(0); i < count; i++ {
		r.put(startLBA+i, buf[i*sectorSize:(i+1)*sectorSize])
	}
	return nil
}

func (r *AlignedDeviceReader) put(lba int64, data []byte) {
	if el, ok := r.cache[lba]; ok {
		el.Value.(*sectorEntry).data = data
		r.lru.MoveToFront(el)
		return
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	el := r.lru.PushFront(&sectorEntry{lba: lba, data: cp})
	r.cache[lba] = el

	for r.lru.Len() > r.cap {
		oldest := r.lru.Back()
		if oldest == nil {
			break
		}
		r.lru.Remove(oldest)
		delete(r.cache, oldest.Value.(*sectorEntry).lba)
	}
}

// Read implements io.Reader by reading from and advancing the internal
// offset.
func (r *AlignedDeviceReader) Read(p []byte) (int, error) {
	if r.offset >= r.h.size {
		return 0, io.EOF
	}
	remaining := r.h.size - r.offset
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.ReadAt(p, r.offset)
	r.offset += int64(n)
	return n, err
}

// Seek implements io.Seeker.
func (r *AlignedDeviceReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.offset + offset
	case io.SeekEnd:
		abs = r.h.size + offset
	default:
		return 0, io.ErrUnexpectedEOF
	}
	if abs < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	r.offset = abs
	return abs, nil
}
