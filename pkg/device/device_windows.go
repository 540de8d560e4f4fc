//go:build windows

package device

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"os"
	"os/exec"
	"unsafe"

	"golang.org/x/sys/windows"
)

const ioctlDiskGetDriveGeometry = 0x70000

type diskGeometry struct {
	Cylinders         int64
	MediaType         uint32
	TracksPerCylinder uint32
	SectorsPerTrack   uint32
	BytesPerSector    uint32
}

// platformOpenEscalating implements the Windows fallback sequence: no
// sharing at all, then shared read-write, then shared with
// FILE_FLAG_NO_BUFFERING + FILE_FLAG_WRITE_THROUGH so writes bypass the
// volume cache manager, which otherwise refuses unaligned raw-disk I/O.
func platformOpenEscalating(path string, readOnly bool) (*os.File, error) {
	access := uint32(windows.GENERIC_READ | windows.GENERIC_WRITE)
	if readOnly {
		access = windows.GENERIC_READ
	}

	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}

	attempts := []struct {
		share uint32
		flags uint32
	}{
		{0, 0},
		{windows.FILE_SHARE_READ | windows.FILE_SHARE_WRITE, 0},
		{windows.FILE_SHARE_READ | windows.FILE_SHARE_WRITE, windows.FILE_FLAG_NO_BUFFERING | windows.FILE_FLAG_WRITE_THROUGH},
	}

	var lastErr error
	for _, a := range attempts {
		h, err := windows.CreateFile(pathPtr, access, a.share, nil, windows.OPEN_EXISTING, a.flags, 0)
		if err == nil {
			return os.NewFile(uintptr(h), path), nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// platformDiskCleanup asks mountvol to dismount any volume mapped to
// path before Moses claims exclusive access.
func platformDiskCleanup(path string) error {
	return exec.Command("mountvol", path, "/P").Run()
}

func platformSectorSize(f *os.File) (int64, error) {
	geom, err := queryGeometry(f)
	if err != nil {
		return 0, err
	}
	return int64(geom.BytesPerSector), nil
}

func platformDeviceSize(f *os.File) (int64, error) {
	geom, err := queryGeometry(f)
	if err != nil {
		return 0, err
	}
	size := geom.Cylinders * int64(geom.TracksPerCylinder) * int64(geom.SectorsPerTrack) * int64(geom.BytesPerSector)
	return size, nil
}

func queryGeometry(f *os.File) (*diskGeometry, error) {
	var geom diskGeometry
	var bytesReturned uint32
	err := windows.DeviceIoControl(
		windows.Handle(f.Fd()),
		ioctlDiskGetDriveGeometry,
		nil,
		0,
		(*byte)(unsafe.Pointer(&geom)),
		uint32(unsafe.Sizeof(geom)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &geom, nil
}
