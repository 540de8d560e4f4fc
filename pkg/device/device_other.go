//go:build !linux && !windows

package device

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "os"

// platformOpenEscalating on platforms without a documented raw-device
// alignment contract (e.g. Darwin, BSD, or formatting a plain disk-image
// file anywhere) falls back to a single plain read-write open; no
// exclusive or unbuffered attempt is made.
func platformOpenEscalating(path string, readOnly bool) (*os.File, error) {
	if readOnly {
		return os.OpenFile(path, os.O_RDONLY, 0)
	}
	return os.OpenFile(path, os.O_RDWR, 0)
}

func platformDiskCleanup(path string) error {
	return nil
}

func platformSectorSize(f *os.File) (int64, error) {
	return 0, errUnsupported
}

func platformDeviceSize(f *os.File) (int64, error) {
	return 0, errUnsupported
}

var errUnsupported = &unsupportedError{}

type unsupportedError struct{}

func (e *unsupportedError) Error() string {
	return "device geometry ioctls unsupported on this platform"
}
