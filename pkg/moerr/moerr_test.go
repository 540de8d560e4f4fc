package moerr

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceAccessErrorMessage(t *testing.T) {
	err := &DeviceAccessError{Kind: AccessDenied, Device: "/dev/sdb"}
	assert.Contains(t, err.Error(), "/dev/sdb")
	assert.Contains(t, err.Error(), "access denied")
}

func TestIOErrorUnwraps(t *testing.T) {
	underlying := errors.New("short write")
	err := WrapIO(4096, underlying)
	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr))
	assert.Equal(t, int64(4096), ioErr.Offset)
	assert.True(t, errors.Is(err, underlying))
}

func TestWrapIONilIsNil(t *testing.T) {
	assert.Nil(t, WrapIO(0, nil))
}

func TestSafetyViolationErrorIncludesMount(t *testing.T) {
	err := &SafetyViolationError{Kind: CriticalMountProtected, Device: "/dev/sda1", MountPoint: "/"}
	assert.Contains(t, err.Error(), "/dev/sda1")
	assert.Contains(t, err.Error(), "/")
}

func TestErrCancelledIsComparable(t *testing.T) {
	wrapped := errors.New("wrapping: " + ErrCancelled.Error())
	assert.False(t, errors.Is(wrapped, ErrCancelled))
	assert.True(t, errors.Is(ErrCancelled, ErrCancelled))
}
