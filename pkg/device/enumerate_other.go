//go:build !linux

package device

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "github.com/vorteil/moses/pkg/registry"

// platformEnumerate has no implementation on platforms other than
// Linux; the external-enumerator contract spec.md assumes is
// OS-specific, and Windows/Darwin would need their own volume-listing
// syscalls (DeviceIoControl / IOKit) beyond this package's scope.
func platformEnumerate() ([]registry.Device, error) {
	return nil, errEnumerationUnsupported{}
}

type errEnumerationUnsupported struct{}

func (errEnumerationUnsupported) Error() string {
	return "device: enumeration is not implemented on this platform"
}
