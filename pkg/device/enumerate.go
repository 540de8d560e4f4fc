package device

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"

	"github.com/vorteil/moses/pkg/elog"
	"github.com/vorteil/moses/pkg/registry"
)

// Enumerate returns the descriptors of every block device the current
// platform's external enumerator can see, per spec.md's "Device
// descriptor (provided by the external enumerator)" data model. The
// core formatting path never calls this itself — cmd/moses's `list`
// command is the only caller — so a platform with no enumerator
// implementation simply returns an errEnumerationUnsupported error rather than
// blocking formatting of a device path supplied directly.
func Enumerate() ([]registry.Device, error) {
	return platformEnumerate()
}

// Describe builds a registry.Device for a single path a caller wants to
// format, by opening it read-only for its size and cross-referencing
// Enumerate's output (when available) for mount points and the system
// flag. On platforms without an Enumerate implementation, those fields
// default to their safe empty values (not removable, not mounted) —
// callers that need the safety-gate's system-device protection on such
// platforms must supply a pre-populated registry.Device instead.
func Describe(ctx context.Context, path string, log elog.Logger) (registry.Device, error) {
	h, err := OpenForRead(ctx, path, log)
	if err != nil {
		return registry.Device{}, err
	}
	defer h.Close()

	dev := registry.Device{
		ID:        path,
		Name:      path,
		SizeBytes: uint64(h.Size()),
		Class:     registry.DeviceClassOther,
	}

	if known, enumErr := Enumerate(); enumErr == nil {
		for _, d := range known {
			if d.ID == path {
				dev.Name = d.Name
				dev.Class = d.Class
				dev.MountPoints = d.MountPoints
				dev.Removable = d.Removable
				dev.IsSystem = d.IsSystem
				dev.DetectedFilesystem = d.DetectedFilesystem
				break
			}
		}
	}

	return dev, nil
}
