package registry

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"strings"

	"github.com/vorteil/moses/pkg/fsutil"
	"github.com/vorteil/moses/pkg/moerr"
)

// criticalMountPoints are the mount points that make a device untouchable
// regardless of the system flag, reproduced verbatim from the gate spec.
var criticalMountPoints = map[string]bool{
	"/":       true,
	`C:\`:     true,
	"/boot":   true,
	"/System": true,
}

// validClusterSizes is the exact power-of-two set the gate accepts.
var validClusterSizes = map[uint32]bool{
	512: true, 1024: true, 2048: true, 4096: true,
	8192: true, 16384: true, 32768: true, 65536: true,
}

// invalidLabelChars mirrors the FAT short-name illegal-character set,
// reused here as the cross-formatter label validity check since every
// supported filesystem's label charset is a subset of ASCII printable
// minus these.
const invalidLabelChars = `"*+,./:;<=>?[\]|`

// Gate applies the registry's cross-cutting safety and capability checks
// to a (device, options, metadata) triple, independent of which formatter
// will ultimately run. It is always called before Format and DryRun.
func Gate(dev Device, opts FormatOptions, metadata FormatterMetadata) error {
	if dev.IsSystem {
		return &moerr.SafetyViolationError{Kind: moerr.SystemDeviceProtected, Device: dev.ID}
	}
	for _, mp := range dev.MountPoints {
		if criticalMountPoints[mp] {
			return &moerr.SafetyViolationError{Kind: moerr.CriticalMountProtected, Device: dev.ID, MountPoint: mp}
		}
	}

	if dev.SizeBytes < metadata.MinSize {
		return &moerr.CapabilityRejectedError{Kind: moerr.BelowMinSize, Formatter: metadata.Name}
	}
	if metadata.MaxSize != 0 && dev.SizeBytes > metadata.MaxSize {
		return &moerr.CapabilityRejectedError{Kind: moerr.AboveMaxSize, Formatter: metadata.Name}
	}

	if opts.Label != "" {
		if metadata.Capabilities.MaxLabelLength > 0 && len(opts.Label) > metadata.Capabilities.MaxLabelLength {
			return &moerr.OptionInvalidError{Kind: moerr.LabelTooLong, Field: "label", Value: opts.Label}
		}
		if strings.ContainsAny(opts.Label, invalidLabelChars) {
			return &moerr.OptionInvalidError{Kind: moerr.LabelInvalidChars, Field: "label", Value: opts.Label}
		}
	}

	if opts.ClusterSize != 0 {
		if !fsutil.IsPowerOfTwo(int(opts.ClusterSize)) || !validClusterSizes[opts.ClusterSize] {
			return &moerr.OptionInvalidError{Kind: moerr.InvalidClusterSize, Field: "cluster_size", Value: ""}
		}
	}

	if opts.Compression && !metadata.Capabilities.SupportsCompression {
		return &moerr.CapabilityRejectedError{Kind: moerr.CompressionUnsupported, Formatter: metadata.Name}
	}

	return nil
}
