// Package registry implements the formatter registry and dispatcher: name
// and alias resolution, capability and safety gating, dry-run simulation,
// and dispatch to a chosen FilesystemFormatter. It is generalized from the
// teacher's pkg/vimg.FSCompiler single-handle pattern into a name-keyed
// map of handles.
package registry

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "time"

// Category classifies a formatter for UI listings and --category filtering.
type Category string

const (
	CategoryModern       Category = "modern"
	CategoryLegacy       Category = "legacy"
	CategoryHistorical   Category = "historical"
	CategoryConsole      Category = "console"
	CategoryEmbedded     Category = "embedded"
	CategoryExperimental Category = "experimental"
)

// Platform names an operating system a formatter can run on.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
	PlatformDarwin  Platform = "darwin"
)

// DeviceClass is the coarse hardware category of a Device.
type DeviceClass string

const (
	DeviceClassUSB   DeviceClass = "usb"
	DeviceClassSSD   DeviceClass = "ssd"
	DeviceClassHDD   DeviceClass = "hdd"
	DeviceClassOther DeviceClass = "other"
)

// Device is the immutable snapshot the external enumerator (out of scope
// for this core) hands to the registry. The core never mutates it.
type Device struct {
	ID                 string
	Name               string
	SizeBytes          uint64
	Class              DeviceClass
	MountPoints        []string
	Removable          bool
	IsSystem           bool
	DetectedFilesystem string
}

// FormatOptions is a format or dry-run request.
type FormatOptions struct {
	Filesystem        string
	Label             string
	Quick             bool
	ClusterSize       uint32
	Compression       bool
	VerifyAfterFormat bool
	AdditionalOptions map[string]string
}

// Capabilities describes what a formatter supports, used for gating and
// for the format-info/list-formats CLI surfaces.
type Capabilities struct {
	SupportsLabel        bool
	MaxLabelLength       int
	SupportsUUID         bool
	SupportsEncryption   bool
	SupportsCompression  bool
	MaxFileSize          uint64
	CaseSensitive        bool
	PreservesPermissions bool
}

// FormatterMetadata is the static description of a formatter, populated
// once at registration and never mutated afterward.
type FormatterMetadata struct {
	Name                  string
	Aliases               []string
	Description           string
	Category              Category
	SupportedPlatforms    []Platform
	MinSize               uint64
	MaxSize               uint64
	Capabilities          Capabilities
	RequiresExternalTools []string
	BundledTools          []string
}

// SimulationReport is the result of a dry-run.
type SimulationReport struct {
	EstimatedDuration       time.Duration
	RequiredExternalTools   []string
	Warnings                []string
	WillEraseData           bool
	PredictedFreeSpaceBytes uint64
}
