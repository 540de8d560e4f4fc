// Package moerr defines the error taxonomy shared by every layer of
// Moses: device I/O, the formatter registry's safety/capability gates,
// each filesystem formatter's layout and verification logic, and
// ScriptFormatter's external-tool invocation. Every exported error type
// implements the standard error interface and carries the structured
// fields callers need to act on the failure (CLI messaging, retry logic,
// telemetry) rather than a bare string.
package moerr

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"

	"github.com/pkg/errors"
)

// DeviceAccessKind enumerates the ways opening or claiming a device can
// fail before any bytes are written.
type DeviceAccessKind int

const (
	AccessDenied DeviceAccessKind = iota
	NotFound
	InUse
	AlignmentUnavailable
)

func (k DeviceAccessKind) String() string {
	switch k {
	case AccessDenied:
		return "access denied"
	case NotFound:
		return "device not found"
	case InUse:
		return "device in use"
	case AlignmentUnavailable:
		return "sector alignment unavailable"
	default:
		return "unknown device access error"
	}
}

// DeviceAccessError is returned by the device I/O layer's open path.
// AccessDenied implies the caller should retry with elevated privileges.
type DeviceAccessError struct {
	Kind   DeviceAccessKind
	Device string
	Err    error
}

func (e *DeviceAccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("device %q: %s: %v", e.Device, e.Kind, e.Err)
	}
	return fmt.Sprintf("device %q: %s", e.Device, e.Kind)
}

func (e *DeviceAccessError) Unwrap() error { return e.Err }

// SafetyViolationKind enumerates the registry gate's irreversible-action
// protections. These are always fatal to the request and are never
// auto-overridden, even with a force flag.
type SafetyViolationKind int

const (
	SystemDeviceProtected SafetyViolationKind = iota
	CriticalMountProtected
)

func (k SafetyViolationKind) String() string {
	switch k {
	case SystemDeviceProtected:
		return "system device is protected from formatting"
	case CriticalMountProtected:
		return "device hosts a critical mount point and is protected from formatting"
	default:
		return "unknown safety violation"
	}
}

// SafetyViolationError reports that the registry's gate refused to
// proceed because the target device is the boot/system device or hosts
// a critical mount point.
type SafetyViolationError struct {
	Kind       SafetyViolationKind
	Device     string
	MountPoint string
}

func (e *SafetyViolationError) Error() string {
	if e.MountPoint != "" {
		return fmt.Sprintf("refusing to format %q: %s (%s)", e.Device, e.Kind, e.MountPoint)
	}
	return fmt.Sprintf("refusing to format %q: %s", e.Device, e.Kind)
}

// CapabilityRejectedKind enumerates reasons a formatter's own metadata
// declares it unable to handle the requested device/options.
type CapabilityRejectedKind int

const (
	BelowMinSize CapabilityRejectedKind = iota
	AboveMaxSize
	CompressionUnsupported
	PlatformUnsupported
)

func (k CapabilityRejectedKind) String() string {
	switch k {
	case BelowMinSize:
		return "device is below the formatter's minimum supported size"
	case AboveMaxSize:
		return "device exceeds the formatter's maximum supported size"
	case CompressionUnsupported:
		return "formatter does not support compression"
	case PlatformUnsupported:
		return "formatter is not supported on this platform"
	default:
		return "unknown capability rejection"
	}
}

// CapabilityRejectedError is returned when FormatterMetadata rules out a
// formatter for the given device or options.
type CapabilityRejectedError struct {
	Kind      CapabilityRejectedKind
	Formatter string
	Detail    string
}

func (e *CapabilityRejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Formatter, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Formatter, e.Kind)
}

// OptionInvalidKind enumerates reasons a FormatOptions value failed
// validation before any device I/O was attempted.
type OptionInvalidKind int

const (
	LabelTooLong OptionInvalidKind = iota
	LabelInvalidChars
	InvalidClusterSize
	UnknownFormatter
)

func (k OptionInvalidKind) String() string {
	switch k {
	case LabelTooLong:
		return "label too long"
	case LabelInvalidChars:
		return "label contains invalid characters"
	case InvalidClusterSize:
		return "cluster size must be a power of two in the supported range"
	case UnknownFormatter:
		return "unknown formatter name"
	default:
		return "unknown option error"
	}
}

// OptionInvalidError reports a rejected FormatOptions field.
type OptionInvalidError struct {
	Kind  OptionInvalidKind
	Field string
	Value string
}

func (e *OptionInvalidError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid option %s=%q: %s", e.Field, e.Value, e.Kind)
	}
	return fmt.Sprintf("invalid option %s: %s", e.Field, e.Kind)
}

// LayoutInfeasibleKind enumerates reasons a formatter's own layout
// arithmetic determined the request cannot be satisfied.
type LayoutInfeasibleKind int

const (
	DeviceTooSmall LayoutInfeasibleKind = iota
	WrongClusterCount
	InsufficientFreeClusters
)

func (k LayoutInfeasibleKind) String() string {
	switch k {
	case DeviceTooSmall:
		return "device too small for requested layout"
	case WrongClusterCount:
		return "cluster count falls outside the filesystem's valid range"
	case InsufficientFreeClusters:
		return "insufficient free clusters for requested layout"
	default:
		return "unknown layout infeasibility"
	}
}

// LayoutInfeasibleError is returned by a formatter's layout-computation
// step when the device/option combination cannot produce a valid
// on-disk structure. Counts are included for diagnostics.
type LayoutInfeasibleError struct {
	Kind   LayoutInfeasibleKind
	Wanted int64
	Got    int64
	Detail string
}

func (e *LayoutInfeasibleError) Error() string {
	base := fmt.Sprintf("infeasible layout: %s (wanted %d, got %d)", e.Kind, e.Wanted, e.Got)
	if e.Detail != "" {
		return base + ": " + e.Detail
	}
	return base
}

// IOError wraps any read/write/flush failure encountered while streaming
// sectors to or from a device, with the byte offset included for
// diagnostics.
type IOError struct {
	Offset     int64
	Underlying error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o error at offset %d: %v", e.Offset, e.Underlying)
}

func (e *IOError) Unwrap() error { return e.Underlying }

// WrapIO wraps err as an IOError at the given offset, attaching a stack
// trace via github.com/pkg/errors so CLI diagnostics can print the call
// path that produced it. Returns nil if err is nil.
func WrapIO(offset int64, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Offset: offset, Underlying: errors.WithStack(err)}
}

// CorruptionSeverity classifies how serious a post-format verification
// mismatch is.
type CorruptionSeverity int

const (
	Minor CorruptionSeverity = iota
	Moderate
	Severe
)

func (s CorruptionSeverity) String() string {
	switch s {
	case Minor:
		return "minor"
	case Moderate:
		return "moderate"
	case Severe:
		return "severe"
	default:
		return "unknown"
	}
}

// CorruptionError is raised by the post-format verifier when an on-disk
// structure doesn't match what was intended to be written.
type CorruptionError struct {
	Field    string
	Expected interface{}
	Actual   interface{}
	Severity CorruptionSeverity
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corruption (%s) in %s: expected %v, got %v", e.Severity, e.Field, e.Expected, e.Actual)
}

// ValidationFailedError is a read-side assertion failure, distinct from
// CorruptionError in that it covers option/structure validation rather
// than post-write verification (e.g. a superblock checksum mismatch
// discovered while verifying a pre-existing filesystem).
type ValidationFailedError struct {
	Field    string
	Expected interface{}
	Actual   interface{}
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed for %s: expected %v, got %v", e.Field, e.Expected, e.Actual)
}

// ToolNotFoundError is returned by ScriptFormatter when the configured
// external command is not present on $PATH.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("external tool not found: %s", e.Name)
}

// TimeoutError is returned by ScriptFormatter when the external command
// exceeds its configured timeout.
type TimeoutError struct {
	Operation string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s", e.Operation)
}

// ErrCancelled is returned when a format/dry_run operation observes a
// cancelled context between write batches. It is a sentinel so callers
// can compare with errors.Is rather than type-asserting.
var ErrCancelled = errors.New("format operation cancelled")

// DuplicateNameError is returned by the formatter registry's register
// step when a name or alias already names a registered formatter.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("formatter name or alias already registered: %s", e.Name)
}
