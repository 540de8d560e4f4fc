package registry

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"io"

	"github.com/vorteil/moses/pkg/elog"
)

// FilesystemFormatter is the capability set every variant (FAT16, FAT32,
// exFAT, ext2, ext3, ext4, NTFS, ScriptFormatter) implements. It is
// generalized from the teacher's single-purpose pkg/vimg.FSCompiler
// interface (one Build method against one hardcoded layout) into the
// broader dispatch surface the registry needs: validation, platform and
// capability introspection, dry-run simulation, and format.
type FilesystemFormatter interface {
	// Name returns the formatter's canonical registry name.
	Name() string

	// Metadata returns the formatter's static description.
	Metadata() FormatterMetadata

	// ValidateOptions checks options this formatter alone understands
	// (e.g. ScriptFormatter's placeholder keys). Cross-cutting checks
	// (label length, cluster size) are the registry gate's job, not
	// the formatter's.
	ValidateOptions(opts FormatOptions) error

	// CanFormat reports whether this formatter can target dev at all,
	// beyond the generic size/mount gates the registry already applies.
	CanFormat(dev Device) bool

	// RequiresExternalTools lists external binaries that must be on
	// PATH before Format can run (empty for formatters with no such
	// dependency).
	RequiresExternalTools() []string

	// DryRun produces a SimulationReport without writing to dev.
	DryRun(ctx context.Context, dev Device, opts FormatOptions) (SimulationReport, error)

	// Format writes the filesystem to w, which the caller has already
	// opened (typically via pkg/device.OpenForWrite) and will close.
	// log receives progress and diagnostic output.
	Format(ctx context.Context, dev Device, opts FormatOptions, w io.WriteSeeker, log elog.Logger) error
}
