package registry

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"io"

	"github.com/vorteil/moses/pkg/elog"
	"github.com/vorteil/moses/pkg/moerr"
)

// Verifier re-reads key metadata blocks of a freshly formatted device and
// checks magic numbers and checksums. Each formatter package supplies its
// own implementation; the dispatcher only needs the interface to decide
// whether VerifyAfterFormat was requested.
type Verifier interface {
	Verify(ctx context.Context, r io.ReadSeeker, opts FormatOptions) error
}

// DryRun resolves name, applies Gate, and if that passes, delegates to the
// formatter's own DryRun to produce a SimulationReport. Unlike Format, it
// never opens the device for writing.
func (r *Registry) DryRun(ctx context.Context, name string, dev Device, opts FormatOptions) (SimulationReport, error) {
	formatter, metadata, err := r.Resolve(name)
	if err != nil {
		return SimulationReport{}, err
	}
	if err := Gate(dev, opts, metadata); err != nil {
		return SimulationReport{}, err
	}
	if err := formatter.ValidateOptions(opts); err != nil {
		return SimulationReport{}, err
	}
	if !formatter.CanFormat(dev) {
		return SimulationReport{}, &moerr.CapabilityRejectedError{Kind: moerr.PlatformUnsupported, Formatter: metadata.Name}
	}
	return formatter.DryRun(ctx, dev, opts)
}

// Format resolves name, applies Gate and formatter validation, then
// writes the filesystem to w and, if opts.VerifyAfterFormat is set and
// verifier is non-nil, re-opens w for reading (via readerOpener) and
// verifies it. The caller owns opening/closing of both w and the handle
// readerOpener produces.
func (r *Registry) Format(ctx context.Context, name string, dev Device, opts FormatOptions, w io.WriteSeeker, log elog.Logger, verifier Verifier, readerOpener func() (io.ReadSeeker, error)) error {
	formatter, metadata, err := r.Resolve(name)
	if err != nil {
		return err
	}
	if err := Gate(dev, opts, metadata); err != nil {
		return err
	}
	if err := formatter.ValidateOptions(opts); err != nil {
		return err
	}
	if !formatter.CanFormat(dev) {
		return &moerr.CapabilityRejectedError{Kind: moerr.PlatformUnsupported, Formatter: metadata.Name}
	}

	if err := formatter.Format(ctx, dev, opts, w, log); err != nil {
		return err
	}

	if opts.VerifyAfterFormat && verifier != nil {
		rs, err := readerOpener()
		if err != nil {
			return err
		}
		return verifier.Verify(ctx, rs, opts)
	}
	return nil
}
