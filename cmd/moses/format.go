package main

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vorteil/moses/pkg/device"
	"github.com/vorteil/moses/pkg/registry"
)

var (
	flagFilesystem  string
	flagLabel       string
	flagQuick       bool
	flagClusterSize uint32
	flagCompression bool
	flagVerify      bool
	flagForce       bool
	flagDryRun      bool
	flagOptions     []string
)

var formatCmd = &cobra.Command{
	Use:   "format <device>",
	Short: "Format a device or image file with the requested filesystem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFormat(context.Background(), args[0])
	},
}

func init() {
	f := formatCmd.Flags()
	f.StringVar(&flagFilesystem, "filesystem", "", "target filesystem name or alias (required)")
	f.StringVar(&flagLabel, "label", "", "volume label")
	f.BoolVar(&flagQuick, "quick", true, "perform a quick format where supported")
	f.Uint32Var(&flagClusterSize, "cluster-size", 0, "cluster/block size override in bytes")
	f.BoolVar(&flagCompression, "compression", false, "enable compression where supported")
	f.BoolVar(&flagVerify, "verify", false, "re-read and verify key structures after formatting")
	f.BoolVar(&flagForce, "force", false, "skip the interactive confirmation prompt")
	f.BoolVar(&flagDryRun, "dry-run", false, "simulate the format and print the predicted outcome without writing anything")
	f.StringArrayVar(&flagOptions, "option", nil, "filesystem-specific option as key=value (repeatable)")
	formatCmd.MarkFlagRequired("filesystem")
}

func parseOptions(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --option %q: expected key=value", pair)
		}
		out[k] = v
	}
	return out, nil
}

func confirmFormat(path, filesystem string) bool {
	fmt.Printf("This will erase all data on %s and write a new %s filesystem. Continue? [y/N]: ", path, filesystem)
	var answer string
	fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func runFormat(ctx context.Context, path string) error {
	opts, err := parseOptions(flagOptions)
	if err != nil {
		return err
	}

	if opts["verify-after-format"] == "" && conf.VerifyAfterFormat {
		flagVerify = true
	}

	clusterSize := flagClusterSize
	if s, ok := opts["cluster_size"]; ok {
		parsed, parseErr := strconv.ParseUint(s, 10, 32)
		if parseErr != nil {
			return fmt.Errorf("invalid cluster_size option %q: %w", s, parseErr)
		}
		clusterSize = uint32(parsed)
	}

	dev, err := device.Describe(ctx, path, log)
	if err != nil {
		return fmt.Errorf("describe %s: %w", path, err)
	}
	dev.DetectedFilesystem = ""

	if flagDryRun {
		report, err := reg.DryRun(ctx, flagFilesystem, dev, formatOptionsFromFlags(clusterSize, opts))
		if err != nil {
			return fmt.Errorf("dry run %s: %w", path, err)
		}
		printSimulationReport(path, report)
		return nil
	}

	if !flagForce && !confirmFormat(path, flagFilesystem) {
		log.Printf("aborted")
		return nil
	}

	handle, err := device.OpenForWrite(ctx, path, log)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer handle.Close()

	w := newDeviceWriteSeeker(ctx, handle)

	formatOpts := formatOptionsFromFlags(clusterSize, opts)

	var verifier registry.Verifier
	if formatOpts.VerifyAfterFormat {
		if formatter, _, resolveErr := reg.Resolve(flagFilesystem); resolveErr == nil {
			verifier, _ = formatter.(registry.Verifier)
		}
	}
	var readHandle *device.Handle
	readerOpener := func() (io.ReadSeeker, error) {
		h, err := device.OpenForRead(ctx, path, log)
		if err != nil {
			return nil, err
		}
		readHandle = h
		return device.NewAlignedDeviceReader(h, 0), nil
	}

	formatErr := reg.Format(ctx, flagFilesystem, dev, formatOpts, w, log, verifier, readerOpener)
	if readHandle != nil {
		readHandle.Close()
	}
	if formatErr != nil {
		return fmt.Errorf("format %s: %w", path, formatErr)
	}

	if err := handle.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	log.Printf("formatted %s as %s", path, flagFilesystem)
	return nil
}

func printSimulationReport(path string, report registry.SimulationReport) {
	fmt.Printf("Device:               %s\n", path)
	fmt.Printf("Will erase data:      %t\n", report.WillEraseData)
	fmt.Printf("Estimated duration:   %s\n", report.EstimatedDuration)
	fmt.Printf("Predicted free space: %d bytes\n", report.PredictedFreeSpaceBytes)
	if len(report.RequiredExternalTools) > 0 {
		fmt.Printf("Requires tools:       %s\n", strings.Join(report.RequiredExternalTools, ", "))
	}
	for _, w := range report.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
}

func formatOptionsFromFlags(clusterSize uint32, extra map[string]string) registry.FormatOptions {
	return registry.FormatOptions{
		Filesystem:        flagFilesystem,
		Label:             flagLabel,
		Quick:             flagQuick,
		ClusterSize:       clusterSize,
		Compression:       flagCompression,
		VerifyAfterFormat: flagVerify,
		AdditionalOptions: extra,
	}
}

// deviceWriteSeeker adapts device.Handle's sector-aligned WriteAligned
// primitive to io.WriteSeeker, the interface every formatter.Format
// implementation writes through. Following the separation formatter.go
// packages keep between record/layout construction and device writes,
// this is the one place a real OS handle is threaded in instead of the
// in-test sliceWriteSeeker double.
type deviceWriteSeeker struct {
	ctx context.Context
	h   *device.Handle
	pos int64
}

func newDeviceWriteSeeker(ctx context.Context, h *device.Handle) *deviceWriteSeeker {
	return &deviceWriteSeeker{ctx: ctx, h: h}
}

func (w *deviceWriteSeeker) Write(p []byte) (int, error) {
	if err := w.h.WriteAligned(w.ctx, w.pos, p); err != nil {
		return 0, err
	}
	w.pos += int64(len(p))
	return len(p), nil
}

func (w *deviceWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		w.pos = offset
	case io.SeekCurrent:
		w.pos += offset
	case io.SeekEnd:
		w.pos = w.h.Size() + offset
	default:
		return 0, fmt.Errorf("deviceWriteSeeker: invalid whence %d", whence)
	}
	return w.pos, nil
}
