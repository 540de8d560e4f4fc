// Package script implements ScriptFormatter, the registry.FilesystemFormatter
// variant that wraps an external command template instead of writing bytes
// itself. Grounded on the pack's canonical-snapd mkfs package
// (other_examples/bfb0d9b1_canonical-snapd__osutil-mkfs-mkfs.go.go), which
// shells out to mkfs.ext4/mkfs.vfat via os/exec and collects combined
// output; generalized here into a single placeholder-driven template
// instead of one hardcoded function per filesystem, and given an explicit
// timeout since the source repo relies on the caller never hanging.
package script

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vorteil/moses/pkg/elog"
	"github.com/vorteil/moses/pkg/moerr"
	"github.com/vorteil/moses/pkg/registry"
)

// CommandTemplate describes the external tool invocation. Path and each
// element of Args may contain the placeholders {device}, {label},
// {filesystem}, and {quick}; they are substituted per-invocation from the
// Device and FormatOptions of that call.
type CommandTemplate struct {
	Path           string
	Args           []string
	Env            []string
	TimeoutSeconds int
}

func (t CommandTemplate) expand(dev registry.Device, opts registry.FormatOptions, filesystem string) (string, []string) {
	quick := "false"
	if opts.Quick {
		quick = "true"
	}
	replacer := strings.NewReplacer(
		"{device}", dev.ID,
		"{label}", opts.Label,
		"{filesystem}", filesystem,
		"{quick}", quick,
	)

	path := replacer.Replace(t.Path)
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = replacer.Replace(a)
	}
	return path, args
}

// Formatter is a registry.FilesystemFormatter backed by an external
// command template, for historical/legacy filesystems (or any filesystem
// whose canonical tooling already exists on the host) that Moses does not
// implement a native writer for.
type Formatter struct {
	name     string
	metadata registry.FormatterMetadata
	template CommandTemplate
}

// New constructs a ScriptFormatter registered as name, described by
// metadata, invoking template on Format.
func New(name string, metadata registry.FormatterMetadata, template CommandTemplate) *Formatter {
	return &Formatter{name: name, metadata: metadata, template: template}
}

func (f *Formatter) Name() string                        { return f.name }
func (f *Formatter) Metadata() registry.FormatterMetadata { return f.metadata }

func (f *Formatter) ValidateOptions(opts registry.FormatOptions) error {
	return nil
}

func (f *Formatter) CanFormat(dev registry.Device) bool {
	return dev.SizeBytes >= f.metadata.MinSize && (f.metadata.MaxSize == 0 || dev.SizeBytes <= f.metadata.MaxSize)
}

// RequiresExternalTools reports the configured command's executable name,
// so the registry/CLI can warn before attempting a format that will fail
// with ToolNotFound.
func (f *Formatter) RequiresExternalTools() []string {
	return []string{f.template.Path}
}

// DryRun reports the tool requirement and that the operation will erase
// data, without invoking the external tool.
func (f *Formatter) DryRun(ctx context.Context, dev registry.Device, opts registry.FormatOptions) (registry.SimulationReport, error) {
	tool, _ := f.template.expand(dev, opts, f.name)
	if _, err := exec.LookPath(tool); err != nil {
		return registry.SimulationReport{}, &moerr.ToolNotFoundError{Name: tool}
	}
	return registry.SimulationReport{
		RequiredExternalTools: []string{tool},
		WillEraseData:         true,
	}, nil
}

// Format expands the command template against dev/opts and runs it with a
// deadline of template.TimeoutSeconds, killing the child process if it is
// exceeded. w is unused: unlike the in-process formatters, ScriptFormatter
// hands dev.ID to the external tool directly rather than writing through
// an already-open handle.
func (f *Formatter) Format(ctx context.Context, dev registry.Device, opts registry.FormatOptions, w io.WriteSeeker, log elog.Logger) error {
	tool, args := f.template.expand(dev, opts, f.name)
	path, err := exec.LookPath(tool)
	if err != nil {
		return &moerr.ToolNotFoundError{Name: tool}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if f.template.TimeoutSeconds > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(f.template.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, path, args...)
	if len(f.template.Env) > 0 {
		cmd.Env = f.template.Env
	}

	if log != nil {
		log.Infof("running %s %s", path, strconv.Quote(strings.Join(args, " ")))
	}

	out, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return &moerr.TimeoutError{Operation: fmt.Sprintf("%s %s", path, strings.Join(args, " "))}
	}
	if err != nil {
		if log != nil {
			log.Errorf("%s failed: %s", path, string(out))
		}
		return moerr.WrapIO(0, err)
	}
	return nil
}
