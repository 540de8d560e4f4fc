package registry

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vorteil/moses/pkg/elog"
	"github.com/vorteil/moses/pkg/moerr"
)

type fakeFormatter struct {
	name        string
	meta        FormatterMetadata
	canFormat   bool
	formatCalls int
}

func (f *fakeFormatter) Name() string                        { return f.name }
func (f *fakeFormatter) Metadata() FormatterMetadata         { return f.meta }
func (f *fakeFormatter) ValidateOptions(FormatOptions) error { return nil }
func (f *fakeFormatter) CanFormat(Device) bool               { return f.canFormat }
func (f *fakeFormatter) RequiresExternalTools() []string     { return nil }

func (f *fakeFormatter) DryRun(ctx context.Context, dev Device, opts FormatOptions) (SimulationReport, error) {
	return SimulationReport{WillEraseData: true}, nil
}

func (f *fakeFormatter) Format(ctx context.Context, dev Device, opts FormatOptions, w io.WriteSeeker, log elog.Logger) error {
	f.formatCalls++
	_, err := w.Write([]byte("ok"))
	return err
}

func newFakeFAT16() *fakeFormatter {
	return &fakeFormatter{
		name:      "fat16",
		canFormat: true,
		meta: FormatterMetadata{
			Name:     "fat16",
			Aliases:  []string{"fat", "vfat16"},
			Category: CategoryLegacy,
			SupportedPlatforms: []Platform{PlatformLinux, PlatformWindows},
			MinSize:  16 * 1024 * 1024,
			MaxSize:  4 * 1024 * 1024 * 1024,
			Capabilities: Capabilities{
				SupportsLabel:  true,
				MaxLabelLength: 11,
			},
		},
	}
}

func TestRegisterAndResolveByAlias(t *testing.T) {
	r := New()
	f := newFakeFAT16()
	require.NoError(t, r.Register(f.name, f, f.meta))

	got, meta, err := r.Resolve("vfat16")
	require.NoError(t, err)
	assert.Same(t, f, got)
	assert.Equal(t, "fat16", meta.Name)
}

func TestRegisterDuplicateNameRejected(t *testing.T) {
	r := New()
	f := newFakeFAT16()
	require.NoError(t, r.Register(f.name, f, f.meta))

	err := r.Register("fat16", newFakeFAT16(), f.meta)
	var dup *moerr.DuplicateNameError
	assert.ErrorAs(t, err, &dup)
}

func TestRegisterDuplicateAliasRejected(t *testing.T) {
	r := New()
	f := newFakeFAT16()
	require.NoError(t, r.Register(f.name, f, f.meta))

	other := &fakeFormatter{name: "other", meta: FormatterMetadata{Name: "other", Aliases: []string{"fat"}}}
	err := r.Register(other.name, other, other.meta)
	var dup *moerr.DuplicateNameError
	assert.ErrorAs(t, err, &dup)
}

func TestResolveUnknownNameReturnsOptionInvalid(t *testing.T) {
	r := New()
	_, _, err := r.Resolve("doesnotexist")
	var oi *moerr.OptionInvalidError
	require.ErrorAs(t, err, &oi)
	assert.Equal(t, moerr.UnknownFormatter, oi.Kind)
}

func TestListByCategoryAndPlatform(t *testing.T) {
	r := New()
	f := newFakeFAT16()
	require.NoError(t, r.Register(f.name, f, f.meta))

	assert.Len(t, r.ListByCategory(CategoryLegacy), 1)
	assert.Len(t, r.ListByCategory(CategoryModern), 0)
	assert.Len(t, r.ListByPlatform(PlatformLinux), 1)
	assert.Len(t, r.ListByPlatform(PlatformDarwin), 0)
}

func TestGateRejectsSystemDevice(t *testing.T) {
	dev := Device{ID: "dev0", SizeBytes: 1 << 30, IsSystem: true}
	err := Gate(dev, FormatOptions{}, FormatterMetadata{})
	var sv *moerr.SafetyViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, moerr.SystemDeviceProtected, sv.Kind)
}

func TestGateRejectsCriticalMount(t *testing.T) {
	dev := Device{ID: "dev0", SizeBytes: 1 << 30, MountPoints: []string{"/boot"}}
	err := Gate(dev, FormatOptions{}, FormatterMetadata{})
	var sv *moerr.SafetyViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, moerr.CriticalMountProtected, sv.Kind)
}

func TestGateRejectsBelowMinSize(t *testing.T) {
	dev := Device{ID: "dev0", SizeBytes: 1 << 20}
	err := Gate(dev, FormatOptions{}, FormatterMetadata{MinSize: 16 << 20})
	var cr *moerr.CapabilityRejectedError
	require.ErrorAs(t, err, &cr)
	assert.Equal(t, moerr.BelowMinSize, cr.Kind)
}

func TestGateRejectsInvalidClusterSize(t *testing.T) {
	dev := Device{ID: "dev0", SizeBytes: 1 << 30}
	err := Gate(dev, FormatOptions{ClusterSize: 3000}, FormatterMetadata{})
	var oi *moerr.OptionInvalidError
	require.ErrorAs(t, err, &oi)
	assert.Equal(t, moerr.InvalidClusterSize, oi.Kind)
}

func TestGateRejectsLabelTooLong(t *testing.T) {
	dev := Device{ID: "dev0", SizeBytes: 1 << 30}
	meta := FormatterMetadata{Capabilities: Capabilities{MaxLabelLength: 4}}
	err := Gate(dev, FormatOptions{Label: "TOOLONGLABEL"}, meta)
	var oi *moerr.OptionInvalidError
	require.ErrorAs(t, err, &oi)
	assert.Equal(t, moerr.LabelTooLong, oi.Kind)
}

func TestGateAcceptsValidRequest(t *testing.T) {
	dev := Device{ID: "dev0", SizeBytes: 128 << 20}
	meta := FormatterMetadata{MinSize: 16 << 20, MaxSize: 4 << 30, Capabilities: Capabilities{MaxLabelLength: 11}}
	err := Gate(dev, FormatOptions{Label: "MOSES_TEST", ClusterSize: 4096}, meta)
	assert.NoError(t, err)
}

type sliceWriteSeeker struct {
	data []byte
	pos  int64
}

func (s *sliceWriteSeeker) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	n := copy(s.data[s.pos:end], p)
	s.pos = end
	return n, nil
}

func (s *sliceWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(len(s.data)) + offset
	}
	return s.pos, nil
}

func TestDispatchFormatRunsFormatterAndSkipsVerifyWhenNotRequested(t *testing.T) {
	r := New()
	f := newFakeFAT16()
	require.NoError(t, r.Register(f.name, f, f.meta))

	dev := Device{ID: "dev0", SizeBytes: 128 << 20}
	opts := FormatOptions{Label: "MOSES_TEST"}
	w := &sliceWriteSeeker{}

	err := r.Format(context.Background(), "fat16", dev, opts, w, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.formatCalls)
}

func TestDispatchFormatRejectsSystemDeviceBeforeFormatterRuns(t *testing.T) {
	r := New()
	f := newFakeFAT16()
	require.NoError(t, r.Register(f.name, f, f.meta))

	dev := Device{ID: "dev0", SizeBytes: 128 << 20, IsSystem: true}
	w := &sliceWriteSeeker{}

	err := r.Format(context.Background(), "fat16", dev, FormatOptions{}, w, nil, nil, nil)
	var sv *moerr.SafetyViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, 0, f.formatCalls)
}

func TestDispatchDryRunReturnsFormatterReport(t *testing.T) {
	r := New()
	f := newFakeFAT16()
	require.NoError(t, r.Register(f.name, f, f.meta))

	dev := Device{ID: "dev0", SizeBytes: 128 << 20}
	report, err := r.DryRun(context.Background(), "fat16", dev, FormatOptions{})
	require.NoError(t, err)
	assert.True(t, report.WillEraseData)
}
