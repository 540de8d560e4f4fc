package script

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vorteil/moses/pkg/moerr"
	"github.com/vorteil/moses/pkg/registry"
)

func TestCommandTemplateExpand(t *testing.T) {
	tmpl := CommandTemplate{
		Path: "mkfs.{filesystem}",
		Args: []string{"-n", "{label}", "{device}"},
	}
	dev := registry.Device{ID: "/dev/sdb1"}
	opts := registry.FormatOptions{Label: "DATA"}

	path, args := tmpl.expand(dev, opts, "vfat")
	assert.Equal(t, "mkfs.vfat", path)
	assert.Equal(t, []string{"-n", "DATA", "/dev/sdb1"}, args)
}

func TestFormatReturnsToolNotFound(t *testing.T) {
	f := New("imaginary-fs", registry.FormatterMetadata{Name: "imaginary-fs"}, CommandTemplate{
		Path: "definitely-not-a-real-binary-xyz",
	})

	err := f.Format(context.Background(), registry.Device{ID: "/dev/zero"}, registry.FormatOptions{}, nil, nil)
	var notFound *moerr.ToolNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDryRunReturnsToolNotFound(t *testing.T) {
	f := New("imaginary-fs", registry.FormatterMetadata{Name: "imaginary-fs"}, CommandTemplate{
		Path: "definitely-not-a-real-binary-xyz",
	})

	_, err := f.DryRun(context.Background(), registry.Device{ID: "/dev/zero"}, registry.FormatOptions{})
	var notFound *moerr.ToolNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestFormatRunsTrueSuccessfully(t *testing.T) {
	f := New("noop-fs", registry.FormatterMetadata{Name: "noop-fs"}, CommandTemplate{
		Path:           "true",
		TimeoutSeconds: 5,
	})

	err := f.Format(context.Background(), registry.Device{ID: "/dev/zero"}, registry.FormatOptions{}, nil, nil)
	assert.NoError(t, err)
}

func TestFormatTimesOutOnSlowCommand(t *testing.T) {
	f := New("slow-fs", registry.FormatterMetadata{Name: "slow-fs"}, CommandTemplate{
		Path:           "sleep",
		Args:           []string{"5"},
		TimeoutSeconds: 1,
	})

	start := time.Now()
	err := f.Format(context.Background(), registry.Device{ID: "/dev/zero"}, registry.FormatOptions{}, nil, nil)
	elapsed := time.Since(start)

	var timeout *moerr.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Less(t, elapsed, 4*time.Second)
}

func TestCanFormatRespectsSizeBounds(t *testing.T) {
	f := New("bounded-fs", registry.FormatterMetadata{
		Name:    "bounded-fs",
		MinSize: 1 << 20,
		MaxSize: 1 << 30,
	}, CommandTemplate{Path: "true"})

	assert.False(t, f.CanFormat(registry.Device{SizeBytes: 1024}))
	assert.True(t, f.CanFormat(registry.Device{SizeBytes: 10 << 20}))
	assert.False(t, f.CanFormat(registry.Device{SizeBytes: 2 << 30}))
}
