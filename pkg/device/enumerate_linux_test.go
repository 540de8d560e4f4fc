//go:build linux

package device

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSysBlockDevice(t *testing.T, root, name string, sizeSectors uint64, removable bool) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))

	writeField := func(field, value string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, field), []byte(value+"\n"), 0644))
	}
	writeField("size", itoa(sizeSectors))
	if removable {
		writeField("removable", "1")
	} else {
		writeField("removable", "0")
	}
	writeField("ro", "0")
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

func TestPlatformEnumerateSkipsLoopAndClassifiesDevices(t *testing.T) {
	root := t.TempDir()
	writeSysBlockDevice(t, root, "sda", 2000000, false)
	writeSysBlockDevice(t, root, "sdb", 1000000, true)
	writeSysBlockDevice(t, root, "loop0", 100, false)

	oldSysBlock, oldMounts := sysBlockDir, procMountsPath
	sysBlockDir = root
	procMountsPath = filepath.Join(t.TempDir(), "mounts-does-not-exist")
	defer func() { sysBlockDir, procMountsPath = oldSysBlock, oldMounts }()

	devices, err := platformEnumerate()
	require.NoError(t, err)
	require.Len(t, devices, 2)

	byName := map[string]bool{}
	for _, d := range devices {
		byName[d.Name] = d.Removable
		assert.Greater(t, d.SizeBytes, uint64(0))
	}
	assert.False(t, byName["sda"])
	assert.True(t, byName["sdb"])
}
