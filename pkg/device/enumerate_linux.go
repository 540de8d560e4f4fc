//go:build linux

package device

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vorteil/moses/pkg/registry"
)

// sysBlockDir is where the Linux kernel publishes one directory per
// block device; overridable in tests.
var sysBlockDir = "/sys/block"

// procMountsPath is the kernel's live mount table.
var procMountsPath = "/proc/mounts"

func platformEnumerate() ([]registry.Device, error) {
	entries, err := os.ReadDir(sysBlockDir)
	if err != nil {
		return nil, err
	}

	mounts := readMountPoints()

	var out []registry.Device
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") {
			continue
		}

		path := "/dev/" + name
		sizeSectors, err := readSysUint64(filepath.Join(sysBlockDir, name, "size"))
		if err != nil {
			continue
		}

		removable, _ := readSysUint64(filepath.Join(sysBlockDir, name, "removable"))
		ro, _ := readSysUint64(filepath.Join(sysBlockDir, name, "ro"))

		dev := registry.Device{
			ID:          path,
			Name:        name,
			SizeBytes:   sizeSectors * 512,
			Class:       classifyDevice(name, removable == 1),
			MountPoints: mounts[path],
			Removable:   removable == 1,
			IsSystem:    isSystemDevice(path, mounts),
		}
		_ = ro
		out = append(out, dev)
	}
	return out, nil
}

func classifyDevice(name string, removable bool) registry.DeviceClass {
	switch {
	case strings.HasPrefix(name, "nvme"), strings.HasPrefix(name, "sd") && !removable:
		return registry.DeviceClassSSD
	case removable:
		return registry.DeviceClassUSB
	default:
		return registry.DeviceClassHDD
	}
}

// isSystemDevice reports whether path itself is mounted at "/" or
// "/boot", per
// spec.md's "system flag is authoritative" invariant.
func isSystemDevice(path string, mounts map[string][]string) bool {
	for _, mp := range mounts[path] {
		if mp == "/" || mp == "/boot" {
			return true
		}
	}
	return false
}

func readMountPoints() map[string][]string {
	out := make(map[string][]string)
	f, err := os.Open(procMountsPath)
	if err != nil {
		return out
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		dev, mountPoint := fields[0], fields[1]
		out[dev] = append(out[dev], mountPoint)
	}
	return out
}

func readSysUint64(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
}
