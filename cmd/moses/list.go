package main

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sisatech/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vorteil/moses/pkg/device"
	"github.com/vorteil/moses/pkg/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Enumerate devices visible to the formatter",
	Long:  "List prints every block device the platform's external enumerator can see: name, id, size, type, removable, system, and mount points.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := device.Enumerate()
		if err != nil {
			return fmt.Errorf("list devices: %w", err)
		}
		printDeviceTable(devices)
		return nil
	},
}

func printDeviceTable(devices []registry.Device) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"NAME", "ID", "SIZE", "TYPE", "REMOVABLE", "SYSTEM", "MOUNTS"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, d := range devices {
		table.Append([]string{
			d.Name,
			d.ID,
			strconv.FormatUint(d.SizeBytes, 10),
			string(d.Class),
			strconv.FormatBool(d.Removable),
			strconv.FormatBool(d.IsSystem),
			strings.Join(d.MountPoints, ","),
		})
	}
	table.Render()
}
