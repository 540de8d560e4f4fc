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

	"github.com/vorteil/moses/pkg/registry"
)

var flagCategory string

var listFormatsCmd = &cobra.Command{
	Use:   "list-formats",
	Short: "Enumerate registered formatters and their aliases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var formatters []registry.FormatterMetadata
		if flagCategory != "" {
			formatters = reg.ListByCategory(registry.Category(flagCategory))
		} else {
			formatters = reg.All()
		}
		printFormatterTable(formatters)
		return nil
	},
}

func init() {
	listFormatsCmd.Flags().StringVar(&flagCategory, "category", "",
		"filter by category (modern|legacy|historical|console|embedded|experimental)")
}

func printFormatterTable(formatters []registry.FormatterMetadata) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"NAME", "ALIASES", "CATEGORY", "DESCRIPTION"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, m := range formatters {
		table.Append([]string{m.Name, strings.Join(m.Aliases, ","), string(m.Category), m.Description})
	}
	table.Render()
}

var formatInfoCmd = &cobra.Command{
	Use:   "format-info <name>",
	Short: "Print a formatter's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, metadata, err := reg.Resolve(args[0])
		if err != nil {
			return err
		}
		printFormatterMetadata(metadata)
		return nil
	},
}

func printFormatterMetadata(m registry.FormatterMetadata) {
	fmt.Printf("Name:                  %s\n", m.Name)
	fmt.Printf("Aliases:               %s\n", strings.Join(m.Aliases, ", "))
	fmt.Printf("Description:           %s\n", m.Description)
	fmt.Printf("Category:              %s\n", m.Category)

	platforms := make([]string, len(m.SupportedPlatforms))
	for i, p := range m.SupportedPlatforms {
		platforms[i] = string(p)
	}
	fmt.Printf("Supported platforms:   %s\n", strings.Join(platforms, ", "))
	fmt.Printf("Min size:              %s bytes\n", strconv.FormatUint(m.MinSize, 10))
	if m.MaxSize > 0 {
		fmt.Printf("Max size:              %s bytes\n", strconv.FormatUint(m.MaxSize, 10))
	}
	fmt.Printf("Supports label:        %t (max length %d)\n", m.Capabilities.SupportsLabel, m.Capabilities.MaxLabelLength)
	fmt.Printf("Supports UUID:         %t\n", m.Capabilities.SupportsUUID)
	fmt.Printf("Supports compression:  %t\n", m.Capabilities.SupportsCompression)
	fmt.Printf("Supports encryption:   %t\n", m.Capabilities.SupportsEncryption)
	fmt.Printf("Case sensitive:        %t\n", m.Capabilities.CaseSensitive)
	if len(m.RequiresExternalTools) > 0 {
		fmt.Printf("Requires tools:        %s\n", strings.Join(m.RequiresExternalTools, ", "))
	}
	if len(m.BundledTools) > 0 {
		fmt.Printf("Bundled tools:         %s\n", strings.Join(m.BundledTools, ", "))
	}
}
