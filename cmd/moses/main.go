package main

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"os"

	"github.com/vorteil/moses/pkg/ext"
	"github.com/vorteil/moses/pkg/fat"
	"github.com/vorteil/moses/pkg/ntfs"
	"github.com/vorteil/moses/pkg/registry"
)

var reg = registry.New()

func mustRegister(formatter registry.FilesystemFormatter) {
	if err := reg.Register(formatter.Name(), formatter, formatter.Metadata()); err != nil {
		panic(err)
	}
}

func init() {
	mustRegister(fat.NewFAT16())
	mustRegister(fat.NewFAT32())
	mustRegister(fat.NewExFAT())
	mustRegister(ext.NewExt2())
	mustRegister(ext.NewExt3())
	mustRegister(ext.NewExt4())
	mustRegister(ntfs.NewNTFS())
}

func main() {
	commandInit()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
