package main

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/sisatech/toml"
	"github.com/spf13/cobra"

	"github.com/vorteil/moses/pkg/elog"
)

var log elog.Logger

var (
	flagVerbose bool
	flagDebug   bool
	flagJSON    bool
	flagConfig  string
)

// mosesConf mirrors the teacher's vorteild conf.toml shape: a small
// defaults file consulted when a flag isn't set explicitly on the
// command line.
type mosesConf struct {
	VerifyAfterFormat bool `toml:"verify-after-format"`
}

var conf mosesConf

var rootCmd = &cobra.Command{
	Use:   "moses",
	Short: "Moses filesystem formatting CLI",
	Long:  "Moses provides a uniform command-line interface for formatting devices and images with a variety of filesystems.",
}

func commandInit() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "enable json output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", defaultConfigPath(), "path to a TOML defaults file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger := &elog.CLI{}
		if flagJSON {
			logger.DisableTTY = true
			logrus.SetFormatter(&logrus.JSONFormatter{})
		} else {
			logrus.SetFormatter(logger)
		}
		logrus.SetLevel(logrus.TraceLevel)

		if flagDebug {
			logger.IsDebug = true
			logger.IsVerbose = true
		} else if flagVerbose {
			logger.IsVerbose = true
		}
		log = logger

		loadConfig(flagConfig)
		return nil
	}

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(listFormatsCmd)
	rootCmd.AddCommand(formatInfoCmd)
	rootCmd.AddCommand(formatCmd)
}

// defaultConfigPath mirrors the teacher's ~/.vorteild/conf.toml
// convention, relocated to ~/.moses/conf.toml.
func defaultConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".moses", "conf.toml")
}

// loadConfig reads path into conf if it exists. A missing config file
// is not an error — every field simply keeps its zero value default.
func loadConfig(path string) {
	if path == "" {
		return
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return
	}
	if err := toml.Unmarshal(data, &conf); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to parse config %s: %v\n", path, err)
	}
}
