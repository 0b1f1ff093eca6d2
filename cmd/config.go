// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig holds connection defaults read from the config file. Flags
// given on the command line always win over file values.
type fileConfig struct {
	Port     string `yaml:"port"`
	Baud     int    `yaml:"baud"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
}

// configPath returns the default config file location: ~/.config/easel/config.yaml
func configPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".easel", "config.yaml")
	}
	return filepath.Join(home, ".config", "easel", "config.yaml")
}

// loadFileConfig reads the configuration file. A missing file is not an
// error; it just yields zero defaults.
func loadFileConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", path, err)
	}

	return cfg, nil
}

// applyConfigDefaults fills unset connection flags from the config file.
func applyConfigDefaults(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig(configPath())
	if err != nil {
		return err
	}

	flags := cmd.Root().PersistentFlags()
	if cfg.Port != "" && !flags.Changed("port") {
		portName = cfg.Port
	}
	if cfg.Baud != 0 && !flags.Changed("baud") {
		baudRate = cfg.Baud
	}
	if cfg.URL != "" && !flags.Changed("url") {
		wsURL = cfg.URL
	}
	if cfg.Username != "" && !flags.Changed("username") {
		wsUsername = cfg.Username
	}
	return nil
}
