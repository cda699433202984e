package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/procdoc/procdoc/internal/config"
	"github.com/procdoc/procdoc/internal/home"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage procdoc configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to the home directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := dir.EnsureExists(); err != nil {
			return err
		}
		if dir.ConfigExists() {
			return fmt.Errorf("config already exists at %s", dir.ConfigPath())
		}

		data, err := yamlv3.Marshal(config.DefaultConfig())
		if err != nil {
			return fmt.Errorf("failed to render default config: %w", err)
		}
		if err := os.WriteFile(dir.ConfigPath(), data, 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Printf("wrote %s\n", dir.ConfigPath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		data, err := yamlv3.Marshal(cm.Get())
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
