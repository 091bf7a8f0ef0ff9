package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dompet/internal/client"
	"dompet/internal/ctl"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the CLI configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save server URL and timezone to the config file",
	Example: `  dompetctl config set --server https://dompet.example.com --timezone Asia/Makassar`,
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := ctl.Load()
	if err != nil {
		return err
	}
	fmt.Print(ctl.RenderKV([][2]string{
		{"file", ctl.ConfigPath()},
		{"server_url", ctl.ServerURL(cfg)},
		{"timezone", cfg.Location().String()},
	}))
	return nil
}

func runConfigSet(_ *cobra.Command, _ []string) error {
	cfg, err := ctl.Load()
	if err != nil {
		return err
	}
	if flagServer == "" && flagTimezone == "" {
		return fmt.Errorf("pass --server and/or --timezone")
	}
	if flagServer != "" {
		if _, err := client.New(flagServer); err != nil {
			return err
		}
		cfg.ServerURL = flagServer
	}
	if flagTimezone != "" {
		if _, err := time.LoadLocation(flagTimezone); err != nil {
			return fmt.Errorf("unknown timezone %q", flagTimezone)
		}
		cfg.Timezone = flagTimezone
	}
	if err := ctl.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("  Saved %s\n", ctl.ConfigPath())
	return nil
}
