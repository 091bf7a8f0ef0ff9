package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dompet/internal/client"
	"dompet/internal/ctl"
)

const commandTimeout = 2 * time.Minute

var (
	flagServer   string
	flagTimezone string
)

var rootCmd = &cobra.Command{
	Use:           "dompetctl",
	Short:         "Dompet expense tracker CLI",
	Long:          "Record, browse and summarise expenses stored on a dompet server.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ctl.RenderError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "Server URL (overrides config and DOMPET_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&flagTimezone, "timezone", "", "Timezone for month and day grouping (overrides config)")
}

// session is the client and calendar shared by every command.
type session struct {
	client *client.Client
	loc    *time.Location
}

func newSession() (*session, error) {
	cfg, err := ctl.Load()
	if err != nil {
		return nil, err
	}
	if flagTimezone != "" {
		if _, err := time.LoadLocation(flagTimezone); err != nil {
			return nil, fmt.Errorf("unknown timezone %q", flagTimezone)
		}
		cfg.Timezone = flagTimezone
	}
	serverURL := ctl.ServerURL(cfg)
	if flagServer != "" {
		serverURL = flagServer
	}
	loc := cfg.Location()
	c, err := client.New(serverURL, client.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	return &session{client: c, loc: loc}, nil
}

// commandContext is cancelled on interrupt or after commandTimeout.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
