package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/retainhq/retain/internal/client"
	"github.com/retainhq/retain/internal/config"
	"github.com/retainhq/retain/internal/tui"
)

func newTUICmd() *cobra.Command {
	var (
		apiURL   string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse customers in the terminal",
		Long: `The terminal client connects to a running retain server, logs in, and
opens the customer list. The password comes from --password or the
RETAIN_PASSWORD environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if apiURL == "" {
				apiURL = cfg.APIBaseURL
			}
			if password == "" {
				password = os.Getenv("RETAIN_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("login requires --email and --password (or RETAIN_PASSWORD)")
			}

			ctx := cmd.Context()

			c := client.New(apiURL)
			if err := c.Healthz(ctx); err != nil {
				return fmt.Errorf("no retain server at %s: %w", apiURL, err)
			}
			if _, err := c.Login(ctx, email, password); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			// The run context may already be canceled when we get here.
			defer func() { _ = c.Logout(context.Background()) }()

			return tui.Run(ctx, c, tui.Options{PageSize: cfg.PageSize})
		},
	}

	cmd.Flags().StringVar(&apiURL, "api", "", "server base URL (default from config)")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")

	return cmd
}
