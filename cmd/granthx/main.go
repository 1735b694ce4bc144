package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"granthx/internal/api"
	"granthx/internal/auth"
	"granthx/internal/config"
	"granthx/internal/integration"
	"granthx/internal/logger"
	"granthx/internal/tui"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "granthx",
		Short:         "GranthX dashboard: index content and chat with the assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./granthx.yaml or ~/.config/granthx/)")

	root.AddCommand(
		uploadCMD(&configPath),
		addCMD(&configPath),
		askCMD(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runDashboard starts the terminal UI. Logs go to the log file only since
// the screen belongs to the UI.
func runDashboard(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	zl, err := logger.New(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer zl.Sync()

	identity, err := newIdentity(cfg, zl)
	if err != nil {
		// the dashboard cannot run without the identity provider
		zl.Error("identity setup failed", zap.Error(err))
		return identitySetupError(err)
	}

	zl.Info("starting dashboard", zap.String("api_base", cfg.APIBase))
	return tui.Run(tui.Deps{
		Identity:    identity,
		Backend:     newClient(cfg, zl),
		Integration: []integration.Option{integration.WithEndpoint(cfg.IntegrationEndpoint)},
		Timeout:     cfg.RequestTimeout,
		Log:         zl,
	})
}

func identitySetupError(err error) error {
	return fmt.Errorf("identity setup failed: %w (set CLERK_PUBLISHABLE_KEY)", err)
}

func newClient(cfg *config.Config, zl *zap.Logger) *api.Client {
	return api.NewClient(cfg.APIBase,
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		api.WithLogger(zl.Named("api")),
	)
}

// newIdentity builds the identity gate and restores a saved or configured
// session.
func newIdentity(cfg *config.Config, zl *zap.Logger) (*auth.Identity, error) {
	opts := []auth.IdentityOption{auth.WithLogger(zl.Named("auth"))}
	if cfg.PersistSession {
		path := cfg.SessionFile
		if path == "" {
			p, err := auth.DefaultStorePath()
			if err != nil {
				zl.Warn("session persistence disabled", zap.Error(err))
			}
			path = p
		}
		if path != "" {
			opts = append(opts, auth.WithStore(auth.NewStore(path)))
		}
	}

	identity, err := auth.NewIdentity(cfg.ClerkPublishableKey, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.SessionToken != "" {
		if _, err := identity.SignIn(cfg.SessionToken); err != nil {
			zl.Warn("configured session token rejected", zap.Error(err))
		}
	} else {
		identity.Restore()
	}
	return identity, nil
}
