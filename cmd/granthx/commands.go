package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"granthx/internal/api"
	"granthx/internal/auth"
	"granthx/internal/chat"
	"granthx/internal/config"
	"granthx/internal/indexing"
	"granthx/internal/logger"
	"granthx/internal/toast"
)

// cliEnv is what every non-interactive command needs.
type cliEnv struct {
	cfg *config.Config
	log *zap.Logger
}

func loadCLI(configPath string) (*cliEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	// commands skip interactive sign-in but not the identity configuration
	if _, err := auth.ParsePublishableKey(cfg.ClerkPublishableKey); err != nil {
		return nil, identitySetupError(err)
	}
	zl, err := logger.New(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel, Console: cfg.LogLevel == "debug"})
	if err != nil {
		return nil, err
	}
	return &cliEnv{cfg: cfg, log: zl}, nil
}

func (e *cliEnv) indexingPanel() *indexing.Panel {
	return indexing.NewPanel(newClient(e.cfg, e.log), toast.NewPrinter(os.Stdout), e.log.Named("indexing"))
}

func (e *cliEnv) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return api.RequestContext(cmd.Context(), e.cfg.RequestTimeout)
}

func uploadCMD(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a .pdf or .csv file for indexing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadCLI(*configPath)
			if err != nil {
				return err
			}
			defer env.log.Sync()

			panel := env.indexingPanel()
			if err := panel.SelectFile(args[0]); err != nil {
				return err
			}
			fmt.Printf("Uploading %s...\n", panel.FileLabel())

			ctx, cancel := env.context(cmd)
			defer cancel()
			return panel.SubmitFile(ctx)
		},
	}
}

func addCMD(configPath *string) *cobra.Command {
	var link, text string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Index a website URL or a piece of text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadCLI(*configPath)
			if err != nil {
				return err
			}
			defer env.log.Sync()

			if text == "-" {
				text, err = readStdin()
				if err != nil {
					return err
				}
			}

			panel := env.indexingPanel()
			panel.SetURL(link)
			panel.SetText(text)

			ctx, cancel := env.context(cmd)
			defer cancel()
			if err := panel.SubmitURLOrText(ctx); err != nil {
				return err
			}
			for _, s := range panel.Sources() {
				fmt.Printf("%s  %s\n", s.Kind.Badge(), s.Label)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&link, "url", "", "website URL to index")
	cmd.Flags().StringVar(&text, "text", "", "text to index (- reads stdin)")
	return cmd
}

func askCMD(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ask QUERY...",
		Short: "Ask the assistant a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadCLI(*configPath)
			if err != nil {
				return err
			}
			defer env.log.Sync()

			panel := chat.NewPanel(newClient(env.cfg, env.log), env.log.Named("chat"))
			ctx, cancel := env.context(cmd)
			defer cancel()

			if !panel.Send(ctx, strings.Join(args, " ")) {
				return errors.New("empty question")
			}
			msgs := panel.Messages()
			reply := msgs[len(msgs)-1]
			fmt.Println(reply.Text)
			if reply.Text == chat.ErrorReply {
				return errors.New("chat request failed, see log for details")
			}
			return nil
		},
	}
}

func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
