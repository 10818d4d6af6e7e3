package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yanqian/meeting-summarizer/internal/bootstrap"
	"github.com/yanqian/meeting-summarizer/internal/infra/config"
	"github.com/yanqian/meeting-summarizer/pkg/logger"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "meeting-summarizer",
		Short:         "Summarize meeting transcripts with hosted language models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath != "" {
				_ = os.Setenv("CONFIG_PATH", configPath)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: configs/config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(checkAICmd())
	root.AddCommand(checkEmailCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the summary history schema to DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(logger.NewWithWriter(os.Stderr, os.Getenv("LOG_LEVEL")))
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Migrate(cmd.Context())
		},
	}
}

func checkAICmd() *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "check-ai",
		Short: "Summarize a built-in sample transcript to verify provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(logger.NewWithWriter(os.Stderr, os.Getenv("LOG_LEVEL")))
			if err != nil {
				return err
			}
			defer app.Close()
			resp, err := app.CheckAI(cmd.Context(), provider)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider to check (groq or openai, default from config)")
	return cmd
}

func checkEmailCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "check-email",
		Short: "Send a test message through every configured mail backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(logger.NewWithWriter(os.Stderr, os.Getenv("LOG_LEVEL")))
			if err != nil {
				return err
			}
			defer app.Close()
			report, err := app.CheckEmail(cmd.Context(), to)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func serve(ctx context.Context) error {
	app, err := buildApp(logger.New())
	if err != nil {
		return err
	}
	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("application stopped with error: %w", err)
	}
	return nil
}

func buildApp(log *slog.Logger) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app, err := initializeApp(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to wire application: %w", err)
	}
	return app, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
