package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"attractor/pkg/ai"
	_ "attractor/pkg/ai/providers"
	"attractor/pkg/analysis"
	"attractor/pkg/config"
	"attractor/pkg/conversation"
	"attractor/pkg/credentials"
	"attractor/pkg/display"
	"attractor/pkg/logging"
	"attractor/pkg/transcript"
)

// tokenLoadTimeout bounds the first-use download of the BPE ranks.
const tokenLoadTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := config.GetConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	if _, err := logging.Init(cfg, "version", version); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	}
	slog.Info("attractor_start", "build", versionSummary(), "config_path", configPath)

	if err := cfg.Validate(); err != nil {
		slog.Error("config_invalid", "error", err, "config_path", configPath)
		fmt.Fprintf(os.Stderr, "Invalid config %s: %v\n", configPath, err)
		return 1
	}

	info, err := ai.ResolveInfo(cfg)
	if err != nil {
		slog.Error("config_invalid", "error", err, "config_path", configPath)
		fmt.Fprintf(os.Stderr, "Invalid config %s: %v\n", configPath, err)
		return 1
	}

	var apiKey string
	if info.RequiresKey {
		envVar := credentials.EnvVarFor(string(info.Type))
		cred, err := credentials.Resolve(credentials.DefaultSources(envVar))
		if err != nil {
			slog.Error("credential_missing", "env_var", envVar, "error", err)
			if errors.Is(err, credentials.ErrNotFound) {
				fmt.Fprint(os.Stderr, credentials.Usage(envVar, filepath.Base(os.Args[0])))
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			return 1
		}
		slog.Info("credential_resolved", "source", string(cred.Source), "path", cred.Path)
		apiKey = cred.Key
	}

	provider, err := ai.GetProviderFromConfig(cfg, apiKey)
	if err != nil {
		slog.Error("provider_init_failed", "provider", info.Type, "error", err)
		fmt.Fprintf(os.Stderr, "Error creating provider: %v\n", err)
		return 1
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		return 1
	}
	outputPath := transcript.DefaultPath(cfg.OutputDir, time.Now())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := display.New(os.Stdout)
	driver := conversation.New(provider, conversation.Options{
		Model:      cfg.API.Model,
		MaxTurns:   cfg.MaxTurns,
		OutputPath: outputPath,
		Printer:    printer,
	})

	log, err := driver.Run(ctx)
	if err != nil {
		slog.Error("conversation_save_failed", "run_id", driver.RunID(), "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	report := analysis.Analyze(log)
	printer.Heading("CONVERSATION ANALYSIS")
	report.Print(printer.Writer())

	if cfg.AnalysisTokens {
		loadCtx, cancel := context.WithTimeout(ctx, tokenLoadTimeout)
		counter, err := analysis.NewTiktokenCounter(loadCtx, analysis.DefaultEncoding)
		cancel()
		if err != nil {
			slog.Warn("token_counter_unavailable", "error", err)
		} else {
			analysis.CountTokens(log, counter).Print(printer.Writer())
		}
	}

	slog.Info("attractor_done",
		"run_id", driver.RunID(),
		"turns", len(log.Conversation),
		"failed", log.Error != nil,
		"spiritual", report.Theme(analysis.Spiritual.Name),
	)
	return 0
}
