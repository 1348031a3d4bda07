// Package cli implements the inkwell CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell/internal/backend"
	"github.com/inkwell-ai/inkwell/internal/config"
	"github.com/inkwell-ai/inkwell/internal/engine"
	"github.com/inkwell-ai/inkwell/internal/logging"
	"github.com/inkwell-ai/inkwell/internal/repository"
)

var configPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Streaming chat engine for research notebooks",
	Long:  "Inkwell drives notebook- and source-scoped AI chat sessions against a notebook backend: context selection, token-streamed responses, and a local transcript archive.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
}

// app bundles everything a command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	engine  *engine.Engine
	archive *repository.ArchiveRepository
	db      *repository.DB
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Log.Path, cfg.Log.Prod)

	db, err := repository.NewDB(cfg.Archive.Path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	archive := repository.NewArchiveRepository(db)

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token, logger)
	eng := engine.New(client, archive, cfg.Chat.SettingsURL, cfg.Chat.DefaultModel, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		engine:  eng,
		archive: archive,
		db:      db,
	}, nil
}

func (a *app) Close() {
	a.logger.Sync()
	a.db.Close()
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
