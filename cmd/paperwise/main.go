// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

// Package main is the entry point for the Paperwise command.
//
// Paperwise recommends research papers by blending a content signal (cosine
// similarity between a user's profile and paper embeddings), a collaborative
// signal (endorsements from users who liked the same papers) and a
// popularity signal.
//
// # Commands
//
//	paperwise serve                          # supervised daemon
//	paperwise import --file dataset.json     # load users, papers, interactions
//	paperwise build-embeddings [--fresh]     # embed every approved paper
//	paperwise build-embeddings --for-all-users
//	paperwise recommend --user 7             # dry run, nothing stored
//	paperwise generate --user 7 [--rebuild]  # blend and store
//	paperwise list --user 7                  # stored recommendations
//	paperwise related --paper 3 [--build]    # related papers
//	paperwise publish rate --user 7 --paper 3 --rating 5
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (a .env file is read first when present)
//   - Config file (--config, CONFIG_PATH or config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the running command. The daemon stops its
// supervisor tree, which shuts down the ops server and the event router and
// lets an in-flight build record its checkpoint.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/paperwise/internal/config"
	"github.com/tomtom215/paperwise/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string

	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "paperwise",
		Short:         "Hybrid research paper recommendation engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (overrides CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides logging.level)")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newImportCmd(opts),
		newBuildCmd(opts),
		newRecommendCmd(opts),
		newGenerateCmd(opts),
		newListCmd(opts),
		newRelatedCmd(opts),
		newPublishCmd(opts),
	)
	return rootCmd
}

// load reads the configuration and initializes logging.
func (o *rootOptions) load() error {
	if o.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, o.configPath); err != nil {
			return err
		}
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	o.cfg = cfg
	return nil
}
