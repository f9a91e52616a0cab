// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/paperwise/internal/config"
	"github.com/tomtom215/paperwise/internal/events"
	"github.com/tomtom215/paperwise/internal/logging"
)

// publishArgs are the flags of the publish subcommands.
type publishArgs struct {
	userID  int64
	paperID int64
	rating  int
	folder  string
}

func newPublishCmd(opts *rootOptions) *cobra.Command {
	args := &publishArgs{}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a trigger event to a running daemon over NATS",
	}

	sub := func(use, short string, build func(a *publishArgs) *events.Event) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				e := build(args)
				if err := e.Validate(); err != nil {
					return err
				}
				return publish(cmd.Context(), opts.cfg, e)
			},
		}
	}

	approve := sub("approve", "A paper was approved", func(a *publishArgs) *events.Event {
		return events.NewPaperApproved(a.paperID)
	})
	approve.Flags().Int64Var(&args.paperID, "paper", 0, "paper id")

	rate := sub("rate", "A user rated a paper", func(a *publishArgs) *events.Event {
		return events.NewRatingSaved(a.userID, a.paperID, a.rating)
	})
	rate.Flags().Int64Var(&args.userID, "user", 0, "user id")
	rate.Flags().Int64Var(&args.paperID, "paper", 0, "paper id")
	rate.Flags().IntVar(&args.rating, "rating", 0, "rating 0..5")

	bookmark := sub("bookmark", "A user bookmarked a paper", func(a *publishArgs) *events.Event {
		return events.NewBookmarkSaved(a.userID, a.paperID, a.folder)
	})
	bookmark.Flags().Int64Var(&args.userID, "user", 0, "user id")
	bookmark.Flags().Int64Var(&args.paperID, "paper", 0, "paper id")
	bookmark.Flags().StringVar(&args.folder, "folder", "", "bookmark folder (default folder when empty)")

	rebuild := sub("rebuild", "Rebuild every embedding", func(*publishArgs) *events.Event {
		return events.NewRebuild()
	})

	generate := sub("generate", "Regenerate a user's recommendations", func(a *publishArgs) *events.Event {
		return events.NewGenerate(a.userID)
	})
	generate.Flags().Int64Var(&args.userID, "user", 0, "user id")

	cmd.AddCommand(approve, rate, bookmark, rebuild, generate)
	return cmd
}

// publishConfig returns the events settings for a short-lived publisher:
// always NATS, never an embedded server of its own.
func publishConfig(cfg *config.EventsConfig) *config.EventsConfig {
	pc := *cfg
	pc.Transport = events.TransportNATS
	pc.EmbeddedServer = false
	return &pc
}

// publish sends one event to the daemon's JetStream stream.
func publish(ctx context.Context, cfg *config.Config, e *events.Event) (err error) {
	logger := logging.WithComponent("publish")

	transport, err := events.NewTransport(ctx, publishConfig(&cfg.Events), logger)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Events.URL, err)
	}
	defer func() {
		if closeErr := transport.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	publisher := events.NewPublisher(transport.Publisher(), cfg.Events.PublishBreakerFailures, logger)
	if err := publisher.Publish(ctx, e); err != nil {
		return err
	}

	logger.Info().
		Str("event_id", e.EventID).
		Str("topic", e.Topic()).
		Msg("Event published")
	return nil
}
