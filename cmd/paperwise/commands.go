// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/paperwise/internal/database"
	"github.com/tomtom215/paperwise/internal/recommend"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import users, papers, citations and interactions from a JSON dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := database.LoadDatasetFile(file)
			if err != nil {
				return err
			}
			return withApp(opts.cfg, func(a *app) error {
				result, err := a.db.Import(cmd.Context(), ds)
				if err != nil {
					return err
				}
				// Imported papers may replace text embedded by an interrupted build.
				if result.Papers > 0 {
					if err := a.engine.ResetBuildCheckpoint(cmd.Context()); err != nil {
						return err
					}
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "dataset file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newBuildCmd(opts *rootOptions) *cobra.Command {
	var (
		forAllUsers bool
		fresh       bool
		topK        int
	)

	cmd := &cobra.Command{
		Use:   "build-embeddings",
		Short: "Embed every approved paper, resuming an interrupted build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts.cfg, func(a *app) error {
				if forAllUsers {
					result, err := a.engine.GenerateForAllUsers(cmd.Context(), recommend.GenerateOptions{K: topK, Rebuild: fresh})
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), result)
				}

				result, err := a.engine.BuildEmbeddings(cmd.Context(), recommend.BuildOptions{Fresh: fresh})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().BoolVar(&forAllUsers, "for-all-users", false, "regenerate recommendations for every active user after the build")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "ignore any stored checkpoint")
	cmd.Flags().IntVar(&topK, "top-k", 0, "recommendations per user with --for-all-users (0 = recommend.top_k)")
	return cmd
}

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var (
		userID             int64
		topK               int
		alpha, beta, gamma float64
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Compute hybrid recommendations for a user without storing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts.cfg, func(a *app) error {
				result, err := a.engine.HybridRecommend(cmd.Context(), userID, recommend.HybridOptions{
					K:       topK,
					Weights: weightFlags(cmd, a.engine.ConfiguredWeights(), alpha, beta, gamma),
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of recommendations (0 = recommend.top_k)")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "content weight (default recommend.alpha)")
	cmd.Flags().Float64Var(&beta, "beta", 0, "collaborative weight (default recommend.beta)")
	cmd.Flags().Float64Var(&gamma, "gamma", 0, "popularity weight (default recommend.gamma)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// weightFlags overrides the configured weights with the weight flags that
// were set. It returns nil when none was, so the engine uses its own.
func weightFlags(cmd *cobra.Command, configured recommend.Weights, alpha, beta, gamma float64) *recommend.Weights {
	flags := cmd.Flags()
	if !flags.Changed("alpha") && !flags.Changed("beta") && !flags.Changed("gamma") {
		return nil
	}
	w := configured
	if flags.Changed("alpha") {
		w.Alpha = alpha
	}
	if flags.Changed("beta") {
		w.Beta = beta
	}
	if flags.Changed("gamma") {
		w.Gamma = gamma
	}
	return &w
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		userID  int64
		topK    int
		rebuild bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Blend and store recommendations for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts.cfg, func(a *app) error {
				items, err := a.engine.GenerateForUser(cmd.Context(), userID, recommend.GenerateOptions{K: topK, Rebuild: rebuild})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of recommendations (0 = recommend.top_k)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "rebuild embeddings before blending")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		userID int64
		limit  int
		ensure bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a user's stored recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts.cfg, func(a *app) error {
				var (
					recs []recommend.Recommendation
					err  error
				)
				if ensure {
					recs, err = a.engine.EnsureRecommendations(cmd.Context(), userID)
				} else {
					recs, err = a.engine.ListRecommendations(cmd.Context(), userID, limit)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), recs)
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows (0 = recommend.top_k)")
	cmd.Flags().BoolVar(&ensure, "ensure", false, "generate first when the user has none stored")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newRelatedCmd(opts *rootOptions) *cobra.Command {
	var (
		paperID int64
		limit   int
		build   bool
	)

	cmd := &cobra.Command{
		Use:   "related",
		Short: "Show a paper's related papers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts.cfg, func(a *app) error {
				if build {
					if _, err := a.engine.BuildRelatedPapers(cmd.Context(), paperID, limit); err != nil {
						return fmt.Errorf("build related papers: %w", err)
					}
				}
				related, err := a.engine.RelatedPapers(cmd.Context(), paperID, 0)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), related)
			})
		},
	}

	cmd.Flags().Int64Var(&paperID, "paper", 0, "paper id")
	cmd.Flags().IntVar(&limit, "k", 0, "similar papers to store with --build (0 = recommend.related_k)")
	cmd.Flags().BoolVar(&build, "build", false, "recompute the related papers first")
	_ = cmd.MarkFlagRequired("paper")
	return cmd
}
