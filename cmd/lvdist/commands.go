// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/lvdist/config"
	"github.com/katalvlaran/lvdist/femrun"
	"github.com/katalvlaran/lvdist/solver"
	"github.com/katalvlaran/lvdist/telemetry"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lvdist",
		Short:         "Distributed finite element assembly and direct solves",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newBackendsCmd(), newConfigCmd())

	return root
}

type runFlags struct {
	configPath string
	ranks      int
	elements   int
	backend    string
	logLevel   string
	metrics    bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Assemble, constrain and solve a scenario",
		Long: `Run a problem file, or without --config the built-in 1-D bar with
--elements unit elements split over --ranks ranks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenario(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML problem file")
	fl.IntVarP(&f.ranks, "ranks", "n", 2, "number of ranks (must match the file's partitions)")
	fl.IntVar(&f.elements, "elements", 5, "bar elements when no --config is given")
	fl.StringVarP(&f.backend, "backend", "b", "", "solver backend (overrides the file)")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides the file)")
	fl.BoolVar(&f.metrics, "metrics", false, "print prometheus metrics after the run")

	return cmd
}

func loadScenario(cmd *cobra.Command, f runFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath == "" {
		if cfg, err = config.Bar(f.elements, f.ranks); err != nil {
			return nil, err
		}
	} else {
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
		if cmd.Flags().Changed("ranks") {
			cfg.Ranks = f.ranks
		}
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}

	return cfg, cfg.Validate()
}

func runScenario(cmd *cobra.Command, f runFlags) error {
	cfg, err := loadScenario(cmd, f)
	if err != nil {
		return err
	}
	level, _ := telemetry.ParseLevel(cfg.LogLevel)
	logger := telemetry.NewWriterLogger(cmd.ErrOrStderr(), level)

	opts := []femrun.Option{femrun.WithLogger(logger)}
	var m *telemetry.Metrics
	if f.metrics {
		if m, err = telemetry.NewMetrics(nil); err != nil {
			return err
		}
		opts = append(opts, femrun.WithMetrics(m))
	}

	res, err := femrun.Run(cmd.Context(), cfg, opts...)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printResult(out, res)
	if m != nil {
		return writeMetrics(out, m)
	}

	return nil
}

func printResult(w io.Writer, res *femrun.Result) {
	fmt.Fprintf(w, "backend:  %s\n", res.Backend)
	fmt.Fprintf(w, "status:   %s\n", res.Status)
	fmt.Fprintf(w, "residual: %.3e\n", res.Residual)
	fmt.Fprintf(w, "nonzeros: %d\n", res.NumGlobalNonzeros)
	fmt.Fprintln(w, "solution:")
	for k, id := range res.IDs {
		fmt.Fprintf(w, "  %d: %.6g\n", id, res.Solution[k])
	}
}

func writeMetrics(w io.Writer, m *telemetry.Metrics) error {
	families, err := m.Gatherer().Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}

	return nil
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List known solver backends and whether they can be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, b := range solver.Default().KnownBackends() {
				state := "unavailable"
				if b.Available {
					state = "available"
				}
				fmt.Fprintf(out, "%-14s %s\n", b.Name, state)
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the built-in bar scenario as a problem file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Default().Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
