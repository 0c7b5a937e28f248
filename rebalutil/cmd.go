/*
Copyright © 2023 the rebal authors.
This file is part of rebal.

rebal is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rebal is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rebal.  If not, see <http://www.gnu.org/licenses/>.
*/

package rebalutil

import (
	"fmt"

	"github.com/oceanmodel/rebal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger

	verbose    string
	configFile string

	backgroundFile string
	analysisFile   string
	outputFile     string
	rescaleFile    string
)

// Root is the main command.
var Root = &cobra.Command{
	Use:   "rebal",
	Short: "rebal rebalances sea-ice and ocean analyses onto model initial conditions.",
	Long: `rebal turns CICE and MOM6 data-assimilation analyses into usable
model initial conditions: it aggregates and deaggregates
category-resolved sea-ice states with bounded scaling ratios, and
transfers ocean analysis fields with NaN remediation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose != "" {
			lvl, err := zapcore.ParseLevel(verbose)
			if err != nil {
				return fmt.Errorf("rebal: parsing log level %q: %v", verbose, err)
			}
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
		var err error
		logger, err = cfg.Build()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
	SilenceUsage: true,
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate a CICE restart into analysis-space variables.",
	Long: `aggregate reads a category-resolved CICE restart file, sums the
state variables over the category axis, and writes the coarse
analysis-space file consumed by the assimilation application.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("reading CICE background", zap.String("file", backgroundFile))
		bkg, err := rebal.ReadCategoryState(backgroundFile)
		if err != nil {
			return err
		}
		logger.Info("writing analysis-space file", zap.String("file", outputFile))
		return rebal.WriteAggregate(outputFile, rebal.Aggregate(bkg))
	},
}

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Rebalance a sea-ice analysis onto a CICE restart.",
	Long: `checkpoint reads a CICE background restart and a coarse sea-ice
analysis, computes bounded scaling ratios between the two, and writes
the deaggregated concentration and ice-volume fields into a copy of
the background file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := ReadRescaleParameters(rescaleFile)
		if err != nil {
			return err
		}
		c := &rebal.IceCheckpoint{Params: params, Log: logger}
		return c.Run(backgroundFile, analysisFile, outputFile)
	},
}

var ensIceCmd = &cobra.Command{
	Use:   "ens-ice",
	Short: "Generate CICE ensemble member initial conditions.",
	Long: `ens-ice generates a CICE initial-condition file for every ensemble
member: the member background is copied to the output path and the
clipped per-category analysis fields are written into the copy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := ReadConfig(configFile)
		if err != nil {
			return err
		}
		c := &rebal.EnsIceCheckpoint{Log: logger}
		e := &rebal.Ensemble{Workers: cfg.Workers, Log: logger}
		return e.Run(cmd.Context(), cfg.ExpandMembers(), c.Run)
	},
}

var ensOceanCmd = &cobra.Command{
	Use:   "ens-ocean",
	Short: "Generate MOM6 ensemble member initial conditions.",
	Long: `ens-ocean updates a MOM6 initial-condition file for every ensemble
member from the member's analysis file, replacing NaN elements with
the rescue values configured in the ocean rescale table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := ReadConfig(configFile)
		if err != nil {
			return err
		}
		if cfg.RescaleFile == "" {
			return fmt.Errorf("rebal: configuration file %s: RescaleFile must be specified for ens-ocean", configFile)
		}
		rescue, err := ReadOceanRescue(cfg.RescaleFile)
		if err != nil {
			return err
		}
		u := &rebal.OceanUpdate{Rescue: rescue, Log: logger}
		e := &rebal.Ensemble{Workers: cfg.Workers, Log: logger}
		return e.Run(cmd.Context(), cfg.ExpandMembers(), u.Run)
	},
}

func init() {
	Root.PersistentFlags().StringVar(&verbose, "loglevel", "",
		"minimum log level to emit (debug, info, warn, error)")

	aggregateCmd.Flags().StringVar(&backgroundFile, "background", "",
		"path to the CICE restart file to aggregate")
	aggregateCmd.Flags().StringVar(&outputFile, "output", "",
		"path for the analysis-space output file")
	aggregateCmd.MarkFlagRequired("background")
	aggregateCmd.MarkFlagRequired("output")

	checkpointCmd.Flags().StringVar(&backgroundFile, "background", "",
		"path to the CICE background restart file")
	checkpointCmd.Flags().StringVar(&analysisFile, "analysis", "",
		"path to the coarse sea-ice analysis file")
	checkpointCmd.Flags().StringVar(&outputFile, "output", "",
		"path for the updated restart file")
	checkpointCmd.Flags().StringVar(&rescaleFile, "rescale", "",
		"path to the YAML sea-ice rescale table")
	checkpointCmd.MarkFlagRequired("background")
	checkpointCmd.MarkFlagRequired("analysis")
	checkpointCmd.MarkFlagRequired("output")
	checkpointCmd.MarkFlagRequired("rescale")

	for _, cmd := range []*cobra.Command{ensIceCmd, ensOceanCmd} {
		cmd.Flags().StringVar(&configFile, "config", "",
			"path to the TOML run configuration file")
		cmd.MarkFlagRequired("config")
	}

	Root.AddCommand(aggregateCmd, checkpointCmd, ensIceCmd, ensOceanCmd)
}
