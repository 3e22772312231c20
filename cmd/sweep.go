/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/goswe/InputParameters"
	"github.com/notargets/goswe/model_problems/ShallowWater"
)

// SweepCmd runs the cartesian product of a set of parameter lists
var SweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Integrate every combination of a parameter sweep",
	Long: `
Expands the Sweep lists of a YAML file over its Base parameter set and integrates
each combination. Runs whose output directory already exists are skipped.

goswe sweep -S sweep.yaml --parallel 4`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			fileName string
			sp       *InputParameters.SweepParameters
			results  []ShallowWater.RunResult
		)
		if fileName, err = cmd.Flags().GetString("sweepFile"); err != nil {
			return
		}
		if len(fileName) == 0 {
			return fmt.Errorf("must supply a sweep file (-S, --sweepFile)")
		}
		if sp, err = InputParameters.ReadSweepParameters(fileName); err != nil {
			return
		}
		runs := sp.Expand()
		for _, ip := range runs {
			applyOverrides(ip)
		}
		logger.WithFields(logrus.Fields{
			"runs":     len(runs),
			"parallel": viper.GetInt("parallel"),
		}).Info("starting sweep")
		results, err = RunSweep(context.Background(), runs, viper.GetInt("parallel"), logger)
		var done, skipped, aborted int
		for _, res := range results {
			switch {
			case res.Skipped:
				skipped++
			case res.Aborted:
				aborted++
			case res.RunID != "":
				done++
			}
		}
		logger.WithFields(logrus.Fields{
			"completed": done,
			"skipped":   skipped,
			"aborted":   aborted,
		}).Info("sweep finished")
		return
	},
}

func init() {
	rootCmd.AddCommand(SweepCmd)
	SweepCmd.Flags().StringP("sweepFile", "S", "", "YAML file with a Base parameter set and Sweep lists")
	SweepCmd.Flags().IntP("parallel", "p", 1, "maximum number of concurrent runs")
	if err := viper.BindPFlag("parallel", SweepCmd.Flags().Lookup("parallel")); err != nil {
		panic(err)
	}
}

// RunSweep integrates the runs with at most parallel of them in flight, the first
// configuration or IO error cancels the runs not yet started
func RunSweep(ctx context.Context, runs []*InputParameters.InputParametersSWE, parallel int,
	log logrus.FieldLogger) (results []ShallowWater.RunResult, err error) {
	results = make([]ShallowWater.RunResult, len(runs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for i, ip := range runs {
		i, ip := i, ip
		g.Go(func() (err error) {
			if err = gctx.Err(); err != nil {
				return
			}
			runLog := log.WithField("run", i)
			if results[i], err = RunModel(ip, runLog, false); err != nil {
				return fmt.Errorf("run %d (%s): %w", i, ip.OutputDir(), err)
			}
			return
		})
	}
	err = g.Wait()
	return
}
