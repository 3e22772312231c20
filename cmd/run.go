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
	"fmt"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/goswe/InputParameters"
	"github.com/notargets/goswe/model_problems/ShallowWater"
)

// RunCmd integrates a single parameter set
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Integrate one parameter set",
	Long: `
Integrates one parameter set read from a YAML file and writes the sampled fields,
the equation terms and a copy of the parameters below the run output directory.

goswe run -I params.yaml`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			fileName, prof string
			ip             *InputParameters.InputParametersSWE
		)
		if fileName, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			return
		}
		if len(fileName) == 0 {
			fmt.Printf("Example File:%s\n", exampleFile)
			return fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile)")
		}
		if ip, err = InputParameters.ReadInputParametersSWE(fileName); err != nil {
			return
		}
		applyOverrides(ip)
		if viper.GetBool("verbose") {
			ip.Print()
		}
		if prof, err = cmd.Flags().GetString("profile"); err != nil {
			return
		}
		if stop, perr := startProfile(prof); perr != nil {
			return perr
		} else if stop != nil {
			defer stop.Stop()
		}
		_, err = RunModel(ip, logger, viper.GetBool("progress"))
		return
	},
}

var exampleFile = `
########################################
Title: "Test Case"
NLons: 128
Dt: 300
RunDays: 60
Hmean: 800
Hmax: 2000
ForcingType: propagating # Can be "none", "stationary" or "file"
Q0: 10
ForcingPhaseSpeed: 5
InitType: rest # Can be "kelvin" or "file"
Path: ./output
########################################
`

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- NLons, Dt, RunDays\n\t- Hmean, Hmax, Q0\n\t- ForcingType, InitType")
	RunCmd.Flags().String("profile", "", "write a profile of the run, one of cpu or mem")
}

func startProfile(kind string) (interface{ Stop() }, error) {
	switch kind {
	case "":
		return nil, nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
	}
	return nil, fmt.Errorf("unknown profile %q, use cpu or mem", kind)
}

// RunModel builds and integrates one parameter set, optionally showing a progress bar
func RunModel(ip *InputParameters.InputParametersSWE, log logrus.FieldLogger, progress bool) (res ShallowWater.RunResult, err error) {
	var c *ShallowWater.ShallowWater
	if c, err = ShallowWater.NewShallowWater(ip, log); err != nil {
		return
	}
	if progress {
		uiprogress.Start()
		bar := uiprogress.AddBar(max(ip.GetITMax()-c.StartStep, 1)).AppendCompleted().PrependElapsed()
		c.OnStep = func(int) { bar.Incr() }
		defer uiprogress.Stop()
	}
	if res, err = c.Run(); err != nil {
		return
	}
	report(log, res)
	return
}

func report(log logrus.FieldLogger, res ShallowWater.RunResult) {
	entry := log.WithField("dir", res.OutputDir)
	switch {
	case res.Skipped:
		entry.Info("skipped, output exists")
	case res.Aborted:
		entry.WithField("step", res.AbortStep).Warn("run aborted, nothing saved")
	default:
		entry.WithFields(logrus.Fields{
			"run_id":  res.RunID,
			"steps":   res.Steps,
			"samples": res.Samples,
			"elapsed": res.Elapsed.Round(time.Millisecond),
		}).Info("run complete")
	}
}
