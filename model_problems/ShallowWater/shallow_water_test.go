package ShallowWater

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/goswe/InputParameters"
	"github.com/notargets/goswe/utils"
	"github.com/notargets/goswe/writefiles"
)

func TestRunAtRest(t *testing.T) {
	ip := smallParameters(t)
	ip.Hmean, ip.Hmax = 0, 0
	// sample every 6 steps from the start
	ip.WarmupDays, ip.SampleHours = -1, 0.25
	logger, hook := logtest.NewNullLogger()
	c, err := NewShallowWater(ip, logger)
	require.NoError(t, err)
	var steps []int
	c.OnStep = func(step int) { steps = append(steps, step) }

	res, err := c.Run()
	require.NoError(t, err)
	assert.False(t, res.Aborted)
	assert.False(t, res.Skipped)
	assert.Equal(t, 10, res.Steps)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, steps)
	assert.Equal(t, 2, res.Samples)
	assert.NotEmpty(t, res.RunID)
	for _, f := range c.State.fields() {
		for _, v := range f {
			assert.Equal(t, complex128(0), v)
		}
	}
	assert.Equal(t, "Calculated day 0", hook.Entries[0].Message)
	assert.Equal(t, "Saved data", hook.LastEntry().Message)

	for _, name := range []string{"spatial_data.nc", "spectral_data.nc", "equation_data.nc", "input_file.nc"} {
		assert.FileExists(t, filepath.Join(res.OutputDir, name))
	}
	f, err := writefiles.Open(filepath.Join(res.OutputDir, "spatial_data.nc"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []int{2, 16, 32}, f.Lengths("U"))
	days, err := f.ReadArray("T_in_days")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 900 / utils.DaySeconds}, days.Elements)
	U, err := f.ReadArray("U")
	require.NoError(t, err)
	for _, u := range U.Elements {
		assert.Equal(t, 0., u)
	}
	assert.Equal(t, res.RunID, f.Attribute("run_id"))
	assert.Equal(t, "False", f.Attribute("abort_status"))

	in, err := writefiles.Open(filepath.Join(res.OutputDir, "input_file.nc"))
	require.NoError(t, err)
	defer in.Close()
	assert.Equal(t, []float64{32}, in.Attribute("NLons"))
	assert.Equal(t, "none", in.Attribute("ForcingType"))
	text, err := in.ReadText("parameters_yaml")
	require.NoError(t, err)
	back := InputParameters.NewInputParametersSWE()
	require.NoError(t, back.Parse([]byte(text)))
	assert.Equal(t, ip.Hash(), back.Hash())
	// Only the finished directory is left next to its siblings
	siblings, err := os.ReadDir(filepath.Dir(res.OutputDir))
	require.NoError(t, err)
	require.Len(t, siblings, 1)
	assert.Equal(t, filepath.Base(res.OutputDir), siblings[0].Name())

	// The same parameters again are skipped
	again, err := NewShallowWater(ip, logger)
	require.NoError(t, err)
	res2, err := again.Run()
	require.NoError(t, err)
	assert.True(t, res2.Skipped)
	assert.Equal(t, 0, res2.Steps)
	assert.Equal(t, res.OutputDir, res2.OutputDir)
}

func TestRunWarmup(t *testing.T) {
	// Hourly steps over three days, sampled every 6 hours once the warm up days are over
	for _, tc := range []struct {
		warmup   float64
		firstDay float64
		nSamples int
	}{
		{warmup: 1, firstDay: 2, nSamples: 4},
		{warmup: 0, firstDay: 1, nSamples: 8},
	} {
		ip := smallParameters(t)
		ip.Hmean, ip.Hmax = 0, 0
		ip.Dt, ip.ITMax = 3600, 72
		ip.WarmupDays, ip.SampleHours = tc.warmup, 6
		logger, hook := logtest.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
		c, err := NewShallowWater(ip, logger)
		require.NoError(t, err)
		res, err := c.Run()
		require.NoError(t, err)
		assert.Equal(t, 72, res.Steps)
		assert.Equal(t, tc.nSamples, res.Samples)

		f, err := writefiles.Open(filepath.Join(res.OutputDir, "spatial_data.nc"))
		require.NoError(t, err)
		days, err := f.ReadArray("T_in_days")
		f.Close()
		require.NoError(t, err)
		require.Len(t, days.Elements, tc.nSamples)
		assert.InDelta(t, tc.firstDay, days.Elements[0], 1.e-12)
		assert.InDelta(t, 0.25, days.Elements[1]-days.Elements[0], 1.e-12)

		var sampled []float64
		for _, entry := range hook.AllEntries() {
			if entry.Message == "sampled" {
				sampled = append(sampled, entry.Data["day"].(float64))
			}
		}
		require.Len(t, sampled, tc.nSamples)
		assert.InDelta(t, tc.firstDay, sampled[0], 1.e-12)
	}
}

func TestRunRelaxesToBackground(t *testing.T) {
	ip := smallParameters(t)
	ip.Hmean, ip.Hmax = 200, 0
	ip.WarmupDays, ip.SampleHours = -1, 0.25
	logger, _ := logtest.NewNullLogger()
	c, err := NewShallowWater(ip, logger)
	require.NoError(t, err)
	res, err := c.Run()
	require.NoError(t, err)
	require.False(t, res.Aborted)

	g := c.Eval.Grid(c.State)
	assert.Less(t, g.U.MaxAbs(), 1.e-12)
	assert.Less(t, g.V.MaxAbs(), 1.e-12)
	// Thermal relaxation pulls the resting layer toward g*Hmean
	assert.Greater(t, g.Phi.Min(), 0.)
	assert.Less(t, g.Phi.Max(), c.Ref.PhiB)

	// Restart from the second sample of this run
	ip2 := smallParameters(t)
	ip2.Hmean, ip2.Hmax = 200, 0
	ip2.InitType = "file"
	ip2.InitialFile = filepath.Join(res.OutputDir, "spatial_data.nc")
	ip2.InitialTimeIndex = 1
	r, err := NewShallowWater(ip2, logger)
	require.NoError(t, err)
	assert.Equal(t, 6, r.StartStep)
	assert.Equal(t, 0., r.H0(0))
	assert.Greater(t, real(r.State.Phi[0]), 0.)

	ip2.InitialTimeIndex = 5
	_, err = NewShallowWater(ip2, logger)
	assert.Error(t, err)
}

func TestRunFailedSaveLeavesNoOutput(t *testing.T) {
	ip := smallParameters(t)
	ip.WarmupDays, ip.SampleHours = -1, 0.25
	logger, _ := logtest.NewNullLogger()
	c, err := NewShallowWater(ip, logger)
	require.NoError(t, err)
	// Samples are taken without budget terms, then the equation container is requested
	c.Rec.SaveEquationTerms = false
	c.OnStep = func(step int) {
		if step == ip.ITMax-1 {
			c.Rec.SaveEquationTerms = true
		}
	}
	res, err := c.Run()
	require.Error(t, err)
	_, statErr := os.Stat(res.OutputDir)
	assert.True(t, os.IsNotExist(statErr))
	siblings, err := os.ReadDir(filepath.Dir(res.OutputDir))
	require.NoError(t, err)
	assert.Empty(t, siblings)

	// A clean rerun is not mistaken for a finished one
	c, err = NewShallowWater(ip, logger)
	require.NoError(t, err)
	res, err = c.Run()
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.FileExists(t, filepath.Join(res.OutputDir, "input_file.nc"))
}

func TestRunAbortsOnBlowUp(t *testing.T) {
	ip := smallParameters(t)
	ip.Dt = 1800
	ip.ForcingType = "stationary"
	ip.Q0 = 1.e308
	ip.WarmupDays, ip.SampleHours = -1, 0.5
	logger, hook := logtest.NewNullLogger()
	c, err := NewShallowWater(ip, logger)
	require.NoError(t, err)
	res, err := c.Run()
	require.NoError(t, err)
	assert.True(t, res.Aborted)
	assert.LessOrEqual(t, res.AbortStep, 3)
	assert.Equal(t, res.AbortStep+1, res.Steps)
	// Only the steps before the blow up were sampled
	assert.Equal(t, res.AbortStep, res.Samples)
	assert.Empty(t, res.RunID)
	_, statErr := os.Stat(res.OutputDir)
	assert.True(t, os.IsNotExist(statErr))

	var aborted bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "ABORTING because of a runaway scenario" {
			aborted = true
			assert.Equal(t, 1.e308, entry.Data["Q0"])
		}
	}
	assert.True(t, aborted)
}

func TestNewShallowWaterRejectsBadConfig(t *testing.T) {
	ip := smallParameters(t)
	ip.NTrunc = 20
	_, err := NewShallowWater(ip, nil)
	assert.Error(t, err)

	ip = smallParameters(t)
	ip.ForcingType = "file"
	ip.ForcingFile = filepath.Join(t.TempDir(), "missing.nc")
	_, err = NewShallowWater(ip, nil)
	assert.Error(t, err)
}

func TestKelvinState(t *testing.T) {
	// D_n against the closed forms
	for _, x := range []float64{-2, -0.5, 0, 0.3, 1.7} {
		e := math.Exp(-x * x / 4)
		assert.InDelta(t, e, ParabolicCylinderD(0, x), 1.e-15)
		assert.InDelta(t, x*e, ParabolicCylinderD(1, x), 1.e-15)
		assert.InDelta(t, (x*x-1)*e, ParabolicCylinderD(2, x), 1.e-14)
		assert.InDelta(t, (x*x*x-3*x)*e, ParabolicCylinderD(3, x), 1.e-14)
	}

	ip := smallParameters(t)
	ip.Hmean = 200
	ip.InitType = "kelvin"
	ip.SpinUpDays = 0
	c, err := NewShallowWater(ip, nil)
	require.NoError(t, err)
	g := c.Eval.Grid(c.State)
	assert.True(t, g.U.IsFinite())
	assert.Greater(t, g.U.MaxAbs(), 1.e-3)
	// Equatorially trapped and symmetric about the equator
	nlat := c.Sh.NLat
	for i := 0; i < c.Sh.NLon; i++ {
		assert.InDelta(t, g.Phi.At(0, i), g.Phi.At(nlat-1, i), 1.e-9)
	}
	// The seed carries no mass, only the wave
	assert.InDelta(t, 0, real(c.State.Phi[0]), 1.e-9)
}
