package ShallowWater

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notargets/goswe/InputParameters"
	"github.com/notargets/goswe/spharm"
	"github.com/notargets/goswe/types"
	"github.com/notargets/goswe/utils"
	"github.com/notargets/goswe/writefiles"
)

// CourantLimit is the stability bound of AB3 for purely oscillatory modes
const CourantLimit = 0.72

type ShallowWater struct {
	IP        *InputParameters.InputParametersSWE
	Sh        *spharm.Spharmt
	Ref       *Reference
	Forcing   *Forcing
	Eval      *Evaluator
	Integ     *Integrator
	Rec       *Recorder
	State     State
	StartStep int
	// OnStep is called after every completed step
	OnStep  func(step int)
	initial types.InitType
	fixedH0 *float64
	log     logrus.FieldLogger
}

type RunResult struct {
	Aborted   bool
	AbortStep int
	Skipped   bool
	Steps     int
	Samples   int
	OutputDir string
	RunID     string
	Elapsed   time.Duration
}

func NewShallowWater(ip *InputParameters.InputParametersSWE, logger logrus.FieldLogger) (c *ShallowWater, err error) {
	if err = ip.Validate(); err != nil {
		return
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c = &ShallowWater{
		IP:      ip,
		initial: ip.GetInitType(),
		log:     logger,
	}
	if c.Sh, err = spharm.NewSpharmt(ip.NLons, ip.GetNLats(), ip.GetNTrunc(), ip.Rsphere); err != nil {
		return nil, err
	}
	c.Ref = NewReference(ip, c.Sh)
	if c.Forcing, err = NewForcing(ip, c.Sh); err != nil {
		return nil, err
	}
	c.Eval = NewEvaluator(c.Sh, c.Ref, ip.GetContinuityForm(), ip.KM, ip.KT)
	c.Integ = NewIntegrator(ip.Dt)
	c.Rec = NewRecorder(c.Sh, ip.SaveSpectral, ip.SaveEquationTerms)
	c.State = NewState(c.Sh.NLM)
	switch c.initial {
	case types.Init_Kelvin:
		if ip.NSpin() == 0 {
			c.State = KelvinState(ip, c.Sh)
		}
	case types.Init_File:
		var r *Restart
		if r, err = ReadRestart(ip.InitialFile, ip.InitialTimeIndex, c.Sh); err != nil {
			return nil, err
		}
		c.State = r.State
		c.StartStep = int(math.Round(r.TimeDays * utils.DaySeconds / ip.Dt))
		c.fixedH0 = &r.H0
	}
	c.log.WithFields(logrus.Fields{
		"grid":       fmt.Sprintf("%dx%d", ip.NLons, c.Sh.NLat),
		"ntrunc":     c.Sh.NTrunc,
		"forcing":    ip.ForcingType,
		"init":       ip.InitType,
		"continuity": ip.ContinuityForm,
	}).Debug("model configured")
	return
}

func (c *ShallowWater) H0(step int) float64 {
	if c.fixedH0 != nil {
		return *c.fixedH0
	}
	return c.Ref.H0(step)
}

func (c *ShallowWater) sampling(t float64) bool {
	ip := c.IP
	return math.Floor(t/utils.DaySeconds) > ip.WarmupDays &&
		utils.Mod(t, ip.SampleHours*utils.HourSecs) == 0
}

// Run integrates from StartStep to the configured step count and writes the samples,
// an existing output directory skips the run and a non finite wind aborts it without output
func (c *ShallowWater) Run() (res RunResult, err error) {
	var (
		ip    = c.IP
		start = time.Now()
		itMax = ip.GetITMax()
		nSpin = ip.NSpin()
		H0    float64
	)
	res.OutputDir = ip.OutputDir()
	if _, statErr := os.Stat(res.OutputDir); statErr == nil {
		c.log.WithField("dir", res.OutputDir).Info("output exists, skipping run")
		res.Skipped = true
		return
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return res, statErr
	}
	if cn, cerr := ip.CourantNumber(); cerr != nil {
		c.log.WithError(cerr).Warn("cannot evaluate Courant number")
	} else if cn > CourantLimit {
		c.log.WithField("courant", cn).Warn("gravity wave Courant number exceeds the AB3 stability limit")
	}
	for step := c.StartStep; step < itMax; step++ {
		t := float64(step) * ip.Dt
		if c.initial == types.Init_Kelvin && nSpin > 0 && step == nSpin {
			c.log.WithField("day", t/utils.DaySeconds).Info("seeding Kelvin wave")
			c.State = KelvinState(ip, c.Sh)
		}
		H0 = c.H0(step)
		var (
			g      = c.Eval.Grid(c.State)
			finite = g.U.IsFinite()
			e      = c.Eval.Evaluate(c.State, g, H0, c.Forcing.At(t))
		)
		if finite && c.sampling(t) {
			var terms map[string]utils.Matrix
			if c.Rec.SaveEquationTerms {
				terms = c.Eval.Diagnostics(e)
			}
			c.Rec.Sample(t, c.State, e, terms)
			c.log.WithFields(logrus.Fields{
				"day":     t / utils.DaySeconds,
				"max|U|":  g.U.MaxAbs(),
				"max|V|":  g.V.MaxAbs(),
				"phi min": g.Phi.Min(),
				"phi max": g.Phi.Max(),
			}).Debug("sampled")
		}
		c.Integ.Advance(c.State, e.Tendency)
		res.Steps++
		if math.Mod(t, utils.DaySeconds) == 0 {
			c.log.Infof("Calculated day %d", int(t/utils.DaySeconds))
		}
		if c.OnStep != nil {
			c.OnStep(step)
		}
		if !finite {
			c.log.WithFields(logrus.Fields{
				"Q0":   ip.Q0,
				"day":  int(t / utils.DaySeconds),
				"step": step,
			}).Warn("ABORTING because of a runaway scenario")
			res.Aborted, res.AbortStep = true, step
			break
		}
	}
	res.Samples = c.Rec.Len()
	res.Elapsed = time.Since(start)
	if res.Aborted {
		return
	}
	res.RunID = uuid.NewString()
	if err = c.save(res.OutputDir, RunInfo{
		RunID: res.RunID,
		H0:    H0,
		PhiB:  c.Ref.PhiB,
		PhiT:  c.Ref.PhiT(H0),
	}); err != nil {
		return
	}
	c.log.WithFields(logrus.Fields{
		"dir":     res.OutputDir,
		"samples": res.Samples,
		"elapsed": res.Elapsed.Round(time.Millisecond),
	}).Info("Saved data")
	c.log.Debug(utils.GetMemUsage())
	return
}

// save writes the containers into a scratch directory next to dir and renames it into place,
// so dir only exists once every file is complete
func (c *ShallowWater) save(dir string, info RunInfo) (err error) {
	var tmp string
	if err = os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return
	}
	if tmp, err = os.MkdirTemp(filepath.Dir(dir), filepath.Base(dir)+".partial-"); err != nil {
		return
	}
	defer func() {
		if err != nil {
			os.RemoveAll(tmp)
		}
	}()
	if err = c.Rec.Spatial(info).Write(filepath.Join(tmp, "spatial_data.nc")); err != nil {
		return
	}
	if c.Rec.SaveSpectral {
		if err = c.Rec.Spectral(info).Write(filepath.Join(tmp, "spectral_data.nc")); err != nil {
			return
		}
	}
	if c.Rec.SaveEquationTerms {
		if err = c.Rec.Equation(info).Write(filepath.Join(tmp, "equation_data.nc")); err != nil {
			return
		}
	}
	if err = c.writeInput(filepath.Join(tmp, "input_file.nc"), info); err != nil {
		return
	}
	if err = os.Chmod(tmp, 0755); err != nil {
		return
	}
	return os.Rename(tmp, dir)
}

// writeInput echoes the parameter set, one attribute per key plus the YAML text as a variable
func (c *ShallowWater) writeInput(fileName string, info RunInfo) (err error) {
	var (
		attrs map[string]interface{}
		text  []byte
	)
	if attrs, err = c.IP.Attributes(); err != nil {
		return
	}
	if text, err = c.IP.YAML(); err != nil {
		return
	}
	for k, v := range attrs {
		if str, ok := v.(string); ok && str == "" {
			delete(attrs, k)
		}
	}
	return writefiles.NewContainer().
		AddAttributes(attrs).
		AddAttribute("run_id", info.RunID).
		AddText("parameters_yaml", string(text)).
		Write(fileName)
}
