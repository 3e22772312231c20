package InputParameters

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ctessum/unit"
	"github.com/ghodss/yaml"

	"github.com/notargets/goswe/internal/hash"
	"github.com/notargets/goswe/types"
	"github.com/notargets/goswe/utils"
)

// Parameters obtained from the YAML input file
type InputParametersSWE struct {
	Title              string   `json:"Title"`
	NLons              int      `json:"NLons"`
	NLats              int      `json:"NLats"`  // 0 => NLons/2
	NTrunc             int      `json:"NTrunc"` // 0 => NLons/3
	Dt                 float64  `json:"Dt"`
	ITMax              int      `json:"ITMax"` // 0 => RunDays worth of steps
	RunDays            float64  `json:"RunDays"`
	SpinUpDays         float64  `json:"SpinUpDays"`
	WarmupDays         float64  `json:"WarmupDays"`
	SampleHours        float64  `json:"SampleHours"`
	Rsphere            float64  `json:"Rsphere"`
	Omega              float64  `json:"Omega"`
	Grav               float64  `json:"Grav"`
	Y0                 float64  `json:"Y0"`
	N                  int      `json:"N"`
	Hmax               float64  `json:"Hmax"`
	Hmean              float64  `json:"Hmean"`
	KM                 float64  `json:"KM"`
	KT                 float64  `json:"KT"`
	ForcingType        string   `json:"ForcingType"`
	Q0                 float64  `json:"Q0"`
	Yp                 float64  `json:"Yp"`
	Xp                 float64  `json:"Xp"`
	Lx                 float64  `json:"Lx"`
	Ly                 float64  `json:"Ly"`
	FUo                float64  `json:"FUo"`
	FVo                float64  `json:"FVo"`
	MomentumPeriodDays float64  `json:"MomentumPeriodDays"`
	ForcingPhaseSpeed  float64  `json:"ForcingPhaseSpeed"`
	ForcingWaveNumber  int      `json:"ForcingWaveNumber"`
	Dipole             bool     `json:"Dipole"`
	SwitchOnDay        *float64 `json:"SwitchOnDay"`
	SwitchOffDay       *float64 `json:"SwitchOffDay"`
	ForcingFile        string   `json:"ForcingFile"`
	InitType           string   `json:"InitType"`
	InitialFile        string   `json:"InitialFile"`
	InitialTimeIndex   int      `json:"InitialTimeIndex"`
	WaveAmplitude      float64  `json:"WaveAmplitude"`
	YT                 float64  `json:"YT"`
	ContinuityForm     string   `json:"ContinuityForm"`
	SaveSpectral       bool     `json:"SaveSpectral"`
	SaveEquationTerms  bool     `json:"SaveEquationTerms"`
	Path               string   `json:"Path"`
}

// NewInputParametersSWE returns the reference configuration, YAML input overrides individual keys
func NewInputParametersSWE() (ip *InputParametersSWE) {
	on, off := 45., 405.
	ip = &InputParametersSWE{
		Title:             "",
		NLons:             256,
		Dt:                150,
		RunDays:           300,
		SpinUpDays:        25,
		WarmupDays:        5,
		SampleHours:       3,
		Rsphere:           6.37122e6,
		Omega:             7.292e-5,
		Grav:              9.80616,
		Y0:                0,
		N:                 2,
		Hmax:              2000,
		Hmean:             800,
		KM:                20 * utils.DaySeconds,
		KT:                10 * utils.DaySeconds,
		ForcingType:       "propagating",
		Q0:                10,
		Yp:                0,
		Xp:                90,
		Lx:                30,
		Ly:                10,
		ForcingPhaseSpeed: 5,
		ForcingWaveNumber: 2,
		Dipole:            true,
		SwitchOnDay:       &on,
		SwitchOffDay:      &off,
		InitType:          "rest",
		WaveAmplitude:     0.1,
		YT:                10,
		ContinuityForm:    "nonlinear",
		SaveSpectral:      true,
		SaveEquationTerms: true,
		Path:              "./output",
	}
	return
}

func (ip *InputParametersSWE) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func ReadInputParametersSWE(fileName string) (ip *InputParametersSWE, err error) {
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	ip = NewInputParametersSWE()
	if err = ip.Parse(data); err != nil {
		err = fmt.Errorf("parsing %s: %w", fileName, err)
	}
	return
}

// YAML renders the parameter set, used to echo it into the run outputs
func (ip *InputParametersSWE) YAML() ([]byte, error) {
	return yaml.Marshal(ip)
}

// Attributes flattens the parameter set into name/value pairs, unset optional values are omitted
func (ip *InputParametersSWE) Attributes() (attrs map[string]interface{}, err error) {
	var data []byte
	if data, err = ip.YAML(); err != nil {
		return
	}
	attrs = make(map[string]interface{})
	if err = yaml.Unmarshal(data, &attrs); err != nil {
		return
	}
	for k, v := range attrs {
		if v == nil {
			delete(attrs, k)
		}
	}
	return
}

func (ip *InputParametersSWE) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d x %d], T%d\t\t= Grid (lons x lats), truncation\n", ip.NLons, ip.GetNLats(), ip.GetNTrunc())
	fmt.Printf("%8.2f\t\t= Dt (s)\n", ip.Dt)
	fmt.Printf("[%d]\t\t\t= Steps\n", ip.GetITMax())
	fmt.Printf("%8.2f\t\t= Spin up (days)\n", ip.SpinUpDays)
	fmt.Printf("%8.2f\t\t= Hmax (m)\n", ip.Hmax)
	fmt.Printf("%8.2f\t\t= Hmean (m)\n", ip.Hmean)
	fmt.Printf("[%s]\t\t= Forcing Type\n", ip.ForcingType)
	fmt.Printf("[%s]\t\t\t= InitType\n", ip.InitType)
	attrs, err := ip.Attributes()
	if err != nil {
		return
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%s = %v\n", key, attrs[key])
	}
}

func (ip *InputParametersSWE) GetNLats() int {
	if ip.NLats == 0 {
		return ip.NLons / 2
	}
	return ip.NLats
}

func (ip *InputParametersSWE) GetNTrunc() int {
	if ip.NTrunc == 0 {
		return ip.NLons / 3
	}
	return ip.NTrunc
}

func (ip *InputParametersSWE) StepsPerDay() int { return int(utils.DaySeconds / ip.Dt) }

func (ip *InputParametersSWE) GetITMax() int {
	if ip.ITMax == 0 {
		return int(ip.RunDays * float64(ip.StepsPerDay()))
	}
	return ip.ITMax
}

// NSpin is the number of steps over which the reference depth ramps up to Hmax
func (ip *InputParametersSWE) NSpin() int {
	return int(ip.SpinUpDays * float64(ip.StepsPerDay()))
}

// SwitchOnTime and SwitchOffTime are in seconds, nil when unset
func (ip *InputParametersSWE) SwitchOnTime() *float64  { return daysToSeconds(ip.SwitchOnDay) }
func (ip *InputParametersSWE) SwitchOffTime() *float64 { return daysToSeconds(ip.SwitchOffDay) }

func daysToSeconds(d *float64) *float64 {
	if d == nil {
		return nil
	}
	s := *d * utils.DaySeconds
	return &s
}

func (ip *InputParametersSWE) Heating() types.HeatingVariant {
	if ip.Dipole {
		return types.Dipole
	}
	return types.Monopole
}

// SwitchState is "off" when the forcing is switched off before the run ends
func (ip *InputParametersSWE) SwitchState() string {
	off := ip.SwitchOffTime()
	if off != nil && *off < float64(ip.GetITMax())*ip.Dt {
		return "off"
	}
	return "on"
}

func (ip *InputParametersSWE) Validate() (err error) {
	var (
		nlat   = ip.GetNLats()
		ntrunc = ip.GetNTrunc()
		ft     types.ForcingType
		it     types.InitType
	)
	check := func(cond bool, format string, args ...interface{}) {
		if err == nil && !cond {
			err = fmt.Errorf(format, args...)
		}
	}
	check(ip.NLons >= 4, "NLons must be at least 4, have %d", ip.NLons)
	check(nlat >= 2, "NLats must be at least 2, have %d", nlat)
	check(ntrunc >= 1, "NTrunc must be positive, have %d", ntrunc)
	check(ntrunc < ip.NLons/2, "NTrunc %d must be less than NLons/2 = %d", ntrunc, ip.NLons/2)
	check(ntrunc < nlat, "NTrunc %d must be less than NLats = %d", ntrunc, nlat)
	check(ip.Dt > 0, "Dt must be positive, have %v", ip.Dt)
	check(ip.GetITMax() > 0, "run length must be at least one step")
	check(ip.SpinUpDays >= 0, "SpinUpDays must not be negative")
	check(ip.SampleHours > 0, "SampleHours must be positive")
	check(ip.Rsphere > 0, "Rsphere must be positive")
	check(ip.Grav > 0, "Grav must be positive")
	check(ip.KM > 0 && ip.KT > 0, "damping timescales must be positive, have KM = %v, KT = %v", ip.KM, ip.KT)
	check(ip.Lx > 0 && ip.Ly > 0, "forcing half widths must be positive")
	if ip.SwitchOnDay != nil && ip.SwitchOffDay != nil {
		check(*ip.SwitchOffDay >= *ip.SwitchOnDay, "SwitchOffDay %v is before SwitchOnDay %v",
			*ip.SwitchOffDay, *ip.SwitchOnDay)
	}
	if err != nil {
		return
	}
	if ft, err = types.NewForcingType(ip.ForcingType); err != nil {
		return
	}
	if it, err = types.NewInitType(ip.InitType); err != nil {
		return
	}
	if _, err = types.NewContinuityForm(ip.ContinuityForm); err != nil {
		return
	}
	switch ft {
	case types.Forcing_Propagating:
		check(ip.ForcingWaveNumber >= 1, "ForcingWaveNumber must be at least 1, have %d", ip.ForcingWaveNumber)
	case types.Forcing_File:
		check(ip.ForcingFile != "", "file forcing needs ForcingFile")
	}
	if it == types.Init_File {
		check(ip.InitialFile != "", "file initialisation needs InitialFile")
		check(ip.InitialTimeIndex >= 0, "InitialTimeIndex must not be negative")
	}
	return
}

func (ip *InputParametersSWE) GetForcingType() types.ForcingType {
	ft, err := types.NewForcingType(ip.ForcingType)
	if err != nil {
		panic(err)
	}
	return ft
}

func (ip *InputParametersSWE) GetInitType() types.InitType {
	it, err := types.NewInitType(ip.InitType)
	if err != nil {
		panic(err)
	}
	return it
}

func (ip *InputParametersSWE) GetContinuityForm() types.ContinuityForm {
	cf, err := types.NewContinuityForm(ip.ContinuityForm)
	if err != nil {
		panic(err)
	}
	return cf
}

// Hash identifies the physical configuration, the output root is excluded
func (ip *InputParametersSWE) Hash() string { return hash.Hash(ip.identity()) }

// identity drops the fields that do not change the physics of a run
func (ip *InputParametersSWE) identity() InputParametersSWE {
	cp := *ip
	cp.Path = ""
	cp.Title = ""
	return cp
}

func fmtNum(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// OutputDir is the deterministic location of the run's containers
func (ip *InputParametersSWE) OutputDir() string {
	return filepath.Join(ip.Path,
		fmt.Sprintf("dt_%s_Q_forcing_%s_forcing_y_%s_Hmean_%s_forcing_phase_speed_%s_ms",
			fmtNum(ip.Dt), fmtNum(ip.Q0), fmtNum(ip.Yp), fmtNum(ip.Hmean), fmtNum(ip.ForcingPhaseSpeed)),
		fmt.Sprintf("%s_switch_%s", ip.Heating(), ip.SwitchState()),
		fmt.Sprintf("H0_%s_%s", fmtNum(ip.Hmax), hash.Short(ip.identity(), 8)),
	)
}

// CourantNumber is the gravity wave Courant number of the highest resolved wavenumber,
// sqrt(g*(Hmean+Hmax)) * sqrt(T(T+1))/a * dt
func (ip *InputParametersSWE) CourantNumber() (cn float64, err error) {
	var (
		ntrunc = float64(ip.GetNTrunc())
		g      = unit.New(ip.Grav, unit.MeterPerSecond2)
		depth  = unit.New(math.Max(ip.Hmean+ip.Hmax, 0), unit.Meter)
		c2     = unit.Mul(g, depth)
	)
	if err = c2.Check(unit.Dimensions{unit.LengthDim: 2, unit.TimeDim: -2}); err != nil {
		return
	}
	var (
		c      = unit.New(math.Sqrt(c2.Value()), unit.MeterPerSecond)
		k      = unit.Div(unit.New(math.Sqrt(ntrunc*(ntrunc+1)), unit.Dimless), unit.New(ip.Rsphere, unit.Meter))
		dt     = unit.New(ip.Dt, unit.Second)
		number = unit.Mul(c, k, dt)
	)
	if err = number.Check(unit.Dimless); err != nil {
		return
	}
	cn = number.Value()
	return
}
