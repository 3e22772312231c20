package types

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

type ForcingType uint8

const (
	Forcing_None ForcingType = iota
	Forcing_Stationary
	Forcing_Propagating
	Forcing_File
)

var ForcingNameMap = map[string]ForcingType{
	"none":        Forcing_None,
	"stationary":  Forcing_Stationary,
	"gaussian":    Forcing_Stationary,
	"propagating": Forcing_Propagating,
	"file":        Forcing_File,
}

var forcingPrintNames = []string{"None", "Stationary Gaussian", "Propagating Heating", "Forcing From File"}

func (ft ForcingType) Print() string { return forcingPrintNames[ft] }

func NewForcingType(label string) (ft ForcingType, err error) {
	var ok bool
	if ft, ok = ForcingNameMap[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("unknown forcing type %q, must be one of %v", label, names(ForcingNameMap))
	}
	return
}

type InitType uint8

const (
	Init_Rest InitType = iota
	Init_Kelvin
	Init_File
)

var InitNameMap = map[string]InitType{
	"rest":   Init_Rest,
	"kelvin": Init_Kelvin,
	"file":   Init_File,
}

var initPrintNames = []string{"At Rest", "Equatorial Kelvin Wave", "Restart From File"}

func (it InitType) Print() string { return initPrintNames[it] }

func NewInitType(label string) (it InitType, err error) {
	var ok bool
	if it, ok = InitNameMap[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("unknown init type %q, must be one of %v", label, names(InitNameMap))
	}
	return
}

// ContinuityForm selects how the mass flux divergence is built in the geopotential equation.
type ContinuityForm uint8

const (
	Continuity_Nonlinear  ContinuityForm = iota // -div(v Phi)
	Continuity_Semilinear                       // -div(v (Phi + Phi_B)) + Phi div(v)
)

var ContinuityNameMap = map[string]ContinuityForm{
	"nonlinear":  Continuity_Nonlinear,
	"semilinear": Continuity_Semilinear,
}

func NewContinuityForm(label string) (cf ContinuityForm, err error) {
	var ok bool
	if cf, ok = ContinuityNameMap[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("unknown continuity form %q, must be one of %v", label, names(ContinuityNameMap))
	}
	return
}

// HeatingVariant is the longitudinal structure of the propagating heating.
type HeatingVariant uint8

const (
	Dipole   HeatingVariant = iota // one full period of sin(K(lon-shift))
	Monopole                       // half a period
)

func (hv HeatingVariant) String() string {
	if hv == Monopole {
		return "mono_heat"
	}
	return "dipole_heat"
}

// ActiveArc is the longitudinal extent in radians where the heating is non-zero
func (hv HeatingVariant) ActiveArc(K float64) float64 {
	if hv == Monopole {
		return math.Pi / K
	}
	return 2 * math.Pi / K
}

func names[T any](m map[string]T) (keys []string) {
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}
