package ShallowWater

import (
	"github.com/notargets/goswe/spharm"
	"github.com/notargets/goswe/types"
	"github.com/notargets/goswe/utils"
)

// State holds the prognostic spectral fields, vorticity, divergence and geopotential
type State struct {
	Vrt, Div, Phi []complex128
}

func NewState(nlm int) State {
	return State{
		Vrt: make([]complex128, nlm),
		Div: make([]complex128, nlm),
		Phi: make([]complex128, nlm),
	}
}

func (s State) Copy() (R State) {
	R = NewState(len(s.Vrt))
	copy(R.Vrt, s.Vrt)
	copy(R.Div, s.Div)
	copy(R.Phi, s.Phi)
	return
}

func (s State) fields() [3][]complex128 { return [3][]complex128{s.Vrt, s.Div, s.Phi} }

// GridState is the physical space view of a State
type GridState struct {
	U, V, Vrt, Div, Phi utils.Matrix
}

// Evaluation is the tendency of one step and the intermediate terms it was built from
type Evaluation struct {
	Grid     GridState
	Tendency State
	H0       float64
	Drive    Drive
	// Spectral forcing terms as they enter the tendency
	PhiForcingSpec       []complex128
	VrtForcingSpec       []complex128
	DivForcingSpec       []complex128
	absVrt, ke           utils.Matrix
	curlNL, divNL, divMF []complex128
	phiSpec, keSpec      []complex128
}

// Evaluator computes the right hand side of the vorticity, divergence and continuity equations
type Evaluator struct {
	sh     *spharm.Spharmt
	ref    *Reference
	form   types.ContinuityForm
	KM, KT float64
}

func NewEvaluator(sh *spharm.Spharmt, ref *Reference, form types.ContinuityForm, KM, KT float64) *Evaluator {
	return &Evaluator{sh: sh, ref: ref, form: form, KM: KM, KT: KT}
}

func (ev *Evaluator) Grid(s State) (g GridState) {
	sh := ev.sh
	g.Vrt = sh.SpecToGrid(s.Vrt)
	g.Div = sh.SpecToGrid(s.Div)
	g.Phi = sh.SpecToGrid(s.Phi)
	g.U, g.V = sh.GetUV(s.Vrt, s.Div)
	return
}

func (ev *Evaluator) Evaluate(s State, g GridState, H0 float64, d Drive) (e *Evaluation) {
	var (
		sh  = ev.sh
		nlm = sh.NLM
		ref = ev.ref
	)
	e = &Evaluation{
		Grid:     g,
		Tendency: NewState(nlm),
		H0:       H0,
		Drive:    d,
		phiSpec:  s.Phi,
	}
	dvrt, ddiv, dphi := e.Tendency.Vrt, e.Tendency.Div, e.Tendency.Phi

	// Absolute vorticity flux, its divergence drives vorticity and its curl drives divergence
	e.absVrt = g.Vrt.Copy().Add(ref.Coriolis)
	e.curlNL, e.divNL = sh.GetVrtDivSpec(g.U.Copy().ElMul(e.absVrt), g.V.Copy().ElMul(e.absVrt))
	for k := 0; k < nlm; k++ {
		dvrt[k] = -e.divNL[k]
		ddiv[k] = e.curlNL[k]
	}

	// Mass flux
	switch ev.form {
	case types.Continuity_Semilinear:
		phiTotal := g.Phi.Copy().AddScalar(ref.PhiB)
		_, divFlux := sh.GetVrtDivSpec(g.U.Copy().ElMul(phiTotal), g.V.Copy().ElMul(phiTotal))
		linear := sh.GridToSpec(g.Div.Copy().ElMul(g.Phi))
		e.divMF = make([]complex128, nlm)
		for k := range e.divMF {
			e.divMF[k] = divFlux[k] - linear[k]
		}
	default:
		_, e.divMF = sh.GetVrtDivSpec(g.U.Copy().ElMul(g.Phi), g.V.Copy().ElMul(g.Phi))
	}

	// Gradient of geopotential, reference profile and kinetic energy
	e.ke = g.U.Copy().POW(2).Add(g.V.Copy().POW(2)).Scale(0.5)
	e.keSpec = sh.GridToSpec(e.ke)
	var (
		phiTSpec = ref.PhiTSpec(H0)
		energy   = make([]complex128, nlm)
	)
	for k := range energy {
		energy[k] = s.Phi[k] + phiTSpec[k] + e.keSpec[k]
	}
	for k, c := range sh.ApplyLap(energy) {
		ddiv[k] -= c
	}

	// Rayleigh damping and thermal relaxation toward the background geopotential
	var (
		rKM = complex(1/ev.KM, 0)
		rKT = complex(1/ev.KT, 0)
	)
	for k := 0; k < nlm; k++ {
		dphi[k] = -e.divMF[k] - (s.Phi[k]-ref.PhiBSpec[k])*rKT
		dvrt[k] -= s.Vrt[k] * rKM
		ddiv[k] -= s.Div[k] * rKM
	}

	// Forcing
	e.PhiForcingSpec = sh.GridToSpec(d.Phi.Field)
	for k := range e.PhiForcingSpec {
		e.PhiForcingSpec[k] *= rKT
		dphi[k] += e.PhiForcingSpec[k]
	}
	if d.FU != nil && d.FV != nil {
		e.VrtForcingSpec, e.DivForcingSpec = sh.GetVrtDivSpec(d.FU.Field, d.FV.Field)
	} else {
		e.VrtForcingSpec, e.DivForcingSpec = make([]complex128, nlm), make([]complex128, nlm)
	}
	for k := 0; k < nlm; k++ {
		dvrt[k] += e.VrtForcingSpec[k]
		ddiv[k] += e.DivForcingSpec[k]
	}
	return
}
