package ShallowWater

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/goswe/InputParameters"
	"github.com/notargets/goswe/spharm"
	"github.com/notargets/goswe/types"
	"github.com/notargets/goswe/utils"
)

func smallParameters(t *testing.T) *InputParameters.InputParametersSWE {
	ip := InputParameters.NewInputParametersSWE()
	ip.NLons, ip.NLats, ip.NTrunc = 32, 16, 10
	ip.ITMax = 10
	ip.ForcingType = "none"
	ip.SwitchOnDay, ip.SwitchOffDay = nil, nil
	ip.Path = t.TempDir()
	return ip
}

func randomState(sh *spharm.Spharmt, seed int64, scales [3]float64) (s State) {
	r := rand.New(rand.NewSource(seed))
	s = NewState(sh.NLM)
	for i, f := range s.fields() {
		for k := range f {
			if sh.Degree[k] == 0 {
				continue
			}
			im := 0.
			if sh.Order[k] != 0 {
				im = r.NormFloat64()
			}
			f[k] = complex(scales[i]*r.NormFloat64(), scales[i]*im)
		}
	}
	return
}

func sumTerms(terms map[string]utils.Matrix, names ...string) (sum utils.Matrix) {
	sum = terms[names[0]].Copy()
	for _, name := range names[1:] {
		sum.Add(terms[name])
	}
	return
}

func assertClose(t *testing.T, expect, actual utils.Matrix, rel float64, name string) {
	scale := expect.MaxAbs()
	require.Greater(t, scale, 0., name)
	assert.InDeltaSlice(t, expect.DataP(), actual.DataP(), rel*scale, name)
}

func TestRestIsFixedPoint(t *testing.T) {
	ip := smallParameters(t)
	ip.Hmean, ip.Hmax = 0, 0
	sh, err := spharm.NewSpharmt(ip.NLons, ip.NLats, ip.NTrunc, ip.Rsphere)
	require.NoError(t, err)
	var (
		ref = NewReference(ip, sh)
		ev  = NewEvaluator(sh, ref, types.Continuity_Nonlinear, ip.KM, ip.KT)
		f   = &Forcing{Phi: NoForcing{nlat: sh.NLat, nlon: sh.NLon}}
		s   = NewState(sh.NLM)
	)
	e := ev.Evaluate(s, ev.Grid(s), ref.H0(0), f.At(0))
	assert.True(t, sh.SpecToGrid(e.Tendency.Vrt).IsFinite())
	for _, tend := range e.Tendency.fields() {
		for _, c := range tend {
			assert.Equal(t, complex128(0), c)
		}
	}
}

func TestBudgetTermsCloseTendencies(t *testing.T) {
	ip := smallParameters(t)
	ip.Hmax = 1000
	sh, err := spharm.NewSpharmt(ip.NLons, ip.NLats, ip.NTrunc, ip.Rsphere)
	require.NoError(t, err)
	for _, form := range []types.ContinuityForm{types.Continuity_Nonlinear, types.Continuity_Semilinear} {
		var (
			ref = NewReference(ip, sh)
			ev  = NewEvaluator(sh, ref, form, ip.KM, ip.KT)
			f   = &Forcing{Phi: NoForcing{nlat: sh.NLat, nlon: sh.NLon}}
			s   = randomState(sh, 3, [3]float64{1.e-5, 1.e-6, 100})
		)
		for k := range s.Phi {
			s.Phi[k] += ref.PhiBSpec[k]
		}
		e := ev.Evaluate(s, ev.Grid(s), 500, f.At(0))
		terms := ev.Diagnostics(e)
		require.Len(t, terms, len(DiagnosticNames))
		for _, name := range DiagnosticNames {
			require.Contains(t, terms, name)
		}
		assertClose(t, sh.SpecToGrid(e.Tendency.Vrt),
			sumTerms(terms, "VRT_term1", "VRT_term2", "VRT_term3"), 1.e-10, "vorticity")
		assertClose(t, sh.SpecToGrid(e.Tendency.Div),
			sumTerms(terms, "DIV_term1", "DIV_term2", "DIV_term3", "DIV_term4", "DIV_term5", "DIV_term6"), 1.e-10, "divergence")
		assertClose(t, sh.SpecToGrid(e.Tendency.Phi),
			sumTerms(terms, "PHI_term1", "PHI_term2", "PHI_term3"), 1.e-10, "geopotential")
		for _, eq := range []string{"VRT", "DIV", "PHI"} {
			assertClose(t, terms[eq+"_term1"],
				sumTerms(terms, eq+"_term1a", eq+"_term1b"), 1.e-12, eq+" advection split")
		}
	}
}

func TestForcedBudgetCloses(t *testing.T) {
	ip := smallParameters(t)
	ip.Hmax = 1000
	sh, err := spharm.NewSpharmt(ip.NLons, ip.NLats, ip.NTrunc, ip.Rsphere)
	require.NoError(t, err)
	var (
		day = utils.DaySeconds
		ref = NewReference(ip, sh)
		ev  = NewEvaluator(sh, ref, types.Continuity_Nonlinear, ip.KM, ip.KT)
		f   = &Forcing{
			Phi:      NewPropagating(sh, ip.Grav, 10, 0, 10, 5, 2, types.Dipole, Gate{}),
			Momentum: NewMomentumForcing(sh, 1.e-4, 5.e-5, 0, 90, 10, 30, 0, Gate{}),
		}
		s = randomState(sh, 7, [3]float64{1.e-5, 1.e-6, 100})
	)
	for k := range s.Phi {
		s.Phi[k] += ref.PhiBSpec[k]
	}
	e := ev.Evaluate(s, ev.Grid(s), 500, f.At(0.5*day))
	terms := ev.Diagnostics(e)
	require.Len(t, terms, len(DiagnosticNames))
	for _, name := range []string{"VRT_term3", "DIV_term6", "PHI_term3"} {
		assert.Greater(t, terms[name].MaxAbs(), 0., name)
	}
	assertClose(t, sh.SpecToGrid(e.Tendency.Vrt),
		sumTerms(terms, "VRT_term1", "VRT_term2", "VRT_term3"), 1.e-10, "vorticity")
	assertClose(t, sh.SpecToGrid(e.Tendency.Div),
		sumTerms(terms, "DIV_term1", "DIV_term2", "DIV_term3", "DIV_term4", "DIV_term5", "DIV_term6"), 1.e-10, "divergence")
	assertClose(t, sh.SpecToGrid(e.Tendency.Phi),
		sumTerms(terms, "PHI_term1", "PHI_term2", "PHI_term3"), 1.e-10, "geopotential")

	// The forcing enters the geopotential tendency divided by the thermal timescale
	phiSpec := sh.GridToSpec(e.Drive.Phi.Field)
	for k, c := range phiSpec {
		assert.InDelta(t, real(c)/ip.KT, real(e.PhiForcingSpec[k]), 1.e-12)
		assert.InDelta(t, imag(c)/ip.KT, imag(e.PhiForcingSpec[k]), 1.e-12)
	}
	// and the momentum forcing through its curl and divergence
	vrtF, divF := sh.GetVrtDivSpec(e.Drive.FU.Field, e.Drive.FV.Field)
	assert.Equal(t, vrtF, e.VrtForcingSpec)
	assert.Equal(t, divF, e.DivForcingSpec)
	// Switching the forcing off removes the forcing terms and nothing else
	free := ev.Evaluate(s, ev.Grid(s), 500, (&Forcing{Phi: NoForcing{nlat: sh.NLat, nlon: sh.NLon}}).At(0))
	for k := range s.Vrt {
		assert.InDelta(t, real(free.Tendency.Vrt[k]+e.VrtForcingSpec[k]), real(e.Tendency.Vrt[k]), 1.e-18)
		assert.InDelta(t, real(free.Tendency.Phi[k]+e.PhiForcingSpec[k]), real(e.Tendency.Phi[k]), 1.e-9)
	}
}

func TestReferenceSpinUp(t *testing.T) {
	ip := smallParameters(t)
	ip.Dt = 3600
	ip.SpinUpDays = 1
	sh, err := spharm.NewSpharmt(ip.NLons, ip.NLats, ip.NTrunc, ip.Rsphere)
	require.NoError(t, err)
	ref := NewReference(ip, sh)
	assert.Equal(t, 0., ref.H0(0))
	assert.InDelta(t, ip.Hmax/23, ref.H0(1), 1.e-12)
	assert.Equal(t, ip.Hmax, ref.H0(23))
	assert.Equal(t, ip.Hmax, ref.H0(24))
	assert.Equal(t, ip.Hmax, ref.H0(1000))
	// With y0 = 0 and N = 2 the reference profile is g*H0*cos^2(lat)
	phiT := ref.PhiT(100)
	for j, c := range sh.CosLat {
		assert.InDelta(t, ip.Grav*100*c*c, phiT.At(j, 3), 1.e-10)
	}
	assert.InDelta(t, 2*ip.Omega*sh.Mu[0], ref.Coriolis.At(0, 0), 1.e-18)
	assert.Equal(t, ip.Grav*ip.Hmean, ref.PhiB)
}
