package ShallowWater

import (
	"github.com/notargets/goswe/utils"
)

// DiagnosticNames lists the budget terms of the three equations in output order.
// The "a" terms are the linearised part of an advection term and the "b" terms the residual.
// VRT_term3 and DIV_term6 carry the momentum forcing and are zero without it.
var DiagnosticNames = []string{
	"VRT_term1", "VRT_term1a", "VRT_term1b", "VRT_term2", "VRT_term3",
	"DIV_term1", "DIV_term1a", "DIV_term1b", "DIV_term2", "DIV_term3", "DIV_term4", "DIV_term5", "DIV_term6",
	"PHI_term1", "PHI_term1a", "PHI_term1b", "PHI_term2", "PHI_term3",
}

// Diagnostics splits the tendencies of an evaluation into grid space budget terms.
// Nothing here feeds back into the integration.
func (ev *Evaluator) Diagnostics(e *Evaluation) (terms map[string]utils.Matrix) {
	var (
		sh  = ev.sh
		g   = e.Grid
		nlm = sh.NLM
	)
	lapGrid := func(spec []complex128) utils.Matrix {
		return sh.SpecToGrid(sh.ApplyLap(spec)).Scale(-1)
	}
	negSpec := make([]complex128, nlm)
	for k, c := range e.divNL {
		negSpec[k] = -c
	}
	terms = make(map[string]utils.Matrix, len(DiagnosticNames))

	terms["VRT_term1"] = sh.SpecToGrid(negSpec)
	terms["VRT_term1a"] = g.Div.Copy().ElMul(e.absVrt).Scale(-1)
	terms["VRT_term1b"] = terms["VRT_term1"].Copy().Subtract(terms["VRT_term1a"])
	terms["VRT_term2"] = g.Vrt.Copy().Scale(-1 / ev.KM)
	terms["VRT_term3"] = sh.SpecToGrid(e.VrtForcingSpec)

	terms["DIV_term1"] = sh.SpecToGrid(e.curlNL)
	terms["DIV_term1a"] = g.Vrt.Copy().ElMul(e.absVrt)
	terms["DIV_term1b"] = terms["DIV_term1"].Copy().Subtract(terms["DIV_term1a"])
	terms["DIV_term2"] = lapGrid(e.phiSpec)
	terms["DIV_term3"] = lapGrid(ev.ref.PhiTSpec(e.H0))
	terms["DIV_term4"] = lapGrid(e.keSpec)
	terms["DIV_term5"] = g.Div.Copy().Scale(-1 / ev.KM)
	terms["DIV_term6"] = sh.SpecToGrid(e.DivForcingSpec)

	for k, c := range e.divMF {
		negSpec[k] = -c
	}
	terms["PHI_term1"] = sh.SpecToGrid(negSpec)
	terms["PHI_term1a"] = g.Phi.Copy().ElMul(g.Div).Scale(-1)
	terms["PHI_term1b"] = terms["PHI_term1"].Copy().Subtract(terms["PHI_term1a"])
	terms["PHI_term2"] = g.Phi.Copy().AddScalar(-ev.ref.PhiB).Scale(-1 / ev.KT)
	// The truncated forcing, as the tendency sees it
	terms["PHI_term3"] = sh.SpecToGrid(e.PhiForcingSpec)
	return
}
