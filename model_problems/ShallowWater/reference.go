package ShallowWater

import (
	"math"

	"github.com/notargets/goswe/InputParameters"
	"github.com/notargets/goswe/spharm"
	"github.com/notargets/goswe/utils"
)

// Reference holds the fields derived once per run from the parameters: the Coriolis parameter,
// the background geopotential and the shape of the meridional reference profile.
type Reference struct {
	Coriolis utils.Matrix
	PhiB     float64
	PhiBSpec []complex128
	// profile is (1-(sin(lat)-sin(y0))^N)*g, the reference profile per metre of H0
	profile     utils.Matrix
	profileSpec []complex128
	ramp        []float64
	Hmax        float64
}

func NewReference(ip *InputParameters.InputParametersSWE, sh *spharm.Spharmt) (r *Reference) {
	sinY0 := math.Sin(utils.Deg2Rad(ip.Y0))
	r = &Reference{
		Coriolis: sh.GridFunc(func(lat, _ float64) float64 { return 2 * ip.Omega * math.Sin(lat) }),
		PhiB:     ip.Grav * ip.Hmean,
		profile: sh.GridFunc(func(lat, _ float64) float64 {
			return ip.Grav * (1 - utils.POW(math.Sin(lat)-sinY0, ip.N))
		}),
		ramp: utils.Linspace(0, ip.Hmax, ip.NSpin()),
		Hmax: ip.Hmax,
	}
	r.Coriolis.SetReadOnly("Coriolis")
	r.profile.SetReadOnly("reference profile")
	r.PhiBSpec = sh.GridToSpec(sh.NewGridField().AddScalar(r.PhiB))
	r.profileSpec = sh.GridToSpec(r.profile)
	return
}

// H0 is the peak depth at a step, ramping linearly from zero over the spin up
func (r *Reference) H0(step int) float64 {
	if step >= 0 && step < len(r.ramp) {
		return r.ramp[step]
	}
	return r.Hmax
}

// PhiT is the meridional reference geopotential for peak depth H0
func (r *Reference) PhiT(H0 float64) utils.Matrix {
	return r.profile.Copy().Scale(H0)
}

func (r *Reference) PhiTSpec(H0 float64) (spec []complex128) {
	spec = make([]complex128, len(r.profileSpec))
	for k, c := range r.profileSpec {
		spec[k] = complex(H0, 0) * c
	}
	return
}
