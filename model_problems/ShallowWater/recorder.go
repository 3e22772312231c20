package ShallowWater

import (
	"github.com/ctessum/sparse"

	"github.com/notargets/goswe/spharm"
	"github.com/notargets/goswe/utils"
	"github.com/notargets/goswe/writefiles"
)

var (
	spatialNames  = []string{"U", "V", "PHI", "vrt", "div", "phi_forcing", "vrt_forcing", "div_forcing"}
	spectralNames = []string{"U", "V", "PHI", "VRT", "DIV", "phi_forcing", "vrt_forcing", "div_forcing"}
	units         = map[string]string{
		"U": "m s-1", "V": "m s-1", "PHI": "m2 s-2", "vrt": "s-1", "div": "s-1",
		"phi_forcing": "m2 s-2", "vrt_forcing": "s-2", "div_forcing": "s-2",
	}
)

// Recorder accumulates sampled snapshots until the run completes
type Recorder struct {
	sh                *spharm.Spharmt
	SaveSpectral      bool
	SaveEquationTerms bool
	TimesDays         []float64
	spatial           map[string][]utils.Matrix
	spectral          map[string][][]complex128
	terms             map[string][]utils.Matrix
}

func NewRecorder(sh *spharm.Spharmt, saveSpectral, saveTerms bool) *Recorder {
	return &Recorder{
		sh:                sh,
		SaveSpectral:      saveSpectral,
		SaveEquationTerms: saveTerms,
		spatial:           make(map[string][]utils.Matrix),
		spectral:          make(map[string][][]complex128),
		terms:             make(map[string][]utils.Matrix),
	}
}

func (r *Recorder) Len() int { return len(r.TimesDays) }

// Sample appends the state of an evaluation, terms may be nil when budget terms are not kept
func (r *Recorder) Sample(t float64, s State, e *Evaluation, terms map[string]utils.Matrix) {
	var (
		sh = r.sh
		g  = e.Grid
	)
	r.TimesDays = append(r.TimesDays, t/utils.DaySeconds)
	for name, f := range map[string]utils.Matrix{
		"U": g.U, "V": g.V, "PHI": g.Phi, "vrt": g.Vrt, "div": g.Div,
		"phi_forcing": e.Drive.Phi.Field,
		"vrt_forcing": sh.SpecToGrid(e.VrtForcingSpec),
		"div_forcing": sh.SpecToGrid(e.DivForcingSpec),
	} {
		r.spatial[name] = append(r.spatial[name], f)
	}
	if r.SaveSpectral {
		cp := func(c []complex128) []complex128 { return append([]complex128(nil), c...) }
		for name, c := range map[string][]complex128{
			"U": sh.GridToSpec(g.U), "V": sh.GridToSpec(g.V),
			"PHI": cp(s.Phi), "VRT": cp(s.Vrt), "DIV": cp(s.Div),
			"phi_forcing": e.PhiForcingSpec,
			"vrt_forcing": e.VrtForcingSpec,
			"div_forcing": e.DivForcingSpec,
		} {
			r.spectral[name] = append(r.spectral[name], c)
		}
	}
	if r.SaveEquationTerms && terms != nil {
		for _, name := range DiagnosticNames {
			r.terms[name] = append(r.terms[name], terms[name])
		}
	}
}

// stackGrid lays the sampled fields out as (time, lat, lon)
func (r *Recorder) stackGrid(fields []utils.Matrix) (a *sparse.DenseArray) {
	var (
		nlat, nlon = r.sh.NLat, r.sh.NLon
		size       = nlat * nlon
	)
	a = sparse.ZerosDense(len(fields), nlat, nlon)
	for n, f := range fields {
		copy(a.Elements[n*size:(n+1)*size], f.DataP())
	}
	return
}

// stackSpec lays sampled coefficients out as two (time, coefficient) arrays
func (r *Recorder) stackSpec(specs [][]complex128) (re, im *sparse.DenseArray) {
	nlm := r.sh.NLM
	re = sparse.ZerosDense(len(specs), nlm)
	im = sparse.ZerosDense(len(specs), nlm)
	for n, spec := range specs {
		for k, c := range spec {
			re.Set(real(c), n, k)
			im.Set(imag(c), n, k)
		}
	}
	return
}

// RunInfo is the metadata written with every container
type RunInfo struct {
	RunID   string
	H0      float64
	PhiB    float64
	PhiT    utils.Matrix
	Aborted bool
}

func (r *Recorder) axes(c *writefiles.Container, info RunInfo) *writefiles.Container {
	return c.AddDimension("time", r.Len()).
		AddDimension("lat", r.sh.NLat).
		AddDimension("lon", r.sh.NLon).
		AddAttribute("run_id", info.RunID).
		AddAttribute("abort_status", info.Aborted).
		AddFloats("lats", []string{"lat"}, r.sh.Lats, "radians").
		AddFloats("lons", []string{"lon"}, r.sh.Lons, "radians").
		AddFloats("T_in_days", []string{"time"}, r.TimesDays, "days")
}

// Spatial holds the grid space samples along with the reference fields
func (r *Recorder) Spatial(info RunInfo) (c *writefiles.Container) {
	c = r.axes(writefiles.NewContainer(), info).
		AddAttribute("H0", info.H0).
		AddAttribute("phi_B", info.PhiB).
		AddFloats("phi_T", []string{"lat", "lon"}, info.PhiT.DataP(), "m2 s-2")
	for _, name := range spatialNames {
		c.AddArray(name, []string{"time", "lat", "lon"}, r.stackGrid(r.spatial[name]), units[name])
	}
	return
}

// Spectral holds the sampled coefficients split into real and imaginary parts
func (r *Recorder) Spectral(info RunInfo) (c *writefiles.Container) {
	var (
		nlm  = r.sh.NLM
		l, m = make([]int32, nlm), make([]int32, nlm)
	)
	for k := 0; k < nlm; k++ {
		l[k], m[k] = int32(r.sh.Degree[k]), int32(r.sh.Order[k])
	}
	c = writefiles.NewContainer().
		AddDimension("time", r.Len()).
		AddDimension("coefficient", nlm).
		AddAttribute("run_id", info.RunID).
		AddAttribute("abort_status", info.Aborted).
		AddAttribute("H0", info.H0).
		AddAttribute("phi_B", info.PhiB).
		AddInts("l", []string{"coefficient"}, l).
		AddInts("m", []string{"coefficient"}, m).
		AddFloats("T_in_days", []string{"time"}, r.TimesDays, "days")
	for _, name := range spectralNames {
		re, im := r.stackSpec(r.spectral[name])
		c.AddArray(name+"_real", []string{"time", "coefficient"}, re, "")
		c.AddArray(name+"_imag", []string{"time", "coefficient"}, im, "")
	}
	return
}

// Equation holds the sampled budget terms with the vorticity and divergence they belong to
func (r *Recorder) Equation(info RunInfo) (c *writefiles.Container) {
	c = r.axes(writefiles.NewContainer(), info)
	for _, name := range DiagnosticNames {
		c.AddArray(name, []string{"time", "lat", "lon"}, r.stackGrid(r.terms[name]), "")
	}
	c.AddArray("vrt", []string{"time", "lat", "lon"}, r.stackGrid(r.spatial["vrt"]), units["vrt"])
	c.AddArray("div", []string{"time", "lat", "lon"}, r.stackGrid(r.spatial["div"]), units["div"])
	return
}
