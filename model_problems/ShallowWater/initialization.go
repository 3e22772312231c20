package ShallowWater

import (
	"fmt"
	"math"

	"github.com/notargets/goswe/InputParameters"
	"github.com/notargets/goswe/spharm"
	"github.com/notargets/goswe/types"
	"github.com/notargets/goswe/utils"
	"github.com/notargets/goswe/writefiles"
)

// ParabolicCylinderD is the Weber function D_n(x) for integer n >= 0
func ParabolicCylinderD(n int, x float64) float64 {
	var (
		dPrev = math.Exp(-x * x / 4)
		d     = x * dPrev
	)
	if n == 0 {
		return dPrev
	}
	for k := 1; k < n; k++ {
		dPrev, d = d, x*d-float64(k)*dPrev
	}
	return d
}

// KelvinState seeds an equatorially trapped Kelvin wave packet of one wavelength at wavenumber 2
func KelvinState(ip *InputParameters.InputParametersSWE, sh *spharm.Spharmt) (s State) {
	var (
		C      = math.Sqrt(ip.Grav * ip.Hmean)
		yT     = ip.YT
		dipole = HeatingProfile(sh.Lons, math.Pi/2, 2, types.Dipole)
		latDeg = sh.LatsDeg()
	)
	if yT == 0 {
		beta := 2 * ip.Omega / ip.Rsphere
		yT = utils.Rad2Deg(math.Sqrt(C/beta) / ip.Rsphere)
	}
	q0 := make([]float64, sh.NLat)
	for j, lat := range latDeg {
		q0[j] = ip.WaveAmplitude * ParabolicCylinderD(0, math.Sqrt2*lat/yT)
	}
	u := utils.NewMatrixFunc(sh.NLat, sh.NLon, func(j, i int) float64 { return -q0[j] * dipole[i] })
	phi := u.Copy().Scale(C)
	s.Vrt, s.Div = sh.GetVrtDivSpec(u, sh.NewGridField())
	s.Phi = sh.GridToSpec(phi)
	return
}

// Restart is a state read back from the spatial output of an earlier run
type Restart struct {
	State
	TimeDays float64
	H0       float64
}

func ReadRestart(fileName string, record int, sh *spharm.Spharmt) (r *Restart, err error) {
	var f *writefiles.File
	if f, err = writefiles.Open(fileName); err != nil {
		return
	}
	defer f.Close()
	fields := make(map[string]utils.Matrix)
	for _, name := range []string{"U", "V", "PHI"} {
		lengths := f.Lengths(name)
		if len(lengths) != 3 || lengths[1] != sh.NLat || lengths[2] != sh.NLon {
			return nil, fmt.Errorf("restart file %s: %s has shape %v, need (time, %d, %d)",
				fileName, name, lengths, sh.NLat, sh.NLon)
		}
		if record < 0 || record >= lengths[0] {
			return nil, fmt.Errorf("restart file %s: record %d out of range [0,%d)", fileName, record, lengths[0])
		}
		frame, err := f.ReadRecord(name, record)
		if err != nil {
			return nil, fmt.Errorf("restart file %s: %w", fileName, err)
		}
		fields[name] = utils.NewMatrix(sh.NLat, sh.NLon, frame.Elements)
	}
	times, err := f.ReadArray("T_in_days")
	if err != nil {
		return nil, fmt.Errorf("restart file %s: %w", fileName, err)
	}
	r = &Restart{TimeDays: times.Elements[record]}
	h0, ok := f.Attribute("H0").([]float64)
	if !ok || len(h0) == 0 {
		return nil, fmt.Errorf("restart file %s has no H0 attribute", fileName)
	}
	r.H0 = h0[0]
	r.Vrt, r.Div = sh.GetVrtDivSpec(fields["U"], fields["V"])
	r.Phi = sh.GridToSpec(fields["PHI"])
	return
}
