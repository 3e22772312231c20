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

// Gate is the activity window of a forcing in seconds, a nil bound is open
type Gate struct {
	On, Off *float64
}

func (g Gate) Active(t float64) bool {
	return (g.On == nil || t >= *g.On) && (g.Off == nil || t <= *g.Off)
}

func (g Gate) onTime() float64 {
	if g.On == nil {
		return 0
	}
	return *g.On
}

// ForcingField carries a forcing and its departure from the zonal mean
type ForcingField struct {
	Field, Anomaly utils.Matrix
}

func newForcingField(f utils.Matrix) ForcingField {
	return ForcingField{Field: f, Anomaly: f.Eddy()}
}

// PhiForcer produces the geopotential forcing at time t in seconds
type PhiForcer interface {
	PhiForcing(t float64) ForcingField
}

type NoForcing struct {
	nlat, nlon int
}

func (nf NoForcing) PhiForcing(t float64) ForcingField {
	return newForcingField(utils.NewMatrix(nf.nlat, nf.nlon))
}

// Stationary is a Gaussian bump of geopotential, present while the gate is open
type Stationary struct {
	Gate
	bump utils.Matrix
}

func NewStationary(sh *spharm.Spharmt, grav, Q0, yp, xp, Ly, Lx float64, gate Gate) (sf *Stationary) {
	sf = &Stationary{
		Gate: gate,
		bump: gaussianBump(sh, grav*Q0, yp, xp, Ly, Lx),
	}
	sf.bump.SetReadOnly("stationary forcing")
	return
}

func (sf *Stationary) PhiForcing(t float64) ForcingField {
	f := utils.NewMatrix(sf.bump.Dims())
	if sf.Active(t) {
		f.Assign(sf.bump)
	}
	return newForcingField(f)
}

// gaussianBump is amp*exp(-((lat-yp)^2/Ly^2 + (lon-xp)^2/Lx^2)), angles in degrees
func gaussianBump(sh *spharm.Spharmt, amp, yp, xp, Ly, Lx float64) utils.Matrix {
	var (
		ypR, xpR = utils.Deg2Rad(yp), utils.Deg2Rad(xp)
		LyR, LxR = utils.Deg2Rad(Ly), utils.Deg2Rad(Lx)
	)
	return sh.GridFunc(func(lat, lon float64) float64 {
		return amp * math.Exp(-(utils.POW((lat-ypR)/LyR, 2) + utils.POW((lon-xpR)/LxR, 2)))
	})
}

// Propagating is a latitude confined heating pattern moving east at phase speed C (m/s)
type Propagating struct {
	Gate
	C       float64
	K       int
	Variant types.HeatingVariant
	rsphere float64
	lons    []float64
	merid   []float64
}

// stationaryLongitude is where a zero phase speed pattern sits
const stationaryLongitude = 100.

func NewPropagating(sh *spharm.Spharmt, grav, Q0, yp, Ly, c float64, K int,
	variant types.HeatingVariant, gate Gate) (pf *Propagating) {
	pf = &Propagating{
		Gate:    gate,
		C:       c,
		K:       K,
		Variant: variant,
		rsphere: sh.Rsphere,
		lons:    sh.Lons,
		merid:   make([]float64, sh.NLat),
	}
	ypR, LyR := utils.Deg2Rad(yp), utils.Deg2Rad(Ly)
	for j, lat := range sh.Lats {
		pf.merid[j] = grav * Q0 * math.Exp(-utils.POW((lat-ypR)/LyR, 2))
	}
	return
}

// Shift is the longitude in radians where the active arc begins
func (pf *Propagating) Shift(t float64) float64 {
	if pf.C == 0 {
		return utils.Deg2Rad(stationaryLongitude)
	}
	return pf.C * (t - pf.onTime()) / pf.rsphere
}

func (pf *Propagating) PhiForcing(t float64) ForcingField {
	f := utils.NewMatrix(len(pf.merid), len(pf.lons))
	if pf.Active(t) {
		heating := HeatingProfile(pf.lons, pf.Shift(t), pf.K, pf.Variant)
		for j, a := range pf.merid {
			row := f.Row(j)
			for i, h := range heating {
				row[i] = a * h
			}
		}
	}
	return newForcingField(f)
}

// HeatingProfile is sin(K*(lon-shift)) on the arc beginning at shift and zero elsewhere.
// The arc is one wavelength for a dipole and half a wavelength for a monopole.
func HeatingProfile(lons []float64, shift float64, K int, variant types.HeatingVariant) (h []float64) {
	var (
		twoPi = 2 * math.Pi
		k     = float64(K)
		arc   = variant.ActiveArc(k)
	)
	shift = utils.Mod(shift, twoPi)
	h = make([]float64, len(lons))
	for i, lon := range lons {
		var off bool
		if end := shift + arc; end > twoPi {
			off = lon < shift && lon > end-twoPi
		} else {
			off = lon < shift || lon > end
		}
		if !off {
			h[i] = math.Sin(k * (lon - shift))
		}
	}
	return
}

// FileForcing cycles through hourly geopotential forcing frames
type FileForcing struct {
	Gate
	Frames []utils.Matrix
}

func NewFileForcing(sh *spharm.Spharmt, fileName string, gate Gate) (ff *FileForcing, err error) {
	var (
		f      *writefiles.File
		frames []utils.Matrix
	)
	if f, err = writefiles.Open(fileName); err != nil {
		return
	}
	defer f.Close()
	if frames, err = readFrames(f, "phi_forcing", sh.NLat, sh.NLon); err != nil {
		return nil, fmt.Errorf("forcing file %s: %w", fileName, err)
	}
	ff = &FileForcing{Gate: gate, Frames: frames}
	return
}

func (ff *FileForcing) PhiForcing(t float64) ForcingField {
	nr, nc := ff.Frames[0].Dims()
	f := utils.NewMatrix(nr, nc)
	if ff.Active(t) {
		hour := int(t/utils.HourSecs) % len(ff.Frames)
		f.Assign(ff.Frames[hour])
	}
	return newForcingField(f)
}

// readFrames loads a (time, lat, lon) variable as one matrix per record
func readFrames(f *writefiles.File, name string, nlat, nlon int) (frames []utils.Matrix, err error) {
	lengths := f.Lengths(name)
	if len(lengths) != 3 || lengths[1] != nlat || lengths[2] != nlon {
		return nil, fmt.Errorf("%s has shape %v, need (time, %d, %d)", name, lengths, nlat, nlon)
	}
	if lengths[0] == 0 {
		return nil, fmt.Errorf("%s has no records", name)
	}
	data, err := f.ReadArray(name)
	if err != nil {
		return
	}
	size := nlat * nlon
	for rec := 0; rec < lengths[0]; rec++ {
		frame := make([]float64, size)
		copy(frame, data.Elements[rec*size:(rec+1)*size])
		frames = append(frames, utils.NewMatrix(nlat, nlon, frame))
	}
	return
}

// MomentumForcing is a Gaussian velocity tendency, steady or oscillating with the given period
type MomentumForcing struct {
	Gate
	Period float64
	fu, fv utils.Matrix
}

func NewMomentumForcing(sh *spharm.Spharmt, FUo, FVo, yp, xp, Ly, Lx, period float64, gate Gate) (mf *MomentumForcing) {
	mf = &MomentumForcing{
		Gate:   gate,
		Period: period,
		fu:     gaussianBump(sh, FUo, yp, xp, Ly, Lx),
		fv:     gaussianBump(sh, FVo, yp, xp, Ly, Lx),
	}
	return
}

func (mf *MomentumForcing) timeComponent(t float64) float64 {
	if mf.Period == 0 {
		return 1
	}
	return math.Sin(2 * math.Pi * t / mf.Period)
}

func (mf *MomentumForcing) Forcing(t float64) (fu, fv ForcingField) {
	var (
		scale  float64
		nr, nc = mf.fu.Dims()
	)
	if mf.Active(t) {
		scale = mf.timeComponent(t)
	}
	fu = newForcingField(utils.NewMatrix(nr, nc).AddScaled(scale, mf.fu))
	fv = newForcingField(utils.NewMatrix(nr, nc).AddScaled(scale, mf.fv))
	return
}

// Forcing bundles the geopotential forcing with the optional momentum forcing
type Forcing struct {
	Phi      PhiForcer
	Momentum *MomentumForcing
}

// Drive is the forcing sampled at one time
type Drive struct {
	Phi    ForcingField
	FU, FV *ForcingField
}

func (f *Forcing) At(t float64) (d Drive) {
	d.Phi = f.Phi.PhiForcing(t)
	if f.Momentum != nil {
		fu, fv := f.Momentum.Forcing(t)
		d.FU, d.FV = &fu, &fv
	}
	return
}

func NewForcing(ip *InputParameters.InputParametersSWE, sh *spharm.Spharmt) (f *Forcing, err error) {
	var (
		gate = Gate{On: ip.SwitchOnTime(), Off: ip.SwitchOffTime()}
		ft   types.ForcingType
	)
	if ft, err = types.NewForcingType(ip.ForcingType); err != nil {
		return
	}
	f = &Forcing{}
	switch ft {
	case types.Forcing_None:
		f.Phi = NoForcing{nlat: sh.NLat, nlon: sh.NLon}
	case types.Forcing_Stationary:
		f.Phi = NewStationary(sh, ip.Grav, ip.Q0, ip.Yp, ip.Xp, ip.Ly, ip.Lx, gate)
	case types.Forcing_Propagating:
		f.Phi = NewPropagating(sh, ip.Grav, ip.Q0, ip.Yp, ip.Ly, ip.ForcingPhaseSpeed,
			ip.ForcingWaveNumber, ip.Heating(), gate)
	case types.Forcing_File:
		if f.Phi, err = NewFileForcing(sh, ip.ForcingFile, gate); err != nil {
			return nil, err
		}
	}
	if ip.FUo != 0 || ip.FVo != 0 {
		f.Momentum = NewMomentumForcing(sh, ip.FUo, ip.FVo, ip.Yp, ip.Xp, ip.Ly, ip.Lx,
			ip.MomentumPeriodDays*utils.DaySeconds, gate)
	}
	return
}
