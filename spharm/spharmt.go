// Package spharm implements spherical harmonic transforms on a Gaussian grid with triangular truncation.
package spharm

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/goswe/utils"
)

// Spharmt converts fields between the Gaussian grid and spherical harmonic coefficients on a sphere
// of radius Rsphere. Grid fields are NLat x NLon with latitude rows ordered north to south.
// Coefficients are ordered by zonal order m (outer, 0..NTrunc) then degree n (inner, m..NTrunc).
// A Spharmt is read only once built and may be shared between goroutines.
type Spharmt struct {
	NLon, NLat, NTrunc int
	NLM                int
	Rsphere            float64
	Lons               []float64 // radians, 2*pi*i/NLon
	GaussianGrid
	Degree, Order []int
	Lap, InvLap   []float64
	lapOp         *sparse.DIA
	invLapOp      *sparse.DIA
	tables        []orderTable
	offset        []int
	zonal         *zonal
}

func NewSpharmt(nlon, nlat, ntrunc int, rsphere float64) (sh *Spharmt, err error) {
	switch {
	case nlon < 4:
		err = fmt.Errorf("need at least 4 longitudes, have %d", nlon)
	case ntrunc < 0:
		err = fmt.Errorf("truncation must be non-negative, have %d", ntrunc)
	case ntrunc >= nlon/2:
		err = fmt.Errorf("truncation %d must be less than nlon/2 = %d", ntrunc, nlon/2)
	case ntrunc >= nlat:
		err = fmt.Errorf("truncation %d must be less than nlat = %d", ntrunc, nlat)
	case rsphere <= 0:
		err = fmt.Errorf("sphere radius must be positive, have %v", rsphere)
	}
	if err != nil {
		return
	}
	sh = &Spharmt{
		NLon:    nlon,
		NLat:    nlat,
		NTrunc:  ntrunc,
		NLM:     (ntrunc + 1) * (ntrunc + 2) / 2,
		Rsphere: rsphere,
		Lons:    make([]float64, nlon),
		offset:  make([]int, ntrunc+1),
	}
	if sh.GaussianGrid, err = NewGaussianGrid(nlat); err != nil {
		return nil, err
	}
	floats.Span(sh.Lons, 0, 2*math.Pi*float64(nlon-1)/float64(nlon))
	sh.Degree, sh.Order = make([]int, sh.NLM), make([]int, sh.NLM)
	sh.Lap, sh.InvLap = make([]float64, sh.NLM), make([]float64, sh.NLM)
	a2 := rsphere * rsphere
	for m := 0; m <= ntrunc; m++ {
		sh.offset[m] = m*(ntrunc+1) - m*(m-1)/2
		for n := m; n <= ntrunc; n++ {
			k := sh.Index(m, n)
			sh.Degree[k], sh.Order[k] = n, m
			nn1 := float64(n * (n + 1))
			sh.Lap[k] = -nn1 / a2
			if n > 0 {
				sh.InvLap[k] = -a2 / nn1
			}
		}
	}
	sh.lapOp = sparse.NewDIA(sh.NLM, sh.NLM, sh.Lap)
	sh.invLapOp = sparse.NewDIA(sh.NLM, sh.NLM, sh.InvLap)
	sh.tables = newLegendreTables(sh.Mu, ntrunc)
	sh.zonal = newZonal(nlon, ntrunc)
	return
}

// Index is the position of coefficient (order m, degree n)
func (sh *Spharmt) Index(m, n int) int { return sh.offset[m] + n - m }

func (sh *Spharmt) LatsDeg() (lats []float64) {
	lats = make([]float64, sh.NLat)
	for j, lat := range sh.Lats {
		lats[j] = utils.Rad2Deg(lat)
	}
	return
}

func (sh *Spharmt) LonsDeg() (lons []float64) {
	lons = make([]float64, sh.NLon)
	for i, lon := range sh.Lons {
		lons[i] = utils.Rad2Deg(lon)
	}
	return
}

// NewGridField allocates a zero field with the grid shape
func (sh *Spharmt) NewGridField() utils.Matrix { return utils.NewMatrix(sh.NLat, sh.NLon) }

// GridFunc evaluates f(lat, lon) in radians on every grid point
func (sh *Spharmt) GridFunc(f func(lat, lon float64) float64) utils.Matrix {
	return utils.NewMatrixFunc(sh.NLat, sh.NLon, func(j, i int) float64 {
		return f(sh.Lats[j], sh.Lons[i])
	})
}

func (sh *Spharmt) GridToSpec(g utils.Matrix) (spec []complex128) {
	sh.checkGrid(g)
	fm := sh.zonal.analyze(g)
	spec = make([]complex128, sh.NLM)
	for m, tab := range sh.tables {
		W := mat.NewDense(sh.NLat, 2, nil)
		for j, f := range fm[m] {
			w := sh.Weights[j]
			W.Set(j, 0, w*real(f))
			W.Set(j, 1, w*imag(f))
		}
		var A mat.Dense
		A.Mul(tab.P.T(), W)
		for k := 0; k <= sh.NTrunc-m; k++ {
			spec[sh.offset[m]+k] = complex(A.At(k, 0), A.At(k, 1))
		}
	}
	return
}

func (sh *Spharmt) SpecToGrid(spec []complex128) (g utils.Matrix) {
	sh.checkSpec(spec)
	fm := make([][]complex128, sh.NTrunc+1)
	for m, tab := range sh.tables {
		C := sh.packOrder(m, spec)
		var G mat.Dense
		G.Mul(tab.P, C)
		fm[m] = make([]complex128, sh.NLat)
		for j := range fm[m] {
			fm[m][j] = complex(G.At(j, 0), G.At(j, 1))
		}
	}
	return sh.zonal.synthesize(fm, sh.NLat)
}

// GetUV computes the wind components from vorticity and divergence coefficients
func (sh *Spharmt) GetUV(vrt, div []complex128) (u, v utils.Matrix) {
	sh.checkSpec(vrt)
	sh.checkSpec(div)
	var (
		psi   = sh.ApplyInvLap(vrt)
		chi   = sh.ApplyInvLap(div)
		rinv  = 1 / sh.Rsphere
		fmU   = make([][]complex128, sh.NTrunc+1)
		fmV   = make([][]complex128, sh.NTrunc+1)
		ncols = 4
	)
	for m, tab := range sh.tables {
		var (
			nc = sh.NTrunc - m + 1
			C  = mat.NewDense(nc, ncols, nil)
			fm = float64(m)
		)
		C.Slice(0, nc, 0, 2).(*mat.Dense).Copy(sh.packOrder(m, psi))
		C.Slice(0, nc, 2, 4).(*mat.Dense).Copy(sh.packOrder(m, chi))
		var PC, HC mat.Dense
		PC.Mul(tab.P, C)
		HC.Mul(tab.H, C)
		fmU[m] = make([]complex128, sh.NLat)
		fmV[m] = make([]complex128, sh.NLat)
		for j := 0; j < sh.NLat; j++ {
			// columns: psi_re, psi_im, chi_re, chi_im
			fmU[m][j] = complex(
				rinv*(-fm*PC.At(j, 3)-HC.At(j, 0)),
				rinv*(fm*PC.At(j, 2)-HC.At(j, 1)))
			fmV[m][j] = complex(
				rinv*(-fm*PC.At(j, 1)+HC.At(j, 2)),
				rinv*(fm*PC.At(j, 0)+HC.At(j, 3)))
		}
	}
	secLat := make([]float64, sh.NLat)
	for j, c := range sh.CosLat {
		secLat[j] = 1 / c
	}
	u = sh.zonal.synthesize(fmU, sh.NLat).ScaleRows(secLat)
	v = sh.zonal.synthesize(fmV, sh.NLat).ScaleRows(secLat)
	return
}

// GetVrtDivSpec computes vorticity and divergence coefficients from the wind components
func (sh *Spharmt) GetVrtDivSpec(u, v utils.Matrix) (vrt, div []complex128) {
	sh.checkGrid(u)
	sh.checkGrid(v)
	var (
		U    = u.Copy().ScaleRows(sh.CosLat)
		V    = v.Copy().ScaleRows(sh.CosLat)
		fmU  = sh.zonal.analyze(U)
		fmV  = sh.zonal.analyze(V)
		rinv = 1 / sh.Rsphere
	)
	vrt = make([]complex128, sh.NLM)
	div = make([]complex128, sh.NLM)
	for m, tab := range sh.tables {
		W := mat.NewDense(sh.NLat, 4, nil)
		for j := 0; j < sh.NLat; j++ {
			wc := sh.Weights[j] / (1 - sh.Mu[j]*sh.Mu[j])
			W.Set(j, 0, wc*real(fmU[m][j]))
			W.Set(j, 1, wc*imag(fmU[m][j]))
			W.Set(j, 2, wc*real(fmV[m][j]))
			W.Set(j, 3, wc*imag(fmV[m][j]))
		}
		var XP, XH mat.Dense
		XP.Mul(tab.P.T(), W)
		XH.Mul(tab.H.T(), W)
		fm := float64(m)
		for k := 0; k <= sh.NTrunc-m; k++ {
			// columns: U_re, U_im, V_re, V_im
			vrt[sh.offset[m]+k] = complex(
				rinv*(-fm*XP.At(k, 3)+XH.At(k, 0)),
				rinv*(fm*XP.At(k, 2)+XH.At(k, 1)))
			div[sh.offset[m]+k] = complex(
				rinv*(-fm*XP.At(k, 1)-XH.At(k, 2)),
				rinv*(fm*XP.At(k, 0)-XH.At(k, 3)))
		}
	}
	return
}

// ApplyLap multiplies by -n(n+1)/a^2
func (sh *Spharmt) ApplyLap(spec []complex128) []complex128 {
	return applyDiagonal(sh.lapOp, spec)
}

// ApplyInvLap multiplies by -a^2/(n(n+1)), the global mean maps to zero
func (sh *Spharmt) ApplyInvLap(spec []complex128) []complex128 {
	return applyDiagonal(sh.invLapOp, spec)
}

func applyDiagonal(op *sparse.DIA, spec []complex128) (r []complex128) {
	if nr, _ := op.Dims(); nr != len(spec) {
		panic(fmt.Errorf("operator of size %d applied to %d coefficients", nr, len(spec)))
	}
	var (
		n          = len(spec)
		re, im     = make([]float64, n), make([]float64, n)
		dstR, dstI = make([]float64, n), make([]float64, n)
	)
	for k, c := range spec {
		re[k], im[k] = real(c), imag(c)
	}
	op.MulVecTo(dstR, false, re)
	op.MulVecTo(dstI, false, im)
	r = make([]complex128, n)
	for k := range r {
		r[k] = complex(dstR[k], dstI[k])
	}
	return
}

func (sh *Spharmt) packOrder(m int, spec []complex128) (C *mat.Dense) {
	nc := sh.NTrunc - m + 1
	C = mat.NewDense(nc, 2, nil)
	for k := 0; k < nc; k++ {
		c := spec[sh.offset[m]+k]
		C.Set(k, 0, real(c))
		C.Set(k, 1, imag(c))
	}
	return
}

func (sh *Spharmt) checkGrid(g utils.Matrix) {
	if nr, nc := g.Dims(); nr != sh.NLat || nc != sh.NLon {
		panic(fmt.Errorf("grid field is [%d,%d], transform grid is [%d,%d]", nr, nc, sh.NLat, sh.NLon))
	}
}

func (sh *Spharmt) checkSpec(spec []complex128) {
	if len(spec) != sh.NLM {
		panic(fmt.Errorf("spectral field has %d coefficients, truncation %d needs %d", len(spec), sh.NTrunc, sh.NLM))
	}
}
