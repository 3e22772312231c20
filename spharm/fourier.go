package spharm

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/notargets/goswe/utils"
)

// zonal performs the longitude transforms of every latitude row, keeping orders 0..ntrunc.
// The gonum FFT keeps scratch space, so each call borrows its own work set from the pool.
type zonal struct {
	n, ntrunc          int
	anaScale, synScale float64
	pool               sync.Pool
}

type zonalWork struct {
	fft   *fourier.FFT
	row   []float64
	coeff []complex128
}

func newZonal(nlon, ntrunc int) (z *zonal) {
	z = &zonal{
		n:      nlon,
		ntrunc: ntrunc,
	}
	z.pool.New = func() any {
		return &zonalWork{
			fft:   fourier.NewFFT(nlon),
			row:   make([]float64, nlon),
			coeff: make([]complex128, nlon/2+1),
		}
	}
	w := z.pool.Get().(*zonalWork)
	defer z.pool.Put(w)
	// The gonum transforms are unnormalized, scale so that F_m is the mean of f*exp(-i*m*lon)
	// and a unit order-0 coefficient synthesizes to a unit field
	c := w.fft.Coefficients(nil, utils.ConstArray(nlon, 1))
	z.anaScale = 1 / real(c[0])
	unit := make([]complex128, nlon/2+1)
	unit[0] = 1
	z.synScale = 1 / w.fft.Sequence(nil, unit)[0]
	return
}

// analyze returns fm[m][j], the order m Fourier coefficient of latitude row j
func (z *zonal) analyze(g utils.Matrix) (fm [][]complex128) {
	var (
		nlat, _ = g.Dims()
		scale   = complex(z.anaScale, 0)
		w       = z.pool.Get().(*zonalWork)
	)
	defer z.pool.Put(w)
	fm = make([][]complex128, z.ntrunc+1)
	for m := range fm {
		fm[m] = make([]complex128, nlat)
	}
	for j := 0; j < nlat; j++ {
		copy(w.row, g.Row(j))
		w.fft.Coefficients(w.coeff, w.row)
		for m := 0; m <= z.ntrunc; m++ {
			fm[m][j] = w.coeff[m] * scale
		}
	}
	return
}

// synthesize is the inverse of analyze for orders up to ntrunc, higher orders are zero
func (z *zonal) synthesize(fm [][]complex128, nlat int) (g utils.Matrix) {
	var (
		scale = complex(z.synScale, 0)
		w     = z.pool.Get().(*zonalWork)
	)
	defer z.pool.Put(w)
	g = utils.NewMatrix(nlat, z.n)
	for j := 0; j < nlat; j++ {
		for m := range w.coeff {
			w.coeff[m] = 0
		}
		for m := 0; m <= z.ntrunc; m++ {
			w.coeff[m] = fm[m][j] * scale
		}
		w.coeff[0] = complex(real(w.coeff[0]), 0)
		w.fft.Sequence(g.Row(j), w.coeff)
	}
	return
}
