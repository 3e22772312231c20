package utils

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	DaySeconds = 86400.
	HourSecs   = 3600.
)

func Deg2Rad(d float64) float64 { return d * math.Pi / 180. }

func Rad2Deg(r float64) float64 { return r * 180. / math.Pi }

// Linspace matches the endpoint-inclusive spacing used for ramps, a single point yields start
func Linspace(start, stop float64, n int) (v []float64) {
	v = make([]float64, n)
	switch {
	case n == 1:
		v[0] = start
	case n > 1:
		floats.Span(v, start, stop)
	}
	return
}

// Mod returns x modulo y with the sign of y, so Mod(-1, 2π) lies in [0, 2π)
func Mod(x, y float64) (r float64) {
	r = math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return
}

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

// POW raises x to an integer power by repeated squaring, large exponents fall back to math.Pow
func POW(x float64, p int) (y float64) {
	if p > 16 || p < -16 {
		return math.Pow(x, float64(p))
	}
	if p < 0 {
		return 1. / POW(x, -p)
	}
	y = 1
	for ; p > 0; p >>= 1 {
		if p&1 == 1 {
			y *= x
		}
		x *= x
	}
	return
}
