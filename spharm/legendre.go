package spharm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// orderTable carries the normalized associated Legendre functions of one zonal order m, evaluated on
// every latitude (rows) for degrees m..T (columns), along with H = (1-mu^2) dP/dmu
type orderTable struct {
	m    int
	P, H *mat.Dense
}

func epsilon(n, m int) float64 {
	if n <= 0 || n < m {
		return 0
	}
	nn, mm := float64(n*n), float64(m*m)
	return math.Sqrt((nn - mm) / (4*nn - 1))
}

// newLegendreTables uses functions normalized to one over [-1,1] with no Condon-Shortley phase
func newLegendreTables(mu []float64, ntrunc int) (tables []orderTable) {
	var (
		nlat = len(mu)
		p    = make([]float64, ntrunc+2)
	)
	tables = make([]orderTable, ntrunc+1)
	for m := 0; m <= ntrunc; m++ {
		nc := ntrunc - m + 1
		tables[m] = orderTable{
			m: m,
			P: mat.NewDense(nlat, nc, nil),
			H: mat.NewDense(nlat, nc, nil),
		}
	}
	for j, x := range mu {
		var (
			s   = math.Sqrt(1 - x*x)
			pmm = 1 / math.Sqrt2
		)
		for m := 0; m <= ntrunc; m++ {
			if m > 0 {
				pmm *= math.Sqrt(float64(2*m+1)/float64(2*m)) * s
			}
			// p[k] holds degree n = m+k, up to n = ntrunc+1
			p[0] = pmm
			p[1] = math.Sqrt(float64(2*m+3)) * x * pmm
			for n := m + 2; n <= ntrunc+1; n++ {
				k := n - m
				p[k] = (x*p[k-1] - epsilon(n-1, m)*p[k-2]) / epsilon(n, m)
			}
			tab := tables[m]
			for n := m; n <= ntrunc; n++ {
				k := n - m
				var pnm1 float64
				if k > 0 {
					pnm1 = p[k-1]
				}
				tab.P.Set(j, k, p[k])
				tab.H.Set(j, k, -float64(n)*epsilon(n+1, m)*p[k+1]+float64(n+1)*epsilon(n, m)*pnm1)
			}
		}
	}
	return
}
