package spharm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
)

// GaussianGrid holds the Gauss-Legendre latitudes ordered from north to south
type GaussianGrid struct {
	Mu      []float64 // sin(latitude), descending
	Weights []float64 // quadrature weights, sum to 2
	Lats    []float64 // radians
	CosLat  []float64
}

func NewGaussianGrid(nlat int) (gg GaussianGrid, err error) {
	if nlat < 2 {
		err = fmt.Errorf("gaussian grid needs at least 2 latitudes, have %d", nlat)
		return
	}
	var (
		x = make([]float64, nlat)
		w = make([]float64, nlat)
	)
	quad.Legendre{}.FixedLocations(x, w, -1, 1)
	order := make([]int, nlat)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return x[order[a]] > x[order[b]] })
	gg = GaussianGrid{
		Mu:      make([]float64, nlat),
		Weights: make([]float64, nlat),
		Lats:    make([]float64, nlat),
		CosLat:  make([]float64, nlat),
	}
	for j, i := range order {
		gg.Mu[j] = x[i]
		gg.Weights[j] = w[i]
		gg.Lats[j] = math.Asin(x[i])
		gg.CosLat[j] = math.Sqrt(1 - x[i]*x[i])
	}
	return
}
