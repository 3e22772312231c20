package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major grid field, rows are latitudes (north to south) and columns are longitudes
type Matrix struct {
	M        *mat.Dense
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{
		m,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// NewMatrixFunc fills a new matrix with f evaluated at every (row, column)
func NewMatrixFunc(nr, nc int, f func(i, j int) float64) (R Matrix) {
	R = NewMatrix(nr, nc)
	data := R.DataP()
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			data[i*nc+j] = f(i, j)
		}
	}
	return
}

func (m Matrix) Dims() (r, c int)    { return m.M.Dims() }
func (m Matrix) At(i, j int) float64 { return m.M.At(i, j) }
func (m Matrix) DataP() []float64    { return m.M.RawMatrix().Data }

// Chainable methods (extended)
func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		dataR  = make([]float64, nr*nc)
	)
	copy(dataR, m.DataP())
	R = NewMatrix(nr, nc, dataR)
	return
}

func (m Matrix) Assign(A Matrix) Matrix { // Changes receiver
	m.checkDims(A)
	m.checkWritable()
	copy(m.DataP(), A.DataP())
	return m
}

func (m Matrix) Add(A Matrix) Matrix { // Changes receiver
	m.checkDims(A)
	m.checkWritable()
	floats.Add(m.DataP(), A.DataP())
	return m
}

func (m Matrix) Subtract(A Matrix) Matrix { // Changes receiver
	m.checkDims(A)
	m.checkWritable()
	floats.Sub(m.DataP(), A.DataP())
	return m
}

// AddScaled computes m += a*A
func (m Matrix) AddScaled(a float64, A Matrix) Matrix { // Changes receiver
	m.checkDims(A)
	m.checkWritable()
	floats.AddScaled(m.DataP(), a, A.DataP())
	return m
}

func (m Matrix) Scale(a float64) Matrix { // Changes receiver
	m.checkWritable()
	floats.Scale(a, m.DataP())
	return m
}

func (m Matrix) AddScalar(a float64) Matrix { // Changes receiver
	m.checkWritable()
	floats.AddConst(a, m.DataP())
	return m
}

func (m Matrix) POW(p int) Matrix { // Changes receiver
	var (
		data = m.DataP()
	)
	m.checkWritable()
	for i, val := range data {
		data[i] = POW(val, p)
	}
	return m
}

func (m Matrix) ElMul(A Matrix) Matrix { // Changes receiver
	m.checkDims(A)
	m.checkWritable()
	floats.Mul(m.DataP(), A.DataP())
	return m
}

// ScaleRows multiplies row i by s[i], used for latitude dependent factors
func (m Matrix) ScaleRows(s []float64) Matrix { // Changes receiver
	var (
		nr, nc = m.Dims()
		data   = m.DataP()
	)
	if len(s) != nr {
		panic(fmt.Errorf("row scale length %d does not match %d rows", len(s), nr))
	}
	m.checkWritable()
	for i := 0; i < nr; i++ {
		floats.Scale(s[i], data[i*nc:(i+1)*nc])
	}
	return m
}

// Non chainable methods
func (m Matrix) Row(i int) []float64 {
	var (
		nr, nc = m.Dims()
		data   = m.DataP()
	)
	i = lim(i, nr)
	return data[i*nc : (i+1)*nc]
}

func (m Matrix) Min() float64 { return floats.Min(m.DataP()) }

func (m Matrix) Max() float64 { return floats.Max(m.DataP()) }

func (m Matrix) MaxAbs() (mx float64) {
	for _, val := range m.DataP() {
		if a := math.Abs(val); a > mx {
			mx = a
		}
	}
	return
}

// ZonalMean returns the mean of each row
func (m Matrix) ZonalMean() (zm []float64) {
	var (
		nr, nc = m.Dims()
	)
	zm = make([]float64, nr)
	for i := range zm {
		zm[i] = floats.Sum(m.Row(i)) / float64(nc)
	}
	return
}

// Eddy returns a copy with the zonal mean of each row removed
func (m Matrix) Eddy() (R Matrix) { // Does not change receiver
	var (
		nr, _ = m.Dims()
		zm    = m.ZonalMean()
	)
	R = m.Copy()
	for i := 0; i < nr; i++ {
		floats.AddConst(-zm[i], R.Row(i))
	}
	return
}

func (m Matrix) IsFinite() bool {
	for _, val := range m.DataP() {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return false
		}
	}
	return true
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m Matrix) checkDims(A Matrix) {
	nr, nc := m.Dims()
	nrA, ncA := A.Dims()
	if nr != nrA || nc != ncA {
		err := fmt.Errorf("dimension mismatch: [%d,%d] vs [%d,%d]", nr, nc, nrA, ncA)
		panic(err)
	}
}

func lim(i, imax int) int {
	if i < 0 {
		return imax + i // Support indexing from end, -1 is imax
	}
	return i
}
