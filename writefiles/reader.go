package writefiles

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// File is an open container for reading
type File struct {
	ff *os.File
	f  *cdf.File
}

func Open(fileName string) (f *File, err error) {
	f = &File{}
	if f.ff, err = os.Open(fileName); err != nil {
		return nil, err
	}
	if f.f, err = cdf.Open(f.ff); err != nil {
		f.ff.Close()
		return nil, fmt.Errorf("opening %s: %w", fileName, err)
	}
	return
}

func (f *File) Close() error { return f.ff.Close() }

// Lengths is the shape of a variable, nil if it does not exist
func (f *File) Lengths(name string) []int { return f.f.Header.Lengths(name) }

func (f *File) Variables() []string { return f.f.Header.Variables() }

// Attribute returns a global attribute, nil if absent
func (f *File) Attribute(name string) interface{} { return f.f.Header.GetAttribute("", name) }

// ReadArray reads a whole floating point variable
func (f *File) ReadArray(name string) (a *sparse.DenseArray, err error) {
	dims := f.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %s not in file", name)
	}
	return f.read(name, dims, make([]int, len(dims)), dims)
}

// ReadText reads a byte variable written with AddText
func (f *File) ReadText(name string) (text string, err error) {
	dims := f.Lengths(name)
	if len(dims) != 1 {
		return "", fmt.Errorf("variable %s is not a text variable", name)
	}
	if dims[0] == 0 {
		return
	}
	r := f.f.Reader(name, []int{0}, dims)
	buf, ok := r.Zero(dims[0]).([]uint8)
	if !ok {
		return "", fmt.Errorf("variable %s is not a byte variable", name)
	}
	if _, err = r.Read(buf); err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(buf), nil
}

// ReadRecord reads one index of the outermost dimension of a variable
func (f *File) ReadRecord(name string, rec int) (a *sparse.DenseArray, err error) {
	dims := f.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %s not in file", name)
	}
	if rec < 0 || rec >= dims[0] {
		return nil, fmt.Errorf("record %d of %s out of range [0,%d)", rec, name, dims[0])
	}
	start, end := make([]int, len(dims)), make([]int, len(dims))
	copy(end, dims)
	start[0], end[0] = rec, rec+1
	return f.read(name, dims[1:], start, end)
}

func (f *File) read(name string, shape, start, end []int) (a *sparse.DenseArray, err error) {
	n := 1
	for _, l := range shape {
		n *= l
	}
	a = sparse.ZerosDense(shape...)
	if n == 0 {
		return
	}
	r := f.f.Reader(name, start, end)
	buf := r.Zero(n)
	if _, err = r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	switch data := buf.(type) {
	case []float64:
		copy(a.Elements, data)
	case []float32:
		for i, v := range data {
			a.Elements[i] = float64(v)
		}
	case []int32:
		for i, v := range data {
			a.Elements[i] = float64(v)
		}
	case []uint8:
		for i, v := range data {
			a.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("variable %s has unsupported type %T", name, buf)
	}
	return
}
