// Package writefiles persists named arrays as NetCDF classic files and reads them back.
package writefiles

import (
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Container is a set of named arrays over shared dimensions, written as one file
type Container struct {
	dims      []string
	lengths   map[string]int
	attrs     []attribute
	variables []variable
}

type attribute struct {
	name  string
	value interface{}
}

type variable struct {
	name  string
	dims  []string
	data  interface{} // []float64, []int32 or []uint8
	attrs []attribute
}

func NewContainer() *Container {
	return &Container{lengths: make(map[string]int)}
}

// AddDimension declares a dimension, a zero length becomes the record dimension
func (c *Container) AddDimension(name string, length int) *Container {
	if _, ok := c.lengths[name]; !ok {
		c.dims = append(c.dims, name)
	}
	c.lengths[name] = length
	return c
}

// AddAttribute sets a global attribute
func (c *Container) AddAttribute(name string, value interface{}) *Container {
	c.attrs = append(c.attrs, attribute{name, value})
	return c
}

// AddAttributes sets global attributes in name order
func (c *Container) AddAttributes(attrs map[string]interface{}) *Container {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.AddAttribute(name, attrs[name])
	}
	return c
}

// AddArray adds a float variable, dims name the array axes outermost first
func (c *Container) AddArray(name string, dims []string, data *sparse.DenseArray, units string) *Container {
	return c.AddFloats(name, dims, data.Elements, units)
}

func (c *Container) AddFloats(name string, dims []string, data []float64, units string) *Container {
	v := variable{name: name, dims: dims, data: data}
	if units != "" {
		v.attrs = append(v.attrs, attribute{"units", units})
	}
	c.variables = append(c.variables, v)
	return c
}

func (c *Container) AddInts(name string, dims []string, data []int32) *Container {
	c.variables = append(c.variables, variable{name: name, dims: dims, data: data})
	return c
}

// AddText stores text as a byte variable over its own dimension of the text length
func (c *Container) AddText(name, text string) *Container {
	dim := name + "_length"
	c.AddDimension(dim, len(text))
	c.variables = append(c.variables, variable{name: name, dims: []string{dim}, data: []uint8(text)})
	return c
}

// Variables lists the variable names in insertion order
func (c *Container) Variables() (names []string) {
	for _, v := range c.variables {
		names = append(names, v.name)
	}
	return
}

func (c *Container) size(v variable) (n int, err error) {
	n = 1
	for _, d := range v.dims {
		l, ok := c.lengths[d]
		if !ok {
			return 0, fmt.Errorf("variable %s uses undeclared dimension %s", v.name, d)
		}
		n *= l
	}
	return
}

func (c *Container) header() (h *cdf.Header, err error) {
	if len(c.variables) == 0 {
		return nil, fmt.Errorf("container has no variables")
	}
	lengths := make([]int, len(c.dims))
	for i, d := range c.dims {
		lengths[i] = c.lengths[d]
	}
	h = cdf.NewHeader(c.dims, lengths)
	for _, a := range c.attrs {
		var val interface{}
		if val, err = attributeValue(a.value); err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.name, err)
		}
		h.AddAttribute("", a.name, val)
	}
	for _, v := range c.variables {
		var n int
		if n, err = c.size(v); err != nil {
			return
		}
		switch data := v.data.(type) {
		case []float64:
			if len(data) != n {
				return nil, fmt.Errorf("variable %s has %d values, dimensions %v need %d", v.name, len(data), v.dims, n)
			}
			h.AddVariable(v.name, v.dims, []float64{0})
		case []int32:
			if len(data) != n {
				return nil, fmt.Errorf("variable %s has %d values, dimensions %v need %d", v.name, len(data), v.dims, n)
			}
			h.AddVariable(v.name, v.dims, []int32{0})
		case []uint8:
			if len(data) != n {
				return nil, fmt.Errorf("variable %s has %d values, dimensions %v need %d", v.name, len(data), v.dims, n)
			}
			h.AddVariable(v.name, v.dims, []uint8{0})
		default:
			return nil, fmt.Errorf("variable %s: unsupported type %T", v.name, v.data)
		}
		for _, a := range v.attrs {
			h.AddAttribute(v.name, a.name, a.value)
		}
	}
	h.Define()
	return
}

// attributeValue converts a scalar to the slice form the file format stores
func attributeValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		if val {
			return "True", nil
		}
		return "False", nil
	case float64:
		return []float64{val}, nil
	case int:
		return []int32{int32(val)}, nil
	case int32:
		return []int32{val}, nil
	case []float64, []int32:
		return val, nil
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

// Write creates fileName and stores every variable of the container
func (c *Container) Write(fileName string) (err error) {
	var (
		h  *cdf.Header
		ff *os.File
		f  *cdf.File
	)
	// the cdf header builder panics on malformed definitions
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", fileName, r)
		}
	}()
	if h, err = c.header(); err != nil {
		return fmt.Errorf("%s: %w", fileName, err)
	}
	if ff, err = os.Create(fileName); err != nil {
		return
	}
	defer func() {
		if cerr := ff.Close(); err == nil {
			err = cerr
		}
	}()
	if f, err = cdf.Create(ff, h); err != nil {
		return fmt.Errorf("%s: %w", fileName, err)
	}
	for _, v := range c.variables {
		end := f.Header.Lengths(v.name)
		start := make([]int, len(end))
		empty := false
		for _, l := range end {
			empty = empty || l == 0
		}
		if empty {
			continue
		}
		if _, err = f.Writer(v.name, start, end).Write(v.data); err != nil {
			return fmt.Errorf("%s: writing %s: %w", fileName, v.name, err)
		}
	}
	return cdf.UpdateNumRecs(ff)
}
