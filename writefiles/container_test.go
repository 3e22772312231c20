package writefiles

import (
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerRoundTrip(t *testing.T) {
	var (
		dir      = t.TempDir()
		fileName = filepath.Join(dir, "spatial_data.nc")
		field    = sparse.ZerosDense(2, 3, 4)
	)
	for i := range field.Elements {
		field.Elements[i] = float64(i) * 0.5
	}
	c := NewContainer().
		AddDimension("time", 2).
		AddDimension("lat", 3).
		AddDimension("lon", 4).
		AddAttribute("abort_status", false).
		AddAttributes(map[string]interface{}{"H0": 1500., "title": "test", "N": 2}).
		AddArray("U", []string{"time", "lat", "lon"}, field, "m s-1").
		AddFloats("T_in_days", []string{"time"}, []float64{6, 6.125}, "days").
		AddInts("m", []string{"lon"}, []int32{0, 1, 2, 3}).
		AddText("parameters", "NLons: 32\nHmean: 200\n")
	assert.Equal(t, []string{"U", "T_in_days", "m", "parameters"}, c.Variables())
	require.NoError(t, c.Write(fileName))

	f, err := Open(fileName)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []int{2, 3, 4}, f.Lengths("U"))
	assert.Equal(t, "False", f.Attribute("abort_status"))
	assert.Equal(t, []float64{1500}, f.Attribute("H0"))
	assert.Equal(t, []int32{2}, f.Attribute("N"))

	U, err := f.ReadArray("U")
	require.NoError(t, err)
	assert.Equal(t, field.Elements, U.Elements)
	assert.Equal(t, []int{2, 3, 4}, U.Shape)

	rec, err := f.ReadRecord("U", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, rec.Shape)
	assert.Equal(t, field.Elements[12:], rec.Elements)

	_, err = f.ReadRecord("U", 2)
	assert.Error(t, err)
	_, err = f.ReadArray("missing")
	assert.Error(t, err)

	m, err := f.ReadArray("m")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, m.Elements)

	text, err := f.ReadText("parameters")
	require.NoError(t, err)
	assert.Equal(t, "NLons: 32\nHmean: 200\n", text)
	_, err = f.ReadText("U")
	assert.Error(t, err)
}

func TestContainerValidation(t *testing.T) {
	dir := t.TempDir()
	{
		c := NewContainer().AddDimension("lat", 3).
			AddFloats("x", []string{"lat"}, []float64{1, 2}, "")
		assert.Error(t, c.Write(filepath.Join(dir, "short.nc")))
	}
	{
		c := NewContainer().AddFloats("x", []string{"lat"}, []float64{1}, "")
		assert.Error(t, c.Write(filepath.Join(dir, "undeclared.nc")))
	}
	{
		c := NewContainer().AddAttribute("bad", struct{}{}).AddText("x", "x")
		assert.Error(t, c.Write(filepath.Join(dir, "attribute.nc")))
	}
	// Attributes alone do not make a file
	{
		c := NewContainer().AddAttribute("NLons", 32.).AddAttribute("run_id", "x")
		assert.Error(t, c.Write(filepath.Join(dir, "attributes_only.nc")))
		assert.NoFileExists(t, filepath.Join(dir, "attributes_only.nc"))
	}
	// Definition errors raised inside the file library come back as errors
	{
		c := NewContainer().AddDimension("time", 0).AddDimension("lat", 2).
			AddFloats("x", []string{"lat", "time"}, []float64{}, "")
		assert.Error(t, c.Write(filepath.Join(dir, "record_inner.nc")))
	}
}
