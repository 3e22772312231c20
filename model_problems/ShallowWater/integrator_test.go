package ShallowWater

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func constantState(n int, c complex128) (s State) {
	s = NewState(n)
	for _, f := range s.fields() {
		for k := range f {
			f[k] = c
		}
	}
	return
}

func TestAB3ConstantTendency(t *testing.T) {
	var (
		dt       = 150.
		it       = NewIntegrator(dt)
		s        = constantState(4, complex(2, -1))
		tendency = constantState(4, complex(1.e-3, 2.e-4))
	)
	for n := 1; n <= 5; n++ {
		it.Advance(s, tendency)
		// Bootstrap copies make every step a forward Euler step
		for _, f := range s.fields() {
			for _, c := range f {
				assert.InDelta(t, 2+float64(n)*dt*1.e-3, real(c), 1.e-12)
				assert.InDelta(t, -1+float64(n)*dt*2.e-4, imag(c), 1.e-12)
			}
		}
	}
	assert.Equal(t, 5, it.Steps)
}

func TestAB3History(t *testing.T) {
	var (
		it = NewIntegrator(1)
		s  = NewState(1)
	)
	for _, v := range []float64{1, 2, 4} {
		it.Advance(s, constantState(1, complex(v, 0)))
	}
	// 1 + (23*2 - 16*1 + 5*2)/12 + (23*4 - 16*2 + 5*1)/12
	assert.InDelta(t, 117./12., real(s.Vrt[0]), 1.e-14)
	// After three rotations the newest slot is back at the start
	assert.Equal(t, 0, it.hist.base)
	assert.Equal(t, 4., real(it.hist.Current().Phi[0]))
	assert.Equal(t, 2., real(it.hist.Previous().Div[0]))
}

func TestHistoryRotate(t *testing.T) {
	var h History
	for i := range h.slots {
		h.slots[i] = constantState(1, complex(float64(i), 0))
	}
	newest, current, previous := h.Newest(), h.Current(), h.Previous()
	h.Rotate()
	assert.Equal(t, newest, h.Current())
	assert.Equal(t, current, h.Previous())
	assert.Equal(t, previous, h.Newest())
}
