package ShallowWater

// AB3 weights of the newest, current and previous tendency
var AB3 = [3]float64{23. / 12., -16. / 12., 5. / 12.}

// History is a three slot ring of tendencies addressed by role
type History struct {
	slots [3]State
	base  int
}

func (h *History) Newest() State   { return h.slots[h.base] }
func (h *History) Current() State  { return h.slots[(h.base+1)%3] }
func (h *History) Previous() State { return h.slots[(h.base+2)%3] }

// Rotate moves newest into the current role and current into the previous role,
// the old previous slot is reused for the next newest tendency
func (h *History) Rotate() { h.base = (h.base + 2) % 3 }

func (h *History) set(role int, s State) { h.slots[(h.base+role)%3] = s }

// Integrator advances a State with the third order Adams-Bashforth scheme,
// bootstrapping from a single tendency on the first two steps
type Integrator struct {
	Dt    float64
	Steps int
	hist  History
}

func NewIntegrator(dt float64) *Integrator { return &Integrator{Dt: dt} }

// Advance adds one step to s in place using tendency as the newest slot
func (it *Integrator) Advance(s State, tendency State) {
	it.hist.set(0, tendency.Copy())
	switch it.Steps {
	case 0:
		it.hist.set(1, tendency.Copy())
		it.hist.set(2, tendency.Copy())
	case 1:
		it.hist.set(2, tendency.Copy())
	}
	var (
		nw  = it.hist.Newest().fields()
		cur = it.hist.Current().fields()
		prv = it.hist.Previous().fields()
		dt  = complex(it.Dt, 0)
		c0  = complex(AB3[0], 0)
		c1  = complex(AB3[1], 0)
		c2  = complex(AB3[2], 0)
	)
	for i, field := range s.fields() {
		for k := range field {
			field[k] += dt * (c0*nw[i][k] + c1*cur[i][k] + c2*prv[i][k])
		}
	}
	it.hist.Rotate()
	it.Steps++
}
