package InputParameters

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ghodss/yaml"
)

// SweepParameters holds a base parameter set and the lists to vary, expanded as a cartesian product
// nested in the order Hmax, Q0, Hmean, Yp, ForcingPhaseSpeed, Dipole, SwitchOffDay
type SweepParameters struct {
	Base  *InputParametersSWE `json:"Base"`
	Sweep SweepLists          `json:"Sweep"`
}

type SweepLists struct {
	Hmax              []float64 `json:"Hmax"`
	Q0                []float64 `json:"Q0"`
	Hmean             []float64 `json:"Hmean"`
	Yp                []float64 `json:"Yp"`
	ForcingPhaseSpeed []float64 `json:"ForcingPhaseSpeed"`
	Dipole            []bool    `json:"Dipole"`
	SwitchOffDay      []float64 `json:"SwitchOffDay"`
}

func (sp *SweepParameters) Parse(data []byte) (err error) {
	var raw struct {
		Base  json.RawMessage `json:"Base"`
		Sweep SweepLists      `json:"Sweep"`
	}
	if err = yaml.Unmarshal(data, &raw); err != nil {
		return
	}
	sp.Base = NewInputParametersSWE()
	if len(raw.Base) != 0 {
		if err = json.Unmarshal(raw.Base, sp.Base); err != nil {
			return fmt.Errorf("sweep base parameters: %w", err)
		}
	}
	sp.Sweep = raw.Sweep
	return
}

func ReadSweepParameters(fileName string) (sp *SweepParameters, err error) {
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	sp = &SweepParameters{}
	if err = sp.Parse(data); err != nil {
		err = fmt.Errorf("parsing %s: %w", fileName, err)
	}
	return
}

// Expand returns one parameter set per combination, an empty list keeps the base value
func (sp *SweepParameters) Expand() (runs []*InputParametersSWE) {
	var (
		base = sp.Base
		sw   = sp.Sweep
	)
	if base == nil {
		base = NewInputParametersSWE()
	}
	orBase := func(list []float64, v float64) []float64 {
		if len(list) == 0 {
			return []float64{v}
		}
		return list
	}
	dipoles := sw.Dipole
	if len(dipoles) == 0 {
		dipoles = []bool{base.Dipole}
	}
	var offs []*float64
	for i := range sw.SwitchOffDay {
		offs = append(offs, &sw.SwitchOffDay[i])
	}
	if len(offs) == 0 {
		offs = []*float64{base.SwitchOffDay}
	}
	for _, hmax := range orBase(sw.Hmax, base.Hmax) {
		for _, q0 := range orBase(sw.Q0, base.Q0) {
			for _, hmean := range orBase(sw.Hmean, base.Hmean) {
				for _, yp := range orBase(sw.Yp, base.Yp) {
					for _, c := range orBase(sw.ForcingPhaseSpeed, base.ForcingPhaseSpeed) {
						for _, dipole := range dipoles {
							for _, off := range offs {
								ip := *base
								ip.Hmax, ip.Q0, ip.Hmean, ip.Yp = hmax, q0, hmean, yp
								ip.ForcingPhaseSpeed, ip.Dipole = c, dipole
								if off != nil {
									v := *off
									ip.SwitchOffDay = &v
								}
								if ip.SwitchOnDay != nil {
									v := *ip.SwitchOnDay
									ip.SwitchOnDay = &v
								}
								runs = append(runs, &ip)
							}
						}
					}
				}
			}
		}
	}
	return
}
