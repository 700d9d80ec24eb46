package ui

import (
	"strconv"

	"latticegas/internal/core"
)

// Line is one row of the HUD panel. Header rows start a group and carry no
// value.
type Line struct {
	Label  string
	Value  string
	Header bool
}

// Lines lists what the HUD shows for sim: live observables first, then the
// parameter groups.
func Lines(sim core.Sim) []Line {
	var lines []Line
	if obs, ok := sim.(core.Observer); ok {
		lines = append(lines,
			Line{Label: "Observables", Header: true},
			Line{Label: "t", Value: strconv.Itoa(obs.Tick())},
			Line{Label: "Activity", Value: strconv.FormatFloat(obs.Activity(), 'f', 4, 64)},
			Line{Label: "Particles", Value: strconv.Itoa(obs.Total())},
		)
	}
	if provider, ok := sim.(core.ParameterProvider); ok {
		for _, g := range provider.Parameters().Groups {
			lines = append(lines, Line{Label: g.Name, Header: true})
			for _, p := range g.Params {
				lines = append(lines, Line{Label: p.Label, Value: p.Value})
			}
		}
	}
	return lines
}
