package lattice

import (
	"fmt"
	"strings"
)

// Model identifies the particle-hopping rule set applied to a lattice.
type Model string

const (
	// CLG is the Conserved Lattice Gas: exclusion, one particle per site.
	CLG Model = "clg"
	// Manna is the Manna sandpile: unbounded occupancy with a toppling threshold.
	Manna Model = "manna"
)

// DefaultThreshold is the Manna activity threshold used when none is configured.
const DefaultThreshold = 2

// Models lists the recognised model tags.
func Models() []Model { return []Model{CLG, Manna} }

// ParseModel converts a case-insensitive tag into a Model.
func ParseModel(s string) (Model, error) {
	m := Model(strings.ToLower(strings.TrimSpace(s)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Validate reports ErrUnsupportedModel for unknown tags.
func (m Model) Validate() error {
	switch m {
	case CLG, Manna:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedModel, string(m))
}

// Title returns the human readable model name used in figures and logs.
func (m Model) Title() string {
	switch m {
	case CLG:
		return "Conserved Lattice Gas"
	case Manna:
		return "Manna Model"
	}
	return string(m)
}

func (m Model) String() string { return string(m) }

// ValidateThreshold checks a Manna activity threshold.
func ValidateThreshold(z int) error {
	if z < 1 {
		return fmt.Errorf("%w: activity threshold Z=%d must be at least 1", ErrConfiguration, z)
	}
	return nil
}
