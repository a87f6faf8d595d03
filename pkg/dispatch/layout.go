package dispatch

import (
	"fmt"

	"mercator-hq/wardgate/pkg/world"
)

// Layout places the hospital in the world.
type Layout struct {
	// Terminal is the records terminal. Hits within one block of it on the
	// x and z axes count, at any height.
	Terminal world.Pos

	// Doors are the ward door segments watched by the zone guard.
	Doors []world.Pos

	// PatientID is the record the terminal shows.
	PatientID int64
}

// DefaultLayout returns the coordinates of the reference hospital map.
func DefaultLayout() Layout {
	return Layout{
		Terminal:  world.Pos{X: 76, Y: 11, Z: 48},
		Doors:     []world.Pos{{X: 106, Y: 11, Z: 38}, {X: 106, Y: 11, Z: 37}},
		PatientID: 1,
	}
}

// NearTerminal reports whether pos is within one block of the terminal on
// the x and z axes.
func (l Layout) NearTerminal(pos world.Pos) bool {
	return abs(pos.X-l.Terminal.X) <= 1 && abs(pos.Z-l.Terminal.Z) <= 1
}

// IsDoor reports whether pos is exactly one of the door segments.
func (l Layout) IsDoor(pos world.Pos) bool {
	for _, d := range l.Doors {
		if d == pos {
			return true
		}
	}
	return false
}

// Validate checks the layout can be served.
func (l Layout) Validate() error {
	if l.PatientID <= 0 {
		return fmt.Errorf("patient_id must be positive, got %d", l.PatientID)
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
