package zone

// Door data bits as encoded by the world.
const (
	// DataUpperHalf is set on the upper segment of a door.
	DataUpperHalf = 0x8
	// DataOpen is set when a segment is open.
	DataOpen = 0x4
)

// SegmentState is the state of one door segment.
type SegmentState int

const (
	Closed SegmentState = iota
	Open
)

// String returns "closed" or "open".
func (s SegmentState) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Door is a two-segment door.
type Door struct {
	Lower SegmentState
	Upper SegmentState
}

// IsClosed reports whether both segments are closed.
func (d Door) IsClosed() bool {
	return d.Lower == Closed && d.Upper == Closed
}

// Outcome is the result of a zone decision.
type Outcome int

const (
	Deny Outcome = iota
	Grant
)

// String returns "grant" or "deny".
func (o Outcome) String() string {
	if o == Grant {
		return "grant"
	}
	return "deny"
}

// Next returns the door state after outcome. A denial closes both
// segments; a grant leaves the door to the physical mechanism.
func Next(d Door, o Outcome) Door {
	if o == Deny {
		return Door{Lower: Closed, Upper: Closed}
	}
	return d
}

// IsUpper reports whether data encodes an upper door segment.
func IsUpper(data int) bool {
	return data&DataUpperHalf != 0
}

// StateOf decodes the segment state from data.
func StateOf(data int) SegmentState {
	if data&DataOpen != 0 {
		return Open
	}
	return Closed
}

// WithState returns data with the open bit set for s. Other bits are kept.
func WithState(data int, s SegmentState) int {
	if s == Open {
		return data | DataOpen
	}
	return data &^ DataOpen
}
