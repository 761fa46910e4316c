package descriptor

// Side defines the direction of a neighbouring tile, seen from the tile that
// reads it.
type Side int

const (
	North Side = iota
	East
	South
	West
	NorthEast
	NorthWest
	SouthEast
	SouthWest
)

// Name returns the name of the side.
func (s Side) Name() string {
	switch s {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	case NorthEast:
		return "NorthEast"
	case NorthWest:
		return "NorthWest"
	case SouthEast:
		return "SouthEast"
	case SouthWest:
		return "SouthWest"
	default:
		panic("invalid side")
	}
}

// Offset returns the tile offset (row, col) of the side. Rows grow southward.
func (s Side) Offset() (row, col int) {
	switch s {
	case North:
		return -1, 0
	case East:
		return 0, 1
	case South:
		return 1, 0
	case West:
		return 0, -1
	case NorthEast:
		return -1, 1
	case NorthWest:
		return -1, -1
	case SouthEast:
		return 1, 1
	case SouthWest:
		return 1, -1
	default:
		panic("invalid side")
	}
}

// Diagonal reports whether the side is one of the four corner directions.
func (s Side) Diagonal() bool {
	return s >= NorthEast
}

// SideOf returns the side that a tile offset points to. It returns false when
// the offset is not a direct neighbour, including the zero offset.
func SideOf(row, col int) (Side, bool) {
	for s := North; s <= SouthWest; s++ {
		r, c := s.Offset()
		if r == row && c == col {
			return s, true
		}
	}

	return 0, false
}

// Connectivity is the neighbour-connectivity arity of the tile grid.
type Connectivity int

const (
	// VonNeumann connects a tile to its four edge neighbours.
	VonNeumann Connectivity = 4
	// Moore connects a tile to its eight edge and corner neighbours.
	Moore Connectivity = 8
)

// Valid reports whether c is a supported arity.
func (c Connectivity) Valid() bool {
	return c == VonNeumann || c == Moore
}

// Allows reports whether tiles may read from the given side.
func (c Connectivity) Allows(s Side) bool {
	switch c {
	case VonNeumann:
		return !s.Diagonal()
	case Moore:
		return true
	default:
		return false
	}
}
