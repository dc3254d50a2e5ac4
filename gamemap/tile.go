package gamemap

// TileKind enumerates the terrain of a single cell, plus the Fog marker used
// in masked per-player views.
type TileKind uint8

const (
	Fog TileKind = iota
	Plain
	Mountain
	City
	King
	Swamp
)

func (k TileKind) String() string {
	switch k {
	case Fog:
		return "fog"
	case Plain:
		return "plain"
	case Mountain:
		return "mountain"
	case City:
		return "city"
	case King:
		return "king"
	case Swamp:
		return "swamp"
	}
	return "unknown"
}

// Tile is one cell of the grid. Owner is a player id, empty means neutral.
// A Mountain tile never carries an owner or units.
type Tile struct {
	Kind  TileKind `json:"kind"`
	Owner string   `json:"owner,omitempty"`
	Units int      `json:"units,omitempty"`
}

// Position addresses a cell; X is the column, Y is the row.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}
