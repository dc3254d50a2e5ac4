package gamemap

import (
	"errors"
	"sort"
)

// LandGrowthInterval is the number of turns between unit increments on
// ordinary owned tiles (plains and cities). Kings grow every turn.
const LandGrowthInterval = 25

var ErrOutOfBounds = errors.New("position out of bounds")

// Map is the authoritative grid of one game. It is not safe for concurrent
// use: every room confines its Map to the room actor goroutine.
type Map struct {
	Width  int
	Height int

	// Turn is advanced only by the room's tick; commands read it.
	Turn int

	tiles []Tile
	lands map[string]map[Position]struct{}
}

// New returns an all-plain map, mostly useful as a test fixture. Game maps
// come from Generate.
func New(width, height int) *Map {
	m := &Map{
		Width:  width,
		Height: height,
		tiles:  make([]Tile, width*height),
		lands:  make(map[string]map[Position]struct{}),
	}
	for i := range m.tiles {
		m.tiles[i] = Tile{Kind: Plain}
	}
	return m
}

func (m *Map) index(p Position) int {
	return p.Y*m.Width + p.X
}

func (m *Map) position(i int) Position {
	return Position{X: i % m.Width, Y: i / m.Width}
}

func (m *Map) InBounds(p Position) bool {
	return p.X >= 0 && p.X < m.Width && p.Y >= 0 && p.Y < m.Height
}

func (m *Map) GetTile(p Position) Tile {
	return m.tiles[m.index(p)]
}

// SetTile replaces the cell at p and keeps the per-owner land index in sync.
func (m *Map) SetTile(p Position, t Tile) {
	i := m.index(p)
	if old := m.tiles[i]; old.Owner != "" {
		delete(m.lands[old.Owner], p)
	}
	m.tiles[i] = t
	if t.Owner != "" {
		if m.lands[t.Owner] == nil {
			m.lands[t.Owner] = make(map[Position]struct{})
		}
		m.lands[t.Owner][p] = struct{}{}
	}
}

// Neighbors returns the 4-adjacent in-bounds positions. No wraparound.
func (m *Map) Neighbors(p Position) []Position {
	candidates := [4]Position{
		{p.X, p.Y - 1},
		{p.X, p.Y + 1},
		{p.X - 1, p.Y},
		{p.X + 1, p.Y},
	}
	neighbors := make([]Position, 0, 4)
	for _, c := range candidates {
		if m.InBounds(c) {
			neighbors = append(neighbors, c)
		}
	}
	return neighbors
}

// TransferOwnership hands the tile at p, with its units, to another player.
func (m *Map) TransferOwnership(p Position, to string) {
	t := m.GetTile(p)
	t.Owner = to
	m.SetTile(p, t)
}

// TransferAll moves every tile owned by from, armies included, to to.
// Used when a player's King falls.
func (m *Map) TransferAll(from, to string) {
	for _, p := range m.OwnedPositions(from) {
		m.TransferOwnership(p, to)
	}
}

// Neutralize clears ownership of every tile held by owner, keeping the
// stored units in place. The owner's King becomes a neutral City so the
// seat cannot respawn. Used on surrender.
func (m *Map) Neutralize(owner string) {
	for _, p := range m.OwnedPositions(owner) {
		t := m.GetTile(p)
		t.Owner = ""
		if t.Kind == King {
			t.Kind = City
		}
		m.SetTile(p, t)
	}
}

// OwnedPositions returns owner's land in row-major order. The sort keeps
// every consumer deterministic.
func (m *Map) OwnedPositions(owner string) []Position {
	positions := make([]Position, 0, len(m.lands[owner]))
	for p := range m.lands[owner] {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool {
		return m.index(positions[i]) < m.index(positions[j])
	})
	return positions
}

// Totals reports owner's army and land counts for the leaderboard.
func (m *Map) Totals(owner string) (army, land int) {
	for p := range m.lands[owner] {
		army += m.tiles[m.index(p)].Units
		land++
	}
	return army, land
}

func (m *Map) AdvanceTurn() {
	m.Turn++
}

// Grow applies per-tick unit growth: kings every turn, owned cities and
// plains every LandGrowthInterval turns, swamps drain toward zero and drop
// their owner when empty.
func (m *Map) Grow() {
	for i := range m.tiles {
		t := &m.tiles[i]
		if t.Owner == "" {
			continue
		}
		switch t.Kind {
		case King:
			t.Units++
		case City, Plain:
			if m.Turn%LandGrowthInterval == 0 {
				t.Units++
			}
		case Swamp:
			if t.Units > 0 {
				t.Units--
			}
			if t.Units == 0 {
				delete(m.lands[t.Owner], m.position(i))
				t.Owner = ""
			}
		}
	}
}

// Tiles returns a copy of the grid in row-major order.
func (m *Map) Tiles() []Tile {
	tiles := make([]Tile, len(m.tiles))
	copy(tiles, m.tiles)
	return tiles
}
