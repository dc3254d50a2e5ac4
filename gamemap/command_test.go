package gamemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoPlayerMap builds a 3x3 map with p1's King at (0,0) and p2's King at
// (2,2), with src units on p1's King.
func twoPlayerMap(srcUnits int) *Map {
	m := New(3, 3)
	m.SetTile(Position{0, 0}, Tile{Kind: King, Owner: "p1", Units: srcUnits})
	m.SetTile(Position{2, 2}, Tile{Kind: King, Owner: "p2", Units: 1})
	return m
}

func TestApplyMoveRejections(t *testing.T) {
	testCases := []struct {
		desc     string
		setup    func(m *Map)
		from, to Position
		half     bool
		err      error
	}{
		{desc: "from out of bounds", from: Position{-1, 0}, to: Position{0, 0}, err: ErrOutOfBounds},
		{desc: "to out of bounds", from: Position{0, 0}, to: Position{0, -1}, err: ErrOutOfBounds},
		{desc: "source not owned", from: Position{1, 1}, to: Position{1, 2}, err: ErrSourceNotOwned},
		{desc: "source owned by enemy", from: Position{2, 2}, to: Position{2, 1}, err: ErrSourceNotOwned},
		{desc: "same tile", from: Position{0, 0}, to: Position{0, 0}, err: ErrNotAdjacent},
		{desc: "diagonal", from: Position{0, 0}, to: Position{1, 1}, err: ErrNotAdjacent},
		{desc: "too far", from: Position{0, 0}, to: Position{2, 0}, err: ErrNotAdjacent},
		{
			desc: "mountain target",
			setup: func(m *Map) {
				m.SetTile(Position{1, 0}, Tile{Kind: Mountain})
			},
			from: Position{0, 0}, to: Position{1, 0}, err: ErrTargetBlocked,
		},
		{
			desc: "single unit cannot move",
			setup: func(m *Map) {
				m.SetTile(Position{0, 0}, Tile{Kind: King, Owner: "p1", Units: 1})
			},
			from: Position{0, 0}, to: Position{1, 0}, err: ErrNoMovableUnits,
		},
		{
			desc: "half of one is nothing",
			setup: func(m *Map) {
				m.SetTile(Position{0, 0}, Tile{Kind: King, Owner: "p1", Units: 1})
			},
			from: Position{0, 0}, to: Position{1, 0}, half: true, err: ErrNoMovableUnits,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			m := twoPlayerMap(10)
			if tc.setup != nil {
				tc.setup(m)
			}
			before := m.Tiles()

			_, err := m.ApplyMove("p1", tc.from, tc.to, tc.half)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, before, m.Tiles(), "rejected command must not mutate the map")
		})
	}
}

func TestApplyMoveGarrisonStaysBehind(t *testing.T) {
	m := twoPlayerMap(10)

	result, err := m.ApplyMove("p1", Position{0, 0}, Position{1, 0}, false)
	require.NoError(t, err)

	assert.Equal(t, 9, result.Moved)
	assert.Equal(t, 1, m.GetTile(Position{0, 0}).Units)
	assert.Equal(t, Tile{Kind: Plain, Owner: "p1", Units: 9}, m.GetTile(Position{1, 0}))
}

func TestApplyMoveHalfSendsFloorHalf(t *testing.T) {
	m := twoPlayerMap(9)

	result, err := m.ApplyMove("p1", Position{0, 0}, Position{1, 0}, true)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Moved)
	assert.Equal(t, 5, m.GetTile(Position{0, 0}).Units)
	assert.Equal(t, 4, m.GetTile(Position{1, 0}).Units)
}

func TestApplyMoveMergesOnOwnAndNeutralTiles(t *testing.T) {
	m := twoPlayerMap(10)
	m.SetTile(Position{1, 0}, Tile{Kind: City, Units: 40})

	_, err := m.ApplyMove("p1", Position{0, 0}, Position{1, 0}, false)
	require.NoError(t, err)
	assert.Equal(t, Tile{Kind: City, Owner: "p1", Units: 49}, m.GetTile(Position{1, 0}))

	// moving again onto one's own tile keeps merging
	_, err = m.ApplyMove("p1", Position{1, 0}, Position{0, 0}, true)
	require.NoError(t, err)
	assert.Equal(t, 25, m.GetTile(Position{0, 0}).Units)
	assert.Equal(t, 25, m.GetTile(Position{1, 0}).Units)
}

func TestApplyMoveConquestArithmetic(t *testing.T) {
	t.Run("attacker outnumbers defender", func(t *testing.T) {
		m := twoPlayerMap(10)
		m.SetTile(Position{1, 0}, Tile{Kind: Plain, Owner: "p2", Units: 4})

		_, err := m.ApplyMove("p1", Position{0, 0}, Position{1, 0}, false)
		require.NoError(t, err)
		assert.Equal(t, Tile{Kind: Plain, Owner: "p1", Units: 5}, m.GetTile(Position{1, 0}))
	})

	t.Run("defender outnumbers attacker", func(t *testing.T) {
		m := twoPlayerMap(10)
		m.SetTile(Position{1, 0}, Tile{Kind: Plain, Owner: "p2", Units: 20})

		_, err := m.ApplyMove("p1", Position{0, 0}, Position{1, 0}, false)
		require.NoError(t, err)
		assert.Equal(t, Tile{Kind: Plain, Owner: "p2", Units: 11}, m.GetTile(Position{1, 0}))
		// the source deduction stands regardless of outcome
		assert.Equal(t, 1, m.GetTile(Position{0, 0}).Units)
	})

	t.Run("exact tie goes to the attacker", func(t *testing.T) {
		m := twoPlayerMap(10)
		m.SetTile(Position{1, 0}, Tile{Kind: Plain, Owner: "p2", Units: 9})

		_, err := m.ApplyMove("p1", Position{0, 0}, Position{1, 0}, false)
		require.NoError(t, err)
		assert.Equal(t, Tile{Kind: Plain, Owner: "p1", Units: 0}, m.GetTile(Position{1, 0}))
	})
}

func TestApplyMoveKingCaptureEliminates(t *testing.T) {
	m := New(3, 1)
	m.SetTile(Position{0, 0}, Tile{Kind: King, Owner: "p1", Units: 12})
	m.SetTile(Position{1, 0}, Tile{Kind: King, Owner: "p2", Units: 3})
	m.SetTile(Position{2, 0}, Tile{Kind: Plain, Owner: "p2", Units: 7})

	result, err := m.ApplyMove("p1", Position{0, 0}, Position{1, 0}, false)
	require.NoError(t, err)
	assert.Equal(t, "p2", result.CapturedOwner)

	// the fallen King turns into a City under the attacker
	assert.Equal(t, Tile{Kind: City, Owner: "p1", Units: 8}, m.GetTile(Position{1, 0}))
	// every remaining tile and army of the defeated player transfers
	assert.Equal(t, Tile{Kind: Plain, Owner: "p1", Units: 7}, m.GetTile(Position{2, 0}))
	army, land := m.Totals("p2")
	assert.Zero(t, army)
	assert.Zero(t, land)
	army, land = m.Totals("p1")
	assert.Equal(t, 16, army)
	assert.Equal(t, 3, land)
}
