package gamemap

import "errors"

var (
	ErrSourceNotOwned = errors.New("source tile not owned by player")
	ErrNotAdjacent    = errors.New("target tile is not adjacent to source")
	ErrTargetBlocked  = errors.New("target tile is impassable")
	ErrNoMovableUnits = errors.New("source tile has no movable units")
)

// MoveResult reports what an accepted move changed.
type MoveResult struct {
	Moved int
	// CapturedOwner is the id of a player whose King fell to this move,
	// empty otherwise. The caller marks that player dead; their land and
	// armies have already been transferred to the attacker.
	CapturedOwner string
}

// ApplyMove validates and applies one movement command for owner. A full
// move sends all units but one, a half move sends floor(units/2); the source
// always keeps its garrison of one. Arriving on a neutral tile or one's own
// tile merges armies; arriving on an enemy tile resolves combat by
// subtraction, the larger force keeping the tile with the remainder. Exact
// ties go to the attacker: the defender could not hold, so ownership
// transfers with zero units left. Capturing a King converts it to a City
// under the attacker and transfers the defeated player's entire land.
//
// On any rejection a sentinel error is returned and the map is unchanged.
func (m *Map) ApplyMove(owner string, from, to Position, half bool) (MoveResult, error) {
	if !m.InBounds(from) || !m.InBounds(to) {
		return MoveResult{}, ErrOutOfBounds
	}
	src := m.GetTile(from)
	if src.Owner != owner {
		return MoveResult{}, ErrSourceNotOwned
	}
	if from == to || manhattan(from, to) != 1 {
		return MoveResult{}, ErrNotAdjacent
	}
	dst := m.GetTile(to)
	if dst.Kind == Mountain {
		return MoveResult{}, ErrTargetBlocked
	}

	moved := src.Units - 1
	if half {
		moved = src.Units / 2
	}
	if moved < 1 {
		return MoveResult{}, ErrNoMovableUnits
	}

	src.Units -= moved
	m.SetTile(from, src)

	result := MoveResult{Moved: moved}

	if dst.Owner == owner || dst.Owner == "" {
		dst.Units += moved
		dst.Owner = owner
		m.SetTile(to, dst)
		return result, nil
	}

	// Enemy tile: attacker's moved units against the stored defense.
	if moved < dst.Units {
		dst.Units -= moved
		m.SetTile(to, dst)
		return result, nil
	}

	defender := dst.Owner
	captured := dst.Kind == King
	dst.Units = moved - dst.Units
	dst.Owner = owner
	if captured {
		dst.Kind = City
	}
	m.SetTile(to, dst)

	if captured {
		m.TransferAll(defender, owner)
		result.CapturedOwner = defender
	}
	return result, nil
}
