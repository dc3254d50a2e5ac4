package gamemap

import (
	"errors"
	"math/rand"
)

// Ratios holds the terrain densities a room host configured, each a fraction
// of the total tile count.
type Ratios struct {
	Mountain float64
	City     float64
	Swamp    float64
}

var (
	ErrMapTooSmall   = errors.New("map too small for the requested players")
	ErrInvalidRatios = errors.New("terrain ratios must be within [0, 1)")
)

const (
	cityGarrisonMin       = 40
	cityGarrisonMax       = 50
	kingPlacementAttempts = 200
)

// Generate builds a fresh map: one King per owner with a single starting
// unit, placed with a minimum mutual Manhattan separation, then mountains,
// cities and swamps scattered according to ratios. Cities start with a
// neutral garrison. The rng makes generation reproducible in tests.
func Generate(width, height int, ratios Ratios, owners []string, rng *rand.Rand) (*Map, map[string]Position, error) {
	if ratios.Mountain < 0 || ratios.City < 0 || ratios.Swamp < 0 ||
		ratios.Mountain+ratios.City+ratios.Swamp >= 1 {
		return nil, nil, ErrInvalidRatios
	}
	total := width * height
	if total < len(owners)*2 || width < 2 || height < 2 {
		return nil, nil, ErrMapTooSmall
	}

	m := New(width, height)

	kings, err := placeKings(m, owners, rng)
	if err != nil {
		return nil, nil, err
	}

	scatter(m, Mountain, int(ratios.Mountain*float64(total)), rng, func() int { return 0 })
	scatter(m, City, int(ratios.City*float64(total)), rng, func() int {
		return cityGarrisonMin + rng.Intn(cityGarrisonMax-cityGarrisonMin+1)
	})
	scatter(m, Swamp, int(ratios.Swamp*float64(total)), rng, func() int { return 0 })

	return m, kings, nil
}

// placeKings picks a King position per owner, requiring a Manhattan distance
// between any two kings. The requirement starts at a quarter of the map
// perimeter and is relaxed when the dice refuse to cooperate, so placement
// always terminates on maps that have room at all.
func placeKings(m *Map, owners []string, rng *rand.Rand) (map[string]Position, error) {
	kings := make(map[string]Position, len(owners))
	placed := make([]Position, 0, len(owners))
	minSeparation := (m.Width + m.Height) / 4
	if minSeparation < 1 {
		minSeparation = 1
	}

	for _, owner := range owners {
		pos, ok := Position{}, false
		for sep := minSeparation; sep >= 1 && !ok; sep /= 2 {
			for attempt := 0; attempt < kingPlacementAttempts; attempt++ {
				candidate := Position{X: rng.Intn(m.Width), Y: rng.Intn(m.Height)}
				if m.GetTile(candidate).Kind != Plain || m.GetTile(candidate).Owner != "" {
					continue
				}
				if !separated(candidate, placed, sep) {
					continue
				}
				pos, ok = candidate, true
				break
			}
		}
		if !ok {
			return nil, ErrMapTooSmall
		}
		m.SetTile(pos, Tile{Kind: King, Owner: owner, Units: 1})
		kings[owner] = pos
		placed = append(placed, pos)
	}
	return kings, nil
}

func separated(candidate Position, placed []Position, min int) bool {
	for _, p := range placed {
		if manhattan(candidate, p) < min {
			return false
		}
	}
	return true
}

func manhattan(a, b Position) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// scatter converts count unowned plain tiles to kind, drawing without
// replacement from a shuffled list of free cells. Capped at what is left.
func scatter(m *Map, kind TileKind, count int, rng *rand.Rand, garrison func() int) {
	free := make([]Position, 0, m.Width*m.Height)
	for i, t := range m.tiles {
		if t.Kind == Plain && t.Owner == "" {
			free = append(free, m.position(i))
		}
	}
	rng.Shuffle(len(free), func(i, j int) {
		free[i], free[j] = free[j], free[i]
	})
	if count > len(free) {
		count = len(free)
	}
	for _, p := range free[:count] {
		m.SetTile(p, Tile{Kind: kind, Units: garrison()})
	}
}
