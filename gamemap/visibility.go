package gamemap

// ViewFor masks the grid down to what owner may see. With fog of war off the
// whole grid is returned. With it on, a cell is revealed when it is owned by
// the player or 4-adjacent to an owned cell; mountains bordering a revealed
// cell additionally show their terrain (never owner or units, which a
// mountain cannot carry anyway). Everything else collapses to a bare Fog
// tile. The result is byte-identical for identical map state and land set.
func (m *Map) ViewFor(owner string, fogOfWar bool) []Tile {
	view := make([]Tile, len(m.tiles))
	if !fogOfWar {
		copy(view, m.tiles)
		return view
	}

	visible := make([]bool, len(m.tiles))
	for i, t := range m.tiles {
		if t.Owner != owner {
			continue
		}
		visible[i] = true
		for _, n := range m.Neighbors(m.position(i)) {
			visible[m.index(n)] = true
		}
	}

	for i := range view {
		view[i] = Tile{Kind: Fog}
	}
	for i, seen := range visible {
		if !seen {
			continue
		}
		view[i] = m.tiles[i]
		for _, n := range m.Neighbors(m.position(i)) {
			j := m.index(n)
			if !visible[j] && m.tiles[j].Kind == Mountain {
				view[j] = Tile{Kind: Mountain}
			}
		}
	}
	return view
}
