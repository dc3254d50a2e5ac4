package gamemap

import "errors"

var (
	ErrDimensionMismatch = errors.New("grids have different dimensions")
	ErrCorruptDiff       = errors.New("diff does not fit the grid")
)

// EntryTag discriminates the two diff entry variants. Decoders match on the
// tag, never on payload shape.
type EntryTag uint8

const (
	TagSkip   EntryTag = iota // run of unchanged cells
	TagRecord                 // one changed cell, full tile record
)

// DiffEntry is one element of the wire encoding of a grid delta: either a
// count of unchanged cells to skip over, or the new value of a changed cell.
type DiffEntry struct {
	Tag   EntryTag `json:"tag"`
	Count int      `json:"count,omitempty"`
	Tile  Tile     `json:"tile"`
}

// EncodeDiff scans prev and cur in row-major lock-step, accumulating a skip
// run while cells compare equal and flushing it before each changed cell.
// The trailing skip is implicit and omitted.
func EncodeDiff(prev, cur []Tile) ([]DiffEntry, error) {
	if len(prev) != len(cur) {
		return nil, ErrDimensionMismatch
	}
	entries := make([]DiffEntry, 0)
	skip := 0
	for i := range cur {
		if cur[i] == prev[i] {
			skip++
			continue
		}
		if skip > 0 {
			entries = append(entries, DiffEntry{Tag: TagSkip, Count: skip})
			skip = 0
		}
		entries = append(entries, DiffEntry{Tag: TagRecord, Tile: cur[i]})
	}
	return entries, nil
}

// EncodeFull encodes the grid against an implicit all-Fog baseline, which is
// exactly what a client that has seen nothing yet holds.
func EncodeFull(cur []Tile) []DiffEntry {
	baseline := make([]Tile, len(cur)) // zero Tile is a bare Fog cell
	entries, _ := EncodeDiff(baseline, cur)
	return entries
}

// Decode replays entries onto a copy of prev and returns the reconstructed
// grid. It fails on any entry that would run past the grid, leaving the
// caller's previous view untouched.
func Decode(entries []DiffEntry, prev []Tile) ([]Tile, error) {
	out := make([]Tile, len(prev))
	copy(out, prev)
	pos := 0
	for _, e := range entries {
		switch e.Tag {
		case TagSkip:
			if e.Count < 0 || pos+e.Count > len(out) {
				return nil, ErrCorruptDiff
			}
			pos += e.Count
		case TagRecord:
			if pos >= len(out) {
				return nil, ErrCorruptDiff
			}
			out[pos] = e.Tile
			pos++
		default:
			return nil, ErrCorruptDiff
		}
	}
	return out, nil
}
