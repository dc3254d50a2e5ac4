package gamemap

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomGrid(rng *rand.Rand, size int) []Tile {
	owners := []string{"", "p1", "p2", "p3"}
	grid := make([]Tile, size)
	for i := range grid {
		kind := TileKind(rng.Intn(6))
		t := Tile{Kind: kind}
		if kind != Mountain && kind != Fog {
			t.Owner = owners[rng.Intn(len(owners))]
			t.Units = rng.Intn(100)
		}
		grid[i] = t
	}
	return grid
}

func TestDiffRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		size := 1 + rng.Intn(400)
		prev := randomGrid(rng, size)
		cur := randomGrid(rng, size)

		entries, err := EncodeDiff(prev, cur)
		require.NoError(t, err)

		got, err := Decode(entries, prev)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(cur, got))
	}
}

func TestDiffIdenticalGridsEncodeToNothing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	grid := randomGrid(rng, 100)

	entries, err := EncodeDiff(grid, grid)
	require.NoError(t, err)
	// the whole grid is one trailing skip, which is implicit
	assert.Empty(t, entries)

	got, err := Decode(entries, grid)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(grid, got))
}

func TestDiffSkipRunsAreFlushedBeforeRecords(t *testing.T) {
	prev := []Tile{{Kind: Plain}, {Kind: Plain}, {Kind: Plain}, {Kind: Plain}}
	cur := []Tile{{Kind: Plain}, {Kind: Plain}, {Kind: City, Owner: "p1", Units: 40}, {Kind: Plain}}

	entries, err := EncodeDiff(prev, cur)
	require.NoError(t, err)

	expected := []DiffEntry{
		{Tag: TagSkip, Count: 2},
		{Tag: TagRecord, Tile: Tile{Kind: City, Owner: "p1", Units: 40}},
	}
	assert.Equal(t, expected, entries)
}

func TestEncodeFullMatchesDiffAgainstFog(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	grid := randomGrid(rng, 64)

	baseline := make([]Tile, len(grid))
	for i := range baseline {
		baseline[i] = Tile{Kind: Fog}
	}

	viaDiff, err := EncodeDiff(baseline, grid)
	require.NoError(t, err)
	assert.Equal(t, viaDiff, EncodeFull(grid))

	got, err := Decode(EncodeFull(grid), baseline)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(grid, got))
}

func TestEncodeDiffRejectsDimensionMismatch(t *testing.T) {
	_, err := EncodeDiff(make([]Tile, 4), make([]Tile, 5))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestDecodeRejectsCorruptDiffs(t *testing.T) {
	prev := make([]Tile, 4)

	testCases := []struct {
		desc    string
		entries []DiffEntry
	}{
		{desc: "skip past end", entries: []DiffEntry{{Tag: TagSkip, Count: 5}}},
		{desc: "negative skip", entries: []DiffEntry{{Tag: TagSkip, Count: -1}}},
		{desc: "record past end", entries: []DiffEntry{
			{Tag: TagSkip, Count: 4},
			{Tag: TagRecord, Tile: Tile{Kind: Plain}},
		}},
		{desc: "unknown tag", entries: []DiffEntry{{Tag: EntryTag(9)}}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := Decode(tc.entries, prev)
			assert.ErrorIs(t, err, ErrCorruptDiff)
		})
	}
}

func TestDecodeDoesNotMutatePrevious(t *testing.T) {
	prev := []Tile{{Kind: Plain, Owner: "p1", Units: 5}, {Kind: Plain}}
	entries := []DiffEntry{{Tag: TagRecord, Tile: Tile{Kind: City, Units: 40}}}

	_, err := Decode(entries, prev)
	require.NoError(t, err)
	assert.Equal(t, Tile{Kind: Plain, Owner: "p1", Units: 5}, prev[0])
}
