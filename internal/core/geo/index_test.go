package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/retail-ops/internal/core/domain"
)

func testLocations() []domain.Location {
	return []domain.Location{
		{ID: "ST001", Name: "SoHo Flagship", Latitude: 40.7233, Longitude: -74.0030},
		{ID: "ST002", Name: "Chelsea Market", Latitude: 40.7422, Longitude: -74.0060},
		{ID: "ST003", Name: "Brooklyn Heights", Latitude: 40.6959, Longitude: -73.9952},
		{ID: "ST004", Name: "Upper East Side", Latitude: 40.7736, Longitude: -73.9566},
		{ID: "ST007", Name: "Boston Back Bay", Latitude: 42.3503, Longitude: -71.0810},
	}
}

func TestHaversineMiles_ZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, HaversineMiles(40.7233, -74.0030, 40.7233, -74.0030))
}

func TestHaversineMiles_KnownDistance(t *testing.T) {
	// SoHo to Boston Back Bay is roughly 190 miles.
	d := HaversineMiles(40.7233, -74.0030, 42.3503, -71.0810)
	assert.InDelta(t, 190, d, 10)
}

func TestHaversineMiles_Symmetric(t *testing.T) {
	a := HaversineMiles(40.7233, -74.0030, 40.6959, -73.9952)
	b := HaversineMiles(40.6959, -73.9952, 40.7233, -74.0030)
	assert.InDelta(t, a, b, 1e-9)
}

func TestIndex_Within_SortedAndFiltered(t *testing.T) {
	idx := NewIndex(testLocations())

	got := idx.Within("ST001", 25, []string{"ST007", "ST004", "ST003", "ST002"})
	require.Len(t, got, 3)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistanceMiles, got[i].DistanceMiles)
	}
	for _, n := range got {
		assert.NotEqual(t, "ST007", n.Location.ID)
		assert.LessOrEqual(t, n.DistanceMiles, 25.0)
	}
	assert.Equal(t, "ST002", got[0].Location.ID)
}

func TestIndex_Within_TiesBrokenByID(t *testing.T) {
	idx := NewIndex([]domain.Location{
		{ID: "A", Latitude: 0, Longitude: 0},
		{ID: "C", Latitude: 0, Longitude: 1},
		{ID: "B", Latitude: 0, Longitude: -1},
	})

	got := idx.Within("A", 100, []string{"C", "B"})
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Location.ID)
	assert.Equal(t, "C", got[1].Location.ID)
}

func TestIndex_Within_OriginOnlyWhenCandidate(t *testing.T) {
	idx := NewIndex(testLocations())

	without := idx.Within("ST001", 25, []string{"ST002"})
	for _, n := range without {
		assert.NotEqual(t, "ST001", n.Location.ID)
	}

	with := idx.Within("ST001", 25, []string{"ST002", "ST001"})
	require.NotEmpty(t, with)
	assert.Equal(t, "ST001", with[0].Location.ID)
	assert.Equal(t, 0.0, with[0].DistanceMiles)
}

func TestIndex_UnknownOrigin(t *testing.T) {
	idx := NewIndex(testLocations())
	assert.Nil(t, idx.Within("NOPE", 25, []string{"ST002"}))

	_, ok := idx.Distance("NOPE", "ST001")
	assert.False(t, ok)
}
