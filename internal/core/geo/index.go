// Package geo holds the static location catalog and great-circle distance math.
package geo

import (
	"math"
	"sort"

	"github.com/rl1809/retail-ops/internal/core/domain"
)

const earthRadiusMiles = 3958.8

// HaversineMiles returns the great-circle distance between two points in miles.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

// Index is immutable once built.
type Index struct {
	locations map[string]domain.Location
	ids       []string
}

func NewIndex(locations []domain.Location) *Index {
	idx := &Index{locations: make(map[string]domain.Location, len(locations))}
	for _, loc := range locations {
		if _, dup := idx.locations[loc.ID]; !dup {
			idx.ids = append(idx.ids, loc.ID)
		}
		idx.locations[loc.ID] = loc
	}
	sort.Strings(idx.ids)
	return idx
}

func (i *Index) Get(id string) (domain.Location, bool) {
	loc, ok := i.locations[id]
	return loc, ok
}

func (i *Index) Len() int {
	return len(i.ids)
}

// Distance returns the miles between two known locations.
func (i *Index) Distance(fromID, toID string) (float64, bool) {
	from, ok := i.locations[fromID]
	if !ok {
		return 0, false
	}
	to, ok := i.locations[toID]
	if !ok {
		return 0, false
	}
	return HaversineMiles(from.Latitude, from.Longitude, to.Latitude, to.Longitude), true
}

// Neighbor is a location with its distance from a query origin.
type Neighbor struct {
	Location      domain.Location
	DistanceMiles float64
}

// Within returns the candidates no farther than radius from origin, nearest
// first with ties broken by location id. Unknown candidate ids are skipped.
func (i *Index) Within(originID string, radius float64, candidates []string) []Neighbor {
	origin, ok := i.locations[originID]
	if !ok {
		return nil
	}

	var out []Neighbor
	for _, id := range candidates {
		loc, ok := i.locations[id]
		if !ok {
			continue
		}
		d := HaversineMiles(origin.Latitude, origin.Longitude, loc.Latitude, loc.Longitude)
		if d <= radius {
			out = append(out, Neighbor{Location: loc, DistanceMiles: d})
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].DistanceMiles != out[b].DistanceMiles {
			return out[a].DistanceMiles < out[b].DistanceMiles
		}
		return out[a].Location.ID < out[b].Location.ID
	})
	return out
}
