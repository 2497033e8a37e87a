package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

const latPerMeter = 1.0 / 111194.9

func locAt(id uint, northM, radius float64, active bool) models.Location {
	l := models.Location{
		Latitude:  45.0 + northM*latPerMeter,
		Longitude: -73.0,
		RadiusM:   radius,
		Active:    active,
	}
	l.ID = id
	return l
}

func fixAt(northM, acc float64) models.GpsFix {
	return models.GpsFix{
		Latitude:  45.0 + northM*latPerMeter,
		Longitude: -73.0,
		Accuracy:  acc,
	}
}

func TestContains(t *testing.T) {
	t.Parallel()
	loc := locAt(1, 0, 50, true)

	assert.True(t, Contains(loc, 45.0, -73.0, 0))
	assert.True(t, Contains(loc, 45.0+40*latPerMeter, -73.0, 0))
	assert.False(t, Contains(loc, 45.0+80*latPerMeter, -73.0, 0))
	// The point's own accuracy expands the fence.
	assert.True(t, Contains(loc, 45.0+80*latPerMeter, -73.0, 40))
}

func TestMatchPoint(t *testing.T) {
	t.Parallel()

	t.Run("nearest containing fence wins", func(t *testing.T) {
		t.Parallel()
		locs := []models.Location{
			locAt(1, 0, 100, true),
			locAt(2, 60, 100, true),
		}
		// 45 m from the first center, 15 m from the second.
		got := MatchPoint(locs, 45.0+45*latPerMeter, -73.0, 0)
		require.NotNil(t, got)
		assert.Equal(t, uint(2), got.ID)
	})

	t.Run("inactive fences never match", func(t *testing.T) {
		t.Parallel()
		locs := []models.Location{locAt(1, 0, 100, false)}
		assert.Nil(t, MatchPoint(locs, 45.0, -73.0, 0))
	})

	t.Run("nil when nothing contains the point", func(t *testing.T) {
		t.Parallel()
		locs := []models.Location{locAt(1, 0, 50, true)}
		assert.Nil(t, MatchPoint(locs, 45.0+500*latPerMeter, -73.0, 0))
	})
}

func TestVoteMatch(t *testing.T) {
	t.Parallel()

	// A 50 m warehouse fence. The cluster centroid was dragged 120 m out by a
	// few sharp fixes near the loading door, but the bulk of the raw samples
	// are still inside.
	loc := locAt(1, 0, 50, true)
	centroidLat, centroidLng := 45.0+120*latPerMeter, -73.0

	points := func(inside, outside int) []models.GpsFix {
		var pts []models.GpsFix
		for i := 0; i < inside; i++ {
			pts = append(pts, fixAt(10, 5))
		}
		for i := 0; i < outside; i++ {
			pts = append(pts, fixAt(500, 5))
		}
		return pts
	}

	t.Run("enough votes match despite the centroid", func(t *testing.T) {
		t.Parallel()
		got := VoteMatch([]models.Location{loc}, points(7, 13), centroidLat, centroidLng, VoteFraction)
		require.NotNil(t, got)
		assert.Equal(t, uint(1), got.ID)
	})

	t.Run("too few votes do not", func(t *testing.T) {
		t.Parallel()
		got := VoteMatch([]models.Location{loc}, points(5, 15), centroidLat, centroidLng, VoteFraction)
		assert.Nil(t, got)
	})

	t.Run("highest fraction wins", func(t *testing.T) {
		t.Parallel()
		near := locAt(1, 0, 50, true)    // contains the inside points
		wide := locAt(2, 250, 600, true) // contains everything
		got := VoteMatch([]models.Location{near, wide}, points(8, 12), centroidLat, centroidLng, VoteFraction)
		require.NotNil(t, got)
		assert.Equal(t, uint(2), got.ID)
	})

	t.Run("ties break to the fence nearest the centroid", func(t *testing.T) {
		t.Parallel()
		a := locAt(1, 0, 80, true)
		b := locAt(2, 20, 80, true) // same votes, 100 m from the centroid
		got := VoteMatch([]models.Location{a, b}, points(10, 0), centroidLat, centroidLng, VoteFraction)
		require.NotNil(t, got)
		assert.Equal(t, uint(2), got.ID)
	})

	t.Run("no points means no match", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, VoteMatch([]models.Location{loc}, nil, centroidLat, centroidLng, VoteFraction))
	})
}
