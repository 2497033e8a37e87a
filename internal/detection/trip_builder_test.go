package detection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

func ep(northM float64, at time.Time) endpoint {
	return endpoint{lat: 45.0 + northM*latPerMeter, lng: -73.0, at: at}
}

func TestFinalizeTrip(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	t.Run("drops trips under the distance floor", func(t *testing.T) {
		t.Parallel()
		s := &scanner{opts: DefaultOptions()}
		// 100 m displacement is 130 m corrected, under the 200 m floor.
		s.finalizeTrip(ep(0, t0), ep(100, t0.Add(2*time.Minute)), -1, -1, nil)
		assert.Empty(t, s.trips)
	})

	t.Run("drops trips with a non-positive duration", func(t *testing.T) {
		t.Parallel()
		s := &scanner{opts: DefaultOptions()}
		s.finalizeTrip(ep(0, t0), ep(5000, t0), -1, -1, nil)
		s.finalizeTrip(ep(0, t0), ep(5000, t0.Add(-time.Minute)), -1, -1, nil)
		assert.Empty(t, s.trips)
	})

	t.Run("drops short driving hops under the path minimum", func(t *testing.T) {
		t.Parallel()
		s := &scanner{opts: DefaultOptions()}
		// 250 m in one minute reads as driving, but a 250 m path is noise, not
		// a vehicle movement.
		s.finalizeTrip(ep(0, t0), ep(250, t0.Add(time.Minute)), -1, -1, nil)
		assert.Empty(t, s.trips)
	})

	t.Run("drops circular drift", func(t *testing.T) {
		t.Parallel()
		s := &scanner{opts: DefaultOptions()}
		// A few points wandering 2 km up and back with only 300 m to show for
		// it: straightness 0.075, under the 0.10 minimum.
		transit := []models.GpsFix{
			fixAt(t0, 60, 1000, 20),
			fixAt(t0, 120, 100, 20),
			fixAt(t0, 180, 900, 20),
		}
		s.finalizeTrip(ep(0, t0), ep(300, t0.Add(4*time.Minute)), -1, -1, transit)
		assert.Empty(t, s.trips)
	})

	t.Run("keeps a clean driving trip", func(t *testing.T) {
		t.Parallel()
		s := &scanner{opts: DefaultOptions()}
		s.finalizeTrip(ep(0, t0), ep(600, t0.Add(90*time.Second)), 0, 1, nil)
		require.Len(t, s.trips, 1)
		trip := s.trips[0]
		assert.Equal(t, models.ModeDriving, trip.TransportMode)
		assert.InDelta(t, 0.78, trip.DistanceKm, 0.001)
		assert.InDelta(t, 1.5, trip.DurationMin, 1e-9)
		assert.Equal(t, 0, trip.StartCluster)
		assert.Equal(t, 1, trip.EndCluster)
		assert.InDelta(t, DefaultConfidence, trip.Confidence, 1e-9)
	})

	t.Run("keeps a clean walking trip", func(t *testing.T) {
		t.Parallel()
		s := &scanner{opts: DefaultOptions()}
		// 200 m in 5 min: 3.1 km/h corrected.
		s.finalizeTrip(ep(0, t0), ep(200, t0.Add(5*time.Minute)), 0, 1, nil)
		require.Len(t, s.trips, 1)
		assert.Equal(t, models.ModeWalking, s.trips[0].TransportMode)
	})
}

func TestPathLength(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	t.Run("degenerates to displacement with no transit", func(t *testing.T) {
		t.Parallel()
		d := pathLength(ep(0, t0), ep(1000, t0), nil)
		assert.InDelta(t, 1000, d, 1)
	})

	t.Run("sums consecutive legs", func(t *testing.T) {
		t.Parallel()
		transit := []models.GpsFix{fixAt(t0, 60, 1000, 10)}
		// Out 1 km and back.
		d := pathLength(ep(0, t0), ep(0, t0.Add(2*time.Minute)), transit)
		assert.InDelta(t, 2000, d, 2)
	})
}

func TestTripConfidence(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	t.Run("defaults with no transit fixes", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, DefaultConfidence, tripConfidence(nil))
	})

	t.Run("penalizes low-accuracy fixes", func(t *testing.T) {
		t.Parallel()
		transit := []models.GpsFix{
			fixAt(t0, 0, 0, 10),
			fixAt(t0, 60, 100, 60),
			fixAt(t0, 120, 200, 30),
			fixAt(t0, 180, 300, 80),
		}
		assert.InDelta(t, 0.5, tripConfidence(transit), 1e-9)
	})

	t.Run("all bad fixes bottom out at zero", func(t *testing.T) {
		t.Parallel()
		transit := []models.GpsFix{fixAt(t0, 0, 0, 90), fixAt(t0, 60, 50, 120)}
		assert.Zero(t, tripConfidence(transit))
	})
}
