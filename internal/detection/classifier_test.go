package detection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

const latPerMeter = 1.0 / 111194.9

// walk builds fixes moving north at stepM meters per stepSec seconds.
func walk(t0 time.Time, n int, stepM float64, stepSec int) []models.GpsFix {
	fixes := make([]models.GpsFix, n)
	for i := 0; i < n; i++ {
		fixes[i] = models.GpsFix{
			Latitude:   45.0 + float64(i)*stepM*latPerMeter,
			Longitude:  -73.0,
			Accuracy:   10,
			CapturedAt: t0.Add(time.Duration(i*stepSec) * time.Second),
		}
	}
	return fixes
}

func TestClassifyMode(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("fast average is driving", func(t *testing.T) {
		t.Parallel()
		// 5 km in 10 min = 30 km/h.
		assert.Equal(t, models.ModeDriving, ClassifyMode(5.0, 10.0, nil))
	})

	t.Run("slow average is walking", func(t *testing.T) {
		t.Parallel()
		// 0.3 km in 10 min = 1.8 km/h.
		assert.Equal(t, models.ModeWalking, ClassifyMode(0.3, 10.0, nil))
	})

	t.Run("unusable inputs are unknown", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, models.ModeUnknown, ClassifyMode(0, 10.0, nil))
		assert.Equal(t, models.ModeUnknown, ClassifyMode(5.0, 0, nil))
		assert.Equal(t, models.ModeUnknown, ClassifyMode(-1.0, -2.0, nil))
	})

	t.Run("grey zone with mostly slow segments on a short trip is walking", func(t *testing.T) {
		t.Parallel()
		// 1.0 km in 6 min is exactly 10 km/h average, but every segment moves
		// at walking pace: 10 m per 10 s = 3.6 km/h.
		pts := walk(t0, 8, 10, 10)
		assert.Equal(t, models.ModeWalking, ClassifyMode(1.0, 6.0, pts))
	})

	t.Run("grey zone with slow segments but a long trip is driving", func(t *testing.T) {
		t.Parallel()
		// Same crawling segments, but 1.2 km total: stop-and-go traffic, not a
		// pedestrian.
		pts := walk(t0, 8, 10, 10)
		assert.Equal(t, models.ModeDriving, ClassifyMode(1.2, 8.0, pts))
	})

	t.Run("grey zone with fast segments is driving", func(t *testing.T) {
		t.Parallel()
		// 50 m per 10 s = 18 km/h segments; 0.9 km in 7 min = 7.7 km/h average.
		pts := walk(t0, 8, 50, 10)
		assert.Equal(t, models.ModeDriving, ClassifyMode(0.9, 7.0, pts))
	})

	t.Run("grey zone without enough segments falls back to the tiebreak", func(t *testing.T) {
		t.Parallel()
		// 0.5 km in 6 min = 5 km/h, below the 6 km/h tiebreak.
		assert.Equal(t, models.ModeWalking, ClassifyMode(0.5, 6.0, nil))
		// 0.7 km in 6 min = 7 km/h, above it.
		assert.Equal(t, models.ModeDriving, ClassifyMode(0.7, 6.0, nil))
	})
}

func TestSegmentSpeeds(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("computes consecutive speeds", func(t *testing.T) {
		t.Parallel()
		pts := walk(t0, 3, 10, 10)
		speeds := segmentSpeeds(pts)
		require.Len(t, speeds, 2)
		assert.InDelta(t, 3.6, speeds[0], 0.01)
		assert.InDelta(t, 3.6, speeds[1], 0.01)
	})

	t.Run("drops glitch jumps", func(t *testing.T) {
		t.Parallel()
		pts := walk(t0, 3, 10, 10)
		// Teleport the middle point 1 km north: 360 km/h for that second pair.
		pts[1].Latitude = 45.0 + 1000*latPerMeter
		speeds := segmentSpeeds(pts)
		assert.Empty(t, speeds)
	})

	t.Run("skips pairs with non-positive elapsed time", func(t *testing.T) {
		t.Parallel()
		pts := walk(t0, 3, 10, 10)
		pts[1].CapturedAt = pts[0].CapturedAt
		speeds := segmentSpeeds(pts)
		require.Len(t, speeds, 1)
	})

	t.Run("fewer than two points yields nothing", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, segmentSpeeds(nil))
		assert.Empty(t, segmentSpeeds(walk(t0, 1, 10, 10)))
	})
}
