package detection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

// fixAt builds one fix northM meters north of the base coordinate.
func fixAt(t0 time.Time, sec int, northM, acc float64) models.GpsFix {
	return models.GpsFix{
		Latitude:   45.0 + northM*latPerMeter,
		Longitude:  -73.0,
		Accuracy:   acc,
		CapturedAt: t0.Add(time.Duration(sec) * time.Second),
	}
}

// dwellAt builds fixes sitting at one spot, one every stepSec seconds.
func dwellAt(t0 time.Time, startSec, n, stepSec int, northM, acc float64) []models.GpsFix {
	fixes := make([]models.GpsFix, 0, n)
	for i := 0; i < n; i++ {
		fixes = append(fixes, fixAt(t0, startSec+i*stepSec, northM, acc))
	}
	return fixes
}

func completedOpts() Options {
	o := DefaultOptions()
	o.Completed = true
	return o
}

func TestScanDwellThreshold(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	t.Run("a stay just under three minutes is not a stop", func(t *testing.T) {
		t.Parallel()
		fixes := dwellAt(t0, 0, 6, 30, 0, 10) // span 2m30s
		res := Scan(fixes, completedOpts())
		assert.Empty(t, res.Clusters)
		assert.Empty(t, res.Trips)
	})

	t.Run("a stay over three minutes is a stop", func(t *testing.T) {
		t.Parallel()
		fixes := dwellAt(t0, 0, 8, 30, 0, 10) // span 3m30s
		res := Scan(fixes, completedOpts())
		require.Len(t, res.Clusters, 1)
		assert.Empty(t, res.Trips)
		assert.Equal(t, 8, res.Clusters[0].PointCount)
		assert.Equal(t, fixes[0].CapturedAt, res.Clusters[0].StartedAt)
		assert.Equal(t, fixes[7].CapturedAt, res.Clusters[0].EndedAt)
	})
}

func TestScanStopDriveStop(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	var fixes []models.GpsFix
	fixes = append(fixes, dwellAt(t0, 0, 5, 60, 0, 10)...) // stop A, 4 min
	for i := 1; i <= 15; i++ {                             // 500 m per minute, 30 km/h
		fixes = append(fixes, fixAt(t0, 240+i*60, float64(i)*500, 10))
	}
	fixes = append(fixes, dwellAt(t0, 1200, 5, 60, 8000, 10)...) // stop B, 4 min

	res := Scan(fixes, completedOpts())

	require.Len(t, res.Clusters, 2)
	assert.Equal(t, 5, res.Clusters[0].PointCount)
	assert.Equal(t, 5, res.Clusters[1].PointCount)

	require.Len(t, res.Trips, 1)
	trip := res.Trips[0]
	assert.Equal(t, 0, trip.StartCluster)
	assert.Equal(t, 1, trip.EndCluster)
	assert.Equal(t, models.ModeDriving, trip.TransportMode)
	// 8 km displacement with the 1.3 route correction.
	assert.InDelta(t, 10.4, trip.DistanceKm, 0.05)
	assert.InDelta(t, 16.0, trip.DurationMin, 0.01)
	assert.Equal(t, 15, trip.PointCount)
	assert.InDelta(t, 1.0, trip.Confidence, 1e-9)

	// Departure is the moment the employee left A; arrival the moment they
	// reached B.
	assert.Equal(t, res.Clusters[0].EndedAt, trip.StartedAt)
	assert.Equal(t, res.Clusters[1].StartedAt, trip.EndedAt)
}

func TestScanMergesAdjacentDwell(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	// Two desks 40 m apart inside the same building: within the join radius,
	// so one stop, no trip.
	var fixes []models.GpsFix
	fixes = append(fixes, dwellAt(t0, 0, 5, 60, 0, 5)...)
	fixes = append(fixes, dwellAt(t0, 300, 5, 60, 40, 5)...)

	res := Scan(fixes, completedOpts())
	require.Len(t, res.Clusters, 1)
	assert.Empty(t, res.Trips)
	assert.Equal(t, 10, res.Clusters[0].PointCount)
}

func TestScanGapDiscardsUnconfirmedState(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	// Stop A, 20 minutes of silence, stop B five kilometers away. The outage
	// hides the real movement, so no trip may be invented.
	var fixes []models.GpsFix
	fixes = append(fixes, dwellAt(t0, 0, 5, 60, 0, 10)...)
	fixes = append(fixes, dwellAt(t0, 240+1200, 5, 60, 5000, 10)...)

	res := Scan(fixes, completedOpts())
	require.Len(t, res.Clusters, 2)
	assert.Empty(t, res.Trips)
}

func TestScanDropsInaccurateFixes(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	fixes := dwellAt(t0, 0, 10, 60, 0, 250) // all worse than MaxAccuracyM
	res := Scan(fixes, completedOpts())
	assert.Empty(t, res.Clusters)
	assert.Empty(t, res.Trips)
}

func TestScanIncrementalLeavesPendingState(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	// Active shift: the drive and the not-yet-confirmed stay at B must wait
	// for the next pass instead of being finalized early.
	var fixes []models.GpsFix
	fixes = append(fixes, dwellAt(t0, 0, 5, 60, 0, 10)...)
	for i := 1; i <= 15; i++ {
		fixes = append(fixes, fixAt(t0, 240+i*60, float64(i)*500, 10))
	}
	fixes = append(fixes, dwellAt(t0, 1200, 3, 60, 8000, 10)...) // only 2 min at B

	opts := DefaultOptions()
	res := Scan(fixes, opts)
	require.Len(t, res.Clusters, 1)
	assert.Empty(t, res.Trips)

	// The same data with B past the dwell threshold resolves on a later pass.
	fixes = append(fixes, dwellAt(t0, 1380, 2, 60, 8000, 10)...)
	res = Scan(fixes, opts)
	require.Len(t, res.Clusters, 2)
	require.Len(t, res.Trips, 1)
}

func TestScanArrivalGrowthReappliesTripFilters(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	// A short walk whose arrival cluster confirms at 160 m (208 m corrected,
	// over the floor) and then keeps growing with fixes back at 110 m. The
	// final centroid lands near 115 m, 150 m corrected: the trip that was
	// valid when the stop confirmed fails the floor against the resolved
	// endpoint and must not survive.
	var fixes []models.GpsFix
	fixes = append(fixes, dwellAt(t0, 0, 5, 60, 0, 10)...)     // stop A
	fixes = append(fixes, dwellAt(t0, 480, 7, 30, 160, 10)...) // 160 m walk in 4 min
	fixes = append(fixes, dwellAt(t0, 690, 60, 30, 110, 10)...)

	res := Scan(fixes, completedOpts())
	require.Len(t, res.Clusters, 2)
	assert.Empty(t, res.Trips)
}

func TestScanDeterministic(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	var fixes []models.GpsFix
	fixes = append(fixes, dwellAt(t0, 0, 5, 60, 0, 12)...)
	for i := 1; i <= 12; i++ {
		fixes = append(fixes, fixAt(t0, 240+i*60, float64(i)*400, 18))
	}
	fixes = append(fixes, dwellAt(t0, 1020, 6, 60, 5200, 7)...)

	a := Scan(fixes, completedOpts())
	b := Scan(fixes, completedOpts())
	assert.Equal(t, a, b)
}

func TestScanCoherenceSplit(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	// A confirmed stop, then a very slow drift north. Each drifting fix has a
	// sloppy accuracy that would let the weighted join radius keep swallowing
	// it; the unweighted mean guard has to cut the cluster off.
	var fixes []models.GpsFix
	fixes = append(fixes, dwellAt(t0, 0, 8, 30, 0, 5)...)
	for i := 1; i <= 12; i++ {
		fixes = append(fixes, fixAt(t0, 210+i*30, float64(i)*30, 60))
	}
	fixes = append(fixes, dwellAt(t0, 600, 8, 30, 400, 5)...)

	res := Scan(fixes, completedOpts())
	// However the drift is carved up, the first confirmed stop must not have
	// absorbed points far outside its radius.
	require.NotEmpty(t, res.Clusters)
	first := res.Clusters[0]
	assert.Less(t, first.Latitude, 45.0+100*latPerMeter)
}
