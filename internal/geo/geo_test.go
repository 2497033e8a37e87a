package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// latPerMeter converts a northward offset in meters to degrees of latitude.
const latPerMeter = 1.0 / 111194.9

func TestDistance(t *testing.T) {
	t.Parallel()

	t.Run("zero for identical points", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, Distance(45.5, -73.6, 45.5, -73.6))
	})

	t.Run("one hundredth of a degree of latitude", func(t *testing.T) {
		t.Parallel()
		d := Distance(45.5, -73.6, 45.51, -73.6)
		assert.InDelta(t, 1111.9, d, 1.0)
	})

	t.Run("symmetric", func(t *testing.T) {
		t.Parallel()
		a := Distance(45.5, -73.6, 45.52, -73.58)
		b := Distance(45.52, -73.58, 45.5, -73.6)
		assert.Equal(t, a, b)
	})
}

func TestCentroid(t *testing.T) {
	t.Parallel()

	t.Run("empty accumulator reads zero", func(t *testing.T) {
		t.Parallel()
		var c Centroid
		assert.Zero(t, c.Lat())
		assert.Zero(t, c.Lng())
		assert.Zero(t, c.Accuracy())
		assert.Zero(t, c.Count())
	})

	t.Run("weights by inverse accuracy", func(t *testing.T) {
		t.Parallel()
		var c Centroid
		c.Add(45.0, -73.0, 1)
		c.Add(46.0, -72.0, 100)

		// Weights 1 and 0.01: the good fix dominates.
		wantLat := (45.0 + 46.0*0.01) / 1.01
		wantLng := (-73.0 - 72.0*0.01) / 1.01
		assert.InDelta(t, wantLat, c.Lat(), 1e-9)
		assert.InDelta(t, wantLng, c.Lng(), 1e-9)
		assert.Equal(t, 2, c.Count())
	})

	t.Run("accuracy combines like independent measurements", func(t *testing.T) {
		t.Parallel()
		var c Centroid
		c.Add(45.0, -73.0, 10)
		c.Add(45.0, -73.0, 10)
		// 1/sqrt(2 * (1/10)^2)
		assert.InDelta(t, 7.0711, c.Accuracy(), 0.001)
	})

	t.Run("floors accuracy at one meter", func(t *testing.T) {
		t.Parallel()
		var c Centroid
		c.Add(45.0, -73.0, 0)
		assert.InDelta(t, 1.0, c.Accuracy(), 1e-9)
		assert.InDelta(t, 45.0, c.Lat(), 1e-9)
	})

	t.Run("matches the closed form on a batch", func(t *testing.T) {
		t.Parallel()
		lats := []float64{45.0, 45.0 + 100*latPerMeter, 45.0 + 200*latPerMeter}
		accs := []float64{5, 10, 20}

		var c Centroid
		var sumLat, sumW float64
		for i := range lats {
			c.Add(lats[i], -73.0, accs[i])
			sumLat += lats[i] / accs[i]
			sumW += 1 / accs[i]
		}
		assert.InDelta(t, sumLat/sumW, c.Lat(), 1e-12)
	})
}

func TestMean(t *testing.T) {
	t.Parallel()

	lat, lng := Mean(nil, nil)
	assert.Zero(t, lat)
	assert.Zero(t, lng)

	lat, lng = Mean([]float64{44.0, 46.0}, []float64{-72.0, -74.0})
	assert.InDelta(t, 45.0, lat, 1e-9)
	assert.InDelta(t, -73.0, lng, 1e-9)
}

func TestBearing(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, Bearing(45.0, -73.0, 46.0, -73.0), 0.01)
	assert.InDelta(t, 180.0, Bearing(46.0, -73.0, 45.0, -73.0), 0.01)
	assert.InDelta(t, 90.0, Bearing(0.0, -73.0, 0.0, -72.0), 0.01)
}
