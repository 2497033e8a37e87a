package geo

import "math"

// Distance calculates the great-circle distance in meters between two
// geographical points using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000 // Earth's radius in meters.
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// Bearing calculates the initial bearing (direction) in degrees from the
// first point to the second.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLon := toRadians(lon2 - lon1)

	y := math.Sin(deltaLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon)
	bearingRad := math.Atan2(y, x)

	return math.Mod(toDegrees(bearingRad)+360, 360)
}

// Centroid accumulates an accuracy-weighted average position incrementally,
// in O(1) per point. Coordinates are weighted by 1/accuracy; the resulting
// centroid accuracy is 1/sqrt(sum(1/accuracy^2)). Accuracies are floored at
// one meter so a perfect fix cannot blow up the weights.
type Centroid struct {
	sumLat float64 // sum(lat / accuracy)
	sumLng float64 // sum(lng / accuracy)
	sumW   float64 // sum(1 / accuracy)
	sumW2  float64 // sum(1 / accuracy^2)
	count  int
}

// Add folds one fix into the accumulator.
func (c *Centroid) Add(lat, lng, accuracy float64) {
	if accuracy < 1 {
		accuracy = 1
	}
	w := 1 / accuracy
	c.sumLat += lat * w
	c.sumLng += lng * w
	c.sumW += w
	c.sumW2 += w * w
	c.count++
}

// Lat returns the weighted latitude, or 0 if the accumulator is empty.
func (c *Centroid) Lat() float64 {
	if c.sumW == 0 {
		return 0
	}
	return c.sumLat / c.sumW
}

// Lng returns the weighted longitude, or 0 if the accumulator is empty.
func (c *Centroid) Lng() float64 {
	if c.sumW == 0 {
		return 0
	}
	return c.sumLng / c.sumW
}

// Accuracy returns the accuracy in meters of the weighted centroid.
func (c *Centroid) Accuracy() float64 {
	if c.sumW2 == 0 {
		return 0
	}
	return 1 / math.Sqrt(c.sumW2)
}

// Count returns the number of accumulated points.
func (c *Centroid) Count() int {
	return c.count
}

// Mean returns the unweighted average of a coordinate list. Used by the
// spatial coherence guard, where accuracy weighting is exactly what must be
// ignored.
func Mean(lats, lngs []float64) (lat, lng float64) {
	n := float64(len(lats))
	if n == 0 {
		return 0, 0
	}
	for i := range lats {
		lat += lats[i]
		lng += lngs[i]
	}
	return lat / n, lng / n
}

// toRadians converts an angle from degrees to radians.
func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// toDegrees converts an angle from radians to degrees.
func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
