package detection

import (
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/geo"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

// Transport classifier thresholds, in km/h unless noted.
const (
	DriveSpeedKmh    = 10.0 // above: driving, no questions asked
	WalkSpeedKmh     = 4.0  // below: walking
	TiebreakSpeedKmh = 6.0  // grey zone with too few valid segments
	SlowSegmentKmh   = 5.0
	SlowSegmentShare = 0.8
	GreyZoneMaxKm    = 1.0  // slow segments only read as walking on short trips
	GlitchSpeedKmh   = 200.0
)

// ClassifyMode labels a trip driving/walking from its average speed, falling
// back to per-segment speeds in the ambiguous 4-10 km/h band, where city
// driving with frequent stops and brisk walking overlap. Unknown only when
// the distance or duration data is unusable.
func ClassifyMode(distanceKm, durationMin float64, points []models.GpsFix) string {
	if distanceKm <= 0 || durationMin <= 0 {
		return models.ModeUnknown
	}
	avg := distanceKm / (durationMin / 60)
	if avg > DriveSpeedKmh {
		return models.ModeDriving
	}
	if avg < WalkSpeedKmh {
		return models.ModeWalking
	}

	speeds := segmentSpeeds(points)
	if len(speeds) < 2 {
		if avg <= TiebreakSpeedKmh {
			return models.ModeWalking
		}
		return models.ModeDriving
	}

	slow := 0
	for _, v := range speeds {
		if v < SlowSegmentKmh {
			slow++
		}
	}
	if float64(slow)/float64(len(speeds)) > SlowSegmentShare && distanceKm <= GreyZoneMaxKm {
		return models.ModeWalking
	}
	return models.ModeDriving
}

// segmentSpeeds computes consecutive point-to-point speeds in km/h. Pairs
// with non-positive elapsed time are skipped, and anything at or above the
// glitch ceiling is a sensor artifact, not movement.
func segmentSpeeds(points []models.GpsFix) []float64 {
	var speeds []float64
	for i := 1; i < len(points); i++ {
		dt := points[i].CapturedAt.Sub(points[i-1].CapturedAt).Seconds()
		if dt <= 0 {
			continue
		}
		d := geo.Distance(points[i-1].Latitude, points[i-1].Longitude,
			points[i].Latitude, points[i].Longitude)
		kmh := d / dt * 3.6
		if kmh >= GlitchSpeedKmh {
			continue
		}
		speeds = append(speeds, kmh)
	}
	return speeds
}
