package detection

import (
	"time"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/geo"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

// Trip building thresholds.
const (
	// RouteCorrectionFactor compensates straight-line distance for the real
	// road/footpath the employee actually took.
	RouteCorrectionFactor = 1.3

	MinTripDistanceM      = 200.0 // general floor, before classification
	MinWalkDisplacementM  = 100.0
	MinDriveDistanceM     = 500.0 // path length
	MinDriveDisplacementM = 50.0  // multipath "snap-back" ghosts
	ShortTripMaxPoints    = 10
	MinStraightness       = 0.10 // displacement / path, circular drift guard

	LowAccuracyM      = 50.0 // a fix worse than this counts against confidence
	DefaultConfidence = 0.80 // cluster-to-cluster trips with no transit fixes
)

type endpoint struct {
	lat float64
	lng float64
	at  time.Time
}

// finalizeTrip is the single choke point for trip creation. Every closing
// path (tentative confirmation, coherence split, end of data) funnels through
// here so the distance floor, classification, ghost filters and confidence
// are applied exactly once and consistently. Trips that fail a filter are
// silently dropped; rejection is a normal branch, not an error.
func (s *scanner) finalizeTrip(start, end endpoint, startCluster, endCluster int, transit []models.GpsFix) {
	if !end.at.After(start.at) {
		return
	}

	distanceKm, mode, ok := tripFilters(start, end, transit)
	if !ok {
		return
	}

	points := make([]models.GpsFix, len(transit))
	copy(points, transit)

	s.trips = append(s.trips, Trip{
		StartedAt:      start.at,
		EndedAt:        end.at,
		StartLatitude:  start.lat,
		StartLongitude: start.lng,
		EndLatitude:    end.lat,
		EndLongitude:   end.lng,
		DistanceKm:     distanceKm,
		DurationMin:    end.at.Sub(start.at).Minutes(),
		TransportMode:  mode,
		Confidence:     tripConfidence(transit),
		PointCount:     len(transit),
		StartCluster:   startCluster,
		EndCluster:     endCluster,
		Points:         points,
	})
}

// tripFilters applies the distance floor, transport classification and the
// mode-specific ghost filters to candidate endpoints. It runs at trip
// creation and again after endpoint resolution, because an arrival cluster
// that keeps growing can shift its centroid enough to change the verdict.
func tripFilters(start, end endpoint, transit []models.GpsFix) (distanceKm float64, mode string, ok bool) {
	displacement := geo.Distance(start.lat, start.lng, end.lat, end.lng)
	distanceKm = displacement * RouteCorrectionFactor / 1000
	if displacement*RouteCorrectionFactor < MinTripDistanceM {
		return 0, "", false
	}

	durationMin := end.at.Sub(start.at).Minutes()
	path := pathLength(start, end, transit)

	mode = ClassifyMode(distanceKm, durationMin, transit)
	switch mode {
	case models.ModeWalking:
		if displacement < MinWalkDisplacementM {
			return 0, "", false
		}
	case models.ModeDriving:
		if path < MinDriveDistanceM {
			return 0, "", false
		}
		if displacement < MinDriveDisplacementM {
			return 0, "", false
		}
		if len(transit) <= ShortTripMaxPoints && path > 0 && displacement/path < MinStraightness {
			return 0, "", false
		}
	}
	return distanceKm, mode, true
}

// pathLength sums the consecutive great-circle legs start -> transit fixes ->
// end, in meters. With no transit fixes it degenerates to the displacement.
func pathLength(start, end endpoint, transit []models.GpsFix) float64 {
	lat, lng := start.lat, start.lng
	var total float64
	for _, p := range transit {
		total += geo.Distance(lat, lng, p.Latitude, p.Longitude)
		lat, lng = p.Latitude, p.Longitude
	}
	total += geo.Distance(lat, lng, end.lat, end.lng)
	return total
}

// tripConfidence penalizes a trip by the share of low-accuracy contributing
// fixes. Pure cluster-to-cluster trips with no transit fixes get the default.
func tripConfidence(transit []models.GpsFix) float64 {
	if len(transit) == 0 {
		return DefaultConfidence
	}
	low := 0
	for _, p := range transit {
		if p.Accuracy > LowAccuracyM {
			low++
		}
	}
	c := 1 - float64(low)/float64(len(transit))
	if c < 0 {
		return 0
	}
	return c
}
