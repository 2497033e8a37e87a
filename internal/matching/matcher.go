package matching

import (
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/geo"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

const (
	// VoteFraction is the share of a cluster's raw fixes that must fall
	// inside a geofence for the point-voting fallback to accept it.
	VoteFraction = 0.30

	// VoteRadiusFactor gates how far outside a geofence a cluster centroid
	// may sit before the rematch service stops bothering with point voting.
	VoteRadiusFactor = 3.0
)

// Contains reports whether the point falls inside the location's geofence,
// expanded by the point's own accuracy.
func Contains(loc models.Location, lat, lng, accuracy float64) bool {
	return geo.Distance(loc.Latitude, loc.Longitude, lat, lng) <= loc.RadiusM+accuracy
}

// MatchPoint returns the nearest active location whose geofence contains the
// point, or nil. First match by ascending distance wins.
func MatchPoint(locs []models.Location, lat, lng, accuracy float64) *models.Location {
	var best *models.Location
	var bestDist float64
	for i := range locs {
		l := &locs[i]
		if !l.Active {
			continue
		}
		d := geo.Distance(l.Latitude, l.Longitude, lat, lng)
		if d > l.RadiusM+accuracy {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = l, d
		}
	}
	return best
}

// VoteFor returns the fraction of fixes that fall inside the location's
// geofence at their own accuracy.
func VoteFor(loc models.Location, points []models.GpsFix) float64 {
	if len(points) == 0 {
		return 0
	}
	in := 0
	for _, p := range points {
		if Contains(loc, p.Latitude, p.Longitude, p.Accuracy) {
			in++
		}
	}
	return float64(in) / float64(len(points))
}

// VoteMatch is the point-voting fallback: indoor GPS bias can drag a weighted
// centroid outside a geofence even when most raw samples are inside it,
// because a few high-accuracy outliers pulled toward open sky dominate the
// weighted average. Among active locations where at least minFraction of the
// raw fixes vote inside, the highest fraction wins; ties break to the
// location nearest the centroid.
func VoteMatch(locs []models.Location, points []models.GpsFix, centroidLat, centroidLng, minFraction float64) *models.Location {
	var best *models.Location
	var bestFrac, bestDist float64
	for i := range locs {
		l := &locs[i]
		if !l.Active {
			continue
		}
		frac := VoteFor(*l, points)
		if frac < minFraction {
			continue
		}
		d := geo.Distance(l.Latitude, l.Longitude, centroidLat, centroidLng)
		if best == nil || frac > bestFrac || (frac == bestFrac && d < bestDist) {
			best, bestFrac, bestDist = l, frac, d
		}
	}
	return best
}
