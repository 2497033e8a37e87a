package detection

import (
	"time"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/geo"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

// Options holds the segmentation thresholds. The defaults are the tuned
// production values; tests shrink them where convenient.
type Options struct {
	ClusterRadiusM float64       // join radius around the cluster centroid
	MinDwell       time.Duration // minimum stay before a cluster is confirmed
	MaxAccuracyM   float64       // fixes worse than this are dropped outright
	GapThreshold   time.Duration // silence longer than this is a sensor outage

	// Completed finalizes the pending cluster and trailing transit points at
	// the end of the data. Active (incremental) scans leave them for the next
	// pass instead.
	Completed bool
}

func DefaultOptions() Options {
	return Options{
		ClusterRadiusM: 50,
		MinDwell:       3 * time.Minute,
		MaxAccuracyM:   200,
		GapThreshold:   15 * time.Minute,
	}
}

// Cluster is a confirmed stationary cluster produced by a scan, not yet
// persisted. Points keeps the member fixes for point-voting location matches.
type Cluster struct {
	Latitude   float64
	Longitude  float64
	Accuracy   float64
	StartedAt  time.Time
	EndedAt    time.Time
	PointCount int
	Points     []models.GpsFix
}

// Trip is a candidate trip produced by a scan. StartCluster/EndCluster index
// into Result.Clusters, -1 when the endpoint is a raw fix instead of a stop.
type Trip struct {
	StartedAt      time.Time
	EndedAt        time.Time
	StartLatitude  float64
	StartLongitude float64
	EndLatitude    float64
	EndLongitude   float64
	DistanceKm     float64
	DurationMin    float64
	TransportMode  string
	Confidence     float64
	PointCount     int
	StartCluster   int
	EndCluster     int
	Points         []models.GpsFix
}

type Result struct {
	Clusters []Cluster
	Trips    []Trip
}

// Scan runs the single-pass segmentation over time-ordered fixes and returns
// the confirmed clusters and surviving trips. The scan is pure: callers own
// persistence and locking.
//
// The pass keeps at most two growing clusters: the current one (confirmed, a
// real stop the employee is still at) and a tentative one (a candidate stop
// not yet at the dwell threshold). Points fitting neither are buffered in the
// transit set and become trip geometry once the next stop confirms.
func Scan(fixes []models.GpsFix, opts Options) Result {
	s := &scanner{opts: opts}

	var prev *models.GpsFix
	for i := range fixes {
		f := fixes[i]
		if f.Accuracy > opts.MaxAccuracyM {
			continue
		}
		s.step(f, prev)
		prev = &fixes[i]
	}
	s.finish()
	s.resolveEndpoints()

	return Result{Clusters: s.clusters, Trips: s.trips}
}

// accum is one growing cluster: an incremental weighted centroid plus the
// member fixes.
type accum struct {
	cen     geo.Centroid
	points  []models.GpsFix
	firstAt time.Time
	lastAt  time.Time
}

func newAccum(f models.GpsFix) *accum {
	a := &accum{firstAt: f.CapturedAt, lastAt: f.CapturedAt}
	a.add(f)
	return a
}

func (a *accum) add(f models.GpsFix) {
	a.cen.Add(f.Latitude, f.Longitude, f.Accuracy)
	a.points = append(a.points, f)
	if f.CapturedAt.Before(a.firstAt) || a.firstAt.IsZero() {
		a.firstAt = f.CapturedAt
	}
	if f.CapturedAt.After(a.lastAt) {
		a.lastAt = f.CapturedAt
	}
}

func (a *accum) span() time.Duration {
	return a.lastAt.Sub(a.firstAt)
}

func (a *accum) distanceTo(f models.GpsFix) float64 {
	return geo.Distance(a.cen.Lat(), a.cen.Lng(), f.Latitude, f.Longitude)
}

// mean is the unweighted centroid of the members, for the coherence guard.
func (a *accum) mean() (float64, float64) {
	lats := make([]float64, len(a.points))
	lngs := make([]float64, len(a.points))
	for i, p := range a.points {
		lats[i] = p.Latitude
		lngs[i] = p.Longitude
	}
	return geo.Mean(lats, lngs)
}

type scanner struct {
	opts Options

	current   *accum // confirmed cluster, still growing
	tentative *accum // candidate cluster, below the dwell threshold
	transit   []models.GpsFix

	clusters []Cluster
	trips    []Trip
}

func (s *scanner) step(f models.GpsFix, prev *models.GpsFix) {
	// A long silence means the sensor was off, not that the employee
	// travelled: close the stop we are sure about and throw the rest away so
	// the outage cannot manufacture a trip.
	if prev != nil && f.CapturedAt.Sub(prev.CapturedAt) > s.opts.GapThreshold {
		s.closeCurrent()
		s.tentative = nil
		s.transit = nil
	}

	if s.current != nil {
		if s.current.distanceTo(f)-f.Accuracy <= s.opts.ClusterRadiusM {
			// Spatial coherence guard: slow drift can pull the weighted
			// centroid toward a false midpoint between two real stops. Test
			// the candidate against the unweighted centroid of the existing
			// members; if it is out of range on its own merits this is a
			// split, not growth.
			if s.current.cen.Count() >= 3 {
				mlat, mlng := s.current.mean()
				if geo.Distance(mlat, mlng, f.Latitude, f.Longitude)-f.Accuracy > s.opts.ClusterRadiusM {
					s.split(f)
					return
				}
			}
			s.current.add(f)
			return
		}
	}

	if s.tentative != nil {
		if s.tentative.distanceTo(f)-f.Accuracy <= s.opts.ClusterRadiusM {
			s.tentative.add(f)
			if s.tentative.span() >= s.opts.MinDwell {
				s.confirmTentative()
			}
			return
		}
		// Fits neither cluster: the old tentative was movement after all.
		s.transit = append(s.transit, s.tentative.points...)
	}
	s.tentative = newAccum(f)
}

// confirmTentative promotes the tentative cluster to current. This is the
// moment a trip exists: the old current closes and the buffered transit
// points span the gap between the two stops.
func (s *scanner) confirmTentative() {
	t := s.tentative
	s.tentative = nil

	if s.current != nil {
		dep := s.current
		depIdx := s.closeCurrent()
		s.finalizeTrip(
			endpoint{lat: dep.cen.Lat(), lng: dep.cen.Lng(), at: dep.lastAt},
			endpoint{lat: t.cen.Lat(), lng: t.cen.Lng(), at: t.firstAt},
			depIdx, len(s.clusters), s.transit)
	} else if len(s.transit) > 0 {
		// Very first stop of the shift with movement before it: the trip
		// departs from a raw point.
		first := s.transit[0]
		s.finalizeTrip(
			endpoint{lat: first.Latitude, lng: first.Longitude, at: first.CapturedAt},
			endpoint{lat: t.cen.Lat(), lng: t.cen.Lng(), at: t.firstAt},
			-1, len(s.clusters), s.transit)
	}
	s.transit = nil
	s.current = t
}

// split handles the coherence-guard trigger: finalize the current cluster,
// emit a trip from whatever slow-movement points were left unclaimed, and
// restart from the candidate point.
func (s *scanner) split(f models.GpsFix) {
	if s.tentative != nil {
		s.transit = append(s.transit, s.tentative.points...)
		s.tentative = nil
	}
	dep := s.current
	depIdx := s.closeCurrent()
	s.finalizeTrip(
		endpoint{lat: dep.cen.Lat(), lng: dep.cen.Lng(), at: dep.lastAt},
		endpoint{lat: f.Latitude, lng: f.Longitude, at: f.CapturedAt},
		depIdx, -1, s.transit)
	s.transit = nil
	s.tentative = newAccum(f)
}

// closeCurrent appends the current cluster to the results and returns its
// index, or -1 if there was none. Confirmed clusters always met the dwell
// threshold, so they always persist.
func (s *scanner) closeCurrent() int {
	if s.current == nil {
		return -1
	}
	a := s.current
	s.current = nil
	s.clusters = append(s.clusters, Cluster{
		Latitude:   a.cen.Lat(),
		Longitude:  a.cen.Lng(),
		Accuracy:   a.cen.Accuracy(),
		StartedAt:  a.firstAt,
		EndedAt:    a.lastAt,
		PointCount: len(a.points),
		Points:     a.points,
	})
	return len(s.clusters) - 1
}

// finish flushes the scan state at end of data. Only completed shifts get
// the trailing finalization; an active shift's pending state is re-derived
// on the next incremental pass.
func (s *scanner) finish() {
	if !s.opts.Completed {
		s.closeCurrent()
		return
	}

	if s.tentative != nil {
		if s.tentative.span() >= s.opts.MinDwell {
			s.confirmTentative()
		} else {
			s.transit = append(s.transit, s.tentative.points...)
			s.tentative = nil
		}
	}

	if len(s.transit) > 0 {
		last := s.transit[len(s.transit)-1]
		end := endpoint{lat: last.Latitude, lng: last.Longitude, at: last.CapturedAt}
		if s.current != nil {
			dep := s.current
			depIdx := s.closeCurrent()
			s.finalizeTrip(endpoint{lat: dep.cen.Lat(), lng: dep.cen.Lng(), at: dep.lastAt}, end, depIdx, -1, s.transit)
		} else {
			first := s.transit[0]
			s.finalizeTrip(endpoint{lat: first.Latitude, lng: first.Longitude, at: first.CapturedAt}, end, -1, -1, s.transit)
		}
		s.transit = nil
	}

	s.closeCurrent()
}

// resolveEndpoints refreshes trip endpoints from the final cluster centroids.
// Arrival clusters keep growing after the trip is built, so the coordinates
// snapshotted at confirmation can be slightly stale. The distance floor,
// classification and ghost filters are re-applied against the resolved
// endpoints; a trip the final geometry no longer supports is dropped.
func (s *scanner) resolveEndpoints() {
	kept := s.trips[:0]
	for i := range s.trips {
		t := s.trips[i]
		if t.StartCluster >= 0 && t.StartCluster < len(s.clusters) {
			c := s.clusters[t.StartCluster]
			t.StartLatitude, t.StartLongitude = c.Latitude, c.Longitude
		}
		if t.EndCluster >= 0 && t.EndCluster < len(s.clusters) {
			c := s.clusters[t.EndCluster]
			t.EndLatitude, t.EndLongitude = c.Latitude, c.Longitude
		}
		distanceKm, mode, ok := tripFilters(
			endpoint{lat: t.StartLatitude, lng: t.StartLongitude, at: t.StartedAt},
			endpoint{lat: t.EndLatitude, lng: t.EndLongitude, at: t.EndedAt},
			t.Points)
		if !ok {
			continue
		}
		t.DistanceKm = distanceKm
		t.TransportMode = mode
		kept = append(kept, t)
	}
	s.trips = kept
}
