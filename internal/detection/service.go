package detection

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/geo"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/matching"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

// ContinuityRadiusM: if the previous trip ended within this distance of the
// next trip's start, the start reuses the previous end's location id instead
// of re-running geofence matching. Stops the assignment from flapping between
// two adjacent geofences during one real stop.
const ContinuityRadiusM = 100.0

// shiftLockNamespace is the pg_advisory_xact_lock class for detection runs.
const shiftLockNamespace = 4217

// Service drives detection for one shift: it loads the stored fixes, runs the
// pure scan, and commits the resulting clusters and trips. Two concurrent
// runs for the same shift would race on what counts as already finalized, so
// each run takes a per-shift Postgres advisory lock for the duration of its
// transaction.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RunSummary reports what one detection run changed.
type RunSummary struct {
	ShiftID         uint `json:"shift_id"`
	FixesScanned    int  `json:"fixes_scanned"`
	ClustersCreated int  `json:"clusters_created"`
	ClustersUpdated int  `json:"clusters_updated"`
	TripsCreated    int  `json:"trips_created"`
	TripsDeleted    int  `json:"trips_deleted"`
}

// Detect runs detection for the shift. Completed shifts get a full pass that
// rebuilds everything except trips already consumed by the external road
// matcher; active shifts get an incremental pass that resumes after the last
// persisted trip and never touches finalized results.
func (s *Service) Detect(shiftID uint) (*RunSummary, error) {
	var shift models.Shift
	if err := s.db.First(&shift, shiftID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shift %d not found", shiftID)
		}
		return nil, fmt.Errorf("loading shift %d: %w", shiftID, err)
	}

	summary := &RunSummary{ShiftID: shiftID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// At most one in-flight detection per shift. The lock releases with
		// the transaction.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", shiftLockNamespace, int32(shiftID)).Error; err != nil {
			return fmt.Errorf("acquiring shift lock: %w", err)
		}

		if shift.Status == models.ShiftCompleted {
			deleted, err := deleteRecomputable(tx, shiftID)
			if err != nil {
				return err
			}
			summary.TripsDeleted = deleted
		}

		cutoff, err := scanCutoff(tx, shiftID)
		if err != nil {
			return err
		}

		var fixes []models.GpsFix
		q := tx.Where("shift_id = ?", shiftID).Order("captured_at asc")
		if !cutoff.IsZero() {
			q = q.Where("captured_at >= ?", cutoff)
		}
		if err := q.Find(&fixes).Error; err != nil {
			return fmt.Errorf("loading fixes: %w", err)
		}
		summary.FixesScanned = len(fixes)

		opts := DefaultOptions()
		opts.Completed = shift.Status == models.ShiftCompleted
		result := Scan(fixes, opts)

		var locations []models.Location
		if err := tx.Where("active = ?", true).Find(&locations).Error; err != nil {
			return fmt.Errorf("loading locations: %w", err)
		}

		clusterRows, err := persistClusters(tx, shift, result.Clusters, locations, summary)
		if err != nil {
			return err
		}
		return persistTrips(tx, shift, result, clusterRows, locations, summary)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"shift_id":         shiftID,
		"status":           shift.Status,
		"fixes_scanned":    summary.FixesScanned,
		"clusters_created": summary.ClustersCreated,
		"clusters_updated": summary.ClustersUpdated,
		"trips_created":    summary.TripsCreated,
		"trips_deleted":    summary.TripsDeleted,
	}).Info("Detection run finished.")
	return summary, nil
}

// deleteRecomputable clears trips the external matcher has not consumed yet,
// plus clusters no surviving trip references. Consumed trips (and the
// clusters they point at) are immutable until the shift is re-opened.
func deleteRecomputable(tx *gorm.DB, shiftID uint) (int, error) {
	var doomed []models.Trip
	err := tx.Where("shift_id = ? AND match_status IN ?", shiftID,
		[]string{models.MatchStatusPending, models.MatchStatusProcessing}).
		Find(&doomed).Error
	if err != nil {
		return 0, err
	}
	if len(doomed) > 0 {
		ids := make([]uint, len(doomed))
		for i, t := range doomed {
			ids[i] = t.ID
		}
		if err := tx.Where("trip_id IN ?", ids).Delete(&models.TripPoint{}).Error; err != nil {
			return 0, err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Trip{}).Error; err != nil {
			return 0, err
		}
	}

	var surviving []models.Trip
	if err := tx.Where("shift_id = ?", shiftID).Find(&surviving).Error; err != nil {
		return 0, err
	}
	keep := make(map[uint]bool)
	for _, t := range surviving {
		if t.StartClusterID != nil {
			keep[*t.StartClusterID] = true
		}
		if t.EndClusterID != nil {
			keep[*t.EndClusterID] = true
		}
	}
	var clusters []models.StationaryCluster
	if err := tx.Where("shift_id = ?", shiftID).Find(&clusters).Error; err != nil {
		return 0, err
	}
	for _, c := range clusters {
		if keep[c.ID] {
			continue
		}
		if err := tx.Delete(&models.StationaryCluster{}, c.ID).Error; err != nil {
			return 0, err
		}
	}
	return len(doomed), nil
}

// scanCutoff finds where the scan should resume: the start of the latest
// persisted trip's arrival cluster, so the still-growing arrival cluster is
// re-derived in full and updated in place. Zero time means scan everything.
func scanCutoff(tx *gorm.DB, shiftID uint) (time.Time, error) {
	var last models.Trip
	err := tx.Where("shift_id = ?", shiftID).Order("ended_at desc").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if last.EndClusterID != nil {
		var arrival models.StationaryCluster
		if err := tx.First(&arrival, *last.EndClusterID).Error; err == nil {
			return arrival.StartedAt, nil
		}
	}
	return last.EndedAt, nil
}

// persistClusters writes scan clusters, updating in place any existing row
// with the same start time (a cluster that was still growing on the previous
// pass). Returns the persisted row per scan index for trip references.
func persistClusters(tx *gorm.DB, shift models.Shift, clusters []Cluster,
	locations []models.Location, summary *RunSummary) ([]models.StationaryCluster, error) {

	rows := make([]models.StationaryCluster, len(clusters))
	for i, c := range clusters {
		var existing models.StationaryCluster
		err := tx.Where("shift_id = ? AND started_at = ?", shift.ID, c.StartedAt).First(&existing).Error
		switch {
		case err == nil:
			existing.Latitude = c.Latitude
			existing.Longitude = c.Longitude
			existing.Accuracy = c.Accuracy
			existing.EndedAt = c.EndedAt
			existing.PointCount = c.PointCount
			if existing.MatchMethod != models.MatchMethodManual {
				applyClusterMatch(&existing, c, locations)
			}
			if err := tx.Save(&existing).Error; err != nil {
				return nil, fmt.Errorf("updating cluster: %w", err)
			}
			rows[i] = existing
			summary.ClustersUpdated++
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := models.StationaryCluster{
				ShiftID:    shift.ID,
				EmployeeID: shift.EmployeeID,
				Latitude:   c.Latitude,
				Longitude:  c.Longitude,
				Accuracy:   c.Accuracy,
				StartedAt:  c.StartedAt,
				EndedAt:    c.EndedAt,
				PointCount: c.PointCount,
			}
			applyClusterMatch(&row, c, locations)
			if err := tx.Create(&row).Error; err != nil {
				return nil, fmt.Errorf("creating cluster: %w", err)
			}
			rows[i] = row
			summary.ClustersCreated++
		default:
			return nil, err
		}
	}
	return rows, nil
}

// applyClusterMatch runs geofence containment on the centroid, then the
// point-voting fallback over the member fixes.
func applyClusterMatch(row *models.StationaryCluster, c Cluster, locations []models.Location) {
	loc := matching.MatchPoint(locations, c.Latitude, c.Longitude, c.Accuracy)
	if loc == nil {
		loc = matching.VoteMatch(locations, c.Points, c.Latitude, c.Longitude, matching.VoteFraction)
	}
	if loc != nil {
		id := loc.ID
		row.MatchedLocationID = &id
		row.MatchMethod = models.MatchMethodAutomatic
	} else {
		row.MatchedLocationID = nil
		row.MatchMethod = ""
	}
}

// persistTrips writes scan trips that do not exist yet, each with its point
// links in the same transaction. Existing trips (same shift and start time)
// are left untouched, which keeps externally consumed trips immutable and
// re-runs idempotent.
func persistTrips(tx *gorm.DB, shift models.Shift, result Result,
	clusterRows []models.StationaryCluster, locations []models.Location, summary *RunSummary) error {

	// Continuity seed: the latest already-persisted trip, if any.
	var prev *models.Trip
	var lastExisting models.Trip
	err := tx.Where("shift_id = ?", shift.ID).Order("ended_at desc").First(&lastExisting).Error
	if err == nil {
		prev = &lastExisting
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	for _, t := range result.Trips {
		var count int64
		err := tx.Model(&models.Trip{}).
			Where("shift_id = ? AND started_at = ?", shift.ID, t.StartedAt).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		row := models.Trip{
			ShiftID:        shift.ID,
			EmployeeID:     shift.EmployeeID,
			StartedAt:      t.StartedAt,
			EndedAt:        t.EndedAt,
			StartLatitude:  t.StartLatitude,
			StartLongitude: t.StartLongitude,
			EndLatitude:    t.EndLatitude,
			EndLongitude:   t.EndLongitude,
			DistanceKm:     t.DistanceKm,
			DurationMin:    t.DurationMin,
			Classification: models.ClassificationBusiness,
			TransportMode:  t.TransportMode,
			Confidence:     t.Confidence,
			PointCount:     t.PointCount,
			MatchStatus:    models.MatchStatusPending,
		}
		if t.StartCluster >= 0 && t.StartCluster < len(clusterRows) {
			id := clusterRows[t.StartCluster].ID
			row.StartClusterID = &id
		}
		if t.EndCluster >= 0 && t.EndCluster < len(clusterRows) {
			id := clusterRows[t.EndCluster].ID
			row.EndClusterID = &id
		}
		matchTripEndpoints(&row, t, clusterRows, locations, prev)

		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("creating trip: %w", err)
		}
		for seq, p := range t.Points {
			link := models.TripPoint{TripID: row.ID, GpsFixID: p.ID, Seq: seq}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("linking trip point: %w", err)
			}
		}
		summary.TripsCreated++
		prev = &row
	}
	return nil
}

// matchTripEndpoints assigns start/end location ids: continuity with the
// previous trip's end first, then the departure/arrival cluster's own match,
// then plain geofence containment on the raw endpoint.
func matchTripEndpoints(row *models.Trip, t Trip, clusterRows []models.StationaryCluster,
	locations []models.Location, prev *models.Trip) {

	if prev != nil && prev.EndLocationID != nil &&
		geo.Distance(prev.EndLatitude, prev.EndLongitude, t.StartLatitude, t.StartLongitude) <= ContinuityRadiusM {
		id := *prev.EndLocationID
		row.StartLocationID = &id
		row.StartMatchMethod = models.MatchMethodAutomatic
	} else if t.StartCluster >= 0 && t.StartCluster < len(clusterRows) &&
		clusterRows[t.StartCluster].MatchedLocationID != nil {
		id := *clusterRows[t.StartCluster].MatchedLocationID
		row.StartLocationID = &id
		row.StartMatchMethod = models.MatchMethodAutomatic
	} else if loc := matching.MatchPoint(locations, t.StartLatitude, t.StartLongitude, 0); loc != nil {
		id := loc.ID
		row.StartLocationID = &id
		row.StartMatchMethod = models.MatchMethodAutomatic
	}

	if t.EndCluster >= 0 && t.EndCluster < len(clusterRows) &&
		clusterRows[t.EndCluster].MatchedLocationID != nil {
		id := *clusterRows[t.EndCluster].MatchedLocationID
		row.EndLocationID = &id
		row.EndMatchMethod = models.MatchMethodAutomatic
	} else if loc := matching.MatchPoint(locations, t.EndLatitude, t.EndLongitude, 0); loc != nil {
		id := loc.ID
		row.EndLocationID = &id
		row.EndMatchMethod = models.MatchMethodAutomatic
	}
}
