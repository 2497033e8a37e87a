package matching

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/geo"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

// Service re-evaluates stored cluster and trip location assignments when a
// reference location is created, edited or moved. It may run concurrently
// with detection for unrelated shifts, so every match/unmatch is a
// conditional single-row update; RowsAffected keeps the statistics honest.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Stats summarizes one rematch pass.
type Stats struct {
	ClustersMatched   int `json:"clusters_matched"`
	ClustersUnmatched int `json:"clusters_unmatched"`
	TripsMatched      int `json:"trips_matched"`
	TripsUnmatched    int `json:"trips_unmatched"`
}

// LocationCreated matches previously unmatched clusters and trip endpoints
// against the new geofence. Clusters additionally get the point-voting
// fallback when their centroid lies within 3x the geofence radius.
func (s *Service) LocationCreated(loc models.Location) (Stats, error) {
	var stats Stats
	if !loc.Active {
		return stats, nil
	}

	var clusters []models.StationaryCluster
	if err := s.db.Where("matched_location_id IS NULL").Find(&clusters).Error; err != nil {
		return stats, err
	}
	for _, c := range clusters {
		ok := Contains(loc, c.Latitude, c.Longitude, c.Accuracy)
		if !ok && geo.Distance(loc.Latitude, loc.Longitude, c.Latitude, c.Longitude) <= loc.RadiusM*VoteRadiusFactor {
			points, err := s.clusterFixes(c)
			if err != nil {
				return stats, err
			}
			ok = VoteFor(loc, points) >= VoteFraction
		}
		if !ok {
			continue
		}
		res := s.db.Model(&models.StationaryCluster{}).
			Where("id = ? AND matched_location_id IS NULL", c.ID).
			Updates(map[string]interface{}{
				"matched_location_id": loc.ID,
				"match_method":        models.MatchMethodAutomatic,
			})
		if res.Error != nil {
			return stats, res.Error
		}
		stats.ClustersMatched += int(res.RowsAffected)
	}

	var trips []models.Trip
	if err := s.db.Where("start_location_id IS NULL OR end_location_id IS NULL").Find(&trips).Error; err != nil {
		return stats, err
	}
	acc, err := s.clusterAccuracies(trips)
	if err != nil {
		return stats, err
	}
	for _, t := range trips {
		if t.StartLocationID == nil && Contains(loc, t.StartLatitude, t.StartLongitude, accuracyFor(acc, t.StartClusterID)) {
			res := s.db.Model(&models.Trip{}).
				Where("id = ? AND start_location_id IS NULL", t.ID).
				Updates(map[string]interface{}{
					"start_location_id":  loc.ID,
					"start_match_method": models.MatchMethodAutomatic,
				})
			if res.Error != nil {
				return stats, res.Error
			}
			stats.TripsMatched += int(res.RowsAffected)
		}
		if t.EndLocationID == nil && Contains(loc, t.EndLatitude, t.EndLongitude, accuracyFor(acc, t.EndClusterID)) {
			res := s.db.Model(&models.Trip{}).
				Where("id = ? AND end_location_id IS NULL", t.ID).
				Updates(map[string]interface{}{
					"end_location_id":  loc.ID,
					"end_match_method": models.MatchMethodAutomatic,
				})
			if res.Error != nil {
				return stats, res.Error
			}
			stats.TripsMatched += int(res.RowsAffected)
		}
	}

	logrus.WithFields(logrus.Fields{
		"location_id":      loc.ID,
		"clusters_matched": stats.ClustersMatched,
		"trips_matched":    stats.TripsMatched,
	}).Info("Rematch pass for new location finished.")
	return stats, nil
}

// LocationUpdated handles an edited or moved geofence in two phases: unmatch
// rows the new geometry no longer covers, then match rows it newly covers.
// Only automatic assignments are eligible for unmatching; a cluster also
// stays matched if its raw fixes still vote inside the new geometry, even
// though the centroid drifted out.
func (s *Service) LocationUpdated(loc models.Location) (Stats, error) {
	var stats Stats

	var clusters []models.StationaryCluster
	err := s.db.Where("matched_location_id = ? AND match_method = ?", loc.ID, models.MatchMethodAutomatic).
		Find(&clusters).Error
	if err != nil {
		return stats, err
	}
	for _, c := range clusters {
		if loc.Active && Contains(loc, c.Latitude, c.Longitude, c.Accuracy) {
			continue
		}
		if loc.Active {
			points, err := s.clusterFixes(c)
			if err != nil {
				return stats, err
			}
			if VoteFor(loc, points) >= VoteFraction {
				continue
			}
		}
		res := s.db.Model(&models.StationaryCluster{}).
			Where("id = ? AND matched_location_id = ?", c.ID, loc.ID).
			Updates(map[string]interface{}{
				"matched_location_id": nil,
				"match_method":        "",
			})
		if res.Error != nil {
			return stats, res.Error
		}
		stats.ClustersUnmatched += int(res.RowsAffected)
	}

	var trips []models.Trip
	err = s.db.Where("(start_location_id = ? AND start_match_method = ?) OR (end_location_id = ? AND end_match_method = ?)",
		loc.ID, models.MatchMethodAutomatic, loc.ID, models.MatchMethodAutomatic).
		Find(&trips).Error
	if err != nil {
		return stats, err
	}
	acc, err := s.clusterAccuracies(trips)
	if err != nil {
		return stats, err
	}
	for _, t := range trips {
		if t.StartLocationID != nil && *t.StartLocationID == loc.ID && t.StartMatchMethod == models.MatchMethodAutomatic &&
			!(loc.Active && Contains(loc, t.StartLatitude, t.StartLongitude, accuracyFor(acc, t.StartClusterID))) {
			res := s.db.Model(&models.Trip{}).
				Where("id = ? AND start_location_id = ?", t.ID, loc.ID).
				Updates(map[string]interface{}{"start_location_id": nil, "start_match_method": ""})
			if res.Error != nil {
				return stats, res.Error
			}
			stats.TripsUnmatched += int(res.RowsAffected)
		}
		if t.EndLocationID != nil && *t.EndLocationID == loc.ID && t.EndMatchMethod == models.MatchMethodAutomatic &&
			!(loc.Active && Contains(loc, t.EndLatitude, t.EndLongitude, accuracyFor(acc, t.EndClusterID))) {
			res := s.db.Model(&models.Trip{}).
				Where("id = ? AND end_location_id = ?", t.ID, loc.ID).
				Updates(map[string]interface{}{"end_location_id": nil, "end_match_method": ""})
			if res.Error != nil {
				return stats, res.Error
			}
			stats.TripsUnmatched += int(res.RowsAffected)
		}
	}

	matched, err := s.LocationCreated(loc)
	if err != nil {
		return stats, err
	}
	stats.ClustersMatched = matched.ClustersMatched
	stats.TripsMatched = matched.TripsMatched

	logrus.WithFields(logrus.Fields{
		"location_id":        loc.ID,
		"clusters_unmatched": stats.ClustersUnmatched,
		"trips_unmatched":    stats.TripsUnmatched,
		"clusters_matched":   stats.ClustersMatched,
		"trips_matched":      stats.TripsMatched,
	}).Info("Rematch pass for updated location finished.")
	return stats, nil
}

// clusterFixes loads the raw member fixes of a cluster for point voting.
func (s *Service) clusterFixes(c models.StationaryCluster) ([]models.GpsFix, error) {
	var fixes []models.GpsFix
	err := s.db.Where("shift_id = ? AND captured_at BETWEEN ? AND ?", c.ShiftID, c.StartedAt, c.EndedAt).
		Order("captured_at asc").
		Find(&fixes).Error
	return fixes, err
}

// clusterAccuracies maps the referenced departure/arrival cluster ids of the
// given trips to their centroid accuracy, so trip endpoints are tested with
// the accuracy of the cluster they came from.
func (s *Service) clusterAccuracies(trips []models.Trip) (map[uint]float64, error) {
	ids := make([]uint, 0, len(trips)*2)
	for _, t := range trips {
		if t.StartClusterID != nil {
			ids = append(ids, *t.StartClusterID)
		}
		if t.EndClusterID != nil {
			ids = append(ids, *t.EndClusterID)
		}
	}
	out := make(map[uint]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var clusters []models.StationaryCluster
	if err := s.db.Where("id IN ?", ids).Find(&clusters).Error; err != nil {
		return nil, err
	}
	for _, c := range clusters {
		out[c.ID] = c.Accuracy
	}
	return out, nil
}

// accuracyFor looks up a referenced cluster's accuracy; raw-point endpoints
// get zero.
func accuracyFor(acc map[uint]float64, clusterID *uint) float64 {
	if clusterID == nil {
		return 0
	}
	return acc[*clusterID]
}
