package carpool

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/geo"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

const (
	// EndpointRadiusM: both start points and both end points of a carpool
	// pair must be within this distance of each other.
	EndpointRadiusM = 200.0

	// MinOverlapShare of the shorter trip's duration that the two time
	// windows must share.
	MinOverlapShare = 0.80
)

// Pairable reports whether two driving trips by different employees look
// like one shared vehicle movement.
func Pairable(a, b models.Trip) bool {
	if a.EmployeeID == b.EmployeeID {
		return false
	}
	if geo.Distance(a.StartLatitude, a.StartLongitude, b.StartLatitude, b.StartLongitude) > EndpointRadiusM {
		return false
	}
	if geo.Distance(a.EndLatitude, a.EndLongitude, b.EndLatitude, b.EndLongitude) > EndpointRadiusM {
		return false
	}

	overlap := overlapDuration(a, b)
	shorter := a.EndedAt.Sub(a.StartedAt)
	if d := b.EndedAt.Sub(b.StartedAt); d < shorter {
		shorter = d
	}
	if shorter <= 0 {
		return false
	}
	return float64(overlap) >= MinOverlapShare*float64(shorter)
}

func overlapDuration(a, b models.Trip) time.Duration {
	start := a.StartedAt
	if b.StartedAt.After(start) {
		start = b.StartedAt
	}
	end := a.EndedAt
	if b.EndedAt.Before(end) {
		end = b.EndedAt
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// GroupTrips clusters pairable trips transitively and returns groups of at
// least two, as sorted index lists into the input slice, ordered by their
// smallest member.
func GroupTrips(trips []models.Trip) [][]int {
	u := newUnionFind(len(trips))
	for i := 0; i < len(trips); i++ {
		for j := i + 1; j < len(trips); j++ {
			if Pairable(trips[i], trips[j]) {
				u.union(i, j)
			}
		}
	}

	members := make(map[int][]int)
	for i := range trips {
		root := u.find(i)
		members[root] = append(members[root], i)
	}

	var groups [][]int
	for _, m := range members {
		if len(m) < 2 {
			continue
		}
		sort.Ints(m)
		groups = append(groups, m)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri != rj {
		u.parent[rj] = ri
	}
}

// Detector is the daily batch job. It must not run concurrently with
// detection runs still creating or deleting trips for the same date.
type Detector struct {
	db *gorm.DB
}

func NewDetector(db *gorm.DB) *Detector {
	return &Detector{db: db}
}

// Summary reports one carpool batch run.
type Summary struct {
	Date          string `json:"date"`
	GroupsCreated int    `json:"groups_created"`
	TripsGrouped  int    `json:"trips_grouped"`
}

// Run rebuilds the carpool groups for one calendar date. Idempotent: any
// existing groups and memberships for that date are dropped first.
//
// Day boundaries are UTC: a trip belongs to the UTC date of its start time,
// matching how fixes and trips are stored. A trip starting before midnight
// UTC lands on the previous day's run even if the crew's local date differs.
func (d *Detector) Run(date time.Time) (*Summary, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)
	summary := &Summary{Date: day.Format("2006-01-02")}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		var old []models.CarpoolGroup
		if err := tx.Where("date = ?", day).Find(&old).Error; err != nil {
			return err
		}
		if len(old) > 0 {
			ids := make([]uint, len(old))
			for i, g := range old {
				ids[i] = g.ID
			}
			if err := tx.Where("group_id IN ?", ids).Delete(&models.CarpoolMembership{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ids).Delete(&models.CarpoolGroup{}).Error; err != nil {
				return err
			}
		}

		var trips []models.Trip
		err := tx.Where("transport_mode = ? AND started_at >= ? AND started_at < ?",
			models.ModeDriving, day, next).
			Order("started_at asc, id asc").
			Find(&trips).Error
		if err != nil {
			return err
		}

		for _, group := range GroupTrips(trips) {
			driverID, needsReview, err := assignDriver(tx, trips, group, day)
			if err != nil {
				return err
			}

			row := models.CarpoolGroup{Date: day, DriverEmployeeID: driverID, NeedsReview: needsReview}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("creating carpool group: %w", err)
			}
			for _, idx := range group {
				t := trips[idx]
				role := models.CarpoolRoleUnassigned
				if driverID != nil {
					if t.EmployeeID == *driverID {
						role = models.CarpoolRoleDriver
					} else {
						role = models.CarpoolRolePassenger
					}
				}
				m := models.CarpoolMembership{GroupID: row.ID, TripID: t.ID, EmployeeID: t.EmployeeID, Role: role}
				if err := tx.Create(&m).Error; err != nil {
					return fmt.Errorf("creating carpool membership: %w", err)
				}
				summary.TripsGrouped++
			}
			summary.GroupsCreated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"date":           summary.Date,
		"groups_created": summary.GroupsCreated,
		"trips_grouped":  summary.TripsGrouped,
	}).Info("Carpool batch finished.")
	return summary, nil
}

// assignDriver picks the group's driver from members holding an active
// personal vehicle period on that date. Exactly one candidate is the clean
// case; zero or several flags the group for review, with several resolved
// deterministically by employee name.
func assignDriver(tx *gorm.DB, trips []models.Trip, group []int, day time.Time) (*uint, bool, error) {
	employeeIDs := make([]uint, 0, len(group))
	seen := make(map[uint]bool)
	for _, idx := range group {
		id := trips[idx].EmployeeID
		if !seen[id] {
			seen[id] = true
			employeeIDs = append(employeeIDs, id)
		}
	}

	var periods []models.VehiclePeriod
	err := tx.Where("employee_id IN ? AND active = ?", employeeIDs, true).Find(&periods).Error
	if err != nil {
		return nil, false, err
	}
	candidates := make(map[uint]bool)
	for _, p := range periods {
		if p.Covers(day) {
			candidates[p.EmployeeID] = true
		}
	}

	switch len(candidates) {
	case 0:
		return nil, true, nil
	case 1:
		for id := range candidates {
			driverID := id
			return &driverID, false, nil
		}
	}

	// Ambiguous: several members have a vehicle. Pick deterministically but
	// leave the group flagged.
	ids := make([]uint, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	var employees []models.Employee
	if err := tx.Where("id IN ?", ids).Find(&employees).Error; err != nil {
		return nil, false, err
	}
	sort.Slice(employees, func(i, j int) bool {
		if employees[i].Name != employees[j].Name {
			return employees[i].Name < employees[j].Name
		}
		return employees[i].ID < employees[j].ID
	})
	driverID := employees[0].ID
	return &driverID, true, nil
}
