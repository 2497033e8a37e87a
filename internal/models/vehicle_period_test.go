package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVehiclePeriodCovers(t *testing.T) {
	t.Parallel()

	starts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ends := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	day := func(m time.Month, d int) time.Time {
		return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
	}

	bounded := VehiclePeriod{EmployeeID: 1, StartsOn: starts, EndsOn: &ends, Active: true}
	assert.True(t, bounded.Covers(day(3, 15)))
	assert.True(t, bounded.Covers(starts))
	assert.True(t, bounded.Covers(ends))
	assert.False(t, bounded.Covers(day(12, 31)))
	assert.False(t, bounded.Covers(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))

	open := VehiclePeriod{EmployeeID: 1, StartsOn: starts, Active: true}
	assert.True(t, open.Covers(day(12, 31)))

	inactive := VehiclePeriod{EmployeeID: 1, StartsOn: starts, Active: false}
	assert.False(t, inactive.Covers(day(3, 15)))
}
