package odometer

import (
	"testing"

	"github.com/rotblauer/walkd/types/fix"
	"github.com/stretchr/testify/assert"
)

func TestOdometer_Empty(t *testing.T) {
	o := New()
	assert.Zero(t, o.TotalMeters())
	assert.Equal(t, -1, o.LastIntegratedIndex())
}

func TestOdometer_FirstPointIsZero(t *testing.T) {
	o := New()
	total := o.Integrate(fix.FilteredPoint{Latitude: 45, Longitude: -111})
	assert.Zero(t, total)
	assert.Equal(t, 0, o.LastIntegratedIndex())
}

func TestOdometer_DuplicateCoordinates(t *testing.T) {
	o := New()
	p := fix.FilteredPoint{Latitude: 45, Longitude: -111}
	o.Integrate(p)
	p.TimestampMillis = 5000
	assert.Zero(t, o.Integrate(p))
	assert.Equal(t, 1, o.LastIntegratedIndex())
}

func TestOdometer_MillidegreeOfLatitude(t *testing.T) {
	o := New()
	o.Integrate(fix.FilteredPoint{})
	total := o.Integrate(fix.FilteredPoint{Latitude: 0.001, TimestampMillis: 10000})
	assert.InDelta(t, 111.3, total, 0.5)
	assert.Equal(t, total, o.TotalMeters())
}

func TestOdometer_Monotonic(t *testing.T) {
	o := New()
	pts := []fix.FilteredPoint{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0.0005, Longitude: 0},
		{Latitude: 0.0005, Longitude: 0},
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 0.0007},
	}
	last := 0.0
	for _, p := range pts {
		total := o.Integrate(p)
		assert.GreaterOrEqual(t, total, last)
		last = total
	}
	// Going back and forth still counts.
	assert.Greater(t, last, 111.0)
}
