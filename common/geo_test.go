package common

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
)

func TestLocalPlane_RoundTrip(t *testing.T) {
	lp := NewLocalPlane(orb.Point{-93.2593, 44.9851})
	p := orb.Point{-93.2581, 44.9860}
	e, n := lp.ToLocal(p)
	back := lp.ToPoint(e, n)
	assert.InDelta(t, p.Lon(), back.Lon(), 1e-9)
	assert.InDelta(t, p.Lat(), back.Lat(), 1e-9)
}

func TestLocalPlane_MatchesHaversine(t *testing.T) {
	origin := orb.Point{-111.6903, 45.5710}
	lp := NewLocalPlane(origin)
	p := orb.Point{-111.6880, 45.5725}
	pp := lp.Planar(p)
	want := geo.DistanceHaversine(origin, p)
	assert.InDelta(t, want, math.Hypot(pp[0], pp[1]), want*0.005)
}

func TestLocalPlane_AcrossAntimeridian(t *testing.T) {
	lp := NewLocalPlane(orb.Point{179.9999, -16.5})
	p := orb.Point{-179.9999, -16.5}

	e, n := lp.ToLocal(p)
	want := geo.DistanceHaversine(lp.Origin, p)
	assert.InDelta(t, want, e, 0.01)
	assert.InDelta(t, 0, n, 1e-9)

	back := lp.ToPoint(e, n)
	assert.InDelta(t, p.Lon(), back.Lon(), 1e-9)
	assert.InDelta(t, p.Lat(), back.Lat(), 1e-9)

	w, _ := lp.ToLocal(orb.Point{179.9990, -16.5})
	assert.Less(t, w, 0.0)
}

func TestWrapLongitude(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{-93.26, -93.26},
		{-180, -180},
		{180, -180},
		{359.9998, -0.0002},
		{-359.9998, 0.0002},
		{540, -180},
		{-190, 170},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, WrapLongitude(tt.in), 1e-9, "%v", tt.in)
	}
}
