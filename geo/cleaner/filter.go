package cleaner

import (
	"math"

	"github.com/paulmach/orb/geo"
	"github.com/rotblauer/walkd/types/fix"
)

// AccuracyFilter rejects fixes whose reported horizontal accuracy
// is worse than MaxAccuracyMeters. It has no state.
type AccuracyFilter struct {
	MaxAccuracyMeters float64
}

// Evaluate returns true if the fix passes.
// Negative or NaN accuracies break the input contract and are treated as poor,
// as are positions that are not finite, in-range coordinates.
func (f AccuracyFilter) Evaluate(rf fix.RawFix) bool {
	if !ValidPosition(rf) {
		return false
	}
	acc := rf.HorizontalAccuracy
	return acc >= 0 && acc <= f.MaxAccuracyMeters
}

// ValidPosition reports whether the fix latitude is within [-90, 90]
// and its longitude within [-180, 180]. NaN and infinities fail.
func ValidPosition(rf fix.RawFix) bool {
	return rf.Latitude >= -90 && rf.Latitude <= 90 &&
		rf.Longitude >= -180 && rf.Longitude <= 180
}

// SpeedFilter rejects fixes that imply an implausible speed from the last
// accepted point, eg. GPS teleports and multipath jumps.
// It is stateless; the caller supplies the last accepted point.
type SpeedFilter struct {
	MaxSpeedMetersPerSecond float64
}

// Evaluate returns true if the candidate passes.
// With no prior accepted point the candidate always passes.
// Duplicate or out-of-order timestamps are rejected.
func (f SpeedFilter) Evaluate(candidate fix.RawFix, lastAccepted *fix.FilteredPoint) bool {
	if lastAccepted == nil {
		return true
	}
	elapsed := candidate.TimestampMillis - lastAccepted.TimestampMillis
	if elapsed <= 0 {
		return false
	}
	speed := ImpliedSpeed(candidate, *lastAccepted)
	return !math.IsNaN(speed) && speed <= f.MaxSpeedMetersPerSecond
}

// ImpliedSpeed is the great-circle speed in m/s needed to get from last to candidate.
// It is +Inf when no time has passed.
func ImpliedSpeed(candidate fix.RawFix, last fix.FilteredPoint) float64 {
	elapsed := float64(candidate.TimestampMillis-last.TimestampMillis) / 1000
	if elapsed <= 0 {
		return math.Inf(1)
	}
	return geo.DistanceHaversine(last.Point(), candidate.Point()) / elapsed
}
