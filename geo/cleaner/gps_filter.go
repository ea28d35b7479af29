package cleaner

import (
	"github.com/rotblauer/walkd/geo/kalman"
	"github.com/rotblauer/walkd/params"
	"github.com/rotblauer/walkd/types/fix"
)

// GpsFilter runs the accuracy gate, the speed gate, and the Kalman filter,
// in that order, over each raw fix.
//
// The speed gate compares the raw candidate against the last accepted
// point, not the Kalman estimate, so a precise but teleported fix never
// reaches the filter state. A rejected fix changes nothing.
type GpsFilter struct {
	accuracy AccuracyFilter
	speed    SpeedFilter
	kalman   *kalman.Filter

	lastAccepted *fix.FilteredPoint
}

func NewGpsFilter(config *params.PipelineConfig) *GpsFilter {
	if config == nil {
		config = params.DefaultPipelineConfig()
	}
	return &GpsFilter{
		accuracy: AccuracyFilter{MaxAccuracyMeters: config.MaxAccuracyMeters},
		speed:    SpeedFilter{MaxSpeedMetersPerSecond: config.MaxSpeedMetersPerSecond},
		kalman:   kalman.NewFilter(config.KalmanProcessNoise, config.InitialVelocityVariance),
	}
}

// Process returns exactly one outcome for the fix.
func (g *GpsFilter) Process(rf fix.RawFix) fix.Outcome {
	if !g.accuracy.Evaluate(rf) {
		return fix.RejectedOutcome(fix.RejectedLowAccuracy)
	}
	if !g.speed.Evaluate(rf, g.lastAccepted) {
		return fix.RejectedOutcome(fix.RejectedImplausibleSpeed)
	}
	pt := g.kalman.Update(rf)

	// The speed gate measures from where the fix said it was,
	// with the timestamp of acceptance.
	raw := fix.FilteredPoint{
		Latitude:        rf.Latitude,
		Longitude:       rf.Longitude,
		TimestampMillis: rf.TimestampMillis,
		Velocity:        pt.Velocity,
	}
	g.lastAccepted = &raw
	return fix.AcceptedOutcome(pt)
}

// LastAccepted returns the raw position of the last accepted fix, if any.
func (g *GpsFilter) LastAccepted() (fix.FilteredPoint, bool) {
	if g.lastAccepted == nil {
		return fix.FilteredPoint{}, false
	}
	return *g.lastAccepted, true
}

// KalmanState exposes the smoothing filter's estimate for diagnostics.
func (g *GpsFilter) KalmanState() kalman.State {
	return g.kalman.State()
}

// Reset clears the filter for a new session.
func (g *GpsFilter) Reset() {
	g.kalman.Reset()
	g.lastAccepted = nil
}
