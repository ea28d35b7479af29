package tracker

import (
	"github.com/rotblauer/walkd/geo/act"
	"github.com/rotblauer/walkd/types/activity"
	"github.com/rotblauer/walkd/types/fix"
)

// Stats are the diagnostic counts for a session.
type Stats struct {
	Accepted                 int64   `json:"accepted"`
	RejectedLowAccuracy      int64   `json:"rejected_low_accuracy"`
	RejectedImplausibleSpeed int64   `json:"rejected_implausible_speed"`
	StepSamples              int64   `json:"step_samples"`
	StepResets               int64   `json:"step_resets"`
	FixRate1                 float64 `json:"fix_rate_1m"`
}

func (st Stats) Rejected() int64 {
	return st.RejectedLowAccuracy + st.RejectedImplausibleSpeed
}

func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats()
}

func (s *Session) stats() Stats {
	return Stats{
		Accepted:                 s.accepted.Snapshot().Count(),
		RejectedLowAccuracy:      s.rejectedAcc.Snapshot().Count(),
		RejectedImplausibleSpeed: s.rejectedSpd.Snapshot().Count(),
		StepSamples:              s.stepSamples.Snapshot().Count(),
		StepResets:               s.stepResets.Snapshot().Count(),
		FixRate1:                 s.fixMeter.Snapshot().Rate1(),
	}
}

// Snapshot is a point-in-time copy of everything a session exposes.
type Snapshot struct {
	LastOutcome    *fix.Outcome        `json:"last_outcome,omitempty"`
	SimplifiedPath []fix.FilteredPoint `json:"simplified_path"`
	PathLength     int                 `json:"path_length"`
	TotalMeters    float64             `json:"total_meters"`
	TotalSteps     int                 `json:"total_steps"`
	State          activity.Activity   `json:"state"`
	StateSince     int64               `json:"state_since"`
	Transitions    []act.Transition    `json:"transitions"`
	Rejections     []Rejection         `json:"recent_rejections"`
	Stats          Stats               `json:"stats"`
}

// Snapshot holds the session read lock so that every field reflects the
// same moment.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		SimplifiedPath: s.smoother.SimplifiedPath(),
		PathLength:     s.smoother.Len(),
		TotalMeters:    s.odometer.TotalMeters(),
		TotalSteps:     s.steps.TotalSteps(),
		State:          s.stabilizer.State(),
		StateSince:     s.stabilizer.Since(),
		Transitions:    s.stabilizer.Transitions(),
		Rejections:     s.rejections.Get(),
		Stats:          s.stats(),
	}
	if s.last != nil {
		last := *s.last
		snap.LastOutcome = &last
	}
	return snap
}
