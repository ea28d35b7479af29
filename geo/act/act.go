/*
Package act decides whether a walker is moving or standing still.

Stationary is sticky: one slow sample does not stop a walk. Velocity must
stay at or below the threshold for the whole stable duration before the
state drops back to Stationary. Any sample above the threshold starts
Walking immediately.
*/

package act

import (
	"fmt"
	"sync"
	"time"

	"github.com/rotblauer/walkd/types/activity"
)

type Transition struct {
	From            activity.Activity `json:"from"`
	To              activity.Activity `json:"to"`
	TimestampMillis int64             `json:"time"`
}

func (t Transition) Time() time.Time {
	return time.UnixMilli(t.TimestampMillis)
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s @ %s", t.From, t.To, t.Time().Format(time.RFC3339))
}

type Stabilizer struct {
	Threshold      float64
	StableDuration time.Duration

	mu          sync.RWMutex
	state       activity.Activity
	since       int64
	lowSince    int64
	haveLow     bool
	transitions []Transition
}

func NewStabilizer(threshold float64, stableDuration time.Duration) *Stabilizer {
	return &Stabilizer{
		Threshold:      threshold,
		StableDuration: stableDuration,
		state:          activity.TrackerStateStationary,
	}
}

// OnVelocitySample feeds one smoothed velocity reading.
// It returns the transition it caused, if any.
func (s *Stabilizer) OnVelocitySample(velocity float64, timestampMillis int64) (Transition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if velocity > s.Threshold {
		s.haveLow = false
		if s.state == activity.TrackerStateWalking {
			return Transition{}, false
		}
		return s.transition(activity.TrackerStateWalking, timestampMillis), true
	}

	if s.state == activity.TrackerStateStationary {
		return Transition{}, false
	}
	if !s.haveLow {
		s.haveLow = true
		s.lowSince = timestampMillis
	}
	if timestampMillis-s.lowSince < s.StableDuration.Milliseconds() {
		return Transition{}, false
	}
	s.haveLow = false
	return s.transition(activity.TrackerStateStationary, timestampMillis), true
}

func (s *Stabilizer) transition(to activity.Activity, ms int64) Transition {
	tr := Transition{From: s.state, To: to, TimestampMillis: ms}
	s.state = to
	s.since = ms
	s.transitions = append(s.transitions, tr)
	return tr
}

func (s *Stabilizer) State() activity.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Since is the timestamp of the last transition, or zero if there was none.
func (s *Stabilizer) Since() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.since
}

func (s *Stabilizer) Transitions() []Transition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transition, len(s.transitions))
	copy(out, s.transitions)
	return out
}
