// Package steps turns a platform's cumulative step counter into a session
// step total that survives counter resets.
package steps

import (
	"sync"

	"github.com/rotblauer/walkd/types/activity"
)

// MovementSource reports the current movement state.
type MovementSource interface {
	State() activity.Activity
}

type Estimator struct {
	movement MovementSource

	mu         sync.RWMutex
	totalSteps int
	lastRaw    *int
	samples    int
	resets     int
}

func NewEstimator(movement MovementSource) *Estimator {
	return &Estimator{movement: movement}
}

// OnSensorStepCount consumes one cumulative hardware count and returns the
// steps added by it.
//
// The first sample only sets the baseline. A count lower than the baseline
// means the sensor was reset; it rebases and adds nothing. Steps are only
// counted while Walking, but the baseline always tracks the sensor.
func (e *Estimator) OnSensorStepCount(rawCumulativeCount int) int {
	state := e.movement.State()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples++

	if e.lastRaw == nil {
		e.lastRaw = &rawCumulativeCount
		return 0
	}
	delta := rawCumulativeCount - *e.lastRaw
	*e.lastRaw = rawCumulativeCount
	if delta < 0 {
		e.resets++
		return 0
	}
	if !state.IsActive() {
		return 0
	}
	e.totalSteps += delta
	return delta
}

func (e *Estimator) TotalSteps() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalSteps
}

// LastRawSensorCount returns the baseline, if any sample has been seen.
func (e *Estimator) LastRawSensorCount() (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastRaw == nil {
		return 0, false
	}
	return *e.lastRaw, true
}

func (e *Estimator) Samples() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.samples
}

// Resets is the number of sensor counter resets observed.
func (e *Estimator) Resets() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.resets
}
