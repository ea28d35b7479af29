package steps

import (
	"testing"

	"github.com/rotblauer/walkd/types/activity"
	"github.com/stretchr/testify/assert"
)

type fixedState activity.Activity

func (f *fixedState) State() activity.Activity { return activity.Activity(*f) }

func newEstimator(a activity.Activity) (*Estimator, *fixedState) {
	fs := fixedState(a)
	return NewEstimator(&fs), &fs
}

func TestEstimator_FirstSampleIsBaseline(t *testing.T) {
	e, _ := newEstimator(activity.TrackerStateWalking)
	_, ok := e.LastRawSensorCount()
	assert.False(t, ok)

	assert.Zero(t, e.OnSensorStepCount(100))
	assert.Zero(t, e.TotalSteps())
	last, ok := e.LastRawSensorCount()
	assert.True(t, ok)
	assert.Equal(t, 100, last)
}

func TestEstimator_CountsAndRebases(t *testing.T) {
	e, _ := newEstimator(activity.TrackerStateWalking)
	e.OnSensorStepCount(100)
	assert.Equal(t, 150, e.OnSensorStepCount(250))
	assert.Equal(t, 150, e.TotalSteps())

	assert.Zero(t, e.OnSensorStepCount(50))
	assert.Equal(t, 150, e.TotalSteps())
	last, _ := e.LastRawSensorCount()
	assert.Equal(t, 50, last)
	assert.Equal(t, 1, e.Resets())

	assert.Equal(t, 30, e.OnSensorStepCount(80))
	assert.Equal(t, 180, e.TotalSteps())
	assert.Equal(t, 4, e.Samples())
}

func TestEstimator_StationaryMovesBaselineOnly(t *testing.T) {
	e, state := newEstimator(activity.TrackerStateStationary)
	e.OnSensorStepCount(100)
	assert.Zero(t, e.OnSensorStepCount(140))
	assert.Zero(t, e.TotalSteps())

	*state = fixedState(activity.TrackerStateWalking)
	assert.Equal(t, 10, e.OnSensorStepCount(150))
	assert.Equal(t, 10, e.TotalSteps())
}

func TestEstimator_UnchangedCount(t *testing.T) {
	e, _ := newEstimator(activity.TrackerStateWalking)
	e.OnSensorStepCount(7)
	assert.Zero(t, e.OnSensorStepCount(7))
	assert.Zero(t, e.Resets())
}
