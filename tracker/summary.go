package tracker

import (
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rotblauer/walkd/common"
	"github.com/rotblauer/walkd/geo/act"
	"github.com/rotblauer/walkd/types/activity"
	"github.com/rotblauer/walkd/types/fix"
)

type Summary struct {
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	Duration    time.Duration `json:"duration"`
	WalkingTime time.Duration `json:"walking_time"`
	TotalMeters float64       `json:"total_meters"`
	TotalSteps  int           `json:"total_steps"`
	Points      int           `json:"points"`
	Vertices    int           `json:"vertices"`
	SpeedMean   float64       `json:"speed_mean"`
	SpeedMedian float64       `json:"speed_median"`
	SpeedP95    float64       `json:"speed_p95"`
	Stats       Stats         `json:"stats"`
}

// Summarize describes a smoothed path and its movement transitions.
// Speeds are the filter's smoothed velocities, rounded to centimeters per second.
func Summarize(points []fix.FilteredPoint, transitions []act.Transition) Summary {
	sum := Summary{Points: len(points)}
	if len(points) == 0 {
		return sum
	}
	first, last := points[0], points[len(points)-1]
	sum.Start, sum.End = first.Time(), last.Time()
	sum.Duration = sum.End.Sub(sum.Start)
	sum.WalkingTime = walkingTime(transitions, last.TimestampMillis)

	velocities := make([]float64, 0, len(points))
	for _, p := range points {
		velocities = append(velocities, p.Velocity)
	}
	statsMustFloat := func(fn func() (float64, error)) float64 {
		out, err := fn()
		if err != nil {
			return 0
		}
		return common.DecimalToFixed(out, 2)
	}
	data := stats.Float64Data(velocities)
	sum.SpeedMean = statsMustFloat(data.Mean)
	sum.SpeedMedian = statsMustFloat(data.Median)
	sum.SpeedP95 = statsMustFloat(func() (float64, error) {
		return data.Percentile(95)
	})
	return sum
}

// walkingTime totals the spans spent Walking, up to endMillis.
func walkingTime(transitions []act.Transition, endMillis int64) time.Duration {
	var total int64
	var walkingSince int64
	walking := false
	for _, tr := range transitions {
		switch {
		case tr.To == activity.TrackerStateWalking && !walking:
			walking = true
			walkingSince = tr.TimestampMillis
		case tr.To == activity.TrackerStateStationary && walking:
			walking = false
			total += tr.TimestampMillis - walkingSince
		}
	}
	if walking && endMillis > walkingSince {
		total += endMillis - walkingSince
	}
	return time.Duration(total) * time.Millisecond
}

// Summary summarizes the session so far.
func (s *Session) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary()
}

func (s *Session) summary() Summary {
	sum := Summarize(s.smoother.Path(), s.stabilizer.Transitions())
	sum.TotalMeters = s.odometer.TotalMeters()
	sum.TotalSteps = s.steps.TotalSteps()
	sum.Vertices = len(s.smoother.SimplifiedPath())
	sum.Stats = s.stats()
	return sum
}
