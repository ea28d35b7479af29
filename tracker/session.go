/*
Package tracker owns the pipeline for one walking session.

A Session is built at session start and thrown away at session end.
One goroutine writes to it: either by calling Process and OnStepCount
in order, or by handing Run a channel of inputs. Any number of readers
may take snapshots concurrently.
*/

package tracker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/walkd/common"
	"github.com/rotblauer/walkd/geo/act"
	"github.com/rotblauer/walkd/geo/cleaner"
	"github.com/rotblauer/walkd/geo/odometer"
	"github.com/rotblauer/walkd/geo/path"
	"github.com/rotblauer/walkd/geo/steps"
	"github.com/rotblauer/walkd/params"
	"github.com/rotblauer/walkd/types/activity"
	"github.com/rotblauer/walkd/types/fix"
)

// RecentRejectionsN is how many rejected fixes a session remembers.
var RecentRejectionsN = 32

// Rejection is a fix the filter refused, and why.
type Rejection struct {
	Fix     fix.RawFix  `json:"fix"`
	Verdict fix.Verdict `json:"verdict"`
}

type Session struct {
	Config params.PipelineConfig

	logger *slog.Logger

	mu         sync.RWMutex
	filter     *cleaner.GpsFilter
	smoother   *path.Smoother
	odometer   *odometer.Odometer
	stabilizer *act.Stabilizer
	steps      *steps.Estimator
	last       *fix.Outcome
	rejections *common.RingBuffer[Rejection]

	reg         metrics.Registry
	accepted    metrics.Counter
	rejectedAcc metrics.Counter
	rejectedSpd metrics.Counter
	stepSamples metrics.Counter
	stepResets  metrics.Counter
	fixMeter    metrics.Meter

	transitionFeed event.FeedOf[act.Transition]
}

// NewSession validates the config and builds a fresh pipeline.
// A nil config means defaults; a nil logger means slog.Default().
func NewSession(config *params.PipelineConfig, logger *slog.Logger) (*Session, error) {
	if config == nil {
		config = params.DefaultPipelineConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	stabilizer := act.NewStabilizer(config.MovingSpeedThreshold, config.StableDuration)
	s := &Session{
		Config:      *config,
		logger:      logger,
		filter:      cleaner.NewGpsFilter(config),
		smoother:    path.NewSmoother(config.SimplifyToleranceMeters),
		odometer:    odometer.New(),
		stabilizer:  stabilizer,
		steps:       steps.NewEstimator(stabilizer),
		rejections:  common.NewRingBuffer[Rejection](RecentRejectionsN),
		reg:         metrics.NewRegistry(),
		accepted:    metrics.NewCounter(),
		rejectedAcc: metrics.NewCounter(),
		rejectedSpd: metrics.NewCounter(),
		stepSamples: metrics.NewCounter(),
		stepResets:  metrics.NewCounter(),
		fixMeter:    metrics.NewMeter(),
	}
	for name, m := range map[string]interface{}{
		"fix.accepted":                   s.accepted,
		"fix.rejected.low_accuracy":      s.rejectedAcc,
		"fix.rejected.implausible_speed": s.rejectedSpd,
		"steps.samples":                  s.stepSamples,
		"steps.resets":                   s.stepResets,
		"fix.meter":                      s.fixMeter,
	} {
		if err := s.reg.Register(name, m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Process runs one raw fix through the pipeline and returns its outcome.
func (s *Session) Process(rf fix.RawFix) fix.Outcome {
	out, tr, changed := s.process(rf)
	if changed {
		s.announce(tr)
	}
	return out
}

// ProcessBatch is the same as calling Process for each fix in order.
func (s *Session) ProcessBatch(fixes []fix.RawFix) []fix.Outcome {
	outs := make([]fix.Outcome, 0, len(fixes))
	for _, rf := range fixes {
		outs = append(outs, s.Process(rf))
	}
	return outs
}

func (s *Session) process(rf fix.RawFix) (fix.Outcome, act.Transition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fixMeter.Mark(1)
	out := s.filter.Process(rf)
	s.last = &out

	pt, ok := out.Accepted()
	if !ok {
		switch out.Verdict {
		case fix.RejectedLowAccuracy:
			s.rejectedAcc.Inc(1)
		case fix.RejectedImplausibleSpeed:
			s.rejectedSpd.Inc(1)
		}
		s.rejections.Add(Rejection{Fix: rf, Verdict: out.Verdict})
		s.logger.Debug("Rejected fix", "verdict", out.Verdict,
			"accuracy", rf.HorizontalAccuracy, "lat", rf.Latitude, "lon", rf.Longitude,
			"time", rf.TimestampMillis)
		return out, act.Transition{}, false
	}

	s.accepted.Inc(1)
	s.smoother.Append(pt)
	s.odometer.Integrate(pt)
	tr, changed := s.stabilizer.OnVelocitySample(pt.Velocity, pt.TimestampMillis)
	return out, tr, changed
}

// announce logs and publishes a transition. It runs outside the session lock
// because the feed blocks until every subscriber has taken the value.
func (s *Session) announce(tr act.Transition) {
	s.logger.Info("Movement state changed", "from", tr.From, "to", tr.To, "time", tr.Time())
	s.transitionFeed.Send(tr)
}

// OnStepCount feeds one cumulative step counter reading and returns the
// steps it added to the session.
func (s *Session) OnStepCount(rawCumulativeCount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	resets := s.steps.Resets()
	added := s.steps.OnSensorStepCount(rawCumulativeCount)
	s.stepSamples.Inc(1)
	if s.steps.Resets() > resets {
		s.stepResets.Inc(1)
		s.logger.Debug("Step counter reset", "count", rawCumulativeCount, "total", s.steps.TotalSteps())
	}
	return added
}

// Feed dispatches one input.
func (s *Session) Feed(in fix.Input) {
	switch {
	case in.Fix != nil:
		s.Process(*in.Fix)
	case in.Step != nil:
		s.OnStepCount(in.Step.Steps)
	}
}

// Run feeds inputs until the channel closes or the context is done.
// It must be the only writer while it runs.
func (s *Session) Run(ctx context.Context, in <-chan fix.Input) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case input, ok := <-in:
			if !ok {
				return nil
			}
			s.Feed(input)
		}
	}
}

// SubscribeTransitions delivers every future movement transition to ch.
// Process blocks until ch takes the value, so ch should be buffered or
// drained promptly.
func (s *Session) SubscribeTransitions(ch chan<- act.Transition) event.Subscription {
	return s.transitionFeed.Subscribe(ch)
}

func (s *Session) State() activity.Activity {
	return s.stabilizer.State()
}

func (s *Session) TotalMeters() float64 {
	return s.odometer.TotalMeters()
}

func (s *Session) TotalSteps() int {
	return s.steps.TotalSteps()
}

func (s *Session) SimplifiedPath() []fix.FilteredPoint {
	return s.smoother.SimplifiedPath()
}

func (s *Session) Path() []fix.FilteredPoint {
	return s.smoother.Path()
}

// RecentRejections returns the last rejected fixes, oldest first.
func (s *Session) RecentRejections() []Rejection {
	return s.rejections.Get()
}

func (s *Session) Transitions() []act.Transition {
	return s.stabilizer.Transitions()
}

// Registry exposes the session's diagnostic metrics.
func (s *Session) Registry() metrics.Registry {
	return s.reg
}

// Close stops the session's meters. The session must not be fed afterwards.
func (s *Session) Close() {
	s.fixMeter.Stop()
}
