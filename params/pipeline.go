package params

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rotblauer/walkd/common"
)

var ErrInvalidConfig = errors.New("invalid pipeline config")

// PipelineConfig configures one walking session.
// It is fixed for the lifetime of the session.
type PipelineConfig struct {
	// MaxAccuracyMeters is the worst horizontal accuracy a fix may report
	// and still be accepted.
	MaxAccuracyMeters float64 `mapstructure:"max-accuracy" yaml:"max-accuracy" json:"max_accuracy"`

	// MaxSpeedMetersPerSecond is the highest speed implied between the last
	// accepted fix and a candidate before the candidate is considered a jump.
	MaxSpeedMetersPerSecond float64 `mapstructure:"max-speed" yaml:"max-speed" json:"max_speed"`

	// KalmanProcessNoise is q, the white-acceleration spectral density (m²/s³).
	// Larger values trust new measurements more.
	KalmanProcessNoise float64 `mapstructure:"kalman-q" yaml:"kalman-q" json:"kalman_q"`

	// InitialVelocityVariance is the velocity variance, (m/s)², the Kalman
	// filter starts with. It should be large: the first fix says nothing about speed.
	InitialVelocityVariance float64 `mapstructure:"initial-velocity-variance" yaml:"initial-velocity-variance" json:"initial_velocity_variance"`

	// MovingSpeedThreshold separates walking from standing, in m/s.
	MovingSpeedThreshold float64 `mapstructure:"moving-speed" yaml:"moving-speed" json:"moving_speed"`

	// StableDuration is how long velocity must stay at or below
	// MovingSpeedThreshold before a walker is considered stationary.
	StableDuration time.Duration `mapstructure:"stable-duration" yaml:"stable-duration" json:"stable_duration"`

	// SimplifyToleranceMeters is the perpendicular deviation a point needs
	// to become a vertex of the simplified path.
	SimplifyToleranceMeters float64 `mapstructure:"simplify-tolerance" yaml:"simplify-tolerance" json:"simplify_tolerance"`
}

func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		MaxAccuracyMeters:       50,
		MaxSpeedMetersPerSecond: 30,
		KalmanProcessNoise:      3,
		InitialVelocityVariance: 100,
		MovingSpeedThreshold:    0.3,
		StableDuration:          3 * time.Second,
		SimplifyToleranceMeters: 3,
	}
}

func (c *PipelineConfig) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"max-accuracy", c.MaxAccuracyMeters},
		{"max-speed", c.MaxSpeedMetersPerSecond},
		{"kalman-q", c.KalmanProcessNoise},
		{"initial-velocity-variance", c.InitialVelocityVariance},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, p.name, p.v)
		}
	}
	if c.MovingSpeedThreshold < 0 || math.IsNaN(c.MovingSpeedThreshold) {
		return fmt.Errorf("%w: moving-speed must not be negative, got %v", ErrInvalidConfig, c.MovingSpeedThreshold)
	}
	if c.MovingSpeedThreshold > common.SpeedOfRunningMax {
		return fmt.Errorf("%w: moving-speed %v is faster than running", ErrInvalidConfig, c.MovingSpeedThreshold)
	}
	if c.StableDuration < 0 {
		return fmt.Errorf("%w: stable-duration must not be negative, got %v", ErrInvalidConfig, c.StableDuration)
	}
	if c.SimplifyToleranceMeters < 0 || math.IsNaN(c.SimplifyToleranceMeters) {
		return fmt.Errorf("%w: simplify-tolerance must not be negative, got %v", ErrInvalidConfig, c.SimplifyToleranceMeters)
	}
	return nil
}
