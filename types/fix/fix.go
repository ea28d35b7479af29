// Package fix holds the values that flow through the walking pipeline:
// raw location fixes in, smoothed points and filter outcomes out.
package fix

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// RawFix is a single reading from the platform location provider.
// It is an immutable value; Speed and Altitude are optional.
type RawFix struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`

	// HorizontalAccuracy is the reported 1-sigma radius, in meters.
	HorizontalAccuracy float64 `json:"accuracy"`

	// Speed is the sensor-reported speed in m/s, if any.
	Speed *float64 `json:"speed,omitempty"`

	// Altitude in meters, if any.
	Altitude *float64 `json:"altitude,omitempty"`

	TimestampMillis int64 `json:"time"`
}

// Point returns the fix position as an orb.Point (lon, lat).
func (f RawFix) Point() orb.Point {
	return orb.Point{f.Longitude, f.Latitude}
}

func (f RawFix) Time() time.Time {
	return time.UnixMilli(f.TimestampMillis)
}

// FilteredPoint is the smoothed position produced for an accepted fix.
type FilteredPoint struct {
	Latitude        float64 `json:"lat"`
	Longitude       float64 `json:"lon"`
	TimestampMillis int64   `json:"time"`

	// Velocity is the speed magnitude of the smoothed state, in m/s.
	Velocity float64 `json:"velocity"`
}

func (p FilteredPoint) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

func (p FilteredPoint) Time() time.Time {
	return time.UnixMilli(p.TimestampMillis)
}

// Verdict tags an Outcome.
type Verdict int

const (
	Accepted Verdict = iota
	RejectedLowAccuracy
	RejectedImplausibleSpeed
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "Accepted"
	case RejectedLowAccuracy:
		return "RejectedLowAccuracy"
	case RejectedImplausibleSpeed:
		return "RejectedImplausibleSpeed"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Verdict) UnmarshalText(text []byte) error {
	for _, candidate := range []Verdict{Accepted, RejectedLowAccuracy, RejectedImplausibleSpeed} {
		if candidate.String() == string(text) {
			*v = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown verdict %q", text)
}

// Outcome is the result of running one RawFix through the filter.
// Point is only meaningful when Verdict is Accepted.
type Outcome struct {
	Verdict Verdict       `json:"verdict"`
	Point   FilteredPoint `json:"point"`
}

func AcceptedOutcome(p FilteredPoint) Outcome {
	return Outcome{Verdict: Accepted, Point: p}
}

func RejectedOutcome(v Verdict) Outcome {
	return Outcome{Verdict: v}
}

// Accepted returns the smoothed point and true if the fix was accepted.
func (o Outcome) Accepted() (FilteredPoint, bool) {
	if o.Verdict != Accepted {
		return FilteredPoint{}, false
	}
	return o.Point, true
}

func (o Outcome) String() string {
	if p, ok := o.Accepted(); ok {
		return fmt.Sprintf("Accepted(%.6f,%.6f v=%.2f)", p.Latitude, p.Longitude, p.Velocity)
	}
	return o.Verdict.String()
}
