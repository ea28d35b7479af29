package activity

import (
	"regexp"
)

// Activity is the movement state of a walking session.
type Activity int

const (
	TrackerStateStationary Activity = iota
	TrackerStateWalking
)

var (
	activityStationary = regexp.MustCompile(`(?i)stationary|still`)
	activityWalking    = regexp.MustCompile(`(?i)walk`)
)

// IsActive returns whether the activity is moving.
func (a Activity) IsActive() bool { return a == TrackerStateWalking }

// IsStationary returns whether the activity is stationary.
func (a Activity) IsStationary() bool { return a == TrackerStateStationary }

// String implements the Stringer interface.
func (a Activity) String() string {
	switch a {
	case TrackerStateStationary:
		return "Stationary"
	case TrackerStateWalking:
		return "Walking"
	}
	return "Unknown"
}

// Emoji returns a single emoji representation of the activity.
func (a Activity) Emoji() string {
	switch a {
	case TrackerStateStationary:
		return "📍"
	case TrackerStateWalking:
		return "🚶"
	}
	return "❓"
}

// FromString parses a reported activity name.
// Anything that is not recognizably walking is stationary.
func FromString(str string) Activity {
	switch {
	case activityWalking.MatchString(str):
		return TrackerStateWalking
	case activityStationary.MatchString(str):
		return TrackerStateStationary
	}
	return TrackerStateStationary
}

func (a Activity) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Activity) UnmarshalText(text []byte) error {
	*a = FromString(string(text))
	return nil
}
