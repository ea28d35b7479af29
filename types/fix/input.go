package fix

import "time"

// StepSample is one reading of the platform's cumulative step counter.
type StepSample struct {
	Steps           int   `json:"steps"`
	TimestampMillis int64 `json:"time"`
}

func (s StepSample) Time() time.Time {
	return time.UnixMilli(s.TimestampMillis)
}

// Input is one event from the platform: either a fix or a step sample.
type Input struct {
	Fix  *RawFix
	Step *StepSample
}

func FixInput(rf RawFix) Input {
	return Input{Fix: &rf}
}

func StepInput(steps int, timestampMillis int64) Input {
	return Input{Step: &StepSample{Steps: steps, TimestampMillis: timestampMillis}}
}

// TimestampMillis returns the timestamp of whichever event the input holds.
func (in Input) TimestampMillis() int64 {
	switch {
	case in.Fix != nil:
		return in.Fix.TimestampMillis
	case in.Step != nil:
		return in.Step.TimestampMillis
	}
	return 0
}

func (in Input) IsFix() bool  { return in.Fix != nil }
func (in Input) IsStep() bool { return in.Step != nil }
