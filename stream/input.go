package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/walkd/types/fix"
	"github.com/tidwall/gjson"
)

const (
	AttrTime      = "time"
	AttrSteps     = "steps"
	AttrLatitude  = "lat"
	AttrLongitude = "lon"
	AttrAccuracy  = "accuracy"
	AttrSpeed     = "speed"
	AttrAltitude  = "altitude"
)

var ErrDecodeInput = errors.New("cannot decode input")

// LogInterval is how often ScanInputs logs its read rate.
var LogInterval = 5 * time.Second

// DecodeInput reads one JSON record. Records with a "steps" field are step
// samples, anything else must be a fix. Time is epoch milliseconds or an
// RFC3339 string.
func DecodeInput(msg []byte) (fix.Input, error) {
	if !gjson.ValidBytes(msg) {
		return fix.Input{}, fmt.Errorf("%w: invalid json: %s", ErrDecodeInput, string(msg))
	}
	res := gjson.ParseBytes(msg)
	if !res.IsObject() {
		return fix.Input{}, fmt.Errorf("%w: not an object: %s", ErrDecodeInput, string(msg))
	}

	ms, err := timestampMillis(res.Get(AttrTime))
	if err != nil {
		return fix.Input{}, err
	}

	if steps := res.Get(AttrSteps); steps.Exists() {
		if steps.Type != gjson.Number || steps.Int() < 0 {
			return fix.Input{}, fmt.Errorf("%w: bad %s: %s", ErrDecodeInput, AttrSteps, steps.Raw)
		}
		return fix.StepInput(int(steps.Int()), ms), nil
	}

	rf := fix.RawFix{TimestampMillis: ms}
	for _, f := range []struct {
		attr     string
		dst      *float64
		min, max float64
	}{
		{AttrLatitude, &rf.Latitude, -90, 90},
		{AttrLongitude, &rf.Longitude, -180, 180},
		{AttrAccuracy, &rf.HorizontalAccuracy, 0, 1e9},
	} {
		v := res.Get(f.attr)
		if v.Type != gjson.Number {
			return fix.Input{}, fmt.Errorf("%w: missing %s", ErrDecodeInput, f.attr)
		}
		if v.Float() < f.min || v.Float() > f.max {
			return fix.Input{}, fmt.Errorf("%w: %s out of range: %s", ErrDecodeInput, f.attr, v.Raw)
		}
		*f.dst = v.Float()
	}
	if v := res.Get(AttrSpeed); v.Type == gjson.Number {
		speed := v.Float()
		rf.Speed = &speed
	}
	if v := res.Get(AttrAltitude); v.Type == gjson.Number {
		alt := v.Float()
		rf.Altitude = &alt
	}
	return fix.FixInput(rf), nil
}

func timestampMillis(v gjson.Result) (int64, error) {
	switch v.Type {
	case gjson.Number:
		return v.Int(), nil
	case gjson.String:
		t, err := time.Parse(time.RFC3339, v.Str)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrDecodeInput, AttrTime, err)
		}
		return t.UnixMilli(), nil
	}
	return 0, fmt.Errorf("%w: missing %s", ErrDecodeInput, AttrTime)
}

// ScanInputs decodes a stream of JSON records into inputs.
// A record that cannot be decoded is reported on the error channel and
// skipped. A broken stream ends the scan. Both channels are closed when
// the scan ends, and both must be drained.
func ScanInputs(ctx context.Context, reader io.Reader) (<-chan fix.Input, <-chan error) {
	out := make(chan fix.Input)
	errs := make(chan error)
	go func() {
		defer close(errs)
		defer close(out)

		met := newInputMeter(LogInterval)
		defer met.stop()
		defer func() {
			slog.Info("Input scan done", "records", humanize.Comma(met.records.Snapshot().Count()),
				"fixes", humanize.Comma(met.fixes.Snapshot().Count()),
				"steps", humanize.Comma(met.steps.Snapshot().Count()),
				"running", time.Since(met.started).Round(time.Millisecond))
		}()

		send := func(err error) bool {
			select {
			case <-ctx.Done():
				return false
			case errs <- err:
				return true
			}
		}

		dec := json.NewDecoder(reader)
		for n := 1; ; n++ {
			msg := json.RawMessage{}
			if err := dec.Decode(&msg); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				send(fmt.Errorf("scanner(%w)", err))
				return
			}

			in, err := DecodeInput(msg)
			met.mark(in, msg)
			if err != nil {
				if !send(fmt.Errorf("record %d: %w", n, err)) {
					return
				}
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- in:
			}
		}
	}()
	return out, errs
}
