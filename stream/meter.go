package stream

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/walkd/common"
	"github.com/rotblauer/walkd/types/fix"
)

// inputMeter logs read progress on an interval until stopped.
type inputMeter struct {
	label   atomic.Int64
	started time.Time
	ticker  *time.Ticker
	done    chan struct{}

	records    metrics.Counter
	fixes      metrics.Counter
	steps      metrics.Counter
	rejected   metrics.Counter
	countMeter metrics.Meter
	sizeMeter  metrics.Meter
}

func newInputMeter(interval time.Duration) *inputMeter {
	m := &inputMeter{
		started:    time.Now(),
		ticker:     time.NewTicker(interval),
		done:       make(chan struct{}),
		records:    metrics.NewCounter(),
		fixes:      metrics.NewCounter(),
		steps:      metrics.NewCounter(),
		rejected:   metrics.NewCounter(),
		countMeter: metrics.NewMeter(),
		sizeMeter:  metrics.NewMeter(),
	}
	go m.run()
	return m
}

// mark counts one record. A zero input means it did not decode.
func (m *inputMeter) mark(in fix.Input, data []byte) {
	m.records.Inc(1)
	m.countMeter.Mark(1)
	m.sizeMeter.Mark(int64(len(data)))
	switch {
	case in.IsFix():
		m.fixes.Inc(1)
	case in.IsStep():
		m.steps.Inc(1)
	default:
		m.rejected.Inc(1)
		return
	}
	m.label.Store(in.TimestampMillis())
}

func (m *inputMeter) run() {
	for {
		select {
		case <-m.done:
			return
		case <-m.ticker.C:
			m.log()
		}
	}
}

func (m *inputMeter) log() {
	countSnap := m.countMeter.Snapshot()
	sizeSnap := m.sizeMeter.Snapshot()
	slog.Info("Read inputs", "n", humanize.Comma(countSnap.Count()),
		"undecoded", humanize.Comma(m.rejected.Snapshot().Count()),
		"read.last", time.UnixMilli(m.label.Load()).Format(time.DateTime),
		"rps", common.DecimalToFixed(countSnap.Rate1(), 0),
		"bps", humanize.Bytes(uint64(sizeSnap.Rate1())),
		"total.bytes", humanize.Bytes(uint64(sizeSnap.Count())),
		"running", time.Since(m.started).Round(time.Second))
}

func (m *inputMeter) stop() {
	m.ticker.Stop()
	close(m.done)
	m.countMeter.Stop()
	m.sizeMeter.Stop()
}
