package tracker

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/rotblauer/walkd/stream"
	"github.com/rotblauer/walkd/testing/testdata"
	"github.com/rotblauer/walkd/types/activity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ReplayFixture(t *testing.T) {
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.Background()
	inputs, errs, err := testdata.ReadInputs(ctx, testdata.Source_Walk)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], stream.ErrDecodeInput)

	s := newTestSession(t)
	require.NoError(t, s.Run(ctx, stream.Slice(ctx, inputs)))

	st := s.Stats()
	assert.Equal(t, int64(158), st.Accepted)
	assert.Equal(t, int64(1), st.RejectedLowAccuracy)
	assert.Equal(t, int64(1), st.RejectedImplausibleSpeed)
	assert.Equal(t, int64(1), st.StepResets)
	assert.Len(t, s.RecentRejections(), 2)

	// Two legs of 84m each, plus some noise.
	assert.Greater(t, s.TotalMeters(), 150.0)
	assert.Less(t, s.TotalMeters(), 240.0)
	assert.Greater(t, s.TotalSteps(), 100)
	assert.LessOrEqual(t, s.TotalSteps(), 198)

	trs := s.Transitions()
	require.NotEmpty(t, trs)
	assert.Equal(t, activity.TrackerStateWalking, trs[0].To)

	snap := s.Snapshot()
	assert.Equal(t, 158, snap.PathLength)
	assert.Less(t, len(snap.SimplifiedPath), snap.PathLength)
}
