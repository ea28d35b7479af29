package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/walkd/gzfile"
	"github.com/rotblauer/walkd/params"
	"github.com/rotblauer/walkd/testing/testdata"
	"github.com/rotblauer/walkd/types/fix"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config", "--log-level", "warn", "--simplify-tolerance", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "stable-duration: 3s")

	got := params.PipelineConfig{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	want := params.DefaultPipelineConfig()
	want.SimplifyToleranceMeters = 5
	assert.Equal(t, *want, got)

	// The printed config reads back as a config file.
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewReader([]byte(out))))
	reread, err := pipelineConfig(v)
	require.NoError(t, err)
	assert.Equal(t, got, *reread)
}

func TestReplayCommand(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "walk.geojson")
	points := filepath.Join(dir, "points.ndjson.gz")

	out, err := execute(t, "replay", testdata.Path(testdata.Source_Walk),
		"--log-level", "warn", "--simplify-tolerance", "3", "--geojson", target, "--points", points)
	require.NoError(t, err)
	assert.Contains(t, out, "Distance")
	assert.Contains(t, out, "158 accepted, 1 imprecise, 1 implausible")
	assert.Contains(t, out, "Undecoded    1 records")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	f, err := geojson.UnmarshalFeature(data)
	require.NoError(t, err)
	ls, ok := f.Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Greater(t, len(ls), 2)
	assert.Equal(t, float64(158), f.Properties.MustFloat64("Points"))

	r, err := gzfile.NewReader(points)
	require.NoError(t, err)
	defer r.Close()
	n := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p := fix.FilteredPoint{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &p))
		n++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 158, n)
}

// An open stdin must not hold up an interrupted replay.
func TestReplay_CancelWithOpenInput(t *testing.T) {
	optReplayGeoJSON, optReplayPoints, optReplayNoSteps, optReplayJSON = "", "", false, false

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	out := new(bytes.Buffer)
	c := &cobra.Command{}
	c.SetOut(out)
	c.SetErr(new(bytes.Buffer))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- replay(ctx, c, pr, params.DefaultPipelineConfig())
	}()

	records := `{"lat":44.9778,"lon":-93.265,"accuracy":5,"time":1717243200000}
{"lat":44.97781,"lon":-93.265,"accuracy":5,"time":1717243201000}
{"lat":44.97782,"lon":-93.265,"accuracy":5,"time":1717243202000}
`
	_, err := pw.Write([]byte(records))
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("replay still waiting on its input after cancel")
	}
	assert.Contains(t, out.String(), "Duration")
	assert.Contains(t, out.String(), "Fixes")
}

func TestReplayCommand_JSON(t *testing.T) {
	optReplayGeoJSON, optReplayPoints, optReplayNoSteps, optReplayJSON = "", "", false, false

	out, err := execute(t, "replay", testdata.Path(testdata.Source_Walk), "--log-level", "warn", "--json")
	require.NoError(t, err)

	got := struct {
		Points  int                               `json:"points"`
		Metrics map[string]map[string]interface{} `json:"metrics"`
	}{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 158, got.Points)
	assert.Equal(t, float64(158), got.Metrics["fix.accepted"]["count"])
	assert.Equal(t, float64(1), got.Metrics["fix.rejected.low_accuracy"]["count"])
	assert.Equal(t, float64(1), got.Metrics["fix.rejected.implausible_speed"]["count"])
	assert.Contains(t, got.Metrics, "fix.meter")
}
