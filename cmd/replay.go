/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/walkd/common"
	"github.com/rotblauer/walkd/geo/act"
	"github.com/rotblauer/walkd/gzfile"
	"github.com/rotblauer/walkd/params"
	"github.com/rotblauer/walkd/stream"
	"github.com/rotblauer/walkd/tracker"
	"github.com/rotblauer/walkd/types/fix"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var optReplayGeoJSON string
var optReplayNoSteps bool
var optReplayJSON bool
var optReplayPoints string

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay [file|-]",
	Short: "Replay a recorded session through the pipeline",
	Long: `Replay reads newline-delimited JSON records from a file, or stdin,
and feeds them in order through a fresh session.
Files ending in .gz are decompressed.

Fix records look like:

  {"lat":44.9778,"lon":-93.265,"accuracy":4.5,"speed":1.3,"altitude":256,"time":1717243200000}

speed and altitude are optional. Step counter records look like:

  {"steps":5018,"time":1717243209500}

time is epoch milliseconds or an RFC3339 string.
Records that cannot be decoded are logged and skipped.

Flags:

  --geojson   Write the simplified path as a GeoJSON Feature to this file ("-" for stdout).
  --points    Write every accepted, smoothed point as NDJSON to this file.
  --no-steps  Ignore step counter records.
  --json      Print the summary and session metrics as JSON.

Examples:

  walkd replay testing/testdata/walk.ndjson --geojson walk.geojson
  walkd replay walks.ndjson.gz --points smoothed.ndjson.gz
  cat walks.ndjson | walkd replay --max-accuracy 20 --log-level debug
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		cfg, err := pipelineConfig(viper.GetViper())
		if err != nil {
			return err
		}

		var reader io.Reader = os.Stdin
		if len(args) == 1 && args[0] != "-" {
			r, err := gzfile.NewReader(args[0])
			if err != nil {
				return err
			}
			defer r.Close()
			reader = r
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			interrupt := common.Interrupted(ctx)
			select {
			case sig := <-interrupt:
				slog.Warn("Received signal", "signal", sig)
				cancel()
			case <-ctx.Done():
				return
			}
			sig := <-interrupt
			slog.Warn("Received signal", "signal", sig)
			log.Fatalln("Force exit")
		}()

		return replay(ctx, cmd, reader, cfg)
	},
}

// replay runs the records from reader through a new session and reports on it.
// Cancelling ctx stops the replay early; the summary then covers what was
// processed, and the reader may be left blocked mid-read.
func replay(ctx context.Context, cmd *cobra.Command, reader io.Reader, cfg *params.PipelineConfig) error {
	session, err := tracker.NewSession(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer session.Close()

	transitions := make(chan act.Transition, 16)
	sub := session.SubscribeTransitions(transitions)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for tr := range transitions {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", tr.To.Emoji(), tr)
		}
	}()

	inputs, errs := stream.ScanInputs(ctx, reader)
	if optReplayNoSteps {
		inputs = stream.Filter(ctx, fix.Input.IsFix, inputs)
	}

	var scanErr error
	undecoded := new(atomic.Int64)
	scanned := make(chan struct{})
	go func() {
		defer close(scanned)
		for err := range errs {
			if errors.Is(err, stream.ErrDecodeInput) {
				undecoded.Add(1)
				slog.Warn("Skipping record", "error", err)
				continue
			}
			scanErr = err
		}
	}()

	runErr := session.Run(ctx, inputs)
	sub.Unsubscribe()
	close(transitions)
	<-printed

	interrupted := errors.Is(runErr, context.Canceled)
	if runErr != nil && !interrupted {
		return runErr
	}
	if interrupted {
		slog.Warn("Replay interrupted, summary is partial")
	} else {
		<-scanned
		if scanErr != nil {
			return scanErr
		}
	}

	sum := session.Summary()
	if sum.SpeedMedian > common.SpeedOfWalkingMax {
		slog.Warn("Median speed is faster than walking", "median", sum.SpeedMedian, "walking.max", common.SpeedOfWalkingMax)
	}
	if optReplayJSON {
		report := struct {
			tracker.Summary
			Metrics map[string]map[string]interface{} `json:"metrics"`
		}{sum, session.Registry().GetAll()}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printSummary(cmd.OutOrStdout(), sum, int(undecoded.Load()))
	}

	if optReplayPoints != "" {
		if err := writePoints(optReplayPoints, session.Path()); err != nil {
			return err
		}
	}
	if optReplayGeoJSON != "" {
		return writeGeoJSON(cmd.OutOrStdout(), optReplayGeoJSON, session)
	}
	return nil
}

func printSummary(w io.Writer, sum tracker.Summary, undecoded int) {
	fmt.Fprintf(w, "Duration     %s\n", sum.Duration.Round(time.Second))
	fmt.Fprintf(w, "Walking      %s\n", sum.WalkingTime.Round(time.Second))
	fmt.Fprintf(w, "Distance     %s\n", humanize.SIWithDigits(sum.TotalMeters, 2, "m"))
	fmt.Fprintf(w, "Steps        %s\n", humanize.Comma(int64(sum.TotalSteps)))
	fmt.Fprintf(w, "Speed        mean %.2f  median %.2f  p95 %.2f m/s\n", sum.SpeedMean, sum.SpeedMedian, sum.SpeedP95)
	fmt.Fprintf(w, "Fixes        %s accepted, %s imprecise, %s implausible\n",
		humanize.Comma(sum.Stats.Accepted),
		humanize.Comma(sum.Stats.RejectedLowAccuracy),
		humanize.Comma(sum.Stats.RejectedImplausibleSpeed))
	fmt.Fprintf(w, "Path         %s points, %s vertices\n", humanize.Comma(int64(sum.Points)), humanize.Comma(int64(sum.Vertices)))
	fmt.Fprintf(w, "Step counter %s samples, %s resets\n", humanize.Comma(sum.Stats.StepSamples), humanize.Comma(sum.Stats.StepResets))
	if undecoded > 0 {
		fmt.Fprintf(w, "Undecoded    %s records\n", humanize.Comma(int64(undecoded)))
	}
}

func writeGeoJSON(stdout io.Writer, target string, session *tracker.Session) error {
	data, err := json.Marshal(session.Feature())
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if target == "-" {
		_, err = stdout.Write(data)
		return err
	}
	w, err := gzfile.NewWriter(target, nil)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func writePoints(target string, points []fix.FilteredPoint) error {
	w, err := gzfile.NewWriter(target, nil)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, p := range points {
		if err := enc.Encode(p); err != nil {
			_ = w.Close()
			return err
		}
	}
	slog.Info("Wrote points", "path", w.Path(), "n", humanize.Comma(int64(len(points))))
	return w.Close()
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVar(&optReplayGeoJSON, "geojson", "", "Write the simplified path as GeoJSON to this file (- for stdout)")
	replayCmd.Flags().BoolVar(&optReplayNoSteps, "no-steps", false, "Ignore step counter records")
	replayCmd.Flags().BoolVar(&optReplayJSON, "json", false, "Print the summary and session metrics as JSON")
	replayCmd.Flags().StringVar(&optReplayPoints, "points", "", "Write accepted smoothed points as NDJSON to this file (.gz to compress)")
}
