package testdata

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotblauer/walkd/stream"
	"github.com/rotblauer/walkd/types/fix"
)

// basepath is the root directory of this package.
var basepath string

func init() {
	_, currentFile, _, _ := runtime.Caller(0)
	basepath = filepath.Dir(currentFile)
}

// Path returns the absolute path the given relative file or directory path,
// relative to this testdata/ directory in the user's GOPATH.
// If rel is already absolute, it is returned unmodified.
// Taken from https://github.com/grpc/grpc-go/blob/master/testdata/testdata.go.
func Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(basepath, rel)
}

// Source_Walk is a 160 second session in Minneapolis: 10s standing,
// a minute north, a minute east, then 30s standing.
// It holds one imprecise fix (accuracy 85), one teleported fix,
// one step counter reset, and one record with no time.
var Source_Walk = "./walk.ndjson"

// ReadInputs decodes a fixture, returning the inputs and any per-record errors.
func ReadInputs(ctx context.Context, path string) ([]fix.Input, []error, error) {
	f, err := os.Open(Path(path))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	inputs, errs := stream.ScanInputs(ctx, f)
	errsCh := make(chan []error, 1)
	go func() {
		errsCh <- stream.Collect(ctx, errs)
	}()
	got := stream.Collect(ctx, inputs)
	return got, <-errsCh, nil
}
