package gzfile

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWriterReader(t *testing.T) {
	for _, name := range []string{"points.ndjson", "points.ndjson.gz"} {
		t.Run(name, func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "nested", name)
			w, err := NewWriter(target, nil)
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 10; i++ {
				if _, err := fmt.Fprintf(w, "{\"n\":%d}\n", i); err != nil {
					t.Fatal(err)
				}
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("second close: %v", err)
			}

			r, err := NewReader(target)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			scanner := bufio.NewScanner(r)
			n := 0
			for scanner.Scan() {
				if want := fmt.Sprintf("{\"n\":%d}", n); scanner.Text() != want {
					t.Errorf("line %d: got %q want %q", n, scanner.Text(), want)
				}
				n++
			}
			if err := scanner.Err(); err != nil {
				t.Fatal(err)
			}
			if n != 10 {
				t.Fatalf("read %d lines, want 10", n)
			}
		})
	}
}

// TestWriter_Locking writes from two writers at once. The second blocks
// until the first closes, so the lines are not interleaved.
func TestWriter_Locking(t *testing.T) {
	target := filepath.Join(t.TempDir(), "locked.ndjson.gz")
	config := DefaultWriterConfig()
	config.Flag = os.O_WRONLY | os.O_APPEND | os.O_CREATE

	w1, err := NewWriter(target, config)
	if err != nil {
		t.Fatal(err)
	}
	w2, err := NewWriter(target, config)
	if err != nil {
		t.Fatal(err)
	}

	wait := sync.WaitGroup{}
	writeFile := func(w *Writer, name string, delay time.Duration) {
		defer wait.Done()
		defer func() {
			if err := w.Close(); err != nil {
				t.Error(err)
			}
		}()
		for i := 0; i < 5; i++ {
			if _, err := w.Write([]byte(fmt.Sprintf("%s %d\n", name, i))); err != nil {
				t.Error(err)
				return
			}
			time.Sleep(delay)
		}
	}
	wait.Add(2)
	go writeFile(w1, "w1", 20*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	writeFile(w2, "w2", time.Millisecond)
	wait.Wait()

	// Concatenated gzip members read back as one stream.
	f, err := os.Open(target)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gzr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(gzr)
	if err != nil {
		t.Fatal(err)
	}
	want := "w1 0\nw1 1\nw1 2\nw1 3\nw1 4\nw2 0\nw2 1\nw2 2\nw2 3\nw2 4\n"
	if string(data) != want {
		t.Fatalf("got:\n%s\nwant:\n%s", data, want)
	}
}

func TestNewReader_Missing(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.gz")); err == nil {
		t.Fatal("expected error")
	}
}
