// Package gzfile opens session logs that may or may not be gzipped.
// Paths ending in .gz are compressed; anything else is read and written as is.
package gzfile

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

const DefaultCompressionLevel = gzip.BestCompression

func IsGZ(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

type Writer struct {
	f      *os.File
	gzw    *gzip.Writer
	locked bool
	closed bool

	WriterConfig
}

type WriterConfig struct {
	CompressionLevel int
	Flag             int
	FilePerm         os.FileMode
	DirPerm          os.FileMode
}

func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		CompressionLevel: DefaultCompressionLevel,
		Flag:             os.O_WRONLY | os.O_TRUNC | os.O_CREATE,
		FilePerm:         0660,
		DirPerm:          0770,
	}
}

// NewWriter opens path for writing, creating parent directories as needed.
// The file is locked exclusively on first write until it is closed.
func NewWriter(path string, config *WriterConfig) (*Writer, error) {
	if config == nil {
		config = DefaultWriterConfig()
	}
	if err := os.MkdirAll(filepath.Dir(path), config.DirPerm); err != nil {
		return nil, err
	}
	fi, err := os.OpenFile(path, config.Flag, config.FilePerm)
	if err != nil {
		return nil, err
	}
	w := &Writer{f: fi, WriterConfig: *config}
	if IsGZ(path) {
		gzw, err := gzip.NewWriterLevel(fi, config.CompressionLevel)
		if err != nil {
			_ = fi.Close()
			return nil, err
		}
		w.gzw = gzw
	}
	return w, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	w.lock()
	if w.gzw != nil {
		return w.gzw.Write(p)
	}
	return w.f.Write(p)
}

// lock takes an exclusive lock on the file descriptor.
// Closing the file releases it.
func (w *Writer) lock() {
	if w.locked || w.closed {
		return
	}
	_ = syscall.Flock(int(w.f.Fd()), syscall.LOCK_EX)
	w.locked = true
}

func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.gzw != nil {
		if err := w.gzw.Close(); err != nil {
			_ = w.f.Close()
			return err
		}
	}
	return w.f.Close()
}

func (w *Writer) Path() string {
	return w.f.Name()
}

type Reader struct {
	f      *os.File
	r      io.Reader
	gzr    *gzip.Reader
	closed bool
}

// NewReader opens path for reading.
func NewReader(path string) (*Reader, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rd := &Reader{f: fi, r: fi}
	if IsGZ(path) {
		gzr, err := gzip.NewReader(fi)
		if err != nil {
			_ = fi.Close()
			return nil, err
		}
		rd.gzr = gzr
		rd.r = gzr
	}
	return rd, nil
}

// Read satisfies the io.Reader interface.
func (r *Reader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

func (r *Reader) Path() string {
	return r.f.Name()
}

// Close closes the gzip reader, if any, and the file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.gzr != nil {
		if err := r.gzr.Close(); err != nil {
			_ = r.f.Close()
			return err
		}
	}
	return r.f.Close()
}
