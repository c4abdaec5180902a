// Package journal keeps an append-only record of who came, went and said
// what. It is write-only: nothing is ever read back into the game, so a
// restart still starts from an empty room.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

type Kind string

const (
	KindJoin  Kind = "join"
	KindLeave Kind = "leave"
	KindChat  Kind = "chat"
)

type Entry struct {
	Time   time.Time `json:"time"`
	Kind   Kind      `json:"kind"`
	Player string    `json:"player"`
	Text   string    `json:"text,omitempty"`
}

type Recorder interface {
	Record(Entry) error
	Close() error
}

// Discard is the Recorder used when no journal directory is configured.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(Entry) error { return nil }
func (discard) Close() error       { return nil }

// Writer appends entries as zstd-compressed JSON lines, one file per UTC
// hour: <dir>/<prefix>-2006-01-02-15.jsonl.zst.
type Writer struct {
	dir    string
	prefix string
	now    func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(dir, prefix string) *Writer {
	return &Writer{dir: dir, prefix: prefix, now: time.Now}
}

func (w *Writer) Record(e Entry) error {
	if e.Time.IsZero() {
		e.Time = w.now()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	hour := e.Time.UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// PathForHour is where entries stamped in the given hour end up.
func (w *Writer) PathForHour(t time.Time) string {
	return w.pathFor(t.UTC().Format("2006-01-02-15"))
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("journal dir: %w", err)
	}
	f, err := os.OpenFile(w.pathFor(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("journal open: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

func (w *Writer) pathFor(hour string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}
