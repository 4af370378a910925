// Package events reads, writes and synthesizes per-event detector hit
// lists.
package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/san-kum/fragtrack/internal/detector"
)

// Event holds the hits of one event keyed by detector name.
type Event struct {
	Number int64                     `json:"event"`
	Hits   map[string][]detector.Hit `json:"hits"`
}

// Source yields events until io.EOF.
type Source interface {
	Next() (*Event, error)
}

// Reader decodes JSON lines, one event per line.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{sc: sc}
}

func (r *Reader) Next() (*Event, error) {
	for r.sc.Scan() {
		r.line++
		b := r.sc.Bytes()
		if len(b) == 0 {
			continue
		}
		ev := &Event{}
		if err := json.Unmarshal(b, ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return ev, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

type Writer struct {
	enc *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

func (w *Writer) Write(ev *Event) error {
	return w.enc.Encode(ev)
}

// Slice is a Source over events held in memory.
type Slice struct {
	Events []*Event
	i      int
}

func (s *Slice) Next() (*Event, error) {
	if s.i >= len(s.Events) {
		return nil, io.EOF
	}
	ev := s.Events[s.i]
	s.i++
	return ev, nil
}
