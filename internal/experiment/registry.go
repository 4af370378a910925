package experiment

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/san-kum/fragtrack/internal/events"
)

// SourceSpec selects the events of a run.
type SourceSpec struct {
	Kind   string // "synthetic" or "file"
	Path   string
	Seed   int64
	Events int64
}

type sourceFactory func(e *Experiment, spec SourceSpec) (events.Source, io.Closer, error)

type Registry struct {
	sources map[string]sourceFactory
}

func NewRegistry() *Registry {
	r := &Registry{sources: make(map[string]sourceFactory)}

	r.sources["synthetic"] = func(e *Experiment, spec SourceSpec) (events.Source, io.Closer, error) {
		n := spec.Events
		if n <= 0 {
			n = int64(e.cfg.Simulation.Events)
		}
		return e.Generator(spec.Seed, n), nopCloser{}, nil
	}
	r.sources["file"] = func(_ *Experiment, spec SourceSpec) (events.Source, io.Closer, error) {
		if spec.Path == "-" {
			return limit(events.NewReader(os.Stdin), spec.Events), nopCloser{}, nil
		}
		f, err := os.Open(spec.Path)
		if err != nil {
			return nil, nil, err
		}
		return limit(events.NewReader(f), spec.Events), f, nil
	}
	return r
}

// Source opens the source named by spec.Kind. The closer must be closed
// after the run.
func (r *Registry) Source(e *Experiment, spec SourceSpec) (events.Source, io.Closer, error) {
	fn, ok := r.sources[spec.Kind]
	if !ok {
		return nil, nil, fmt.Errorf("unknown source: %s", spec.Kind)
	}
	return fn(e, spec)
}

func (r *Registry) ListSources() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type limited struct {
	src  events.Source
	left int64
}

func (l *limited) Next() (*events.Event, error) {
	if l.left == 0 {
		return nil, io.EOF
	}
	l.left--
	return l.src.Next()
}

// limit caps src at n events; n <= 0 leaves it unlimited.
func limit(src events.Source, n int64) events.Source {
	if n <= 0 {
		return src
	}
	return &limited{src: src, left: n}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
