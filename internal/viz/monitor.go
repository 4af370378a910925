package viz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fragtrack/internal/events"
	"github.com/san-kum/fragtrack/internal/experiment"
	"github.com/san-kum/fragtrack/internal/metrics"
	"github.com/san-kum/fragtrack/internal/tracker"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	width           = 72
	height          = 22
	historyCapacity = 200
)

type resultMsg tracker.Result

type doneMsg struct {
	summary tracker.Summary
	err     error
}

// Model is the monitor state. It only sees the run through the messages
// it receives.
type Model struct {
	name       string
	hypotheses int
	results    <-chan tracker.Result
	done       <-chan doneMsg
	tracer     *Tracer
	planes     []Segment
	canvas     *Canvas
	theme      Theme

	running  bool
	waiting  bool
	finished bool
	err      error
	showHelp bool

	events    int
	tracks    int
	complete  int
	overflows int
	lastEvent int64
	paths     [][]r3.Vec
	chi2      []float64
	hists     []*metrics.Histogram
	selected  int
	summary   tracker.Summary
}

func NewModel(name string, hypotheses int, tracer *Tracer, results <-chan tracker.Result, done <-chan doneMsg) Model {
	m := Model{
		name:       name,
		hypotheses: hypotheses,
		results:    results,
		done:       done,
		tracer:     tracer,
		canvas:     NewCanvas(width, height),
		theme:      ThemeDefault,
		running:    true,
		chi2:       make([]float64, 0, historyCapacity),
		hists: []*metrics.Histogram{
			metrics.NewHistogram("p", "momentum", "p [GeV/c]", 40, 0, 20),
			metrics.NewHistogram("chi2", "track chi-square", "chi2", 40, 0, 50),
		},
	}
	if tracer != nil {
		m.planes = tracer.Planes()
		m.window()
	}
	return m
}

func (m *Model) window() {
	zmin, zmax := math.Inf(1), math.Inf(-1)
	xabs := 10.0
	for _, s := range m.planes {
		for _, p := range []r3.Vec{s.From, s.To} {
			zmin, zmax = math.Min(zmin, p.Z), math.Max(zmax, p.Z)
			xabs = math.Max(xabs, math.Abs(p.X))
		}
	}
	if math.IsInf(zmin, 0) {
		zmin, zmax = 0, 1000
	}
	pad := 0.05 * (zmax - zmin)
	m.canvas.Window(zmin-pad, zmax+pad, -1.2*xabs, 1.2*xabs)
}

func (m Model) wait() tea.Cmd {
	results, done := m.results, m.done
	return func() tea.Msg {
		select {
		case res, ok := <-results:
			if !ok {
				return <-done
			}
			return resultMsg(res)
		case d := <-done:
			return d
		}
	}
}

func (m Model) Init() tea.Cmd {
	return m.wait()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			if m.running && !m.waiting && !m.finished {
				m.waiting = true
				return m, m.wait()
			}
		case "h":
			m.selected = (m.selected + 1) % len(m.hists)
		case "t":
			m.theme = NextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case resultMsg:
		m.waiting = false
		m.observe(tracker.Result(msg))
		if m.running {
			m.waiting = true
			return m, m.wait()
		}
	case doneMsg:
		m.waiting = false
		m.finished = true
		m.summary = msg.summary
		m.err = msg.err
	}
	return m, nil
}

func (m *Model) observe(res tracker.Result) {
	m.events++
	m.tracks += len(res.Tracks)
	if m.hypotheses > 0 && len(res.Tracks) == m.hypotheses {
		m.complete++
	}
	for _, st := range res.Stats {
		if st.Overflow {
			m.overflows++
		}
	}
	m.lastEvent = res.Event
	m.paths = m.paths[:0]
	for _, t := range res.Tracks {
		m.hists[0].Observe(t.P())
		m.hists[1].Observe(t.Chi2)
		if len(m.chi2) == historyCapacity {
			m.chi2 = m.chi2[1:]
		}
		m.chi2 = append(m.chi2, t.Chi2)
		if m.tracer != nil {
			path, _ := m.tracer.Trace(t)
			m.paths = append(m.paths, path)
		}
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	for _, s := range m.planes {
		m.canvas.Segment(s.From.Z, s.From.X, s.To.Z, s.To.X)
	}
	for _, path := range m.paths {
		for i := 1; i < len(path); i++ {
			m.canvas.Segment(path[i-1].Z, path[i-1].X, path[i].Z, path[i].X)
		}
	}
}

func (m Model) View() string {
	st := m.theme.styles()
	m.draw()
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	switch {
	case m.finished && m.err != nil:
		s.WriteString(st.paused.Render("FAILED: "+m.err.Error()) + "\n\n")
	case m.finished:
		s.WriteString(st.status.Render("FINISHED") + "\n\n")
	case !m.running:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	default:
		s.WriteString(st.status.Render("RUNNING") + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Event", fmt.Sprintf("%d", m.lastEvent))
	row("Events", fmt.Sprintf("%d", m.events))
	row("Tracks", fmt.Sprintf("%d", m.tracks))
	row("Complete", fmt.Sprintf("%d", m.complete))
	row("Overflows", fmt.Sprintf("%d", m.overflows))
	if m.finished {
		row("Mean chi2", fmt.Sprintf("%.3f", m.summary.MeanChi2))
	}

	if len(m.chi2) > 1 {
		chart := asciigraph.Plot(m.chi2, asciigraph.Height(4), asciigraph.Width(36), asciigraph.Caption("track chi2"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	h := m.hists[m.selected]
	if h.Entries() > 0 {
		d := h.Data()
		chart := asciigraph.Plot(d.Counts(), asciigraph.Height(4), asciigraph.Width(36),
			asciigraph.Caption(fmt.Sprintf("%s [%g, %g]", d.XLabel, d.Bins[0].Low, d.Bins[len(d.Bins)-1].High)))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause H:Histogram T:Theme ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return `
  Space  pause or resume the run
  H      cycle the histogram
  T      cycle themes
  ?      toggle this help
  Q      quit
` + "\n" + mainView
	}
	return mainView
}

// Monitor runs exp over src while showing the monitor. Results are also
// passed to sinks. Quitting the monitor stops the run.
func Monitor(ctx context.Context, exp *experiment.Experiment, src events.Source, sinks ...experiment.Sink) (tracker.Summary, error) {
	tracer, err := NewTracer(exp.Config())
	if err != nil {
		return tracker.Summary{}, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan tracker.Result)
	done := make(chan doneMsg, 1)
	forward := experiment.SinkFunc(func(res tracker.Result) error {
		select {
		case results <- res:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	var (
		summary tracker.Summary
		runErr  error
	)
	finished := make(chan struct{})
	go func() {
		summary, runErr = exp.Run(ctx, src, append(sinks, forward)...)
		done <- doneMsg{summary: summary, err: runErr}
		close(finished)
	}()

	model := NewModel(exp.Config().Name, len(exp.Config().Hypotheses), tracer, results, done)
	model.waiting = true
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	cancel()
	<-finished
	if err != nil {
		return summary, err
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return summary, runErr
}
