package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fragtrack/internal/config"
	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/events"
	"github.com/san-kum/fragtrack/internal/experiment"
	"github.com/san-kum/fragtrack/internal/export"
	"github.com/san-kum/fragtrack/internal/metrics"
	"github.com/san-kum/fragtrack/internal/particle"
	"github.com/san-kum/fragtrack/internal/propagator"
	"github.com/san-kum/fragtrack/internal/storage"
	"github.com/san-kum/fragtrack/internal/tracker"
	"github.com/san-kum/fragtrack/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

func sourceSpec(cfg *config.Config, args []string) experiment.SourceSpec {
	spec := experiment.SourceSpec{Kind: "synthetic", Seed: seed, Events: numEvents}
	if spec.Seed == 0 {
		spec.Seed = cfg.Simulation.Seed
	}
	if len(args) == 1 {
		spec.Kind, spec.Path = "file", args[0]
	}
	return spec
}

// tracking runs the experiment over the events named by args, with or
// without the monitor.
func tracking(cmd *cobra.Command, args []string, monitor bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, log)
	if err != nil {
		return err
	}
	spec := sourceSpec(cfg, args)
	src, closer, err := experiment.NewRegistry().Source(exp, spec)
	if err != nil {
		return err
	}
	defer closer.Close()

	var (
		sinks []experiment.Sink
		run   *storage.Run
	)
	if !noSave {
		st := storage.New(v.GetString("data"))
		if err := st.Init(); err != nil {
			return err
		}
		if run, err = st.Create(cfg.Name); err != nil {
			return err
		}
		sinks = append(sinks, run)
	}

	var summary tracker.Summary
	if monitor {
		summary, err = viz.Monitor(cmd.Context(), exp, src, sinks...)
	} else {
		summary, err = exp.Run(cmd.Context(), src, sinks...)
	}

	if run != nil {
		meta := storage.RunMetadata{
			Config:     cfg.Name,
			Source:     spec.Kind,
			Direction:  cfg.Search.Fit,
			Hypotheses: hypothesisNames(cfg),
			Summary:    summary,
			Metrics:    exp.Diagnostics().Metrics(),
		}
		if spec.Kind == "synthetic" {
			meta.Seed = spec.Seed
		} else {
			meta.Source = spec.Path
		}
		if cerr := run.Close(meta, exp.Diagnostics().Snapshot()); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}

	printSummary(os.Stdout, summary)
	if run != nil {
		fmt.Printf("\nrun saved: %s\n", run.ID)
	}
	return nil
}

func runTracking(cmd *cobra.Command, args []string) error {
	if ensemble > 0 {
		return runEnsemble(cmd, args)
	}
	return tracking(cmd, args, false)
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("--ensemble runs synthetic events only")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	spec := sourceSpec(cfg, args)
	n := spec.Events
	if n <= 0 {
		n = int64(cfg.Simulation.Events)
	}
	summaries, err := experiment.NewEnsemble(cfg, ensemble, spec.Seed, n, log).Run(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tEVENTS\tTRACKS\tCOMPLETE\tOVERFLOWS\tCHI2 MEAN\tCHI2 MEDIAN")
	for i, s := range summaries {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%.4f\t%.4f\n",
			spec.Seed+int64(i), s.Events, s.Tracks, s.Complete, s.Overflows, s.MeanChi2, s.MedianChi2)
	}
	return w.Flush()
}

func runMonitor(cmd *cobra.Command, args []string) error { return tracking(cmd, args, true) }

func hypothesisNames(cfg *config.Config) []string {
	names := make([]string, len(cfg.Hypotheses))
	for i, h := range cfg.Hypotheses {
		names[i] = h.Name
	}
	return names
}

func printSummary(out io.Writer, s tracker.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "events\t%d\n", s.Events)
	fmt.Fprintf(w, "tracks\t%d\n", s.Tracks)
	fmt.Fprintf(w, "complete events\t%d\n", s.Complete)
	fmt.Fprintf(w, "candidates\t%d\n", s.Candidates)
	fmt.Fprintf(w, "failed fits\t%d\n", s.Failed)
	fmt.Fprintf(w, "non-finite fits\t%d\n", s.NonFinite)
	fmt.Fprintf(w, "overflows\t%d\n", s.Overflows)
	fmt.Fprintf(w, "chi2 mean\t%.4f\n", s.MeanChi2)
	fmt.Fprintf(w, "chi2 median\t%.4f\n", s.MedianChi2)
	fmt.Fprintf(w, "chi2 q90\t%.4f\n", s.Chi2Q90)
	w.Flush()
}

func simulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, log)
	if err != nil {
		return err
	}
	n, s := numEvents, seed
	if n <= 0 {
		n = int64(cfg.Simulation.Events)
	}
	if s == 0 {
		s = cfg.Simulation.Seed
	}

	out := io.Writer(os.Stdout)
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	gen := exp.Generator(s, n)
	w := events.NewWriter(out)
	for {
		ev, err := gen.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := w.Write(ev); err != nil {
			return err
		}
	}
	log.Info().Int64("events", n).Int64("seed", s).Str("out", outPath).Msg("events written")
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONFIG\tTIME\tSOURCE\tFIT\tEVENTS\tTRACKS\tCHI2")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%.3f\n",
			run.ID,
			run.Config,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Source,
			run.Direction,
			run.Summary.Events,
			run.Summary.Tracks,
			run.Summary.MeanChi2,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("config: %s\n", meta.Config)
	fmt.Printf("time: %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("source: %s\n", meta.Source)
	if meta.Seed != 0 {
		fmt.Printf("seed: %d\n", meta.Seed)
	}
	fmt.Printf("fit: %s\n", meta.Direction)
	fmt.Printf("hypotheses: %v\n\n", meta.Hypotheses)
	printSummary(os.Stdout, meta.Summary)

	if eff, ok := meta.Metrics["efficiency"]; ok {
		fmt.Printf("\nefficiency: %.3f\n", eff)
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	hists, err := st.LoadHistograms(args[0])
	if err != nil {
		return err
	}

	want := []string{"chi2", "p"}
	if len(args) == 2 {
		want = args[1:]
	}
	byName := make(map[string]metrics.HistogramData, len(hists))
	for _, h := range hists {
		byName[h.Name] = h
	}

	for _, name := range want {
		h, ok := byName[name]
		if !ok {
			return fmt.Errorf("run %s has no histogram %q", args[0], name)
		}
		if h.Entries == 0 {
			fmt.Printf("%s: no entries\n\n", name)
			continue
		}
		graph := asciigraph.Plot(h.Counts(),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s  %s in [%g, %g]  entries %d  mean %.4g",
				h.Title, h.XLabel, h.Bins[0].Low, h.Bins[len(h.Bins)-1].High, h.Entries, h.Mean)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	tracks, err := st.LoadTracks(args[0], hypothesis)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return export.ExportJSON(outPath, args[0], tracks)
	case "csv":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	out := io.Writer(os.Stdout)
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	w := csv.NewWriter(out)
	w.Write([]string{"event", "hypothesis", "side", "charge", "x", "y", "z", "px", "py", "pz", "p", "chi2", "status"})
	for _, t := range tracks {
		w.Write([]string{
			strconv.FormatInt(t.Event, 10),
			t.Hypothesis,
			t.Side.String(),
			strconv.Itoa(t.Charge),
			ff(t.Position.X), ff(t.Position.Y), ff(t.Position.Z),
			ff(t.Momentum.X), ff(t.Momentum.Y), ff(t.Momentum.Z),
			ff(t.P()),
			ff(t.Chi2),
			strconv.Itoa(t.Status),
		})
	}
	w.Flush()
	return w.Error()
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func exportPlots(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	hists, err := st.LoadHistograms(args[0])
	if err != nil {
		return err
	}
	dir := outPath
	if dir == "" {
		dir = filepath.Join(v.GetString("data"), args[0])
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	paths, err := export.HistogramsPNG(hists, dir)
	if err != nil {
		return err
	}
	htmlPath := filepath.Join(dir, "histograms.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.HistogramsHTML(f, args[0], hists); err != nil {
		return err
	}

	fmt.Printf("wrote %d png files and %s\n", len(paths), htmlPath)
	return nil
}

func propagate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sd, err := detector.ParseSide(side)
	if err != nil {
		return err
	}
	setup, err := cfg.BuildSetup()
	if err != nil {
		return err
	}
	field, err := cfg.BuildField()
	if err != nil {
		return err
	}
	traj := &propagator.Trajectory{}
	prop, err := propagator.New(field, cfg.Volume(), propagator.WithLogger(log), propagator.WithRecorder(traj))
	if err != nil {
		return err
	}

	c := particle.New(charge, mass, 0.5)
	c.SetStart(r3.Vec{}, r3.Scale(momentum, r3.Unit(r3.Vec{X: tx, Y: ty, Z: 1})))
	c.Reset()
	traj.Record(c.Pos)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DETECTOR\tX\tY\tZ\tLOCAL X\tLOCAL Y\tP\tPATH\tIN")
	var planes []r3.Vec
	for _, d := range setup.Side(sd) {
		if d.Section != detector.Target {
			if err := prop.PropagateToPlane(c, d.Plane); err != nil {
				w.Flush()
				return fmt.Errorf("%s: %w", d.Name, err)
			}
		}
		planes = append(planes, d.Plane.Origin)
		l := d.GlobalToLocal(c.Pos)
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.4f\t%.2f\t%v\n",
			d.Name, c.Pos.X, c.Pos.Y, c.Pos.Z, l.X, l.Y, c.P, c.Path, d.Accepts(c.Pos))
		if cfg.Search.EnergyLoss && d.Section != detector.TimeOfFlight {
			weight := 1.0
			if d.Section == detector.Target {
				weight = 0.5
			}
			if err := c.PassThrough(d, weight); err != nil {
				w.Flush()
				return fmt.Errorf("%s: %w", d.Name, err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nrk steps: %d\n", prop.Steps())

	if svgPath != "" {
		svg := export.TrajectorySVG(traj.Points, planes, 800, 400, "#00ff88")
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
	}
	if pngPath != "" {
		if err := export.TrajectoryPNG(traj.Points, pngPath); err != nil {
			return err
		}
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tFIT\tCALIBRATION\tHYPOTHESES")
	for _, name := range config.ListPresets() {
		cfg, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", name, cfg.Search.Fit, cfg.Calibration.Mode, hypothesisNames(cfg))
	}
	return w.Flush()
}
