package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"
	"github.com/san-kum/fragtrack/internal/config"
	"github.com/san-kum/fragtrack/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string

	// run, monitor and simulate
	numEvents int64
	seed      int64
	fitDir    string
	ceiling   int
	noSave    bool
	ensemble  int
	outPath   string

	// plot and export
	hypothesis string
	format     string

	// propagate
	charge   int
	mass     float64
	momentum float64
	tx, ty   float64
	side     string
	svgPath  string
	pngPath  string

	v   = viper.New()
	log zerolog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fragtrack",
		Short:         "fragment tracking through a dipole field",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			log, err = logging.New("fragtrack", v.GetString("log-level"), v.GetString("log-format"), os.Stderr)
			return err
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".fragtrack", "data directory")
	pf.StringVar(&configFile, "config", "", "setup file (yaml)")
	pf.StringVar(&preset, "preset", "s494", "configuration preset")
	pf.StringVar(&logLevel, "log-level", "info", "log level")
	pf.StringVar(&logFormat, "log-format", "console", "log format (console|json)")
	for _, name := range []string{"data", "config", "preset", "log-level", "log-format"} {
		_ = v.BindPFlag(name, pf.Lookup(name))
	}
	v.SetEnvPrefix("FRAGTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	runCmd := &cobra.Command{
		Use:   "run [events.jsonl]",
		Short: "track an event file, or synthetic events when none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTracking,
	}
	searchFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")
	runCmd.Flags().IntVar(&ensemble, "ensemble", 0, "run this many synthetic seeds in parallel, without saving")

	monitorCmd := &cobra.Command{
		Use:   "monitor [events.jsonl]",
		Short: "track with the live terminal monitor",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonitor,
	}
	searchFlags(monitorCmd)
	monitorCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "write synthetic events as JSON lines",
		Args:  cobra.NoArgs,
		RunE:  simulate,
	}
	simulateCmd.Flags().Int64Var(&numEvents, "events", 0, "number of events (0: from configuration)")
	simulateCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0: from configuration)")
	simulateCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and totals",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [histogram]",
		Short: "plot run histograms in the terminal",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run tracks",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "csv", "output format (csv|json)")
	exportCmd.Flags().StringVar(&hypothesis, "hypothesis", "", "only tracks of this hypothesis")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file")

	exportPlotsCmd := &cobra.Command{
		Use:   "export-plots [run_id]",
		Short: "write PNG and HTML histogram plots",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPlots,
	}
	exportPlotsCmd.Flags().StringVarP(&outPath, "out", "o", "", "output directory (default: the run directory)")

	propagateCmd := &cobra.Command{
		Use:   "propagate",
		Short: "propagate one particle through the setup",
		Args:  cobra.NoArgs,
		RunE:  propagate,
	}
	propagateCmd.Flags().IntVar(&charge, "charge", 6, "charge number")
	propagateCmd.Flags().Float64Var(&mass, "mass", 11.1749, "mass (GeV/c^2)")
	propagateCmd.Flags().Float64Var(&momentum, "p", 9.666, "momentum (GeV/c)")
	propagateCmd.Flags().Float64Var(&tx, "tx", 0, "slope px/pz")
	propagateCmd.Flags().Float64Var(&ty, "ty", 0, "slope py/pz")
	propagateCmd.Flags().StringVar(&side, "side", "left", "detector side (left|right)")
	propagateCmd.Flags().StringVar(&svgPath, "svg", "", "write the trajectory as SVG")
	propagateCmd.Flags().StringVar(&pngPath, "png", "", "write the trajectory as PNG")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, monitorCmd, simulateCmd, listCmd, showCmd, plotCmd,
		exportCmd, exportPlotsCmd, propagateCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func searchFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&numEvents, "events", 0, "synthetic events (0: from configuration), or cap on file events")
	cmd.Flags().Int64Var(&seed, "seed", 0, "synthetic seed (0: from configuration)")
	cmd.Flags().StringVar(&fitDir, "fit", "", "fit direction override (forward|backward)")
	cmd.Flags().IntVar(&ceiling, "ceiling", 0, "combination ceiling override")
}

// loadConfig resolves the setup from --config or --preset and applies the
// command line and FRAGTRACK_* overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := v.GetString("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.GetPreset(v.GetString("preset"))
	}
	if err != nil {
		return nil, err
	}
	if fitDir == "" {
		fitDir = v.GetString("fit")
	}
	if fitDir != "" {
		cfg.Search.Fit = fitDir
	}
	if ceiling <= 0 {
		ceiling = v.GetInt("ceiling")
	}
	if ceiling > 0 {
		cfg.Search.Ceiling = ceiling
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
