package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/algoviz/internal/algo"
	"github.com/san-kum/algoviz/internal/config"
	"github.com/san-kum/algoviz/internal/logger"
	"github.com/san-kum/algoviz/internal/playback"
	"github.com/san-kum/algoviz/internal/race"
	"github.com/san-kum/algoviz/internal/storage"
	"github.com/san-kum/algoviz/internal/tui"
)

var (
	configFile string
	dataDir    string
	logLevel   string
	logFormat  string
	speed      int
	arraySize  int
	preset     string
	seed       int64
	values     string
	target     int
	save       bool
	quiet      bool
	jsonOut    bool
	raceDelay  time.Duration
	kind       string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "algoviz",
		Short:         "step through sorting and searching algorithms",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPlay,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", config.DefaultLogFormat, "log format (text, json)")
	pf.IntVar(&speed, "speed", algo.DefaultSpeed, "playback speed, 1 to 200")
	pf.IntVar(&arraySize, "size", playback.DefaultArraySize, "array size, 5 to 50")
	pf.StringVar(&preset, "preset", "random", "array preset")
	pf.Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	pf.StringVar(&values, "values", "", "custom array, e.g. \"5, 3, 9, 1, 7\"")

	algorithmsCmd := &cobra.Command{
		Use:     "algorithms",
		Aliases: []string{"list"},
		Short:   "list available algorithms",
		RunE:    listAlgorithms,
	}
	algorithmsCmd.Flags().StringVar(&kind, "kind", "", "only list one kind (sorting, searching)")

	sortCmd := &cobra.Command{
		Use:   "sort [algorithm]",
		Short: "run a sorting algorithm",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSort,
	}
	sortCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no live status line")

	searchCmd := &cobra.Command{
		Use:   "search [algorithm]",
		Short: "run a searching algorithm",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSearch,
	}
	searchCmd.Flags().IntVarP(&target, "target", "t", 0, "value to search for")
	searchCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no live status line")

	raceCmd := &cobra.Command{
		Use:   "race <algorithm> <algorithm>",
		Short: "race two sorting algorithms on the same array",
		Args:  cobra.ExactArgs(2),
		RunE:  runRace,
	}
	raceCmd.Flags().BoolVar(&save, "save", false, "save the race record")
	raceCmd.Flags().DurationVar(&raceDelay, "step-delay", race.DefaultStepDelay, "extra delay after every race step")

	traceCmd := &cobra.Command{
		Use:   "trace [algorithm]",
		Short: "record every step of a run and plot its progress",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTrace,
	}
	traceCmd.Flags().IntVarP(&target, "target", "t", 0, "value to search for")
	traceCmd.Flags().BoolVar(&save, "save", false, "save the trace")

	traceShowCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "plot a saved trace",
		Args:  cobra.ExactArgs(1),
		RunE:  showTrace,
	}
	traceCmd.AddCommand(traceShowCmd)

	tracesCmd := &cobra.Command{
		Use:   "traces",
		Short: "list saved traces",
		RunE:  listTraces,
	}

	historyCmd := &cobra.Command{
		Use:   "history [id]",
		Short: "list saved races, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listHistory,
	}
	historyCmd.Flags().BoolVar(&jsonOut, "json", false, "print as json")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list array presets",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config <path>",
		Short: "write the effective configuration (yaml, or toml by extension)",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "interactive control surface",
		RunE:  runPlay,
	}

	rootCmd.AddCommand(algorithmsCmd, sortCmd, searchCmd, raceCmd, traceCmd, tracesCmd, historyCmd, presetsCmd, configCmd, playCmd)
	return rootCmd
}

// loadConfig reads --config when given and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("size") {
		cfg.ArraySize = arraySize
	}
	if flags.Changed("preset") {
		cfg.Preset = preset
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("target") {
		t := target
		cfg.Target = &t
	}
	if flags.Changed("step-delay") {
		cfg.RaceStepDelay = raceDelay
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logger.New(
		logger.WithLevel(level),
		logger.WithFormat(logger.Format(cfg.Log.Format)),
		logger.WithOutput(os.Stderr),
	), nil
}

type app struct {
	cfg   *config.Config
	log   logger.Logger
	reg   *algo.Registry
	ctrl  *playback.Controller
	store *storage.Store
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	s := cfg.Seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	arr, err := initialArray(cfg, rng)
	if err != nil {
		return nil, err
	}

	reg := algo.NewRegistry()
	ctrl := playback.New(reg,
		playback.WithLogger(log),
		playback.WithRand(rng),
		playback.WithSpeed(cfg.Speed),
		playback.WithArray(arr),
		playback.WithRace(race.New(
			race.WithStepDelay(cfg.RaceStepDelay),
			race.WithLogger(log),
		)),
	)
	if cfg.Target != nil {
		ctrl.SetSearchTarget(cfg.Target)
	}

	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	log.Debug("configured", "seed", s, "speed", cfg.Speed, "size", len(arr), "preset", cfg.Preset)
	return &app{cfg: cfg, log: log, reg: reg, ctrl: ctrl, store: storage.New(cfg.DataDir)}, nil
}

func initialArray(cfg *config.Config, rng *rand.Rand) ([]int, error) {
	if values != "" {
		return playback.ParseValues(values)
	}
	return playback.Generate(rng, cfg.Shape(), cfg.ArraySize)
}

// algorithmArg picks the positional id, then the configured one when it
// matches kind (any kind when empty), then fallback.
func algorithmArg(reg *algo.Registry, cfg *config.Config, args []string, kind algo.Kind, fallback algo.ID) algo.ID {
	if len(args) > 0 {
		return algo.ID(args[0])
	}
	if cfg.Algorithm != "" {
		id := algo.ID(cfg.Algorithm)
		if a, err := reg.Get(id); err == nil && (kind == "" || a.Kind == kind) {
			return id
		}
	}
	return fallback
}

func runPlay(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := tui.Run(cmd.Context(), a.ctrl); err != nil {
		return fmt.Errorf("interactive session: %w", err)
	}
	return nil
}
