package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/algoviz/internal/algo"
	"github.com/san-kum/algoviz/internal/config"
	"github.com/san-kum/algoviz/internal/logger"
	"github.com/san-kum/algoviz/internal/metrics"
	"github.com/san-kum/algoviz/internal/playback"
	"github.com/san-kum/algoviz/internal/race"
	"github.com/san-kum/algoviz/internal/storage"
	"github.com/san-kum/algoviz/internal/tui"
)

func listAlgorithms(cmd *cobra.Command, args []string) error {
	reg := algo.NewRegistry()
	descs := reg.List()
	switch k := algo.Kind(kind); k {
	case "":
	case algo.Sorting, algo.Searching:
		descs = reg.ListKind(k)
	default:
		return algo.Invalid("kind", "unknown kind: %s", kind)
	}

	tbl := newTable(cmd.OutOrStdout(), "ID", "NAME", "KIND", "TIME", "SPACE")
	for _, d := range descs {
		tbl.AddRow(d.ID, d.Name, d.Kind, d.TimeComplexity, d.SpaceComplexity)
	}
	tbl.Print()
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	tbl := newTable(cmd.OutOrStdout(), "PRESET", "DESCRIPTION")
	for _, name := range config.ListPresets() {
		tbl.AddRow(name, config.GetPreset(name).Description)
	}
	tbl.Print()
	return nil
}

func runSort(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	id := algorithmArg(a.reg, a.cfg, args, algo.Sorting, algo.BubbleSort)
	return visualize(cmd, a, id)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	id := algorithmArg(a.reg, a.cfg, args, algo.Searching, algo.LinearSearch)
	return visualize(cmd, a, id)
}

// visualize runs id through the playback controller with a live status line.
func visualize(cmd *cobra.Command, a *app, id algo.ID) error {
	out := cmd.OutOrStdout()
	if err := a.ctrl.SelectAlgorithm(id); err != nil {
		return err
	}

	before := a.ctrl.Snapshot()
	if before.Selected.RequiresSorted() && !algo.IsSorted(before.Array) {
		// binary search needs a sorted input; reuse the custom array path
		if err := a.ctrl.SetCustomArray(before.Array); err != nil {
			return err
		}
		before = a.ctrl.Snapshot()
	}
	printHeader(out, before.Selected.Name)
	printInfo(out, "input  %s", formatArray(before.Array))

	if !quiet {
		live := tui.NewLiveStatus(out, 20)
		a.ctrl.Subscribe(live.OnChange)
		live.Start()
		defer live.Stop()
	}

	start := time.Now()
	if err := a.ctrl.StartSorting(cmd.Context()); err != nil {
		return err
	}
	elapsed := time.Since(start)

	s := a.ctrl.Snapshot()
	if !quiet {
		fmt.Fprintln(out)
	}
	switch {
	case s.Phase == playback.Cancelled:
		printInfo(out, "stopped after %s", formatElapsed(elapsed))
	case before.Selected.Kind == algo.Searching && s.FoundIndex >= 0:
		printSuccess(out, "found %d at index %d in %s", *s.SearchTarget, s.FoundIndex, formatElapsed(elapsed))
	case before.Selected.Kind == algo.Searching:
		printInfo(out, "%d not found (%s)", *s.SearchTarget, formatElapsed(elapsed))
	default:
		printInfo(out, "output %s", formatArray(s.Array))
		printSuccess(out, "sorted %d elements in %s", len(s.Array), formatElapsed(elapsed))
	}
	return nil
}

func runRace(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	a.ctrl.SetRaceMode(true)
	for _, id := range args {
		if err := a.ctrl.AddToRace(algo.ID(id)); err != nil {
			return err
		}
	}

	s := a.ctrl.Snapshot()
	printHeader(out, fmt.Sprintf("%s vs %s", s.Participants[0].Algorithm.Name, s.Participants[1].Algorithm.Name))
	printInfo(out, "input  %s", formatArray(s.Array))

	if err := a.ctrl.StartRace(cmd.Context()); err != nil {
		return err
	}

	s = a.ctrl.Snapshot()
	if len(s.History) == 0 {
		printInfo(out, "race stopped")
		return nil
	}
	rec := s.History[0]

	tbl := newTable(out, "RANK", "ALGORITHM", "TIME")
	for _, r := range rec.Results {
		tbl.AddRow(r.Rank, r.AlgorithmID, formatElapsed(r.ExecutionTime))
	}
	tbl.Print()

	if winner, ok := rec.Winner(); ok {
		printSuccess(out, "%s wins", winner.AlgorithmID)
	}
	if save {
		if err := a.store.SaveRace(rec); err != nil {
			return fmt.Errorf("save race: %w", err)
		}
		fmt.Fprintln(out, dimStyle.Render("saved race "+rec.ID))
	}
	return nil
}

// runTrace runs the algorithm without pacing and plots progress per step.
func runTrace(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	log := logger.FromContext(cmd.Context())

	alg, err := a.reg.Get(algorithmArg(a.reg, a.cfg, args, "", algo.BubbleSort))
	if err != nil {
		return err
	}

	input := a.ctrl.Snapshot().Array
	if alg.RequiresSorted() {
		slices.Sort(input)
	}
	working := slices.Clone(input)

	var steps []algo.Step
	stats := metrics.Default()
	env := algo.Env{
		Emit: stats.Emitter(func(s algo.Step) bool {
			steps = append(steps, s)
			return cmd.Context().Err() == nil
		}),
		Speed: func() int { return a.cfg.Speed },
		Sleep: func(time.Duration) {},
	}

	meta := storage.TraceMetadata{
		Algorithm: alg.ID,
		Seed:      a.cfg.Seed,
		Speed:     a.cfg.Speed,
		Input:     input,
		Found:     -1,
	}
	if alg.Kind == algo.Searching {
		if a.cfg.Target == nil {
			return algo.Invalid("target", "Please enter a search target value")
		}
		meta.Target = a.cfg.Target
		meta.Found, err = alg.Search(working, *a.cfg.Target, env)
	} else {
		err = alg.Sort(working, env)
	}
	switch {
	case errors.Is(err, algo.ErrCanceled):
		meta.Canceled = true
	case err != nil:
		return err
	}
	meta.Output = working
	meta.Metrics = stats.Values()
	log.Debug("trace recorded", "algorithm", alg.ID, "steps", len(steps))

	printHeader(out, alg.Name)
	tbl := newTable(out, "METRIC", "VALUE")
	for _, m := range stats {
		tbl.AddRow(m.Name(), formatMetric(m.Value()))
	}
	tbl.Print()
	fmt.Fprintf(out, "paced duration at speed %d: %s\n\n", a.cfg.Speed, formatElapsed(pacedDuration(len(steps), a.cfg.Speed)))

	plotProgress(out, steps)

	if save {
		if err := a.store.Init(); err != nil {
			return err
		}
		id, err := a.store.SaveTrace(meta, steps)
		if err != nil {
			return fmt.Errorf("save trace: %w", err)
		}
		fmt.Fprintln(out, dimStyle.Render("saved trace "+id))
	}
	return nil
}

// plotProgress draws the progress of every step, when there is more than one.
func plotProgress(w io.Writer, steps []algo.Step) {
	if len(steps) < 2 {
		return
	}
	progress := make([]float64, len(steps))
	for i, s := range steps {
		progress[i] = s.Progress
	}
	graph := asciigraph.Plot(progress,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.Caption("progress (%) per step"),
	)
	fmt.Fprintln(w, graph)
}

// pacedDuration estimates the wall time of n emissions at speed, ignoring
// the longer delay after mutations.
func pacedDuration(n, speed int) time.Duration {
	return time.Duration(n) * algo.Delay(speed)
}

func listTraces(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	traces, err := storage.New(cfg.DataDir).ListTraces()
	if err != nil {
		return err
	}
	if len(traces) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("no saved traces"))
		return nil
	}

	tbl := newTable(cmd.OutOrStdout(), "ID", "DATE", "ALGORITHM", "SIZE", "STEPS", "STATUS")
	for _, t := range traces {
		status := "complete"
		if t.Canceled {
			status = "canceled"
		}
		tbl.AddRow(shortID(t.ID), t.Timestamp.Local().Format("2006-01-02 15:04"), t.Algorithm, len(t.Input), t.Steps, status)
	}
	tbl.Print()
	return nil
}

// showTrace reloads a saved trace and plots it the way trace does.
func showTrace(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	store := storage.New(cfg.DataDir)

	traces, err := store.ListTraces()
	if err != nil {
		return err
	}
	ids := make([]string, len(traces))
	for i, t := range traces {
		ids[i] = t.ID
	}
	id, err := resolveID("trace", args[0], ids)
	if err != nil {
		return err
	}

	meta, err := store.LoadTrace(id)
	if err != nil {
		return err
	}
	steps, err := store.LoadSteps(id)
	if err != nil {
		return err
	}

	printHeader(out, string(meta.Algorithm))
	printInfo(out, "input  %s", formatArray(meta.Input))
	printInfo(out, "output %s", formatArray(meta.Output))
	if meta.Target != nil {
		printInfo(out, "target %d, found at %d", *meta.Target, meta.Found)
	}

	tbl := newTable(out, "METRIC", "VALUE")
	tbl.AddRow("steps", len(steps))
	names := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		tbl.AddRow(name, formatMetric(meta.Metrics[name]))
	}
	tbl.Print()
	fmt.Fprintln(out)

	plotProgress(out, steps)
	return nil
}

func listHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	store := storage.New(cfg.DataDir)

	records, err := store.ListRaces()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		return showRace(cmd, store, records, args[0])
	}
	if jsonOut {
		return storage.ExportHistory(out, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("no saved races"))
		return nil
	}

	tbl := newTable(out, "ID", "DATE", "SIZE", "WINNER", "TIME", "RUNNER-UP", "TIME")
	for _, rec := range records {
		if len(rec.Results) < 2 {
			continue
		}
		first, second := rec.Results[0], rec.Results[1]
		tbl.AddRow(shortID(rec.ID), rec.Date.Local().Format("2006-01-02 15:04"), rec.ArraySize,
			first.AlgorithmID, formatElapsed(first.ExecutionTime),
			second.AlgorithmID, formatElapsed(second.ExecutionTime))
	}
	tbl.Print()
	return nil
}

func showRace(cmd *cobra.Command, store *storage.Store, records []race.Record, prefix string) error {
	out := cmd.OutOrStdout()
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	id, err := resolveID("race", prefix, ids)
	if err != nil {
		return err
	}
	rec, err := store.LoadRace(id)
	if err != nil {
		return err
	}
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	printHeader(out, "race "+rec.ID)
	printInfo(out, "%s, %d elements", rec.Date.Local().Format("2006-01-02 15:04:05"), rec.ArraySize)
	tbl := newTable(out, "RANK", "ALGORITHM", "TIME")
	for _, r := range rec.Results {
		tbl.AddRow(r.Rank, r.AlgorithmID, formatElapsed(r.ExecutionTime))
	}
	tbl.Print()
	return nil
}

// resolveID matches prefix against ids: an exact id wins, otherwise the
// prefix must pick out exactly one.
func resolveID(what, prefix string, ids []string) (string, error) {
	var matches []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no saved %s matches %q", what, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q matches %d saved %ss", prefix, len(matches), what)
	}
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	printSuccess(cmd.OutOrStdout(), "wrote %s", args[0])
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
