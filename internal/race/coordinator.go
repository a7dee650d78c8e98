package race

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/algoviz/internal/algo"
	"github.com/san-kum/algoviz/internal/logger"
)

type entry struct {
	alg     algo.Algorithm
	view    Participant
	working []int
}

// Coordinator owns the race roster and the append-only race history.
// It is safe for concurrent use.
type Coordinator struct {
	mu        sync.Mutex
	roster    []*entry
	history   []Record
	stepDelay time.Duration
	log       logger.Logger
	now       func() time.Time
}

type Option func(*Coordinator)

func WithStepDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.stepDelay = d }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		stepDelay: DefaultStepDelay,
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add enters a sorting algorithm. When the roster is full the oldest
// participant is evicted.
func (c *Coordinator) Add(a algo.Algorithm) error {
	if a.Kind != algo.Sorting {
		return algo.Invalid("race", "Race mode only supports sorting algorithms")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.roster {
		if e.alg.ID == a.ID {
			return algo.Invalid("race", "%s is already in the race", a.Name)
		}
	}
	if len(c.roster) >= MaxParticipants {
		evicted := c.roster[0]
		c.roster = slices.Delete(c.roster, 0, 1)
		c.log.Debug("race roster full, evicted oldest", "algorithm", evicted.alg.ID)
	}
	c.roster = append(c.roster, &entry{alg: a, view: Participant{Algorithm: a.Descriptor}})
	return nil
}

// Remove drops the participant with id and reports whether it was present.
func (c *Coordinator) Remove(id algo.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := len(c.roster)
	c.roster = slices.DeleteFunc(c.roster, func(e *entry) bool { return e.alg.ID == id })
	return len(c.roster) != before
}

func (c *Coordinator) Clear() {
	c.mu.Lock()
	c.roster = nil
	c.mu.Unlock()
}

func (c *Coordinator) Participants() []Participant {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Participant, len(c.roster))
	for i, e := range c.roster {
		out[i] = e.view.clone()
	}
	return out
}

// History returns the race records, newest first.
func (c *Coordinator) History() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Record, len(c.history))
	for i, r := range c.history {
		out[i] = r.clone()
	}
	return out
}

// Ready reports whether the roster can start a race.
func (c *Coordinator) Ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyLocked()
}

func (c *Coordinator) readyLocked() error {
	if len(c.roster) != MaxParticipants {
		return algo.Invalid("race", "Select exactly two algorithms for the race")
	}
	for _, e := range c.roster {
		if e.alg.Kind != algo.Sorting {
			return algo.Invalid("race", "Race mode only supports sorting algorithms")
		}
	}
	return nil
}

// Run sorts a private copy of source with each participant concurrently.
// It returns the stored record when both runs complete, (nil, nil) when
// the race was stopped, and an *algo.ExecutionError if a run failed.
func (c *Coordinator) Run(ctx context.Context, source []int, ctl Control) (*Record, error) {
	c.mu.Lock()
	if err := c.readyLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	entries := slices.Clone(c.roster)
	for _, e := range entries {
		e.working = slices.Clone(source)
		e.view = Participant{Algorithm: e.alg.Descriptor, Array: slices.Clone(source)}
	}
	c.mu.Unlock()
	c.changed(ctl)

	c.log.Info("race started", "size", len(source), "a", entries[0].alg.ID, "b", entries[1].alg.ID)

	canceled := make([]bool, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		g.Go(func() (err error) {
			// Changed also runs after the sort returns
			defer func() {
				if r := recover(); r != nil {
					err = &algo.ExecutionError{Algorithm: e.alg.ID, Err: fmt.Errorf("%s: %v", e.alg.Name, r)}
					c.log.Error("race participant failed", "algorithm", e.alg.ID, "error", err)
				}
			}()

			start := c.now()
			err = e.alg.Sort(e.working, c.env(gctx, e, ctl))
			elapsed := c.now().Sub(start)

			switch {
			case errors.Is(err, algo.ErrCanceled):
				canceled[i] = true
				c.settle(e)
				return nil
			case err != nil:
				c.log.Error("race participant failed", "algorithm", e.alg.ID, "error", err)
				return err
			}
			c.complete(e, elapsed)
			c.changed(ctl)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var ee *algo.ExecutionError
		if !errors.As(err, &ee) {
			err = &algo.ExecutionError{Err: err}
		}
		return nil, err
	}
	if slices.Contains(canceled, true) || ctx.Err() != nil {
		c.log.Info("race stopped")
		return nil, nil
	}

	rec := c.record(entries, len(source))
	c.log.Info("race finished", "id", rec.ID, "winner", rec.Results[0].AlgorithmID)
	return &rec, nil
}

func (c *Coordinator) env(ctx context.Context, e *entry, ctl Control) algo.Env {
	sleep := ctl.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return algo.Env{
		Speed: ctl.Speed,
		Sleep: sleep,
		Emit: func(s algo.Step) bool {
			if ctx.Err() != nil || (ctl.Gate != nil && !ctl.Gate(ctx)) {
				return false
			}

			c.mu.Lock()
			e.view.Progress = s.Progress
			e.view.Active = s.Active
			e.view.Comparing = s.Comparing
			e.view.Sorted = s.Sorted
			e.view.Array = slices.Clone(e.working)
			e.view.Completed = s.Progress >= 100
			c.mu.Unlock()
			c.changed(ctl)

			if c.stepDelay > 0 {
				sleep(c.stepDelay)
			}
			return ctx.Err() == nil && (ctl.Gate == nil || ctl.Gate(ctx))
		},
	}
}

// settle publishes the working array left by a stopped run.
func (c *Coordinator) settle(e *entry) {
	c.mu.Lock()
	e.view.Array = slices.Clone(e.working)
	c.mu.Unlock()
}

func (c *Coordinator) complete(e *entry, elapsed time.Duration) {
	all := make([]int, len(e.working))
	for i := range all {
		all[i] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e.view.Progress = 100
	e.view.Completed = true
	e.view.Active = nil
	e.view.Comparing = nil
	e.view.Sorted = all
	e.view.Array = slices.Clone(e.working)
	e.view.ExecutionTime = elapsed
}

// record ranks participants by ascending execution time and prepends the
// record to the history.
func (c *Coordinator) record(entries []*entry, size int) Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := make([]Result, len(entries))
	for i, e := range entries {
		results[i] = Result{AlgorithmID: e.alg.ID, ExecutionTime: e.view.ExecutionTime}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ExecutionTime < results[j].ExecutionTime
	})
	for i := range results {
		results[i].Rank = i + 1
	}

	rec := Record{
		ID:        uuid.NewString(),
		Date:      c.now().UTC(),
		ArraySize: size,
		Results:   results,
	}
	c.history = append([]Record{rec}, c.history...)
	return rec.clone()
}

func (c *Coordinator) changed(ctl Control) {
	if ctl.Changed != nil {
		ctl.Changed()
	}
}
