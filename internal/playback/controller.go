package playback

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/san-kum/algoviz/internal/algo"
	"github.com/san-kum/algoviz/internal/logger"
	"github.com/san-kum/algoviz/internal/race"
)

// Controller owns the session state and drives algorithm runs.
//
// Runs execute on the caller's goroutine; the other methods may be called
// concurrently from a front end. A generation counter tags every run so
// emissions from a superseded run are ignored.
type Controller struct {
	mu        sync.Mutex
	registry  *algo.Registry
	race      *race.Coordinator
	log       logger.Logger
	rng       *rand.Rand
	observers []func(Session)

	state    Session
	selected *algo.Algorithm
	gen      uint64
	resume   chan struct{} // closed on resume; only valid while paused
	stop     chan struct{} // closed when the current run must wake up and stop
}

type Option func(*Controller)

func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

func WithRace(coord *race.Coordinator) Option {
	return func(c *Controller) { c.race = coord }
}

func WithSpeed(speed int) Option {
	return func(c *Controller) { c.state.Speed = algo.ClampSpeed(speed) }
}

func WithArray(values []int) Option {
	return func(c *Controller) { c.state.Array = slices.Clone(values) }
}

// WithObserver registers fn to receive a snapshot after every change.
func WithObserver(fn func(Session)) Option {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

func New(reg *algo.Registry, opts ...Option) *Controller {
	c := &Controller{
		registry: reg,
		log:      logger.Nop(),
		stop:     make(chan struct{}),
		state: Session{
			Speed:        algo.DefaultSpeed,
			FoundIndex:   -1,
			CurrentIndex: -1,
		},
	}
	close(c.stop)

	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.race == nil {
		c.race = race.New(race.WithLogger(c.log))
	}
	if c.state.Array == nil {
		c.state.Array, _ = Generate(c.rng, Random, DefaultArraySize)
	}
	return c
}

func (c *Controller) Registry() *algo.Registry { return c.registry }

// Subscribe adds an observer after construction.
func (c *Controller) Subscribe(fn func(Session)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) Speed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Speed
}

// SetSpeed clamps speed into [algo.MinSpeed, algo.MaxSpeed] and returns
// the value applied.
func (c *Controller) SetSpeed(speed int) int {
	c.update(func() {
		c.state.Speed = algo.ClampSpeed(speed)
	})
	return c.Speed()
}

func (c *Controller) SelectAlgorithm(id algo.ID) error {
	a, err := c.registry.Get(id)
	if err != nil {
		return c.reject(algo.Invalid("algorithm", "Algorithm %s not implemented", id))
	}
	c.update(func() {
		c.selected = &a
		c.state.Error = ""
	})
	return nil
}

func (c *Controller) SetSearchTarget(target *int) {
	c.update(func() {
		if target == nil {
			c.state.SearchTarget = nil
		} else {
			t := *target
			c.state.SearchTarget = &t
		}
		c.state.Error = ""
	})
}

func (c *Controller) TogglePause() {
	c.update(func() {
		c.setPausedLocked(!c.state.Paused)
		if c.state.Playing {
			if c.state.Paused {
				c.state.Phase = Paused
			} else {
				c.state.Phase = Running
			}
		}
	})
}

// SetArraySize replaces the array with n random values. The array is
// generated sorted when binary search is selected.
func (c *Controller) SetArraySize(n int) error {
	if n < MinArraySize || n > MaxArraySize {
		return c.reject(algo.Invalid("array", "Array size must be between %d and %d", MinArraySize, MaxArraySize))
	}
	c.update(func() {
		c.replaceArrayLocked(c.generateLocked(n))
	})
	return nil
}

// SetCustomArray installs values, sorted first when binary search is selected.
func (c *Controller) SetCustomArray(values []int) error {
	if err := validateValues(values); err != nil {
		return c.reject(err)
	}
	c.update(func() {
		arr := slices.Clone(values)
		if c.selected != nil && c.selected.RequiresSorted() {
			slices.Sort(arr)
		}
		c.replaceArrayLocked(arr)
	})
	return nil
}

// ResetState stops any run and draws a fresh array of the current size,
// including the short sizes custom arrays allow.
func (c *Controller) ResetState() {
	c.update(func() {
		n := len(c.state.Array)
		if n == 0 {
			n = DefaultArraySize
		}
		c.replaceArrayLocked(c.generateLocked(n))
	})
}

// StopVisualization ends the current run. The run itself settles as
// Cancelled once it observes the stop.
func (c *Controller) StopVisualization() {
	c.update(func() {
		if c.state.Playing {
			c.state.Phase = Cancelled
		} else {
			c.state.Phase = Idle
		}
		c.haltLocked()
		c.state.Playing = false
		c.setPausedLocked(false)
		c.clearIndicesLocked()
		c.state.Error = ""
	})
}

// SetRaceMode toggles race mode; leaving it discards the roster.
func (c *Controller) SetRaceMode(on bool) {
	c.update(func() {
		c.state.RaceMode = on
		c.state.Error = ""
		if !on {
			c.race.Clear()
		}
	})
}

func (c *Controller) AddToRace(id algo.ID) error {
	a, err := c.registry.Get(id)
	if err != nil {
		return c.reject(algo.Invalid("race", "Algorithm %s not implemented", id))
	}
	if err := c.race.Add(a); err != nil {
		return c.reject(err)
	}
	c.update(func() { c.state.Error = "" })
	return nil
}

func (c *Controller) RemoveFromRace(id algo.ID) {
	c.race.Remove(id)
	c.update(func() { c.state.Error = "" })
}

// Ready reports whether the race roster can start.
func (c *Controller) Ready() error { return c.race.Ready() }

// StartSorting runs the selected algorithm on a copy of the array and
// blocks until it completes, is cancelled or fails. Cancellation is not an
// error. Validation failures return an *algo.ValidationError before any
// state other than the error message changes.
func (c *Controller) StartSorting(ctx context.Context) error {
	c.mu.Lock()
	a, target, err := c.prepareLocked()
	if err != nil {
		c.failLocked(err)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return err
	}

	gen := c.beginLocked()
	working := slices.Clone(c.state.Array)
	stop := c.stop
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	log := c.log.With("algorithm", a.ID, "run", gen)
	log.Debug("run started", "size", len(working))

	searching := a.Kind == algo.Searching
	env := algo.Env{
		Emit:  c.emitter(ctx, gen, working, searching),
		Speed: c.Speed,
		Sleep: c.sleeper(ctx, stop),
	}

	found := -1
	if searching {
		found, err = a.Search(working, target, env)
	} else {
		err = a.Sort(working, env)
	}
	return c.finishRun(log, gen, a, working, found, err)
}

// StartRace races the two roster entries on copies of the array. It blocks
// until both runs finish or the race is stopped.
func (c *Controller) StartRace(ctx context.Context) error {
	c.mu.Lock()
	if err := c.race.Ready(); err != nil {
		c.failLocked(err)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return err
	}
	gen := c.beginLocked()
	source := slices.Clone(c.state.Array)
	stop := c.stop
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	rec, err := c.race.Run(ctx, source, race.Control{
		Gate:    func(rctx context.Context) bool { return c.gate(rctx, gen) },
		Speed:   c.Speed,
		Sleep:   c.sleeper(ctx, stop),
		Changed: c.publish,
	})

	c.mu.Lock()
	if c.gen == gen {
		c.state.Playing = false
		c.setPausedLocked(false)
		switch {
		case err != nil:
			c.state.Error = err.Error()
			c.state.Phase = Errored
		case rec != nil:
			c.state.Error = ""
			c.state.Phase = Completed
		default:
			c.state.Phase = Cancelled
		}
	}
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return err
}

func (c *Controller) prepareLocked() (algo.Algorithm, int, error) {
	if c.selected == nil {
		return algo.Algorithm{}, 0, algo.Invalid("algorithm", "No algorithm selected")
	}
	a := *c.selected
	if a.Kind != algo.Searching {
		return a, 0, nil
	}

	if c.state.RaceMode {
		return a, 0, algo.Invalid("algorithm", "Disable race mode first to visualize searching algorithms")
	}
	if c.state.SearchTarget == nil {
		return a, 0, algo.Invalid("target", "Please enter a search target value")
	}
	if len(c.state.Array) == 0 {
		return a, 0, algo.Invalid("array", "Array is empty")
	}
	if a.RequiresSorted() && !algo.IsSorted(c.state.Array) {
		return a, 0, algo.Invalid("array", "Array must be sorted for binary search. Use the reset button to sort the array")
	}
	return a, *c.state.SearchTarget, nil
}

// beginLocked invalidates any previous run and returns the new generation.
func (c *Controller) beginLocked() uint64 {
	c.haltLocked()
	c.gen++
	c.stop = make(chan struct{})
	c.setPausedLocked(false)
	c.clearIndicesLocked()
	c.state.Playing = true
	c.state.Phase = Running
	c.state.Error = ""
	return c.gen
}

func (c *Controller) finishRun(log logger.Logger, gen uint64, a algo.Algorithm, working []int, found int, err error) error {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		log.Debug("run superseded")
		return nil
	}

	searching := a.Kind == algo.Searching
	c.state.Playing = false
	c.setPausedLocked(false)

	switch {
	case err != nil && !errors.Is(err, algo.ErrCanceled):
		var ee *algo.ExecutionError
		if !errors.As(err, &ee) {
			err = &algo.ExecutionError{Algorithm: a.ID, Err: err}
		}
		log.Error("run failed", "error", err)
		c.clearIndicesLocked()
		c.state.Error = err.Error()
		c.state.Phase = Errored

	case err == nil && c.state.Phase != Cancelled:
		log.Debug("run completed", "found", found)
		c.state.Active = nil
		c.state.Comparing = nil
		c.state.SearchRange = nil
		c.state.Progress = 100
		c.state.Error = ""
		c.state.Phase = Completed
		if searching {
			c.state.FoundIndex = found
			c.state.CurrentIndex = found
			c.state.Sorted = nil
			if found >= 0 {
				c.state.Active = []int{found}
			}
		} else {
			c.state.Array = slices.Clone(working)
			c.state.Sorted = make([]int, len(working))
			for i := range c.state.Sorted {
				c.state.Sorted[i] = i
			}
		}

	default:
		log.Debug("run cancelled")
		err = nil
		if !searching {
			// the working array is always a permutation once the run returns
			c.state.Array = slices.Clone(working)
		}
		c.state.Active = nil
		c.state.Comparing = nil
		c.state.SearchRange = nil
		c.state.Phase = Cancelled
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return err
}

func (c *Controller) emitter(ctx context.Context, gen uint64, working []int, searching bool) algo.Emitter {
	return func(s algo.Step) bool {
		for {
			if !c.gate(ctx, gen) {
				return false
			}
			c.mu.Lock()
			if !c.keepGoingLocked(gen) {
				c.mu.Unlock()
				return false
			}
			// paused between the gate and the lock
			if !c.state.Paused {
				break
			}
			c.mu.Unlock()
		}
		if !searching {
			c.state.Array = slices.Clone(working)
		}
		c.state.Progress = s.Progress
		c.state.Active = slices.Clone(s.Active)
		c.state.Comparing = slices.Clone(s.Comparing)
		c.state.Sorted = slices.Clone(s.Sorted)
		if searching {
			c.state.CurrentIndex = -1
			if len(s.Active) > 0 {
				c.state.CurrentIndex = s.Active[0]
			}
			c.state.SearchRange = nil
			if len(s.Comparing) == 2 {
				c.state.SearchRange = &Range{Start: s.Comparing[0], End: s.Comparing[1]}
			}
		}
		snap, ok := c.observedSnapshotLocked()
		c.mu.Unlock()
		if ok {
			c.notify(snap)
		}
		return true
	}
}

// gate blocks while paused and reports whether run gen may continue.
func (c *Controller) gate(ctx context.Context, gen uint64) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		c.mu.Lock()
		if !c.keepGoingLocked(gen) {
			c.mu.Unlock()
			return false
		}
		if !c.state.Paused {
			c.mu.Unlock()
			return true
		}
		resume, stop := c.resume, c.stop
		c.mu.Unlock()

		select {
		case <-resume:
		case <-stop:
		case <-ctx.Done():
			return false
		}
	}
}

func (c *Controller) keepGoingLocked(gen uint64) bool {
	return c.state.Playing && c.gen == gen
}

// sleeper returns a pacing delay that wakes early when the run is stopped.
func (c *Controller) sleeper(ctx context.Context, stop <-chan struct{}) algo.Sleeper {
	return func(d time.Duration) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-stop:
		case <-ctx.Done():
		}
	}
}

func (c *Controller) setPausedLocked(paused bool) {
	if paused == c.state.Paused {
		return
	}
	c.state.Paused = paused
	if paused {
		c.resume = make(chan struct{})
	} else {
		close(c.resume)
	}
}

func (c *Controller) haltLocked() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}

func (c *Controller) clearIndicesLocked() {
	c.state.Active = nil
	c.state.Comparing = nil
	c.state.Sorted = nil
	c.state.FoundIndex = -1
	c.state.CurrentIndex = -1
	c.state.SearchRange = nil
	c.state.Progress = 0
}

// replaceArrayLocked installs arr and abandons any run on the old array.
func (c *Controller) replaceArrayLocked(arr []int) {
	c.haltLocked()
	c.gen++
	c.state.Array = arr
	c.state.Playing = false
	c.setPausedLocked(false)
	c.clearIndicesLocked()
	c.state.Phase = Idle
	c.state.Error = ""
}

func (c *Controller) generateLocked(n int) []int {
	shape := Random
	if c.selected != nil && c.selected.RequiresSorted() {
		shape = Ascending
	}
	arr, _ := Generate(c.rng, shape, n)
	return arr
}

func (c *Controller) failLocked(err error) {
	c.state.Error = err.Error()
	c.state.Phase = Errored
	c.log.Debug("rejected", "error", err)
}

func (c *Controller) reject(err error) error {
	c.update(func() { c.failLocked(err) })
	return err
}

func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	snap, ok := c.observedSnapshotLocked()
	c.mu.Unlock()
	if ok {
		c.notify(snap)
	}
}

func (c *Controller) publish() {
	c.mu.Lock()
	snap, ok := c.observedSnapshotLocked()
	c.mu.Unlock()
	if ok {
		c.notify(snap)
	}
}

func (c *Controller) snapshotLocked() Session {
	s := c.state.clone()
	if c.selected != nil {
		d := c.selected.Descriptor
		s.Selected = &d
	}
	s.Participants = c.race.Participants()
	s.History = c.race.History()
	return s
}

func (c *Controller) observedSnapshotLocked() (Session, bool) {
	if len(c.observers) == 0 {
		return Session{}, false
	}
	return c.snapshotLocked(), true
}

func (c *Controller) notify(s Session) {
	c.mu.Lock()
	observers := slices.Clone(c.observers)
	c.mu.Unlock()
	for _, fn := range observers {
		fn(s)
	}
}
