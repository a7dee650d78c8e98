package algo

import "time"

const (
	MinSpeed     = 1
	MaxSpeed     = 200
	DefaultSpeed = 100
)

// Delay is the pause after an ordinary step: max(1, 201-speed) milliseconds.
func Delay(speed int) time.Duration {
	ms := 201 - speed
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

// MutationDelay is the pause after a swap, shift, merge write or insert.
func MutationDelay(speed int) time.Duration {
	return Delay(speed) * 3 / 2
}

// ClampSpeed bounds speed to [MinSpeed, MaxSpeed].
func ClampSpeed(speed int) int {
	return min(max(speed, MinSpeed), MaxSpeed)
}

// tracer carries the per-run bookkeeping shared by every algorithm:
// the sorted (or checked) index set and the last emitted progress.
type tracer struct {
	env      Env
	marked   []bool
	count    int
	progress float64
}

func newTracer(n int, env Env) *tracer {
	return &tracer{env: env.withDefaults(), marked: make([]bool, n)}
}

func (t *tracer) mark(i int) {
	if !t.marked[i] {
		t.marked[i] = true
		t.count++
	}
}

func (t *tracer) markRange(lo, hi int) {
	for i := lo; i <= hi; i++ {
		t.mark(i)
	}
}

// fraction is |marked| / n as a percentage.
func (t *tracer) fraction() float64 {
	return ratio(t.count, len(t.marked))
}

func (t *tracer) indices() []int {
	out := make([]int, 0, t.count)
	for i, ok := range t.marked {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// emit reports a step without pacing. Progress never goes backwards and
// never exceeds 100.
func (t *tracer) emit(progress float64, active, comparing []int) error {
	progress = min(max(progress, t.progress), 100)
	t.progress = progress
	ok := t.env.Emit(Step{
		Progress:  progress,
		Active:    active,
		Comparing: comparing,
		Sorted:    t.indices(),
	})
	if !ok {
		return ErrCanceled
	}
	return nil
}

func (t *tracer) step(progress float64, active, comparing []int) error {
	if err := t.emit(progress, active, comparing); err != nil {
		return err
	}
	t.env.Sleep(Delay(t.env.Speed()))
	return nil
}

func (t *tracer) mutated(progress float64, active, comparing []int) error {
	if err := t.emit(progress, active, comparing); err != nil {
		return err
	}
	t.env.Sleep(MutationDelay(t.env.Speed()))
	return nil
}

// rest pauses for a mutation that was already shown by the previous step.
func (t *tracer) rest() {
	t.env.Sleep(MutationDelay(t.env.Speed()))
}

func (t *tracer) finish() error {
	return t.emit(100, nil, nil)
}

func ratio(done, total int) float64 {
	if total <= 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}
