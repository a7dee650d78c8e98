// Package metrics summarizes the step stream of a single run.
package metrics

import "github.com/san-kum/algoviz/internal/algo"

type Metric interface {
	Name() string
	Observe(s algo.Step)
	Value() float64
	Reset()
}

// Set feeds every step to each of its metrics.
type Set []Metric

// Default returns the metrics reported for a trace.
func Default() Set {
	return Set{
		NewSteps(),
		NewComparisons(),
		NewMaxJump(),
		NewLinearity(),
	}
}

func (s Set) Observe(st algo.Step) {
	for _, m := range s {
		m.Observe(st)
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Emitter wraps next so every emitted step is observed first.
func (s Set) Emitter(next algo.Emitter) algo.Emitter {
	return func(st algo.Step) bool {
		s.Observe(st)
		if next == nil {
			return true
		}
		return next(st)
	}
}
