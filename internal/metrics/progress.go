package metrics

import (
	"math"

	"github.com/san-kum/algoviz/internal/algo"
)

// MaxJump is the largest progress increase between two consecutive steps.
type MaxJump struct {
	name    string
	last    float64
	max     float64
	samples int
}

func NewMaxJump() *MaxJump {
	return &MaxJump{name: "max_jump"}
}

func (m *MaxJump) Name() string { return m.name }

func (m *MaxJump) Observe(s algo.Step) {
	if m.samples > 0 {
		m.max = math.Max(m.max, s.Progress-m.last)
	}
	m.last = s.Progress
	m.samples++
}

func (m *MaxJump) Value() float64 { return m.max }

func (m *MaxJump) Reset() {
	m.last, m.max, m.samples = 0, 0, 0
}

// Linearity compares reported progress with a straight ramp over the same
// number of steps. It is 1 minus the mean absolute gap divided by 100, so an
// evenly advancing run scores 1.
type Linearity struct {
	name     string
	progress []float64
}

func NewLinearity() *Linearity {
	return &Linearity{name: "linearity"}
}

func (l *Linearity) Name() string { return l.name }

func (l *Linearity) Observe(s algo.Step) {
	l.progress = append(l.progress, s.Progress)
}

func (l *Linearity) Value() float64 {
	n := len(l.progress)
	if n < 2 {
		return 1.0
	}
	var sum float64
	for i, p := range l.progress {
		ramp := 100 * float64(i) / float64(n-1)
		sum += math.Abs(p - ramp)
	}
	return 1.0 - sum/float64(n)/100
}

func (l *Linearity) Reset() {
	l.progress = l.progress[:0]
}
