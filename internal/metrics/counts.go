package metrics

import "github.com/san-kum/algoviz/internal/algo"

type Steps struct {
	name  string
	count int
}

func NewSteps() *Steps {
	return &Steps{name: "steps"}
}

func (s *Steps) Name() string      { return s.name }
func (s *Steps) Observe(algo.Step) { s.count++ }
func (s *Steps) Value() float64    { return float64(s.count) }
func (s *Steps) Reset()            { s.count = 0 }

// Comparisons counts emissions that carry a comparing pair.
type Comparisons struct {
	name  string
	count int
}

func NewComparisons() *Comparisons {
	return &Comparisons{name: "comparisons"}
}

func (c *Comparisons) Name() string { return c.name }

func (c *Comparisons) Observe(s algo.Step) {
	if len(s.Comparing) == 2 {
		c.count++
	}
}

func (c *Comparisons) Value() float64 { return float64(c.count) }
func (c *Comparisons) Reset()         { c.count = 0 }
