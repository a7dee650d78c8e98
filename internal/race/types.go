package race

import (
	"context"
	"slices"
	"time"

	"github.com/san-kum/algoviz/internal/algo"
)

// MaxParticipants is the roster size a race requires.
const MaxParticipants = 2

// DefaultStepDelay is the fixed extra pause after every race emission,
// independent of speed.
const DefaultStepDelay = 15 * time.Millisecond

// Participant is the live view of one algorithm entered in the race.
type Participant struct {
	Algorithm     algo.Descriptor `json:"algorithm"`
	Progress      float64         `json:"progress"`
	Completed     bool            `json:"completed"`
	Active        []int           `json:"active_indices"`
	Comparing     []int           `json:"comparing_indices"`
	Sorted        []int           `json:"sorted_indices"`
	ExecutionTime time.Duration   `json:"execution_time"`
	Array         []int           `json:"array"`
}

func (p Participant) clone() Participant {
	p.Active = slices.Clone(p.Active)
	p.Comparing = slices.Clone(p.Comparing)
	p.Sorted = slices.Clone(p.Sorted)
	p.Array = slices.Clone(p.Array)
	return p
}

type Result struct {
	AlgorithmID   algo.ID       `json:"algorithm_id"`
	ExecutionTime time.Duration `json:"execution_time"`
	Rank          int           `json:"rank"`
}

// Record is one finished race. Records are never modified once stored.
type Record struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	ArraySize int       `json:"array_size"`
	Results   []Result  `json:"results"`
}

func (r Record) clone() Record {
	r.Results = slices.Clone(r.Results)
	return r
}

// Winner returns the rank 1 result.
func (r Record) Winner() (Result, bool) {
	for _, res := range r.Results {
		if res.Rank == 1 {
			return res, true
		}
	}
	return Result{}, false
}

// Control is what the coordinator needs from the playback layer.
type Control struct {
	// Gate blocks while playback is paused and returns false once the
	// race should stop. It is the shared keep-going predicate.
	Gate func(ctx context.Context) bool
	// Speed is read before every pacing delay.
	Speed algo.SpeedFunc
	// Sleep paces both the algorithm steps and the fixed race delay.
	Sleep algo.Sleeper
	// Changed is called after participant state changes.
	Changed func()
}
