package playback

import (
	"slices"

	"github.com/san-kum/algoviz/internal/algo"
	"github.com/san-kum/algoviz/internal/race"
)

type Phase int

const (
	Idle Phase = iota
	Running
	Paused
	Completed
	Cancelled
	Errored
)

var phaseNames = [...]string{"idle", "running", "paused", "completed", "cancelled", "errored"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Range is the [Start, End] window a search is currently looking at.
type Range struct {
	Start int
	End   int
}

// Session is a point-in-time copy of everything a front end renders.
type Session struct {
	Array        []int
	Phase        Phase
	Playing      bool
	Paused       bool
	Speed        int
	Selected     *algo.Descriptor
	RaceMode     bool
	SearchTarget *int
	FoundIndex   int
	CurrentIndex int
	SearchRange  *Range
	Progress     float64
	Active       []int
	Comparing    []int
	Sorted       []int
	Error        string
	Participants []race.Participant
	History      []race.Record
}

func (s Session) clone() Session {
	s.Array = slices.Clone(s.Array)
	s.Active = slices.Clone(s.Active)
	s.Comparing = slices.Clone(s.Comparing)
	s.Sorted = slices.Clone(s.Sorted)
	if s.Selected != nil {
		d := *s.Selected
		s.Selected = &d
	}
	if s.SearchTarget != nil {
		t := *s.SearchTarget
		s.SearchTarget = &t
	}
	if s.SearchRange != nil {
		r := *s.SearchRange
		s.SearchRange = &r
	}
	return s
}
