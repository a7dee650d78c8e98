package algo

import "time"

// Step is one progress event emitted by a running algorithm.
// Indices refer to the working array at the moment of emission.
type Step struct {
	Progress  float64
	Active    []int
	Comparing []int
	Sorted    []int
}

// Emitter receives a step and reports whether the run may continue.
// It may block, e.g. while playback is paused.
type Emitter func(s Step) bool

// SpeedFunc returns the current playback speed in [MinSpeed, MaxSpeed].
type SpeedFunc func() int

// Sleeper pauses the calling run for d.
type Sleeper func(d time.Duration)

// Env is everything an algorithm needs from its caller.
type Env struct {
	Emit  Emitter
	Speed SpeedFunc
	Sleep Sleeper
}

func (e Env) withDefaults() Env {
	if e.Emit == nil {
		e.Emit = func(Step) bool { return true }
	}
	if e.Speed == nil {
		e.Speed = func() int { return DefaultSpeed }
	}
	if e.Sleep == nil {
		e.Sleep = time.Sleep
	}
	return e
}

type Kind string

const (
	Sorting   Kind = "sorting"
	Searching Kind = "searching"
)

type ID string

const (
	BubbleSort    ID = "bubble-sort"
	SelectionSort ID = "selection-sort"
	InsertionSort ID = "insertion-sort"
	MergeSort     ID = "merge-sort"
	QuickSort     ID = "quick-sort"
	LinearSearch  ID = "linear-search"
	BinarySearch  ID = "binary-search"
)

// Descriptor is the static metadata of an algorithm.
type Descriptor struct {
	ID              ID     `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Kind            Kind   `json:"kind" yaml:"kind"`
	Description     string `json:"description" yaml:"description"`
	TimeComplexity  string `json:"time_complexity" yaml:"time_complexity"`
	SpaceComplexity string `json:"space_complexity" yaml:"space_complexity"`
}

// RequiresSorted reports whether the algorithm only accepts non-decreasing input.
func (d Descriptor) RequiresSorted() bool {
	return d.ID == BinarySearch
}

// IsSorted reports whether arr is in non-decreasing order.
func IsSorted(arr []int) bool {
	for i := 1; i < len(arr); i++ {
		if arr[i] < arr[i-1] {
			return false
		}
	}
	return true
}
