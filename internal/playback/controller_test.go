package playback

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/algoviz/internal/algo"
	"github.com/san-kum/algoviz/internal/race"
)

func sameElements(a, b []int) bool {
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

func intPtr(v int) *int { return &v }

var _ = Describe("Controller", func() {
	var (
		reg  *algo.Registry
		ctrl *Controller
		ctx  context.Context
	)

	newController := func(opts ...Option) *Controller {
		base := []Option{
			WithRand(rand.New(rand.NewSource(7))),
			WithSpeed(algo.MaxSpeed),
			WithRace(race.New(race.WithStepDelay(0))),
		}
		return New(reg, append(base, opts...)...)
	}

	// startAsync runs fn on its own goroutine and waits until the run is live.
	startAsync := func(fn func(context.Context) error) chan error {
		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- fn(ctx)
		}()
		Eventually(func() bool { return ctrl.Snapshot().Playing }).Should(BeTrue())
		return done
	}

	BeforeEach(func() {
		reg = algo.NewRegistry()
		ctx = context.Background()
		ctrl = newController()
	})

	It("starts idle with a random array of the default size", func() {
		s := ctrl.Snapshot()
		Expect(s.Phase).To(Equal(Idle))
		Expect(s.Array).To(HaveLen(DefaultArraySize))
		Expect(s.Speed).To(Equal(algo.MaxSpeed))
		Expect(s.FoundIndex).To(Equal(-1))
		Expect(s.CurrentIndex).To(Equal(-1))
		for _, v := range s.Array {
			Expect(v).To(BeNumerically(">=", 1))
			Expect(v).To(BeNumerically("<=", MaxValue))
		}
	})

	Describe("StartSorting", func() {
		It("requires a selected algorithm", func() {
			err := ctrl.StartSorting(ctx)
			Expect(algo.IsValidation(err)).To(BeTrue())
			Expect(ctrl.Snapshot().Error).To(Equal("No algorithm selected"))
			Expect(ctrl.Snapshot().Playing).To(BeFalse())
		})

		It("sorts the array and marks every index sorted", func() {
			Expect(ctrl.SetCustomArray([]int{5, 3, 9, 1, 7})).To(Succeed())
			Expect(ctrl.SelectAlgorithm(algo.InsertionSort)).To(Succeed())

			Expect(ctrl.StartSorting(ctx)).To(Succeed())

			s := ctrl.Snapshot()
			Expect(s.Array).To(Equal([]int{1, 3, 5, 7, 9}))
			Expect(s.Phase).To(Equal(Completed))
			Expect(s.Playing).To(BeFalse())
			Expect(s.Progress).To(BeNumerically("==", 100))
			Expect(s.Sorted).To(ConsistOf(0, 1, 2, 3, 4))
			Expect(s.Active).To(BeEmpty())
			Expect(s.Comparing).To(BeEmpty())
		})

		It("reports progress that never decreases", func() {
			var seen []float64
			ctrl = newController(WithObserver(func(s Session) {
				if s.Playing {
					seen = append(seen, s.Progress)
				}
			}))
			Expect(ctrl.SelectAlgorithm(algo.QuickSort)).To(Succeed())
			Expect(ctrl.StartSorting(ctx)).To(Succeed())

			Expect(seen).NotTo(BeEmpty())
			Expect(slices.IsSorted(seen)).To(BeTrue())
			Expect(seen[len(seen)-1]).To(BeNumerically("<=", 100))
		})

		It("moves to Errored when the run fails partway", func() {
			var playing int
			ctrl = newController(WithObserver(func(s Session) {
				if !s.Playing {
					return
				}
				playing++
				if playing == 5 {
					panic("boom")
				}
			}))
			Expect(ctrl.SelectAlgorithm(algo.BubbleSort)).To(Succeed())
			input := ctrl.Snapshot().Array

			err := ctrl.StartSorting(ctx)
			var ee *algo.ExecutionError
			Expect(errors.As(err, &ee)).To(BeTrue())
			Expect(ee.Algorithm).To(Equal(algo.BubbleSort))

			s := ctrl.Snapshot()
			Expect(s.Phase).To(Equal(Errored))
			Expect(s.Error).To(ContainSubstring("boom"))
			Expect(s.Playing).To(BeFalse())
			Expect(s.Paused).To(BeFalse())
			Expect(s.Active).To(BeEmpty())
			Expect(s.Comparing).To(BeEmpty())
			Expect(s.Sorted).To(BeEmpty())
			Expect(sameElements(s.Array, input)).To(BeTrue())
		})

		It("finds a search target and records the index", func() {
			Expect(ctrl.SetCustomArray([]int{4, 8, 15, 16, 23})).To(Succeed())
			Expect(ctrl.SelectAlgorithm(algo.LinearSearch)).To(Succeed())
			ctrl.SetSearchTarget(intPtr(16))

			Expect(ctrl.StartSorting(ctx)).To(Succeed())

			s := ctrl.Snapshot()
			Expect(s.FoundIndex).To(Equal(3))
			Expect(s.Phase).To(Equal(Completed))
			Expect(s.Array).To(Equal([]int{4, 8, 15, 16, 23}))
		})

		It("reports a missing target as not found", func() {
			Expect(ctrl.SetCustomArray([]int{1, 2, 3, 4, 5})).To(Succeed())
			Expect(ctrl.SelectAlgorithm(algo.BinarySearch)).To(Succeed())
			ctrl.SetSearchTarget(intPtr(42))

			Expect(ctrl.StartSorting(ctx)).To(Succeed())
			Expect(ctrl.Snapshot().FoundIndex).To(Equal(-1))
		})

		It("requires a search target", func() {
			Expect(ctrl.SelectAlgorithm(algo.LinearSearch)).To(Succeed())

			err := ctrl.StartSorting(ctx)
			Expect(algo.IsValidation(err)).To(BeTrue())
			Expect(ctrl.Snapshot().Error).To(Equal("Please enter a search target value"))
		})

		It("refuses binary search on an unsorted array", func() {
			Expect(ctrl.SelectAlgorithm(algo.BinarySearch)).To(Succeed())
			ctrl.SetSearchTarget(intPtr(3))
			ctrl.mu.Lock()
			ctrl.state.Array = []int{5, 3, 1}
			ctrl.mu.Unlock()

			err := ctrl.StartSorting(ctx)
			Expect(algo.IsValidation(err)).To(BeTrue())
			Expect(ctrl.Snapshot().Error).To(ContainSubstring("Array must be sorted for binary search"))
			Expect(ctrl.Snapshot().Array).To(Equal([]int{5, 3, 1}))
		})

		It("refuses searching algorithms in race mode", func() {
			Expect(ctrl.SelectAlgorithm(algo.LinearSearch)).To(Succeed())
			ctrl.SetSearchTarget(intPtr(3))
			ctrl.SetRaceMode(true)

			err := ctrl.StartSorting(ctx)
			Expect(algo.IsValidation(err)).To(BeTrue())
			Expect(ctrl.Snapshot().Error).To(Equal("Disable race mode first to visualize searching algorithms"))
		})

		It("clears a previous error once a run starts", func() {
			Expect(ctrl.StartSorting(ctx)).NotTo(Succeed())
			Expect(ctrl.SelectAlgorithm(algo.BubbleSort)).To(Succeed())
			Expect(ctrl.StartSorting(ctx)).To(Succeed())
			Expect(ctrl.Snapshot().Error).To(BeEmpty())
		})
	})

	Describe("pause and stop", func() {
		BeforeEach(func() {
			Expect(ctrl.SetArraySize(MaxArraySize)).To(Succeed())
			Expect(ctrl.SelectAlgorithm(algo.BubbleSort)).To(Succeed())
		})

		It("freezes progress while paused and resumes afterwards", func() {
			done := startAsync(ctrl.StartSorting)

			ctrl.TogglePause()
			Expect(ctrl.Snapshot().Phase).To(Equal(Paused))
			frozen := ctrl.Snapshot().Progress
			Consistently(func() float64 { return ctrl.Snapshot().Progress }, 150*time.Millisecond).
				Should(Equal(frozen))

			ctrl.TogglePause()
			Expect(ctrl.Snapshot().Phase).To(Equal(Running))
			Eventually(func() float64 { return ctrl.Snapshot().Progress }).Should(BeNumerically(">", frozen))

			ctrl.StopVisualization()
			Eventually(done).Should(Receive(BeNil()))
		})

		It("leaves a permutation of the input array when stopped", func() {
			input := ctrl.Snapshot().Array
			done := startAsync(ctrl.StartSorting)

			ctrl.StopVisualization()
			Eventually(done).Should(Receive(BeNil()))

			s := ctrl.Snapshot()
			Expect(s.Phase).To(Equal(Cancelled))
			Expect(s.Playing).To(BeFalse())
			Expect(s.Paused).To(BeFalse())
			Expect(s.Active).To(BeEmpty())
			Expect(s.Comparing).To(BeEmpty())
			Expect(sameElements(s.Array, input)).To(BeTrue())
		})

		It("stops a paused run", func() {
			done := startAsync(ctrl.StartSorting)
			ctrl.TogglePause()

			ctrl.StopVisualization()
			Eventually(done).Should(Receive(BeNil()))
			Expect(ctrl.Snapshot().Phase).To(Equal(Cancelled))
		})

		It("stops when the context is cancelled", func() {
			var cancel context.CancelFunc
			ctx, cancel = context.WithCancel(context.Background())
			done := startAsync(ctrl.StartSorting)

			cancel()
			Eventually(done).Should(Receive(BeNil()))
			Expect(ctrl.Snapshot().Phase).To(Equal(Cancelled))
		})

		It("abandons a run when the array is replaced", func() {
			done := startAsync(ctrl.StartSorting)

			Expect(ctrl.SetCustomArray([]int{9, 8, 7, 6, 5})).To(Succeed())
			Eventually(done).Should(Receive(BeNil()))

			s := ctrl.Snapshot()
			Expect(s.Array).To(Equal([]int{9, 8, 7, 6, 5}))
			Expect(s.Phase).To(Equal(Idle))
			Expect(s.Progress).To(BeZero())
		})
	})

	Describe("SetSpeed", func() {
		It("clamps into the supported range", func() {
			Expect(ctrl.SetSpeed(0)).To(Equal(algo.MinSpeed))
			Expect(ctrl.SetSpeed(500)).To(Equal(algo.MaxSpeed))
			Expect(ctrl.SetSpeed(42)).To(Equal(42))
			Expect(ctrl.Speed()).To(Equal(42))
		})
	})

	Describe("arrays", func() {
		It("rejects sizes outside the allowed range", func() {
			Expect(algo.IsValidation(ctrl.SetArraySize(MinArraySize - 1))).To(BeTrue())
			Expect(algo.IsValidation(ctrl.SetArraySize(MaxArraySize + 1))).To(BeTrue())
			Expect(ctrl.Snapshot().Array).To(HaveLen(DefaultArraySize))
		})

		It("resizes the array", func() {
			Expect(ctrl.SetArraySize(12)).To(Succeed())
			Expect(ctrl.Snapshot().Array).To(HaveLen(12))
		})

		It("rejects custom arrays longer than the maximum", func() {
			err := ctrl.SetCustomArray(make([]int, MaxArraySize+1))
			Expect(err).To(MatchError("Maximum array size is 50 elements"))
			Expect(ctrl.Snapshot().Array).To(HaveLen(DefaultArraySize))
		})

		It("sorts custom arrays when binary search is selected", func() {
			Expect(ctrl.SelectAlgorithm(algo.BinarySearch)).To(Succeed())
			Expect(ctrl.SetCustomArray([]int{5, 3, 9, 1, 7})).To(Succeed())
			Expect(ctrl.Snapshot().Array).To(Equal([]int{1, 3, 5, 7, 9}))
		})

		It("generates sorted arrays on reset when binary search is selected", func() {
			Expect(ctrl.SelectAlgorithm(algo.BinarySearch)).To(Succeed())
			ctrl.ResetState()

			s := ctrl.Snapshot()
			Expect(s.Array).To(HaveLen(DefaultArraySize))
			Expect(algo.IsSorted(s.Array)).To(BeTrue())
		})

		It("keeps the size of a short custom array on reset", func() {
			Expect(ctrl.SetCustomArray([]int{3, 1, 2})).To(Succeed())
			ctrl.ResetState()

			s := ctrl.Snapshot()
			Expect(s.Array).To(HaveLen(3))
			for _, v := range s.Array {
				Expect(v).To(BeNumerically(">=", 1))
				Expect(v).To(BeNumerically("<=", MaxValue))
			}
		})

		It("clears run state on reset", func() {
			Expect(ctrl.SelectAlgorithm(algo.BubbleSort)).To(Succeed())
			Expect(ctrl.StartSorting(ctx)).To(Succeed())

			ctrl.ResetState()
			s := ctrl.Snapshot()
			Expect(s.Phase).To(Equal(Idle))
			Expect(s.Sorted).To(BeEmpty())
			Expect(s.Progress).To(BeZero())
		})
	})

	Describe("races", func() {
		BeforeEach(func() {
			ctrl.SetRaceMode(true)
		})

		It("needs two participants", func() {
			Expect(ctrl.AddToRace(algo.BubbleSort)).To(Succeed())
			err := ctrl.StartRace(ctx)
			Expect(algo.IsValidation(err)).To(BeTrue())
			Expect(ctrl.Snapshot().Error).To(Equal("Select exactly two algorithms for the race"))
		})

		It("rejects searching algorithms", func() {
			Expect(algo.IsValidation(ctrl.AddToRace(algo.LinearSearch))).To(BeTrue())
			Expect(ctrl.Snapshot().Participants).To(BeEmpty())
		})

		It("records a ranked result without touching the shared array", func() {
			input := ctrl.Snapshot().Array
			Expect(ctrl.AddToRace(algo.BubbleSort)).To(Succeed())
			Expect(ctrl.AddToRace(algo.MergeSort)).To(Succeed())

			Expect(ctrl.StartRace(ctx)).To(Succeed())

			s := ctrl.Snapshot()
			Expect(s.Phase).To(Equal(Completed))
			Expect(s.Array).To(Equal(input))
			Expect(s.History).To(HaveLen(1))
			Expect(s.History[0].ArraySize).To(Equal(len(input)))
			Expect(s.History[0].Results[0].Rank).To(Equal(1))
			for _, p := range s.Participants {
				Expect(p.Completed).To(BeTrue())
				Expect(algo.IsSorted(p.Array)).To(BeTrue())
			}
		})

		It("discards the roster when race mode is turned off", func() {
			Expect(ctrl.AddToRace(algo.BubbleSort)).To(Succeed())
			ctrl.SetRaceMode(false)
			Expect(ctrl.Snapshot().Participants).To(BeEmpty())
		})

		It("removes participants", func() {
			Expect(ctrl.AddToRace(algo.BubbleSort)).To(Succeed())
			ctrl.RemoveFromRace(algo.BubbleSort)
			Expect(ctrl.Snapshot().Participants).To(BeEmpty())
		})

		It("can be stopped", func() {
			Expect(ctrl.SetArraySize(MaxArraySize)).To(Succeed())
			ctrl.SetSpeed(algo.MinSpeed)
			Expect(ctrl.AddToRace(algo.BubbleSort)).To(Succeed())
			Expect(ctrl.AddToRace(algo.SelectionSort)).To(Succeed())

			done := startAsync(ctrl.StartRace)
			ctrl.StopVisualization()
			Eventually(done).Should(Receive(BeNil()))

			s := ctrl.Snapshot()
			Expect(s.Phase).To(Equal(Cancelled))
			Expect(s.History).To(BeEmpty())
		})
	})

	It("rejects unknown algorithms", func() {
		err := ctrl.SelectAlgorithm("bogo-sort")
		Expect(algo.IsValidation(err)).To(BeTrue())
		Expect(ctrl.Snapshot().Selected).To(BeNil())
	})
})
