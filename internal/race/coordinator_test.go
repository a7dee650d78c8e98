package race

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/algoviz/internal/algo"
)

func mustGet(reg *algo.Registry, id algo.ID) algo.Algorithm {
	a, err := reg.Get(id)
	Expect(err).NotTo(HaveOccurred())
	return a
}

func instant() Control {
	return Control{
		Speed: func() int { return algo.MaxSpeed },
		Sleep: func(time.Duration) {},
	}
}

var _ = Describe("Coordinator", func() {
	var (
		reg   *algo.Registry
		coord *Coordinator
	)

	BeforeEach(func() {
		reg = algo.NewRegistry()
		coord = New(WithStepDelay(0))
	})

	Describe("roster", func() {
		It("rejects searching algorithms", func() {
			err := coord.Add(mustGet(reg, algo.BinarySearch))
			Expect(algo.IsValidation(err)).To(BeTrue())
			Expect(coord.Participants()).To(BeEmpty())
		})

		It("evicts the oldest participant on a third addition", func() {
			Expect(coord.Add(mustGet(reg, algo.BubbleSort))).To(Succeed())
			Expect(coord.Add(mustGet(reg, algo.MergeSort))).To(Succeed())
			Expect(coord.Add(mustGet(reg, algo.QuickSort))).To(Succeed())

			ps := coord.Participants()
			Expect(ps).To(HaveLen(2))
			Expect(ps[0].Algorithm.ID).To(Equal(algo.MergeSort))
			Expect(ps[1].Algorithm.ID).To(Equal(algo.QuickSort))
		})

		It("rejects the same algorithm twice", func() {
			Expect(coord.Add(mustGet(reg, algo.BubbleSort))).To(Succeed())
			Expect(coord.Add(mustGet(reg, algo.BubbleSort))).NotTo(Succeed())
			Expect(coord.Participants()).To(HaveLen(1))
		})

		It("removes participants by id", func() {
			Expect(coord.Add(mustGet(reg, algo.BubbleSort))).To(Succeed())
			Expect(coord.Remove(algo.BubbleSort)).To(BeTrue())
			Expect(coord.Remove(algo.BubbleSort)).To(BeFalse())
			Expect(coord.Participants()).To(BeEmpty())
		})

		It("is not ready with fewer than two participants", func() {
			Expect(coord.Add(mustGet(reg, algo.BubbleSort))).To(Succeed())
			Expect(algo.IsValidation(coord.Ready())).To(BeTrue())

			rec, err := coord.Run(context.Background(), []int{3, 1, 2}, instant())
			Expect(rec).To(BeNil())
			Expect(algo.IsValidation(err)).To(BeTrue())
		})
	})

	Describe("running", func() {
		var source []int

		BeforeEach(func() {
			rng := rand.New(rand.NewSource(42))
			source = make([]int, 20)
			for i := range source {
				source[i] = rng.Intn(100) + 1
			}
			Expect(coord.Add(mustGet(reg, algo.BubbleSort))).To(Succeed())
			Expect(coord.Add(mustGet(reg, algo.MergeSort))).To(Succeed())
		})

		It("ranks both results and records the race", func() {
			input := slices.Clone(source)
			rec, err := coord.Run(context.Background(), source, instant())
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).NotTo(BeNil())

			Expect(rec.ArraySize).To(Equal(20))
			Expect(rec.Results).To(HaveLen(2))
			Expect(rec.Results[0].Rank).To(Equal(1))
			Expect(rec.Results[1].Rank).To(Equal(2))
			Expect(rec.Results[0].ExecutionTime).To(BeNumerically("<=", rec.Results[1].ExecutionTime))
			Expect(rec.ID).NotTo(BeEmpty())

			want := slices.Clone(input)
			slices.Sort(want)
			for _, p := range coord.Participants() {
				Expect(p.Completed).To(BeTrue())
				Expect(p.Progress).To(Equal(100.0))
				Expect(p.Array).To(Equal(want))
				Expect(p.Sorted).To(HaveLen(20))
			}

			Expect(source).To(Equal(input), "source array must not be touched")
			Expect(coord.History()).To(HaveLen(1))
		})

		It("prepends newer records", func() {
			first, err := coord.Run(context.Background(), source, instant())
			Expect(err).NotTo(HaveOccurred())
			second, err := coord.Run(context.Background(), source, instant())
			Expect(err).NotTo(HaveOccurred())

			history := coord.History()
			Expect(history).To(HaveLen(2))
			Expect(history[0].ID).To(Equal(second.ID))
			Expect(history[1].ID).To(Equal(first.ID))
		})

		It("records nothing when the gate closes mid-race", func() {
			var calls atomic.Int64
			ctl := instant()
			ctl.Gate = func(context.Context) bool { return calls.Add(1) < 40 }

			rec, err := coord.Run(context.Background(), source, ctl)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(BeNil())
			Expect(coord.History()).To(BeEmpty())

			for _, p := range coord.Participants() {
				got := slices.Clone(p.Array)
				want := slices.Clone(source)
				slices.Sort(got)
				slices.Sort(want)
				Expect(got).To(Equal(want))
			}
		})

		It("stops when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			rec, err := coord.Run(ctx, source, instant())
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(BeNil())
			Expect(coord.History()).To(BeEmpty())
		})

		It("reports progress through Changed", func() {
			var changes atomic.Int64
			ctl := instant()
			ctl.Changed = func() { changes.Add(1) }

			_, err := coord.Run(context.Background(), source, ctl)
			Expect(err).NotTo(HaveOccurred())
			Expect(changes.Load()).To(BeNumerically(">", 20))
		})
	})

	Describe("failures", func() {
		var source []int

		BeforeEach(func() {
			source = []int{9, 4, 7, 1, 8, 2, 6, 3, 5, 10}
		})

		addPair := func(c *Coordinator) {
			Expect(c.Add(mustGet(reg, algo.BubbleSort))).To(Succeed())
			Expect(c.Add(mustGet(reg, algo.InsertionSort))).To(Succeed())
		}

		It("aborts the race when a participant fails mid-run", func() {
			addPair(coord)
			var calls atomic.Int64
			ctl := instant()
			ctl.Changed = func() {
				if calls.Add(1) == 30 {
					panic("render fault")
				}
			}

			rec, err := coord.Run(context.Background(), source, ctl)
			Expect(rec).To(BeNil())
			var ee *algo.ExecutionError
			Expect(errors.As(err, &ee)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("render fault"))
			Expect(coord.History()).To(BeEmpty())
		})

		It("turns a failure after a participant finishes into an error", func() {
			var ticks atomic.Int64
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			c := New(WithStepDelay(0), WithClock(func() time.Time {
				return base.Add(time.Duration(ticks.Add(1)) * time.Millisecond)
			}))
			addPair(c)

			ctl := instant()
			ctl.Changed = func() {
				for _, p := range c.Participants() {
					if p.ExecutionTime > 0 {
						panic("late fault")
					}
				}
			}

			rec, err := c.Run(context.Background(), source, ctl)
			Expect(rec).To(BeNil())
			var ee *algo.ExecutionError
			Expect(errors.As(err, &ee)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("late fault"))
			Expect(c.History()).To(BeEmpty())
		})
	})

	Describe("Record", func() {
		It("finds the winner", func() {
			rec := Record{Results: []Result{
				{AlgorithmID: algo.QuickSort, Rank: 1},
				{AlgorithmID: algo.BubbleSort, Rank: 2},
			}}
			w, ok := rec.Winner()
			Expect(ok).To(BeTrue())
			Expect(w.AlgorithmID).To(Equal(algo.QuickSort))
		})
	})
})
