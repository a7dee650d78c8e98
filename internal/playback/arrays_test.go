package playback

import (
	"math/rand"
	"slices"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/algoviz/internal/algo"
)

var _ = Describe("ParseValues", func() {
	It("accepts commas and spaces", func() {
		values, err := ParseValues("5, 3, 9, 1, 7")
		Expect(err).NotTo(HaveOccurred())
		Expect(values).To(Equal([]int{5, 3, 9, 1, 7}))

		values, err = ParseValues("4 2\t8,,6")
		Expect(err).NotTo(HaveOccurred())
		Expect(values).To(Equal([]int{4, 2, 8, 6}))
	})

	It("rejects non-numeric input", func() {
		_, err := ParseValues("1, two, 3")
		Expect(algo.IsValidation(err)).To(BeTrue())
		Expect(err).To(MatchError("Invalid number: two"))
	})

	It("rejects empty input", func() {
		_, err := ParseValues("  , ")
		Expect(err).To(MatchError("Please enter at least one number"))
	})

	It("rejects more than the maximum number of values", func() {
		input := slices.Repeat([]string{"1"}, MaxArraySize+1)
		_, err := ParseValues(strings.Join(input, ","))
		Expect(err).To(MatchError("Maximum array size is 50 elements"))
	})
})

var _ = Describe("Generate", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(1))
	})

	DescribeTable("shapes",
		func(shape Shape, check func([]int) bool) {
			arr, err := Generate(rng, shape, 30)
			Expect(err).NotTo(HaveOccurred())
			Expect(arr).To(HaveLen(30))
			for _, v := range arr {
				Expect(v).To(BeNumerically(">=", 1))
				Expect(v).To(BeNumerically("<=", MaxValue))
			}
			Expect(check(arr)).To(BeTrue())
		},
		Entry("random", Random, func([]int) bool { return true }),
		Entry("sorted", Ascending, algo.IsSorted),
		Entry("reversed", Descending, func(a []int) bool {
			b := slices.Clone(a)
			slices.Reverse(b)
			return algo.IsSorted(b)
		}),
		Entry("few unique", FewUnique, func(a []int) bool {
			b := slices.Clone(a)
			slices.Sort(b)
			return len(slices.Compact(b)) <= 5
		}),
	)

	It("rejects unknown shapes", func() {
		_, err := Generate(rng, "zigzag", 10)
		Expect(err).To(HaveOccurred())
	})
})
