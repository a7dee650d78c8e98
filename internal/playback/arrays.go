package playback

import (
	"fmt"
	"math/rand"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/san-kum/algoviz/internal/algo"
)

const (
	MinArraySize     = 5
	MaxArraySize     = 50
	DefaultArraySize = 20
	MaxValue         = 100
)

// Shape selects how a generated array is laid out.
type Shape string

const (
	Random       Shape = "random"
	Ascending    Shape = "sorted"
	Descending   Shape = "reversed"
	NearlySorted Shape = "nearly-sorted"
	FewUnique    Shape = "few-unique"
)

// Generate returns n values in [1, MaxValue] laid out as shape.
func Generate(rng *rand.Rand, shape Shape, n int) ([]int, error) {
	arr := make([]int, n)
	for i := range arr {
		arr[i] = rng.Intn(MaxValue) + 1
	}

	switch shape {
	case Random, "":
	case Ascending:
		slices.Sort(arr)
	case Descending:
		slices.Sort(arr)
		slices.Reverse(arr)
	case NearlySorted:
		slices.Sort(arr)
		for range max(1, n/10) {
			if n < 2 {
				break
			}
			i := rng.Intn(n - 1)
			arr[i], arr[i+1] = arr[i+1], arr[i]
		}
	case FewUnique:
		for i := range arr {
			arr[i] = (rng.Intn(5) + 1) * MaxValue / 5
		}
	default:
		return nil, fmt.Errorf("unknown array shape: %s", shape)
	}
	return arr, nil
}

// ParseValues reads a comma and/or whitespace separated list of integers.
func ParseValues(input string) ([]int, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	values := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, algo.Invalid("array", "Invalid number: %s", f)
		}
		values = append(values, v)
	}

	if err := validateValues(values); err != nil {
		return nil, err
	}
	return values, nil
}

func validateValues(values []int) error {
	if len(values) == 0 {
		return algo.Invalid("array", "Please enter at least one number")
	}
	if len(values) > MaxArraySize {
		return algo.Invalid("array", "Maximum array size is %d elements", MaxArraySize)
	}
	return nil
}
