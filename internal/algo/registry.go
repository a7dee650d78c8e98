package algo

import (
	"fmt"
)

type sortFunc func(arr []int, env Env) error

type searchFunc func(arr []int, target int, env Env) (int, error)

// Algorithm pairs a descriptor with its implementation. Exactly one of the
// sort and search entry points is usable, matching Kind.
type Algorithm struct {
	Descriptor
	sort   sortFunc
	search searchFunc
}

// Sort orders arr in place. A panic inside the run is returned as an
// *ExecutionError.
func (a Algorithm) Sort(arr []int, env Env) (err error) {
	if a.sort == nil {
		return Invalid("algorithm", "%s is not a sorting algorithm", a.Name)
	}
	defer a.recoverInto(&err)
	return a.sort(arr, env.withDefaults())
}

// Search returns the index of target in arr or -1. arr is not modified.
func (a Algorithm) Search(arr []int, target int, env Env) (idx int, err error) {
	if a.search == nil {
		return -1, Invalid("algorithm", "%s is not a searching algorithm", a.Name)
	}
	defer a.recoverInto(&err)
	return a.search(arr, target, env.withDefaults())
}

func (a Algorithm) recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = &ExecutionError{Algorithm: a.ID, Err: fmt.Errorf("%s: %v", a.Name, r)}
	}
}

var catalog = []Algorithm{
	{
		Descriptor: Descriptor{
			ID:              BubbleSort,
			Name:            "Bubble Sort",
			Kind:            Sorting,
			Description:     "Repeatedly steps through the list, compares adjacent elements and swaps them if they are in the wrong order.",
			TimeComplexity:  "O(n²)",
			SpaceComplexity: "O(1)",
		},
		sort: bubbleSort,
	},
	{
		Descriptor: Descriptor{
			ID:              SelectionSort,
			Name:            "Selection Sort",
			Kind:            Sorting,
			Description:     "Repeatedly selects the smallest element of the unsorted region and appends it to the sorted region.",
			TimeComplexity:  "O(n²)",
			SpaceComplexity: "O(1)",
		},
		sort: selectionSort,
	},
	{
		Descriptor: Descriptor{
			ID:              InsertionSort,
			Name:            "Insertion Sort",
			Kind:            Sorting,
			Description:     "Builds the sorted array one item at a time by inserting each element into the sorted prefix.",
			TimeComplexity:  "O(n²)",
			SpaceComplexity: "O(1)",
		},
		sort: insertionSort,
	},
	{
		Descriptor: Descriptor{
			ID:              MergeSort,
			Name:            "Merge Sort",
			Kind:            Sorting,
			Description:     "Divides the array into two halves, recursively sorts them, and then merges the sorted halves.",
			TimeComplexity:  "O(n log n)",
			SpaceComplexity: "O(n)",
		},
		sort: mergeSort,
	},
	{
		Descriptor: Descriptor{
			ID:              QuickSort,
			Name:            "Quick Sort",
			Kind:            Sorting,
			Description:     "Selects a pivot element and partitions the array around it, recursively sorting the sub-arrays.",
			TimeComplexity:  "O(n log n)",
			SpaceComplexity: "O(log n)",
		},
		sort: quickSort,
	},
	{
		Descriptor: Descriptor{
			ID:              LinearSearch,
			Name:            "Linear Search",
			Kind:            Searching,
			Description:     "Sequentially checks each element until a match is found or the whole list has been searched.",
			TimeComplexity:  "O(n)",
			SpaceComplexity: "O(1)",
		},
		search: linearSearch,
	},
	{
		Descriptor: Descriptor{
			ID:              BinarySearch,
			Name:            "Binary Search",
			Kind:            Searching,
			Description:     "Repeatedly halves the search interval of a sorted array.",
			TimeComplexity:  "O(log n)",
			SpaceComplexity: "O(1)",
		},
		search: binarySearch,
	},
}

type Registry struct {
	byID  map[ID]Algorithm
	order []ID
}

// NewRegistry builds the registry and panics if the catalog is inconsistent.
func NewRegistry() *Registry {
	r := &Registry{
		byID:  make(map[ID]Algorithm, len(catalog)),
		order: make([]ID, 0, len(catalog)),
	}
	for _, a := range catalog {
		r.byID[a.ID] = a
		r.order = append(r.order, a.ID)
	}
	if err := r.validate(); err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) validate() error {
	if len(r.byID) != len(r.order) {
		return fmt.Errorf("algo: duplicate id in catalog")
	}
	for _, id := range r.order {
		a := r.byID[id]
		switch a.Kind {
		case Sorting:
			if a.sort == nil || a.search != nil {
				return fmt.Errorf("algo: %s must only implement sort", id)
			}
		case Searching:
			if a.search == nil || a.sort != nil {
				return fmt.Errorf("algo: %s must only implement search", id)
			}
		default:
			return fmt.Errorf("algo: %s has unknown kind %q", id, a.Kind)
		}
	}
	return nil
}

func (r *Registry) Get(id ID) (Algorithm, error) {
	a, ok := r.byID[id]
	if !ok {
		return Algorithm{}, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, id)
	}
	return a, nil
}

// List returns the descriptors in catalog order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Descriptor)
	}
	return out
}

func (r *Registry) ListKind(kind Kind) []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, d := range r.List() {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
