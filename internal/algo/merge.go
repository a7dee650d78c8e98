package algo

import "slices"

// mergeSort is top-down and stable: ties take the left run first.
// Progress is |sorted| / n.
func mergeSort(arr []int, env Env) error {
	t := newTracer(len(arr), env)
	if err := mergeRange(arr, 0, len(arr)-1, t); err != nil {
		return err
	}
	return t.finish()
}

func mergeRange(arr []int, left, right int, t *tracer) error {
	if left > right {
		return nil
	}
	if left == right {
		t.mark(left)
		return t.step(t.fraction(), []int{left}, nil)
	}

	mid := left + (right-left)/2
	if err := mergeRange(arr, left, mid, t); err != nil {
		return err
	}
	if err := mergeRange(arr, mid+1, right, t); err != nil {
		return err
	}
	return merge(arr, left, mid, right, t)
}

func merge(arr []int, left, mid, right int, t *tracer) (err error) {
	lhs := slices.Clone(arr[left : mid+1])
	rhs := slices.Clone(arr[mid+1 : right+1])
	i, j, k := 0, 0, left

	defer func() {
		if err != nil {
			// flush what is still buffered so a stopped merge loses nothing
			k += copy(arr[k:right+1], lhs[i:])
			copy(arr[k:right+1], rhs[j:])
		}
	}()

	for i < len(lhs) && j < len(rhs) {
		if err = t.step(t.fraction(), nil, []int{left + i, mid + 1 + j}); err != nil {
			return err
		}
		if err = t.step(t.fraction(), []int{k}, nil); err != nil {
			return err
		}
		if lhs[i] <= rhs[j] {
			arr[k] = lhs[i]
			i++
		} else {
			arr[k] = rhs[j]
			j++
		}
		k++
		t.rest()
	}

	for i < len(lhs) {
		arr[k] = lhs[i]
		if err = t.mutated(t.fraction(), []int{k}, []int{left + i}); err != nil {
			return err
		}
		i++
		k++
	}

	for j < len(rhs) {
		arr[k] = rhs[j]
		if err = t.mutated(t.fraction(), []int{k}, []int{mid + 1 + j}); err != nil {
			return err
		}
		j++
		k++
	}

	t.markRange(left, right)
	return t.mutated(t.fraction(), nil, nil)
}
