package algo

// quickSort uses Lomuto partitioning with the last element as pivot.
// Progress counts finalized pivot positions (plus singleton ranges), so it
// is not linear in the work done.
func quickSort(arr []int, env Env) error {
	t := newTracer(len(arr), env)
	if err := quickRange(arr, 0, len(arr)-1, t); err != nil {
		return err
	}
	return t.finish()
}

func quickRange(arr []int, low, high int, t *tracer) error {
	if low > high {
		return nil
	}
	if low == high {
		t.mark(low)
		return t.emit(t.fraction(), nil, nil)
	}

	p, err := partition(arr, low, high, t)
	if err != nil {
		return err
	}
	t.mark(p)
	if err := t.mutated(t.fraction(), nil, nil); err != nil {
		return err
	}

	if err := quickRange(arr, low, p-1, t); err != nil {
		return err
	}
	return quickRange(arr, p+1, high, t)
}

func partition(arr []int, low, high int, t *tracer) (int, error) {
	pivot := arr[high]
	i := low - 1

	if err := t.step(t.fraction(), []int{high}, nil); err != nil {
		return 0, err
	}

	for j := low; j < high; j++ {
		if err := t.step(t.fraction(), nil, []int{j, high}); err != nil {
			return 0, err
		}
		if arr[j] <= pivot {
			i++
			if err := t.step(t.fraction(), []int{i, j}, nil); err != nil {
				return 0, err
			}
			arr[i], arr[j] = arr[j], arr[i]
			if err := t.mutated(t.fraction(), nil, nil); err != nil {
				return 0, err
			}
		}
	}

	if err := t.step(t.fraction(), []int{i + 1, high}, nil); err != nil {
		return 0, err
	}
	arr[i+1], arr[high] = arr[high], arr[i+1]
	return i + 1, nil
}
