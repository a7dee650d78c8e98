package algo

// For searches the Sorted role carries the indices already ruled out.

func linearSearch(arr []int, target int, env Env) (int, error) {
	n := len(arr)
	t := newTracer(n, env)

	for i := 0; i < n; i++ {
		p := ratio(i+1, n)
		// inspect, then compare
		if err := t.step(p, []int{i}, nil); err != nil {
			return -1, err
		}
		if err := t.step(p, []int{i}, nil); err != nil {
			return -1, err
		}

		if arr[i] == target {
			if err := t.emit(100, []int{i}, nil); err != nil {
				return -1, err
			}
			return i, nil
		}

		t.mark(i)
		if err := t.step(p, nil, nil); err != nil {
			return -1, err
		}
	}

	return -1, t.finish()
}

// binarySearch expects arr in non-decreasing order. Progress is
// (n - remaining width) / n.
func binarySearch(arr []int, target int, env Env) (int, error) {
	n := len(arr)
	t := newTracer(n, env)
	left, right := 0, n-1

	for left <= right {
		mid := left + (right-left)/2
		p := ratio(n-(right-left), n)

		if err := t.step(p, nil, []int{left, right}); err != nil {
			return -1, err
		}
		if err := t.step(p, []int{mid}, nil); err != nil {
			return -1, err
		}

		if arr[mid] == target {
			t.mark(mid)
			if err := t.emit(100, []int{mid}, nil); err != nil {
				return -1, err
			}
			return mid, nil
		}

		if arr[mid] < target {
			t.markRange(left, mid)
			left = mid + 1
		} else {
			t.markRange(mid, right)
			right = mid - 1
		}

		if err := t.step(ratio(n-(right-left), n), nil, nil); err != nil {
			return -1, err
		}
	}

	return -1, t.finish()
}
