package algo

// Progress for the three quadratic sorts is completed outer passes over
// total outer passes.

func bubbleSort(arr []int, env Env) error {
	n := len(arr)
	t := newTracer(n, env)
	passes := n - 1

	for i := 0; i < passes; i++ {
		p := ratio(i, passes)
		for j := 0; j < n-i-1; j++ {
			if err := t.step(p, nil, []int{j, j + 1}); err != nil {
				return err
			}
			if arr[j] > arr[j+1] {
				if err := t.step(p, []int{j, j + 1}, nil); err != nil {
					return err
				}
				arr[j], arr[j+1] = arr[j+1], arr[j]
				if err := t.mutated(p, nil, nil); err != nil {
					return err
				}
			}
		}
		t.mark(n - i - 1)
		if err := t.step(ratio(i+1, passes), nil, nil); err != nil {
			return err
		}
	}

	if n > 0 {
		t.mark(0)
	}
	return t.finish()
}

func selectionSort(arr []int, env Env) error {
	n := len(arr)
	t := newTracer(n, env)
	passes := n - 1

	for i := 0; i < passes; i++ {
		p := ratio(i, passes)
		minIdx := i
		for j := i + 1; j < n; j++ {
			if err := t.step(p, []int{minIdx}, []int{j}); err != nil {
				return err
			}
			if arr[j] < arr[minIdx] {
				minIdx = j
			}
		}

		if minIdx != i {
			if err := t.step(p, []int{i, minIdx}, nil); err != nil {
				return err
			}
			arr[i], arr[minIdx] = arr[minIdx], arr[i]
			if err := t.mutated(p, nil, nil); err != nil {
				return err
			}
		}

		t.mark(i)
		if err := t.step(ratio(i+1, passes), nil, nil); err != nil {
			return err
		}
	}

	if n > 0 {
		t.mark(n - 1)
	}
	return t.finish()
}

func insertionSort(arr []int, env Env) error {
	n := len(arr)
	t := newTracer(n, env)
	passes := n - 1
	if n > 0 {
		t.mark(0)
	}

	for i := 1; i < n; i++ {
		p := ratio(i-1, passes)
		if err := t.step(p, []int{i}, nil); err != nil {
			return err
		}

		key := arr[i]
		j := i - 1
		// While shifting, the slot holding a stale copy (the "hole") is
		// j+1 before the shift and j after it. A stopped run puts key back
		// there so the array stays a permutation.
		for j >= 0 && arr[j] > key {
			if err := t.step(p, nil, []int{j, j + 1}); err != nil {
				arr[j+1] = key
				return err
			}
			arr[j+1] = arr[j]
			if err := t.mutated(p, []int{j + 1}, nil); err != nil {
				arr[j] = key
				return err
			}
			j--
		}

		arr[j+1] = key
		t.mark(i)
		if err := t.mutated(ratio(i, passes), nil, nil); err != nil {
			return err
		}
	}

	return t.finish()
}
