package impact

import "sync"

func task[T any](workersCount int, data []T, fn func(data T)) {
	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(data[i])
			}
		}(workerID*chunkSize, min((workerID+1)*chunkSize, dataSize))
	}
	wg.Wait()
}

// gather runs fn over contiguous chunks of data, each worker appending to a private slice.
// The slices are concatenated in worker order, so the output follows the input order
// whatever the number of workers.
func gather[T, R any](workersCount int, data []T, fn func(data T, out []R) []R) []R {
	workersCount = max(1, workersCount)
	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount
	outputs := make([][]R, workersCount)

	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(workerID, start, end int) {
			defer wg.Done()
			var out []R
			for i := start; i < end; i++ {
				out = fn(data[i], out)
			}
			outputs[workerID] = out
		}(workerID, workerID*chunkSize, min((workerID+1)*chunkSize, dataSize))
	}
	wg.Wait()

	total := 0
	for _, out := range outputs {
		total += len(out)
	}
	result := make([]R, 0, total)
	for _, out := range outputs {
		result = append(result, out...)
	}
	return result
}
