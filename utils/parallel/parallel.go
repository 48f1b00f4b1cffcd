package parallel

import (
	"runtime"
	"sync"
)

// Execute processes in parallel the work function over [0, nbIterations) and
// waits for the result. The range is split into at most nbTasks contiguous
// chunks (runtime.NumCPU() when nbTasks is omitted); the chunk boundaries
// depend only on nbIterations and nbTasks, so index-addressed writes produce
// the same result regardless of scheduling.
func Execute(nbIterations int, work func(int, int), nbTasks ...int) {
	nbCpus := runtime.NumCPU()
	if len(nbTasks) > 0 && nbTasks[0] > 0 {
		nbCpus = nbTasks[0]
	}

	nbIterationsPerCpus := nbIterations / nbCpus

	// more CPUs than tasks: a CPU will work on exactly one iteration
	if nbIterationsPerCpus < 1 {
		nbIterationsPerCpus = 1
		nbCpus = nbIterations
	}

	var wg sync.WaitGroup

	extraTasks := nbIterations - (nbCpus * nbIterationsPerCpus)
	extraTasksOffset := 0

	for i := 0; i < nbCpus; i++ {
		wg.Add(1)
		_start := i*nbIterationsPerCpus + extraTasksOffset
		_end := _start + nbIterationsPerCpus
		if extraTasks > 0 {
			_end++
			extraTasks--
			extraTasksOffset++
		}
		go func() {
			work(_start, _end)
			wg.Done()
		}()
	}

	wg.Wait()
}
