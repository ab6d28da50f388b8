package inference

import (
	"runtime"
	"sync"
)

// workerPool bounds the concurrency of per-region model forwards. Region
// models are independent and immutable after load, so running them in
// parallel is safe; results are reduced via a commutative mean downstream, so
// no ordering guarantee is needed.
type workerPool struct {
	workers  int
	jobQueue chan func()
	once     sync.Once
}

func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &workerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

func (wp *workerPool) start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *workerPool) worker() {
	for job := range wp.jobQueue {
		job()
	}
}

func (wp *workerPool) submit(job func()) {
	wp.jobQueue <- job
}

func (wp *workerPool) close() {
	close(wp.jobQueue)
}
