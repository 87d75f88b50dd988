package worker

import "sync/atomic"

// WorkerPool fans tasks out across a fixed set of workers round-robin.
type WorkerPool struct {
	workers []*Worker
	next    atomic.Uint64
}

func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	pool := &WorkerPool{
		workers: make([]*Worker, numWorkers),
	}
	for i := 0; i < numWorkers; i++ {
		w := NewWorker()
		w.Start()
		pool.workers[i] = w
	}
	return pool
}

// Stop stops every worker in the pool.
func (p *WorkerPool) Stop() {
	for _, w := range p.workers {
		w.Stop()
	}
}

// Submit hands the task to the next worker in rotation.
func (p *WorkerPool) Submit(task Task) {
	idx := p.next.Add(1) % uint64(len(p.workers))
	p.workers[idx].Submit(task)
}
