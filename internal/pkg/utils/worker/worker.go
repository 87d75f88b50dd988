package worker

// Task is one unit of work processed by a worker.
type Task func()

// Worker is a goroutine that drains tasks from its queue.
type Worker struct {
	taskQueue chan Task
	stop      chan struct{}
}

func NewWorker() *Worker {
	return &Worker{
		taskQueue: make(chan Task),
		stop:      make(chan struct{}),
	}
}

// Start starts the worker loop.
func (w *Worker) Start() {
	go func() {
		for {
			select {
			case task := <-w.taskQueue:
				task()
			case <-w.stop:
				return
			}
		}
	}()
}

// Stop stops the worker after the task in flight finishes.
func (w *Worker) Stop() {
	close(w.stop)
}

// Submit blocks until the worker accepts the task.
func (w *Worker) Submit(task Task) {
	w.taskQueue <- task
}
