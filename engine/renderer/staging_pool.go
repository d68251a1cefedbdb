package renderer

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

const stagingQueueSize = 256

// stagingPool is a fixed set of workers sharing one task queue. Submit blocks once the queue is full.
// Closing the stop channel ends every worker after its current task.
type stagingPool struct {
	tasks chan worker.Task
	stop  chan int
	once  sync.Once
}

func newStagingPool(n int) *stagingPool {
	p := &stagingPool{
		tasks: make(chan worker.Task, stagingQueueSize),
		stop:  make(chan int),
	}
	for i := range max(n, 1) {
		worker.NewWorker(i, p.tasks, p.stop, time.Second, func(int) {}).Start()
	}
	return p
}

func (p *stagingPool) submit(t worker.Task) {
	p.tasks <- t
}

// close stops the workers. Tasks still queued are dropped.
func (p *stagingPool) close() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		close(p.stop)
	})
}
