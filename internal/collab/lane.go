package collab

import "sync"

// writeLane runs one connection's persisting jobs in arrival order on its own goroutine.
// The goroutine exits when the queue is empty and is restarted by the next push.
type writeLane struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

func (l *writeLane) push(job func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, job)
	if !l.running {
		l.running = true
		go l.run()
	}
}

func (l *writeLane) run() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.running = false
			l.mu.Unlock()
			return
		}
		job := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()
		job()
	}
}
