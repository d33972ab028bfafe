package bot

import (
	"log/slog"
	"sync"
)

// serializer runs jobs one at a time per key, in submission order.
// Different keys run concurrently.
type serializer struct {
	mu     sync.Mutex
	queues map[int64][]func()
	wg     sync.WaitGroup
}

func newSerializer() *serializer {
	return &serializer{queues: make(map[int64][]func())}
}

// Submit enqueues fn behind earlier jobs for key
func (s *serializer) Submit(key int64, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, running := s.queues[key]
	s.queues[key] = append(q, fn)
	if !running {
		s.wg.Add(1)
		go s.drain(key)
	}
}

// Wait blocks until every submitted job has finished
func (s *serializer) Wait() {
	s.wg.Wait()
}

func (s *serializer) drain(key int64) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		q := s.queues[key]
		if len(q) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		fn := q[0]
		s.queues[key] = q[1:]
		s.mu.Unlock()

		run(key, fn)
	}
}

func run(key int64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Handler panicked", "user_id", key, "panic", r)
		}
	}()
	fn()
}
