package webhook

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Sequencer runs submitted jobs in order per chat while letting different
// chats proceed concurrently. The engine relies on the transport for this
// ordering: two updates from one user must not interleave.
type Sequencer struct {
	mu     sync.Mutex
	queues map[int64][]func()
	active map[int64]bool

	wg     sync.WaitGroup
	closed atomic.Bool
	logger *zap.Logger
}

// NewSequencer creates a per-chat job sequencer
func NewSequencer(logger *zap.Logger) *Sequencer {
	return &Sequencer{
		queues: make(map[int64][]func()),
		active: make(map[int64]bool),
		logger: logger,
	}
}

// Submit enqueues a job for a chat. Jobs for the same chat run one at a
// time in submission order. Jobs submitted after Close are dropped.
func (s *Sequencer) Submit(chatID int64, job func()) {
	if s.closed.Load() {
		s.logger.Warn("job dropped, sequencer closed", zap.Int64("chat_id", chatID))
		return
	}

	s.mu.Lock()
	s.queues[chatID] = append(s.queues[chatID], job)
	if s.active[chatID] {
		s.mu.Unlock()
		return
	}
	s.active[chatID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.drain(chatID)
}

func (s *Sequencer) drain(chatID int64) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		queue := s.queues[chatID]
		if len(queue) == 0 {
			s.active[chatID] = false
			delete(s.queues, chatID)
			s.mu.Unlock()
			return
		}
		job := queue[0]
		s.queues[chatID] = queue[1:]
		s.mu.Unlock()

		s.run(chatID, job)
	}
}

func (s *Sequencer) run(chatID int64, job func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in queued job",
				zap.Int64("chat_id", chatID),
				zap.Any("panic", r))
		}
	}()
	job()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (s *Sequencer) Close() {
	s.closed.Store(true)
	s.wg.Wait()
}
