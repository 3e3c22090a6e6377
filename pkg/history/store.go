package history

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultCap is the maximum number of turns retained before the oldest
// ones are evicted.
const DefaultCap = 100

// Turn is one completed user/bot exchange. Both texts are stored in the
// working language regardless of what the client spoke.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// Store keeps the rolling conversation history in memory. It is safe for
// concurrent use; all reads hand out copies so callers can never mutate
// the retained turns.
type Store struct {
	mu     sync.RWMutex
	turns  []Turn
	cap    int
	logger *logrus.Logger
}

// NewStore creates a history store retaining at most capacity turns.
// capacity <= 0 falls back to DefaultCap.
func NewStore(capacity int, logger *logrus.Logger) *Store {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Store{
		turns:  make([]Turn, 0, capacity),
		cap:    capacity,
		logger: logger,
	}
}

// Append records a completed exchange. When the store is at capacity the
// oldest turns are evicted in the same critical section, so concurrent
// readers never observe more than the configured number of turns.
func (s *Store) Append(userText, botText string) {
	s.mu.Lock()
	s.turns = append(s.turns, Turn{User: userText, Bot: botText})

	evicted := 0
	if overflow := len(s.turns) - s.cap; overflow > 0 {
		copy(s.turns, s.turns[overflow:])
		s.turns = s.turns[:s.cap]
		evicted = overflow
	}
	size := len(s.turns)
	s.mu.Unlock()

	historyTurns.Set(float64(size))
	if evicted > 0 {
		historyEvictionsTotal.Add(float64(evicted))
		s.logger.WithFields(logrus.Fields{
			"evicted": evicted,
			"size":    size,
		}).Debug("Evicted oldest turns from history")
	}
}

// Recent returns up to n of the most recent turns, oldest first.
func (s *Store) Recent(n int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || len(s.turns) == 0 {
		return nil
	}
	start := len(s.turns) - n
	if start < 0 {
		start = 0
	}

	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

// Snapshot returns a copy of all retained turns, oldest first.
func (s *Store) Snapshot() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of retained turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.turns)
}

// Clear removes all retained turns.
func (s *Store) Clear() {
	s.mu.Lock()
	cleared := len(s.turns)
	s.turns = s.turns[:0]
	s.mu.Unlock()

	historyTurns.Set(0)
	s.logger.WithFields(logrus.Fields{
		"cleared": cleared,
	}).Info("Conversation history cleared")
}
