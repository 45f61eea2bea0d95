// Package guard throttles repeated form submissions from the same visitor.
package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"detox-form-api/internal/common/logger"
)

// Guard answers whether a submission fingerprint is allowed right now.
// Allow records the attempt when it is.
type Guard interface {
	Allow(ctx context.Context, fingerprint string) (bool, error)
}

// Fingerprint builds the duplicate-detection key from the request context.
// The visitor's IP alone is too coarse behind shared NATs, the triple keeps
// false positives down.
func Fingerprint(ip, fullName, userAgent string) string {
	return fmt.Sprintf("%s_%s_%s", ip, fullName, userAgent)
}

// Memory is the single-instance in-memory guard. Entries older than the
// retention window are removed by a background sweep.
type Memory struct {
	cooldown  time.Duration
	retention time.Duration
	logger    logger.Logger

	mu   sync.Mutex
	seen map[string]time.Time

	now func() time.Time
}

// NewMemory creates an in-memory guard and starts its sweep goroutine. The
// goroutine stops when ctx is cancelled.
func NewMemory(ctx context.Context, cooldown, retention, sweepInterval time.Duration, log logger.Logger) *Memory {
	m := &Memory{
		cooldown:  cooldown,
		retention: retention,
		logger:    log,
		seen:      make(map[string]time.Time),
		now:       time.Now,
	}
	go m.sweepLoop(ctx, sweepInterval)
	return m
}

// Allow returns false while the fingerprint is inside the cooldown window.
// Allowed attempts refresh the recorded timestamp.
func (m *Memory) Allow(_ context.Context, fingerprint string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.seen[fingerprint]; ok {
		if now.Sub(last) < m.cooldown {
			return false, nil
		}
	}
	m.seen[fingerprint] = now
	return true, nil
}

func (m *Memory) sweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	cutoff := m.now().Add(-m.retention)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, last := range m.seen {
		if last.Before(cutoff) {
			delete(m.seen, key)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("duplicate guard sweep", map[string]interface{}{
			"removed":   removed,
			"remaining": len(m.seen),
		})
	}
}

// size is a test hook.
func (m *Memory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
