// Package repo persists recommendation outcome records for offline A/B analysis.
package repo

import (
	"context"
	"errors"
	"sync"

	"github.com/miradorstack/cardio-intel/internal/models"
)

// ErrClosed is returned by sinks used after Close.
var ErrClosed = errors.New("outcome log closed")

// OutcomeSink receives recorded outcomes. Implementations must be safe for concurrent use.
type OutcomeSink interface {
	AppendOutcome(ctx context.Context, rec models.OutcomeRecord) error
	ListOutcomes(ctx context.Context, experimentID string, limit int) ([]models.OutcomeRecord, error)
	Close() error
}

// MemoryOutcomeLog keeps outcomes in process memory, newest last.
type MemoryOutcomeLog struct {
	mu      sync.RWMutex
	records []models.OutcomeRecord
	closed  bool
}

// NewMemoryOutcomeLog constructs an empty in-memory log.
func NewMemoryOutcomeLog() *MemoryOutcomeLog {
	return &MemoryOutcomeLog{}
}

// AppendOutcome implements OutcomeSink.
func (m *MemoryOutcomeLog) AppendOutcome(_ context.Context, rec models.OutcomeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.records = append(m.records, rec)
	return nil
}

// ListOutcomes returns up to limit records of an experiment, newest first. An
// empty experimentID matches all records; limit <= 0 means no limit.
func (m *MemoryOutcomeLog) ListOutcomes(_ context.Context, experimentID string, limit int) ([]models.OutcomeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]models.OutcomeRecord, 0)
	for i := len(m.records) - 1; i >= 0; i-- {
		rec := m.records[i]
		if experimentID != "" && rec.ExperimentID != experimentID {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close implements OutcomeSink.
func (m *MemoryOutcomeLog) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
