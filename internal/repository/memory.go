package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

// MemoryStore keeps records in insertion order. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records []entity.LocationHistory
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) InsertMany(ctx context.Context, records []entity.LocationHistory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *MemoryStore) QueryByVehicleAndTimeRange(ctx context.Context, vehicleID string, start, end time.Time) ([]entity.LocationHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.LocationHistory
	for _, r := range m.records {
		if r.GroupName != vehicleID || r.RDT == nil {
			continue
		}
		if r.RDT.Before(start) || r.RDT.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// All returns a copy of every stored record.
func (m *MemoryStore) All() []entity.LocationHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.records)
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() {}
