// Package memory provides in-memory store implementations for tests and the
// offline pipeline.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sandwich-watch/internal/domain"
	"solana-sandwich-watch/internal/storage"
)

// AttackStore is an in-memory implementation of storage.AttackStore.
type AttackStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SandwichAttack // keyed by attack id
}

// NewAttackStore creates a new in-memory attack store.
func NewAttackStore() *AttackStore {
	return &AttackStore{data: make(map[string]*domain.SandwichAttack)}
}

var _ storage.AttackStore = (*AttackStore)(nil)
var _ storage.AttackStatsStore = (*AttackStore)(nil)

// Upsert inserts or replaces the record with the same attack id.
func (s *AttackStore) Upsert(_ context.Context, a *domain.SandwichAttack) error {
	if a == nil || a.AttackID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneAttack(a)
	s.data[a.AttackID] = cp
	return nil
}

// GetByID retrieves an attack by attack id.
func (s *AttackStore) GetByID(_ context.Context, attackID string) (*domain.SandwichAttack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[attackID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneAttack(a), nil
}

// GetBySlotRange retrieves attacks with slot in [from, to], ordered by
// (slot, pool, attack id).
func (s *AttackStore) GetBySlotRange(_ context.Context, from, to uint64) ([]*domain.SandwichAttack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SandwichAttack
	for _, a := range s.data {
		if a.Slot >= from && a.Slot <= to {
			result = append(result, cloneAttack(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Slot != result[j].Slot {
			return result[i].Slot < result[j].Slot
		}
		if result[i].Pool != result[j].Pool {
			return result[i].Pool < result[j].Pool
		}
		return result[i].AttackID < result[j].AttackID
	})

	return result, nil
}

// Len returns the number of stored attacks.
func (s *AttackStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// TopAttackers returns attackers ordered by total net profit, descending.
// Attacks with unknown net profit contribute to the count but not the total.
func (s *AttackStore) TopAttackers(_ context.Context, limit int) ([]storage.AttackerProfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]*storage.AttackerProfit)
	for _, a := range s.data {
		row, ok := totals[a.Attacker]
		if !ok {
			row = &storage.AttackerProfit{Attacker: a.Attacker}
			totals[a.Attacker] = row
		}
		row.AttackCount++
		if a.NetProfit != nil {
			row.TotalProfit += *a.NetProfit
		}
	}

	rows := make([]storage.AttackerProfit, 0, len(totals))
	for _, row := range totals {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalProfit != rows[j].TotalProfit {
			return rows[i].TotalProfit > rows[j].TotalProfit
		}
		return rows[i].Attacker < rows[j].Attacker
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// MostTargetedPools returns pools ordered by attack count, descending.
func (s *AttackStore) MostTargetedPools(_ context.Context, limit int) ([]storage.PoolAttackCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]*storage.PoolAttackCount)
	for _, a := range s.data {
		row, ok := counts[a.Pool]
		if !ok {
			row = &storage.PoolAttackCount{Pool: a.Pool}
			counts[a.Pool] = row
		}
		row.AttackCount++
		row.VictimCount += int64(len(a.VictimTxSignatures))
	}

	rows := make([]storage.PoolAttackCount, 0, len(counts))
	for _, row := range counts {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AttackCount != rows[j].AttackCount {
			return rows[i].AttackCount > rows[j].AttackCount
		}
		return rows[i].Pool < rows[j].Pool
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// cloneAttack deep-copies a record so callers cannot mutate stored state.
func cloneAttack(a *domain.SandwichAttack) *domain.SandwichAttack {
	cp := *a
	cp.VictimTxSignatures = append([]string(nil), a.VictimTxSignatures...)
	cp.GrossProfit = cloneFloat(a.GrossProfit)
	cp.NetProfit = cloneFloat(a.NetProfit)
	cp.VictimLoss = cloneFloat(a.VictimLoss)
	return &cp
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
