package storage

import (
	"context"

	"solana-sandwich-watch/internal/domain"
)

// FanoutAttackStore writes attacks to every sink and reads from the primary.
// Used to feed the analytical sink alongside the transactional one.
type FanoutAttackStore struct {
	primary     AttackStore
	secondaries []AttackStore
}

// NewFanoutAttackStore creates a fanout over primary and secondaries.
func NewFanoutAttackStore(primary AttackStore, secondaries ...AttackStore) *FanoutAttackStore {
	return &FanoutAttackStore{primary: primary, secondaries: secondaries}
}

var _ AttackStore = (*FanoutAttackStore)(nil)

// Upsert writes to the primary first, then to each secondary. A secondary
// failure aborts with the error; re-emitting the same attack is safe.
func (s *FanoutAttackStore) Upsert(ctx context.Context, a *domain.SandwichAttack) error {
	if err := s.primary.Upsert(ctx, a); err != nil {
		return err
	}
	for _, sink := range s.secondaries {
		if err := sink.Upsert(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// GetByID reads from the primary.
func (s *FanoutAttackStore) GetByID(ctx context.Context, attackID string) (*domain.SandwichAttack, error) {
	return s.primary.GetByID(ctx, attackID)
}

// GetBySlotRange reads from the primary.
func (s *FanoutAttackStore) GetBySlotRange(ctx context.Context, from, to uint64) ([]*domain.SandwichAttack, error) {
	return s.primary.GetBySlotRange(ctx, from, to)
}
