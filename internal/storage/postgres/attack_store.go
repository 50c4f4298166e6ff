package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sandwich-watch/internal/domain"
	"solana-sandwich-watch/internal/storage"
)

// AttackStore implements storage.AttackStore using PostgreSQL.
type AttackStore struct {
	pool *Pool
}

// NewAttackStore creates a new AttackStore.
func NewAttackStore(pool *Pool) *AttackStore {
	return &AttackStore{pool: pool}
}

// Compile-time interface checks.
var _ storage.AttackStore = (*AttackStore)(nil)
var _ storage.AttackStatsStore = (*AttackStore)(nil)

// Upsert inserts the attack or replaces the row with the same attack id.
func (s *AttackStore) Upsert(ctx context.Context, a *domain.SandwichAttack) error {
	if a == nil || a.AttackID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO sandwich_attacks (
			attack_id, slot, pool, attacker, front_tx, back_tx, victim_txs,
			gross_profit, net_profit, victim_loss, confidence, algorithm_version, block_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (attack_id) DO UPDATE SET
			victim_txs = EXCLUDED.victim_txs,
			gross_profit = EXCLUDED.gross_profit,
			net_profit = EXCLUDED.net_profit,
			victim_loss = EXCLUDED.victim_loss,
			confidence = EXCLUDED.confidence,
			algorithm_version = EXCLUDED.algorithm_version,
			block_time = EXCLUDED.block_time
	`

	_, err := s.pool.Exec(ctx, query,
		a.AttackID,
		int64(a.Slot),
		a.Pool,
		a.Attacker,
		a.FrontTxSignature,
		a.BackTxSignature,
		a.VictimTxSignatures,
		a.GrossProfit,
		a.NetProfit,
		a.VictimLoss,
		a.Confidence,
		a.AlgorithmVersion,
		a.BlockTime,
	)
	if err != nil {
		return fmt.Errorf("upsert attack: %w", err)
	}
	return nil
}

const attackColumns = `
	attack_id, slot, pool, attacker, front_tx, back_tx, victim_txs,
	gross_profit, net_profit, victim_loss, confidence, algorithm_version, block_time
`

// GetByID retrieves an attack by attack id. Returns ErrNotFound if absent.
func (s *AttackStore) GetByID(ctx context.Context, attackID string) (*domain.SandwichAttack, error) {
	query := `SELECT ` + attackColumns + ` FROM sandwich_attacks WHERE attack_id = $1`

	row := s.pool.QueryRow(ctx, query, attackID)
	a, err := scanAttack(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get attack by id: %w", err)
	}
	return a, nil
}

// GetBySlotRange retrieves attacks with slot in [from, to] (inclusive).
func (s *AttackStore) GetBySlotRange(ctx context.Context, from, to uint64) ([]*domain.SandwichAttack, error) {
	query := `
		SELECT ` + attackColumns + `
		FROM sandwich_attacks
		WHERE slot >= $1 AND slot <= $2
		ORDER BY slot ASC, pool ASC, attack_id ASC
	`

	rows, err := s.pool.Query(ctx, query, int64(from), int64(to))
	if err != nil {
		return nil, fmt.Errorf("get attacks by slot range: %w", err)
	}
	defer rows.Close()

	var attacks []*domain.SandwichAttack
	for rows.Next() {
		a, err := scanAttack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attack row: %w", err)
		}
		attacks = append(attacks, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attack rows: %w", err)
	}
	return attacks, nil
}

// TopAttackers returns attackers ordered by total net profit, descending.
// Unknown-profit attacks count toward attack_count but not the profit sum.
func (s *AttackStore) TopAttackers(ctx context.Context, limit int) ([]storage.AttackerProfit, error) {
	query := `
		SELECT attacker, COUNT(*) AS attack_count, COALESCE(SUM(net_profit), 0) AS total_profit
		FROM sandwich_attacks
		GROUP BY attacker
		ORDER BY total_profit DESC, attacker ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query top attackers: %w", err)
	}
	defer rows.Close()

	var result []storage.AttackerProfit
	for rows.Next() {
		var row storage.AttackerProfit
		if err := rows.Scan(&row.Attacker, &row.AttackCount, &row.TotalProfit); err != nil {
			return nil, fmt.Errorf("scan attacker profit row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attacker profit rows: %w", err)
	}
	return result, nil
}

// MostTargetedPools returns pools ordered by attack count, descending.
func (s *AttackStore) MostTargetedPools(ctx context.Context, limit int) ([]storage.PoolAttackCount, error) {
	query := `
		SELECT pool, COUNT(*) AS attack_count,
			COALESCE(SUM(cardinality(victim_txs)), 0) AS victim_count
		FROM sandwich_attacks
		GROUP BY pool
		ORDER BY attack_count DESC, pool ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query most targeted pools: %w", err)
	}
	defer rows.Close()

	var result []storage.PoolAttackCount
	for rows.Next() {
		var row storage.PoolAttackCount
		if err := rows.Scan(&row.Pool, &row.AttackCount, &row.VictimCount); err != nil {
			return nil, fmt.Errorf("scan pool count row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool count rows: %w", err)
	}
	return result, nil
}

// scanAttack scans one row into a SandwichAttack.
func scanAttack(row pgx.Row) (*domain.SandwichAttack, error) {
	var a domain.SandwichAttack
	var slot int64

	err := row.Scan(
		&a.AttackID,
		&slot,
		&a.Pool,
		&a.Attacker,
		&a.FrontTxSignature,
		&a.BackTxSignature,
		&a.VictimTxSignatures,
		&a.GrossProfit,
		&a.NetProfit,
		&a.VictimLoss,
		&a.Confidence,
		&a.AlgorithmVersion,
		&a.BlockTime,
	)
	if err != nil {
		return nil, err
	}
	a.Slot = uint64(slot)
	return &a, nil
}
