package clickhouse

import (
	"context"
	"fmt"

	"solana-sandwich-watch/internal/domain"
	"solana-sandwich-watch/internal/storage"
)

// AttackStore implements storage.AttackStore using ClickHouse. Upsert
// idempotency relies on the ReplacingMergeTree keyed by attack_id: re-emitted
// rows collapse to one at merge time, and reads deduplicate with FINAL.
type AttackStore struct {
	conn *Conn
}

// NewAttackStore creates a new AttackStore.
func NewAttackStore(conn *Conn) *AttackStore {
	return &AttackStore{conn: conn}
}

// Compile-time interface checks.
var _ storage.AttackStore = (*AttackStore)(nil)
var _ storage.AttackStatsStore = (*AttackStore)(nil)

// Upsert inserts the attack row; the table engine deduplicates by attack id.
func (s *AttackStore) Upsert(ctx context.Context, a *domain.SandwichAttack) error {
	if a == nil || a.AttackID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO sandwich_attacks (
			attack_id, slot, pool, attacker, front_tx, back_tx, victim_txs,
			gross_profit, net_profit, victim_loss, confidence, algorithm_version, block_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		a.AttackID,
		a.Slot,
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
		return fmt.Errorf("insert attack: %w", err)
	}
	return nil
}

const attackColumns = `
	attack_id, slot, pool, attacker, front_tx, back_tx, victim_txs,
	gross_profit, net_profit, victim_loss, confidence, algorithm_version, block_time
`

// GetByID retrieves an attack by attack id. Returns ErrNotFound if absent.
func (s *AttackStore) GetByID(ctx context.Context, attackID string) (*domain.SandwichAttack, error) {
	query := `SELECT ` + attackColumns + ` FROM sandwich_attacks FINAL WHERE attack_id = ?`

	rows, err := s.conn.Query(ctx, query, attackID)
	if err != nil {
		return nil, fmt.Errorf("get attack by id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, storage.ErrNotFound
	}
	return scanAttack(rows)
}

// GetBySlotRange retrieves attacks with slot in [from, to] (inclusive).
func (s *AttackStore) GetBySlotRange(ctx context.Context, from, to uint64) ([]*domain.SandwichAttack, error) {
	query := `
		SELECT ` + attackColumns + `
		FROM sandwich_attacks FINAL
		WHERE slot >= ? AND slot <= ?
		ORDER BY slot ASC, pool ASC, attack_id ASC
	`

	rows, err := s.conn.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("get attacks by slot range: %w", err)
	}
	defer rows.Close()

	var attacks []*domain.SandwichAttack
	for rows.Next() {
		a, err := scanAttack(rows)
		if err != nil {
			return nil, err
		}
		attacks = append(attacks, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attack rows: %w", err)
	}
	return attacks, nil
}

// TopAttackers returns attackers ordered by total net profit, descending.
func (s *AttackStore) TopAttackers(ctx context.Context, limit int) ([]storage.AttackerProfit, error) {
	query := `
		SELECT attacker, toInt64(count()) AS attack_count,
			coalesce(sum(net_profit), 0) AS total_profit
		FROM sandwich_attacks FINAL
		GROUP BY attacker
		ORDER BY total_profit DESC, attacker ASC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, limit)
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
		SELECT pool, toInt64(count()) AS attack_count,
			toInt64(sum(length(victim_txs))) AS victim_count
		FROM sandwich_attacks FINAL
		GROUP BY pool
		ORDER BY attack_count DESC, pool ASC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, limit)
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

// scanAttack scans the current row into a SandwichAttack.
func scanAttack(rows interface {
	Scan(dest ...any) error
}) (*domain.SandwichAttack, error) {
	var a domain.SandwichAttack
	err := rows.Scan(
		&a.AttackID,
		&a.Slot,
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
		return nil, fmt.Errorf("scan attack row: %w", err)
	}
	return &a, nil
}
