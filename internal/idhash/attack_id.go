// Package idhash derives deterministic record identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeAttackID computes a deterministic attack id using SHA256 over the
// idempotency key. Reprocessing the same block always produces the same id, so
// the storage upsert collapses duplicates.
// Formula: SHA256(slot|pool|attacker|front_tx|back_tx), hex encoded.
func ComputeAttackID(slot uint64, pool, attacker, frontSig, backSig string) string {
	data := fmt.Sprintf("%d|%s|%s|%s|%s", slot, pool, attacker, frontSig, backSig)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
