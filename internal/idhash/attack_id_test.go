package idhash

import "testing"

func TestComputeAttackID_Deterministic(t *testing.T) {
	a := ComputeAttackID(100, "pool", "attacker", "front", "back")
	b := ComputeAttackID(100, "pool", "attacker", "front", "back")
	if a != b {
		t.Errorf("Same inputs produced different ids: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(a))
	}
}

func TestComputeAttackID_DistinctInputs(t *testing.T) {
	base := ComputeAttackID(100, "pool", "attacker", "front", "back")
	variants := []string{
		ComputeAttackID(101, "pool", "attacker", "front", "back"),
		ComputeAttackID(100, "pool2", "attacker", "front", "back"),
		ComputeAttackID(100, "pool", "attacker2", "front", "back"),
		ComputeAttackID(100, "pool", "attacker", "front2", "back"),
		ComputeAttackID(100, "pool", "attacker", "front", "back2"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("Variant %d collides with base id", i)
		}
	}
}
