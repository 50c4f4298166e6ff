// Package pricing provides the reference-price capability used to convert raw
// swap amounts into a common SOL-equivalent unit.
package pricing

// Source resolves the SOL-equivalent value of one raw unit of a token at a
// given slot. ok is false when no reference price is available; callers must
// degrade to "unknown" rather than substitute zero.
type Source interface {
	Price(token string, slot uint64) (value float64, ok bool)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(token string, slot uint64) (float64, bool)

// Price implements Source.
func (f SourceFunc) Price(token string, slot uint64) (float64, bool) {
	return f(token, slot)
}
