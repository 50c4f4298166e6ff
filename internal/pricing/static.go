package pricing

// StaticSource serves prices from a fixed table, independent of slot. Used for
// tests and offline backfills where a single snapshot per token is enough.
type StaticSource struct {
	prices map[string]float64
}

// NewStaticSource creates a source over a token -> SOL-per-raw-unit table.
func NewStaticSource(prices map[string]float64) *StaticSource {
	cp := make(map[string]float64, len(prices))
	for k, v := range prices {
		cp[k] = v
	}
	return &StaticSource{prices: cp}
}

var _ Source = (*StaticSource)(nil)

// Price returns the table value for token, ignoring slot.
func (s *StaticSource) Price(token string, _ uint64) (float64, bool) {
	v, ok := s.prices[token]
	return v, ok
}
