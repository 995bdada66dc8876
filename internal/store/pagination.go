package store

// Pagination bounds for idea listings.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is an offset window over an ordered result set.
type Page struct {
	Skip  int
	Limit int
}

// Normalize clamps the page into the supported range.
// Callers reject out-of-range input before it reaches the store.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}
