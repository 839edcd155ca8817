package ports

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a skip/limit window over a collection query.
type Page struct {
	Skip  int
	Limit int
}

// Normalize applies defaults: negative skip becomes 0, a non-positive limit
// becomes DefaultLimit and limits above MaxLimit are capped.
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
