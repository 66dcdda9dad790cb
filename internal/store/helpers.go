package store

// List limits.
const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// clampLimit applies the default and maximum page size.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}

	if limit > maxListLimit {
		return maxListLimit
	}

	return limit
}
