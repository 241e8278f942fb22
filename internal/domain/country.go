package domain

// Country is a derived view over the city collection: one entry per distinct
// country, marked with the emoji of the first city seen for it. Never persisted.
type Country struct {
	Country string
	Emoji   string
}

// Countries reduces cities to their distinct countries in collection order.
// The first city encountered for a country supplies its Emoji; later cities
// of the same country are skipped.
// Always returns a non-nil slice so callers can safely range over it.
func Countries(cities []City) []Country {
	out := []Country{}
	seen := make(map[string]struct{}, len(cities))
	for _, c := range cities {
		if _, ok := seen[c.Country]; ok {
			continue
		}
		seen[c.Country] = struct{}{}
		out = append(out, Country{Country: c.Country, Emoji: c.Emoji})
	}
	return out
}
