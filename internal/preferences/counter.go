package preferences

import "slices"

// counter tallies values and remembers the order they first appeared in.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) addAll(values []string) {
	for _, v := range values {
		if _, seen := c.counts[v]; !seen {
			c.order = append(c.order, v)
		}
		c.counts[v]++
	}
}

// top returns up to n values by descending count; ties keep first-appearance order.
func (c *counter) top(n int) []string {
	ranked := slices.Clone(c.order)
	slices.SortStableFunc(ranked, func(a, b string) int {
		return c.counts[b] - c.counts[a]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
