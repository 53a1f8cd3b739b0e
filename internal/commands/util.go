package commands

import "strconv"

func itoa(n int) string { return strconv.Itoa(n) }

// formatScore renders a zset score the way WITHSCORES replies do:
// shortest round-tripping decimal, with no trailing ".0" for integral
// values (spec.md §4.1).
func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
