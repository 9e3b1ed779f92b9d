package core

import (
	"sort"
	"strings"
	"time"
)

// CurrentMonth returns the current calendar month token (YYYY-MM) in local time.
func CurrentMonth() string {
	return time.Now().Format("2006-01")
}

// TodayYMD returns today's date (YYYY-MM-DD) in local time.
func TodayYMD() string {
	return time.Now().Format("2006-01-02")
}

// ResolveMonth normalizes a caller-supplied month selector: a non-blank input
// is used verbatim after trimming, an absent or blank one defaults to the
// current calendar month.
func ResolveMonth(input string) string {
	if m := strings.TrimSpace(input); m != "" {
		return m
	}
	return CurrentMonth()
}

// MonthOf returns the YYYY-MM prefix of a YYYY-MM-DD date, falling back to
// the current month when the input is too short.
func MonthOf(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return CurrentMonth()
}

// MergeMonths builds the navigation menu: the union of the given month lists
// plus the current month, deduplicated and most recent first.
func MergeMonths(current string, lists ...[]string) []string {
	seen := map[string]struct{}{current: {}}
	out := []string{current}
	for _, list := range lists {
		for _, m := range list {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}
