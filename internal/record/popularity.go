package record

import (
	"cmp"
	"slices"
)

// Comparator orders records by popularity. It returns a negative number when
// a is less popular than b, zero when equal, positive otherwise.
type Comparator func(a, b *Record) int

// ByRetweets compares records by retweet count.
func ByRetweets(a, b *Record) int {
	return cmp.Compare(effectiveSize(a, a.RetweetCount), effectiveSize(b, b.RetweetCount))
}

// ByQuotes compares records by quote count.
func ByQuotes(a, b *Record) int {
	return cmp.Compare(effectiveSize(a, a.QuoteCount), effectiveSize(b, b.QuoteCount))
}

// Retweets carry the counters of the original post, so they rank as zero.
func effectiveSize(r *Record, count int) int {
	if r.IsRetweet() {
		return 0
	}
	return count
}

// SortByPopularity sorts recs most popular first. Records of equal
// popularity keep their relative order.
func SortByPopularity(recs []*Record, by Comparator) {
	slices.SortStableFunc(recs, func(a, b *Record) int {
		return by(b, a)
	})
}
