package seed

import (
	"errors"
	"math/rand/v2"
	"time"
)

// NewRand returns a deterministic random source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// IntBetween returns a uniform int in [lo, hi].
func IntBetween(r *rand.Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}

// Choice returns a uniformly chosen element of items, which must not be empty.
func Choice[T any](r *rand.Rand, items []T) T {
	return items[r.IntN(len(items))]
}

// Sample returns k distinct elements of items in random order. k is clamped
// to len(items). items is not modified.
func Sample[T any](r *rand.Rand, items []T, k int) []T {
	pool := append([]T(nil), items...)
	k = min(k, len(pool))
	for i := 0; i < k; i++ {
		j := i + r.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateBetween returns a uniformly chosen day in [start, endExclusive).
func DateBetween(r *rand.Rand, start, endExclusive time.Time) (time.Time, error) {
	days := int(endExclusive.Sub(start).Hours() / 24)
	if days <= 0 {
		return time.Time{}, errors.New("invalid date range")
	}
	return start.AddDate(0, 0, r.IntN(days)), nil
}

// DateValue formats t as a SQL DATE literal.
func DateValue(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DateTimeValue formats t as a SQL DATETIME literal.
func DateTimeValue(t time.Time) string {
	return t.Format(time.DateTime)
}
