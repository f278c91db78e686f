package mathutil

import (
	"golang.org/x/exp/constraints"
)

// PageCount is the number of pages of size perPage needed to hold total
// items. It is zero when there is nothing to page through.
func PageCount[T constraints.Integer](total, perPage T) T {
	if perPage <= 0 {
		panic("page size must be positive")
	}
	if total <= 0 {
		return 0
	}

	return (total + perPage - 1) / perPage
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
