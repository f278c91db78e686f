package ratelimit

import (
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// NewCatalogLimiter paces catalog requests. A non-positive rate disables
// limiting.
func NewCatalogLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}

	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

// TrackDownloadPause is the jittered pause taken between two consecutive
// track downloads of the same collection.
func TrackDownloadPause() time.Duration {
	const (
		from = 1
		to   = 3
	)
	millis := (rand.IntN(to-from)+from)*1000 + rand.N(1000) //nolint:gosec

	return time.Duration(millis) * time.Millisecond
}
