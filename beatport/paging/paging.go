package paging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xeptore/beatportdl/mathutil"
)

// MaxPageSize is the largest per_page the catalog accepts.
const MaxPageSize = 100

type Page[T any] struct {
	Items []T
	// Count is the total number of items the server declares for the whole
	// collection.
	Count int
}

type FetchFunc[T any] func(ctx context.Context, page, perPage int) (*Page[T], error)

type Result[T any] struct {
	Items []T
	Total int
	Pages int
}

// Mismatch reports whether the collected items differ from the declared
// total.
func (r *Result[T]) Mismatch() bool {
	return len(r.Items) != r.Total
}

// CollectAll fetches pages starting at 1 until the declared total is reached.
// An empty page, or two consecutive short pages, before that point end the
// collection early with a partial result. Fetch errors are returned as is.
func CollectAll[T any](
	ctx context.Context,
	logger zerolog.Logger,
	perPage int,
	fetch FetchFunc[T],
) (*Result[T], error) {
	if perPage <= 0 || perPage > MaxPageSize {
		perPage = MaxPageSize
	}

	first, err := fetch(ctx, 1, perPage)
	if nil != err {
		return nil, fmt.Errorf("fetch page 1: %w", err)
	}

	res := &Result[T]{
		Items: nil,
		Total: 0,
		Pages: 1,
	}
	if nil == first {
		return res, nil
	}
	res.Items = append(res.Items, first.Items...)
	res.Total = first.Count

	if res.Total <= 0 {
		return res, nil
	}

	logger = logger.With().Int("total", res.Total).Int("per_page", perPage).Logger()
	logger.Debug().Int("pages", mathutil.PageCount(res.Total, perPage)).Msg("Collecting pages")

	shortPages := countShort(0, len(first.Items), perPage)
	for page := 2; len(res.Items) < res.Total; page++ {
		if shortPages >= 2 {
			logger.Warn().Int("collected", len(res.Items)).Msg("Consecutive short pages, collection is incomplete")
			break
		}

		next, err := fetch(ctx, page, perPage)
		if nil != err {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}

		if nil == next || len(next.Items) == 0 {
			logger.Warn().Int("page", page).Int("collected", len(res.Items)).Msg("Empty page before declared total was reached, collection is incomplete")
			break
		}

		res.Items = append(res.Items, next.Items...)
		res.Pages = page
		shortPages = countShort(shortPages, len(next.Items), perPage)
	}

	return res, nil
}

func countShort(streak, n, perPage int) int {
	if n < perPage {
		return streak + 1
	}

	return 0
}
