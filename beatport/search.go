package beatport

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xeptore/beatportdl/beatport/apierr"
	"github.com/xeptore/beatportdl/beatport/mapper"
	"github.com/xeptore/beatportdl/beatport/paging"
	"github.com/xeptore/beatportdl/beatport/types"
	"github.com/xeptore/beatportdl/mathutil"
)

const DefaultSearchLimit = 20

// Search returns at most limit results of kind matching query, in the order
// the catalog ranks them.
func (c *Client) Search(ctx context.Context, logger zerolog.Logger, kind types.LinkKind, query string, limit int) ([]types.SearchResult, error) {
	searchType := mapper.SearchType(kind)
	if searchType == "" {
		return nil, apierr.New(apierr.KindConfiguration, "unsupported search kind: "+kind.String(), 0, "")
	}

	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = mathutil.Clamp(limit, 1, paging.MaxPageSize)

	logger = logger.With().Str("search_type", searchType).Str("query", query).Logger()

	res, err := c.catalog.Search(ctx, logger, query, searchType, 1, limit)
	if nil != err {
		return nil, fmt.Errorf("search: %w", err)
	}

	items, err := res.Items(searchType)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to decode search results")
		return nil, err
	}

	return mapper.SearchResults(kind, items), nil
}
