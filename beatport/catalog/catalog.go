package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/xeptore/beatportdl/beatport/paging"
)

type Getter interface {
	Get(ctx context.Context, logger zerolog.Logger, endpoint string, params url.Values) ([]byte, error)
}

// Catalog maps Beatport API endpoints to typed responses.
type Catalog struct {
	g Getter
}

func New(g Getter) *Catalog {
	return &Catalog{g: g}
}

func get[T any](ctx context.Context, c *Catalog, logger zerolog.Logger, endpoint string, params url.Values) (*T, error) {
	body, err := c.g.Get(ctx, logger, endpoint, params)
	if nil != err {
		return nil, err
	}

	v, err := decode[T](body)
	if nil != err {
		logger.Error().Err(err).Str("endpoint", endpoint).Msg("Failed to decode response body")
		return nil, fmt.Errorf("decode %s response body: %v", endpoint, err)
	}

	return v, nil
}

func getPage[T any](
	ctx context.Context,
	c *Catalog,
	logger zerolog.Logger,
	endpoint string,
	page,
	perPage int,
) (*paging.Page[T], error) {
	params := make(url.Values, 2)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	env, err := get[Envelope[T]](ctx, c, logger.With().Int("page", page).Logger(), endpoint, params)
	if nil != err {
		return nil, err
	}

	return &paging.Page[T]{Items: env.Results, Count: env.Count}, nil
}

func (c *Catalog) Account(ctx context.Context, logger zerolog.Logger) (*Account, error) {
	return get[Account](ctx, c, logger, "auth/o/introspect", nil)
}

func (c *Catalog) Track(ctx context.Context, logger zerolog.Logger, id string) (*Track, error) {
	return get[Track](ctx, c, logger, "catalog/tracks/"+url.PathEscape(id), nil)
}

func (c *Catalog) Release(ctx context.Context, logger zerolog.Logger, id string) (*Release, error) {
	return get[Release](ctx, c, logger, "catalog/releases/"+url.PathEscape(id), nil)
}

func (c *Catalog) ReleaseTracks(ctx context.Context, logger zerolog.Logger, id string, page, perPage int) (*paging.Page[Track], error) {
	return getPage[Track](ctx, c, logger, "catalog/releases/"+url.PathEscape(id)+"/tracks", page, perPage)
}

func (c *Catalog) Playlist(ctx context.Context, logger zerolog.Logger, id string) (*Playlist, error) {
	return get[Playlist](ctx, c, logger, "catalog/playlists/"+url.PathEscape(id), nil)
}

func (c *Catalog) PlaylistTracks(ctx context.Context, logger zerolog.Logger, id string, page, perPage int) (*paging.Page[PlaylistItem], error) {
	return getPage[PlaylistItem](ctx, c, logger, "catalog/playlists/"+url.PathEscape(id)+"/tracks", page, perPage)
}

func (c *Catalog) Chart(ctx context.Context, logger zerolog.Logger, id string) (*Chart, error) {
	return get[Chart](ctx, c, logger, "catalog/charts/"+url.PathEscape(id), nil)
}

func (c *Catalog) ChartTracks(ctx context.Context, logger zerolog.Logger, id string, page, perPage int) (*paging.Page[Track], error) {
	return getPage[Track](ctx, c, logger, "catalog/charts/"+url.PathEscape(id)+"/tracks", page, perPage)
}

func (c *Catalog) Artist(ctx context.Context, logger zerolog.Logger, id string) (*Artist, error) {
	return get[Artist](ctx, c, logger, "catalog/artists/"+url.PathEscape(id), nil)
}

func (c *Catalog) ArtistTracks(ctx context.Context, logger zerolog.Logger, id string, page, perPage int) (*paging.Page[Track], error) {
	return getPage[Track](ctx, c, logger, "catalog/artists/"+url.PathEscape(id)+"/tracks", page, perPage)
}

func (c *Catalog) Label(ctx context.Context, logger zerolog.Logger, id string) (*Label, error) {
	return get[Label](ctx, c, logger, "catalog/labels/"+url.PathEscape(id), nil)
}

func (c *Catalog) LabelReleases(ctx context.Context, logger zerolog.Logger, id string, page, perPage int) (*paging.Page[Release], error) {
	return getPage[Release](ctx, c, logger, "catalog/labels/"+url.PathEscape(id)+"/releases", page, perPage)
}

func (c *Catalog) LabelTracks(ctx context.Context, logger zerolog.Logger, id string, page, perPage int) (*paging.Page[Track], error) {
	return getPage[Track](ctx, c, logger, "catalog/labels/"+url.PathEscape(id)+"/tracks", page, perPage)
}

// Search queries the catalog. Without searchType the API answers with a
// summary of every type and ignores paging, so page and perPage are only
// sent along with a type.
func (c *Catalog) Search(
	ctx context.Context,
	logger zerolog.Logger,
	query,
	searchType string,
	page,
	perPage int,
) (SearchResults, error) {
	params := make(url.Values, 4)
	params.Set("q", query)
	if searchType != "" {
		params.Set("type", searchType)
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(perPage))
	}

	res, err := get[SearchResults](ctx, c, logger, "catalog/search", params)
	if nil != err {
		return nil, err
	}

	return *res, nil
}

func (c *Catalog) TrackStream(ctx context.Context, logger zerolog.Logger, id string) (*Stream, error) {
	return get[Stream](ctx, c, logger, "catalog/tracks/"+url.PathEscape(id)+"/stream", nil)
}

// TrackDownload resolves a download location for quality, one of "medium",
// "high" or "lossless".
func (c *Catalog) TrackDownload(ctx context.Context, logger zerolog.Logger, id, quality string) (*Download, error) {
	params := make(url.Values, 1)
	params.Set("quality", quality)

	return get[Download](ctx, c, logger, "catalog/tracks/"+url.PathEscape(id)+"/download", params)
}
