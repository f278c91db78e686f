package beatport

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xeptore/beatportdl/beatport/apierr"
	"github.com/xeptore/beatportdl/beatport/catalog"
	"github.com/xeptore/beatportdl/beatport/mapper"
	"github.com/xeptore/beatportdl/beatport/paging"
	"github.com/xeptore/beatportdl/beatport/types"
	"github.com/xeptore/beatportdl/cache"
)

func (c *Client) track(ctx context.Context, logger zerolog.Logger, id string) (*catalog.Track, error) {
	return c.cache.Tracks.Fetch(id, cache.DefaultTrackTTL, func() (*catalog.Track, error) {
		return c.catalog.Track(ctx, logger, id)
	})
}

func (c *Client) release(ctx context.Context, logger zerolog.Logger, id string) (*catalog.Release, error) {
	return c.cache.Releases.Fetch(id, cache.DefaultReleaseTTL, func() (*catalog.Release, error) {
		return c.catalog.Release(ctx, logger, id)
	})
}

func (c *Client) seedTracks(tracks []catalog.Track) {
	for i := range tracks {
		c.cache.Tracks.Set(mapper.ID(tracks[i].ID), &tracks[i], cache.DefaultTrackTTL)
	}
}

// TrackInfo describes a track at the download quality q resolves to for the
// current account. A track that exists but cannot be downloaded is returned
// with its Error field set.
func (c *Client) TrackInfo(ctx context.Context, logger zerolog.Logger, id string, q types.Quality) (*types.TrackInfo, error) {
	logger = logger.With().Str("track_id", id).Logger()

	t, err := c.track(ctx, logger, id)
	if nil != err {
		return nil, fmt.Errorf("get track: %w", err)
	}

	var (
		release    *catalog.Release
		releaseErr string
	)
	if nil != t.Release {
		releaseID := mapper.ID(t.Release.ID)
		release, err = c.release(ctx, logger, releaseID)
		switch {
		case nil == err:
		case apierr.KindOf(err) == apierr.KindRegionLocked:
			logger.Warn().Err(err).Str("album_id", releaseID).Msg("Album of track is region locked")
			releaseErr = fmt.Sprintf("album %s is region locked", releaseID)
		case Degradable(err):
			logger.Warn().Err(err).Str("album_id", releaseID).Msg("Album of track is unavailable")
			releaseErr = fmt.Sprintf("album %s is unavailable: %v", releaseID, err)
		default:
			return nil, fmt.Errorf("get album: %w", err)
		}
	}

	info := mapper.Track(t, release, c.qualities.Format(q), c.coverSize)
	if info.Error == "" {
		info.Error = releaseErr
	}

	return info, nil
}

// AlbumInfo lists an album with all of its tracks. The listed tracks are
// numbered by position and cached for subsequent TrackInfo calls.
func (c *Client) AlbumInfo(ctx context.Context, logger zerolog.Logger, id string) (*types.AlbumInfo, error) {
	logger = logger.With().Str("album_id", id).Logger()

	release, err := c.release(ctx, logger, id)
	if nil != err {
		logger.Warn().Err(err).Msg("Failed to get album")
		return nil, fmt.Errorf("get album: %w", err)
	}

	res, err := paging.CollectAll(ctx, logger, paging.MaxPageSize, func(ctx context.Context, page, perPage int) (*paging.Page[catalog.Track], error) {
		return c.catalog.ReleaseTracks(ctx, logger, id, page, perPage)
	})
	if nil != err {
		return nil, fmt.Errorf("get album tracks: %w", err)
	}

	for i := range res.Items {
		res.Items[i].Number = i + 1
	}
	c.seedTracks(res.Items)

	info := mapper.Album(release, res.Items, c.coverSize)
	info.Partial = res.Mismatch()

	return info, nil
}

// PlaylistInfo lists a user playlist, or a DJ chart when isChart is set.
func (c *Client) PlaylistInfo(ctx context.Context, logger zerolog.Logger, id string, isChart bool) (*types.PlaylistInfo, error) {
	logger = logger.With().Str("playlist_id", id).Bool("is_chart", isChart).Logger()

	if isChart {
		chart, err := c.catalog.Chart(ctx, logger, id)
		if nil != err {
			return nil, fmt.Errorf("get chart: %w", err)
		}

		res, err := paging.CollectAll(ctx, logger, paging.MaxPageSize, func(ctx context.Context, page, perPage int) (*paging.Page[catalog.Track], error) {
			return c.catalog.ChartTracks(ctx, logger, id, page, perPage)
		})
		if nil != err {
			return nil, fmt.Errorf("get chart tracks: %w", err)
		}
		c.seedTracks(res.Items)

		info := mapper.Chart(logger, chart, res.Items, c.coverSize)
		info.Partial = res.Mismatch()

		return info, nil
	}

	playlist, err := c.catalog.Playlist(ctx, logger, id)
	if nil != err {
		return nil, fmt.Errorf("get playlist: %w", err)
	}

	res, err := paging.CollectAll(ctx, logger, paging.MaxPageSize, func(ctx context.Context, page, perPage int) (*paging.Page[catalog.PlaylistItem], error) {
		return c.catalog.PlaylistTracks(ctx, logger, id, page, perPage)
	})
	if nil != err {
		return nil, fmt.Errorf("get playlist tracks: %w", err)
	}

	for _, item := range res.Items {
		if nil != item.Track {
			c.cache.Tracks.Set(mapper.ID(item.Track.ID), item.Track, cache.DefaultTrackTTL)
		}
	}

	info := mapper.Playlist(logger, playlist, res.Items, c.coverSize)
	info.Partial = res.Mismatch()

	return info, nil
}

func (c *Client) ArtistInfo(ctx context.Context, logger zerolog.Logger, id string) (*types.ArtistInfo, error) {
	logger = logger.With().Str("artist_id", id).Logger()

	artist, err := c.catalog.Artist(ctx, logger, id)
	if nil != err {
		return nil, fmt.Errorf("get artist: %w", err)
	}

	res, err := paging.CollectAll(ctx, logger, paging.MaxPageSize, func(ctx context.Context, page, perPage int) (*paging.Page[catalog.Track], error) {
		return c.catalog.ArtistTracks(ctx, logger, id, page, perPage)
	})
	if nil != err {
		return nil, fmt.Errorf("get artist tracks: %w", err)
	}
	c.seedTracks(res.Items)

	info := mapper.Artist(artist, res.Items)
	info.Partial = res.Mismatch()

	return info, nil
}

func (c *Client) LabelInfo(ctx context.Context, logger zerolog.Logger, id string) (*types.LabelInfo, error) {
	logger = logger.With().Str("label_id", id).Logger()

	label, err := c.catalog.Label(ctx, logger, id)
	if nil != err {
		return nil, fmt.Errorf("get label: %w", err)
	}

	releases, err := paging.CollectAll(ctx, logger, paging.MaxPageSize, func(ctx context.Context, page, perPage int) (*paging.Page[catalog.Release], error) {
		return c.catalog.LabelReleases(ctx, logger, id, page, perPage)
	})
	if nil != err {
		return nil, fmt.Errorf("get label releases: %w", err)
	}

	tracks, err := paging.CollectAll(ctx, logger, paging.MaxPageSize, func(ctx context.Context, page, perPage int) (*paging.Page[catalog.Track], error) {
		return c.catalog.LabelTracks(ctx, logger, id, page, perPage)
	})
	if nil != err {
		return nil, fmt.Errorf("get label tracks: %w", err)
	}
	c.seedTracks(tracks.Items)

	info := mapper.Label(label, releases.Items, tracks.Items)
	info.Partial = releases.Mismatch() || tracks.Mismatch()

	return info, nil
}
