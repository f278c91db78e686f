package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/beatportdl/beatport"
	"github.com/xeptore/beatportdl/beatport/downloader"
	"github.com/xeptore/beatportdl/beatport/fs"
	"github.com/xeptore/beatportdl/beatport/types"
	"github.com/xeptore/beatportdl/cache"
	"github.com/xeptore/beatportdl/config"
	"github.com/xeptore/beatportdl/ratelimit"
)

type downloads struct {
	client      *beatport.Client
	dl          *downloader.Downloader
	dir         fs.DownloadDir
	coverSize   int
	concurrency int
}

func newDownloads(conf *config.Config, c *beatport.Client) (*downloads, error) {
	dir := fs.DownloadDirFrom(conf.Download.Dir)
	if err := os.MkdirAll(conf.Download.Dir, 0o0755); nil != err {
		return nil, fmt.Errorf("create download directory: %v", err)
	}

	dl := downloader.New(
		downloader.Options{
			WebURL:     conf.Beatport.WebURL,
			Timeout:    time.Duration(conf.Beatport.Timeouts.Download) * time.Second,
			MaxRetries: conf.Download.MaxRetries,
		},
		cache.New(),
	)

	return &downloads{
		client:      c,
		dl:          dl,
		dir:         dir,
		coverSize:   conf.Beatport.CoverSize,
		concurrency: conf.Download.Concurrency,
	}, nil
}

func (d *downloads) link(ctx context.Context, logger zerolog.Logger, link types.Link, q types.Quality) error {
	if link.Kind == types.LinkKindTrack {
		return d.track(ctx, logger, link.ID, q, d.dir.Single(link.ID))
	}

	var (
		info     any
		trackIDs []string
	)
	switch link.Kind {
	case types.LinkKindAlbum:
		album, err := d.client.AlbumInfo(ctx, logger, link.ID)
		if nil != err {
			return err
		}
		info, trackIDs = album, album.TrackIDs
	case types.LinkKindPlaylist:
		playlist, err := d.client.PlaylistInfo(ctx, logger, link.ID, link.IsChart)
		if nil != err {
			return err
		}
		info, trackIDs = playlist, playlist.TrackIDs
	case types.LinkKindArtist:
		artist, err := d.client.ArtistInfo(ctx, logger, link.ID)
		if nil != err {
			return err
		}
		info, trackIDs = artist, artist.TrackIDs
	case types.LinkKindLabel:
		label, err := d.client.LabelInfo(ctx, logger, link.ID)
		if nil != err {
			return err
		}
		info, trackIDs = label, label.TrackIDs
	default:
		panic("unexpected link kind: " + link.Kind.String())
	}

	coll := d.dir.Collection(link.Kind, link.ID)
	if err := coll.Create(); nil != err {
		return err
	}
	if err := coll.Info.Write(info); nil != err {
		return fmt.Errorf("write %s info file: %v", link.Kind, err)
	}

	logger.Info().Int("tracks", len(trackIDs)).Msg("Downloading collection")

	wg, wgctx := errgroup.WithContext(ctx)
	wg.SetLimit(d.concurrency)
loop:
	for i, id := range trackIDs {
		if i > 0 {
			select {
			case <-wgctx.Done():
				break loop
			case <-time.After(ratelimit.TrackDownloadPause()):
			}
		}

		wg.Go(func() error {
			logger := logger.With().Str("track_id", id).Int("track_index", i).Logger()
			if err := d.track(wgctx, logger, id, q, coll.Track(id)); nil != err {
				if beatport.Degradable(err) {
					logger.Warn().Err(err).Msg("Skipping unavailable track")
					return nil
				}

				return fmt.Errorf("download track %s: %w", id, err)
			}

			return nil
		})
	}

	if err := wg.Wait(); nil != err {
		return err
	}
	logger.Info().Msg("Collection downloaded")

	return nil
}

func (d *downloads) track(ctx context.Context, logger zerolog.Logger, id string, q types.Quality, track fs.Track) error {
	info, err := d.client.TrackInfo(ctx, logger, id, q)
	if nil != err {
		return fmt.Errorf("get track info: %w", err)
	}

	if info.Error != "" {
		logger.Warn().Str("reason", info.Error).Msg("Track is not downloadable")
		return nil
	}

	dl, err := d.client.TrackDownload(ctx, logger, id, q)
	if nil != err {
		return fmt.Errorf("get track download: %w", err)
	}

	path, err := d.dl.Track(ctx, logger, dl, track)
	if nil != err {
		return err
	}

	if err := d.cover(ctx, logger, id, track.Cover); nil != err {
		if errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn().Err(err).Msg("Failed to download track cover")
	}

	if err := track.Info.Write(info); nil != err {
		return fmt.Errorf("write track info file: %v", err)
	}

	logger.Info().Dict("track", info.ToDict()).Str("path", path).Msg("Track downloaded")

	return nil
}

func (d *downloads) cover(ctx context.Context, logger zerolog.Logger, id string, cover fs.Cover) error {
	info, err := d.client.TrackCover(ctx, logger, id, d.coverSize)
	if nil != err {
		return fmt.Errorf("get track cover: %w", err)
	}

	if _, err := d.dl.Cover(ctx, logger, info, cover); nil != err {
		return err
	}

	return nil
}
