package beatport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/xeptore/beatportdl/beatport/apierr"
	"github.com/xeptore/beatportdl/beatport/mapper"
	"github.com/xeptore/beatportdl/beatport/types"
	"github.com/xeptore/beatportdl/httputil"
)

// TrackDownload resolves the file URL of a track at the download quality q
// resolves to for the current account.
func (c *Client) TrackDownload(ctx context.Context, logger zerolog.Logger, id string, q types.Quality) (*types.TrackDownload, error) {
	format := c.qualities.Format(q)
	logger = logger.With().Str("track_id", id).Str("quality", format).Logger()

	dl, err := c.catalog.TrackDownload(ctx, logger, id, format)
	if nil != err {
		return nil, fmt.Errorf("get track download: %w", err)
	}

	endpoint := "catalog/tracks/" + id + "/download"
	if dl.Location == "" {
		logger.Error().Msg("Download response has no location")
		return nil, apierr.New(apierr.KindContentUnavailable, "could not resolve a download location", 0, endpoint)
	}

	if err := c.checkStream(ctx, logger, endpoint, dl.Location); nil != err {
		return nil, err
	}

	return &types.TrackDownload{Kind: types.DownloadKindURL, URL: dl.Location}, nil
}

// TrackStream resolves the HLS playlist URL of a track.
func (c *Client) TrackStream(ctx context.Context, logger zerolog.Logger, id string) (*types.TrackDownload, error) {
	logger = logger.With().Str("track_id", id).Logger()

	stream, err := c.catalog.TrackStream(ctx, logger, id)
	if nil != err {
		return nil, fmt.Errorf("get track stream: %w", err)
	}

	endpoint := "catalog/tracks/" + id + "/stream"
	if stream.StreamURL == "" {
		logger.Error().Msg("Stream response has no stream url")
		return nil, apierr.New(apierr.KindContentUnavailable, "could not resolve a stream url", 0, endpoint)
	}

	if err := c.checkStream(ctx, logger, endpoint, stream.StreamURL); nil != err {
		return nil, err
	}

	return &types.TrackDownload{Kind: types.DownloadKindHLS, URL: stream.StreamURL}, nil
}

func (c *Client) TrackCover(ctx context.Context, logger zerolog.Logger, id string, size int) (*types.CoverInfo, error) {
	logger = logger.With().Str("track_id", id).Logger()

	t, err := c.track(ctx, logger, id)
	if nil != err {
		return nil, fmt.Errorf("get track: %w", err)
	}

	var uri string
	if nil != t.Release {
		uri = t.Release.Image.Template()
	}
	if uri == "" {
		return nil, apierr.New(apierr.KindNotFound, "track has no artwork", 0, "catalog/tracks/"+id)
	}

	if size <= 0 {
		size = c.coverSize
	}

	return &types.CoverInfo{
		URL:      mapper.ArtworkURL(uri, size),
		FileType: types.ImageFileTypeJPG,
	}, nil
}

// checkStream probes a resolved URL with a bounded HEAD request. Only a
// definite refusal fails the check; network errors are logged and the URL is
// handed out anyway.
func (c *Client) checkStream(ctx context.Context, logger zerolog.Logger, endpoint, u string) (err error) {
	if !c.validateStream {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to create stream check request")
		return fmt.Errorf("create stream check request: %v", err)
	}
	httputil.SetBrowserHeaders(req, c.webURL)

	resp, err := c.streamCheck.Do(req)
	if nil != err {
		if errors.Is(err, context.Canceled) {
			return err
		}

		logger.Warn().Err(err).Msg("Stream check failed, skipping validation")
		return nil
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			logger.Error().Err(closeErr).Msg("Failed to close response body")
			err = errors.Join(err, fmt.Errorf("close response body: %v", closeErr))
		}
	}()

	switch code := resp.StatusCode; code {
	case http.StatusForbidden, http.StatusNotFound, http.StatusGone:
		logger.Error().Int("status_code", code).Msg("Resolved stream url is not accessible")
		return apierr.New(apierr.KindContentUnavailable, "resolved stream url is not accessible", code, endpoint)
	default:
		logger.Debug().Int("status_code", code).Msg("Stream check passed")
		return nil
	}
}
