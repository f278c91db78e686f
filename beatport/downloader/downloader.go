package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/xeptore/beatportdl/beatport/fs"
	"github.com/xeptore/beatportdl/beatport/types"
	"github.com/xeptore/beatportdl/cache"
	"github.com/xeptore/beatportdl/httputil"
	"github.com/xeptore/beatportdl/redact"
	"github.com/xeptore/beatportdl/unit"
)

const copyBufferSize = 256 * unit.Kibibyte

var ErrUnsupportedDownloadKind = errors.New("unsupported download kind")

type Options struct {
	WebURL     string
	Timeout    time.Duration
	MaxRetries int
}

// Downloader fetches resolved track and cover URLs to disk.
type Downloader struct {
	client     *http.Client
	webURL     string
	maxRetries int
	cache      *cache.Cache
}

func New(opts Options, c *cache.Cache) *Downloader {
	return &Downloader{
		client:     &http.Client{Timeout: opts.Timeout}, //nolint:exhaustruct
		webURL:     opts.WebURL,
		maxRetries: max(opts.MaxRetries, 0),
		cache:      c,
	}
}

func (d *Downloader) backoff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(time.Second*1),
				backoff.WithMaxInterval(time.Second*30),
				backoff.WithMaxElapsedTime(time.Minute*5),
			),
			uint64(d.maxRetries), //nolint:gosec
		),
		ctx,
	)
}

// Track downloads a direct track URL into track and returns the final file
// path, whose extension is derived from the downloaded content.
func (d *Downloader) Track(ctx context.Context, logger zerolog.Logger, dl *types.TrackDownload, track fs.Track) (string, error) {
	if dl.Kind != types.DownloadKindURL {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDownloadKind, dl.Kind)
	}

	if path, ok, err := track.Find(); nil != err {
		return "", fmt.Errorf("failed to check existing track file: %v", err)
	} else if ok {
		logger.Debug().Str("path", path).Msg("Track already downloaded")
		return path, nil
	}

	err := backoff.RetryNotify(
		func() error { return d.fetchToFile(ctx, logger, dl.URL, track.PartPath()) },
		d.backoff(ctx),
		func(err error, wait time.Duration) {
			logger.Warn().Err(err).Dur("wait", wait).Msg("Track download failed, retrying")
		},
	)
	if nil != err {
		if removeErr := track.RemovePart(); nil != removeErr {
			logger.Error().Err(removeErr).Msg("Failed to remove incomplete track file")
			err = errors.Join(err, removeErr)
		}

		return "", fmt.Errorf("failed to download track: %w", err)
	}

	mime, err := mimetype.DetectFile(track.PartPath())
	if nil != err {
		logger.Error().Err(err).Msg("Failed to detect track file type")
		return "", fmt.Errorf("failed to detect track file type: %v", err)
	}

	ext := mime.Extension()
	if ext == "" {
		logger.Warn().Str("mime", mime.String()).Msg("Unknown track file type, keeping .m4a extension")
		ext = ".m4a"
	}

	path := track.Path(ext)
	if err := os.Rename(track.PartPath(), path); nil != err {
		return "", fmt.Errorf("failed to move downloaded track file: %v", err)
	}
	logger.Debug().Str("path", path).Str("mime", mime.String()).Msg("Track downloaded")

	return path, nil
}

// Cover downloads artwork into cover and returns the written file path.
func (d *Downloader) Cover(ctx context.Context, logger zerolog.Logger, info *types.CoverInfo, cover fs.Cover) (string, error) {
	if path, ok, err := cover.Find(); nil != err {
		return "", fmt.Errorf("failed to check existing cover file: %v", err)
	} else if ok {
		return path, nil
	}

	b, err := d.cache.Covers.Fetch(info.URL, cache.DefaultCoverTTL, func() ([]byte, error) {
		var b []byte
		err := backoff.RetryNotify(
			func() (err error) {
				b, err = d.fetch(ctx, logger, info.URL)
				return err
			},
			d.backoff(ctx),
			func(err error, wait time.Duration) {
				logger.Warn().Err(err).Dur("wait", wait).Msg("Cover download failed, retrying")
			},
		)

		return b, err
	})
	if nil != err {
		return "", fmt.Errorf("failed to download cover: %w", err)
	}

	ext := mimetype.Detect(b).Extension()
	if ext == "" {
		ext = "." + string(info.FileType)
	}

	path, err := cover.Write(b, ext)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to write cover file")
		return "", err
	}

	return path, nil
}

func (d *Downloader) get(ctx context.Context, logger zerolog.Logger, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to create download request")
		return nil, backoff.Permanent(fmt.Errorf("failed to create download request: %v", err))
	}
	httputil.SetBrowserHeaders(req, d.webURL)

	resp, err := d.client.Do(req)
	if nil != err {
		if errors.Is(err, context.Canceled) {
			return nil, backoff.Permanent(err)
		}

		return nil, fmt.Errorf("failed to send download request: %w", err)
	}

	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		return resp, nil
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		body, _ := httputil.ReadOptionalResponseBody(resp)
		_ = resp.Body.Close()

		return nil, fmt.Errorf("unexpected status code %d with body: %s", code, httputil.Truncate(string(body), 200))
	default:
		body, _ := httputil.ReadOptionalResponseBody(resp)
		_ = resp.Body.Close()
		logger.Error().Int("status_code", code).Str("url", redact.URL(u)).Msg("Unexpected download response status code")

		return nil, backoff.Permanent(fmt.Errorf("unexpected status code %d with body: %s", code, httputil.Truncate(string(body), 200)))
	}
}

func (d *Downloader) fetch(ctx context.Context, logger zerolog.Logger, u string) (b []byte, err error) {
	resp, err := d.get(ctx, logger, u)
	if nil != err {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close response body: %v", closeErr))
		}
	}()

	b, err = httputil.ReadResponseBody(resp)
	if nil != err {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return b, nil
}

func (d *Downloader) fetchToFile(ctx context.Context, logger zerolog.Logger, u, path string) (err error) {
	resp, err := d.get(ctx, logger, u)
	if nil != err {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close response body: %v", closeErr))
		}
	}()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if nil != err {
		return backoff.Permanent(fmt.Errorf("failed to open track file for write: %v", err))
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close track file: %v", closeErr))
		}
	}()

	n, err := io.CopyBuffer(f, resp.Body, make([]byte, copyBufferSize))
	if nil != err {
		return fmt.Errorf("failed to write track file: %w", err)
	}

	if resp.ContentLength > 0 && n != resp.ContentLength {
		return fmt.Errorf("%w: got %d of %d bytes", io.ErrUnexpectedEOF, n, resp.ContentLength)
	}
	logger.Debug().Int64("bytes", n).Stringer("size", unit.Size(n)).Msg("Fetched track file")

	return nil
}
