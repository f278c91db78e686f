package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/xeptore/beatportdl/beatport/apierr"
	"github.com/xeptore/beatportdl/beatport/auth"
	"github.com/xeptore/beatportdl/beatport/session"
	"github.com/xeptore/beatportdl/httputil"
)

var errTokenReacquired = errors.New("access token reacquired")

type Authenticator interface {
	Anonymous(ctx context.Context, logger zerolog.Logger) error
	Refresh(ctx context.Context, logger zerolog.Logger) (*auth.RefreshRejection, error)
}

type Options struct {
	// APIURL and WebURL must end with a slash.
	APIURL  string
	WebURL  string
	Timeout time.Duration
	Limiter *rate.Limiter
}

// Client issues authenticated catalog requests. A 401 triggers one token
// re-acquisition followed by one retry of the request.
type Client struct {
	apiURL  string
	webURL  string
	state   *session.State
	auth    Authenticator
	client  *http.Client
	limiter *rate.Limiter
	reauth  singleflight.Group
}

func New(state *session.State, authenticator Authenticator, opts Options) *Client {
	limiter := opts.Limiter
	if nil == limiter {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	return &Client{
		apiURL:  opts.APIURL,
		webURL:  opts.WebURL,
		state:   state,
		auth:    authenticator,
		client:  &http.Client{Timeout: opts.Timeout}, //nolint:exhaustruct
		limiter: limiter,
		reauth:  singleflight.Group{},
	}
}

// Get returns the JSON body of a successful response.
func (c *Client) Get(ctx context.Context, logger zerolog.Logger, endpoint string, params url.Values) ([]byte, error) {
	logger = logger.With().Str("endpoint", endpoint).Logger()

	var (
		body    []byte
		attempt int
	)
	err := retry.Do(
		ctx,
		retry.WithMaxRetries(1, retry.NewConstant(1*time.Millisecond)),
		func(ctx context.Context) error {
			attempt++
			token := c.state.Read().AccessToken

			status, respBody, err := c.do(ctx, logger, endpoint, params, token)
			if nil != err {
				return err
			}

			if status == http.StatusUnauthorized {
				if attempt > 1 {
					logger.Error().Bytes("response_body", respBody).Msg("Still unauthorized after token re-acquisition")
					return apierr.New(apierr.KindUnauthorized, "authentication failed after retry: "+string(respBody), status, endpoint)
				}

				if err := c.reacquire(ctx, logger, endpoint, token); nil != err {
					return err
				}

				return retry.RetryableError(errTokenReacquired)
			}

			body, err = c.check(logger, endpoint, status, respBody)

			return err
		},
	)
	if nil != err {
		return nil, err
	}

	return body, nil
}

func (c *Client) check(logger zerolog.Logger, endpoint string, status int, body []byte) ([]byte, error) {
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		if !gjson.ValidBytes(body) {
			logger.Error().Str("response_body", httputil.Truncate(string(body), 500)).Msg("Response body is not valid JSON")
			return nil, apierr.New(apierr.KindTransport, "invalid JSON response", status, endpoint)
		}

		return body, nil
	case http.StatusForbidden:
		return nil, ClassifyForbidden(logger, endpoint, body)
	case http.StatusNotFound:
		return nil, ClassifyNotFound(logger, endpoint, body)
	default:
		logger.Error().Int("status_code", status).Bytes("response_body", body).Msg("Unexpected response status code")
		return nil, apierr.New(apierr.KindTransport, string(body), status, endpoint)
	}
}

// reacquire replaces staleToken. Concurrent callers holding the same stale
// token share one re-acquisition.
func (c *Client) reacquire(ctx context.Context, logger zerolog.Logger, endpoint, staleToken string) error {
	_, err, _ := c.reauth.Do("reauth", func() (any, error) {
		current := c.state.Read()
		if current.AccessToken != staleToken {
			return nil, nil //nolint:nilnil
		}

		if current.IsAnonymous() {
			logger.Debug().Msg("Re-acquiring anonymous access token")
			if err := c.auth.Anonymous(ctx, logger); nil != err {
				return nil, fmt.Errorf("acquire anonymous token: %w", err)
			}

			return nil, nil //nolint:nilnil
		}

		logger.Debug().Msg("Refreshing access token")
		rejection, err := c.auth.Refresh(ctx, logger)
		if nil != err {
			return nil, fmt.Errorf("refresh access token: %w", err)
		}

		if nil != rejection {
			return nil, apierr.New(
				apierr.KindUnauthorized,
				"token refresh failed: "+string(rejection.Body),
				rejection.StatusCode,
				endpoint,
			)
		}

		return nil, nil //nolint:nilnil
	})

	return err
}

func (c *Client) do(
	ctx context.Context,
	logger zerolog.Logger,
	endpoint string,
	params url.Values,
	token string,
) (status int, body []byte, err error) {
	if err := c.limiter.Wait(ctx); nil != err {
		return 0, nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	reqURL := c.apiURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to create request")
		return 0, nil, fmt.Errorf("create request: %v", err)
	}

	httputil.SetBrowserHeaders(req, c.webURL)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to issue request")
		return 0, nil, fmt.Errorf("issue request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			logger.Error().Err(closeErr).Msg("Failed to close response body")
			err = errors.Join(err, fmt.Errorf("close response body: %v", closeErr))
		}
	}()

	respBody, err := httputil.ReadOptionalResponseBody(resp)
	if nil != err {
		logger.Error().Err(err).Int("status_code", resp.StatusCode).Msg("Failed to read response body")
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
