package beatport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/xeptore/beatportdl/beatport/api"
	"github.com/xeptore/beatportdl/beatport/apierr"
	"github.com/xeptore/beatportdl/beatport/auth"
	"github.com/xeptore/beatportdl/beatport/catalog"
	"github.com/xeptore/beatportdl/beatport/mapper"
	"github.com/xeptore/beatportdl/beatport/session"
	"github.com/xeptore/beatportdl/cache"
	"github.com/xeptore/beatportdl/config"
	"github.com/xeptore/beatportdl/ratelimit"
)

type Options struct {
	Credentials auth.Credentials
	// Anonymous bootstraps with the landing page token when no credentials
	// are configured.
	Anonymous bool
	// APIURL and WebURL must end with a slash.
	APIURL             string
	WebURL             string
	SubscriptionCheck  bool
	ValidateStreamURL  bool
	CoverSize          int
	RatePerSecond      float64
	RateBurst          int
	AuthTimeout        time.Duration
	CatalogTimeout     time.Duration
	StreamCheckTimeout time.Duration
}

func OptionsFromConfig(conf config.Beatport) Options {
	return Options{
		Credentials: auth.Credentials{
			Username: conf.Username,
			Password: conf.Password,
		},
		Anonymous:          conf.Anonymous,
		APIURL:             conf.APIURL,
		WebURL:             conf.WebURL,
		SubscriptionCheck:  conf.ShouldCheckSubscription(),
		ValidateStreamURL:  conf.ShouldValidateStreamURL(),
		CoverSize:          conf.CoverSize,
		RatePerSecond:      conf.RateLimit.PerSecond,
		RateBurst:          conf.RateLimit.Burst,
		AuthTimeout:        time.Duration(conf.Timeouts.Auth) * time.Second,
		CatalogTimeout:     time.Duration(conf.Timeouts.Catalog) * time.Second,
		StreamCheckTimeout: time.Duration(conf.Timeouts.StreamCheck) * time.Second,
	}
}

// Client is a ready to use, authenticated Beatport session. All operations
// may be called concurrently.
type Client struct {
	auth              *auth.Auth
	state             *session.State
	catalog           *catalog.Catalog
	cache             *cache.Cache
	qualities         mapper.QualityMap
	coverSize         int
	subscriptionCheck bool
	validateStream    bool
	streamCheck       *http.Client
	webURL            string
}

// New restores the session persisted in store and brings it to a usable
// state, logging in, refreshing or scraping an anonymous token as needed.
func New(ctx context.Context, logger zerolog.Logger, store session.Store, opts Options) (*Client, error) {
	state, err := session.Restore(ctx, store)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to restore session")
		return nil, fmt.Errorf("restore session: %w", err)
	}
	logger.Debug().Dict("session", state.Read().ToDict()).Msg("Session restored")

	a, err := auth.New(state, auth.Options{
		APIURL:  opts.APIURL,
		WebURL:  opts.WebURL,
		Timeout: opts.AuthTimeout,
	})
	if nil != err {
		return nil, fmt.Errorf("create authenticator: %v", err)
	}

	dispatcher := api.New(state, a, api.Options{
		APIURL:  opts.APIURL,
		WebURL:  opts.WebURL,
		Timeout: opts.CatalogTimeout,
		Limiter: ratelimit.NewCatalogLimiter(opts.RatePerSecond, opts.RateBurst),
	})

	c := &Client{
		auth:              a,
		state:             state,
		catalog:           catalog.New(dispatcher),
		cache:             cache.New(),
		qualities:         mapper.DefaultQualities(),
		coverSize:         opts.CoverSize,
		subscriptionCheck: opts.SubscriptionCheck,
		validateStream:    opts.ValidateStreamURL,
		streamCheck:       &http.Client{Timeout: opts.StreamCheckTimeout}, //nolint:exhaustruct
		webURL:            opts.WebURL,
	}
	if c.coverSize <= 0 {
		c.coverSize = mapper.MaxCoverSize
	}

	if err := c.bootstrap(ctx, logger, opts); nil != err {
		return nil, err
	}

	return c, nil
}

func (c *Client) bootstrap(ctx context.Context, logger zerolog.Logger, opts Options) error {
	sess := c.state.Read()

	switch {
	case sess.RefreshToken == "":
		if opts.Anonymous && opts.Credentials.Blank() {
			logger.Debug().Msg("No session found, acquiring anonymous access token")
			if err := c.auth.Anonymous(ctx, logger); nil != err {
				return fmt.Errorf("acquire anonymous token: %w", err)
			}

			return nil
		}

		logger.Debug().Msg("No session found, logging in")
		if err := c.auth.Login(ctx, logger, opts.Credentials); nil != err {
			return fmt.Errorf("login: %w", err)
		}
	case sess.IsExpired(time.Now()):
		logger.Debug().Time("expired_at", sess.ExpiresAt).Msg("Access token expired, refreshing")
		rejection, err := c.auth.Refresh(ctx, logger)
		if nil != err {
			return fmt.Errorf("refresh access token: %w", err)
		}

		if nil != rejection {
			if !rejection.InvalidGrant() {
				// The next catalog request answers 401 and refreshes again.
				logger.Warn().Str("rejection", rejection.String()).Msg("Token refresh rejected, continuing with stale session")
				break
			}

			logger.Info().Msg("Refresh token is no longer valid, logging in again")
			if err := c.auth.Login(ctx, logger, opts.Credentials); nil != err {
				return fmt.Errorf("login: %w", err)
			}
		}
	}

	return c.checkSubscription(ctx, logger)
}

// Login replaces the current session with a fresh credential login.
func (c *Client) Login(ctx context.Context, logger zerolog.Logger, creds auth.Credentials) error {
	if err := c.auth.Login(ctx, logger, creds); nil != err {
		return fmt.Errorf("login: %w", err)
	}

	return c.checkSubscription(ctx, logger)
}

// Session returns a copy of the current session.
func (c *Client) Session() session.Session {
	return c.state.Read()
}

func (c *Client) checkSubscription(ctx context.Context, logger zerolog.Logger) error {
	if !c.subscriptionCheck {
		return nil
	}

	if c.state.Read().IsAnonymous() {
		logger.Debug().Msg("Skipping subscription check of anonymous session")
		return nil
	}

	account, err := c.catalog.Account(ctx, logger)
	if nil != err {
		return fmt.Errorf("check subscription: %w", err)
	}

	if account.Subscription == "" {
		logger.Error().Str("username", account.Username).Msg("Account does not have an active subscription")
		return apierr.New(apierr.KindSubscriptionRequired, "account does not have an active subscription", 0, "auth/o/introspect")
	}

	c.qualities = mapper.QualitiesFor(account.Subscription)
	if account.Subscription == mapper.SubscriptionPro {
		logger.Info().Msg("Professional subscription detected, allowing high and lossless quality")
	}

	return nil
}

// Degradable reports whether err is a classified upstream refusal concerning
// a single item rather than a failure of the session or the transport.
// Callers iterating over a collection log and skip such items.
func Degradable(err error) bool {
	switch apierr.KindOf(err) {
	case apierr.KindRegionLocked,
		apierr.KindSubscriptionRequired,
		apierr.KindContentUnavailable,
		apierr.KindNotFound,
		apierr.KindGeneric:
		return true
	default:
		return false
	}
}
