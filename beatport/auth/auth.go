package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/xeptore/beatportdl/beatport/apierr"
	"github.com/xeptore/beatportdl/beatport/session"
	"github.com/xeptore/beatportdl/httputil"
)

const (
	ClientID    = "Zy2K9Wvy6DkUds7g8s1GNMHfk17E5Ch2BWHlyaGY"
	RedirectURI = "seratodjlite://beatport"

	defaultTokenLifetime = 3600 * time.Second
)

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Blank() bool {
	return strings.TrimSpace(c.Username) == "" || strings.TrimSpace(c.Password) == ""
}

// MissingCredentials is returned when login cannot proceed because the
// username or password is not configured.
func MissingCredentials() error {
	return apierr.New(
		apierr.KindConfiguration,
		"beatport credentials are missing, set beatport.username and the BEATPORT_PASSWORD environment variable",
		0,
		"",
	)
}

type Options struct {
	// APIURL and WebURL must end with a slash.
	APIURL  string
	WebURL  string
	Timeout time.Duration
}

// Auth acquires and refreshes tokens and writes them into the shared session
// state.
type Auth struct {
	apiURL string
	webURL string
	state  *session.State
	client *http.Client
}

func New(state *session.State, opts Options) (*Auth, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if nil != err {
		return nil, fmt.Errorf("create cookie jar: %v", err)
	}

	return &Auth{
		apiURL: opts.APIURL,
		webURL: opts.WebURL,
		state:  state,
		client: &http.Client{ //nolint:exhaustruct
			Jar:           jar,
			Timeout:       opts.Timeout,
			CheckRedirect: httputil.NoRedirect,
		},
	}, nil
}

func (a *Auth) State() *session.State {
	return a.state
}

func (a *Auth) endpoint(path string, params url.Values) string {
	u := a.apiURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	return u
}

func (a *Auth) store(ctx context.Context, accessToken, refreshToken string, expiresIn time.Duration) error {
	if expiresIn <= 0 {
		expiresIn = defaultTokenLifetime
	}

	sess := session.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(expiresIn),
	}
	if err := a.state.Write(ctx, sess); nil != err {
		return fmt.Errorf("checkpoint session: %w", err)
	}

	return nil
}

func transportError(endpoint string, statusCode int, body []byte) error {
	return apierr.New(apierr.KindTransport, string(body), statusCode, endpoint)
}
