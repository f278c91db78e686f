package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/xeptore/beatportdl/httputil"
)

// Login runs the authorization code flow with username and password and
// replaces the session with the issued token pair.
func (a *Auth) Login(ctx context.Context, logger zerolog.Logger, creds Credentials) error {
	if creds.Blank() {
		return MissingCredentials()
	}

	location, authorizeURL, err := a.authorize(ctx, logger)
	if nil != err {
		return fmt.Errorf("request authorization: %w", err)
	}

	referer, err := resolveReferer(authorizeURL, location)
	if nil != err {
		logger.Error().Err(err).Str("location", location).Msg("Failed to resolve authorization redirect")
		return fmt.Errorf("resolve authorization redirect: %v", err)
	}

	if err := a.submitCredentials(ctx, logger, creds, referer); nil != err {
		return fmt.Errorf("submit credentials: %w", err)
	}

	location, _, err = a.authorize(ctx, logger)
	if nil != err {
		return fmt.Errorf("request authorization code: %w", err)
	}

	code, err := authorizationCode(location)
	if nil != err {
		logger.Error().Err(err).Str("location", location).Msg("Failed to extract authorization code")
		return fmt.Errorf("extract authorization code: %v", err)
	}

	if err := a.exchangeCode(ctx, logger, code); nil != err {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	logger.Info().Msg("Logged in with credentials")

	return nil
}

// authorize expects a redirect and returns its Location along with the URL
// that was requested.
func (a *Auth) authorize(ctx context.Context, logger zerolog.Logger) (location string, reqURL string, err error) {
	params := make(url.Values, 3)
	params.Add("client_id", ClientID)
	params.Add("response_type", "code")
	params.Add("redirect_uri", RedirectURI)
	reqURL = a.endpoint("auth/o/authorize/", params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to create authorize request")
		return "", "", fmt.Errorf("create authorize request: %v", err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent)

	resp, err := a.client.Do(req)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to issue authorize request")
		return "", "", fmt.Errorf("issue authorize request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			logger.Error().Err(closeErr).Msg("Failed to close response body")
			err = errors.Join(err, fmt.Errorf("close response body: %v", closeErr))
		}
	}()

	if code := resp.StatusCode; code != http.StatusFound {
		respBytes, err := httputil.ReadOptionalResponseBody(resp)
		if nil != err {
			logger.Error().Err(err).Int("status_code", code).Msg("Failed to read response body")
			return "", "", fmt.Errorf("read response body: %w", err)
		}

		logger.Error().Int("status_code", code).Bytes("response_body", respBytes).Msg("Unexpected authorize response status code")

		return "", "", transportError("auth/o/authorize/", code, respBytes)
	}

	location = resp.Header.Get("Location")
	if location == "" {
		logger.Error().Msg("Authorize redirect has no location")
		return "", "", transportError("auth/o/authorize/", resp.StatusCode, []byte("redirect without location"))
	}

	return location, reqURL, nil
}

func resolveReferer(reqURL, location string) (string, error) {
	base, err := url.Parse(reqURL)
	if nil != err {
		return "", fmt.Errorf("parse request url: %v", err)
	}

	loc, err := url.Parse(location)
	if nil != err {
		return "", fmt.Errorf("parse location: %v", err)
	}

	return base.ResolveReference(loc).String(), nil
}

func authorizationCode(location string) (string, error) {
	u, err := url.Parse(location)
	if nil != err {
		return "", fmt.Errorf("parse location: %v", err)
	}

	code := u.Query().Get("code")
	if code == "" {
		return "", errors.New("location has no code parameter")
	}

	return code, nil
}

func (a *Auth) submitCredentials(
	ctx context.Context,
	logger zerolog.Logger,
	creds Credentials,
	referer string,
) (err error) {
	reqBody, err := json.Marshal(map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	})
	if nil != err {
		return fmt.Errorf("encode login request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint("auth/login/", nil), bytes.NewReader(reqBody))
	if nil != err {
		logger.Error().Err(err).Msg("Failed to create login request")
		return fmt.Errorf("create login request: %v", err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", referer)

	resp, err := a.client.Do(req)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to issue login request")
		return fmt.Errorf("issue login request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			logger.Error().Err(closeErr).Msg("Failed to close response body")
			err = errors.Join(err, fmt.Errorf("close response body: %v", closeErr))
		}
	}()

	if code := resp.StatusCode; code != http.StatusOK {
		respBytes, err := httputil.ReadOptionalResponseBody(resp)
		if nil != err {
			logger.Error().Err(err).Int("status_code", code).Msg("Failed to read response body")
			return fmt.Errorf("read response body: %w", err)
		}

		if IsBlankCredentialsResponse(respBytes) {
			logger.Error().Msg("Login rejected blank credentials")
			return MissingCredentials()
		}

		logger.Error().Int("status_code", code).Bytes("response_body", respBytes).Msg("Unexpected login response status code")

		return transportError("auth/login/", code, respBytes)
	}

	return nil
}

// IsBlankCredentialsResponse reports whether a login rejection complains
// about both the username and the password being blank.
func IsBlankCredentialsResponse(b []byte) bool {
	if !gjson.ValidBytes(b) {
		return false
	}

	res := gjson.ParseBytes(b)
	if !res.IsObject() {
		return false
	}

	username, password := res.Get("username"), res.Get("password")
	if !username.Exists() || !password.Exists() {
		return false
	}

	return mentionsBlank(username) && mentionsBlank(password)
}

func mentionsBlank(field gjson.Result) bool {
	msgs := field.Array()
	if !field.IsArray() {
		msgs = []gjson.Result{field}
	}

	for _, msg := range msgs {
		if strings.Contains(strings.ToLower(msg.String()), "blank") {
			return true
		}
	}

	return false
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`  //nolint:gosec
	RefreshToken string `json:"refresh_token"` //nolint:gosec
	ExpiresIn    int64  `json:"expires_in"`
}

func (a *Auth) exchangeCode(ctx context.Context, logger zerolog.Logger, code string) error {
	params := make(url.Values, 4)
	params.Add("client_id", ClientID)
	params.Add("code", code)
	params.Add("grant_type", "authorization_code")
	params.Add("redirect_uri", RedirectURI)

	status, respBytes, err := a.postToken(ctx, logger, params)
	if nil != err {
		return err
	}

	if status != http.StatusOK {
		logger.Error().Int("status_code", status).Bytes("response_body", respBytes).Msg("Unexpected token response status code")
		return transportError("auth/o/token/", status, respBytes)
	}

	var respBody tokenResponse
	if err := json.Unmarshal(respBytes, &respBody); nil != err {
		logger.Error().Err(err).Bytes("response_body", respBytes).Msg("Failed to decode token response body")
		return fmt.Errorf("decode token response body: %v", err)
	}

	if err := a.store(ctx, respBody.AccessToken, respBody.RefreshToken, time.Duration(respBody.ExpiresIn)*time.Second); nil != err {
		logger.Error().Err(err).Msg("Failed to store session")
		return err
	}

	return nil
}

func (a *Auth) postToken(ctx context.Context, logger zerolog.Logger, params url.Values) (status int, body []byte, err error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		a.endpoint("auth/o/token/", nil),
		bytes.NewBufferString(params.Encode()),
	)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to create token request")
		return 0, nil, fmt.Errorf("create token request: %v", err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to issue token request")
		return 0, nil, fmt.Errorf("issue token request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			logger.Error().Err(closeErr).Msg("Failed to close response body")
			err = errors.Join(err, fmt.Errorf("close response body: %v", closeErr))
		}
	}()

	respBytes, err := httputil.ReadOptionalResponseBody(resp)
	if nil != err {
		logger.Error().Err(err).Int("status_code", resp.StatusCode).Msg("Failed to read token response body")
		return 0, nil, fmt.Errorf("read token response body: %w", err)
	}

	return resp.StatusCode, respBytes, nil
}
