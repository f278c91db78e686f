package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// RefreshRejection is what the token endpoint answered when it refused a
// refresh token.
type RefreshRejection struct {
	StatusCode int
	Body       []byte
}

func (r *RefreshRejection) ErrorCode() string {
	return gjson.GetBytes(r.Body, "error").String()
}

func (r *RefreshRejection) InvalidGrant() bool {
	return r.ErrorCode() == "invalid_grant"
}

func (r *RefreshRejection) String() string {
	return fmt.Sprintf("refresh rejected with status %d: %s", r.StatusCode, r.Body)
}

// Refresh exchanges the stored refresh token for a new token pair. A refusal
// by the token endpoint is reported through the returned rejection and leaves
// the session untouched. The returned error is reserved for failures to talk
// to the endpoint at all.
func (a *Auth) Refresh(ctx context.Context, logger zerolog.Logger) (*RefreshRejection, error) {
	refreshToken := a.state.Read().RefreshToken

	params := make(url.Values, 3)
	params.Add("client_id", ClientID)
	params.Add("refresh_token", refreshToken)
	params.Add("grant_type", "refresh_token")

	status, respBytes, err := a.postToken(ctx, logger, params)
	if nil != err {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	if status != http.StatusOK {
		rejection := &RefreshRejection{StatusCode: status, Body: respBytes}
		logger.Warn().Int("status_code", status).Str("error", rejection.ErrorCode()).Msg("Token refresh rejected")

		return rejection, nil
	}

	var respBody tokenResponse
	if err := json.Unmarshal(respBytes, &respBody); nil != err {
		logger.Error().Err(err).Bytes("response_body", respBytes).Msg("Failed to decode refresh response body")
		return nil, fmt.Errorf("decode refresh response body: %v", err)
	}

	if err := a.store(ctx, respBody.AccessToken, respBody.RefreshToken, time.Duration(respBody.ExpiresIn)*time.Second); nil != err {
		logger.Error().Err(err).Msg("Failed to store refreshed session")
		return nil, err
	}

	logger.Debug().Msg("Refreshed access token")

	return nil, nil
}
