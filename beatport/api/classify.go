package api

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/xeptore/beatportdl/beatport/apierr"
	"github.com/xeptore/beatportdl/httputil"
)

// Only explicit wording counts as a territory restriction. The upstream
// service answers 403 for billing and account problems too.
var regionLockPatterns = func() []*regexp.Regexp {
	phrases := []string{
		"not available in your territory",
		"not available in your region",
		"not available in this territory",
		"not available in this region",
		"territory not allowed",
		"region not allowed",
		"geographic restrictions apply",
		"territorial restrictions apply",
		"this content is not available in your territory",
		"this content is not available in your region",
	}

	out := make([]*regexp.Regexp, 0, len(phrases)+2)
	for _, p := range phrases {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(p)+`\b`))
	}

	return append(
		out,
		regexp.MustCompile(`\bterritory\s+restricted\b`),
		regexp.MustCompile(`\bregion\s+restricted\b`),
	)
}()

const rawMessageLimit = 200

type errorFields struct {
	Detail    string
	Error     string
	ErrorCode string
	Message   string
}

func parseErrorFields(body []byte) (*errorFields, bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}

	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return nil, false
	}

	return &errorFields{
		Detail:    res.Get("detail").String(),
		Error:     res.Get("error").String(),
		ErrorCode: res.Get("error_code").String(),
		Message:   res.Get("message").String(),
	}, true
}

// first returns the first non-empty of detail, error and message.
func (f *errorFields) first(fallback string) string {
	switch {
	case f.Detail != "":
		return f.Detail
	case f.Error != "":
		return f.Error
	case f.Message != "":
		return f.Message
	default:
		return fallback
	}
}

func (f *errorFields) text() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{f.Detail, f.Error, f.Message} {
		if s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, " ")
}

func isRegionLocked(text string) bool {
	for _, re := range regionLockPatterns {
		if re.MatchString(text) {
			return true
		}
	}

	return false
}

// ClassifyForbidden maps a 403 response body to an error kind.
func ClassifyForbidden(logger zerolog.Logger, endpoint string, body []byte) *apierr.Error {
	fields, ok := parseErrorFields(body)
	if !ok {
		logger.Warn().Str("response_body", httputil.Truncate(string(body), 500)).Msg("Could not parse 403 response body")

		msg := "unable to parse error response"
		if len(body) > 0 {
			msg = httputil.Truncate(string(body), rawMessageLimit)
		}

		return apierr.New(apierr.KindGeneric, msg, http.StatusForbidden, endpoint)
	}

	logger.
		Warn().
		Str("detail", fields.Detail).
		Str("error_code", fields.ErrorCode).
		Str("error", fields.Error).
		Str("message", fields.Message).
		Msg("Access denied")

	text := strings.ToLower(fields.text())
	switch {
	case isRegionLocked(text):
		return apierr.New(apierr.KindRegionLocked, "region locked", http.StatusForbidden, endpoint)
	case strings.Contains(text, "subscription"):
		return apierr.New(apierr.KindSubscriptionRequired, "subscription required", http.StatusForbidden, endpoint)
	case strings.Contains(text, "not available") &&
		(strings.Contains(text, "download") || strings.Contains(text, "stream")):
		return apierr.New(apierr.KindContentUnavailable, "content not available", http.StatusForbidden, endpoint)
	default:
		return apierr.New(apierr.KindGeneric, fields.first("access denied (HTTP 403)"), http.StatusForbidden, endpoint)
	}
}

// ClassifyNotFound maps a 404 response body to a not-found error.
func ClassifyNotFound(logger zerolog.Logger, endpoint string, body []byte) *apierr.Error {
	fields, ok := parseErrorFields(body)
	if !ok {
		logger.Warn().Str("response_body", httputil.Truncate(string(body), 500)).Msg("Could not parse 404 response body")
		return apierr.New(apierr.KindNotFound, "not found", http.StatusNotFound, endpoint)
	}

	logger.
		Warn().
		Str("detail", fields.Detail).
		Str("error", fields.Error).
		Str("message", fields.Message).
		Msg("Not found")

	return apierr.New(apierr.KindNotFound, fields.first("not found"), http.StatusNotFound, endpoint)
}
