package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/xeptore/beatportdl/beatport/apierr"
	"github.com/xeptore/beatportdl/httputil"
)

const nextDataScriptID = "__NEXT_DATA__"

// Anonymous scrapes the public landing page for the access token the web
// player is bootstrapped with. The resulting session has no refresh token.
func (a *Auth) Anonymous(ctx context.Context, logger zerolog.Logger) (err error) {
	logger = logger.With().Str("url", a.webURL).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.webURL, nil)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to create landing page request")
		return fmt.Errorf("create landing page request: %v", err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent)

	resp, err := a.client.Do(req)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to issue landing page request")
		return fmt.Errorf("issue landing page request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			logger.Error().Err(closeErr).Msg("Failed to close response body")
			err = errors.Join(err, fmt.Errorf("close response body: %v", closeErr))
		}
	}()

	body, err := httputil.ReadOptionalResponseBody(resp)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to read landing page")
		return fmt.Errorf("read landing page: %w", err)
	}

	if code := resp.StatusCode; code != http.StatusOK {
		logger.Error().Int("status_code", code).Msg("Unexpected landing page response status code")
		return transportError(a.webURL, code, body)
	}

	data, ok, err := ExtractNextData(body)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to parse landing page")
		return fmt.Errorf("parse landing page: %v", err)
	} else if !ok {
		logger.Error().Msg("Landing page has no embedded data script")
		return apierr.New(apierr.KindNotFound, "embedded page data not found on landing page", resp.StatusCode, a.webURL)
	}

	tok, ok := FindAccessToken(data)
	if !ok {
		logger.Error().Msg("Embedded page data has no access token")
		return apierr.New(apierr.KindNotFound, "anonymous access token not found on landing page", resp.StatusCode, a.webURL)
	}

	expiresIn := time.Duration(tok.Get("expires_in").Int()) * time.Second
	if err := a.store(ctx, tok.Get("access_token").String(), "", expiresIn); nil != err {
		logger.Error().Err(err).Msg("Failed to store anonymous session")
		return err
	}

	logger.Debug().Dur("expires_in", expiresIn).Msg("Acquired anonymous access token")

	return nil
}

// ExtractNextData returns the text of the server-rendered data script of an
// HTML page.
func ExtractNextData(page []byte) (string, bool, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if nil != err {
		return "", false, fmt.Errorf("parse html: %v", err)
	}

	stack := []*html.Node{doc}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Type == html.ElementNode && n.Data == "script" && attr(n, "id") == nextDataScriptID {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}

			return sb.String(), true, nil
		}

		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}

	return "", false, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

// FindAccessToken returns the first object, in document order, that has an
// access_token member.
func FindAccessToken(doc string) (gjson.Result, bool) {
	if !gjson.Valid(doc) {
		return gjson.Result{}, false
	}

	stack := []gjson.Result{gjson.Parse(doc)}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !n.IsObject() && !n.IsArray() {
			continue
		}

		if n.IsObject() && n.Get("access_token").Exists() {
			return n, true
		}

		var children []gjson.Result
		n.ForEach(func(_, v gjson.Result) bool {
			children = append(children, v)
			return true
		})
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return gjson.Result{}, false
}
