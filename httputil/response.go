package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"
)

func readResponseBody(resp *http.Response) ([]byte, error) {
	respBody, err := io.ReadAll(resp.Body)
	if nil != err {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return respBody, nil
}

func ReadResponseBody(resp *http.Response) ([]byte, error) {
	respBody, err := readResponseBody(resp)
	if nil != err {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected empty response body")
		}

		return nil, err
	}

	return respBody, nil
}

func ReadOptionalResponseBody(resp *http.Response) ([]byte, error) {
	respBody, err := readResponseBody(resp)
	if nil != err && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return respBody, nil
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}
