// Package apierr holds the error taxonomy surfaced by the Beatport client.
package apierr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindTransport Kind = iota + 1
	KindUnauthorized
	KindRegionLocked
	KindSubscriptionRequired
	KindContentUnavailable
	KindNotFound
	KindGeneric
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindRegionLocked:
		return "region_locked"
	case KindSubscriptionRequired:
		return "subscription_required"
	case KindContentUnavailable:
		return "content_unavailable"
	case KindNotFound:
		return "not_found"
	case KindGeneric:
		return "api_error"
	case KindConfiguration:
		return "configuration"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrTransport            = &Error{Kind: KindTransport}            //nolint:exhaustruct
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}         //nolint:exhaustruct
	ErrRegionLocked         = &Error{Kind: KindRegionLocked}         //nolint:exhaustruct
	ErrSubscriptionRequired = &Error{Kind: KindSubscriptionRequired} //nolint:exhaustruct
	ErrContentUnavailable   = &Error{Kind: KindContentUnavailable}   //nolint:exhaustruct
	ErrNotFound             = &Error{Kind: KindNotFound}             //nolint:exhaustruct
	ErrGeneric              = &Error{Kind: KindGeneric}              //nolint:exhaustruct
	ErrConfiguration        = &Error{Kind: KindConfiguration}        //nolint:exhaustruct
)

type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Endpoint   string
}

func New(kind Kind, msg string, statusCode int, endpoint string) *Error {
	return &Error{
		Kind:       kind,
		Message:    msg,
		StatusCode: statusCode,
		Endpoint:   endpoint,
	}
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Endpoint != "":
		return fmt.Sprintf("%s: %s (HTTP %d, %s)", e.Kind, e.Message, e.StatusCode, e.Endpoint)
	case e.Endpoint != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Endpoint)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or zero.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}
