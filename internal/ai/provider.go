package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies a provider failure.
type Kind string

const (
	KindNone              Kind = "none"
	KindNetwork           Kind = "network"
	KindTimeout           Kind = "timeout"
	KindRateLimited       Kind = "rate_limited"
	KindAuth              Kind = "auth"
	KindMalformedResponse Kind = "malformed_response"
	KindSchemaInvalid     Kind = "schema_invalid"
	KindUnknown           Kind = "unknown"
)

// Options tune a single generation request.
type Options struct {
	MaxOutputTokens int
	Temperature     float64
}

// Gateway sends a rendered prompt to a text generation endpoint.
// Implementations must return a *ProviderError on every failure, including
// empty bodies and non-2xx outcomes.
type Gateway interface {
	Send(ctx context.Context, prompt string, opts Options) (string, error)
	Name() string
	Model() string
}

// ProviderError is a classified gateway, extraction or validation failure.
type ProviderError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewError builds a ProviderError of the given kind.
func NewError(kind Kind, message string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind carried by err. Nil maps to KindNone and errors
// that were never classified map to KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		if perr == nil {
			return KindNone
		}
		return perr.Kind
	}
	return KindUnknown
}

// Classify converts transport level errors into a ProviderError. Errors that
// are already classified are returned unchanged.
func Classify(err error) *ProviderError {
	if err == nil {
		return nil
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, "request deadline exceeded", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewError(KindTimeout, netErr.Error(), err)
		}
		return NewError(KindNetwork, netErr.Error(), err)
	}

	if errors.Is(err, context.Canceled) {
		return NewError(KindNetwork, "request canceled", err)
	}

	return NewError(KindUnknown, err.Error(), err)
}

// ClassifyStatus maps an HTTP status code of a failed call to a kind.
func ClassifyStatus(code int) Kind {
	switch {
	case code == 401 || code == 403:
		return KindAuth
	case code == 429:
		return KindRateLimited
	case code == 408 || code == 504:
		return KindTimeout
	case code >= 500:
		return KindNetwork
	default:
		return KindUnknown
	}
}
