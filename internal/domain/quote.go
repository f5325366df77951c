package domain

import (
	"context"
	"errors"
	"time"
)

type SymbolQuote struct {
	Symbol        string
	Price         float64
	PreviousClose float64
	Currency      string
	AsOf          time.Time
}

type FailureKind string

const (
	FailureProviderUnavailable     FailureKind = "provider_unavailable"
	FailureProviderInvalidResponse FailureKind = "provider_invalid_response"
	FailureTimeout                 FailureKind = "timeout"
	FailureDeadlineExceeded        FailureKind = "deadline_exceeded"
	FailureCanceled                FailureKind = "canceled"
)

type FailureReason struct {
	Kind    FailureKind
	Message string
}

// ClassifyFailure maps a fetch error onto the failure taxonomy.
func ClassifyFailure(err error) FailureReason {
	kind := FailureProviderUnavailable
	switch {
	case errors.Is(err, ErrTimeout):
		kind = FailureTimeout
	case errors.Is(err, ErrDeadlineExceeded):
		kind = FailureDeadlineExceeded
	case errors.Is(err, context.Canceled):
		kind = FailureCanceled
	case errors.Is(err, ErrProviderInvalidResponse):
		kind = FailureProviderInvalidResponse
	case errors.Is(err, ErrProviderUnavailable):
		kind = FailureProviderUnavailable
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return FailureReason{Kind: kind, Message: msg}
}

type BatchResult struct {
	Completed map[string]SymbolQuote
	Failed    map[string]FailureReason
}
