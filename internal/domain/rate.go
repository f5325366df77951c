package domain

import (
	"time"
)

type ProviderID string

// Emergency marks a snapshot built from the configured fallback constant.
const Emergency ProviderID = "emergency"

type RateSnapshot struct {
	Rate      float64
	Source    ProviderID
	FetchedAt time.Time
}

func (s RateSnapshot) IsEmergency() bool {
	return s.Source == Emergency
}

type RatePair struct {
	Base  string
	Quote string
}

func (p RatePair) String() string {
	return p.Base + "/" + p.Quote
}

func (p RatePair) Reversed() RatePair {
	return RatePair{
		Base:  p.Quote,
		Quote: p.Base,
	}
}
