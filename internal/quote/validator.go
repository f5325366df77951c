package quote

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const DefaultMaxSymbols = 50

var (
	ErrSymbolsRequired = errors.New("at least one symbol is required")
	ErrTooManySymbols  = errors.New("too many symbols requested")
	ErrInvalidSymbol   = errors.New("invalid symbol")
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=&^]{0,19}$`)

type SymbolValidator struct {
	maxSymbols int
}

// ParseSymbols splits a comma separated list into upper-cased, de-duplicated
// symbols, keeping the request order.
func (v *SymbolValidator) ParseSymbols(raw string) ([]string, error) {
	seen := make(map[string]struct{})
	symbols := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		s := strings.ToUpper(strings.TrimSpace(part))
		if s == "" {
			continue
		}
		if !symbolPattern.MatchString(s) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		symbols = append(symbols, s)
	}

	if len(symbols) == 0 {
		return nil, ErrSymbolsRequired
	}
	if len(symbols) > v.maxSymbols {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManySymbols, len(symbols), v.maxSymbols)
	}
	return symbols, nil
}

func (v *SymbolValidator) MaxSymbols() int {
	return v.maxSymbols
}

func NewSymbolValidator(maxSymbols int) *SymbolValidator {
	if maxSymbols <= 0 {
		maxSymbols = DefaultMaxSymbols
	}
	return &SymbolValidator{maxSymbols: maxSymbols}
}
