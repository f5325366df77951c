// Package quote turns raw upstream quotes into prices in the domestic currency.
package quote

import (
	"strings"
)

type Region string

const (
	Domestic Region = "domestic"
	Foreign  Region = "foreign"
)

var DefaultDomesticSuffixes = []string{".NS", ".BO", ".BSE", ".NSE"}

// Classifier decides a symbol's region from its exchange suffix.
type Classifier struct {
	suffixes []string
}

func NewClassifier(suffixes []string) *Classifier {
	if len(suffixes) == 0 {
		suffixes = DefaultDomesticSuffixes
	}
	normalized := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		normalized = append(normalized, s)
	}
	return &Classifier{suffixes: normalized}
}

func (c *Classifier) Classify(symbol string) Region {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range c.suffixes {
		if strings.HasSuffix(upper, s) {
			return Domestic
		}
	}
	return Foreign
}
