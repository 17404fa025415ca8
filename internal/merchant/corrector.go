// Package merchant corrects the MCC sent by an acquirer using the merchant
// descriptor printed on the transaction.
package merchant

import (
	"strings"

	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPatterns is the merchant table used when no other table is
// configured. Order matters: the first matching pattern wins.
var DefaultPatterns = []models.MerchantPattern{
	{Pattern: "UBER TRIP", MCC: "4121"},
	{Pattern: "UBER EATS", MCC: "5812"},
	{Pattern: "PAG*JoseDaSilva", MCC: "6012"},
	{Pattern: "PICPAY*BILHETEUNICO", MCC: "4111"},
}

// Normalize upper-cases s and collapses every run of whitespace into a single
// space. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	// a Caser keeps state between calls, so it is not shared
	upper := cases.Upper(language.Und).String(s)
	return strings.Join(strings.Fields(upper), " ")
}

type entry struct {
	normalized string
	pattern    models.MerchantPattern
}

// Corrector matches merchant descriptors against an ordered pattern table.
// It is immutable after construction and safe for concurrent use.
type Corrector struct {
	entries []entry
}

func NewCorrector(patterns []models.MerchantPattern) *Corrector {
	c := &Corrector{entries: make([]entry, 0, len(patterns))}
	for _, p := range patterns {
		n := Normalize(p.Pattern)
		if n == "" {
			continue
		}
		c.entries = append(c.entries, entry{normalized: n, pattern: p})
	}
	return c
}

// CorrectMCC returns the MCC of the first pattern, in declaration order, that
// occurs anywhere in the normalized descriptor. Without a match the original
// MCC is returned unchanged.
func (c *Corrector) CorrectMCC(descriptor, originalMCC string) string {
	if mcc, ok := c.Lookup(descriptor); ok {
		return mcc
	}
	return originalMCC
}

// Lookup reports the MCC of the first matching pattern.
func (c *Corrector) Lookup(descriptor string) (string, bool) {
	d := Normalize(descriptor)
	if d == "" {
		return "", false
	}
	for _, e := range c.entries {
		if strings.Contains(d, e.normalized) {
			return e.pattern.MCC, true
		}
	}
	return "", false
}

// Patterns returns the table in declaration order.
func (c *Corrector) Patterns() []models.MerchantPattern {
	out := make([]models.MerchantPattern, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.pattern
	}
	return out
}
