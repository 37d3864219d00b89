// Package country provides the jurisdiction bindings the tax engine reads:
// the long-term capital-gain holding period and the accounting methods a
// country permits. Countries register by ISO-3166 code in a static table.
package country

import (
	"math"
	"slices"
	"strings"

	"github.com/ledgerloom/taxfolio/pkg/errors"
)

// Country is the jurisdiction contract consumed by the tax engine and the
// CLI. Implementations are stateless values.
type Country interface {
	// Code is the ISO 3166-1 alpha-2 country code, lowercase; the
	// parameterized Generic jurisdiction returns "generic".
	Code() string
	// CurrencyCode is the ISO 4217 fiat code, lowercase.
	CurrencyCode() string
	// LongTermCapitalGainPeriodDays is the holding period, in days, after
	// which a gain is long-term. NoLongTermPeriod means the jurisdiction has
	// no long-term distinction.
	LongTermCapitalGainPeriodDays() int
	// DefaultAccountingMethod is used when the user does not select one.
	DefaultAccountingMethod() string
	// AcceptedAccountingMethods lists the method names the country permits.
	AcceptedAccountingMethods() []string
	// DefaultReportGenerators lists generator names to run by default.
	DefaultReportGenerators() []string
	// DefaultLanguage is the ISO 639-1 report language.
	DefaultLanguage() string
}

// NoLongTermPeriod marks jurisdictions without a long-term holding period:
// no real holding ever reaches it.
const NoLongTermPeriod = math.MaxInt

// Accepts reports whether the country permits the given accounting method.
func Accepts(c Country, method string) bool {
	return slices.Contains(c.AcceptedAccountingMethods(), strings.ToLower(method))
}

var registry = map[string]Country{}

func register(c Country) {
	registry[c.Code()] = c
}

// Lookup resolves a country by its ISO code (case-insensitive).
func Lookup(code string) (Country, error) {
	c, ok := registry[strings.ToLower(code)]
	if !ok {
		return nil, errors.UnknownCountryError(code)
	}
	return c, nil
}

// Codes returns the registered country codes, sorted.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}
