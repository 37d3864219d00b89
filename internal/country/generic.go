package country

import (
	"strings"

	"github.com/ledgerloom/taxfolio/pkg/errors"
)

// Generic is a parameterized jurisdiction for countries without a dedicated
// plugin: the caller supplies the fiat currency and the long-term period.
type Generic struct {
	currency       string
	longTermDays   int
	acceptedNames  []string
	defaultMethod  string
}

// NewGeneric builds a generic jurisdiction. A negative long-term period is a
// configuration error; zero means every gain is long-term.
func NewGeneric(currencyCode string, longTermDays int) (Generic, error) {
	if currencyCode == "" {
		return Generic{}, errors.InvalidConfigError("currency_code", "must not be empty")
	}
	if longTermDays < 0 {
		return Generic{}, errors.InvalidConfigError("long_term_period_days", "must not be negative")
	}
	return Generic{
		currency:      strings.ToLower(currencyCode),
		longTermDays:  longTermDays,
		acceptedNames: []string{"fifo", "lifo", "hifo", "lofo"},
		defaultMethod: "fifo",
	}, nil
}

func (g Generic) Code() string                        { return "generic" }
func (g Generic) CurrencyCode() string                { return g.currency }
func (g Generic) LongTermCapitalGainPeriodDays() int  { return g.longTermDays }
func (g Generic) DefaultAccountingMethod() string     { return g.defaultMethod }
func (g Generic) AcceptedAccountingMethods() []string { return g.acceptedNames }
func (g Generic) DefaultReportGenerators() []string   { return []string{"full_report"} }
func (g Generic) DefaultLanguage() string             { return "en" }
