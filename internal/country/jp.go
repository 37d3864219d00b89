package country

// JP binds the Japanese rules: crypto gains are miscellaneous income with no
// long-term distinction, so the long-term period is never reached.
type JP struct{}

func init() { register(JP{}) }

func (JP) Code() string                       { return "jp" }
func (JP) CurrencyCode() string               { return "jpy" }
func (JP) LongTermCapitalGainPeriodDays() int { return NoLongTermPeriod }
func (JP) DefaultAccountingMethod() string    { return "fifo" }

func (JP) AcceptedAccountingMethods() []string {
	return []string{"fifo"}
}

func (JP) DefaultReportGenerators() []string {
	return []string{"full_report"}
}

func (JP) DefaultLanguage() string { return "ja" }
