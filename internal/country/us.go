package country

// US binds the United States rules: gains become long-term after 365 days.
type US struct{}

func init() { register(US{}) }

func (US) Code() string                       { return "us" }
func (US) CurrencyCode() string               { return "usd" }
func (US) LongTermCapitalGainPeriodDays() int { return 365 }
func (US) DefaultAccountingMethod() string    { return "fifo" }

func (US) AcceptedAccountingMethods() []string {
	return []string{"fifo", "lifo", "hifo", "lofo"}
}

func (US) DefaultReportGenerators() []string {
	return []string{"full_report"}
}

func (US) DefaultLanguage() string { return "en" }
