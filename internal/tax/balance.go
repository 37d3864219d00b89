package tax

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/ledgerloom/taxfolio/internal/input"
	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

// Balance is the end-of-period position of one account:
// final = acquired + received - sent.
type Balance struct {
	Asset    string
	Account  models.Account
	Final    decimal.Decimal
	Acquired decimal.Decimal
	Sent     decimal.Decimal
	Received decimal.Decimal
}

// BalanceSet replays all transactions chronologically and derives the final,
// acquired, sent and received balances per account. Same-timestamp entries
// replay as IN, INTRA, OUT so credits land before the debits they fund.
type BalanceSet struct {
	asset    string
	balances []Balance
}

// NewBalanceSet builds the balances from the unfiltered transaction sets,
// stopping after toYear. Unless allowNegative is set, an account balance
// dipping below zero (beyond the balance precision mask) aborts with a
// user-visible error naming the account and the offending transaction.
func NewBalanceSet(data *input.InputData, toYear int, allowNegative bool) (*BalanceSet, error) {
	asset := data.Asset()

	var transactions []models.Transaction
	transactions = append(transactions, data.UnfilteredInSet().Entries()...)
	transactions = append(transactions, data.UnfilteredIntraSet().Entries()...)
	transactions = append(transactions, data.UnfilteredOutSet().Entries()...)
	slices.SortStableFunc(transactions, func(a, b models.Transaction) int {
		return a.Timestamp().Compare(b.Timestamp())
	})

	acquired := map[models.Account]decimal.Decimal{}
	sent := map[models.Account]decimal.Decimal{}
	received := map[models.Account]decimal.Decimal{}
	final := map[models.Account]decimal.Decimal{}

	checkNegative := func(account models.Account, tx models.Transaction) error {
		balance := final[account]
		if allowNegative || !balance.IsNegative() {
			return nil
		}
		if decimal.EqualWithinPrecision(balance, decimal.Zero, decimal.BalancePlaces) {
			return nil
		}
		return errors.NegativeBalanceError(asset, account.Exchange, account.Holder, balance.String(), tx.String())
	}

	for _, tx := range transactions {
		if tx.Timestamp().Year() > toYear {
			break
		}
		switch t := tx.(type) {
		case *models.InTransaction:
			account := t.Account()
			acquired[account] = acquired[account].Add(t.CryptoIn())
			final[account] = final[account].Add(t.CryptoIn())

		case *models.IntraTransaction:
			from := t.FromAccount()
			to := t.ToAccount()
			sent[from] = sent[from].Add(t.CryptoSent())
			received[to] = received[to].Add(t.CryptoReceived())
			final[from] = final[from].Sub(t.CryptoSent())
			final[to] = final[to].Add(t.CryptoReceived())
			if err := checkNegative(from, t); err != nil {
				return nil, err
			}

		case *models.OutTransaction:
			account := t.Account()
			outflow := t.CryptoOutNoFee().Add(t.CryptoFee())
			sent[account] = sent[account].Add(outflow)
			final[account] = final[account].Sub(outflow)
			if err := checkNegative(account, t); err != nil {
				return nil, err
			}
		}
	}

	accounts := lo.Keys(final)
	slices.SortFunc(accounts, func(a, b models.Account) int {
		return strings.Compare(a.SortKey(), b.SortKey())
	})

	set := &BalanceSet{asset: asset}
	for _, account := range accounts {
		set.balances = append(set.balances, Balance{
			Asset:    asset,
			Account:  account,
			Final:    final[account],
			Acquired: acquired[account],
			Sent:     sent[account],
			Received: received[account],
		})
	}
	return set, nil
}

func (s *BalanceSet) Asset() string       { return s.asset }
func (s *BalanceSet) Count() int          { return len(s.balances) }
func (s *BalanceSet) Balances() []Balance { return s.balances }
