// Package models defines the typed transaction model of the tax pipeline:
// the three transaction kinds (IN, OUT, INTRA), accounts, and the ordered
// per-asset transaction sets the engine iterates.
package models

import (
	"fmt"
	"strings"
)

// TransactionType classifies a transaction within its kind.
type TransactionType string

const (
	TypeAirdrop  TransactionType = "airdrop"
	TypeBuy      TransactionType = "buy"
	TypeDonate   TransactionType = "donate"
	TypeFee      TransactionType = "fee"
	TypeGift     TransactionType = "gift"
	TypeHardfork TransactionType = "hardfork"
	TypeIncome   TransactionType = "income"
	TypeInterest TransactionType = "interest"
	TypeMining   TransactionType = "mining"
	TypeMove     TransactionType = "move"
	TypeSell     TransactionType = "sell"
	TypeStaking  TransactionType = "staking"
	TypeWages    TransactionType = "wages"
)

// AllTransactionTypes lists every type, for counters and report rows.
var AllTransactionTypes = []TransactionType{
	TypeAirdrop, TypeBuy, TypeDonate, TypeFee, TypeGift, TypeHardfork,
	TypeIncome, TypeInterest, TypeMining, TypeMove, TypeSell, TypeStaking,
	TypeWages,
}

var earnTypes = map[TransactionType]bool{
	TypeAirdrop:  true,
	TypeHardfork: true,
	TypeIncome:   true,
	TypeInterest: true,
	TypeMining:   true,
	TypeStaking:  true,
	TypeWages:    true,
}

var transactionTypeValues = func() map[string]TransactionType {
	m := make(map[string]TransactionType, len(AllTransactionTypes))
	for _, t := range AllTransactionTypes {
		m[string(t)] = t
	}
	return m
}()

// ParseTransactionType converts a user-supplied string (case-insensitive)
// into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t, ok := transactionTypeValues[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("invalid transaction type: %q", s)
	}
	return t, nil
}

// IsEarn reports whether the type represents earned crypto (airdrop,
// hardfork, income, interest, mining, staking, wages). Earn-typed IN
// transactions are taxable events with no acquired lot and a cost basis of 0.
func (t TransactionType) IsEarn() bool { return earnTypes[t] }

func (t TransactionType) String() string { return string(t) }

// SetKind identifies which transaction kinds a set may hold.
type SetKind string

const (
	KindIn    SetKind = "in"
	KindOut   SetKind = "out"
	KindIntra SetKind = "intra"
	// KindMixed sets hold any kind; used for the taxable-event set.
	KindMixed SetKind = "mixed"
)
