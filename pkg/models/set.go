package models

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/ledgerloom/taxfolio/pkg/errors"
)

// MaxYear marks an unbounded upper year filter.
const MaxYear = math.MaxInt

// TransactionSet is an ordered per-(kind, asset) collection of transactions.
// Entries are unique by internal id and share one asset; iteration yields
// them in ascending timestamp order, restricted to the set's year window.
//
// Sorting is lazy: adding an entry invalidates the order and the next read
// re-sorts. Adding after a read is therefore allowed and simply triggers a
// re-sort on the following read.
type TransactionSet struct {
	kind     SetKind
	asset    string
	fromYear int
	toYear   int

	entries []Transaction
	byID    map[int64]struct{}
	parents map[int64]Transaction
	sorted  bool
}

// NewTransactionSet creates an empty, unfiltered set.
func NewTransactionSet(kind SetKind, asset string) *TransactionSet {
	return &TransactionSet{
		kind:    kind,
		asset:   asset,
		toYear:  MaxYear,
		byID:    map[int64]struct{}{},
		parents: map[int64]Transaction{},
	}
}

func (s *TransactionSet) Kind() SetKind { return s.kind }
func (s *TransactionSet) Asset() string { return s.asset }
func (s *TransactionSet) FromYear() int { return s.fromYear }
func (s *TransactionSet) ToYear() int   { return s.toYear }

// Count returns the number of entries, ignoring the year window.
func (s *TransactionSet) Count() int { return len(s.entries) }

// IsEmpty reports whether the set has no entries at all.
func (s *TransactionSet) IsEmpty() bool { return len(s.entries) == 0 }

// AddEntry appends tx, rejecting kind/asset mismatches and duplicates.
func (s *TransactionSet) AddEntry(tx Transaction) error {
	if tx.Asset() != s.asset {
		return errors.AssetMismatchError(s.asset, tx.Asset())
	}
	kindOK := true
	switch s.kind {
	case KindIn:
		_, kindOK = tx.(*InTransaction)
	case KindOut:
		_, kindOK = tx.(*OutTransaction)
	case KindIntra:
		_, kindOK = tx.(*IntraTransaction)
	case KindMixed:
	}
	if !kindOK {
		return fmt.Errorf("%w: cannot add %T to a set of kind %s", errors.ErrWrongSetKind, tx, s.kind)
	}
	if _, dup := s.byID[tx.InternalID()]; dup {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateEntry, tx)
	}

	s.entries = append(s.entries, tx)
	s.byID[tx.InternalID()] = struct{}{}
	s.sorted = false
	return nil
}

// All iterates the entries chronologically, yielding only those whose
// timestamp year falls within [FromYear, ToYear].
func (s *TransactionSet) All() iter.Seq[Transaction] {
	s.ensureSorted()
	return func(yield func(Transaction) bool) {
		for _, tx := range s.entries {
			year := tx.Timestamp().Year()
			if year > s.toYear {
				return
			}
			if year < s.fromYear {
				continue
			}
			if !yield(tx) {
				return
			}
		}
	}
}

// InTransactions iterates a KindIn set with the concrete acquisition type.
func (s *TransactionSet) InTransactions() iter.Seq[*InTransaction] {
	return func(yield func(*InTransaction) bool) {
		for tx := range s.All() {
			in, ok := tx.(*InTransaction)
			if !ok {
				continue
			}
			if !yield(in) {
				return
			}
		}
	}
}

// Entries returns the filtered, sorted entries as a slice.
func (s *TransactionSet) Entries() []Transaction {
	var out []Transaction
	for tx := range s.All() {
		out = append(out, tx)
	}
	return out
}

// ParentOf returns the chronologically previous entry of tx within the full
// (unfiltered) set, or nil for the earliest entry.
func (s *TransactionSet) ParentOf(tx Transaction) (Transaction, error) {
	if _, known := s.byID[tx.InternalID()]; !known {
		return nil, fmt.Errorf("unknown entry: %s", tx)
	}
	s.ensureSorted()
	return s.parents[tx.InternalID()], nil
}

// Duplicate returns an independent view of the same entries restricted to the
// given year range (inclusive). The underlying transactions are shared; the
// receiving set is never mutated.
func (s *TransactionSet) Duplicate(fromYear, toYear int) *TransactionSet {
	dup := &TransactionSet{
		kind:     s.kind,
		asset:    s.asset,
		fromYear: fromYear,
		toYear:   toYear,
		entries:  slices.Clone(s.entries),
		byID:     make(map[int64]struct{}, len(s.byID)),
		parents:  map[int64]Transaction{},
	}
	for id := range s.byID {
		dup.byID[id] = struct{}{}
	}
	return dup
}

func (s *TransactionSet) ensureSorted() {
	if s.sorted {
		return
	}
	// Stable keeps insertion order for identical timestamps.
	slices.SortStableFunc(s.entries, func(a, b Transaction) int {
		return a.Timestamp().Compare(b.Timestamp())
	})
	var parent Transaction
	for _, tx := range s.entries {
		s.parents[tx.InternalID()] = parent
		parent = tx
	}
	s.sorted = true
}
