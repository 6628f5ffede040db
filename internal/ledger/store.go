package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paynet/nexus-liquidity/internal/models"
)

// Store holds the bank balance map and the transaction log. A single
// mutex serializes every state change so that check-then-debit and
// create-then-credit are atomic, and the log append happens in the same
// critical section as the balance write.
//
// Bank IDs are expected in canonical (uppercase) form; the engine
// canonicalizes before calling in.
type Store struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	records  []models.TransactionRecord
	cap      int
}

// NewStore creates an empty store. cap bounds the retained transaction
// log; 0 keeps every record for the process lifetime.
func NewStore(cap int) *Store {
	return &Store{
		balances: make(map[string]decimal.Decimal),
		cap:      cap,
	}
}

// Seed installs starting balances. Intended for startup only.
func (s *Store) Seed(balances map[string]decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range balances {
		s.balances[id] = b
	}
}

// Balance returns the current balance, zero for unknown banks.
func (s *Store) Balance(id string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[id]
}

// Lookup returns the current balance and whether the bank exists.
func (s *Store) Lookup(id string) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[id]
	return b, ok
}

// DebitIfSufficient atomically debits amount if the bank exists and holds
// at least amount. On rejection the balance is untouched and the returned
// record carries the current balance; an equal balance and amount is
// sufficient. The approved record is appended to the log before the lock
// is released, so per-bank record order always matches balance history.
func (s *Store) DebitIfSufficient(id string, amount decimal.Decimal, currency string, at time.Time) (models.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.balances[id]
	if !ok {
		return models.TransactionRecord{BankID: id, Kind: models.RecordDebit}, ErrAccountNotFound
	}
	if before.LessThan(amount) {
		return models.TransactionRecord{
			BankID:           id,
			Kind:             models.RecordDebit,
			PreviousBalance:  before,
			RemainingBalance: before,
		}, ErrInsufficientFunds
	}

	after := before.Sub(amount)
	s.balances[id] = after
	rec := models.TransactionRecord{
		ID:               uuid.NewString(),
		BankID:           id,
		Kind:             models.RecordDebit,
		Amount:           amount,
		Currency:         currency,
		PreviousBalance:  before,
		RemainingBalance: after,
		Timestamp:        at,
	}
	s.append(rec)
	return rec, nil
}

// Credit adds amount to the bank, creating it at zero first if absent.
// Returns the appended record; created reports whether the bank was new.
func (s *Store) Credit(id string, amount decimal.Decimal, currency string, at time.Time) (rec models.TransactionRecord, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.balances[id]
	if !ok {
		before = decimal.Zero
		created = true
	}
	after := before.Add(amount)
	s.balances[id] = after
	rec = models.TransactionRecord{
		ID:               uuid.NewString(),
		BankID:           id,
		Kind:             models.RecordCredit,
		Amount:           amount,
		Currency:         currency,
		PreviousBalance:  before,
		RemainingBalance: after,
		Timestamp:        at,
	}
	s.append(rec)
	return rec, created
}

// append assumes s.mu is held. With a cap configured the log behaves as a
// ring: the oldest record is evicted to admit the new one.
func (s *Store) append(rec models.TransactionRecord) {
	if s.cap > 0 && len(s.records) >= s.cap {
		s.records = s.records[1:]
	}
	s.records = append(s.records, rec)
}

// Snapshot returns a copy of all balances. Copy semantics: callers never
// observe later mutations through the returned map.
func (s *Store) Snapshot() map[string]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(s.balances))
	for id, b := range s.balances {
		out[id] = b
	}
	return out
}

// Count returns the number of retained records for one bank, or all
// records when id is empty. With a log cap set, evicted records no longer
// count.
func (s *Store) Count(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		return len(s.records)
	}
	n := 0
	for _, r := range s.records {
		if r.BankID == id {
			n++
		}
	}
	return n
}

// IDs returns all known bank IDs in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.balances))
	for id := range s.balances {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
