// Package ledger implements the liquidity core: the balance store, the
// atomic check-and-debit protocol, and the advisory risk scoring hook.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paynet/nexus-liquidity/internal/metrics"
	"github.com/paynet/nexus-liquidity/internal/models"
)

// highRiskThreshold triggers a warning log and a counter bump. It never
// gates approval.
const highRiskThreshold = 0.8

// Scorer estimates the risk of debiting amount from balance at the given
// hour of day. Implemented by risk.Estimator.
type Scorer interface {
	Score(amount, balance decimal.Decimal, hour int) float64
}

// Exporter receives approved transaction records for off-process audit.
// Implemented by audit sinks; may be nil.
type Exporter interface {
	Export(ctx context.Context, rec models.TransactionRecord)
}

// Decision is the structured outcome of a debit attempt.
type Decision struct {
	Approved  bool
	Balance   decimal.Decimal
	Code      string
	Message   string
	RiskScore float64
}

// CreditResult is the outcome of a credit; credits always succeed for
// valid amounts.
type CreditResult struct {
	Success    bool
	NewBalance decimal.Decimal
	Code       string
	Message    string
}

// Engine owns the store and the risk scorer. Construct one per process
// (or per test) and inject it into the transport; there is no package
// level instance.
type Engine struct {
	store    *Store
	scorer   Scorer
	exporter Exporter
	log      *slog.Logger
	currency string
	now      func() time.Time
}

type Option func(*Engine)

// WithExporter attaches an off-process record exporter.
func WithExporter(e Exporter) Option { return func(en *Engine) { en.exporter = e } }

// WithClock overrides the engine clock, mainly for tests that pin the
// hour fed to the scorer.
func WithClock(now func() time.Time) Option { return func(en *Engine) { en.now = now } }

func NewEngine(store *Store, scorer Scorer, log *slog.Logger, displayCurrency string, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		scorer:   scorer,
		log:      log,
		currency: displayCurrency,
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// CheckLiquidity runs the debit protocol: canonicalize, score (advisory),
// then atomically check-and-debit. Equality of balance and amount
// approves; the check is strictly balance < amount for rejection.
func (e *Engine) CheckLiquidity(bankID string, amount decimal.Decimal, currency string) Decision {
	id := canonical(bankID)
	if currency == "" {
		currency = e.currency
	}
	if err := validateAmount(amount); err != nil {
		metrics.LiquidityChecksTotal.WithLabelValues(CodeInvalidAmount).Inc()
		return Decision{
			Code:    CodeInvalidAmount,
			Balance: e.store.Balance(id),
			Message: fmt.Sprintf("Invalid amount: %s", err),
		}
	}

	now := e.now()
	balance, known := e.store.Lookup(id)

	// Advisory scoring happens against the pre-debit balance. A zero
	// balance scores 1.0, unknown banks included.
	score := e.scorer.Score(amount, balance, now.Hour())
	metrics.RiskScore.Observe(score)
	if score > highRiskThreshold {
		metrics.HighRiskTotal.Inc()
		e.log.Warn("high liquidity risk detected", "bank", id, "score", score)
	}

	if !known {
		metrics.LiquidityChecksTotal.WithLabelValues(CodeAccountNotFound).Inc()
		return Decision{
			Code:      CodeAccountNotFound,
			Balance:   decimal.Zero,
			Message:   fmt.Sprintf("Account closed: Bank '%s' not found", id),
			RiskScore: score,
		}
	}

	rec, err := e.store.DebitIfSufficient(id, amount, currency, now)
	switch {
	case err == nil:
		metrics.LiquidityChecksTotal.WithLabelValues(CodeOK).Inc()
		e.export(rec)
		return Decision{
			Approved:  true,
			Balance:   rec.RemainingBalance,
			Code:      CodeOK,
			Message:   fmt.Sprintf("Approved (Risk: %.2f)", score),
			RiskScore: score,
		}
	case errors.Is(err, ErrInsufficientFunds):
		metrics.LiquidityChecksTotal.WithLabelValues(CodeInsufficientFunds).Inc()
		return Decision{
			Code:      CodeInsufficientFunds,
			Balance:   rec.RemainingBalance,
			Message:   fmt.Sprintf("Insufficient funds: Available %s %s, Risk Score: %.2f", rec.RemainingBalance.StringFixed(2), currency, score),
			RiskScore: score,
		}
	default:
		// not-found observed under the store lock; banks are never
		// deleted, so this only happens if Lookup was skipped upstream
		metrics.LiquidityChecksTotal.WithLabelValues(CodeAccountNotFound).Inc()
		return Decision{
			Code:      CodeAccountNotFound,
			Balance:   decimal.Zero,
			Message:   fmt.Sprintf("Account closed: Bank '%s' not found", id),
			RiskScore: score,
		}
	}
}

// CreditBank credits the bank, creating it at zero on first credit.
func (e *Engine) CreditBank(bankID string, amount decimal.Decimal, currency string) CreditResult {
	id := canonical(bankID)
	if currency == "" {
		currency = e.currency
	}
	if err := validateAmount(amount); err != nil {
		return CreditResult{
			Code:       CodeInvalidAmount,
			NewBalance: e.store.Balance(id),
			Message:    fmt.Sprintf("Invalid amount: %s", err),
		}
	}

	rec, created := e.store.Credit(id, amount, currency, e.now())
	if created {
		e.log.Info("initialized new bank", "bank", id)
	}
	metrics.CreditsTotal.Inc()
	e.export(rec)
	return CreditResult{
		Success:    true,
		NewBalance: rec.RemainingBalance,
		Code:       CodeOK,
		Message:    fmt.Sprintf("Credited %s %s", amount.StringFixed(2), currency),
	}
}

// GetBalance returns the current balance, zero for unknown banks.
func (e *Engine) GetBalance(bankID string) decimal.Decimal {
	return e.store.Balance(canonical(bankID))
}

// GetAllBalances returns a point-in-time snapshot annotated with the
// display currency, sorted by bank ID.
func (e *Engine) GetAllBalances() []models.BankBalance {
	snap := e.store.Snapshot()
	out := make([]models.BankBalance, 0, len(snap))
	for _, id := range sortedKeys(snap) {
		out = append(out, models.BankBalance{BankID: id, Balance: snap[id], Currency: e.currency})
	}
	return out
}

// GetTransactionCount reports retained records for one bank, or all when
// bankID is empty.
func (e *Engine) GetTransactionCount(bankID string) int {
	if bankID == "" {
		return e.store.Count("")
	}
	return e.store.Count(canonical(bankID))
}

func (e *Engine) export(rec models.TransactionRecord) {
	if e.exporter != nil {
		e.exporter.Export(context.Background(), rec)
	}
}

// validateAmount enforces the explicit non-positive-amount policy: a
// zero or negative debit/credit is ErrInvalidAmount (AM12), never
// silently propagated.
func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w, got %s", ErrInvalidAmount, amount.StringFixed(2))
	}
	return nil
}

func canonical(bankID string) string {
	return strings.ToUpper(strings.TrimSpace(bankID))
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
