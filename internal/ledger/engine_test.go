package ledger

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paynet/nexus-liquidity/internal/models"
)

type stubScorer struct{ score float64 }

func (s stubScorer) Score(_, balance decimal.Decimal, _ int) float64 {
	if balance.IsZero() {
		return 1.0
	}
	return s.score
}

type captureExporter struct {
	mu   sync.Mutex
	recs []models.TransactionRecord
}

func (c *captureExporter) Export(_ context.Context, rec models.TransactionRecord) {
	c.mu.Lock()
	c.recs = append(c.recs, rec)
	c.mu.Unlock()
}

func newTestEngine(seed map[string]decimal.Decimal, opts ...Option) *Engine {
	store := NewStore(0)
	store.Seed(seed)
	return NewEngine(store, stubScorer{score: 0.2}, slog.Default(), "MYR", opts...)
}

func TestCheckLiquidityScenario(t *testing.T) {
	eng := newTestEngine(map[string]decimal.Decimal{"MAYBANK": dec("1000.00")})

	d := eng.CheckLiquidity("MAYBANK", dec("500.00"), "MYR")
	assert.True(t, d.Approved)
	assert.Equal(t, CodeOK, d.Code)
	assert.True(t, d.Balance.Equal(dec("500.00")))

	d = eng.CheckLiquidity("MAYBANK", dec("600.00"), "MYR")
	assert.False(t, d.Approved)
	assert.Equal(t, CodeInsufficientFunds, d.Code)
	assert.True(t, d.Balance.Equal(dec("500.00")))

	d = eng.CheckLiquidity("UNKNOWN", dec("10.00"), "MYR")
	assert.False(t, d.Approved)
	assert.Equal(t, CodeAccountNotFound, d.Code)
	assert.True(t, d.Balance.IsZero())

	res := eng.CreditBank("MAYBANK", dec("200.00"), "MYR")
	assert.True(t, res.Success)
	assert.Equal(t, CodeOK, res.Code)
	assert.True(t, res.NewBalance.Equal(dec("700.00")))

	res = eng.CreditBank("NEWBANK", dec("50.00"), "MYR")
	assert.True(t, res.Success)
	assert.True(t, res.NewBalance.Equal(dec("50.00")))
}

func TestCheckLiquidityEqualityApproves(t *testing.T) {
	eng := newTestEngine(map[string]decimal.Decimal{"CIMB": dec("250.00")})

	d := eng.CheckLiquidity("CIMB", dec("250.00"), "MYR")
	assert.True(t, d.Approved)
	assert.True(t, d.Balance.IsZero())
}

func TestCheckLiquidityCanonicalizesBankID(t *testing.T) {
	eng := newTestEngine(map[string]decimal.Decimal{"MAYBANK": dec("100.00")})

	d := eng.CheckLiquidity("  maybank ", dec("40.00"), "")
	assert.True(t, d.Approved)
	assert.True(t, eng.GetBalance("Maybank").Equal(dec("60.00")))
}

func TestCheckLiquidityInvalidAmount(t *testing.T) {
	eng := newTestEngine(map[string]decimal.Decimal{"MAYBANK": dec("100.00")})

	for _, amt := range []string{"0", "-5.00"} {
		assert.ErrorIs(t, validateAmount(dec(amt)), ErrInvalidAmount)
		d := eng.CheckLiquidity("MAYBANK", dec(amt), "MYR")
		assert.False(t, d.Approved)
		assert.Equal(t, CodeInvalidAmount, d.Code)
		assert.Contains(t, d.Message, ErrInvalidAmount.Error())
	}
	assert.NoError(t, validateAmount(dec("0.01")))
	// nothing was recorded or debited
	assert.Equal(t, 0, eng.GetTransactionCount(""))
	assert.True(t, eng.GetBalance("MAYBANK").Equal(dec("100.00")))

	res := eng.CreditBank("MAYBANK", dec("-1.00"), "MYR")
	assert.False(t, res.Success)
	assert.Equal(t, CodeInvalidAmount, res.Code)
	assert.True(t, eng.GetBalance("MAYBANK").Equal(dec("100.00")))
}

func TestCheckLiquidityUnknownBankScoresMaximal(t *testing.T) {
	eng := newTestEngine(map[string]decimal.Decimal{"MAYBANK": dec("100.00")})

	// scoring precedes the existence check; an unknown bank has balance
	// zero and therefore carries the maximal advisory score
	d := eng.CheckLiquidity("UNKNOWN", dec("10.00"), "MYR")
	assert.Equal(t, CodeAccountNotFound, d.Code)
	assert.Equal(t, 1.0, d.RiskScore)
}

func TestGetAllBalances(t *testing.T) {
	eng := newTestEngine(map[string]decimal.Decimal{
		"RHB":     dec("10.00"),
		"CIMB":    dec("20.00"),
		"MAYBANK": dec("30.00"),
	})

	all := eng.GetAllBalances()
	require.Len(t, all, 3)
	assert.Equal(t, "CIMB", all[0].BankID)
	assert.Equal(t, "MAYBANK", all[1].BankID)
	assert.Equal(t, "RHB", all[2].BankID)
	for _, b := range all {
		assert.Equal(t, "MYR", b.Currency)
	}

	// reads are idempotent without intervening mutation
	assert.Equal(t, all, eng.GetAllBalances())
}

func TestGetTransactionCount(t *testing.T) {
	eng := newTestEngine(map[string]decimal.Decimal{"MAYBANK": dec("100.00")})

	eng.CheckLiquidity("MAYBANK", dec("10.00"), "MYR")
	eng.CheckLiquidity("MAYBANK", dec("500.00"), "MYR") // rejected, not recorded
	eng.CreditBank("cimb", dec("5.00"), "MYR")

	assert.Equal(t, 2, eng.GetTransactionCount(""))
	assert.Equal(t, 1, eng.GetTransactionCount("maybank"))
	assert.Equal(t, 1, eng.GetTransactionCount("CIMB"))
}

func TestRiskScoreSurfacedInDecision(t *testing.T) {
	store := NewStore(0)
	store.Seed(map[string]decimal.Decimal{"MAYBANK": dec("100.00")})
	eng := NewEngine(store, stubScorer{score: 0.93}, slog.Default(), "MYR")

	d := eng.CheckLiquidity("MAYBANK", dec("90.00"), "MYR")
	assert.True(t, d.Approved)
	assert.InDelta(t, 0.93, d.RiskScore, 1e-9)
	assert.Contains(t, d.Message, "0.93")
}

func TestExporterReceivesAppliedRecordsOnly(t *testing.T) {
	exp := &captureExporter{}
	eng := newTestEngine(map[string]decimal.Decimal{"MAYBANK": dec("100.00")}, WithExporter(exp))

	eng.CheckLiquidity("MAYBANK", dec("30.00"), "MYR")
	eng.CheckLiquidity("MAYBANK", dec("900.00"), "MYR") // rejected
	eng.CheckLiquidity("UNKNOWN", dec("1.00"), "MYR")   // rejected
	eng.CreditBank("MAYBANK", dec("10.00"), "MYR")

	exp.mu.Lock()
	defer exp.mu.Unlock()
	require.Len(t, exp.recs, 2)
	assert.Equal(t, models.RecordDebit, exp.recs[0].Kind)
	assert.Equal(t, models.RecordCredit, exp.recs[1].Kind)
}

func TestConcurrentChecksNeverOverdraft(t *testing.T) {
	eng := newTestEngine(map[string]decimal.Decimal{"MAYBANK": dec("100.00")})

	const callers = 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	approvedSum := decimal.Zero
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := eng.CheckLiquidity("MAYBANK", dec("10.00"), "MYR")
			if d.Approved {
				mu.Lock()
				approvedSum = approvedSum.Add(dec("10.00"))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.True(t, approvedSum.Equal(dec("100.00")))
	assert.True(t, eng.GetBalance("MAYBANK").IsZero())
}

func TestEngineClockFeedsScorerHour(t *testing.T) {
	var seenHour int
	scorer := scorerFunc(func(_, _ decimal.Decimal, hour int) float64 {
		seenHour = hour
		return 0.1
	})
	store := NewStore(0)
	store.Seed(map[string]decimal.Decimal{"MAYBANK": dec("100.00")})
	night := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	eng := NewEngine(store, scorer, slog.Default(), "MYR", WithClock(func() time.Time { return night }))

	eng.CheckLiquidity("MAYBANK", dec("1.00"), "MYR")
	assert.Equal(t, 3, seenHour)
}

type scorerFunc func(amount, balance decimal.Decimal, hour int) float64

func (f scorerFunc) Score(amount, balance decimal.Decimal, hour int) float64 {
	return f(amount, balance, hour)
}
