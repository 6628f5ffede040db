package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestScoreWithinUnitInterval(t *testing.T) {
	e, err := New(42)
	require.NoError(t, err)
	require.True(t, e.Fitted())

	balance := dec("1000.00")
	for _, amt := range []string{"0.01", "10.00", "500.00", "999.99", "1000.00", "5000.00"} {
		for hour := 0; hour < 24; hour++ {
			s := e.Score(dec(amt), balance, hour)
			assert.GreaterOrEqual(t, s, 0.0, "amt=%s hour=%d", amt, hour)
			assert.LessOrEqual(t, s, 1.0, "amt=%s hour=%d", amt, hour)
		}
	}
}

func TestScoreZeroBalanceIsMaximalRisk(t *testing.T) {
	e, err := New(42)
	require.NoError(t, err)

	assert.Equal(t, 1.0, e.Score(dec("10.00"), decimal.Zero, 12))
	// even an unfitted estimator applies the zero-balance rule first
	var unfitted Estimator
	assert.Equal(t, 1.0, unfitted.Score(dec("10.00"), decimal.Zero, 12))
}

func TestScoreUnfittedIsNeutral(t *testing.T) {
	var e Estimator
	assert.False(t, e.Fitted())
	assert.Equal(t, NeutralScore, e.Score(dec("10.00"), dec("100.00"), 12))
}

func TestFitDeterministicForFixedSeed(t *testing.T) {
	a, err := New(42)
	require.NoError(t, err)
	b, err := New(42)
	require.NoError(t, err)

	balance := dec("1000.00")
	for _, amt := range []string{"50.00", "800.00", "1200.00"} {
		for _, hour := range []int{2, 9, 14, 22} {
			assert.Equal(t, a.Score(dec(amt), balance, hour), b.Score(dec(amt), balance, hour))
		}
	}
}

func TestHigherRatioScoresHigher(t *testing.T) {
	e, err := New(42)
	require.NoError(t, err)

	balance := dec("1000.00")
	low := e.Score(dec("50.00"), balance, 12)
	high := e.Score(dec("950.00"), balance, 12)
	assert.Greater(t, high, low)
}

func TestDifferentSeedsStillFit(t *testing.T) {
	e, err := New(7)
	require.NoError(t, err)
	assert.True(t, e.Fitted())
}
