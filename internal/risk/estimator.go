// Package risk scores proposed debits with a small logistic classifier
// fitted once at startup on synthetic transaction data. The score is
// advisory: callers log it but the deterministic balance check alone
// decides approval.
package risk

import (
	"errors"
	"math"
	"math/rand"

	"github.com/shopspring/decimal"
)

const (
	nSamples     = 1000
	nSafe        = 700
	nRisky       = 300
	labelCutoff  = 0.8
	nightPenalty = 0.2

	// gradient descent schedule; fixed so a given seed always produces
	// the same weights
	gdIterations = 500
	gdLearnRate  = 0.1
)

// NeutralScore is returned when the classifier never fitted.
const NeutralScore = 0.5

var errDegenerateFit = errors.New("risk: non-finite weights after fit")

// Estimator holds the fitted scaler and logistic weights. Immutable after
// Fit; safe for concurrent Score calls.
type Estimator struct {
	mean      [2]float64
	std       [2]float64
	weights   [2]float64
	intercept float64
	fitted    bool
}

// New fits an estimator on synthetic data derived from seed. On fit
// failure it returns the unfitted estimator alongside the error; Score on
// an unfitted estimator yields NeutralScore.
func New(seed int64) (*Estimator, error) {
	e := &Estimator{}
	if err := e.fit(seed); err != nil {
		return e, err
	}
	return e, nil
}

// fit generates the labeled sample set, freezes the per-feature scaler and
// trains the classifier. Feature vector: [amount/balance ratio, hour 0-23].
// 70% of ratios skew small (safe), 30% skew toward 1.0 and above (risky).
// A sample is labeled risky when ratio plus a night-hours penalty exceeds
// the cutoff.
func (e *Estimator) fit(seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	ratios := make([]float64, 0, nSamples)
	for i := 0; i < nSafe; i++ {
		ratios = append(ratios, betaSample(rng, 2, 10))
	}
	for i := 0; i < nRisky; i++ {
		ratios = append(ratios, betaSample(rng, 5, 1))
	}

	features := make([][2]float64, nSamples)
	labels := make([]float64, nSamples)
	for i, r := range ratios {
		hour := float64(rng.Intn(24))
		features[i] = [2]float64{r, hour}
		risk := r
		if hour < 6 || hour > 20 {
			risk += nightPenalty
		}
		if risk > labelCutoff {
			labels[i] = 1
		}
	}

	e.fitScaler(features)
	scaled := make([][2]float64, nSamples)
	for i, f := range features {
		scaled[i] = e.scale(f)
	}
	e.train(scaled, labels)

	if !isFinite(e.weights[0]) || !isFinite(e.weights[1]) || !isFinite(e.intercept) {
		return errDegenerateFit
	}
	e.fitted = true
	return nil
}

func (e *Estimator) fitScaler(xs [][2]float64) {
	n := float64(len(xs))
	for j := 0; j < 2; j++ {
		var sum float64
		for _, x := range xs {
			sum += x[j]
		}
		e.mean[j] = sum / n
		var sq float64
		for _, x := range xs {
			d := x[j] - e.mean[j]
			sq += d * d
		}
		e.std[j] = math.Sqrt(sq / n)
		if e.std[j] == 0 {
			e.std[j] = 1
		}
	}
}

func (e *Estimator) scale(x [2]float64) [2]float64 {
	return [2]float64{
		(x[0] - e.mean[0]) / e.std[0],
		(x[1] - e.mean[1]) / e.std[1],
	}
}

// train runs full-batch gradient descent on the logistic loss.
func (e *Estimator) train(xs [][2]float64, ys []float64) {
	n := float64(len(xs))
	for iter := 0; iter < gdIterations; iter++ {
		var g0, g1, gb float64
		for i, x := range xs {
			p := sigmoid(e.weights[0]*x[0] + e.weights[1]*x[1] + e.intercept)
			d := p - ys[i]
			g0 += d * x[0]
			g1 += d * x[1]
			gb += d
		}
		e.weights[0] -= gdLearnRate * g0 / n
		e.weights[1] -= gdLearnRate * g1 / n
		e.intercept -= gdLearnRate * gb / n
	}
}

// Score estimates the probability in [0,1] that debiting amount from the
// given balance at the given hour is high risk. A zero balance is maximal
// risk by definition, which also keeps the ratio well defined.
func (e *Estimator) Score(amount, balance decimal.Decimal, hour int) float64 {
	if balance.IsZero() {
		return 1.0
	}
	if !e.fitted {
		return NeutralScore
	}
	ratio := amount.Div(balance).InexactFloat64()
	x := e.scale([2]float64{ratio, float64(hour)})
	return sigmoid(e.weights[0]*x[0] + e.weights[1]*x[1] + e.intercept)
}

// Fitted reports whether the classifier trained successfully.
func (e *Estimator) Fitted() bool { return e.fitted }

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// betaSample draws from Beta(a,b) via two gamma variates.
func betaSample(rng *rand.Rand, a, b float64) float64 {
	x := gammaSample(rng, a)
	y := gammaSample(rng, b)
	if x+y == 0 {
		return 0
	}
	return x / (x + y)
}

// gammaSample draws from Gamma(shape,1) using Marsaglia-Tsang, with the
// usual boost for shape < 1.
func gammaSample(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return gammaSample(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
