package forecast

import (
	"fmt"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// linearFit is an ordinary least squares line y = Intercept + Slope*x.
type linearFit struct {
	Intercept float64
	Slope     float64
}

func fitLine(x, y []float64) linearFit {
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return linearFit{Intercept: alpha, Slope: beta}
}

func (f linearFit) at(x float64) float64 { return f.Intercept + f.Slope*x }

// dayIndex returns the synthetic regressor 0..n-1.
func dayIndex(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// rSquared scores the fit on (x, y). Constant y scores 1 on a perfect fit and 0 otherwise.
func rSquared(x, y []float64, f linearFit) float64 {
	est := make([]float64, len(x))
	for i, xi := range x {
		est[i] = f.at(xi)
	}
	if floats.Max(y) == floats.Min(y) {
		if floats.EqualApprox(est, y, 1e-9) {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(est, y, nil)
}

// kFoldSplits shuffles 0..n-1 and cuts it into k contiguous test folds. The first n%k
// folds hold one extra index.
func kFoldSplits(n, k int, rng *rand.Rand) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("folds must be >= 2, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("cannot split %d points into %d folds", n, k)
	}
	perm := rng.Perm(n)
	folds := make([][]int, 0, k)
	start := 0
	for i := 0; i < k; i++ {
		size := n / k
		if i < n%k {
			size++
		}
		folds = append(folds, perm[start:start+size])
		start += size
	}
	return folds, nil
}

// crossValidatedR2 returns the mean held-out R² of a line fitted to y over the day index.
// Folds are fitted concurrently; the mean does not depend on completion order.
func crossValidatedR2(y []float64, k int, rng *rand.Rand) (float64, error) {
	x := dayIndex(len(y))
	folds, err := kFoldSplits(len(y), k, rng)
	if err != nil {
		return 0, err
	}

	scores := make([]float64, len(folds))
	var g errgroup.Group
	for i, test := range folds {
		g.Go(func() error {
			scores[i] = foldScore(x, y, test)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return stat.Mean(scores, nil), nil
}

func foldScore(x, y []float64, test []int) float64 {
	held := make([]bool, len(x))
	for _, i := range test {
		held[i] = true
	}
	trainX := make([]float64, 0, len(x)-len(test))
	trainY := make([]float64, 0, len(x)-len(test))
	testX := make([]float64, 0, len(test))
	testY := make([]float64, 0, len(test))
	for i := range x {
		if held[i] {
			testX = append(testX, x[i])
			testY = append(testY, y[i])
			continue
		}
		trainX = append(trainX, x[i])
		trainY = append(trainY, y[i])
	}
	return rSquared(testX, testY, fitLine(trainX, trainY))
}
