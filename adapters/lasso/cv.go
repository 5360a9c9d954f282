package lasso

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"lassosig/domain/core"
	"lassosig/domain/model"
	"lassosig/ports"
)

// CVFitter selects the penalty strength by k-fold cross-validation and
// implements ports.RegularizedFitter. It holds no per-fit state, so one
// instance serves any number of concurrent permutation refits.
type CVFitter struct {
	foldCount int
	loss      model.LossMetric
	solver    Config
}

// NewCVFitter creates a cross-validated fitter
func NewCVFitter(foldCount int, loss model.LossMetric, solver Config) (*CVFitter, error) {
	if foldCount < 2 {
		return nil, core.NewValidationError("foldCount", fmt.Sprintf("must be >= 2, got %d", foldCount))
	}
	if !loss.Valid() {
		return nil, core.NewValidationError("lossMetric", fmt.Sprintf("unknown metric %q", loss))
	}
	return &CVFitter{foldCount: foldCount, loss: loss, solver: solver}, nil
}

// Fit runs the full cross-validated path fit against the given response and
// returns coefficients aligned to terms, zero-filled where the penalty
// removed a predictor.
func (f *CVFitter) Fit(ctx context.Context, x *mat.Dense, y []float64, terms model.VariableSet, foldSeed int64) (ports.FitResult, error) {
	n, p := x.Dims()
	if n != len(y) {
		return ports.FitResult{}, fmt.Errorf("%w: %d rows vs %d responses", core.ErrDimensionMismatch, n, len(y))
	}
	if p != terms.Len() {
		return ports.FitResult{}, fmt.Errorf("%w: %d columns vs %d terms", core.ErrDimensionMismatch, p, terms.Len())
	}
	if n < f.foldCount {
		return ports.FitResult{}, fmt.Errorf("%w: %d rows for %d folds", core.ErrTooFewRows, n, f.foldCount)
	}
	if singleClass(y) {
		return ports.FitResult{}, core.ErrSingleClass
	}

	// lambda grid comes from the full dataset, shared across folds
	lambdas := LambdaPath(x, y, f.solver)
	folds := assignFolds(n, f.foldCount, foldSeed)

	meanLoss := make([]float64, len(lambdas))
	foldsUsed := 0
	for k := 0; k < f.foldCount; k++ {
		if err := ctx.Err(); err != nil {
			return ports.FitResult{}, err
		}
		losses, err := f.foldLosses(x, y, folds, k, lambdas)
		if err != nil {
			if core.IsDegenerateResponse(err) {
				// a fold whose training half lost one class contributes
				// nothing; the remaining folds still estimate the curve
				continue
			}
			return ports.FitResult{}, err
		}
		for i, l := range losses {
			meanLoss[i] += l
		}
		foldsUsed++
	}
	if foldsUsed == 0 {
		return ports.FitResult{}, core.ErrSingleClass
	}
	for i := range meanLoss {
		meanLoss[i] /= float64(foldsUsed)
	}

	best, err := selectLambda(meanLoss)
	if err != nil {
		return ports.FitResult{}, err
	}

	// refit on the full dataset at the selected lambda, warm-started along
	// the truncated path
	points, err := FitPath(x, y, lambdas[:best+1], f.solver)
	if err != nil {
		return ports.FitResult{}, err
	}
	final := points[len(points)-1]

	cv, err := model.NewCoefficientVector(terms, final.Weights)
	if err != nil {
		return ports.FitResult{}, err
	}
	return ports.FitResult{Coefficients: cv, Lambda: final.Lambda}, nil
}

// selectLambda scans the mean CV losses in path order (strong to weak
// regularization) and returns the index of the first minimizer, the
// cv.glmnet which.min convention; ties resolve toward the stronger penalty.
func selectLambda(meanLoss []float64) (int, error) {
	best := -1
	bestLoss := math.Inf(1)
	for i, l := range meanLoss {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			continue
		}
		if l < bestLoss {
			bestLoss = l
			best = i
		}
	}
	if best < 0 {
		return 0, core.ErrNoFiniteMinimum
	}
	return best, nil
}

// foldLosses fits the path on all rows outside fold k and scores every
// lambda on the held-out rows.
func (f *CVFitter) foldLosses(x *mat.Dense, y []float64, folds []int, k int, lambdas []float64) ([]float64, error) {
	n, p := x.Dims()
	trainRows := make([]int, 0, n)
	testRows := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if folds[i] == k {
			testRows = append(testRows, i)
		} else {
			trainRows = append(trainRows, i)
		}
	}

	xTrain := mat.NewDense(len(trainRows), p, nil)
	yTrain := make([]float64, len(trainRows))
	for r, i := range trainRows {
		for j := 0; j < p; j++ {
			xTrain.Set(r, j, x.At(i, j))
		}
		yTrain[r] = y[i]
	}
	if singleClass(yTrain) {
		return nil, core.ErrSingleClass
	}

	points, err := FitPath(xTrain, yTrain, lambdas, f.solver)
	if err != nil {
		return nil, err
	}

	xTest := mat.NewDense(len(testRows), p, nil)
	yTest := make([]float64, len(testRows))
	for r, i := range testRows {
		for j := 0; j < p; j++ {
			xTest.Set(r, j, x.At(i, j))
		}
		yTest[r] = y[i]
	}

	losses := make([]float64, len(lambdas))
	for i, pt := range points {
		losses[i] = f.heldOutLoss(pt, xTest, yTest)
	}
	return losses, nil
}

func (f *CVFitter) heldOutLoss(pt PathPoint, x *mat.Dense, y []float64) float64 {
	probs := pt.PredictProb(x)
	switch f.loss {
	case model.LossDeviance:
		return binomialDeviance(y, probs)
	default:
		return misclassificationRate(y, probs)
	}
}

func misclassificationRate(y, probs []float64) float64 {
	wrong := 0
	for i, p := range probs {
		pred := 0.0
		if p > 0.5 {
			pred = 1.0
		}
		if pred != y[i] {
			wrong++
		}
	}
	return float64(wrong) / float64(len(y))
}

func binomialDeviance(y, probs []float64) float64 {
	const eps = 1e-12
	dev := 0.0
	for i, p := range probs {
		p = math.Min(math.Max(p, eps), 1-eps)
		if y[i] == 1 {
			dev -= math.Log(p)
		} else {
			dev -= math.Log(1 - p)
		}
	}
	return 2 * dev / float64(len(y))
}

// assignFolds deals shuffled row indices round-robin so fold sizes differ by
// at most one observation. The shuffle depends only on foldSeed.
func assignFolds(n, foldCount int, foldSeed int64) []int {
	rng := rand.New(rand.NewSource(foldSeed))
	perm := rng.Perm(n)
	folds := make([]int, n)
	for pos, i := range perm {
		folds[i] = pos % foldCount
	}
	return folds
}

func singleClass(y []float64) bool {
	ones, zeros := 0, 0
	for _, v := range y {
		if v == 1 {
			ones++
		} else {
			zeros++
		}
	}
	return ones == 0 || zeros == 0
}
