package stats

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Conceptual-Machines/datson-api/internal/sonify"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultMaxDegree is the highest degree tried by BestPolynomialFit unless
	// the caller asks otherwise.
	DefaultMaxDegree = 24

	validationShare = 0.2
	splitSeed       = 42

	// machineEpsilon scales the SVD rank cut-off.
	machineEpsilon = 2.220446049250313e-16

	// tieTolerance, relative to the smallest validation error, below which
	// two validation errors count as equal.
	tieTolerance = 1e-12
)

// FitReport describes a degree sweep. TrainMSE[d-1] and ValidationMSE[d-1]
// belong to degree d.
type FitReport struct {
	TrainMSE      []float64
	ValidationMSE []float64
	BestDegree    int
}

// BestPolynomialFit fits polynomials of degree 1..maxDegree to the column
// against the sample index, using a fixed 80/20 train/validation split, and
// picks the degree with the lowest validation error (lowest degree on ties).
// It fails with sonify.ErrDegenerateFit when maxDegree is not below the series
// length or when the features overflow.
func BestPolynomialFit(f *sonify.Frame, on string, maxDegree int) (FitReport, error) {
	y, err := f.Floats(on)
	if err != nil {
		return FitReport{}, fmt.Errorf("best polynomial fit: %w", err)
	}
	n := len(y)
	if maxDegree < 1 || maxDegree >= n {
		return FitReport{}, fmt.Errorf("best polynomial fit: %w: max degree %d needs between 1 and %d",
			sonify.ErrDegenerateFit, maxDegree, n-1)
	}

	train, validation := splitIndices(n)
	xTrain, yTrain := pick(train, y)
	xValidation, yValidation := pick(validation, y)

	report := FitReport{
		TrainMSE:      make([]float64, 0, maxDegree),
		ValidationMSE: make([]float64, 0, maxDegree),
	}
	for degree := 1; degree <= maxDegree; degree++ {
		trainFeatures, err := polynomialFeatures(xTrain, degree)
		if err != nil {
			return FitReport{}, fmt.Errorf("best polynomial fit: %w", err)
		}
		validationFeatures, err := polynomialFeatures(xValidation, degree)
		if err != nil {
			return FitReport{}, fmt.Errorf("best polynomial fit: %w", err)
		}

		model, err := fitLeastSquares(trainFeatures, yTrain)
		if err != nil {
			return FitReport{}, fmt.Errorf("best polynomial fit: degree %d: %w", degree, err)
		}
		report.TrainMSE = append(report.TrainMSE, meanSquaredError(yTrain, model.predict(trainFeatures)))
		report.ValidationMSE = append(report.ValidationMSE, meanSquaredError(yValidation, model.predict(validationFeatures)))
	}

	// Errors closer than the tolerance are ties, so an exact fit keeps the
	// lowest degree reaching it instead of the one winning on rounding noise.
	tolerance := tieTolerance * (floats.Min(report.ValidationMSE) + 1)
	best := 0
	for i, v := range report.ValidationMSE {
		if v < report.ValidationMSE[best]-tolerance {
			best = i
		}
	}
	report.BestDegree = best + 1
	return report, nil
}

// PolynomialFit fits one polynomial of the given degree over the whole series
// and writes the fitted values. When to is empty the column is named
// "<on>_polynomial_fit".
func PolynomialFit(f *sonify.Frame, on, to string, degree int) (*sonify.Frame, error) {
	y, err := f.Floats(on)
	if err != nil {
		return nil, fmt.Errorf("polynomial fit: %w", err)
	}
	n := len(y)
	if degree < 1 || degree >= n {
		return nil, fmt.Errorf("polynomial fit: %w: degree %d needs between 1 and %d",
			sonify.ErrDegenerateFit, degree, n-1)
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	features, err := polynomialFeatures(x, degree)
	if err != nil {
		return nil, fmt.Errorf("polynomial fit: %w", err)
	}
	model, err := fitLeastSquares(features, y)
	if err != nil {
		return nil, fmt.Errorf("polynomial fit: %w", err)
	}

	return f.WithFloats(columnName(to, on, "polynomial_fit"), model.predict(features))
}

// splitIndices shuffles 0..n-1 with a fixed seed and returns the training and
// validation rows. The validation share is ceil(0.2 n).
func splitIndices(n int) (train, validation []int) {
	nValidation := int(math.Ceil(validationShare * float64(n)))
	perm := rand.New(rand.NewPCG(splitSeed, splitSeed)).Perm(n)
	return perm[nValidation:], perm[:nValidation]
}

func pick(rows []int, y []float64) (x, values []float64) {
	x = make([]float64, len(rows))
	values = make([]float64, len(rows))
	for i, r := range rows {
		x[i] = float64(r)
		values[i] = y[r]
	}
	return x, values
}

// polynomialFeatures expands x into rows [x, x^2, ..., x^degree]. The constant
// term is handled by the intercept of the model.
func polynomialFeatures(x []float64, degree int) ([][]float64, error) {
	rows := make([][]float64, len(x))
	for i, v := range x {
		row := make([]float64, degree)
		p := 1.0
		for d := range row {
			p *= v
			if math.IsInf(p, 0) || math.IsNaN(p) {
				return nil, fmt.Errorf("%w: polynomial features are not finite at degree %d", sonify.ErrDegenerateFit, degree)
			}
			row[d] = p
		}
		rows[i] = row
	}
	return rows, nil
}

type polynomialModel struct {
	intercept float64
	coef      []float64
}

func (m polynomialModel) predict(features [][]float64) []float64 {
	out := make([]float64, len(features))
	for i, row := range features {
		out[i] = m.intercept + floats.Dot(m.coef, row)
	}
	return out
}

// fitLeastSquares solves the ordinary least squares problem with an intercept.
// Features and targets are centered, then the minimum-norm solution is taken
// from a thin SVD, dropping singular values below eps*max(m, n) relative to
// the largest one.
func fitLeastSquares(features [][]float64, y []float64) (polynomialModel, error) {
	m := len(features)
	if m == 0 {
		return polynomialModel{}, fmt.Errorf("%w: no training samples", sonify.ErrDegenerateFit)
	}
	d := len(features[0])

	featureMean := make([]float64, d)
	for _, row := range features {
		floats.Add(featureMean, row)
	}
	floats.Scale(1/float64(m), featureMean)
	targetMean := floats.Sum(y) / float64(m)

	a := mat.NewDense(m, d, nil)
	b := mat.NewVecDense(m, nil)
	for i, row := range features {
		for j, v := range row {
			a.Set(i, j, v-featureMean[j])
		}
		b.SetVec(i, y[i]-targetMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return polynomialModel{}, fmt.Errorf("%w: singular value decomposition did not converge", sonify.ErrDegenerateFit)
	}

	coef := make([]float64, d)
	rank := svd.Rank(machineEpsilon * float64(max(m, d)))
	if rank > 0 {
		var solution mat.VecDense
		svd.SolveVecTo(&solution, b, rank)
		for j := range coef {
			coef[j] = solution.AtVec(j)
		}
	}

	return polynomialModel{
		intercept: targetMean - floats.Dot(featureMean, coef),
		coef:      coef,
	}, nil
}

func meanSquaredError(want, got []float64) float64 {
	if len(want) == 0 {
		return 0
	}
	var sum float64
	for i := range want {
		diff := want[i] - got[i]
		sum += diff * diff
	}
	return sum / float64(len(want))
}
