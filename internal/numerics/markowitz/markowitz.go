// Package markowitz implements the closed-form fully-invested
// mean-variance and tracking-error solver and its efficient-frontier
// sweep. There is no general-purpose numerical optimiser here: the
// single-term analytic solution is preferred over gonum's iterative
// optimize.Minimize (used elsewhere in the ecosystem for non-closed-form
// objectives) because it is exact and immune to the convergence/
// conditioning issues an iterative method carries.
package markowitz

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/matrixops"
)

// Scalars are the closed-form intermediates A, B, C, D shared by the
// optimum weight formula and the unconstrained minimum-variance point.
type Scalars struct {
	A, B, C, D float64
}

// Solution is one closed-form solve: the weight vector and the scalars it
// was derived from.
type Solution struct {
	Weights []float64
	Scalars Scalars
	// MinVarReturn and MinVarVariance are the unconstrained
	// minimum-variance point (μ*=A/C, σ²*=1/C).
	MinVarReturn   float64
	MinVarVariance float64
}

// FrontierPoint is one swept (target_return, tracking_error,
// portfolio_volatility) triple.
type FrontierPoint struct {
	TargetReturn       float64
	TrackingError      float64
	PortfolioVolatility float64
}

// Solve computes w = argmin wᵀΣw s.t. μᵀw = τ, uᵀw = 1, in closed form.
//
// A = μᵀΣ⁻¹μ, B = μᵀΣ⁻¹u, C = uᵀΣ⁻¹u, D = A - B²/C,
// w = [Σ⁻¹u·(A - Bτ) + Σ⁻¹μ·(Cτ - B)] / (C·D), the two-fund solution to the
// Lagrangian system [A B; B C]·[λ; γ] = [τ; 1] with w = λ·Σ⁻¹μ + γ·Σ⁻¹u.
func Solve(mu []float64, sigma *mat.Dense, u []float64, tau float64) (*Solution, error) {
	const op = "markowitz.Solve"
	n := len(mu)
	r, c := sigma.Dims()
	if r != c || r != n || len(u) != n {
		return nil, &errs.ShapeError{Op: op, Detail: "dimensions of mu, sigma, u are incompatible"}
	}

	sigmaInv, _, err := matrixops.Invert(op, sigma)
	if err != nil {
		return nil, err
	}

	sigmaInvMu := matrixops.MatVec(sigmaInv, mu)
	sigmaInvU := matrixops.MatVec(sigmaInv, u)

	A := dot(mu, sigmaInvMu)
	B := dot(mu, sigmaInvU)
	C := dot(u, sigmaInvU)
	D := A - B*B/C

	if C == 0 || math.Abs(D) < 1e-12 {
		return nil, &errs.DegenerateFrontierError{Op: op, Detail: "D is zero or near-zero: mu is collinear with u"}
	}

	cd := C * D
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = (sigmaInvU[i]*(A-B*tau) + sigmaInvMu[i]*(C*tau-B)) / cd
	}

	return &Solution{
		Weights:        w,
		Scalars:        Scalars{A: A, B: B, C: C, D: D},
		MinVarReturn:   A / C,
		MinVarVariance: 1 / C,
	}, nil
}

// TrackingErrorMode solves with μ = mean(E), Σ = Σ^e: the same solver as
// Solve, served with excess-return inputs.
func TrackingErrorMode(excessMean []float64, excessCov *mat.Dense, u []float64, tau float64) (*Solution, error) {
	return Solve(excessMean, excessCov, u, tau)
}

// MeanVarianceMode solves with μ = mean(R), Σ = Σ: plain mean-variance.
func MeanVarianceMode(returnsMean []float64, cov *mat.Dense, u []float64, tau float64) (*Solution, error) {
	return Solve(returnsMean, cov, u, tau)
}

// frontierJob is one target-return point to solve, indexed so results can
// be slotted back into sweep order regardless of which worker finishes
// first.
type frontierJob struct {
	index int
	tau   float64
}

// frontierResult is one job's outcome: either a solved point or a
// degenerate/ill-conditioned miss, keyed by the same index as its job.
type frontierResult struct {
	index int
	tau   float64
	point FrontierPoint
	ok    bool
}

// Frontier sweeps K equally spaced target returns between start and
// start+(K-1)*step across a bounded pool of GOMAXPROCS workers, solving the
// tracking-error problem at each and reporting both √(wᵀΣw) and √(wᵀΣ^e w).
// Results are collected into a pre-sized, index-addressed slice rather than
// appended in completion order, so the sweep is bit-identical to a serial
// run regardless of scheduling. A single degenerate or ill-conditioned
// point is omitted from the result rather than failing the whole sweep —
// per the engine's "one bad point doesn't kill the sweep" error policy —
// and its target return is returned in `omitted`.
func Frontier(muSolve []float64, sigmaSolve *mat.Dense, sigmaVol *mat.Dense, sigmaTE *mat.Dense, u []float64, k int, start, step float64) (points []FrontierPoint, omitted []float64) {
	if k <= 0 {
		return nil, nil
	}

	jobs := make(chan frontierJob, k)
	results := make(chan frontierResult, k)

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > k {
		numWorkers = k
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			frontierWorker(jobs, results, muSolve, sigmaSolve, sigmaVol, sigmaTE, u)
		}()
	}

	for i := 0; i < k; i++ {
		jobs <- frontierJob{index: i, tau: start + float64(i)*step}
	}
	close(jobs)

	wg.Wait()
	close(results)

	collected := make([]frontierResult, k)
	for r := range results {
		collected[r.index] = r
	}

	points = make([]FrontierPoint, 0, k)
	omitted = make([]float64, 0)
	for _, r := range collected {
		if r.ok {
			points = append(points, r.point)
		} else {
			omitted = append(omitted, r.tau)
		}
	}
	return points, omitted
}

func frontierWorker(jobs <-chan frontierJob, results chan<- frontierResult, muSolve []float64, sigmaSolve, sigmaVol, sigmaTE *mat.Dense, u []float64) {
	for job := range jobs {
		sol, err := Solve(muSolve, sigmaSolve, u, job.tau)
		if err != nil {
			results <- frontierResult{index: job.index, tau: job.tau, ok: false}
			continue
		}
		vol := math.Sqrt(math.Max(matrixops.QuadForm(sol.Weights, sigmaVol), 0))
		te := math.Sqrt(math.Max(matrixops.QuadForm(sol.Weights, sigmaTE), 0))
		results <- frontierResult{
			index: job.index,
			tau:   job.tau,
			ok:    true,
			point: FrontierPoint{
				TargetReturn:        job.tau,
				TrackingError:       te,
				PortfolioVolatility: vol,
			},
		}
	}
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
