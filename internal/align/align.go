// Package align computes the affine transform that maps floorplan image
// points onto the reference grid. Users mark correspondences between plan
// features and grid intersections; the best-fit transform is solved by least
// squares with RANSAC outlier rejection.
package align

import (
	"fmt"
	"math"
	"math/rand"

	"floorplan-studio/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// Correspondence pairs a point on the floorplan image with its intended
// position on the reference grid.
type Correspondence struct {
	Plan geometry.Point2D `json:"plan"`
	Grid geometry.Point2D `json:"grid"`
}

// Result holds the fitted grid transform and its quality.
type Result struct {
	Transform geometry.AffineTransform
	Inliers   []int
	MeanError float64
}

// GridTransform fits an affine transform from plan space to grid space.
// Needs at least 3 correspondences; with more, RANSAC rejects outliers and
// the transform is refined over the inlier set.
func GridTransform(points []Correspondence) (Result, error) {
	if len(points) < 3 {
		return Result{}, fmt.Errorf("need at least 3 correspondences, got %d", len(points))
	}

	src := make([]geometry.Point2D, len(points))
	dst := make([]geometry.Point2D, len(points))
	for i, c := range points {
		src[i] = c.Plan
		dst[i] = c.Grid
	}

	transform, inliers, err := ransacAffine(src, dst, 2000, 3.0)
	if err != nil {
		return Result{}, err
	}

	var errSum float64
	for _, idx := range inliers {
		errSum += transform.Apply(src[idx]).Distance(dst[idx])
	}
	return Result{
		Transform: transform,
		Inliers:   inliers,
		MeanError: errSum / float64(len(inliers)),
	}, nil
}

// ransacAffine estimates an affine transform robust to outliers: sample
// minimal 3-point sets, score by inlier count under the distance threshold,
// then refit over the best inlier set.
func ransacAffine(src, dst []geometry.Point2D, iterations int, threshold float64) (geometry.AffineTransform, []int, error) {
	n := len(src)
	if n == 3 {
		t, err := affineFrom3(src, dst)
		if err != nil {
			return geometry.AffineTransform{}, nil, err
		}
		return t, []int{0, 1, 2}, nil
	}

	var bestInliers []int
	var bestTransform geometry.AffineTransform

	for iter := 0; iter < iterations; iter++ {
		indices := rand.Perm(n)[:3]

		sample := make([]geometry.Point2D, 3)
		target := make([]geometry.Point2D, 3)
		for i, idx := range indices {
			sample[i] = src[idx]
			target[i] = dst[idx]
		}

		transform, err := affineFrom3(sample, target)
		if err != nil {
			continue
		}

		var inliers []int
		for i := range src {
			if transform.Apply(src[i]).Distance(dst[i]) < threshold {
				inliers = append(inliers, i)
			}
		}
		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
			bestTransform = transform
		}
	}

	if len(bestInliers) < 3 {
		return geometry.AffineTransform{}, nil, fmt.Errorf("no consistent transform found")
	}

	inlierSrc := make([]geometry.Point2D, len(bestInliers))
	inlierDst := make([]geometry.Point2D, len(bestInliers))
	for i, idx := range bestInliers {
		inlierSrc[i] = src[idx]
		inlierDst[i] = dst[idx]
	}

	refined, err := affineLeastSquares(inlierSrc, inlierDst)
	if err != nil {
		return bestTransform, bestInliers, nil
	}
	return refined, bestInliers, nil
}

// affineFrom3 solves the exact affine transform from 3 point pairs.
func affineFrom3(src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	if len(src) != 3 || len(dst) != 3 {
		return geometry.AffineTransform{}, fmt.Errorf("need exactly 3 points")
	}
	return solveAffine(src, dst)
}

// affineLeastSquares solves the overdetermined affine fit for n >= 3 pairs.
func affineLeastSquares(src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	if len(src) < 3 {
		return geometry.AffineTransform{}, fmt.Errorf("need at least 3 points")
	}
	return solveAffine(src, dst)
}

// solveAffine builds the stacked system [x', y'] = [a b tx; c d ty]·[x y 1]
// and solves it in the least-squares sense.
func solveAffine(src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	n := len(src)
	A := mat.NewDense(n*2, 6, nil)
	B := mat.NewVecDense(n*2, nil)

	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, dst[i].X)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, dst[i].Y)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return geometry.AffineTransform{}, fmt.Errorf("failed to solve transform: %w", err)
	}

	t := geometry.AffineTransform{
		A: params.AtVec(0), B: params.AtVec(1), TX: params.AtVec(2),
		C: params.AtVec(3), D: params.AtVec(4), TY: params.AtVec(5),
	}
	if math.IsNaN(t.A) || math.IsNaN(t.D) {
		return geometry.AffineTransform{}, fmt.Errorf("degenerate point configuration")
	}
	return t, nil
}
