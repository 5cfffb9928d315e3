package consistency

import (
	"math"
	"sort"

	"github.com/katalvlaran/lvslam/matrix"
)

const (
	eigenTol     = 1e-12
	eigenMaxIter = 10000
)

type selection struct {
	members []int // hypothesis indices, ascending
	values  []float64
	ratio   float64
}

// selectDominant extracts the dominant consistent cluster of a.
//
// Implementation:
//   - Stage 1: Jacobi eigen-decomposition; v1 is flipped to a non-negative sum.
//   - Stage 2: Order indices by v1 descending and keep the prefix maximising
//     uᵀAu / uᵀu for the 0/1 indicator u.
//   - Stage 3: ratio = λ1/λ2 (+Inf when λ2 <= 0).
func selectDominant(a *matrix.Dense) (selection, error) {
	vals, vecs, err := matrix.Eigen(a, eigenTol, eigenMaxIter)
	if err != nil {
		return selection{}, err
	}
	n := a.Rows()
	v1 := vecs.Column(0)
	var sum float64
	for _, x := range v1 {
		sum += x
	}
	if sum < 0 {
		for i := range v1 {
			v1[i] = -v1[i]
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return v1[order[i]] > v1[order[j]] })

	var (
		block, best float64
		bestK       int
	)
	for k := 1; k <= n; k++ {
		// grow the block sum by row/column order[k-1]
		idx := order[k-1]
		for m := 0; m < k; m++ {
			x, _ := a.At(idx, order[m])
			if m == k-1 {
				block += x
			} else {
				block += 2 * x
			}
		}
		if s := block / float64(k); s > best {
			best, bestK = s, k
		}
	}

	members := append([]int(nil), order[:bestK]...)
	sort.Ints(members)

	ratio := math.Inf(1)
	if n > 1 && vals[1] > 0 {
		ratio = vals[0] / vals[1]
	}

	return selection{members: members, values: vals, ratio: ratio}, nil
}
