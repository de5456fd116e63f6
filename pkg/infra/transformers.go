package infra

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/nxc1802/REMB/pkg/geo"
)

// Transformer is one placed transformer and the lots it serves.
type Transformer struct {
	Position geo.Point `json:"position"`
	LotIDs   []int     `json:"lot_ids"`
	LoadKW   float64   `json:"load_kw"`
}

// TransformerOptions configures placement.
type TransformerOptions struct {
	// CapacityKVA caps each transformer's summed load. Default 1000.
	CapacityKVA float64
	// LoadPerLotKW is the default per-lot demand when loads is nil. Default 100.
	LoadPerLotKW float64
	// LotsPerTransformer is a sizing hint: the cluster-count search starts
	// no lower than n/LotsPerTransformer. 0 disables the hint.
	LotsPerTransformer int
	// TransformerCost and CableCostPerM weight the placement cost.
	TransformerCost float64
	CableCostPerM   float64
	// LoadVarianceWeight penalises uneven cluster loads in the cost.
	LoadVarianceWeight float64
	// MaxIterations bounds Lloyd's algorithm. Default 100.
	MaxIterations int
	// ConvergenceTol stops iteration when the largest centre movement is
	// below this, metres. Default 0.1.
	ConvergenceTol float64
	Seed           int64
}

func (o TransformerOptions) withDefaults() TransformerOptions {
	if o.CapacityKVA <= 0 {
		o.CapacityKVA = 1000
	}
	if o.LoadPerLotKW <= 0 {
		o.LoadPerLotKW = 100
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 100
	}
	if o.ConvergenceTol <= 0 {
		o.ConvergenceTol = 0.1
	}
	return o
}

// PlanTransformers clusters lot centroids with k-means and returns one
// transformer per cluster. k is the smallest count in
// [ceil(sumLoad/capacity), 2*ceil(sumLoad/capacity)] whose clustering keeps
// every cluster's load within the capacity; the scan stops at that count and
// larger counts are not tried. If no count in the range is feasible, the
// largest is used and the caller receives an error to downgrade into a
// warning.
func PlanTransformers(centroids []geo.Point, loads []float64, opts TransformerOptions) ([]Transformer, error) {
	opts = opts.withDefaults()
	n := len(centroids)
	if n == 0 {
		return nil, nil
	}
	if loads == nil {
		loads = make([]float64, n)
		for i := range loads {
			loads[i] = opts.LoadPerLotKW
		}
	}

	totalLoad := floats.Sum(loads)
	kMin := int(math.Ceil(totalLoad / opts.CapacityKVA))
	if kMin < 1 {
		kMin = 1
	}
	kMax := 2 * kMin
	if opts.LotsPerTransformer > 0 {
		if hint := (n + opts.LotsPerTransformer - 1) / opts.LotsPerTransformer; hint > kMin {
			kMin = hint
			if kMax < kMin {
				kMax = kMin
			}
		}
	}
	if kMax > n {
		kMax = n
	}
	if kMin > n {
		kMin = n
	}

	bestK := -1
	bestCost := math.Inf(1)
	var best []Transformer
	var fallback []Transformer
	for k := kMin; k <= kMax; k++ {
		centres, assign := kmeans(centroids, k, opts)
		transformers := collect(centres, assign, centroids, loads)
		fallback = transformers
		if !feasible(transformers, opts.CapacityKVA) {
			continue
		}
		cost := placementCost(transformers, centroids, assign, opts)
		if bestK < 0 || cost < bestCost {
			bestK = k
			bestCost = cost
			best = transformers
		}
		break
	}
	if bestK < 0 {
		return fallback, fmt.Errorf("infra: no transformer count in [%d, %d] satisfies %.0f kVA capacity",
			kMin, kMax, opts.CapacityKVA)
	}
	return best, nil
}

func feasible(transformers []Transformer, capacity float64) bool {
	for _, t := range transformers {
		if t.LoadKW > capacity {
			return false
		}
	}
	return true
}

// placementCost scores a placement: transformer count, cable length to each
// served lot, and the variance of cluster loads.
func placementCost(transformers []Transformer, centroids []geo.Point, assign []int, opts TransformerOptions) float64 {
	cable := 0.0
	for i, a := range assign {
		cable += centroids[i].Distance(transformers[a].Position)
	}
	clusterLoads := make([]float64, len(transformers))
	for i, t := range transformers {
		clusterLoads[i] = t.LoadKW
	}
	variance := 0.0
	if len(clusterLoads) > 1 {
		variance = stat.Variance(clusterLoads, nil)
	}
	return float64(len(transformers))*opts.TransformerCost +
		cable*opts.CableCostPerM +
		opts.LoadVarianceWeight*variance
}

func collect(centres []geo.Point, assign []int, centroids []geo.Point, loads []float64) []Transformer {
	transformers := make([]Transformer, len(centres))
	for i, c := range centres {
		transformers[i] = Transformer{Position: c}
	}
	for i, a := range assign {
		transformers[a].LotIDs = append(transformers[a].LotIDs, i)
		transformers[a].LoadKW += loads[i]
	}
	return transformers
}

// kmeans runs Lloyd's algorithm with k-means++ initialisation and returns
// the centres and per-point assignment. Deterministic for a fixed seed.
func kmeans(points []geo.Point, k int, opts TransformerOptions) ([]geo.Point, []int) {
	n := len(points)
	if k >= n {
		assign := make([]int, n)
		for i := range assign {
			assign[i] = i
		}
		return append([]geo.Point{}, points...), assign
	}
	rng := rand.New(rand.NewSource(opts.Seed + int64(k)))
	centres := seedPlusPlus(points, k, rng)
	assign := make([]int, n)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		// Assignment step.
		for i, p := range points {
			best := 0
			bestDist := math.Inf(1)
			for c, centre := range centres {
				if d := p.Distance(centre); d < bestDist {
					bestDist = d
					best = c
				}
			}
			assign[i] = best
		}
		// Update step.
		sums := make([]geo.Point, k)
		counts := make([]int, k)
		for i, p := range points {
			sums[assign[i]] = sums[assign[i]].Add(p)
			counts[assign[i]]++
		}
		maxMove := 0.0
		for c := range centres {
			if counts[c] == 0 {
				continue
			}
			next := sums[c].Scale(1 / float64(counts[c]))
			if move := next.Distance(centres[c]); move > maxMove {
				maxMove = move
			}
			centres[c] = next
		}
		if maxMove < opts.ConvergenceTol {
			break
		}
	}
	return centres, assign
}

// seedPlusPlus picks initial centres with the k-means++ weighting.
func seedPlusPlus(points []geo.Point, k int, rng *rand.Rand) []geo.Point {
	centres := make([]geo.Point, 0, k)
	centres = append(centres, points[rng.Intn(len(points))])
	dist := make([]float64, len(points))
	for len(centres) < k {
		total := 0.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centres {
				if dd := p.Distance(c); dd < d {
					d = dd
				}
			}
			dist[i] = d * d
			total += dist[i]
		}
		if total < 1e-12 {
			centres = append(centres, points[rng.Intn(len(points))])
			continue
		}
		r := rng.Float64() * total
		acc := 0.0
		chosen := len(points) - 1
		for i, d := range dist {
			acc += d
			if acc >= r {
				chosen = i
				break
			}
		}
		centres = append(centres, points[chosen])
	}
	return centres
}
