package anomaly

import (
	"math"
	"math/rand/v2"
)

// eulerGamma is the Euler-Mascheroni constant used by the harmonic approximation
const eulerGamma = 0.5772156649

// IsolationForestDetector flags the points an isolation forest finds easiest
// to separate. A fresh forest is grown on every call, so the detector carries
// no fitted state between calls.
//
// Points whose anomaly score is strictly above the (1 - Contamination)
// percentile of all scores are flagged. Ties never cross the threshold, so a
// constant sequence produces no flags.
type IsolationForestDetector struct {
	Contamination float64
	NumTrees      int
	MaxSamples    int
	Seed          uint64
}

func init() {
	RegisterMethod(MethodIsolationForest, func(cfg MethodConfig) IndexDetector {
		return &IsolationForestDetector{
			Contamination: cfg.Contamination,
			NumTrees:      cfg.NumTrees,
			MaxSamples:    cfg.MaxSamples,
			Seed:          cfg.Seed,
		}
	})
}

// Name returns the method name
func (d *IsolationForestDetector) Name() string {
	return MethodIsolationForest
}

// Detect grows a forest over values and returns the outlying indices
func (d *IsolationForestDetector) Detect(values []float64) []int {
	if len(values) < 2 {
		return nil
	}

	contamination := d.Contamination
	if contamination <= 0 || contamination >= 0.5 {
		contamination = 0.1
	}

	scores := d.Scores(values)
	threshold := Percentile(scores, 100*(1-contamination))

	var indices []int
	for i, s := range scores {
		if s > threshold {
			indices = append(indices, i)
		}
	}
	return indices
}

// Scores fits a forest over values and returns the anomaly score of each
// point, in [0, 1] where higher is more isolated.
func (d *IsolationForestDetector) Scores(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	forest := newIsolationForest(d.NumTrees, d.MaxSamples, newRand(d.Seed))
	forest.fit(values)

	scores := make([]float64, len(values))
	for i, v := range values {
		scores[i] = forest.score(v)
	}
	return scores
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// isolationForest is a bag of isolation trees over one-dimensional data
type isolationForest struct {
	numTrees   int
	maxSamples int
	sampleSize int
	trees      []*isolationNode
	rng        *rand.Rand
}

// isolationNode is a node in an isolation tree
type isolationNode struct {
	splitValue float64
	left       *isolationNode
	right      *isolationNode
	size       int
	isLeaf     bool
}

func newIsolationForest(numTrees, maxSamples int, rng *rand.Rand) *isolationForest {
	if numTrees <= 0 {
		numTrees = 100
	}
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &isolationForest{
		numTrees:   numTrees,
		maxSamples: maxSamples,
		rng:        rng,
	}
}

func (f *isolationForest) fit(data []float64) {
	f.sampleSize = min(f.maxSamples, len(data))
	maxDepth := int(math.Ceil(math.Log2(math.Max(float64(f.sampleSize), 2))))

	f.trees = make([]*isolationNode, f.numTrees)
	for i := range f.trees {
		sample := f.subsample(data)
		f.trees[i] = f.buildTree(sample, 0, maxDepth)
	}
}

// subsample draws sampleSize points without replacement
func (f *isolationForest) subsample(data []float64) []float64 {
	perm := f.rng.Perm(len(data))
	sample := make([]float64, f.sampleSize)
	for i := range sample {
		sample[i] = data[perm[i]]
	}
	return sample
}

func (f *isolationForest) buildTree(data []float64, depth, maxDepth int) *isolationNode {
	if len(data) <= 1 || depth >= maxDepth {
		return &isolationNode{size: len(data), isLeaf: true}
	}

	// Random split value between min and max
	minVal, maxVal := minMax(data)
	if minVal == maxVal {
		return &isolationNode{size: len(data), isLeaf: true}
	}

	splitValue := minVal + f.rng.Float64()*(maxVal-minVal)

	// Partition data
	var left, right []float64
	for _, v := range data {
		if v < splitValue {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}

	return &isolationNode{
		splitValue: splitValue,
		left:       f.buildTree(left, depth+1, maxDepth),
		right:      f.buildTree(right, depth+1, maxDepth),
		size:       len(data),
	}
}

// score returns 2^(-E[h(x)] / c(sampleSize)); closer to 1 is more anomalous
func (f *isolationForest) score(value float64) float64 {
	if len(f.trees) == 0 {
		return 0.5
	}

	var total float64
	for _, tree := range f.trees {
		total += pathLength(tree, value, 0)
	}
	avgPath := total / float64(len(f.trees))

	c := averagePathLength(float64(f.sampleSize))
	if c == 0 {
		return 0.5
	}
	return math.Pow(2, -avgPath/c)
}

func pathLength(node *isolationNode, value float64, depth int) float64 {
	if node.isLeaf {
		return float64(depth) + averagePathLength(float64(node.size))
	}

	if value < node.splitValue {
		return pathLength(node.left, value, depth+1)
	}
	return pathLength(node.right, value, depth+1)
}

// averagePathLength is c(n), the mean path length of an unsuccessful search
// in a binary search tree of n points.
func averagePathLength(n float64) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	return 2*(math.Log(n-1)+eulerGamma) - 2*(n-1)/n
}

func minMax(data []float64) (lo, hi float64) {
	lo, hi = data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
