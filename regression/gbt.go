package regression

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options tunes GradientBoosting.
type Options struct {
	Estimators     int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
	// Lambda is the L2 penalty on leaf weights.
	Lambda float64
}

// DefaultOptions matches the gradient-boosting defaults the volume models
// were fitted with: 50 trees, learning rate 0.1, depth 6, lambda 1.
func DefaultOptions() Options {
	return Options{
		Estimators:     50,
		LearningRate:   0.1,
		MaxDepth:       6,
		MinSamplesLeaf: 1,
		Lambda:         1.0,
	}
}

// GradientBoosting is a squared-error boosted ensemble of regression trees.
// Training is deterministic for a given input.
type GradientBoosting struct {
	opts  Options
	base  float64
	trees []*node
}

// NewGradientBoosting returns an untrained model. Non-positive options fall
// back to DefaultOptions values.
func NewGradientBoosting(opts Options) *GradientBoosting {
	def := DefaultOptions()
	if opts.Estimators <= 0 {
		opts.Estimators = def.Estimators
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = def.LearningRate
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.MinSamplesLeaf <= 0 {
		opts.MinSamplesLeaf = def.MinSamplesLeaf
	}
	if opts.Lambda < 0 {
		opts.Lambda = def.Lambda
	}
	return &GradientBoosting{opts: opts}
}

// NewFactory returns a Factory producing GradientBoosting models.
func NewFactory(opts Options) Factory {
	return func() Predictor {
		return NewGradientBoosting(opts)
	}
}

// Train fits the ensemble, replacing any previous fit.
func (g *GradientBoosting) Train(features [][]float64, target []float64) error {
	width, err := validateTrainingSet(features, target)
	if err != nil {
		return err
	}

	g.base = stat.Mean(target, nil)
	g.trees = make([]*node, 0, g.opts.Estimators)

	n := len(target)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = g.base
	}
	residual := make([]float64, n)
	idx := make([]int, n)

	for m := 0; m < g.opts.Estimators; m++ {
		floats.SubTo(residual, target, pred)
		for i := range idx {
			idx[i] = i
		}
		b := treeBuilder{
			features: features,
			residual: residual,
			width:    width,
			opts:     g.opts,
		}
		tree := b.build(idx, 0)
		for i := range pred {
			pred[i] += g.opts.LearningRate * tree.predict(features[i])
		}
		g.trees = append(g.trees, tree)
	}
	return nil
}

// Predict returns the ensemble output for one feature vector.
func (g *GradientBoosting) Predict(features []float64) float64 {
	out := g.base
	for _, t := range g.trees {
		out += g.opts.LearningRate * t.predict(features)
	}
	return out
}

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

func (n *node) predict(x []float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type treeBuilder struct {
	features [][]float64
	residual []float64
	width    int
	opts     Options
}

type split struct {
	gain      float64
	feature   int
	threshold float64
	position  int
}

func (b *treeBuilder) build(idx []int, depth int) *node {
	sum := 0.0
	for _, i := range idx {
		sum += b.residual[i]
	}
	leaf := &node{leaf: true, value: sum / (float64(len(idx)) + b.opts.Lambda)}
	if depth >= b.opts.MaxDepth || len(idx) < 2*b.opts.MinSamplesLeaf {
		return leaf
	}

	best, ok := b.bestSplit(idx, sum)
	if !ok {
		return leaf
	}

	sorted := b.sortedBy(idx, best.feature)
	left := append([]int(nil), sorted[:best.position]...)
	right := append([]int(nil), sorted[best.position:]...)
	return &node{
		feature:   best.feature,
		threshold: best.threshold,
		left:      b.build(left, depth+1),
		right:     b.build(right, depth+1),
	}
}

func (b *treeBuilder) score(sum float64, count int) float64 {
	return sum * sum / (float64(count) + b.opts.Lambda)
}

func (b *treeBuilder) bestSplit(idx []int, total float64) (split, bool) {
	n := len(idx)
	parent := b.score(total, n)
	best := split{gain: 1e-12}
	found := false

	for f := 0; f < b.width; f++ {
		sorted := b.sortedBy(idx, f)
		leftSum := 0.0
		for k := 1; k < n; k++ {
			leftSum += b.residual[sorted[k-1]]
			if k < b.opts.MinSamplesLeaf || n-k < b.opts.MinSamplesLeaf {
				continue
			}
			lo := b.features[sorted[k-1]][f]
			hi := b.features[sorted[k]][f]
			if lo == hi {
				continue
			}
			gain := b.score(leftSum, k) + b.score(total-leftSum, n-k) - parent
			if gain > best.gain {
				best = split{gain: gain, feature: f, threshold: (lo + hi) / 2, position: k}
				found = true
			}
		}
	}
	return best, found
}

func (b *treeBuilder) sortedBy(idx []int, feature int) []int {
	sorted := append([]int(nil), idx...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return b.features[sorted[i]][feature] < b.features[sorted[j]][feature]
	})
	return sorted
}
