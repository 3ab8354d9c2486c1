package model

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Tree is a binary regression tree stored as parallel node arrays. Node 0 is
// the root; a node with Feature -1 is a leaf predicting Value. Children
// always have a higher index than their parent.
type Tree struct {
	Feature   []int     `yaml:"feature,flow"`
	Threshold []float64 `yaml:"threshold,flow"`
	Left      []int     `yaml:"left,flow"`
	Right     []int     `yaml:"right,flow"`
	Value     []float64 `yaml:"value,flow"`
}

const leaf = -1

// Predict walks x down to a leaf. Samples with x[feature] <= threshold go
// left.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for t.Feature[i] != leaf {
		if x[t.Feature[i]] <= t.Threshold[i] {
			i = t.Left[i]
		} else {
			i = t.Right[i]
		}
	}
	return t.Value[i]
}

// Nodes returns the number of nodes.
func (t *Tree) Nodes() int {
	return len(t.Feature)
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	depth := make([]int, t.Nodes())
	deepest := 0
	for i, f := range t.Feature {
		if f == leaf {
			continue
		}
		for _, c := range []int{t.Left[i], t.Right[i]} {
			depth[c] = depth[i] + 1
			deepest = max(deepest, depth[c])
		}
	}
	return deepest
}

// Validate checks the node arrays against a feature count.
func (t *Tree) Validate(features int) error {
	n := len(t.Feature)
	if n == 0 {
		return errors.New("tree has no nodes")
	}
	if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
		return errors.New("tree node arrays differ in length")
	}
	for i, f := range t.Feature {
		if f == leaf {
			if math.IsNaN(t.Value[i]) || math.IsInf(t.Value[i], 0) {
				return fmt.Errorf("leaf %d has no value", i)
			}
			continue
		}
		if f < 0 || f >= features {
			return fmt.Errorf("%w: node %d splits on feature %d", ErrFeatureMismatch, i, f)
		}
		if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
			return fmt.Errorf("node %d has invalid children", i)
		}
	}
	return nil
}

// Forest averages the predictions of its trees.
type Forest struct {
	Trees []Tree `yaml:"trees"`
}

// Predict is the mean prediction of all trees.
func (f *Forest) Predict(x []float64) float64 {
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// Validate checks every tree.
func (f *Forest) Validate(features int) error {
	if len(f.Trees) == 0 {
		return errors.New("random forest model has no trees")
	}
	for i := range f.Trees {
		if err := f.Trees[i].Validate(features); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// ForestOptions controls tree growth.
type ForestOptions struct {
	Trees          int
	MaxDepth       int
	MinSamplesLeaf int
	Seed           uint64
}

// fitForest grows opts.Trees trees, each on a bootstrap sample of rows.
// Every tree draws from its own generator seeded by (Seed, tree index), so
// the result does not depend on how the trees are scheduled.
func fitForest(ctx context.Context, x [][]float64, y []float64, rows []int, opts ForestOptions) (*Forest, error) {
	if len(rows) == 0 {
		return nil, errors.New("no rows to grow trees on")
	}
	if opts.Trees < 1 || opts.MaxDepth < 1 || opts.MinSamplesLeaf < 1 {
		return nil, fmt.Errorf("invalid forest options %+v", opts)
	}

	forest := &Forest{Trees: make([]Tree, opts.Trees)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range forest.Trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(opts.Seed, uint64(i)))
			sample := make([]int, len(rows))
			for j := range sample {
				sample[j] = rows[rng.IntN(len(rows))]
			}

			gr := grower{x: x, y: y, opts: opts, rng: rng}
			gr.grow(sample, 0)
			forest.Trees[i] = gr.tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return forest, nil
}

// grower builds one tree by recursive variance-reduction splits.
type grower struct {
	x    [][]float64
	y    []float64
	opts ForestOptions
	rng  *rand.Rand
	tree Tree
}

func (g *grower) addLeaf(value float64) int {
	t := &g.tree
	t.Feature = append(t.Feature, leaf)
	t.Threshold = append(t.Threshold, 0)
	t.Left = append(t.Left, leaf)
	t.Right = append(t.Right, leaf)
	t.Value = append(t.Value, value)
	return len(t.Feature) - 1
}

func (g *grower) grow(idx []int, depth int) int {
	targets := make([]float64, len(idx))
	for i, r := range idx {
		targets[i] = g.y[r]
	}
	node := g.addLeaf(floats.Sum(targets) / float64(len(idx)))

	if depth >= g.opts.MaxDepth || len(idx) < 2*g.opts.MinSamplesLeaf ||
		floats.Max(targets) == floats.Min(targets) {
		return node
	}

	feature, threshold, ok := g.bestSplit(idx)
	if !ok {
		return node
	}

	var left, right []int
	for _, r := range idx {
		if g.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := g.grow(left, depth+1)
	r := g.grow(right, depth+1)
	g.tree.Feature[node] = feature
	g.tree.Threshold[node] = threshold
	g.tree.Left[node] = l
	g.tree.Right[node] = r
	return node
}

// bestSplit finds the split that most reduces the squared error, visiting
// features in a random order so equal gains are broken by the tree's seed.
func (g *grower) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	n := len(idx)
	minLeaf := g.opts.MinSamplesLeaf

	var total float64
	for _, r := range idx {
		total += g.y[r]
	}
	// maximising sumL²/nL + sumR²/nR minimises the children's squared error
	best := total * total / float64(n)
	// gains below this are rounding noise
	minGain := 1e-12 * math.Max(best, 1)

	sorted := make([]int, n)
	for _, f := range g.rng.Perm(len(g.x[idx[0]])) {
		copy(sorted, idx)
		slices.SortFunc(sorted, func(a, b int) int {
			return cmp.Compare(g.x[a][f], g.x[b][f])
		})

		var sumLeft float64
		for i := 1; i < n; i++ {
			sumLeft += g.y[sorted[i-1]]
			lo, hi := g.x[sorted[i-1]][f], g.x[sorted[i]][f]
			if lo == hi || i < minLeaf || n-i < minLeaf {
				continue
			}
			sumRight := total - sumLeft
			score := sumLeft*sumLeft/float64(i) + sumRight*sumRight/float64(n-i)
			if score > best+minGain {
				best = score
				feature = f
				threshold = lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				ok = true
			}
		}
	}
	return feature, threshold, ok
}
