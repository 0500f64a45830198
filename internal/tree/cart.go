// Package tree fits one interpretable decision tree per group and
// renders its rules. Count targets use variance-reduction splits,
// presence targets use Gini splits.
package tree

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/statadvice/accidents/internal/series"
)

// Kind selects the split criterion.
type Kind int

const (
	Regression Kind = iota
	Classification
)

// Params bounds tree growth.
type Params struct {
	Kind     Kind
	MaxDepth int
	MinLeaf  int
}

// Node is one tree node. Leaves have Feature == -1.
type Node struct {
	Feature     int     // predictor index, -1 for leaf
	Threshold   float64 // go left when value <= threshold
	MissingLeft bool    // missing values follow the majority branch
	Prediction  float64 // mean count, or positive-class fraction
	Samples     int
	Left        *Node
	Right       *Node
}

// IsLeaf reports whether the node terminates a path.
func (n *Node) IsLeaf() bool {
	return n.Feature < 0
}

// Model is a fitted tree for one group.
type Model struct {
	Root  *Node
	Names []string
	Kind  Kind
	Rows  int
}

// Fit grows a tree on the full matrix; there is no holdout. Splits are
// searched over non-missing values only; rows missing the chosen
// predictor follow the branch that received more rows.
func Fit(m series.Matrix, p Params) (*Model, error) {
	if len(m.Rows) == 0 {
		return nil, eris.New("tree: empty training matrix")
	}
	if p.MaxDepth <= 0 || p.MinLeaf <= 0 {
		return nil, eris.Errorf("tree: invalid params (max_depth=%d, min_leaf=%d)", p.MaxDepth, p.MinLeaf)
	}

	idx := make([]int, len(m.Rows))
	for i := range idx {
		idx[i] = i
	}

	root := grow(m, idx, p, 0)
	return &Model{Root: root, Names: m.Names, Kind: p.Kind, Rows: len(m.Rows)}, nil
}

// Predict evaluates one row against the fitted tree.
func (mo *Model) Predict(row []*float64) float64 {
	n := mo.Root
	for !n.IsLeaf() {
		v := row[n.Feature]
		switch {
		case v == nil:
			if n.MissingLeft {
				n = n.Left
			} else {
				n = n.Right
			}
		case *v <= n.Threshold:
			n = n.Left
		default:
			n = n.Right
		}
	}
	return n.Prediction
}

// FitGroups fits one tree per group. Fits are independent, so they run
// concurrently up to the worker limit; the observable result is the
// same as a sequential loop.
func FitGroups(ctx context.Context, matrices map[series.GroupID]series.Matrix, p Params, workers int) (map[series.GroupID]*Model, error) {
	if workers < 1 {
		workers = 1
	}

	groups := make([]series.GroupID, 0, len(matrices))
	for g := range matrices {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })

	models := make([]*Model, len(groups))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, g := range groups {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mo, err := Fit(matrices[g], p)
			if err != nil {
				return eris.Wrapf(err, "tree: fit group %s", g)
			}
			models[i] = mo
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(map[series.GroupID]*Model, len(groups))
	for i, g := range groups {
		out[g] = models[i]
	}

	zap.L().Info("fitted trees",
		zap.String("component", "tree"),
		zap.Int("groups", len(out)),
		zap.Int("max_depth", p.MaxDepth),
	)
	return out, nil
}

func grow(m series.Matrix, idx []int, p Params, depth int) *Node {
	node := &Node{
		Feature:    -1,
		Prediction: mean(m.Target, idx),
		Samples:    len(idx),
	}

	if depth >= p.MaxDepth || len(idx) < 2*p.MinLeaf || pure(m.Target, idx) {
		return node
	}

	feat, threshold, ok := bestSplit(m, idx, p)
	if !ok {
		return node
	}

	var left, right, missing []int
	for _, i := range idx {
		v := m.Rows[i][feat]
		switch {
		case v == nil:
			missing = append(missing, i)
		case *v <= threshold:
			left = append(left, i)
		default:
			right = append(right, i)
		}
	}
	if len(left) < p.MinLeaf || len(right) < p.MinLeaf {
		return node
	}

	missingLeft := len(left) >= len(right)
	if missingLeft {
		left = append(left, missing...)
	} else {
		right = append(right, missing...)
	}

	node.Feature = feat
	node.Threshold = threshold
	node.MissingLeft = missingLeft
	node.Left = grow(m, left, p, depth+1)
	node.Right = grow(m, right, p, depth+1)
	return node
}

// bestSplit scans every predictor and candidate threshold; features in
// index order and thresholds ascending, with strict improvement
// required, keep the search deterministic.
func bestSplit(m series.Matrix, idx []int, p Params) (feature int, threshold float64, ok bool) {
	bestScore := math.Inf(1)

	for f := 0; f < len(m.Names); f++ {
		type vt struct {
			v, t float64
		}
		pairs := make([]vt, 0, len(idx))
		for _, i := range idx {
			if val := m.Rows[i][f]; val != nil {
				pairs = append(pairs, vt{*val, m.Target[i]})
			}
		}
		if len(pairs) < 2*p.MinLeaf {
			continue
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

		for cut := 0; cut < len(pairs)-1; cut++ {
			if pairs[cut].v == pairs[cut+1].v {
				continue
			}
			if cut+1 < p.MinLeaf || len(pairs)-cut-1 < p.MinLeaf {
				continue
			}

			var leftT, rightT []float64
			for i, pr := range pairs {
				if i <= cut {
					leftT = append(leftT, pr.t)
				} else {
					rightT = append(rightT, pr.t)
				}
			}

			score := impurity(leftT, p.Kind)*float64(len(leftT)) +
				impurity(rightT, p.Kind)*float64(len(rightT))
			if score < bestScore {
				bestScore = score
				feature = f
				threshold = (pairs[cut].v + pairs[cut+1].v) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func impurity(targets []float64, kind Kind) float64 {
	if len(targets) == 0 {
		return 0
	}
	if kind == Classification {
		var pos float64
		for _, t := range targets {
			if t > 0 {
				pos++
			}
		}
		p := pos / float64(len(targets))
		return 2 * p * (1 - p) // Gini for two classes
	}
	// Variance for regression.
	var sum, sumSq float64
	for _, t := range targets {
		sum += t
		sumSq += t * t
	}
	n := float64(len(targets))
	return sumSq/n - (sum/n)*(sum/n)
}

func mean(target []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += target[i]
	}
	return sum / float64(len(idx))
}

func pure(target []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if target[i] != target[idx[0]] {
			return false
		}
	}
	return true
}
