package artifacts

import (
	"context"
	"errors"
	"fmt"
)

// Tree is a fitted regression tree in array form. Node i is a leaf when
// ChildrenLeft[i] == -1; otherwise rows with x[Feature[i]] <= Threshold[i]
// go left.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

// Forest averages the output of its trees.
type Forest struct {
	NFeatures int    `json:"n_features"`
	Trees     []Tree `json:"trees"`
}

func (f *Forest) Name() string {
	return fmt.Sprintf("forest(%d trees)", len(f.Trees))
}

// Validate checks the structural integrity of every tree.
func (f *Forest) Validate() error {
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	if f.NFeatures <= 0 {
		return errors.New("forest n_features must be positive")
	}
	for i, t := range f.Trees {
		if err := t.validate(f.NFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (t Tree) validate(nFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == -1 {
			continue
		}
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("node %d has out-of-range children", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d splits on unknown feature %d", i, t.Feature[i])
		}
	}
	return nil
}

func (t Tree) predict(row []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if row[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// Predict returns the mean tree output for each row.
func (f *Forest) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(row) != f.NFeatures {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), f.NFeatures)
		}
		var sum float64
		for _, t := range f.Trees {
			sum += t.predict(row)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}
