package tree

import (
	"fmt"
	"strings"
)

// Rule is one root-to-leaf path: a conjunction of predicates, the leaf
// prediction, and how much of the training table the leaf covers.
type Rule struct {
	Conditions []string
	Prediction float64
	Samples    int
	Coverage   float64 // fraction of training rows reaching the leaf
}

// Rules lists every leaf of the model in left-to-right order.
func (mo *Model) Rules() []Rule {
	var rules []Rule
	var walk func(n *Node, conds []string)
	walk = func(n *Node, conds []string) {
		if n.IsLeaf() {
			rules = append(rules, Rule{
				Conditions: append([]string(nil), conds...),
				Prediction: n.Prediction,
				Samples:    n.Samples,
				Coverage:   float64(n.Samples) / float64(mo.Rows),
			})
			return
		}
		name := mo.Names[n.Feature]
		left := fmt.Sprintf("%s <= %.3g", name, n.Threshold)
		right := fmt.Sprintf("%s > %.3g", name, n.Threshold)
		if n.MissingLeft {
			left += " (or missing)"
		} else {
			right += " (or missing)"
		}
		walk(n.Left, append(conds, left))
		walk(n.Right, append(conds, right))
	}
	walk(mo.Root, nil)
	return rules
}

// Format renders the model's rule listing for one group.
func (mo *Model) Format(group string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "rules for %s (%d rows):\n", group, mo.Rows)

	for _, r := range mo.Rules() {
		cond := strings.Join(r.Conditions, " AND ")
		if cond == "" {
			cond = "always"
		}

		pred := fmt.Sprintf("count ~ %.2f", r.Prediction)
		if mo.Kind == Classification {
			label := "no accident"
			if r.Prediction >= 0.5 {
				label = "accident"
			}
			pred = fmt.Sprintf("%s (p=%.2f)", label, r.Prediction)
		}

		fmt.Fprintf(&b, "  IF %s THEN %s  [%d rows, %.1f%%]\n",
			cond, pred, r.Samples, r.Coverage*100)
	}
	return b.String()
}
