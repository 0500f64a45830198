package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesCoverTrainingTable(t *testing.T) {
	m := stepMatrix(100)
	mo, err := Fit(m, Params{Kind: Regression, MaxDepth: 3, MinLeaf: 5})
	require.NoError(t, err)

	rules := mo.Rules()
	require.NotEmpty(t, rules)

	total := 0
	coverage := 0.0
	for _, r := range rules {
		total += r.Samples
		coverage += r.Coverage
	}
	assert.Equal(t, 100, total)
	assert.InDelta(t, 1.0, coverage, 1e-9)
}

func TestRulesConditionsNamePredictors(t *testing.T) {
	m := stepMatrix(100)
	mo, err := Fit(m, Params{Kind: Regression, MaxDepth: 1, MinLeaf: 5})
	require.NoError(t, err)

	rules := mo.Rules()
	require.Len(t, rules, 2)
	assert.Contains(t, rules[0].Conditions[0], "x <=")
	assert.Contains(t, rules[1].Conditions[0], "x >")
}

func TestRulesLeafOnlyTree(t *testing.T) {
	m := stepMatrix(20)
	mo, err := Fit(m, Params{Kind: Regression, MaxDepth: 10, MinLeaf: 15})
	require.NoError(t, err)

	rules := mo.Rules()
	require.Len(t, rules, 1)
	assert.Empty(t, rules[0].Conditions)
	assert.Equal(t, 1.0, rules[0].Coverage)
}

func TestFormatRegression(t *testing.T) {
	m := stepMatrix(100)
	mo, err := Fit(m, Params{Kind: Regression, MaxDepth: 1, MinLeaf: 5})
	require.NoError(t, err)

	out := mo.Format("Nevskij")

	assert.True(t, strings.HasPrefix(out, "rules for Nevskij (100 rows):"))
	assert.Contains(t, out, "IF x <=")
	assert.Contains(t, out, "count ~")
	assert.Contains(t, out, "rows")
}

func TestFormatClassification(t *testing.T) {
	m := stepMatrix(100)
	for i := range m.Target {
		if m.Target[i] > 0 {
			m.Target[i] = 1
		}
	}
	mo, err := Fit(m, Params{Kind: Classification, MaxDepth: 1, MinLeaf: 5})
	require.NoError(t, err)

	out := mo.Format("cluster_3")

	assert.Contains(t, out, "accident (p=")
	assert.Contains(t, out, "no accident (p=")
}
