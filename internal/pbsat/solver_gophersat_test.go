package pbsat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveSatisfiable(t *testing.T) {
	p := Problem{
		Vars:    2,
		Clauses: [][]int{{1, 2}, {-1}},
	}

	result, err := NewGophersatSolver().Solve(context.Background(), p, Options{Workers: 1})
	require.NoError(t, err)
	assert.True(t, result.Feasible)
	assert.True(t, result.Optimal)
	require.Len(t, result.Model, 2)
	assert.False(t, result.Model[0])
	assert.True(t, result.Model[1])
}

func TestSolveInfeasible(t *testing.T) {
	p := Problem{
		Vars:    1,
		Clauses: [][]int{{1}, {-1}},
	}

	result, err := NewGophersatSolver().Solve(context.Background(), p, Options{Workers: 2})
	require.NoError(t, err)
	assert.False(t, result.Feasible)
	assert.Nil(t, result.Model)
}

func TestSolveEmptyProblem(t *testing.T) {
	result, err := NewGophersatSolver().Solve(context.Background(), Problem{}, Options{})
	require.NoError(t, err)
	assert.True(t, result.Feasible)
	assert.True(t, result.Optimal)
}

func TestSolveMinimization(t *testing.T) {
	// At least one of the two variables must hold; the cheap one wins.
	p := Problem{
		Vars:    2,
		Clauses: [][]int{{1, 2}},
		Costs:   []LitCost{{Lit: 1, Weight: 5}, {Lit: 2, Weight: 1}},
	}

	result, err := NewGophersatSolver().Solve(context.Background(), p, Options{Workers: 1, Budget: 10 * time.Second})
	require.NoError(t, err)
	assert.True(t, result.Feasible)
	assert.Equal(t, 1, result.Objective)
	require.Len(t, result.Model, 2)
	assert.False(t, result.Model[0])
	assert.True(t, result.Model[1])
}

func TestSolveCardinality(t *testing.T) {
	p := Problem{
		Vars:    3,
		Clauses: [][]int{{1, 2, 3}},
		AtMost:  []CardConstr{{Lits: []int{1, 2, 3}, K: 1}},
	}

	result, err := NewGophersatSolver().Solve(context.Background(), p, Options{Workers: 1})
	require.NoError(t, err)
	require.True(t, result.Feasible)

	trueCount := 0
	for _, v := range result.Model {
		if v {
			trueCount++
		}
	}
	assert.Equal(t, 1, trueCount)
}

func TestSolveWeightedCardinality(t *testing.T) {
	// Each variable weighs 2 against a cap of 3, so at most one may hold.
	p := Problem{
		Vars:    2,
		Clauses: [][]int{{1, 2}},
		AtMost:  []CardConstr{{Lits: []int{1, 2}, Weights: []int{2, 2}, K: 3}},
	}

	result, err := NewGophersatSolver().Solve(context.Background(), p, Options{Workers: 1})
	require.NoError(t, err)
	require.True(t, result.Feasible)
	assert.False(t, result.Model[0] && result.Model[1])
}

func TestSolveReportsIncumbents(t *testing.T) {
	p := Problem{
		Vars:    2,
		Clauses: [][]int{{1, 2}},
		Costs:   []LitCost{{Lit: 1, Weight: 5}, {Lit: 2, Weight: 1}},
	}

	var mu sync.Mutex
	var objectives []int
	opts := Options{
		Workers: 1,
		Budget:  10 * time.Second,
		OnIncumbent: func(objective, solutions int) {
			mu.Lock()
			objectives = append(objectives, objective)
			mu.Unlock()
		},
	}

	result, err := NewGophersatSolver().Solve(context.Background(), p, opts)
	require.NoError(t, err)
	require.True(t, result.Feasible)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, objectives)
	// Incumbents only ever improve; the last one is the final objective.
	for i := 1; i < len(objectives); i++ {
		assert.Less(t, objectives[i], objectives[i-1])
	}
	assert.Equal(t, result.Objective, objectives[len(objectives)-1])
}

func TestSolvePortfolioAgreesAcrossWorkers(t *testing.T) {
	p := Problem{
		Vars:    4,
		Clauses: [][]int{{1, 2}, {3, 4}},
		AtMost:  []CardConstr{{Lits: []int{1, 3}, K: 1}},
		Costs:   []LitCost{{Lit: 1, Weight: 1}, {Lit: 2, Weight: 2}, {Lit: 3, Weight: 1}, {Lit: 4, Weight: 2}},
	}

	result, err := NewGophersatSolver().Solve(context.Background(), p, Options{Workers: 4, Budget: 10 * time.Second})
	require.NoError(t, err)
	require.True(t, result.Feasible)
	// The cap forbids taking both cheap variables, so one clause must be
	// satisfied by its expensive one: the optimum is 1+2.
	assert.Equal(t, 3, result.Objective)
}

// pigeonholeProblem places pigeons+1 pigeons into pigeons holes: compact,
// unsatisfiable, and expensive to refute, so a single SAT call overruns
// any short deadline.
func pigeonholeProblem(holes int) Problem {
	pigeons := holes + 1
	p := Problem{Vars: pigeons * holes}
	for i := 0; i < pigeons; i++ {
		clause := make([]int, holes)
		for j := 0; j < holes; j++ {
			clause[j] = i*holes + j + 1
		}
		p.Clauses = append(p.Clauses, clause)
	}
	for j := 0; j < holes; j++ {
		lits := make([]int, pigeons)
		for i := 0; i < pigeons; i++ {
			lits[i] = i*holes + j + 1
		}
		p.AtMost = append(p.AtMost, CardConstr{Lits: lits, K: 1})
	}
	p.Costs = []LitCost{{Lit: 1, Weight: 1}}
	return p
}

func TestSolveHonorsBudgetOnHardInstance(t *testing.T) {
	p := pigeonholeProblem(11)

	start := time.Now()
	result, err := NewGophersatSolver().Solve(context.Background(), p, Options{Workers: 1, Budget: time.Second})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, result.Feasible)
	assert.False(t, result.Optimal)
	// The deadline plus the straggler grace period, with slack for slow
	// machines; without the budget this instance runs for minutes.
	assert.Less(t, elapsed, 10*time.Second)
}

func TestSolveStopsOnContextCancel(t *testing.T) {
	p := pigeonholeProblem(11)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := NewGophersatSolver().Solve(ctx, p, Options{Workers: 1})
	elapsed := time.Since(start)

	assert.Error(t, err)
	assert.False(t, result.Feasible)
	assert.Less(t, elapsed, 10*time.Second)
}

func TestSolveGapStopsAtZeroObjective(t *testing.T) {
	// The only solution has objective 0; the gap rule halts as soon as it
	// is found and the result still reports it.
	p := Problem{
		Vars:    1,
		Clauses: [][]int{{1}},
		Costs:   []LitCost{{Lit: -1, Weight: 7}},
	}

	result, err := NewGophersatSolver().Solve(context.Background(), p, Options{Workers: 2, Gap: 0.05, Budget: 10 * time.Second})
	require.NoError(t, err)
	assert.True(t, result.Feasible)
	assert.Equal(t, 0, result.Objective)
	require.Len(t, result.Model, 1)
	assert.True(t, result.Model[0])
}
