// Package pbsat abstracts the constraint-solving capability behind a small
// interface: problems are boolean variables under clause and cardinality
// constraints with a weighted objective to minimize.
package pbsat

import (
	"context"
	"time"
)

// Problem is a pseudo-boolean minimization instance. Variables are
// numbered 1..Vars; a negative literal -v means "v is false".
type Problem struct {
	Vars    int
	Clauses [][]int     // at least one literal of each clause holds
	AtMost  []CardConstr // at most K of the listed literals hold
	Costs   []LitCost    // objective: minimize the weight of true literals
}

// CardConstr caps the weighted count of true literals: sum of Weights over
// true Lits must not exceed K. A nil Weights means every literal counts 1.
type CardConstr struct {
	Lits    []int
	Weights []int
	K       int
}

// LitCost contributes Weight to the objective whenever Lit is true.
type LitCost struct {
	Lit    int
	Weight int
}

// Options bound one solve run.
type Options struct {
	Budget  time.Duration
	Workers int
	// Gap is the acceptable relative optimality gap: the search stops as
	// soon as an incumbent is provably within Gap of the best possible
	// objective.
	Gap float64
	// OnIncumbent is invoked for every improving solution found.
	OnIncumbent func(objective, solutions int)
}

// Result is the outcome of a solve. Model[v-1] is the value of variable v
// in the best incumbent; a nil Model means no feasible assignment was
// found within the budget.
type Result struct {
	Feasible  bool
	Model     []bool
	Objective int
	Solutions int
	Optimal   bool
}

// Solver runs a Problem to its best incumbent within Options. It must
// return the best solution found so far when the budget expires, even if
// optimality was not proven.
type Solver interface {
	Solve(ctx context.Context, p Problem, opts Options) (Result, error)
}
