package pbsat

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/crillab/gophersat/solver"
)

// gophersatSolver solves problems in-process with gophersat. The search
// runs as a bounded portfolio: each worker gets the same constraints in a
// different order, which diversifies the solver's branching, and all
// workers share one incumbent pool and one deadline. Optimization is a
// cost-descent loop per worker: find a model, publish it, then demand a
// strictly cheaper one until the tightened problem becomes unsatisfiable,
// which proves the incumbent optimal. The deadline is checked between
// descent iterations.
type gophersatSolver struct{}

func NewGophersatSolver() Solver {
	return &gophersatSolver{}
}

func (g *gophersatSolver) Solve(ctx context.Context, p Problem, opts Options) (Result, error) {
	if p.Vars == 0 {
		return Result{Feasible: true, Optimal: true}, nil
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	constrs := make([]solver.PBConstr, 0, len(p.Clauses)+len(p.AtMost))
	for _, clause := range p.Clauses {
		constrs = append(constrs, solver.AtLeast(clause, 1))
	}
	for _, card := range p.AtMost {
		if card.Weights == nil {
			constrs = append(constrs, solver.AtMost(card.Lits, card.K))
		} else {
			constrs = append(constrs, solver.LtEq(card.Lits, card.Weights, card.K))
		}
	}

	pool := &incumbentPool{gap: opts.Gap, onIncumbent: opts.OnIncumbent}
	halted := make(chan struct{})
	var haltOnce sync.Once
	halt := func() {
		haltOnce.Do(func() {
			pool.markHalted()
			close(halted)
		})
	}
	pool.halt = halt

	var deadline time.Time
	if opts.Budget > 0 {
		deadline = time.Now().Add(opts.Budget)
		timer := time.AfterFunc(opts.Budget, halt)
		defer timer.Stop()
	}
	stopOnCtx := make(chan struct{})
	defer close(stopOnCtx)
	go func() {
		select {
		case <-ctx.Done():
			halt()
		case <-stopOnCtx:
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			g.runWorker(p, orderFor(constrs, w), pool, halted, deadline)
		}(w)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	// A worker inside a long propagation cannot observe the halt signal
	// until its current SAT call returns. Once halted, wait a short grace
	// period and return the best incumbent; stragglers finish on their own
	// and their late offers are ignored.
	select {
	case <-done:
		halt()
	case <-halted:
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
		}
	}

	result := pool.result()
	if err := ctx.Err(); err != nil && !result.Feasible {
		return result, err
	}
	return result, nil
}

func (g *gophersatSolver) runWorker(p Problem, constrs []solver.PBConstr, pool *incumbentPool, halted chan struct{}, deadline time.Time) {
	s := solver.New(solver.ParsePBConstrs(constrs))

	if len(p.Costs) == 0 {
		if s.Solve() == solver.Sat {
			pool.offer(snapshot(s.Model()), 0, true)
		}
		return
	}

	negated := make([]solver.Lit, len(p.Costs))
	weights := make([]int, len(p.Costs))
	total := 0
	for i, cost := range p.Costs {
		negated[i] = solver.IntToLit(int32(cost.Lit)).Negation()
		weights[i] = cost.Weight
		total += cost.Weight
	}

	haveIncumbent := false
	for {
		select {
		case <-halted:
			return
		default:
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return
		}

		if s.Solve() != solver.Sat {
			// Unsatisfiable under the cost bound: the incumbent the bound
			// came from is optimal. Without a bound the problem itself is
			// infeasible.
			if haveIncumbent {
				pool.proved()
			}
			return
		}
		model := snapshot(s.Model())
		objective := costOf(p.Costs, model)
		pool.offer(model, objective, false)
		if objective == 0 {
			pool.proved()
			return
		}

		// Demand a solution cheaper than the pool's best: the weight of
		// the satisfied cost literals must drop below the bound, stated
		// over their negations as gophersat wants at-least clauses.
		bound := objective
		if best, ok := pool.best(); ok && best < bound {
			bound = best
		}
		lits := make([]solver.Lit, len(negated))
		copy(lits, negated)
		ws := make([]int, len(weights))
		copy(ws, weights)
		s.AppendClause(solver.NewPBClause(lits, ws, total-bound+1))
		haveIncumbent = true
	}
}

func snapshot(model []bool) []bool {
	copied := make([]bool, len(model))
	copy(copied, model)
	return copied
}

// costOf evaluates the objective of a model.
func costOf(costs []LitCost, model []bool) int {
	total := 0
	for _, cost := range costs {
		v := cost.Lit
		if v < 0 {
			v = -v
		}
		if v > len(model) {
			continue
		}
		if model[v-1] == (cost.Lit > 0) {
			total += cost.Weight
		}
	}
	return total
}

// orderFor returns the constraint order for worker w. Worker 0 keeps the
// model order; the rest get a deterministic shuffle so their searches
// branch differently.
func orderFor(constrs []solver.PBConstr, w int) []solver.PBConstr {
	if w == 0 {
		return constrs
	}
	shuffled := make([]solver.PBConstr, len(constrs))
	copy(shuffled, constrs)
	rng := rand.New(rand.NewSource(int64(w)))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// incumbentPool merges improving solutions from all workers and decides
// when the acceptable gap is reached. The lower bound is the trivial one:
// no objective can go below zero.
type incumbentPool struct {
	mu          sync.Mutex
	gap         float64
	onIncumbent func(objective, solutions int)
	halt        func()

	feasible  bool
	halted    bool
	bestModel []bool
	objective int
	solutions int
	optimal   bool
}

func (p *incumbentPool) markHalted() {
	p.mu.Lock()
	p.halted = true
	p.mu.Unlock()
}

func (p *incumbentPool) best() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.objective, p.feasible
}

func (p *incumbentPool) offer(model []bool, objective int, final bool) {
	p.mu.Lock()
	improved := !p.feasible || objective < p.objective
	if improved {
		p.feasible = true
		p.bestModel = model
		p.objective = objective
		p.solutions++
	}
	if final && !p.halted && objective <= p.objective {
		p.optimal = true
	}
	notify := p.onIncumbent
	if p.halted {
		notify = nil // the solve already returned; no late publishes
	}
	objectiveNow, solutionsNow := p.objective, p.solutions
	withinGap := p.feasible && float64(p.objective) <= p.gap*float64(maxInt(p.objective, 1))
	p.mu.Unlock()

	if improved && notify != nil {
		notify(objectiveNow, solutionsNow)
	}
	if withinGap && p.halt != nil {
		p.halt()
	}
}

// proved marks the current best incumbent optimal: a worker derived an
// unsatisfiability proof for any cheaper solution. The remaining workers
// are halted since nothing better exists.
func (p *incumbentPool) proved() {
	p.mu.Lock()
	if p.feasible {
		p.optimal = true
	}
	halt := p.halt
	p.mu.Unlock()
	if halt != nil {
		halt()
	}
}

func (p *incumbentPool) result() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Result{
		Feasible:  p.feasible,
		Model:     p.bestModel,
		Objective: p.objective,
		Solutions: p.solutions,
		Optimal:   p.optimal,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
