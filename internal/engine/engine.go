// Package engine builds weekly class timetables from courses, faculty,
// rooms and allotments while avoiding conflicts with timetables already
// committed elsewhere. Two interchangeable strategies solve the same
// model: an exhaustive pseudo-boolean optimization and a bounded greedy
// backtracking search.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"timetable-engine/internal/config"
	"timetable-engine/internal/pbsat"
	"timetable-engine/internal/progress"
	"timetable-engine/pkg/model"
)

// Scheduler runs one generation request to completion. Implementations
// are safe for concurrent use: each call owns all of its mutable state.
type Scheduler interface {
	Generate(ctx context.Context, req *model.GenerateRequest, sink progress.Sink) (*model.GenerateResult, error)
}

type engine struct {
	cfg    config.Config
	logger *zap.Logger
	solver pbsat.Solver
	detect LabDetector
}

// Option customizes an Engine.
type Option func(*engine)

// WithLabDetector overrides the lab-classification policy.
func WithLabDetector(detect LabDetector) Option {
	return func(e *engine) { e.detect = detect }
}

// WithSolver substitutes the constraint-solving backend.
func WithSolver(solver pbsat.Solver) Option {
	return func(e *engine) { e.solver = solver }
}

// New builds a Scheduler. An unrecognized algorithm selection is rejected
// here, before any request is accepted.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (Scheduler, error) {
	if cfg.Algorithm != config.AlgorithmGreedy && cfg.Algorithm != config.AlgorithmCPSAT {
		return nil, fmt.Errorf("unknown solver type: %q, must be %q or %q",
			cfg.Algorithm, config.AlgorithmGreedy, config.AlgorithmCPSAT)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &engine{
		cfg:    cfg,
		logger: logger,
		solver: pbsat.NewGophersatSolver(),
		detect: DefaultLabDetector,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *engine) Generate(ctx context.Context, req *model.GenerateRequest, sink progress.Sink) (result *model.GenerateResult, err error) {
	if sink == nil {
		sink = progress.Nop()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal failure during generation: %v", r)
			result = nil
		}
		if err != nil {
			sink.Publish(progress.Update{Status: progress.StatusError, Message: err.Error()})
		}
	}()

	sink.Publish(progress.Update{Status: progress.StatusProcessing, Progress: 5, Message: "Parsing input data..."})
	grid := NewGrid()
	busy := PreloadBusy(grid, req.ExistingTimetables, e.logger)

	sink.Publish(progress.Update{Status: progress.StatusProcessing, Progress: 10, Message: "Creating course sessions..."})
	sessions := ExpandSessions(req, e.detect, e.logger)
	e.logger.Info("sessions created",
		zap.Int("sessions", len(sessions)),
		zap.Int("allotments", len(req.Allotments)),
		zap.String("algorithm", e.cfg.Algorithm))

	var (
		assigned  []Assignment
		conflicts []model.Conflict
		message   string
	)
	switch e.cfg.Algorithm {
	case config.AlgorithmGreedy:
		solver := newGreedySolver(grid, req, busy, GreedyConfig{
			MaxDepth:  e.cfg.GreedyMaxDepth,
			TimeLimit: e.cfg.GreedyTimeLimit,
		}, e.logger)
		assigned, conflicts = solver.Solve(sessions, sink)
		message = fmt.Sprintf("Scheduled %d/%d sessions. %d conflicts found.",
			len(assigned), len(sessions), len(conflicts))
	case config.AlgorithmCPSAT:
		solver := newOptimizeSolver(grid, req, busy, OptimizeConfig{
			Budget:  e.cfg.SolverBudget,
			Workers: e.cfg.SolverWorkers,
			Gap:     e.cfg.SolverGap,
		}, e.solver, e.logger)
		assigned, conflicts, err = solver.Solve(ctx, sessions, sink)
		if err != nil {
			return nil, err
		}
		if len(assigned) > 0 {
			message = "Schedule generated."
		} else {
			message = "No feasible solution found."
		}
	}

	sink.Publish(progress.Update{Status: progress.StatusProcessing, Progress: 95, Message: "Processing results..."})
	result = Assemble(grid, req, assigned, conflicts, message)
	sink.Publish(progress.Update{Status: progress.StatusCompleted, Progress: 100, Message: "Generation completed!"})
	return result, nil
}
