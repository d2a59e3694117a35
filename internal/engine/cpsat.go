package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"timetable-engine/internal/pbsat"
	"timetable-engine/internal/progress"
	"timetable-engine/pkg/model"
)

// Objective weights. Unplaced sessions and sessions with no compatible
// room dominate any slot preference; among placements, early-day slots are
// cheap, the fifth interval is discouraged and the sixth strongly so.
const (
	penaltyNoRoom   = 1_000_000
	penaltyUnplaced = 100_000
	costFifthSlot   = 100
	costSixthSlot   = 10_000
)

// OptimizeConfig bounds the exhaustive search.
type OptimizeConfig struct {
	Budget  time.Duration
	Workers int
	Gap     float64
}

// optimizeSolver formulates the whole week as a pseudo-boolean
// minimization problem and delegates the search to a pbsat.Solver.
type optimizeSolver struct {
	grid   *Grid
	rooms  []model.Room
	busy   *BusySets
	codes  map[string]string
	cfg    OptimizeConfig
	solver pbsat.Solver
	logger *zap.Logger
}

func newOptimizeSolver(grid *Grid, req *model.GenerateRequest, busy *BusySets, cfg OptimizeConfig, solver pbsat.Solver, logger *zap.Logger) *optimizeSolver {
	codes := make(map[string]string, len(req.Courses))
	for _, c := range req.Courses {
		codes[c.ID] = c.Code
	}
	return &optimizeSolver{
		grid:   grid,
		rooms:  req.Rooms,
		busy:   busy,
		codes:  codes,
		cfg:    cfg,
		solver: solver,
		logger: logger,
	}
}

// placement identifies what a boolean decision variable stands for: one
// session starting in one room at one slot.
type placement struct {
	sessionIdx int
	roomIdx    int
	startSlot  int
}

type pbModel struct {
	problem       pbsat.Problem
	placements    map[int]placement // x variable -> meaning
	forcedPenalty int
	conflicts     []model.Conflict
}

func (s *optimizeSolver) Solve(ctx context.Context, sessions []Session, sink progress.Sink) ([]Assignment, []model.Conflict, error) {
	sink.Publish(progress.Update{Status: progress.StatusProcessing, Progress: 15, Message: "Building constraint model..."})
	m := s.buildModel(sessions)
	s.logger.Info("constraint model built",
		zap.Int("sessions", len(sessions)),
		zap.Int("variables", m.problem.Vars),
		zap.Int("clauses", len(m.problem.Clauses)),
		zap.Int("cardinality", len(m.problem.AtMost)))

	sink.Publish(progress.Update{Status: progress.StatusSolving, Progress: 20, Message: "Starting solver..."})
	start := time.Now()
	result, err := s.solver.Solve(ctx, m.problem, pbsat.Options{
		Budget:  s.cfg.Budget,
		Workers: s.cfg.Workers,
		Gap:     s.cfg.Gap,
		OnIncumbent: func(objective, solutions int) {
			total := objective + m.forcedPenalty
			sink.Publish(progress.Update{
				Status:         progress.StatusSolving,
				Progress:       50,
				Message:        fmt.Sprintf("Optimizing schedule (%d solutions)...", solutions),
				SolutionsFound: solutions,
				BestObjective:  &total,
			})
		},
	})
	if err != nil {
		return nil, m.conflicts, fmt.Errorf("constraint solve: %w", err)
	}
	s.logger.Info("solver finished",
		zap.Bool("feasible", result.Feasible),
		zap.Bool("optimal", result.Optimal),
		zap.Int("objective", result.Objective+m.forcedPenalty),
		zap.Int("solutions", result.Solutions),
		zap.Duration("wallTime", time.Since(start)))

	if !result.Feasible {
		return nil, m.conflicts, nil
	}
	assigned := make([]Assignment, 0, len(sessions))
	for variable, p := range m.placements {
		if variable <= len(result.Model) && result.Model[variable-1] {
			assigned = append(assigned, Assignment{
				Session:   sessions[p.sessionIdx],
				Room:      s.rooms[p.roomIdx],
				StartSlot: p.startSlot,
			})
		}
	}
	return assigned, m.conflicts, nil
}

// buildModel creates one boolean variable per feasible (session, room,
// start slot) triple, a placed-indicator per session, and the hard
// constraints and objective of the schedule.
func (s *optimizeSolver) buildModel(sessions []Session) *pbModel {
	m := &pbModel{placements: make(map[int]placement)}
	problem := &m.problem
	nextVar := 0
	newVar := func() int {
		nextVar++
		return nextVar
	}

	slotCount := s.grid.SlotCount()
	perDay := s.grid.SlotsPerDay()

	// Occupancy lists: which x variables occupy a given (room, slot),
	// (faculty, slot) or (class, slot).
	roomSlotLits := make([][][]int, len(s.rooms))
	for r := range roomSlotLits {
		roomSlotLits[r] = make([][]int, slotCount)
	}
	facultySlotLits := make(map[string][][]int)
	classSlotLits := make(map[string][][]int)
	slotLits := func(byID map[string][][]int, id string) [][]int {
		lits, ok := byID[id]
		if !ok {
			lits = make([][]int, slotCount)
			byID[id] = lits
		}
		return lits
	}

	placedLabLits := make(map[string][]int)

	for sessionIdx, session := range sessions {
		rooms := compatibleRooms(session, s.rooms)
		if len(rooms) == 0 {
			m.conflicts = append(m.conflicts, model.Conflict{
				Type:     model.ConflictNoRoom,
				Severity: model.SeverityError,
				Message: fmt.Sprintf("Course %s needs %s room but none available.",
					s.codes[session.CourseID], requiredRoomType(session)),
			})
			m.forcedPenalty += penaltyNoRoom
			continue
		}

		var sessionVars []int
		for _, roomIdx := range rooms {
			for start := 0; start < slotCount; start++ {
				if !s.feasibleStart(session, roomIdx, start) {
					continue
				}
				v := newVar()
				m.placements[v] = placement{sessionIdx: sessionIdx, roomIdx: roomIdx, startSlot: start}
				sessionVars = append(sessionVars, v)
				for dt := 0; dt < session.Duration; dt++ {
					slot := start + dt
					roomSlotLits[roomIdx][slot] = append(roomSlotLits[roomIdx][slot], v)
					fl := slotLits(facultySlotLits, session.FacultyID)
					fl[slot] = append(fl[slot], v)
					cl := slotLits(classSlotLits, session.ClassID)
					cl[slot] = append(cl[slot], v)
				}
				if cost := slotCost(start % perDay); cost > 0 {
					problem.Costs = append(problem.Costs, pbsat.LitCost{Lit: v, Weight: cost})
				}
			}
		}

		// A session is placed at most once; the indicator variable
		// equals the disjunction of its placements and going unplaced
		// costs a large penalty.
		placed := newVar()
		if len(sessionVars) > 0 {
			problem.AtMost = append(problem.AtMost, pbsat.CardConstr{Lits: sessionVars, K: 1})
			for _, v := range sessionVars {
				problem.Clauses = append(problem.Clauses, []int{-v, placed})
			}
			problem.Clauses = append(problem.Clauses, append([]int{-placed}, sessionVars...))
		} else {
			problem.Clauses = append(problem.Clauses, []int{-placed})
		}
		problem.Costs = append(problem.Costs, pbsat.LitCost{Lit: -placed, Weight: penaltyUnplaced})
		if session.IsLab {
			placedLabLits[session.ClassID] = append(placedLabLits[session.ClassID], placed)
		}
	}

	problem.Vars = nextVar

	// Exclusivity: at most one occupying variable per room, faculty and
	// section slot.
	for r := range roomSlotLits {
		for _, lits := range roomSlotLits[r] {
			if len(lits) > 1 {
				problem.AtMost = append(problem.AtMost, pbsat.CardConstr{Lits: lits, K: 1})
			}
		}
	}
	for _, bySlot := range facultySlotLits {
		for _, lits := range bySlot {
			if len(lits) > 1 {
				problem.AtMost = append(problem.AtMost, pbsat.CardConstr{Lits: lits, K: 1})
			}
		}
	}
	for _, bySlot := range classSlotLits {
		for _, lits := range bySlot {
			if len(lits) > 1 {
				problem.AtMost = append(problem.AtMost, pbsat.CardConstr{Lits: lits, K: 1})
			}
		}

		// Daily cap: occupied slots of a section sum to at most 3 per
		// day; a two-slot lab counts twice.
		for day := 0; day < len(Days); day++ {
			counts := make(map[int]int)
			for interval := 0; interval < perDay; interval++ {
				for _, v := range bySlot[s.grid.Index(day, interval)] {
					counts[v]++
				}
			}
			if constr, ok := weightedAtMost(counts, 3); ok {
				problem.AtMost = append(problem.AtMost, constr)
			}

			// Mandatory break: no 3 consecutive occupied slots.
			for interval := 0; interval+2 < perDay; interval++ {
				window := make(map[int]int)
				for dt := 0; dt < 3; dt++ {
					for _, v := range bySlot[s.grid.Index(day, interval+dt)] {
						window[v]++
					}
				}
				if constr, ok := weightedAtMost(window, 2); ok {
					problem.AtMost = append(problem.AtMost, constr)
				}
			}
		}
	}

	// Weekly lab cap: at most 2 placed lab sessions per section.
	for _, lits := range placedLabLits {
		if len(lits) > 2 {
			problem.AtMost = append(problem.AtMost, pbsat.CardConstr{Lits: lits, K: 2})
		}
	}

	return m
}

// feasibleStart prunes placements that can never hold: the duration must
// fit before the grid ends and stay within one day, and no covered slot
// may be preloaded busy for the room or faculty.
func (s *optimizeSolver) feasibleStart(session Session, roomIdx, start int) bool {
	last := start + session.Duration - 1
	if last >= s.grid.SlotCount() || !s.grid.SameDay(start, last) {
		return false
	}
	for dt := 0; dt < session.Duration; dt++ {
		slot := start + dt
		if s.busy.RoomBusy(s.rooms[roomIdx].ID, slot) {
			return false
		}
		if s.busy.FacultyBusy(session.FacultyID, slot) {
			return false
		}
	}
	return true
}

// weightedAtMost builds a cardinality constraint from per-variable
// occurrence counts, skipping constraints that cannot be violated.
func weightedAtMost(counts map[int]int, k int) (pbsat.CardConstr, bool) {
	total := 0
	lits := make([]int, 0, len(counts))
	weights := make([]int, 0, len(counts))
	for v, c := range counts {
		lits = append(lits, v)
		weights = append(weights, c)
		total += c
	}
	if total <= k {
		return pbsat.CardConstr{}, false
	}
	return pbsat.CardConstr{Lits: lits, Weights: weights, K: k}, true
}

// slotCost prices an interval of the day: 0..3 for the first four
// intervals, then steeply rising to keep late slots as a last resort.
func slotCost(interval int) int {
	switch {
	case interval < 4:
		return interval
	case interval == 4:
		return costFifthSlot
	default:
		return costSixthSlot
	}
}
