package engine

import (
	"context"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"timetable-engine/internal/config"
	"timetable-engine/internal/pbsat"
	"timetable-engine/internal/progress"
	"timetable-engine/pkg/model"
)

// fakeSolver records the problem it was given and replies with a canned
// result, so model construction and result mapping can be tested without
// a real search.
type fakeSolver struct {
	problem pbsat.Problem
	opts    pbsat.Options
	result  pbsat.Result
	err     error
}

func (f *fakeSolver) Solve(_ context.Context, p pbsat.Problem, opts pbsat.Options) (pbsat.Result, error) {
	f.problem = p
	f.opts = opts
	return f.result, f.err
}

func singleTheoryRequest() *model.GenerateRequest {
	return &model.GenerateRequest{
		Courses:    []model.Course{{ID: "c1", Code: "CS101", Name: "Programming", Credits: 3, EstimatedStudents: 40, Department: "CS", Semester: 1}},
		Faculty:    []model.Faculty{{ID: "f1", Name: "Dr. Rao", Department: "CS"}},
		Rooms:      []model.Room{{ID: "r1", Name: "LH-1", Type: model.RoomLecture, Capacity: 50}},
		Allotments: []model.Allotment{{CourseID: "c1", FacultyID: "f1", ClassIDs: []string{"CS-A"}}},
	}
}

func TestBuildModelSingleSession(t *testing.T) {
	req := singleTheoryRequest()
	grid := NewGrid()
	busy := PreloadBusy(grid, nil, zap.NewNop())
	solver := newOptimizeSolver(grid, req, busy, OptimizeConfig{}, &fakeSolver{}, zap.NewNop())

	sessions := []Session{{ID: "s1", CourseID: "c1", FacultyID: "f1", ClassID: "CS-A", Department: "CS", Duration: 1, Students: 40}}
	m := solver.buildModel(sessions)

	// One x variable per grid slot plus one placed indicator.
	assert.Equal(t, 30, len(m.placements))
	assert.Equal(t, 31, m.problem.Vars)
	assert.Empty(t, m.conflicts)
	assert.Zero(t, m.forcedPenalty)

	// The placed indicator carries the unplaced penalty.
	var unplaced int
	for _, c := range m.problem.Costs {
		if c.Lit == -31 {
			unplaced = c.Weight
		}
	}
	assert.Equal(t, penaltyUnplaced, unplaced)
}

func TestBuildModelNoCompatibleRoom(t *testing.T) {
	req := singleTheoryRequest()
	req.Rooms = nil
	grid := NewGrid()
	busy := PreloadBusy(grid, nil, zap.NewNop())
	solver := newOptimizeSolver(grid, req, busy, OptimizeConfig{}, &fakeSolver{}, zap.NewNop())

	sessions := []Session{{ID: "s1", CourseID: "c1", FacultyID: "f1", ClassID: "CS-A", Department: "CS", Duration: 1, Students: 40}}
	m := solver.buildModel(sessions)

	assert.Zero(t, m.problem.Vars)
	assert.Empty(t, m.placements)
	require.Len(t, m.conflicts, 1)
	assert.Equal(t, model.ConflictNoRoom, m.conflicts[0].Type)
	assert.Equal(t, penaltyNoRoom, m.forcedPenalty)
}

func TestBuildModelPrunesBusySlots(t *testing.T) {
	req := singleTheoryRequest()
	req.ExistingTimetables = []model.ExistingTimetable{{ID: "prior", Entries: []model.ExistingEntry{
		{RoomID: "r1", TimeSlot: model.TimeSlotRef{Day: "Monday", StartTime: "08:30"}},
		{FacultyID: "f1", TimeSlot: model.TimeSlotRef{Day: "Friday", StartTime: "16:00"}},
	}}}
	grid := NewGrid()
	busy := PreloadBusy(grid, req.ExistingTimetables, zap.NewNop())
	solver := newOptimizeSolver(grid, req, busy, OptimizeConfig{}, &fakeSolver{}, zap.NewNop())

	sessions := []Session{{ID: "s1", CourseID: "c1", FacultyID: "f1", ClassID: "CS-A", Department: "CS", Duration: 1, Students: 40}}
	m := solver.buildModel(sessions)

	assert.Equal(t, 28, len(m.placements))
	for _, p := range m.placements {
		assert.NotEqual(t, 0, p.startSlot)
		assert.NotEqual(t, 29, p.startSlot)
	}
}

func TestBuildModelLabSpansTwoSlots(t *testing.T) {
	req := singleTheoryRequest()
	req.Rooms[0].Type = model.RoomLab
	grid := NewGrid()
	busy := PreloadBusy(grid, nil, zap.NewNop())
	solver := newOptimizeSolver(grid, req, busy, OptimizeConfig{}, &fakeSolver{}, zap.NewNop())

	sessions := []Session{{ID: "s1", CourseID: "c1", FacultyID: "f1", ClassID: "CS-A", Department: "CS", Duration: 2, IsLab: true, Students: 40}}
	m := solver.buildModel(sessions)

	// 5 feasible starts per day: a two-slot session cannot start in the
	// last interval.
	assert.Equal(t, 25, len(m.placements))
}

func TestOptimizeSolveMapsModelToAssignments(t *testing.T) {
	req := singleTheoryRequest()
	grid := NewGrid()
	busy := PreloadBusy(grid, nil, zap.NewNop())

	sessions := []Session{{ID: "s1", CourseID: "c1", FacultyID: "f1", ClassID: "CS-A", Department: "CS", Duration: 1, Students: 40}}

	// Probe the model once to learn variable numbering, then answer with
	// variable 1 true and the indicator true.
	probe := newOptimizeSolver(grid, req, busy, OptimizeConfig{}, &fakeSolver{}, zap.NewNop())
	m := probe.buildModel(sessions)
	modelVals := make([]bool, m.problem.Vars)
	modelVals[0] = true
	modelVals[m.problem.Vars-1] = true

	fake := &fakeSolver{result: pbsat.Result{Feasible: true, Model: modelVals, Solutions: 1, Optimal: true}}
	solver := newOptimizeSolver(grid, req, busy, OptimizeConfig{Budget: time.Minute, Workers: 2, Gap: 0.05}, fake, zap.NewNop())

	assigned, conflicts, err := solver.Solve(context.Background(), sessions, progress.Nop())
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	require.Len(t, assigned, 1)
	assert.Equal(t, "s1", assigned[0].Session.ID)
	assert.Equal(t, "r1", assigned[0].Room.ID)
	assert.Equal(t, m.placements[1].startSlot, assigned[0].StartSlot)

	assert.Equal(t, time.Minute, fake.opts.Budget)
	assert.Equal(t, 2, fake.opts.Workers)
	assert.InDelta(t, 0.05, fake.opts.Gap, 1e-9)
}

func TestOptimizeSolveReportsIncumbentsWithForcedPenalty(t *testing.T) {
	req := singleTheoryRequest()
	req.Rooms = nil // forces the no-room penalty into the reported objective
	grid := NewGrid()
	busy := PreloadBusy(grid, nil, zap.NewNop())

	fake := &fakeSolver{result: pbsat.Result{Feasible: false}}
	solver := newOptimizeSolver(grid, req, busy, OptimizeConfig{}, fake, zap.NewNop())

	var reported []int
	sink := progress.SinkFunc(func(u progress.Update) {
		if u.BestObjective != nil {
			reported = append(reported, *u.BestObjective)
		}
	})

	sessions := []Session{{ID: "s1", CourseID: "c1", FacultyID: "f1", ClassID: "CS-A", Department: "CS", Duration: 1, Students: 40}}
	_, _, err := solver.Solve(context.Background(), sessions, sink)
	require.NoError(t, err)

	fake.opts.OnIncumbent(250, 3)
	require.Len(t, reported, 1)
	assert.Equal(t, 250+penaltyNoRoom, reported[0])
}

func TestOptimizeEndToEnd(t *testing.T) {
	g := gomega.NewWithT(t)

	cfg := config.Default()
	cfg.Algorithm = config.AlgorithmCPSAT
	cfg.SolverBudget = 30 * time.Second
	cfg.SolverWorkers = 2
	scheduler, err := New(cfg, zap.NewNop())
	g.Expect(err).NotTo(gomega.HaveOccurred())

	req := &model.GenerateRequest{
		Courses: []model.Course{
			{ID: "c1", Code: "CS101", Name: "Programming", Credits: 3, EstimatedStudents: 40, Department: "CS", Semester: 1},
			{ID: "c2", Code: "CS101L", Name: "Programming Lab", Credits: 1, RequiresLab: true, EstimatedStudents: 20, Department: "CS", Semester: 1},
		},
		Faculty: []model.Faculty{{ID: "f1", Name: "Dr. Rao", Department: "CS"}},
		Rooms: []model.Room{
			{ID: "r1", Name: "LH-1", Type: model.RoomLecture, Capacity: 50},
			{ID: "r2", Name: "Lab-1", Type: model.RoomLab, Capacity: 30},
		},
		Allotments: []model.Allotment{
			{CourseID: "c1", FacultyID: "f1", ClassIDs: []string{"CS-A"}},
			{CourseID: "c2", FacultyID: "f1", ClassIDs: []string{"CS-A"}},
		},
	}

	result, err := scheduler.Generate(context.Background(), req, progress.Nop())
	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(result.Success).To(gomega.BeTrue())
	g.Expect(result.Conflicts).To(gomega.BeEmpty())
	// 2 theory slots plus a 2-slot lab.
	g.Expect(result.Timetable).To(gomega.HaveLen(4))
	g.Expect(result.Message).To(gomega.Equal("Schedule generated."))

	ok, report := Verify(req, result)
	g.Expect(ok).To(gomega.BeTrue(), report)
}
