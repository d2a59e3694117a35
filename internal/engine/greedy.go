package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"timetable-engine/internal/progress"
	"timetable-engine/pkg/model"
)

// GreedyConfig bounds the backtracking search. MaxDepth caps recursion
// below the sequential walk; TimeLimit is a wall-clock cutoff measured
// from the start of the whole solve, shared across departments.
type GreedyConfig struct {
	MaxDepth  int
	TimeLimit time.Duration
}

// occupancy is the shared mutable state of one greedy solve: room-slot
// ownership, faculty busy slots, and per-department section busy slots.
// Every commit on a search path has exactly one matching undo on
// backtrack, so sibling branches always observe consistent state.
type occupancy struct {
	rooms   map[string]map[int]string
	faculty map[string]slotSet
	classes map[string]map[string]slotSet
	labs    map[string]map[string]int
}

func newOccupancy() *occupancy {
	return &occupancy{
		rooms:   make(map[string]map[int]string),
		faculty: make(map[string]slotSet),
		classes: make(map[string]map[string]slotSet),
		labs:    make(map[string]map[string]int),
	}
}

func (o *occupancy) labCount(dept, classID string) int {
	return o.labs[dept][classID]
}

func (o *occupancy) classSlots(dept, classID string) slotSet {
	byClass, ok := o.classes[dept]
	if !ok {
		byClass = make(map[string]slotSet)
		o.classes[dept] = byClass
	}
	set, ok := byClass[classID]
	if !ok {
		set = make(slotSet)
		byClass[classID] = set
	}
	return set
}

func (o *occupancy) commit(session Session, room model.Room, startSlot int) {
	if session.IsLab {
		byClass, ok := o.labs[session.Department]
		if !ok {
			byClass = make(map[string]int)
			o.labs[session.Department] = byClass
		}
		byClass[session.ClassID]++
	}
	for dt := 0; dt < session.Duration; dt++ {
		slot := startSlot + dt
		roomSlots, ok := o.rooms[room.ID]
		if !ok {
			roomSlots = make(map[int]string)
			o.rooms[room.ID] = roomSlots
		}
		roomSlots[slot] = session.ID
		mark(o.faculty, session.FacultyID, slot)
		o.classSlots(session.Department, session.ClassID)[slot] = struct{}{}
	}
}

func (o *occupancy) undo(session Session, room model.Room, startSlot int) {
	if session.IsLab {
		o.labs[session.Department][session.ClassID]--
	}
	for dt := 0; dt < session.Duration; dt++ {
		slot := startSlot + dt
		delete(o.rooms[room.ID], slot)
		delete(o.faculty[session.FacultyID], slot)
		delete(o.classSlots(session.Department, session.ClassID), slot)
	}
}

// occupiedSlots counts every occupied (room, slot) cell; zero means all
// commits were undone.
func (o *occupancy) occupiedSlots() int {
	total := 0
	for _, slots := range o.rooms {
		total += len(slots)
	}
	return total
}

type greedySolver struct {
	grid   *Grid
	rooms  []model.Room
	busy   *BusySets
	codes  map[string]string // courseID -> display code
	cfg    GreedyConfig
	logger *zap.Logger

	occ       *occupancy
	assigned  []Assignment
	conflicts []model.Conflict
	start     time.Time
}

func newGreedySolver(grid *Grid, req *model.GenerateRequest, busy *BusySets, cfg GreedyConfig, logger *zap.Logger) *greedySolver {
	codes := make(map[string]string, len(req.Courses))
	for _, c := range req.Courses {
		codes[c.ID] = c.Code
	}
	return &greedySolver{
		grid:   grid,
		rooms:  req.Rooms,
		busy:   busy,
		codes:  codes,
		cfg:    cfg,
		logger: logger,
		occ:    newOccupancy(),
	}
}

// Solve partitions sessions by department, sorts each department by
// stakes, and runs the bounded backtracking search per department.
func (s *greedySolver) Solve(sessions []Session, sink progress.Sink) ([]Assignment, []model.Conflict) {
	s.start = time.Now()
	depts, byDept := groupByDepartment(sessions)
	s.logger.Info("sessions grouped by department", zap.Int("departments", len(depts)))

	for i, dept := range depts {
		deptSessions := byDept[dept]
		sortByStakes(deptSessions)

		sink.Publish(progress.Update{
			Status:   progress.StatusSolving,
			Progress: 30 + i*50/len(depts),
			Message:  fmt.Sprintf("Scheduling %s (%d sessions)...", dept, len(deptSessions)),
		})

		before := len(s.assigned)
		deptStart := time.Now()
		complete := s.schedule(deptSessions, 0, 0)
		s.logger.Info("department scheduled",
			zap.String("department", dept),
			zap.Int("placed", len(s.assigned)-before),
			zap.Int("sessions", len(deptSessions)),
			zap.Bool("complete", complete),
			zap.Duration("took", time.Since(deptStart)))
	}
	return s.assigned, s.conflicts
}

// schedule places sessions[index:] recursively. A session that cannot be
// placed is recorded as a conflict and the walk continues; only depth and
// time bounds make the recursion itself fail, which the caller treats as
// "accept what is placed so far".
func (s *greedySolver) schedule(sessions []Session, index, depth int) bool {
	if time.Since(s.start) > s.cfg.TimeLimit {
		return false
	}
	if depth > s.cfg.MaxDepth {
		return false
	}
	if index >= len(sessions) {
		return true
	}

	session := sessions[index]
	rooms := compatibleRooms(session, s.rooms)
	if len(rooms) == 0 {
		s.conflicts = append(s.conflicts, model.Conflict{
			Type:     model.ConflictNoRoom,
			Severity: model.SeverityError,
			Message: fmt.Sprintf("[%s] No suitable room for %s (needs %s room)",
				session.Department, s.codes[session.CourseID], requiredRoomType(session)),
		})
		return s.schedule(sessions, index+1, depth)
	}

	for _, roomIdx := range rooms {
		room := s.rooms[roomIdx]
		for slot := 0; slot < s.grid.SlotCount(); slot++ {
			if !s.validSlot(session, room, slot) {
				continue
			}
			s.occ.commit(session, room, slot)
			s.assigned = append(s.assigned, Assignment{Session: session, Room: room, StartSlot: slot})
			if s.schedule(sessions, index+1, depth+1) {
				return true
			}
			s.occ.undo(session, room, slot)
			s.assigned = s.assigned[:len(s.assigned)-1]
		}
	}

	s.conflicts = append(s.conflicts, model.Conflict{
		Type:     model.ConflictNoSlot,
		Severity: model.SeverityWarning,
		Message: fmt.Sprintf("[%s] Could not schedule %s for %s - no valid time slots",
			session.Department, s.codes[session.CourseID], session.ClassID),
	})
	return s.schedule(sessions, index+1, depth)
}

// validSlot checks a candidate start slot against every hard rule: the
// duration must fit within one day, the section must be under its weekly
// cap of 2 lab sessions, every covered slot must be free for the room,
// faculty and section (including preloaded busy sets), and the section's
// daily load rules must survive the placement.
func (s *greedySolver) validSlot(session Session, room model.Room, startSlot int) bool {
	last := startSlot + session.Duration - 1
	if last >= s.grid.SlotCount() || !s.grid.SameDay(startSlot, last) {
		return false
	}
	if session.IsLab && s.occ.labCount(session.Department, session.ClassID) >= 2 {
		return false
	}

	classSlots := s.occ.classSlots(session.Department, session.ClassID)
	for dt := 0; dt < session.Duration; dt++ {
		slot := startSlot + dt
		if _, taken := s.occ.rooms[room.ID][slot]; taken {
			return false
		}
		if s.busy.RoomBusy(room.ID, slot) {
			return false
		}
		if _, taken := s.occ.faculty[session.FacultyID][slot]; taken {
			return false
		}
		if s.busy.FacultyBusy(session.FacultyID, slot) {
			return false
		}
		if _, taken := classSlots[slot]; taken {
			return false
		}
	}
	return s.dailyLoadOK(session, classSlots, startSlot)
}

// dailyLoadOK enforces the section's daily cap of 3 occupied slots and the
// mandatory break after 2 in a row.
func (s *greedySolver) dailyLoadOK(session Session, classSlots slotSet, startSlot int) bool {
	day := s.grid.DayOf(startSlot)
	perDay := s.grid.SlotsPerDay()

	occupied := make([]bool, perDay)
	count := 0
	for slot := range classSlots {
		if s.grid.DayOf(slot) == day {
			occupied[slot%perDay] = true
			count++
		}
	}
	for dt := 0; dt < session.Duration; dt++ {
		occupied[(startSlot+dt)%perDay] = true
	}
	if count+session.Duration > 3 {
		return false
	}
	for i := 0; i+2 < perDay; i++ {
		if occupied[i] && occupied[i+1] && occupied[i+2] {
			return false
		}
	}
	return true
}

func requiredRoomType(session Session) string {
	if session.IsLab {
		return model.RoomLab
	}
	return model.RoomLecture
}
