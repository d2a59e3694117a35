package engine

import (
	"fmt"

	"github.com/samber/lo"

	"timetable-engine/pkg/model"
)

// Assignment is one accepted placement: a session occupying a room for
// [StartSlot, StartSlot+Duration).
type Assignment struct {
	Session   Session
	Room      model.Room
	StartSlot int
}

// Assemble expands accepted assignments into one timetable entry per
// covered slot, with display fields denormalized and aggregate statistics
// computed. Success is true iff at least one entry was produced.
func Assemble(grid *Grid, req *model.GenerateRequest, assigned []Assignment, conflicts []model.Conflict, message string) *model.GenerateResult {
	courseByID := lo.KeyBy(req.Courses, func(c model.Course) string { return c.ID })
	facultyByID := lo.KeyBy(req.Faculty, func(f model.Faculty) string { return f.ID })

	entries := make([]model.TimetableEntry, 0, len(assigned))
	usedSlots := 0
	for _, assignment := range assigned {
		session := assignment.Session
		course := courseByID[session.CourseID]
		courseName := course.Name
		if courseName == "" {
			courseName = course.Code
		}
		usedSlots += session.Duration

		for dt := 0; dt < session.Duration; dt++ {
			entries = append(entries, model.TimetableEntry{
				ID:          fmt.Sprintf("%s-%d", session.ID, dt),
				CourseCode:  course.Code,
				CourseName:  courseName,
				FacultyName: facultyByID[session.FacultyID].Name,
				RoomName:    assignment.Room.Name,
				ClassID:     session.ClassID,
				CourseID:    session.CourseID,
				FacultyID:   session.FacultyID,
				RoomID:      assignment.Room.ID,
				TimeSlot:    grid.Ref(assignment.StartSlot + dt),
				Metadata: model.EntryMetadata{
					DepartmentCode: session.Department,
					SemesterLevel:  session.Semester,
				},
			})
		}
	}

	if conflicts == nil {
		conflicts = []model.Conflict{}
	}
	return &model.GenerateResult{
		Success:   len(entries) > 0,
		Timetable: entries,
		Conflicts: conflicts,
		Message:   message,
		Statistics: model.Statistics{
			ScheduledCourses: len(assigned),
			UsedSlots:        usedSlots,
			ConflictsFound:   len(conflicts),
		},
	}
}
