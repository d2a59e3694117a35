package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"timetable-engine/pkg/model"
)

// Session is one atomic weekly occurrence of a course for one section. It
// is immutable once created; the solvers place sessions, never courses.
type Session struct {
	ID         string
	CourseID   string
	FacultyID  string
	ClassID    string
	Department string
	Duration   int
	IsLab      bool
	Priority   int
	Semester   int
	Students   int
}

// LabDetector decides whether a course must be scheduled as a lab. The
// default is a heuristic over course codes and names; callers with cleaner
// catalogs can substitute their own policy.
type LabDetector func(course model.Course) bool

// DefaultLabDetector classifies a course as a lab if the explicit flag is
// set, the code contains a digit immediately followed by 'L' where the 'L'
// ends the code or precedes a separator (CS101L, CS101L-SE), or the name
// contains "lab".
func DefaultLabDetector(course model.Course) bool {
	if course.RequiresLab {
		return true
	}
	code := course.Code
	for i := 0; i+1 < len(code); i++ {
		if code[i] >= '0' && code[i] <= '9' && code[i+1] == 'L' {
			if i+2 >= len(code) || code[i+2] == '-' || code[i+2] == '_' {
				return true
			}
		}
	}
	return strings.Contains(strings.ToLower(course.Name), "lab")
}

// priorityOf ranks a course by its type: core courses outrank majors,
// which outrank everything else.
func priorityOf(course model.Course) int {
	switch strings.ToLower(course.Type) {
	case "core":
		return 10
	case "major":
		return 7
	default:
		return 5
	}
}

// ExpandSessions turns allotments into schedulable sessions. Labs occur
// once per week and span two slots; theory courses occur twice (three
// times above 3 credits) and span one. Allotments referencing an unknown
// course are skipped without failing the request.
func ExpandSessions(req *model.GenerateRequest, detect LabDetector, logger *zap.Logger) []Session {
	if detect == nil {
		detect = DefaultLabDetector
	}
	courseByID := lo.KeyBy(req.Courses, func(c model.Course) string { return c.ID })

	sessions := make([]Session, 0, len(req.Allotments)*2)
	for _, allotment := range req.Allotments {
		course, ok := courseByID[allotment.CourseID]
		if !ok {
			logger.Warn("allotment references unknown course, skipping",
				zap.String("courseId", allotment.CourseID),
				zap.String("facultyId", allotment.FacultyID))
			continue
		}

		isLab := detect(course)
		occurrences, duration := 2, 1
		if isLab {
			occurrences, duration = 1, 2
		} else if course.Credits > 3 {
			occurrences = 3
		}

		for _, classID := range allotment.ClassIDs {
			for occ := 0; occ < occurrences; occ++ {
				sessions = append(sessions, Session{
					ID:         fmt.Sprintf("%s-%s-%d-%s", course.ID, classID, occ, uuid.NewString()[:8]),
					CourseID:   course.ID,
					FacultyID:  allotment.FacultyID,
					ClassID:    classID,
					Department: course.Department,
					Duration:   duration,
					IsLab:      isLab,
					Priority:   priorityOf(course),
					Semester:   course.Semester,
					Students:   course.EstimatedStudents,
				})
			}
		}
	}
	return sessions
}

// groupByDepartment partitions sessions by department and returns the
// department names in alphabetical order. Departments are solved
// independently to limit backtracking blast radius.
func groupByDepartment(sessions []Session) ([]string, map[string][]Session) {
	byDept := lo.GroupBy(sessions, func(s Session) string { return s.Department })
	depts := lo.Keys(byDept)
	sort.Strings(depts)
	return depts, byDept
}

// sortByStakes orders sessions so higher-stakes ones are placed first.
func sortByStakes(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Priority != sessions[j].Priority {
			return sessions[i].Priority > sessions[j].Priority
		}
		if sessions[i].Semester != sessions[j].Semester {
			return sessions[i].Semester > sessions[j].Semester
		}
		return sessions[i].Students > sessions[j].Students
	})
}

// compatibleRooms returns the indices of rooms whose type matches the
// session (labs in lab rooms, lectures in lecture rooms) and whose
// capacity covers the expected students.
func compatibleRooms(session Session, rooms []model.Room) []int {
	required := model.RoomLecture
	if session.IsLab {
		required = model.RoomLab
	}
	indices := make([]int, 0, len(rooms))
	for i, room := range rooms {
		if room.Type != required || room.Capacity < session.Students {
			continue
		}
		indices = append(indices, i)
	}
	return indices
}
