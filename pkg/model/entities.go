package model

// Room types recognized by the scheduler.
const (
	RoomLecture = "lecture"
	RoomLab     = "lab"
)

type Course struct {
	ID                string `json:"id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	Credits           int    `json:"credits"`
	RequiresLab       bool   `json:"requiresLab"`
	EstimatedStudents int    `json:"estimatedStudents"`
	Department        string `json:"department"`
	Semester          int    `json:"semester"`
}

type Faculty struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
}

// Allotment pairs a course with a faculty member and lists the sections
// that must take the course with them.
type Allotment struct {
	CourseID  string   `json:"courseId"`
	FacultyID string   `json:"facultyId"`
	ClassIDs  []string `json:"classIds"`
}

// TimeSlotRef is the wire representation of a slot on the weekly grid.
type TimeSlotRef struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ExistingEntry is one already-committed placement from a timetable
// generated outside this request. Only the faculty, room and slot matter.
type ExistingEntry struct {
	FacultyID string      `json:"facultyId"`
	RoomID    string      `json:"roomId"`
	TimeSlot  TimeSlotRef `json:"timeSlot"`
}

type ExistingTimetable struct {
	ID      string          `json:"id"`
	Entries []ExistingEntry `json:"entries"`
}
