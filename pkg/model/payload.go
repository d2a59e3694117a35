package model

// Conflict severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Conflict types.
const (
	ConflictNoRoom = "no-room"
	ConflictNoSlot = "no-slot"
)

// Conflict is a diagnostic attached to the output. Conflicts never abort a
// solve; they explain which sessions could not be placed and why.
type Conflict struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// GenerateRequest is the full input of one generation run. All records are
// already normalized: defaults applied, semesters coerced to integers.
type GenerateRequest struct {
	Courses            []Course            `json:"courses"`
	Faculty            []Faculty           `json:"faculty"`
	Rooms              []Room              `json:"rooms"`
	Allotments         []Allotment         `json:"allotments"`
	ExistingTimetables []ExistingTimetable `json:"existingTimetables"`
}

type EntryMetadata struct {
	DepartmentCode string `json:"departmentCode"`
	SemesterLevel  int    `json:"semesterLevel"`
}

// TimetableEntry is one occupied slot of the produced timetable, with
// display fields denormalized for the caller.
type TimetableEntry struct {
	ID          string        `json:"id"`
	CourseCode  string        `json:"courseCode"`
	CourseName  string        `json:"courseName"`
	FacultyName string        `json:"facultyName"`
	RoomName    string        `json:"roomName"`
	ClassID     string        `json:"classId"`
	CourseID    string        `json:"courseId"`
	FacultyID   string        `json:"facultyId"`
	RoomID      string        `json:"roomId"`
	TimeSlot    TimeSlotRef   `json:"timeSlot"`
	Metadata    EntryMetadata `json:"metadata"`
}

type Statistics struct {
	ScheduledCourses int `json:"scheduledCourses"`
	UsedSlots        int `json:"usedSlots"`
	ConflictsFound   int `json:"conflictsFound"`
}

// GenerateResult is the output payload. Success is true iff at least one
// entry was produced; partial placement is a normal outcome.
type GenerateResult struct {
	Success    bool             `json:"success"`
	Timetable  []TimetableEntry `json:"timetable"`
	Conflicts  []Conflict       `json:"conflicts"`
	Message    string           `json:"message"`
	Statistics Statistics       `json:"statistics"`
}
