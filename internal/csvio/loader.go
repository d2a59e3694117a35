// Package csvio loads generation datasets from CSV files.
package csvio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"timetable-engine/internal/engine"
	"timetable-engine/pkg/model"
)

// Expected files inside a dataset directory.
const (
	CoursesFile    = "courses.csv"
	FacultyFile    = "faculty.csv"
	RoomsFile      = "rooms.csv"
	AllotmentsFile = "allotments.csv"
)

type courseRow struct {
	ID                string `csv:"id"`
	Code              string `csv:"code"`
	Name              string `csv:"name"`
	Type              string `csv:"type"`
	Credits           int    `csv:"credits"`
	RequiresLab       bool   `csv:"requires_lab"`
	EstimatedStudents int    `csv:"estimated_students"`
	Department        string `csv:"department"`
	Semester          string `csv:"semester"`
}

type facultyRow struct {
	ID         string `csv:"id"`
	Name       string `csv:"name"`
	Department string `csv:"department"`
}

type roomRow struct {
	ID       string `csv:"id"`
	Name     string `csv:"name"`
	Type     string `csv:"type"`
	Capacity int    `csv:"capacity"`
}

type allotmentRow struct {
	CourseID  string `csv:"course_id"`
	FacultyID string `csv:"faculty_id"`
	ClassIDs  string `csv:"class_ids"` // semicolon-separated section ids
}

// LoadDataset reads the four CSV files of dir into a normalized request
// payload, applying the same defaults as the JSON ingestion path.
func LoadDataset(dir string) (*model.GenerateRequest, error) {
	var courses []courseRow
	if err := unmarshalFile(filepath.Join(dir, CoursesFile), &courses); err != nil {
		return nil, err
	}
	var faculty []facultyRow
	if err := unmarshalFile(filepath.Join(dir, FacultyFile), &faculty); err != nil {
		return nil, err
	}
	var rooms []roomRow
	if err := unmarshalFile(filepath.Join(dir, RoomsFile), &rooms); err != nil {
		return nil, err
	}
	var allotments []allotmentRow
	if err := unmarshalFile(filepath.Join(dir, AllotmentsFile), &allotments); err != nil {
		return nil, err
	}

	req := &model.GenerateRequest{}
	for _, row := range courses {
		credits := row.Credits
		if credits == 0 {
			credits = engine.DefaultCredits
		}
		students := row.EstimatedStudents
		if students == 0 {
			students = engine.DefaultStudents
		}
		req.Courses = append(req.Courses, model.Course{
			ID:                row.ID,
			Code:              row.Code,
			Name:              row.Name,
			Type:              row.Type,
			Credits:           credits,
			RequiresLab:       row.RequiresLab,
			EstimatedStudents: students,
			Department:        row.Department,
			Semester:          engine.NormalizeSemester(row.Semester),
		})
	}
	for _, row := range faculty {
		req.Faculty = append(req.Faculty, model.Faculty{
			ID:         row.ID,
			Name:       row.Name,
			Department: row.Department,
		})
	}
	for _, row := range rooms {
		req.Rooms = append(req.Rooms, model.Room{
			ID:       row.ID,
			Name:     row.Name,
			Type:     row.Type,
			Capacity: row.Capacity,
		})
	}
	for _, row := range allotments {
		var classIDs []string
		for _, id := range strings.Split(row.ClassIDs, ";") {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				classIDs = append(classIDs, trimmed)
			}
		}
		req.Allotments = append(req.Allotments, model.Allotment{
			CourseID:  row.CourseID,
			FacultyID: row.FacultyID,
			ClassIDs:  classIDs,
		})
	}
	return req, nil
}

func unmarshalFile(path string, out any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
