package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"timetable-engine/pkg/model"
)

// Courses arrive as loosely-typed records: semesters may be free text
// ("Semester 3"), counts may be strings or missing entirely. Defaults are
// applied here, at ingestion, so the solvers only ever see fixed-shape
// values.
const (
	DefaultCredits  = 3
	DefaultSemester = 1
	DefaultStudents = 30
)

type rawCourse struct {
	ID                string
	Code              string
	Name              string
	Type              string
	Department        string
	RequiresLab       bool `mapstructure:"requiresLab"`
	Credits           any
	EstimatedStudents any `mapstructure:"estimatedStudents"`
	Semester          any
}

type rawPayload struct {
	Courses            []rawCourse
	Faculty            []model.Faculty
	Rooms              []model.Room
	Allotments         []model.Allotment
	ExistingTimetables []model.ExistingTimetable `mapstructure:"existingTimetables"`
}

// ParseRequest decodes a loose request payload into a normalized
// GenerateRequest.
func ParseRequest(data map[string]any) (*model.GenerateRequest, error) {
	var raw rawPayload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build payload decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	req := &model.GenerateRequest{
		Faculty:            raw.Faculty,
		Rooms:              raw.Rooms,
		Allotments:         raw.Allotments,
		ExistingTimetables: raw.ExistingTimetables,
	}
	for _, c := range raw.Courses {
		req.Courses = append(req.Courses, model.Course{
			ID:                c.ID,
			Code:              c.Code,
			Name:              c.Name,
			Type:              c.Type,
			Department:        c.Department,
			RequiresLab:       c.RequiresLab,
			Credits:           coerceInt(c.Credits, DefaultCredits),
			EstimatedStudents: coerceInt(c.EstimatedStudents, DefaultStudents),
			Semester:          coerceInt(c.Semester, DefaultSemester),
		})
	}
	return req, nil
}

// ParseRequestJSON decodes a raw JSON body.
func ParseRequestJSON(body []byte) (*model.GenerateRequest, error) {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return ParseRequest(data)
}

// NormalizeSemester reduces a free-text semester ("Semester 3") to its
// first embedded integer, defaulting to 1.
func NormalizeSemester(value string) int {
	return coerceInt(value, DefaultSemester)
}

var digitRun = regexp.MustCompile(`\d+`)

// coerceInt normalizes a loosely-typed numeric value. Free text yields its
// first embedded integer; anything else falls back to def.
func coerceInt(v any, def int) int {
	switch value := v.(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return int(n)
		}
		return def
	case string:
		if match := digitRun.FindString(value); match != "" {
			if n, err := strconv.Atoi(match); err == nil {
				return n
			}
		}
		return def
	default:
		return def
	}
}
