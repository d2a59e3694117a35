package progress

import (
	"errors"
	"sync"

	"timetable-engine/pkg/model"
)

// ErrUnknownRequest is returned when polling an id the store never saw.
var ErrUnknownRequest = errors.New("progress: unknown request id")

// Record is the full polling view of one generation request: the latest
// progress update plus, once finished, the result payload.
type Record struct {
	Status         Status                `json:"status"`
	Progress       int                   `json:"progress"`
	Message        string                `json:"message"`
	SolutionsFound int                   `json:"solutions_found"`
	BestObjective  *int                  `json:"best_objective"`
	Result         *model.GenerateResult `json:"result"`
}

// Store tracks generation progress keyed by a caller-issued request id.
// Safe for concurrent use: each running solve writes its own record while
// callers poll.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Begin registers a request id and returns the sink the engine writes to.
func (s *Store) Begin(id string) Sink {
	s.mu.Lock()
	s.records[id] = &Record{
		Status:  StatusInitializing,
		Message: "Setting up solver...",
	}
	s.mu.Unlock()
	return SinkFunc(func(u Update) {
		s.mu.Lock()
		if record, ok := s.records[id]; ok {
			record.Status = u.Status
			record.Progress = u.Progress
			record.Message = u.Message
			record.SolutionsFound = u.SolutionsFound
			record.BestObjective = u.BestObjective
		}
		s.mu.Unlock()
	})
}

// Finish attaches the outcome of a completed (or failed) run.
func (s *Store) Finish(id string, result *model.GenerateResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return
	}
	if err != nil {
		record.Status = StatusError
		record.Message = err.Error()
		record.Result = &model.GenerateResult{Success: false, Message: err.Error()}
		return
	}
	record.Status = StatusCompleted
	record.Progress = 100
	record.Message = "Generation completed!"
	record.Result = result
}

// Get returns a copy of the record for id.
func (s *Store) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return Record{}, ErrUnknownRequest
	}
	return *record, nil
}
