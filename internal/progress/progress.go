package progress

// Status of a generation run as exposed to polling callers.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusProcessing   Status = "processing"
	StatusSolving      Status = "solving"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
)

// Update is one milestone written by the engine: parse, session build,
// model build, solve start, each incumbent, assembly, completion or error.
type Update struct {
	Status         Status `json:"status"`
	Progress       int    `json:"progress"`
	Message        string `json:"message"`
	SolutionsFound int    `json:"solutions_found"`
	BestObjective  *int   `json:"best_objective"`
}

// Sink receives engine progress updates. The engine is the only writer for
// the duration of a solve; the owner decides how updates are exposed.
type Sink interface {
	Publish(Update)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Update)

func (f SinkFunc) Publish(u Update) { f(u) }

type nopSink struct{}

func (nopSink) Publish(Update) {}

// Nop returns a sink that discards every update.
func Nop() Sink { return nopSink{} }
