package model

// TurnState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - Registered as Graph Local State via compose.WithGenLocalState, so every
//     ProcessQuery call gets a fresh value and nothing leaks across turns.
//   - All reads/writes happen only inside Eino state handlers or
//     compose.ProcessState, which serialize access.
type TurnState struct {
	TurnID string
	Query  string // immutable once set by the first classifier pass
	Passes int    // classifier passes started this turn

	Classification *ClassificationResult
	Extraction     *ExtractionResult
	// Execution is the tool result. Once set it is never overwritten within the turn.
	Execution *ExecutionResult

	Response string
	Complete bool

	// Accumulated total LLM cost (USD) across oracle calls for this turn
	TotalCostUSD float64
}

// QueryInput represents the input for processing one user line.
type QueryInput struct {
	TurnID string `json:"turn_id"`
	Query  string `json:"query"`
}

// ClassificationResult is the output of the classify stage.
type ClassificationResult struct {
	Intent           Intent
	Text             string // raw classifier answer
	Confidence       string // HIGH/MEDIUM/LOW when the classifier reported one
	FormattedContext string
	RawContext       []User
}

// ExtractionResult holds the parameters the oracle extracted from the query.
type ExtractionResult struct {
	Parameters map[string]any
	Raw        string
}

// Outcome classifies an executed operation.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRejected Outcome = "rejected" // precondition violated, store untouched
	OutcomeFailed   Outcome = "failed"   // store reported no change
	OutcomeError    Outcome = "error"    // tool-level failure
)

// ExecutionResult is the outcome of the single operation a turn may run.
type ExecutionResult struct {
	Operation Intent
	Outcome   Outcome
	Message   string
}

// ExecutionStage flows from the executor node to the responder node.
type ExecutionStage struct {
	Parameters map[string]any
	Raw        string // oracle extraction answer, empty when the guard short-circuited
	Execution  *ExecutionResult
	Missing    []string
}

// TurnReply is the responder output and the graph output.
type TurnReply struct {
	Response string
	Complete bool
	Intent   Intent
}
