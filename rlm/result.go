package rlm

// Status tags how a run ended.
type Status string

const (
	StatusAnswered  Status = "answered"
	StatusExhausted Status = "exhausted"
)

// ExhaustedMessage is the rendering of a run that used its whole budget.
const ExhaustedMessage = "Max iterations reached without a Final Answer."

// Result is the outcome of Completion.
type Result struct {
	Status     Status `json:"status"`
	Answer     string `json:"answer,omitempty"`
	Iterations int    `json:"iterations"`
}

// Answered reports whether the run produced a final answer.
func (r Result) Answered() bool { return r.Status == StatusAnswered }

// String renders the answer, or ExhaustedMessage when there is none.
func (r Result) String() string {
	if r.Status == StatusExhausted {
		return ExhaustedMessage
	}
	return r.Answer
}
