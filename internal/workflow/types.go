package workflow

import (
	"time"

	"opencrew/internal/agent"
)

// Status is the terminal state of a workflow run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Step is one stage of a workflow: which agent runs, what it is asked to
// do, and what it produced.
type Step struct {
	AgentRole       string        `json:"agent_role"`
	TaskDescription string        `json:"task_description"`
	ExpectedOutput  string        `json:"expected_output"`
	Result          *agent.Result `json:"result,omitempty"`
}

// Ratings are the reviewer's numeric quality scores. Zero means the
// reviewer did not produce a parseable score for that criterion.
type Ratings struct {
	Completeness int `json:"completeness"`
	Quality      int `json:"quality"`
	Clarity      int `json:"clarity"`
	Feasibility  int `json:"feasibility"`
	Alignment    int `json:"alignment"`
}

// Average returns the mean of the criteria that actually got a score.
func (r Ratings) Average() float64 {
	sum, n := 0, 0
	for _, v := range []int{r.Completeness, r.Quality, r.Clarity, r.Feasibility, r.Alignment} {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// Result is the complete outcome of one workflow run.
type Result struct {
	Status        Status        `json:"status"`
	Steps         []Step        `json:"steps"`
	FinalOutput   string        `json:"final_output"`
	ExecutionTime time.Duration `json:"execution_time"`
	Success       bool          `json:"success"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	Ratings       Ratings       `json:"ratings"`
}

// StepResults returns each stage's output keyed by agent role.
func (r Result) StepResults() map[string]string {
	out := make(map[string]string, len(r.Steps))
	for _, step := range r.Steps {
		content := ""
		if step.Result != nil {
			content = step.Result.Content
		}
		out[step.AgentRole] = content
	}
	return out
}
