package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"opencrew/internal/agent"
	"opencrew/internal/eventbus"
)

// reviewTruncateChars caps how much of each earlier stage the reviewer
// sees, to keep the review prompt within the model's window.
const reviewTruncateChars = 2000

// Sequential runs the standard crew pipeline: UX analyzes, Planner plans,
// Developer builds, Reviewer rates. Ratings are analytics; a low score
// never blocks completion.
type Sequential struct {
	agents map[string]*agent.Agent
	bus    *eventbus.Bus

	memoryContext func(ctx context.Context, role string) string
}

// NewSequential creates the workflow. All four crew roles must be present.
func NewSequential(agents map[string]*agent.Agent, bus *eventbus.Bus) (*Sequential, error) {
	for _, role := range []string{agent.RoleUX, agent.RolePlanner, agent.RoleDeveloper, agent.RoleReviewer} {
		if _, ok := agents[role]; !ok {
			return nil, fmt.Errorf("missing required agent: %s", role)
		}
	}
	return &Sequential{agents: agents, bus: bus}, nil
}

// WithMemoryContext installs a provider of per-agent memory blocks that
// are injected into each stage's task context.
func (w *Sequential) WithMemoryContext(fn func(ctx context.Context, role string) string) *Sequential {
	w.memoryContext = fn
	return w
}

// Execute runs the full pipeline for one user request.
func (w *Sequential) Execute(ctx context.Context, userRequest string) Result {
	start := time.Now()
	steps := w.defineSteps(userRequest)

	var previous []agent.Result
	for i := range steps {
		step := &steps[i]
		w.publishStage(step.AgentRole, i, len(steps))

		tc := w.buildContext(step, previous, userRequest)
		res := w.agents[step.AgentRole].ExecuteTask(ctx, tc)
		step.Result = &res

		if !res.Success {
			log.Warn().Str("agent", step.AgentRole).Str("error", res.ErrorMessage).Msg("stage failed")
		}
		previous = append(previous, res)

		// A failed stage leaves downstream stages without their input.
		// The reviewer is the exception: its evaluation is advisory, so
		// the run completes without ratings.
		if !res.Success && step.AgentRole != agent.RoleReviewer {
			return Result{
				Status:        StatusFailed,
				Steps:         steps,
				FinalOutput:   "",
				ExecutionTime: time.Since(start),
				Success:       false,
				ErrorMessage:  res.ErrorMessage,
			}
		}
	}

	ratings := w.collectRatings(steps)
	return Result{
		Status:        StatusCompleted,
		Steps:         steps,
		FinalOutput:   compileFinalOutput(steps),
		ExecutionTime: time.Since(start),
		Success:       true,
		Ratings:       ratings,
	}
}

func (w *Sequential) defineSteps(userRequest string) []Step {
	return []Step{
		{
			AgentRole:       agent.RoleUX,
			TaskDescription: "Analyze user experience aspects of: " + userRequest,
			ExpectedOutput:  "User experience analysis with requirements, user needs, and interaction patterns",
		},
		{
			AgentRole:       agent.RolePlanner,
			TaskDescription: "Create detailed implementation plan based on the analysis",
			ExpectedOutput:  "Step-by-step implementation plan with clear tasks and dependencies",
		},
		{
			AgentRole:       agent.RoleDeveloper,
			TaskDescription: "Implement the solution according to the analysis and plan",
			ExpectedOutput:  "Complete working implementation with code, documentation, and usage instructions",
		},
		{
			AgentRole:       agent.RoleReviewer,
			TaskDescription: "Review and validate the complete deliverable against requirements",
			ExpectedOutput:  "Quality assessment with numeric ratings (1-10) for completeness, quality, clarity, feasibility, and alignment",
		},
	}
}

// buildContext chains each stage's output into the next stage's task.
func (w *Sequential) buildContext(step *Step, previous []agent.Result, userRequest string) agent.TaskContext {
	tc := agent.TaskContext{
		TaskDescription: step.TaskDescription,
		ExpectedOutput:  step.ExpectedOutput,
		UserInput:       userRequest,
	}
	if w.memoryContext != nil {
		tc.MemoryContext = w.memoryContext(context.Background(), step.AgentRole)
	}

	// Each stage's context is embedded in its task description below, so
	// earlier outputs are not repeated as a separate results list.
	switch step.AgentRole {
	case agent.RolePlanner:
		if len(previous) >= 1 {
			tc.TaskDescription = fmt.Sprintf(`Create a detailed implementation plan based on this analysis:

ANALYSIS:
%s

PLANNING TASK:
%s

Provide a clear, actionable plan that the development team can follow.`,
				previous[0].Content, step.TaskDescription)
		}
	case agent.RoleDeveloper:
		if len(previous) >= 2 {
			tc.TaskDescription = fmt.Sprintf(`Implement the solution based on this analysis and plan:

ANALYSIS:
%s

IMPLEMENTATION PLAN:
%s

DEVELOPMENT TASK:
%s

Create a complete, working implementation that follows the analysis and plan.`,
				previous[0].Content, previous[1].Content, step.TaskDescription)
		}
	case agent.RoleReviewer:
		if len(previous) >= 3 {
			tc.TaskDescription = fmt.Sprintf(`Review and validate this complete deliverable:

ORIGINAL REQUIREMENTS:
%s

ANALYSIS SUMMARY:
%s

IMPLEMENTATION PLAN SUMMARY:
%s

DEVELOPER DELIVERABLE:
%s

REVIEW TASK:
%s

Note: analysis and plan sections may be truncated. Focus primarily on validating the developer deliverable against the original requirements.

Provide numeric ratings (1-10) for each evaluation criterion listed in your system prompt.`,
				userRequest,
				truncate(previous[0].Content, reviewTruncateChars),
				truncate(previous[1].Content, reviewTruncateChars),
				previous[2].Content,
				step.TaskDescription)
		}
	}
	return tc
}

func (w *Sequential) collectRatings(steps []Step) Ratings {
	for _, step := range steps {
		if step.AgentRole != agent.RoleReviewer {
			continue
		}
		if step.Result == nil || !step.Result.Success {
			log.Warn().Msg("reviewer failed, proceeding without quality ratings")
			return Ratings{}
		}
		return ParseRatings(step.Result.Content)
	}
	return Ratings{}
}

func (w *Sequential) publishStage(role string, index, total int) {
	if w.bus != nil {
		w.bus.Publish(eventbus.TopicWorkflowStage, eventbus.StagePayload{
			Stage: role, Index: index, Total: total,
		})
	}
}

var ratingPatterns = map[string]*regexp.Regexp{
	"completeness": regexp.MustCompile(`(?i)\*\*Completeness Rating\*\*:\s*(\d+)/10`),
	"quality":      regexp.MustCompile(`(?i)\*\*Quality Rating\*\*:\s*(\d+)/10`),
	"clarity":      regexp.MustCompile(`(?i)\*\*Clarity Rating\*\*:\s*(\d+)/10`),
	"feasibility":  regexp.MustCompile(`(?i)\*\*Feasibility Rating\*\*:\s*(\d+)/10`),
	"alignment":    regexp.MustCompile(`(?i)\*\*Alignment Rating\*\*:\s*(\d+)/10`),
}

// ParseRatings extracts "**<Criterion> Rating**: N/10" scores from review
// text. Values outside 1-10 are ignored.
func ParseRatings(review string) Ratings {
	score := func(name string) int {
		m := ratingPatterns[name].FindStringSubmatch(review)
		if m == nil {
			return 0
		}
		v, err := strconv.Atoi(m[1])
		if err != nil || v < 1 || v > 10 {
			return 0
		}
		return v
	}
	return Ratings{
		Completeness: score("completeness"),
		Quality:      score("quality"),
		Clarity:      score("clarity"),
		Feasibility:  score("feasibility"),
		Alignment:    score("alignment"),
	}
}

// compileFinalOutput assembles the deliverable: the developer's work
// followed by the reviewer's quality assessment.
func compileFinalOutput(steps []Step) string {
	var dev, review *Step
	for i := range steps {
		switch steps[i].AgentRole {
		case agent.RoleDeveloper:
			dev = &steps[i]
		case agent.RoleReviewer:
			review = &steps[i]
		}
	}

	if dev == nil || dev.Result == nil || !dev.Result.Success {
		// Fall back to whatever stages did produce output.
		var parts []string
		for _, step := range steps {
			if step.Result != nil && step.Result.Success {
				parts = append(parts, fmt.Sprintf("## %s Output\n%s\n", step.AgentRole, step.Result.Content))
			}
		}
		return strings.Join(parts, "\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# ✅ Completed Project Deliverable\n\n%s\n\n---\n", dev.Result.Content)
	if review != nil && review.Result != nil && review.Result.Success {
		fmt.Fprintf(&b, "## 🔍 Quality Assessment\n%s\n\n---\n", review.Result.Content)
	} else {
		b.WriteString("## 🔍 Quality Assessment\nQuality ratings unavailable due to reviewer failure.\n\n---\n")
	}
	return b.String()
}

func truncate(content string, maxChars int) string {
	if len(content) <= maxChars {
		return content
	}
	return content[:maxChars] + "\n... [truncated for review]"
}
