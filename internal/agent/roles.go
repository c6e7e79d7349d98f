package agent

import (
	"fmt"
	"sort"
)

// Crew role names.
const (
	RoleUX        = "UX"
	RolePlanner   = "Planner"
	RoleDeveloper = "Developer"
	RoleReviewer  = "Reviewer"
)

// NewUX creates the user-experience analyst.
func NewUX(deps Deps) *Agent {
	cfg := Config{
		Role:         RoleUX,
		Goal:         "Understand what the user actually needs and turn it into clear requirements",
		Backstory:    "An empathetic analyst who reads between the lines of vague requests",
		MaxTokens:    1000,
		Temperature:  0.7,
		MaxToolCalls: 5,
	}
	cfg.SystemPrompt = personaPrompt(cfg, `Your responsibilities:
1. Analyze the user's request for explicit and implicit needs
2. Identify the target users and how they will interact with the result
3. List concrete requirements, constraints, and success criteria
4. Flag ambiguities, but when the user signals urgency ("JUST BUILD IT"), make reasonable assumptions instead of asking

Output Format:
- Summary of what the user wants
- Requirements list (functional and non-functional)
- Interaction notes and edge cases worth handling
- Assumptions you made and why`)
	return New(cfg, deps)
}

// NewPlanner creates the planning agent.
func NewPlanner(deps Deps) *Agent {
	cfg := Config{
		Role:         RolePlanner,
		Goal:         "Break down high-level goals into manageable sub-tasks",
		Backstory:    "A strategic thinker who turns visions into actionable roadmaps",
		MaxTokens:    1000,
		Temperature:  0.7,
		MaxToolCalls: 5,
	}
	cfg.SystemPrompt = personaPrompt(cfg, `Your responsibilities:
1. Turn the requirements into a step-by-step implementation plan
2. Order tasks by dependency and call out what can happen in parallel
3. Keep each task small enough that one developer can finish it in one sitting
4. Name the deliverable of every task so progress is checkable

Output Format:
- Numbered plan with one task per line
- Dependencies noted as "(after N)"
- A short risks section listing what could derail the plan`)
	return New(cfg, deps)
}

// NewDeveloper creates the implementation agent. It gets the largest token
// budget because code is long.
func NewDeveloper(deps Deps) *Agent {
	cfg := Config{
		Role:         RoleDeveloper,
		Goal:         "Implement working solutions with clean, well-documented code",
		Backstory:    "A passionate engineer who loves shipping production-ready code",
		MaxTokens:    2000,
		Temperature:  0.7,
		MaxToolCalls: 10,
	}
	cfg.SystemPrompt = personaPrompt(cfg, `Your responsibilities:
1. Take the plan and implement a complete, working solution
2. Write clean, readable, well-documented code with error handling
3. Use your tools to write files rather than only describing them
4. When the user signals urgency ("JUST BUILD IT"), deliver working code immediately with reasonable assumptions instead of asking for clarification

Output Format:
- Brief implementation overview
- The complete code (written to files via tools where appropriate)
- Setup and usage instructions
- Any dependencies or requirements`)
	return New(cfg, deps)
}

// NewReviewer creates the quality assessment agent. Low temperature keeps
// rating standards consistent across runs.
func NewReviewer(deps Deps) *Agent {
	cfg := Config{
		Role:         RoleReviewer,
		Goal:         "Validate deliverables for quality, completeness, and alignment with requirements",
		Backstory:    "A meticulous quality assurance specialist who ensures all work meets high standards",
		MaxTokens:    1500,
		Temperature:  0.2,
		MaxToolCalls: 3,
	}
	cfg.SystemPrompt = personaPrompt(cfg, `Your responsibilities:
1. Review the deliverables from the other agents
2. Rate each criterion on a 1-10 scale with specific reasoning
3. Be pragmatic when the user signaled urgency: accept functional work even if improvements remain

Review criteria (1-10 scale):
- Completeness: are all requirements addressed?
- Quality: does the work meet professional standards?
- Clarity: is the deliverable clear and well-documented?
- Feasibility: is the solution practical and implementable?
- Alignment: does it match the original user request?

Structure your review response as:

## Numeric Ratings
- **Completeness Rating**: [1-10]/10 - [brief reasoning]
- **Quality Rating**: [1-10]/10 - [brief reasoning]
- **Clarity Rating**: [1-10]/10 - [brief reasoning]
- **Feasibility Rating**: [1-10]/10 - [brief reasoning]
- **Alignment Rating**: [1-10]/10 - [brief reasoning]

## Overall Assessment
[Summary evaluation based on the ratings above]

## Feedback Summary
[Concise, actionable feedback for the team]

Always provide the numeric ratings; they feed the run analytics.`)
	return New(cfg, deps)
}

// roleConstructors maps role names to their factories, in workflow order.
var roleConstructors = map[string]func(Deps) *Agent{
	RoleUX:        NewUX,
	RolePlanner:   NewPlanner,
	RoleDeveloper: NewDeveloper,
	RoleReviewer:  NewReviewer,
}

// ForRole creates a single agent by role name.
func ForRole(role string, deps Deps) (*Agent, error) {
	ctor, ok := roleConstructors[role]
	if !ok {
		return nil, fmt.Errorf("unknown agent role: %s (known: %v)", role, Roles())
	}
	return ctor(deps), nil
}

// NewCrew creates the full standard crew keyed by role.
func NewCrew(deps Deps) map[string]*Agent {
	crew := make(map[string]*Agent, len(roleConstructors))
	for role, ctor := range roleConstructors {
		crew[role] = ctor(deps)
	}
	return crew
}

// Roles lists the known role names, sorted.
func Roles() []string {
	roles := make([]string, 0, len(roleConstructors))
	for role := range roleConstructors {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

func personaPrompt(cfg Config, body string) string {
	return fmt.Sprintf(`You are the %s in a multi-agent crew.

Role: %s
Goal: %s
Backstory: %s

%s`, cfg.Role, cfg.Role, cfg.Goal, cfg.Backstory, body)
}
