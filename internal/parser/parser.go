package parser

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"opencrew/internal/tool"
)

// shortCircuitThreshold: when a stage at least this confident produces
// calls, later (weaker) stages are not consulted.
const shortCircuitThreshold = 0.7

// minCallConfidence: after a short-circuit, calls at or below this are
// discarded so an explicit structured call is not diluted by vague
// matches over the same text.
const minCallConfidence = 0.5

// Stage pairs a strategy with the floor its calls must clear. A stage's
// calls start at the strategy confidence and only go down (repair, fuzzy
// resolution), so the floor lets weaker stages contribute without their
// worst guesses surviving.
type Stage struct {
	Strategy      Strategy
	MinConfidence float64
}

// DefaultStages is the standard cascade, ordered from the most to the
// least reliable syntax.
func DefaultStages() []Stage {
	return []Stage{
		{jsonStrategy{}, 0.8},
		{functionStrategy{}, 0.7},
		{xmlStrategy{}, 0.6},
		{fencedStrategy{}, 0.5},
		{keyValueStrategy{}, 0.4},
		{naturalStrategy{}, 0.3},
	}
}

// Result is the outcome of parsing one piece of model output.
type Result struct {
	ToolCalls   []tool.Call
	ParseErrors []string
	RawText     string
	// Confidence is the product of the confidences of the strategies
	// that contributed accepted calls.
	Confidence float64
}

// Parser runs the extraction cascade over model output and validates the
// resulting calls against a tool registry. It never executes anything.
type Parser struct {
	registry *tool.Registry
	stages   []Stage
}

// New creates a parser with the default cascade.
func New(registry *tool.Registry) *Parser {
	return NewWithStages(registry, DefaultStages())
}

// NewWithStages creates a parser with a custom cascade, mainly for tests
// that exercise a single strategy in isolation.
func NewWithStages(registry *tool.Registry, stages []Stage) *Parser {
	return &Parser{registry: registry, stages: stages}
}

// candidate keeps a call tied to the stage that produced it until the
// final acceptance decision is made.
type candidate struct {
	call         tool.Call
	strategy     string
	strategyConf float64
}

// Parse extracts tool calls from text. It is total over its input: any
// string, including adversarial near-JSON, yields a Result and never a
// panic.
func (p *Parser) Parse(text string) Result {
	result := Result{RawText: text, Confidence: 1.0}

	var candidates []candidate
	shortCircuited := false

	for _, stage := range p.stages {
		calls, errs, confidence := stage.Strategy.Extract(text)
		result.ParseErrors = append(result.ParseErrors, errs...)

		produced := 0
		for _, call := range calls {
			if call.Confidence < stage.MinConfidence {
				continue
			}
			candidates = append(candidates, candidate{
				call:         call,
				strategy:     stage.Strategy.Name(),
				strategyConf: confidence,
			})
			produced++
		}

		if produced > 0 && confidence > shortCircuitThreshold {
			log.Debug().
				Str("strategy", stage.Strategy.Name()).
				Int("calls", produced).
				Msg("extraction short-circuited")
			shortCircuited = true
			break
		}
	}

	if shortCircuited {
		candidates = filterLowConfidence(candidates)
	}
	candidates = dedupe(candidates)
	candidates = p.validate(candidates, &result.ParseErrors)

	counted := map[string]bool{}
	for _, c := range candidates {
		result.ToolCalls = append(result.ToolCalls, c.call)
		if !counted[c.strategy] {
			counted[c.strategy] = true
			result.Confidence *= c.strategyConf
		}
	}
	return result
}

func filterLowConfidence(candidates []candidate) []candidate {
	kept := candidates[:0]
	for _, c := range candidates {
		if c.call.Confidence > minCallConfidence {
			kept = append(kept, c)
		}
	}
	return kept
}

// dedupe drops later calls whose (name, parameters) already appeared. The
// canonical key marshals the parameter map; encoding/json sorts map keys,
// so key order in the source text does not matter.
func dedupe(candidates []candidate) []candidate {
	seen := map[string]bool{}
	kept := candidates[:0]
	for _, c := range candidates {
		key := c.call.ToolName + "\x00" + canonicalParams(c.call.Parameters)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, c)
	}
	return kept
}

func canonicalParams(params map[string]any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%v", params)
	}
	return string(data)
}

// validate resolves each call's name against the registry. Unknown names
// try a fuzzy match first; a fuzzy hit rewrites the name and discounts the
// confidence, a miss drops the call with a parse error.
func (p *Parser) validate(candidates []candidate, parseErrors *[]string) []candidate {
	if p.registry == nil {
		return candidates
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if p.registry.Get(c.call.ToolName) != nil {
			kept = append(kept, c)
			continue
		}
		if resolved, ok := p.registry.FuzzyMatch(c.call.ToolName, tool.FuzzyThreshold); ok {
			log.Debug().
				Str("requested", c.call.ToolName).
				Str("resolved", resolved).
				Msg("fuzzy-matched tool name")
			c.call.ToolName = resolved
			c.call.Confidence *= 0.8
			kept = append(kept, c)
			continue
		}
		*parseErrors = append(*parseErrors, fmt.Sprintf("Unknown tool: %s", c.call.ToolName))
	}
	return kept
}
