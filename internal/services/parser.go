package services

import (
	"context"
	"sort"

	"travel-timeline-parser/internal/models"
)

// ParserPlugin is the capability contract every timeline parser implements.
//
// CanHandle must be a fast structural pre-check, not a full parse.
// TryParse returns the parsed plans or a non-nil error; it must not panic
// (the orchestrator still isolates panics as a last line of defense).
// Score ranks successful results when several parsers produce candidates.
type ParserPlugin interface {
	Name() string
	Priority() int
	CanHandle(raw string) bool
	TryParse(ctx context.Context, raw string, parseCtx models.ParseContext) ([]models.DayPlan, error)
	Score(result []models.DayPlan) int
}

// scoreDayPlans is the shared richness base score: more days, segments and
// activities rank higher. Any successful JSON parse additionally gets the
// jsonScoreBonus, so structured sources always outrank unstructured ones
// of the same shape.
func scoreDayPlans(plans []models.DayPlan) int {
	segments, activities := 0, 0
	for _, day := range plans {
		segments += len(day.Segments)
		for _, segment := range day.Segments {
			activities += len(segment.Activities)
		}
	}
	return len(plans)*20 + segments*10 + activities*5
}

const jsonScoreBonus = 50

// ParserRegistry holds the registered plugins ordered by descending
// priority. It is populated once at startup and read-only afterwards;
// Register exists so callers can extend the set before first use.
type ParserRegistry struct {
	parsers []ParserPlugin
}

// NewParserRegistry creates a registry holding the given plugins.
func NewParserRegistry(parsers ...ParserPlugin) *ParserRegistry {
	registry := &ParserRegistry{}
	for _, parser := range parsers {
		registry.Register(parser)
	}
	return registry
}

// DefaultParserRegistry returns the built-in plugin set: JSON, markdown
// period blocks, numbered lists, and the unconditional heuristic fallback.
func DefaultParserRegistry() *ParserRegistry {
	return NewParserRegistry(
		NewJSONParser(),
		NewMarkdownPeriodParser(),
		NewNumberedListParser(),
		NewHeuristicTimeParser(),
	)
}

// Register adds a plugin, keeping the iteration order sorted by priority
// descending. Equal priorities keep their registration order.
func (r *ParserRegistry) Register(parser ParserPlugin) {
	r.parsers = append(r.parsers, parser)
	sort.SliceStable(r.parsers, func(i, j int) bool {
		return r.parsers[i].Priority() > r.parsers[j].Priority()
	})
}

// Parsers returns the plugins in priority order.
func (r *ParserRegistry) Parsers() []ParserPlugin {
	out := make([]ParserPlugin, len(r.parsers))
	copy(out, r.parsers)
	return out
}

// Lookup finds a plugin by name.
func (r *ParserRegistry) Lookup(name string) (ParserPlugin, bool) {
	for _, parser := range r.parsers {
		if parser.Name() == name {
			return parser, true
		}
	}
	return nil, false
}

// Len reports the number of registered plugins.
func (r *ParserRegistry) Len() int {
	return len(r.parsers)
}
