package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"travel-timeline-parser/internal/models"
)

// HeuristicTimeParser is the unconditional bottom-level fallback: it
// accepts any input and synthesizes a plausible three-period day from
// whatever keywords it can salvage. It guarantees the orchestrator never
// fails outright on non-empty input, and it carries its own hard floor
// for the case where even synthesis goes wrong.
type HeuristicTimeParser struct{}

// NewHeuristicTimeParser creates the heuristic fallback plugin.
func NewHeuristicTimeParser() *HeuristicTimeParser {
	return &HeuristicTimeParser{}
}

var (
	sightPhrasePattern = regexp.MustCompile(`(?:游览|参观)([^，。\n]{2,10})`)
	foodPhrasePattern  = regexp.MustCompile(`(?:品尝|享用)([^，。\n]{2,10})`)
)

// heuristicPeriods drive the synthesized segments: fixed windows, icons,
// costs and advisory suffixes per period.
var heuristicPeriods = []struct {
	label  string
	period string
	window string
	icon   string
	cost   float64
	advice string
}{
	{"上午", "morning", "09:00-12:00", "🌅", 80, "建议早起出发，避开人流高峰"},
	{"下午", "afternoon", "14:00-17:00", "🏛️", 120, "建议乘坐公共交通，合理安排路线"},
	{"晚上", "evening", "19:00-21:00", "🌃", 150, "注意控制预算，提前确认营业时间"},
}

func (p *HeuristicTimeParser) Name() string { return "HeuristicTimeParser" }

func (p *HeuristicTimeParser) Priority() int { return 10 }

// CanHandle always returns true; this parser is the safety net.
func (p *HeuristicTimeParser) CanHandle(raw string) bool { return true }

// TryParse never returns an error: synthesis failures fall through to the
// hard floor, which is built from constants and cannot fail.
func (p *HeuristicTimeParser) TryParse(ctx context.Context, raw string, parseCtx models.ParseContext) ([]models.DayPlan, error) {
	plans := func() (out []models.DayPlan) {
		defer func() {
			if recover() != nil {
				out = nil
			}
		}()
		return p.synthesize(raw, parseCtx)
	}()

	if len(plans) == 0 {
		plans = FloorFallback(parseCtx)
	}
	return plans, nil
}

func (p *HeuristicTimeParser) Score(result []models.DayPlan) int {
	return scoreDayPlans(result)
}

// synthesize builds exactly three segments (上午/下午/晚上) with generated
// titles and descriptions assembled from keyword phrases found in the text.
func (p *HeuristicTimeParser) synthesize(raw string, parseCtx models.ParseContext) []models.DayPlan {
	dayNumber := parseCtx.DayNumber
	if dayNumber < 1 {
		dayNumber = 1
	}

	phrases := extractKeywordPhrases(raw)

	segments := make([]models.Segment, 0, len(heuristicPeriods))
	for _, entry := range heuristicPeriods {
		description := strings.Join(append(append([]string{}, phrases...), entry.advice), "，")
		segments = append(segments, models.Segment{
			Period: models.Period(entry.period),
			Time:   entry.window,
			Activities: []models.Activity{{
				Title:       fmt.Sprintf("%s%s行程", parseCtx.Destination, entry.label),
				Description: description,
				Cost:        entry.cost,
				Duration:    defaultDuration,
				Tips:        []string{},
				Icon:        entry.icon,
			}},
		})
	}

	title := fmt.Sprintf("第%d天行程", dayNumber)
	plan := buildDayPlan(dayNumber, title, segments, parseCtx)
	plan.Tags = []string{"行程安排"}
	return []models.DayPlan{plan}
}

// extractKeywordPhrases pulls up to two phrases (one sight, one food)
// out of free text via the keyword regexes.
func extractKeywordPhrases(raw string) []string {
	var phrases []string
	if match := sightPhrasePattern.FindStringSubmatch(raw); match != nil {
		phrases = append(phrases, strings.TrimSpace(match[1]))
	}
	if match := foodPhrasePattern.FindStringSubmatch(raw); match != nil {
		phrases = append(phrases, strings.TrimSpace(match[1]))
	}
	if len(phrases) == 0 {
		phrases = append(phrases, "自由活动，感受当地风情")
	}
	return phrases
}

// FloorFallback is the absolute floor of the fallback chain: one all-day
// activity built entirely from constants. By construction it cannot fail
// and never returns an empty plan.
func FloorFallback(parseCtx models.ParseContext) []models.DayPlan {
	dayNumber := parseCtx.DayNumber
	if dayNumber < 1 {
		dayNumber = 1
	}

	title := strings.TrimSpace(parseCtx.Destination) + "自由行"

	segment := models.Segment{
		Period: models.PeriodMorning,
		Time:   "09:00-21:00",
		Activities: []models.Activity{{
			Title:       title,
			Description: "自由探索目的地，根据个人兴趣安排行程。建议保持灵活性，享受旅行的惊喜",
			Cost:        200,
			Duration:    "全天",
			Tips:        []string{},
			Icon:        "🗺️",
		}},
	}

	return []models.DayPlan{{
		Day:       dayNumber,
		Title:     title,
		Date:      CalculateDayDate(parseCtx.StartDate, dayNumber-1),
		Segments:  []models.Segment{segment},
		Location:  parseCtx.Destination,
		Weather:   generateWeatherInfo(dayNumber),
		TotalCost: segment.Activities[0].Cost,
		Progress:  80,
		Tags:      []string{"行程安排"},
	}}
}
