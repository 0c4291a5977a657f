package services

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"travel-timeline-parser/internal/models"
)

// NumberedListParser handles itineraries written as numbered lists with
// bolded labels ("1. **早餐**：酒店自助早餐"). Each numbered line becomes
// one activity, grouped by the period its label maps to, or by the
// nearest preceding period heading.
type NumberedListParser struct{}

// NewNumberedListParser creates the numbered-list parser plugin.
func NewNumberedListParser() *NumberedListParser {
	return &NumberedListParser{}
}

var (
	numberedItemPattern = regexp.MustCompile(`^\s*(\d+)\.\s*(.+)$`)
	numberedLineProbe   = regexp.MustCompile(`(?m)^\s*\d+\.\s`)
	boldLabelPattern    = regexp.MustCompile(`^\*\*([^*]+)\*\*\s*[：:]?\s*(.*)$`)
	boldLabelProbe      = regexp.MustCompile(`\*\*[^*]+\*\*`)
	headingPeriodLine   = regexp.MustCompile(`^\s*\*\*\s*(上午|中午|下午|晚上|早上|傍晚|morning|noon|afternoon|evening|night)\s*\*\*\s*$`)
)

func (p *NumberedListParser) Name() string { return "NumberedListParser" }

func (p *NumberedListParser) Priority() int { return 70 }

// CanHandle requires numbered lines combined with bolded labels.
func (p *NumberedListParser) CanHandle(raw string) bool {
	return numberedLineProbe.MatchString(raw) && boldLabelProbe.MatchString(raw)
}

// TryParse walks the lines, tracking the current day (from Day N / 第N天
// headers) and the current period (from labels or headings). Lines that
// carry no period hint stay in the current bucket; the default bucket is
// the morning of a single synthetic day.
func (p *NumberedListParser) TryParse(ctx context.Context, raw string, parseCtx models.ParseContext) ([]models.DayPlan, error) {
	type dayAccumulator struct {
		day      RawDay
		order    []string
		segments map[string]*RawSegment
	}

	var days []*dayAccumulator
	newDay := func(number int, title string) *dayAccumulator {
		acc := &dayAccumulator{
			day:      RawDay{Day: number, Title: title},
			segments: make(map[string]*RawSegment),
		}
		days = append(days, acc)
		return acc
	}

	var current *dayAccumulator
	currentPeriod := "上午"

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if match := dayHeaderPattern.FindStringSubmatch(trimmed); match != nil && !strings.Contains(trimmed, "**") {
			digits := match[1]
			if digits == "" {
				digits = match[2]
			}
			number, _ := strconv.Atoi(digits)
			current = newDay(number, match[3])
			currentPeriod = "上午"
			continue
		}

		if match := headingPeriodLine.FindStringSubmatch(trimmed); match != nil {
			currentPeriod = match[1]
			continue
		}

		match := numberedItemPattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		content := strings.TrimSpace(match[2])
		if content == "" {
			continue
		}

		label, rest := splitBoldLabel(content)
		if label != "" && KnownPeriodLabel(label) {
			currentPeriod = label
		}

		title := rest
		if title == "" {
			title = label
		}
		if title == "" {
			title = firstClause(content)
		}

		if current == nil {
			current = newDay(1, "")
		}
		segment, exists := current.segments[currentPeriod]
		if !exists {
			segment = &RawSegment{Period: currentPeriod}
			current.segments[currentPeriod] = segment
			current.order = append(current.order, currentPeriod)
		}

		description := strings.TrimSpace(markdownMarkers.ReplaceAllString(content, ""))
		segment.Activities = append(segment.Activities, RawActivity{Title: title, Description: description})
	}

	var rawDays []RawDay
	for _, acc := range days {
		for _, period := range acc.order {
			acc.day.Segments = append(acc.day.Segments, *acc.segments[period])
		}
		if len(acc.day.Segments) > 0 {
			rawDays = append(rawDays, acc.day)
		}
	}

	if len(rawDays) == 0 {
		return nil, errors.New("未找到带标签的编号列表项")
	}

	plans := NormalizeNumberedListOutput(rawDays, parseCtx)
	if len(plans) == 0 {
		return nil, errors.New("编号列表未产生有效行程")
	}
	return plans, nil
}

func (p *NumberedListParser) Score(result []models.DayPlan) int {
	return scoreDayPlans(result)
}

// splitBoldLabel separates a leading bolded label from the rest of the
// line content.
func splitBoldLabel(content string) (label, rest string) {
	match := boldLabelPattern.FindStringSubmatch(content)
	if match == nil {
		return "", ""
	}
	return strings.TrimSpace(match[1]), strings.TrimSpace(match[2])
}
