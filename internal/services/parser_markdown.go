package services

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"travel-timeline-parser/internal/models"
)

// MarkdownPeriodParser handles itineraries written as markdown blocks
// keyed by period markers ("**上午**", "- 下午"). Day blocks are delimited
// by "Day N" / "第N天" headers; without headers the whole input is one day.
type MarkdownPeriodParser struct{}

// NewMarkdownPeriodParser creates the markdown period-block parser plugin.
func NewMarkdownPeriodParser() *MarkdownPeriodParser {
	return &MarkdownPeriodParser{}
}

var (
	boldPeriodPattern = regexp.MustCompile(`^\s*(?:[-*]\s*)?\*\*\s*(上午|中午|下午|晚上|早上|傍晚|morning|noon|afternoon|evening|night)\s*\*\*[：:]?\s*(.*)$`)
	bulletPeriodLine  = regexp.MustCompile(`^\s*[-*]\s*(上午|中午|下午|晚上|早上|傍晚)\s*[：:]\s*(.*)$`)
	dayHeaderPattern  = regexp.MustCompile(`^\s*(?:#+\s*)?(?:(?i:day)\s*(\d+)|第\s*(\d+)\s*天)(.*)$`)
	bulletLinePattern = regexp.MustCompile(`^\s*[-*•]\s*(.+)$`)
	inlineTimePattern = regexp.MustCompile(`(\d{1,2}:\d{2})\s*[-~]\s*(\d{1,2}:\d{2})`)
)

func (p *MarkdownPeriodParser) Name() string { return "MarkdownPeriodParser" }

func (p *MarkdownPeriodParser) Priority() int { return 80 }

// CanHandle checks for bolded or bulleted period markers without parsing.
func (p *MarkdownPeriodParser) CanHandle(raw string) bool {
	for _, line := range strings.Split(raw, "\n") {
		if boldPeriodPattern.MatchString(line) || bulletPeriodLine.MatchString(line) {
			return true
		}
	}
	return false
}

// TryParse scans line by line: day headers open a new day block, period
// markers open a new segment collecting subsequent bullet and indented
// lines as activity content until the next marker.
func (p *MarkdownPeriodParser) TryParse(ctx context.Context, raw string, parseCtx models.ParseContext) ([]models.DayPlan, error) {
	var days []RawDay
	var currentDay *RawDay
	var currentSegment *RawSegment
	var segmentLines []string

	flushSegment := func() {
		if currentSegment == nil {
			return
		}
		if activity := buildBlockActivity(segmentLines); activity != nil {
			currentSegment.Activities = append(currentSegment.Activities, *activity)
		}
		if len(currentSegment.Activities) > 0 && currentDay != nil {
			currentDay.Segments = append(currentDay.Segments, *currentSegment)
		}
		currentSegment = nil
		segmentLines = nil
	}
	flushDay := func() {
		flushSegment()
		if currentDay != nil && len(currentDay.Segments) > 0 {
			days = append(days, *currentDay)
		}
		currentDay = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if match := dayHeaderPattern.FindStringSubmatch(trimmed); match != nil && !strings.Contains(trimmed, "**") {
			flushDay()
			digits := match[1]
			if digits == "" {
				digits = match[2]
			}
			number, _ := strconv.Atoi(digits)
			currentDay = &RawDay{Day: number, Title: match[3]}
			continue
		}

		periodLabel, rest, isMarker := matchPeriodMarker(trimmed)
		if isMarker {
			if currentDay == nil {
				currentDay = &RawDay{Day: 1}
			}
			flushSegment()
			currentSegment = &RawSegment{Period: periodLabel}
			if timeRange := inlineTimePattern.FindString(trimmed); timeRange != "" {
				currentSegment.Time = strings.ReplaceAll(timeRange, "~", "-")
				rest = strings.TrimSpace(strings.Replace(rest, timeRange, "", 1))
			}
			if rest != "" {
				segmentLines = append(segmentLines, rest)
			}
			continue
		}

		if currentSegment == nil {
			continue
		}
		if content := extractBlockLine(line); content != "" {
			if currentSegment.Time == "" {
				if timeRange := inlineTimePattern.FindString(content); timeRange != "" {
					currentSegment.Time = strings.ReplaceAll(timeRange, "~", "-")
				}
			}
			segmentLines = append(segmentLines, content)
		}
	}
	flushDay()

	if len(days) == 0 {
		return nil, errors.New("未找到任何时段标记块")
	}

	plans := NormalizeMarkdownOutput(days, parseCtx)
	if len(plans) == 0 {
		return nil, errors.New("时段标记块未产生有效行程")
	}
	return plans, nil
}

func (p *MarkdownPeriodParser) Score(result []models.DayPlan) int {
	return scoreDayPlans(result)
}

// matchPeriodMarker recognizes a period-marker line and returns the
// source label plus any trailing content on the same line.
func matchPeriodMarker(line string) (label, rest string, ok bool) {
	if match := boldPeriodPattern.FindStringSubmatch(line); match != nil {
		return match[1], strings.TrimSpace(match[2]), true
	}
	if match := bulletPeriodLine.FindStringSubmatch(line); match != nil {
		return match[1], strings.TrimSpace(match[2]), true
	}
	return "", "", false
}

// extractBlockLine cleans a content line inside a period block: bullets
// are stripped, markdown emphasis removed. Non-bullet lines count only
// when indented (continuation text).
func extractBlockLine(line string) string {
	if match := bulletLinePattern.FindStringSubmatch(line); match != nil {
		return strings.TrimSpace(markdownMarkers.ReplaceAllString(match[1], ""))
	}
	if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
		return strings.TrimSpace(markdownMarkers.ReplaceAllString(line, ""))
	}
	return ""
}

// buildBlockActivity turns the collected block lines into the segment's
// primary activity: first line becomes the title, the remaining lines are
// appended to its description.
func buildBlockActivity(lines []string) *RawActivity {
	if len(lines) == 0 {
		return nil
	}
	title := lines[0]
	description := strings.Join(lines, "；")
	return &RawActivity{Title: title, Description: description}
}
