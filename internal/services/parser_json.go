package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"travel-timeline-parser/internal/models"
)

// JSONParser handles structured LLM output: JSON documents, possibly
// wrapped in prose or markdown fences, possibly slightly malformed in
// ways the repair pass can fix. Highest priority because JSON is the
// most reliable source format.
type JSONParser struct{}

// NewJSONParser creates the JSON parser plugin.
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

func (p *JSONParser) Name() string { return "JsonParser" }

func (p *JSONParser) Priority() int { return 100 }

// CanHandle looks for brace pairs plus a day hint or a fenced json
// block. The hint is deliberately loose (any "day", covering "days",
// "day1", "Day 2") so repairable payloads reach TryParse; arbitrary
// braced prose without it stays with the fallback chain.
func (p *JSONParser) CanHandle(raw string) bool {
	if !strings.Contains(raw, "{") || !strings.Contains(raw, "}") {
		return false
	}
	return strings.Contains(strings.ToLower(raw), "day") ||
		strings.Contains(raw, "```json")
}

// TryParse extracts JSON, validates the raw LLM shape, attempts structural
// repair when validation fails, and normalizes on success.
func (p *JSONParser) TryParse(ctx context.Context, raw string, parseCtx models.ParseContext) ([]models.DayPlan, error) {
	data := ExtractJSONFromLLMOutput(raw)
	if data == nil {
		return nil, errors.New("未找到可解析的JSON内容")
	}

	if result := ValidateLLMOutput(data); !result.Valid {
		repaired, ok := repairLLMPayload(data)
		if !ok {
			return nil, fmt.Errorf("JSON结构无法修复: %s", strings.Join(result.Errors, "; "))
		}
		if revalidated := ValidateLLMOutput(repaired); !revalidated.Valid {
			return nil, fmt.Errorf("修复后的JSON仍不合法: %s", strings.Join(revalidated.Errors, "; "))
		}
		data = repaired
	}

	plans := NormalizeLLMOutput(data, parseCtx)
	if len(plans) == 0 {
		return nil, errors.New("JSON内容未包含任何行程")
	}
	return plans, nil
}

func (p *JSONParser) Score(result []models.DayPlan) int {
	return scoreDayPlans(result) + jsonScoreBonus
}

// dayLabelKeyPattern matches top-level keys that denote a day, e.g.
// "day1", "Day 2", "第3天".
var dayLabelKeyPattern = regexp.MustCompile(`^(?i:day)\s*(\d+)$|^第(\d+)天$`)

// repairWindows are the default windows assigned when segments are
// synthesized from morning/afternoon/evening convenience fields.
var repairWindows = []struct {
	key    string
	period string
	window string
}{
	{"morning", "morning", "09:00-12:00"},
	{"afternoon", "afternoon", "14:00-17:00"},
	{"evening", "evening", "18:00-21:00"},
}

// repairLLMPayload attempts the structural repairs for almost-correct
// LLM JSON:
//   - a bare array of {day,...} objects is wrapped into {days:[...]}
//   - day-labeled top-level keys (day1/第1天) are collected into days
//   - a day missing segments gets them synthesized from its
//     morning/afternoon/evening convenience fields
//
// Returns (payload, false) when no repair strategy applies.
func repairLLMPayload(data interface{}) (map[string]interface{}, bool) {
	switch v := data.(type) {
	case []interface{}:
		return repairBareDayArray(v)
	case map[string]interface{}:
		if _, hasDays := v["days"]; hasDays {
			return repairDaysInPlace(v)
		}
		return repairDayLabeledKeys(v)
	default:
		return nil, false
	}
}

// repairBareDayArray wraps [{day:...},...] into {days:[...]}.
func repairBareDayArray(items []interface{}) (map[string]interface{}, bool) {
	if len(items) == 0 {
		return nil, false
	}
	for _, item := range items {
		day, ok := item.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if _, hasDay := day["day"]; !hasDay {
			return nil, false
		}
	}
	return repairDaysInPlace(map[string]interface{}{"days": items})
}

// repairDayLabeledKeys synthesizes a days array from keys like day1/第2天.
func repairDayLabeledKeys(root map[string]interface{}) (map[string]interface{}, bool) {
	type labeledDay struct {
		number int
		body   map[string]interface{}
	}
	var labeled []labeledDay

	for key, value := range root {
		match := dayLabelKeyPattern.FindStringSubmatch(strings.TrimSpace(key))
		if match == nil {
			continue
		}
		digits := match[1]
		if digits == "" {
			digits = match[2]
		}
		number, err := strconv.Atoi(digits)
		if err != nil || number < 1 {
			continue
		}

		body, ok := value.(map[string]interface{})
		if !ok {
			// A plain string day still becomes a one-activity day.
			if text, isString := value.(string); isString && strings.TrimSpace(text) != "" {
				body = map[string]interface{}{"morning": text}
			} else {
				continue
			}
		}
		labeled = append(labeled, labeledDay{number: number, body: body})
	}

	if len(labeled) == 0 {
		return nil, false
	}
	sort.Slice(labeled, func(i, j int) bool { return labeled[i].number < labeled[j].number })

	days := make([]interface{}, 0, len(labeled))
	for _, day := range labeled {
		body := day.body
		if _, hasNumber := body["day"]; !hasNumber {
			body["day"] = float64(day.number)
		}
		days = append(days, body)
	}
	return repairDaysInPlace(map[string]interface{}{"days": days})
}

// repairDaysInPlace walks the days array and fixes each day that is
// missing a title or a segments array.
func repairDaysInPlace(root map[string]interface{}) (map[string]interface{}, bool) {
	days, ok := root["days"].([]interface{})
	if !ok || len(days) == 0 {
		return nil, false
	}

	for i, rawDay := range days {
		day, ok := rawDay.(map[string]interface{})
		if !ok {
			return nil, false
		}

		if _, hasNumber := jsonNumber(day["day"]); !hasNumber {
			day["day"] = float64(i + 1)
		}
		if jsonString(day["title"]) == "" {
			number, _ := jsonNumber(day["day"])
			day["title"] = fmt.Sprintf("第%d天", int(number))
		}
		if _, hasSegments := day["segments"].([]interface{}); !hasSegments {
			segments := synthesizeSegments(day)
			if len(segments) == 0 {
				return nil, false
			}
			day["segments"] = segments
		}
	}
	return root, true
}

// synthesizeSegments builds a segments array from a day's
// morning/afternoon/evening convenience fields.
func synthesizeSegments(day map[string]interface{}) []interface{} {
	var segments []interface{}
	for _, window := range repairWindows {
		value, exists := day[window.key]
		if !exists || value == nil {
			continue
		}
		activities := coerceActivities(value)
		if len(activities) == 0 {
			continue
		}
		segments = append(segments, map[string]interface{}{
			"period":     window.period,
			"time":       window.window,
			"activities": activities,
		})
	}
	return segments
}

// coerceActivities turns a convenience-field value (string, object, or
// array of either) into an activities array.
func coerceActivities(value interface{}) []interface{} {
	switch v := value.(type) {
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return nil
		}
		return []interface{}{map[string]interface{}{
			"title":       firstClause(text),
			"description": text,
		}}
	case map[string]interface{}:
		if jsonString(v["title"]) == "" && jsonString(v["description"]) == "" {
			return nil
		}
		if jsonString(v["title"]) == "" {
			v["title"] = firstClause(jsonString(v["description"]))
		}
		if jsonString(v["description"]) == "" {
			v["description"] = jsonString(v["title"])
		}
		return []interface{}{v}
	case []interface{}:
		var activities []interface{}
		for _, item := range v {
			activities = append(activities, coerceActivities(item)...)
		}
		return activities
	default:
		return nil
	}
}

// firstClause extracts the first meaningful phrase of a sentence to use
// as a title.
var clauseSplitPattern = regexp.MustCompile(`[，。：:（(、]`)

func firstClause(text string) string {
	text = strings.TrimSpace(text)
	if loc := clauseSplitPattern.FindStringIndex(text); loc != nil && loc[0] > 0 {
		text = text[:loc[0]]
	}
	runes := []rune(text)
	if len(runes) > 30 {
		text = string(runes[:30])
	}
	return strings.TrimSpace(text)
}
