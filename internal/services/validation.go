package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"travel-timeline-parser/internal/models"
)

// timeRangePattern accepts "H:MM-H:MM" and "HH:MM-HH:MM" (hyphen only;
// tilde variants must be normalized by the parser that encountered them).
var timeRangePattern = regexp.MustCompile(`^\d{1,2}:\d{2}-\d{1,2}:\d{2}$`)

// ValidateDayPlans performs structural validation of candidate day-plan
// data and, if the structure is sound, runs business-rule checks that
// produce non-fatal warnings (day continuity, primary-period coverage).
//
// Structural failures return one error per violated field path and skip
// the business-rule pass entirely.
func ValidateDayPlans(data interface{}) models.ValidationResult {
	plans, err := coerceDayPlans(data)
	if err != nil {
		return models.ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("days: %v", err)},
		}
	}

	var errors []string
	if len(plans) == 0 {
		errors = append(errors, "days: 至少需要一天行程")
	}

	seenDays := make(map[int]bool)
	for i, day := range plans {
		path := fmt.Sprintf("days.%d", i)

		if day.Day < 1 {
			errors = append(errors, fmt.Sprintf("%s.day: 天数必须是正整数", path))
		} else if seenDays[day.Day] {
			errors = append(errors, fmt.Sprintf("%s.day: 天数%d重复", path, day.Day))
		}
		seenDays[day.Day] = true

		if strings.TrimSpace(day.Title) == "" {
			errors = append(errors, fmt.Sprintf("%s.title: 标题不能为空", path))
		}

		if len(day.Segments) == 0 {
			errors = append(errors, fmt.Sprintf("%s.segments: 至少需要一个时段", path))
			continue
		}

		for j, segment := range day.Segments {
			segPath := fmt.Sprintf("%s.segments.%d", path, j)

			if !models.ValidatePeriod(string(segment.Period)) {
				errors = append(errors, fmt.Sprintf("%s.period: 无效的时段标识 %q", segPath, segment.Period))
			}
			if !timeRangePattern.MatchString(segment.Time) {
				errors = append(errors, fmt.Sprintf("%s.time: 时间格式应为 HH:MM-HH:MM，实际为 %q", segPath, segment.Time))
			}
			if len(segment.Activities) == 0 {
				errors = append(errors, fmt.Sprintf("%s.activities: 至少需要一个活动", segPath))
				continue
			}

			for k, activity := range segment.Activities {
				actPath := fmt.Sprintf("%s.activities.%d", segPath, k)
				if strings.TrimSpace(activity.Title) == "" {
					errors = append(errors, fmt.Sprintf("%s.title: 活动标题不能为空", actPath))
				}
				if strings.TrimSpace(activity.Description) == "" {
					errors = append(errors, fmt.Sprintf("%s.description: 活动描述不能为空", actPath))
				}
			}
		}
	}

	if len(errors) > 0 {
		return models.ValidationResult{Valid: false, Errors: errors}
	}

	return models.ValidationResult{
		Valid:    true,
		Warnings: dayPlanBusinessWarnings(plans),
	}
}

// dayPlanBusinessWarnings runs the non-fatal business-rule checks:
// day numbers must be consecutive once sorted, and every day needs at
// least one primary period (morning or afternoon).
func dayPlanBusinessWarnings(plans []models.DayPlan) []string {
	var warnings []string

	dayNumbers := make([]int, 0, len(plans))
	for _, day := range plans {
		dayNumbers = append(dayNumbers, day.Day)
	}
	sort.Ints(dayNumbers)

	for i := 1; i < len(dayNumbers); i++ {
		prev, cur := dayNumbers[i-1], dayNumbers[i]
		if cur != prev+1 {
			warnings = append(warnings, fmt.Sprintf("天数不连续：缺少第%d天（第%d天之后直接到第%d天）", prev+1, prev, cur))
		}
	}

	for _, day := range plans {
		hasPrimary := false
		for _, segment := range day.Segments {
			if models.IsPrimaryPeriod(segment.Period) {
				hasPrimary = true
				break
			}
		}
		if !hasPrimary {
			warnings = append(warnings, fmt.Sprintf("第%d天缺少主要时段（morning/afternoon）", day.Day))
		}
	}

	return warnings
}

// coerceDayPlans accepts either typed plans or raw decoded JSON.
func coerceDayPlans(data interface{}) ([]models.DayPlan, error) {
	switch v := data.(type) {
	case []models.DayPlan:
		return v, nil
	case nil:
		return nil, fmt.Errorf("数据为空")
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("无法序列化输入: %v", err)
		}
		var plans []models.DayPlan
		if err := json.Unmarshal(raw, &plans); err != nil {
			return nil, fmt.Errorf("无法解析为日程数组: %v", err)
		}
		return plans, nil
	}
}

// ValidateLLMOutput validates the narrower raw-LLM JSON shape
// ({days:[{day,title,segments:[{period,time,activities:[{title,description,
// cost?,tips?}]}]}]}) before normalization. This is intentionally looser
// than the canonical schema: raw activities lack icon and duration, and
// period/time have not been normalized yet.
func ValidateLLMOutput(data interface{}) models.ValidationResult {
	var errors []string

	root, ok := data.(map[string]interface{})
	if !ok {
		return models.ValidationResult{
			Valid:  false,
			Errors: []string{"root: 期望包含days字段的JSON对象"},
		}
	}

	days, ok := root["days"].([]interface{})
	if !ok || len(days) == 0 {
		return models.ValidationResult{
			Valid:  false,
			Errors: []string{"days: 期望非空的天数数组"},
		}
	}

	for i, rawDay := range days {
		path := fmt.Sprintf("days.%d", i)

		day, ok := rawDay.(map[string]interface{})
		if !ok {
			errors = append(errors, fmt.Sprintf("%s: 期望JSON对象", path))
			continue
		}

		if num, ok := jsonNumber(day["day"]); !ok || num < 1 {
			errors = append(errors, fmt.Sprintf("%s.day: 天数必须是正整数", path))
		}
		if jsonString(day["title"]) == "" {
			errors = append(errors, fmt.Sprintf("%s.title: 标题不能为空", path))
		}

		segments, ok := day["segments"].([]interface{})
		if !ok || len(segments) == 0 {
			errors = append(errors, fmt.Sprintf("%s.segments: 期望非空的时段数组", path))
			continue
		}

		for j, rawSegment := range segments {
			segPath := fmt.Sprintf("%s.segments.%d", path, j)

			segment, ok := rawSegment.(map[string]interface{})
			if !ok {
				errors = append(errors, fmt.Sprintf("%s: 期望JSON对象", segPath))
				continue
			}

			if jsonString(segment["period"]) == "" {
				errors = append(errors, fmt.Sprintf("%s.period: 时段标识不能为空", segPath))
			}
			if _, isString := segment["time"].(string); segment["time"] != nil && !isString {
				errors = append(errors, fmt.Sprintf("%s.time: 时间必须是字符串", segPath))
			}

			activities, ok := segment["activities"].([]interface{})
			if !ok || len(activities) == 0 {
				errors = append(errors, fmt.Sprintf("%s.activities: 期望非空的活动数组", segPath))
				continue
			}

			for k, rawActivity := range activities {
				actPath := fmt.Sprintf("%s.activities.%d", segPath, k)

				activity, ok := rawActivity.(map[string]interface{})
				if !ok {
					errors = append(errors, fmt.Sprintf("%s: 期望JSON对象", actPath))
					continue
				}

				if jsonString(activity["title"]) == "" {
					errors = append(errors, fmt.Sprintf("%s.title: 活动标题不能为空", actPath))
				}
				if jsonString(activity["description"]) == "" {
					errors = append(errors, fmt.Sprintf("%s.description: 活动描述不能为空", actPath))
				}
				if cost, exists := activity["cost"]; exists && cost != nil {
					if _, ok := jsonNumber(cost); !ok {
						errors = append(errors, fmt.Sprintf("%s.cost: 费用必须是数字", actPath))
					}
				}
				if tips, exists := activity["tips"]; exists && tips != nil {
					if _, ok := tips.([]interface{}); !ok {
						errors = append(errors, fmt.Sprintf("%s.tips: 贴士必须是字符串数组", actPath))
					}
				}
			}
		}
	}

	if len(errors) > 0 {
		return models.ValidationResult{Valid: false, Errors: errors}
	}
	return models.ValidationResult{Valid: true}
}

// jsonString returns the trimmed string value of a decoded JSON field,
// or "" when the field is absent or not a string.
func jsonString(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// jsonNumber extracts a numeric value from decoded JSON, which may arrive
// as float64 (encoding/json default) or json.Number.
func jsonNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
