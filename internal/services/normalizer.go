package services

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"travel-timeline-parser/internal/models"
)

// The normalization rules live in small tables rather than scattered
// literals so they stay auditable and independently testable.

// periodAliases maps every source vocabulary (Chinese labels, meal names,
// English values) onto the canonical 5-value enum. This table is the only
// boundary between mixed vocabularies and the canonical schema.
var periodAliases = map[string]models.Period{
	"morning":   models.PeriodMorning,
	"早上":        models.PeriodMorning,
	"上午":        models.PeriodMorning,
	"清晨":        models.PeriodMorning,
	"早餐":        models.PeriodMorning,
	"noon":      models.PeriodNoon,
	"中午":        models.PeriodNoon,
	"午餐":        models.PeriodNoon,
	"afternoon": models.PeriodAfternoon,
	"下午":        models.PeriodAfternoon,
	"evening":   models.PeriodEvening,
	"晚上":        models.PeriodEvening,
	"傍晚":        models.PeriodEvening,
	"晚餐":        models.PeriodEvening,
	"night":     models.PeriodNight,
	"夜晚":        models.PeriodNight,
	"深夜":        models.PeriodNight,
}

// defaultTimeWindows are the windows assigned when a source provides no
// explicit time. The morning/afternoon/evening literals are fixed by the
// downstream test contract and must not drift.
var defaultTimeWindows = map[models.Period]string{
	models.PeriodMorning:   "09:00-12:00",
	models.PeriodNoon:      "12:00-13:30",
	models.PeriodAfternoon: "14:00-17:00",
	models.PeriodEvening:   "19:00-21:00",
	models.PeriodNight:     "21:00-23:00",
}

// periodColors are the themed gradient tokens keyed by period, consumed
// only by the legacy flattened format.
var periodColors = map[models.Period]string{
	models.PeriodMorning:   "from-yellow-400 to-orange-500",
	models.PeriodNoon:      "from-orange-400 to-red-500",
	models.PeriodAfternoon: "from-blue-400 to-indigo-500",
	models.PeriodEvening:   "from-purple-400 to-pink-500",
	models.PeriodNight:     "from-indigo-500 to-purple-600",
}

const fallbackPeriodColor = "from-gray-400 to-gray-500"

// iconRules map description keywords to activity icons, first match wins.
var iconRules = []struct {
	keywords []string
	icon     string
}{
	{[]string{"餐", "食", "吃", "品尝", "小吃"}, "🍜"},
	{[]string{"景", "游", "参观"}, "🏛️"},
	{[]string{"购物", "买"}, "🛍️"},
	{[]string{"交通", "车", "站", "机场"}, "🚗"},
	{[]string{"公园", "自然", "山"}, "🌳"},
	{[]string{"博物", "文化", "历史"}, "🏛️"},
	{[]string{"娱乐", "体验", "演出"}, "🎭"},
	{[]string{"酒店", "住宿", "入住"}, "🏨"},
}

var (
	singleTimePattern  = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	costPattern        = regexp.MustCompile(`[￥¥]\s*(\d+(?:\.\d+)?)`)
	durationPattern    = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:个)?(?:小时|分钟)`)
	markdownMarkers    = regexp.MustCompile("[*#`~_]+")
	dayPrefixPattern   = regexp.MustCompile(`^(?i:day)\s*\d+[：:．.\s]*|^第\s*\d+\s*天[：:．.\s]*`)
	numberedPrefix     = regexp.MustCompile(`^\d+[、.．]\s*`)
	chineseWeekdays    = map[time.Weekday]string{time.Sunday: "日", time.Monday: "一", time.Tuesday: "二", time.Wednesday: "三", time.Thursday: "四", time.Friday: "五", time.Saturday: "六"}
	defaultDuration    = "约2-3小时"
	defaultWeatherIcon = "☀️"
)

// RawDay is the parser-level intermediate shape handed to the normalizer
// by the markdown and numbered-list plugins.
type RawDay struct {
	Day      int
	Title    string
	Segments []RawSegment
}

// RawSegment carries a source-vocabulary period label, an optional
// explicit time range, and unnormalized activity candidates.
type RawSegment struct {
	Period     string
	Time       string
	Activities []RawActivity
}

// RawActivity is a title/description pair before enrichment.
type RawActivity struct {
	Title       string
	Description string
}

// NormalizePeriod maps a source period label onto the canonical enum.
// Unknown labels default to morning.
func NormalizePeriod(label string) models.Period {
	if p, ok := periodAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return p
	}
	return models.PeriodMorning
}

// KnownPeriodLabel reports whether a label maps onto the canonical enum.
func KnownPeriodLabel(label string) bool {
	_, ok := periodAliases[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// NormalizeTimeRange coerces a source time string into "HH:MM-HH:MM".
// Tilde separators are replaced by hyphens before validation; a lone
// start time gets a three-hour window; anything else falls back to the
// period's default window.
func NormalizeTimeRange(raw string, period models.Period) string {
	t := strings.ReplaceAll(strings.TrimSpace(raw), "~", "-")
	t = strings.ReplaceAll(t, " ", "")
	if timeRangePattern.MatchString(t) {
		return t
	}

	if match := singleTimePattern.FindStringSubmatch(t); match != nil {
		var hour int
		fmt.Sscanf(match[1], "%d", &hour)
		endHour := hour + 3
		if endHour > 23 {
			endHour = 23
		}
		return fmt.Sprintf("%02d:%s-%02d:%s", hour, match[2], endHour, match[2])
	}

	return defaultTimeWindows[period]
}

// PeriodColor returns the legacy gradient token for a period.
func PeriodColor(period models.Period) string {
	if color, ok := periodColors[period]; ok {
		return color
	}
	return fallbackPeriodColor
}

// DefaultActivityIcon picks an icon via keyword matching over the
// activity's text. Falls back to a generic pin.
func DefaultActivityIcon(text string) string {
	for _, rule := range iconRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.icon
			}
		}
	}
	return "📍"
}

// SanitizeTitle strips markdown markers and list/day prefixes, trims, and
// caps the title at 60 runes.
func SanitizeTitle(title string) string {
	t := markdownMarkers.ReplaceAllString(title, "")
	t = dayPrefixPattern.ReplaceAllString(t, "")
	t = numberedPrefix.ReplaceAllString(t, "")
	t = strings.TrimSpace(strings.Trim(strings.TrimSpace(t), "：:，,"))
	runes := []rune(t)
	if len(runes) > 60 {
		t = string(runes[:60])
	}
	return t
}

// CalculateDayDate produces a Chinese date label for the day at the given
// offset from startDate (today when startDate is absent or unparseable).
func CalculateDayDate(startDate string, dayOffset int) string {
	base := time.Now()
	for _, layout := range []string{"2006-01-02", "2006/01/02"} {
		if parsed, err := time.Parse(layout, strings.TrimSpace(startDate)); err == nil {
			base = parsed
			break
		}
	}
	date := base.AddDate(0, 0, dayOffset)
	return fmt.Sprintf("%d月%d日 周%s", int(date.Month()), date.Day(), chineseWeekdays[date.Weekday()])
}

// NormalizeLLMOutput maps the raw {days:[...]} LLM shape onto canonical
// day plans. Input must already have passed ValidateLLMOutput (possibly
// after repair); the mapping itself is total over well-typed input.
func NormalizeLLMOutput(data interface{}, context models.ParseContext) []models.DayPlan {
	root, ok := data.(map[string]interface{})
	if !ok {
		return nil
	}
	rawDays, ok := root["days"].([]interface{})
	if !ok {
		return nil
	}

	plans := make([]models.DayPlan, 0, len(rawDays))
	for i, rawDay := range rawDays {
		day, ok := rawDay.(map[string]interface{})
		if !ok {
			continue
		}

		dayNumber := i + 1
		if num, ok := jsonNumber(day["day"]); ok && num >= 1 {
			dayNumber = int(num)
		}

		title := SanitizeTitle(jsonString(day["title"]))
		if title == "" {
			title = fmt.Sprintf("第%d天", dayNumber)
		}

		segments := normalizeRawJSONSegments(day["segments"])
		plans = append(plans, buildDayPlan(dayNumber, title, segments, context))
	}
	return plans
}

// NormalizeMarkdownOutput maps the markdown parser's intermediate
// extraction onto canonical day plans.
func NormalizeMarkdownOutput(days []RawDay, context models.ParseContext) []models.DayPlan {
	return normalizeRawDays(days, context)
}

// NormalizeNumberedListOutput maps the numbered-list parser's intermediate
// extraction onto canonical day plans.
func NormalizeNumberedListOutput(days []RawDay, context models.ParseContext) []models.DayPlan {
	return normalizeRawDays(days, context)
}

func normalizeRawDays(days []RawDay, context models.ParseContext) []models.DayPlan {
	plans := make([]models.DayPlan, 0, len(days))
	for i, rawDay := range days {
		dayNumber := rawDay.Day
		if dayNumber < 1 {
			dayNumber = i + 1
		}

		title := SanitizeTitle(rawDay.Title)
		if title == "" {
			title = fmt.Sprintf("第%d天", dayNumber)
		}

		segments := make([]models.Segment, 0, len(rawDay.Segments))
		for _, rawSegment := range rawDay.Segments {
			if len(rawSegment.Activities) == 0 {
				continue
			}
			period := NormalizePeriod(rawSegment.Period)
			segment := models.Segment{
				Period: period,
				Time:   NormalizeTimeRange(rawSegment.Time, period),
			}
			for _, rawActivity := range rawSegment.Activities {
				segment.Activities = append(segment.Activities, enrichActivity(rawActivity.Title, rawActivity.Description, 0, nil, ""))
			}
			segments = append(segments, segment)
		}
		if len(segments) == 0 {
			continue
		}

		plans = append(plans, buildDayPlan(dayNumber, title, segments, context))
	}
	return plans
}

// normalizeRawJSONSegments converts decoded-JSON segments into canonical
// segments, filling icon/duration and mapping period synonyms.
func normalizeRawJSONSegments(raw interface{}) []models.Segment {
	rawSegments, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	segments := make([]models.Segment, 0, len(rawSegments))
	for _, rawSegment := range rawSegments {
		segmentMap, ok := rawSegment.(map[string]interface{})
		if !ok {
			continue
		}

		period := NormalizePeriod(jsonString(segmentMap["period"]))
		segment := models.Segment{
			Period: period,
			Time:   NormalizeTimeRange(jsonString(segmentMap["time"]), period),
		}

		rawActivities, _ := segmentMap["activities"].([]interface{})
		for _, rawActivity := range rawActivities {
			activityMap, ok := rawActivity.(map[string]interface{})
			if !ok {
				continue
			}

			cost := 0.0
			if num, ok := jsonNumber(activityMap["cost"]); ok {
				cost = num
			}

			var tips []string
			if rawTips, ok := activityMap["tips"].([]interface{}); ok {
				for _, tip := range rawTips {
					if s := jsonString(tip); s != "" {
						tips = append(tips, s)
					}
				}
			}

			description := jsonString(activityMap["description"])
			if description == "" {
				description = jsonString(activityMap["desc"])
			}

			activity := enrichActivity(jsonString(activityMap["title"]), description, cost, tips, jsonString(activityMap["location"]))
			if icon := jsonString(activityMap["icon"]); icon != "" {
				activity.Icon = icon
			}
			if duration := jsonString(activityMap["duration"]); duration != "" {
				activity.Duration = duration
			}
			segment.Activities = append(segment.Activities, activity)
		}

		if len(segment.Activities) > 0 {
			segments = append(segments, segment)
		}
	}
	return segments
}

// enrichActivity fills the canonical fields the raw shapes lack: icon from
// keyword matching, cost and duration inferred from the description when
// absent.
func enrichActivity(title, description string, cost float64, tips []string, location string) models.Activity {
	title = SanitizeTitle(title)
	if title == "" {
		title = "未命名活动"
	}
	if strings.TrimSpace(description) == "" {
		description = title
	}

	if cost == 0 {
		if match := costPattern.FindStringSubmatch(description); match != nil {
			fmt.Sscanf(match[1], "%f", &cost)
		}
	}

	duration := durationPattern.FindString(description)
	if duration == "" {
		duration = defaultDuration
	}

	if tips == nil {
		tips = []string{}
	}

	return models.Activity{
		Title:       title,
		Description: description,
		Cost:        cost,
		Duration:    duration,
		Tips:        tips,
		Location:    location,
		Icon:        DefaultActivityIcon(title + description),
	}
}

// buildDayPlan assembles the per-day metadata shared by every normalizer.
func buildDayPlan(dayNumber int, title string, segments []models.Segment, context models.ParseContext) models.DayPlan {
	return models.DayPlan{
		Day:       dayNumber,
		Title:     title,
		Date:      CalculateDayDate(context.StartDate, dayNumber-1),
		Segments:  segments,
		Location:  context.Destination,
		Weather:   generateWeatherInfo(dayNumber),
		TotalCost: sumSegmentCosts(segments),
		Progress:  70 + rand.Intn(30),
		Image:     "",
		Tags:      extractTags(title),
	}
}

// ConvertToLegacyFormat flattens canonical day plans into the legacy
// denormalized view: one timeline item per segment, activity titles
// joined, descriptions concatenated, and costs summed per segment.
func ConvertToLegacyFormat(plans []models.DayPlan) []models.LegacyDayActivity {
	legacy := make([]models.LegacyDayActivity, 0, len(plans))
	for _, day := range plans {
		record := models.LegacyDayActivity{
			Day:         day.Day,
			Title:       day.Title,
			Date:        day.Date,
			Weather:     "晴朗",
			Temperature: "25°C",
			Location:    day.Location,
			Cost:        day.TotalCost,
			Progress:    day.Progress,
			Image:       day.Image,
			Tags:        day.Tags,
		}
		if day.Weather != nil {
			record.Weather = day.Weather.Condition
			record.Temperature = day.Weather.Temperature
		}
		if record.Progress == 0 {
			record.Progress = 80
		}
		if record.Tags == nil {
			record.Tags = []string{}
		}

		for _, segment := range day.Segments {
			record.Timeline = append(record.Timeline, flattenSegment(segment))
		}
		legacy = append(legacy, record)
	}
	return legacy
}

// flattenSegment merges a segment's activities into one legacy item.
func flattenSegment(segment models.Segment) models.LegacyTimelineItem {
	titles := make([]string, 0, len(segment.Activities))
	descriptions := make([]string, 0, len(segment.Activities))
	var cost float64
	icon := "📍"
	duration := defaultDuration

	for i, activity := range segment.Activities {
		if activity.Title != "" {
			titles = append(titles, activity.Title)
		}
		if activity.Description != "" {
			descriptions = append(descriptions, activity.Description)
		}
		cost += activity.Cost
		if i == 0 {
			if activity.Icon != "" {
				icon = activity.Icon
			}
			if activity.Duration != "" {
				duration = activity.Duration
			}
		}
	}

	return models.LegacyTimelineItem{
		Time:        segment.Time,
		Period:      string(segment.Period),
		Title:       strings.Join(titles, "、"),
		Description: strings.Join(descriptions, "；"),
		Icon:        icon,
		Cost:        cost,
		Duration:    duration,
		Color:       PeriodColor(segment.Period),
	}
}

func sumSegmentCosts(segments []models.Segment) float64 {
	var total float64
	for _, segment := range segments {
		for _, activity := range segment.Activities {
			total += activity.Cost
		}
	}
	return total
}

func generateWeatherInfo(day int) *models.Weather {
	conditions := []string{"晴朗", "多云", "阴天"}
	temperatures := []string{"22°C", "24°C", "26°C", "25°C"}
	return &models.Weather{
		Condition:   conditions[day%len(conditions)],
		Temperature: temperatures[day%len(temperatures)],
		Icon:        defaultWeatherIcon,
	}
}

// extractTags derives display tags from the day title keywords.
func extractTags(title string) []string {
	var tags []string
	if strings.Contains(title, "文化") || strings.Contains(title, "历史") {
		tags = append(tags, "文化古迹")
	}
	if strings.Contains(title, "美食") || strings.Contains(title, "餐") {
		tags = append(tags, "特色美食")
	}
	if strings.Contains(title, "自然") || strings.Contains(title, "公园") {
		tags = append(tags, "自然风光")
	}
	if strings.Contains(title, "购物") {
		tags = append(tags, "购物体验")
	}
	if len(tags) == 0 {
		tags = append(tags, "行程安排")
	}
	return tags
}
