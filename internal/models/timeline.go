package models

// TimelineVersion is the schema version reported alongside parsed itineraries.
const TimelineVersion = "2.0.0"

// Period identifies which part of the day a segment covers.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodNoon      Period = "noon"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
	PeriodNight     Period = "night"
)

// AllPeriods lists the canonical periods in chronological order.
var AllPeriods = []Period{
	PeriodMorning,
	PeriodNoon,
	PeriodAfternoon,
	PeriodEvening,
	PeriodNight,
}

// Activity is a single itinerary item within a segment.
type Activity struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Cost        float64  `json:"cost,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Tips        []string `json:"tips,omitempty"`
	Location    string   `json:"location,omitempty"`
	Icon        string   `json:"icon,omitempty"`
}

// Segment groups the activities of one period of a day.
// Time uses the "HH:MM-HH:MM" format (single-digit hours allowed).
type Segment struct {
	Period     Period     `json:"period"`
	Time       string     `json:"time"`
	Activities []Activity `json:"activities"`
}

// Weather is the synthesized weather hint attached to a day.
type Weather struct {
	Condition   string `json:"condition"`
	Temperature string `json:"temperature"`
	Icon        string `json:"icon"`
}

// DayPlan is one calendar day of a parsed itinerary.
type DayPlan struct {
	Day       int       `json:"day"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Segments  []Segment `json:"segments"`
	Weather   *Weather  `json:"weather,omitempty"`
	Location  string    `json:"location,omitempty"`
	TotalCost float64   `json:"totalCost,omitempty"`
	Progress  int       `json:"progress,omitempty"`
	Image     string    `json:"image,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// ParseContext carries the immutable inputs that accompany raw LLM text.
// It is created once per parse call and never mutated by the pipeline.
type ParseContext struct {
	Destination string `json:"destination"`
	DayNumber   int    `json:"dayNumber,omitempty"`
	TotalDays   int    `json:"totalDays,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
}

// ParseMetadata describes how a parse was resolved.
type ParseMetadata struct {
	StructuredHit bool  `json:"structuredHit"`
	ParseTimeMS   int64 `json:"parseTime"`
	Candidates    int   `json:"candidates"`
}

// ParseResult is the outcome envelope returned by the orchestrator.
// When Success is false, Errors is non-empty; Data may still carry a
// best-effort fallback itinerary.
type ParseResult struct {
	Success  bool           `json:"success"`
	Data     []DayPlan      `json:"data,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Parser   string         `json:"parser,omitempty"`
	Metadata *ParseMetadata `json:"metadata,omitempty"`
}

// ValidationResult reports structural errors and non-fatal business warnings.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// LegacyTimelineItem is the flattened view consumed by older renderers:
// one item per (day, period) segment, with activity titles joined and
// costs summed.
type LegacyTimelineItem struct {
	Time        string  `json:"time"`
	Period      string  `json:"period"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Cost        float64 `json:"cost"`
	Duration    string  `json:"duration"`
	Color       string  `json:"color"`
}

// LegacyDayActivity is the denormalized per-day record of the legacy format.
type LegacyDayActivity struct {
	Day         int                  `json:"day"`
	Title       string               `json:"title"`
	Date        string               `json:"date"`
	Weather     string               `json:"weather"`
	Temperature string               `json:"temperature"`
	Location    string               `json:"location"`
	Cost        float64              `json:"cost"`
	Progress    int                  `json:"progress"`
	Image       string               `json:"image"`
	Tags        []string             `json:"tags"`
	Timeline    []LegacyTimelineItem `json:"timeline"`
}
