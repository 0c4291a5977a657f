package services

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"travel-timeline-parser/internal/models"
)

const (
	cacheMaxEntries = 100
	cacheTTL        = 24 * time.Hour

	errEmptyInput   = "输入内容为空"
	warnCacheResult = "使用了缓存结果"
)

// TimelineParsingService is the high-level facade: orchestrated parsing
// plus a result cache and the legacy-format conversion path older
// callers still depend on.
type TimelineParsingService struct {
	orchestrator *TimelineOrchestrator
	cache        *lruCache
	logger       *zap.Logger
}

// TimelineResponse is the envelope handed back to API callers: the new
// day-plan itinerary alongside its legacy flattening.
type TimelineResponse struct {
	Itinerary       []models.DayPlan           `json:"itinerary"`
	LegacyFormat    []models.LegacyDayActivity `json:"legacyFormat"`
	ParseSuccess    bool                       `json:"parseSuccess"`
	TimelineVersion string                     `json:"timelineVersion"`
}

// NewTimelineParsingService creates the facade with default collaborators.
func NewTimelineParsingService() *TimelineParsingService {
	return NewTimelineParsingServiceWithConfig(OrchestratorConfig{})
}

// NewTimelineParsingServiceWithConfig creates the facade around an
// orchestrator built from cfg.
func NewTimelineParsingServiceWithConfig(cfg OrchestratorConfig) *TimelineParsingService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &TimelineParsingService{
		orchestrator: NewTimelineOrchestratorWithConfig(cfg),
		cache:        newLRUCache(cacheMaxEntries, cacheTTL),
		logger:       logger,
	}
	if os.Getenv("ENABLE_NEW_PARSER") == "false" {
		logger.Warn("ENABLE_NEW_PARSER is disabled; legacy callers should not reach this service")
	}
	return service
}

// CreateParseContext builds a parse context, generating a session ID
// when none is supplied.
func (s *TimelineParsingService) CreateParseContext(destination string, totalDays int, sessionID string) models.ParseContext {
	if sessionID == "" {
		sessionID = models.GenerateSessionID()
	}
	return models.ParseContext{
		Destination: destination,
		TotalDays:   totalDays,
		SessionID:   sessionID,
	}
}

// ParseTimeline parses raw LLM text, serving repeated inputs from the
// cache. Cache hits are flagged with a warning so callers can tell.
func (s *TimelineParsingService) ParseTimeline(ctx context.Context, raw string, parseCtx models.ParseContext) models.ParseResult {
	key := models.GenerateCacheKey(raw, parseCtx.Destination)
	if entry, hit := s.cache.Get(key); hit {
		s.logger.Debug("timeline cache hit",
			zap.String("key", key),
			zap.String("parser", entry.parser))
		warnings := append(append([]string{}, entry.warnings...), warnCacheResult)
		return models.ParseResult{
			Success:  true,
			Data:     entry.data,
			Warnings: warnings,
			Parser:   entry.parser,
			Metadata: &models.ParseMetadata{
				StructuredHit: entry.parser == "JsonParser",
				Candidates:    1,
			},
		}
	}

	result := s.orchestrator.ParseTimeline(ctx, raw, parseCtx)
	if result.Success {
		s.cache.Set(key, result.Data, result.Warnings, result.Parser)
	}
	return result
}

// ParseTimelineActivities is the legacy entry point: it parses raw text
// and returns the flattened format directly. It never returns an empty
// slice; empty or unparseable input yields the floor itinerary.
func (s *TimelineParsingService) ParseTimelineActivities(raw, destination string) []models.LegacyDayActivity {
	parseCtx := s.CreateParseContext(destination, 0, "")

	if strings.TrimSpace(raw) == "" {
		s.logger.Warn(errEmptyInput, zap.String("destination", destination))
		return ConvertToLegacyFormat(FloorFallback(parseCtx))
	}

	result := s.ParseTimeline(context.Background(), raw, parseCtx)
	plans := result.Data
	if len(plans) == 0 {
		plans = FloorFallback(parseCtx)
	}
	return ConvertToLegacyFormat(plans)
}

// BuildResponse wraps a parse result into the dual-format API envelope.
func (s *TimelineParsingService) BuildResponse(result models.ParseResult, parseCtx models.ParseContext) TimelineResponse {
	plans := result.Data
	if len(plans) == 0 {
		plans = FloorFallback(parseCtx)
	}
	return TimelineResponse{
		Itinerary:       plans,
		LegacyFormat:    ConvertToLegacyFormat(plans),
		ParseSuccess:    result.Success,
		TimelineVersion: models.TimelineVersion,
	}
}

// ParserAttempt reports how one parser handled a given input; used by
// diagnostics tooling.
type ParserAttempt struct {
	Parser    string `json:"parser"`
	Priority  int    `json:"priority"`
	CanHandle bool   `json:"canHandle"`
	Success   bool   `json:"success"`
	Score     int    `json:"score,omitempty"`
	Days      int    `json:"days,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TestParsers runs every registered parser against the input regardless
// of the selection logic and reports each outcome.
func (s *TimelineParsingService) TestParsers(ctx context.Context, raw string, parseCtx models.ParseContext) []ParserAttempt {
	parsers := s.orchestrator.Registry().Parsers()
	attempts := make([]ParserAttempt, 0, len(parsers))

	for _, parser := range parsers {
		attempt := ParserAttempt{
			Parser:    parser.Name(),
			Priority:  parser.Priority(),
			CanHandle: parser.CanHandle(raw),
		}
		if attempt.CanHandle {
			plans, err := parser.TryParse(ctx, raw, parseCtx)
			switch {
			case err != nil:
				attempt.Error = err.Error()
			case len(plans) == 0:
				attempt.Error = "解析结果为空"
			default:
				attempt.Success = true
				attempt.Score = parser.Score(plans)
				attempt.Days = len(plans)
			}
		}
		attempts = append(attempts, attempt)
	}
	return attempts
}

// ParserStats describes the registered parser set.
type ParserStats struct {
	Total   int      `json:"total"`
	Parsers []string `json:"parsers"`
}

// GetParserStats reports the registered parsers in priority order.
func (s *TimelineParsingService) GetParserStats() ParserStats {
	parsers := s.orchestrator.Registry().Parsers()
	names := make([]string, 0, len(parsers))
	for _, parser := range parsers {
		names = append(names, parser.Name())
	}
	return ParserStats{Total: len(names), Parsers: names}
}

// ClearCache drops every cached result.
func (s *TimelineParsingService) ClearCache() {
	s.cache.Clear()
}

// CacheStats reports the current cache occupancy.
func (s *TimelineParsingService) CacheStats() (size, maxSize int) {
	return s.cache.Len(), cacheMaxEntries
}

// CleanupCache evicts expired entries and returns how many were removed.
func (s *TimelineParsingService) CleanupCache() int {
	return s.cache.Cleanup()
}
