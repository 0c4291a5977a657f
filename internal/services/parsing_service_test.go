package services

import (
	"context"
	"strings"
	"testing"

	"travel-timeline-parser/internal/models"
)

func TestTimelineParsingService(t *testing.T) {
	service := NewTimelineParsingService()
	parseCtx := service.CreateParseContext("成都", 1, "")

	t.Run("context gets generated session id", func(t *testing.T) {
		if !strings.HasPrefix(parseCtx.SessionID, "session_") {
			t.Errorf("session id = %q", parseCtx.SessionID)
		}
		explicit := service.CreateParseContext("成都", 1, "session_fixed")
		if explicit.SessionID != "session_fixed" {
			t.Errorf("explicit session id not kept: %q", explicit.SessionID)
		}
	})

	t.Run("second parse is served from cache", func(t *testing.T) {
		first := service.ParseTimeline(context.Background(), chengduJSON, parseCtx)
		if !first.Success {
			t.Fatalf("first parse failed: %v", first.Errors)
		}
		for _, warning := range first.Warnings {
			if warning == "使用了缓存结果" {
				t.Fatal("first parse must not be a cache hit")
			}
		}

		second := service.ParseTimeline(context.Background(), chengduJSON, parseCtx)
		if !second.Success {
			t.Fatalf("second parse failed: %v", second.Errors)
		}
		found := false
		for _, warning := range second.Warnings {
			if warning == "使用了缓存结果" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected cache-hit warning, got %v", second.Warnings)
		}
		if second.Parser != first.Parser {
			t.Errorf("cached parser = %q, want %q", second.Parser, first.Parser)
		}
	})

	t.Run("different destination misses the cache", func(t *testing.T) {
		other := service.CreateParseContext("重庆", 1, "")
		result := service.ParseTimeline(context.Background(), chengduJSON, other)
		for _, warning := range result.Warnings {
			if warning == "使用了缓存结果" {
				t.Error("different destination must not share cache entries")
			}
		}
	})

	t.Run("cache maintenance", func(t *testing.T) {
		size, maxSize := service.CacheStats()
		if size < 1 || maxSize != 100 {
			t.Errorf("cache stats = %d/%d", size, maxSize)
		}
		if removed := service.CleanupCache(); removed != 0 {
			t.Errorf("fresh entries should survive cleanup, removed %d", removed)
		}
		service.ClearCache()
		if size, _ := service.CacheStats(); size != 0 {
			t.Errorf("cache not empty after clear: %d", size)
		}
	})
}

func TestParseTimelineActivities(t *testing.T) {
	service := NewTimelineParsingService()

	t.Run("empty input yields floor itinerary", func(t *testing.T) {
		legacy := service.ParseTimelineActivities("", "丽江")
		if len(legacy) == 0 {
			t.Fatal("legacy path must never return an empty slice")
		}
		if len(legacy[0].Timeline) == 0 {
			t.Fatal("floor day must carry at least one timeline item")
		}
		if !strings.Contains(legacy[0].Title, "丽江") {
			t.Errorf("floor title should name the destination, got %q", legacy[0].Title)
		}
	})

	t.Run("whitespace-only input also yields floor itinerary", func(t *testing.T) {
		legacy := service.ParseTimelineActivities("   \n\t  ", "丽江")
		if len(legacy) == 0 || len(legacy[0].Timeline) == 0 {
			t.Fatal("whitespace input must route to the floor itinerary")
		}
		if !strings.Contains(legacy[0].Title, "自由行") {
			t.Errorf("expected floor title, got %q", legacy[0].Title)
		}
	})

	t.Run("parseable input flattens normally", func(t *testing.T) {
		legacy := service.ParseTimelineActivities(chengduJSON, "成都")
		if len(legacy) != 1 {
			t.Fatalf("expected 1 legacy day, got %d", len(legacy))
		}
		if len(legacy[0].Timeline) != 2 {
			t.Errorf("expected 2 timeline items, got %d", len(legacy[0].Timeline))
		}
	})
}

func TestBuildResponse(t *testing.T) {
	service := NewTimelineParsingService()
	parseCtx := service.CreateParseContext("成都", 1, "")

	t.Run("successful result", func(t *testing.T) {
		result := service.ParseTimeline(context.Background(), chengduJSON, parseCtx)
		response := service.BuildResponse(result, parseCtx)
		if !response.ParseSuccess {
			t.Error("expected parseSuccess")
		}
		if response.TimelineVersion != models.TimelineVersion {
			t.Errorf("version = %q", response.TimelineVersion)
		}
		if len(response.Itinerary) != len(response.LegacyFormat) {
			t.Errorf("formats disagree: %d vs %d", len(response.Itinerary), len(response.LegacyFormat))
		}
	})

	t.Run("failed result still carries a floor itinerary", func(t *testing.T) {
		response := service.BuildResponse(models.ParseResult{Success: false}, parseCtx)
		if response.ParseSuccess {
			t.Error("parseSuccess must stay false")
		}
		if len(response.Itinerary) == 0 || len(response.LegacyFormat) == 0 {
			t.Error("response must never ship empty itineraries")
		}
	})
}

func TestDiagnostics(t *testing.T) {
	service := NewTimelineParsingService()
	parseCtx := service.CreateParseContext("成都", 1, "")

	t.Run("parser stats list all plugins", func(t *testing.T) {
		stats := service.GetParserStats()
		if stats.Total != 4 {
			t.Errorf("expected 4 parsers, got %d", stats.Total)
		}
		if stats.Parsers[0] != "JsonParser" {
			t.Errorf("highest priority parser = %q", stats.Parsers[0])
		}
	})

	t.Run("test parsers reports per-plugin outcomes", func(t *testing.T) {
		attempts := service.TestParsers(context.Background(), harbinMarkdown, parseCtx)
		if len(attempts) != 4 {
			t.Fatalf("expected 4 attempts, got %d", len(attempts))
		}
		byName := make(map[string]ParserAttempt)
		for _, attempt := range attempts {
			byName[attempt.Parser] = attempt
		}
		if byName["JsonParser"].CanHandle {
			t.Error("json parser should decline markdown input")
		}
		markdown := byName["MarkdownPeriodParser"]
		if !markdown.CanHandle || !markdown.Success || markdown.Days != 1 {
			t.Errorf("markdown attempt = %+v", markdown)
		}
		if !byName["HeuristicTimeParser"].Success {
			t.Error("heuristic attempt should always succeed")
		}
	})
}

func TestLRUCache(t *testing.T) {
	t.Run("evicts least recently used at capacity", func(t *testing.T) {
		cache := newLRUCache(2, cacheTTL)
		plans := []models.DayPlan{validDayPlan(1)}
		cache.Set("a", plans, nil, "JsonParser")
		cache.Set("b", plans, nil, "JsonParser")
		if _, hit := cache.Get("a"); !hit {
			t.Fatal("a should still be cached")
		}
		cache.Set("c", plans, nil, "JsonParser")
		if _, hit := cache.Get("b"); hit {
			t.Error("b should have been evicted as least recently used")
		}
		if _, hit := cache.Get("a"); !hit {
			t.Error("a was refreshed and should survive")
		}
		if cache.Len() != 2 {
			t.Errorf("len = %d", cache.Len())
		}
	})

	t.Run("expired entries are dropped", func(t *testing.T) {
		cache := newLRUCache(10, 0)
		cache.Set("a", []models.DayPlan{validDayPlan(1)}, nil, "JsonParser")
		if _, hit := cache.Get("a"); hit {
			t.Error("zero-ttl entry should be expired on read")
		}
		cache.Set("b", []models.DayPlan{validDayPlan(1)}, nil, "JsonParser")
		if removed := cache.Cleanup(); removed != 1 {
			t.Errorf("cleanup removed %d, want 1", removed)
		}
	})
}
