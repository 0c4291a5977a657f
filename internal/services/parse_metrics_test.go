package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"travel-timeline-parser/internal/models"
)

func TestParseMetrics(t *testing.T) {
	t.Run("nil receiver is safe", func(t *testing.T) {
		var m *ParseMetrics
		m.RecordAttempt("JsonParser")
		m.RecordSelection("JsonParser", time.Millisecond)
		snapshot := m.Snapshot()
		if len(snapshot.Attempts) != 0 {
			t.Errorf("nil metrics snapshot should be empty, got %v", snapshot.Attempts)
		}
	})

	t.Run("in-memory counters", func(t *testing.T) {
		m := NewParseMetrics(nil)
		m.RecordAttempt("JsonParser")
		m.RecordAttempt("JsonParser")
		m.RecordAttempt("HeuristicTimeParser")
		m.RecordSelection("HeuristicTimeParser", 5*time.Millisecond)

		snapshot := m.Snapshot()
		if snapshot.Attempts["JsonParser"] != 2 {
			t.Errorf("json attempts = %d", snapshot.Attempts["JsonParser"])
		}
		if snapshot.Selections["HeuristicTimeParser"] != 1 {
			t.Errorf("heuristic selections = %d", snapshot.Selections["HeuristicTimeParser"])
		}
		if snapshot.Fallbacks != 1 {
			t.Errorf("fallbacks = %d", snapshot.Fallbacks)
		}
	})

	t.Run("prometheus collectors registered", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		m := NewParseMetrics(registry)
		m.RecordAttempt("JsonParser")
		m.RecordSelection("JsonParser", 2*time.Millisecond)

		families, err := registry.Gather()
		if err != nil {
			t.Fatalf("gather failed: %v", err)
		}
		names := make(map[string]bool)
		for _, family := range families {
			names[family.GetName()] = true
		}
		for _, want := range []string{
			"timeline_parse_attempts_total",
			"timeline_parse_selected_total",
			"timeline_parse_duration_seconds",
		} {
			if !names[want] {
				t.Errorf("metric %s not gathered, have %v", want, names)
			}
		}
	})

	t.Run("orchestrator feeds the collector", func(t *testing.T) {
		m := NewParseMetrics(nil)
		orchestrator := NewTimelineOrchestratorWithConfig(OrchestratorConfig{Metrics: m})
		result := orchestrator.ParseTimeline(context.Background(), chengduJSON, models.ParseContext{Destination: "成都"})
		if !result.Success {
			t.Fatalf("parse failed: %v", result.Errors)
		}

		snapshot := m.Snapshot()
		if snapshot.Attempts["JsonParser"] == 0 {
			t.Error("expected a recorded json attempt")
		}
		if snapshot.Selections["JsonParser"] != 1 {
			t.Errorf("json selections = %d", snapshot.Selections["JsonParser"])
		}
	})
}
