package services

import (
	"strings"
	"testing"

	"travel-timeline-parser/internal/models"
)

func validDayPlan(day int) models.DayPlan {
	return models.DayPlan{
		Day:   day,
		Title: "第1天行程",
		Segments: []models.Segment{
			{
				Period: models.PeriodMorning,
				Time:   "09:00-12:00",
				Activities: []models.Activity{
					{Title: "参观博物馆", Description: "了解当地历史文化"},
				},
			},
		},
	}
}

func TestValidateDayPlans(t *testing.T) {
	t.Run("valid single day", func(t *testing.T) {
		result := ValidateDayPlans([]models.DayPlan{validDayPlan(1)})
		if !result.Valid {
			t.Fatalf("expected valid, got errors: %v", result.Errors)
		}
		if len(result.Warnings) != 0 {
			t.Errorf("expected no warnings, got %v", result.Warnings)
		}
	})

	t.Run("single digit hour passes", func(t *testing.T) {
		plan := validDayPlan(1)
		plan.Segments[0].Time = "9:00-12:00"
		result := ValidateDayPlans([]models.DayPlan{plan})
		if !result.Valid {
			t.Errorf("9:00-12:00 should be valid, got errors: %v", result.Errors)
		}
	})

	t.Run("tilde separator fails with path", func(t *testing.T) {
		plan := validDayPlan(1)
		plan.Segments[0].Time = "09:00~12:00"
		result := ValidateDayPlans([]models.DayPlan{plan})
		if result.Valid {
			t.Fatal("tilde time should fail validation")
		}
		found := false
		for _, err := range result.Errors {
			if strings.Contains(err, "days.0.segments.0.time") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected dotted-path time error, got %v", result.Errors)
		}
	})

	t.Run("invalid period fails", func(t *testing.T) {
		plan := validDayPlan(1)
		plan.Segments[0].Period = "上午"
		result := ValidateDayPlans([]models.DayPlan{plan})
		if result.Valid {
			t.Fatal("non-canonical period should fail validation")
		}
	})

	t.Run("empty days fails", func(t *testing.T) {
		if result := ValidateDayPlans([]models.DayPlan{}); result.Valid {
			t.Error("empty plan list should fail")
		}
	})

	t.Run("duplicate day number fails", func(t *testing.T) {
		result := ValidateDayPlans([]models.DayPlan{validDayPlan(1), validDayPlan(1)})
		if result.Valid {
			t.Fatal("duplicate day numbers should fail")
		}
	})

	t.Run("day gap produces warning not error", func(t *testing.T) {
		result := ValidateDayPlans([]models.DayPlan{validDayPlan(1), validDayPlan(3)})
		if !result.Valid {
			t.Fatalf("day gap should stay valid, got errors: %v", result.Errors)
		}
		found := false
		for _, warning := range result.Warnings {
			if strings.Contains(warning, "第2天") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected gap warning naming 第2天, got %v", result.Warnings)
		}
	})

	t.Run("missing primary period produces warning", func(t *testing.T) {
		plan := validDayPlan(1)
		plan.Segments[0].Period = models.PeriodEvening
		plan.Segments[0].Time = "19:00-21:00"
		result := ValidateDayPlans([]models.DayPlan{plan})
		if !result.Valid {
			t.Fatalf("evening-only day should stay valid, got errors: %v", result.Errors)
		}
		found := false
		for _, warning := range result.Warnings {
			if strings.Contains(warning, "主要时段") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected primary-period warning, got %v", result.Warnings)
		}
	})

	t.Run("structural errors suppress business warnings", func(t *testing.T) {
		day3 := validDayPlan(3)
		day3.Title = ""
		result := ValidateDayPlans([]models.DayPlan{validDayPlan(1), day3})
		if result.Valid {
			t.Fatal("empty title should fail validation")
		}
		if len(result.Warnings) != 0 {
			t.Errorf("structural failure should carry no warnings, got %v", result.Warnings)
		}
	})
}

func TestValidateLLMOutput(t *testing.T) {
	t.Run("valid raw shape", func(t *testing.T) {
		data := ExtractJSONFromLLMOutput(`{"days":[{"day":1,"title":"第1天","segments":[{"period":"morning","time":"09:00-12:00","activities":[{"title":"逛公园","description":"上午散步","cost":0}]}]}]}`)
		result := ValidateLLMOutput(data)
		if !result.Valid {
			t.Errorf("expected valid, got errors: %v", result.Errors)
		}
	})

	t.Run("missing days key", func(t *testing.T) {
		result := ValidateLLMOutput(map[string]interface{}{"itinerary": []interface{}{}})
		if result.Valid {
			t.Error("missing days should fail")
		}
	})

	t.Run("non-numeric cost fails", func(t *testing.T) {
		data := ExtractJSONFromLLMOutput(`{"days":[{"day":1,"title":"第1天","segments":[{"period":"morning","activities":[{"title":"逛公园","description":"上午散步","cost":"五十元"}]}]}]}`)
		result := ValidateLLMOutput(data)
		if result.Valid {
			t.Error("string cost should fail")
		}
	})

	t.Run("array root fails before repair", func(t *testing.T) {
		result := ValidateLLMOutput([]interface{}{map[string]interface{}{"day": 1.0}})
		if result.Valid {
			t.Error("array root should fail raw validation")
		}
	})
}
