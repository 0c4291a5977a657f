package services

import (
	"context"
	"testing"

	"travel-timeline-parser/internal/models"
)

var changchunNumbered = `1. **早餐**：酒店自助早餐
2. **上午**：净月潭国家森林公园
3. **午餐**：品尝东北菜
4. **下午**：伪满皇宫博物院
5. **晚餐**：桂林路小吃街`

func TestNumberedListParserCanHandle(t *testing.T) {
	parser := NewNumberedListParser()

	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"numbered with bold labels", changchunNumbered, true},
		{"numbered without labels", "1. 去公园\n2. 吃午饭", false},
		{"bold without numbering", "**上午** 去公园", false},
		{"plain prose", "今天去净月潭", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := parser.CanHandle(tc.raw); got != tc.want {
				t.Errorf("CanHandle = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNumberedListParserTryParse(t *testing.T) {
	parser := NewNumberedListParser()
	parseCtx := models.ParseContext{Destination: "长春"}

	t.Run("labels map to period segments", func(t *testing.T) {
		plans, err := parser.TryParse(context.Background(), changchunNumbered, parseCtx)
		if err != nil {
			t.Fatalf("TryParse failed: %v", err)
		}
		if len(plans) != 1 {
			t.Fatalf("expected 1 day, got %d", len(plans))
		}

		day := plans[0]
		if len(day.Segments) != 5 {
			t.Fatalf("expected 5 segments, got %d", len(day.Segments))
		}
		if day.Segments[0].Period != models.PeriodMorning {
			t.Errorf("早餐 segment period = %s", day.Segments[0].Period)
		}
		if day.Segments[2].Period != models.PeriodNoon {
			t.Errorf("午餐 segment period = %s", day.Segments[2].Period)
		}
		if day.Segments[4].Period != models.PeriodEvening {
			t.Errorf("晚餐 segment period = %s", day.Segments[4].Period)
		}

		if title := day.Segments[1].Activities[0].Title; title != "净月潭国家森林公园" {
			t.Errorf("上午 activity title = %q", title)
		}
		t.Logf("segments: %d, total cost: %v", len(day.Segments), day.TotalCost)
	})

	t.Run("day headers split days", func(t *testing.T) {
		raw := `第1天
1. **上午**：南湖公园
第2天
1. **下午**：长影世纪城`
		plans, err := parser.TryParse(context.Background(), raw, parseCtx)
		if err != nil {
			t.Fatalf("TryParse failed: %v", err)
		}
		if len(plans) != 2 {
			t.Fatalf("expected 2 days, got %d", len(plans))
		}
	})

	t.Run("unlabeled items inherit current period", func(t *testing.T) {
		raw := `1. **上午**：出发去景区
2. **购票**：提前在线购票
3. **下午**：返回市区`
		plans, err := parser.TryParse(context.Background(), raw, parseCtx)
		if err != nil {
			t.Fatalf("TryParse failed: %v", err)
		}
		day := plans[0]
		if len(day.Segments) != 2 {
			t.Fatalf("expected 2 segments, got %d", len(day.Segments))
		}
		if len(day.Segments[0].Activities) != 2 {
			t.Errorf("morning should hold 2 activities, got %d", len(day.Segments[0].Activities))
		}
	})

	t.Run("no usable items returns error", func(t *testing.T) {
		if _, err := parser.TryParse(context.Background(), "没有编号的普通文本", parseCtx); err == nil {
			t.Error("expected error for plain text")
		}
	})
}
