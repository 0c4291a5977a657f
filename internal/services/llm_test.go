package services

import (
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewItineraryLLMClient(t *testing.T) {
	t.Run("missing api key fails", func(t *testing.T) {
		os.Unsetenv("OPENAI_API_KEY")
		if _, err := NewItineraryLLMClient(zap.NewNop()); err == nil {
			t.Error("expected error without OPENAI_API_KEY")
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		os.Setenv("OPENAI_API_KEY", "test-key")
		os.Unsetenv("OPENAI_MODEL")
		defer os.Unsetenv("OPENAI_API_KEY")

		client, err := NewItineraryLLMClient(nil)
		if err != nil {
			t.Fatalf("client creation failed: %v", err)
		}
		if client.model != "gpt-4o-mini" {
			t.Errorf("default model = %q", client.model)
		}
		if client.temperature > 0.2 {
			t.Errorf("temperature too high for structured output: %v", client.temperature)
		}
	})
}

func TestBuildItineraryPrompt(t *testing.T) {
	prompt := buildItineraryPrompt(ItineraryRequest{
		Destination: "西安",
		Days:        3,
		Preferences: "历史文化",
		Budget:      "3000元",
	})
	for _, want := range []string{"西安", "3天", "历史文化", "3000元"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q: %s", want, prompt)
		}
	}

	minimal := buildItineraryPrompt(ItineraryRequest{Destination: "西安", Days: 3})
	if strings.Contains(minimal, "偏好") || strings.Contains(minimal, "预算") {
		t.Errorf("minimal prompt should skip empty sections: %s", minimal)
	}
}

func TestItinerarySystemPrompt(t *testing.T) {
	for _, want := range []string{`"days"`, "morning", "HH:MM-HH:MM"} {
		if !strings.Contains(itinerarySystemPrompt, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestCalculateLLMCost(t *testing.T) {
	if got := calculateLLMCost(1000); got != 0.0003 {
		t.Errorf("cost for 1000 tokens = %v, want 0.0003", got)
	}
	if got := calculateLLMCost(0); got != 0 {
		t.Errorf("cost for 0 tokens = %v", got)
	}
}
