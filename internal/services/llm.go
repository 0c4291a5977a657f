package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const itinerarySystemPrompt = `你是专业的旅行规划师。根据用户需求生成行程安排，必须严格输出JSON，不要输出任何解释文字。
输出格式：
{"days":[{"day":1,"title":"第1天标题","segments":[{"period":"morning","time":"09:00-12:00","activities":[{"title":"活动名称","description":"活动描述","cost":100,"duration":"约2小时"}]}]}]}
要求：
- period 只能是 morning/noon/afternoon/evening/night
- time 必须是 HH:MM-HH:MM 格式
- 所有文字使用中文`

// ItineraryLLMClient generates raw itinerary text from an OpenAI
// compatible endpoint. The output is fed to the parsing pipeline, which
// tolerates whatever format the model actually returns.
type ItineraryLLMClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// ItineraryRequest describes the trip to generate.
type ItineraryRequest struct {
	Destination string `json:"destination"`
	Days        int    `json:"days"`
	Preferences string `json:"preferences,omitempty"`
	Budget      string `json:"budget,omitempty"`
}

// ItineraryResponse carries the raw model output plus usage accounting.
type ItineraryResponse struct {
	Content       string  `json:"content"`
	TokensUsed    int     `json:"tokensUsed"`
	EstimatedCost float64 `json:"estimatedCost"`
	RequestID     string  `json:"requestId"`
}

// NewItineraryLLMClient creates a client from OPENAI_API_KEY,
// OPENAI_BASE_URL and OPENAI_MODEL.
func NewItineraryLLMClient(logger *zap.Logger) (*ItineraryLLMClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &ItineraryLLMClient{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		maxTokens:   4000,
		temperature: 0.1,
		logger:      logger,
	}, nil
}

// GenerateItinerary asks the model for a day-by-day plan and returns
// the raw content for downstream parsing.
func (c *ItineraryLLMClient) GenerateItinerary(ctx context.Context, req ItineraryRequest) (*ItineraryResponse, error) {
	requestID := "itin_" + uuid.New().String()[:8]

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: itinerarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildItineraryPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("LLM request %s failed: %w", requestID, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM request %s returned no choices", requestID)
	}

	tokensUsed := resp.Usage.TotalTokens
	response := &ItineraryResponse{
		Content:       resp.Choices[0].Message.Content,
		TokensUsed:    tokensUsed,
		EstimatedCost: calculateLLMCost(tokensUsed),
		RequestID:     requestID,
	}

	c.logger.Info("itinerary generated",
		zap.String("requestId", requestID),
		zap.String("destination", req.Destination),
		zap.Int("days", req.Days),
		zap.Int("tokensUsed", tokensUsed),
		zap.Float64("estimatedCost", response.EstimatedCost))

	return response, nil
}

func buildItineraryPrompt(req ItineraryRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "请为%s生成%d天的旅行行程。", req.Destination, req.Days)
	if req.Preferences != "" {
		fmt.Fprintf(&sb, "偏好：%s。", req.Preferences)
	}
	if req.Budget != "" {
		fmt.Fprintf(&sb, "预算：%s。", req.Budget)
	}
	return sb.String()
}

// calculateLLMCost estimates USD cost from total token usage.
func calculateLLMCost(tokensUsed int) float64 {
	return float64(tokensUsed) * 0.0003 / 1000.0
}
