package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"travel-timeline-parser/internal/services"
)

// Generates an itinerary with the configured LLM, then runs it through
// the parsing pipeline and prints the dual-format response. Requires
// OPENAI_API_KEY.
func main() {
	destination := flag.String("destination", "", "trip destination (required)")
	days := flag.Int("days", 3, "number of days")
	preferences := flag.String("preferences", "", "traveler preferences")
	budget := flag.String("budget", "", "trip budget")
	flag.Parse()

	if *destination == "" {
		flag.Usage()
		log.Fatalf("destination is required")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	client, err := services.NewItineraryLLMClient(logger)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	generated, err := client.GenerateItinerary(ctx, services.ItineraryRequest{
		Destination: *destination,
		Days:        *days,
		Preferences: *preferences,
		Budget:      *budget,
	})
	if err != nil {
		log.Fatalf("Failed to generate itinerary: %v", err)
	}
	fmt.Printf("Request %s used %d tokens (est. $%.6f)\n",
		generated.RequestID, generated.TokensUsed, generated.EstimatedCost)

	service := services.NewTimelineParsingServiceWithConfig(services.OrchestratorConfig{Logger: logger})
	parseCtx := service.CreateParseContext(*destination, *days, "")

	result := service.ParseTimeline(ctx, generated.Content, parseCtx)
	if !result.Success {
		log.Printf("Parse fell back to floor itinerary: %v", result.Errors)
	}

	response := service.BuildResponse(result, parseCtx)
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(response); err != nil {
		log.Fatalf("Failed to encode response: %v", err)
	}
}
