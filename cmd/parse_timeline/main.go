package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"travel-timeline-parser/internal/services"
)

var (
	inputPath   string
	destination string
	totalDays   int
	startDate   string
	legacyOut   bool
	pretty      bool
	showStats   bool
	verbose     bool
)

func main() {
	root := &cobra.Command{
		Use:   "parse_timeline",
		Short: "Parse free-form itinerary text into a structured day-by-day timeline",
		Long: `parse_timeline reads LLM-generated itinerary text (JSON, markdown,
numbered lists, or plain prose) and converts it into validated day plans.
Input comes from --input or stdin.`,
		RunE: runParse,
	}

	root.Flags().StringVarP(&inputPath, "input", "i", "", "input file (default: stdin)")
	root.Flags().StringVarP(&destination, "destination", "d", "", "trip destination")
	root.Flags().IntVar(&totalDays, "days", 0, "expected number of days")
	root.Flags().StringVar(&startDate, "start-date", "", "trip start date (YYYY-MM-DD)")
	root.Flags().BoolVar(&legacyOut, "legacy", false, "emit the flattened legacy format")
	root.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	root.Flags().BoolVar(&showStats, "stats", false, "print per-parser diagnostics instead of parsing")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		color.Red("错误: %v", err)
		os.Exit(1)
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	logger := zap.NewNop()
	if verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer logger.Sync()
	}

	raw, err := readInput()
	if err != nil {
		return err
	}

	service := services.NewTimelineParsingServiceWithConfig(services.OrchestratorConfig{Logger: logger})
	parseCtx := service.CreateParseContext(destination, totalDays, "")
	parseCtx.StartDate = startDate

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if showStats {
		attempts := service.TestParsers(ctx, raw, parseCtx)
		for _, attempt := range attempts {
			status := color.RedString("跳过")
			detail := ""
			switch {
			case attempt.Success:
				status = color.GreenString("成功")
				detail = fmt.Sprintf("得分 %d，共 %d 天", attempt.Score, attempt.Days)
			case attempt.CanHandle:
				status = color.YellowString("失败")
				detail = attempt.Error
			}
			fmt.Printf("%-22s 优先级 %3d  %s  %s\n", attempt.Parser, attempt.Priority, status, detail)
		}
		return nil
	}

	result := service.ParseTimeline(ctx, raw, parseCtx)
	if !result.Success {
		color.Red("解析失败: %v", result.Errors)
	} else {
		color.Green("解析成功: %s（%d 天）", result.Parser, len(result.Data))
	}
	for _, warning := range result.Warnings {
		color.Yellow("警告: %s", warning)
	}

	var payload interface{} = result
	if legacyOut {
		payload = service.BuildResponse(result, parseCtx)
	}
	return emitJSON(payload)
}

func readInput() (string, error) {
	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", inputPath, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func emitJSON(payload interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	encoder.SetEscapeHTML(false)
	return encoder.Encode(payload)
}
