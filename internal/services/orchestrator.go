package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"travel-timeline-parser/internal/models"
)

const (
	errNoSuitableParser = "没有找到合适的解析器"
	warnFallbackUsed    = "未能识别标准时间格式，使用兜底解析"
)

// TimelineOrchestrator runs the registered parsers against raw LLM text
// and selects the best candidate. One parse call touches a single
// goroutine; the orchestrator itself is safe for concurrent use because
// the registry is read-only after construction.
type TimelineOrchestrator struct {
	registry *ParserRegistry
	logger   *zap.Logger
	metrics  *ParseMetrics
}

// OrchestratorConfig carries the optional collaborators. Nil fields fall
// back to the defaults (built-in registry, no-op logger, no metrics).
type OrchestratorConfig struct {
	Registry *ParserRegistry
	Logger   *zap.Logger
	Metrics  *ParseMetrics
}

// NewTimelineOrchestrator creates an orchestrator with the default
// parser registry and a no-op logger.
func NewTimelineOrchestrator() *TimelineOrchestrator {
	return NewTimelineOrchestratorWithConfig(OrchestratorConfig{})
}

// NewTimelineOrchestratorWithConfig creates an orchestrator from the
// given configuration.
func NewTimelineOrchestratorWithConfig(cfg OrchestratorConfig) *TimelineOrchestrator {
	registry := cfg.Registry
	if registry == nil {
		registry = DefaultParserRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimelineOrchestrator{
		registry: registry,
		logger:   logger,
		metrics:  cfg.Metrics,
	}
}

// Registry exposes the orchestrator's parser registry.
func (o *TimelineOrchestrator) Registry() *ParserRegistry {
	return o.registry
}

type parseCandidate struct {
	parser ParserPlugin
	plans  []models.DayPlan
	score  int
}

// ParseTimeline runs every applicable parser over the input, scores the
// successful results, and returns the winner. Parsers run in priority
// order; on equal scores the earlier (higher priority) candidate wins.
// A panic inside a parser is contained and treated as a parse failure.
func (o *TimelineOrchestrator) ParseTimeline(ctx context.Context, raw string, parseCtx models.ParseContext) models.ParseResult {
	started := time.Now()

	if strings.TrimSpace(raw) == "" {
		o.logger.Warn("timeline parse rejected empty input",
			zap.String("destination", parseCtx.Destination),
			zap.String("sessionId", parseCtx.SessionID))
		return models.ParseResult{
			Success: false,
			Errors:  []string{errNoSuitableParser},
			Metadata: &models.ParseMetadata{
				ParseTimeMS: time.Since(started).Milliseconds(),
			},
		}
	}

	var candidates []parseCandidate
	heuristicAttempted := false

	for _, parser := range o.registry.Parsers() {
		if !parser.CanHandle(raw) {
			continue
		}
		if _, ok := parser.(*HeuristicTimeParser); ok {
			heuristicAttempted = true
		}
		if candidate, ok := o.attempt(ctx, parser, raw, parseCtx); ok {
			candidates = append(candidates, candidate)
		}
	}

	// The heuristic parser claims everything, but a custom registry may
	// omit it or a panic may have eaten its attempt. Give it one explicit
	// chance before declaring failure.
	if len(candidates) == 0 && !heuristicAttempted {
		if fallback, ok := o.registry.Lookup("HeuristicTimeParser"); ok {
			if candidate, attempted := o.attempt(ctx, fallback, raw, parseCtx); attempted {
				candidates = append(candidates, candidate)
			}
		}
	}

	if len(candidates) == 0 {
		o.logger.Error("all parsers failed, returning floor fallback",
			zap.String("destination", parseCtx.Destination),
			zap.Int("inputLength", len(raw)))
		return models.ParseResult{
			Success:  false,
			Data:     FloorFallback(parseCtx),
			Errors:   []string{errNoSuitableParser},
			Warnings: []string{warnFallbackUsed},
			Metadata: &models.ParseMetadata{
				ParseTimeMS: time.Since(started).Milliseconds(),
			},
		}
	}

	best := candidates[0]
	for _, candidate := range candidates[1:] {
		if candidate.score > best.score {
			best = candidate
		}
	}

	var warnings []string
	if validation := ValidateDayPlans(best.plans); validation.Valid {
		warnings = append(warnings, validation.Warnings...)
	}
	if best.parser.Name() == "HeuristicTimeParser" {
		warnings = append(warnings, warnFallbackUsed)
	}

	elapsed := time.Since(started)
	if o.metrics != nil {
		o.metrics.RecordSelection(best.parser.Name(), elapsed)
	}
	o.logger.Info("timeline parsed",
		zap.String("parser", best.parser.Name()),
		zap.Int("score", best.score),
		zap.Int("candidates", len(candidates)),
		zap.Int("days", len(best.plans)),
		zap.Duration("elapsed", elapsed))

	return models.ParseResult{
		Success:  true,
		Data:     best.plans,
		Warnings: warnings,
		Parser:   best.parser.Name(),
		Metadata: &models.ParseMetadata{
			StructuredHit: best.parser.Name() == "JsonParser",
			ParseTimeMS:   elapsed.Milliseconds(),
			Candidates:    len(candidates),
		},
	}
}

// attempt runs one parser with panic isolation. The second return value
// reports whether the parser produced a usable candidate.
func (o *TimelineOrchestrator) attempt(ctx context.Context, parser ParserPlugin, raw string, parseCtx models.ParseContext) (candidate parseCandidate, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			o.logger.Error("parser panicked",
				zap.String("parser", parser.Name()),
				zap.String("panic", fmt.Sprintf("%v", r)))
		}
	}()

	if o.metrics != nil {
		o.metrics.RecordAttempt(parser.Name())
	}

	plans, err := parser.TryParse(ctx, raw, parseCtx)
	if err != nil {
		o.logger.Debug("parser declined input",
			zap.String("parser", parser.Name()),
			zap.Error(err))
		return parseCandidate{}, false
	}
	if len(plans) == 0 {
		return parseCandidate{}, false
	}
	if validation := ValidateDayPlans(plans); !validation.Valid {
		o.logger.Debug("parser output failed validation",
			zap.String("parser", parser.Name()),
			zap.Strings("errors", validation.Errors))
		return parseCandidate{}, false
	}

	return parseCandidate{
		parser: parser,
		plans:  plans,
		score:  parser.Score(plans),
	}, true
}
