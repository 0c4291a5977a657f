package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// LLM output frequently wraps JSON in prose or markdown fences. The
// extraction cascade tries increasingly aggressive salvage strategies,
// each attempt isolated so a failed parse never aborts the next one.
var (
	fencedBlockPattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	bracedSpanPattern  = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ExtractJSONFromLLMOutput pulls a JSON document out of noisy LLM text.
//
// Strategy, in order:
//  1. Parse the trimmed string directly.
//  2. Locate a fenced code block (optionally tagged json) and parse its body.
//  3. Locate the first greedy {...} span and parse that.
//
// Returns nil when every strategy fails. Never panics.
func ExtractJSONFromLLMOutput(raw string) interface{} {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if data, err := decodeJSONDocument(trimmed); err == nil {
		return data
	}

	if match := fencedBlockPattern.FindStringSubmatch(trimmed); match != nil {
		if data, err := decodeJSONDocument(strings.TrimSpace(match[1])); err == nil {
			return data
		}
	}

	if span := bracedSpanPattern.FindString(trimmed); span != "" {
		if data, err := decodeJSONDocument(span); err == nil {
			return data
		}
	}

	return nil
}

// decodeJSONDocument parses s and accepts only object or array roots.
// Scalar roots ("42", "true") are rejected: they are never a usable
// itinerary payload and would produce false-positive extractions.
func decodeJSONDocument(s string) (interface{}, error) {
	if s == "" {
		return nil, fmt.Errorf("empty input")
	}

	var data interface{}
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, err
	}

	switch data.(type) {
	case map[string]interface{}, []interface{}:
		return data, nil
	default:
		return nil, fmt.Errorf("json root is a scalar, not a document")
	}
}
