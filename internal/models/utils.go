package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateSessionID creates a fresh session identifier for a parse context.
func GenerateSessionID() string {
	return "session_" + uuid.New().String()
}

// GenerateCacheKey creates a stable cache key for a parse invocation based
// on the raw content and the destination (the only context field that
// influences parse output).
func GenerateCacheKey(content, destination string) string {
	input := fmt.Sprintf("%s|%s", strings.TrimSpace(content), strings.TrimSpace(destination))
	hash := sha256.Sum256([]byte(input))
	return "tl_" + hex.EncodeToString(hash[:])[:16]
}

// ValidatePeriod checks if the period is one of the canonical values.
func ValidatePeriod(period string) bool {
	for _, p := range AllPeriods {
		if string(p) == period {
			return true
		}
	}
	return false
}

// IsPrimaryPeriod reports whether the period counts as a day's primary
// period (morning or afternoon) for business-rule checks.
func IsPrimaryPeriod(period Period) bool {
	return period == PeriodMorning || period == PeriodAfternoon
}
