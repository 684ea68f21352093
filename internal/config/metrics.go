package config

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	configMetricsOnce sync.Once
	loadCounter       metric.Int64Counter
	problemCounter    metric.Int64Counter
)

// problemKeyPattern matches the env key a validation problem is about.
var problemKeyPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]*(?:_[A-Z0-9]+)+\b`)

func initConfigMetrics() {
	meter := otel.Meter("hackathon-backend")
	if c, err := meter.Int64Counter("config.load.events"); err == nil {
		loadCounter = c
	}
	if c, err := meter.Int64Counter("config.validation.problems"); err == nil {
		problemCounter = c
	}
}

// recordConfigLoad counts one load attempt and, when validation failed, one
// event per offending key.
func recordConfigLoad(ctx context.Context, cfg *Config, err error) {
	configMetricsOnce.Do(initConfigMetrics)
	class := classifyConfigLoadError(err)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	if loadCounter != nil {
		loadCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("profile", normalizeConfigProfile(cfg.AppEnv)),
			attribute.String("auth_mode", string(cfg.AuthMode)),
			attribute.String("ledger_backend", string(cfg.LedgerBackend)),
			attribute.String("outcome", outcome),
			attribute.String("error_class", class),
		))
	}
	if problemCounter == nil || class != "validation" {
		return
	}
	for _, key := range problemKeys(err) {
		problemCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
	}
}

func normalizeConfigProfile(profile string) string {
	v := strings.TrimSpace(strings.ToLower(profile))
	if v == "" {
		return "unknown"
	}
	return v
}

func classifyConfigLoadError(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "validate config:"):
		return "validation"
	case strings.Contains(msg, "parse "):
		return "parse"
	default:
		return "load"
	}
}

// problemKeys lists, once each, the env keys named by a "validate config:"
// error. Problems that name no key count as "other".
func problemKeys(err error) []string {
	if err == nil {
		return nil
	}
	_, list, ok := strings.Cut(err.Error(), "validate config:")
	if !ok {
		return nil
	}
	var keys []string
	seen := make(map[string]bool)
	for _, problem := range strings.Split(list, ";") {
		key := problemKeyPattern.FindString(problem)
		if key == "" {
			key = "other"
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}
