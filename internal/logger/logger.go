// Package logger builds the shared zap logger for the service.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New returns a sugared logger configured for the given mode
// ("prod"/"production" for JSON output, anything else for development).
// Debug level is always enabled; the ingestion and retrieval pipelines
// rely on debug output as an operational aid.
func New(mode string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return zl.Sugar(), nil
}
