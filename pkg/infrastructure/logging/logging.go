// Package logging builds the process logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates a sugared logger for the given mode: "dev" for human-readable
// console output, "prod" for sampled JSON.
func New(mode string) (*zap.SugaredLogger, error) {
	var (
		log *zap.Logger
		err error
	)
	switch mode {
	case "dev":
		log, err = zap.NewDevelopment()
	case "prod", "":
		log, err = zap.NewProduction()
	default:
		return nil, fmt.Errorf("unknown log mode %q (expected dev or prod)", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log.Sugar(), nil
}
