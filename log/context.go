package log

import (
	"context"

	"github.com/google/uuid"
)

// ContextFields is a map of fields to add to log messages
type ContextFields map[string]interface{}

// MergeContextFields merges multiple context fields maps into a single map
func MergeContextFields(fieldSets ...ContextFields) ContextFields {
	result := make(ContextFields)

	for _, fields := range fieldSets {
		for k, v := range fields {
			result[k] = v
		}
	}

	return result
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// NewRequestContext creates a new context with a logger that has a trace ID
func NewRequestContext(parentCtx context.Context, moduleName string) (context.Context, *Logger) {
	traceID := NewTraceID()
	logger := New(moduleName).WithTraceID(traceID)
	ctx := logger.WithContext(parentCtx)
	return ctx, logger
}
