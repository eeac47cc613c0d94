// Package logging builds the process logger and log-sanitization helpers.
package logging

import "go.uber.org/zap"

// MaxQuestionLogLength caps how much of a question is logged. Questions are
// user input and can be arbitrarily long.
const MaxQuestionLogLength = 200

// New builds the process logger for the given environment: a human-readable
// development logger for "local", a JSON production logger otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// TruncateQuestion shortens a question for logging, appending an ellipsis
// when it was cut.
func TruncateQuestion(q string) string {
	if len(q) <= MaxQuestionLogLength {
		return q
	}
	return q[:MaxQuestionLogLength] + "..."
}
