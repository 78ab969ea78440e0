// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels. Records logged with a context carrying a trace ID
// are tagged with that ID so that a request can be followed across components.
package logger
