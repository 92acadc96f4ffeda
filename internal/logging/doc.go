// Package logging assembles structured slog loggers and formatting helpers used
// across apk-mitm.
//
// It owns the console, JSON, and tint handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code automatically tags
// log lines with the run identifier and stage title. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
