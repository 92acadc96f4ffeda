// Package services defines shared utilities consumed by the patch pipeline
// stages and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage titles for logging
//     and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (external tool, validation, configuration, interruption).
//   - The Executor abstraction that runs external commands and streams their
//     output line by line, which keeps apktool and signer wrappers testable.
//
// Use these helpers when wiring new tool integrations so operational
// behaviour (error handling, observability, progress streaming) stays uniform
// across the pipeline.
package services
