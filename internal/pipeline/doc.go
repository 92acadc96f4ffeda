// Package pipeline runs an ordered list of stages strictly sequentially
// against one shared, typed Context.
//
// A Stage is either a leaf with a Run function or a group of child stages.
// Each stage may be disabled (omitted from execution and reporting) or
// skipped (reported, never run). The Runner stops at the first stage whose
// Run returns an error and reports that stage's title together with the
// unmodified cause in the Outcome. Stages that recover locally do so by
// calling Reporter.Skip and returning nil.
//
// Long-running stages publish progress lines through their Reporter. Observe
// and Drain adapt callback-driven and sequence-driven operations so every
// line reaches the reporter in emission order before the operation's own
// result is returned. Rendering is delegated to an Observer: ConsoleRenderer
// for terminals and pipes, LogObserver for structured logs.
package pipeline
