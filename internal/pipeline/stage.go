package pipeline

import "context"

// RunFunc is the execution body of a leaf stage.
type RunFunc func(ctx context.Context, pc *Context, r Reporter) error

// Kind distinguishes leaf stages from groups.
type Kind int

const (
	KindLeaf Kind = iota
	KindGroup
)

// Stage is one named unit of sequential pipeline work. A Stage with children
// is a group whose own run is the sequential execution of its children.
type Stage struct {
	Title    string
	Enabled  func() bool
	Skip     func() bool
	Run      RunFunc
	Children []Stage
}

// Leaf constructs a stage that executes run.
func Leaf(title string, run RunFunc) Stage {
	return Stage{Title: title, Run: run}
}

// Group constructs a stage that executes children in order.
func Group(title string, children ...Stage) Stage {
	return Stage{Title: title, Children: children}
}

// When returns a copy of the stage that only takes part in the run when
// enabled reports true at the time the stage is reached.
func (s Stage) When(enabled func() bool) Stage {
	s.Enabled = enabled
	return s
}

// SkipIf returns a copy of the stage that is reported as skipped, without
// running, when skip reports true at the time the stage is reached.
func (s Stage) SkipIf(skip func() bool) Stage {
	s.Skip = skip
	return s
}

// Kind reports whether the stage is a leaf or a group.
func (s Stage) Kind() Kind {
	if len(s.Children) > 0 {
		return KindGroup
	}
	return KindLeaf
}

func (s Stage) isEnabled() bool {
	return s.Enabled == nil || s.Enabled()
}

func (s Stage) shouldSkip() bool {
	return s.Skip != nil && s.Skip()
}
