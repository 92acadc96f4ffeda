package pipeline

// AppInfo summarizes the decoded package metadata.
type AppInfo struct {
	FileName    string
	VersionName string
	VersionCode string
	MinSDK      int
	TargetSDK   int
}

// Context is the mutable record shared by every stage of one run. Each field
// is written by a single stage and read by later stages or by the caller once
// the run has finished.
type Context struct {
	// UsesAppBundle is set by the manifest stage when the app is split into
	// multiple APKs and only the base package was supplied.
	UsesAppBundle bool
	// App is set by the decode stage from apktool metadata.
	App AppInfo
	// PatchedClasses lists the classes the pinning stage rewrote.
	PatchedClasses []string
	// Warnings collects non-fatal problems surfaced during the run.
	Warnings []string
}

// AddWarning appends a warning message to the context.
func (c *Context) AddWarning(msg string) {
	c.Warnings = append(c.Warnings, msg)
}
