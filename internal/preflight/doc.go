// Package preflight provides readiness checks for the tools and filesystem
// paths a patch run depends on.
//
// These checks run in two contexts:
//   - The patch command calls ForRun before starting the pipeline so a
//     missing jar or unwritable directory is reported before decoding begins.
//   - The CLI "apk-mitm doctor" command calls RunAll to display readiness.
package preflight
