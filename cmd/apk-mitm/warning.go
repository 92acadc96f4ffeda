package main

import (
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// appBundleWarning explains why a single APK split out of an App Bundle will
// probably not install after patching.
func appBundleWarning(color bool) string {
	paint := func(s string, colors ...text.Color) string {
		if !color {
			return s
		}
		return text.Colors(colors).Sprint(s)
	}
	bold := func(s string) string { return paint(s, text.Bold, text.FgYellow) }
	dim := func(s string) string { return paint(s, text.Faint, text.FgYellow) }
	yellow := func(s string) string { return paint(s, text.FgYellow) }

	var b strings.Builder
	b.WriteString("\n  " + paint(" WARNING ", text.ReverseVideo, text.Bold, text.FgYellow) + "\n\n")
	lines := []string{
		"This app seems to be using " + bold("Android App Bundle") + yellow(" which means that you"),
		"will likely run into problems installing it. That's because this app",
		"is made out of " + bold("multiple APK files") + yellow(" and you've only got one of them."),
		"",
		"If you want to patch an app like this with " + bold("apk-mitm") + yellow(", you'll have to"),
		"supply it with all the APKs. You have two options for doing this:",
		"",
		"- download a " + bold("*.xapk") + yellow(" file ") + dim("(for example from https://apkpure.com)"),
		"- export a " + bold("*.apks") + yellow(" file ") + dim("(using https://github.com/Aefyr/SAI)"),
		"",
		"You can then run " + bold("apk-mitm") + yellow(" again with that file to patch the bundle."),
	}
	for _, line := range lines {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString("  " + yellow(line) + "\n")
	}
	return b.String()
}

func isColorWriter(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
