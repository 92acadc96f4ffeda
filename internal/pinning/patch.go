package pinning

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	methodHeader  = regexp.MustCompile(`^\.method\s+(.*?)([\w$<>-]+)\(([^)]*)\)(\S+)$`)
	classHeader   = regexp.MustCompile(`(?m)^\.class\b.*\s(L[^;\s]+;)\s*$`)
	sizeDirective = regexp.MustCompile(`^\.(registers|locals)\s+(\d+)$`)
)

// patchSource rewrites the bodies of every method in src that one of the
// matching rules targets. It reports the rewritten source and whether any
// method was replaced.
func patchSource(src string) (string, bool) {
	var targets []methodTarget
	for _, rule := range rules {
		if rule.applies(src) {
			targets = append(targets, rule.methods...)
		}
	}
	if len(targets) == 0 {
		return src, false
	}

	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines))
	changed := false
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		target, ok := matchMethod(strings.TrimSpace(line), targets)
		if !ok {
			out = append(out, line)
			continue
		}
		end := findMethodEnd(lines, i+1)
		if end < 0 {
			out = append(out, line)
			continue
		}
		out = append(out, line)
		out = append(out, methodBody(target.kind, lines[i+1:end])...)
		out = append(out, lines[end])
		changed = true
		i = end
	}
	return strings.Join(out, "\n"), changed
}

func matchMethod(line string, targets []methodTarget) (methodTarget, bool) {
	m := methodHeader.FindStringSubmatch(line)
	if m == nil {
		return methodTarget{}, false
	}
	modifiers := strings.Fields(m[1])
	for _, mod := range modifiers {
		if mod == "abstract" || mod == "native" {
			return methodTarget{}, false
		}
	}
	for _, target := range targets {
		if m[2] == target.name && m[4] == target.returnType {
			return target, true
		}
	}
	return methodTarget{}, false
}

func findMethodEnd(lines []string, from int) int {
	for j := from; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == ".end method" {
			return j
		}
	}
	return -1
}

// methodBody returns replacement body lines. The original size directive is
// kept, grown when the replacement needs a scratch register.
func methodBody(kind returnKind, body []string) []string {
	directive := ".locals 0"
	for _, line := range body {
		if trimmed := strings.TrimSpace(line); sizeDirective.MatchString(trimmed) {
			directive = trimmed
			break
		}
	}

	switch kind {
	case returnEmptyCertificates:
		return []string{
			"    " + ensureScratch(directive),
			"",
			"    const/4 v0, 0x0",
			"",
			"    new-array v0, v0, " + certificateArray,
			"",
			"    return-object v0",
		}
	default:
		return []string{
			"    " + directive,
			"",
			"    return-void",
		}
	}
}

// ensureScratch makes room for v0. With .registers the count also covers the
// implicit this parameter, so two are needed.
func ensureScratch(directive string) string {
	m := sizeDirective.FindStringSubmatch(directive)
	if m == nil {
		return ".locals 1"
	}
	n, _ := strconv.Atoi(m[2])
	minimum := 1
	if m[1] == "registers" {
		minimum = 2
	}
	if n < minimum {
		n = minimum
	}
	return "." + m[1] + " " + strconv.Itoa(n)
}

// className converts the smali class descriptor in src to a dotted Java name.
func className(src, fallback string) string {
	m := classHeader.FindStringSubmatch(src)
	if m == nil {
		return fallback
	}
	name := strings.TrimSuffix(strings.TrimPrefix(m[1], "L"), ";")
	return strings.ReplaceAll(name, "/", ".")
}
