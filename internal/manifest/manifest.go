// Package manifest rewrites a decoded AndroidManifest.xml so the app loads
// the MITM network security config.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const (
	// NetworkSecurityConfigRef is the resource the rewritten manifest points at.
	NetworkSecurityConfigRef = "@xml/nsc_mitm"

	attrNetworkSecurityConfig = "android:networkSecurityConfig"
	attrDebuggable            = "android:debuggable"
	splitsRequiredMetaData    = "com.android.vending.splits.required"
)

var (
	applicationTag = regexp.MustCompile(`(?s)<application\b[^>]*>`)
	splitRequired  = regexp.MustCompile(`android:isSplitRequired\s*=\s*"true"`)
)

// Result reports what the rewrite learned about the app.
type Result struct {
	// UsesAppBundle is true when the app is delivered as split APKs.
	UsesAppBundle bool
}

// Modifier rewrites manifests in place.
type Modifier struct {
	// Debuggable additionally marks the application debuggable.
	Debuggable bool
}

// Modify rewrites the manifest at path.
func (m Modifier) Modify(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read manifest: %w", err)
	}
	rewritten, result, err := m.Rewrite(string(data))
	if err != nil {
		return Result{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat manifest: %w", err)
	}
	if err := os.WriteFile(path, []byte(rewritten), info.Mode().Perm()); err != nil {
		return Result{}, fmt.Errorf("write manifest: %w", err)
	}
	return result, nil
}

// Rewrite applies the manifest changes to content.
func (m Modifier) Rewrite(content string) (string, Result, error) {
	loc := applicationTag.FindStringIndex(content)
	if loc == nil {
		return "", Result{}, errors.New("manifest has no <application> element")
	}
	tag := content[loc[0]:loc[1]]

	result := Result{
		UsesAppBundle: strings.Contains(content, splitsRequiredMetaData) || splitRequired.MatchString(tag),
	}

	tag = setAttribute(tag, attrNetworkSecurityConfig, NetworkSecurityConfigRef)
	if m.Debuggable {
		tag = setAttribute(tag, attrDebuggable, "true")
	}
	return content[:loc[0]] + tag + content[loc[1]:], result, nil
}

// setAttribute replaces name's value in tag or inserts it right after the
// element name.
func setAttribute(tag, name, value string) string {
	existing := regexp.MustCompile(`\s` + regexp.QuoteMeta(name) + `\s*=\s*"[^"]*"`)
	attr := fmt.Sprintf(`%s="%s"`, name, value)
	if existing.MatchString(tag) {
		return existing.ReplaceAllLiteralString(tag, " "+attr)
	}
	return strings.Replace(tag, "<application", "<application "+attr, 1)
}
