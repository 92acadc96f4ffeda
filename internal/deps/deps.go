package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"apkmitm/internal/config"
)

// Kind distinguishes executables on PATH from jars run through Java.
type Kind int

const (
	KindBinary Kind = iota
	KindJar
)

// Requirement defines an external dependency apk-mitm relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Kind        Kind
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ForTools lists the programs a patch run needs.
func ForTools(tools config.Tools) []Requirement {
	return []Requirement{
		{Name: "Java", Command: tools.Java, Description: "Runs apktool and uber-apk-signer"},
		{Name: "apktool", Command: tools.Apktool, Description: "Decodes and rebuilds APK files", Kind: KindJar},
		{Name: "uber-apk-signer", Command: tools.Signer, Description: "Zipaligns and signs the patched APK", Kind: KindJar},
	}
}

// Check evaluates the provided requirements and reports availability.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		case req.Kind == KindJar:
			status.Available, status.Detail = checkJar(cmd)
		default:
			if resolved, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Command = resolved
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}

func checkJar(path string) (bool, string) {
	if !strings.EqualFold(filepath.Ext(path), ".jar") {
		return false, fmt.Sprintf("%q is not a .jar file", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Sprintf("jar %q not found", path)
		}
		return false, fmt.Sprintf("stat %q: %v", path, err)
	}
	if info.IsDir() {
		return false, fmt.Sprintf("%q is a directory", path)
	}
	if info.Size() == 0 {
		return false, fmt.Sprintf("jar %q is empty", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Sprintf("open %q: %v", path, err)
	}
	_ = f.Close()
	return true, ""
}
