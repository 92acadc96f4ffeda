package pinning

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"apkmitm/internal/pipeline"
)

// SmaliPattern matches the smali sources of every dex file in a decoded tree.
const SmaliPattern = "smali*/**/*.smali"

// Disabler patches pinning checks out of a decoded tree.
type Disabler struct{}

// Disable rewrites every matching class under root and returns the names of
// the classes it patched. Progress lines go to reporter.
func (Disabler) Disable(ctx context.Context, root string, reporter pipeline.Reporter) ([]string, error) {
	files, err := doublestar.Glob(os.DirFS(root), SmaliPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("find smali files: %w", err)
	}
	reporter.Output(fmt.Sprintf("Scanning %d smali files...", len(files)))

	var patched []string
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return patched, err
		}
		path := filepath.Join(root, filepath.FromSlash(rel))
		name, ok, err := patchFile(path)
		if err != nil {
			return patched, err
		}
		if ok {
			patched = append(patched, name)
			reporter.Output("Applied patch to " + name)
		}
	}
	if len(patched) == 0 {
		reporter.Output("No certificate pinning found")
	}
	return patched, nil
}

func patchFile(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	src := string(data)
	out, changed := patchSource(src)
	if !changed {
		return "", false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return "", false, fmt.Errorf("write %s: %w", path, err)
	}
	return className(src, filepath.Base(path)), true, nil
}
