package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"apkmitm/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Tools.Apktool = filepath.Join(base, "tools", "apktool.jar")
	cfgVal.Tools.Signer = filepath.Join(base, "tools", "uber-apk-signer.jar")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithCertificate writes a placeholder PEM certificate and sets it on the
// test config.
func WithCertificate() ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "proxy.pem")
		WriteTree(b.t, b.baseDir, map[string]string{"proxy.pem": TestCertificatePEM})
		b.cfg.Patch.Certificate = path
	}
}

// WithStubbedTools writes placeholder jars at the configured tool paths and
// prepends a fake java executable to PATH that emulates apktool and
// uber-apk-signer (see FakeJava).
func WithStubbedTools() ConfigOption {
	return func(b *configBuilder) {
		for _, jar := range []string{b.cfg.Tools.Apktool, b.cfg.Tools.Signer} {
			WriteFile(b.t, jar, 64)
		}

		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		javaPath := filepath.Join(binDir, "java")
		if err := os.WriteFile(javaPath, []byte(FakeJava), 0o755); err != nil {
			b.t.Fatalf("write java stub: %v", err)
		}
		b.cfg.Tools.Java = javaPath

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
